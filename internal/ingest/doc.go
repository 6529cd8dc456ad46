// Package ingest provides the bounded hand-off between host callbacks and
// the serving side.
//
// A Channel has many producers and exactly one consumer. TrySend never
// blocks: it either accepts the value, reports ErrFull so the caller can
// drop it, or reports ErrDisconnected once the consumer has gone away. The
// data channel itself is never closed, so a late producer cannot panic;
// the consumer signals its departure through CloseReceiver instead.
package ingest
