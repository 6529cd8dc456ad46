// Package id provides a 128-bit, lexicographically sortable identifier used
// to name stream subscribers.
//
// # Format
//
// The ID is 16 bytes big-endian: [8 bytes ms_timestamp][8 bytes sequence].
// Byte-wise comparison preserves creation order, and IDs minted within the
// same millisecond stay strictly increasing by sequence.
//
// # Monotonicity
//
// The Generator never goes backwards: a regressing clock pins to the last
// seen millisecond, and an exhausted sequence borrows the next millisecond
// instead of sleeping, so Next never blocks beyond its mutex.
//
// Usage
//
//	g := id.NewGenerator()
//	subID := g.Next()
//	s := subID.String()  // hex string
package id
