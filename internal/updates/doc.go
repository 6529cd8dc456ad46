// Package updates turns host notification payloads into the canonical
// geyser.v1 records.
//
// Every category has exactly one normalization function holding one
// exhaustive switch over the host schema versions in package replica.
// Supporting a new host version means adding a case, never changing an
// existing one. Fields a version does not expose come out as nil, not zero.
package updates
