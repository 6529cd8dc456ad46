// Package client provides the client half of the `geyserstream` CLI.
//
// The commands connect to a running relay over gRPC and print what they
// receive as JSON lines. They are intended for operators checking a
// validator's stream from a terminal.
//
// # Address configuration
//
// The relay address comes from --addr, then GEYSER_GRPC, then
// 127.0.0.1:10000. An access token is taken from --token or
// GEYSER_ACCESS_TOKEN. --tls enables TLS with the system roots and --ca
// names a custom CA file.
//
// Usage
//
//	geyserstream subscribe slots --limit 10
//
//	geyserstream subscribe accounts \
//	    --owners TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA \
//	    --filter 'lamports > 1000000' --skip-data
//
//	geyserstream subscribe transactions --exclude-votes --filter '!failed'
//
//	geyserstream highest-slot --addr validator:10000 --token secret
//
// Notes
//
//   - Heartbeat envelopes are hidden unless --heartbeats is set and never
//     count toward --limit.
//   - A subscriber that falls behind is disconnected by the relay; the
//     command then exits with the RESOURCE_EXHAUSTED status.
package client
