// Package transports provides pluggable transport implementations for the CLI.
package transports

import (
	"context"
	"time"
)

// Category names accepted by Subscribe.
const (
	CategoryAccounts     = "accounts"
	CategorySlots        = "slots"
	CategoryEntries      = "entries"
	CategoryBlocks       = "blocks"
	CategoryTransactions = "transactions"
)

// Categories lists every subscribable category in display order.
var Categories = []string{CategoryAccounts, CategorySlots, CategoryEntries, CategoryBlocks, CategoryTransactions}

// SubscribeRequest describes one category subscription.
type SubscribeRequest struct {
	Category string
	// Accounts and Owners are base58 keys; account streams only.
	Accounts []string
	Owners   []string
	// Filter is a server-side CEL expression (accounts and transactions).
	Filter       string
	SkipData     bool
	ExcludeVotes bool
	// Limit stops after N updates; heartbeats do not count. 0 is unbounded.
	Limit int
	// Heartbeats passes keep-alive envelopes to the callback.
	Heartbeats bool
}

// Update is one received envelope. Payload is nil for heartbeats and
// otherwise one of the geyser.v1 update types.
type Update struct {
	Category string
	Ts       time.Time
	Payload  any
}

// Heartbeat reports whether u carries no update.
func (u Update) Heartbeat() bool { return u.Payload == nil }

// GeyserTransport abstracts the transport used by the CLI.
type GeyserTransport interface {
	Subscribe(ctx context.Context, req SubscribeRequest, onUpdate func(Update) error) error
	HighestWriteSlot(ctx context.Context) (uint64, error)
	HeartbeatInterval(ctx context.Context) (time.Duration, error)
}
