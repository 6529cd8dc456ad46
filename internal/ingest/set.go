package ingest

import (
	geyserv1 "github.com/rzbill/geyserstream/api/geyser/v1"
	"github.com/rzbill/geyserstream/internal/updates"
)

// Capacities sizes the channels of a Set.
type Capacities struct {
	Accounts     int
	Slots        int
	Entries      int
	Blocks       int
	Transactions int
}

// Set is the five category channels shared by one plugin lifetime.
type Set struct {
	Accounts     *Channel[*geyserv1.TimestampedAccountUpdate]
	Slots        *Channel[*geyserv1.TimestampedSlotUpdate]
	Entries      *Channel[*geyserv1.TimestampedSlotEntryUpdate]
	Blocks       *Channel[*geyserv1.TimestampedBlockUpdate]
	Transactions *Channel[*geyserv1.TimestampedTransactionUpdate]
}

// NewSet allocates the channels.
func NewSet(c Capacities) *Set {
	return &Set{
		Accounts:     New[*geyserv1.TimestampedAccountUpdate](string(updates.CategoryAccount), c.Accounts),
		Slots:        New[*geyserv1.TimestampedSlotUpdate](string(updates.CategorySlot), c.Slots),
		Entries:      New[*geyserv1.TimestampedSlotEntryUpdate](string(updates.CategoryEntry), c.Entries),
		Blocks:       New[*geyserv1.TimestampedBlockUpdate](string(updates.CategoryBlock), c.Blocks),
		Transactions: New[*geyserv1.TimestampedTransactionUpdate](string(updates.CategoryTransaction), c.Transactions),
	}
}

// Stats returns the queued length and capacity of a category's channel.
func (s *Set) Stats(c updates.Category) (length, capacity int) {
	switch c {
	case updates.CategoryAccount:
		return s.Accounts.Len(), s.Accounts.Cap()
	case updates.CategorySlot:
		return s.Slots.Len(), s.Slots.Cap()
	case updates.CategoryEntry:
		return s.Entries.Len(), s.Entries.Cap()
	case updates.CategoryBlock:
		return s.Blocks.Len(), s.Blocks.Cap()
	case updates.CategoryTransaction:
		return s.Transactions.Len(), s.Transactions.Cap()
	}
	return 0, 0
}

// CloseReceivers disconnects every channel.
func (s *Set) CloseReceivers() {
	s.Accounts.CloseReceiver()
	s.Slots.CloseReceiver()
	s.Entries.CloseReceiver()
	s.Blocks.CloseReceiver()
	s.Transactions.CloseReceiver()
}
