package broadcast

import (
	"context"

	"golang.org/x/sync/errgroup"

	geyserv1 "github.com/rzbill/geyserstream/api/geyser/v1"
	"github.com/rzbill/geyserstream/internal/ingest"
	"github.com/rzbill/geyserstream/internal/updates"
	"github.com/rzbill/geyserstream/pkg/id"
	logpkg "github.com/rzbill/geyserstream/pkg/log"
)

// Service owns one hub per category.
type Service struct {
	Accounts     *Hub[geyserv1.TimestampedAccountUpdate]
	Slots        *Hub[geyserv1.TimestampedSlotUpdate]
	Entries      *Hub[geyserv1.TimestampedSlotEntryUpdate]
	Blocks       *Hub[geyserv1.TimestampedBlockUpdate]
	Transactions *Hub[geyserv1.TimestampedTransactionUpdate]
}

// NewService builds the five hubs with a shared subscriber id generator.
func NewService(bufLen int, logger logpkg.Logger) *Service {
	opts := Options{BufLen: bufLen, Logger: logger, IDs: id.NewGenerator()}
	return &Service{
		Accounts:     NewHub[geyserv1.TimestampedAccountUpdate](string(updates.CategoryAccount), opts),
		Slots:        NewHub[geyserv1.TimestampedSlotUpdate](string(updates.CategorySlot), opts),
		Entries:      NewHub[geyserv1.TimestampedSlotEntryUpdate](string(updates.CategoryEntry), opts),
		Blocks:       NewHub[geyserv1.TimestampedBlockUpdate](string(updates.CategoryBlock), opts),
		Transactions: NewHub[geyserv1.TimestampedTransactionUpdate](string(updates.CategoryTransaction), opts),
	}
}

// Run drains every channel of set until ctx is cancelled.
func (s *Service) Run(ctx context.Context, set *ingest.Set) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.Accounts.Run(ctx, set.Accounts) })
	g.Go(func() error { return s.Slots.Run(ctx, set.Slots) })
	g.Go(func() error { return s.Entries.Run(ctx, set.Entries) })
	g.Go(func() error { return s.Blocks.Run(ctx, set.Blocks) })
	g.Go(func() error { return s.Transactions.Run(ctx, set.Transactions) })
	return g.Wait()
}

// Subscribers returns the attached subscriber count for a category.
func (s *Service) Subscribers(c updates.Category) int {
	switch c {
	case updates.CategoryAccount:
		return s.Accounts.Len()
	case updates.CategorySlot:
		return s.Slots.Len()
	case updates.CategoryEntry:
		return s.Entries.Len()
	case updates.CategoryBlock:
		return s.Blocks.Len()
	case updates.CategoryTransaction:
		return s.Transactions.Len()
	}
	return 0
}

// Evicted returns the eviction count for a category.
func (s *Service) Evicted(c updates.Category) uint64 {
	switch c {
	case updates.CategoryAccount:
		return s.Accounts.Evicted()
	case updates.CategorySlot:
		return s.Slots.Evicted()
	case updates.CategoryEntry:
		return s.Entries.Evicted()
	case updates.CategoryBlock:
		return s.Blocks.Evicted()
	case updates.CategoryTransaction:
		return s.Transactions.Evicted()
	}
	return 0
}
