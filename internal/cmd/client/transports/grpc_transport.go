package transports

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/pkg/errors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	geyserv1 "github.com/rzbill/geyserstream/api/geyser/v1"
)

// GrpcTransport implements GeyserTransport over gRPC.
type GrpcTransport struct {
	dial     func(ctx context.Context) (*grpc.ClientConn, error)
	callOpts []grpc.CallOption
}

// NewGrpcTransport constructs a GrpcTransport using the provided dialer.
// callOpts are attached to every RPC, e.g. access-token credentials.
func NewGrpcTransport(dial func(ctx context.Context) (*grpc.ClientConn, error), callOpts ...grpc.CallOption) *GrpcTransport {
	return &GrpcTransport{dial: dial, callOpts: callOpts}
}

func (t *GrpcTransport) withClient(ctx context.Context, fn func(cli geyserv1.GeyserClient) error) error {
	conn, err := t.dial(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()
	return fn(geyserv1.NewGeyserClient(conn))
}

// HighestWriteSlot queries the relay's high-water slot.
func (t *GrpcTransport) HighestWriteSlot(ctx context.Context) (uint64, error) {
	var slot uint64
	err := t.withClient(ctx, func(cli geyserv1.GeyserClient) error {
		res, err := cli.GetHighestWriteSlot(ctx, &geyserv1.GetHighestWriteSlotRequest{}, t.callOpts...)
		if err != nil {
			return err
		}
		slot = res.HighestWriteSlot
		return nil
	})
	return slot, err
}

// HeartbeatInterval queries the relay's keep-alive period.
func (t *GrpcTransport) HeartbeatInterval(ctx context.Context) (time.Duration, error) {
	var d time.Duration
	err := t.withClient(ctx, func(cli geyserv1.GeyserClient) error {
		res, err := cli.GetHeartbeatInterval(ctx, &geyserv1.GetHeartbeatIntervalRequest{}, t.callOpts...)
		if err != nil {
			return err
		}
		d = time.Duration(res.HeartbeatIntervalMs) * time.Millisecond
		return nil
	})
	return d, err
}

// Subscribe streams one category and invokes onUpdate for each envelope.
// It returns nil when the server ends the stream cleanly or ctx is
// cancelled, and the server status otherwise.
func (t *GrpcTransport) Subscribe(ctx context.Context, req SubscribeRequest, onUpdate func(Update) error) error {
	return t.withClient(ctx, func(cli geyserv1.GeyserClient) error {
		switch req.Category {
		case CategoryAccounts:
			s, err := cli.SubscribeAccountUpdates(ctx, &geyserv1.SubscribeAccountUpdatesRequest{
				Accounts: req.Accounts,
				Owners:   req.Owners,
				Filter:   req.Filter,
				SkipData: req.SkipData,
			}, t.callOpts...)
			if err != nil {
				return err
			}
			return recvLoop(s, req, func(m *geyserv1.TimestampedAccountUpdate) Update {
				u := Update{Category: req.Category, Ts: m.Ts}
				if m.AccountUpdate != nil {
					u.Payload = m.AccountUpdate
				}
				return u
			}, onUpdate)
		case CategorySlots:
			s, err := cli.SubscribeSlotUpdates(ctx, &geyserv1.SubscribeSlotUpdatesRequest{}, t.callOpts...)
			if err != nil {
				return err
			}
			return recvLoop(s, req, func(m *geyserv1.TimestampedSlotUpdate) Update {
				u := Update{Category: req.Category, Ts: m.Ts}
				if m.SlotUpdate != nil {
					u.Payload = m.SlotUpdate
				}
				return u
			}, onUpdate)
		case CategoryEntries:
			s, err := cli.SubscribeSlotEntryUpdates(ctx, &geyserv1.SubscribeSlotEntryUpdatesRequest{}, t.callOpts...)
			if err != nil {
				return err
			}
			return recvLoop(s, req, func(m *geyserv1.TimestampedSlotEntryUpdate) Update {
				u := Update{Category: req.Category, Ts: m.Ts}
				if m.EntryUpdate != nil {
					u.Payload = m.EntryUpdate
				}
				return u
			}, onUpdate)
		case CategoryBlocks:
			s, err := cli.SubscribeBlockUpdates(ctx, &geyserv1.SubscribeBlockUpdatesRequest{}, t.callOpts...)
			if err != nil {
				return err
			}
			return recvLoop(s, req, func(m *geyserv1.TimestampedBlockUpdate) Update {
				u := Update{Category: req.Category, Ts: m.Ts}
				if m.BlockUpdate != nil {
					u.Payload = m.BlockUpdate
				}
				return u
			}, onUpdate)
		case CategoryTransactions:
			s, err := cli.SubscribeTransactionUpdates(ctx, &geyserv1.SubscribeTransactionUpdatesRequest{
				Filter:       req.Filter,
				ExcludeVotes: req.ExcludeVotes,
			}, t.callOpts...)
			if err != nil {
				return err
			}
			return recvLoop(s, req, func(m *geyserv1.TimestampedTransactionUpdate) Update {
				u := Update{Category: req.Category, Ts: m.Ts}
				if m.Transaction != nil {
					u.Payload = m.Transaction
				}
				return u
			}, onUpdate)
		default:
			return fmt.Errorf("unknown category %q", req.Category)
		}
	})
}

func recvLoop[T any](s geyserv1.ClientStream[T], req SubscribeRequest, wrap func(*T) Update, onUpdate func(Update) error) error {
	n := 0
	for {
		m, err := s.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) || status.Code(err) == codes.Canceled {
				return nil
			}
			return err
		}
		u := wrap(m)
		if u.Heartbeat() && !req.Heartbeats {
			continue
		}
		if err := onUpdate(u); err != nil {
			return err
		}
		if !u.Heartbeat() {
			n++
			if req.Limit > 0 && n >= req.Limit {
				return nil
			}
		}
	}
}
