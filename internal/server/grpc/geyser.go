package grpcserver

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"

	geyserv1 "github.com/rzbill/geyserstream/api/geyser/v1"
	"github.com/rzbill/geyserstream/internal/broadcast"
	"github.com/rzbill/geyserstream/internal/filter"
	"github.com/rzbill/geyserstream/internal/progress"
	logpkg "github.com/rzbill/geyserstream/pkg/log"
)

type geyserSvc struct {
	geyserv1.UnimplementedGeyserServer
	hubs      *broadcast.Service
	highWater *progress.HighWaterSlot
	heartbeat time.Duration
	logger    logpkg.Logger
}

// grpcSink adapts a server stream to broadcast.Sink.
type grpcSink[T any] struct {
	stream  geyserv1.ServerStream[T]
	empty   func() *T
	rewrite func(*T) *T
}

func (g grpcSink[T]) Send(v *T) error {
	if g.rewrite != nil {
		v = g.rewrite(v)
	}
	return g.stream.Send(v)
}
func (g grpcSink[T]) Heartbeat() error         { return g.stream.Send(g.empty()) }
func (g grpcSink[T]) Context() context.Context { return g.stream.Context() }

func serve[T any](s *geyserSvc, hub *broadcast.Hub[T], sink grpcSink[T], match func(*T) bool) error {
	ctx := sink.Context()
	l := s.logger.With(logpkg.Str("category", hub.Name()))
	if p, ok := peer.FromContext(ctx); ok {
		l = l.With(logpkg.Str("peer", p.Addr.String()))
	}
	l.Info("subscription opened")
	err := hub.Stream(sink, match, s.heartbeat)
	switch {
	case err == nil:
		l.Info("subscription closed")
		return nil
	case errors.Is(err, broadcast.ErrSlowSubscriber):
		l.Warn("subscription evicted", logpkg.Err(err))
		return status.Error(codes.ResourceExhausted, "subscriber fell behind and was disconnected")
	case errors.Is(err, broadcast.ErrShutdown):
		l.Info("subscription ended by shutdown")
		return status.Error(codes.Unavailable, "service shutting down")
	default:
		l.Debug("subscription send failed", logpkg.Err(err))
		return err
	}
}

func (s *geyserSvc) GetHeartbeatInterval(context.Context, *geyserv1.GetHeartbeatIntervalRequest) (*geyserv1.GetHeartbeatIntervalResponse, error) {
	return &geyserv1.GetHeartbeatIntervalResponse{HeartbeatIntervalMs: uint64(s.heartbeat / time.Millisecond)}, nil
}

func (s *geyserSvc) GetHighestWriteSlot(context.Context, *geyserv1.GetHighestWriteSlotRequest) (*geyserv1.GetHighestWriteSlotResponse, error) {
	return &geyserv1.GetHighestWriteSlotResponse{HighestWriteSlot: s.highWater.Load()}, nil
}

func (s *geyserSvc) SubscribeAccountUpdates(req *geyserv1.SubscribeAccountUpdatesRequest, stream geyserv1.ServerStream[geyserv1.TimestampedAccountUpdate]) error {
	f, err := filter.NewAccount(req)
	if err != nil {
		return status.Error(codes.InvalidArgument, err.Error())
	}
	sink := grpcSink[geyserv1.TimestampedAccountUpdate]{
		stream: stream,
		empty:  func() *geyserv1.TimestampedAccountUpdate { return &geyserv1.TimestampedAccountUpdate{Ts: time.Now()} },
	}
	if f.SkipData() {
		sink.rewrite = withoutData
	}
	return serve(s, s.hubs.Accounts, sink, f.Match)
}

func (s *geyserSvc) SubscribeSlotUpdates(_ *geyserv1.SubscribeSlotUpdatesRequest, stream geyserv1.ServerStream[geyserv1.TimestampedSlotUpdate]) error {
	return serve(s, s.hubs.Slots, grpcSink[geyserv1.TimestampedSlotUpdate]{
		stream: stream,
		empty:  func() *geyserv1.TimestampedSlotUpdate { return &geyserv1.TimestampedSlotUpdate{Ts: time.Now()} },
	}, nil)
}

func (s *geyserSvc) SubscribeSlotEntryUpdates(_ *geyserv1.SubscribeSlotEntryUpdatesRequest, stream geyserv1.ServerStream[geyserv1.TimestampedSlotEntryUpdate]) error {
	return serve(s, s.hubs.Entries, grpcSink[geyserv1.TimestampedSlotEntryUpdate]{
		stream: stream,
		empty:  func() *geyserv1.TimestampedSlotEntryUpdate { return &geyserv1.TimestampedSlotEntryUpdate{Ts: time.Now()} },
	}, nil)
}

func (s *geyserSvc) SubscribeBlockUpdates(_ *geyserv1.SubscribeBlockUpdatesRequest, stream geyserv1.ServerStream[geyserv1.TimestampedBlockUpdate]) error {
	return serve(s, s.hubs.Blocks, grpcSink[geyserv1.TimestampedBlockUpdate]{
		stream: stream,
		empty:  func() *geyserv1.TimestampedBlockUpdate { return &geyserv1.TimestampedBlockUpdate{Ts: time.Now()} },
	}, nil)
}

func (s *geyserSvc) SubscribeTransactionUpdates(req *geyserv1.SubscribeTransactionUpdatesRequest, stream geyserv1.ServerStream[geyserv1.TimestampedTransactionUpdate]) error {
	f, err := filter.NewTransaction(req)
	if err != nil {
		return status.Error(codes.InvalidArgument, err.Error())
	}
	return serve(s, s.hubs.Transactions, grpcSink[geyserv1.TimestampedTransactionUpdate]{
		stream: stream,
		empty:  func() *geyserv1.TimestampedTransactionUpdate { return &geyserv1.TimestampedTransactionUpdate{Ts: time.Now()} },
	}, f.Match)
}

// withoutData copies m with the account data stripped. Records are shared
// across subscribers and must not be mutated in place.
func withoutData(m *geyserv1.TimestampedAccountUpdate) *geyserv1.TimestampedAccountUpdate {
	if m.AccountUpdate == nil || m.AccountUpdate.Data == nil {
		return m
	}
	u := *m.AccountUpdate
	u.Data = nil
	return &geyserv1.TimestampedAccountUpdate{Ts: m.Ts, AccountUpdate: &u}
}
