package grpcserver

import (
	"context"
	"errors"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	geyserv1 "github.com/rzbill/geyserstream/api/geyser/v1"
	"github.com/rzbill/geyserstream/internal/ingest"
)

func sendSlot(t *testing.T, ch *ingest.Channel[*geyserv1.TimestampedSlotUpdate], slot uint64) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		err := ch.TrySend(&geyserv1.TimestampedSlotUpdate{Ts: time.Now(), SlotUpdate: &geyserv1.SlotUpdate{Slot: slot}})
		if err == nil {
			return
		}
		if !errors.Is(err, ingest.ErrFull) || time.Now().After(deadline) {
			t.Fatalf("send slot %d: %v", slot, err)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestOverflowingStreamEvictedSiblingContinues(t *testing.T) {
	e := setupWith(t, Options{}, 32)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// A fixed window on its own connection: once it fills, the server-side
	// writer for this peer blocks and its queue overflows.
	slowConn, err := grpc.DialContext(ctx, "bufnet",
		grpc.WithContextDialer(e.dial),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithInitialWindowSize(1<<16),
		grpc.WithInitialConnWindowSize(1<<16),
	)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer slowConn.Close()
	slow, err := geyserv1.NewGeyserClient(slowConn).SubscribeSlotUpdates(ctx, &geyserv1.SubscribeSlotUpdatesRequest{})
	if err != nil {
		t.Fatalf("subscribe slow: %v", err)
	}
	fast, err := e.client.SubscribeSlotUpdates(ctx, &geyserv1.SubscribeSlotUpdatesRequest{})
	if err != nil {
		t.Fatalf("subscribe fast: %v", err)
	}
	waitSubscribers(t, e.hubs.Slots.Len, 2)

	recvFast := func(want uint64) {
		t.Helper()
		msg, err := fast.Recv()
		if err != nil {
			t.Fatalf("fast recv %d: %v", want, err)
		}
		if msg.SlotUpdate == nil || msg.SlotUpdate.Slot != want {
			t.Fatalf("fast stream out of order: want %d got %+v", want, msg.SlotUpdate)
		}
	}

	// The sibling reads each record before the next is sent, so only the
	// peer that never reads can fall behind.
	var slot uint64
	for ; slot < 50000 && e.hubs.Slots.Evicted() == 0; slot++ {
		sendSlot(t, e.set.Slots, slot)
		recvFast(slot)
	}
	if e.hubs.Slots.Evicted() != 1 {
		t.Fatalf("expected one eviction after %d records, got %d", slot, e.hubs.Slots.Evicted())
	}
	waitSubscribers(t, e.hubs.Slots.Len, 1)

	for end := slot + 5; slot < end; slot++ {
		sendSlot(t, e.set.Slots, slot)
		recvFast(slot)
	}

	var next uint64
	for {
		msg, err := slow.Recv()
		if err != nil {
			if status.Code(err) != codes.ResourceExhausted {
				t.Fatalf("expected ResourceExhausted for the slow stream, got %v", err)
			}
			break
		}
		if msg.SlotUpdate == nil || msg.SlotUpdate.Slot != next {
			t.Fatalf("slow stream out of order: want %d got %+v", next, msg.SlotUpdate)
		}
		next++
	}
	if next == 0 || next >= slot {
		t.Fatalf("slow stream received %d of %d records", next, slot)
	}
}
