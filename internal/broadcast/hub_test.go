package broadcast

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rzbill/geyserstream/internal/ingest"
	logpkg "github.com/rzbill/geyserstream/pkg/log"
)

type rec struct{ n int }

func newTestHub(bufLen int) *Hub[rec] {
	return NewHub[rec]("test", Options{BufLen: bufLen, Logger: logpkg.NewNopLogger()})
}

func recv(t *testing.T, s *Subscriber[rec]) *rec {
	t.Helper()
	select {
	case v := <-s.C():
		return v
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for record")
		return nil
	}
}

func TestSlowSubscriberEvictedSiblingContinues(t *testing.T) {
	h := newTestHub(2)
	fast, _ := h.Subscribe(nil)
	slow, _ := h.Subscribe(nil)

	for i := 0; i < 10; i++ {
		h.Publish(&rec{n: i})
		if got := recv(t, fast); got.n != i {
			t.Fatalf("fast subscriber: expected %d, got %d", i, got.n)
		}
	}
	select {
	case <-slow.Done():
	default:
		t.Fatalf("slow subscriber should have been evicted")
	}
	if !errors.Is(slow.Err(), ErrSlowSubscriber) {
		t.Fatalf("expected ErrSlowSubscriber, got %v", slow.Err())
	}
	if fast.Err() != nil {
		t.Fatalf("fast subscriber must stay attached, got %v", fast.Err())
	}
	if h.Len() != 1 || h.Evicted() != 1 {
		t.Fatalf("len=%d evicted=%d", h.Len(), h.Evicted())
	}
	// The evicted subscriber kept what fit in its queue before overflowing.
	if got := recv(t, slow); got.n != 0 {
		t.Fatalf("slow queue head: expected 0, got %d", got.n)
	}
}

func TestLateSubscriberSeesOnlyLaterRecords(t *testing.T) {
	h := newTestHub(4)
	early, _ := h.Subscribe(nil)
	h.Publish(&rec{n: 1})
	late, _ := h.Subscribe(nil)
	h.Publish(&rec{n: 2})

	if recv(t, early).n != 1 || recv(t, early).n != 2 {
		t.Fatalf("early subscriber order broken")
	}
	if got := recv(t, late); got.n != 2 {
		t.Fatalf("late subscriber: expected 2, got %d", got.n)
	}
}

func TestMatchFiltersPerSubscriber(t *testing.T) {
	h := newTestHub(4)
	even, _ := h.Subscribe(func(r *rec) bool { return r.n%2 == 0 })
	for i := 0; i < 4; i++ {
		h.Publish(&rec{n: i})
	}
	if recv(t, even).n != 0 || recv(t, even).n != 2 {
		t.Fatalf("filter not applied")
	}
}

func TestBoundedChannelThenLateSubscriber(t *testing.T) {
	ch := ingest.New[*rec]("test", 2)
	for i, name := range []int{'A', 'B', 'C'} {
		err := ch.TrySend(&rec{n: name})
		if i < 2 && err != nil {
			t.Fatalf("send %c: %v", name, err)
		}
		if i == 2 && !errors.Is(err, ingest.ErrFull) {
			t.Fatalf("send C: expected ErrFull, got %v", err)
		}
	}

	h := newTestHub(8)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.Run(ctx, ch) }()
	defer func() {
		cancel()
		<-done
	}()

	time.Sleep(20 * time.Millisecond)
	sub, err := h.Subscribe(nil)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if got := recv(t, sub); got.n != 'A' {
		t.Fatalf("expected A, got %c", got.n)
	}
	if got := recv(t, sub); got.n != 'B' {
		t.Fatalf("expected B, got %c", got.n)
	}
	select {
	case v := <-sub.C():
		t.Fatalf("unexpected record %c", v.n)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestRunShutdownClosesSubscribersAndReceiver(t *testing.T) {
	ch := ingest.New[*rec]("test", 4)
	h := newTestHub(4)
	sub, _ := h.Subscribe(nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.Run(ctx, ch) }()
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("run: %v", err)
	}
	<-sub.Done()
	if !errors.Is(sub.Err(), ErrShutdown) {
		t.Fatalf("expected ErrShutdown, got %v", sub.Err())
	}
	if err := ch.TrySend(&rec{}); !errors.Is(err, ingest.ErrDisconnected) {
		t.Fatalf("expected ErrDisconnected after shutdown, got %v", err)
	}
	if _, err := h.Subscribe(nil); !errors.Is(err, ErrShutdown) {
		t.Fatalf("subscribe after shutdown: %v", err)
	}
}

func TestConcurrentAttachDetachDuringFanout(t *testing.T) {
	ch := ingest.New[*rec]("test", 1024)
	h := newTestHub(1024)
	keeper, _ := h.Subscribe(nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.Run(ctx, ch) }()

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				s, err := h.Subscribe(nil)
				if err != nil {
					return
				}
				h.Unsubscribe(s)
			}
		}()
	}
	for i := 0; i < 500; i++ {
		if err := ch.TrySend(&rec{n: i}); err != nil {
			t.Fatalf("send %d: %v", i, err)
		}
	}
	wg.Wait()
	for i := 0; i < 500; i++ {
		if got := recv(t, keeper); got.n != i {
			t.Fatalf("expected %d, got %d", i, got.n)
		}
	}
	cancel()
	<-done
}
