package progress

import (
	"sync"
	"testing"
)

func TestHighWaterSlotConcurrentMax(t *testing.T) {
	for round := 0; round < 200; round++ {
		var h HighWaterSlot
		var wg sync.WaitGroup
		for _, v := range []uint64{5, 7, 3} {
			wg.Add(1)
			go func(v uint64) {
				defer wg.Done()
				h.Observe(v)
			}(v)
		}
		wg.Wait()
		if got := h.Load(); got != 7 {
			t.Fatalf("round %d: expected 7, got %d", round, got)
		}
	}
}

func TestHighWaterSlotNeverDecreases(t *testing.T) {
	var h HighWaterSlot
	h.Observe(10)
	h.Observe(4)
	if got := h.Load(); got != 10 {
		t.Fatalf("expected 10, got %d", got)
	}
	h.Observe(11)
	if got := h.Load(); got != 11 {
		t.Fatalf("expected 11, got %d", got)
	}
}

func TestStartupGate(t *testing.T) {
	g := NewStartupGate(true)
	if !g.Suppressing() {
		t.Fatalf("expected gate to start suppressing")
	}
	if !g.Open() {
		t.Fatalf("first Open should transition")
	}
	if g.Suppressing() {
		t.Fatalf("gate should be open")
	}
	if g.Open() {
		t.Fatalf("second Open must be a no-op")
	}
	if g.Suppressing() {
		t.Fatalf("gate must stay open")
	}
}

func TestStartupGateDisabledStartsOpen(t *testing.T) {
	g := NewStartupGate(false)
	if g.Suppressing() {
		t.Fatalf("unconfigured gate must be open")
	}
	if g.Open() {
		t.Fatalf("opening an open gate is a no-op")
	}
}

func TestStartupGateConcurrentOpenOnce(t *testing.T) {
	g := NewStartupGate(true)
	var wg sync.WaitGroup
	var mu sync.Mutex
	transitions := 0
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if g.Open() {
				mu.Lock()
				transitions++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if transitions != 1 {
		t.Fatalf("expected exactly one transition, got %d", transitions)
	}
}
