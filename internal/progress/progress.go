// Package progress holds the two lock-free values shared between the host
// callback path and the serving side: the highest slot with an observed
// account write and the startup suppression gate.
package progress

import "sync/atomic"

// HighWaterSlot is a monotonically non-decreasing slot number.
type HighWaterSlot struct {
	v atomic.Uint64
}

// Observe raises the value to slot if slot is higher. It never lowers it.
func (h *HighWaterSlot) Observe(slot uint64) {
	for {
		cur := h.v.Load()
		if slot <= cur || h.v.CompareAndSwap(cur, slot) {
			return
		}
	}
}

// Load returns the highest slot observed so far.
func (h *HighWaterSlot) Load() uint64 { return h.v.Load() }

// StartupGate is a one-way latch from Suppressing to Open.
type StartupGate struct {
	open atomic.Bool
}

// NewStartupGate returns a gate that starts Suppressing when suppress is set
// and Open otherwise.
func NewStartupGate(suppress bool) *StartupGate {
	g := &StartupGate{}
	g.open.Store(!suppress)
	return g
}

// Open transitions the gate to Open. It reports whether this call performed
// the transition; later calls are no-ops.
func (g *StartupGate) Open() bool { return g.open.CompareAndSwap(false, true) }

// Suppressing reports whether startup updates are currently dropped.
func (g *StartupGate) Suppressing() bool { return !g.open.Load() }
