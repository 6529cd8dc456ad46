package broadcast

import (
	"context"
	"time"
)

// Sink is implemented by transports to deliver records to one remote peer.
type Sink[T any] interface {
	Send(*T) error
	// Heartbeat sends an empty keep-alive envelope.
	Heartbeat() error
	Context() context.Context
}

// Stream attaches a subscriber and writes its records to sink until the peer
// goes away, the subscriber is evicted, or the hub shuts down. It returns nil
// when the peer's context ends and the detach reason otherwise. A positive
// heartbeat sends keep-alives on that interval.
func (h *Hub[T]) Stream(sink Sink[T], match func(*T) bool, heartbeat time.Duration) error {
	sub, err := h.Subscribe(match)
	if err != nil {
		return err
	}
	defer h.Unsubscribe(sub)

	var tick <-chan time.Time
	if heartbeat > 0 {
		t := time.NewTicker(heartbeat)
		defer t.Stop()
		tick = t.C
	}
	ctx := sink.Context()
	for {
		select {
		case v := <-sub.C():
			if err := sink.Send(v); err != nil {
				return err
			}
		case <-tick:
			if err := sink.Heartbeat(); err != nil {
				return err
			}
		case <-sub.Done():
			return sub.Err()
		case <-ctx.Done():
			return nil
		}
	}
}
