package ingest

import (
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
)

var (
	// ErrFull reports that the value was dropped because the channel is at
	// capacity. It is recoverable.
	ErrFull = errors.New("ingest channel full")
	// ErrDisconnected reports that the consumer is gone. It is fatal for the
	// channel's category.
	ErrDisconnected = errors.New("ingest channel disconnected")
)

// Channel is a bounded multi-producer single-consumer queue.
type Channel[T any] struct {
	name      string
	ch        chan T
	done      chan struct{}
	closeOnce sync.Once

	accepted atomic.Uint64
	dropped  atomic.Uint64
}

// New returns a channel holding at most capacity values. A capacity below one
// is raised to one.
func New[T any](name string, capacity int) *Channel[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Channel[T]{
		name: name,
		ch:   make(chan T, capacity),
		done: make(chan struct{}),
	}
}

// TrySend enqueues v without blocking.
func (c *Channel[T]) TrySend(v T) error {
	select {
	case <-c.done:
		return ErrDisconnected
	default:
	}
	select {
	case c.ch <- v:
		c.accepted.Add(1)
		return nil
	default:
		c.dropped.Add(1)
		return ErrFull
	}
}

// Receive returns the consumer side. Only one goroutine may drain it.
func (c *Channel[T]) Receive() <-chan T { return c.ch }

// CloseReceiver marks the consumer as gone. Subsequent TrySend calls return
// ErrDisconnected. It is safe to call more than once.
func (c *Channel[T]) CloseReceiver() {
	c.closeOnce.Do(func() { close(c.done) })
}

// Done is closed once the consumer has gone away.
func (c *Channel[T]) Done() <-chan struct{} { return c.done }

// Name returns the update category the channel carries.
func (c *Channel[T]) Name() string { return c.name }

// Len returns how many updates are queued.
func (c *Channel[T]) Len() int { return len(c.ch) }

// Cap returns the fixed queue capacity.
func (c *Channel[T]) Cap() int { return cap(c.ch) }

// Accepted returns how many updates TrySend has enqueued.
func (c *Channel[T]) Accepted() uint64 { return c.accepted.Load() }

// Dropped returns how many updates TrySend rejected for a full queue.
func (c *Channel[T]) Dropped() uint64 { return c.dropped.Load() }
