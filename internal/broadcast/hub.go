package broadcast

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/rzbill/geyserstream/internal/ingest"
	"github.com/rzbill/geyserstream/pkg/id"
	logpkg "github.com/rzbill/geyserstream/pkg/log"
)

var (
	// ErrSlowSubscriber ends a subscription whose queue overflowed.
	ErrSlowSubscriber = errors.New("subscriber queue overflow")
	// ErrShutdown ends subscriptions when the hub stops.
	ErrShutdown = errors.New("broadcast hub shut down")
)

// DefaultBufLen is the per-subscriber queue length used when Options.BufLen
// is not positive.
const DefaultBufLen = 1024

// Options configures a Hub.
type Options struct {
	// BufLen is the capacity of each subscriber queue.
	BufLen int
	Logger logpkg.Logger
	// IDs mints subscriber ids; hubs of one Service share a generator.
	IDs *id.Generator
}

// Hub broadcasts records of one category.
type Hub[T any] struct {
	name   string
	bufLen int
	ids    *id.Generator
	logger logpkg.Logger

	mu     sync.RWMutex
	subs   map[id.ID]*Subscriber[T]
	closed bool
	// wake is signalled when a subscriber attaches to an idle hub.
	wake chan struct{}

	published atomic.Uint64
	evicted   atomic.Uint64
}

// NewHub returns a hub named after its category.
func NewHub[T any](name string, opts Options) *Hub[T] {
	if opts.BufLen <= 0 {
		opts.BufLen = DefaultBufLen
	}
	if opts.Logger == nil {
		opts.Logger = logpkg.NewLogger()
	}
	if opts.IDs == nil {
		opts.IDs = id.NewGenerator()
	}
	return &Hub[T]{
		name:   name,
		bufLen: opts.BufLen,
		ids:    opts.IDs,
		logger: opts.Logger.With(logpkg.Component("broadcast"), logpkg.Str("category", name)),
		subs:   make(map[id.ID]*Subscriber[T]),
		wake:   make(chan struct{}, 1),
	}
}

// Subscribe attaches a subscriber. A nil match accepts every record. The
// subscriber only sees records whose fan-out starts after it was attached.
func (h *Hub[T]) Subscribe(match func(*T) bool) (*Subscriber[T], error) {
	s := &Subscriber[T]{
		ID:    h.ids.Next(),
		ch:    make(chan *T, h.bufLen),
		match: match,
		done:  make(chan struct{}),
	}
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, ErrShutdown
	}
	h.subs[s.ID] = s
	n := len(h.subs)
	h.mu.Unlock()
	select {
	case h.wake <- struct{}{}:
	default:
	}
	h.logger.Debug("subscriber attached", logpkg.Str("subscriber", s.ID.String()), logpkg.Int("subscribers", n))
	return s, nil
}

// Unsubscribe detaches s. It is a no-op for an already detached subscriber.
func (h *Hub[T]) Unsubscribe(s *Subscriber[T]) {
	h.remove(s, nil)
}

func (h *Hub[T]) remove(s *Subscriber[T], reason error) {
	h.mu.Lock()
	_, ok := h.subs[s.ID]
	delete(h.subs, s.ID)
	h.mu.Unlock()
	s.close(reason)
	if !ok {
		return
	}
	if errors.Is(reason, ErrSlowSubscriber) {
		h.evicted.Add(1)
		h.logger.Warn("subscriber evicted", logpkg.Str("subscriber", s.ID.String()), logpkg.Int("buffer", h.bufLen))
		return
	}
	h.logger.Debug("subscriber detached", logpkg.Str("subscriber", s.ID.String()))
}

// Publish offers v to every current subscriber. Only the goroutine running
// Run should call it, since subscriber queues are single-writer.
func (h *Hub[T]) Publish(v *T) {
	var slow []*Subscriber[T]
	h.mu.RLock()
	for _, s := range h.subs {
		if s.match != nil && !s.match(v) {
			continue
		}
		if !s.offer(v) {
			slow = append(slow, s)
		}
	}
	h.mu.RUnlock()
	h.published.Add(1)
	for _, s := range slow {
		h.remove(s, ErrSlowSubscriber)
	}
}

// Run drains in until ctx is cancelled. On return the channel's receiver is
// closed and every remaining subscriber ends with ErrShutdown.
func (h *Hub[T]) Run(ctx context.Context, in *ingest.Channel[*T]) error {
	defer h.shutdown()
	defer in.CloseReceiver()
	h.logger.Debug("hub started", logpkg.Int("capacity", in.Cap()))
	for {
		if h.Len() == 0 {
			select {
			case <-ctx.Done():
				return nil
			case <-h.wake:
				continue
			}
		}
		select {
		case <-ctx.Done():
			return nil
		case v := <-in.Receive():
			h.Publish(v)
		}
	}
}

func (h *Hub[T]) shutdown() {
	h.mu.Lock()
	h.closed = true
	subs := h.subs
	h.subs = make(map[id.ID]*Subscriber[T])
	h.mu.Unlock()
	for _, s := range subs {
		s.close(ErrShutdown)
	}
	h.logger.Debug("hub stopped", logpkg.Int("subscribers", len(subs)))
}

// Name returns the hub's category.
func (h *Hub[T]) Name() string { return h.name }

// Len returns the number of attached subscribers.
func (h *Hub[T]) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Published returns how many records have been fanned out.
func (h *Hub[T]) Published() uint64 { return h.published.Load() }

// Evicted returns how many subscribers were dropped for overflowing.
func (h *Hub[T]) Evicted() uint64 { return h.evicted.Load() }

// Subscriber is one attached consumer of a hub.
type Subscriber[T any] struct {
	ID    id.ID
	ch    chan *T
	match func(*T) bool

	done chan struct{}
	once sync.Once
	err  error
}

// C returns the subscriber's queue. It is never closed; use Done.
func (s *Subscriber[T]) C() <-chan *T { return s.ch }

// Done is closed when the subscriber is detached.
func (s *Subscriber[T]) Done() <-chan struct{} { return s.done }

// Err returns why the subscriber was detached: ErrSlowSubscriber,
// ErrShutdown, or nil for a voluntary Unsubscribe. Valid after Done.
func (s *Subscriber[T]) Err() error {
	select {
	case <-s.done:
		return s.err
	default:
		return nil
	}
}

func (s *Subscriber[T]) offer(v *T) bool {
	select {
	case s.ch <- v:
		return true
	case <-s.done:
		return true
	default:
		return false
	}
}

func (s *Subscriber[T]) close(err error) {
	s.once.Do(func() {
		s.err = err
		close(s.done)
	})
}
