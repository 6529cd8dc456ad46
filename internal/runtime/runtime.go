package runtime

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/rzbill/geyserstream/internal/broadcast"
	cfgpkg "github.com/rzbill/geyserstream/internal/config"
	"github.com/rzbill/geyserstream/internal/ingest"
	"github.com/rzbill/geyserstream/internal/metrics"
	"github.com/rzbill/geyserstream/internal/progress"
	grpcserver "github.com/rzbill/geyserstream/internal/server/grpc"
	httpserver "github.com/rzbill/geyserstream/internal/server/http"
	logpkg "github.com/rzbill/geyserstream/pkg/log"
)

// DefaultShutdownTimeout bounds how long Close waits for serving tasks.
const DefaultShutdownTimeout = 2 * time.Second

var (
	// ErrNotRunning is reported by CheckHealth before Start and after Close.
	ErrNotRunning = errors.New("runtime not running")
	// ErrShutdownTimeout is returned by Close when tasks outlive the timeout.
	ErrShutdownTimeout = errors.New("runtime shutdown timed out")
)

// Options for building the Runtime.
type Options struct {
	Config          cfgpkg.Config
	Logger          logpkg.Logger
	ShutdownTimeout time.Duration
}

// Runtime owns everything that lives on the serving side for one plugin
// lifetime: the ingest channels, the broadcast hubs, the gRPC listener and
// the optional metrics listener.
type Runtime struct {
	config  cfgpkg.Config
	logger  logpkg.Logger
	timeout time.Duration

	channels  *ingest.Set
	hubs      *broadcast.Service
	highWater *progress.HighWaterSlot
	metrics   *metrics.Metrics
	grpc      *grpcserver.Server
	http      *httpserver.Server

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	err     error
	running bool
}

// Open validates cfg, builds the pipeline and binds the listeners. Any
// failure is returned before a goroutine is started.
func Open(opts Options) (*Runtime, error) {
	cfg := opts.Config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if opts.Logger == nil {
		opts.Logger = logpkg.NewLogger()
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = DefaultShutdownTimeout
	}
	r := &Runtime{
		config:  cfg,
		logger:  opts.Logger.With(logpkg.Component("runtime")),
		timeout: opts.ShutdownTimeout,
		channels: ingest.NewSet(ingest.Capacities{
			Accounts:     cfg.AccountUpdateBufferSize,
			Slots:        cfg.SlotUpdateBufferSize,
			Entries:      cfg.SlotEntryUpdateBufferSize,
			Blocks:       cfg.BlockUpdateBufferSize,
			Transactions: cfg.TransactionUpdateBufferSize,
		}),
		hubs:      broadcast.NewService(cfg.Service.SubscriberBufferSize, opts.Logger),
		highWater: &progress.HighWaterSlot{},
		metrics:   metrics.New(),
	}
	r.metrics.Observe(r.channels, r.hubs, r.highWater)

	gs, err := grpcserver.New(grpcserver.Options{
		Hubs:        r.hubs,
		HighWater:   r.highWater,
		Heartbeat:   time.Duration(cfg.Service.HeartbeatIntervalMs) * time.Millisecond,
		AccessToken: cfg.Service.AccessToken,
		TLS:         cfg.Service.TLS,
		Logger:      opts.Logger,
	})
	if err != nil {
		return nil, err
	}
	if err := gs.Listen(cfg.BindAddress); err != nil {
		return nil, err
	}
	r.grpc = gs

	if cfg.MetricsAddress != "" {
		hs := httpserver.New(r, r.metrics.HTTPHandler(), opts.Logger)
		if err := hs.Listen(cfg.MetricsAddress); err != nil {
			gs.Stop()
			return nil, err
		}
		r.http = hs
	}
	return r, nil
}

// Start launches the broadcast hubs and the servers. It is a no-op when
// already started.
func (r *Runtime) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.done = make(chan struct{})
	r.running = true

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return r.hubs.Run(gctx, r.channels) })
	g.Go(func() error { return r.grpc.Serve(nil) })
	g.Go(func() error {
		<-gctx.Done()
		r.grpc.Stop()
		return nil
	})
	if r.http != nil {
		g.Go(func() error { return r.http.Serve(gctx) })
	}
	go func() {
		err := g.Wait()
		r.mu.Lock()
		r.err = err
		r.running = false
		r.mu.Unlock()
		if err != nil {
			r.logger.Error("serving stopped", logpkg.Err(err))
		}
		close(r.done)
	}()
	r.logger.Info("runtime started", logpkg.Str("grpc", r.grpc.Addr().String()))
}

// Close cancels every task, stops the servers without draining open
// streams and waits at most the shutdown timeout.
func (r *Runtime) Close() error {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.mu.Unlock()

	var err error
	if done == nil {
		r.grpc.Stop()
		if r.http != nil {
			err = r.http.Close()
		}
		r.channels.CloseReceivers()
		return err
	}
	cancel()
	r.grpc.Stop()
	if r.http != nil {
		err = multierr.Append(err, r.http.Close())
	}
	select {
	case <-done:
		r.mu.Lock()
		err = multierr.Append(err, r.err)
		r.mu.Unlock()
	case <-time.After(r.timeout):
		err = multierr.Append(err, ErrShutdownTimeout)
	}
	r.logger.Info("runtime stopped")
	return err
}

// CheckHealth reports whether the serving tasks are running.
func (r *Runtime) CheckHealth(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.running {
		return ErrNotRunning
	}
	return nil
}

// HighestWriteSlot returns the high-water account write slot.
func (r *Runtime) HighestWriteSlot() uint64 { return r.highWater.Load() }

// Channels returns the ingest channels producers write to.
func (r *Runtime) Channels() *ingest.Set { return r.channels }

// Hubs returns the broadcast service.
func (r *Runtime) Hubs() *broadcast.Service { return r.hubs }

// HighWater returns the shared high-water slot tracker.
func (r *Runtime) HighWater() *progress.HighWaterSlot { return r.highWater }

// Metrics returns the runtime's metrics.
func (r *Runtime) Metrics() *metrics.Metrics { return r.metrics }

// GRPCAddr returns the bound gRPC address.
func (r *Runtime) GRPCAddr() string { return r.grpc.Addr().String() }

// Config returns the runtime configuration.
func (r *Runtime) Config() cfgpkg.Config { return r.config }
