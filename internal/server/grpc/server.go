package grpcserver

import (
	"context"
	"net"
	"time"

	"github.com/pkg/errors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	geyserv1 "github.com/rzbill/geyserstream/api/geyser/v1"
	"github.com/rzbill/geyserstream/internal/auth"
	"github.com/rzbill/geyserstream/internal/broadcast"
	"github.com/rzbill/geyserstream/internal/config"
	"github.com/rzbill/geyserstream/internal/progress"
	logpkg "github.com/rzbill/geyserstream/pkg/log"
)

// Options configures a Server.
type Options struct {
	Hubs      *broadcast.Service
	HighWater *progress.HighWaterSlot
	// Heartbeat is the keep-alive interval for every stream; 0 disables it.
	Heartbeat time.Duration
	// AccessToken enables token checks when non-empty.
	AccessToken string
	// TLS installs a server identity when non-nil.
	TLS    *config.TLSConfig
	Logger logpkg.Logger
}

// Server owns the gRPC server instance and its listener.
type Server struct {
	grpc   *grpc.Server
	health *health.Server
	lis    net.Listener
	logger logpkg.Logger
}

// New constructs a gRPC server and registers the geyser and health services.
// Unreadable TLS material is an error.
func New(opts Options, extra ...grpc.ServerOption) (*Server, error) {
	if opts.Logger == nil {
		opts.Logger = logpkg.NewLogger()
	}
	logger := opts.Logger.With(logpkg.Component("grpc"))
	checker := auth.New(opts.AccessToken)
	sopts := []grpc.ServerOption{
		grpc.ChainUnaryInterceptor(checker.UnaryInterceptor()),
		grpc.ChainStreamInterceptor(checker.StreamInterceptor()),
	}
	if opts.TLS != nil {
		creds, err := credentials.NewServerTLSFromFile(opts.TLS.CertPath, opts.TLS.KeyPath)
		if err != nil {
			return nil, errors.Wrap(err, "load tls identity")
		}
		sopts = append(sopts, grpc.Creds(creds))
	}
	sopts = append(sopts, extra...)

	s := &Server{grpc: grpc.NewServer(sopts...), health: newHealth(), logger: logger}
	geyserv1.RegisterGeyserServer(s.grpc, &geyserSvc{
		hubs:      opts.Hubs,
		highWater: opts.HighWater,
		heartbeat: opts.Heartbeat,
		logger:    logger,
	})
	healthpb.RegisterHealthServer(s.grpc, s.health)
	logger.Debug("grpc server configured", logpkg.Bool("tls", opts.TLS != nil), logpkg.Bool("auth", checker.Enabled()))
	return s, nil
}

// Listen binds addr so bind failures surface before serving starts.
func (s *Server) Listen(addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Wrapf(err, "listen %s", addr)
	}
	s.lis = l
	return nil
}

// Addr returns the bound address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	if s.lis == nil {
		return nil
	}
	return s.lis.Addr()
}

// Serve serves on l, or on the listener from Listen when l is nil. It
// returns nil once the server is stopped.
func (s *Server) Serve(l net.Listener) error {
	if l == nil {
		l = s.lis
	}
	if l == nil {
		return errors.New("grpc server has no listener")
	}
	s.logger.Info("grpc serving", logpkg.Str("addr", l.Addr().String()))
	if err := s.grpc.Serve(l); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}

// ListenAndServe binds to addr and serves until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	if err := s.Listen(addr); err != nil {
		return err
	}
	errCh := make(chan error, 1)
	go func() { errCh <- s.Serve(nil) }()
	select {
	case <-ctx.Done():
		s.Stop()
		return nil
	case err := <-errCh:
		return err
	}
}

// Stop closes the listener and every open stream without draining. The
// listener from Listen is released even if Serve never took it over.
func (s *Server) Stop() {
	s.health.Shutdown()
	s.grpc.Stop()
	if s.lis != nil {
		_ = s.lis.Close()
	}
}
