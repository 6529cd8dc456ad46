package httpserver

import (
	"context"
	"net"
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"

	logpkg "github.com/rzbill/geyserstream/pkg/log"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Health is the view of the runtime the probe endpoint reports on.
type Health interface {
	CheckHealth(ctx context.Context) error
	HighestWriteSlot() uint64
}

// Server serves the health probe and the metrics endpoint.
type Server struct {
	health Health
	srv    *http.Server
	lis    net.Listener
	logger logpkg.Logger
}

// New builds the mux. A nil metrics handler leaves /metrics unregistered.
func New(health Health, metrics http.Handler, logger logpkg.Logger) *Server {
	if logger == nil {
		logger = logpkg.NewLogger()
	}
	mux := http.NewServeMux()
	s := &Server{
		health: health,
		srv:    &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second},
		logger: logger.With(logpkg.Component("http")),
	}
	mux.HandleFunc("/v1/healthz", s.handleHealth)
	if metrics != nil {
		mux.Handle("/metrics", metrics)
	}
	return s
}

// Listen binds addr.
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

// Serve serves on the bound listener until ctx is done.
func (s *Server) Serve(ctx context.Context) error {
	if s.lis == nil {
		return errors.New("http server has no listener")
	}
	s.logger.Info("http serving", logpkg.Str("addr", s.lis.Addr().String()))
	errCh := make(chan error, 1)
	go func() { errCh <- s.srv.Serve(s.lis) }()
	select {
	case <-ctx.Done():
		cctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = s.srv.Shutdown(cctx)
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// ListenAndServe binds to addr and serves until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	if err := s.Listen(addr); err != nil {
		return err
	}
	return s.Serve(ctx)
}

// Close stops serving immediately.
func (s *Server) Close() error {
	err := s.srv.Close()
	if s.lis != nil {
		// Serve may never have taken ownership of the listener.
		_ = s.lis.Close()
	}
	return err
}

type healthResponse struct {
	Status           string `json:"status"`
	HighestWriteSlot uint64 `json:"highest_write_slot"`
	Error            string `json:"error,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	res := healthResponse{Status: "ok", HighestWriteSlot: s.health.HighestWriteSlot()}
	w.Header().Set("Content-Type", "application/json")
	if err := s.health.CheckHealth(r.Context()); err != nil {
		res.Status, res.Error = "not_serving", err.Error()
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(res)
}
