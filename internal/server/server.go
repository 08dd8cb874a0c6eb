// Package server serves the calcpatch metrics over HTTP while the patch is
// live.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/agbru/calcpatch/internal/logging"
)

const shutdownTimeout = 5 * time.Second

// Server exposes /metrics and /healthz.
type Server struct {
	metrics  http.Handler
	logger   logging.Logger
	security SecurityConfig
	ready    func() bool
}

// Option configures a Server.
type Option func(*Server)

// WithReadiness makes /healthz report 503 while ready returns false.
func WithReadiness(ready func() bool) Option {
	return func(s *Server) { s.ready = ready }
}

// New returns a server exposing the exposition handler metrics.
func New(metrics http.Handler, logger logging.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = logging.Nop()
	}
	s := &Server{
		metrics:  metrics,
		logger:   logger,
		security: DefaultSecurityConfig(),
		ready:    func() bool { return true },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routes of the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", SecurityMiddleware(s.security, s.handleMetrics))
	mux.HandleFunc("/healthz", SecurityMiddleware(s.security, s.handleHealth))
	return mux
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		s.logger.Warn("metrics: method not allowed", logging.String("method", r.Method))
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.metrics.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	if !s.ready() {
		http.Error(w, "not ready", http.StatusServiceUnavailable)
		return
	}
	_, _ = w.Write([]byte("ok\n"))
}

// Serve accepts connections on ln until ctx is done, then shuts down.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	s.logger.Info("metrics server listening", logging.String("addr", ln.Addr().String()))

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ListenAndServe listens on addr and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}
