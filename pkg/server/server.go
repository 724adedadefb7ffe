// Package server exposes the scorecard engine over a JSON HTTP API.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/mchmarny/scorecard/pkg/artifact"
	"golang.org/x/time/rate"
)

const (
	serverShutdownWait   = 5 * time.Second
	serverTimeout        = 30 * time.Second
	serverHeaderTimeout  = 10 * time.Second
	serverMaxHeaderBytes = 1 << 20

	DefaultAddress = "127.0.0.1"
	DefaultPort    = 8080
)

// Config holds the HTTP server configuration.
type Config struct {
	Address string
	Port    int
	// Artifacts is the loaded model; required.
	Artifacts *artifact.Artifacts
	// DB enables score history when set.
	DB *sql.DB
	// RateLimit is the sustained /score requests per second; 0 disables it.
	RateLimit float64
	RateBurst int
	Logger    *slog.Logger
}

// Server wraps the HTTP server with its configuration.
type Server struct {
	cfg    Config
	srv    *http.Server
	logger *slog.Logger
}

// New creates a server for cfg. Nothing listens until ListenAndServe.
func New(cfg Config) (*Server, error) {
	if cfg.Artifacts == nil {
		return nil, errors.New("artifacts required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Address == "" {
		cfg.Address = DefaultAddress
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.RateLimit < 0 {
		return nil, fmt.Errorf("invalid rate limit: %v", cfg.RateLimit)
	}

	var lim *rate.Limiter
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst < 1 {
			burst = max(int(cfg.RateLimit), 1)
		}
		lim = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	h := &handlers{
		artifacts: cfg.Artifacts,
		db:        cfg.DB,
		logger:    cfg.Logger,
	}

	s := &Server{
		cfg:    cfg,
		logger: cfg.Logger,
		srv: &http.Server{
			Addr:              net.JoinHostPort(cfg.Address, strconv.Itoa(cfg.Port)),
			Handler:           makeRouter(h, lim),
			ReadHeaderTimeout: serverHeaderTimeout,
			ReadTimeout:       serverTimeout,
			WriteTimeout:      serverTimeout,
			MaxHeaderBytes:    serverMaxHeaderBytes,
		},
	}
	return s, nil
}

// Addr returns the host:port the server listens on.
func (s *Server) Addr() string {
	return s.srv.Addr
}

// Handler returns the underlying http.Handler.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// ListenAndServe serves until ctx is done, then drains in-flight requests.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("error listening on %s: %w", s.srv.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.srv.Serve(ln)
	}()

	s.logger.Info("server started",
		"address", fmt.Sprintf("http://%s", ln.Addr()),
		"model_version", s.cfg.Artifacts.Version().ModelVersion,
		"history", s.cfg.DB != nil,
		"rate_limit", s.cfg.RateLimit)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("error serving: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), serverShutdownWait)
	defer cancel()

	if err := s.srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("error shutting down server: %w", err)
	}
	return nil
}

func makeRouter(h *handlers, lim *rate.Limiter) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", h.health)
	mux.Handle("POST /score", rateLimit(lim, http.HandlerFunc(h.score)))
	mux.HandleFunc("GET /scores", h.scores)

	return requestID(accessLog(h.logger, recoverer(h.logger, mux)))
}
