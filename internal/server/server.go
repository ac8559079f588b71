// Package server exposes the retrieval engine over HTTP.
package server

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/hh-roster/internal/retrieval"
)

const (
	defaultAddr        = ":8000"
	defaultReadTimeout = 10 * time.Second
	shutdownTimeout    = 10 * time.Second
	// maxBodyBytes caps chat request bodies.
	maxBodyBytes = 64 << 10
)

//go:embed static/index.html
var indexPage []byte

// Config describes the HTTP listener.
type Config struct {
	Addr        string
	CORSOrigins []string
	ReadTimeout time.Duration
	// DefaultK is the result size for chat queries that do not specify one.
	DefaultK int
}

// Server serves search requests against a single engine.
type Server struct {
	engine *retrieval.Engine
	cfg    Config
	logger *zap.Logger
}

// New creates a server. Zero config values fall back to defaults.
func New(engine *retrieval.Engine, cfg Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Addr == "" {
		cfg.Addr = defaultAddr
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = defaultReadTimeout
	}
	if cfg.DefaultK <= 0 {
		cfg.DefaultK = retrieval.DefaultK
	}

	return &Server{engine: engine, cfg: cfg, logger: logger}
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("POST /chat", s.handleChat)
	mux.HandleFunc("POST /chat/summary", s.handleSummary)
	mux.HandleFunc("GET /employees", s.handleList)
	mux.HandleFunc("GET /employees/search", s.handleSearch)

	var h http.Handler = mux
	h = cors(s.cfg.CORSOrigins)(h)
	h = accessLog(s.logger)(h)
	h = recoverer(s.logger)(h)
	h = requestID(h)
	return h
}

// Run listens on the configured address until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadTimeout:       s.cfg.ReadTimeout,
		ReadHeaderTimeout: s.cfg.ReadTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", ln.Addr().String()))
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down", zap.String("reason", context.Cause(ctx).Error()))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
