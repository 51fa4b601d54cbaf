// Package server exposes timeline blocks over HTTP: JSON views for API
// consumers and HTML fragments for embedding.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/FeyP/drupal-twitter-feed/internal/block"
	"github.com/FeyP/drupal-twitter-feed/internal/observability/middleware"
)

// readHeaderTimeout bounds how long a client may take to send request headers.
const readHeaderTimeout = 10 * time.Second

// ReadinessChecker reports whether the server should receive traffic.
type ReadinessChecker interface {
	IsReady() bool
}

// Renderer runs one fetch cycle per call.
type Renderer interface {
	Render(ctx context.Context, req block.Request) (*block.View, error)
	ProfileURL(username string) string
}

// Options configures a Server.
type Options struct {
	Renderer  Renderer
	Blocks    map[string]block.Settings
	MaxTweets int
	Readiness ReadinessChecker
	// Logger receives request logs. Defaults to slog.Default().
	Logger *slog.Logger
}

// Server serves configured blocks and ad-hoc timelines.
type Server struct {
	renderer  Renderer
	blocks    map[string]block.Settings
	maxTweets int
	handler   http.Handler

	mu         sync.Mutex
	httpServer *http.Server
	listener   net.Listener
}

// New creates a Server. It does not listen until Start is called.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	blocks := opts.Blocks
	if blocks == nil {
		blocks = map[string]block.Settings{}
	}

	s := &Server{
		renderer:  opts.Renderer,
		blocks:    blocks,
		maxTweets: opts.MaxTweets,
	}

	r := chi.NewRouter()
	r.Use(
		middleware.RequestIDGeneration,
		middleware.TraceContextExtraction,
		middleware.Logging(logger),
		middleware.RequestIDPropagation,
		Recovery,
	)

	r.Get("/health/liveness", livenessHandler())
	r.Get("/health/readiness", readinessHandler(opts.Readiness))

	r.Get("/v1/blocks", s.listBlocks)
	r.Get("/v1/blocks/{id}", s.blockJSON)
	r.Get("/v1/timeline", s.timelineJSON)
	r.Get("/blocks/{id}", s.blockHTML)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(r.Context(), w, &ErrorResponse{
			Err: Error{Message: http.StatusText(http.StatusNotFound), Type: errTypeNotFound},
		})
	})

	s.handler = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Start listens on addr and serves in the background. The returned channel
// receives the serve error, or nil after a graceful shutdown, then closes.
func (s *Server) Start(ctx context.Context, addr string) (<-chan error, error) {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}

	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	s.mu.Lock()
	s.httpServer = srv
	s.listener = ln
	s.mu.Unlock()

	slog.InfoContext(ctx, "listening", "addr", ln.Addr().String())

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	return errCh, nil
}

// Addr returns the bound listener address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Shutdown gracefully stops the server, waiting for in-flight requests until
// ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.httpServer
	s.mu.Unlock()

	if srv == nil {
		return nil
	}
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
