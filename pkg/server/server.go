// Package server exposes author lists, pathway pages and contributor graphs
// over HTTP.
//
// Routes:
//
//	GET /api/authors?pageId=&limit=&includeBots=&format=   serialized author list
//	GET /index.php?action=ajax&rs=...&rsargs[]=...          legacy form of the same
//	GET /pathways/{pageID}                                  page with author line and viewer
//	GET /pathways/{pageID}/contributors.svg|.dot           contributor graph
//	GET /healthz                                            liveness
//
// Author lists are computed on every request and never cached. Only the
// pathway diagrams behind the viewer go through a cache.
package server

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/pathwiki/pkg/authors"
	"github.com/matzehuels/pathwiki/pkg/viewer"
)

const (
	// DefaultAddr is the listen address when Config.Addr is empty.
	DefaultAddr = "127.0.0.1:8080"

	// DefaultPageLimit is the author limit of server-rendered pages.
	DefaultPageLimit = 5

	// DefaultRequestTimeout bounds one request.
	DefaultRequestTimeout = 30 * time.Second

	shutdownTimeout = 5 * time.Second
)

// Config configures a Server.
type Config struct {
	// Addr is the TCP listen address.
	Addr string

	// Aggregator computes author lists. Required.
	Aggregator *authors.Aggregator

	// Diagrams loads viewer configs. Nil serves pages without a viewer.
	Diagrams *viewer.Loader

	// PageLimit is the author limit of /pathways pages when the request
	// does not set one. Nil means DefaultPageLimit; 0 shows every author.
	PageLimit *int

	// RequestTimeout bounds each request. Zero means DefaultRequestTimeout.
	RequestTimeout time.Duration

	// Logger receives request logs. Nil discards them.
	Logger *log.Logger
}

// Server is the pathwiki HTTP server.
type Server struct {
	cfg       Config
	logger    *log.Logger
	router    chi.Router
	pageLimit int
}

// New creates a Server and builds its routes.
func New(cfg Config) (*Server, error) {
	if cfg.Aggregator == nil {
		return nil, stderrors.New("server: aggregator is required")
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	pageLimit := DefaultPageLimit
	if cfg.PageLimit != nil {
		pageLimit = *cfg.PageLimit
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	s := &Server{cfg: cfg, logger: logger, pageLimit: pageLimit}
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.cfg.RequestTimeout))

	r.Get("/healthz", s.handleHealth)
	r.Get("/api/authors", s.handleAuthors)
	r.Get("/index.php", s.handleLegacy)
	r.Route("/pathways/{pageID}", func(r chi.Router) {
		r.Get("/", s.handlePage)
		r.Get("/contributors.{ext}", s.handleContributors)
	})
	return r
}

// Handler returns the server's root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.cfg.Addr
}

// ListenAndServe listens on the configured address and serves until ctx is
// canceled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is canceled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("serving", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}
