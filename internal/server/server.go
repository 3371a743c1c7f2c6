// Package server implements the DM3K HTTP API.
//
// The API exposes the same flow as the CLI: validate and round-trip problem
// documents, solve them, lay out the solution matrix, draw the problem
// diagram and keep documents in a [store.Store]. Every request builds its
// own model, so handlers share nothing but the runner, store and metrics.
//
// # Routes
//
//	GET    /api/version
//	POST   /api/validate
//	POST   /api/roundtrip
//	POST   /api/solve
//	POST   /api/layout
//	POST   /api/diagram
//	GET    /api/documents
//	POST   /api/documents
//	GET    /api/documents/{id}
//	PUT    /api/documents/{id}
//	DELETE /api/documents/{id}
//	GET    /metrics
package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dm3k/dm3k/pkg/metrics"
	"github.com/dm3k/dm3k/pkg/pipeline"
	"github.com/dm3k/dm3k/pkg/store"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 8 << 20

const shutdownTimeout = 10 * time.Second

// Config holds the dependencies of a [Server].
type Config struct {
	Addr    string
	Runner  *pipeline.Runner
	Store   store.Store
	Metrics *metrics.Registry
	// Defaults seed the pipeline options of every request; fields set in a
	// request body win.
	Defaults pipeline.Options
	Logger   *log.Logger
}

// Server serves the API.
type Server struct {
	runner   *pipeline.Runner
	store    store.Store
	metrics  *metrics.Registry
	defaults pipeline.Options
	logger   *log.Logger
	router   chi.Router
	http     *http.Server
}

// New builds a server and its routes. A nil store disables the document
// routes with 501; a nil registry uses [metrics.DefaultRegistry].
func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.DefaultRegistry()
	}
	if cfg.Addr == "" {
		cfg.Addr = "localhost:8080"
	}

	s := &Server{
		runner:   cfg.Runner,
		store:    cfg.Store,
		metrics:  cfg.Metrics,
		defaults: cfg.Defaults,
		logger:   cfg.Logger,
	}
	s.router = s.routes()
	s.http = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.metrics.Middleware(routePattern))
	r.Use(s.logRequests)

	r.Handle("/metrics", s.metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/version", s.handleVersion)
		r.Post("/validate", s.handleValidate)
		r.Post("/roundtrip", s.handleRoundTrip)
		r.Post("/solve", s.handleSolve)
		r.Post("/layout", s.handleLayout)
		r.Post("/diagram", s.handleDiagram)

		r.Route("/documents", func(r chi.Router) {
			r.Get("/", s.handleListDocuments)
			r.Post("/", s.handleCreateDocument)
			r.Get("/{id}", s.handleGetDocument)
			r.Put("/{id}", s.handlePutDocument)
			r.Delete("/{id}", s.handleDeleteDocument)
		})
	})
	return r
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.http.Addr
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", s.http.Addr)
		errc <- s.http.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("server stopping")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// routePattern labels metrics with the matched route instead of the raw
// path so IDs do not explode label cardinality.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"request_id", middleware.GetReqID(r.Context()),
			"duration", time.Since(start))
	})
}
