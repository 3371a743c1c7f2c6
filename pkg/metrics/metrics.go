package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/dm3k/dm3k/pkg/observability"
)

var (
	_ observability.PipelineHooks = (*Registry)(nil)
	_ observability.CacheHooks    = (*Registry)(nil)
	_ observability.HTTPHooks     = (*Registry)(nil)
)

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// RecordHTTPRequest records an API request with its duration
func (r *Registry) RecordHTTPRequest(method, route, status string, duration time.Duration) {
	r.HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	r.HTTPRequestDuration.WithLabelValues(method, route, status).Observe(duration.Seconds())
}

// Middleware counts requests and in-flight requests. route maps a request
// to a low-cardinality label, typically the router's matched pattern.
func (r *Registry) Middleware(route func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			r.HTTPRequestsInFlight.Inc()
			defer r.HTTPRequestsInFlight.Dec()

			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, req)
			r.RecordHTTPRequest(req.Method, route(req), strconv.Itoa(sw.status), time.Since(start))
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// =============================================================================
// Pipeline hooks
// =============================================================================

func (r *Registry) OnSolveStart(context.Context, string, int) {}

func (r *Registry) OnSolveComplete(_ context.Context, algorithm string, entries int, duration time.Duration, err error) {
	r.SolvesTotal.WithLabelValues(algorithm, status(err)).Inc()
	r.SolveDuration.WithLabelValues(algorithm).Observe(duration.Seconds())
	if err == nil {
		r.TraceEntries.Observe(float64(entries))
	}
}

func (r *Registry) OnLayoutStart(context.Context, string, int) {}

func (r *Registry) OnLayoutComplete(_ context.Context, widthFunc string, cells int, duration time.Duration, err error) {
	r.LayoutsTotal.WithLabelValues(widthFunc, status(err)).Inc()
	r.LayoutDuration.WithLabelValues(widthFunc).Observe(duration.Seconds())
	if err == nil {
		r.LayoutCells.Observe(float64(cells))
	}
}

func (r *Registry) OnRenderStart(context.Context, []string) {}

func (r *Registry) OnRenderComplete(_ context.Context, _ []string, duration time.Duration, err error) {
	r.RendersTotal.WithLabelValues(status(err)).Inc()
	r.RenderDuration.Observe(duration.Seconds())
}

// =============================================================================
// Cache hooks
// =============================================================================

func (r *Registry) OnCacheHit(_ context.Context, keyType string) {
	r.CacheHitsTotal.WithLabelValues(keyType).Inc()
}

func (r *Registry) OnCacheMiss(_ context.Context, keyType string) {
	r.CacheMissesTotal.WithLabelValues(keyType).Inc()
}

func (r *Registry) OnCacheSet(_ context.Context, keyType string, size int) {
	r.CacheWriteBytes.WithLabelValues(keyType).Observe(float64(size))
}

// =============================================================================
// Solver client hooks
// =============================================================================

func (r *Registry) OnRequest(context.Context, string, string, string) {}

func (r *Registry) OnResponse(_ context.Context, method, _, path string, statusCode int, duration time.Duration) {
	r.SolverRequestsTotal.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
	r.SolverRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

func (r *Registry) OnError(_ context.Context, method, _, path string, _ error) {
	r.SolverErrorsTotal.WithLabelValues(method, path).Inc()
}
