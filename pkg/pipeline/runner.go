package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/dm3k/dm3k/pkg/cache"
	"github.com/dm3k/dm3k/pkg/document"
	"github.com/dm3k/dm3k/pkg/layout"
	"github.com/dm3k/dm3k/pkg/observability"
)

// ErrNoSolver is returned by the solve stage of a Runner built without a
// solver.
var ErrNoSolver = errors.New("no solver configured")

// Solver produces an allocation trace for a document.
// [solver.Client] is the production implementation.
//
// [solver.Client]: github.com/dm3k/dm3k/pkg/solver.Client
type Solver interface {
	Solve(ctx context.Context, d document.Document, algorithm string) (*layout.Solution, error)
}

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache, solver and logger - it
// doesn't store pipeline results. Multiple goroutines can safely use the
// same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Solver Solver
	Logger *log.Logger
}

// NewRunner creates a runner.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
// A nil solver leaves only the layout, render and diagram stages usable.
func NewRunner(c cache.Cache, keyer cache.Keyer, s Solver, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Solver: s,
		Logger: logger,
	}
}

// Execute runs the complete solve → layout → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, d document.Document, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	docHash, err := document.Hash(d)
	if err != nil {
		return nil, fmt.Errorf("hash document: %w", err)
	}
	result := &Result{DocumentHash: docHash}
	result.Stats.ResourceClasses = len(d.ResourceClasses)
	result.Stats.ActivityClasses = len(d.ActivityClasses)

	// Stage 1: Solve
	solveStart := time.Now()
	sol, solveHit, err := r.SolveWithCacheInfo(ctx, d, opts)
	if err != nil {
		return nil, fmt.Errorf("solve: %w", err)
	}
	result.Solution = sol
	result.Stats.SolveTime = time.Since(solveStart)
	result.Stats.TraceEntries = len(sol.FullTrace.Resource)
	result.CacheInfo.SolveHit = solveHit

	r.Logger.Info("solved document",
		"algorithm", opts.Algorithm,
		"entries", result.Stats.TraceEntries,
		"cached", solveHit,
		"duration", result.Stats.SolveTime)

	// Stage 2: Layout
	layoutStart := time.Now()
	l, layoutHit, err := r.LayoutWithCacheInfo(ctx, d, sol.FullTrace, opts)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	result.Layout = l
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.Stats.CellCount = len(l.Cells)
	result.CacheInfo.LayoutHit = layoutHit

	r.Logger.Info("computed layout",
		"cells", len(l.Cells),
		"width_func", opts.WidthFunc,
		"cached", layoutHit,
		"duration", result.Stats.LayoutTime)

	// Stage 3: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, l, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// SolveWithCacheInfo asks the solver for a trace with caching and returns
// cache hit info. Refresh skips the cache lookup but still stores the result.
func (r *Runner) SolveWithCacheInfo(ctx context.Context, d document.Document, opts Options) (*layout.Solution, bool, error) {
	r.applyLogger(&opts)
	opts.SetSolveDefaults()
	if r.Solver == nil {
		return nil, false, ErrNoSolver
	}

	docHash, err := document.Hash(d)
	if err != nil {
		return nil, false, err
	}
	cacheKey := r.Keyer.SolutionKey(docHash, opts.SolutionKeyOpts())

	if !opts.Refresh {
		var cached layout.Solution
		if r.lookup(ctx, cacheKey, cache.KeyTypeSolution, &cached) {
			return &cached, true, nil
		}
	}

	hooks := observability.Pipeline()
	hooks.OnSolveStart(ctx, opts.Algorithm, len(d.ResourceClasses)+len(d.ActivityClasses))
	start := time.Now()
	sol, err := r.Solver.Solve(ctx, d, opts.Algorithm)
	entries := 0
	if sol != nil {
		entries = len(sol.FullTrace.Resource)
	}
	hooks.OnSolveComplete(ctx, opts.Algorithm, entries, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	r.store(ctx, cacheKey, cache.KeyTypeSolution, sol, cache.TTLSolution)
	return sol, false, nil
}

// Solve is a convenience wrapper that calls SolveWithCacheInfo and discards the cache hit info.
func (r *Runner) Solve(ctx context.Context, d document.Document, opts Options) (*layout.Solution, error) {
	sol, _, err := r.SolveWithCacheInfo(ctx, d, opts)
	return sol, err
}

// LayoutWithCacheInfo computes the solution matrix with caching and returns
// cache hit info.
func (r *Runner) LayoutWithCacheInfo(ctx context.Context, d document.Document, t layout.Trace, opts Options) (*layout.Layout, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForLayout(); err != nil {
		return nil, false, err
	}

	docHash, err := document.Hash(d)
	if err != nil {
		return nil, false, err
	}
	traceData, err := json.Marshal(t)
	if err != nil {
		return nil, false, fmt.Errorf("serialize trace for cache key: %w", err)
	}
	cacheKey := r.Keyer.LayoutKey(docHash, cache.Hash(traceData), opts.LayoutKeyOpts())

	var cached layout.Layout
	if r.lookup(ctx, cacheKey, cache.KeyTypeLayout, &cached) {
		return &cached, true, nil
	}

	hooks := observability.Pipeline()
	hooks.OnLayoutStart(ctx, opts.WidthFunc, len(t.Resource))
	start := time.Now()
	l, err := layout.Compute(d, t, opts.LayoutOptions())
	cells := 0
	if l != nil {
		cells = len(l.Cells)
	}
	hooks.OnLayoutComplete(ctx, opts.WidthFunc, cells, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	r.store(ctx, cacheKey, cache.KeyTypeLayout, l, cache.TTLLayout)
	return l, false, nil
}

// Layout is a convenience wrapper that calls LayoutWithCacheInfo and discards the cache hit info.
func (r *Runner) Layout(ctx context.Context, d document.Document, t layout.Trace, opts Options) (*layout.Layout, error) {
	l, _, err := r.LayoutWithCacheInfo(ctx, d, t, opts)
	return l, err
}

// RenderWithCacheInfo draws a layout with caching and returns cache hit info.
// The hit is reported only when every requested format came from cache.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, l *layout.Layout, opts Options) (map[string][]byte, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}

	layoutData, err := json.Marshal(l)
	if err != nil {
		return nil, false, fmt.Errorf("serialize layout for cache key: %w", err)
	}
	layoutHash := cache.Hash(layoutData)

	return r.renderCached(ctx, opts.Formats, cache.KeyTypeArtifact, cache.TTLArtifact,
		func(format string) string { return r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format)) },
		func() (map[string][]byte, error) { return RenderLayout(ctx, l, opts) })
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and discards the cache hit info.
func (r *Runner) Render(ctx context.Context, l *layout.Layout, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, l, opts)
	return artifacts, err
}

// DiagramWithCacheInfo draws the problem diagram with caching and returns
// cache hit info.
func (r *Runner) DiagramWithCacheInfo(ctx context.Context, d document.Document, opts Options) (map[string][]byte, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForDiagram(); err != nil {
		return nil, false, err
	}

	docHash, err := document.Hash(d)
	if err != nil {
		return nil, false, err
	}

	return r.renderCached(ctx, opts.Formats, cache.KeyTypeDiagram, cache.TTLDiagram,
		func(format string) string { return r.Keyer.DiagramKey(docHash, opts.DiagramKeyOpts(format)) },
		func() (map[string][]byte, error) { return RenderDiagram(ctx, d, opts) })
}

// Diagram is a convenience wrapper that calls DiagramWithCacheInfo and discards the cache hit info.
func (r *Runner) Diagram(ctx context.Context, d document.Document, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.DiagramWithCacheInfo(ctx, d, opts)
	return artifacts, err
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// =============================================================================
// Cache helpers
// =============================================================================

// renderCached serves all formats from cache or renders and caches them all.
func (r *Runner) renderCached(ctx context.Context, formats []string, keyType string, ttl time.Duration,
	key func(format string) string, renderAll func() (map[string][]byte, error)) (map[string][]byte, bool, error) {
	cacheHooks := observability.Cache()
	artifacts := make(map[string][]byte, len(formats))
	for _, format := range formats {
		data, hit, err := r.Cache.Get(ctx, key(format))
		if err != nil || !hit {
			break
		}
		artifacts[format] = data
	}
	if len(artifacts) == len(formats) {
		cacheHooks.OnCacheHit(ctx, keyType)
		return artifacts, true, nil
	}
	cacheHooks.OnCacheMiss(ctx, keyType)

	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, formats)
	start := time.Now()
	rendered, err := renderAll()
	hooks.OnRenderComplete(ctx, formats, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	for format, data := range rendered {
		if err := r.Cache.Set(ctx, key(format), data, ttl); err != nil {
			r.Logger.Warn("cache write failed", "type", keyType, "error", err)
			continue
		}
		cacheHooks.OnCacheSet(ctx, keyType, len(data))
	}
	return rendered, false, nil
}

// lookup decodes a cached JSON value into v. Undecodable entries count as
// misses and are recomputed.
func (r *Runner) lookup(ctx context.Context, key, keyType string, v any) bool {
	hooks := observability.Cache()
	data, hit, err := r.Cache.Get(ctx, key)
	switch {
	case err != nil && cache.IsRetryable(err):
		r.Logger.Warn("cache unreachable", "type", keyType, "error", err)
	case err != nil:
		r.Logger.Debug("cache read failed", "type", keyType, "error", err)
	}
	if err != nil || !hit || json.Unmarshal(data, v) != nil {
		hooks.OnCacheMiss(ctx, keyType)
		return false
	}
	hooks.OnCacheHit(ctx, keyType)
	return true
}

// store caches v as JSON. Failures are logged and otherwise ignored.
func (r *Runner) store(ctx context.Context, key, keyType string, v any, ttl time.Duration) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := r.Cache.Set(ctx, key, data, ttl); err != nil {
		r.Logger.Warn("cache write failed", "type", keyType, "error", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, keyType, len(data))
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
