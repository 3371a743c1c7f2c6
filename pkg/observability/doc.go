// Package observability lets a binary observe solver runs, layouts, renders,
// cache traffic and solver service calls without the libraries importing a
// metrics backend.
//
// Libraries report through the hooks returned by [Pipeline], [Cache] and
// [HTTP]. Until a binary registers its own, those are no-ops. The dm3k
// server registers the Prometheus registry from pkg/metrics:
//
//	reg := metrics.NewRegistry()
//	observability.SetPipelineHooks(reg)
//	observability.SetCacheHooks(reg)
//	observability.SetHTTPHooks(reg)
//	defer observability.Reset()
//
// A layout run reports its start and its outcome:
//
//	hooks := observability.Pipeline()
//	hooks.OnLayoutStart(ctx, string(opts.WidthFunc), len(trace.Resource))
//	l, err := layout.Compute(d, trace, opts)
//	hooks.OnLayoutComplete(ctx, string(opts.WidthFunc), len(l.Cells), time.Since(start), err)
package observability
