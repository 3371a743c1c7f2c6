// Package diagram renders a DM3K problem as a Graphviz diagram.
//
// # Overview
//
// A [Canvas] is an [adapter.Presenter]: hand it to the graph adapter (or to
// [document.Import] via [document.WithPresenter]) and it records every class
// box, attachment and edge the adapter shows, in display order. Rolled back
// operations hide what they showed, so the canvas always mirrors the model.
//
// # Usage
//
//	c, err := diagram.FromDocument(doc)
//	dot := c.DOT(diagram.Options{Detailed: true})
//	svg, err := diagram.RenderSVG(ctx, dot)
//
// Resources are drawn as boxes and activities as ellipses. Contains links are
// dashed, allocations solid and constraints dotted between the two
// allocated activities. With Options.Detailed, class labels list their
// budgets, costs and rewards.
//
// # Dependencies
//
// SVG layout runs in-process through [github.com/goccy/go-graphviz].
//
// [adapter.Presenter]: github.com/dm3k/dm3k/pkg/adapter.Presenter
// [document.Import]: github.com/dm3k/dm3k/pkg/document.Import
// [document.WithPresenter]: github.com/dm3k/dm3k/pkg/document.WithPresenter
package diagram
