// Package render turns DM3K problems and layouts into pictures.
//
// # Overview
//
// Two renderers live in subpackages:
//
//   - [diagram]: the problem diagram. A [diagram.Canvas] records what the
//     graph adapter shows while a document is imported; the canvas is then
//     written as Graphviz DOT and laid out to SVG.
//   - [matrix]: the solution matrix. A computed [layout.Layout] is drawn as
//     an SVG of resource rows, activity columns, container boxes and cells
//     whose opacity is the share of budget used.
//
// # Format Conversion
//
// [ToPDF] and [ToPNG] convert either renderer's SVG using the external
// rsvg-convert tool (from librsvg):
//
//	svg := matrix.RenderSVG(l, matrix.Options{})
//	pdf, err := render.ToPDF(ctx, svg)
//	png, err := render.ToPNG(ctx, svg, 2.0)
//
// [diagram]: github.com/dm3k/dm3k/pkg/render/diagram
// [matrix]: github.com/dm3k/dm3k/pkg/render/matrix
// [layout.Layout]: github.com/dm3k/dm3k/pkg/layout.Layout
package render
