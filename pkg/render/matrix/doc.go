// Package matrix draws a computed solution layout as SVG.
//
// Each resource instance is a row and each activity instance a column, with
// the sizes computed by [layout.Compute]. A cell is filled with opacity equal
// to the share of the row's budget the solver spent on that column. Columns
// the solver selected get a highlighted header; container classes are drawn
// as boxes beside the rows and above the columns, one band per nesting
// level.
//
//	l, _ := layout.Compute(doc, trace, layout.Options{})
//	svg := matrix.RenderSVG(l, matrix.WithTitle("backpack"))
//
// [layout.Compute]: github.com/dm3k/dm3k/pkg/layout.Compute
package matrix
