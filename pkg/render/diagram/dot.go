package diagram

import (
	"bytes"
	"cmp"
	"context"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/dm3k/dm3k/pkg/adapter"
)

// Options configures diagram rendering.
type Options struct {
	// Detailed adds the class type and its budgets, costs and rewards to
	// each class label. When false only the class name is shown.
	Detailed bool
}

const (
	resourceFill = "#dbeafe"
	activityFill = "#fef3c7"
)

// DOT writes the canvas as Graphviz DOT source for [RenderSVG].
//
// Resources form the left rank and activities the right one; edges keep
// the order in which they were shown.
func (c *Canvas) DOT(opts Options) string {
	attached := attachmentLines(c.elements)

	var resources, activities []adapter.Element
	var edges []adapter.Element
	for _, e := range c.elements {
		switch e.Kind {
		case adapter.ElementResource:
			resources = append(resources, e)
		case adapter.ElementActivity:
			activities = append(activities, e)
		case adapter.ElementContains, adapter.ElementAllocation, adapter.ElementConstraint:
			edges = append(edges, e)
		}
	}

	var buf bytes.Buffer
	buf.WriteString("digraph DM3K {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [style=\"rounded,filled\", fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=1.2;\n")
	buf.WriteString("  nodesep=0.4;\n")

	writeRank(&buf, "resources", resources, "box", resourceFill, attached, opts.Detailed)
	writeRank(&buf, "activities", activities, "ellipse", activityFill, attached, opts.Detailed)

	buf.WriteString("\n")
	for _, e := range edges {
		writeEdge(&buf, e)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func writeRank(buf *bytes.Buffer, name string, nodes []adapter.Element, shape, fill string,
	attached map[string][]adapter.Element, detailed bool) {
	if len(nodes) == 0 {
		return
	}
	fmt.Fprintf(buf, "\n  subgraph %s {\n    rank=same;\n", name)
	for _, n := range nodes {
		label := fmtLabel(n, attached[n.Name], detailed)
		fmt.Fprintf(buf, "    %q [shape=%s, fillcolor=%q, label=%q];\n", n.Name, shape, fill, label)
	}
	buf.WriteString("  }\n")
}

func writeEdge(buf *bytes.Buffer, e adapter.Element) {
	switch e.Kind {
	case adapter.ElementContains:
		fmt.Fprintf(buf, "  %q -> %q [style=dashed, arrowhead=odiamond];\n", e.From, e.To)
	case adapter.ElementAllocation:
		fmt.Fprintf(buf, "  %q -> %q;\n", e.From, e.To)
	case adapter.ElementConstraint:
		_, from, _ := strings.Cut(e.From, "->")
		_, to, _ := strings.Cut(e.To, "->")
		fmt.Fprintf(buf, "  %q -> %q [style=dotted, constraint=false, label=%q];\n", from, to, e.TypeName)
	}
}

func fmtLabel(n adapter.Element, attachments []adapter.Element, detailed bool) string {
	if !detailed {
		return n.Name
	}
	parts := []string{n.Name}
	if n.TypeName != "" {
		parts = append(parts, "type: "+n.TypeName)
	}
	for _, a := range attachments {
		parts = append(parts, fmt.Sprintf("%s: %s", a.Kind, a.Name))
	}
	return strings.Join(parts, "\n")
}

// attachmentLines groups budget, cost and reward elements by owner class,
// ordered by kind then slot.
func attachmentLines(elements []adapter.Element) map[string][]adapter.Element {
	out := make(map[string][]adapter.Element)
	for _, e := range elements {
		switch e.Kind {
		case adapter.ElementBudget, adapter.ElementCost, adapter.ElementReward:
			out[e.Owner] = append(out[e.Owner], e)
		}
	}
	for _, list := range out {
		slices.SortStableFunc(list, func(a, b adapter.Element) int {
			return cmp.Or(cmp.Compare(a.Kind, b.Kind), cmp.Compare(a.Index, b.Index))
		})
	}
	return out
}

// RenderSVG lays out DOT source with Graphviz and returns the SVG.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's pt-sized root tag with a plain
// pixel-sized one so the SVG scales like the matrix renderer's output.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}
