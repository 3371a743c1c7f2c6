package matrix

import (
	"bytes"
	"encoding/xml"
	"fmt"

	"github.com/dm3k/dm3k/pkg/layout"
)

const (
	fontFamily = "Helvetica, Arial, sans-serif"

	defaultFill   = "#2563eb"
	selectedFill  = "#16a34a"
	headerFill    = "#d1d5db"
	containerFill = "#f3f4f6"
	strokeColor   = "#6b7280"

	// labelMargin is the space right of and below the matrix for instance
	// names.
	labelMargin = 160.0
	titleHeight = 32.0

	fontSizeMin   = 8.0
	fontSizeMax   = 14.0
	fontCharWidth = 0.55
)

// Option configures [RenderSVG].
type Option func(*renderer)

// WithTitle writes a title above the matrix.
func WithTitle(title string) Option { return func(r *renderer) { r.title = title } }

// WithColor sets the cell fill color.
func WithColor(color string) Option { return func(r *renderer) { r.fill = color } }

// WithoutLabels omits instance and container names.
func WithoutLabels() Option { return func(r *renderer) { r.labels = false } }

type renderer struct {
	title  string
	fill   string
	labels bool

	// offsetX and offsetY make room for container bands left of the rows
	// and above the columns.
	offsetX, offsetY float64
}

// RenderSVG draws l as a standalone SVG document.
func RenderSVG(l *layout.Layout, opts ...Option) []byte {
	r := renderer{fill: defaultFill, labels: true}
	for _, opt := range opts {
		opt(&r)
	}
	box := l.Padding.Box
	r.offsetX = float64(maxDepth(l.ResourceContainers)) * box
	r.offsetY = float64(maxDepth(l.ActivityContainers)) * box
	if r.title != "" {
		r.offsetY += titleHeight
	}

	right, bottom := extent(l)
	width := r.offsetX + right + labelMargin
	height := r.offsetY + bottom + labelMargin

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		width, height, width, height)
	fmt.Fprintf(&buf, `  <rect width="100%%" height="100%%" fill="white"/>`+"\n")

	if r.title != "" {
		fmt.Fprintf(&buf, `  <text x="%.1f" y="%.1f" font-family="%s" font-size="18" font-weight="bold">%s</text>`+"\n",
			l.Padding.X, titleHeight*0.7, fontFamily, escapeXML(r.title))
	}

	r.renderContainers(&buf, l)
	r.renderHeaders(&buf, l)
	r.renderCells(&buf, l)
	if r.labels {
		r.renderLabels(&buf, l, right, bottom)
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func (r *renderer) renderContainers(buf *bytes.Buffer, l *layout.Layout) {
	box := l.Padding.Box
	for _, c := range l.ResourceContainers {
		x := r.offsetX - float64(c.Depth)*box
		r.containerBox(buf, c, x, r.offsetY+c.Start, box, c.Extent, true)
	}
	for _, c := range l.ActivityContainers {
		y := r.offsetY - float64(c.Depth)*box
		r.containerBox(buf, c, r.offsetX+c.Start, y, c.Extent, box, false)
	}
}

func (r *renderer) containerBox(buf *bytes.Buffer, c layout.ContainerBox, x, y, w, h float64, rotate bool) {
	fmt.Fprintf(buf, `  <rect class="container" x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="%s" stroke="%s" stroke-width="1"/>`+"\n",
		x, y, w, h, containerFill, strokeColor)
	if !r.labels {
		return
	}
	cx, cy := x+w/2, y+h/2
	size := fontSizeFor(w, h, len(c.Parent))
	transform := ""
	if rotate {
		size = fontSizeFor(h, w, len(c.Parent))
		transform = fmt.Sprintf(` transform="rotate(-90 %.2f %.2f)"`, cx, cy)
	}
	fmt.Fprintf(buf, `  <text x="%.2f" y="%.2f" text-anchor="middle" dominant-baseline="middle" font-family="%s" font-size="%.1f"%s>%s</text>`+"\n",
		cx, cy, fontFamily, size, transform, escapeXML(c.Parent))
}

// renderHeaders draws a bar left of each row and above each column inside
// the padding strip the layout reserves for them.
func (r *renderer) renderHeaders(buf *bytes.Buffer, l *layout.Layout) {
	p := l.Padding
	bar := max(p.Box-p.X, 1)
	for _, res := range l.Resources {
		fmt.Fprintf(buf, `  <rect class="row-header" x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="%s"/>`+"\n",
			r.offsetX+p.X, r.offsetY+res.Y, bar, res.Height, headerFill)
	}
	for _, act := range l.Activities {
		fill := headerFill
		if act.Selected {
			fill = selectedFill
		}
		fmt.Fprintf(buf, `  <rect class="col-header" x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="%s"/>`+"\n",
			r.offsetX+act.X, r.offsetY+p.Y, act.Width, bar, fill)
	}
}

func (r *renderer) renderCells(buf *bytes.Buffer, l *layout.Layout) {
	for _, c := range l.Cells {
		x, y := r.offsetX+c.X, r.offsetY+c.Y
		fmt.Fprintf(buf, `  <g class="cell" data-resource="%s" data-activity="%s">`+"\n",
			escapeXML(c.Resource), escapeXML(c.Activity))
		fmt.Fprintf(buf, `    <rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="none" stroke="%s" stroke-width="1"/>`+"\n",
			x, y, c.W, c.H, strokeColor)
		if c.FillOpacity > 0 {
			fmt.Fprintf(buf, `    <rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="%s" fill-opacity="%.4f"/>`+"\n",
				x, y, c.W, c.H, r.fill, c.FillOpacity)
		}
		fmt.Fprintf(buf, `    <title>%s / %s: %g of %g</title>`+"\n",
			escapeXML(c.Resource), escapeXML(c.Activity), c.BudgetUsed, c.TotalResourceBudget)
		buf.WriteString("  </g>\n")
	}
}

func (r *renderer) renderLabels(buf *bytes.Buffer, l *layout.Layout, right, bottom float64) {
	for _, res := range l.Resources {
		size := fontSizeFor(labelMargin, res.Height, len(res.Name))
		fmt.Fprintf(buf, `  <text x="%.2f" y="%.2f" dominant-baseline="middle" font-family="%s" font-size="%.1f">%s</text>`+"\n",
			r.offsetX+right+l.Padding.X, r.offsetY+res.Y+res.Height/2, fontFamily, size, escapeXML(res.Name))
	}
	for _, act := range l.Activities {
		x, y := r.offsetX+act.X+act.Width/2, r.offsetY+bottom+l.Padding.Y
		size := fontSizeFor(labelMargin, act.Width, len(act.Name))
		fmt.Fprintf(buf, `  <text x="%.2f" y="%.2f" dominant-baseline="middle" font-family="%s" font-size="%.1f" transform="rotate(90 %.2f %.2f)">%s</text>`+"\n",
			x, y, fontFamily, size, x, y, escapeXML(act.Name))
	}
}

// extent returns the right and bottom edges of the cell area.
func extent(l *layout.Layout) (right, bottom float64) {
	right = l.Padding.X + l.Padding.Box
	bottom = l.Padding.Y + l.Padding.Box
	for _, c := range l.Cells {
		right = max(right, c.X+c.W)
		bottom = max(bottom, c.Y+c.H)
	}
	return right, bottom
}

func maxDepth(boxes []layout.ContainerBox) int {
	d := 0
	for _, b := range boxes {
		d = max(d, b.Depth)
	}
	return d
}

// fontSizeFor fits text of textLen characters into the given space.
func fontSizeFor(availWidth, availHeight float64, textLen int) float64 {
	n := max(1, textLen)
	byHeight := availHeight * 0.6
	byWidth := availWidth / (float64(n) * fontCharWidth)
	return max(fontSizeMin, min(fontSizeMax, byHeight, byWidth))
}

func escapeXML(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
