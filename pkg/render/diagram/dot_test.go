package diagram

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dm3k/dm3k/pkg/adapter"
	"github.com/dm3k/dm3k/pkg/document"
	"github.com/dm3k/dm3k/pkg/model"
)

// backpack draws Backpack allocated to Textbook and Pen with an IF-NOT
// constraint between the two allocations.
func backpack(t *testing.T) (*Canvas, *model.Model) {
	t.Helper()
	c := NewCanvas()
	a := adapter.New(model.New(), c, nil)
	for _, res := range []adapter.Result{
		a.AddCompleteResource("Container", "Backpack", []string{"space"}, nil),
		a.AddCompleteActivity("Item", "Textbook", "Backpack", "utility", 0, nil),
		a.AddCompleteActivity("Item", "Pen", "Backpack", "utility", 0, nil),
		a.AddConstraint("Backpack", "Textbook", "Backpack", "Pen", model.ConstraintIfNot),
	} {
		if !res.Success {
			t.Fatal(res.Details)
		}
	}
	return c, a.Model()
}

func TestCanvasRecordsAdapter(t *testing.T) {
	c, _ := backpack(t)

	counts := map[adapter.ElementKind]int{
		adapter.ElementResource:   1,
		adapter.ElementActivity:   2,
		adapter.ElementBudget:     1,
		adapter.ElementCost:       2,
		adapter.ElementReward:     2,
		adapter.ElementAllocation: 2,
		adapter.ElementConstraint: 1,
	}
	total := 0
	for k, want := range counts {
		if got := c.Count(k); got != want {
			t.Errorf("Count(%s) = %d, want %d", k, got, want)
		}
		total += want
	}
	if c.Len() != total {
		t.Errorf("Len() = %d, want %d", c.Len(), total)
	}
	if first := c.Elements()[0]; first.Kind != adapter.ElementResource || first.Name != "Backpack" {
		t.Errorf("first element = %+v, want resource Backpack", first)
	}
}

func TestCanvasShowHide(t *testing.T) {
	c := NewCanvas()
	e := adapter.Element{Kind: adapter.ElementResource, Name: "Closet"}

	if err := c.Show(e); err != nil {
		t.Fatal(err)
	}
	if err := c.Show(e); !errors.Is(err, ErrAlreadyShown) {
		t.Errorf("second Show() error = %v, want ErrAlreadyShown", err)
	}
	if err := c.Hide(e); err != nil {
		t.Fatal(err)
	}
	if err := c.Hide(e); !errors.Is(err, ErrNotShown) {
		t.Errorf("second Hide() error = %v, want ErrNotShown", err)
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d, want 0", c.Len())
	}
}

func TestCanvasRejectsDuplicateDuringImport(t *testing.T) {
	c, m := backpack(t)
	d := document.Export(m)

	// Importing onto a canvas that already shows the classes fails on the
	// first duplicate and leaves the canvas as it was.
	before := c.Len()
	err := document.Import(model.New(), d, document.WithPresenter(c))
	if err == nil {
		t.Fatal("Import() onto a populated canvas should fail")
	}
	if c.Len() != before {
		t.Errorf("Len() = %d after failed import, want %d", c.Len(), before)
	}
}

func TestFromDocument(t *testing.T) {
	c1, m := backpack(t)

	c2, err := FromDocument(document.Export(m))
	if err != nil {
		t.Fatal(err)
	}
	for _, k := range []adapter.ElementKind{
		adapter.ElementResource, adapter.ElementActivity, adapter.ElementAllocation, adapter.ElementConstraint,
	} {
		if c1.Count(k) != c2.Count(k) {
			t.Errorf("Count(%s) = %d after import, want %d", k, c2.Count(k), c1.Count(k))
		}
	}
}

func TestDOT(t *testing.T) {
	c, _ := backpack(t)
	dot := c.DOT(Options{})

	for _, want := range []string{
		"digraph DM3K",
		"subgraph resources",
		"subgraph activities",
		`"Backpack" [shape=box`,
		`"Textbook" [shape=ellipse`,
		`"Backpack" -> "Textbook";`,
		`"Textbook" -> "Pen" [style=dotted, constraint=false, label="IF-NOT"];`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT() missing %q", want)
		}
	}
	if strings.Contains(dot, "budget: space") {
		t.Error("DOT() without Detailed should not list attachments")
	}
}

func TestDOTContains(t *testing.T) {
	c := NewCanvas()
	a := adapter.New(model.New(), c, nil)
	a.AddCompleteResource("Room", "Closet", []string{"space"}, nil)
	if res := a.AddNewResContains("Building", "House", "Closet"); !res.Success {
		t.Fatal(res.Details)
	}

	dot := c.DOT(Options{})
	if !strings.Contains(dot, `"House" -> "Closet" [style=dashed, arrowhead=odiamond];`) {
		t.Errorf("DOT() missing contains edge:\n%s", dot)
	}
}

func TestFmtLabel(t *testing.T) {
	n := adapter.Element{Kind: adapter.ElementActivity, Name: "Textbook", TypeName: "Item"}
	attached := []adapter.Element{
		{Kind: adapter.ElementCost, Owner: "Textbook", Name: "space"},
		{Kind: adapter.ElementReward, Owner: "Textbook", Name: "utility"},
	}

	if got := fmtLabel(n, attached, false); got != "Textbook" {
		t.Errorf("fmtLabel() simple = %q, want %q", got, "Textbook")
	}
	got := fmtLabel(n, attached, true)
	want := "Textbook\ntype: Item\ncost: space\nreward: utility"
	if got != want {
		t.Errorf("fmtLabel() detailed = %q, want %q", got, want)
	}
}

func TestAttachmentLinesOrder(t *testing.T) {
	lines := attachmentLines([]adapter.Element{
		{Kind: adapter.ElementReward, Owner: "A", Name: "r"},
		{Kind: adapter.ElementCost, Owner: "A", Name: "c1", Index: 1},
		{Kind: adapter.ElementCost, Owner: "A", Name: "c0", Index: 0},
	})
	var names []string
	for _, e := range lines["A"] {
		names = append(names, e.Name)
	}
	if got := strings.Join(names, ","); got != "c0,c1,r" {
		t.Errorf("attachment order = %s, want c0,c1,r", got)
	}
}

func TestNormalizeViewBox(t *testing.T) {
	tests := []struct {
		name string
		svg  string
		want string
	}{
		{
			name: "with viewBox",
			svg:  `<svg viewBox="10 20 800 600" xmlns="http://www.w3.org/2000/svg">content</svg>`,
			want: `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 800.00 600.00" width="800" height="600">content</svg>`,
		},
		{
			name: "no viewBox",
			svg:  `<svg xmlns="http://www.w3.org/2000/svg">content</svg>`,
			want: `<svg xmlns="http://www.w3.org/2000/svg">content</svg>`,
		},
		{
			name: "zero dimensions",
			svg:  `<svg viewBox="0 0 0 0">content</svg>`,
			want: `<svg viewBox="0 0 0 0">content</svg>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizeViewBox([]byte(tt.svg))
			if string(got) != tt.want {
				t.Errorf("normalizeViewBox() = %q, want %q", string(got), tt.want)
			}
		})
	}
}

func TestRenderSVG(t *testing.T) {
	c, _ := backpack(t)
	svg, err := RenderSVG(context.Background(), c.DOT(Options{Detailed: true}))
	if err != nil {
		t.Fatalf("RenderSVG() error: %v", err)
	}
	if !strings.Contains(string(svg), "<svg") {
		t.Error("RenderSVG() output missing <svg> tag")
	}
}

func TestRenderSVGInvalidDOT(t *testing.T) {
	if _, err := RenderSVG(context.Background(), `not valid DOT {{{`); err == nil {
		t.Error("RenderSVG() should return error for invalid DOT")
	}
}
