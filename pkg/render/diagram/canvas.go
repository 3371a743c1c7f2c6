package diagram

import (
	"errors"
	"fmt"
	"slices"

	"github.com/dm3k/dm3k/pkg/adapter"
	"github.com/dm3k/dm3k/pkg/document"
	"github.com/dm3k/dm3k/pkg/model"
)

var (
	// ErrAlreadyShown is returned by [Canvas.Show] for an element whose ID
	// is already on the canvas.
	ErrAlreadyShown = errors.New("element already shown")

	// ErrNotShown is returned by [Canvas.Hide] for an element that is not on
	// the canvas.
	ErrNotShown = errors.New("element not shown")
)

// Canvas holds the visible diagram elements in the order they were shown.
//
// The zero value is ready to use. A Canvas is not safe for concurrent use.
type Canvas struct {
	elements []adapter.Element
}

var _ adapter.Presenter = (*Canvas)(nil)

// NewCanvas returns an empty canvas.
func NewCanvas() *Canvas {
	return &Canvas{}
}

// FromDocument imports d into a fresh model and returns the canvas the
// import drew.
func FromDocument(d document.Document, opts ...document.ImportOption) (*Canvas, error) {
	c := NewCanvas()
	opts = append(opts, document.WithPresenter(c))
	if err := document.Import(model.New(), d, opts...); err != nil {
		return nil, err
	}
	return c, nil
}

// Show adds e to the canvas.
func (c *Canvas) Show(e adapter.Element) error {
	if c.index(e.ID()) >= 0 {
		return fmt.Errorf("%w: %s", ErrAlreadyShown, e.ID())
	}
	c.elements = append(c.elements, e)
	return nil
}

// Hide removes e from the canvas.
func (c *Canvas) Hide(e adapter.Element) error {
	i := c.index(e.ID())
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotShown, e.ID())
	}
	c.elements = slices.Delete(c.elements, i, i+1)
	return nil
}

// Elements returns a copy of the visible elements in display order.
func (c *Canvas) Elements() []adapter.Element {
	return slices.Clone(c.elements)
}

// Len returns the number of visible elements.
func (c *Canvas) Len() int { return len(c.elements) }

// Count returns the number of visible elements of kind k.
func (c *Canvas) Count(k adapter.ElementKind) int {
	n := 0
	for _, e := range c.elements {
		if e.Kind == k {
			n++
		}
	}
	return n
}

// Clear removes every element.
func (c *Canvas) Clear() { c.elements = nil }

func (c *Canvas) index(id string) int {
	return slices.IndexFunc(c.elements, func(e adapter.Element) bool { return e.ID() == id })
}
