package adapter

import (
	"fmt"
	"slices"

	"github.com/dm3k/dm3k/pkg/model"
)

// ElementKind identifies what a diagram element draws.
type ElementKind string

const (
	ElementResource   ElementKind = "resource"
	ElementActivity   ElementKind = "activity"
	ElementBudget     ElementKind = "budget"
	ElementCost       ElementKind = "cost"
	ElementReward     ElementKind = "reward"
	ElementContains   ElementKind = "contains"
	ElementAllocation ElementKind = "allocation"
	ElementConstraint ElementKind = "constraint"
)

// Point is a diagram position.
type Point struct {
	X, Y float64
}

// Element describes one box, attachment block or edge on the diagram.
//
// Class elements use Name, TypeName and At. Attachment elements use Name for
// the attachment, Owner for the class and Index for the slot it occupies.
// Link elements use From and To; constraint elements also carry the
// constraint type in TypeName and encode each allocation as "resource->activity".
type Element struct {
	Kind     ElementKind
	Name     string
	TypeName string
	Owner    string
	From, To string
	Index    int
	At       Point
}

// ID returns a stable identifier for the element.
func (e Element) ID() string {
	switch e.Kind {
	case ElementResource, ElementActivity:
		return string(e.Kind) + ":" + e.Name
	case ElementBudget, ElementCost, ElementReward:
		return string(e.Kind) + ":" + e.Owner + "/" + e.Name
	default:
		return string(e.Kind) + ":" + e.From + "->" + e.To
	}
}

// Presenter is the drawing capability the adapter drives.
type Presenter interface {
	Show(e Element) error
	Hide(e Element) error
}

// NopPresenter accepts every element and draws nothing.
type NopPresenter struct{}

func (NopPresenter) Show(Element) error { return nil }
func (NopPresenter) Hide(Element) error { return nil }

// RecordingPresenter keeps the visible elements in display order.
// FailOn, when set, is consulted before each Show; a non-nil return value
// is reported as the presentation error.
type RecordingPresenter struct {
	Visible []Element
	FailOn  func(Element) error
}

func (p *RecordingPresenter) Show(e Element) error {
	if p.FailOn != nil {
		if err := p.FailOn(e); err != nil {
			return err
		}
	}
	p.Visible = append(p.Visible, e)
	return nil
}

func (p *RecordingPresenter) Hide(e Element) error {
	id := e.ID()
	i := slices.IndexFunc(p.Visible, func(v Element) bool { return v.ID() == id })
	if i < 0 {
		return fmt.Errorf("element %s is not visible", id)
	}
	p.Visible = slices.Delete(p.Visible, i, i+1)
	return nil
}

// IDs returns the identifiers of the visible elements.
func (p *RecordingPresenter) IDs() []string {
	out := make([]string, len(p.Visible))
	for i, e := range p.Visible {
		out[i] = e.ID()
	}
	return out
}

func classElement(k model.Kind, typeName, name string, at Point) Element {
	kind := ElementResource
	if k == model.KindActivity {
		kind = ElementActivity
	}
	return Element{Kind: kind, Name: name, TypeName: typeName, At: at}
}

func attachmentElement(kind ElementKind, owner, name string, index int) Element {
	return Element{Kind: kind, Name: name, Owner: owner, Index: index}
}

func linkElement(kind ElementKind, from, to string) Element {
	return Element{Kind: kind, From: from, To: to}
}
