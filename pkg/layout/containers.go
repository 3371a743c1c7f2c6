package layout

import (
	"fmt"

	"github.com/dm3k/dm3k/pkg/document"
	"github.com/dm3k/dm3k/pkg/model"
)

// slot is one row or column on a matrix axis.
type slot struct {
	size, pos float64
	index     int
}

// axis groups the slots of one matrix axis by class.
type axis struct {
	kind    model.Kind
	byClass map[string][]slot
}

func rowAxis(rows []ResourceInstance) axis {
	ax := axis{kind: model.KindResource, byClass: make(map[string][]slot)}
	for i, r := range rows {
		ax.byClass[r.Class] = append(ax.byClass[r.Class], slot{size: r.Height, pos: r.Y, index: i})
	}
	return ax
}

func columnAxis(cols []ActivityInstance) axis {
	ax := axis{kind: model.KindActivity, byClass: make(map[string][]slot)}
	for i, c := range cols {
		ax.byClass[c.Class] = append(ax.byClass[c.Class], slot{size: c.Width, pos: c.X, index: i})
	}
	return ax
}

// boxBuilder sizes container boxes along one axis.
type boxBuilder struct {
	ax       axis
	links    []document.ContainsInstances
	rowCount map[string]int
}

// containerBoxes returns one box per link that covers at least one slot,
// in link order.
func containerBoxes(links []document.ContainsInstances, ax axis, d document.Document) ([]ContainerBox, error) {
	b := &boxBuilder{ax: ax, links: links, rowCount: make(map[string]int)}
	for _, ri := range d.ResourceInstances {
		b.rowCount[ri.ClassName] = len(ri.InstanceTable)
	}
	for _, ai := range d.ActivityInstances {
		b.rowCount[ai.ClassName] = len(ai.InstanceTable)
	}

	out := []ContainerBox{}
	for _, l := range links {
		box, err := b.box(l, make(map[string]bool))
		if err != nil {
			return nil, err
		}
		if box != nil && box.NumInstances > 0 {
			out = append(out, *box)
		}
	}
	return out, nil
}

func (b *boxBuilder) box(l document.ContainsInstances, visiting map[string]bool) (*ContainerBox, error) {
	box := &ContainerBox{Parent: l.ParentClassName, Child: l.ChildClassName, Kind: b.ax.kind}
	whole := allToAll(l)

	if slots := b.ax.byClass[l.ChildClassName]; len(slots) > 0 {
		n := len(slots)
		box.Depth = 1
		box.NumInstances = n
		box.Start, box.Index = slots[0].pos, slots[0].index
		for _, s := range slots {
			box.Extent += s.size
			box.Start = min(box.Start, s.pos)
			box.Index = min(box.Index, s.index)
		}
		box.NumContained = n
		if !whole {
			u := uniqueChildren(l)
			box.Extent *= float64(u) / float64(n)
			box.NumContained = u
		}
		return box, nil
	}

	if visiting[l.ChildClassName] {
		return nil, fmt.Errorf("%w: class %q contains itself", ErrCyclicContainment, l.ChildClassName)
	}
	visiting[l.ChildClassName] = true
	defer delete(visiting, l.ChildClassName)

	found := false
	for _, inner := range b.links {
		if inner.ParentClassName != l.ChildClassName {
			continue
		}
		child, err := b.box(inner, visiting)
		if err != nil {
			return nil, err
		}
		if child == nil || child.NumInstances == 0 {
			continue
		}
		if !found {
			box.Start, box.Index = child.Start, child.Index
			found = true
		}
		box.Extent += child.Extent
		box.NumInstances += child.NumInstances
		box.NumContained += child.NumContained
		box.Start = min(box.Start, child.Start)
		box.Index = min(box.Index, child.Index)
		box.Depth = max(box.Depth, child.Depth+1)
	}
	if !found {
		return nil, nil
	}
	if !whole {
		if n := b.rowCount[l.ChildClassName]; n > 0 {
			u := uniqueChildren(l)
			box.Extent *= float64(u) / float64(n)
			box.NumContained = u
		}
	}
	return box, nil
}

// allToAll reports whether a link is unrefined: its first row is ALL/ALL,
// or it has no rows.
func allToAll(l document.ContainsInstances) bool {
	if len(l.InstanceTable) == 0 {
		return true
	}
	r := l.InstanceTable[0]
	return r.ParentInstanceName.IsAll() && r.ChildInstanceName.IsAll()
}

func uniqueChildren(l document.ContainsInstances) int {
	seen := make(map[model.InstanceRef]bool)
	for _, r := range l.InstanceTable {
		seen[r.ChildInstanceName] = true
	}
	return len(seen)
}
