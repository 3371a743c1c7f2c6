package layout

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/dm3k/dm3k/pkg/document"
	"github.com/dm3k/dm3k/pkg/model"
)

// ResourceLabel returns the canonical label of the index-th instance of a
// resource class.
func ResourceLabel(class string, index int) string {
	return strings.ToLower(class) + "_Resource_instance_" + strconv.Itoa(index)
}

// ActivityLabel returns the canonical label of the index-th instance of an
// activity class.
func ActivityLabel(class string, index int) string {
	return strings.ToLower(class) + "_Activity_instance_" + strconv.Itoa(index)
}

type resourceEntry struct {
	info Label
	row  *document.ResourceRow
}

type activityEntry struct {
	info Label
	row  *document.ActivityRow
}

// labelIndex resolves trace names to instances.
type labelIndex struct {
	resources  []*resourceEntry
	activities []*activityEntry
	resLabel   map[string]*resourceEntry
	actLabel   map[string]*activityEntry
	// clashes holds labels shared by classes whose names differ only by
	// case.
	clashes map[string]error
	// budgetOrder is each resource class's declared budget list.
	budgetOrder map[string][]string
}

func newLabelIndex(d document.Document) *labelIndex {
	ix := &labelIndex{
		resLabel:    make(map[string]*resourceEntry),
		actLabel:    make(map[string]*activityEntry),
		clashes:     make(map[string]error),
		budgetOrder: make(map[string][]string),
	}
	for _, rc := range d.ResourceClasses {
		ix.budgetOrder[rc.ClassName] = rc.Budgets
	}

	for _, ri := range d.ResourceInstances {
		for i := range ri.InstanceTable {
			row := &ri.InstanceTable[i]
			e := &resourceEntry{
				info: Label{Label: ResourceLabel(ri.ClassName, i), Name: row.InstanceName, Class: ri.ClassName, Kind: model.KindResource},
				row:  row,
			}
			if prev, ok := ix.resLabel[e.info.Label]; ok {
				ix.clash(e.info.Label, prev.info.Class, e.info.Class)
			} else {
				ix.resLabel[e.info.Label] = e
			}
			ix.resources = append(ix.resources, e)
		}
	}
	for _, ai := range d.ActivityInstances {
		for i := range ai.InstanceTable {
			row := &ai.InstanceTable[i]
			e := &activityEntry{
				info: Label{Label: ActivityLabel(ai.ClassName, i), Name: row.InstanceName, Class: ai.ClassName, Kind: model.KindActivity},
				row:  row,
			}
			if prev, ok := ix.actLabel[e.info.Label]; ok {
				ix.clash(e.info.Label, prev.info.Class, e.info.Class)
			} else {
				ix.actLabel[e.info.Label] = e
			}
			ix.activities = append(ix.activities, e)
		}
	}
	return ix
}

func (ix *labelIndex) clash(label, a, b string) {
	if _, ok := ix.clashes[label]; !ok {
		ix.clashes[label] = fmt.Errorf("classes %q and %q share label %q", a, b, label)
	}
}

// resource resolves a trace name. Labels win; otherwise the first instance
// with that display name in document order is used. A label shared by two
// classes does not resolve.
func (ix *labelIndex) resource(name string) (*resourceEntry, error) {
	if err, ok := ix.clashes[name]; ok {
		return nil, err
	}
	if e, ok := ix.resLabel[name]; ok {
		return e, nil
	}
	if i := slices.IndexFunc(ix.resources, func(e *resourceEntry) bool { return e.info.Name == name }); i >= 0 {
		return ix.resources[i], nil
	}
	return nil, fmt.Errorf("unknown resource instance %q", name)
}

func (ix *labelIndex) activity(name string) (*activityEntry, error) {
	if err, ok := ix.clashes[name]; ok {
		return nil, err
	}
	if e, ok := ix.actLabel[name]; ok {
		return e, nil
	}
	if i := slices.IndexFunc(ix.activities, func(e *activityEntry) bool { return e.info.Name == name }); i >= 0 {
		return ix.activities[i], nil
	}
	return nil, fmt.Errorf("unknown activity instance %q", name)
}

// distinctLabels fails when the resolved trace holds instances of two
// classes under one label.
func distinctLabels[T any](trace []T, info func(T) Label) error {
	class := make(map[string]string)
	for _, e := range trace {
		l := info(e)
		if prev, ok := class[l.Label]; ok && prev != l.Class {
			return fmt.Errorf("classes %q and %q share label %q", prev, l.Class, l.Label)
		}
		class[l.Label] = l.Class
	}
	return nil
}

func (ix *labelIndex) labels() []Label {
	out := make([]Label, 0, len(ix.resources)+len(ix.activities))
	for _, e := range ix.resources {
		out = append(out, e.info)
	}
	for _, e := range ix.activities {
		out = append(out, e.info)
	}
	return out
}

// budgetOf returns the amount and unit of a row's first budget, taking the
// class's declared budget order first.
func (ix *labelIndex) budgetOf(e *resourceEntry) (float64, string) {
	for _, b := range ix.budgetOrder[e.info.Class] {
		if v, ok := e.row.Budget[b]; ok {
			return v, b
		}
	}
	keys := model.SortedKeys(e.row.Budget)
	if len(keys) == 0 {
		return 0, ""
	}
	return e.row.Budget[keys[0]], keys[0]
}

func costOf(row *document.ActivityRow) (float64, []string) {
	units := model.SortedKeys(row.Cost)
	var sum float64
	for _, u := range units {
		sum += row.Cost[u]
	}
	if units == nil {
		units = []string{}
	}
	return sum, units
}
