package document

import (
	"maps"
	"slices"

	"github.com/dm3k/dm3k/pkg/model"
)

// Export projects m into a Document. Classes and links appear in creation
// order. m is not modified.
func Export(m *model.Model) Document {
	d := Document{
		ResourceClasses:       []ResourceClass{},
		ActivityClasses:       []ActivityClass{},
		ResourceInstances:     []ResourceInstances{},
		ActivityInstances:     []ActivityInstances{},
		ContainsInstances:     []ContainsInstances{},
		AllocationInstances:   []AllocationInstances{},
		AllocationConstraints: []AllocationConstraint{},
	}

	for _, r := range m.Resources() {
		x, y := r.X, r.Y
		budgets, _ := m.AttachmentsFor(r.Name, model.KindResource, model.AttachBudget)
		d.ResourceClasses = append(d.ResourceClasses, ResourceClass{
			ClassName:               r.Name,
			TypeName:                r.TypeName,
			Budgets:                 orEmpty(budgets),
			ContainsClasses:         orEmpty(m.ChildrenOf(r.Name)),
			CanBeAllocatedToClasses: orEmpty(m.AllocatedFrom(r.Name)),
			LocX:                    &x,
			LocY:                    &y,
		})
		if t, err := m.ResourceInstances(r.Name); err == nil {
			d.ResourceInstances = append(d.ResourceInstances, exportResourceInstances(t))
		}
	}

	for _, a := range m.Activities() {
		x, y := a.X, a.Y
		rewards, _ := m.AttachmentsFor(a.Name, model.KindActivity, model.AttachReward)
		costs, _ := m.AttachmentsFor(a.Name, model.KindActivity, model.AttachCost)
		d.ActivityClasses = append(d.ActivityClasses, ActivityClass{
			ClassName:       a.Name,
			TypeName:        a.TypeName,
			Rewards:         orEmpty(rewards),
			Costs:           orEmpty(costs),
			ContainsClasses: orEmpty(m.ChildrenOf(a.Name)),
			AllocatedWhen:   map[string]any{},
			LocX:            &x,
			LocY:            &y,
		})
		if t, err := m.ActivityInstances(a.Name); err == nil {
			d.ActivityInstances = append(d.ActivityInstances, exportActivityInstances(t))
		}
	}

	for _, l := range m.ContainsLinks() {
		ci := ContainsInstances{
			ParentClassName: l.Parent,
			ChildClassName:  l.Child,
			ParentType:      string(l.ParentKind),
			InstanceTable:   make([]ContainsRow, len(l.Rows)),
		}
		for i, row := range l.Rows {
			ci.InstanceTable[i] = ContainsRow{ParentInstanceName: row.Parent, ChildInstanceName: row.Child}
		}
		d.ContainsInstances = append(d.ContainsInstances, ci)
	}

	for _, l := range m.Allocations() {
		ai := AllocationInstances{
			ResourceClassName: l.Resource,
			ActivityClassName: l.Activity,
			InstanceTable:     make([]AllocationRow, len(l.Rows)),
		}
		for i, row := range l.Rows {
			ai.InstanceTable[i] = AllocationRow{ResourceInstanceName: row.Resource, ActivityInstanceName: row.Activity}
		}
		d.AllocationInstances = append(d.AllocationInstances, ai)
	}

	for _, c := range m.Constraints() {
		d.AllocationConstraints = append(d.AllocationConstraints, AllocationConstraint{
			AllocationStart:          AllocationRef{ResourceClass: c.Start.Resource, ActivityClass: c.Start.Activity},
			AllocationEnd:            AllocationRef{ResourceClass: c.End.Resource, ActivityClass: c.End.Activity},
			AllocationConstraintType: string(c.Type),
		})
	}
	return d
}

func exportResourceInstances(t *model.ResourceInstances) ResourceInstances {
	out := ResourceInstances{ClassName: t.ClassName, InstanceTable: make([]ResourceRow, len(t.Rows))}
	for i, row := range t.Rows {
		out.InstanceTable[i] = ResourceRow{InstanceName: row.Name, Budget: cloneAmounts(row.Budget)}
	}
	return out
}

func exportActivityInstances(t *model.ActivityInstances) ActivityInstances {
	out := ActivityInstances{ClassName: t.ClassName, InstanceTable: make([]ActivityRow, len(t.Rows))}
	for i, row := range t.Rows {
		out.InstanceTable[i] = ActivityRow{InstanceName: row.Name, Cost: cloneAmounts(row.Cost), Reward: row.Reward}
	}
	return out
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return slices.Clone(s)
}

func cloneAmounts(m map[string]float64) map[string]float64 {
	if m == nil {
		return map[string]float64{}
	}
	return maps.Clone(m)
}

// Wrap places d in the export envelope.
func Wrap(datasetName string, d Document) Wrapper {
	return Wrapper{
		DatasetName: datasetName,
		Files:       []File{{FileName: "", FileContents: d}},
	}
}

// Unwrap returns the first document in w.
func Unwrap(w Wrapper) (Document, error) {
	if len(w.Files) == 0 {
		return Document{}, ErrEmptyWrapper
	}
	return w.Files[0].FileContents, nil
}
