package adapter

import (
	"fmt"

	"github.com/dm3k/dm3k/pkg/model"
)

// Event names raised by the diagram surface.
const (
	EventBoxesSelected   = "newBoxesSelected"
	EventBoxesDeselected = "newBoxesDeselected"
	EventInstanceEdit    = "CircleIClicked"
)

// Edit target types carried in [InstanceEditEvent].
const (
	EditResource    = "Resource"
	EditActivity    = "Activity"
	EditAllocatedTo = "AllocatedTo"
	EditContains    = "Contains"
)

// SelectionEvent reports boxes entering or leaving the selection.
type SelectionEvent struct {
	Event      string   `json:"event"`
	Selected   []string `json:"boxesSelected,omitempty"`
	Deselected []string `json:"boxesDeselected,omitempty"`
}

// SelectionPayload builds the selection event for ids.
func SelectionPayload(ids []string, selected bool) SelectionEvent {
	if selected {
		return SelectionEvent{Event: EventBoxesSelected, Selected: ids}
	}
	return SelectionEvent{Event: EventBoxesDeselected, Deselected: ids}
}

// EditTarget names the element whose instance table should be opened.
// Class targets set Name; link targets set From and To.
type EditTarget struct {
	Kind     ElementKind
	Name     string
	From, To string
}

// InstanceEditEvent is the payload of a request to edit instance rows.
type InstanceEditEvent struct {
	Event string `json:"event"`
	ID    string `json:"id"`
	Name  string `json:"name"`
	Type  string `json:"type"`

	Budgets []string `json:"budget,omitempty"`
	Costs   []string `json:"cost,omitempty"`
	Reward  string   `json:"reward,omitempty"`

	ResourceName string `json:"resourceName,omitempty"`
	ActivityName string `json:"activityName,omitempty"`
	ParentName   string `json:"parentName,omitempty"`
	ChildName    string `json:"childName,omitempty"`
}

// InstanceEditPayload builds the instance-edit event for target from the
// model's query surface. Unknown targets are reported as errors.
func (a *Adapter) InstanceEditPayload(target EditTarget) (InstanceEditEvent, error) {
	ev := InstanceEditEvent{Event: EventInstanceEdit}
	switch target.Kind {
	case ElementResource:
		r, err := a.model.Resource(target.Name)
		if err != nil {
			return ev, err
		}
		ev.ID = classElement(model.KindResource, r.TypeName, r.Name, Point{}).ID()
		ev.Name, ev.Type = r.Name, EditResource
		ev.Budgets = r.Budgets
	case ElementActivity:
		act, err := a.model.Activity(target.Name)
		if err != nil {
			return ev, err
		}
		ev.ID = classElement(model.KindActivity, act.TypeName, act.Name, Point{}).ID()
		ev.Name, ev.Type = act.Name, EditActivity
		ev.Costs = act.Costs
		ev.Reward = act.RewardLabel
	case ElementAllocation:
		l, err := a.model.Allocation(target.From, target.To)
		if err != nil {
			return ev, err
		}
		ev.ID = linkElement(ElementAllocation, l.Resource, l.Activity).ID()
		ev.Name, ev.Type = l.Resource+"_"+l.Activity, EditAllocatedTo
		ev.ResourceName, ev.ActivityName = l.Resource, l.Activity
	case ElementContains:
		l, err := a.model.Contains(target.From, target.To)
		if err != nil {
			return ev, err
		}
		ev.ID = linkElement(ElementContains, l.Parent, l.Child).ID()
		ev.Name, ev.Type = l.Parent+"_"+l.Child, EditContains
		ev.ParentName, ev.ChildName = l.Parent, l.Child
	default:
		return ev, fmt.Errorf("%w: %q has no instance table", model.ErrUnknownKind, target.Kind)
	}
	return ev, nil
}
