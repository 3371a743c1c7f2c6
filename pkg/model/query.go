package model

import (
	"fmt"
	"slices"
)

// NameExists reports whether any resource or activity class uses name.
func (m *Model) NameExists(name string) bool {
	return m.IsResource(name) || m.IsActivity(name)
}

// IsResource reports whether name is a resource class.
func (m *Model) IsResource(name string) bool {
	_, ok := m.resources[name]
	return ok
}

// IsActivity reports whether name is an activity class.
func (m *Model) IsActivity(name string) bool {
	_, ok := m.activities[name]
	return ok
}

// KindOf returns the kind of the named class.
func (m *Model) KindOf(name string) (Kind, error) {
	switch {
	case m.IsResource(name):
		return KindResource, nil
	case m.IsActivity(name):
		return KindActivity, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownReference, name)
}

// Resource returns the named resource class.
func (m *Model) Resource(name string) (*ResourceClass, error) {
	r, ok := m.resources[name]
	if !ok {
		return nil, fmt.Errorf("%w: resource %q", ErrUnknownReference, name)
	}
	return r, nil
}

// Activity returns the named activity class.
func (m *Model) Activity(name string) (*ActivityClass, error) {
	a, ok := m.activities[name]
	if !ok {
		return nil, fmt.Errorf("%w: activity %q", ErrUnknownReference, name)
	}
	return a, nil
}

// ResourceInstances returns the instance table of a resource class.
func (m *Model) ResourceInstances(name string) (*ResourceInstances, error) {
	t, ok := m.resourceInstances[name]
	if !ok {
		return nil, fmt.Errorf("%w: resource instances %q", ErrUnknownReference, name)
	}
	return t, nil
}

// ActivityInstances returns the instance table of an activity class.
func (m *Model) ActivityInstances(name string) (*ActivityInstances, error) {
	t, ok := m.activityInstances[name]
	if !ok {
		return nil, fmt.Errorf("%w: activity instances %q", ErrUnknownReference, name)
	}
	return t, nil
}

// Contains returns the contains link from parent to child.
func (m *Model) Contains(parent, child string) (*ContainsLink, error) {
	l, ok := m.contains[containsKey{parent: parent, child: child}]
	if !ok {
		return nil, fmt.Errorf("%w: %q contains %q", ErrUnknownReference, parent, child)
	}
	return l, nil
}

// Allocation returns the allocation link from resource to activity.
func (m *Model) Allocation(resource, activity string) (*AllocationLink, error) {
	l, ok := m.allocations[AllocationKey{Resource: resource, Activity: activity}]
	if !ok {
		return nil, fmt.Errorf("%w: %q -> %q", ErrUnknownAllocation, resource, activity)
	}
	return l, nil
}

// =============================================================================
// Ordered listings
// =============================================================================

// Resources returns the resource classes in creation order.
func (m *Model) Resources() []*ResourceClass {
	out := make([]*ResourceClass, len(m.resourceOrder))
	for i, name := range m.resourceOrder {
		out[i] = m.resources[name]
	}
	return out
}

// Activities returns the activity classes in creation order.
func (m *Model) Activities() []*ActivityClass {
	out := make([]*ActivityClass, len(m.activityOrder))
	for i, name := range m.activityOrder {
		out[i] = m.activities[name]
	}
	return out
}

// ContainsLinks returns the contains links in creation order.
func (m *Model) ContainsLinks() []*ContainsLink {
	out := make([]*ContainsLink, len(m.containsOrder))
	for i, k := range m.containsOrder {
		out[i] = m.contains[k]
	}
	return out
}

// Allocations returns the allocation links in creation order.
func (m *Model) Allocations() []*AllocationLink {
	out := make([]*AllocationLink, len(m.allocationOrder))
	for i, k := range m.allocationOrder {
		out[i] = m.allocations[k]
	}
	return out
}

// Constraints returns the constraint links in creation order.
func (m *Model) Constraints() []*ConstraintLink {
	return slices.Clone(m.constraints)
}

// ResourceCount returns the number of resource classes.
func (m *Model) ResourceCount() int { return len(m.resourceOrder) }

// ActivityCount returns the number of activity classes.
func (m *Model) ActivityCount() int { return len(m.activityOrder) }

// =============================================================================
// Name queries
// =============================================================================

// NamesOfKind returns every class name of the given kind in creation order.
func (m *Model) NamesOfKind(k Kind) ([]string, error) {
	switch k {
	case KindResource:
		return slices.Clone(m.resourceOrder), nil
	case KindActivity:
		return slices.Clone(m.activityOrder), nil
	}
	return nil, fmt.Errorf("%w: %q (use %q or %q)", ErrUnknownKind, k, KindResource, KindActivity)
}

// ChildrenOf returns the names of the classes contained by parent.
func (m *Model) ChildrenOf(parent string) []string {
	var names []string
	for _, k := range m.containsOrder {
		if k.parent == parent {
			names = append(names, k.child)
		}
	}
	return names
}

// ParentsOf returns the names of the classes that contain child.
func (m *Model) ParentsOf(child string) []string {
	var names []string
	for _, k := range m.containsOrder {
		if k.child == child {
			names = append(names, k.parent)
		}
	}
	return names
}

// AllocatedFrom returns the names of the activities the resource can be
// allocated to.
func (m *Model) AllocatedFrom(resource string) []string {
	var names []string
	for _, k := range m.allocationOrder {
		if k.Resource == resource {
			names = append(names, k.Activity)
		}
	}
	return names
}

// AllocatedTo returns the names of the resources that can be allocated to
// the activity.
func (m *Model) AllocatedTo(activity string) []string {
	var names []string
	for _, k := range m.allocationOrder {
		if k.Activity == activity {
			names = append(names, k.Resource)
		}
	}
	return names
}

// AttachmentsFor returns the attachment names of the given type hung off a
// class. Attachment types that do not apply to the kind yield no names.
func (m *Model) AttachmentsFor(name string, k Kind, a Attachment) ([]string, error) {
	switch k {
	case KindResource:
		r, err := m.Resource(name)
		if err != nil {
			return nil, err
		}
		if a == AttachBudget {
			return slices.Clone(r.Budgets), nil
		}
		return nil, nil
	case KindActivity:
		act, err := m.Activity(name)
		if err != nil {
			return nil, err
		}
		switch a {
		case AttachCost:
			return slices.Clone(act.Costs), nil
		case AttachReward:
			return slices.Clone(act.Rewards), nil
		}
		return nil, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, k)
}
