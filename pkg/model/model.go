package model

import (
	"errors"
	"fmt"
	"slices"
)

var (
	// ErrInvalidName is returned when a class or instance name is empty.
	ErrInvalidName = errors.New("name must not be empty")

	// ErrDuplicateName is returned by [Model.AddResource] and
	// [Model.AddActivity] when the class name is already used by any
	// resource or activity, and by instance tables on row name collisions.
	ErrDuplicateName = errors.New("duplicate name")

	// ErrDuplicateLink is returned when a contains or allocation link between
	// the same two classes already exists.
	ErrDuplicateLink = errors.New("duplicate link")

	// ErrMissingBudget is returned by [Model.AddAllocation] when the resource
	// has no budget. Unbudgeted resources are containers only.
	ErrMissingBudget = errors.New("resource has no budget")

	// ErrUnknownReference is returned when a class name does not resolve.
	ErrUnknownReference = errors.New("unknown reference")

	// ErrUnknownAllocation is returned when no allocation link joins the
	// given resource and activity.
	ErrUnknownAllocation = errors.New("unknown allocation")

	// ErrMixedContainment is returned by [Model.AddContains] when parent and
	// child are of different kinds.
	ErrMixedContainment = errors.New("resources may only contain resources and activities only activities")

	// ErrUnknownKind is returned for a kind other than resource or activity.
	ErrUnknownKind = errors.New("unknown kind")

	// ErrInvalidConstraintType is returned by [Model.AddConstraint] for a type
	// outside [ConstraintTypes].
	ErrInvalidConstraintType = errors.New("invalid constraint type")
)

// Kind distinguishes resource classes from activity classes.
type Kind string

const (
	KindResource Kind = "resource"
	KindActivity Kind = "activity"
)

// Attachment names the kind of labelled quantity hung off a class.
type Attachment string

const (
	AttachBudget Attachment = "budget"
	AttachCost   Attachment = "cost"
	AttachReward Attachment = "reward"
)

// ResourceClass is a resource type definition.
type ResourceClass struct {
	Name     string
	TypeName string
	// BudgetNames is the budget list the class was declared with. It seeds
	// the default instance row and the cost names of allocated activities.
	BudgetNames []string
	// Budgets lists the attached budget names in attachment order.
	Budgets []string
	// BudgetLabel is the most recently attached budget; empty for containers.
	BudgetLabel string
	X, Y        float64
}

// IsContainer reports whether the resource has no budget.
func (r *ResourceClass) IsContainer() bool { return r.BudgetLabel == "" }

// ActivityClass is an activity type definition.
type ActivityClass struct {
	Name     string
	TypeName string
	// CostNames is the cost list used for instance rows. It grows as
	// budgeted resources are allocated to the activity.
	CostNames []string
	Costs     []string
	Rewards   []string
	// RewardLabel and CostLabel track the most recent attachments.
	RewardLabel string
	CostLabel   string
	X, Y        float64
}

// Model is the single source of truth for one problem.
//
// The zero value is not usable; create models with [New].
type Model struct {
	resources     map[string]*ResourceClass
	resourceOrder []string
	activities    map[string]*ActivityClass
	activityOrder []string

	resourceInstances map[string]*ResourceInstances
	activityInstances map[string]*ActivityInstances

	contains      map[containsKey]*ContainsLink
	containsOrder []containsKey

	allocations     map[AllocationKey]*AllocationLink
	allocationOrder []AllocationKey

	constraints []*ConstraintLink
}

// New returns an empty model.
func New() *Model {
	m := &Model{}
	m.Clear()
	return m
}

// Clear resets every collection to empty. It is used before a full import.
func (m *Model) Clear() {
	m.resources = make(map[string]*ResourceClass)
	m.resourceOrder = nil
	m.activities = make(map[string]*ActivityClass)
	m.activityOrder = nil
	m.resourceInstances = make(map[string]*ResourceInstances)
	m.activityInstances = make(map[string]*ActivityInstances)
	m.contains = make(map[containsKey]*ContainsLink)
	m.containsOrder = nil
	m.allocations = make(map[AllocationKey]*AllocationLink)
	m.allocationOrder = nil
	m.constraints = nil
}

// =============================================================================
// Classes
// =============================================================================

// AddResource creates a resource class and its instance table.
// It fails with [ErrDuplicateName] if name is used by any class.
func (m *Model) AddResource(typeName, name string, budgetNames []string, x, y float64) error {
	if err := m.checkNewName(name); err != nil {
		return err
	}
	budgetNames = dedupe(budgetNames)
	m.resources[name] = &ResourceClass{
		Name:        name,
		TypeName:    typeName,
		BudgetNames: budgetNames,
		X:           x,
		Y:           y,
	}
	m.resourceOrder = append(m.resourceOrder, name)
	m.resourceInstances[name] = newResourceInstances(name, budgetNames)
	return nil
}

// AddActivity creates an activity class and its instance table.
// It fails with [ErrDuplicateName] if name is used by any class.
func (m *Model) AddActivity(typeName, name string, costNames []string, x, y float64) error {
	if err := m.checkNewName(name); err != nil {
		return err
	}
	costNames = dedupe(costNames)
	m.activities[name] = &ActivityClass{
		Name:      name,
		TypeName:  typeName,
		CostNames: costNames,
		X:         x,
		Y:         y,
	}
	m.activityOrder = append(m.activityOrder, name)
	m.activityInstances[name] = newActivityInstances(name, slices.Clone(costNames))
	return nil
}

func (m *Model) checkNewName(name string) error {
	if name == "" {
		return ErrInvalidName
	}
	if m.NameExists(name) {
		return fmt.Errorf("%w: %q is already taken", ErrDuplicateName, name)
	}
	return nil
}

// AddBudget attaches a budget to a resource and makes it the budget label.
func (m *Model) AddBudget(resource, budget string) error {
	r, err := m.Resource(resource)
	if err != nil {
		return err
	}
	if budget == "" {
		return fmt.Errorf("%w: budget of %q", ErrInvalidName, resource)
	}
	if !slices.Contains(r.Budgets, budget) {
		r.Budgets = append(r.Budgets, budget)
	}
	r.BudgetLabel = budget
	return nil
}

// AddCost attaches a cost to an activity. Instance rows without the cost get
// a unit amount for it.
func (m *Model) AddCost(activity, cost string) error {
	a, err := m.Activity(activity)
	if err != nil {
		return err
	}
	if cost == "" {
		return fmt.Errorf("%w: cost of %q", ErrInvalidName, activity)
	}
	if !slices.Contains(a.Costs, cost) {
		a.Costs = append(a.Costs, cost)
	}
	if !slices.Contains(a.CostNames, cost) {
		a.CostNames = append(a.CostNames, cost)
		m.activityInstances[activity].ensureCost(cost)
	}
	return nil
}

// AddReward attaches a reward to an activity and makes it the reward label.
func (m *Model) AddReward(activity, reward string) error {
	a, err := m.Activity(activity)
	if err != nil {
		return err
	}
	if reward == "" {
		return fmt.Errorf("%w: reward of %q", ErrInvalidName, activity)
	}
	if !slices.Contains(a.Rewards, reward) {
		a.Rewards = append(a.Rewards, reward)
	}
	a.RewardLabel = reward
	return nil
}

// =============================================================================
// Links
// =============================================================================

// AddContains links a parent class to a child class of the same kind. The
// parent kind is decided by membership. The link starts with one {ALL, ALL}
// row.
func (m *Model) AddContains(parent, child string) error {
	var kind Kind
	switch {
	case m.IsResource(parent):
		kind = KindResource
		if m.IsActivity(child) {
			return fmt.Errorf("%w: %q contains %q", ErrMixedContainment, parent, child)
		}
		if !m.IsResource(child) {
			return fmt.Errorf("%w: resource %q", ErrUnknownReference, child)
		}
	case m.IsActivity(parent):
		kind = KindActivity
		if m.IsResource(child) {
			return fmt.Errorf("%w: %q contains %q", ErrMixedContainment, parent, child)
		}
		if !m.IsActivity(child) {
			return fmt.Errorf("%w: activity %q", ErrUnknownReference, child)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownReference, parent)
	}

	key := containsKey{parent: parent, child: child}
	if _, ok := m.contains[key]; ok {
		return fmt.Errorf("%w: %q contains %q", ErrDuplicateLink, parent, child)
	}
	m.contains[key] = seedContains(parent, child, kind)
	m.containsOrder = append(m.containsOrder, key)
	return nil
}

// AddAllocation links a budgeted resource to an activity. The activity's
// cost names are extended with the resource's budget names and its cost
// label is set to the resource's budget label. The link starts with one
// {ALL, ALL} row.
func (m *Model) AddAllocation(resource, activity string) error {
	r, err := m.Resource(resource)
	if err != nil {
		return err
	}
	a, err := m.Activity(activity)
	if err != nil {
		return err
	}
	if r.IsContainer() {
		return fmt.Errorf("%w: %q is a container and cannot be allocated", ErrMissingBudget, resource)
	}
	key := AllocationKey{Resource: resource, Activity: activity}
	if _, ok := m.allocations[key]; ok {
		return fmt.Errorf("%w: %q -> %q", ErrDuplicateLink, resource, activity)
	}

	for _, b := range r.BudgetNames {
		if err := m.AddCost(activity, b); err != nil {
			return err
		}
	}
	a.CostLabel = r.BudgetLabel

	m.allocations[key] = seedAllocation(resource, activity)
	m.allocationOrder = append(m.allocationOrder, key)
	return nil
}

// AddConstraint relates the allocation a1From->a1To to a2From->a2To.
// Both allocations must exist.
func (m *Model) AddConstraint(a1From, a1To, a2From, a2To string, t ConstraintType) error {
	if !t.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidConstraintType, t)
	}
	start, err := m.Allocation(a1From, a1To)
	if err != nil {
		return err
	}
	end, err := m.Allocation(a2From, a2To)
	if err != nil {
		return err
	}
	m.constraints = append(m.constraints, &ConstraintLink{
		Start: start.Key(),
		End:   end.Key(),
		Type:  t,
	})
	return nil
}

// =============================================================================
// Snapshots
// =============================================================================

// Clone returns a deep copy of the model.
func (m *Model) Clone() *Model {
	out := New()
	for _, name := range m.resourceOrder {
		r := *m.resources[name]
		r.BudgetNames = slices.Clone(r.BudgetNames)
		r.Budgets = slices.Clone(r.Budgets)
		out.resources[name] = &r
		out.resourceInstances[name] = m.resourceInstances[name].clone()
	}
	out.resourceOrder = slices.Clone(m.resourceOrder)

	for _, name := range m.activityOrder {
		a := *m.activities[name]
		a.CostNames = slices.Clone(a.CostNames)
		a.Costs = slices.Clone(a.Costs)
		a.Rewards = slices.Clone(a.Rewards)
		out.activities[name] = &a
		out.activityInstances[name] = m.activityInstances[name].clone()
	}
	out.activityOrder = slices.Clone(m.activityOrder)

	for _, k := range m.containsOrder {
		l := *m.contains[k]
		l.Rows = slices.Clone(l.Rows)
		out.contains[k] = &l
	}
	out.containsOrder = slices.Clone(m.containsOrder)

	for _, k := range m.allocationOrder {
		l := *m.allocations[k]
		l.Rows = slices.Clone(l.Rows)
		out.allocations[k] = &l
	}
	out.allocationOrder = slices.Clone(m.allocationOrder)

	for _, c := range m.constraints {
		cc := *c
		out.constraints = append(out.constraints, &cc)
	}
	return out
}

// Restore replaces the contents of m with those of snapshot. The snapshot
// must not be used afterwards.
func (m *Model) Restore(snapshot *Model) {
	*m = *snapshot
}

// dedupe drops empty and repeated names, keeping first occurrences.
func dedupe(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n != "" && !slices.Contains(out, n) {
			out = append(out, n)
		}
	}
	return out
}
