package model

import "slices"

// ConstraintType names the relation between two allocations.
type ConstraintType string

const (
	ConstraintContainedIfThen ConstraintType = "Contained IF-THEN"
	ConstraintIfNot           ConstraintType = "IF-NOT"
	ConstraintIfOnly          ConstraintType = "IF-ONLY"
)

// ConstraintTypes lists the accepted constraint types in display order.
var ConstraintTypes = []ConstraintType{
	ConstraintContainedIfThen,
	ConstraintIfNot,
	ConstraintIfOnly,
}

// Valid reports whether t is one of [ConstraintTypes].
func (t ConstraintType) Valid() bool {
	return slices.Contains(ConstraintTypes, t)
}

// ContainsRow maps parent instances onto child instances.
type ContainsRow struct {
	Parent InstanceRef
	Child  InstanceRef
}

// ContainsLink states that a parent class contains a child class of the same
// kind.
type ContainsLink struct {
	Parent     string
	Child      string
	ParentKind Kind
	Rows       []ContainsRow
}

// Clear removes every row.
func (l *ContainsLink) Clear() { l.Rows = nil }

// AddRow appends a row.
func (l *ContainsLink) AddRow(parent, child InstanceRef) {
	l.Rows = append(l.Rows, ContainsRow{Parent: parent, Child: child})
}

// IsAllToAll reports whether the first row is the {ALL, ALL} default.
func (l *ContainsLink) IsAllToAll() bool {
	return len(l.Rows) > 0 && l.Rows[0].Parent.IsAll() && l.Rows[0].Child.IsAll()
}

// AllocationRow maps resource instances onto activity instances.
type AllocationRow struct {
	Resource InstanceRef
	Activity InstanceRef
}

// AllocationLink states that a resource class can be allocated to an
// activity class.
type AllocationLink struct {
	Resource string
	Activity string
	Rows     []AllocationRow
}

// Clear removes every row.
func (l *AllocationLink) Clear() { l.Rows = nil }

// AddRow appends a row.
func (l *AllocationLink) AddRow(resource, activity InstanceRef) {
	l.Rows = append(l.Rows, AllocationRow{Resource: resource, Activity: activity})
}

// Key returns the endpoint pair identifying the link.
func (l *AllocationLink) Key() AllocationKey {
	return AllocationKey{Resource: l.Resource, Activity: l.Activity}
}

// AllocationKey identifies an allocation link by its endpoint class names.
type AllocationKey struct {
	Resource string
	Activity string
}

// ConstraintLink relates two allocation links.
type ConstraintLink struct {
	Start AllocationKey
	End   AllocationKey
	Type  ConstraintType
}

type containsKey struct {
	parent, child string
}

func seedContains(parent, child string, kind Kind) *ContainsLink {
	l := &ContainsLink{Parent: parent, Child: child, ParentKind: kind}
	l.AddRow(All, All)
	return l
}

func seedAllocation(resource, activity string) *AllocationLink {
	l := &AllocationLink{Resource: resource, Activity: activity}
	l.AddRow(All, All)
	return l
}
