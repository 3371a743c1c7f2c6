package model

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
)

// AllName is the wire form of the ALL sentinel.
const AllName = "ALL"

// InstanceRef refers to either every instance of a class or one named
// instance. The zero value is not a valid reference; use [All] or [Specific].
type InstanceRef struct {
	all  bool
	name string
}

// All refers to every instance of a class.
var All = InstanceRef{all: true}

// Specific refers to the instance with the given name.
func Specific(name string) InstanceRef {
	return InstanceRef{name: name}
}

// ParseRef maps a wire value onto a reference: "ALL" becomes [All], anything
// else a [Specific] reference.
func ParseRef(s string) InstanceRef {
	if s == AllName {
		return All
	}
	return Specific(s)
}

// IsAll reports whether r refers to every instance.
func (r InstanceRef) IsAll() bool { return r.all }

// Name returns the instance name for a specific reference and "" for [All].
func (r InstanceRef) Name() string { return r.name }

// Matches reports whether r selects the named instance.
func (r InstanceRef) Matches(instance string) bool {
	return r.all || r.name == instance
}

// String returns the wire form.
func (r InstanceRef) String() string {
	if r.all {
		return AllName
	}
	return r.name
}

func (r InstanceRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

func (r *InstanceRef) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("instance reference: %w", err)
	}
	*r = ParseRef(s)
	return nil
}

func (r InstanceRef) MarshalYAML() (any, error) {
	return r.String(), nil
}

func (r *InstanceRef) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return fmt.Errorf("instance reference: %w", err)
	}
	*r = ParseRef(s)
	return nil
}

// =============================================================================
// Resource instance tables
// =============================================================================

// ResourceRow is one concrete resource instance.
type ResourceRow struct {
	Name   string
	Budget map[string]float64
}

// ResourceInstances is the instance table of one resource class.
type ResourceInstances struct {
	ClassName string
	Rows      []ResourceRow
}

// DefaultResourceInstanceName returns the synthetic first row name of a class.
func DefaultResourceInstanceName(class string) string {
	return class + "_Resource_instance_0"
}

func newResourceInstances(class string, budgetNames []string) *ResourceInstances {
	budget := make(map[string]float64, len(budgetNames))
	for _, b := range budgetNames {
		budget[b] = 1
	}
	return &ResourceInstances{
		ClassName: class,
		Rows:      []ResourceRow{{Name: DefaultResourceInstanceName(class), Budget: budget}},
	}
}

// Clear removes every row.
func (t *ResourceInstances) Clear() { t.Rows = nil }

// AddRow appends a row. Instance names are unique within the table.
func (t *ResourceInstances) AddRow(name string, budget map[string]float64) error {
	if name == "" {
		return fmt.Errorf("%w: empty instance name in %q", ErrInvalidName, t.ClassName)
	}
	if t.Row(name) != nil {
		return fmt.Errorf("%w: instance %q in %q", ErrDuplicateName, name, t.ClassName)
	}
	t.Rows = append(t.Rows, ResourceRow{Name: name, Budget: cloneAmounts(budget)})
	return nil
}

// Row returns the named row or nil.
func (t *ResourceInstances) Row(name string) *ResourceRow {
	for i := range t.Rows {
		if t.Rows[i].Name == name {
			return &t.Rows[i]
		}
	}
	return nil
}

// Names returns the instance names in row order.
func (t *ResourceInstances) Names() []string {
	names := make([]string, len(t.Rows))
	for i, r := range t.Rows {
		names[i] = r.Name
	}
	return names
}

func (t *ResourceInstances) clone() *ResourceInstances {
	out := &ResourceInstances{ClassName: t.ClassName, Rows: make([]ResourceRow, len(t.Rows))}
	for i, r := range t.Rows {
		out.Rows[i] = ResourceRow{Name: r.Name, Budget: cloneAmounts(r.Budget)}
	}
	return out
}

// =============================================================================
// Activity instance tables
// =============================================================================

// ActivityRow is one concrete activity instance.
type ActivityRow struct {
	Name   string
	Reward float64
	Cost   map[string]float64
}

// ActivityInstances is the instance table of one activity class.
type ActivityInstances struct {
	ClassName string
	Rows      []ActivityRow
}

// DefaultActivityInstanceName returns the synthetic first row name of a class.
func DefaultActivityInstanceName(class string) string {
	return class + "_Activity_instance_0"
}

func newActivityInstances(class string, costNames []string) *ActivityInstances {
	cost := make(map[string]float64, len(costNames))
	for _, c := range costNames {
		cost[c] = 1
	}
	return &ActivityInstances{
		ClassName: class,
		Rows:      []ActivityRow{{Name: DefaultActivityInstanceName(class), Reward: 1, Cost: cost}},
	}
}

// Clear removes every row.
func (t *ActivityInstances) Clear() { t.Rows = nil }

// AddRow appends a row. Instance names are unique within the table.
func (t *ActivityInstances) AddRow(name string, reward float64, cost map[string]float64) error {
	if name == "" {
		return fmt.Errorf("%w: empty instance name in %q", ErrInvalidName, t.ClassName)
	}
	if t.Row(name) != nil {
		return fmt.Errorf("%w: instance %q in %q", ErrDuplicateName, name, t.ClassName)
	}
	t.Rows = append(t.Rows, ActivityRow{Name: name, Reward: reward, Cost: cloneAmounts(cost)})
	return nil
}

// Row returns the named row or nil.
func (t *ActivityInstances) Row(name string) *ActivityRow {
	for i := range t.Rows {
		if t.Rows[i].Name == name {
			return &t.Rows[i]
		}
	}
	return nil
}

// Names returns the instance names in row order.
func (t *ActivityInstances) Names() []string {
	names := make([]string, len(t.Rows))
	for i, r := range t.Rows {
		names[i] = r.Name
	}
	return names
}

// ensureCost adds a unit cost entry to rows that lack the given cost name.
func (t *ActivityInstances) ensureCost(name string) {
	for i := range t.Rows {
		if t.Rows[i].Cost == nil {
			t.Rows[i].Cost = make(map[string]float64)
		}
		if _, ok := t.Rows[i].Cost[name]; !ok {
			t.Rows[i].Cost[name] = 1
		}
	}
}

func (t *ActivityInstances) clone() *ActivityInstances {
	out := &ActivityInstances{ClassName: t.ClassName, Rows: make([]ActivityRow, len(t.Rows))}
	for i, r := range t.Rows {
		out.Rows[i] = ActivityRow{Name: r.Name, Reward: r.Reward, Cost: cloneAmounts(r.Cost)}
	}
	return out
}

// SortedKeys returns the keys of an amount map in lexical order.
func SortedKeys(m map[string]float64) []string {
	return slices.Sorted(maps.Keys(m))
}

func cloneAmounts(m map[string]float64) map[string]float64 {
	if m == nil {
		return map[string]float64{}
	}
	return maps.Clone(m)
}
