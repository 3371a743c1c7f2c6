package model

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestModelInvariants checks properties that hold for any sequence of class
// creations.
func TestModelInvariants(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50

	properties := gopter.NewProperties(parameters)

	properties.Property("class names stay unique", prop.ForAll(
		func(names []string, kinds []bool) bool {
			m := New()
			for i, name := range names {
				isRes := i < len(kinds) && kinds[i]
				before := m.ResourceCount() + m.ActivityCount()
				existed := m.NameExists(name)

				var err error
				if isRes {
					err = m.AddResource("T", name, nil, 0, 0)
				} else {
					err = m.AddActivity("T", name, nil, 0, 0)
				}

				after := m.ResourceCount() + m.ActivityCount()
				if existed || name == "" {
					if err == nil || after != before {
						return false
					}
				} else if err != nil || after != before+1 {
					return false
				}
			}

			seen := map[string]bool{}
			res, _ := m.NamesOfKind(KindResource)
			act, _ := m.NamesOfKind(KindActivity)
			for _, n := range append(res, act...) {
				if seen[n] {
					return false
				}
				seen[n] = true
			}
			return true
		},
		gen.SliceOf(gen.OneConstOf("a", "b", "c", "d", "")),
		gen.SliceOf(gen.Bool()),
	))

	properties.Property("allocation never targets a container", prop.ForAll(
		func(budgets []string) bool {
			m := New()
			_ = m.AddResource("T", "r", budgets, 0, 0)
			for _, b := range budgets {
				if b != "" {
					_ = m.AddBudget("r", b)
				}
			}
			_ = m.AddActivity("T", "a", nil, 0, 0)
			err := m.AddAllocation("r", "a")

			r, _ := m.Resource("r")
			if r.IsContainer() {
				return err != nil && len(m.Allocations()) == 0
			}
			return err == nil && len(m.Allocations()) == 1
		},
		gen.SliceOf(gen.AlphaString()),
	))

	properties.TestingRun(t)
}
