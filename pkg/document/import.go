package document

import (
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/dm3k/dm3k/pkg/adapter"
	"github.com/dm3k/dm3k/pkg/model"
)

var (
	// ErrImport wraps every failure of [Import].
	ErrImport = errors.New("import failed")

	// ErrEmptyWrapper is returned by [Unwrap] for a wrapper without files.
	ErrEmptyWrapper = errors.New("wrapper contains no files")
)

type importConfig struct {
	presenter adapter.Presenter
	logger    *log.Logger
}

// ImportOption configures [Import].
type ImportOption func(*importConfig)

// WithPresenter shows the rebuilt model on p.
func WithPresenter(p adapter.Presenter) ImportOption {
	return func(c *importConfig) { c.presenter = p }
}

// WithLogger logs import progress to l.
func WithLogger(l *log.Logger) ImportOption {
	return func(c *importConfig) { c.logger = l }
}

// Import clears m and rebuilds it from d.
//
// Classes are created before instance tables, and instance tables before
// constraints. Resources come first since activities are created by
// allocating them to resources. An activity that no resource allocates to is
// created as a container of its first child.
func Import(m *model.Model, d Document, opts ...ImportOption) error {
	cfg := importConfig{presenter: adapter.NopPresenter{}}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	m.Clear()
	a := adapter.New(m, cfg.presenter, cfg.logger)

	steps := []struct {
		name string
		run  func(*adapter.Adapter, Document) error
	}{
		{"resources", importResources},
		{"activities", importActivities},
		{"resource containment", importResourceContains},
		{"activity containment", importActivityContains},
		{"instances", importInstances},
		{"constraints", importConstraints},
	}
	for _, s := range steps {
		if err := s.run(a, d); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrImport, s.name, err)
		}
		cfg.logger.Debug("imported", "step", s.name)
	}

	cfg.logger.Info("imported document",
		"resources", m.ResourceCount(),
		"activities", m.ActivityCount(),
		"allocations", len(m.Allocations()),
		"constraints", len(m.Constraints()))
	return nil
}

func check(r adapter.Result) error {
	if r.Success {
		return nil
	}
	if r.Err != nil {
		return r.Err
	}
	return errors.New(r.Details)
}

func position(x, y *float64) *adapter.Point {
	if x == nil || y == nil {
		return nil
	}
	return &adapter.Point{X: *x, Y: *y}
}

func firstOrEmpty(s []string) string {
	if len(s) == 0 {
		return ""
	}
	return s[0]
}

func importResources(a *adapter.Adapter, d Document) error {
	for _, rc := range d.ResourceClasses {
		res := a.AddCompleteResource(rc.TypeName, rc.ClassName, rc.Budgets, position(rc.LocX, rc.LocY))
		if err := check(res); err != nil {
			return fmt.Errorf("resource %q: %w", rc.ClassName, err)
		}
	}
	return nil
}

func importActivities(a *adapter.Adapter, d Document) error {
	for _, ac := range d.ActivityClasses {
		costIndex := 0
		for _, rc := range d.ResourceClasses {
			if !slices.Contains(rc.CanBeAllocatedToClasses, ac.ClassName) {
				continue
			}
			res := a.AddCompleteActivity(ac.TypeName, ac.ClassName, rc.ClassName,
				firstOrEmpty(ac.Rewards), costIndex, position(ac.LocX, ac.LocY))
			if err := check(res); err != nil {
				return fmt.Errorf("activity %q on %q: %w", ac.ClassName, rc.ClassName, err)
			}
			costIndex++
		}
		if err := attachRewards(a, ac); err != nil {
			return err
		}
	}
	return nil
}

// attachRewards adds the rewards after the first, which the creating
// operation already attached.
func attachRewards(a *adapter.Adapter, ac ActivityClass) error {
	if len(ac.Rewards) < 2 || !a.IsActivity(ac.ClassName) {
		return nil
	}
	if err := check(a.AddRewards(ac.ClassName, ac.Rewards[1:])); err != nil {
		return fmt.Errorf("activity %q rewards: %w", ac.ClassName, err)
	}
	return nil
}

func importResourceContains(a *adapter.Adapter, d Document) error {
	for _, rc := range d.ResourceClasses {
		for _, child := range rc.ContainsClasses {
			if err := check(a.AddContains(rc.ClassName, child)); err != nil {
				return fmt.Errorf("%q contains %q: %w", rc.ClassName, child, err)
			}
		}
	}
	return nil
}

// importActivityContains links activity containers. A container that does
// not exist yet is synthesized from its first child. Containers whose
// children do not all exist yet are retried after the others, so nested
// containers may appear in any order.
func importActivityContains(a *adapter.Adapter, d Document) error {
	var pending []ActivityClass
	for _, ac := range d.ActivityClasses {
		if len(ac.ContainsClasses) > 0 {
			pending = append(pending, ac)
		}
	}

	for len(pending) > 0 {
		var next []ActivityClass
		for _, ac := range pending {
			if !allExist(a.Model(), ac.ContainsClasses) {
				next = append(next, ac)
				continue
			}
			if err := linkActivityContainer(a, ac); err != nil {
				return err
			}
		}
		if len(next) == len(pending) {
			return fmt.Errorf("%w: activity %q contains %v", model.ErrUnknownReference,
				next[0].ClassName, next[0].ContainsClasses)
		}
		pending = next
	}
	return nil
}

func allExist(m *model.Model, names []string) bool {
	for _, n := range names {
		if !m.NameExists(n) {
			return false
		}
	}
	return true
}

func linkActivityContainer(a *adapter.Adapter, ac ActivityClass) error {
	children := ac.ContainsClasses
	if !a.IsActivity(ac.ClassName) {
		res := a.AddNewActContains(ac.TypeName, ac.ClassName, children[0],
			firstOrEmpty(ac.Rewards), position(ac.LocX, ac.LocY))
		if err := check(res); err != nil {
			return fmt.Errorf("%q contains %q: %w", ac.ClassName, children[0], err)
		}
		if err := attachRewards(a, ac); err != nil {
			return err
		}
		children = children[1:]
	}
	for _, child := range children {
		if err := check(a.AddContains(ac.ClassName, child)); err != nil {
			return fmt.Errorf("%q contains %q: %w", ac.ClassName, child, err)
		}
	}
	return nil
}

func importInstances(a *adapter.Adapter, d Document) error {
	m := a.Model()
	for _, ri := range d.ResourceInstances {
		t, err := m.ResourceInstances(ri.ClassName)
		if err != nil {
			return err
		}
		t.Clear()
		for _, row := range ri.InstanceTable {
			if err := t.AddRow(row.InstanceName, row.Budget); err != nil {
				return fmt.Errorf("resource %q: %w", ri.ClassName, err)
			}
		}
	}
	for _, ai := range d.ActivityInstances {
		t, err := m.ActivityInstances(ai.ClassName)
		if err != nil {
			return err
		}
		t.Clear()
		for _, row := range ai.InstanceTable {
			if err := t.AddRow(row.InstanceName, row.Reward, row.Cost); err != nil {
				return fmt.Errorf("activity %q: %w", ai.ClassName, err)
			}
		}
	}
	for _, al := range d.AllocationInstances {
		l, err := m.Allocation(al.ResourceClassName, al.ActivityClassName)
		if err != nil {
			return err
		}
		l.Clear()
		for _, row := range al.InstanceTable {
			l.AddRow(row.ResourceInstanceName, row.ActivityInstanceName)
		}
	}
	for _, ci := range d.ContainsInstances {
		l, err := m.Contains(ci.ParentClassName, ci.ChildClassName)
		if err != nil {
			return err
		}
		l.Clear()
		for _, row := range ci.InstanceTable {
			l.AddRow(row.ParentInstanceName, row.ChildInstanceName)
		}
	}
	return nil
}

func importConstraints(a *adapter.Adapter, d Document) error {
	for _, c := range d.AllocationConstraints {
		res := a.AddConstraint(
			c.AllocationStart.ResourceClass, c.AllocationStart.ActivityClass,
			c.AllocationEnd.ResourceClass, c.AllocationEnd.ActivityClass,
			model.ConstraintType(c.AllocationConstraintType))
		if err := check(res); err != nil {
			return err
		}
	}
	return nil
}
