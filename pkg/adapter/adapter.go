package adapter

import (
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/dm3k/dm3k/pkg/model"
)

// ErrPresentation wraps errors returned by a [Presenter].
var ErrPresentation = errors.New("presentation failed")

// Default placement, in diagram units.
const (
	DefaultResourceX = 100.0
	RowSpacing       = 120.0
	ActivityOffsetX  = 450.0
	ActContainerDX   = 300.0
	ActContainerDY   = 200.0
	ResContainerDX   = -300.0
	ResContainerDY   = -200.0
)

// Result reports the outcome of one compound operation.
type Result struct {
	Success bool   `json:"success"`
	Details string `json:"details"`
	// Err is the underlying failure, kept for errors.Is checks.
	Err error `json:"-"`
}

func succeeded() Result { return Result{Success: true} }

func failed(prefix string, err error) Result {
	return Result{Details: prefix + err.Error(), Err: err}
}

// Adapter sequences model mutations with presentation.
// It is not safe for concurrent use.
type Adapter struct {
	model     *model.Model
	presenter Presenter
	logger    *log.Logger
}

// New returns an adapter over m. A nil presenter draws nothing and a nil
// logger discards output.
func New(m *model.Model, p Presenter, logger *log.Logger) *Adapter {
	if p == nil {
		p = NopPresenter{}
	}
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Adapter{model: m, presenter: p, logger: logger}
}

// Model returns the model the adapter edits.
func (a *Adapter) Model() *model.Model { return a.model }

// =============================================================================
// Transactions
// =============================================================================

type tx struct {
	presenter Presenter
	shown     []Element
}

func (t *tx) show(e Element) error {
	if err := t.presenter.Show(e); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrPresentation, e.ID(), err)
	}
	t.shown = append(t.shown, e)
	return nil
}

func (t *tx) unwind() {
	for i := len(t.shown) - 1; i >= 0; i-- {
		_ = t.presenter.Hide(t.shown[i])
	}
}

// atomically runs fn against the model. On error the model is restored and
// everything fn showed is hidden.
func (a *Adapter) atomically(op, prefix string, fn func(t *tx) error) Result {
	snap := a.model.Clone()
	t := &tx{presenter: a.presenter}
	if err := fn(t); err != nil {
		a.model.Restore(snap)
		t.unwind()
		a.logger.Debug("operation rolled back", "op", op, "error", err)
		return failed(prefix, err)
	}
	a.logger.Debug("operation applied", "op", op, "elements", len(t.shown))
	return succeeded()
}

// =============================================================================
// Compound operations
// =============================================================================

// AddCompleteResource creates a resource class with one budget per name.
// When at is nil the resource is placed at x=100, y=120×resourceCount.
func (a *Adapter) AddCompleteResource(typeName, name string, budgets []string, at *Point) Result {
	pos := Point{X: DefaultResourceX, Y: RowSpacing * float64(a.model.ResourceCount())}
	if at != nil {
		pos = *at
	}
	return a.atomically("add resource", "Add resource failed: ", func(t *tx) error {
		if err := a.model.AddResource(typeName, name, budgets, pos.X, pos.Y); err != nil {
			return err
		}
		if err := t.show(classElement(model.KindResource, typeName, name, pos)); err != nil {
			return err
		}
		for i, b := range budgets {
			if b == "" {
				continue
			}
			if err := a.model.AddBudget(name, b); err != nil {
				return err
			}
			if err := t.show(attachmentElement(ElementBudget, name, b, i)); err != nil {
				return err
			}
		}
		return nil
	})
}

// AddCompleteActivity allocates an activity to an existing budgeted
// resource, creating the activity first if it does not exist.
//
// The reward is attached unless it is empty or already present. One cost is
// attached per budget of the resource, occupying slots from costIndexStart
// upward. When at is nil a new activity is placed at x=resource.X+450,
// y=120×activityCount.
func (a *Adapter) AddCompleteActivity(typeName, name, resource, reward string, costIndexStart int, at *Point) Result {
	const prefix = "Add activity failed: "
	res, err := a.model.Resource(resource)
	if err != nil {
		return failed(prefix, err)
	}
	if res.IsContainer() {
		return failed(prefix, fmt.Errorf("%w: %q needs a budget before activities can be allocated to it",
			model.ErrMissingBudget, resource))
	}
	pos := Point{X: res.X + ActivityOffsetX, Y: RowSpacing * float64(a.model.ActivityCount())}
	if at != nil {
		pos = *at
	}
	budgetNames := slices.Clone(res.BudgetNames)

	return a.atomically("add activity", prefix, func(t *tx) error {
		if !a.model.IsActivity(name) {
			if err := a.model.AddActivity(typeName, name, budgetNames, pos.X, pos.Y); err != nil {
				return err
			}
			if err := t.show(classElement(model.KindActivity, typeName, name, pos)); err != nil {
				return err
			}
		}
		act, err := a.model.Activity(name)
		if err != nil {
			return err
		}

		if reward != "" {
			if err := a.attachReward(t, name, reward); err != nil {
				return err
			}
		}

		for i, b := range budgetNames {
			attached := slices.Contains(act.Costs, b)
			if err := a.model.AddCost(name, b); err != nil {
				return err
			}
			if attached {
				continue
			}
			if err := t.show(attachmentElement(ElementCost, name, b, costIndexStart+i)); err != nil {
				return err
			}
		}

		if err := a.model.AddAllocation(resource, name); err != nil {
			return err
		}
		return t.show(linkElement(ElementAllocation, resource, name))
	})
}

// AddNewActContains creates a container activity and links it to an
// existing child activity. The container has no costs; reward is attached
// when non-empty. An existing parent is reused. When at is nil a new
// container is placed relative to the child.
func (a *Adapter) AddNewActContains(typeName, parent, child, reward string, at *Point) Result {
	const prefix = "Add contains failed: "
	c, err := a.model.Activity(child)
	if err != nil {
		return failed(prefix, err)
	}
	pos := Point{X: c.X + ActContainerDX, Y: c.Y + ActContainerDY}
	if at != nil {
		pos = *at
	}

	return a.atomically("add activity container", prefix, func(t *tx) error {
		if !a.model.IsActivity(parent) {
			if err := a.model.AddActivity(typeName, parent, nil, pos.X, pos.Y); err != nil {
				return err
			}
			if err := t.show(classElement(model.KindActivity, typeName, parent, pos)); err != nil {
				return err
			}
		}
		if reward != "" {
			if err := a.attachReward(t, parent, reward); err != nil {
				return err
			}
		}
		return a.addContains(t, parent, child)
	})
}

// AddRewards attaches rewards to an existing activity in order, skipping
// the ones already attached.
func (a *Adapter) AddRewards(activity string, rewards []string) Result {
	return a.atomically("add rewards", "Add reward failed: ", func(t *tx) error {
		if _, err := a.model.Activity(activity); err != nil {
			return err
		}
		for _, r := range rewards {
			if err := a.attachReward(t, activity, r); err != nil {
				return err
			}
		}
		return nil
	})
}

// attachReward adds reward to the activity and shows its block at the next
// reward slot. Attached rewards are left alone.
func (a *Adapter) attachReward(t *tx, activity, reward string) error {
	act, err := a.model.Activity(activity)
	if err != nil {
		return err
	}
	if slices.Contains(act.Rewards, reward) {
		return nil
	}
	if err := a.model.AddReward(activity, reward); err != nil {
		return err
	}
	return t.show(attachmentElement(ElementReward, activity, reward, len(act.Rewards)-1))
}

// AddNewResContains creates a container resource without budgets positioned
// relative to an existing child resource and links it to the child. An
// existing parent is reused.
func (a *Adapter) AddNewResContains(typeName, parent, child string) Result {
	const prefix = "Add contains failed: "
	c, err := a.model.Resource(child)
	if err != nil {
		return failed(prefix, err)
	}
	pos := Point{X: c.X + ResContainerDX, Y: c.Y + ResContainerDY}

	return a.atomically("add resource container", prefix, func(t *tx) error {
		if !a.model.IsResource(parent) {
			if err := a.model.AddResource(typeName, parent, nil, pos.X, pos.Y); err != nil {
				return err
			}
			if err := t.show(classElement(model.KindResource, typeName, parent, pos)); err != nil {
				return err
			}
		}
		return a.addContains(t, parent, child)
	})
}

// AddContains links two existing classes of the same kind.
func (a *Adapter) AddContains(parent, child string) Result {
	return a.atomically("add contains", "Add contains failed: ", func(t *tx) error {
		return a.addContains(t, parent, child)
	})
}

func (a *Adapter) addContains(t *tx, parent, child string) error {
	if err := a.model.AddContains(parent, child); err != nil {
		return err
	}
	return t.show(linkElement(ElementContains, parent, child))
}

// AddConstraint relates two existing allocations.
func (a *Adapter) AddConstraint(a1From, a1To, a2From, a2To string, typ model.ConstraintType) Result {
	return a.atomically("add constraint", "Add constraint failed: ", func(t *tx) error {
		if err := a.model.AddConstraint(a1From, a1To, a2From, a2To, typ); err != nil {
			return err
		}
		e := linkElement(ElementConstraint, a1From+"->"+a1To, a2From+"->"+a2To)
		e.TypeName = string(typ)
		return t.show(e)
	})
}

// =============================================================================
// Name resolution
// =============================================================================

// Resource returns the named resource class or an error wrapping
// [model.ErrUnknownReference].
func (a *Adapter) Resource(name string) (*model.ResourceClass, error) {
	return a.model.Resource(name)
}

// Activity returns the named activity class or an error wrapping
// [model.ErrUnknownReference].
func (a *Adapter) Activity(name string) (*model.ActivityClass, error) {
	return a.model.Activity(name)
}

func (a *Adapter) IsResource(name string) bool { return a.model.IsResource(name) }
func (a *Adapter) IsActivity(name string) bool { return a.model.IsActivity(name) }
