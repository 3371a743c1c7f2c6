package layout

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

var (
	// ErrLayout wraps every failure of [Compute].
	ErrLayout = errors.New("layout failed")

	// ErrCyclicContainment is returned when reward inheritance or container
	// sizing revisits a class or instance already on the containment path.
	ErrCyclicContainment = errors.New("cyclic containment")

	// ErrInvalidTrace is returned by [Trace.Validate].
	ErrInvalidTrace = errors.New("invalid trace")
)

// Trace is the solver's flat allocation record. The four slices are
// parallel: entry i says resource Resource[i] spent BudgetUsed[i] on
// activity Activity[i], and whether it was Selected.
type Trace struct {
	Resource   []string    `json:"resource"`
	Activity   []string    `json:"activity"`
	BudgetUsed [][]float64 `json:"budget_used"`
	Selected   []int       `json:"selected"`
}

// Validate checks that the trace is non-empty and its slices are parallel.
func (t Trace) Validate() error {
	n := len(t.Resource)
	if n == 0 {
		return fmt.Errorf("%w: no entries", ErrInvalidTrace)
	}
	if len(t.Activity) != n || len(t.BudgetUsed) != n || len(t.Selected) != n {
		return fmt.Errorf("%w: lengths differ (resource=%d activity=%d budget_used=%d selected=%d)",
			ErrInvalidTrace, n, len(t.Activity), len(t.BudgetUsed), len(t.Selected))
	}
	return nil
}

// Solution is the solver response envelope.
type Solution struct {
	FullTrace Trace `json:"full_trace"`
}

// ReadSolution decodes a solver response from r.
func ReadSolution(r io.Reader) (Solution, error) {
	var s Solution
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return Solution{}, fmt.Errorf("decode: %w", err)
	}
	return s, nil
}
