package document

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/dm3k/dm3k/pkg/model"
)

// ErrInvalidDocument is returned by [Validate].
var ErrInvalidDocument = errors.New("invalid document")

var validate = validator.New()

// Validate checks the structure of d and that every class reference
// resolves. All problems are reported in one error wrapping
// [ErrInvalidDocument].
func Validate(d Document) error {
	var problems []string
	if err := validate.Struct(d); err != nil {
		problems = append(problems, formatValidationErrors(err)...)
	}
	problems = append(problems, checkReferences(d)...)
	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalidDocument, strings.Join(problems, "; "))
}

func formatValidationErrors(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}
	out := make([]string, 0, len(verrs))
	for _, e := range verrs {
		field := strings.TrimPrefix(e.Namespace(), "Document.")
		switch e.Tag() {
		case "required":
			out = append(out, field+": field is required")
		case "oneof":
			out = append(out, fmt.Sprintf("%s: must be one of [%s]", field, e.Param()))
		default:
			out = append(out, fmt.Sprintf("%s: validation failed (%s)", field, e.Tag()))
		}
	}
	return out
}

func checkReferences(d Document) []string {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	resources := make(map[string]bool, len(d.ResourceClasses))
	activities := make(map[string]bool, len(d.ActivityClasses))
	for _, rc := range d.ResourceClasses {
		if resources[rc.ClassName] {
			add("duplicate class name %q", rc.ClassName)
		}
		resources[rc.ClassName] = true
	}
	for _, ac := range d.ActivityClasses {
		if resources[ac.ClassName] || activities[ac.ClassName] {
			add("duplicate class name %q", ac.ClassName)
		}
		activities[ac.ClassName] = true
	}

	for _, rc := range d.ResourceClasses {
		for _, c := range rc.ContainsClasses {
			if !resources[c] {
				add("resource %q contains unknown resource %q", rc.ClassName, c)
			}
		}
		for _, a := range rc.CanBeAllocatedToClasses {
			if !activities[a] {
				add("resource %q allocates to unknown activity %q", rc.ClassName, a)
			}
		}
		if len(rc.CanBeAllocatedToClasses) > 0 && len(rc.Budgets) == 0 {
			add("resource %q has allocations but no budget", rc.ClassName)
		}
	}
	for _, ac := range d.ActivityClasses {
		for _, c := range ac.ContainsClasses {
			if !activities[c] {
				add("activity %q contains unknown activity %q", ac.ClassName, c)
			}
		}
	}

	for _, ri := range d.ResourceInstances {
		if !resources[ri.ClassName] {
			add("instances for unknown resource %q", ri.ClassName)
		}
		seen := map[string]bool{}
		for _, row := range ri.InstanceTable {
			if seen[row.InstanceName] {
				add("duplicate instance %q in %q", row.InstanceName, ri.ClassName)
			}
			seen[row.InstanceName] = true
		}
	}
	for _, ai := range d.ActivityInstances {
		if !activities[ai.ClassName] {
			add("instances for unknown activity %q", ai.ClassName)
		}
		seen := map[string]bool{}
		for _, row := range ai.InstanceTable {
			if seen[row.InstanceName] {
				add("duplicate instance %q in %q", row.InstanceName, ai.ClassName)
			}
			seen[row.InstanceName] = true
		}
	}
	for _, ci := range d.ContainsInstances {
		known := resources
		if ci.ParentType == string(model.KindActivity) {
			known = activities
		}
		if !known[ci.ParentClassName] || !known[ci.ChildClassName] {
			add("contains instances for unknown link %q -> %q", ci.ParentClassName, ci.ChildClassName)
		}
	}
	for _, al := range d.AllocationInstances {
		if !resources[al.ResourceClassName] || !activities[al.ActivityClassName] {
			add("allocation instances for unknown link %q -> %q", al.ResourceClassName, al.ActivityClassName)
		}
	}
	for i, c := range d.AllocationConstraints {
		if !model.ConstraintType(c.AllocationConstraintType).Valid() {
			add("allocationConstraints[%d]: unknown type %q", i, c.AllocationConstraintType)
		}
	}
	return problems
}
