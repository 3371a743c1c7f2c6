package document

import (
	"errors"
	"strings"
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(d *Document)
		wantErr string
	}{
		{name: "valid", mutate: func(*Document) {}},
		{
			name:    "missing class name",
			mutate:  func(d *Document) { d.ResourceClasses[0].ClassName = "" },
			wantErr: "ResourceClasses[0].ClassName: field is required",
		},
		{
			name: "bad parent type",
			mutate: func(d *Document) {
				d.ContainsInstances = []ContainsInstances{{ParentClassName: "Backpack", ChildClassName: "Backpack", ParentType: "thing"}}
			},
			wantErr: "must be one of [resource activity]",
		},
		{
			name: "duplicate class",
			mutate: func(d *Document) {
				d.ActivityClasses = append(d.ActivityClasses, ActivityClass{ClassName: "Backpack"})
			},
			wantErr: `duplicate class name "Backpack"`,
		},
		{
			name:    "unknown allocation target",
			mutate:  func(d *Document) { d.ResourceClasses[0].CanBeAllocatedToClasses = []string{"Ghost"} },
			wantErr: `allocates to unknown activity "Ghost"`,
		},
		{
			name:    "allocation from container",
			mutate:  func(d *Document) { d.ResourceClasses[0].Budgets = nil },
			wantErr: "has allocations but no budget",
		},
		{
			name: "duplicate instance",
			mutate: func(d *Document) {
				rows := d.ResourceInstances[0].InstanceTable
				d.ResourceInstances[0].InstanceTable = append(rows, rows[0])
			},
			wantErr: "duplicate instance",
		},
		{
			name: "unknown constraint type",
			mutate: func(d *Document) {
				d.AllocationConstraints = []AllocationConstraint{{
					AllocationStart:          AllocationRef{ResourceClass: "Backpack", ActivityClass: "Textbook"},
					AllocationEnd:            AllocationRef{ResourceClass: "Backpack", ActivityClass: "Textbook"},
					AllocationConstraintType: "MAYBE",
				}}
			},
			wantErr: `unknown type "MAYBE"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Export(backpackModel(t))
			tt.mutate(&d)
			err := Validate(d)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
				return
			}
			if !errors.Is(err, ErrInvalidDocument) {
				t.Fatalf("err = %v, want ErrInvalidDocument", err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}
