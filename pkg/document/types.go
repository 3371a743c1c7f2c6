package document

import "github.com/dm3k/dm3k/pkg/model"

// Document is the canonical problem description.
type Document struct {
	ResourceClasses       []ResourceClass        `json:"resourceClasses" yaml:"resourceClasses" validate:"dive"`
	ActivityClasses       []ActivityClass        `json:"activityClasses" yaml:"activityClasses" validate:"dive"`
	ResourceInstances     []ResourceInstances    `json:"resourceInstances" yaml:"resourceInstances" validate:"dive"`
	ActivityInstances     []ActivityInstances    `json:"activityInstances" yaml:"activityInstances" validate:"dive"`
	ContainsInstances     []ContainsInstances    `json:"containsInstances" yaml:"containsInstances" validate:"dive"`
	AllocationInstances   []AllocationInstances  `json:"allocationInstances" yaml:"allocationInstances" validate:"dive"`
	AllocationConstraints []AllocationConstraint `json:"allocationConstraints" yaml:"allocationConstraints" validate:"dive"`
}

// ResourceClass describes one resource class. LocX and LocY are the diagram
// position; when either is absent the importer picks a default.
type ResourceClass struct {
	ClassName               string   `json:"className" yaml:"className" validate:"required"`
	TypeName                string   `json:"typeName" yaml:"typeName"`
	Budgets                 []string `json:"budgets" yaml:"budgets" validate:"dive,required"`
	ContainsClasses         []string `json:"containsClasses" yaml:"containsClasses" validate:"dive,required"`
	CanBeAllocatedToClasses []string `json:"canBeAllocatedToClasses" yaml:"canBeAllocatedToClasses" validate:"dive,required"`
	LocX                    *float64 `json:"locX,omitempty" yaml:"locX,omitempty"`
	LocY                    *float64 `json:"locY,omitempty" yaml:"locY,omitempty"`
}

// ActivityClass describes one activity class. AllocatedWhen is always
// emitted empty.
type ActivityClass struct {
	ClassName       string         `json:"className" yaml:"className" validate:"required"`
	TypeName        string         `json:"typeName" yaml:"typeName"`
	Rewards         []string       `json:"rewards" yaml:"rewards" validate:"dive,required"`
	Costs           []string       `json:"costs" yaml:"costs" validate:"dive,required"`
	ContainsClasses []string       `json:"containsClasses" yaml:"containsClasses" validate:"dive,required"`
	AllocatedWhen   map[string]any `json:"allocatedWhen" yaml:"allocatedWhen"`
	LocX            *float64       `json:"locX,omitempty" yaml:"locX,omitempty"`
	LocY            *float64       `json:"locY,omitempty" yaml:"locY,omitempty"`
}

// ResourceInstances is the instance table of one resource class.
type ResourceInstances struct {
	ClassName     string        `json:"className" yaml:"className" validate:"required"`
	InstanceTable []ResourceRow `json:"instanceTable" yaml:"instanceTable" validate:"dive"`
}

type ResourceRow struct {
	InstanceName string             `json:"instanceName" yaml:"instanceName" validate:"required"`
	Budget       map[string]float64 `json:"budget" yaml:"budget"`
}

// ActivityInstances is the instance table of one activity class.
type ActivityInstances struct {
	ClassName     string        `json:"className" yaml:"className" validate:"required"`
	InstanceTable []ActivityRow `json:"instanceTable" yaml:"instanceTable" validate:"dive"`
}

type ActivityRow struct {
	InstanceName string             `json:"instanceName" yaml:"instanceName" validate:"required"`
	Cost         map[string]float64 `json:"cost" yaml:"cost"`
	Reward       float64            `json:"reward" yaml:"reward"`
}

// ContainsInstances refines one contains link. ParentType is "resource" or
// "activity".
type ContainsInstances struct {
	ParentClassName string        `json:"parentClassName" yaml:"parentClassName" validate:"required"`
	ChildClassName  string        `json:"childClassName" yaml:"childClassName" validate:"required"`
	ParentType      string        `json:"parentType" yaml:"parentType" validate:"oneof=resource activity"`
	InstanceTable   []ContainsRow `json:"instanceTable" yaml:"instanceTable"`
}

type ContainsRow struct {
	ParentInstanceName model.InstanceRef `json:"parentInstanceName" yaml:"parentInstanceName"`
	ChildInstanceName  model.InstanceRef `json:"childInstanceName" yaml:"childInstanceName"`
}

// AllocationInstances refines one allocation link.
type AllocationInstances struct {
	ResourceClassName string          `json:"resourceClassName" yaml:"resourceClassName" validate:"required"`
	ActivityClassName string          `json:"activityClassName" yaml:"activityClassName" validate:"required"`
	InstanceTable     []AllocationRow `json:"instanceTable" yaml:"instanceTable"`
}

type AllocationRow struct {
	ResourceInstanceName model.InstanceRef `json:"resourceInstanceName" yaml:"resourceInstanceName"`
	ActivityInstanceName model.InstanceRef `json:"activityInstanceName" yaml:"activityInstanceName"`
}

// AllocationConstraint relates two allocations.
type AllocationConstraint struct {
	AllocationStart          AllocationRef `json:"allocationStart" yaml:"allocationStart"`
	AllocationEnd            AllocationRef `json:"allocationEnd" yaml:"allocationEnd"`
	AllocationConstraintType string        `json:"allocationConstraintType" yaml:"allocationConstraintType" validate:"required"`
}

// AllocationRef names an allocation by its class endpoints.
type AllocationRef struct {
	ResourceClass string `json:"resourceClass" yaml:"resourceClass" validate:"required"`
	ActivityClass string `json:"activityClass" yaml:"activityClass" validate:"required"`
}

// Wrapper is the envelope written by the export command.
type Wrapper struct {
	DatasetName string `json:"datasetName" yaml:"datasetName"`
	Files       []File `json:"files" yaml:"files"`
}

type File struct {
	FileName     string   `json:"fileName" yaml:"fileName"`
	FileContents Document `json:"fileContents" yaml:"fileContents"`
}
