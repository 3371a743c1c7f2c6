// Package model holds the in-memory representation of a DM3K allocation
// problem: resource and activity classes, their instance tables, and the
// contains, allocation and constraint links between them.
//
// # Overview
//
// A [Model] is an explicit value owned by its caller. Nothing in this package
// keeps global state, so several models can coexist (the HTTP server builds a
// fresh one per request, the CLI builds one per file).
//
// Classes are created once with [Model.AddResource] or [Model.AddActivity]
// and are indexed by name. Class names are unique across resources and
// activities combined; a second class with the same name fails with
// [ErrDuplicateName] and leaves the model unchanged.
//
// Every class gets an instance table seeded with one synthetic row:
//
//	<Class>_Resource_instance_0   budget 1 for each budget name
//	<Class>_Activity_instance_0   reward 1, cost 1 for each cost name
//
// Every contains and allocation link is seeded with a single {ALL, ALL} row.
// [InstanceRef] models the ALL sentinel as a variant rather than a magic
// string; it serializes to "ALL" or to the literal instance name.
//
// # Containers
//
// A resource with no attached budget is a container. Containers may take part
// in contains links but never in allocation links: [Model.AddAllocation]
// returns [ErrMissingBudget] for them.
//
// # Lookups
//
// Lookups return an explicit error wrapping [ErrUnknownReference] or
// [ErrUnknownAllocation] instead of a nil value, so a missing name is reported
// at the point of use.
//
// A Model is not safe for concurrent mutation.
package model
