// Package document provides the canonical DM3K problem document and the
// conversion between it and a [model.Model].
//
// The [Document] is the wire format shared with the solver and with saved
// files:
//
//	{
//	  "resourceClasses":       [{"className": "Backpack", "budgets": ["space"], ...}],
//	  "activityClasses":       [{"className": "Textbook", "rewards": ["utility"], ...}],
//	  "resourceInstances":     [{"className": "Backpack", "instanceTable": [...]}],
//	  "activityInstances":     [...],
//	  "containsInstances":     [...],
//	  "allocationInstances":   [...],
//	  "allocationConstraints": [...]
//	}
//
// Instance references inside link tables are the literal string "ALL" or an
// instance name, and survive a round trip unchanged.
//
// # Conversion
//
//	doc := document.Export(m)            // Model → Document, m is not touched
//	err := document.Import(m, doc)       // Document → Model, m is cleared first
//
// [Import] rebuilds the model through an [adapter.Adapter], so a presenter
// passed with [WithPresenter] sees the same boxes and edges an interactive
// user would have drawn. Any failure aborts the import with an error
// wrapping [ErrImport]; the model is then partially rebuilt and should be
// discarded.
//
// # Files
//
// Documents are read and written as JSON, or as YAML when the file name ends
// in .yaml or .yml. [ReadAny] also accepts the export [Wrapper]:
//
//	{"datasetName": "", "files": [{"fileName": "", "fileContents": {...}}]}
package document
