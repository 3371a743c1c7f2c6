// Package adapter turns diagram editing intents into compound model
// operations.
//
// An [Adapter] owns a [model.Model] and a [Presenter]. Each operation first
// mutates the model and then asks the presenter to show the new boxes and
// edges. If either step fails the model is restored from a snapshot taken
// before the operation and every element shown so far is hidden again, so a
// class or link exists in the model exactly when it is visible.
//
// Failures are reported as a [Result] rather than an error so that a caller
// can display one message per user action:
//
//	a := adapter.New(model.New(), adapter.NopPresenter{}, logger)
//	res := a.AddCompleteResource("Container", "Backpack", []string{"space"}, nil)
//	if !res.Success {
//	    fmt.Println(res.Details)
//	}
//
// The adapter also builds the payloads of the selection and instance-edit
// events a diagram surface raises; see [SelectionPayload] and
// [Adapter.InstanceEditPayload].
package adapter
