// Package layout computes the proportional allocation matrix drawn for a
// solver result.
//
// Rows are resource instances and columns are activity instances. A row's
// height is proportional to the instance's budget and a column's width to
// the activity's cost, reward or reward/cost ratio, chosen by
// [Options.WidthFunc]. Every row is paired with every column; pairs the
// solver did not report get a zero budget vector.
//
// # Labels
//
// Instances are matched through canonical labels of the form
//
//	<lower-case class name>_Resource_instance_<index>
//	<lower-case class name>_Activity_instance_<index>
//
// where index is the row position in the class's instance table. Trace
// entries may use either the label or the instance name.
//
// # Rewards
//
// An activity instance's reward includes the rewards of the container
// instances that hold it, walked up the contains chain. Only contains rows
// naming the instance explicitly take part. A chain that returns to an
// instance already on the path fails with [ErrCyclicContainment].
//
// # Usage
//
//	sol, _ := layout.ReadSolution(r)
//	l, err := layout.Compute(doc, sol.FullTrace, layout.Options{WidthFunc: layout.WidthRatio})
//	for _, c := range l.Cells {
//	    fmt.Println(c.Resource, c.Activity, c.X, c.Y, c.W, c.H)
//	}
//
// Compute is pure: it reads the document and trace and never touches a
// model, so it may be called concurrently.
package layout
