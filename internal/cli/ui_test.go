package cli

import (
	"strings"
	"testing"

	"github.com/dm3k/dm3k/pkg/layout"
)

func TestPlural(t *testing.T) {
	if got := plural(1, "row", "rows"); got != "1 row" {
		t.Errorf("plural(1) = %q", got)
	}
	if got := plural(0, "row", "rows"); got != "0 rows" {
		t.Errorf("plural(0) = %q", got)
	}
}

func TestLayoutTable(t *testing.T) {
	l := &layout.Layout{
		Resources: []layout.ResourceInstance{
			{Label: "Backpack_0", Class: "Backpack", Budget: 3, BudgetUnit: "space", Percentage: 30},
			{Label: "Backpack_1", Class: "Backpack", Budget: 7, BudgetUnit: "space", Percentage: 70},
		},
		Activities: []layout.ActivityInstance{
			{Label: "Item_0", Selected: true},
			{Label: "Item_1"},
		},
		Cells: []layout.Cell{
			{Row: 0, Col: 0, BudgetUsed: 2},
			{Row: 0, Col: 1, BudgetUsed: 1},
			{Row: 1, Col: 1, BudgetUsed: 4},
		},
	}

	rows := map[string][]string{}
	for _, line := range strings.Split(layoutTable(l), "\n") {
		var cells []string
		for _, f := range strings.Split(line, "│") {
			if f = strings.TrimSpace(f); f != "" {
				cells = append(cells, f)
			}
		}
		if len(cells) == 5 {
			rows[cells[0]] = cells
		}
	}

	small, large := rows["Backpack_0"], rows["Backpack_1"]
	if small == nil || large == nil {
		t.Fatalf("rows missing from table: %v", rows)
	}
	if small[2] != "3 space" || small[4] != "30.0%" {
		t.Errorf("first row = %v", small)
	}
	// Only the selected column counts towards the used budget.
	if small[3] != "2" || large[3] != "0" {
		t.Errorf("used = %q, %q; want 2, 0", small[3], large[3])
	}
}
