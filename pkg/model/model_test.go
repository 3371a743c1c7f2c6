package model

import (
	"errors"
	"slices"
	"testing"
)

func backpack(t *testing.T) *Model {
	t.Helper()
	m := New()
	if err := m.AddResource("Container", "Backpack", []string{"space"}, 100, 0); err != nil {
		t.Fatalf("AddResource: %v", err)
	}
	if err := m.AddBudget("Backpack", "space"); err != nil {
		t.Fatalf("AddBudget: %v", err)
	}
	if err := m.AddActivity("Item", "Textbook", []string{"space"}, 550, 0); err != nil {
		t.Fatalf("AddActivity: %v", err)
	}
	if err := m.AddReward("Textbook", "utility"); err != nil {
		t.Fatalf("AddReward: %v", err)
	}
	if err := m.AddAllocation("Backpack", "Textbook"); err != nil {
		t.Fatalf("AddAllocation: %v", err)
	}
	return m
}

func TestAddResourceDefaultRow(t *testing.T) {
	m := New()
	if err := m.AddResource("Container", "Backpack", []string{"space", "weight"}, 1, 2); err != nil {
		t.Fatal(err)
	}

	tbl, err := m.ResourceInstances("Backpack")
	if err != nil {
		t.Fatal(err)
	}
	if len(tbl.Rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(tbl.Rows))
	}
	row := tbl.Rows[0]
	if row.Name != "Backpack_Resource_instance_0" {
		t.Errorf("default row name = %q", row.Name)
	}
	for _, b := range []string{"space", "weight"} {
		if row.Budget[b] != 1 {
			t.Errorf("budget[%s] = %v, want 1", b, row.Budget[b])
		}
	}

	r, _ := m.Resource("Backpack")
	if !r.IsContainer() {
		t.Error("resource without attached budget should be a container")
	}
}

func TestAddActivityDefaultRow(t *testing.T) {
	m := New()
	if err := m.AddActivity("Item", "Textbook", []string{"space", "space"}, 0, 0); err != nil {
		t.Fatal(err)
	}
	tbl, _ := m.ActivityInstances("Textbook")
	row := tbl.Rows[0]
	if row.Name != "Textbook_Activity_instance_0" {
		t.Errorf("default row name = %q", row.Name)
	}
	if row.Reward != 1 {
		t.Errorf("reward = %v, want 1", row.Reward)
	}
	if len(row.Cost) != 1 || row.Cost["space"] != 1 {
		t.Errorf("cost = %v, want map[space:1]", row.Cost)
	}
}

func TestDuplicateNames(t *testing.T) {
	tests := []struct {
		name  string
		setup func(m *Model) error
	}{
		{"resource then resource", func(m *Model) error {
			_ = m.AddResource("T", "X", nil, 0, 0)
			return m.AddResource("T", "X", nil, 0, 0)
		}},
		{"resource then activity", func(m *Model) error {
			_ = m.AddResource("T", "X", nil, 0, 0)
			return m.AddActivity("T", "X", nil, 0, 0)
		}},
		{"activity then resource", func(m *Model) error {
			_ = m.AddActivity("T", "X", nil, 0, 0)
			return m.AddResource("T", "X", nil, 0, 0)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New()
			err := tt.setup(m)
			if !errors.Is(err, ErrDuplicateName) {
				t.Fatalf("err = %v, want ErrDuplicateName", err)
			}
			if got := m.ResourceCount() + m.ActivityCount(); got != 1 {
				t.Errorf("class count = %d, want 1", got)
			}
		})
	}
}

func TestEmptyName(t *testing.T) {
	m := New()
	if err := m.AddResource("T", "", nil, 0, 0); !errors.Is(err, ErrInvalidName) {
		t.Errorf("err = %v, want ErrInvalidName", err)
	}
}

func TestAddAllocation(t *testing.T) {
	m := backpack(t)

	link, err := m.Allocation("Backpack", "Textbook")
	if err != nil {
		t.Fatal(err)
	}
	if len(link.Rows) != 1 || !link.Rows[0].Resource.IsAll() || !link.Rows[0].Activity.IsAll() {
		t.Errorf("rows = %+v, want one ALL/ALL row", link.Rows)
	}

	a, _ := m.Activity("Textbook")
	if a.CostLabel != "space" {
		t.Errorf("cost label = %q, want space", a.CostLabel)
	}
	if !slices.Equal(a.Costs, []string{"space"}) {
		t.Errorf("costs = %v, want [space]", a.Costs)
	}

	if err := m.AddAllocation("Backpack", "Textbook"); !errors.Is(err, ErrDuplicateLink) {
		t.Errorf("second allocation err = %v, want ErrDuplicateLink", err)
	}
}

func TestAddAllocationGating(t *testing.T) {
	m := New()
	_ = m.AddResource("Group", "Shelf", nil, 0, 0)
	_ = m.AddActivity("Item", "Book", nil, 0, 0)

	err := m.AddAllocation("Shelf", "Book")
	if !errors.Is(err, ErrMissingBudget) {
		t.Fatalf("err = %v, want ErrMissingBudget", err)
	}
	if len(m.Allocations()) != 0 {
		t.Error("allocation link created for container resource")
	}
}

func TestAddAllocationExtendsCosts(t *testing.T) {
	m := backpack(t)
	_ = m.AddResource("Container", "Wallet", []string{"cash"}, 0, 0)
	_ = m.AddBudget("Wallet", "cash")

	if err := m.AddAllocation("Wallet", "Textbook"); err != nil {
		t.Fatal(err)
	}
	a, _ := m.Activity("Textbook")
	if !slices.Equal(a.CostNames, []string{"space", "cash"}) {
		t.Errorf("cost names = %v", a.CostNames)
	}
	tbl, _ := m.ActivityInstances("Textbook")
	if tbl.Rows[0].Cost["cash"] != 1 {
		t.Errorf("default row cost = %v, want cash:1", tbl.Rows[0].Cost)
	}
	if got := m.AllocatedTo("Textbook"); !slices.Equal(got, []string{"Backpack", "Wallet"}) {
		t.Errorf("AllocatedTo = %v", got)
	}
}

func TestAddContains(t *testing.T) {
	m := backpack(t)
	_ = m.AddResource("Group", "Closet", nil, 0, 0)
	_ = m.AddActivity("Group", "Course", nil, 0, 0)

	tests := []struct {
		name          string
		parent, child string
		wantErr       error
		wantKind      Kind
	}{
		{"resource in resource", "Closet", "Backpack", nil, KindResource},
		{"activity in activity", "Course", "Textbook", nil, KindActivity},
		{"mixed", "Closet", "Textbook", ErrMixedContainment, ""},
		{"mixed reverse", "Course", "Backpack", ErrMixedContainment, ""},
		{"unknown parent", "Nope", "Backpack", ErrUnknownReference, ""},
		{"unknown child", "Closet", "Nope", ErrUnknownReference, ""},
		{"duplicate", "Closet", "Backpack", ErrDuplicateLink, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := m.AddContains(tt.parent, tt.child)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			l, err := m.Contains(tt.parent, tt.child)
			if err != nil {
				t.Fatal(err)
			}
			if l.ParentKind != tt.wantKind {
				t.Errorf("kind = %q, want %q", l.ParentKind, tt.wantKind)
			}
			if !l.IsAllToAll() || len(l.Rows) != 1 {
				t.Errorf("rows = %+v, want one ALL/ALL row", l.Rows)
			}
		})
	}

	if got := m.ChildrenOf("Closet"); !slices.Equal(got, []string{"Backpack"}) {
		t.Errorf("ChildrenOf = %v", got)
	}
	if got := m.ParentsOf("Textbook"); !slices.Equal(got, []string{"Course"}) {
		t.Errorf("ParentsOf = %v", got)
	}
}

func TestAddConstraint(t *testing.T) {
	m := backpack(t)
	_ = m.AddActivity("Item", "Laptop", nil, 0, 0)
	_ = m.AddAllocation("Backpack", "Laptop")

	if err := m.AddConstraint("Backpack", "Textbook", "Backpack", "Laptop", ConstraintIfNot); err != nil {
		t.Fatal(err)
	}
	cs := m.Constraints()
	if len(cs) != 1 {
		t.Fatalf("constraints = %d, want 1", len(cs))
	}
	if cs[0].End.Activity != "Laptop" || cs[0].Type != ConstraintIfNot {
		t.Errorf("constraint = %+v", cs[0])
	}

	err := m.AddConstraint("Backpack", "Textbook", "Backpack", "Pen", ConstraintIfOnly)
	if !errors.Is(err, ErrUnknownAllocation) {
		t.Errorf("err = %v, want ErrUnknownAllocation", err)
	}
	err = m.AddConstraint("Backpack", "Textbook", "Backpack", "Laptop", "MAYBE")
	if !errors.Is(err, ErrInvalidConstraintType) {
		t.Errorf("err = %v, want ErrInvalidConstraintType", err)
	}
}

func TestQueries(t *testing.T) {
	m := backpack(t)

	names, err := m.NamesOfKind(KindResource)
	if err != nil || !slices.Equal(names, []string{"Backpack"}) {
		t.Errorf("NamesOfKind(resource) = %v, %v", names, err)
	}
	if _, err := m.NamesOfKind("budget"); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("NamesOfKind(budget) err = %v", err)
	}

	if got := m.AllocatedFrom("Backpack"); !slices.Equal(got, []string{"Textbook"}) {
		t.Errorf("AllocatedFrom = %v", got)
	}

	tests := []struct {
		name string
		kind Kind
		att  Attachment
		want []string
	}{
		{"Backpack", KindResource, AttachBudget, []string{"space"}},
		{"Backpack", KindResource, AttachReward, nil},
		{"Textbook", KindActivity, AttachReward, []string{"utility"}},
		{"Textbook", KindActivity, AttachCost, []string{"space"}},
	}
	for _, tt := range tests {
		got, err := m.AttachmentsFor(tt.name, tt.kind, tt.att)
		if err != nil {
			t.Errorf("AttachmentsFor(%s, %s) error: %v", tt.name, tt.att, err)
			continue
		}
		if !slices.Equal(got, tt.want) {
			t.Errorf("AttachmentsFor(%s, %s) = %v, want %v", tt.name, tt.att, got, tt.want)
		}
	}
	if _, err := m.AttachmentsFor("Nope", KindResource, AttachBudget); !errors.Is(err, ErrUnknownReference) {
		t.Errorf("unknown class err = %v", err)
	}

	if !m.NameExists("Textbook") || m.NameExists("Pen") {
		t.Error("NameExists mismatch")
	}
	if k, _ := m.KindOf("Textbook"); k != KindActivity {
		t.Errorf("KindOf = %q", k)
	}
}

func TestClear(t *testing.T) {
	m := backpack(t)
	m.Clear()
	if m.ResourceCount() != 0 || m.ActivityCount() != 0 || len(m.Allocations()) != 0 {
		t.Error("Clear left classes or links behind")
	}
	if err := m.AddResource("Container", "Backpack", nil, 0, 0); err != nil {
		t.Errorf("name should be free after Clear: %v", err)
	}
}

func TestCloneRestore(t *testing.T) {
	m := backpack(t)
	snap := m.Clone()

	_ = m.AddActivity("Item", "Laptop", nil, 0, 0)
	tbl, _ := m.ResourceInstances("Backpack")
	tbl.Rows[0].Budget["space"] = 42

	orig, _ := snap.ResourceInstances("Backpack")
	if orig.Rows[0].Budget["space"] != 1 {
		t.Error("clone shares budget map with original")
	}

	m.Restore(snap)
	if m.NameExists("Laptop") {
		t.Error("restore kept class added after snapshot")
	}
}

func TestInstanceTables(t *testing.T) {
	m := backpack(t)
	tbl, _ := m.ResourceInstances("Backpack")
	tbl.Clear()

	if err := tbl.AddRow("small", map[string]float64{"space": 3}); err != nil {
		t.Fatal(err)
	}
	if err := tbl.AddRow("small", nil); !errors.Is(err, ErrDuplicateName) {
		t.Errorf("duplicate row err = %v", err)
	}
	if err := tbl.AddRow("", nil); !errors.Is(err, ErrInvalidName) {
		t.Errorf("empty row err = %v", err)
	}
	if got := tbl.Names(); !slices.Equal(got, []string{"small"}) {
		t.Errorf("Names = %v", got)
	}
}
