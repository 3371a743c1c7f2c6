package cli

import (
	"slices"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dm3k/dm3k/pkg/adapter"
	"github.com/dm3k/dm3k/pkg/document"
)

func backpackDoc() document.Document {
	return document.Document{
		ResourceClasses: []document.ResourceClass{
			{ClassName: "Backpack", Budgets: []string{"space"}, CanBeAllocatedToClasses: []string{"Item"}},
		},
		ActivityClasses: []document.ActivityClass{
			{ClassName: "Item", Rewards: []string{"utility"}, Costs: []string{"space"}},
		},
		ResourceInstances: []document.ResourceInstances{{
			ClassName: "Backpack",
			InstanceTable: []document.ResourceRow{
				{InstanceName: "small", Budget: map[string]float64{"space": 3}},
				{InstanceName: "large", Budget: map[string]float64{"space": 7}},
			},
		}},
		ActivityInstances: []document.ActivityInstances{{
			ClassName: "Item",
			InstanceTable: []document.ActivityRow{
				{InstanceName: "book", Cost: map[string]float64{"space": 2}, Reward: 5},
				{InstanceName: "pen", Cost: map[string]float64{"space": 1}, Reward: 0},
			},
		}},
	}
}

func newTestBrowser(t *testing.T) BrowseModel {
	t.Helper()
	m, err := NewBrowseModel(backpackDoc(), nil)
	if err != nil {
		t.Fatalf("NewBrowseModel() error: %v", err)
	}
	return m
}

// press feeds key presses through Update and returns the resulting model.
func press(t *testing.T, m BrowseModel, keys ...tea.KeyMsg) BrowseModel {
	t.Helper()
	for _, k := range keys {
		next, _ := m.Update(k)
		m = next.(BrowseModel)
	}
	return m
}

// moveTo moves the cursor onto the element with the given ID.
func moveTo(t *testing.T, m BrowseModel, id string) BrowseModel {
	t.Helper()
	i := slices.IndexFunc(m.Elements, func(e adapter.Element) bool { return e.ID() == id })
	if i < 0 {
		t.Fatalf("element %s not listed; have %v", id, m.Elements)
	}
	for m.Cursor < i {
		m = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	}
	for m.Cursor > i {
		m = press(t, m, tea.KeyMsg{Type: tea.KeyUp})
	}
	return m
}

var (
	keySpace = tea.KeyMsg{Type: tea.KeySpace}
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
)

func TestBrowseListsDiagramElements(t *testing.T) {
	m := newTestBrowser(t)

	for _, id := range []string{
		"resource:Backpack",
		"activity:Item",
		"budget:Backpack/space",
		"reward:Item/utility",
		"allocation:Backpack->Item",
	} {
		if !slices.ContainsFunc(m.Elements, func(e adapter.Element) bool { return e.ID() == id }) {
			t.Errorf("element %s missing", id)
		}
	}
}

func TestBrowseCursorBounds(t *testing.T) {
	m := newTestBrowser(t)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyUp})
	if m.Cursor != 0 {
		t.Errorf("cursor moved above the first element: %d", m.Cursor)
	}
	for range m.Elements {
		m = press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}})
	}
	if m.Cursor != len(m.Elements)-1 {
		t.Errorf("cursor = %d, want last element %d", m.Cursor, len(m.Elements)-1)
	}
}

func TestBrowseToggleSelection(t *testing.T) {
	m := moveTo(t, newTestBrowser(t), "resource:Backpack")

	m = press(t, m, keySpace)
	if !m.Selected["resource:Backpack"] {
		t.Fatal("space should select the element under the cursor")
	}
	m = press(t, m, keySpace)
	if m.Selected["resource:Backpack"] {
		t.Fatal("second space should deselect")
	}

	if len(m.Events) != 2 {
		t.Fatalf("got %d events, want 2", len(m.Events))
	}
	sel := m.Events[0].(adapter.SelectionEvent)
	if sel.Event != adapter.EventBoxesSelected || !slices.Equal(sel.Selected, []string{"resource:Backpack"}) {
		t.Errorf("first event = %+v", sel)
	}
	desel := m.Events[1].(adapter.SelectionEvent)
	if desel.Event != adapter.EventBoxesDeselected || !slices.Equal(desel.Deselected, []string{"resource:Backpack"}) {
		t.Errorf("second event = %+v", desel)
	}
}

func TestBrowseToggleDoesNotShareState(t *testing.T) {
	before := moveTo(t, newTestBrowser(t), "activity:Item")
	after := press(t, before, keySpace)

	if before.Selected["activity:Item"] || len(before.Events) != 0 {
		t.Error("Update mutated the previous model")
	}
	if !after.Selected["activity:Item"] {
		t.Error("Update did not select the element")
	}
}

func TestBrowseOpenInstanceTable(t *testing.T) {
	tests := []struct {
		id       string
		wantType string
		detail   []string
	}{
		{"resource:Backpack", adapter.EditResource, []string{"small  space=3", "large  space=7"}},
		{"activity:Item", adapter.EditActivity, []string{"book  reward=5  space=2", "pen  reward=0  space=1"}},
		{"allocation:Backpack->Item", adapter.EditAllocatedTo, []string{"->"}},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			m := press(t, moveTo(t, newTestBrowser(t), tt.id), keyEnter)

			if len(m.Events) != 1 {
				t.Fatalf("got %d events, want 1", len(m.Events))
			}
			ev := m.Events[0].(adapter.InstanceEditEvent)
			if ev.Event != adapter.EventInstanceEdit || ev.Type != tt.wantType || ev.ID != tt.id {
				t.Errorf("event = %+v", ev)
			}
			for _, want := range tt.detail {
				if !strings.Contains(m.Detail, want) {
					t.Errorf("detail %q does not contain %q", m.Detail, want)
				}
			}
		})
	}
}

func TestBrowseOpenWithoutInstanceTable(t *testing.T) {
	m := press(t, moveTo(t, newTestBrowser(t), "budget:Backpack/space"), keyEnter)

	if len(m.Events) != 0 {
		t.Errorf("attachments should raise no event, got %v", m.Events)
	}
	if !strings.Contains(m.Detail, "no instance table") {
		t.Errorf("detail = %q", m.Detail)
	}
}

func TestBrowseQuit(t *testing.T) {
	for _, k := range []tea.KeyMsg{
		{Type: tea.KeyRunes, Runes: []rune{'q'}},
		{Type: tea.KeyEsc},
		{Type: tea.KeyCtrlC},
	} {
		_, cmd := newTestBrowser(t).Update(k)
		if cmd == nil {
			t.Fatalf("%s should return a command", k)
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Errorf("%s should quit", k)
		}
	}
}

func TestBrowseView(t *testing.T) {
	m := moveTo(t, newTestBrowser(t), "resource:Backpack")
	m = press(t, m, keySpace)
	view := m.View()

	for _, want := range []string{"Diagram Elements", "Backpack", "Backpack → Item", "1 selected", "quit"} {
		if !strings.Contains(view, want) {
			t.Errorf("view does not contain %q", want)
		}
	}
}

func TestBrowseRejectsInvalidDocument(t *testing.T) {
	d := backpackDoc()
	d.ActivityInstances[0].ClassName = "Ghost"
	if _, err := NewBrowseModel(d, nil); err == nil {
		t.Error("NewBrowseModel() should fail on an unknown reference")
	}
}
