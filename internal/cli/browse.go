package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/dm3k/dm3k/pkg/adapter"
	"github.com/dm3k/dm3k/pkg/document"
	"github.com/dm3k/dm3k/pkg/model"
	"github.com/dm3k/dm3k/pkg/render/diagram"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	listPickedStyle   = lipgloss.NewStyle().Foreground(colorGreen)
	detailBoxStyle    = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorDim).
				Padding(0, 1)
)

// browseCommand creates the browse command.
func (c *CLI) browseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "browse [document]",
		Short: "Inspect a document's diagram elements in a terminal UI",
		Long: `Inspect a document's diagram elements in a terminal UI.

The document is imported and every element the diagram would draw is listed.
Space toggles an element in the selection and enter opens the instance table
of a class or link. The selection and instance-table events raised during the
session are printed as JSON lines on exit.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runBrowse(cmd.Context(), args[0])
		},
	}
}

func (c *CLI) runBrowse(ctx context.Context, input string) error {
	d, err := loadDocument(input)
	if err != nil {
		return err
	}
	m, err := NewBrowseModel(d, loggerFromContext(ctx))
	if err != nil {
		return err
	}

	finalModel, err := tea.NewProgram(m, tea.WithContext(ctx)).Run()
	if err != nil {
		return err
	}
	fm, ok := finalModel.(BrowseModel)
	if !ok || len(fm.Events) == 0 {
		printDetail("No events raised")
		return nil
	}
	enc := json.NewEncoder(os.Stdout)
	for _, ev := range fm.Events {
		if err := enc.Encode(ev); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// BrowseModel - Interactive element browser
// =============================================================================

type browseKeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Toggle key.Binding
	Open   key.Binding
	Quit   key.Binding
}

var browseKeys = browseKeyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	Toggle: key.NewBinding(
		key.WithKeys(" "),
		key.WithHelp("space", "select"),
	),
	Open: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("⏎", "instances"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "esc", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

func (k browseKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Toggle, k.Open, k.Quit}
}

func (k browseKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

// BrowseModel is the bubbletea model for browsing diagram elements.
type BrowseModel struct {
	Elements []adapter.Element
	Cursor   int
	Height   int
	Offset   int

	// Selected holds the IDs of the selected elements.
	Selected map[string]bool

	// Events are the payloads raised so far, in order.
	Events []any

	// Detail is the text of the last opened instance table.
	Detail string

	adapter *adapter.Adapter
	keys    browseKeyMap
	help    help.Model
}

// NewBrowseModel imports d and lists the elements its diagram draws.
func NewBrowseModel(d document.Document, logger *log.Logger) (BrowseModel, error) {
	canvas := diagram.NewCanvas()
	m := model.New()
	if err := document.Import(m, d, document.WithPresenter(canvas), document.WithLogger(logger)); err != nil {
		return BrowseModel{}, err
	}
	return BrowseModel{
		Elements: canvas.Elements(),
		Height:   15,
		Selected: map[string]bool{},
		adapter:  adapter.New(m, canvas, logger),
		keys:     browseKeys,
		help:     help.New(),
	}, nil
}

func (m BrowseModel) Init() tea.Cmd {
	return nil
}

func (m BrowseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Up):
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case key.Matches(msg, m.keys.Down):
			if m.Cursor < len(m.Elements)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case key.Matches(msg, m.keys.Toggle):
			if len(m.Elements) > 0 {
				m = m.toggle(m.Elements[m.Cursor])
			}
		case key.Matches(msg, m.keys.Open):
			if len(m.Elements) > 0 {
				m = m.open(m.Elements[m.Cursor])
			}
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-12, 5)
		m.help.Width = msg.Width
	}
	return m, nil
}

// toggle flips e in the selection and records the selection event.
func (m BrowseModel) toggle(e adapter.Element) BrowseModel {
	id := e.ID()
	selected := !m.Selected[id]
	sel := make(map[string]bool, len(m.Selected)+1)
	for k, v := range m.Selected {
		sel[k] = v
	}
	if selected {
		sel[id] = true
	} else {
		delete(sel, id)
	}
	m.Selected = sel
	m.Events = append(m.Events[:len(m.Events):len(m.Events)], adapter.SelectionPayload([]string{id}, selected))
	return m
}

// open records the instance-table event for e and shows it in the detail
// pane. Elements without an instance table only update the pane.
func (m BrowseModel) open(e adapter.Element) BrowseModel {
	ev, err := m.adapter.InstanceEditPayload(adapter.EditTarget{Kind: e.Kind, Name: e.Name, From: e.From, To: e.To})
	if err != nil {
		m.Detail = fmt.Sprintf("%s has no instance table", e.ID())
		return m
	}
	m.Events = append(m.Events[:len(m.Events):len(m.Events)], ev)
	m.Detail = m.instanceTable(e)
	return m
}

// instanceTable renders the instance rows behind a class or link.
func (m BrowseModel) instanceTable(e adapter.Element) string {
	mdl := m.adapter.Model()
	var b strings.Builder
	b.WriteString(StyleTitle.Render(e.ID()))
	switch e.Kind {
	case adapter.ElementResource:
		t, err := mdl.ResourceInstances(e.Name)
		if err != nil {
			return err.Error()
		}
		for _, r := range t.Rows {
			fmt.Fprintf(&b, "\n%s  %s", r.Name, formatAmounts(r.Budget))
		}
	case adapter.ElementActivity:
		t, err := mdl.ActivityInstances(e.Name)
		if err != nil {
			return err.Error()
		}
		for _, r := range t.Rows {
			fmt.Fprintf(&b, "\n%s  reward=%g  %s", r.Name, r.Reward, formatAmounts(r.Cost))
		}
	case adapter.ElementContains:
		l, err := mdl.Contains(e.From, e.To)
		if err != nil {
			return err.Error()
		}
		for _, r := range l.Rows {
			fmt.Fprintf(&b, "\n%s -> %s", r.Parent, r.Child)
		}
	case adapter.ElementAllocation:
		l, err := mdl.Allocation(e.From, e.To)
		if err != nil {
			return err.Error()
		}
		for _, r := range l.Rows {
			fmt.Fprintf(&b, "\n%s -> %s", r.Resource, r.Activity)
		}
	}
	return b.String()
}

func formatAmounts(amounts map[string]float64) string {
	parts := make([]string, 0, len(amounts))
	for _, k := range model.SortedKeys(amounts) {
		parts = append(parts, fmt.Sprintf("%s=%g", k, amounts[k]))
	}
	return strings.Join(parts, " ")
}

func (m BrowseModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Diagram Elements"))
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Elements))
	rows := make([][]string, 0, end-m.Offset)
	for i := m.Offset; i < end; i++ {
		e := m.Elements[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		mark := ""
		if m.Selected[e.ID()] {
			mark = "●"
		}
		rows = append(rows, []string{cursor, mark, string(e.Kind), elementLabel(e)})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "", "Kind", "Element").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			idx := m.Offset + row
			if idx >= len(m.Elements) {
				return lipgloss.NewStyle()
			}
			switch {
			case idx == m.Cursor:
				return listSelectedStyle
			case m.Selected[m.Elements[idx].ID()]:
				return listPickedStyle
			case col == 2:
				return listDimStyle
			}
			return listNormalStyle
		})

	b.WriteString(t.Render())
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]  %d selected", m.Cursor+1, len(m.Elements), len(m.Selected))))
	if m.Detail != "" {
		b.WriteString("\n\n")
		b.WriteString(detailBoxStyle.Render(m.Detail))
	}

	return b.String()
}

// elementLabel names an element the way the diagram labels it.
func elementLabel(e adapter.Element) string {
	switch e.Kind {
	case adapter.ElementResource, adapter.ElementActivity:
		if e.TypeName != "" && e.TypeName != e.Name {
			return e.Name + " (" + e.TypeName + ")"
		}
		return e.Name
	case adapter.ElementBudget, adapter.ElementCost, adapter.ElementReward:
		return e.Owner + "." + e.Name
	}
	return e.From + " → " + e.To
}
