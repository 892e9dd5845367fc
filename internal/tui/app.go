// Package tui is the terminal front-end: a contact list and an entry form
// with cascading category pickers.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hpungsan/rolodex/internal/category"
	"github.com/hpungsan/rolodex/internal/ops"
	"github.com/hpungsan/rolodex/internal/store"
)

// Form field indices
const (
	FieldLevel1 = iota
	FieldLevel2
	FieldLevel3
	FieldComment
	FieldCount // Total number of fields
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230"))

	selectedStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("62")).
			Foreground(lipgloss.Color("230"))

	pathStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	borderStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
)

// Model is the application state.
type Model struct {
	store *store.Store
	tree  *category.Tree

	contacts []ops.ContactView
	selected int
	width    int
	height   int
	status   string
	err      error

	// Form mode
	formMode bool
	field    int
	editID   string
	sel      category.Selection
	comment  textarea.Model
}

// New creates the model over an already loaded store.
func New(s *store.Store, tree *category.Tree) Model {
	ta := textarea.New()
	ta.Placeholder = "Comment..."
	ta.SetHeight(4)
	ta.SetWidth(60)
	ta.ShowLineNumbers = false

	m := Model{
		store:   s,
		tree:    tree,
		comment: ta,
	}
	m.reload()
	return m
}

// Run starts the program on the alternate screen and blocks until it quits.
func Run(s *store.Store, tree *category.Tree) error {
	_, err := tea.NewProgram(New(s, tree), tea.WithAltScreen()).Run()
	return err
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.width > 8 {
			m.comment.SetWidth(m.width - 8)
		}
		return m, nil

	case tea.KeyMsg:
		if m.formMode {
			return m.updateForm(msg)
		}
		return m.updateList(msg)
	}
	return m, nil
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "j", "down":
		if m.selected < len(m.contacts)-1 {
			m.selected++
		}

	case "k", "up":
		if m.selected > 0 {
			m.selected--
		}

	case "n":
		return m.openForm("", category.Selection{}, "")

	case "e":
		if c, ok := m.current(); ok {
			return m.openForm(c.ID, c.Selection(), c.Comment)
		}

	case "d":
		if c, ok := m.current(); ok {
			var warning string
			out, err := ops.Delete(context.Background(), m.store, c.ID)
			if out != nil {
				warning = out.Warning
			}
			m.afterMutation("Deleted.", warning, err)
		}
	}
	return m, nil
}

func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.closeForm()
		m.status = ""
		return m, nil

	case "ctrl+s":
		var warning string
		out, err := ops.Save(context.Background(), m.store, m.tree, store.SaveInput{
			Level1:  m.sel.Level1,
			Level2:  m.sel.Level2,
			Level3:  m.sel.Level3,
			Comment: m.comment.Value(),
			ID:      m.editID,
		})
		if out != nil {
			warning = out.Warning
		}
		m.afterMutation("Saved.", warning, err)
		if m.err == nil {
			m.closeForm()
		}
		return m, nil

	case "tab":
		return m.focusField((m.field + 1) % FieldCount)

	case "shift+tab":
		return m.focusField((m.field + FieldCount - 1) % FieldCount)

	case "left", "right":
		if m.field != FieldComment {
			delta := 1
			if msg.String() == "left" {
				delta = -1
			}
			m.cycleLevel(delta)
			return m, nil
		}
	}

	if m.field == FieldComment {
		var cmd tea.Cmd
		m.comment, cmd = m.comment.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) openForm(id string, sel category.Selection, comment string) (tea.Model, tea.Cmd) {
	m.formMode = true
	m.editID = id
	m.sel = sel
	m.comment.SetValue(comment)
	m.status = ""
	m.err = nil
	return m.focusField(FieldLevel1)
}

func (m *Model) closeForm() {
	m.formMode = false
	m.editID = ""
	m.sel = category.Selection{}
	m.comment.Reset()
	m.comment.Blur()
}

func (m Model) focusField(field int) (tea.Model, tea.Cmd) {
	m.field = field
	if field == FieldComment {
		return m, m.comment.Focus()
	}
	m.comment.Blur()
	return m, nil
}

// cycleLevel steps the focused level through its options, with "none" as
// the first choice. Changing a level clears every level below it.
func (m *Model) cycleLevel(delta int) {
	var options []category.Node
	var current *string
	switch m.field {
	case FieldLevel1:
		options, current = m.tree.Roots(), &m.sel.Level1
	case FieldLevel2:
		options, current = m.tree.Level2(m.sel.Level1), &m.sel.Level2
	case FieldLevel3:
		options, current = m.tree.Level3(m.sel.Level1, m.sel.Level2), &m.sel.Level3
	default:
		return
	}
	if len(options) == 0 {
		return
	}

	ids := make([]string, 0, len(options)+1)
	ids = append(ids, "")
	idx := 0
	for i, n := range options {
		ids = append(ids, n.ID)
		if n.ID == *current {
			idx = i + 1
		}
	}
	*current = ids[(idx+delta+len(ids))%len(ids)]

	switch m.field {
	case FieldLevel1:
		m.sel.Level2, m.sel.Level3 = "", ""
	case FieldLevel2:
		m.sel.Level3 = ""
	}
}

// afterMutation reloads the list and sets the status line. A warning means
// the change stands but was not written to storage.
func (m *Model) afterMutation(done, warning string, err error) {
	m.err = nil
	switch {
	case err != nil:
		m.err = err
		m.status = ""
	case warning != "":
		m.status = "Warning: " + warning
	default:
		m.status = done
	}
	m.reload()
}

func (m *Model) reload() {
	m.contacts = ops.List(m.store, m.tree).Items
	m.selected = m.ensureValidSelection()
}

func (m Model) ensureValidSelection() int {
	if len(m.contacts) == 0 {
		return 0
	}
	if m.selected >= len(m.contacts) {
		return len(m.contacts) - 1
	}
	return m.selected
}

func (m Model) current() (ops.ContactView, bool) {
	if len(m.contacts) == 0 || m.selected >= len(m.contacts) {
		return ops.ContactView{}, false
	}
	return m.contacts[m.selected], true
}

// View renders the program
func (m Model) View() string {
	var b strings.Builder
	if m.formMode {
		b.WriteString(m.renderForm())
	} else {
		b.WriteString(m.renderList())
	}

	b.WriteString("\n")
	if m.err != nil {
		b.WriteString(warningStyle.Render("Error: " + m.err.Error()))
		b.WriteString("\n")
	} else if m.status != "" {
		b.WriteString(labelStyle.Render(m.status))
		b.WriteString("\n")
	}
	b.WriteString(m.renderHelp())
	return b.String()
}

func (m Model) renderList() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Contact Entries"))
	b.WriteString("\n\n")

	if len(m.contacts) == 0 {
		b.WriteString(labelStyle.Render("No contact entries yet. Press n to add one."))
		return borderStyle.Render(b.String())
	}

	for i, c := range m.contacts {
		line := fmt.Sprintf("%s  %s", pathStyle.Render(c.Path), firstLine(c.Comment))
		if i == m.selected {
			line = selectedStyle.Render("> " + c.Path + "  " + firstLine(c.Comment))
		} else {
			line = "  " + line
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return borderStyle.Render(strings.TrimRight(b.String(), "\n"))
}

func (m Model) renderForm() string {
	var b strings.Builder
	title := "New contact"
	if m.editID != "" {
		title = "Edit contact"
	}
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n\n")

	levels := []struct {
		label string
		id    string
		any   bool
	}{
		{"Level 1", m.sel.Level1, len(m.tree.Roots()) > 0},
		{"Level 2", m.sel.Level2, len(m.tree.Level2(m.sel.Level1)) > 0},
		{"Level 3", m.sel.Level3, len(m.tree.Level3(m.sel.Level1, m.sel.Level2)) > 0},
	}
	for i, l := range levels {
		value := "Select Category"
		switch {
		case !l.any:
			value = "-"
		case l.id != "":
			value = m.tree.Name(l.id)
		}
		line := fmt.Sprintf("%-8s ‹ %s ›", l.label, value)
		if m.field == i {
			line = selectedStyle.Render(line)
		} else {
			line = labelStyle.Render(fmt.Sprintf("%-8s", l.label)) + fmt.Sprintf(" ‹ %s ›", value)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(labelStyle.Render("Path: "))
	b.WriteString(pathStyle.Render(m.tree.Path(m.sel)))
	b.WriteString("\n\n")
	b.WriteString(m.comment.View())
	return borderStyle.Render(b.String())
}

func (m Model) renderHelp() string {
	if m.formMode {
		return labelStyle.Render("←/→ choose  tab next field  ctrl+s save  esc cancel")
	}
	return labelStyle.Render("n new  e edit  d delete  j/k move  q quit")
}

func firstLine(s string) string {
	line, _, cut := strings.Cut(s, "\n")
	if cut {
		return line + " …"
	}
	return line
}
