package tui

import (
	"context"
	stderrors "errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hpungsan/rolodex/internal/category"
	"github.com/hpungsan/rolodex/internal/store"
)

type failingChannel struct{ *store.MemoryChannel }

func (failingChannel) Set(context.Context, string, []byte) error {
	return stderrors.New("quota exceeded")
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "shift+tab":
		return tea.KeyMsg{Type: tea.KeyShiftTab}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
}

// press sends keys in order and returns the resulting model.
func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		next, _ := m.Update(keyMsg(k))
		m = next.(Model)
	}
	return m
}

func setupModel(t *testing.T, ch store.Channel) (Model, *store.Store) {
	t.Helper()
	s := store.New(ch)
	return New(s, category.NewTree(category.Default())), s
}

func TestNewContactFlow(t *testing.T) {
	m, s := setupModel(t, store.NewMemoryChannel())

	m = press(t, m, "n")
	if !m.formMode || m.field != FieldLevel1 {
		t.Fatalf("formMode=%v field=%d, want form on level 1", m.formMode, m.field)
	}

	// Business > Marketing > Digital
	m = press(t, m, "right", "tab", "right", "right", "tab", "right", "tab")
	if m.field != FieldComment {
		t.Fatalf("field = %d, want comment", m.field)
	}
	m = press(t, m, "h", "i", "ctrl+s")

	if m.formMode {
		t.Error("form should close after save")
	}
	list := s.List()
	if len(list) != 1 {
		t.Fatalf("Len = %d, want 1", len(list))
	}
	got := list[0]
	if got.Level1 != "cat1" || got.Level2 != "cat1-2" || got.Level3 != "cat1-2-1" || got.Comment != "hi" {
		t.Errorf("saved = %+v", got)
	}
	if !strings.Contains(m.View(), "Business > Marketing > Digital") {
		t.Error("expected the new entry's path in the list")
	}
}

func TestCycleLevel(t *testing.T) {
	tests := []struct {
		name string
		keys []string
		want category.Selection
	}{
		{
			name: "left wraps to last root",
			keys: []string{"left"},
			want: category.Selection{Level1: "cat3"},
		},
		{
			name: "right past last root returns to none",
			keys: []string{"right", "right", "right", "right"},
			want: category.Selection{},
		},
		{
			name: "changing level 1 clears lower levels",
			keys: []string{"right", "tab", "right", "tab", "right", "shift+tab", "shift+tab", "right"},
			want: category.Selection{Level1: "cat2"},
		},
		{
			name: "changing level 2 clears level 3",
			keys: []string{"right", "tab", "right", "tab", "right", "shift+tab", "right"},
			want: category.Selection{Level1: "cat1", Level2: "cat1-2"},
		},
		{
			name: "level with no options stays empty",
			keys: []string{"left", "tab", "right"},
			want: category.Selection{Level1: "cat3"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := setupModel(t, store.NewMemoryChannel())
			m = press(t, m, append([]string{"n"}, tt.keys...)...)
			if m.sel != tt.want {
				t.Errorf("sel = %+v, want %+v", m.sel, tt.want)
			}
		})
	}
}

func TestEditKeepsIDAndTimestamp(t *testing.T) {
	m, s := setupModel(t, store.NewMemoryChannel())
	orig, _ := s.Save(context.Background(), store.SaveInput{Level1: "cat2", Comment: "old"})
	m.reload()

	m = press(t, m, "e")
	if m.editID != orig.ID || m.sel.Level1 != "cat2" || m.comment.Value() != "old" {
		t.Fatalf("form = id %q sel %+v comment %q", m.editID, m.sel, m.comment.Value())
	}
	m = press(t, m, "right", "ctrl+s")

	got, err := s.Get(orig.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Level1 != "cat3" || got.Timestamp != orig.Timestamp || s.Len() != 1 {
		t.Errorf("after edit = %+v (len %d)", got, s.Len())
	}
}

func TestEscCancels(t *testing.T) {
	m, s := setupModel(t, store.NewMemoryChannel())

	m = press(t, m, "n", "right", "esc")
	if m.formMode {
		t.Error("esc should close the form")
	}
	if m.sel != (category.Selection{}) {
		t.Errorf("sel = %+v, want empty after cancel", m.sel)
	}
	if s.Len() != 0 {
		t.Error("cancel must not save")
	}
}

func TestNavigateAndDelete(t *testing.T) {
	m, s := setupModel(t, store.NewMemoryChannel())
	ctx := context.Background()
	s.Save(ctx, store.SaveInput{Comment: "first"})
	second, _ := s.Save(ctx, store.SaveInput{Comment: "second"})
	m.reload()

	m = press(t, m, "j", "j")
	if m.selected != 1 {
		t.Fatalf("selected = %d, want 1 (clamped)", m.selected)
	}
	m = press(t, m, "d")
	if _, err := s.Get(second.ID); err == nil {
		t.Error("expected the selected contact to be deleted")
	}
	if m.selected != 0 {
		t.Errorf("selected = %d, want 0 after delete", m.selected)
	}
	m = press(t, m, "k", "d", "d")
	if s.Len() != 0 || len(m.contacts) != 0 {
		t.Errorf("Len = %d, want 0", s.Len())
	}
	if !strings.Contains(m.View(), "No contact entries yet") {
		t.Error("expected empty state")
	}
}

func TestWriteFailureShowsSessionWarning(t *testing.T) {
	m, s := setupModel(t, failingChannel{store.NewMemoryChannel()})

	m = press(t, m, "n", "ctrl+s")
	if m.formMode {
		t.Error("form should close: the contact was saved in memory")
	}
	if s.Len() != 1 {
		t.Errorf("Len = %d, want 1", s.Len())
	}
	if !strings.Contains(m.View(), "session only") {
		t.Error("expected a session-only warning")
	}
}

func TestDeleteWriteFailureShowsSessionWarning(t *testing.T) {
	ch := store.NewMemoryChannel()
	seed := store.New(ch)
	if _, err := seed.Save(context.Background(), store.SaveInput{Comment: "gone"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	s, err := store.Open(context.Background(), failingChannel{ch})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	m := New(s, category.NewTree(category.Default()))

	m = press(t, m, "d")
	if s.Len() != 0 || len(m.contacts) != 0 {
		t.Errorf("Len = %d, want 0: the delete stands in memory", s.Len())
	}
	if m.err != nil {
		t.Errorf("err = %v, want a warning only", m.err)
	}
	if !strings.Contains(m.View(), "session only") {
		t.Error("expected a session-only warning")
	}
}

func TestQuit(t *testing.T) {
	m, _ := setupModel(t, store.NewMemoryChannel())

	_, cmd := m.Update(keyMsg("q"))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}

	// In the form, q is typed into the comment
	m = press(t, m, "n", "tab", "tab", "tab", "q")
	if m.comment.Value() != "q" {
		t.Errorf("comment = %q, want q", m.comment.Value())
	}
}
