package cli

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func browserModel(t *testing.T) TraitBrowserModel {
	t.Helper()
	root := writeDocset(t)
	c := testCLI(t)
	set, _, err := c.scanDocset(withLogger(context.Background(), c.Logger), root, "")
	if err != nil {
		t.Fatalf("scanDocset: %v", err)
	}
	return NewTraitBrowserModel(set)
}

func keyMsg(s string) tea.KeyMsg {
	if s == "enter" {
		return tea.KeyMsg{Type: tea.KeyEnter}
	}
	if s == "esc" {
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestBrowserNavigation(t *testing.T) {
	m := browserModel(t)
	if len(m.Traits) != 2 {
		t.Fatalf("got %d traits, want 2", len(m.Traits))
	}

	next, _ := m.Update(keyMsg("j"))
	m = next.(TraitBrowserModel)
	if m.Cursor != 1 {
		t.Errorf("cursor = %d after down, want 1", m.Cursor)
	}

	// Down at the bottom stays put.
	next, _ = m.Update(keyMsg("j"))
	m = next.(TraitBrowserModel)
	if m.Cursor != 1 {
		t.Errorf("cursor = %d at bottom, want 1", m.Cursor)
	}

	next, _ = m.Update(keyMsg("k"))
	m = next.(TraitBrowserModel)
	if m.Cursor != 0 {
		t.Errorf("cursor = %d after up, want 0", m.Cursor)
	}
}

func TestBrowserOpenAndBack(t *testing.T) {
	m := browserModel(t)

	next, _ := m.Update(keyMsg("enter"))
	m = next.(TraitBrowserModel)
	if m.Detail != m.Traits[0] {
		t.Errorf("detail = %q, want %q", m.Detail, m.Traits[0])
	}

	view := m.View()
	if !strings.Contains(view, m.Traits[0]) {
		t.Error("detail view should show the trait path")
	}

	next, _ = m.Update(keyMsg("esc"))
	m = next.(TraitBrowserModel)
	if m.Detail != "" {
		t.Error("esc should return to the list view")
	}
}

func TestBrowserQuit(t *testing.T) {
	m := browserModel(t)

	_, cmd := m.Update(keyMsg("q"))
	if cmd == nil {
		t.Fatal("q should produce a quit command")
	}
	if msg := cmd(); msg != tea.Quit() {
		t.Errorf("q produced %v, want tea.Quit", msg)
	}
}

func TestBrowserListView(t *testing.T) {
	m := browserModel(t)
	view := m.View()

	for _, trait := range m.Traits {
		if !strings.Contains(view, trait) {
			t.Errorf("list view missing trait %s", trait)
		}
	}
	if !strings.Contains(view, "[1/2]") {
		t.Error("list view should show position indicator")
	}
}
