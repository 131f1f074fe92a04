package ui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/TulipaEnergy/tulipaviz/pkg/model"
)

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestFilterPane_StartsUnfiltered(t *testing.T) {
	p := NewFilterPane(TestTheme(), testForest(t))

	if !p.Enabled() {
		t.Fatalf("pane should be enabled for a populated forest")
	}
	if got := p.Filters(); len(got) != 0 {
		t.Errorf("unfiltered dimensions must be omitted, got %v", got)
	}

	chips := p.Chips()
	if len(chips) != 2 {
		t.Fatalf("expected one chip per dimension, got %v", chips)
	}
	for _, chip := range chips {
		if !strings.HasPrefix(chip, "All ") {
			t.Errorf("unfiltered chip should read \"All <label>\", got %q", chip)
		}
	}
}

func TestFilterPane_ToggleNarrowsSelection(t *testing.T) {
	p := NewFilterPane(TestTheme(), testForest(t))

	// Expand EU, walk to FR, toggle it off: only DE remains.
	p.HandleKey(keyMsg("down"))  // EU
	p.HandleKey(keyMsg("enter")) // expand
	p.HandleKey(keyMsg("down"))  // DE
	p.HandleKey(keyMsg("down"))  // FR
	p.HandleKey(keyMsg(" "))

	filters := p.Filters()
	keys, ok := filters[1]
	if !ok {
		t.Fatalf("location dimension should be filtered, got %v", filters)
	}
	if len(keys) != 1 || keys[0] != 3 {
		t.Errorf("expected rolled-up selection [3] (DE), got %v", keys)
	}
	if _, ok := filters[5]; ok {
		t.Errorf("untouched technology dimension must stay omitted")
	}
}

func TestFilterPane_DeselectAllReverts(t *testing.T) {
	p := NewFilterPane(TestTheme(), testForest(t))

	// Toggling the fully-checked root would empty the filter: the commit
	// must be rejected and the previous selection kept.
	p.HandleKey(keyMsg(" "))

	if !p.reverted {
		t.Errorf("deselect-all should set the reverted flag")
	}
	if got := p.Filters(); len(got) != 0 {
		t.Errorf("selection should still be unfiltered after revert, got %v", got)
	}
	if !strings.Contains(p.View(), "cannot be empty") {
		t.Errorf("revert warning should be rendered")
	}

	// The next accepted commit clears the flag.
	p.HandleKey(keyMsg("down"))  // EU
	p.HandleKey(keyMsg("enter")) // expand
	p.HandleKey(keyMsg("down"))  // DE
	p.HandleKey(keyMsg(" "))     // uncheck DE, FR remains
	if p.reverted {
		t.Errorf("accepted commit should clear the reverted flag")
	}
}

func TestFilterPane_TabCyclesDimensions(t *testing.T) {
	p := NewFilterPane(TestTheme(), testForest(t))

	if got := p.ActiveRoot(); got != "location" {
		t.Fatalf("first dimension should start focused, got %q", got)
	}
	p.HandleKey(keyMsg("tab"))
	if got := p.ActiveRoot(); got != "technology" {
		t.Errorf("tab should move to the next dimension, got %q", got)
	}
	p.HandleKey(keyMsg("tab"))
	if got := p.ActiveRoot(); got != "location" {
		t.Errorf("tab should wrap around, got %q", got)
	}
}

func TestFilterPane_ResetRestoresUnfiltered(t *testing.T) {
	p := NewFilterPane(TestTheme(), testForest(t))

	p.HandleKey(keyMsg("down"))  // EU
	p.HandleKey(keyMsg("enter")) // expand
	p.HandleKey(keyMsg("down"))  // DE
	p.HandleKey(keyMsg(" "))
	if len(p.Filters()) == 0 {
		t.Fatalf("expected a filtered dimension before reset")
	}

	p.HandleKey(keyMsg("r"))
	if got := p.Filters(); len(got) != 0 {
		t.Errorf("reset should return the dimension to unfiltered, got %v", got)
	}
}

func TestFilterPane_SeedFromStoredFilters(t *testing.T) {
	p := NewFilterPane(TestTheme(), testForest(t))

	p.Seed(map[int][]int{1: {3}})
	filters := p.Filters()
	if keys := filters[1]; len(keys) != 1 || keys[0] != 3 {
		t.Errorf("seeded location filter should be [3], got %v", keys)
	}
	if _, ok := filters[5]; ok {
		t.Errorf("dimension absent from the seed must reset to unfiltered")
	}

	// Re-seeding with an empty map resets everything.
	p.Seed(map[int][]int{})
	if got := p.Filters(); len(got) != 0 {
		t.Errorf("empty seed should reset all dimensions, got %v", got)
	}
}

func TestFilterPane_EmptyForestIsInert(t *testing.T) {
	p := NewFilterPane(TestTheme(), model.NewForest())

	if p.Enabled() {
		t.Errorf("pane over an empty forest should be disabled")
	}
	p.HandleKey(keyMsg(" ")) // must not panic
	if got := p.Filters(); len(got) != 0 {
		t.Errorf("inert pane has no filters, got %v", got)
	}
	if !strings.Contains(p.View(), "no category metadata") {
		t.Errorf("inert pane should explain itself")
	}
}
