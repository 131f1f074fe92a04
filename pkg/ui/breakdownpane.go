package ui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/TulipaEnergy/tulipaviz/pkg/model"
	"github.com/TulipaEnergy/tulipaviz/pkg/selection"
)

// BreakdownPane is the group-by editor for one panel: a root picker and
// one independent-mode TreeSelect for the pinned root. Unlike the filter
// editor an empty selection is fine, and switching roots deliberately
// throws the selection away.
type BreakdownPane struct {
	forest *model.Forest
	theme  Theme

	state      *selection.BreakdownState
	tree       *TreeSelect
	rootCursor int
	picking    bool // root picker focused instead of the tree

	width  int
	height int
}

// NewBreakdownPane builds the editor for a forest with no root pinned.
func NewBreakdownPane(theme Theme, forest *model.Forest) *BreakdownPane {
	return &BreakdownPane{
		forest:  forest,
		theme:   theme,
		state:   selection.NewBreakdownState(forest),
		picking: true,
	}
}

// Enabled reports whether the pane has anything to edit.
func (p *BreakdownPane) Enabled() bool { return !p.forest.Empty() }

// SetSize updates the pane dimensions.
func (p *BreakdownPane) SetSize(width, height int) {
	p.width = width
	p.height = height
	if p.tree != nil {
		p.tree.SetSize(width, height-4)
	}
}

// Seed replaces the pane's state from stored panel configuration.
func (p *BreakdownPane) Seed(rootName string, keys []int) {
	p.state = selection.NewBreakdownState(p.forest)
	p.tree = nil
	p.picking = true
	if rootName == "" {
		return
	}
	p.state.SetRoot(rootName)
	p.state.Apply(selection.Checked(keys...))

	for i, name := range p.forest.RootNames {
		if name == rootName {
			p.rootCursor = i
			break
		}
	}
	p.tree = NewTreeSelect(p.theme, p.forest, rootName, false)
	p.tree.SetChecked(p.state.Keys())
	p.tree.SetSize(p.width, p.height-4)
	p.picking = false
	p.tree.Focus()
}

// RootName returns the pinned root, empty when none.
func (p *BreakdownPane) RootName() string { return p.state.RootName() }

// Keys returns the pending group-by keys.
func (p *BreakdownPane) Keys() []int { return p.state.Keys() }

// Chips returns the chip labels, with "-other" decoration where a
// selected node's own child is also selected.
func (p *BreakdownPane) Chips() []string { return p.state.Chips() }

// pinRoot activates the root under the picker cursor. Picking the
// already-pinned root keeps the selection.
func (p *BreakdownPane) pinRoot() {
	if p.rootCursor < 0 || p.rootCursor >= len(p.forest.RootNames) {
		return
	}
	name := p.forest.RootNames[p.rootCursor]
	reset := p.state.SetRoot(name)
	if p.tree == nil || reset {
		p.tree = NewTreeSelect(p.theme, p.forest, name, false)
		p.tree.SetChecked(p.state.Keys())
		p.tree.SetSize(p.width, p.height-4)
	}
	p.picking = false
	p.tree.Focus()
}

// HandleKey processes one key event.
func (p *BreakdownPane) HandleKey(msg tea.KeyMsg) {
	if !p.Enabled() {
		return
	}

	if p.picking {
		switch msg.String() {
		case "up", "k":
			if p.rootCursor > 0 {
				p.rootCursor--
			}
		case "down", "j":
			if p.rootCursor < len(p.forest.RootNames)-1 {
				p.rootCursor++
			}
		case "enter", " ":
			p.pinRoot()
		}
		return
	}

	switch msg.String() {
	case "up", "k":
		p.tree.CursorUp()
	case "down", "j":
		p.tree.CursorDown()
	case "right", "l", "enter":
		p.tree.ToggleExpand()
	case " ":
		p.tree.Toggle()
		p.state.Apply(p.tree.Event())
	case "tab", "esc":
		p.tree.Blur()
		p.picking = true
	}
}

// View renders the pane.
func (p *BreakdownPane) View() string {
	if !p.Enabled() {
		return p.theme.MutedText.Render("This database has no category metadata; breakdowns are unavailable.")
	}

	var b strings.Builder
	b.WriteString(p.theme.SecondaryText.Render("group by:"))
	b.WriteByte(' ')

	var roots []string
	for i, name := range p.forest.RootNames {
		label := name
		switch {
		case p.picking && i == p.rootCursor:
			label = p.theme.PrimaryBold.Render("▸ " + name)
		case name == p.state.RootName():
			label = p.theme.PrimaryBold.Render(name)
		default:
			label = p.theme.MutedText.Render(name)
		}
		roots = append(roots, label)
	}
	b.WriteString(strings.Join(roots, "  "))
	b.WriteByte('\n')

	if p.tree != nil {
		b.WriteString(p.tree.View())
		b.WriteByte('\n')
	}

	if chips := p.Chips(); len(chips) > 0 {
		b.WriteString(RenderChips(chips, p.theme))
	} else if p.state.RootName() != "" {
		b.WriteString(p.theme.MutedText.Render("nothing selected: everything aggregates into one series"))
	}
	return b.String()
}
