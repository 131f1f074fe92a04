package ui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/TulipaEnergy/tulipaviz/pkg/model"
	"github.com/TulipaEnergy/tulipaviz/pkg/selection"
)

// FilterPane is the filter editor for one panel: a cascading TreeSelect
// per top-level category, each backed by a FilterState that enforces the
// never-empty rule. Edits are pending until the dashboard fires an
// apply.
type FilterPane struct {
	forest *model.Forest
	theme  Theme

	rootNames []string
	trees     map[string]*TreeSelect
	states    map[string]*selection.FilterState
	active    int

	reverted bool // last commit was rejected and rolled back

	width  int
	height int
}

// NewFilterPane builds the editor for a forest, all dimensions starting
// unfiltered. Panels pointing at a database without metadata get a nil
// forest and an inert pane.
func NewFilterPane(theme Theme, forest *model.Forest) *FilterPane {
	p := &FilterPane{
		forest: forest,
		theme:  theme,
		trees:  make(map[string]*TreeSelect),
		states: make(map[string]*selection.FilterState),
	}
	if forest.Empty() {
		return p
	}
	for _, name := range forest.RootNames {
		state, err := selection.NewFilterState(forest, name)
		if err != nil {
			continue
		}
		tree := NewTreeSelect(theme, forest, name, true)
		tree.SetChecked(state.Keys())
		p.rootNames = append(p.rootNames, name)
		p.trees[name] = tree
		p.states[name] = state
	}
	if len(p.rootNames) > 0 {
		p.trees[p.rootNames[0]].Focus()
	}
	return p
}

// Enabled reports whether the pane has anything to edit.
func (p *FilterPane) Enabled() bool { return len(p.rootNames) > 0 }

// SetSize updates the pane dimensions.
func (p *FilterPane) SetSize(width, height int) {
	p.width = width
	p.height = height
	for _, tree := range p.trees {
		tree.SetSize(width, height-4)
	}
}

// Seed replaces the pane's selections from stored panel filters, keyed
// by root key. Dimensions absent from the map reset to unfiltered.
func (p *FilterPane) Seed(filters map[int][]int) {
	for _, name := range p.rootNames {
		state := p.states[name]
		keys, ok := filters[state.RootKey()]
		if !ok {
			state.Reset()
		} else {
			ev := selection.Checked(keys...)
			state.Apply(ev)
		}
		p.trees[name].SetChecked(state.Keys())
	}
	p.reverted = false
}

// activeTree returns the focused tree, nil when the pane is inert.
func (p *FilterPane) activeTree() *TreeSelect {
	if len(p.rootNames) == 0 {
		return nil
	}
	return p.trees[p.rootNames[p.active]]
}

// ActiveRoot returns the name of the dimension being edited.
func (p *FilterPane) ActiveRoot() string {
	if len(p.rootNames) == 0 {
		return ""
	}
	return p.rootNames[p.active]
}

// NextRoot cycles focus to the next dimension.
func (p *FilterPane) NextRoot() {
	if len(p.rootNames) < 2 {
		return
	}
	p.activeTree().Blur()
	p.active = (p.active + 1) % len(p.rootNames)
	p.activeTree().Focus()
}

// HandleKey processes one key event.
func (p *FilterPane) HandleKey(msg tea.KeyMsg) {
	tree := p.activeTree()
	if tree == nil {
		return
	}
	switch msg.String() {
	case "up", "k":
		tree.CursorUp()
	case "down", "j":
		tree.CursorDown()
	case "right", "l", "enter":
		tree.ToggleExpand()
	case " ":
		tree.Toggle()
		p.commit()
	case "tab":
		p.NextRoot()
	case "r":
		p.resetActive()
	}
}

// commit reduces the active tree's raw state into its FilterState. A
// rejected reduction (deselect-all) rolls the widget back to the kept
// selection.
func (p *FilterPane) commit() {
	name := p.ActiveRoot()
	tree := p.trees[name]
	state := p.states[name]

	p.reverted = !state.Apply(tree.Event())
	if p.reverted {
		tree.SetChecked(state.Keys())
	}
}

func (p *FilterPane) resetActive() {
	name := p.ActiveRoot()
	if name == "" {
		return
	}
	p.states[name].Reset()
	p.trees[name].SetChecked(p.states[name].Keys())
	p.reverted = false
}

// Filters returns the canonical pending selection for every dimension,
// keyed by root key, omitting unfiltered dimensions. This is what the
// dashboard dispatches to the store.
func (p *FilterPane) Filters() map[int][]int {
	out := make(map[int][]int)
	for _, name := range p.rootNames {
		state := p.states[name]
		if state.Unfiltered() {
			continue
		}
		out[state.RootKey()] = state.Keys()
	}
	return out
}

// Chips returns the chip labels of every dimension in display order.
func (p *FilterPane) Chips() []string {
	var chips []string
	for _, name := range p.rootNames {
		chips = append(chips, p.states[name].Chips()...)
	}
	return chips
}

// View renders the pane.
func (p *FilterPane) View() string {
	if !p.Enabled() {
		return p.theme.MutedText.Render("This database has no category metadata; filters are unavailable.")
	}

	var b strings.Builder

	// Dimension tabs
	var tabs []string
	for i, name := range p.rootNames {
		if i == p.active {
			tabs = append(tabs, p.theme.PrimaryBold.Render(name))
		} else {
			tabs = append(tabs, p.theme.MutedText.Render(name))
		}
	}
	b.WriteString(strings.Join(tabs, p.theme.MutedText.Render(" │ ")))
	b.WriteByte('\n')

	b.WriteString(p.activeTree().View())
	b.WriteByte('\n')

	if p.reverted {
		b.WriteString(p.theme.WarningText.Render("kept previous selection (a filter cannot be empty)"))
		b.WriteByte('\n')
	}

	b.WriteString(RenderChips(p.Chips(), p.theme))
	return b.String()
}
