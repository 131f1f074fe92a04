package ui

import (
	"strings"

	"github.com/TulipaEnergy/tulipaviz/pkg/model"
	"github.com/TulipaEnergy/tulipaviz/pkg/selection"
)

// TreeSelect is the category tree widget behind the filter and breakdown
// editors. It renders one top-level category as an expandable tree with
// tri-state checkboxes and produces raw selection events for the
// selection engines to reduce.
//
// Two checking modes exist because the two editors disagree about what a
// parent click means. In cascade mode (filters) checking a node checks
// its whole subtree and ancestors show partial marks, which is what
// makes the roll-up reduction natural. In independent mode (breakdowns)
// every node is its own checkbox: parent-plus-child is a meaningful
// selection there and must not cascade.
type TreeSelect struct {
	forest   *model.Forest
	rootName string
	cascade  bool

	parentOf map[int]int
	order    []int // display order of all keys under the root

	checkedLeaves map[int]bool // cascade mode state
	checkedNodes  map[int]bool // independent mode state
	expanded      map[int]bool

	rows   []treeRow // flattened visible rows
	cursor int
	offset int

	width   int
	height  int
	theme   Theme
	focused bool
}

type treeRow struct {
	node  *model.CategoryNode
	depth int
}

// NewTreeSelect creates a tree widget over one root of the forest.
func NewTreeSelect(theme Theme, forest *model.Forest, rootName string, cascade bool) *TreeSelect {
	t := &TreeSelect{
		forest:        forest,
		rootName:      rootName,
		cascade:       cascade,
		parentOf:      make(map[int]int),
		checkedLeaves: make(map[int]bool),
		checkedNodes:  make(map[int]bool),
		expanded:      make(map[int]bool),
		theme:         theme,
		height:        10,
	}

	root := forest.Root(rootName)
	if root != nil {
		t.expanded[root.Key] = true
		var index func(n *model.CategoryNode)
		index = func(n *model.CategoryNode) {
			t.order = append(t.order, n.Key)
			for _, child := range n.Children {
				t.parentOf[child.Key] = n.Key
				index(child)
			}
		}
		index(root)
	}

	t.reflow()
	return t
}

// SetSize updates the widget dimensions.
func (t *TreeSelect) SetSize(width, height int) {
	t.width = width
	t.height = height
	t.clampScroll()
}

// Focus marks the widget as focused for rendering.
func (t *TreeSelect) Focus() { t.focused = true }

// Blur removes focus.
func (t *TreeSelect) Blur() { t.focused = false }

// Focused reports whether the widget has focus.
func (t *TreeSelect) Focused() bool { return t.focused }

// RootName returns the top-level category this widget edits.
func (t *TreeSelect) RootName() string { return t.rootName }

// SetChecked seeds the widget from canonical selection keys, replacing
// any existing state. In cascade mode each key checks its whole subtree;
// in independent mode exactly the given keys.
func (t *TreeSelect) SetChecked(keys []int) {
	t.checkedLeaves = make(map[int]bool)
	t.checkedNodes = make(map[int]bool)
	for _, key := range keys {
		node := t.forest.Node(key)
		if node == nil {
			continue
		}
		if t.cascade {
			for _, leaf := range node.Leaves() {
				t.checkedLeaves[leaf] = true
			}
		} else {
			t.checkedNodes[key] = true
		}
	}
}

// nodeState computes the tri-state of one node.
func (t *TreeSelect) nodeState(n *model.CategoryNode) selection.NodeState {
	if !t.cascade {
		return selection.NodeState{Checked: t.checkedNodes[n.Key]}
	}
	leaves := n.Leaves()
	checked := 0
	for _, leaf := range leaves {
		if t.checkedLeaves[leaf] {
			checked++
		}
	}
	return selection.NodeState{
		Checked:        len(leaves) > 0 && checked == len(leaves),
		PartialChecked: checked > 0 && checked < len(leaves),
	}
}

// Event snapshots the widget state as a raw selection event for the
// reduction engines.
func (t *TreeSelect) Event() selection.Event {
	ev := make(selection.Event, len(t.order))
	for _, key := range t.order {
		node := t.forest.Node(key)
		if node == nil {
			continue
		}
		ev[key] = t.nodeState(node)
	}
	return ev
}

// Toggle flips the checkbox under the cursor.
func (t *TreeSelect) Toggle() {
	if t.cursor < 0 || t.cursor >= len(t.rows) {
		return
	}
	node := t.rows[t.cursor].node

	if !t.cascade {
		t.checkedNodes[node.Key] = !t.checkedNodes[node.Key]
		return
	}

	// Cascade: fully checked subtree unchecks, anything else checks.
	state := t.nodeState(node)
	for _, leaf := range node.Leaves() {
		t.checkedLeaves[leaf] = !state.Checked
	}
}

// CursorUp moves the cursor one visible row up.
func (t *TreeSelect) CursorUp() {
	if t.cursor > 0 {
		t.cursor--
	}
	t.clampScroll()
}

// CursorDown moves the cursor one visible row down.
func (t *TreeSelect) CursorDown() {
	if t.cursor < len(t.rows)-1 {
		t.cursor++
	}
	t.clampScroll()
}

// ToggleExpand flips expansion of the node under the cursor.
func (t *TreeSelect) ToggleExpand() {
	if t.cursor < 0 || t.cursor >= len(t.rows) {
		return
	}
	node := t.rows[t.cursor].node
	if node.IsLeaf() {
		return
	}
	t.expanded[node.Key] = !t.expanded[node.Key]
	t.reflow()
}

// ExpandAll opens every node under the root.
func (t *TreeSelect) ExpandAll() {
	for _, key := range t.order {
		if node := t.forest.Node(key); node != nil && !node.IsLeaf() {
			t.expanded[key] = true
		}
	}
	t.reflow()
}

// CursorNode returns the node under the cursor, nil when the tree is empty.
func (t *TreeSelect) CursorNode() *model.CategoryNode {
	if t.cursor < 0 || t.cursor >= len(t.rows) {
		return nil
	}
	return t.rows[t.cursor].node
}

// VisibleCount returns the number of currently visible rows.
func (t *TreeSelect) VisibleCount() int { return len(t.rows) }

// reflow rebuilds the visible row list after an expand change.
func (t *TreeSelect) reflow() {
	t.rows = t.rows[:0]
	root := t.forest.Root(t.rootName)
	if root == nil {
		return
	}
	var walk func(n *model.CategoryNode, depth int)
	walk = func(n *model.CategoryNode, depth int) {
		t.rows = append(t.rows, treeRow{node: n, depth: depth})
		if !t.expanded[n.Key] {
			return
		}
		for _, child := range n.Children {
			walk(child, depth+1)
		}
	}
	walk(root, 0)

	if t.cursor >= len(t.rows) {
		t.cursor = len(t.rows) - 1
	}
	if t.cursor < 0 {
		t.cursor = 0
	}
	t.clampScroll()
}

func (t *TreeSelect) clampScroll() {
	if t.height <= 0 {
		return
	}
	if t.cursor < t.offset {
		t.offset = t.cursor
	}
	if t.cursor >= t.offset+t.height {
		t.offset = t.cursor - t.height + 1
	}
	if t.offset < 0 {
		t.offset = 0
	}
}

func checkboxGlyph(state selection.NodeState) string {
	switch {
	case state.Checked:
		return "[x]"
	case state.PartialChecked:
		return "[~]"
	default:
		return "[ ]"
	}
}

// View renders the visible window of the tree.
func (t *TreeSelect) View() string {
	if len(t.rows) == 0 {
		return t.theme.MutedText.Render("no categories")
	}

	end := len(t.rows)
	if t.height > 0 && t.offset+t.height < end {
		end = t.offset + t.height
	}

	var b strings.Builder
	for i := t.offset; i < end; i++ {
		row := t.rows[i]
		node := row.node
		state := t.nodeState(node)

		expander := "  "
		if !node.IsLeaf() {
			if t.expanded[node.Key] {
				expander = "▾ "
			} else {
				expander = "▸ "
			}
		}

		line := strings.Repeat("  ", row.depth) + expander + checkboxGlyph(state) + " " + node.Label
		if t.width > 2 {
			line = truncate(line, t.width-2)
		}

		style := t.theme.Renderer.NewStyle().Foreground(t.theme.SelectionColor(state.Checked, state.PartialChecked))
		if i == t.cursor && t.focused {
			b.WriteString(t.theme.Selected.Render(line))
		} else {
			b.WriteString(style.Render(line))
		}
		if i < end-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}
