package selection

import (
	"github.com/TulipaEnergy/tulipaviz/pkg/model"
)

// BreakdownReducer validates a raw selection against the forest and
// returns the surviving keys in display order, with no roll-up: a
// parent selected together with one of its children is a legal,
// meaningful selection ("group that child separately, and everything
// else under the parent together"). This must not share the filter
// engine's collapsing, only its walking and key validation.
type BreakdownReducer struct {
	Root string
}

// Reduce implements Reducer. Empty results are legal and mean "no
// breakdown, aggregate everything".
func (r BreakdownReducer) Reduce(ev Event, forest *model.Forest) []int {
	checked := checkedInOrder(ev, forest, r.Root)
	out := make([]int, 0, len(checked))
	for _, node := range checked {
		out = append(out, node.Key)
	}
	return out
}

// BreakdownState holds the group-by selection for one panel: exactly
// one chosen category root and a flat, possibly empty set of node keys
// from it. Unlike FilterState there is no non-empty invariant and no
// ancestor collapsing.
type BreakdownState struct {
	forest   *model.Forest
	rootName string
	keys     []int
}

// NewBreakdownState creates an empty breakdown selection with no root
// chosen yet.
func NewBreakdownState(forest *model.Forest) *BreakdownState {
	return &BreakdownState{forest: forest}
}

// RootName returns the currently pinned root, empty if none is chosen.
func (s *BreakdownState) RootName() string { return s.rootName }

// Keys returns the current group-by keys. The slice is a copy.
func (s *BreakdownState) Keys() []int {
	return append([]int(nil), s.keys...)
}

// SetRoot switches the active breakdown root. Changing roots always
// resets the selection: keys from a different root are meaningless to
// the query layer and must never be sent. Setting the same root again
// is a no-op. Reports whether a reset happened.
func (s *BreakdownState) SetRoot(rootName string) bool {
	if rootName == s.rootName {
		return false
	}
	s.rootName = rootName
	s.keys = nil
	return true
}

// Apply reduces a raw widget event into this state. With no root
// pinned, or nothing valid selected, the selection becomes empty;
// which is a legal state here, not an error.
func (s *BreakdownState) Apply(ev Event) {
	if s.rootName == "" {
		s.keys = nil
		return
	}
	s.keys = BreakdownReducer{Root: s.rootName}.Reduce(ev, s.forest)
}

// Chips returns the display labels for the current selection. A node is
// decorated as "<label>-other" when one of its own children is also
// independently selected: the parent's bucket then holds "parent minus
// the broken-out children", not the parent's full subtree.
func (s *BreakdownState) Chips() []string {
	selected := make(map[int]bool, len(s.keys))
	for _, key := range s.keys {
		selected[key] = true
	}

	chips := make([]string, 0, len(s.keys))
	for _, key := range s.keys {
		node := s.forest.Node(key)
		if node == nil {
			continue
		}
		label := node.Label
		for _, child := range node.Children {
			if selected[child.Key] {
				label += "-other"
				break
			}
		}
		chips = append(chips, label)
	}
	return chips
}
