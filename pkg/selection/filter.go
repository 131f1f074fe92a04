package selection

import (
	"fmt"

	"github.com/TulipaEnergy/tulipaviz/pkg/model"
)

// FilterReducer collapses a raw selection to the minimal covering set:
// a node whose ancestor is already selected is dropped, so selecting a
// parent together with all of its children reduces to the parent alone.
// The reduction changes only the representation of a selection, never
// the set of leaves it covers.
//
// Root restricts the reduction to one top-level category; empty means
// the whole forest.
type FilterReducer struct {
	Root string
}

// Reduce implements Reducer. The emitted order is the first-seen
// display order of the surviving nodes. An empty result signals a
// rejected update, not a valid filter: FilterState translates it into a
// revert.
func (r FilterReducer) Reduce(ev Event, forest *model.Forest) []int {
	checked := checkedInOrder(ev, forest, r.Root)
	if len(checked) == 0 {
		return nil
	}

	covered := make(map[int]bool, len(checked))
	out := make([]int, 0, len(checked))
	for _, node := range checked {
		if covered[node.Key] {
			continue // an ancestor was already emitted
		}
		out = append(out, node.Key)
		node.Walk(func(d *model.CategoryNode) bool {
			covered[d.Key] = true
			return true
		})
	}
	return out
}

// FilterState holds the canonical filter selection for one category
// root of one panel. Once initialized it is never empty: a deselect-all
// event is rejected and the previous selection kept, falling back to
// "whole root selected" when there is nothing to keep.
type FilterState struct {
	forest   *model.Forest
	rootName string
	rootKey  int
	keys     []int
}

// NewFilterState creates the selection state for one root, defaulting
// to the whole root selected (the unfiltered state). Returns an error
// when the root does not exist in the forest, which after a database
// switch means the caller is holding a stale root name.
func NewFilterState(forest *model.Forest, rootName string) (*FilterState, error) {
	root := forest.Root(rootName)
	if root == nil {
		return nil, fmt.Errorf("unknown category root %q", rootName)
	}
	return &FilterState{
		forest:   forest,
		rootName: rootName,
		rootKey:  root.Key,
		keys:     []int{root.Key},
	}, nil
}

// RootName returns the top-level category this state filters on.
func (s *FilterState) RootName() string { return s.rootName }

// RootKey returns the key of the root node.
func (s *FilterState) RootKey() int { return s.rootKey }

// Keys returns the canonical rolled-up selection. The slice is a copy;
// mutating it does not affect the state.
func (s *FilterState) Keys() []int {
	return append([]int(nil), s.keys...)
}

// Apply reduces a raw widget event into this state. It reports whether
// the event was accepted; a rejected event (nothing selected within the
// root) leaves the previous selection in place, reverting to the
// whole-root default when no previous selection exists.
func (s *FilterState) Apply(ev Event) bool {
	reduced := FilterReducer{Root: s.rootName}.Reduce(ev, s.forest)
	if len(reduced) == 0 {
		if len(s.keys) == 0 {
			s.keys = []int{s.rootKey}
		}
		return false
	}
	s.keys = reduced
	return true
}

// Reset restores the whole-root default selection.
func (s *FilterState) Reset() {
	s.keys = []int{s.rootKey}
}

// Unfiltered reports whether the selection is the whole-root default.
func (s *FilterState) Unfiltered() bool {
	return len(s.keys) == 1 && s.keys[0] == s.rootKey
}

// Chips returns the display labels for the current selection. The root
// node renders as "All <label>", the signal that this dimension is
// unfiltered; every other node renders as its own label.
func (s *FilterState) Chips() []string {
	chips := make([]string, 0, len(s.keys))
	for _, key := range s.keys {
		node := s.forest.Node(key)
		if node == nil {
			continue
		}
		if key == s.rootKey {
			chips = append(chips, "All "+node.Label)
			continue
		}
		chips = append(chips, node.Label)
	}
	return chips
}

// CoveredLeaves returns the union of leaf keys reachable from the
// current selection, the domain subset that actually passes the filter.
func (s *FilterState) CoveredLeaves() map[int]bool {
	leaves := make(map[int]bool)
	for _, key := range s.keys {
		node := s.forest.Node(key)
		if node == nil {
			continue
		}
		for _, leaf := range node.Leaves() {
			leaves[leaf] = true
		}
	}
	return leaves
}
