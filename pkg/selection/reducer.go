// Package selection turns raw tree-widget selection events into the
// canonical key sets the query layer consumes.
//
// Two engines share the tree walking but deliberately not the
// semantics: the filter engine collapses selections to a minimal
// covering set and refuses to go empty, while the breakdown engine
// keeps mixed-depth selections verbatim and treats empty as "no
// grouping". The asymmetry is intentional: an empty filter would
// silently exclude all data, but an empty breakdown is a meaningful
// aggregation mode.
package selection

import (
	"github.com/TulipaEnergy/tulipaviz/pkg/model"
)

// NodeState mirrors the tri-state a tree widget reports for one node.
// PartialChecked means some but not all descendants are selected, which
// is never a valid selection on its own.
type NodeState struct {
	Checked        bool
	PartialChecked bool
}

// Event is the raw widget payload: node key to state for every node the
// widget currently considers touched. Widgets are not trusted: keys
// are validated against the forest before use, which also drops stale
// keys left over from a previous database's forest.
type Event map[int]NodeState

// Checked builds an event in which exactly the given keys are fully
// checked. Useful for tests and for replaying a canonical set back into
// a widget.
func Checked(keys ...int) Event {
	ev := make(Event, len(keys))
	for _, k := range keys {
		ev[k] = NodeState{Checked: true}
	}
	return ev
}

// Reducer reduces a raw selection event over a forest to a canonical
// key list. Implementations must ignore keys unknown to the forest.
type Reducer interface {
	Reduce(ev Event, forest *model.Forest) []int
}

// checkedInOrder walks the forest in display order (roots in source
// order, subtrees depth-first) and returns the nodes the event marks as
// fully checked. Partially checked nodes are skipped, as are keys the
// forest does not know. Restricting to a single root happens here so
// both engines validate root membership the same way.
func checkedInOrder(ev Event, forest *model.Forest, root string) []*model.CategoryNode {
	if forest.Empty() || len(ev) == 0 {
		return nil
	}

	names := forest.RootNames
	if root != "" {
		if forest.Root(root) == nil {
			return nil
		}
		names = []string{root}
	}

	var out []*model.CategoryNode
	for _, name := range names {
		forest.Root(name).Walk(func(n *model.CategoryNode) bool {
			if st, ok := ev[n.Key]; ok && st.Checked && !st.PartialChecked {
				out = append(out, n)
			}
			return true
		})
	}
	return out
}
