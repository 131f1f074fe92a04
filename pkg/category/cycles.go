package category

import (
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/TulipaEnergy/tulipaviz/pkg/model"
)

// cycleMembers finds category ids that sit on a parent-reference cycle.
// The parent links are modeled as a directed child->parent graph; any
// strongly connected component larger than one node is a cycle. Root
// rows and self-references are excluded here (self-references are
// handled by the unknown-parent path, and simple.DirectedGraph rejects
// self-edges anyway).
func cycleMembers(rows []model.CategoryRow) map[int]bool {
	known := make(map[int]bool, len(rows))
	for _, row := range rows {
		known[row.ID] = true
	}

	g := simple.NewDirectedGraph()
	for _, row := range rows {
		if g.Node(int64(row.ID)) == nil {
			g.AddNode(simple.Node(row.ID))
		}
		if row.IsRoot() || row.ParentID == row.ID || !known[row.ParentID] {
			continue
		}
		if g.Node(int64(row.ParentID)) == nil {
			g.AddNode(simple.Node(row.ParentID))
		}
		g.SetEdge(g.NewEdge(simple.Node(row.ID), simple.Node(row.ParentID)))
	}

	members := make(map[int]bool)
	for _, scc := range topo.TarjanSCC(g) {
		if len(scc) < 2 {
			continue
		}
		for _, n := range scc {
			members[int(n.ID())] = true
		}
	}
	return members
}
