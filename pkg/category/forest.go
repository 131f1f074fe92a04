// Package category builds the category forest from the flat metadata
// table of a result database.
//
// A forest is built once per database and shared read-only by every
// panel pointed at that database. Selection state never lives on the
// nodes, so rebuilds only happen when the active database changes.
package category

import (
	"fmt"

	"github.com/TulipaEnergy/tulipaviz/pkg/model"
)

// Diagnostic describes a non-fatal problem found while building the
// forest. Construction always succeeds; diagnostics are surfaced to the
// user as warnings.
type Diagnostic struct {
	Key     int
	Message string
}

func (d Diagnostic) String() string {
	return d.Message
}

// Build converts flat category rows into one tree per top-level
// category name. Two passes: the first allocates a node per row, the
// second links children to parents in row order, so caller-provided
// ordering becomes the tree's display order.
//
// Recovery policy: a row whose parent cannot be located, or that sits
// on a parent-reference cycle, is promoted to a forest root instead of
// being dropped. The broken reference is reported as a diagnostic.
//
// An empty row set yields an empty forest, not an error: callers treat
// "no category metadata" as a legitimate disabled state.
func Build(rows []model.CategoryRow) (*model.Forest, []Diagnostic) {
	forest := model.NewForest()
	if len(rows) == 0 {
		return forest, nil
	}

	// Pass 1: allocate one node per row, no linking yet.
	nodes := make(map[int]*model.CategoryNode, len(rows))
	var diags []Diagnostic
	for _, row := range rows {
		if _, dup := nodes[row.ID]; dup {
			diags = append(diags, Diagnostic{
				Key:     row.ID,
				Message: fmt.Sprintf("duplicate category id %d (%q), keeping first occurrence", row.ID, row.Name),
			})
			continue
		}
		nodes[row.ID] = &model.CategoryNode{Key: row.ID, Label: row.Name}
	}

	// Rows on a parent-reference cycle can never reach a root; linking
	// them as declared would loop the tree walkers. They are promoted
	// to roots below, which breaks every cycle.
	cyclic := cycleMembers(rows)

	// Pass 2: link children in row order, collecting roots.
	type rootEntry struct {
		name string
		node *model.CategoryNode
	}
	var roots []rootEntry
	seenChild := make(map[int]bool, len(rows))
	for _, row := range rows {
		node := nodes[row.ID]
		if seenChild[row.ID] {
			continue // duplicate row, already placed
		}
		seenChild[row.ID] = true

		switch {
		case row.IsRoot():
			roots = append(roots, rootEntry{row.Name, node})

		case cyclic[row.ID]:
			diags = append(diags, Diagnostic{
				Key:     row.ID,
				Message: fmt.Sprintf("category %d (%q) is part of a parent-reference cycle, promoted to root", row.ID, row.Name),
			})
			roots = append(roots, rootEntry{row.Name, node})

		default:
			parent, ok := nodes[row.ParentID]
			if !ok || row.ParentID == row.ID {
				diags = append(diags, Diagnostic{
					Key:     row.ID,
					Message: fmt.Sprintf("category %d (%q) references unknown parent %d, promoted to root", row.ID, row.Name, row.ParentID),
				})
				roots = append(roots, rootEntry{row.Name, node})
				break
			}
			parent.Children = append(parent.Children, node)
		}
	}

	for _, r := range roots {
		name := r.name
		if _, taken := forest.Roots[name]; taken {
			// A promoted orphan may share its label with a real root.
			name = fmt.Sprintf("%s#%d", r.name, r.node.Key)
		}
		forest.AddRoot(name, r.node)
	}
	return forest, diags
}
