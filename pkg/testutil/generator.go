// Package testutil provides shared helpers for building category
// fixtures and asserting on key sets in tests.
package testutil

import (
	"fmt"
	"testing"

	"github.com/TulipaEnergy/tulipaviz/pkg/category"
	"github.com/TulipaEnergy/tulipaviz/pkg/model"
)

// RowBuilder accumulates category rows with auto-assigned ids, so tests
// can describe a hierarchy without tracking key bookkeeping.
type RowBuilder struct {
	rows   []model.CategoryRow
	nextID int
}

// NewRowBuilder starts a builder whose first id is 1.
func NewRowBuilder() *RowBuilder {
	return &RowBuilder{nextID: 1}
}

// Root appends a top-level category row and returns its id.
func (b *RowBuilder) Root(name string) int {
	id := b.nextID
	b.nextID++
	b.rows = append(b.rows, model.CategoryRow{ID: id, Name: name, Level: model.RootLevel})
	return id
}

// Child appends a row under the given parent and returns its id.
func (b *RowBuilder) Child(parent int, name string, level int) int {
	id := b.nextID
	b.nextID++
	b.rows = append(b.rows, model.CategoryRow{ID: id, Name: name, ParentID: parent, Level: level})
	return id
}

// Rows returns the accumulated rows in insertion order.
func (b *RowBuilder) Rows() []model.CategoryRow {
	return b.rows
}

// BalancedRows generates roots each carrying a uniform tree of the
// given fanout and depth. Ids are assigned in generation order.
func BalancedRows(roots, fanout, depth int) []model.CategoryRow {
	b := NewRowBuilder()
	var grow func(parent, level, remaining int)
	grow = func(parent, level, remaining int) {
		if remaining == 0 {
			return
		}
		for i := 0; i < fanout; i++ {
			id := b.Child(parent, fmt.Sprintf("node-%d", b.nextID), level)
			grow(id, level+1, remaining-1)
		}
	}
	for r := 0; r < roots; r++ {
		root := b.Root(fmt.Sprintf("root-%d", r))
		grow(root, 0, depth)
	}
	return b.Rows()
}

// BuildForest builds a forest from rows and fails the test on any
// diagnostic, for fixtures that are supposed to be well-formed.
func BuildForest(t *testing.T, rows []model.CategoryRow) *model.Forest {
	t.Helper()
	forest, diags := category.Build(rows)
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics building fixture forest: %v", diags)
	}
	return forest
}
