package store

import (
	"fmt"
	"sort"
	"strings"

	"github.com/TulipaEnergy/tulipaviz/pkg/model"
)

// QuerySignature is the comparable snapshot of everything a chart
// consumer's query depends on. A consumer re-derives its data whenever
// the signature differs from the one it last fetched under; the apply
// token forces recomputation even when the filter/breakdown content
// happens to be identical (deselect then reselect the same nodes).
type QuerySignature struct {
	Database   string
	Resolution model.Resolution
	Year       int
	Filters    string
	Breakdown  string
	Apply      int64
}

// Signature returns the panel's current query signature.
func (s *Store) Signature(panelID string) (QuerySignature, bool) {
	cfg, ok := s.panels[panelID]
	if !ok {
		return QuerySignature{}, false
	}
	return QuerySignature{
		Database:   cfg.Database,
		Resolution: cfg.Options.Resolution,
		Year:       cfg.Options.Year,
		Filters:    digestFilters(cfg.Filters),
		Breakdown:  digestKeys(cfg.Breakdown),
		Apply:      cfg.LastApply,
	}, true
}

// digestFilters flattens the filter map into a canonical string, roots
// in ascending order so map iteration cannot perturb the digest.
func digestFilters(filters map[int][]int) string {
	if len(filters) == 0 {
		return ""
	}
	roots := make([]int, 0, len(filters))
	for root := range filters {
		roots = append(roots, root)
	}
	sort.Ints(roots)

	var b strings.Builder
	for i, root := range roots {
		if i > 0 {
			b.WriteByte(';')
		}
		fmt.Fprintf(&b, "%d=%s", root, digestKeys(filters[root]))
	}
	return b.String()
}

// digestKeys preserves order: breakdown order is meaningful to the
// query layer, and filter key order is already canonical.
func digestKeys(keys []int) string {
	if len(keys) == 0 {
		return ""
	}
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprint(k)
	}
	return strings.Join(parts, ",")
}
