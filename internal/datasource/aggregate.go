package datasource

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/TulipaEnergy/tulipaviz/pkg/metrics"
	"github.com/TulipaEnergy/tulipaviz/pkg/model"
)

// AggregateRequest describes one chart query: which result table to
// aggregate, under which filters, grouped by which breakdown categories.
//
// Filters map a root category key to the selected keys inside that
// dimension; an asset must fall under at least one selected key in every
// filtered dimension. Breakdown keys partition matching assets into one
// series per key, with everything in no selected subtree collected into
// the "other" series.
type AggregateRequest struct {
	Table       string
	AssetColumn string
	ValueColumn string
	TimeColumn  string
	YearColumn  string

	Resolution model.Resolution
	Year       int
	Filters    map[int][]int
	Breakdown  []int
}

// SeriesPoint is one aggregated value: the series it belongs to and the
// time bucket it covers. Bucket is the index of a Resolution-sized
// window on the global timeline.
type SeriesPoint struct {
	Group  string
	Bucket int64
	Value  float64
}

// OtherGroup is the series name for assets outside every selected
// breakdown subtree.
const OtherGroup = "other"

var identifierRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func validIdentifier(name string) error {
	if !identifierRe.MatchString(name) {
		return fmt.Errorf("invalid identifier %q", name)
	}
	return nil
}

func (req *AggregateRequest) normalize() error {
	if req.AssetColumn == "" {
		req.AssetColumn = "asset"
	}
	if req.ValueColumn == "" {
		req.ValueColumn = "value"
	}
	if req.TimeColumn == "" {
		req.TimeColumn = "global_start"
	}
	if req.YearColumn == "" {
		req.YearColumn = "milestone_year"
	}
	if req.Resolution <= 0 {
		req.Resolution = model.ResolutionHours
	}
	for _, name := range []string{req.Table, req.AssetColumn, req.ValueColumn, req.TimeColumn, req.YearColumn} {
		if err := validIdentifier(name); err != nil {
			return err
		}
	}
	return nil
}

// Aggregate runs the request against the database and returns the points
// ordered by series then bucket.
func (r *Reader) Aggregate(ctx context.Context, req AggregateRequest) ([]SeriesPoint, error) {
	defer metrics.Timer(metrics.QueryAggregate)()

	if err := req.normalize(); err != nil {
		return nil, err
	}
	query, args := buildAggregateQuery(req)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("aggregate %s: %w", req.Table, err)
	}
	defer rows.Close()

	var points []SeriesPoint
	for rows.Next() {
		var p SeriesPoint
		if err := rows.Scan(&p.Group, &p.Bucket, &p.Value); err != nil {
			return nil, fmt.Errorf("scan aggregate row: %w", err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating aggregate rows: %w", err)
	}
	return points, nil
}

// buildAggregateQuery assembles the SQL and its arguments. Category
// subtrees are expanded with recursive CTEs; UNION (not UNION ALL) keeps
// the expansion terminating even if the stored hierarchy contains a
// cycle.
func buildAggregateQuery(req AggregateRequest) (string, []any) {
	var b strings.Builder
	var args []any

	hasFilters := len(req.Filters) > 0
	hasBreakdown := len(req.Breakdown) > 0

	var ctes []string
	if hasFilters {
		seeds, seedArgs := seedValues(filterSeeds(req.Filters))
		args = append(args, seedArgs...)
		ctes = append(ctes, fmt.Sprintf(
			`fexp(dim, id) AS (VALUES %s UNION SELECT f.dim, c.id FROM category c JOIN fexp f ON c.parent_id = f.id AND c.id <> c.parent_id)`,
			seeds))
	}
	if hasBreakdown {
		var gseeds [][2]int
		for _, key := range req.Breakdown {
			gseeds = append(gseeds, [2]int{key, key})
		}
		seeds, seedArgs := seedValues(gseeds)
		args = append(args, seedArgs...)
		ctes = append(ctes, fmt.Sprintf(
			`gexp(gid, id) AS (VALUES %s UNION SELECT g.gid, c.id FROM category c JOIN gexp g ON c.parent_id = g.id AND c.id <> c.parent_id)`,
			seeds))
	}
	if len(ctes) > 0 {
		b.WriteString("WITH RECURSIVE ")
		b.WriteString(strings.Join(ctes, ", "))
		b.WriteString(" ")
	}

	if hasBreakdown {
		b.WriteString(fmt.Sprintf("SELECT COALESCE(gc.name, '%s') AS grp, ", OtherGroup))
	} else {
		b.WriteString("SELECT '' AS grp, ")
	}
	fmt.Fprintf(&b, "(t.%s / ?) AS bucket, SUM(t.%s) AS value FROM %q t",
		req.TimeColumn, req.ValueColumn, req.Table)
	args = append(args, int(req.Resolution))

	if hasBreakdown {
		// One group per asset: an asset also mapped into other
		// dimensions must not leak into the "other" series through
		// those mappings.
		fmt.Fprintf(&b,
			" LEFT JOIN (SELECT ac.asset, MIN(g.gid) AS gid"+
				" FROM asset_category ac JOIN gexp g ON g.id = ac.category_id"+
				" GROUP BY ac.asset) m ON m.asset = t.%s"+
				" LEFT JOIN category gc ON gc.id = m.gid",
			req.AssetColumn)
	}

	var where []string
	if req.Year != 0 {
		where = append(where, fmt.Sprintf("t.%s = ?", req.YearColumn))
		args = append(args, req.Year)
	}
	if hasFilters {
		// One EXISTS per filtered dimension: conjunction across
		// dimensions, union within one.
		for _, dim := range sortedRoots(req.Filters) {
			where = append(where, fmt.Sprintf(
				"EXISTS (SELECT 1 FROM asset_category fac JOIN fexp fe ON fe.id = fac.category_id WHERE fac.asset = t.%s AND fe.dim = ?)",
				req.AssetColumn))
			args = append(args, dim)
		}
	}
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}

	b.WriteString(" GROUP BY grp, bucket ORDER BY grp, bucket")
	return b.String(), args
}

// filterSeeds flattens the filter map into (dimension, key) seed pairs in
// a deterministic order.
func filterSeeds(filters map[int][]int) [][2]int {
	var seeds [][2]int
	for _, dim := range sortedRoots(filters) {
		for _, key := range filters[dim] {
			seeds = append(seeds, [2]int{dim, key})
		}
	}
	return seeds
}

func sortedRoots(filters map[int][]int) []int {
	roots := make([]int, 0, len(filters))
	for root := range filters {
		roots = append(roots, root)
	}
	sort.Ints(roots)
	return roots
}

func seedValues(seeds [][2]int) (string, []any) {
	parts := make([]string, len(seeds))
	args := make([]any, 0, len(seeds)*2)
	for i, s := range seeds {
		parts[i] = "(?, ?)"
		args = append(args, s[0], s[1])
	}
	return strings.Join(parts, ", "), args
}
