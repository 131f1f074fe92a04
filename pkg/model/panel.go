package model

import "time"

// ChartType identifies what a panel renders. The chart layer itself is
// external; the type only decides which aggregation the panel requests.
type ChartType string

const (
	ChartCapacity        ChartType = "capacity"
	ChartProductionPrice ChartType = "production_price"
	ChartStoragePrice    ChartType = "storage_price"
	ChartTransportPrice  ChartType = "transport_price"
	ChartSystemCost      ChartType = "system_cost"
	ChartResidualLoad    ChartType = "residual_load"
)

// ChartTypes lists the supported chart types in menu order.
var ChartTypes = []ChartType{
	ChartCapacity,
	ChartProductionPrice,
	ChartStoragePrice,
	ChartTransportPrice,
	ChartSystemCost,
	ChartResidualLoad,
}

// String returns a human-readable name for the chart type.
func (c ChartType) String() string {
	switch c {
	case ChartCapacity:
		return "Capacity"
	case ChartProductionPrice:
		return "Production price"
	case ChartStoragePrice:
		return "Storage price"
	case ChartTransportPrice:
		return "Transport price"
	case ChartSystemCost:
		return "System cost"
	case ChartResidualLoad:
		return "Residual load"
	default:
		return string(c)
	}
}

// Resolution is the time bucket length, in hours, used when aggregating
// result rows onto a global timeline.
type Resolution int

const (
	ResolutionHours  Resolution = 1
	ResolutionDays   Resolution = 24
	ResolutionWeeks  Resolution = 168
	ResolutionMonths Resolution = 730
	ResolutionYears  Resolution = 8760
)

// Resolutions lists the supported resolutions in menu order.
var Resolutions = []Resolution{
	ResolutionHours,
	ResolutionDays,
	ResolutionWeeks,
	ResolutionMonths,
	ResolutionYears,
}

func (r Resolution) String() string {
	switch r {
	case ResolutionHours:
		return "hours"
	case ResolutionDays:
		return "days"
	case ResolutionWeeks:
		return "weeks"
	case ResolutionMonths:
		return "months"
	case ResolutionYears:
		return "years"
	default:
		return "hours"
	}
}

// ChartOptions holds the per-panel query knobs that sit outside the
// category subsystem but still participate in invalidation.
type ChartOptions struct {
	Resolution Resolution `json:"resolution"`
	Year       int        `json:"year"`
}

// GraphConfig is the full configuration of one chart panel. Configs are
// owned exclusively by the store; everything else refers to a panel by
// ID and reads state through the store.
type GraphConfig struct {
	ID    string    `json:"id"`
	Type  ChartType `json:"type"`
	Title string    `json:"title"`

	// Database is the datasource ID the panel queries, empty until the
	// user assigns one.
	Database string       `json:"database"`
	Options  ChartOptions `json:"options"`

	// Filters maps a root category key to the canonical (rolled-up)
	// selection for that dimension. A missing root means "unfiltered".
	Filters map[int][]int `json:"filters"`

	// Breakdown lists the group-by node keys, all from BreakdownRoot.
	// Empty means "no breakdown, aggregate everything".
	Breakdown     []int  `json:"breakdown"`
	BreakdownRoot string `json:"breakdown_root"`

	// LastApply is a monotonically increasing change token bumped only
	// by an explicit apply. Consumers compare it, never interpret it.
	LastApply int64 `json:"last_apply"`

	CreatedAt time.Time `json:"created_at"`
}

// Clone returns a deep copy of the config so callers outside the store
// can never alias the store-owned maps and slices.
func (g *GraphConfig) Clone() *GraphConfig {
	if g == nil {
		return nil
	}
	out := *g
	if g.Filters != nil {
		out.Filters = make(map[int][]int, len(g.Filters))
		for root, keys := range g.Filters {
			out.Filters[root] = append([]int(nil), keys...)
		}
	}
	out.Breakdown = append([]int(nil), g.Breakdown...)
	return &out
}
