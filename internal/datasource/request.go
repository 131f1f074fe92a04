package datasource

import (
	"github.com/TulipaEnergy/tulipaviz/pkg/model"
)

// chartTables maps each chart type to the result table and value column
// its aggregation reads.
var chartTables = map[model.ChartType]struct {
	table string
	value string
}{
	model.ChartCapacity:        {"var_assets_capacity", "capacity"},
	model.ChartProductionPrice: {"var_production_price", "price"},
	model.ChartStoragePrice:    {"var_storage_price", "price"},
	model.ChartTransportPrice:  {"var_transport_price", "price"},
	model.ChartSystemCost:      {"var_system_cost", "cost"},
	model.ChartResidualLoad:    {"var_residual_load", "load"},
}

// RequestFor translates a panel configuration into the aggregation
// request its chart needs.
func RequestFor(cfg *model.GraphConfig) AggregateRequest {
	entry, ok := chartTables[cfg.Type]
	if !ok {
		entry.table = "var_flow"
		entry.value = "value"
	}
	return AggregateRequest{
		Table:       entry.table,
		ValueColumn: entry.value,
		Resolution:  cfg.Options.Resolution,
		Year:        cfg.Options.Year,
		Filters:     cfg.Filters,
		Breakdown:   cfg.Breakdown,
	}
}
