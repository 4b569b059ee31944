package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// AggregateRuns returns a timeseries panel showing aggregator runs by outcome.
func AggregateRuns() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Aggregate Runs").
		Description("Aggregator runs per hour by outcome").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(TSWidth).
		WithTarget(PromQuery(
			`sum by (outcome) (increase(`+Selector("cw_aggregate_runs_total")+`[1h]))`,
			"{{outcome}}", "A",
		)).
		FillOpacity(10).
		LineWidth(2).
		Legend(TableLegend("sum")).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleBars)
}

// AggregateItems returns a timeseries panel showing the median items priced
// per run.
func AggregateItems() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Items per Run (p50)").
		Description("Median number of items priced per aggregator run").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(TSWidth).
		WithTarget(PromQuery(
			`histogram_quantile(0.5, sum(rate(`+Selector("cw_aggregate_items_bucket")+`[1h])) by (le))`,
			"p50", "A",
		)).
		FillOpacity(10).
		LineWidth(2).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}
