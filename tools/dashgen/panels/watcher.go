package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/stat"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// CyclesByOutcome returns a timeseries panel showing poll cycles per minute
// split by outcome.
func CyclesByOutcome() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Cycles / min").
		Description("Poll cycles per minute by outcome").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(TSWidth).
		WithTarget(PromQuery(`cw:cycles:rate5m * 60`, "{{outcome}}", "A")).
		FillOpacity(10).
		LineWidth(2).
		Legend(TableLegend("mean", "max")).
		Tooltip(MultiTooltip()).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}

// CycleDuration returns a timeseries panel showing the p95 poll cycle
// duration.
func CycleDuration() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Cycle Duration (p95)").
		Description("95th percentile poll cycle duration").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(TSWidth).
		WithTarget(PromQuery(P95("cw_cycle_duration_seconds"), "p95", "A")).
		Unit("s").
		FillOpacity(10).
		LineWidth(2).
		Thresholds(ThresholdsGreenYellowRed(30, 120)).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}

// NewCollections returns a stat panel counting collections detected in the
// past 24 hours.
func NewCollections() *stat.PanelBuilder {
	return stat.NewPanelBuilder().
		Title("New Collections (24h)").
		Description("Cycles that detected a new collection in the last 24 hours").
		Datasource(DSRef()).
		Height(StatHeight).
		Span(StatWidth).
		WithTarget(PromQuery(
			`sum(increase(`+Selector("cw_cycles_total", `outcome="new_found"`)+`[24h]))`,
			"", "A",
		)).
		Decimals(0).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemeThresholds()).
		GraphMode(common.BigValueGraphModeArea)
}

// SkippedCycles returns a stat panel counting ticks dropped because a cycle
// was still running.
func SkippedCycles() *stat.PanelBuilder {
	return stat.NewPanelBuilder().
		Title("Skipped Cycles (24h)").
		Description("Ticks skipped because the previous cycle was still in flight").
		Datasource(DSRef()).
		Height(StatHeight).
		Span(StatWidth).
		WithTarget(PromQuery(`sum(increase(`+Selector("cw_cycles_skipped_total")+`[24h]))`, "", "A")).
		Decimals(0).
		Thresholds(ThresholdsGreenYellowRed(1, 10)).
		ColorScheme(ColorSchemeThresholds()).
		ColorMode(common.BigValueColorModeBackground).
		GraphMode(common.BigValueGraphModeNone)
}

// PersistenceFailures returns a stat panel counting state save/load failures.
func PersistenceFailures() *stat.PanelBuilder {
	return stat.NewPanelBuilder().
		Title("Persistence Failures (24h)").
		Description("State store read or write failures in the last 24 hours").
		Datasource(DSRef()).
		Height(StatHeight).
		Span(StatWidth).
		WithTarget(PromQuery(`sum(increase(`+Selector("cw_persistence_failures_total")+`[24h]))`, "", "A")).
		Decimals(0).
		Thresholds(ThresholdsGreenYellowRed(1, 3)).
		ColorScheme(ColorSchemeThresholds()).
		ColorMode(common.BigValueColorModeBackground).
		GraphMode(common.BigValueGraphModeNone)
}
