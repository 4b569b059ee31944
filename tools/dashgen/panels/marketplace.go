package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// MarketplaceRequests returns a timeseries panel showing marketplace calls per
// second by endpoint and outcome.
func MarketplaceRequests() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Marketplace Requests").
		Description("Marketplace API calls per second by endpoint and outcome").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(TSWidth).
		WithTarget(PromQuery(`cw:marketplace_requests:rate5m`, "{{endpoint}} {{outcome}}", "A")).
		Unit("reqps").
		FillOpacity(10).
		LineWidth(2).
		Legend(TableLegend("mean", "max")).
		Tooltip(MultiTooltip()).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}

// MarketplaceLatency returns a timeseries panel showing p95 marketplace
// latency per endpoint.
func MarketplaceLatency() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Marketplace Latency (p95)").
		Description("95th percentile marketplace request duration by endpoint").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(TSWidth).
		WithTarget(PromQuery(
			P95("cw_marketplace_request_duration_seconds", "endpoint"),
			"{{endpoint}}", "A",
		)).
		Unit("s").
		FillOpacity(10).
		LineWidth(2).
		Tooltip(MultiTooltip()).
		Thresholds(ThresholdsGreenYellowRed(5, 15)).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}
