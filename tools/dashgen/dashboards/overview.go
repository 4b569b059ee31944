// Package dashboards assembles Grafana dashboard definitions from panel builders.
package dashboards

import (
	"github.com/grafana/grafana-foundation-sdk/go/dashboard"

	"github.com/donaldgifford/collection-watcher/tools/dashgen/panels"
)

// OverviewUID is the stable dashboard uid used for provisioning.
const OverviewUID = "cw-overview"

// BuildOverview constructs the Collection Watcher overview dashboard.
func BuildOverview() *dashboard.DashboardBuilder {
	b := dashboard.NewDashboardBuilder("Collection Watcher").
		Uid(OverviewUID).
		Tags([]string{"cw", "collection-watcher"}).
		Refresh("1m").
		Time("now-24h", "now").
		Timezone("browser").
		Editable().
		Tooltip(dashboard.DashboardCursorSyncCrosshair).
		WithVariable(datasourceVar())

	b.WithRow(dashboard.NewRowBuilder("Overview").
		WithPanel(panels.HealthzStat()).
		WithPanel(panels.ReadyzStat()).
		WithPanel(panels.LastSeenStat()).
		WithPanel(panels.NextPollStat()))

	b.WithRow(dashboard.NewRowBuilder("Watcher").
		WithPanel(panels.NewCollections()).
		WithPanel(panels.SkippedCycles()).
		WithPanel(panels.PersistenceFailures()).
		WithPanel(panels.CyclesByOutcome()).
		WithPanel(panels.CycleDuration()))

	b.WithRow(dashboard.NewRowBuilder("Marketplace").
		WithPanel(panels.MarketplaceRequests()).
		WithPanel(panels.MarketplaceLatency()))

	b.WithRow(dashboard.NewRowBuilder("Notifications").
		WithPanel(panels.NotificationsSent()).
		WithPanel(panels.NotificationLatency()).
		WithPanel(panels.NotificationFailures()))

	b.WithRow(dashboard.NewRowBuilder("Aggregator").
		WithPanel(panels.AggregateRuns()).
		WithPanel(panels.AggregateItems()))

	b.WithRow(dashboard.NewRowBuilder("HTTP").
		WithPanel(panels.RequestRate()).
		WithPanel(panels.RequestLatency()).
		WithPanel(panels.ErrorRate()))

	return b
}

func datasourceVar() *dashboard.DatasourceVariableBuilder {
	return dashboard.NewDatasourceVariableBuilder("datasource").
		Label("Datasource").
		Type("prometheus")
}
