// Package dashboards assembles Grafana dashboard definitions from panel builders.
package dashboards

import (
	"github.com/grafana/grafana-foundation-sdk/go/dashboard"

	"github.com/donaldgifford/deal-finder/tools/dashgen/panels"
)

// BuildOverview constructs the Deal Finder Overview dashboard with all
// metric rows.
func BuildOverview() *dashboard.DashboardBuilder {
	b := dashboard.NewDashboardBuilder("Deal Finder Overview").
		Uid("dealfinder-overview").
		Tags([]string{"dealfinder", "deal-finder"}).
		Refresh("30s").
		Time("now-6h", "now").
		Timezone("browser").
		Editable().
		Tooltip(dashboard.DashboardCursorSyncCrosshair).
		WithVariable(datasourceVar())

	b.WithRow(dashboard.NewRowBuilder("Overview").
		WithPanel(panels.HealthzStat()).
		WithPanel(panels.ReadyzStat()).
		WithPanel(panels.QuotaGauge()).
		WithPanel(panels.UptimeStat()))

	b.WithRow(dashboard.NewRowBuilder("HTTP").
		WithPanel(panels.RequestRate()).
		WithPanel(panels.LatencyPercentiles()).
		WithPanel(panels.ErrorRate()))

	b.WithRow(dashboard.NewRowBuilder("Pipeline").
		WithPanel(panels.RunsInFlight()).
		WithPanel(panels.RunsRate()).
		WithPanel(panels.RunFailures()).
		WithPanel(panels.StageDuration()).
		WithPanel(panels.EventsDropped()))

	b.WithRow(dashboard.NewRowBuilder("Marketplace Search").
		WithPanel(panels.SearchCallsRate()).
		WithPanel(panels.SearchLatency()).
		WithPanel(panels.DailyUsage()).
		WithPanel(panels.LimitHits()))

	b.WithRow(dashboard.NewRowBuilder("Listings").
		WithPanel(panels.ListingsRate()).
		WithPanel(panels.KeepRatio()).
		WithPanel(panels.FetchErrors()))

	b.WithRow(dashboard.NewRowBuilder("Model").
		WithPanel(panels.LLMLatency()).
		WithPanel(panels.LLMErrors()).
		WithPanel(panels.TokenRate()))

	b.WithRow(dashboard.NewRowBuilder("Scoring").
		WithPanel(panels.ScoredRate()).
		WithPanel(panels.ScoreDistribution()))

	b.WithRow(dashboard.NewRowBuilder("Notifications").
		WithPanel(panels.NotificationsRate()).
		WithPanel(panels.NotificationLatency()).
		WithPanel(panels.NotificationFailures()))

	return b
}

func datasourceVar() *dashboard.DatasourceVariableBuilder {
	return dashboard.NewDatasourceVariableBuilder("datasource").
		Label("Datasource").
		Type("prometheus")
}
