package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/bargauge"
	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// ScoredRate returns a timeseries panel showing listings scored per minute.
func ScoredRate() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Scored / min").
		Description("Listings ranked per minute").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(8).
		WithTarget(PromQuery(`sum(rate(`+jobSel("dealfinder_listings_scored_total")+`[5m])) * 60`, "scored/min", "A")).
		FillOpacity(10).
		LineWidth(2).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}

// ScoreDistribution returns a bar gauge panel showing the distribution of
// combined listing scores across histogram buckets.
func ScoreDistribution() *bargauge.PanelBuilder {
	return bargauge.NewPanelBuilder().
		Title("Score Distribution").
		Description("Distribution of combined listing scores (0-2)").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(16).
		WithTarget(PromQuery(
			`sum(increase(`+jobSel("dealfinder_scoring_distribution_bucket")+`[1h])) by (le)`,
			"{{le}}", "A",
		)).
		Orientation(common.VizOrientationHorizontal).
		Min(0).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic())
}
