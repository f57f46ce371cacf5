package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/stat"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// ListingsRate returns a timeseries panel showing fetched and duplicate
// listings per minute.
func ListingsRate() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Listings / min").
		Description("New and duplicate listings returned by searches per minute").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(8).
		WithTarget(PromQuery(`dealfinder:listings_fetched:rate5m * 60`, "new", "A")).
		WithTarget(PromQuery(`sum(rate(`+jobSel("dealfinder_listings_duplicate_total")+`[5m])) * 60`, "duplicate", "B")).
		FillOpacity(10).
		LineWidth(2).
		Tooltip(MultiTooltip()).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}

// KeepRatio returns a timeseries panel showing the share of classified
// listings kept by the filter.
func KeepRatio() *timeseries.PanelBuilder {
	expr := `sum(rate(dealfinder_listings_filtered_total{job="deal-finder",decision="keep"}[5m])) / ` +
		`sum(rate(` + jobSel("dealfinder_listings_filtered_total") + `[5m])) * 100`
	return timeseries.NewPanelBuilder().
		Title("Filter Keep %").
		Description("Percentage of classified listings judged relevant").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(8).
		WithTarget(PromQuery(expr, "kept %", "A")).
		Unit("percent").
		FillOpacity(10).
		LineWidth(2).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}

// FetchErrors returns a stat panel showing failed search pages in the
// past hour.
func FetchErrors() *stat.PanelBuilder {
	return stat.NewPanelBuilder().
		Title("Fetch Errors (1h)").
		Description("Search pages that failed and were skipped").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(8).
		WithTarget(PromQuery(`increase(`+jobSel("dealfinder_fetch_errors_total")+`[1h])`, "", "A")).
		Thresholds(ThresholdsGreenYellowRed(1, 10)).
		ColorScheme(ColorSchemeThresholds()).
		ColorMode(common.BigValueColorModeBackground).
		GraphMode(common.BigValueGraphModeArea)
}
