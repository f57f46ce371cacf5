package panels

import (
	"fmt"

	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/stat"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// SearchCallsRate returns a timeseries panel showing marketplace calls per
// second by provider and outcome.
func SearchCallsRate() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Search Calls Rate").
		Description("Marketplace search calls per second").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(6).
		WithTarget(PromQuery(`dealfinder:search_calls:rate5m`, "{{provider}} {{status}}", "A")).
		Unit("reqps").
		FillOpacity(10).
		LineWidth(2).
		Tooltip(MultiTooltip()).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}

// SearchLatency returns a timeseries panel showing p95 search call latency
// and the p95 wait at the shared rate-limit gate.
func SearchLatency() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Search Latency (p95)").
		Description("Marketplace call duration and rate-limit gate wait").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(6).
		WithTarget(PromQuery(quantile(0.95, "dealfinder_search_call_duration_seconds", "provider"), "call {{provider}}", "A")).
		WithTarget(PromQuery(quantile(0.95, "dealfinder_search_gate_wait_seconds"), "gate wait", "B")).
		Unit("s").
		FillOpacity(10).
		LineWidth(2).
		Tooltip(MultiTooltip()).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}

// DailyUsage returns a timeseries panel showing today's search calls with
// a threshold line at the daily limit.
func DailyUsage() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Daily Usage vs Limit").
		Description(fmt.Sprintf("Search calls since the daily reset (limit: %d)", SearchDailyLimit)).
		Datasource(DSRef()).
		Height(TSHeight).
		Span(6).
		WithTarget(PromQuery(jobSel("dealfinder_search_daily_usage"), "usage", "A")).
		FillOpacity(10).
		LineWidth(2).
		Thresholds(ThresholdsGreenYellowRed(float64(SearchDailyLimit)*0.8, float64(SearchDailyLimit))).
		ColorScheme(ColorSchemeThresholds()).
		DrawStyle(common.GraphDrawStyleLine)
}

// LimitHits returns a stat panel showing searches rejected by the daily
// limit in the past 24 hours.
func LimitHits() *stat.PanelBuilder {
	return stat.NewPanelBuilder().
		Title("Limit Hits (24h)").
		Description("Search calls rejected because the daily limit was reached").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(6).
		WithTarget(PromQuery(`increase(`+jobSel("dealfinder_search_daily_limit_hits_total")+`[24h])`, "", "A")).
		Thresholds(ThresholdsGreenYellowRed(1, 3)).
		ColorScheme(ColorSchemeThresholds()).
		ColorMode(common.BigValueColorModeBackground).
		GraphMode(common.BigValueGraphModeArea)
}
