package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/stat"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// RunsInFlight returns a stat panel showing pipeline runs in progress.
func RunsInFlight() *stat.PanelBuilder {
	return stat.NewPanelBuilder().
		Title("Runs In Flight").
		Description("Pipeline runs currently executing").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(StatWidth).
		WithTarget(PromQuery(jobSel("dealfinder_pipeline_runs_in_flight"), "", "A")).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemeThresholds()).
		GraphMode(common.BigValueGraphModeArea)
}

// RunsRate returns a timeseries panel showing finished runs per minute
// by outcome.
func RunsRate() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Runs / min").
		Description("Finished pipeline runs per minute by status").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(6).
		WithTarget(PromQuery(`dealfinder:pipeline_runs:rate5m * 60`, "{{status}}", "A")).
		FillOpacity(10).
		LineWidth(2).
		Legend(TableLegend("mean", "max")).
		Tooltip(MultiTooltip()).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}

// RunFailures returns a timeseries panel showing failed runs per minute
// by failure reason.
func RunFailures() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Run Failures / min").
		Description("Failed pipeline runs per minute by reason").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(6).
		WithTarget(PromQuery(`dealfinder:pipeline_failures:rate5m * 60`, "{{reason}}", "A")).
		FillOpacity(10).
		LineWidth(2).
		Tooltip(MultiTooltip()).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleBars)
}

// StageDuration returns a timeseries panel showing p95 duration per
// pipeline stage.
func StageDuration() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Stage Duration (p95)").
		Description("95th percentile duration of each pipeline stage").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(6).
		WithTarget(PromQuery(quantile(0.95, "dealfinder_pipeline_stage_duration_seconds", "stage"), "{{stage}}", "A")).
		Unit("s").
		FillOpacity(10).
		LineWidth(2).
		Legend(TableLegend("mean", "max")).
		Tooltip(MultiTooltip()).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}

// EventsDropped returns a stat panel showing progress events dropped for
// slow streaming clients.
func EventsDropped() *stat.PanelBuilder {
	return stat.NewPanelBuilder().
		Title("Events Dropped (1h)").
		Description("Progress events dropped because a stream consumer fell behind").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(StatWidth).
		WithTarget(PromQuery(`increase(`+jobSel("dealfinder_pipeline_events_dropped_total")+`[1h])`, "", "A")).
		Thresholds(ThresholdsGreenYellowRed(1, 100)).
		ColorScheme(ColorSchemeThresholds()).
		ColorMode(common.BigValueColorModeBackground).
		GraphMode(common.BigValueGraphModeArea)
}
