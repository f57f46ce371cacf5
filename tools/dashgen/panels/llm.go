package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// LLMLatency returns a timeseries panel showing p95 model call latency by
// call kind.
func LLMLatency() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Model Latency (p95)").
		Description("95th percentile model call duration by call").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(8).
		WithTarget(PromQuery(quantile(0.95, "dealfinder_llm_call_duration_seconds", "call"), "{{call}}", "A")).
		Unit("s").
		FillOpacity(10).
		LineWidth(2).
		Legend(TableLegend("mean", "max")).
		Tooltip(MultiTooltip()).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}

// LLMErrors returns a timeseries panel showing model call failures and
// contract violations by call kind.
func LLMErrors() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Model Errors").
		Description("Failed model calls and malformed model output per second").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(8).
		WithTarget(PromQuery(`dealfinder:llm_failures:rate5m`, "failed {{call}}", "A")).
		WithTarget(PromQuery(
			`sum(rate(`+jobSel("dealfinder_llm_contract_errors_total")+`[5m])) by (call)`,
			"contract {{call}}", "B",
		)).
		FillOpacity(10).
		LineWidth(2).
		Tooltip(MultiTooltip()).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}

// TokenRate returns a timeseries panel showing tokens per minute by
// backend and direction.
func TokenRate() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Tokens / min").
		Description("Model tokens per minute by backend and direction").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(8).
		WithTarget(PromQuery(
			`sum(rate(`+jobSel("dealfinder_llm_tokens_total")+`[5m])) by (backend, direction) * 60`,
			"{{backend}} {{direction}}", "A",
		)).
		FillOpacity(10).
		LineWidth(2).
		Tooltip(MultiTooltip()).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}
