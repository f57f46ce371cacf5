package main

import "errors"

// KnownMetrics is the set of metric names exported by deal-finder plus
// recording rule names referenced in dashboards and alerts.
var KnownMetrics = map[string]bool{
	// HTTP metrics.
	"dealfinder_http_request_duration_seconds": true,
	"dealfinder_http_requests_total":           true,

	// Health metrics.
	"dealfinder_healthz_up": true,
	"dealfinder_readyz_up":  true,

	// Pipeline metrics.
	"dealfinder_pipeline_runs_total":             true,
	"dealfinder_pipeline_runs_in_flight":         true,
	"dealfinder_pipeline_stage_duration_seconds": true,
	"dealfinder_pipeline_events_dropped_total":   true,

	// Listing metrics.
	"dealfinder_listings_fetched_total":   true,
	"dealfinder_listings_duplicate_total": true,
	"dealfinder_listings_filtered_total":  true,
	"dealfinder_listings_scored_total":    true,
	"dealfinder_scoring_distribution":     true,

	// Search metrics.
	"dealfinder_search_calls_total":            true,
	"dealfinder_search_call_duration_seconds":  true,
	"dealfinder_search_gate_wait_seconds":      true,
	"dealfinder_search_daily_usage":            true,
	"dealfinder_search_daily_limit_hits_total": true,
	"dealfinder_fetch_errors_total":            true,

	// LLM metrics.
	"dealfinder_llm_call_duration_seconds": true,
	"dealfinder_llm_failures_total":        true,
	"dealfinder_llm_contract_errors_total": true,
	"dealfinder_llm_tokens_total":          true,

	// Notification metrics.
	"dealfinder_notifications_sent_total":      true,
	"dealfinder_notification_failures_total":   true,
	"dealfinder_notification_duration_seconds": true,

	// Recording rules.
	"dealfinder:http_requests:rate5m":         true,
	"dealfinder:http_errors:rate5m":           true,
	"dealfinder:pipeline_runs:rate5m":         true,
	"dealfinder:pipeline_failures:rate5m":     true,
	"dealfinder:search_calls:rate5m":          true,
	"dealfinder:listings_fetched:rate5m":      true,
	"dealfinder:llm_failures:rate5m":          true,
	"dealfinder:notification_duration:p95_5m": true,

	// Standard Prometheus metrics referenced in dashboards.
	"up":                         true,
	"process_start_time_seconds": true,
}

// Config controls which artifacts the generator produces and where they go.
type Config struct {
	OutputDir        string
	DashboardEnabled bool
	RulesEnabled     bool
}

// DefaultConfig returns a Config that generates all artifacts into ../../deploy
// (relative to tools/dashgen/).
func DefaultConfig() Config {
	return Config{
		OutputDir:        "../../deploy",
		DashboardEnabled: true,
		RulesEnabled:     true,
	}
}

// Validate checks that the config is usable.
func (c Config) Validate() error {
	if c.OutputDir == "" {
		return errors.New("output directory must be set")
	}
	if !c.DashboardEnabled && !c.RulesEnabled {
		return errors.New("at least one of dashboard or rules must be enabled")
	}
	return nil
}
