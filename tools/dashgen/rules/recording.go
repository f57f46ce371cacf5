package rules

// RecordingRules returns a PrometheusRule CR containing pre-computed rate
// expressions used by dashboards and alert rules.
func RecordingRules() PrometheusRule {
	return PrometheusRule{
		APIVersion: "monitoring.coreos.com/v1",
		Kind:       "PrometheusRule",
		Metadata: PrometheusRuleMetadata{
			Name: "dealfinder-recording-rules",
			Labels: map[string]string{
				"prometheus": "system-rules-prometheus",
			},
		},
		Spec: PrometheusRuleSpec{
			Groups: []RuleGroup{
				{
					Name: "dealfinder-recording",
					Rules: []Rule{
						{
							Record: "dealfinder:http_requests:rate5m",
							Expr:   `sum(rate(dealfinder_http_requests_total[5m]))`,
						},
						{
							Record: "dealfinder:http_errors:rate5m",
							Expr:   `sum(rate(dealfinder_http_requests_total{status=~"5.."}[5m]))`,
						},
						{
							Record: "dealfinder:pipeline_runs:rate5m",
							Expr:   `sum(rate(dealfinder_pipeline_runs_total[5m])) by (status)`,
						},
						{
							Record: "dealfinder:pipeline_failures:rate5m",
							Expr:   `sum(rate(dealfinder_pipeline_runs_total{status="failed"}[5m])) by (reason)`,
						},
						{
							Record: "dealfinder:search_calls:rate5m",
							Expr:   `sum(rate(dealfinder_search_calls_total[5m])) by (provider, status)`,
						},
						{
							Record: "dealfinder:listings_fetched:rate5m",
							Expr:   `sum(rate(dealfinder_listings_fetched_total[5m]))`,
						},
						{
							Record: "dealfinder:llm_failures:rate5m",
							Expr:   `sum(rate(dealfinder_llm_failures_total[5m])) by (call)`,
						},
						{
							Record: "dealfinder:notification_duration:p95_5m",
							Expr:   `histogram_quantile(0.95, sum(rate(dealfinder_notification_duration_seconds_bucket[5m])) by (le))`,
						},
					},
				},
			},
		},
	}
}
