package rules

// AlertRules returns a PrometheusRule CR containing alert rules for
// deal-finder operational monitoring.
func AlertRules() PrometheusRule {
	return PrometheusRule{
		APIVersion: "monitoring.coreos.com/v1",
		Kind:       "PrometheusRule",
		Metadata: PrometheusRuleMetadata{
			Name: "dealfinder-alerts",
			Labels: map[string]string{
				"prometheus": "system-rules-prometheus",
			},
		},
		Spec: PrometheusRuleSpec{
			Groups: []RuleGroup{
				{
					Name: "dealfinder-alerts",
					Rules: []Rule{
						{
							Alert:  "DealFinderDown",
							Expr:   `absent(up{job="deal-finder"})`,
							For:    "2m",
							Labels: map[string]string{"severity": "critical"},
							Annotations: map[string]string{
								"summary":     "Deal Finder is down",
								"description": "The deal-finder job has been absent for more than 2 minutes.",
							},
						},
						{
							Alert:  "DealFinderReadinessDown",
							Expr:   `dealfinder_readyz_up == 0`,
							For:    "5m",
							Labels: map[string]string{"severity": "warning"},
							Annotations: map[string]string{
								"summary":     "Deal Finder is not ready",
								"description": "The readiness probe has failed for 5 minutes, usually because the daily search quota is spent.",
							},
						},
						{
							Alert:  "DealFinderHighErrorRate",
							Expr:   `dealfinder:http_errors:rate5m / dealfinder:http_requests:rate5m > 0.05`,
							For:    "5m",
							Labels: map[string]string{"severity": "warning"},
							Annotations: map[string]string{
								"summary":     "High HTTP error rate on Deal Finder",
								"description": "More than 5% of HTTP requests are returning 5xx errors over the last 5 minutes.",
							},
						},
						{
							Alert:  "DealFinderRunFailures",
							Expr:   `sum(dealfinder:pipeline_failures:rate5m) / sum(dealfinder:pipeline_runs:rate5m) > 0.25`,
							For:    "10m",
							Labels: map[string]string{"severity": "warning"},
							Annotations: map[string]string{
								"summary":     "Pipeline runs are failing",
								"description": "More than a quarter of pipeline runs have failed over the last 10 minutes.",
							},
						},
						{
							Alert:  "DealFinderModelContractErrors",
							Expr:   `sum(rate(dealfinder_llm_contract_errors_total[5m])) > 0.1`,
							For:    "5m",
							Labels: map[string]string{"severity": "warning"},
							Annotations: map[string]string{
								"summary":     "Model output is frequently malformed",
								"description": "Model responses are failing validation at more than 0.1/s. Check the model and prompt mode.",
							},
						},
						{
							Alert:  "DealFinderSearchErrors",
							Expr:   `sum(dealfinder:search_calls:rate5m{status="error"}) / sum(dealfinder:search_calls:rate5m) > 0.2`,
							For:    "5m",
							Labels: map[string]string{"severity": "warning"},
							Annotations: map[string]string{
								"summary":     "Marketplace search calls are failing",
								"description": "More than 20% of marketplace search calls have failed over the last 5 minutes.",
							},
						},
						{
							Alert:  "DealFinderSearchLimitReached",
							Expr:   `increase(dealfinder_search_daily_limit_hits_total[5m]) > 0`,
							For:    "0m",
							Labels: map[string]string{"severity": "critical"},
							Annotations: map[string]string{
								"summary":     "Daily search limit has been reached",
								"description": "The marketplace daily quota is exhausted. Runs fail until the next reset.",
							},
						},
						{
							Alert:  "DealFinderNotificationFailures",
							Expr:   `increase(dealfinder_notification_failures_total[5m]) > 0`,
							For:    "1m",
							Labels: map[string]string{"severity": "warning"},
							Annotations: map[string]string{
								"summary":     "Notification delivery failures detected",
								"description": "One or more run reports (Discord webhooks) have failed to send.",
							},
						},
					},
				},
			},
		},
	}
}
