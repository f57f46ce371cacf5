// Package metrics defines Prometheus metrics for deal-finder.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "dealfinder"

// HTTP metrics.
var (
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"method", "path", "status"})

	HealthzUp = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "healthz_up",
		Help:      "Whether the last liveness probe succeeded (1) or failed (0).",
	})

	ReadyzUp = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "readyz_up",
		Help:      "Whether the last readiness probe succeeded (1) or failed (0).",
	})
)

// Pipeline metrics.
var (
	PipelineRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "pipeline_runs_total",
		Help:      "Total number of pipeline runs by terminal status and reason.",
	}, []string{"status", "reason"})

	PipelineRunsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "pipeline_runs_in_flight",
		Help:      "Number of pipeline runs currently executing.",
	})

	PipelineStageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "pipeline_stage_duration_seconds",
		Help:      "Duration of each pipeline stage in seconds.",
		Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
	}, []string{"stage"})

	PipelineEventsDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "pipeline_events_dropped_total",
		Help:      "Total number of progress events dropped because the consumer fell behind.",
	})
)

// Listing flow metrics.
var (
	ListingsFetchedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "listings_fetched_total",
		Help:      "Total number of listings returned by marketplace searches, duplicates included.",
	})

	ListingsDuplicateTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "listings_duplicate_total",
		Help:      "Total number of fetched listings discarded as duplicates.",
	})

	ListingsFilteredTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "listings_filtered_total",
		Help:      "Total number of listings classified by the relevance filter.",
	}, []string{"decision"})

	ListingsScoredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "listings_scored_total",
		Help:      "Total number of listings scored.",
	})

	ScoringDistribution = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "scoring_distribution",
		Help:      "Distribution of combined listing scores.",
		Buckets:   prometheus.LinearBuckets(0, 0.2, 11), // 0, 0.2, ..., 2.0
	})
)

// Marketplace search metrics.
var (
	SearchCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "search_calls_total",
		Help:      "Total marketplace search calls by provider and outcome.",
	}, []string{"provider", "status"})

	SearchCallDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "search_call_duration_seconds",
		Help:      "Duration of marketplace search calls in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"provider"})

	SearchGateWait = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "search_gate_wait_seconds",
		Help:      "Time spent waiting for the shared search rate gate.",
		Buckets:   []float64{0, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	})

	SearchDailyUsage = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "search_daily_usage",
		Help:      "Current search call count within the rolling 24-hour window.",
	})

	SearchDailyLimitHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "search_daily_limit_hits_total",
		Help:      "Total number of times the daily search limit was reached.",
	})

	FetchErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "fetch_errors_total",
		Help:      "Total number of search pages that failed and were skipped.",
	})
)

// LLM metrics.
var (
	LLMCallDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "llm_call_duration_seconds",
		Help:      "Duration of LLM calls in seconds by call type.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"call"})

	LLMFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "llm_failures_total",
		Help:      "Total number of failed LLM calls by call type.",
	}, []string{"call"})

	LLMContractErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "llm_contract_errors_total",
		Help:      "Total number of LLM responses that did not match the expected shape.",
	}, []string{"call"})

	LLMTokensTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "llm_tokens_total",
		Help:      "Total LLM tokens consumed by backend and direction.",
	}, []string{"backend", "direction"})
)

// Notification metrics.
var (
	NotificationsSentTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_sent_total",
		Help:      "Total number of run reports delivered.",
	})

	NotificationFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notification_failures_total",
		Help:      "Total number of notification send failures.",
	})

	NotificationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "notification_duration_seconds",
		Help:      "Duration of notification webhook calls.",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	})
)
