package engine

import (
	"time"

	"github.com/donaldgifford/deal-finder/internal/metrics"
	"github.com/donaldgifford/deal-finder/pkg/llm"
)

// ObserveLLMCalls returns a call observer recording model call metrics for
// the named backend.
func ObserveLLMCalls(backend string) llm.CallObserver {
	return func(call string, d time.Duration, usage llm.TokenUsage, err error) {
		metrics.LLMCallDuration.WithLabelValues(call).Observe(d.Seconds())
		if err != nil {
			if llm.IsContractError(err) {
				metrics.LLMContractErrorsTotal.WithLabelValues(call).Inc()
			} else {
				metrics.LLMFailuresTotal.WithLabelValues(call).Inc()
			}
			return
		}
		metrics.LLMTokensTotal.WithLabelValues(backend, "prompt").Add(float64(usage.PromptTokens))
		metrics.LLMTokensTotal.WithLabelValues(backend, "completion").Add(float64(usage.CompletionTokens))
	}
}
