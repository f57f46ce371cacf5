package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/donaldgifford/deal-finder/internal/config"
	"github.com/donaldgifford/deal-finder/internal/ebay"
	"github.com/donaldgifford/deal-finder/internal/engine"
	"github.com/donaldgifford/deal-finder/internal/notify"
	"github.com/donaldgifford/deal-finder/internal/olx"
	"github.com/donaldgifford/deal-finder/internal/search"
	"github.com/donaldgifford/deal-finder/internal/telemetry"
	"github.com/donaldgifford/deal-finder/pkg/llm"
	score "github.com/donaldgifford/deal-finder/pkg/scorer"
)

// pipeline holds the components shared by every run in the process.
type pipeline struct {
	engine *engine.Engine
	gate   *search.Gate
	// runner wraps engine with run notifications; the API serves through it.
	runner *notify.NotifyingRunner
}

func buildPipeline(cfg *config.Config, log *slog.Logger) (*pipeline, error) {
	searcher, gate := newSearcher(cfg, log)

	backend, err := newBackend(&cfg.LLM)
	if err != nil {
		return nil, err
	}

	assistant := newAssistant(&cfg.LLM, backend, log)

	eng, err := engine.New(assistant, searcher, settingsFromConfig(cfg), engine.WithLogger(log))
	if err != nil {
		return nil, fmt.Errorf("creating engine: %w", err)
	}

	log.Info("pipeline ready",
		"marketplace", searcher.Name(),
		"llm_backend", backend.Name(),
		"tool_calling", cfg.LLM.ToolCalling,
	)
	return &pipeline{engine: eng, gate: gate, runner: newRunner(&cfg.Notify, eng, log)}, nil
}

// newRunner wraps the engine with the configured run notifier. Without a
// webhook, reports are discarded.
func newRunner(nc *config.NotifyConfig, eng *engine.Engine, log *slog.Logger) *notify.NotifyingRunner {
	var n notify.Notifier = notify.NewNoOpNotifier(log)
	if nc.Discord.WebhookURL != "" {
		n = notify.NewDiscordNotifier(nc.Discord.WebhookURL)
		log.Info("run notifications enabled", "backend", "discord", "max_deals", nc.MaxDeals)
	}
	return notify.NewNotifyingRunner(eng, n,
		notify.WithMaxDeals(nc.MaxDeals),
		notify.WithTimeout(nc.Timeout),
		notify.WithLogger(log),
	)
}

// newSearcher builds the configured marketplace client behind the shared
// rate-limit gate.
func newSearcher(cfg *config.Config, log *slog.Logger) (search.Searcher, *search.Gate) {
	mc := &cfg.Marketplace
	gate := search.NewGate(mc.Interval, search.WithDailyLimit(mc.DailyLimit))

	var base search.Searcher
	switch mc.Provider {
	case "ebay":
		tokens := ebay.NewOAuthTokenProvider(mc.Ebay.AppID, mc.Ebay.CertID,
			ebay.WithTokenURL(mc.Ebay.TokenURL),
		)
		base = ebay.NewClient(tokens,
			ebay.WithBrowseURL(mc.Ebay.BrowseURL),
			ebay.WithMarketplace(mc.Ebay.Marketplace),
			ebay.WithCategoryID(mc.Ebay.CategoryID),
			ebay.WithPageSize(mc.PageSize),
		)
	default:
		opts := []olx.Option{
			olx.WithGraphQLURL(mc.OLX.GraphQLURL),
			olx.WithPageSize(mc.PageSize),
		}
		if mc.OLX.UserAgent != "" {
			opts = append(opts, olx.WithUserAgent(mc.OLX.UserAgent))
		}
		base = olx.NewClient(opts...)
	}

	client := search.NewRateLimitedClient(base, gate,
		search.WithCallTimeout(mc.Timeout),
		search.WithLogger(log),
	)
	return client, gate
}

// newBackend builds the configured LLM backend wrapped in the throttle.
func newBackend(lc *config.LLMConfig) (llm.Backend, error) {
	var b llm.Backend
	switch lc.Backend {
	case "ollama":
		b = llm.NewOllamaBackend(lc.Ollama.Endpoint, lc.Ollama.Model)
	case "anthropic":
		opts := []llm.AnthropicOption{llm.WithAnthropicAPIKey(lc.Anthropic.APIKey)}
		if lc.Anthropic.Endpoint != "" {
			opts = append(opts, llm.WithAnthropicEndpoint(lc.Anthropic.Endpoint))
		}
		if lc.Anthropic.Model != "" {
			opts = append(opts, llm.WithAnthropicModel(lc.Anthropic.Model))
		}
		b = llm.NewAnthropicBackend(opts...)
	case "openai_compat":
		b = llm.NewOpenAICompatBackend(lc.OpenAICompat.Endpoint, lc.OpenAICompat.Model,
			llm.WithOpenAICompatAPIKey(lc.OpenAICompat.APIKey),
		)
	default:
		return nil, fmt.Errorf("unknown llm backend %q", lc.Backend)
	}

	return llm.NewThrottledBackend(b,
		llm.WithRate(lc.RequestsPerSecond, lc.Burst),
		llm.WithTimeout(lc.Timeout),
	), nil
}

func newAssistant(lc *config.LLMConfig, b llm.Backend, log *slog.Logger) *llm.LLMAssistant {
	mode := llm.ModeStructured
	if lc.ToolCalling {
		mode = llm.ModeToolCalling
	}

	opts := []llm.AssistantOption{
		llm.WithMode(mode),
		llm.WithMaxTokens(lc.MaxTokens),
		llm.WithMarketplace(lc.MarketplaceName, lc.Language),
		llm.WithCallObserver(engine.ObserveLLMCalls(b.Name())),
		llm.WithLogger(log),
	}
	if lc.Temperature != nil {
		opts = append(opts, llm.WithTemperature(*lc.Temperature))
	}
	return llm.NewAssistant(b, opts...)
}

func settingsFromConfig(cfg *config.Config) engine.Settings {
	s := engine.DefaultSettings()
	s.MaxPages = cfg.Pipeline.MaxPages
	s.BatchSize = cfg.Pipeline.ListingsBatchSize
	s.RunTimeout = cfg.Pipeline.RunTimeout
	s.Concurrency = cfg.Scoring.Concurrency
	s.Weights = score.Weights{
		Relevancy: derefOr(cfg.Scoring.RelevancyWeight, s.Weights.Relevancy),
		Price:     derefOr(cfg.Scoring.PriceWeight, s.Weights.Price),
		Gamma:     cfg.Scoring.RelevancyGamma,
	}
	s.Markdown = cfg.Summary.MarkdownEnabled()
	s.DebugScores = cfg.Summary.DebugScores
	s.MaxListings = cfg.Summary.MaxListings
	return s
}

func derefOr(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}

func telemetryConfig(cfg *config.Config) telemetry.Config {
	return telemetry.Config{
		Enabled:     cfg.Tracing.Enabled,
		Endpoint:    cfg.Tracing.Endpoint,
		Insecure:    cfg.Tracing.Insecure,
		ServiceName: cfg.Tracing.ServiceName,
		Version:     Version,
		SampleRatio: cfg.Tracing.SampleRatio,
	}
}

// quotaCheck fails readiness once the daily search quota is spent.
func quotaCheck(g *search.Gate) func(context.Context) error {
	return func(context.Context) error {
		if g.Remaining() == 0 {
			return search.ErrDailyLimitReached
		}
		return nil
	}
}
