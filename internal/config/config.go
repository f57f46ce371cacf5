// Package config handles loading and validating the application configuration
// from YAML files with environment variable substitution.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Marketplace MarketplaceConfig `yaml:"marketplace"`
	LLM         LLMConfig         `yaml:"llm"`
	Pipeline    PipelineConfig    `yaml:"pipeline"`
	Scoring     ScoringConfig     `yaml:"scoring"`
	Summary     SummaryConfig     `yaml:"summary"`
	Logging     LoggingConfig     `yaml:"logging"`
	Tracing     TracingConfig     `yaml:"tracing"`
	Notify      NotifyConfig      `yaml:"notify"`
}

// ServerConfig defines the Echo HTTP server settings.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// MarketplaceConfig defines the search backend and its shared rate limit.
type MarketplaceConfig struct {
	Provider string `yaml:"provider"` // olx, ebay
	// Interval is the minimum spacing between search calls, shared by
	// every run in the process.
	Interval   time.Duration `yaml:"interval"`
	Timeout    time.Duration `yaml:"timeout"`
	PageSize   int           `yaml:"page_size"`
	DailyLimit int64         `yaml:"daily_limit"`
	OLX        OLXConfig     `yaml:"olx"`
	Ebay       EbayConfig    `yaml:"ebay"`
}

// OLXConfig defines OLX GraphQL settings.
type OLXConfig struct {
	GraphQLURL string `yaml:"graphql_url"`
	UserAgent  string `yaml:"user_agent"`
}

// EbayConfig defines eBay Browse API settings.
type EbayConfig struct {
	AppID       string `yaml:"app_id"`
	CertID      string `yaml:"cert_id"`
	TokenURL    string `yaml:"token_url"`
	BrowseURL   string `yaml:"browse_url"`
	Marketplace string `yaml:"marketplace"`
	CategoryID  string `yaml:"category_id"`
}

// LLMConfig defines LLM backend settings.
type LLMConfig struct {
	Backend      string             `yaml:"backend"` // ollama, anthropic, openai_compat
	Ollama       OllamaConfig       `yaml:"ollama"`
	Anthropic    AnthropicConfig    `yaml:"anthropic"`
	OpenAICompat OpenAICompatConfig `yaml:"openai_compat"`
	// ToolCalling requests function calls instead of schema-constrained
	// JSON output.
	ToolCalling       bool          `yaml:"tool_calling"`
	Timeout           time.Duration `yaml:"timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second"` // 0 disables throttling
	Burst             int           `yaml:"burst"`
	Temperature       *float64      `yaml:"temperature"`
	MaxTokens         int           `yaml:"max_tokens"`
	// MarketplaceName and Language are interpolated into prompts.
	MarketplaceName string `yaml:"marketplace_name"`
	Language        string `yaml:"language"`
}

// OllamaConfig defines Ollama-specific settings.
type OllamaConfig struct {
	Endpoint string `yaml:"endpoint"`
	Model    string `yaml:"model"`
}

// AnthropicConfig defines Anthropic API settings.
type AnthropicConfig struct {
	Endpoint string `yaml:"endpoint"`
	Model    string `yaml:"model"`
	APIKey   string `yaml:"api_key"`
}

// OpenAICompatConfig defines OpenAI-compatible endpoint settings.
type OpenAICompatConfig struct {
	Endpoint string `yaml:"endpoint"`
	Model    string `yaml:"model"`
	APIKey   string `yaml:"api_key"`
}

// PipelineConfig defines per-run pipeline limits.
type PipelineConfig struct {
	MaxPages          int           `yaml:"max_pages"`
	ListingsBatchSize int           `yaml:"listings_batch_size"`
	RunTimeout        time.Duration `yaml:"run_timeout"`
	// EventBuffer bounds the progress events queued for a streaming client.
	EventBuffer int `yaml:"event_buffer"`
}

// ScoringConfig defines the ranking weights. Weights are pointers so an
// explicit zero can be told apart from an omitted value.
type ScoringConfig struct {
	RelevancyWeight *float64 `yaml:"relevancy_weight"`
	PriceWeight     *float64 `yaml:"price_weight"`
	RelevancyGamma  float64  `yaml:"relevancy_gamma"`
	Concurrency     int      `yaml:"concurrency"`
}

// SummaryConfig defines how the final response is rendered.
type SummaryConfig struct {
	Markdown    *bool `yaml:"markdown"` // default: true
	DebugScores bool  `yaml:"debug_scores"`
	MaxListings int   `yaml:"max_listings"`
}

// MarkdownEnabled reports whether listing lines are rendered as markdown links.
func (s *SummaryConfig) MarkdownEnabled() bool {
	return s.Markdown == nil || *s.Markdown
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json, pretty
}

// TracingConfig defines OpenTelemetry trace export settings.
type TracingConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Endpoint    string  `yaml:"endpoint"` // OTLP gRPC collector, host:port
	Insecure    bool    `yaml:"insecure"`
	ServiceName string  `yaml:"service_name"`
	SampleRatio float64 `yaml:"sample_ratio"`
}

// NotifyConfig defines run report notifications.
type NotifyConfig struct {
	Discord  DiscordConfig `yaml:"discord"`
	MaxDeals int           `yaml:"max_deals"`
	Timeout  time.Duration `yaml:"timeout"`
}

// DiscordConfig defines Discord webhook settings.
type DiscordConfig struct {
	WebhookURL string `yaml:"webhook_url"`
}

// Load reads and parses a YAML config file, performing environment variable
// substitution and validation. A .env file next to the config file is
// loaded first; variables already set in the environment win.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // config path from trusted CLI flag
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := LoadEnvFile(filepath.Join(filepath.Dir(path), ".env")); err != nil {
		return nil, err
	}

	// Expand environment variables in the YAML content.
	expanded := os.ExpandEnv(string(data))

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// LoadEnvFile loads variables from a dotenv file without overriding the
// environment. A missing file is not an error.
func LoadEnvFile(path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading env file %s: %w", path, err)
	}
	return nil
}

func applyDefaults(cfg *Config) {
	applyServerDefaults(&cfg.Server)
	applyMarketplaceDefaults(&cfg.Marketplace)
	applyLLMDefaults(&cfg.LLM)
	applyPipelineDefaults(&cfg.Pipeline)
	applyScoringDefaults(&cfg.Scoring)
	applySummaryDefaults(&cfg.Summary)
	applyLoggingDefaults(&cfg.Logging)
	applyTracingDefaults(&cfg.Tracing)
	applyNotifyDefaults(&cfg.Notify)
}

func applyServerDefaults(s *ServerConfig) {
	if s.Host == "" {
		s.Host = "0.0.0.0"
	}
	if s.Port == 0 {
		s.Port = 8080
	}
	if s.ReadTimeout == 0 {
		s.ReadTimeout = 30 * time.Second
	}
	if s.WriteTimeout == 0 {
		// Streamed runs stay open for the whole pipeline.
		s.WriteTimeout = 10 * time.Minute
	}
}

func applyMarketplaceDefaults(m *MarketplaceConfig) {
	if m.Provider == "" {
		m.Provider = "olx"
	}
	if m.Interval == 0 {
		m.Interval = time.Second
	}
	if m.Timeout == 0 {
		m.Timeout = 30 * time.Second
	}
	if m.PageSize == 0 {
		m.PageSize = 40
	}
	if m.OLX.GraphQLURL == "" {
		m.OLX.GraphQLURL = "https://www.olx.bg/apigateway/graphql"
	}
	if m.Ebay.TokenURL == "" {
		m.Ebay.TokenURL = "https://api.ebay.com/identity/v1/oauth2/token"
	}
	if m.Ebay.BrowseURL == "" {
		m.Ebay.BrowseURL = "https://api.ebay.com/buy/browse/v1/item_summary/search"
	}
	if m.Ebay.Marketplace == "" {
		m.Ebay.Marketplace = "EBAY_US"
	}
}

func applyLLMDefaults(l *LLMConfig) {
	if l.Backend == "" {
		l.Backend = "ollama"
	}
	if l.Timeout == 0 {
		l.Timeout = 60 * time.Second
	}
	if l.Burst == 0 {
		l.Burst = 1
	}
	if l.Temperature == nil {
		t := 0.1
		l.Temperature = &t
	}
	if l.MaxTokens == 0 {
		l.MaxTokens = 1024
	}
	if l.MarketplaceName == "" {
		l.MarketplaceName = "Bulgarian OLX"
	}
	if l.Language == "" {
		l.Language = "Bulgarian"
	}
}

func applyPipelineDefaults(p *PipelineConfig) {
	if p.MaxPages == 0 {
		p.MaxPages = 20
	}
	if p.ListingsBatchSize == 0 {
		p.ListingsBatchSize = 20
	}
	if p.EventBuffer == 0 {
		p.EventBuffer = 64
	}
}

func applyScoringDefaults(s *ScoringConfig) {
	if s.RelevancyWeight == nil {
		w := 1.0
		s.RelevancyWeight = &w
	}
	if s.PriceWeight == nil {
		w := 1.0
		s.PriceWeight = &w
	}
	if s.RelevancyGamma == 0 {
		s.RelevancyGamma = 1.5
	}
	if s.Concurrency == 0 {
		s.Concurrency = 4
	}
}

func applySummaryDefaults(s *SummaryConfig) {
	if s.MaxListings == 0 {
		s.MaxListings = 20
	}
}

func applyLoggingDefaults(l *LoggingConfig) {
	if l.Level == "" {
		l.Level = "info"
	}
	if l.Format == "" {
		l.Format = "text"
	}
}

func applyTracingDefaults(t *TracingConfig) {
	if t.ServiceName == "" {
		t.ServiceName = "deal-finder"
	}
	if t.SampleRatio == 0 {
		t.SampleRatio = 1
	}
}

func applyNotifyDefaults(n *NotifyConfig) {
	if n.MaxDeals == 0 {
		n.MaxDeals = 5
	}
	if n.Timeout == 0 {
		n.Timeout = 10 * time.Second
	}
}

func validate(cfg *Config) error {
	var errs []error

	errs = append(errs, validateMarketplace(&cfg.Marketplace)...)
	errs = append(errs, validateLLM(&cfg.LLM)...)
	errs = append(errs, validatePipeline(cfg)...)

	switch cfg.Logging.Format {
	case "text", "json", "pretty":
	default:
		errs = append(errs, fmt.Errorf(
			"logging.format must be one of: text, json, pretty (got %q)", cfg.Logging.Format,
		))
	}

	if cfg.Tracing.Enabled && cfg.Tracing.Endpoint == "" {
		errs = append(errs, errors.New("tracing.endpoint is required when tracing is enabled"))
	}
	if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1 {
		errs = append(errs, fmt.Errorf("tracing.sample_ratio must be in [0, 1] (got %v)", cfg.Tracing.SampleRatio))
	}

	if cfg.Notify.MaxDeals < 1 || cfg.Notify.MaxDeals > 9 {
		errs = append(errs, fmt.Errorf("notify.max_deals must be in [1, 9] (got %d)", cfg.Notify.MaxDeals))
	}
	if cfg.Notify.Timeout < 0 {
		errs = append(errs, fmt.Errorf("notify.timeout must be >= 0 (got %s)", cfg.Notify.Timeout))
	}

	return errors.Join(errs...)
}

func validateMarketplace(m *MarketplaceConfig) []error {
	var errs []error

	switch m.Provider {
	case "olx":
	case "ebay":
		if m.Ebay.AppID == "" || m.Ebay.CertID == "" {
			errs = append(errs,
				errors.New("marketplace.ebay.app_id and marketplace.ebay.cert_id are required when provider is ebay"),
			)
		}
	default:
		errs = append(errs, fmt.Errorf(
			"marketplace.provider must be one of: olx, ebay (got %q)", m.Provider,
		))
	}

	if m.Interval < 0 {
		errs = append(errs, fmt.Errorf("marketplace.interval must be >= 0 (got %s)", m.Interval))
	}
	if m.Timeout < 0 {
		errs = append(errs, fmt.Errorf("marketplace.timeout must be >= 0 (got %s)", m.Timeout))
	}
	if m.PageSize < 0 {
		errs = append(errs, fmt.Errorf("marketplace.page_size must be >= 1 (got %d)", m.PageSize))
	}
	if m.DailyLimit < 0 {
		errs = append(errs, fmt.Errorf("marketplace.daily_limit must be >= 0 (got %d)", m.DailyLimit))
	}
	return errs
}

func validateLLM(l *LLMConfig) []error {
	var errs []error

	switch l.Backend {
	case "ollama":
		if l.Ollama.Endpoint == "" {
			errs = append(errs,
				errors.New("llm.ollama.endpoint is required when backend is ollama"),
			)
		}
	case "anthropic":
		// API key comes from env, model must be set.
		if l.Anthropic.Model == "" {
			errs = append(errs,
				errors.New("llm.anthropic.model is required when backend is anthropic"),
			)
		}
	case "openai_compat":
		if l.OpenAICompat.Endpoint == "" {
			errs = append(errs,
				errors.New("llm.openai_compat.endpoint is required when backend is openai_compat"),
			)
		}
	default:
		errs = append(errs, fmt.Errorf(
			"llm.backend must be one of: ollama, anthropic, openai_compat (got %q)", l.Backend,
		))
	}

	if l.RequestsPerSecond < 0 {
		errs = append(errs, fmt.Errorf("llm.requests_per_second must be >= 0 (got %v)", l.RequestsPerSecond))
	}
	if l.Burst < 1 {
		errs = append(errs, fmt.Errorf("llm.burst must be >= 1 (got %d)", l.Burst))
	}
	if l.Timeout < 0 {
		errs = append(errs, fmt.Errorf("llm.timeout must be >= 0 (got %s)", l.Timeout))
	}
	if t := *l.Temperature; t < 0 || t > 2 || math.IsNaN(t) {
		errs = append(errs, fmt.Errorf("llm.temperature must be in [0, 2] (got %v)", t))
	}
	return errs
}

func validatePipeline(cfg *Config) []error {
	var errs []error

	if cfg.Pipeline.MaxPages < 1 {
		errs = append(errs, fmt.Errorf("pipeline.max_pages must be >= 1 (got %d)", cfg.Pipeline.MaxPages))
	}
	if cfg.Pipeline.ListingsBatchSize < 1 {
		errs = append(errs, fmt.Errorf(
			"pipeline.listings_batch_size must be >= 1 (got %d)", cfg.Pipeline.ListingsBatchSize,
		))
	}
	if cfg.Pipeline.RunTimeout < 0 {
		errs = append(errs, fmt.Errorf("pipeline.run_timeout must be >= 0 (got %s)", cfg.Pipeline.RunTimeout))
	}
	if cfg.Pipeline.EventBuffer < 1 {
		errs = append(errs, fmt.Errorf("pipeline.event_buffer must be >= 1 (got %d)", cfg.Pipeline.EventBuffer))
	}

	rw, pw := *cfg.Scoring.RelevancyWeight, *cfg.Scoring.PriceWeight
	if rw < 0 || math.IsNaN(rw) {
		errs = append(errs, fmt.Errorf("scoring.relevancy_weight must be >= 0 (got %v)", rw))
	}
	if pw < 0 || math.IsNaN(pw) {
		errs = append(errs, fmt.Errorf("scoring.price_weight must be >= 0 (got %v)", pw))
	}
	if rw == 0 && pw == 0 {
		errs = append(errs, errors.New("scoring.relevancy_weight and scoring.price_weight cannot both be 0"))
	}
	if g := cfg.Scoring.RelevancyGamma; g <= 0 || math.IsNaN(g) || math.IsInf(g, 0) {
		errs = append(errs, fmt.Errorf("scoring.relevancy_gamma must be > 0 (got %v)", g))
	}
	if cfg.Scoring.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("scoring.concurrency must be >= 1 (got %d)", cfg.Scoring.Concurrency))
	}
	if cfg.Summary.MaxListings < 1 {
		errs = append(errs, fmt.Errorf("summary.max_listings must be >= 1 (got %d)", cfg.Summary.MaxListings))
	}
	return errs
}
