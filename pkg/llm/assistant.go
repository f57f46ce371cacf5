package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	domain "github.com/donaldgifford/deal-finder/pkg/types"
)

// Call names, used for contract errors and metrics labels.
const (
	CallParseRequest  = "parse_request"
	CallExpandQueries = "expand_queries"
	CallClassify      = "classify_listings"
	CallScore         = "score_listing"
	CallSummarize     = "summarize"
)

// DefaultMaxProductsCount is used when the request does not say how many
// listings the user wants to see.
const DefaultMaxProductsCount = 20

// Score bounds for ScoreListing.
const (
	MinScore = 0
	MaxScore = 10
)

// ExpandRequest is the input to ExpandQueries.
type ExpandRequest struct {
	Products              []string
	IncludeConfigurations bool
}

// ClassifyRequest is the input to ClassifyListings. Titles are addressed by
// their index in the slice.
type ClassifyRequest struct {
	Prompt                string
	Products              []string
	IncludeConfigurations bool
	Titles                []string
}

// ScoreRequest is the input to ScoreListing.
type ScoreRequest struct {
	Prompt      string
	Products    []string
	Title       string
	Description string
}

// SummaryItem is one listing shown to the model as reference.
type SummaryItem struct {
	Title string
	Price string
}

// SummaryRequest is the input to Summarize.
type SummaryRequest struct {
	Prompt         string
	Products       []string
	ListingsCount  int
	PotentialCount int
	FilteredCount  int
	MedianPrice    string
	Top            []SummaryItem
}

// Fallback is the text the model is told to fall back to.
func (r *SummaryRequest) Fallback() string {
	return fmt.Sprintf(
		"We found %d listings, with a median price of %s. Out of %d potential listings, %d matched your filters.",
		r.ListingsCount, r.MedianPrice, r.PotentialCount, r.FilteredCount,
	)
}

// Assistant is the set of language-model calls the search pipeline makes.
// Responses that cannot be parsed into the expected shape are returned as
// *ContractError.
type Assistant interface {
	ParseRequest(ctx context.Context, prompt string) (*domain.ParsedRequest, error)
	ExpandQueries(ctx context.Context, req ExpandRequest) ([]domain.ProductQueries, error)
	ClassifyListings(ctx context.Context, req ClassifyRequest) ([]int, error)
	ScoreListing(ctx context.Context, req ScoreRequest) (int, error)
	Summarize(ctx context.Context, req SummaryRequest) (string, error)
}

// CallObserver is notified after every backend call.
type CallObserver func(call string, d time.Duration, usage TokenUsage, err error)

// LLMAssistant implements Assistant on top of a Backend.
type LLMAssistant struct {
	backend     Backend
	mode        Mode
	temperature float64
	maxTokens   int
	marketplace string
	language    string
	observe     CallObserver
	log         *slog.Logger
}

// AssistantOption configures the LLMAssistant.
type AssistantOption func(*LLMAssistant)

// WithMode selects structured output or tool calling.
func WithMode(m Mode) AssistantOption {
	return func(a *LLMAssistant) {
		a.mode = m
	}
}

// WithTemperature sets the LLM temperature.
func WithTemperature(t float64) AssistantOption {
	return func(a *LLMAssistant) {
		a.temperature = t
	}
}

// WithMaxTokens sets the max tokens for LLM responses.
func WithMaxTokens(n int) AssistantOption {
	return func(a *LLMAssistant) {
		a.maxTokens = n
	}
}

// WithMarketplace sets the marketplace name and query language used when
// generating search queries.
func WithMarketplace(name, language string) AssistantOption {
	return func(a *LLMAssistant) {
		a.marketplace = name
		a.language = language
	}
}

// WithCallObserver registers a hook run after every backend call.
func WithCallObserver(o CallObserver) AssistantOption {
	return func(a *LLMAssistant) {
		a.observe = o
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) AssistantOption {
	return func(a *LLMAssistant) {
		a.log = l
	}
}

// NewAssistant creates an Assistant backed by b.
func NewAssistant(b Backend, opts ...AssistantOption) *LLMAssistant {
	a := &LLMAssistant{
		backend:     b,
		mode:        ModeStructured,
		temperature: 0.1,
		maxTokens:   1024,
		marketplace: "Bulgarian OLX",
		language:    "Bulgarian",
		log:         slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// ParseRequest extracts the products and preferences from the user prompt.
func (a *LLMAssistant) ParseRequest(ctx context.Context, prompt string) (*domain.ParsedRequest, error) {
	text, err := render(parseRequestTemplate, struct {
		Prompt             string
		DefaultMaxProducts int
	}{prompt, DefaultMaxProductsCount})
	if err != nil {
		return nil, err
	}

	var out struct {
		Products              []string `json:"products"`
		MaxProductsCount      *int     `json:"max_products_count"`
		IncludeConfigurations *bool    `json:"include_configurations"`
	}
	if err := a.structured(ctx, CallParseRequest, text, parseRequestSchema, &out); err != nil {
		return nil, err
	}

	products := domain.NormalizeProducts(out.Products)
	if len(products) == 0 {
		return nil, contractErr(CallParseRequest, "", fmt.Errorf("%w: products", ErrMissingField))
	}

	parsed := &domain.ParsedRequest{
		Products:         products,
		MaxProductsCount: DefaultMaxProductsCount,
	}
	if out.MaxProductsCount != nil && *out.MaxProductsCount > 0 {
		parsed.MaxProductsCount = *out.MaxProductsCount
	}
	if out.IncludeConfigurations != nil {
		parsed.IncludeConfigurations = *out.IncludeConfigurations
	}
	return parsed, nil
}

// ExpandQueries asks for search queries for each product. The result is
// returned as the model produced it; callers validate and flatten it.
func (a *LLMAssistant) ExpandQueries(ctx context.Context, req ExpandRequest) ([]domain.ProductQueries, error) {
	text, err := render(expandQueriesTemplate, struct {
		Marketplace           string
		Language              string
		MinQueries            int
		MaxQueries            int
		IncludeConfigurations bool
		Products              []string
	}{a.marketplace, a.language, 3, 5, req.IncludeConfigurations, req.Products})
	if err != nil {
		return nil, err
	}

	var out struct {
		Queries *[]domain.ProductQueries `json:"queries"`
	}
	if err := a.structured(ctx, CallExpandQueries, text, expandQueriesSchema, &out); err != nil {
		return nil, err
	}
	if out.Queries == nil {
		return nil, contractErr(CallExpandQueries, "", fmt.Errorf("%w: queries", ErrMissingField))
	}
	return *out.Queries, nil
}

// ClassifyListings returns the indices of the titles that match the
// requested products, in ascending order without duplicates.
func (a *LLMAssistant) ClassifyListings(ctx context.Context, req ClassifyRequest) ([]int, error) {
	if len(req.Titles) == 0 {
		return nil, nil
	}

	text, err := render(classifyTemplate, req)
	if err != nil {
		return nil, err
	}

	var out struct {
		IDsToKeep *[]int `json:"ids_to_keep"`
	}
	if err := a.structured(ctx, CallClassify, text, classifySchema, &out); err != nil {
		return nil, err
	}
	if out.IDsToKeep == nil {
		return nil, contractErr(CallClassify, "", fmt.Errorf("%w: ids_to_keep", ErrMissingField))
	}

	seen := make([]bool, len(req.Titles))
	for _, id := range *out.IDsToKeep {
		if id < 0 || id >= len(req.Titles) {
			return nil, contractErr(CallClassify, "",
				fmt.Errorf("%w: listing id %d not in [0, %d)", ErrOutOfRange, id, len(req.Titles)))
		}
		seen[id] = true
	}

	keep := make([]int, 0, len(*out.IDsToKeep))
	for i, ok := range seen {
		if ok {
			keep = append(keep, i)
		}
	}
	return keep, nil
}

// ScoreListing rates how well a listing matches the request on a 0–10 scale.
func (a *LLMAssistant) ScoreListing(ctx context.Context, req ScoreRequest) (int, error) {
	text, err := render(scoreTemplate, req)
	if err != nil {
		return 0, err
	}

	var out struct {
		Score *float64 `json:"score"`
	}
	if err := a.structured(ctx, CallScore, text, scoreSchema, &out); err != nil {
		return 0, err
	}
	if out.Score == nil {
		return 0, contractErr(CallScore, "", fmt.Errorf("%w: score", ErrMissingField))
	}

	s := math.Round(*out.Score)
	if s < MinScore || s > MaxScore {
		return 0, contractErr(CallScore, "",
			fmt.Errorf("%w: score %v not in [%d, %d]", ErrOutOfRange, *out.Score, MinScore, MaxScore))
	}
	return int(s), nil
}

// Summarize writes a short narrative of the search results.
func (a *LLMAssistant) Summarize(ctx context.Context, req SummaryRequest) (string, error) {
	text, err := render(summaryTemplate, struct {
		SummaryRequest
		Fallback string
	}{req, req.Fallback()})
	if err != nil {
		return "", err
	}

	resp, err := a.generate(ctx, CallSummarize, GenerateRequest{
		Prompt:      text,
		Temperature: a.temperature,
		MaxTokens:   a.maxTokens,
	})
	if err != nil {
		return "", err
	}

	content := strings.TrimSpace(resp.Content)
	if content == "" {
		return "", contractErr(CallSummarize, resp.Content, ErrEmptyResponse)
	}
	return content, nil
}

func (a *LLMAssistant) structured(ctx context.Context, call, prompt string, schema *Schema, out any) error {
	resp, err := a.generate(ctx, call, GenerateRequest{
		Prompt:      prompt,
		Schema:      schema,
		Mode:        a.mode,
		Temperature: a.temperature,
		MaxTokens:   a.maxTokens,
	})
	if err != nil {
		return err
	}

	if err := decodeJSON(resp.Content, out); err != nil {
		return contractErr(call, resp.Content, err)
	}
	return nil
}

func (a *LLMAssistant) generate(ctx context.Context, call string, req GenerateRequest) (GenerateResponse, error) {
	start := time.Now()
	resp, err := a.backend.Generate(ctx, req)
	if a.observe != nil {
		a.observe(call, time.Since(start), resp.Usage, err)
	}
	if err != nil {
		var ce *ContractError
		if errors.As(err, &ce) {
			return GenerateResponse{}, &ContractError{Call: call, Raw: ce.Raw, Err: ce.Err}
		}
		return GenerateResponse{}, fmt.Errorf("calling %s for %s: %w", a.backend.Name(), call, err)
	}

	a.log.Debug("llm call completed",
		"call", call,
		"backend", a.backend.Name(),
		"model", resp.Model,
		"duration", time.Since(start),
		"tokens", resp.Usage.TotalTokens,
	)
	return resp, nil
}

// decodeJSON parses a model response into out, tolerating Markdown code
// fences and text around the JSON object.
func decodeJSON(content string, out any) error {
	s := strings.TrimSpace(content)
	if s == "" {
		return ErrEmptyResponse
	}
	if i := strings.IndexByte(s, '{'); i >= 0 {
		if j := strings.LastIndexByte(s, '}'); j > i {
			s = s[i : j+1]
		}
	}
	if err := json.Unmarshal([]byte(s), out); err != nil {
		return fmt.Errorf("parsing JSON response: %w", err)
	}
	return nil
}
