package search

import (
	"context"
	"log/slog"
	"time"

	"github.com/donaldgifford/deal-finder/internal/metrics"
)

const defaultCallTimeout = 30 * time.Second

// RateLimitedClient wraps a Searcher behind a shared Gate. It applies a
// per-call timeout and reports failures as *FetchError. It never retries.
type RateLimitedClient struct {
	searcher Searcher
	gate     *Gate
	timeout  time.Duration
	log      *slog.Logger
}

// ClientOption configures the RateLimitedClient.
type ClientOption func(*RateLimitedClient)

// WithCallTimeout sets the timeout applied to each search call.
func WithCallTimeout(d time.Duration) ClientOption {
	return func(c *RateLimitedClient) {
		c.timeout = d
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) ClientOption {
	return func(c *RateLimitedClient) {
		c.log = l
	}
}

// NewRateLimitedClient creates a client that routes every call of s through g.
func NewRateLimitedClient(s Searcher, g *Gate, opts ...ClientOption) *RateLimitedClient {
	c := &RateLimitedClient{
		searcher: s,
		gate:     g,
		timeout:  defaultCallTimeout,
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the wrapped searcher's name.
func (c *RateLimitedClient) Name() string {
	return c.searcher.Name()
}

// Search waits for the gate and issues one search call. Cancellation of ctx
// is returned as the context's error, never as a *FetchError.
func (c *RateLimitedClient) Search(ctx context.Context, query string, page int) (*Page, error) {
	if _, err := c.gate.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		metrics.SearchCallsTotal.WithLabelValues(c.searcher.Name(), "rejected").Inc()
		return nil, &FetchError{Query: query, Page: page, Err: err}
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	res, err := c.searcher.Search(callCtx, query, page)
	metrics.SearchCallDuration.WithLabelValues(c.searcher.Name()).Observe(time.Since(start).Seconds())

	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		metrics.SearchCallsTotal.WithLabelValues(c.searcher.Name(), "error").Inc()
		c.log.Warn("search call failed", "query", query, "page", page, "error", err)
		return nil, &FetchError{Query: query, Page: page, Err: err}
	}
	if res == nil {
		res = &Page{}
	}

	metrics.SearchCallsTotal.WithLabelValues(c.searcher.Name(), "ok").Inc()
	c.log.Debug("search call completed",
		"query", query,
		"page", page,
		"listings", len(res.Listings),
		"has_more", res.HasMore,
	)
	return res, nil
}
