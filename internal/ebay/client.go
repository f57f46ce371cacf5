// Package ebay provides a search client for the eBay Browse API, used as an
// alternative marketplace to OLX.
package ebay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/donaldgifford/deal-finder/internal/search"
	domain "github.com/donaldgifford/deal-finder/pkg/types"
)

const (
	defaultBrowseURL   = "https://api.ebay.com/buy/browse/v1/item_summary/search"
	defaultMarketplace = "EBAY_US"
	defaultPageSize    = 50
	maxPageSize        = 200
)

// ErrUnauthorized is returned when the Browse API rejects the access token.
var ErrUnauthorized = errors.New("eBay API rejected access token")

// TokenProvider defines the interface for obtaining OAuth2 tokens.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// Client implements search.Searcher using the eBay Browse API.
type Client struct {
	tokens      TokenProvider
	browseURL   string
	marketplace string
	categoryID  string
	pageSize    int
	client      *http.Client
}

// Option configures the Client.
type Option func(*Client)

// WithBrowseURL overrides the default Browse API endpoint.
func WithBrowseURL(u string) Option {
	return func(c *Client) {
		c.browseURL = u
	}
}

// WithMarketplace overrides the default marketplace.
func WithMarketplace(m string) Option {
	return func(c *Client) {
		c.marketplace = m
	}
}

// WithCategoryID restricts searches to a single eBay category.
func WithCategoryID(id string) Option {
	return func(c *Client) {
		c.categoryID = id
	}
}

// WithPageSize overrides the number of items requested per page.
func WithPageSize(n int) Option {
	return func(c *Client) {
		c.pageSize = n
	}
}

// WithBrowseHTTPClient overrides the default HTTP client.
func WithBrowseHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.client = hc
	}
}

// NewClient creates a new eBay Browse API search client.
func NewClient(tokens TokenProvider, opts ...Option) *Client {
	c := &Client{
		tokens:      tokens,
		browseURL:   defaultBrowseURL,
		marketplace: defaultMarketplace,
		pageSize:    defaultPageSize,
		client:      &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.pageSize <= 0 {
		c.pageSize = defaultPageSize
	}
	c.pageSize = min(c.pageSize, maxPageSize)
	return c
}

// Name implements search.Searcher.
func (*Client) Name() string {
	return string(domain.MarketplaceEbay)
}

type browseAPIResponse struct {
	ItemSummaries []ItemSummary `json:"itemSummaries"`
	Total         int           `json:"total"`
	Offset        int           `json:"offset"`
	Limit         int           `json:"limit"`
	Next          string        `json:"next"`
}

// Search implements search.Searcher by querying the Browse API. Pages are
// 1-based and map to offset (page-1)*pageSize.
func (c *Client) Search(ctx context.Context, query string, page int) (*search.Page, error) {
	if page < 1 {
		page = 1
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting auth token: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.searchURL(query, page), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating HTTP request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)
	httpReq.Header.Set("X-EBAY-C-MARKETPLACE-ID", c.marketplace)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("executing search request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		if inv, ok := c.tokens.(interface{ Invalidate() }); ok {
			inv.Invalidate()
		}
		return nil, fmt.Errorf("%w (status %d)", ErrUnauthorized, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("eBay API error (status %d): %s", resp.StatusCode, string(body))
	}

	var apiResp browseAPIResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("parsing search response: %w", err)
	}

	return &search.Page{
		Listings: ToListings(apiResp.ItemSummaries),
		HasMore:  apiResp.Next != "",
	}, nil
}

func (c *Client) searchURL(query string, page int) string {
	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(c.pageSize))
	if offset := (page - 1) * c.pageSize; offset > 0 {
		params.Set("offset", strconv.Itoa(offset))
	}
	if c.categoryID != "" {
		params.Set("category_ids", c.categoryID)
	}
	return c.browseURL + "?" + params.Encode()
}
