// Package olx provides a search client for the OLX.bg GraphQL listing API.
package olx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/donaldgifford/deal-finder/internal/search"
	domain "github.com/donaldgifford/deal-finder/pkg/types"
)

const (
	defaultGraphQLURL = "https://www.olx.bg/apigateway/graphql"
	defaultPageSize   = 40
	defaultUserAgent  = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

	typeListingSuccess = "ListingSuccess"
)

const listingSearchQuery = `query ListingSearchQuery($searchParameters: [SearchParameter!]!) {
  clientCompatibleListings(searchParameters: $searchParameters) {
    __typename
    ... on ListingSuccess {
      data {
        id
        title
        description
        url
        category {
          id
          type
        }
        params {
          key
          value {
            ... on PriceParam {
              value
              currency
            }
            ... on GenericParam {
              key
              label
            }
          }
        }
      }
    }
  }
}`

// Client implements search.Searcher against the OLX GraphQL gateway.
type Client struct {
	graphqlURL string
	pageSize   int
	userAgent  string
	client     *http.Client
}

// Option configures the Client.
type Option func(*Client)

// WithGraphQLURL overrides the default GraphQL endpoint.
func WithGraphQLURL(u string) Option {
	return func(c *Client) {
		c.graphqlURL = u
	}
}

// WithPageSize overrides the number of listings requested per page.
func WithPageSize(n int) Option {
	return func(c *Client) {
		c.pageSize = n
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.client = hc
	}
}

// NewClient creates a new OLX search client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		graphqlURL: defaultGraphQLURL,
		pageSize:   defaultPageSize,
		userAgent:  defaultUserAgent,
		client:     &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.pageSize <= 0 {
		c.pageSize = defaultPageSize
	}
	return c
}

// Name implements search.Searcher.
func (*Client) Name() string {
	return string(domain.MarketplaceOLX)
}

type searchParameter struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

// Search implements search.Searcher. Pages are 1-based; page n maps to
// offset (n-1)*pageSize.
func (c *Client) Search(ctx context.Context, query string, page int) (*search.Page, error) {
	if page < 1 {
		page = 1
	}

	payload := graphQLRequest{
		Query: listingSearchQuery,
		Variables: map[string]any{
			"searchParameters": []searchParameter{
				{Key: "offset", Value: strconv.Itoa((page - 1) * c.pageSize)},
				{Key: "limit", Value: strconv.Itoa(c.pageSize)},
				{Key: "query", Value: query},
			},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshaling graphql request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.graphqlURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("executing search request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("OLX API error (status %d): %s", resp.StatusCode, truncate(string(respBody), 200))
	}

	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "application/json") {
		return nil, fmt.Errorf("expected JSON response but got %q: %s", ct, truncate(string(respBody), 200))
	}

	var gqlResp graphQLResponse
	if err := json.Unmarshal(respBody, &gqlResp); err != nil {
		return nil, fmt.Errorf("parsing search response: %w", err)
	}

	if len(gqlResp.Errors) > 0 {
		return nil, fmt.Errorf("graphql error: %s", gqlResp.Errors[0].Message)
	}

	result := gqlResp.Data.ClientCompatibleListings
	if result.TypeName != typeListingSuccess {
		// Non-success union members carry no listings; treat as the end of results.
		return &search.Page{}, nil
	}

	return &search.Page{
		Listings: ToListings(result.Data),
		HasMore:  len(result.Data) == c.pageSize,
	}, nil
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
