// Package domain defines the core business types for the deal finder.
package domain

import (
	"slices"
	"strings"
)

// Marketplace identifies the search backend a listing came from.
type Marketplace string

// Marketplace constants.
const (
	MarketplaceOLX  Marketplace = "olx"
	MarketplaceEbay Marketplace = "ebay"
)

// Role identifies the author of a chat message.
type Role string

// Role constants.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is one entry in the chat history of a shopping request.
type Message struct {
	Role    Role   `json:"role"    doc:"Author of the message" enum:"user,assistant,system"`
	Content string `json:"content" doc:"Message text"`
}

// Listing is a candidate marketplace item. Two listings with the same ID
// refer to the same item regardless of which query surfaced them.
type Listing struct {
	ID           string      `json:"id"`
	Title        string      `json:"title"`
	URL          string      `json:"url"`
	Description  string      `json:"description,omitempty"`
	Price        *float64    `json:"price,omitempty"`
	Currency     string      `json:"currency,omitempty"`
	Location     string      `json:"location,omitempty"`
	Condition    string      `json:"condition,omitempty"`
	CategoryID   string      `json:"category_id,omitempty"`
	CategoryType string      `json:"category_type,omitempty"`
	Marketplace  Marketplace `json:"marketplace,omitempty"`
}

// HasPrice reports whether the listing carries a price.
func (l *Listing) HasPrice() bool {
	return l.Price != nil
}

// ScoredListing pairs a listing with its ranking scores.
type ScoredListing struct {
	Listing        Listing `json:"listing"`
	RelevancyScore float64 `json:"relevancy_score"`
	PriceScore     float64 `json:"price_score"`
	CombinedScore  float64 `json:"combined_score"`
}

// FetchFailure records one (query, page) search call that failed.
type FetchFailure struct {
	Query string `json:"query"`
	Page  int    `json:"page"`
	Error string `json:"error"`
}

// ParsedRequest is the structured interpretation of a shopping request.
type ParsedRequest struct {
	Products              []string `json:"products"`
	MaxProductsCount      int      `json:"max_products_count"`
	IncludeConfigurations bool     `json:"include_configurations"`
}

// ProductQueries holds the search queries generated for one product.
type ProductQueries struct {
	Product       string   `json:"product"`
	SearchQueries []string `json:"search_queries"`
}

// SearchState carries the accumulated data of a single pipeline run. Each
// stage receives the previous state and returns an updated one.
type SearchState struct {
	Messages              []Message
	Products              []string
	MaxProductsCount      int
	IncludeConfigurations bool

	// SearchQueries is the queue of pending queries. It only shrinks once
	// planning has finished.
	SearchQueries []string

	PotentialListings *ListingSet
	FilteredListings  []Listing

	// AveragePrice and MedianPrice are zero when no filtered listing has a price.
	AveragePrice float64
	MedianPrice  float64

	ScoredListings []ScoredListing

	FetchFailures []FetchFailure
	Warnings      []string
}

// NewSearchState returns an empty state seeded with the chat history.
func NewSearchState(messages []Message) *SearchState {
	return &SearchState{
		Messages:          slices.Clone(messages),
		PotentialListings: NewListingSet(),
	}
}

// Clone returns a copy of the state that shares no slices with s. Listings
// themselves are values and are copied along with their containers.
func (s *SearchState) Clone() *SearchState {
	c := *s
	c.Messages = slices.Clone(s.Messages)
	c.Products = slices.Clone(s.Products)
	c.SearchQueries = slices.Clone(s.SearchQueries)
	if s.PotentialListings != nil {
		c.PotentialListings = s.PotentialListings.Clone()
	}
	c.FilteredListings = slices.Clone(s.FilteredListings)
	c.ScoredListings = slices.Clone(s.ScoredListings)
	c.FetchFailures = slices.Clone(s.FetchFailures)
	c.Warnings = slices.Clone(s.Warnings)
	return &c
}

// UserPrompt joins the user messages of the history into a single prompt
// block. Only user-authored messages are included.
func (s *SearchState) UserPrompt() string {
	var b strings.Builder
	for _, m := range s.Messages {
		if m.Role != RoleUser {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("(User request, possibly non-English, for context only): ")
		b.WriteString(m.Content)
	}
	return b.String()
}

// NormalizeProducts trims product names and drops empty and case-insensitive
// duplicate entries, keeping the first spelling.
func NormalizeProducts(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		key := strings.ToLower(s)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, s)
	}
	return out
}
