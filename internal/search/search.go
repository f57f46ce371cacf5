// Package search provides the marketplace search contract and the
// rate-limited client every pipeline run goes through.
package search

import (
	"context"
	"errors"
	"fmt"

	domain "github.com/donaldgifford/deal-finder/pkg/types"
)

// Page is one page of search results.
type Page struct {
	Listings []domain.Listing
	// HasMore reports whether the marketplace signalled further pages.
	HasMore bool
}

// Searcher is a paginated marketplace search endpoint. Pages are 1-based.
type Searcher interface {
	Search(ctx context.Context, query string, page int) (*Page, error)
	Name() string
}

// FetchError is returned when a single (query, page) search call fails.
// It never aborts a run; callers skip the remaining pages of the query.
type FetchError struct {
	Query string
	Page  int
	Err   error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching %q page %d: %v", e.Query, e.Page, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// IsFetchError reports whether err is or wraps a *FetchError.
func IsFetchError(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}
