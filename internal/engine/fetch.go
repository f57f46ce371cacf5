package engine

import (
	"context"
	"errors"
	"log/slog"

	"github.com/donaldgifford/deal-finder/internal/metrics"
	"github.com/donaldgifford/deal-finder/internal/search"
	domain "github.com/donaldgifford/deal-finder/pkg/types"
)

// StepReport describes one fetch loop step.
type StepReport struct {
	Query string
	// Pages is the number of search calls issued for the query.
	Pages      int
	Fetched    int
	Added      int
	Duplicates int
	// Failure is set when a page failed and the query was abandoned.
	Failure *search.FetchError
}

// FetchLoop drains the search query queue, paging each query and merging
// the results into the potential listings.
type FetchLoop struct {
	searcher search.Searcher
	maxPages int
	log      *slog.Logger
}

// FetchOption configures the FetchLoop.
type FetchOption func(*FetchLoop)

// WithFetchLogger sets the logger.
func WithFetchLogger(l *slog.Logger) FetchOption {
	return func(f *FetchLoop) {
		f.log = l
	}
}

// NewFetchLoop creates a FetchLoop issuing at most maxPages calls per query.
func NewFetchLoop(s search.Searcher, maxPages int, opts ...FetchOption) *FetchLoop {
	f := &FetchLoop{
		searcher: s,
		maxPages: maxPages,
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Done reports whether the query queue of st is empty.
func Done(st *domain.SearchState) bool {
	return len(st.SearchQueries) == 0
}

// Step pops the next query and pages through it. Paging stops at the
// first empty page, when the marketplace reports no more results, or after
// maxPages calls. A page failure abandons the rest of the query and is
// recorded in FetchFailures. Cancellation is returned as the context error.
func (f *FetchLoop) Step(ctx context.Context, st *domain.SearchState) (*domain.SearchState, StepReport, error) {
	if Done(st) {
		return st, StepReport{}, nil
	}

	next := st.Clone()
	if next.PotentialListings == nil {
		next.PotentialListings = domain.NewListingSet()
	}
	query := next.SearchQueries[0]
	next.SearchQueries = next.SearchQueries[1:]

	report := StepReport{Query: query}
	for page := 1; page <= f.maxPages; page++ {
		if err := ctx.Err(); err != nil {
			return nil, report, err
		}

		res, err := f.searcher.Search(ctx, query, page)
		report.Pages++
		if err != nil {
			if ctx.Err() != nil {
				return nil, report, ctx.Err()
			}
			var fe *search.FetchError
			if !errors.As(err, &fe) {
				fe = &search.FetchError{Query: query, Page: page, Err: err}
			}
			report.Failure = fe
			next.FetchFailures = append(next.FetchFailures, domain.FetchFailure{
				Query: query,
				Page:  page,
				Error: fe.Error(),
			})
			metrics.FetchErrorsTotal.Inc()
			f.log.Warn("abandoning query after fetch error",
				"query", query,
				"page", page,
				"error", fe,
			)
			break
		}

		if res == nil || len(res.Listings) == 0 {
			break
		}

		added := next.PotentialListings.Merge(res.Listings)
		report.Fetched += len(res.Listings)
		report.Added += added
		report.Duplicates += len(res.Listings) - added

		if !res.HasMore {
			break
		}
	}

	metrics.ListingsFetchedTotal.Add(float64(report.Fetched))
	metrics.ListingsDuplicateTotal.Add(float64(report.Duplicates))

	f.log.Debug("query fetched",
		"query", query,
		"pages", report.Pages,
		"fetched", report.Fetched,
		"added", report.Added,
		"remaining", len(next.SearchQueries),
	)
	return next, report, nil
}

// Drain runs Step until the queue is empty.
func (f *FetchLoop) Drain(ctx context.Context, st *domain.SearchState) (*domain.SearchState, []StepReport, error) {
	var reports []StepReport
	for !Done(st) {
		next, report, err := f.Step(ctx, st)
		if err != nil {
			return nil, reports, err
		}
		reports = append(reports, report)
		st = next
	}
	return st, reports, nil
}
