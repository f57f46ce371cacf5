package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/deal-finder/internal/search"
	searchMocks "github.com/donaldgifford/deal-finder/internal/search/mocks"
	domain "github.com/donaldgifford/deal-finder/pkg/types"
)

// quietLogger returns a logger that discards output for tests.
func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ptr(v float64) *float64 { return &v }

func listing(id string, price *float64) domain.Listing {
	return domain.Listing{
		ID:       id,
		Title:    "Listing " + id,
		URL:      "https://example.com/" + id,
		Price:    price,
		Currency: "BGN",
	}
}

// listingRange returns listings with IDs from..to-1.
func listingRange(from, to int) []domain.Listing {
	ls := make([]domain.Listing, 0, to-from)
	for i := from; i < to; i++ {
		ls = append(ls, listing(fmt.Sprint(i), ptr(float64(100+i))))
	}
	return ls
}

func stateWithQueries(queries ...string) *domain.SearchState {
	st := domain.NewSearchState([]domain.Message{{Role: domain.RoleUser, Content: "rtx 3090"}})
	st.Products = []string{"RTX 3090"}
	st.SearchQueries = queries
	return st
}

func TestFetchLoop_StepEmptyQueue(t *testing.T) {
	t.Parallel()

	ms := searchMocks.NewMockSearcher(t)
	loop := NewFetchLoop(ms, 3, WithFetchLogger(quietLogger()))

	st := stateWithQueries()
	next, report, err := loop.Step(context.Background(), st)
	require.NoError(t, err)
	assert.Same(t, st, next)
	assert.Empty(t, report.Query)
}

func TestFetchLoop_Deduplicates(t *testing.T) {
	t.Parallel()

	ms := searchMocks.NewMockSearcher(t)
	ms.EXPECT().Search(mock.Anything, "a", 1).
		Return(&search.Page{Listings: listingRange(0, 20), HasMore: false}, nil).Once()
	ms.EXPECT().Search(mock.Anything, "b", 1).
		Return(&search.Page{Listings: listingRange(14, 34), HasMore: false}, nil).Once()

	loop := NewFetchLoop(ms, 5, WithFetchLogger(quietLogger()))
	st, reports, err := loop.Drain(context.Background(), stateWithQueries("a", "b"))
	require.NoError(t, err)

	assert.Equal(t, 34, st.PotentialListings.Len())
	require.Len(t, reports, 2)
	assert.Equal(t, 20, reports[0].Added)
	assert.Equal(t, 14, reports[1].Added)
	assert.Equal(t, 6, reports[1].Duplicates)
	assert.Empty(t, st.SearchQueries)
}

func TestFetchLoop_FirstSeenWins(t *testing.T) {
	t.Parallel()

	first := listing("1", ptr(10))
	second := listing("1", ptr(99))
	second.Title = "changed"

	ms := searchMocks.NewMockSearcher(t)
	ms.EXPECT().Search(mock.Anything, "a", 1).
		Return(&search.Page{Listings: []domain.Listing{first}}, nil).Once()
	ms.EXPECT().Search(mock.Anything, "b", 1).
		Return(&search.Page{Listings: []domain.Listing{second}}, nil).Once()

	loop := NewFetchLoop(ms, 2, WithFetchLogger(quietLogger()))
	st, _, err := loop.Drain(context.Background(), stateWithQueries("a", "b"))
	require.NoError(t, err)

	got, ok := st.PotentialListings.Get("1")
	require.True(t, ok)
	assert.Equal(t, first, got)
}

func TestFetchLoop_PaginationBound(t *testing.T) {
	t.Parallel()

	ms := searchMocks.NewMockSearcher(t)
	ms.EXPECT().Search(mock.Anything, "a", mock.AnythingOfType("int")).
		RunAndReturn(func(_ context.Context, _ string, page int) (*search.Page, error) {
			return &search.Page{Listings: listingRange(page*10, page*10+10), HasMore: true}, nil
		}).Times(3)

	loop := NewFetchLoop(ms, 3, WithFetchLogger(quietLogger()))
	st, report, err := loop.Step(context.Background(), stateWithQueries("a"))
	require.NoError(t, err)

	assert.Equal(t, 3, report.Pages)
	assert.Equal(t, 30, st.PotentialListings.Len())
}

func TestFetchLoop_StopsOnEmptyPage(t *testing.T) {
	t.Parallel()

	ms := searchMocks.NewMockSearcher(t)
	ms.EXPECT().Search(mock.Anything, "a", 1).
		Return(&search.Page{Listings: listingRange(0, 5), HasMore: true}, nil).Once()
	ms.EXPECT().Search(mock.Anything, "a", 2).
		Return(&search.Page{HasMore: true}, nil).Once()

	loop := NewFetchLoop(ms, 10, WithFetchLogger(quietLogger()))
	st, report, err := loop.Step(context.Background(), stateWithQueries("a"))
	require.NoError(t, err)

	assert.Equal(t, 2, report.Pages)
	assert.Equal(t, 5, st.PotentialListings.Len())
}

func TestFetchLoop_StopsWhenNoMore(t *testing.T) {
	t.Parallel()

	ms := searchMocks.NewMockSearcher(t)
	ms.EXPECT().Search(mock.Anything, "a", 1).
		Return(&search.Page{Listings: listingRange(0, 5), HasMore: false}, nil).Once()

	loop := NewFetchLoop(ms, 10, WithFetchLogger(quietLogger()))
	st, report, err := loop.Step(context.Background(), stateWithQueries("a"))
	require.NoError(t, err)

	assert.Equal(t, 1, report.Pages)
	assert.Equal(t, 5, st.PotentialListings.Len())
}

func TestFetchLoop_FetchErrorAbandonsQueryOnly(t *testing.T) {
	t.Parallel()

	ms := searchMocks.NewMockSearcher(t)
	ms.EXPECT().Search(mock.Anything, "q1", 1).
		Return(&search.Page{Listings: listingRange(0, 10), HasMore: true}, nil).Once()
	ms.EXPECT().Search(mock.Anything, "q1", 2).
		Return(nil, &search.FetchError{Query: "q1", Page: 2, Err: errors.New("status 503")}).Once()
	ms.EXPECT().Search(mock.Anything, "q2", 1).
		Return(&search.Page{Listings: listingRange(10, 15), HasMore: false}, nil).Once()

	loop := NewFetchLoop(ms, 5, WithFetchLogger(quietLogger()))
	st, reports, err := loop.Drain(context.Background(), stateWithQueries("q1", "q2"))
	require.NoError(t, err)

	assert.Equal(t, 15, st.PotentialListings.Len())
	require.Len(t, st.FetchFailures, 1)
	assert.Equal(t, "q1", st.FetchFailures[0].Query)
	assert.Equal(t, 2, st.FetchFailures[0].Page)
	assert.Contains(t, st.FetchFailures[0].Error, "status 503")

	require.Len(t, reports, 2)
	require.NotNil(t, reports[0].Failure)
	assert.Nil(t, reports[1].Failure)
}

func TestFetchLoop_PlainErrorIsFetchError(t *testing.T) {
	t.Parallel()

	ms := searchMocks.NewMockSearcher(t)
	ms.EXPECT().Search(mock.Anything, "a", 1).Return(nil, errors.New("boom")).Once()

	loop := NewFetchLoop(ms, 5, WithFetchLogger(quietLogger()))
	st, report, err := loop.Step(context.Background(), stateWithQueries("a"))
	require.NoError(t, err)

	require.NotNil(t, report.Failure)
	assert.Equal(t, "a", report.Failure.Query)
	assert.Len(t, st.FetchFailures, 1)
}

func TestFetchLoop_CancellationIsNotFetchError(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())

	ms := searchMocks.NewMockSearcher(t)
	ms.EXPECT().Search(mock.Anything, "a", 1).
		RunAndReturn(func(context.Context, string, int) (*search.Page, error) {
			cancel()
			return &search.Page{Listings: listingRange(0, 3), HasMore: true}, nil
		}).Once()

	loop := NewFetchLoop(ms, 5, WithFetchLogger(quietLogger()))
	_, report, err := loop.Step(ctx, stateWithQueries("a", "b"))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, search.IsFetchError(err))
	assert.Equal(t, 1, report.Pages)
}

func TestFetchLoop_DoesNotMutateInput(t *testing.T) {
	t.Parallel()

	ms := searchMocks.NewMockSearcher(t)
	ms.EXPECT().Search(mock.Anything, "a", 1).
		Return(&search.Page{Listings: listingRange(0, 3)}, nil).Once()

	st := stateWithQueries("a", "b")
	loop := NewFetchLoop(ms, 5, WithFetchLogger(quietLogger()))
	next, _, err := loop.Step(context.Background(), st)
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, st.SearchQueries)
	assert.Equal(t, 0, st.PotentialListings.Len())
	assert.Equal(t, []string{"b"}, next.SearchQueries)
	assert.Equal(t, 3, next.PotentialListings.Len())
}
