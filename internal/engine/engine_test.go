package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/deal-finder/internal/search"
	searchMocks "github.com/donaldgifford/deal-finder/internal/search/mocks"
	"github.com/donaldgifford/deal-finder/pkg/llm"
	llmMocks "github.com/donaldgifford/deal-finder/pkg/llm/mocks"
	domain "github.com/donaldgifford/deal-finder/pkg/types"
)

// recorder is a Sink that keeps every event.
type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) Emit(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) all() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

func (r *recorder) count(s Stage) int {
	n := 0
	for _, e := range r.all() {
		if e.Stage == s {
			n++
		}
	}
	return n
}

func (r *recorder) last() Event {
	events := r.all()
	return events[len(events)-1]
}

func newTestEngine(
	t *testing.T,
	ma *llmMocks.MockAssistant,
	ms *searchMocks.MockSearcher,
	mutate func(*Settings),
) *Engine {
	t.Helper()

	s := DefaultSettings()
	if mutate != nil {
		mutate(&s)
	}
	eng, err := New(ma, ms, s,
		WithLogger(quietLogger()),
		WithRunIDFunc(func() string { return "run-1" }),
	)
	require.NoError(t, err)
	return eng
}

func userRequest(text string) Request {
	return Request{Messages: []domain.Message{{Role: domain.RoleUser, Content: text}}}
}

// gpuListings returns listings priced 1000 + 10*i. IDs below 20 are
// founders cards, the rest are empty boxes.
func gpuListings(from, to int) []domain.Listing {
	ls := make([]domain.Listing, 0, to-from)
	for i := from; i < to; i++ {
		title := fmt.Sprintf("RTX 3090 founders %d", i)
		if i >= 20 {
			title = fmt.Sprintf("RTX 3090 box %d", i)
		}
		ls = append(ls, domain.Listing{
			ID:       fmt.Sprint(i),
			Title:    title,
			URL:      fmt.Sprintf("https://www.olx.bg/ad/%d", i),
			Price:    ptr(float64(1000 + 10*i)),
			Currency: "BGN",
		})
	}
	return ls
}

func TestNew_InvalidSettings(t *testing.T) {
	t.Parallel()

	s := DefaultSettings()
	s.MaxPages = 0
	s.BatchSize = -1

	_, err := New(llmMocks.NewMockAssistant(t), searchMocks.NewMockSearcher(t), s)
	require.Error(t, err)

	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, err.Error(), "max pages")
	assert.Contains(t, err.Error(), "batch size")
	assert.Equal(t, ReasonConfiguration, FailureReason(err))
}

func TestRunPipeline_FullRun(t *testing.T) {
	t.Parallel()

	ma := llmMocks.NewMockAssistant(t)
	ms := searchMocks.NewMockSearcher(t)

	ma.EXPECT().ParseRequest(mock.Anything, mock.Anything).
		Return(&domain.ParsedRequest{Products: []string{"RTX 3090"}, MaxProductsCount: 5}, nil).Once()
	ma.EXPECT().ExpandQueries(mock.Anything, mock.Anything).
		Return([]domain.ProductQueries{{
			Product:       "RTX 3090",
			SearchQueries: []string{"rtx 3090", "RTX 3090 ", "rtx 3090 founders", "видеокарта rtx 3090"},
		}}, nil).Once()

	ms.EXPECT().Search(mock.Anything, "rtx 3090", 1).
		Return(&search.Page{Listings: gpuListings(0, 20), HasMore: true}, nil).Once()
	ms.EXPECT().Search(mock.Anything, "rtx 3090", 2).
		Return(&search.Page{}, nil).Once()
	ms.EXPECT().Search(mock.Anything, "rtx 3090 founders", 1).
		Return(&search.Page{Listings: gpuListings(14, 34)}, nil).Once()
	ms.EXPECT().Search(mock.Anything, "видеокарта rtx 3090", 1).
		Return(&search.Page{}, nil).Once()

	ma.EXPECT().ClassifyListings(mock.Anything, mock.Anything).RunAndReturn(keepUnlessBox).Times(2)
	ma.EXPECT().ScoreListing(mock.Anything, mock.Anything).Return(7, nil).Times(20)
	ma.EXPECT().Summarize(mock.Anything, mock.Anything).
		RunAndReturn(func(_ context.Context, req llm.SummaryRequest) (string, error) {
			assert.Equal(t, 34, req.PotentialCount)
			assert.Equal(t, 20, req.FilteredCount)
			assert.Equal(t, 5, req.ListingsCount)
			assert.Equal(t, "1095.00", req.MedianPrice)
			return "Prices look fair.", nil
		}).Once()

	eng := newTestEngine(t, ma, ms, nil)
	rec := &recorder{}

	res, err := eng.RunPipeline(context.Background(), userRequest("търся rtx 3090"), rec)
	require.NoError(t, err)
	require.NotNil(t, res)

	assert.Equal(t, "run-1", res.RunID)
	assert.False(t, res.Empty)
	assert.Equal(t, []string{"rtx 3090", "rtx 3090 founders", "видеокарта rtx 3090"}, searchQueries(rec))
	assert.Equal(t, 34, res.State.PotentialListings.Len())
	assert.Len(t, res.State.FilteredListings, 20)
	assert.InDelta(t, 1095, res.State.MedianPrice, 1e-9)
	assert.InDelta(t, 1095, res.State.AveragePrice, 1e-9)
	require.Len(t, res.State.ScoredListings, 20)
	assert.Equal(t, []string{"9", "10", "8", "11", "7"}, scoredIDs(res.State.ScoredListings[:5]))
	assert.Empty(t, res.State.SearchQueries)
	assert.Empty(t, res.State.FetchFailures)

	assert.True(t, strings.HasPrefix(res.Summary, "Prices look fair.\n\n"))
	assert.Equal(t, 5, strings.Count(res.Summary, "\n- ["))
	assert.Contains(t, res.Summary, "- [RTX 3090 founders 9 (1090.00 BGN)](https://www.olx.bg/ad/9)")

	events := rec.all()
	assert.Equal(t, StageParse, events[0].Stage)
	assert.Equal(t, []string{"RTX 3090"}, events[0].Products)
	assert.Equal(t, StagePlan, events[1].Stage)
	assert.Equal(t, 3, rec.count(StageSearch))
	assert.Equal(t, 1, rec.count(StageFilter))
	assert.Equal(t, 20, rec.count(StageScoreProgress))
	assert.Equal(t, 1, rec.count(StageScore))
	assert.Equal(t, 1, rec.count(StageSummary))
	assert.Zero(t, rec.count(StageFailed))

	for i, e := range events {
		assert.Equal(t, i+1, e.Seq)
		assert.Equal(t, "run-1", e.RunID)
	}

	final := rec.last()
	assert.Equal(t, StageCompleted, final.Stage)
	assert.Equal(t, res.Summary, final.Summary)
	assert.Len(t, final.Listings, 20)
}

func searchQueries(r *recorder) []string {
	for _, e := range r.all() {
		if e.Stage == StagePlan {
			return e.SearchQueries
		}
	}
	return nil
}

func TestRunPipeline_FetchErrorSkipsQuery(t *testing.T) {
	t.Parallel()

	ma := llmMocks.NewMockAssistant(t)
	ms := searchMocks.NewMockSearcher(t)

	ma.EXPECT().ParseRequest(mock.Anything, mock.Anything).
		Return(&domain.ParsedRequest{Products: []string{"RTX 3090"}}, nil).Once()
	ma.EXPECT().ExpandQueries(mock.Anything, mock.Anything).
		Return([]domain.ProductQueries{{Product: "RTX 3090", SearchQueries: []string{"q1", "q2"}}}, nil).Once()

	ms.EXPECT().Search(mock.Anything, "q1", 1).
		Return(&search.Page{Listings: gpuListings(0, 5), HasMore: true}, nil).Once()
	ms.EXPECT().Search(mock.Anything, "q1", 2).
		Return(nil, &search.FetchError{Query: "q1", Page: 2, Err: errors.New("unexpected status 503")}).Once()
	ms.EXPECT().Search(mock.Anything, "q2", 1).
		Return(&search.Page{Listings: gpuListings(5, 8)}, nil).Once()

	ma.EXPECT().ClassifyListings(mock.Anything, mock.Anything).RunAndReturn(keepUnlessBox).Once()
	ma.EXPECT().ScoreListing(mock.Anything, mock.Anything).Return(8, nil).Times(8)
	ma.EXPECT().Summarize(mock.Anything, mock.Anything).Return("Here you go.", nil).Once()

	rec := &recorder{}
	res, err := newTestEngine(t, ma, ms, nil).RunPipeline(context.Background(), userRequest("rtx 3090"), rec)
	require.NoError(t, err)

	assert.Equal(t, 8, res.State.PotentialListings.Len())
	require.Len(t, res.State.FetchFailures, 1)
	assert.Equal(t, "q1", res.State.FetchFailures[0].Query)
	assert.Equal(t, 2, res.State.FetchFailures[0].Page)

	assert.Equal(t, 1, rec.count(StageFetchError))
	assert.Equal(t, 2, rec.count(StageSearch))
	assert.Equal(t, StageCompleted, rec.last().Stage)
	assert.Equal(t, llm.DefaultMaxProductsCount, res.State.MaxProductsCount)
}

func TestRunPipeline_NoPrices(t *testing.T) {
	t.Parallel()

	ls := gpuListings(0, 4)
	for i := range ls {
		ls[i].Price = nil
	}

	ma := llmMocks.NewMockAssistant(t)
	ms := searchMocks.NewMockSearcher(t)

	ma.EXPECT().ExpandQueries(mock.Anything, mock.Anything).
		Return([]domain.ProductQueries{{Product: "RTX 3090", SearchQueries: []string{"rtx 3090"}}}, nil).Once()
	ms.EXPECT().Search(mock.Anything, "rtx 3090", 1).Return(&search.Page{Listings: ls}, nil).Once()
	ma.EXPECT().ClassifyListings(mock.Anything, mock.Anything).RunAndReturn(keepUnlessBox).Once()
	ma.EXPECT().ScoreListing(mock.Anything, mock.Anything).Return(6, nil).Times(4)
	ma.EXPECT().Summarize(mock.Anything, mock.MatchedBy(func(r llm.SummaryRequest) bool {
		return r.MedianPrice == "0.00" && r.Top[0].Price == "no price"
	})).Return("No prices listed.", nil).Once()

	req := userRequest("rtx 3090")
	req.Parsed = &domain.ParsedRequest{Products: []string{"RTX 3090"}, MaxProductsCount: 10}

	res, err := newTestEngine(t, ma, ms, nil).RunPipeline(context.Background(), req, nil)
	require.NoError(t, err)

	assert.Zero(t, res.State.MedianPrice)
	assert.Zero(t, res.State.AveragePrice)
	for _, s := range res.State.ScoredListings {
		assert.InDelta(t, 0.5, s.PriceScore, 1e-9)
	}
	assert.Equal(t, []string{"0", "1", "2", "3"}, scoredIDs(res.State.ScoredListings))
}

func TestRunPipeline_NoListings(t *testing.T) {
	t.Parallel()

	ma := llmMocks.NewMockAssistant(t)
	ms := searchMocks.NewMockSearcher(t)

	ma.EXPECT().ParseRequest(mock.Anything, mock.Anything).
		Return(&domain.ParsedRequest{Products: []string{"unicorn"}}, nil).Once()
	ma.EXPECT().ExpandQueries(mock.Anything, mock.Anything).
		Return([]domain.ProductQueries{{Product: "unicorn", SearchQueries: []string{"unicorn"}}}, nil).Once()
	ms.EXPECT().Search(mock.Anything, "unicorn", 1).Return(&search.Page{}, nil).Once()

	rec := &recorder{}
	res, err := newTestEngine(t, ma, ms, nil).RunPipeline(context.Background(), userRequest("unicorn"), rec)
	require.NoError(t, err)

	assert.True(t, res.Empty)
	assert.Equal(t, NoResultsText, res.Summary)
	assert.Equal(t, StageCompleted, rec.last().Stage)
}

func TestRunPipeline_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ma := llmMocks.NewMockAssistant(t)
	ms := searchMocks.NewMockSearcher(t)

	ma.EXPECT().ParseRequest(mock.Anything, mock.Anything).
		Return(&domain.ParsedRequest{Products: []string{"RTX 3090"}}, nil).Once()
	ma.EXPECT().ExpandQueries(mock.Anything, mock.Anything).
		Return([]domain.ProductQueries{{Product: "RTX 3090", SearchQueries: []string{"q1", "q2", "q3"}}}, nil).Once()
	ms.EXPECT().Search(mock.Anything, "q1", 1).
		RunAndReturn(func(context.Context, string, int) (*search.Page, error) {
			cancel()
			return &search.Page{Listings: gpuListings(0, 3), HasMore: true}, nil
		}).Once()

	rec := &recorder{}
	res, err := newTestEngine(t, ma, ms, nil).RunPipeline(ctx, userRequest("rtx 3090"), rec)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrCancelled)
	assert.ErrorIs(t, err, context.Canceled)

	final := rec.last()
	assert.Equal(t, StageFailed, final.Stage)
	assert.Equal(t, ReasonCancelled, final.Reason)
	assert.Zero(t, rec.count(StageFilter))
}

func TestRunPipeline_Failures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		req        Request
		setup      func(*llmMocks.MockAssistant, *searchMocks.MockSearcher)
		wantReason string
		wantStage  Stage
	}{
		{
			name:       "no user message",
			req:        Request{Messages: []domain.Message{{Role: domain.RoleAssistant, Content: "hi"}}},
			setup:      func(*llmMocks.MockAssistant, *searchMocks.MockSearcher) {},
			wantReason: ReasonBadRequest,
			wantStage:  StageParse,
		},
		{
			name: "blank parsed products",
			req: Request{
				Messages: []domain.Message{{Role: domain.RoleUser, Content: "rtx 3090"}},
				Parsed:   &domain.ParsedRequest{Products: []string{"   "}},
			},
			setup:      func(*llmMocks.MockAssistant, *searchMocks.MockSearcher) {},
			wantReason: ReasonBadRequest,
			wantStage:  StageParse,
		},
		{
			name: "parse contract violation",
			req:  userRequest("???"),
			setup: func(ma *llmMocks.MockAssistant, _ *searchMocks.MockSearcher) {
				ma.EXPECT().ParseRequest(mock.Anything, mock.Anything).
					Return(nil, &llm.ContractError{Call: llm.CallParseRequest, Err: llm.ErrMissingField}).Once()
			},
			wantReason: ReasonModelContract,
			wantStage:  StageParse,
		},
		{
			name: "planning failure",
			req:  userRequest("rtx 3090"),
			setup: func(ma *llmMocks.MockAssistant, _ *searchMocks.MockSearcher) {
				ma.EXPECT().ParseRequest(mock.Anything, mock.Anything).
					Return(&domain.ParsedRequest{Products: []string{"RTX 3090"}}, nil).Once()
				ma.EXPECT().ExpandQueries(mock.Anything, mock.Anything).
					Return(nil, errors.New("model unavailable")).Once()
			},
			wantReason: ReasonPlanning,
			wantStage:  StagePlan,
		},
		{
			name: "scoring call failure",
			req:  userRequest("rtx 3090"),
			setup: func(ma *llmMocks.MockAssistant, ms *searchMocks.MockSearcher) {
				ma.EXPECT().ParseRequest(mock.Anything, mock.Anything).
					Return(&domain.ParsedRequest{Products: []string{"RTX 3090"}}, nil).Once()
				ma.EXPECT().ExpandQueries(mock.Anything, mock.Anything).
					Return([]domain.ProductQueries{{Product: "RTX 3090", SearchQueries: []string{"q"}}}, nil).Once()
				ms.EXPECT().Search(mock.Anything, "q", 1).Return(&search.Page{Listings: gpuListings(0, 2)}, nil).Once()
				ma.EXPECT().ClassifyListings(mock.Anything, mock.Anything).RunAndReturn(keepUnlessBox).Once()
				ma.EXPECT().ScoreListing(mock.Anything, mock.Anything).Return(0, errors.New("connection reset")).Maybe()
			},
			wantReason: ReasonModelCall,
			wantStage:  StageScore,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ma := llmMocks.NewMockAssistant(t)
			ms := searchMocks.NewMockSearcher(t)
			tt.setup(ma, ms)

			rec := &recorder{}
			res, err := newTestEngine(t, ma, ms, nil).RunPipeline(context.Background(), tt.req, rec)
			require.Error(t, err)
			assert.Nil(t, res)

			var stageErr *StageError
			require.ErrorAs(t, err, &stageErr)
			assert.Equal(t, tt.wantStage, stageErr.Stage)

			final := rec.last()
			assert.Equal(t, StageFailed, final.Stage)
			assert.Equal(t, tt.wantReason, final.Reason)
			assert.Equal(t, err.Error(), final.Message)
		})
	}
}

func TestRunPipeline_ScoreWarning(t *testing.T) {
	t.Parallel()

	ma := llmMocks.NewMockAssistant(t)
	ms := searchMocks.NewMockSearcher(t)

	ma.EXPECT().ExpandQueries(mock.Anything, mock.Anything).
		Return([]domain.ProductQueries{{Product: "RTX 3090", SearchQueries: []string{"q"}}}, nil).Once()
	ms.EXPECT().Search(mock.Anything, "q", 1).Return(&search.Page{Listings: gpuListings(0, 2)}, nil).Once()
	ma.EXPECT().ClassifyListings(mock.Anything, mock.Anything).RunAndReturn(keepUnlessBox).Once()
	ma.EXPECT().ScoreListing(mock.Anything, mock.MatchedBy(func(r llm.ScoreRequest) bool {
		return r.Title == "RTX 3090 founders 0"
	})).Return(0, &llm.ContractError{Call: llm.CallScore, Err: llm.ErrMissingField}).Once()
	ma.EXPECT().ScoreListing(mock.Anything, mock.MatchedBy(func(r llm.ScoreRequest) bool {
		return r.Title == "RTX 3090 founders 1"
	})).Return(9, nil).Once()
	ma.EXPECT().Summarize(mock.Anything, mock.Anything).Return("ok", nil).Once()

	req := userRequest("rtx 3090")
	req.Parsed = &domain.ParsedRequest{Products: []string{"RTX 3090"}}

	rec := &recorder{}
	res, err := newTestEngine(t, ma, ms, nil).RunPipeline(context.Background(), req, rec)
	require.NoError(t, err)

	assert.Equal(t, 1, rec.count(StageScoreWarning))
	require.Len(t, res.State.Warnings, 1)
	assert.True(t, strings.HasPrefix(res.State.Warnings[0], "0: "))
	assert.Equal(t, "1", res.State.ScoredListings[0].Listing.ID)
}

func TestRunPipeline_ConcurrentRuns(t *testing.T) {
	t.Parallel()

	ma := llmMocks.NewMockAssistant(t)
	ms := searchMocks.NewMockSearcher(t)

	ma.EXPECT().ExpandQueries(mock.Anything, mock.Anything).
		Return([]domain.ProductQueries{{Product: "RTX 3090", SearchQueries: []string{"q"}}}, nil)
	ms.EXPECT().Search(mock.Anything, "q", 1).
		RunAndReturn(func(context.Context, string, int) (*search.Page, error) {
			return &search.Page{Listings: gpuListings(0, 3)}, nil
		})
	ma.EXPECT().ClassifyListings(mock.Anything, mock.Anything).RunAndReturn(keepUnlessBox)
	ma.EXPECT().ScoreListing(mock.Anything, mock.Anything).Return(5, nil)
	ma.EXPECT().Summarize(mock.Anything, mock.Anything).Return("ok", nil)

	eng := newTestEngine(t, ma, ms, nil)

	var wg sync.WaitGroup
	results := make([]*Result, 4)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := userRequest("rtx 3090")
			req.Parsed = &domain.ParsedRequest{Products: []string{"RTX 3090"}}
			res, err := eng.RunPipeline(context.Background(), req, nil)
			assert.NoError(t, err)
			results[i] = res
		}()
	}
	wg.Wait()

	for _, res := range results {
		require.NotNil(t, res)
		assert.Equal(t, 3, res.State.PotentialListings.Len())
		assert.Len(t, res.State.ScoredListings, 3)
	}
}

func TestRunPipeline_NormalizesParsedProducts(t *testing.T) {
	t.Parallel()

	ma := llmMocks.NewMockAssistant(t)
	ms := searchMocks.NewMockSearcher(t)
	ma.EXPECT().ExpandQueries(mock.Anything, mock.Anything).
		RunAndReturn(func(_ context.Context, req llm.ExpandRequest) ([]domain.ProductQueries, error) {
			assert.Equal(t, []string{"RTX 3090"}, req.Products)
			return nil, errors.New("stop")
		}).Once()

	req := userRequest("rtx 3090")
	req.Parsed = &domain.ParsedRequest{Products: []string{"RTX 3090", "rtx 3090", "  "}}

	_, err := newTestEngine(t, ma, ms, nil).RunPipeline(context.Background(), req, nil)

	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, StagePlan, stageErr.Stage)
}
