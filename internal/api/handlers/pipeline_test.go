package handlers_test

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/deal-finder/internal/api/handlers"
	"github.com/donaldgifford/deal-finder/internal/api/handlers/mocks"
	"github.com/donaldgifford/deal-finder/internal/engine"
	"github.com/donaldgifford/deal-finder/pkg/llm"
	domain "github.com/donaldgifford/deal-finder/pkg/types"
)

const gpuRequest = `{"messages":[{"role":"user","content":"Looking for an RTX 3090 under 1500"}]}`

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func price(f float64) *float64 { return &f }

func completedResult() *engine.Result {
	st := domain.NewSearchState([]domain.Message{{Role: domain.RoleUser, Content: "rtx 3090"}})
	gpu := domain.Listing{ID: "1", Title: "RTX 3090 FE", URL: "https://www.olx.bg/ad/1", Price: price(1100), Currency: "BGN"}
	st.PotentialListings.Merge([]domain.Listing{gpu, {ID: "2", Title: "RTX 3090 box"}})
	st.FilteredListings = []domain.Listing{gpu}
	st.AveragePrice = 1100
	st.MedianPrice = 1100
	st.ScoredListings = []domain.ScoredListing{{Listing: gpu, RelevancyScore: 0.9, PriceScore: 1, CombinedScore: 1.9}}
	st.FetchFailures = []domain.FetchFailure{{Query: "rtx 3090 ti", Page: 2, Error: "status 503"}}

	return &engine.Result{
		RunID:   "run-1",
		Summary: "One good deal.\n\n- [RTX 3090 FE (1100.00 BGN)](https://www.olx.bg/ad/1)",
		State:   st,
	}
}

func newPipelineAPI(t *testing.T, runner handlers.PipelineRunner) humatest.TestAPI {
	t.Helper()

	_, api := humatest.New(t)
	handlers.RegisterPipelineRoutes(api, handlers.NewPipelineHandler(runner, 16, quietLogger()))
	return api
}

func TestInvoke_Success(t *testing.T) {
	t.Parallel()

	runner := mocks.NewMockPipelineRunner(t)
	runner.EXPECT().RunPipeline(mock.Anything, mock.Anything, mock.Anything).
		RunAndReturn(func(_ context.Context, req engine.Request, _ engine.Sink) (*engine.Result, error) {
			assert.Nil(t, req.Parsed)
			require.Len(t, req.Messages, 1)
			assert.Equal(t, domain.RoleUser, req.Messages[0].Role)
			return completedResult(), nil
		}).Once()

	api := newPipelineAPI(t, runner)

	resp := api.Post("/api/v1/invoke", strings.NewReader(gpuRequest))
	require.Equal(t, http.StatusOK, resp.Code)

	var body handlers.RunResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, "run-1", body.RunID)
	assert.Contains(t, body.Summary, "One good deal.")
	assert.Equal(t, 2, body.PotentialCount)
	assert.Equal(t, 1, body.FilteredCount)
	assert.InDelta(t, 1100.0, body.MedianPrice, 0.001)
	require.Len(t, body.Listings, 1)
	assert.Equal(t, "1", body.Listings[0].Listing.ID)
	require.Len(t, body.FetchFailures, 1)
	assert.Equal(t, "rtx 3090 ti", body.FetchFailures[0].Query)
	assert.False(t, body.Empty)
}

func TestInvoke_ProductsSkipParsing(t *testing.T) {
	t.Parallel()

	runner := mocks.NewMockPipelineRunner(t)
	runner.EXPECT().RunPipeline(mock.Anything, mock.Anything, mock.Anything).
		RunAndReturn(func(_ context.Context, req engine.Request, _ engine.Sink) (*engine.Result, error) {
			require.NotNil(t, req.Parsed)
			assert.Equal(t, []string{"RTX 3090", "RTX 4090"}, req.Parsed.Products)
			assert.Equal(t, 5, req.Parsed.MaxProductsCount)
			assert.True(t, req.Parsed.IncludeConfigurations)
			return completedResult(), nil
		}).Once()

	api := newPipelineAPI(t, runner)

	resp := api.Post("/api/v1/invoke", strings.NewReader(`{
		"messages":[{"role":"user","content":"gpus"}],
		"products":["RTX 3090","RTX 4090"],
		"max_products_count":5,
		"include_configurations":true
	}`))
	require.Equal(t, http.StatusOK, resp.Code)
}

func TestInvoke_EmptyResultListsNoListings(t *testing.T) {
	t.Parallel()

	res := &engine.Result{
		RunID:   "run-2",
		Summary: engine.NoResultsText,
		State:   domain.NewSearchState(nil),
		Empty:   true,
	}

	runner := mocks.NewMockPipelineRunner(t)
	runner.EXPECT().RunPipeline(mock.Anything, mock.Anything, mock.Anything).Return(res, nil).Once()

	api := newPipelineAPI(t, runner)

	resp := api.Post("/api/v1/invoke", strings.NewReader(gpuRequest))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"listings":[]`)
	assert.Contains(t, resp.Body.String(), `"empty":true`)
}

func TestInvoke_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{name: "no messages", body: `{"messages":[]}`},
		{name: "unknown role", body: `{"messages":[{"role":"robot","content":"hi"}]}`},
		{name: "negative count", body: `{"messages":[{"role":"user","content":"hi"}],"max_products_count":-1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			runner := mocks.NewMockPipelineRunner(t)
			api := newPipelineAPI(t, runner)

			resp := api.Post("/api/v1/invoke", strings.NewReader(tt.body))
			assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
		})
	}
}

func TestInvoke_RunErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{
			name:       "no products",
			err:        &engine.StageError{Stage: engine.StageParse, Err: engine.ErrNoProducts},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "planning",
			err: &engine.StageError{
				Stage: engine.StagePlan,
				Err:   &engine.PlanningError{Err: &llm.ContractError{Call: llm.CallExpandQueries}},
			},
			wantStatus: http.StatusBadGateway,
		},
		{
			name:       "model call",
			err:        &engine.StageError{Stage: engine.StageScore, Err: errors.New("connection reset")},
			wantStatus: http.StatusBadGateway,
		},
		{
			name:       "cancelled",
			err:        fmt.Errorf("%w: %w", engine.ErrCancelled, context.Canceled),
			wantStatus: http.StatusGatewayTimeout,
		},
		{
			name:       "internal",
			err:        errors.New("unexpected"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			runner := mocks.NewMockPipelineRunner(t)
			runner.EXPECT().RunPipeline(mock.Anything, mock.Anything, mock.Anything).Return(nil, tt.err).Once()

			api := newPipelineAPI(t, runner)

			resp := api.Post("/api/v1/invoke", strings.NewReader(gpuRequest))
			assert.Equal(t, tt.wantStatus, resp.Code)
			assert.Contains(t, resp.Body.String(), "run failed")
		})
	}
}

func readStream(t *testing.T, body io.Reader) []handlers.StreamEvent {
	t.Helper()

	var events []handlers.StreamEvent
	sc := bufio.NewScanner(body)
	for sc.Scan() {
		var e handlers.StreamEvent
		require.NoError(t, json.Unmarshal(sc.Bytes(), &e))
		events = append(events, e)
	}
	require.NoError(t, sc.Err())
	return events
}

func TestStream_Completed(t *testing.T) {
	t.Parallel()

	runner := mocks.NewMockPipelineRunner(t)
	runner.EXPECT().RunPipeline(mock.Anything, mock.Anything, mock.Anything).
		RunAndReturn(func(_ context.Context, _ engine.Request, sink engine.Sink) (*engine.Result, error) {
			sink.Emit(engine.Event{RunID: "run-1", Seq: 1, Stage: engine.StageParse, Products: []string{"RTX 3090"}})
			sink.Emit(engine.Event{RunID: "run-1", Seq: 2, Stage: engine.StagePlan, SearchQueries: []string{"rtx 3090", "3090 fe"}})
			sink.Emit(engine.Event{RunID: "run-1", Seq: 3, Stage: engine.StageSearch, SearchQuery: "rtx 3090", NewListings: 7})
			sink.Emit(engine.Event{RunID: "run-1", Seq: 4, Stage: engine.StageCompleted, Summary: "done"})
			return completedResult(), nil
		}).Once()

	api := newPipelineAPI(t, runner)

	resp := api.Post("/api/v1/stream", strings.NewReader(gpuRequest))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "application/x-ndjson", resp.Header().Get("Content-Type"))

	events := readStream(t, resp.Body)
	require.Len(t, events, 4)
	assert.Equal(t, engine.StageParse, events[0].Stage)
	assert.Equal(t, "Looking for RTX 3090", events[0].Description)
	assert.Equal(t, "Generated 2 search queries", events[1].Description)
	assert.Equal(t, 7, events[2].NewListings)
	assert.Equal(t, engine.StageCompleted, events[3].Stage)
	assert.Equal(t, "done", events[3].Summary)
	for i, e := range events {
		assert.Equal(t, i+1, e.Seq)
		assert.Equal(t, "run-1", e.RunID)
	}
}

func TestStream_FailureIsAnEvent(t *testing.T) {
	t.Parallel()

	runner := mocks.NewMockPipelineRunner(t)
	runner.EXPECT().RunPipeline(mock.Anything, mock.Anything, mock.Anything).
		RunAndReturn(func(_ context.Context, _ engine.Request, sink engine.Sink) (*engine.Result, error) {
			sink.Emit(engine.Event{Seq: 1, Stage: engine.StageFailed, Reason: engine.ReasonPlanning, Message: "no queries"})
			return nil, &engine.PlanningError{Err: errors.New("no queries")}
		}).Once()

	api := newPipelineAPI(t, runner)

	resp := api.Post("/api/v1/stream", strings.NewReader(gpuRequest))
	require.Equal(t, http.StatusOK, resp.Code)

	events := readStream(t, resp.Body)
	require.Len(t, events, 1)
	assert.Equal(t, engine.StageFailed, events[0].Stage)
	assert.Equal(t, engine.ReasonPlanning, events[0].Reason)
	assert.Equal(t, "Failed (planning): no queries", events[0].Description)
}

func TestStream_ParsedRequestForwarded(t *testing.T) {
	t.Parallel()

	runner := mocks.NewMockPipelineRunner(t)
	runner.EXPECT().RunPipeline(mock.Anything, mock.Anything, mock.Anything).
		RunAndReturn(func(_ context.Context, req engine.Request, sink engine.Sink) (*engine.Result, error) {
			require.NotNil(t, req.Parsed)
			assert.Equal(t, []string{"iPhone 13"}, req.Parsed.Products)
			sink.Emit(engine.Event{Seq: 1, Stage: engine.StageCompleted})
			return completedResult(), nil
		}).Once()

	api := newPipelineAPI(t, runner)

	resp := api.Post("/api/v1/stream", strings.NewReader(
		`{"messages":[{"role":"user","content":"phone"}],"products":["iPhone 13"]}`))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Len(t, readStream(t, resp.Body), 1)
}
