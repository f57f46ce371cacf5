package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/donaldgifford/deal-finder/internal/engine"
	domain "github.com/donaldgifford/deal-finder/pkg/types"
)

// ndjsonContentType is the media type of the event stream.
const ndjsonContentType = "application/x-ndjson"

// PipelineRunner runs one search pipeline.
type PipelineRunner interface {
	RunPipeline(ctx context.Context, req engine.Request, sink engine.Sink) (*engine.Result, error)
}

// PipelineHandler serves pipeline runs, either as a single response or as
// a stream of progress events.
type PipelineHandler struct {
	runner     PipelineRunner
	bufferSize int
	log        *slog.Logger
}

// NewPipelineHandler creates a new PipelineHandler. bufferSize bounds the
// events held for a slow stream consumer.
func NewPipelineHandler(r PipelineRunner, bufferSize int, log *slog.Logger) *PipelineHandler {
	if log == nil {
		log = slog.Default()
	}
	return &PipelineHandler{runner: r, bufferSize: bufferSize, log: log}
}

// RunRequest is the request body shared by the invoke and stream endpoints.
type RunRequest struct {
	Messages []domain.Message `json:"messages" minItems:"1" doc:"Chat history; the latest user message is the request"`
	Products []string         `json:"products,omitempty" doc:"Products to search for; skips request parsing when set"`

	MaxProductsCount      int  `json:"max_products_count,omitempty" minimum:"0" doc:"Listings to return when products are given (default 20)" example:"10"`
	IncludeConfigurations bool `json:"include_configurations,omitempty" doc:"Keep listings that bundle the product into a larger system"`
}

// RunInput wraps RunRequest as a Huma request body.
type RunInput struct {
	Body RunRequest
}

// RunResponse is the response body of a completed run.
type RunResponse struct {
	RunID          string                 `json:"run_id" doc:"Run identifier"`
	Summary        string                 `json:"summary" doc:"Narrative followed by the ranked listing lines"`
	Listings       []domain.ScoredListing `json:"listings" doc:"Ranked listings, best first"`
	PotentialCount int                    `json:"potential_count" doc:"Unique listings fetched"`
	FilteredCount  int                    `json:"filtered_count" doc:"Listings kept by the filter"`
	AveragePrice   float64                `json:"average_price" doc:"Mean price of the filtered listings"`
	MedianPrice    float64                `json:"median_price" doc:"Median price of the filtered listings"`
	FetchFailures  []domain.FetchFailure  `json:"fetch_failures,omitempty" doc:"Search queries abandoned after a fetch error"`
	Warnings       []string               `json:"warnings,omitempty" doc:"Non-fatal problems during the run"`
	Empty          bool                   `json:"empty" doc:"True when no listing survived the pipeline"`
}

// RunOutput is the response of the invoke endpoint.
type RunOutput struct {
	Body RunResponse
}

// StreamEvent is one line of the event stream.
type StreamEvent struct {
	engine.Event
	Description string `json:"description" doc:"Human-readable progress line"`
}

func (r *RunRequest) toEngine() engine.Request {
	req := engine.Request{Messages: r.Messages}
	if len(r.Products) > 0 {
		req.Parsed = &domain.ParsedRequest{
			Products:              r.Products,
			MaxProductsCount:      r.MaxProductsCount,
			IncludeConfigurations: r.IncludeConfigurations,
		}
	}
	return req
}

// Invoke runs the pipeline to completion and returns the ranked result.
func (h *PipelineHandler) Invoke(ctx context.Context, input *RunInput) (*RunOutput, error) {
	res, err := h.runner.RunPipeline(ctx, input.Body.toEngine(), engine.Discard)
	if err != nil {
		return nil, runError(err)
	}

	st := res.State
	out := &RunOutput{}
	out.Body = RunResponse{
		RunID:          res.RunID,
		Summary:        res.Summary,
		Listings:       st.ScoredListings,
		PotentialCount: st.PotentialListings.Len(),
		FilteredCount:  len(st.FilteredListings),
		AveragePrice:   st.AveragePrice,
		MedianPrice:    st.MedianPrice,
		FetchFailures:  st.FetchFailures,
		Warnings:       st.Warnings,
		Empty:          res.Empty,
	}
	if out.Body.Listings == nil {
		out.Body.Listings = []domain.ScoredListing{}
	}
	return out, nil
}

// Stream runs the pipeline and writes each progress event as one JSON line,
// ending with the completed or failed event. Run failures are reported in
// the stream, not as an HTTP error.
func (h *PipelineHandler) Stream(_ context.Context, input *RunInput) (*huma.StreamResponse, error) {
	req := input.Body.toEngine()

	return &huma.StreamResponse{
		Body: func(hctx huma.Context) {
			hctx.SetHeader("Content-Type", ndjsonContentType)
			hctx.SetHeader("Cache-Control", "no-cache")
			hctx.SetStatus(http.StatusOK)

			ctx := hctx.Context()
			w := hctx.BodyWriter()
			flusher, _ := w.(http.Flusher)

			buf := engine.NewEventBuffer(h.bufferSize)
			go func() {
				defer buf.Close()
				_, _ = h.runner.RunPipeline(ctx, req, buf)
			}()

			enc := json.NewEncoder(w)
			for {
				e, ok := buf.Next(ctx)
				if !ok {
					break
				}
				if err := enc.Encode(StreamEvent{Event: e, Description: e.Describe()}); err != nil {
					h.log.Warn("writing stream event", "run_id", e.RunID, "error", err)
					return
				}
				if flusher != nil {
					flusher.Flush()
				}
			}

			if n := buf.Dropped(); n > 0 {
				h.log.Warn("stream consumer fell behind", "dropped_events", n)
			}
		},
	}, nil
}

// runError maps a failed run to an HTTP error.
func runError(err error) error {
	msg := "run failed: " + err.Error()
	switch engine.FailureReason(err) {
	case engine.ReasonBadRequest:
		return huma.Error400BadRequest(msg)
	case engine.ReasonPlanning, engine.ReasonModelCall, engine.ReasonModelContract, engine.ReasonSearch:
		return huma.Error502BadGateway(msg)
	case engine.ReasonCancelled:
		return huma.Error504GatewayTimeout(msg)
	default:
		return huma.Error500InternalServerError(msg)
	}
}

// RegisterPipelineRoutes registers pipeline endpoints with the Huma API.
func RegisterPipelineRoutes(api huma.API, h *PipelineHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "invoke-pipeline",
		Method:      http.MethodPost,
		Path:        "/api/v1/invoke",
		Summary:     "Run a deal search",
		Description: "Parses the request, searches the marketplace, filters and scores " +
			"the listings, and returns a ranked summary.",
		Tags: []string{"pipeline"},
		Errors: []int{
			http.StatusBadRequest,
			http.StatusBadGateway,
			http.StatusGatewayTimeout,
			http.StatusInternalServerError,
		},
	}, h.Invoke)

	huma.Register(api, huma.Operation{
		OperationID: "stream-pipeline",
		Method:      http.MethodPost,
		Path:        "/api/v1/stream",
		Summary:     "Run a deal search with progress events",
		Description: "Runs the same pipeline as invoke and streams one JSON event per " +
			"line (application/x-ndjson), ending with a completed or failed event.",
		Tags: []string{"pipeline"},
	}, h.Stream)
}
