package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/donaldgifford/deal-finder/internal/metrics"
	"github.com/donaldgifford/deal-finder/internal/search"
	"github.com/donaldgifford/deal-finder/pkg/llm"
	domain "github.com/donaldgifford/deal-finder/pkg/types"
)

const tracerName = "github.com/donaldgifford/deal-finder/internal/engine"

// ErrNoProducts is returned when a request names no product to search for.
var ErrNoProducts = errors.New("request names no products")

// Request is the input of one pipeline run.
type Request struct {
	Messages []domain.Message
	// Parsed skips the parse stage when set.
	Parsed *domain.ParsedRequest
}

// Result is the outcome of a completed run.
type Result struct {
	RunID   string
	Summary string
	State   *domain.SearchState
	// Empty is true when the run completed without any ranked listing.
	Empty bool
}

// Engine runs the search pipeline. It is safe for concurrent use; each run
// owns its state, and only the searcher's gate is shared between runs.
type Engine struct {
	assistant llm.Assistant
	searcher  search.Searcher
	settings  Settings
	log       *slog.Logger
	tracer    trace.Tracer
	newRunID  func() string
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.log = l
	}
}

// WithTracer sets the tracer used for run and stage spans.
func WithTracer(t trace.Tracer) EngineOption {
	return func(e *Engine) {
		e.tracer = t
	}
}

// WithRunIDFunc overrides run ID generation.
func WithRunIDFunc(f func() string) EngineOption {
	return func(e *Engine) {
		e.newRunID = f
	}
}

// New creates an Engine. Settings are validated up front; a bad tunable is
// returned as *ConfigurationError.
func New(a llm.Assistant, s search.Searcher, settings Settings, opts ...EngineOption) (*Engine, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	eng := &Engine{
		assistant: a,
		searcher:  s,
		settings:  settings,
		log:       slog.Default(),
		tracer:    otel.Tracer(tracerName),
		newRunID:  func() string { return ulid.Make().String() },
	}
	for _, opt := range opts {
		opt(eng)
	}
	return eng, nil
}

// Settings returns the engine's pipeline settings.
func (eng *Engine) Settings() Settings {
	return eng.settings
}

// run is the per-request context of RunPipeline.
type run struct {
	id   string
	log  *slog.Logger
	sink Sink

	mu  sync.Mutex
	seq int
}

func (r *run) emit(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	e.RunID = r.id
	e.Seq = r.seq
	e.Time = time.Now()
	r.sink.Emit(e)
}

// RunPipeline executes every stage in order, emitting one event after each
// stage and after each fetch step, then a terminal completed or failed
// event. A failed run returns a nil result.
func (eng *Engine) RunPipeline(ctx context.Context, req Request, sink Sink) (*Result, error) {
	if sink == nil {
		sink = Discard
	}
	id := eng.newRunID()
	r := &run{id: id, log: eng.log.With("run_id", id), sink: sink}

	metrics.PipelineRunsInFlight.Inc()
	defer metrics.PipelineRunsInFlight.Dec()

	if eng.settings.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, eng.settings.RunTimeout)
		defer cancel()
	}

	ctx, span := eng.tracer.Start(ctx, "pipeline.run", trace.WithAttributes(attribute.String("run.id", id)))
	defer span.End()

	start := time.Now()
	r.log.Info("pipeline run started", "messages", len(req.Messages))

	res, err := eng.run(ctx, req, r)
	if err != nil {
		reason := FailureReason(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, reason)
		metrics.PipelineRunsTotal.WithLabelValues("failed", reason).Inc()
		r.log.Error("pipeline run failed",
			"reason", reason,
			"error", err,
			"duration", time.Since(start),
		)
		r.emit(Event{Stage: StageFailed, Message: err.Error(), Reason: reason})
		return nil, err
	}

	status := "completed"
	if res.Empty {
		status = "empty"
	}
	metrics.PipelineRunsTotal.WithLabelValues(status, "").Inc()
	r.log.Info("pipeline run completed",
		"potential", res.State.PotentialListings.Len(),
		"filtered", len(res.State.FilteredListings),
		"scored", len(res.State.ScoredListings),
		"fetch_failures", len(res.State.FetchFailures),
		"duration", time.Since(start),
	)
	r.emit(Event{
		Stage:    StageCompleted,
		Summary:  res.Summary,
		Listings: res.State.ScoredListings,
	})
	return res, nil
}

func (eng *Engine) run(ctx context.Context, req Request, r *run) (*Result, error) {
	st := domain.NewSearchState(req.Messages)

	err := eng.stage(ctx, StageParse, func(ctx context.Context) error {
		if req.Parsed != nil {
			st = applyParsed(st, req.Parsed)
		} else {
			next, err := ParseRequest(ctx, eng.assistant, st)
			if err != nil {
				return err
			}
			st = next
		}
		if len(st.Products) == 0 {
			return ErrNoProducts
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	r.emit(Event{Stage: StageParse, Products: st.Products})

	planner := NewPlanner(eng.assistant)
	err = eng.stage(ctx, StagePlan, func(ctx context.Context) error {
		next, err := planner.Plan(ctx, st)
		if err != nil {
			return err
		}
		st = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	r.emit(Event{Stage: StagePlan, SearchQueries: st.SearchQueries})

	loop := NewFetchLoop(eng.searcher, eng.settings.MaxPages, WithFetchLogger(r.log))
	err = eng.stage(ctx, StageSearch, func(ctx context.Context) error {
		for !Done(st) {
			next, report, err := loop.Step(ctx, st)
			if err != nil {
				return err
			}
			st = next
			if report.Failure != nil {
				r.emit(Event{
					Stage:       StageFetchError,
					SearchQuery: report.Query,
					Page:        report.Failure.Page,
					Message:     report.Failure.Error(),
				})
			}
			r.emit(Event{
				Stage:         StageSearch,
				SearchQuery:   report.Query,
				NewListings:   report.Added,
				ListingsCount: st.PotentialListings.Len(),
				Remaining:     len(st.SearchQueries),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	filter := NewFilter(eng.assistant, eng.settings.BatchSize)
	err = eng.stage(ctx, StageFilter, func(ctx context.Context) error {
		next, err := filter.Apply(ctx, st)
		if err != nil {
			return err
		}
		st = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	r.emit(Event{
		Stage:          StageFilter,
		ListingsCount:  len(st.FilteredListings),
		PotentialCount: st.PotentialListings.Len(),
		AveragePrice:   st.AveragePrice,
		MedianPrice:    st.MedianPrice,
	})

	scorer := NewScorer(eng.assistant, eng.settings.Weights, eng.settings.Concurrency, r.log)
	var (
		warnMu   sync.Mutex
		warnings []string
	)
	hooks := ScoreHooks{
		Progress: func(done, total int) {
			r.emit(Event{Stage: StageScoreProgress, Done: done, Total: total})
		},
		Warn: func(l *domain.Listing, err error) {
			warnMu.Lock()
			warnings = append(warnings, l.ID+": "+err.Error())
			warnMu.Unlock()
			r.emit(Event{Stage: StageScoreWarning, Message: err.Error()})
		},
	}
	err = eng.stage(ctx, StageScore, func(ctx context.Context) error {
		next, err := scorer.Apply(ctx, st, hooks)
		if err != nil {
			return err
		}
		next.Warnings = append(next.Warnings, warnings...)
		st = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	r.emit(Event{Stage: StageScore, ListingsCount: len(st.ScoredListings)})

	composer := NewComposer(eng.assistant, &eng.settings)
	var summary string
	err = eng.stage(ctx, StageSummary, func(ctx context.Context) error {
		s, err := composer.Compose(ctx, st)
		if err != nil {
			return err
		}
		summary = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	r.emit(Event{Stage: StageSummary})

	return &Result{
		RunID:   r.id,
		Summary: summary,
		State:   st,
		Empty:   len(st.ScoredListings) == 0,
	}, nil
}

// stage runs fn in its own span and records its duration. Cancellation
// observed before or after fn is reported as ErrCancelled; any other error
// is wrapped in a *StageError.
func (eng *Engine) stage(ctx context.Context, s Stage, fn func(context.Context) error) error {
	if ctx.Err() != nil {
		return cancelled(ctx)
	}

	ctx, span := eng.tracer.Start(ctx, "pipeline."+string(s))
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	metrics.PipelineStageDuration.WithLabelValues(string(s)).Observe(time.Since(start).Seconds())

	if ctx.Err() != nil {
		span.SetStatus(codes.Error, ReasonCancelled)
		return cancelled(ctx)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return &StageError{Stage: s, Err: err}
	}
	return nil
}
