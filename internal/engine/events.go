package engine

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/donaldgifford/deal-finder/internal/metrics"
	domain "github.com/donaldgifford/deal-finder/pkg/types"
)

// Stage names a pipeline step. Stage values double as progress event types.
type Stage string

// Stage constants.
const (
	StageParse         Stage = "parse_user_request"
	StagePlan          Stage = "generate_search_queries"
	StageSearch        Stage = "search_for_listings"
	StageFetchError    Stage = "fetch_error"
	StageFilter        Stage = "filter_listings"
	StageScore         Stage = "score_listings"
	StageScoreProgress Stage = "score_listings_progress"
	StageScoreWarning  Stage = "score_warning"
	StageSummary       Stage = "generate_response"
	StageCompleted     Stage = "completed"
	StageFailed        Stage = "failed"
)

// Terminal reports whether the stage ends a run.
func (s Stage) Terminal() bool {
	return s == StageCompleted || s == StageFailed
}

// Event is one progress notification from a run. Only the fields relevant
// to the stage are set.
type Event struct {
	RunID string    `json:"run_id"`
	Seq   int       `json:"seq"`
	Stage Stage     `json:"stage"`
	Time  time.Time `json:"time"`

	Products      []string `json:"products,omitempty"`
	SearchQueries []string `json:"search_queries,omitempty"`
	SearchQuery   string   `json:"search_query,omitempty"`
	Page          int      `json:"page,omitempty"`
	Remaining     int      `json:"remaining,omitempty"`
	NewListings   int      `json:"new_listings,omitempty"`

	ListingsCount  int     `json:"listings_count,omitempty"`
	PotentialCount int     `json:"potential_count,omitempty"`
	AveragePrice   float64 `json:"average_price,omitempty"`
	MedianPrice    float64 `json:"median_price,omitempty"`

	Done  int `json:"done,omitempty"`
	Total int `json:"total,omitempty"`

	Summary  string                 `json:"summary,omitempty"`
	Listings []domain.ScoredListing `json:"listings,omitempty"`

	Message string `json:"message,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

// Describe returns a short human-readable line for the event.
func (e *Event) Describe() string {
	switch e.Stage {
	case StageParse:
		return "Looking for " + strings.Join(e.Products, ", ")
	case StagePlan:
		return fmt.Sprintf("Generated %d search queries", len(e.SearchQueries))
	case StageSearch:
		return fmt.Sprintf("Searching for %s (%d new listings)", e.SearchQuery, e.NewListings)
	case StageFetchError:
		return fmt.Sprintf("Search for %s failed on page %d", e.SearchQuery, e.Page)
	case StageFilter:
		return fmt.Sprintf("Kept %d of %d listings", e.ListingsCount, e.PotentialCount)
	case StageScore:
		return fmt.Sprintf("Scored %d listings", e.ListingsCount)
	case StageScoreProgress:
		return fmt.Sprintf("Scoring %d of %d listings", e.Done, e.Total)
	case StageScoreWarning:
		return "Could not rate a listing, using a neutral score"
	case StageSummary:
		return "Writing summary"
	case StageCompleted:
		return "Done"
	case StageFailed:
		if e.Reason != "" {
			return "Failed (" + e.Reason + "): " + e.Message
		}
		return "Failed: " + e.Message
	default:
		return string(e.Stage)
	}
}

// Sink receives progress events. Emit must not block the run for long;
// slow consumers should sit behind an EventBuffer.
type Sink interface {
	Emit(Event)
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(Event)

// Emit calls f(e).
func (f SinkFunc) Emit(e Event) {
	f(e)
}

// Discard is a Sink that drops every event.
var Discard Sink = SinkFunc(func(Event) {})

// EventBuffer is a bounded Sink that never blocks the producer. When full,
// the oldest buffered event is dropped to make room. Terminal events are
// always retained and close the buffer.
type EventBuffer struct {
	mu      sync.Mutex
	events  []Event
	size    int
	closed  bool
	dropped int
	ready   chan struct{}
}

// NewEventBuffer creates a buffer holding at most size events.
func NewEventBuffer(size int) *EventBuffer {
	if size < 1 {
		size = 1
	}
	return &EventBuffer{
		events: make([]Event, 0, size),
		size:   size,
		ready:  make(chan struct{}, 1),
	}
}

// Emit appends e, dropping the oldest event when full. Events after a
// terminal event are ignored.
func (b *EventBuffer) Emit(e Event) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	if len(b.events) == b.size {
		b.events = append(b.events[:0], b.events[1:]...)
		b.dropped++
		metrics.PipelineEventsDroppedTotal.Inc()
	}
	b.events = append(b.events, e)
	if e.Stage.Terminal() {
		b.closed = true
	}
	b.mu.Unlock()

	b.signal()
}

// Close stops the buffer from accepting events. Buffered events remain
// readable.
func (b *EventBuffer) Close() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	b.signal()
}

// Next returns the oldest buffered event, waiting until one is available.
// It returns false once the buffer is closed and drained, or when ctx is
// done.
func (b *EventBuffer) Next(ctx context.Context) (Event, bool) {
	for {
		b.mu.Lock()
		if len(b.events) > 0 {
			e := b.events[0]
			b.events = b.events[1:]
			b.mu.Unlock()
			return e, true
		}
		closed := b.closed
		b.mu.Unlock()

		if closed {
			return Event{}, false
		}

		select {
		case <-b.ready:
		case <-ctx.Done():
			return Event{}, false
		}
	}
}

// Dropped returns the number of events discarded because the buffer was full.
func (b *EventBuffer) Dropped() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}

func (b *EventBuffer) signal() {
	select {
	case b.ready <- struct{}{}:
	default:
	}
}
