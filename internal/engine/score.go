// Package engine implements the search pipeline: request parsing, query
// planning, the rate-limited fetch loop, relevance filtering, scoring, and
// the summary, driven in order by Engine.RunPipeline.
package engine

import (
	"context"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/donaldgifford/deal-finder/internal/metrics"
	"github.com/donaldgifford/deal-finder/pkg/llm"
	score "github.com/donaldgifford/deal-finder/pkg/scorer"
	domain "github.com/donaldgifford/deal-finder/pkg/types"
)

// ScoreHooks receive per-listing notifications from Scorer.Apply. They may
// be called from several goroutines at once.
type ScoreHooks struct {
	Progress func(done, total int)
	// Warn is called when a listing could not be rated and received the
	// neutral relevancy score.
	Warn func(l *domain.Listing, err error)
}

// Scorer rates the filtered listings and ranks them.
type Scorer struct {
	assistant   llm.Assistant
	weights     score.Weights
	concurrency int
	log         *slog.Logger
}

// NewScorer creates a Scorer running at most concurrency model calls at once.
func NewScorer(a llm.Assistant, w score.Weights, concurrency int, log *slog.Logger) *Scorer {
	if concurrency < 1 {
		concurrency = 1
	}
	if log == nil {
		log = slog.Default()
	}
	return &Scorer{
		assistant:   a,
		weights:     w,
		concurrency: concurrency,
		log:         log,
	}
}

// Apply scores every filtered listing of st and sets the ranked scored
// listings. A listing whose rating violates the model contract gets the
// neutral relevancy score; any other model failure fails the stage.
func (s *Scorer) Apply(ctx context.Context, st *domain.SearchState, hooks ScoreHooks) (*domain.SearchState, error) {
	listings := st.FilteredListings
	total := len(listings)
	results := make([]score.Breakdown, total)
	prompt := st.UserPrompt()

	var done atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i := range listings {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			l := &listings[i]
			relevancy, err := s.rate(gctx, prompt, st.Products, l)
			if err != nil {
				if !llm.IsContractError(err) || gctx.Err() != nil {
					return err
				}
				s.log.Warn("using neutral relevancy for listing",
					"listing_id", l.ID,
					"title", l.Title,
					"error", err,
				)
				if hooks.Warn != nil {
					hooks.Warn(l, err)
				}
				relevancy = score.NeutralScore
			}

			results[i] = score.ScoreWithRelevancy(l, relevancy, st.MedianPrice, s.weights)

			n := int(done.Add(1))
			if hooks.Progress != nil {
				hooks.Progress(n, total)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	scored := make([]domain.ScoredListing, total)
	for i := range listings {
		scored[i] = score.Scored(listings[i], results[i])
		metrics.ScoringDistribution.Observe(results[i].Combined)
	}
	score.Rank(scored)
	metrics.ListingsScoredTotal.Add(float64(total))

	next := st.Clone()
	next.ScoredListings = scored
	return next, nil
}

func (s *Scorer) rate(ctx context.Context, prompt string, products []string, l *domain.Listing) (float64, error) {
	rating, err := s.assistant.ScoreListing(ctx, llm.ScoreRequest{
		Prompt:      prompt,
		Products:    products,
		Title:       l.Title,
		Description: l.Description,
	})
	if err != nil {
		return 0, err
	}
	return score.RelevancyScore(rating), nil
}
