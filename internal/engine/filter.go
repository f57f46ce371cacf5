package engine

import (
	"context"
	"fmt"

	"github.com/donaldgifford/deal-finder/internal/metrics"
	"github.com/donaldgifford/deal-finder/pkg/llm"
	domain "github.com/donaldgifford/deal-finder/pkg/types"
)

// Filter keeps the potential listings the model classifies as relevant.
type Filter struct {
	assistant llm.Assistant
	batchSize int
}

// NewFilter creates a Filter sending at most batchSize titles per call.
func NewFilter(a llm.Assistant, batchSize int) *Filter {
	if batchSize < 1 {
		batchSize = 1
	}
	return &Filter{assistant: a, batchSize: batchSize}
}

// Apply classifies the potential listings of st in batches and sets the
// filtered listings and their price statistics. Kept listings stay in
// potential-listing order.
func (f *Filter) Apply(ctx context.Context, st *domain.SearchState) (*domain.SearchState, error) {
	items := st.PotentialListings.Items()
	prompt := st.UserPrompt()

	kept := make([]domain.Listing, 0, len(items))
	for start := 0; start < len(items); start += f.batchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		batch := items[start:min(start+f.batchSize, len(items))]
		titles := make([]string, len(batch))
		for i := range batch {
			titles[i] = batch[i].Title
		}

		keep, err := f.assistant.ClassifyListings(ctx, llm.ClassifyRequest{
			Prompt:                prompt,
			Products:              st.Products,
			IncludeConfigurations: st.IncludeConfigurations,
			Titles:                titles,
		})
		if err != nil {
			return nil, err
		}

		mask := make([]bool, len(batch))
		for _, i := range keep {
			if i < 0 || i >= len(batch) {
				return nil, &llm.ContractError{
					Call: llm.CallClassify,
					Err:  fmt.Errorf("%w: listing id %d not in [0, %d)", llm.ErrOutOfRange, i, len(batch)),
				}
			}
			mask[i] = true
		}
		for i, ok := range mask {
			if ok {
				kept = append(kept, batch[i])
			}
		}
	}

	metrics.ListingsFilteredTotal.WithLabelValues("keep").Add(float64(len(kept)))
	metrics.ListingsFilteredTotal.WithLabelValues("drop").Add(float64(len(items) - len(kept)))

	next := st.Clone()
	next.FilteredListings = kept
	next.AveragePrice, next.MedianPrice = domain.PriceStats(kept)
	return next, nil
}
