package engine

import (
	"context"
	"errors"
	"strings"

	"github.com/donaldgifford/deal-finder/pkg/llm"
	domain "github.com/donaldgifford/deal-finder/pkg/types"
)

// MaxQueriesPerProduct caps the search queries kept for one product.
const MaxQueriesPerProduct = 5

// ErrNoQueries is returned when the model produced no usable query.
var ErrNoQueries = errors.New("no usable search queries")

// Planner turns the requested products into a queue of search queries.
type Planner struct {
	assistant llm.Assistant
}

// NewPlanner creates a Planner backed by a.
func NewPlanner(a llm.Assistant) *Planner {
	return &Planner{assistant: a}
}

// Plan fills the search query queue of st. Failures are returned as
// *PlanningError unless the context was cancelled.
func (p *Planner) Plan(ctx context.Context, st *domain.SearchState) (*domain.SearchState, error) {
	groups, err := p.assistant.ExpandQueries(ctx, llm.ExpandRequest{
		Products:              st.Products,
		IncludeConfigurations: st.IncludeConfigurations,
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &PlanningError{Err: err}
	}

	queries := flattenQueries(st.Products, groups)
	if len(queries) == 0 {
		return nil, &PlanningError{Err: &llm.ContractError{Call: llm.CallExpandQueries, Err: ErrNoQueries}}
	}

	next := st.Clone()
	next.SearchQueries = queries
	return next, nil
}

// flattenQueries orders the query groups by product, then appends groups
// for products the model named differently. Queries are trimmed; empty and
// case-insensitive duplicates are dropped, and each product keeps at most
// MaxQueriesPerProduct.
func flattenQueries(products []string, groups []domain.ProductQueries) []string {
	byProduct := make(map[string][]int, len(groups))
	for i, g := range groups {
		key := strings.ToLower(strings.TrimSpace(g.Product))
		byProduct[key] = append(byProduct[key], i)
	}

	order := make([]int, 0, len(groups))
	used := make([]bool, len(groups))
	for _, p := range products {
		for _, i := range byProduct[strings.ToLower(strings.TrimSpace(p))] {
			if !used[i] {
				used[i] = true
				order = append(order, i)
			}
		}
	}
	for i := range groups {
		if !used[i] {
			order = append(order, i)
		}
	}

	seen := make(map[string]struct{})
	var out []string
	for _, i := range order {
		kept := 0
		for _, q := range groups[i].SearchQueries {
			if kept == MaxQueriesPerProduct {
				break
			}
			q = strings.Join(strings.Fields(q), " ")
			if q == "" {
				continue
			}
			key := strings.ToLower(q)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, q)
			kept++
		}
	}
	return out
}
