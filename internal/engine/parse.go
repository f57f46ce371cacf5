package engine

import (
	"context"
	"errors"
	"strings"

	"github.com/donaldgifford/deal-finder/pkg/llm"
	domain "github.com/donaldgifford/deal-finder/pkg/types"
)

// ErrEmptyRequest is returned when the chat history has no user message.
var ErrEmptyRequest = errors.New("request has no user message")

// ParseRequest extracts products and preferences from the user messages of
// st and returns the updated state.
func ParseRequest(ctx context.Context, a llm.Assistant, st *domain.SearchState) (*domain.SearchState, error) {
	prompt := st.UserPrompt()
	if strings.TrimSpace(prompt) == "" {
		return nil, ErrEmptyRequest
	}

	parsed, err := a.ParseRequest(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return applyParsed(st, parsed), nil
}

func applyParsed(st *domain.SearchState, p *domain.ParsedRequest) *domain.SearchState {
	next := st.Clone()
	next.Products = domain.NormalizeProducts(p.Products)
	next.MaxProductsCount = p.MaxProductsCount
	if next.MaxProductsCount <= 0 {
		next.MaxProductsCount = llm.DefaultMaxProductsCount
	}
	next.IncludeConfigurations = p.IncludeConfigurations
	return next
}
