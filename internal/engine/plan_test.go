package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/deal-finder/pkg/llm"
	llmMocks "github.com/donaldgifford/deal-finder/pkg/llm/mocks"
	domain "github.com/donaldgifford/deal-finder/pkg/types"
)

func TestFlattenQueries(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		products []string
		groups   []domain.ProductQueries
		want     []string
	}{
		{
			name:     "single product",
			products: []string{"RTX 3090"},
			groups: []domain.ProductQueries{
				{Product: "RTX 3090", SearchQueries: []string{"rtx 3090", "rtx3090"}},
			},
			want: []string{"rtx 3090", "rtx3090"},
		},
		{
			name:     "ordered by product",
			products: []string{"iPhone 13", "RTX 3090"},
			groups: []domain.ProductQueries{
				{Product: "rtx 3090", SearchQueries: []string{"rtx 3090"}},
				{Product: "iphone 13", SearchQueries: []string{"iphone 13"}},
			},
			want: []string{"iphone 13", "rtx 3090"},
		},
		{
			name:     "unmatched group appended",
			products: []string{"RTX 3090"},
			groups: []domain.ProductQueries{
				{Product: "graphics card", SearchQueries: []string{"gpu"}},
				{Product: "RTX 3090", SearchQueries: []string{"rtx 3090"}},
			},
			want: []string{"rtx 3090", "gpu"},
		},
		{
			name:     "trimmed and case-insensitive dedupe",
			products: []string{"RTX 3090"},
			groups: []domain.ProductQueries{
				{Product: "RTX 3090", SearchQueries: []string{"  rtx   3090 ", "RTX 3090", "", "   "}},
			},
			want: []string{"rtx 3090"},
		},
		{
			name:     "dedupe across products",
			products: []string{"a", "b"},
			groups: []domain.ProductQueries{
				{Product: "a", SearchQueries: []string{"shared", "only a"}},
				{Product: "b", SearchQueries: []string{"Shared", "only b"}},
			},
			want: []string{"shared", "only a", "only b"},
		},
		{
			name:     "capped per product",
			products: []string{"a"},
			groups: []domain.ProductQueries{
				{Product: "a", SearchQueries: []string{"q1", "q1", "q2", "q3", "q4", "q5", "q6"}},
			},
			want: []string{"q1", "q2", "q3", "q4", "q5"},
		},
		{
			name:     "no groups",
			products: []string{"a"},
			want:     nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, flattenQueries(tt.products, tt.groups))
		})
	}
}

func TestPlanner_Plan(t *testing.T) {
	t.Parallel()

	ma := llmMocks.NewMockAssistant(t)
	ma.EXPECT().ExpandQueries(mock.Anything, llm.ExpandRequest{
		Products:              []string{"RTX 3090"},
		IncludeConfigurations: true,
	}).Return([]domain.ProductQueries{
		{Product: "RTX 3090", SearchQueries: []string{"rtx 3090", "видеокарта rtx 3090"}},
	}, nil).Once()

	st := stateWithQueries()
	st.IncludeConfigurations = true

	next, err := NewPlanner(ma).Plan(context.Background(), st)
	require.NoError(t, err)
	assert.Equal(t, []string{"rtx 3090", "видеокарта rtx 3090"}, next.SearchQueries)
	assert.Empty(t, st.SearchQueries)
}

func TestPlanner_PlanErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		groups     []domain.ProductQueries
		err        error
		wantInside error
	}{
		{
			name:       "model failure",
			err:        errors.New("connection refused"),
			wantInside: nil,
		},
		{
			name:       "contract violation",
			err:        &llm.ContractError{Call: llm.CallExpandQueries, Err: llm.ErrMissingField},
			wantInside: llm.ErrMissingField,
		},
		{
			name:       "only blank queries",
			groups:     []domain.ProductQueries{{Product: "RTX 3090", SearchQueries: []string{" ", ""}}},
			wantInside: ErrNoQueries,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ma := llmMocks.NewMockAssistant(t)
			ma.EXPECT().ExpandQueries(mock.Anything, mock.Anything).Return(tt.groups, tt.err).Once()

			_, err := NewPlanner(ma).Plan(context.Background(), stateWithQueries())
			require.Error(t, err)

			var planErr *PlanningError
			require.ErrorAs(t, err, &planErr)
			assert.Equal(t, ReasonPlanning, FailureReason(err))
			if tt.wantInside != nil {
				assert.ErrorIs(t, err, tt.wantInside)
			}
		})
	}
}

func TestPlanner_PlanCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	ma := llmMocks.NewMockAssistant(t)
	ma.EXPECT().ExpandQueries(mock.Anything, mock.Anything).
		RunAndReturn(func(context.Context, llm.ExpandRequest) ([]domain.ProductQueries, error) {
			cancel()
			return nil, context.Canceled
		}).Once()

	_, err := NewPlanner(ma).Plan(ctx, stateWithQueries())
	require.ErrorIs(t, err, context.Canceled)

	var planErr *PlanningError
	assert.False(t, errors.As(err, &planErr))
}
