package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/deal-finder/internal/api/handlers"
	domain "github.com/donaldgifford/deal-finder/pkg/types"
)

func price(f float64) *float64 { return &f }

func TestWriteRunResult(t *testing.T) {
	t.Parallel()

	resp := &handlers.RunResponse{
		RunID:          "run-1",
		PotentialCount: 34,
		FilteredCount:  20,
		MedianPrice:    1095,
		AveragePrice:   1095,
		FetchFailures:  []domain.FetchFailure{{Query: "rtx 3090 ti", Page: 2, Error: "status 503"}},
		Listings: []domain.ScoredListing{
			{
				Listing:        domain.Listing{Title: "RTX 3090 Founders", URL: "https://www.olx.bg/ad/9", Price: price(1090), Currency: "BGN"},
				RelevancyScore: 0.9,
				PriceScore:     0.99,
				CombinedScore:  1.89,
			},
			{
				Listing:        domain.Listing{Title: "RTX 3090 no price", URL: "https://www.olx.bg/ad/3"},
				RelevancyScore: 0.8,
				PriceScore:     0.5,
				CombinedScore:  1.3,
			},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, writeRunResult(&buf, resp))

	out := buf.String()
	assert.Contains(t, out, "run-1")
	assert.Contains(t, out, "1095.00")
	assert.Contains(t, out, "rtx 3090 ti (page 2): status 503")
	assert.Contains(t, out, "1090.00 BGN")
	assert.Contains(t, out, "1.89")
	assert.Contains(t, out, "https://www.olx.bg/ad/3")
}

func TestWriteRunResult_Empty(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, writeRunResult(&buf, &handlers.RunResponse{
		RunID:   "run-2",
		Summary: "No listings matched.",
		Empty:   true,
	}))

	assert.Contains(t, buf.String(), "No listings matched.")
	assert.NotContains(t, buf.String(), "TITLE")
	assert.NotContains(t, buf.String(), "Median")
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		max  int
		want string
	}{
		{in: "short", max: 10, want: "short"},
		{in: "RTX 3090 Founders Edition", max: 10, want: "RTX 309..."},
		{in: "Видеокарта RTX", max: 8, want: "Видео..."},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, truncate(tt.in, tt.max))
		})
	}
}
