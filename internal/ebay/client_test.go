package ebay_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/deal-finder/internal/ebay"
)

type staticToken struct {
	token       string
	err         error
	invalidated bool
}

func (s *staticToken) Token(context.Context) (string, error) { return s.token, s.err }

func (s *staticToken) Invalidate() { s.invalidated = true }

func TestClient_Search(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		page       int
		handler    http.HandlerFunc
		tokenErr   error
		wantErr    bool
		errContain string
		wantCount  int
		wantMore   bool
	}{
		{
			name: "successful search",
			page: 2,
			handler: func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
				assert.Equal(t, "EBAY_GB", r.Header.Get("X-EBAY-C-MARKETPLACE-ID"))
				assert.Equal(t, "rtx 3090", r.URL.Query().Get("q"))
				assert.Equal(t, "10", r.URL.Query().Get("limit"))
				assert.Equal(t, "10", r.URL.Query().Get("offset"))
				assert.Equal(t, "27386", r.URL.Query().Get("category_ids"))
				_, _ = w.Write([]byte(`{
					"itemSummaries": [
						{"itemId": "v1|1|0", "title": "RTX 3090", "price": {"value": "650.00", "currency": "GBP"}, "itemWebUrl": "https://ebay.com/1"},
						{"itemId": "v1|2|0", "title": "RTX 3090 Ti", "itemWebUrl": "https://ebay.com/2"},
						{"itemId": "", "title": "broken", "itemWebUrl": "https://ebay.com/3"}
					],
					"next": "https://api.ebay.com/buy/browse/v1/item_summary/search?offset=20"
				}`))
			},
			wantCount: 2,
			wantMore:  true,
		},
		{
			name: "last page",
			page: 1,
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"itemSummaries": [], "total": 0}`))
			},
			wantCount: 0,
			wantMore:  false,
		},
		{
			name: "server error",
			page: 1,
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			wantErr:    true,
			errContain: "status 500",
		},
		{
			name:       "token failure",
			page:       1,
			handler:    func(http.ResponseWriter, *http.Request) {},
			tokenErr:   errors.New("boom"),
			wantErr:    true,
			errContain: "getting auth token",
		},
		{
			name: "invalid json",
			page: 1,
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{`))
			},
			wantErr:    true,
			errContain: "parsing search response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			c := ebay.NewClient(&staticToken{token: "test-token", err: tt.tokenErr},
				ebay.WithBrowseURL(srv.URL),
				ebay.WithMarketplace("EBAY_GB"),
				ebay.WithCategoryID("27386"),
				ebay.WithPageSize(10),
			)

			page, err := c.Search(context.Background(), "rtx 3090", tt.page)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContain)
				return
			}

			require.NoError(t, err)
			assert.Len(t, page.Listings, tt.wantCount)
			assert.Equal(t, tt.wantMore, page.HasMore)
		})
	}
}

func TestClient_UnauthorizedInvalidatesToken(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	tokens := &staticToken{token: "stale"}
	c := ebay.NewClient(tokens, ebay.WithBrowseURL(srv.URL))

	_, err := c.Search(context.Background(), "q", 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, ebay.ErrUnauthorized)
	assert.True(t, tokens.invalidated)
}

func TestToListings(t *testing.T) {
	t.Parallel()

	items := []ebay.ItemSummary{
		{
			ItemID:       "v1|1|0",
			Title:        "RTX 3090",
			Price:        &ebay.ItemPrice{Value: "650.50", Currency: "GBP"},
			ItemWebURL:   "https://ebay.com/1",
			Condition:    "Used",
			ItemLocation: &ebay.ItemLocation{City: "Leeds", Country: "GB"},
			Categories:   []ebay.ItemCategory{{CategoryID: "27386", CategoryName: "Graphics Cards"}},
		},
		{
			ItemID:     "v1|2|0",
			Title:      "RTX 3090 Ti",
			Price:      &ebay.ItemPrice{Value: "not-a-number", Currency: "GBP"},
			ItemWebURL: "https://ebay.com/2",
		},
	}

	got := ebay.ToListings(items)
	require.Len(t, got, 2)

	require.NotNil(t, got[0].Price)
	assert.InDelta(t, 650.5, *got[0].Price, 1e-9)
	assert.Equal(t, "GBP", got[0].Currency)
	assert.Equal(t, "Leeds, GB", got[0].Location)
	assert.Equal(t, "27386", got[0].CategoryID)
	assert.Equal(t, "Graphics Cards", got[0].CategoryType)

	assert.Nil(t, got[1].Price, "unparseable price is treated as missing")
	assert.Empty(t, got[1].Currency)
}
