// Package main implements a mock marketplace server for local development.
// It serves deterministic listings through an OLX-shaped GraphQL endpoint and
// the eBay Browse API with its OAuth token endpoint, so the pipeline can run
// without network access or marketplace credentials.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"hash/fnv"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/donaldgifford/deal-finder/internal/ebay"
	"github.com/donaldgifford/deal-finder/internal/olx"
)

// item is one generated listing before it is shaped for a marketplace.
type item struct {
	ID          int64
	Title       string
	Description string
	Price       *float64
}

// catalog generates a stable result set for any query.
type catalog struct {
	perQuery int
}

func main() {
	port := flag.Int("port", 8089, "port to listen on")
	perQuery := flag.Int("listings", 45, "listings generated per query")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	addr := fmt.Sprintf(":%d", *port)
	logger.Info("starting mock marketplace server", "addr", addr, "listings_per_query", *perQuery)

	srv := &http.Server{
		Addr:         addr,
		Handler:      requestLogger(logger, newMux(logger, catalog{perQuery: *perQuery})),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func newMux(logger *slog.Logger, c catalog) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /apigateway/graphql", graphQLHandler(logger, c))
	mux.HandleFunc("POST /identity/v1/oauth2/token", tokenHandler(logger))
	mux.HandleFunc("GET /buy/browse/v1/item_summary/search", browseHandler(logger, c))
	return mux
}

func requestLogger(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Debug("request", "method", r.Method, "path", r.URL.Path, "query", r.URL.RawQuery)
		next.ServeHTTP(w, r)
	})
}

func hashOf(s string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return h.Sum32()
}

// listings returns the generated listings for query. Every fifth listing is
// an accessory rather than the product and every seventh has no price.
func (c catalog) listings(query string) []item {
	q := strings.TrimSpace(query)
	if q == "" {
		return nil
	}

	seed := hashOf(strings.ToLower(q))
	base := 200 + float64(seed%1800)
	idBase := int64(seed%100000) * 1000

	items := make([]item, 0, c.perQuery)
	for i := range c.perQuery {
		it := item{
			ID:          idBase + int64(i),
			Title:       fmt.Sprintf("%s #%d", q, i+1),
			Description: fmt.Sprintf("Used %s in good condition.", q),
		}
		if i%5 == 4 {
			it.Title = fmt.Sprintf("Box for %s #%d", q, i+1)
			it.Description = "Original box only, no product."
		}
		if i%7 != 6 {
			p := base * (0.7 + 0.6*float64((i*37)%100)/100)
			p = float64(int64(p*100)) / 100
			it.Price = &p
		}
		items = append(items, it)
	}
	return items
}

// page slices items at offset, reporting whether more remain.
func page(items []item, offset, limit int) ([]item, bool) {
	if offset >= len(items) {
		return nil, false
	}
	end := min(offset+limit, len(items))
	return items[offset:end], end < len(items)
}

type graphQLRequest struct {
	Variables struct {
		SearchParameters []struct {
			Key   string `json:"key"`
			Value string `json:"value"`
		} `json:"searchParameters"`
	} `json:"variables"`
}

func graphQLHandler(logger *slog.Logger, c catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req graphQLRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"errors": []map[string]string{{"message": "invalid request body"}},
			})
			return
		}

		var (
			query         string
			offset, limit = 0, 40
		)
		for _, p := range req.Variables.SearchParameters {
			switch p.Key {
			case "query":
				query = p.Value
			case "offset":
				if v, err := strconv.Atoi(p.Value); err == nil && v >= 0 {
					offset = v
				}
			case "limit":
				if v, err := strconv.Atoi(p.Value); err == nil && v > 0 {
					limit = v
				}
			}
		}

		items, _ := page(c.listings(query), offset, limit)
		data := make([]olx.Listing, 0, len(items))
		for _, it := range items {
			l := olx.Listing{
				ID:          json.Number(strconv.FormatInt(it.ID, 10)),
				Title:       it.Title,
				Description: "<p>" + it.Description + "</p>",
				URL:         fmt.Sprintf("https://www.olx.bg/d/ad/mock-%d.html", it.ID),
				Category:    olx.Category{ID: "1", Type: "goods"},
			}
			if it.Price != nil {
				l.Params = append(l.Params, olx.Param{
					Key:   "price",
					Value: olx.ParamValue{Value: it.Price, Currency: "BGN"},
				})
			}
			l.Params = append(l.Params, olx.Param{
				Key:   "state",
				Value: olx.ParamValue{Key: "used", Label: "Used"},
			})
			data = append(data, l)
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"data": map[string]any{
				"clientCompatibleListings": map[string]any{
					"__typename": "ListingSuccess",
					"data":       data,
				},
			},
		})
		logger.Info("graphql search", "query", query, "offset", offset, "returned", len(data))
	}
}

func tokenHandler(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Validate Basic Auth header is present (don't verify creds).
		if _, _, ok := r.BasicAuth(); !ok {
			logger.Warn("token request missing Basic Auth header")
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"error":             "invalid_client",
				"error_description": "client authentication failed",
			})
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"access_token": "mock-token-v1-" + strconv.FormatInt(int64(os.Getpid()), 16),
			"expires_in":   7200,
			"token_type":   "Application Access Token",
		})
		logger.Info("issued mock token")
	}
}

type browseResponse struct {
	ItemSummaries []ebay.ItemSummary `json:"itemSummaries"`
	Total         int                `json:"total"`
	Offset        int                `json:"offset"`
	Limit         int                `json:"limit"`
	Next          string             `json:"next,omitempty"`
}

func browseHandler(logger *slog.Logger, c catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing token"})
			return
		}

		q := r.URL.Query().Get("q")
		limit := 50
		if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
			limit = v
		}
		offset := 0
		if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v >= 0 {
			offset = v
		}

		all := c.listings(q)
		items, more := page(all, offset, limit)

		resp := browseResponse{
			ItemSummaries: make([]ebay.ItemSummary, 0, len(items)),
			Total:         len(all),
			Offset:        offset,
			Limit:         limit,
		}
		for _, it := range items {
			s := ebay.ItemSummary{
				ItemID:           "v1|" + strconv.FormatInt(it.ID, 10) + "|0",
				Title:            it.Title,
				ShortDescription: it.Description,
				ItemWebURL:       fmt.Sprintf("https://www.ebay.com/itm/%d", it.ID),
				Condition:        "Used",
			}
			if it.Price != nil {
				s.Price = &ebay.ItemPrice{Value: strconv.FormatFloat(*it.Price, 'f', 2, 64), Currency: "USD"}
			}
			resp.ItemSummaries = append(resp.ItemSummaries, s)
		}
		if more {
			resp.Next = fmt.Sprintf("/buy/browse/v1/item_summary/search?q=%s&offset=%d&limit=%d",
				q, offset+limit, limit)
		}

		writeJSON(w, http.StatusOK, resp)
		logger.Info("browse search", "query", q, "total", len(all), "returned", len(items), "offset", offset)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck,gosec // best-effort write to HTTP response in mock server
	json.NewEncoder(w).Encode(v)
}
