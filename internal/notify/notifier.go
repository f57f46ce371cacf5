// Package notify defines the notification interface and implementations
// for delivering finished run reports.
package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/donaldgifford/deal-finder/internal/engine"
	domain "github.com/donaldgifford/deal-finder/pkg/types"
)

// Deal is one ranked listing in a run report.
type Deal struct {
	Title       string
	URL         string
	Price       string
	Marketplace string
	Score       float64
	PriceScore  float64
}

// RunReport contains the data needed to announce a finished run.
type RunReport struct {
	RunID          string
	Request        string
	Products       []string
	Summary        string
	Deals          []Deal
	PotentialCount int
	FilteredCount  int
	MedianPrice    float64
}

// Notifier defines the interface for sending run report notifications.
type Notifier interface {
	NotifyRun(ctx context.Context, report *RunReport) error
}

// NewRunReport builds a report from a finished run, keeping at most
// maxDeals ranked listings. maxDeals <= 0 keeps all of them.
func NewRunReport(res *engine.Result, maxDeals int) *RunReport {
	r := &RunReport{RunID: res.RunID, Summary: res.Summary}
	st := res.State
	if st == nil {
		return r
	}

	r.Request = lastUserMessage(st.Messages)
	r.Products = st.Products
	r.PotentialCount = st.PotentialListings.Len()
	r.FilteredCount = len(st.FilteredListings)
	r.MedianPrice = st.MedianPrice

	scored := st.ScoredListings
	if maxDeals > 0 && len(scored) > maxDeals {
		scored = scored[:maxDeals]
	}
	r.Deals = make([]Deal, 0, len(scored))
	for i := range scored {
		l := &scored[i].Listing
		r.Deals = append(r.Deals, Deal{
			Title:       l.Title,
			URL:         l.URL,
			Price:       priceText(l),
			Marketplace: string(l.Marketplace),
			Score:       scored[i].CombinedScore,
			PriceScore:  scored[i].PriceScore,
		})
	}
	return r
}

func lastUserMessage(msgs []domain.Message) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == domain.RoleUser {
			return strings.TrimSpace(msgs[i].Content)
		}
	}
	return ""
}

func priceText(l *domain.Listing) string {
	switch {
	case !l.HasPrice():
		return "no price"
	case l.Currency == "":
		return fmt.Sprintf("%.2f", *l.Price)
	default:
		return fmt.Sprintf("%.2f %s", *l.Price, l.Currency)
	}
}
