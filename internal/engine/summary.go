package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/donaldgifford/deal-finder/pkg/llm"
	domain "github.com/donaldgifford/deal-finder/pkg/types"
)

// NoResultsText is the summary of a run that found nothing to rank.
const NoResultsText = "Sorry, I couldn't find any listings matching your request. Try rephrasing it or searching for a more common product."

// summaryReferenceCount is how many top listings the model sees.
const summaryReferenceCount = 5

// Composer writes the final response: a model-written narrative followed
// by the top ranked listings.
type Composer struct {
	assistant   llm.Assistant
	markdown    bool
	debug       bool
	maxListings int
}

// NewComposer creates a Composer from the pipeline settings.
func NewComposer(a llm.Assistant, s *Settings) *Composer {
	return &Composer{
		assistant:   a,
		markdown:    s.Markdown,
		debug:       s.DebugScores,
		maxListings: s.MaxListings,
	}
}

// Compose renders the summary for st. With no scored listings it returns
// NoResultsText without calling the model.
func (c *Composer) Compose(ctx context.Context, st *domain.SearchState) (string, error) {
	top := c.top(st)
	if len(top) == 0 {
		return NoResultsText, nil
	}

	ref := make([]llm.SummaryItem, 0, min(len(top), summaryReferenceCount))
	for i := range top[:min(len(top), summaryReferenceCount)] {
		ref = append(ref, llm.SummaryItem{
			Title: top[i].Listing.Title,
			Price: formatPrice(&top[i].Listing),
		})
	}

	narrative, err := c.assistant.Summarize(ctx, llm.SummaryRequest{
		Prompt:         st.UserPrompt(),
		Products:       st.Products,
		ListingsCount:  len(top),
		PotentialCount: st.PotentialListings.Len(),
		FilteredCount:  len(st.FilteredListings),
		MedianPrice:    fmt.Sprintf("%.2f", st.MedianPrice),
		Top:            ref,
	})
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(narrative)
	b.WriteString("\n\n")
	for i := range top {
		b.WriteString(c.line(&top[i]))
		b.WriteByte('\n')
	}
	return b.String(), nil
}

// top returns the leading ranked listings, capped by both the requested
// count and the configured maximum.
func (c *Composer) top(st *domain.SearchState) []domain.ScoredListing {
	n := len(st.ScoredListings)
	if st.MaxProductsCount > 0 {
		n = min(n, st.MaxProductsCount)
	}
	if c.maxListings > 0 {
		n = min(n, c.maxListings)
	}
	return st.ScoredListings[:n]
}

func (c *Composer) line(s *domain.ScoredListing) string {
	title := fmt.Sprintf("%s (%s)", s.Listing.Title, formatPrice(&s.Listing))
	if c.debug {
		title = fmt.Sprintf("%s (score: %.2f, relevancy: %.2f, price: %.2f)",
			title, s.CombinedScore, s.RelevancyScore, s.PriceScore)
	}
	if c.markdown {
		return fmt.Sprintf("- [%s](%s)", title, s.Listing.URL)
	}
	return fmt.Sprintf("- %s - (%s)", title, s.Listing.URL)
}

func formatPrice(l *domain.Listing) string {
	if !l.HasPrice() {
		return "no price"
	}
	if l.Currency == "" {
		return fmt.Sprintf("%.2f", *l.Price)
	}
	return fmt.Sprintf("%.2f %s", *l.Price, l.Currency)
}
