package olx

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	domain "github.com/donaldgifford/deal-finder/pkg/types"
)

// Param keys read from a listing.
const (
	paramPrice    = "price"
	paramState    = "state"
	paramLocation = "location"
)

// ToListings converts GraphQL listings into domain listings. Listings
// without a title or URL are dropped.
func ToListings(items []Listing) []domain.Listing {
	listings := make([]domain.Listing, 0, len(items))
	for i := range items {
		l, ok := toListing(&items[i])
		if !ok {
			continue
		}
		listings = append(listings, l)
	}
	return listings
}

func toListing(item *Listing) (domain.Listing, bool) {
	title := strings.TrimSpace(item.Title)
	url := strings.TrimSpace(item.URL)
	if title == "" || url == "" {
		return domain.Listing{}, false
	}

	l := domain.Listing{
		ID:           item.ID.String(),
		Title:        title,
		URL:          url,
		Description:  PlainText(item.Description),
		CategoryID:   item.Category.ID.String(),
		CategoryType: item.Category.Type,
		Marketplace:  domain.MarketplaceOLX,
	}
	// Listings without an id are keyed by URL so they still deduplicate.
	if l.ID == "" {
		l.ID = url
	}

	for _, p := range item.Params {
		switch p.Key {
		case paramPrice:
			if p.Value.Value != nil {
				price := *p.Value.Value
				l.Price = &price
				l.Currency = p.Value.Currency
			}
		case paramState:
			if p.Value.Label != "" {
				l.Condition = p.Value.Label
			}
		case paramLocation:
			if p.Value.Label != "" {
				l.Location = p.Value.Label
			}
		}
	}

	return l, true
}

// PlainText strips HTML markup from an OLX description and collapses
// whitespace. Input that does not parse is returned trimmed.
func PlainText(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || !strings.ContainsRune(s, '<') {
		return strings.Join(strings.Fields(s), " ")
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	doc.Find("br").ReplaceWithNodes(&html.Node{Type: html.TextNode, Data: " "})
	return strings.Join(strings.Fields(doc.Text()), " ")
}
