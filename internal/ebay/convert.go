package ebay

import (
	"strconv"
	"strings"

	domain "github.com/donaldgifford/deal-finder/pkg/types"
)

// ToListings converts eBay API item summaries into domain listings. Items
// without an id, title or URL are dropped.
func ToListings(items []ItemSummary) []domain.Listing {
	listings := make([]domain.Listing, 0, len(items))
	for i := range items {
		if items[i].ItemID == "" || items[i].Title == "" || items[i].ItemWebURL == "" {
			continue
		}
		listings = append(listings, toListing(&items[i]))
	}
	return listings
}

func toListing(item *ItemSummary) domain.Listing {
	l := domain.Listing{
		ID:          item.ItemID,
		Title:       item.Title,
		URL:         item.ItemWebURL,
		Description: item.ShortDescription,
		Condition:   item.Condition,
		Marketplace: domain.MarketplaceEbay,
	}

	if item.Price != nil {
		if p, err := strconv.ParseFloat(item.Price.Value, 64); err == nil {
			l.Price = &p
			l.Currency = item.Price.Currency
		}
	}

	if loc := item.ItemLocation; loc != nil {
		parts := make([]string, 0, 2)
		for _, s := range []string{loc.City, loc.Country} {
			if s != "" {
				parts = append(parts, s)
			}
		}
		l.Location = strings.Join(parts, ", ")
	}

	if len(item.Categories) > 0 {
		l.CategoryID = item.Categories[0].CategoryID
		l.CategoryType = item.Categories[0].CategoryName
	}

	return l
}
