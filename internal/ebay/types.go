package ebay

// ItemSummary represents a single item from the eBay Browse API search response.
type ItemSummary struct {
	ItemID           string         `json:"itemId"`
	Title            string         `json:"title"`
	ShortDescription string         `json:"shortDescription,omitempty"`
	Price            *ItemPrice     `json:"price,omitempty"`
	ItemWebURL       string         `json:"itemWebUrl"`
	Condition        string         `json:"condition"`
	ItemLocation     *ItemLocation  `json:"itemLocation,omitempty"`
	Categories       []ItemCategory `json:"categories,omitempty"`
}

// ItemPrice holds eBay price information.
type ItemPrice struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

// ItemLocation holds the seller-declared item location.
type ItemLocation struct {
	City     string `json:"city,omitempty"`
	Country  string `json:"country,omitempty"`
	PostCode string `json:"postalCode,omitempty"`
}

// ItemCategory holds eBay category information.
type ItemCategory struct {
	CategoryID   string `json:"categoryId"`
	CategoryName string `json:"categoryName,omitempty"`
}
