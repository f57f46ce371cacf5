package olx

import "encoding/json"

type graphQLResponse struct {
	Data struct {
		ClientCompatibleListings listingResult `json:"clientCompatibleListings"`
	} `json:"data"`
	Errors []graphQLError `json:"errors,omitempty"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type listingResult struct {
	TypeName string    `json:"__typename"`
	Data     []Listing `json:"data"`
}

// Listing is a single listing as returned by the GraphQL API.
type Listing struct {
	ID          json.Number `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	URL         string      `json:"url"`
	Category    Category    `json:"category"`
	Params      []Param     `json:"params"`
}

// Category identifies the OLX category of a listing.
type Category struct {
	ID   json.Number `json:"id"`
	Type string      `json:"type"`
}

// Param is a keyed listing attribute. The value shape depends on the key:
// "price" carries a PriceParam, most others a GenericParam.
type Param struct {
	Key   string     `json:"key"`
	Value ParamValue `json:"value"`
}

// ParamValue is the union of PriceParam and GenericParam fields.
type ParamValue struct {
	Value    *float64 `json:"value,omitempty"`
	Currency string   `json:"currency,omitempty"`
	Key      string   `json:"key,omitempty"`
	Label    string   `json:"label,omitempty"`
}
