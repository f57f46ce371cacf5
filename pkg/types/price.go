package domain

import "slices"

// PriceStats returns the arithmetic mean and the median of the priced
// listings in ls. Listings without a price are ignored. Both values are zero
// when no listing has a price. For an even count the median is the mean of
// the two middle values.
func PriceStats(ls []Listing) (mean, median float64) {
	prices := make([]float64, 0, len(ls))
	for i := range ls {
		if ls[i].Price != nil {
			prices = append(prices, *ls[i].Price)
		}
	}
	if len(prices) == 0 {
		return 0, 0
	}

	var sum float64
	for _, p := range prices {
		sum += p
	}
	mean = sum / float64(len(prices))

	slices.Sort(prices)
	mid := len(prices) / 2
	if len(prices)%2 == 0 {
		median = (prices[mid-1] + prices[mid]) / 2
	} else {
		median = prices[mid]
	}
	return mean, median
}
