package score

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"slices"

	domain "github.com/donaldgifford/deal-finder/pkg/types"
)

// NeutralScore is the price score given to listings that cannot be compared
// to the median, and the relevancy score used when a listing could not be
// rated.
const NeutralScore = 0.5

// MaxRelevancy is the top of the model's relevancy scale.
const MaxRelevancy = 10

// ErrInvalidWeights is returned by Weights.Validate.
var ErrInvalidWeights = errors.New("invalid scoring weights")

// Weights defines the relative importance of each scoring factor. They are
// applied as given; the combined score ranges over [0, Relevancy+Price].
type Weights struct {
	Relevancy float64
	Price     float64
	// Gamma shapes how sharply the price score falls off away from the
	// median. 1 is linear; larger values peak more sharply.
	Gamma float64
}

// DefaultWeights returns the default scoring weights.
func DefaultWeights() Weights {
	return Weights{
		Relevancy: 1,
		Price:     1,
		Gamma:     1.5,
	}
}

// Validate checks that both weights are non-negative with a positive sum
// and that gamma is positive.
func (w Weights) Validate() error {
	var errs []error
	if w.Relevancy < 0 || math.IsNaN(w.Relevancy) {
		errs = append(errs, fmt.Errorf("relevancy weight %v must be >= 0", w.Relevancy))
	}
	if w.Price < 0 || math.IsNaN(w.Price) {
		errs = append(errs, fmt.Errorf("price weight %v must be >= 0", w.Price))
	}
	if len(errs) == 0 && w.Relevancy+w.Price <= 0 {
		errs = append(errs, errors.New("weights must not both be zero"))
	}
	if w.Gamma <= 0 || math.IsNaN(w.Gamma) || math.IsInf(w.Gamma, 0) {
		errs = append(errs, fmt.Errorf("gamma %v must be > 0", w.Gamma))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidWeights, errors.Join(errs...))
	}
	return nil
}

// MaxCombined returns the upper bound of the combined score.
func (w Weights) MaxCombined() float64 {
	return w.Relevancy + w.Price
}

// Breakdown shows per-factor scores.
type Breakdown struct {
	Relevancy float64 `json:"relevancy"`
	Price     float64 `json:"price"`
	Combined  float64 `json:"combined"`
}

// RelevancyScore maps a 0-10 model rating to [0,1].
func RelevancyScore(rating int) float64 {
	return clamp01(float64(rating) / MaxRelevancy)
}

// PriceScore maps a price to [0,1] by its distance from the median. It is 1
// at the median, non-increasing as the price moves away in either
// direction, and 0 once the distance reaches the median itself. A missing
// price or non-positive median gives NeutralScore.
func PriceScore(price *float64, median, gamma float64) float64 {
	if price == nil || median <= 0 || math.IsNaN(*price) {
		return NeutralScore
	}
	if gamma <= 0 {
		gamma = 1
	}
	dist := math.Min(math.Abs(*price-median)/median, 1)
	return clamp01(math.Pow(1-dist, gamma))
}

// Combined computes the weighted sum of the two factor scores.
func Combined(relevancy, price float64, w Weights) float64 {
	return w.Relevancy*relevancy + w.Price*price
}

// Score computes the breakdown for one listing given its model rating.
func Score(l *domain.Listing, rating int, median float64, w Weights) Breakdown {
	return ScoreWithRelevancy(l, RelevancyScore(rating), median, w)
}

// ScoreWithRelevancy is Score for an already-normalized relevancy.
func ScoreWithRelevancy(l *domain.Listing, relevancy, median float64, w Weights) Breakdown {
	b := Breakdown{
		Relevancy: clamp01(relevancy),
		Price:     PriceScore(l.Price, median, w.Gamma),
	}
	b.Combined = Combined(b.Relevancy, b.Price, w)
	return b
}

// Scored attaches a breakdown to its listing.
func Scored(l domain.Listing, b Breakdown) domain.ScoredListing {
	return domain.ScoredListing{
		Listing:        l,
		RelevancyScore: b.Relevancy,
		PriceScore:     b.Price,
		CombinedScore:  b.Combined,
	}
}

// Rank sorts scored listings in place: combined score descending, then
// price ascending with unpriced listings last, then ID ascending.
func Rank(ls []domain.ScoredListing) {
	slices.SortStableFunc(ls, Compare)
}

// Compare orders two scored listings the way Rank does.
func Compare(a, b domain.ScoredListing) int {
	if c := cmp.Compare(b.CombinedScore, a.CombinedScore); c != 0 {
		return c
	}
	if c := comparePrice(a.Listing.Price, b.Listing.Price); c != 0 {
		return c
	}
	return cmp.Compare(a.Listing.ID, b.Listing.ID)
}

func comparePrice(a, b *float64) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	default:
		return cmp.Compare(*a, *b)
	}
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
