package domain

import "slices"

// ListingSet is an insertion-ordered set of listings keyed by ID. The first
// listing seen for an ID wins; later ones are ignored.
type ListingSet struct {
	items []Listing
	index map[string]int
}

// NewListingSet returns an empty set.
func NewListingSet() *ListingSet {
	return &ListingSet{index: make(map[string]int)}
}

// Add inserts l unless a listing with the same ID is already present. It
// reports whether the listing was inserted.
func (s *ListingSet) Add(l Listing) bool {
	if _, ok := s.index[l.ID]; ok {
		return false
	}
	s.index[l.ID] = len(s.items)
	s.items = append(s.items, l)
	return true
}

// Merge adds every listing in ls and returns how many were new.
func (s *ListingSet) Merge(ls []Listing) int {
	added := 0
	for i := range ls {
		if s.Add(ls[i]) {
			added++
		}
	}
	return added
}

// Has reports whether a listing with the given ID is present.
func (s *ListingSet) Has(id string) bool {
	_, ok := s.index[id]
	return ok
}

// Get returns the listing stored under id.
func (s *ListingSet) Get(id string) (Listing, bool) {
	i, ok := s.index[id]
	if !ok {
		return Listing{}, false
	}
	return s.items[i], true
}

// Len returns the number of listings in the set.
func (s *ListingSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.items)
}

// Items returns the listings in insertion order. The returned slice is a copy.
func (s *ListingSet) Items() []Listing {
	if s == nil {
		return nil
	}
	return slices.Clone(s.items)
}

// Clone returns an independent copy of the set.
func (s *ListingSet) Clone() *ListingSet {
	c := &ListingSet{
		items: slices.Clone(s.items),
		index: make(map[string]int, len(s.index)),
	}
	for k, v := range s.index {
		c.index[k] = v
	}
	return c
}
