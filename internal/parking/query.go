package parking

import "sort"

// ValidFilter reports whether f is a known filter.
func ValidFilter(f Filter) bool {
	switch f {
	case FilterAll, FilterAvailable, FilterGarages, FilterStreet, FilterFree, FilterFavorites:
		return true
	}
	return false
}

// ValidSortKey reports whether k is a known sort key.
func ValidSortKey(k SortKey) bool {
	switch k {
	case SortDistance, SortAvailability, SortPrice, SortRating:
		return true
	}
	return false
}

// Matches reports whether a spot satisfies the filter. Unknown filters match everything.
func (f Filter) Matches(s Spot, favorites FavoriteSet) bool {
	switch f {
	case FilterAvailable:
		return s.AvailableSpaces > 0
	case FilterGarages:
		return s.Type == TypeGarage
	case FilterStreet:
		return s.Type == TypeStreet
	case FilterFree:
		return s.IsFree()
	case FilterFavorites:
		return favorites.Has(s.ID)
	default:
		return true
	}
}

// FilterSpots returns the spots matching f, preserving input order.
func FilterSpots(spots []Spot, f Filter, favorites FavoriteSet) []Spot {
	out := make([]Spot, 0, len(spots))
	for _, s := range spots {
		if f.Matches(s, favorites) {
			out = append(out, s)
		}
	}
	return out
}

// SortSpots orders spots in place by key. The sort is stable: ties keep their
// input order.
func SortSpots(spots []Spot, key SortKey) {
	var less func(a, b Spot) bool

	switch key {
	case SortAvailability:
		less = func(a, b Spot) bool { return a.AvailableSpaces > b.AvailableSpaces }
	case SortPrice:
		less = func(a, b Spot) bool { return a.HourlyPrice < b.HourlyPrice }
	case SortRating:
		less = func(a, b Spot) bool { return ratingOf(a) > ratingOf(b) }
	default:
		less = func(a, b Spot) bool { return a.Distance < b.Distance }
	}

	sort.SliceStable(spots, func(i, j int) bool {
		return less(spots[i], spots[j])
	})
}

// Unrated spots sort after every rated one.
func ratingOf(s Spot) float64 {
	if s.Rating == nil {
		return -1
	}
	return *s.Rating
}
