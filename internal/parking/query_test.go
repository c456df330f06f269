package parking

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/i474232898/bs-smart-parking/internal/geo"
)

func ptr[T any](v T) *T { return &v }

func fixtureSpots() []Spot {
	return []Spot{
		{ID: "g1", Type: TypeGarage, Distance: 400, AvailableSpaces: 10, TotalSpaces: ptr(100), HourlyPrice: 1.5, Rating: ptr(4.0)},
		{ID: "s1", Type: TypeStreet, Distance: 200, AvailableSpaces: 3, TotalSpaces: ptr(20), HourlyPrice: 0},
		{ID: "g2", Type: TypeGarage, Distance: 200, AvailableSpaces: 0, TotalSpaces: ptr(50), HourlyPrice: 2.0, Rating: ptr(4.5)},
		{ID: "s2", Type: TypeStreet, Distance: 900, AvailableSpaces: 10, TotalSpaces: ptr(30), HourlyPrice: 1.5},
		{ID: "g3", Type: TypeGarage, Distance: 50, AvailableSpaces: 7, HourlyPrice: 0, Rating: ptr(4.0)},
	}
}

func ids(spots []Spot) []string {
	out := make([]string, len(spots))
	for i, s := range spots {
		out[i] = s.ID
	}
	return out
}

func TestFilterSpots(t *testing.T) {
	favorites := NewFavoriteSet("s2", "g3", "")

	tests := []struct {
		filter Filter
		want   []string
	}{
		{FilterAll, []string{"g1", "s1", "g2", "s2", "g3"}},
		{FilterAvailable, []string{"g1", "s1", "s2", "g3"}},
		{FilterGarages, []string{"g1", "g2", "g3"}},
		{FilterStreet, []string{"s1", "s2"}},
		{FilterFree, []string{"s1", "g3"}},
		{FilterFavorites, []string{"s2", "g3"}},
	}

	for _, tc := range tests {
		t.Run(string(tc.filter), func(t *testing.T) {
			spots := fixtureSpots()
			got := FilterSpots(spots, tc.filter, favorites)
			assert.Equal(t, tc.want, ids(got))

			// Exactly the predicate subset: nothing matching is dropped.
			matching := 0
			for _, s := range spots {
				if tc.filter.Matches(s, favorites) {
					matching++
				}
			}
			assert.Len(t, got, matching)
		})
	}
}

func TestSortSpots(t *testing.T) {
	tests := []struct {
		key  SortKey
		want []string
	}{
		{SortDistance, []string{"g3", "s1", "g2", "g1", "s2"}},
		{SortAvailability, []string{"g1", "s2", "g3", "s1", "g2"}},
		{SortPrice, []string{"s1", "g3", "g1", "s2", "g2"}},
		{SortRating, []string{"g2", "g1", "g3", "s1", "s2"}},
	}

	for _, tc := range tests {
		t.Run(string(tc.key), func(t *testing.T) {
			spots := fixtureSpots()
			SortSpots(spots, tc.key)
			assert.Equal(t, tc.want, ids(spots))
		})
	}
}

func TestSortSpots_DistanceDeterministic(t *testing.T) {
	first := fixtureSpots()
	second := fixtureSpots()
	SortSpots(first, SortDistance)
	SortSpots(second, SortDistance)

	assert.Equal(t, ids(first), ids(second))
	for i := 1; i < len(first); i++ {
		assert.LessOrEqual(t, first[i-1].Distance, first[i].Distance)
	}

	// Sorting an already sorted list changes nothing.
	again := append([]Spot(nil), first...)
	SortSpots(again, SortDistance)
	assert.Equal(t, ids(first), ids(again))
}

func TestSpotNormalize(t *testing.T) {
	s := Spot{AvailableSpaces: 80, TotalSpaces: ptr(50), Features: []string{"a", "a", ""}}
	s.Normalize()
	assert.Equal(t, 50, s.AvailableSpaces)
	assert.Equal(t, []string{"a"}, s.Features)
	assert.Equal(t, []string{}, s.Amenities)

	s = Spot{AvailableSpaces: -4}
	s.Normalize()
	assert.Equal(t, 0, s.AvailableSpaces)
	assert.Nil(t, s.TotalSpaces)
}

func TestApplyReference_Distances(t *testing.T) {
	ref := geo.Coordinate{Lat: 52.2689, Lng: 10.5268}
	spots := []Spot{{ID: "here", Coordinates: ref}, {ID: "there", Coordinates: geo.Coordinate{Lat: 52.2779, Lng: 10.5268}}}

	ApplyReference(spots, ref)

	assert.Equal(t, 0.0, spots[0].Distance)
	assert.Equal(t, 0, spots[0].WalkingTime)
	assert.InDelta(t, 1001, spots[1].Distance, 2)
	assert.Equal(t, 13, spots[1].WalkingTime)
}
