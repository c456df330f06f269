package parking

import (
	"math"

	"github.com/i474232898/bs-smart-parking/internal/common"
	"github.com/i474232898/bs-smart-parking/internal/geo"
)

// DefaultShadowRadius is how close a live garage must be to a static one to replace it.
const DefaultShadowRadius = 150.0

// Merge concatenates source slices in canonical order and returns deep copies.
//
// A live garage shadows every static garage with the same normalized name or
// within shadowRadius meters of it: the live record is authoritative and the
// static entry is dropped. Hard-coded live fallbacks never shadow, and street
// spots are never shadowed.
func Merge(slices []Slice, shadowRadius float64) []Spot {
	var live []Spot
	bySource := make(map[DataSource][]Spot, len(slices))
	for _, sl := range slices {
		bySource[sl.Source] = append(bySource[sl.Source], sl.Spots...)
		if sl.Source == SourceLive && sl.Origin != OriginHardcoded {
			live = append(live, sl.Spots...)
		}
	}

	var merged []Spot
	for _, src := range SourceOrder {
		for _, s := range bySource[src] {
			if src == SourceStatic && shadowedBy(s, live, shadowRadius) {
				continue
			}
			merged = append(merged, s.Clone())
		}
	}
	return merged
}

func shadowedBy(static Spot, live []Spot, radius float64) bool {
	name := common.NormalizeName(static.Name)
	for _, l := range live {
		if name != "" && name == common.NormalizeName(l.Name) {
			return true
		}
		if radius > 0 && geo.Haversine(static.Coordinates, l.Coordinates) <= radius {
			return true
		}
	}
	return false
}

// ApplyReference fills in the view-only distance fields relative to ref.
func ApplyReference(spots []Spot, ref geo.Coordinate) {
	for i := range spots {
		if spots[i].PositionUnknown {
			spots[i].Coordinates = ref
			spots[i].Distance = 0
			spots[i].WalkingTime = 0
			continue
		}
		d := geo.Haversine(ref, spots[i].Coordinates)
		spots[i].Distance = math.Round(d)
		spots[i].WalkingTime = geo.WalkingMinutes(d)
	}
}
