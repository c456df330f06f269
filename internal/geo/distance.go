// Package geo holds coordinate helpers shared by the parking sources.
package geo

import (
	"math"

	"github.com/paulmach/orb"
)

const (
	// EarthRadiusMeters is the mean Earth radius used for great-circle distances.
	EarthRadiusMeters = 6371000

	// walkingMinutesPerKm corresponds to roughly 5 km/h.
	walkingMinutesPerKm = 12
)

// Coordinate is a latitude/longitude pair in degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether c is a usable WGS84 coordinate.
func (c Coordinate) Valid() bool {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lng) || math.IsInf(c.Lat, 0) || math.IsInf(c.Lng, 0) {
		return false
	}
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

// Point converts c to an orb point (lng, lat order).
func (c Coordinate) Point() orb.Point {
	return orb.Point{c.Lng, c.Lat}
}

// FromPoint converts an orb point back to a Coordinate.
func FromPoint(p orb.Point) Coordinate {
	return Coordinate{Lat: p.Lat(), Lng: p.Lon()}
}

// Haversine calculates the distance in meters between two coordinates.
func Haversine(a, b Coordinate) float64 {
	lat1Rad := a.Lat * math.Pi / 180
	lat2Rad := b.Lat * math.Pi / 180
	deltaLat := (b.Lat - a.Lat) * math.Pi / 180
	deltaLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLng/2)*math.Sin(deltaLng/2)

	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusMeters * c
}

// WalkingMinutes converts a distance in meters to whole walking minutes, rounded up.
func WalkingMinutes(meters float64) int {
	if meters <= 0 {
		return 0
	}
	return int(math.Ceil(meters / 1000 * walkingMinutesPerKm))
}

// LineLength estimates the length of a way from its first and last vertex.
// ok is false when the line has fewer than two vertices.
func LineLength(line orb.LineString) (float64, bool) {
	if len(line) < 2 {
		return 0, false
	}
	return Haversine(FromPoint(line[0]), FromPoint(line[len(line)-1])), true
}

// Midpoint returns the middle vertex of a line.
func Midpoint(line orb.LineString) (Coordinate, bool) {
	if len(line) == 0 {
		return Coordinate{}, false
	}
	return FromPoint(line[len(line)/2]), true
}
