package geo

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
)

func TestHaversine(t *testing.T) {
	t.Run("1000 meters along a meridian", func(t *testing.T) {
		a := Coordinate{Lat: 52.2689, Lng: 10.5268}
		deltaDeg := 1000.0 / EarthRadiusMeters * 180 / math.Pi
		b := Coordinate{Lat: a.Lat + deltaDeg, Lng: a.Lng}

		d := Haversine(a, b)
		assert.GreaterOrEqual(t, d, 990.0)
		assert.LessOrEqual(t, d, 1010.0)
	})

	t.Run("known city pair", func(t *testing.T) {
		// Braunschweig Hbf to Hannover Hbf, roughly 56 km great-circle.
		bs := Coordinate{Lat: 52.2526, Lng: 10.5398}
		h := Coordinate{Lat: 52.3765, Lng: 9.7410}
		assert.InDelta(t, 56000, Haversine(bs, h), 1500)
	})

	t.Run("same point", func(t *testing.T) {
		p := Coordinate{Lat: 52.26, Lng: 10.52}
		assert.Equal(t, 0.0, Haversine(p, p))
	})
}

func TestWalkingMinutes(t *testing.T) {
	assert.Equal(t, 0, WalkingMinutes(0))
	assert.Equal(t, 1, WalkingMinutes(40))
	assert.Equal(t, 12, WalkingMinutes(1000))
	assert.Equal(t, 18, WalkingMinutes(1500))
}

func TestCoordinateValid(t *testing.T) {
	assert.True(t, Coordinate{Lat: 52.26, Lng: 10.52}.Valid())
	assert.False(t, Coordinate{Lat: 91, Lng: 10}.Valid())
	assert.False(t, Coordinate{Lat: 10, Lng: -181}.Valid())
	assert.False(t, Coordinate{Lat: math.NaN(), Lng: 10}.Valid())
}

func TestLineHelpers(t *testing.T) {
	line := orb.LineString{{10.52, 52.26}, {10.53, 52.26}, {10.54, 52.26}}

	mid, ok := Midpoint(line)
	assert.True(t, ok)
	assert.Equal(t, Coordinate{Lat: 52.26, Lng: 10.53}, mid)

	length, ok := LineLength(line)
	assert.True(t, ok)
	assert.InDelta(t, 1361, length, 10)

	_, ok = LineLength(line[:1])
	assert.False(t, ok)

	_, ok = Midpoint(nil)
	assert.False(t, ok)
}
