package location

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"

	"github.com/i474232898/bs-smart-parking/internal/geo"
)

var cityCenter = geo.Coordinate{Lat: 52.2689, Lng: 10.5268}

func ptr(v float64) *float64 { return &v }

func TestResolve_DeviceCoordinatesWin(t *testing.T) {
	called := false
	geocode := func(ctx context.Context, address string) (geo.Coordinate, error) {
		called = true
		return geo.Coordinate{}, nil
	}
	r := NewResolver(cityCenter, geocode, zaptest.NewLogger(t))

	ref := r.Resolve(context.Background(), Input{Lat: ptr(52.26), Lng: ptr(10.52), Address: "Bohlweg 1"})

	assert.Equal(t, Reference{Coordinate: geo.Coordinate{Lat: 52.26, Lng: 10.52}, Source: SourceDevice, Available: true}, ref)
	assert.False(t, called)
}

func TestResolve_GeocodedAddress(t *testing.T) {
	want := geo.Coordinate{Lat: 52.2642, Lng: 10.5237}
	geocode := func(ctx context.Context, address string) (geo.Coordinate, error) {
		assert.Equal(t, "Kohlmarkt", address)
		return want, nil
	}
	r := NewResolver(cityCenter, geocode, zaptest.NewLogger(t))

	ref := r.Resolve(context.Background(), Input{Lat: ptr(math.NaN()), Lng: ptr(10.5), Address: "  Kohlmarkt "})

	assert.Equal(t, SourceGeocoded, ref.Source)
	assert.Equal(t, want, ref.Coordinate)
	assert.True(t, ref.Available)
}

func TestResolve_Fallback(t *testing.T) {
	failing := func(ctx context.Context, address string) (geo.Coordinate, error) {
		return geo.Coordinate{}, errors.New("zero results")
	}

	tests := map[string]struct {
		geocode GeocodeFunc
		in      Input
	}{
		"nothing supplied":       {geocode: failing, in: Input{}},
		"only latitude":          {geocode: failing, in: Input{Lat: ptr(52.2)}},
		"out of range":           {geocode: nil, in: Input{Lat: ptr(95), Lng: ptr(10)}},
		"geocoder fails":         {geocode: failing, in: Input{Address: "Nowhere"}},
		"no geocoder configured": {geocode: nil, in: Input{Address: "Kohlmarkt"}},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			r := NewResolver(cityCenter, tc.geocode, zaptest.NewLogger(t))
			ref := r.Resolve(context.Background(), tc.in)

			assert.Equal(t, Reference{Coordinate: cityCenter, Source: SourceFallback, Available: false}, ref)
		})
	}
}

func TestGoogleGeocoder_DisabledWithoutKey(t *testing.T) {
	assert.Nil(t, GoogleGeocoder("", "Braunschweig", "Germany"))
}
