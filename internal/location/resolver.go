// Package location resolves the reference point parking distances are measured from.
package location

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kelvins/geocoder"
	"go.uber.org/zap"

	"github.com/i474232898/bs-smart-parking/internal/geo"
)

// Source names how a reference point was obtained.
type Source string

const (
	SourceDevice   Source = "device"
	SourceGeocoded Source = "geocoded"
	SourceFallback Source = "fallback"
)

// DefaultGeocodeTimeout bounds a single address lookup.
const DefaultGeocodeTimeout = 10 * time.Second

// Input is what the caller knows about its position. All fields are optional.
type Input struct {
	Lat     *float64
	Lng     *float64
	Address string
}

// Reference is a resolved reference point.
type Reference struct {
	Coordinate geo.Coordinate `json:"coordinate"`
	Source     Source         `json:"source"`
	// Available is false when the caller's position could not be determined.
	Available bool `json:"available"`
}

// GeocodeFunc turns a free-text address into a coordinate.
type GeocodeFunc func(ctx context.Context, address string) (geo.Coordinate, error)

// Resolver picks device coordinates, then a geocoded address, then the fallback.
type Resolver struct {
	fallback geo.Coordinate
	geocode  GeocodeFunc
	timeout  time.Duration
	logger   *zap.Logger
}

// NewResolver creates a Resolver. geocode may be nil, in which case addresses are ignored.
func NewResolver(fallback geo.Coordinate, geocode GeocodeFunc, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		fallback: fallback,
		geocode:  geocode,
		timeout:  DefaultGeocodeTimeout,
		logger:   logger,
	}
}

// Resolve never fails; when nothing usable is supplied it returns the fallback
// with Available set to false.
func (r *Resolver) Resolve(ctx context.Context, in Input) Reference {
	if in.Lat != nil && in.Lng != nil {
		c := geo.Coordinate{Lat: *in.Lat, Lng: *in.Lng}
		if c.Valid() {
			return Reference{Coordinate: c, Source: SourceDevice, Available: true}
		}
		r.logger.Debug("ignoring invalid device coordinates",
			zap.Float64("lat", *in.Lat), zap.Float64("lng", *in.Lng))
	}

	address := strings.TrimSpace(in.Address)
	if address != "" && r.geocode != nil {
		ctx, cancel := context.WithTimeout(ctx, r.timeout)
		defer cancel()

		c, err := r.geocode(ctx, address)
		if err == nil && c.Valid() {
			return Reference{Coordinate: c, Source: SourceGeocoded, Available: true}
		}
		r.logger.Warn("geocoding failed, using fallback location",
			zap.String("address", address), zap.Error(err))
	}

	return Reference{Coordinate: r.fallback, Source: SourceFallback, Available: false}
}

// GoogleGeocoder returns a GeocodeFunc backed by the Google Geocoding API.
// Addresses are qualified with city and country when they do not already name them.
// It returns nil when apiKey is empty.
func GoogleGeocoder(apiKey, city, country string) GeocodeFunc {
	if apiKey == "" {
		return nil
	}
	geocoder.ApiKey = apiKey

	return func(ctx context.Context, address string) (geo.Coordinate, error) {
		type result struct {
			loc geocoder.Location
			err error
		}

		req := geocoder.Address{Street: address, Country: country}
		if !strings.Contains(strings.ToLower(address), strings.ToLower(city)) {
			req.City = city
		}

		// The geocoder client has no context support; the lookup is abandoned on cancel.
		done := make(chan result, 1)
		go func() {
			loc, err := geocoder.Geocoding(req)
			done <- result{loc: loc, err: err}
		}()

		select {
		case <-ctx.Done():
			return geo.Coordinate{}, ctx.Err()
		case res := <-done:
			if res.err != nil {
				return geo.Coordinate{}, fmt.Errorf("geocode %q: %w", address, res.err)
			}
			return geo.Coordinate{Lat: res.loc.Latitude, Lng: res.loc.Longitude}, nil
		}
	}
}
