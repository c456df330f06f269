// Package sources implements the three parking data sources: the static garage
// table, street parking from OpenStreetMap and the live garage feeds.
package sources

import (
	"context"
	"time"

	"github.com/i474232898/bs-smart-parking/internal/geo"
	"github.com/i474232898/bs-smart-parking/internal/parking"
)

// StaticSource serves the known garages compiled into the binary.
type StaticSource struct {
	garages []parking.Spot
}

// NewStaticSource creates a StaticSource over the built-in garage table.
func NewStaticSource() *StaticSource {
	return &StaticSource{garages: staticGarages()}
}

func (s *StaticSource) Name() parking.DataSource {
	return parking.SourceStatic
}

// Fetch always succeeds.
func (s *StaticSource) Fetch(_ context.Context) parking.Slice {
	spots := make([]parking.Spot, 0, len(s.garages))
	for _, g := range s.garages {
		spot := g.Clone()
		spot.Normalize()
		spots = append(spots, spot)
	}

	return parking.Slice{
		Source:    parking.SourceStatic,
		Spots:     spots,
		Origin:    "table",
		FetchedAt: time.Now().UTC(),
	}
}

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

func staticGarages() []parking.Spot {
	garage := func(id, name, address string, lat, lng float64, free, total int, price float64, rating float64, features, amenities []string, daily, monthly float64) parking.Spot {
		return parking.Spot{
			ID:              id,
			Name:            name,
			Address:         address,
			Type:            parking.TypeGarage,
			Coordinates:     geo.Coordinate{Lat: lat, Lng: lng},
			AvailableSpaces: free,
			TotalSpaces:     intPtr(total),
			HourlyPrice:     price,
			IsOpen:          true,
			DataSource:      parking.SourceStatic,
			Rating:          floatPtr(rating),
			Features:        features,
			Amenities:       amenities,
			Pricing: parking.Pricing{
				Hourly:  floatPtr(price),
				Daily:   floatPtr(daily),
				Monthly: floatPtr(monthly),
			},
		}
	}

	return []parking.Spot{
		garage("static-eiermarkt", "Parkhaus Eiermarkt", "Eiermarkt 1, 38100 Braunschweig",
			52.26180, 10.51780, 142, 420, 1.50, 4.2,
			[]string{"covered", "24h"}, []string{"ev-charging", "elevator"}, 12.00, 85.00),
		garage("static-schloss-arkaden", "Parkhaus Schloss-Arkaden", "Ritterbrunnen 1, 38100 Braunschweig",
			52.26330, 10.52860, 380, 1200, 2.00, 4.5,
			[]string{"covered", "shopping"}, []string{"elevator", "toilets", "family-spaces"}, 15.00, 110.00),
		garage("static-wallstrasse", "Parkhaus Wallstraße", "Wallstraße 20, 38100 Braunschweig",
			52.25900, 10.52100, 64, 310, 1.20, 3.9,
			[]string{"covered"}, []string{"elevator"}, 9.00, 70.00),
		garage("static-magni", "Parkhaus Magni", "Am Magnitor 3, 38100 Braunschweig",
			52.26220, 10.53140, 88, 260, 1.50, 4.0,
			[]string{"covered", "height-2.0m"}, []string{"ev-charging"}, 10.00, 75.00),
		garage("static-lange-strasse", "Parkhaus Lange Straße", "Lange Straße 63, 38100 Braunschweig",
			52.26840, 10.51920, 120, 450, 1.40, 4.1,
			[]string{"covered", "24h"}, []string{"elevator", "toilets"}, 11.00, 80.00),
		garage("static-packhof", "Tiefgarage Packhof", "Packhofpassage 1, 38100 Braunschweig",
			52.26650, 10.51970, 35, 290, 1.80, 3.7,
			[]string{"underground"}, []string{"elevator", "bike-parking"}, 13.00, 95.00),
		garage("static-hauptbahnhof", "Parkhaus Hauptbahnhof", "Willy-Brandt-Platz 1, 38102 Braunschweig",
			52.25300, 10.54000, 210, 650, 1.00, 3.8,
			[]string{"covered", "park-and-ride"}, []string{"ev-charging", "toilets"}, 7.00, 55.00),
		garage("static-steinweg", "Tiefgarage Steinweg", "Steinweg 35, 38100 Braunschweig",
			52.26500, 10.52600, 22, 180, 2.20, 4.3,
			[]string{"underground", "theatre"}, []string{"elevator"}, 16.00, 120.00),
	}
}
