package httpapi

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/bs-smart-parking/internal/location"
	"github.com/i474232898/bs-smart-parking/internal/parking"
	"github.com/i474232898/bs-smart-parking/internal/weather"
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, parkingSvc *parking.Service, resolver *location.Resolver, weatherSvc *weather.Service) {
	v1 := app.Group("/api/v1")

	v1.Get("/parking", func(c *fiber.Ctx) error {
		q, err := parseParkingQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		ref := resolver.Resolve(c.UserContext(), location.Input{Lat: q.Lat, Lng: q.Lng, Address: q.Address})

		result := parkingSvc.Query(parking.Query{
			Reference:           ref.Coordinate,
			LocationUnavailable: !ref.Available,
			Filter:              parking.Filter(q.Filter),
			Sort:                parking.SortKey(q.Sort),
			Favorites:           parking.NewFavoriteSet(q.Favorites...),
		})

		return c.JSON(fiber.Map{
			"location": ref,
			"result":   result,
		})
	})

	v1.Post("/parking/refresh", func(c *fiber.Ctx) error {
		only, err := parseSources(c.Query("sources"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		report := parkingSvc.Refresh(c.UserContext(), only...)
		return c.Status(fiber.StatusAccepted).JSON(report)
	})

	// Always 200: the service answers with a fallback report when providers fail.
	app.Get("/api/weather", func(c *fiber.Ctx) error {
		return c.JSON(weatherSvc.Current(c.UserContext()))
	})
}

// parkingQuery holds query parameters for the parking list.
// Coordinates are optional and never rejected; unusable values fall back to the city centre.
type parkingQuery struct {
	Lat       *float64
	Lng       *float64
	Address   string   `validate:"max=200"`
	Filter    string   `validate:"omitempty,oneof=all available garages street free favorites"`
	Sort      string   `validate:"omitempty,oneof=distance availability price rating"`
	Favorites []string `validate:"max=100,dive,required,max=64"`
}

func parseParkingQuery(c *fiber.Ctx) (parkingQuery, error) {
	q := parkingQuery{
		Lat:       parseOptionalFloat(c.Query("lat")),
		Lng:       parseOptionalFloat(c.Query("lng")),
		Address:   c.Query("address"),
		Filter:    c.Query("filter"),
		Sort:      c.Query("sort"),
		Favorites: splitCSV(c.Query("favorites")),
	}

	if err := validate.Struct(q); err != nil {
		return q, err
	}

	return q, nil
}

func parseSources(raw string) ([]parking.DataSource, error) {
	var out []parking.DataSource
	seen := make(map[parking.DataSource]bool)
	for _, name := range splitCSV(raw) {
		src, ok := parking.ParseDataSource(name)
		if !ok {
			return nil, fmt.Errorf("unknown source %q", name)
		}
		if !seen[src] {
			seen[src] = true
			out = append(out, src)
		}
	}
	return out, nil
}

func parseOptionalFloat(s string) *float64 {
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
