package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/i474232898/bs-smart-parking/internal/geo"
	"github.com/i474232898/bs-smart-parking/internal/location"
	"github.com/i474232898/bs-smart-parking/internal/parking"
	"github.com/i474232898/bs-smart-parking/internal/parking/sources"
	"github.com/i474232898/bs-smart-parking/internal/store"
	"github.com/i474232898/bs-smart-parking/internal/weather"
)

var center = geo.Coordinate{Lat: 52.2689, Lng: 10.5268}

type parkingResponse struct {
	Location location.Reference `json:"location"`
	Result   struct {
		Spots   []parking.Spot `json:"spots"`
		Notices []string       `json:"notices"`
		Filter  parking.Filter `json:"filter"`
	} `json:"result"`
}

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	logger := zaptest.NewLogger(t)

	svc := parking.NewService(store.NewMemoryStore(0),
		[]parking.Source{sources.NewStaticSource()},
		parking.Options{Fallback: center}, logger)
	svc.Refresh(context.Background())

	resolver := location.NewResolver(center, nil, logger)
	weatherSvc := weather.NewService(weather.Location{City: "Braunschweig", Country: "DE", Coordinates: center}, nil, 0, logger)

	app := fiber.New()
	RegisterRoutes(app, svc, resolver, weatherSvc)
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, target string, out any) int {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(method, target, nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < 300 {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestParkingList_SortedByDistance(t *testing.T) {
	app := newTestApp(t)

	var body parkingResponse
	status := doJSON(t, app, http.MethodGet, "/api/v1/parking?lat=52.2650&lng=10.5200&sort=distance", &body)
	require.Equal(t, http.StatusOK, status)

	assert.Equal(t, location.SourceDevice, body.Location.Source)
	assert.True(t, body.Location.Available)
	assert.NotContains(t, body.Result.Notices, parking.NoticeLocationUnavailable)
	require.Len(t, body.Result.Spots, 8)
	for i := 1; i < len(body.Result.Spots); i++ {
		assert.LessOrEqual(t, body.Result.Spots[i-1].Distance, body.Result.Spots[i].Distance)
	}
}

func TestParkingList_MissingLocationFallsBack(t *testing.T) {
	app := newTestApp(t)

	var body parkingResponse
	status := doJSON(t, app, http.MethodGet, "/api/v1/parking?lat=abc", &body)
	require.Equal(t, http.StatusOK, status)

	assert.Equal(t, location.SourceFallback, body.Location.Source)
	assert.False(t, body.Location.Available)
	assert.Equal(t, center, body.Location.Coordinate)
	assert.Contains(t, body.Result.Notices, parking.NoticeLocationUnavailable)
}

func TestParkingList_Favorites(t *testing.T) {
	app := newTestApp(t)

	var body parkingResponse
	status := doJSON(t, app, http.MethodGet, "/api/v1/parking?filter=favorites&favorites=static-eiermarkt,%20unknown", &body)
	require.Equal(t, http.StatusOK, status)

	assert.Equal(t, parking.FilterFavorites, body.Result.Filter)
	require.Len(t, body.Result.Spots, 1)
	assert.Equal(t, "static-eiermarkt", body.Result.Spots[0].ID)
}

func TestParkingList_Validation(t *testing.T) {
	app := newTestApp(t)

	for _, target := range []string{
		"/api/v1/parking?filter=cheapest",
		"/api/v1/parking?sort=name",
	} {
		assert.Equal(t, http.StatusBadRequest, doJSON(t, app, http.MethodGet, target, nil), target)
	}
}

func TestParkingRefresh(t *testing.T) {
	app := newTestApp(t)

	assert.Equal(t, http.StatusBadRequest, doJSON(t, app, http.MethodPost, "/api/v1/parking/refresh?sources=static,bus", nil))

	var report parking.RefreshReport
	status := doJSON(t, app, http.MethodPost, "/api/v1/parking/refresh?sources=static", &report)
	require.Equal(t, http.StatusAccepted, status)

	assert.NotEmpty(t, report.ID)
	require.Len(t, report.Sources, 1)
	assert.Equal(t, parking.SourceStatic, report.Sources[0].Source)
	assert.Equal(t, 8, report.Sources[0].Count)
}

func TestWeather_AlwaysOK(t *testing.T) {
	app := newTestApp(t)

	var report weather.Report
	status := doJSON(t, app, http.MethodGet, "/api/weather", &report)
	require.Equal(t, http.StatusOK, status)

	assert.Equal(t, weather.SourceFallback, report.Source)
	assert.Equal(t, 15.0, report.Temperature)
}
