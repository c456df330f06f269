package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/paulmach/orb"

	"github.com/i474232898/bs-smart-parking/internal/geo"
)

type AppConfig struct {
	Port     string
	LogLevel string

	// City identity and the reference point used when the device location is unavailable.
	CityName string
	Center   geo.Coordinate
	Timezone *time.Location

	// Street parking (Overpass).
	OverpassURL              string
	OverpassTimeout          time.Duration
	StreetBBox               orb.Bound
	StreetRefreshMinInterval time.Duration

	// Live garage feeds.
	LiveFeedURL         string
	SmartFeedURL        string
	LiveRefreshInterval time.Duration

	HTTPTimeout time.Duration
	StoreMaxAge time.Duration // slices older than this are reported stale

	OpenWeatherAPIKey string
	WeatherAPIKey     string
	WeatherCacheTTL   time.Duration

	GeocoderAPIKey string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		Port:              getenvDefault("PORT", "8080"),
		LogLevel:          getenvDefault("LOG_LEVEL", "info"),
		CityName:          getenvDefault("CITY_NAME", "Braunschweig"),
		OverpassURL:       getenvDefault("OVERPASS_URL", "https://overpass-api.de/api/interpreter"),
		LiveFeedURL:       os.Getenv("LIVE_FEED_URL"),
		SmartFeedURL:      os.Getenv("SMART_FEED_URL"),
		OpenWeatherAPIKey: os.Getenv("OPENWEATHER_API_KEY"),
		WeatherAPIKey:     os.Getenv("WEATHERAPI_API_KEY"),
		GeocoderAPIKey:    os.Getenv("GEOCODER_API_KEY"),
	}

	var err error

	lat, err := getenvFloat("CITY_CENTER_LAT", 52.2689)
	if err != nil {
		return nil, err
	}
	lng, err := getenvFloat("CITY_CENTER_LNG", 10.5268)
	if err != nil {
		return nil, err
	}
	cfg.Center = geo.Coordinate{Lat: lat, Lng: lng}
	if !cfg.Center.Valid() {
		return nil, fmt.Errorf("invalid CITY_CENTER_LAT/CITY_CENTER_LNG: %v", cfg.Center)
	}

	tz := getenvDefault("TIMEZONE", "Europe/Berlin")
	cfg.Timezone, err = time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}

	cfg.StreetBBox, err = parseBBox(getenvDefault("STREET_BBOX", "52.245,10.49,52.285,10.56"))
	if err != nil {
		return nil, fmt.Errorf("invalid STREET_BBOX: %w", err)
	}

	durations := []struct {
		key string
		def string
		dst *time.Duration
	}{
		{"OVERPASS_TIMEOUT", "25s", &cfg.OverpassTimeout},
		{"STREET_REFRESH_MIN_INTERVAL", "1m", &cfg.StreetRefreshMinInterval},
		{"LIVE_REFRESH_INTERVAL", "2m", &cfg.LiveRefreshInterval},
		{"HTTP_TIMEOUT", "10s", &cfg.HTTPTimeout},
		{"STORE_MAX_AGE", "10m", &cfg.StoreMaxAge},
		{"WEATHER_CACHE_TTL", "10m", &cfg.WeatherCacheTTL},
	}
	for _, d := range durations {
		v, err := time.ParseDuration(getenvDefault(d.key, d.def))
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", d.key, err)
		}
		*d.dst = v
	}

	return cfg, nil
}

// parseBBox reads "south,west,north,east" into an orb bound.
func parseBBox(s string) (orb.Bound, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return orb.Bound{}, fmt.Errorf("expected south,west,north,east, got %q", s)
	}

	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return orb.Bound{}, err
		}
		v[i] = f
	}

	b := orb.Bound{Min: orb.Point{v[1], v[0]}, Max: orb.Point{v[3], v[2]}}
	if b.IsEmpty() {
		return orb.Bound{}, fmt.Errorf("bounding box %q has no area", s)
	}
	return b, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}
