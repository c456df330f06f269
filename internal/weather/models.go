package weather

import (
	"time"

	"github.com/i474232898/bs-smart-parking/internal/geo"
)

// Condition represents a normalized high-level weather condition.
type Condition string

const (
	ConditionUnknown Condition = "unknown"
	ConditionClear   Condition = "clear"
	ConditionCloudy  Condition = "cloudy"
	ConditionRain    Condition = "rain"
	ConditionSnow    Condition = "snow"
	ConditionStorm   Condition = "storm"
	ConditionMist    Condition = "mist"
)

// SourceFallback marks a report built from static defaults.
const SourceFallback = "fallback"

// Location is the fixed place weather is reported for.
type Location struct {
	City        string         `json:"city"`
	Country     string         `json:"country"`
	Coordinates geo.Coordinate `json:"coordinates"`
}

// Key returns a canonical string key for caching this location.
func (l Location) Key() string {
	return l.City + ":" + l.Country
}

// Report is the payload served by the weather endpoint.
type Report struct {
	Location    Location  `json:"location"`
	Timestamp   time.Time `json:"timestamp"` // always UTC
	Temperature float64   `json:"temperatureC"`
	Humidity    float64   `json:"humidityPercent"`
	WindSpeed   float64   `json:"windSpeed"`
	Pressure    float64   `json:"pressureHpa,omitempty"`
	PrecipMM    float64   `json:"precipMm"`
	Condition   Condition `json:"condition"`
	// Source is "fallback" for default values, otherwise the contributing providers.
	Source string `json:"source"`

	Providers []ProviderContribution `json:"providers,omitempty"`
}

// ProviderContribution describes data coming from a single provider used in aggregation.
type ProviderContribution struct {
	ProviderName string    `json:"provider"`
	Timestamp    time.Time `json:"timestamp"`
}

// FallbackReport is returned when no provider could be reached.
func FallbackReport(loc Location, now time.Time) Report {
	return Report{
		Location:    loc,
		Timestamp:   now.UTC(),
		Temperature: 15,
		Humidity:    65,
		WindSpeed:   3.5,
		Condition:   ConditionCloudy,
		Source:      SourceFallback,
	}
}
