package weather

import (
	"sort"
	"strings"
	"time"
)

// AggregateReadings combines multiple provider readings into a single Report.
// Numeric fields are averaged; conditions are selected by majority, ties broken
// by the earliest reading.
func AggregateReadings(loc Location, readings []ProviderReading) Report {
	if len(readings) == 0 {
		return Report{
			Location:  loc,
			Timestamp: time.Now().UTC(),
			Condition: ConditionUnknown,
		}
	}

	// Provider order depends on goroutine scheduling; sort for stable output.
	readings = append([]ProviderReading(nil), readings...)
	sort.SliceStable(readings, func(i, j int) bool {
		return readings[i].ProviderName < readings[j].ProviderName
	})

	var (
		sumTemp     float64
		sumHumidity float64
		sumWind     float64
		sumPressure float64
		sumPrecip   float64
	)

	conditionCounts := make(map[Condition]int)
	firstSeen := make(map[Condition]int)
	providers := make([]ProviderContribution, 0, len(readings))
	names := make([]string, 0, len(readings))
	var newestTS time.Time

	for i, r := range readings {
		sumTemp += r.TemperatureC
		sumHumidity += r.HumidityPct
		sumWind += r.WindSpeedMS
		sumPressure += r.PressureHpa
		sumPrecip += r.PrecipMm

		conditionCounts[r.Condition]++
		if _, ok := firstSeen[r.Condition]; !ok {
			firstSeen[r.Condition] = i
		}

		if r.Timestamp.After(newestTS) {
			newestTS = r.Timestamp
		}

		providers = append(providers, ProviderContribution{
			ProviderName: r.ProviderName,
			Timestamp:    r.Timestamp,
		})
		names = append(names, r.ProviderName)
	}

	n := float64(len(readings))

	bestCond := ConditionUnknown
	bestCount := 0
	for cond, count := range conditionCounts {
		if count > bestCount || (count == bestCount && firstSeen[cond] < firstSeen[bestCond]) {
			bestCount = count
			bestCond = cond
		}
	}

	if newestTS.IsZero() {
		newestTS = time.Now().UTC()
	}

	return Report{
		Location:    loc,
		Timestamp:   newestTS,
		Temperature: sumTemp / n,
		Humidity:    sumHumidity / n,
		WindSpeed:   sumWind / n,
		Pressure:    sumPressure / n,
		PrecipMM:    sumPrecip / n,
		Condition:   bestCond,
		Source:      strings.Join(names, "+"),
		Providers:   providers,
	}
}
