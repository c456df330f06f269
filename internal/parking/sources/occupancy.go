package sources

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/i474232898/bs-smart-parking/internal/common"
)

const (
	baseOccupancy     = 0.35
	busyOccupancy     = 0.55
	dayShift          = 0.15
	eveningShift      = 0.08
	nightShift        = -0.20
	minOccupancy      = 0.20
	maxOccupancy      = 0.70
	maxJitter         = 0.07
	metersPerSpace    = 5
	minStreetSpaces   = 5
	minSegmentLengthM = 120
)

// DefaultBusyStreets get elevated base occupancy.
var DefaultBusyStreets = []string{
	"Bohlweg",
	"Steinweg",
	"Damm",
	"Sack",
	"Neue Straße",
	"Kohlmarkt",
	"Friedrich-Wilhelm-Straße",
}

// JitterFunc returns an occupancy offset in [-1, 1]; it is scaled to ±7 points.
type JitterFunc func() float64

// NoJitter disables random variation.
func NoJitter() float64 { return 0 }

// RandomJitter returns a JitterFunc backed by a seeded source.
func RandomJitter(seed int64) JitterFunc {
	var mu sync.Mutex
	r := rand.New(rand.NewSource(seed))
	return func() float64 {
		mu.Lock()
		defer mu.Unlock()
		return r.Float64()*2 - 1
	}
}

// OccupancyEstimator guesses street occupancy from the street name and time of day.
type OccupancyEstimator struct {
	Now         func() time.Time
	Jitter      JitterFunc
	Location    *time.Location
	BusyStreets []string
}

// NewOccupancyEstimator creates an estimator evaluating hours in loc.
func NewOccupancyEstimator(loc *time.Location, jitter JitterFunc) *OccupancyEstimator {
	if loc == nil {
		loc = time.Local
	}
	if jitter == nil {
		jitter = NoJitter
	}
	return &OccupancyEstimator{
		Now:         time.Now,
		Jitter:      jitter,
		Location:    loc,
		BusyStreets: DefaultBusyStreets,
	}
}

// BaseRate is the deterministic part of the estimate, clamped to [0.20, 0.70].
func (e *OccupancyEstimator) BaseRate(street string, at time.Time) float64 {
	rate := baseOccupancy
	if e.isBusy(street) {
		rate = busyOccupancy
	}

	// Bands are whole hours, both ends inclusive: 09-17, 18-21, 22-06.
	hour := at.In(e.Location).Hour()
	switch {
	case hour >= 9 && hour <= 17:
		rate += dayShift
	case hour >= 18 && hour <= 21:
		rate += eveningShift
	case hour >= 22 || hour <= 6:
		rate += nightShift
	}

	return clamp(rate, minOccupancy, maxOccupancy)
}

// Rate is BaseRate at the current time plus bounded jitter, kept within [0.20, 0.70].
func (e *OccupancyEstimator) Rate(street string) float64 {
	j := clamp(e.Jitter(), -1, 1) * maxJitter
	return clamp(e.BaseRate(street, e.Now())+j, minOccupancy, maxOccupancy)
}

// isBusy compares whole street names, so "Sackring" does not match "Sack".
func (e *OccupancyEstimator) isBusy(street string) bool {
	name := common.NormalizeName(street)
	if name == "" {
		return false
	}
	for _, busy := range e.BusyStreets {
		if common.NormalizeName(busy) == name {
			return true
		}
	}
	return false
}

// EstimateSpaces derives capacity from segment length, one space per five meters.
func EstimateSpaces(lengthMeters float64) int {
	return max(minStreetSpaces, int(math.Floor(lengthMeters/metersPerSpace)))
}

// AvailableSpaces applies an occupancy rate to a capacity, keeping at least one space.
func AvailableSpaces(total int, occupancy float64) int {
	return max(1, int(math.Floor(float64(total)*(1-occupancy))))
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
