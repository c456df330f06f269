package parking

import (
	"time"

	"github.com/i474232898/bs-smart-parking/internal/geo"
)

// SpotType distinguishes off-street garages from on-street parking.
type SpotType string

const (
	TypeGarage SpotType = "garage"
	TypeStreet SpotType = "street"
)

// DataSource tags where a spot came from. It is informational only and never
// decides merge precedence on its own.
type DataSource string

const (
	SourceStatic DataSource = "static"
	SourceOSM    DataSource = "osm"
	SourceLive   DataSource = "live"
)

// SourceOrder is the canonical concatenation order of source slices.
var SourceOrder = []DataSource{SourceStatic, SourceOSM, SourceLive}

// ParseDataSource validates a source name.
func ParseDataSource(s string) (DataSource, bool) {
	for _, src := range SourceOrder {
		if string(src) == s {
			return src, true
		}
	}
	return "", false
}

// Pricing lists optional tariff levels in euros.
type Pricing struct {
	Hourly  *float64 `json:"hourly,omitempty"`
	Daily   *float64 `json:"daily,omitempty"`
	Monthly *float64 `json:"monthly,omitempty"`
}

// Spot is the unified parking record every source is normalized into.
//
// Distance and WalkingTime are view state: they are only filled in on query
// results and never stored.
type Spot struct {
	ID              string         `json:"id"`
	Name            string         `json:"name"`
	Address         string         `json:"address"`
	Type            SpotType       `json:"type"`
	Coordinates     geo.Coordinate `json:"coordinates"`
	Distance        float64        `json:"distance"`
	WalkingTime     int            `json:"walkingTime"`
	AvailableSpaces int            `json:"availableSpaces"`
	TotalSpaces     *int           `json:"totalSpaces,omitempty"`
	HourlyPrice     float64        `json:"hourlyPrice"`
	IsOpen          bool           `json:"isOpen"`
	DataSource      DataSource     `json:"dataSource"`
	Rating          *float64       `json:"rating,omitempty"`
	Features        []string       `json:"features"`
	Amenities       []string       `json:"amenities"`
	Pricing         Pricing        `json:"pricing"`
	Trend           string         `json:"trend,omitempty"`

	// PositionUnknown marks a spot without geometry. It is placed at the
	// query's reference point, at distance 0.
	PositionUnknown bool `json:"-"`
}

// Normalize enforces the occupancy invariants and de-duplicates the string sets.
func (s *Spot) Normalize() {
	if s.TotalSpaces != nil && *s.TotalSpaces < 0 {
		s.TotalSpaces = nil
	}
	if s.AvailableSpaces < 0 {
		s.AvailableSpaces = 0
	}
	if s.TotalSpaces != nil && s.AvailableSpaces > *s.TotalSpaces {
		s.AvailableSpaces = *s.TotalSpaces
	}
	if s.HourlyPrice < 0 {
		s.HourlyPrice = 0
	}
	s.Features = uniqueStrings(s.Features)
	s.Amenities = uniqueStrings(s.Amenities)
}

// Clone returns a deep copy so callers can mutate view fields freely.
func (s Spot) Clone() Spot {
	c := s
	if s.TotalSpaces != nil {
		v := *s.TotalSpaces
		c.TotalSpaces = &v
	}
	if s.Rating != nil {
		v := *s.Rating
		c.Rating = &v
	}
	c.Pricing = Pricing{
		Hourly:  clonePtr(s.Pricing.Hourly),
		Daily:   clonePtr(s.Pricing.Daily),
		Monthly: clonePtr(s.Pricing.Monthly),
	}
	c.Features = append([]string(nil), s.Features...)
	c.Amenities = append([]string(nil), s.Amenities...)
	return c
}

// IsFree reports whether parking costs nothing.
func (s Spot) IsFree() bool {
	return s.HourlyPrice == 0
}

// OriginHardcoded marks a slice served from a compiled-in literal.
const OriginHardcoded = "hardcoded"

// Slice is one source's normalized output from a single refresh.
type Slice struct {
	Source    DataSource `json:"source"`
	Spots     []Spot     `json:"-"`
	Origin    string     `json:"origin"`
	Degraded  bool       `json:"degraded"`
	Stale     bool       `json:"stale"`
	FetchedAt time.Time  `json:"fetchedAt"`
}

// Filter selects a predicate subset of the merged list.
type Filter string

const (
	FilterAll       Filter = "all"
	FilterAvailable Filter = "available"
	FilterGarages   Filter = "garages"
	FilterStreet    Filter = "street"
	FilterFree      Filter = "free"
	FilterFavorites Filter = "favorites"
)

// SortKey orders the filtered list.
type SortKey string

const (
	SortDistance     SortKey = "distance"
	SortAvailability SortKey = "availability"
	SortPrice        SortKey = "price"
	SortRating       SortKey = "rating"
)

// FavoriteSet is a caller-owned set of spot ids.
type FavoriteSet map[string]struct{}

// NewFavoriteSet builds a set from ids, ignoring blanks.
func NewFavoriteSet(ids ...string) FavoriteSet {
	set := make(FavoriteSet, len(ids))
	for _, id := range ids {
		if id != "" {
			set[id] = struct{}{}
		}
	}
	return set
}

// Has reports whether id is a favorite.
func (f FavoriteSet) Has(id string) bool {
	_, ok := f[id]
	return ok
}

// Query describes one request for a ranked list.
type Query struct {
	Reference geo.Coordinate
	Filter    Filter
	Sort      SortKey
	Favorites FavoriteSet

	// LocationUnavailable marks Reference as a substitute for the caller's
	// real position.
	LocationUnavailable bool
}

// Result is the ranked output of a query.
type Result struct {
	Reference   geo.Coordinate `json:"reference"`
	Filter      Filter         `json:"filter"`
	Sort        SortKey        `json:"sort"`
	Spots       []Spot         `json:"spots"`
	Sources     []Slice        `json:"sources"`
	Notices     []string       `json:"notices,omitempty"`
	GeneratedAt time.Time      `json:"generatedAt"`
}

func clonePtr(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func uniqueStrings(in []string) []string {
	if len(in) == 0 {
		return []string{}
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok || s == "" {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
