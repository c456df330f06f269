package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"go.uber.org/zap"

	"github.com/i474232898/bs-smart-parking/internal/fallback"
	"github.com/i474232898/bs-smart-parking/internal/geo"
	"github.com/i474232898/bs-smart-parking/internal/parking"
	"github.com/i474232898/bs-smart-parking/internal/upstream"
)

const (
	// DefaultStreetFee is assumed when a fee tag is present but carries no number.
	DefaultStreetFee = 1.50

	originOverpass      = "overpass"
	originFallbackTable = "fallback-table"
)

// DefaultBBox covers central Braunschweig.
var DefaultBBox = orb.Bound{
	Min: orb.Point{10.49, 52.245},
	Max: orb.Point{10.56, 52.285},
}

var (
	errNoNamedWays = errors.New("overpass returned no named ways")
	feeAmountRe    = regexp.MustCompile(`^(\d+(?:[.,]\d+)?)\s*(?:€|eur|euro)?\s*(?:/\s*(?:h|std|hr|hour))?$`)
)

// osmElement is one element of an Overpass "out geom" response.
type osmElement struct {
	Type     string            `json:"type"`
	ID       int64             `json:"id"`
	Tags     map[string]string `json:"tags"`
	Geometry []osmPoint        `json:"geometry"`
}

type osmPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type overpassResponse struct {
	Elements []osmElement `json:"elements"`
}

func (e osmElement) line() orb.LineString {
	line := make(orb.LineString, 0, len(e.Geometry))
	for _, p := range e.Geometry {
		line = append(line, orb.Point{p.Lon, p.Lat})
	}
	return line
}

// StreetConfig configures the street-parking source.
type StreetConfig struct {
	URL       string
	BBox      orb.Bound
	Timeout   time.Duration
	City      string
	Reference geo.Coordinate
}

// StreetSource estimates on-street parking from OpenStreetMap ways.
type StreetSource struct {
	cfg       StreetConfig
	client    *upstream.Client
	estimator *OccupancyEstimator
	logger    *zap.Logger
}

// NewStreetSource creates a StreetSource. Reference is used as the position
// of ways without geometry.
func NewStreetSource(cfg StreetConfig, client *upstream.Client, estimator *OccupancyEstimator, logger *zap.Logger) *StreetSource {
	if cfg.BBox.IsEmpty() {
		cfg.BBox = DefaultBBox
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 25 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StreetSource{
		cfg:       cfg,
		client:    client,
		estimator: estimator,
		logger:    logger,
	}
}

func (s *StreetSource) Name() parking.DataSource {
	return parking.SourceOSM
}

// Fetch queries Overpass and falls back to the built-in street table when the
// query fails or yields nothing.
func (s *StreetSource) Fetch(ctx context.Context) parking.Slice {
	elements, origin, err := fallback.FirstSuccess(ctx,
		fallback.Attempt[[]osmElement]{Name: originOverpass, Run: func(ctx context.Context) ([]osmElement, error) {
			els, err := s.query(ctx)
			if err != nil {
				s.logger.Warn("street parking query failed, using fallback table", zap.Error(err))
			}
			return els, err
		}},
		fallback.Attempt[[]osmElement]{Name: originFallbackTable, Run: func(context.Context) ([]osmElement, error) {
			return fallbackStreets(), nil
		}},
	)
	if err != nil {
		// Only reachable when ctx is already cancelled.
		elements, origin = fallbackStreets(), originFallbackTable
	}

	spots := make([]parking.Spot, 0, len(elements))
	for _, el := range elements {
		spot := s.normalize(el)
		if spot.AvailableSpaces == 0 {
			continue
		}
		spots = append(spots, spot)
	}

	return parking.Slice{
		Source:    parking.SourceOSM,
		Spots:     spots,
		Origin:    origin,
		Degraded:  origin != originOverpass,
		FetchedAt: time.Now().UTC(),
	}
}

// OverpassQuery builds the query selecting named ways with parking tags in bbox.
func OverpassQuery(bbox orb.Bound, timeout time.Duration) string {
	box := fmt.Sprintf("%f,%f,%f,%f", bbox.Min.Lat(), bbox.Min.Lon(), bbox.Max.Lat(), bbox.Max.Lon())

	var b strings.Builder
	fmt.Fprintf(&b, "[out:json][timeout:%d];\n(\n", int(timeout.Seconds()))
	for _, tag := range []string{"parking:lane:both", "parking:lane:left", "parking:lane:right", "parking:both", "parking:left", "parking:right"} {
		fmt.Fprintf(&b, "  way[\"highway\"][\"name\"][\"%s\"](%s);\n", tag, box)
	}
	b.WriteString(");\nout geom;")
	return b.String()
}

func (s *StreetSource) query(ctx context.Context) ([]osmElement, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	body := url.Values{"data": {OverpassQuery(s.cfg.BBox, s.cfg.Timeout)}}.Encode()

	resp, err := s.client.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.URL, strings.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return req, nil
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload overpassResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding overpass response: %w", err)
	}

	named := make([]osmElement, 0, len(payload.Elements))
	for _, el := range payload.Elements {
		if el.Type == "way" && strings.TrimSpace(el.Tags["name"]) != "" {
			named = append(named, el)
		}
	}
	if len(named) == 0 {
		return nil, errNoNamedWays
	}
	return named, nil
}

func (s *StreetSource) normalize(el osmElement) parking.Spot {
	name := strings.TrimSpace(el.Tags["name"])
	line := el.line()

	length, ok := geo.LineLength(line)
	if !ok {
		length = minSegmentLengthM
	}
	total := EstimateSpaces(length)
	occupancy := s.estimator.Rate(name)
	available := AvailableSpaces(total, occupancy)

	position, located := geo.Midpoint(line)
	if !located {
		position = s.cfg.Reference
	}

	fee := ParseFee(el.Tags["fee"])

	features := []string{"street-parking"}
	if fee == 0 {
		features = append(features, "free")
	} else {
		features = append(features, "paid")
	}
	if maxstay := el.Tags["maxstay"]; maxstay != "" {
		features = append(features, "maxstay:"+maxstay)
	}

	var amenities []string
	if el.Tags["parking:condition:both"] == "disabled" || el.Tags["capacity:disabled"] != "" {
		amenities = append(amenities, "disabled-parking")
	}

	address := name
	if s.cfg.City != "" {
		address = name + ", " + s.cfg.City
	}

	spot := parking.Spot{
		ID:              fmt.Sprintf("osm-%d", el.ID),
		Name:            name,
		Address:         address,
		Type:            parking.TypeStreet,
		Coordinates:     position,
		AvailableSpaces: available,
		TotalSpaces:     intPtr(total),
		HourlyPrice:     fee,
		IsOpen:          true,
		DataSource:      parking.SourceOSM,
		Features:        features,
		Amenities:       amenities,
		Pricing:         parking.Pricing{Hourly: floatPtr(fee)},
		PositionUnknown: !located,
	}
	spot.Normalize()
	return spot
}

// ParseFee interprets an OSM fee tag: missing, "no" or "none" is free, a bare
// amount such as "2.00" or "1,20 EUR/h" is the hourly price, anything else
// (including conditional values with opening hours) costs DefaultStreetFee.
func ParseFee(tag string) float64 {
	v := strings.ToLower(strings.TrimSpace(tag))
	if v == "" || v == "no" || v == "none" {
		return 0
	}

	if m := feeAmountRe.FindStringSubmatch(v); m != nil {
		if f, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64); err == nil {
			return f
		}
	}
	return DefaultStreetFee
}
