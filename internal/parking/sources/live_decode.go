package sources

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/i474232898/bs-smart-parking/internal/geo"
	"github.com/i474232898/bs-smart-parking/internal/parking"
)

// DefaultGaragePrice is used when a live record carries no recognizable price.
const DefaultGaragePrice = 1.50

var (
	errEmptyPayload   = errors.New("empty payload")
	errUnknownShape   = errors.New("unrecognized payload shape")
	errNoFeatures     = errors.New("feed contains no usable garages")
	errSmartNoSuccess = errors.New("smart endpoint reported failure")

	priceAfterRe  = regexp.MustCompile(`(?i)(\d+(?:[.,]\d{1,2})?)\s*(?:€|eur\b|euro\b)`)
	priceBeforeRe = regexp.MustCompile(`(?i)(?:€|eur\b|euro\b)\s*(\d+(?:[.,]\d{1,2})?)`)
	addressSpanRe = regexp.MustCompile(`(?is)<span[^>]*class="[^"]*(?:address|adr)[^"]*"[^>]*>(.*?)</span>`)
	tagRe         = regexp.MustCompile(`<[^>]+>`)
)

// feedRecord is one garage entry after the payload shape has been resolved.
type feedRecord struct {
	props    geojson.Properties
	position geo.Coordinate
	located  bool
}

// decodeFeed resolves the feed's payload shape: a GeoJSON FeatureCollection, or
// a flat array of either properties-wrapped or bare records.
func decodeFeed(data []byte) ([]feedRecord, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, errEmptyPayload
	}

	switch trimmed[0] {
	case '{':
		return decodeFeatureCollection(trimmed)
	case '[':
		return decodeRecordArray(trimmed)
	default:
		return nil, errUnknownShape
	}
}

func decodeFeatureCollection(data []byte) ([]feedRecord, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("decoding feature collection: %w", err)
	}

	records := make([]feedRecord, 0, len(fc.Features))
	for _, f := range fc.Features {
		props := f.Properties
		if props == nil {
			props = geojson.Properties{}
		}
		if _, ok := props["id"]; !ok && f.ID != nil {
			props["id"] = f.ID
		}

		rec := feedRecord{props: props}
		if p, ok := f.Geometry.(orb.Point); ok {
			rec.position, rec.located = geo.FromPoint(p), true
		}
		records = append(records, rec)
	}
	return records, nil
}

func decodeRecordArray(data []byte) ([]feedRecord, error) {
	var items []map[string]any
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decoding record array: %w", err)
	}

	records := make([]feedRecord, 0, len(items))
	for _, item := range items {
		props := geojson.Properties(item)
		if inner, ok := item["properties"].(map[string]any); ok {
			props = geojson.Properties(inner)
			if _, ok := props["id"]; !ok && item["id"] != nil {
				props["id"] = item["id"]
			}
		}

		rec := feedRecord{props: props}
		rec.position, rec.located = recordPosition(item, props)
		records = append(records, rec)
	}
	return records, nil
}

// recordPosition looks for a position in a GeoJSON-like geometry, a bare
// coordinates array or lat/lng fields, in that order.
func recordPosition(item map[string]any, props geojson.Properties) (geo.Coordinate, bool) {
	if g, ok := item["geometry"].(map[string]any); ok {
		if c, ok := lngLat(g["coordinates"]); ok {
			return c, true
		}
	}
	if c, ok := lngLat(item["coordinates"]); ok {
		return c, true
	}

	lat, okLat := numberProp(props, "lat", "latitude")
	lng, okLng := numberProp(props, "lng", "lon", "longitude")
	if okLat && okLng {
		return geo.Coordinate{Lat: lat, Lng: lng}, true
	}
	return geo.Coordinate{}, false
}

func lngLat(v any) (geo.Coordinate, bool) {
	arr, ok := v.([]any)
	if !ok || len(arr) < 2 {
		return geo.Coordinate{}, false
	}
	lng, ok1 := toFloat(arr[0])
	lat, ok2 := toFloat(arr[1])
	if !ok1 || !ok2 {
		return geo.Coordinate{}, false
	}
	return geo.Coordinate{Lat: lat, Lng: lng}, true
}

// decodeSmart unwraps the smart endpoint envelope {"success":..,"data":..}.
func decodeSmart(data []byte) ([]feedRecord, error) {
	var envelope struct {
		Success bool            `json:"success"`
		Error   string          `json:"error"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("decoding smart envelope: %w", err)
	}
	if !envelope.Success {
		if envelope.Error != "" {
			return nil, fmt.Errorf("%w: %s", errSmartNoSuccess, envelope.Error)
		}
		return nil, errSmartNoSuccess
	}
	return decodeFeed(envelope.Data)
}

// toSpots normalizes records into live spots; unlocated records are dropped.
func toSpots(records []feedRecord, city string) ([]parking.Spot, error) {
	spots := make([]parking.Spot, 0, len(records))
	for i, rec := range records {
		if !rec.located || !rec.position.Valid() {
			continue
		}
		spots = append(spots, recordToSpot(rec, i, city))
	}
	if len(spots) == 0 {
		return nil, errNoFeatures
	}
	return spots, nil
}

func recordToSpot(rec feedRecord, index int, city string) parking.Spot {
	p := rec.props

	name, _ := stringProp(p, "name", "title")
	if name == "" {
		name = fmt.Sprintf("Parkhaus %d", index+1)
	}

	id, ok := stringProp(p, "id")
	if !ok || id == "" {
		id = strconv.Itoa(index + 1)
	}

	description, _ := stringProp(p, "description")

	var total *int
	if c, ok := numberProp(p, "capacity", "total", "totalSpaces", "total_spaces"); ok && c > 0 {
		total = intPtr(int(c))
	}
	free, _ := numberProp(p, "free", "available", "availableSpaces", "free_spaces", "vacant")

	price, ok := numberProp(p, "price", "hourlyPrice", "hourly_price")
	if !ok {
		price = ExtractPrice(description)
	}

	address, ok := stringProp(p, "address", "street")
	if !ok || address == "" {
		address = ExtractAddress(description, city)
	}

	spot := parking.Spot{
		ID:              "live-" + id,
		Name:            name,
		Address:         address,
		Type:            parking.TypeGarage,
		Coordinates:     rec.position,
		AvailableSpaces: int(math.Max(0, free)),
		TotalSpaces:     total,
		HourlyPrice:     price,
		IsOpen:          openState(p),
		DataSource:      parking.SourceLive,
		Features:        []string{"live-occupancy"},
		Pricing:         parking.Pricing{Hourly: floatPtr(price)},
		Trend:           trendOf(p),
	}
	spot.Normalize()
	return spot
}

// ExtractPrice finds a number next to a euro marker in an HTML description,
// e.g. "2,50 EUR / Std" or "€ 1.80". It returns DefaultGaragePrice otherwise.
func ExtractPrice(description string) float64 {
	text := html.UnescapeString(tagRe.ReplaceAllString(description, " "))
	text = strings.ReplaceAll(text, "\u00a0", " ")

	for _, re := range []*regexp.Regexp{priceAfterRe, priceBeforeRe} {
		if m := re.FindStringSubmatch(text); m != nil {
			if f, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64); err == nil {
				return f
			}
		}
	}
	return DefaultGaragePrice
}

// ExtractAddress reads the address span from an HTML description, falling back to city.
func ExtractAddress(description, city string) string {
	if m := addressSpanRe.FindStringSubmatch(description); m != nil {
		addr := strings.Join(strings.Fields(html.UnescapeString(tagRe.ReplaceAllString(m[1], " "))), " ")
		if addr != "" {
			return addr
		}
	}
	return city
}

func openState(p geojson.Properties) bool {
	for _, key := range []string{"isOpen", "open"} {
		if b, ok := p[key].(bool); ok {
			return b
		}
	}
	state, _ := stringProp(p, "openingState", "status", "state")
	switch strings.ToLower(state) {
	case "closed", "geschlossen", "false", "0":
		return false
	}
	return true
}

func trendOf(p geojson.Properties) string {
	switch v := p["trend"].(type) {
	case string:
		return v
	case float64:
		switch {
		case v > 0:
			return "rising"
		case v < 0:
			return "falling"
		default:
			return "stable"
		}
	}
	return ""
}

func stringProp(p geojson.Properties, keys ...string) (string, bool) {
	for _, key := range keys {
		switch v := p[key].(type) {
		case string:
			return strings.TrimSpace(v), true
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64), true
		case json.Number:
			return v.String(), true
		}
	}
	return "", false
}

func numberProp(p geojson.Properties, keys ...string) (float64, bool) {
	for _, key := range keys {
		if f, ok := toFloat(p[key]); ok {
			return f, true
		}
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(n), ",", "."), 64)
		return f, err == nil
	}
	return 0, false
}
