package parking_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/i474232898/bs-smart-parking/internal/geo"
	"github.com/i474232898/bs-smart-parking/internal/parking"
	"github.com/i474232898/bs-smart-parking/internal/store"
)

var center = geo.Coordinate{Lat: 52.2689, Lng: 10.5268}

type fakeSource struct {
	name  parking.DataSource
	spots []parking.Spot
	delay time.Duration

	mu    sync.Mutex
	calls int
}

func (f *fakeSource) Name() parking.DataSource { return f.name }

func (f *fakeSource) Fetch(ctx context.Context) parking.Slice {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	return parking.Slice{Source: f.name, Spots: f.spots, Origin: "fake"}
}

func (f *fakeSource) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func intPtr(v int) *int { return &v }

func newService(t *testing.T, opts parking.Options, sources ...parking.Source) *parking.Service {
	t.Helper()
	opts.Fallback = center
	return parking.NewService(store.NewMemoryStore(0), sources, opts, zaptest.NewLogger(t))
}

func TestService_RefreshRunsSourcesConcurrently(t *testing.T) {
	static := &fakeSource{name: parking.SourceStatic, delay: 50 * time.Millisecond,
		spots: []parking.Spot{{ID: "a", Type: parking.TypeGarage, Coordinates: center}}}
	street := &fakeSource{name: parking.SourceOSM, delay: 50 * time.Millisecond,
		spots: []parking.Spot{{ID: "b", Type: parking.TypeStreet, Coordinates: center}}}
	live := &fakeSource{name: parking.SourceLive, delay: 50 * time.Millisecond}

	svc := newService(t, parking.Options{}, static, street, live)

	start := time.Now()
	report := svc.Refresh(context.Background())
	assert.Less(t, time.Since(start), 140*time.Millisecond)

	assert.NotEmpty(t, report.ID)
	require.Len(t, report.Sources, 3)
	assert.Equal(t, parking.SourceStatic, report.Sources[0].Source)
	assert.Equal(t, parking.SourceOSM, report.Sources[1].Source)
	assert.Equal(t, parking.SourceLive, report.Sources[2].Source)
	assert.Equal(t, 1, report.Sources[0].Count)
}

func TestService_RefreshOnlyNamedSources(t *testing.T) {
	static := &fakeSource{name: parking.SourceStatic}
	live := &fakeSource{name: parking.SourceLive}

	svc := newService(t, parking.Options{}, static, live)
	report := svc.Refresh(context.Background(), parking.SourceLive)

	require.Len(t, report.Sources, 1)
	assert.Equal(t, 0, static.Calls())
	assert.Equal(t, 1, live.Calls())
}

func TestService_StreetRefreshThrottled(t *testing.T) {
	street := &fakeSource{name: parking.SourceOSM}
	svc := newService(t, parking.Options{StreetRefreshInterval: time.Hour}, street)

	first := svc.Refresh(context.Background(), parking.SourceOSM)
	second := svc.Refresh(context.Background(), parking.SourceOSM)

	assert.False(t, first.Sources[0].Skipped)
	assert.True(t, second.Sources[0].Skipped)
	assert.Equal(t, 1, street.Calls())
}

func TestService_QueryRecomputesDistances(t *testing.T) {
	north := geo.Coordinate{Lat: 52.2779, Lng: 10.5268}
	static := &fakeSource{name: parking.SourceStatic, spots: []parking.Spot{
		{ID: "center", Type: parking.TypeGarage, Coordinates: center, AvailableSpaces: 5, TotalSpaces: intPtr(10)},
		{ID: "north", Type: parking.TypeGarage, Coordinates: north, AvailableSpaces: 5, TotalSpaces: intPtr(10)},
	}}
	svc := newService(t, parking.Options{}, static)
	svc.Refresh(context.Background())

	atCenter := svc.Query(parking.Query{Reference: center, Sort: parking.SortDistance})
	require.Len(t, atCenter.Spots, 2)
	assert.Equal(t, "center", atCenter.Spots[0].ID)
	assert.Equal(t, 0.0, atCenter.Spots[0].Distance)

	atNorth := svc.Query(parking.Query{Reference: north, Sort: parking.SortDistance})
	require.Len(t, atNorth.Spots, 2)
	assert.Equal(t, "north", atNorth.Spots[0].ID)
	assert.Equal(t, 0.0, atNorth.Spots[0].Distance)
	assert.InDelta(t, 1001, atNorth.Spots[1].Distance, 2)

	// The first result was not mutated by the second query.
	assert.Equal(t, 0.0, atCenter.Spots[0].Distance)
}

func TestService_QueryFallbackReference(t *testing.T) {
	static := &fakeSource{name: parking.SourceStatic, spots: []parking.Spot{
		{ID: "center", Type: parking.TypeGarage, Coordinates: center},
	}}
	svc := newService(t, parking.Options{}, static)
	svc.Refresh(context.Background())

	res := svc.Query(parking.Query{Reference: geo.Coordinate{Lat: 200, Lng: 0}, Filter: "bogus", Sort: "bogus"})

	assert.Equal(t, center, res.Reference)
	assert.Contains(t, res.Notices, parking.NoticeLocationUnavailable)
	assert.Equal(t, parking.FilterAll, res.Filter)
	assert.Equal(t, parking.SortDistance, res.Sort)
	require.Len(t, res.Spots, 1)
}

func TestService_QueryLocationUnavailableFlag(t *testing.T) {
	svc := newService(t, parking.Options{})

	res := svc.Query(parking.Query{Reference: center, LocationUnavailable: true})
	assert.Equal(t, center, res.Reference)
	assert.Equal(t, []string{parking.NoticeLocationUnavailable}, res.Notices)

	res = svc.Query(parking.Query{Reference: center})
	assert.Empty(t, res.Notices)
}

func TestService_QueryPositionUnknownFollowsReference(t *testing.T) {
	street := &fakeSource{name: parking.SourceOSM, spots: []parking.Spot{
		{ID: "osm-7", Name: "Ohnegeo", Type: parking.TypeStreet, Coordinates: center, PositionUnknown: true},
	}}
	svc := newService(t, parking.Options{}, street)
	svc.Refresh(context.Background())

	ref := geo.Coordinate{Lat: 52.25, Lng: 10.50}
	res := svc.Query(parking.Query{Reference: ref})

	require.Len(t, res.Spots, 1)
	assert.Equal(t, ref, res.Spots[0].Coordinates)
	assert.Equal(t, 0.0, res.Spots[0].Distance)
	assert.Equal(t, 0, res.Spots[0].WalkingTime)
}

func TestService_QueryFavoritesAndDegradedNotice(t *testing.T) {
	live := &degradedSource{fakeSource: fakeSource{name: parking.SourceLive, spots: []parking.Spot{
		{ID: "live-1", Type: parking.TypeGarage, Coordinates: center},
		{ID: "live-2", Type: parking.TypeGarage, Coordinates: center},
	}}}
	svc := newService(t, parking.Options{}, live)
	svc.Refresh(context.Background())

	res := svc.Query(parking.Query{
		Reference: center,
		Filter:    parking.FilterFavorites,
		Favorites: parking.NewFavoriteSet("live-2"),
	})

	require.Len(t, res.Spots, 1)
	assert.Equal(t, "live-2", res.Spots[0].ID)
	assert.Contains(t, res.Notices, "live-degraded")
}

type degradedSource struct {
	fakeSource
}

func (d *degradedSource) Fetch(ctx context.Context) parking.Slice {
	slice := d.fakeSource.Fetch(ctx)
	slice.Degraded = true
	return slice
}
