// Package parking merges parking records from the static table, street parking
// and live garage feeds into one ranked list.
package parking

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/i474232898/bs-smart-parking/internal/geo"
)

// Notices attached to query results.
const (
	NoticeLocationUnavailable = "location-unavailable"
	noticeDegradedSuffix      = "-degraded"
	noticeStaleSuffix         = "-stale"
)

// Options tunes the service.
type Options struct {
	// Fallback replaces an invalid reference point.
	Fallback geo.Coordinate
	// ShadowRadius is the distance in meters within which live garages hide static ones.
	ShadowRadius float64
	// StreetRefreshInterval is the minimum spacing between street refreshes; zero disables throttling.
	StreetRefreshInterval time.Duration
}

// SourceReport describes the outcome of refreshing one source.
type SourceReport struct {
	Source   DataSource `json:"source"`
	Origin   string     `json:"origin,omitempty"`
	Count    int        `json:"count"`
	Degraded bool       `json:"degraded"`
	Skipped  bool       `json:"skipped"`
}

// RefreshReport summarizes one refresh cycle.
type RefreshReport struct {
	ID        string         `json:"id"`
	StartedAt time.Time      `json:"startedAt"`
	Duration  time.Duration  `json:"-"`
	TookMs    int64          `json:"tookMs"`
	Sources   []SourceReport `json:"sources"`
}

// Service orchestrates source refreshes and answers ranked queries.
type Service struct {
	store         Store
	sources       map[DataSource]Source
	streetLimiter *rate.Limiter
	opts          Options
	logger        *zap.Logger
}

// NewService creates a new Service.
func NewService(store Store, sources []Source, opts Options, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.ShadowRadius == 0 {
		opts.ShadowRadius = DefaultShadowRadius
	}

	bySource := make(map[DataSource]Source, len(sources))
	for _, src := range sources {
		bySource[src.Name()] = src
	}

	s := &Service{
		store:   store,
		sources: bySource,
		opts:    opts,
		logger:  logger,
	}
	if opts.StreetRefreshInterval > 0 {
		s.streetLimiter = rate.NewLimiter(rate.Every(opts.StreetRefreshInterval), 1)
	}
	return s
}

// Refresh fetches the named sources (all when none are given) concurrently and
// replaces their slices in the store. Sources do not wait on each other.
func (s *Service) Refresh(ctx context.Context, only ...DataSource) RefreshReport {
	started := time.Now()
	report := RefreshReport{
		ID:        uuid.NewString(),
		StartedAt: started.UTC(),
	}

	wanted := only
	if len(wanted) == 0 {
		wanted = SourceOrder
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results = make(map[DataSource]SourceReport, len(wanted))
	)

	for _, name := range wanted {
		src, ok := s.sources[name]
		if !ok {
			continue
		}

		if name == SourceOSM && s.streetLimiter != nil && !s.streetLimiter.Allow() {
			s.logger.Info("street refresh throttled; keeping previous slice",
				zap.String("refresh_id", report.ID))
			results[name] = SourceReport{Source: name, Skipped: true}
			continue
		}

		wg.Add(1)
		go func(src Source) {
			defer wg.Done()

			slice := src.Fetch(ctx)
			slice.Source = src.Name()
			if slice.FetchedAt.IsZero() {
				slice.FetchedAt = time.Now().UTC()
			}
			s.store.SaveSlice(slice)

			if slice.Degraded {
				s.logger.Warn("source served fallback data",
					zap.String("refresh_id", report.ID),
					zap.String("source", string(slice.Source)),
					zap.String("origin", slice.Origin))
			}

			mu.Lock()
			results[slice.Source] = SourceReport{
				Source:   slice.Source,
				Origin:   slice.Origin,
				Count:    len(slice.Spots),
				Degraded: slice.Degraded,
			}
			mu.Unlock()
		}(src)
	}

	wg.Wait()

	for _, name := range SourceOrder {
		if r, ok := results[name]; ok {
			report.Sources = append(report.Sources, r)
		}
	}
	report.Duration = time.Since(started)
	report.TookMs = report.Duration.Milliseconds()

	s.logger.Debug("refresh completed",
		zap.String("refresh_id", report.ID),
		zap.Int("sources", len(report.Sources)),
		zap.Duration("duration", report.Duration))

	return report
}

// Query builds the ranked list from whatever slices are currently stored.
// Distances are computed from q.Reference on every call.
func (s *Service) Query(q Query) Result {
	var notices []string

	ref := q.Reference
	if !ref.Valid() {
		ref = s.opts.Fallback
		q.LocationUnavailable = true
	}
	if q.LocationUnavailable {
		notices = append(notices, NoticeLocationUnavailable)
	}

	filter := q.Filter
	if !ValidFilter(filter) {
		filter = FilterAll
	}
	sortKey := q.Sort
	if !ValidSortKey(sortKey) {
		sortKey = SortDistance
	}

	slices := s.store.Slices()
	for _, sl := range slices {
		if sl.Degraded {
			notices = append(notices, string(sl.Source)+noticeDegradedSuffix)
		}
		if sl.Stale {
			notices = append(notices, string(sl.Source)+noticeStaleSuffix)
		}
	}

	spots := Merge(slices, s.opts.ShadowRadius)
	ApplyReference(spots, ref)
	spots = FilterSpots(spots, filter, q.Favorites)
	SortSpots(spots, sortKey)

	return Result{
		Reference:   ref,
		Filter:      filter,
		Sort:        sortKey,
		Spots:       spots,
		Sources:     slices,
		Notices:     notices,
		GeneratedAt: time.Now().UTC(),
	}
}
