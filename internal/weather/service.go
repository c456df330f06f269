// Package weather serves current conditions for the city, averaged over the
// configured providers and falling back to static defaults.
package weather

import (
	"context"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// DefaultCacheTTL is how long a successful report is reused.
const DefaultCacheTTL = 10 * time.Minute

// Service fetches from all providers concurrently and caches the aggregate.
type Service struct {
	loc       Location
	providers []Provider
	cache     *cache.Cache
	logger    *zap.Logger
	now       func() time.Time
}

// NewService creates a new Service for a single fixed location.
func NewService(loc Location, providers []Provider, ttl time.Duration, logger *zap.Logger) *Service {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		loc:       loc,
		providers: providers,
		cache:     cache.New(ttl, 2*ttl),
		logger:    logger,
		now:       time.Now,
	}
}

// Current returns the cached report, refreshing it from the providers when
// expired. It never fails: without any successful reading the fallback
// report is returned and nothing is cached.
func (s *Service) Current(ctx context.Context) Report {
	key := s.loc.Key()
	if cached, ok := s.cache.Get(key); ok {
		return cached.(Report)
	}

	readings := s.fetchAll(ctx)
	if len(readings) == 0 {
		s.logger.Warn("no successful weather readings, serving fallback",
			zap.String("location", key),
			zap.Int("providers", len(s.providers)))
		return FallbackReport(s.loc, s.now())
	}

	report := AggregateReadings(s.loc, readings)
	s.cache.SetDefault(key, report)
	return report
}

func (s *Service) fetchAll(ctx context.Context) []ProviderReading {
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		readings []ProviderReading
	)

	for _, p := range s.providers {
		wg.Add(1)
		go func(p Provider) {
			defer wg.Done()

			r, err := p.Fetch(ctx, s.loc)
			if err != nil {
				// Partial success is still useful.
				s.logger.Warn("weather provider failed",
					zap.String("provider", p.Name()),
					zap.Error(err))
				return
			}

			mu.Lock()
			readings = append(readings, r)
			mu.Unlock()
		}(p)
	}

	wg.Wait()
	return readings
}
