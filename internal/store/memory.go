package store

import (
	"sync"
	"time"

	"github.com/i474232898/bs-smart-parking/internal/parking"
)

// MemoryStore is a concurrency-safe in-memory implementation of parking.Store.
// It keeps exactly one slice per source; each source writes only its own slot.
type MemoryStore struct {
	mu sync.RWMutex

	// key: data source, value: latest slice
	data map[parking.DataSource]parking.Slice

	// slices older than maxAge are reported stale (0 = never)
	maxAge time.Duration

	now func() time.Time
}

// NewMemoryStore creates a new MemoryStore.
func NewMemoryStore(maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		data:   make(map[parking.DataSource]parking.Slice),
		maxAge: maxAge,
		now:    time.Now,
	}
}

// SaveSlice replaces the stored slice for slice.Source.
func (s *MemoryStore) SaveSlice(slice parking.Slice) {
	spots := make([]parking.Spot, len(slice.Spots))
	for i, sp := range slice.Spots {
		spots[i] = sp.Clone()
	}
	slice.Spots = spots
	slice.Stale = false

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[slice.Source] = slice
}

// Slices returns the stored slices in canonical source order. Spots are shared
// with the store and must not be modified by callers.
func (s *MemoryStore) Slices() []parking.Slice {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var cutoff time.Time
	if s.maxAge > 0 {
		cutoff = s.now().Add(-s.maxAge)
	}

	result := make([]parking.Slice, 0, len(s.data))
	for _, src := range parking.SourceOrder {
		slice, ok := s.data[src]
		if !ok {
			continue
		}
		if !cutoff.IsZero() && slice.FetchedAt.Before(cutoff) {
			slice.Stale = true
		}
		result = append(result, slice)
	}
	return result
}
