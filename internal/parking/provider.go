package parking

import "context"

// Source abstracts one parking data source (static table, street parking, live garages).
// Fetch never fails: sources resolve their own fallbacks and report them
// through Slice.Origin and Slice.Degraded.
type Source interface {
	Name() DataSource
	Fetch(ctx context.Context) Slice
}

// Store is the contract the in-memory store must satisfy. Saving a slice
// replaces the previous slice of the same source wholesale.
type Store interface {
	SaveSlice(slice Slice)
	Slices() []Slice
}
