// Package fallback provides an ordered "first success" chain over data providers.
package fallback

import (
	"context"
	"errors"
	"fmt"
)

// ErrNoAttempts is returned when FirstSuccess is called without attempts.
var ErrNoAttempts = errors.New("no attempts configured")

// Attempt is one named stage of a fallback chain.
type Attempt[T any] struct {
	Name string
	Run  func(ctx context.Context) (T, error)
}

// FirstSuccess runs attempts in order and returns the value and name of the
// first one that does not fail. Later attempts are not run. When every attempt
// fails, the joined errors are returned.
func FirstSuccess[T any](ctx context.Context, attempts ...Attempt[T]) (T, string, error) {
	var (
		zero T
		errs []error
	)

	if len(attempts) == 0 {
		return zero, "", ErrNoAttempts
	}

	for _, a := range attempts {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		v, err := a.Run(ctx)
		if err == nil {
			return v, a.Name, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", a.Name, err))
	}

	return zero, "", errors.Join(errs...)
}
