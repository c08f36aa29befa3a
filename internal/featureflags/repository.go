package featureflags

import (
	"context"
	"errors"
)

// ErrFlagNotFound is returned when a flag has never been written.
var ErrFlagNotFound = errors.New("feature flag not found")

// Repository persists flag values. Postgres deployments share the view state
// database; the other backends keep flags in memory.
type Repository interface {
	// Get returns one flag or ErrFlagNotFound.
	Get(ctx context.Context, key string) (*Flag, error)

	// List returns every stored flag keyed by name.
	List(ctx context.Context) (map[string]*Flag, error)

	// Put writes the flags in one transaction.
	Put(ctx context.Context, flags ...*Flag) error
}
