// Package storage provides the key/value store behind persisted view state.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// Storage errors.
var (
	ErrNotFound       = errors.New("key not found")
	ErrUnknownBackend = errors.New("unknown storage backend")
)

// Store is a key/value store with optional expiry.
type Store interface {
	// Get returns the value for key, or ErrNotFound when it is missing or expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key. A zero ttl never expires.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// Backend names.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Config selects and configures a backend.
type Config struct {
	Backend string

	// SQLitePath is the database file for the sqlite backend.
	SQLitePath string

	// Pool is the connection pool for the postgres backend.
	Pool *pgxpool.Pool

	Logger zerolog.Logger
}

// Open returns the configured store. The caller closes stores that implement io.Closer.
func Open(ctx context.Context, cfg Config) (Store, error) {
	var (
		store Store
		err   error
	)
	switch cfg.Backend {
	case "", BackendMemory:
		store = NewMemoryStore()
	case BackendSQLite:
		store, err = NewSQLiteStore(ctx, cfg.SQLitePath)
	case BackendPostgres:
		if cfg.Pool == nil {
			return nil, errors.New("postgres backend requires a connection pool")
		}
		pg := NewPostgresStore(cfg.Pool)
		if err = pg.EnsureSchema(ctx); err != nil {
			err = fmt.Errorf("ensure schema: %w", err)
		}
		store = pg
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
	if err != nil {
		return nil, err
	}

	cfg.Logger.Info().Str("backend", cfg.Backend).Msg("view state storage opened")
	return store, nil
}

func expiry(now time.Time, ttl time.Duration) *time.Time {
	if ttl <= 0 {
		return nil
	}
	t := now.Add(ttl)
	return &t
}
