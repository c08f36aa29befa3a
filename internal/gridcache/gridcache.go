// Package gridcache caches provider results per coordinate grid cell, serving
// stale entries when the provider fails.
package gridcache

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/weatherdash/weatherdash/internal/geo"
)

// Outcome describes how a value was obtained.
type Outcome int

const (
	// Miss means the value was fetched from the provider.
	Miss Outcome = iota
	// Hit means a fresh cached value was returned.
	Hit
	// Stale means the provider failed and an expired value was served instead.
	Stale
)

func (o Outcome) String() string {
	switch o {
	case Hit:
		return "hit"
	case Stale:
		return "stale"
	default:
		return "miss"
	}
}

// Config holds cache tuning.
type Config struct {
	// TTL is how long an entry is fresh (default: 10 minutes).
	TTL time.Duration

	// StaleIfErrorTTL is how long an entry may be served after a provider error (default: 1 hour).
	StaleIfErrorTTL time.Duration

	// GridSize is the cell size in degrees (default: 0.1, ~11km at the equator).
	// Points within the same cell share an entry.
	GridSize float64

	// CleanupInterval is the minimum time between sweeps of dead entries (default: 5 minutes).
	CleanupInterval time.Duration
}

// Cache is a grid-cell keyed cache with stale-if-error semantics.
type Cache[T any] struct {
	cfg Config
	now func() time.Time

	mu          sync.RWMutex
	entries     map[string]*entry[T]
	lastCleanup time.Time

	// fetchMu serializes provider calls so concurrent misses on a cell fetch once.
	fetchMu sync.Mutex
}

type entry[T any] struct {
	value     T
	fetchedAt time.Time
	expiresAt time.Time
}

// New creates a cache.
func New[T any](cfg Config) *Cache[T] {
	if cfg.TTL == 0 {
		cfg.TTL = 10 * time.Minute
	}
	if cfg.StaleIfErrorTTL == 0 {
		cfg.StaleIfErrorTTL = time.Hour
	}
	if cfg.GridSize == 0 {
		cfg.GridSize = 0.1
	}
	if cfg.CleanupInterval == 0 {
		cfg.CleanupInterval = 5 * time.Minute
	}
	return &Cache[T]{
		cfg:     cfg,
		now:     time.Now,
		entries: make(map[string]*entry[T]),
	}
}

// Key returns the grid cell key for a location.
func (c *Cache[T]) Key(coords geo.Coordinates) string {
	gridLat := math.Floor(coords.Lat/c.cfg.GridSize) * c.cfg.GridSize
	gridLng := math.Floor(coords.Lng/c.cfg.GridSize) * c.cfg.GridSize
	return fmt.Sprintf("%.2f:%.2f", gridLat, gridLng)
}

// Fresh returns the entry for key if it has not expired.
func (c *Cache[T]) Fresh(key string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if e, ok := c.entries[key]; ok && c.now().Before(e.expiresAt) {
		return e.value, true
	}
	var zero T
	return zero, false
}

// Put stores value under key.
func (c *Cache[T]) Put(key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.entries[key] = &entry[T]{
		value:     value,
		fetchedAt: now,
		expiresAt: now.Add(c.cfg.TTL),
	}
	c.cleanupLocked(now)
}

// GetOrFetch returns the fresh entry for coords, or calls fetch. When fetch
// fails an entry younger than StaleIfErrorTTL is served instead.
func (c *Cache[T]) GetOrFetch(ctx context.Context, coords geo.Coordinates, fetch func(context.Context) (T, error)) (T, Outcome, error) {
	key := c.Key(coords)
	if v, ok := c.Fresh(key); ok {
		return v, Hit, nil
	}

	c.fetchMu.Lock()
	defer c.fetchMu.Unlock()

	// Double-check after waiting for a concurrent fetch.
	if v, ok := c.Fresh(key); ok {
		return v, Hit, nil
	}

	v, err := fetch(ctx)
	if err != nil {
		if stale, ok := c.stale(key); ok {
			return stale, Stale, nil
		}
		var zero T
		return zero, Miss, err
	}

	c.Put(key, v)
	return v, Miss, nil
}

func (c *Cache[T]) stale(key string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if e, ok := c.entries[key]; ok && c.now().Before(e.fetchedAt.Add(c.cfg.StaleIfErrorTTL)) {
		return e.value, true
	}
	var zero T
	return zero, false
}

func (c *Cache[T]) cleanupLocked(now time.Time) {
	if now.Sub(c.lastCleanup) < c.cfg.CleanupInterval {
		return
	}
	c.lastCleanup = now
	for key, e := range c.entries {
		if now.After(e.fetchedAt.Add(c.cfg.StaleIfErrorTTL)) {
			delete(c.entries, key)
		}
	}
}

// Invalidate clears all entries.
func (c *Cache[T]) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*entry[T])
}

// Stats contains cache statistics.
type Stats struct {
	Entries      int
	FreshEntries int
}

// Stats returns cache statistics.
func (c *Cache[T]) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	now := c.now()
	fresh := 0
	for _, e := range c.entries {
		if now.Before(e.expiresAt) {
			fresh++
		}
	}
	return Stats{Entries: len(c.entries), FreshEntries: fresh}
}

// SetClock replaces the time source. Tests use it to age entries.
func (c *Cache[T]) SetClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}
