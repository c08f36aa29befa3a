// Package persistence reads and writes the dashboard's saved view state: unit
// preference, first-visit flag, last viewed record and location history.
package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/weatherdash/weatherdash/internal/geo"
	"github.com/weatherdash/weatherdash/internal/history"
	"github.com/weatherdash/weatherdash/internal/storage"
	"github.com/weatherdash/weatherdash/internal/units"
	"github.com/weatherdash/weatherdash/internal/weather"
)

// Storage keys.
const (
	KeyUnits      = "weatherAppUnits"
	KeyHasVisited = "weatherAppHasVisited"
	KeyLastViewed = "weatherAppLastViewed"
	KeyHistory    = "weatherAppHistory"
)

const (
	// LastViewedTTL is how long a last viewed record may be reused without a fetch.
	LastViewedTTL = time.Hour

	// HistoryTTL is refreshed on every history save.
	HistoryTTL = 30 * 24 * time.Hour
)

// LastViewed is the most recently displayed record.
type LastViewed struct {
	WeatherData *weather.Record `json:"weatherData"`
	Coords      geo.Coordinates `json:"coords"`
	Timestamp   int64           `json:"timestamp"`
}

// Age returns how old the entry is at now.
func (l *LastViewed) Age(now time.Time) time.Duration {
	return now.Sub(time.UnixMilli(l.Timestamp))
}

// Config holds configuration for the persistence store.
type Config struct {
	Store  storage.Store
	Logger zerolog.Logger

	// Now is the clock used for last viewed timestamps (default: time.Now).
	Now func() time.Time
}

// Store persists view state over a key/value backend. Reads never fail:
// missing, expired or malformed values read as absent.
type Store struct {
	kv     storage.Store
	logger zerolog.Logger
	now    func() time.Time
}

// New creates a persistence store.
func New(cfg Config) *Store {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Store{kv: cfg.Store, logger: cfg.Logger, now: now}
}

// Units returns the saved unit system, metric when unset or invalid.
func (s *Store) Units(ctx context.Context) units.System {
	var raw string
	if !s.read(ctx, KeyUnits, &raw) {
		return units.Metric
	}
	return units.ParseSystem(raw)
}

// SaveUnits stores the unit preference.
func (s *Store) SaveUnits(ctx context.Context, sys units.System) error {
	return s.write(ctx, KeyUnits, string(units.ParseSystem(string(sys))), 0)
}

// IsFirstVisit reports true exactly once for fresh storage and records the
// visit on that first call.
func (s *Store) IsFirstVisit(ctx context.Context) bool {
	_, err := s.kv.Get(ctx, KeyHasVisited)
	switch {
	case err == nil:
		return false
	case !errors.Is(err, storage.ErrNotFound):
		s.logger.Warn().Err(err).Str("key", KeyHasVisited).Msg("failed to read visit flag")
		return false
	}

	if err := s.write(ctx, KeyHasVisited, true, 0); err != nil {
		s.logger.Warn().Err(err).Msg("failed to record first visit")
	}
	return true
}

// LastViewed returns the last viewed record if it is younger than
// LastViewedTTL. Expired entries are deleted.
func (s *Store) LastViewed(ctx context.Context) *LastViewed {
	var lv LastViewed
	if !s.read(ctx, KeyLastViewed, &lv) {
		return nil
	}

	if lv.WeatherData == nil || lv.Age(s.now()) >= LastViewedTTL {
		s.logger.Debug().Msg("last viewed weather expired")
		s.delete(ctx, KeyLastViewed)
		return nil
	}
	return &lv
}

// SaveLastViewed records r as the last viewed record, stamped now.
func (s *Store) SaveLastViewed(ctx context.Context, r *weather.Record) error {
	if r == nil {
		return nil
	}
	lv := LastViewed{WeatherData: r, Coords: r.Coords, Timestamp: s.now().UnixMilli()}
	return s.write(ctx, KeyLastViewed, lv, 0)
}

// History returns the saved history entries, nil when unset.
func (s *Store) History(ctx context.Context) []history.Entry {
	var entries []history.Entry
	if !s.read(ctx, KeyHistory, &entries) {
		return nil
	}
	return entries
}

// SaveHistory stores entries and refreshes their TTL.
func (s *Store) SaveHistory(ctx context.Context, entries []history.Entry) error {
	if entries == nil {
		entries = []history.Entry{}
	}
	return s.write(ctx, KeyHistory, entries, HistoryTTL)
}

// read decodes key into v. Malformed values are logged and deleted.
func (s *Store) read(ctx context.Context, key string, v any) bool {
	data, err := s.kv.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn().Err(err).Str("key", key).Msg("failed to read view state")
		}
		return false
	}

	if err := json.Unmarshal(data, v); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("discarding malformed view state")
		s.delete(ctx, key)
		return false
	}
	return true
}

func (s *Store) write(ctx context.Context, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, key, data, ttl)
}

func (s *Store) delete(ctx context.Context, key string) {
	if err := s.kv.Delete(ctx, key); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("failed to delete view state")
	}
}
