package featureflags

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ServiceConfig holds configuration for the feature flag service.
type ServiceConfig struct {
	Repository Repository
	Logger     zerolog.Logger

	// CacheTTL is how long a loaded snapshot of all flags is reused (default: 1 minute).
	CacheTTL time.Duration

	// Now is the clock used for UpdatedAt and cache expiry (default: time.Now).
	Now func() time.Time
}

// Service reads and writes the dashboard's switches. Reads come from a
// snapshot of every flag that is reloaded after CacheTTL. When the repository
// is unreachable the last snapshot is kept, and before the first load every
// flag reads as off.
type Service struct {
	repo     Repository
	logger   zerolog.Logger
	cacheTTL time.Duration
	now      func() time.Time

	mu       sync.Mutex
	snapshot map[string]*Flag
	loadedAt time.Time
}

// NewService creates a new feature flag service.
func NewService(cfg ServiceConfig) *Service {
	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = time.Minute
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Service{
		repo:     cfg.Repository,
		logger:   cfg.Logger,
		cacheTTL: cacheTTL,
		now:      now,
	}
}

// load returns the current snapshot, reloading it when expired.
func (s *Service) load(ctx context.Context) map[string]*Flag {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.snapshot != nil && s.now().Sub(s.loadedAt) < s.cacheTTL {
		return s.snapshot
	}

	flags, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to load feature flags, keeping last known values")
		if s.snapshot == nil {
			return DefaultFlags()
		}
		return s.snapshot
	}

	snapshot := DefaultFlags()
	for k, v := range flags {
		if Known(k) {
			snapshot[k] = v
		}
	}
	s.snapshot = snapshot
	s.loadedAt = s.now()
	return snapshot
}

// GetFlag returns a copy of one flag with its description, or nil for keys the
// dashboard does not read.
func (s *Service) GetFlag(ctx context.Context, key string) *Flag {
	f, ok := s.load(ctx)[key]
	if !ok {
		return nil
	}
	c := f.clone()
	c.Description = Describe(key)
	return c
}

// Flags returns every flag in display order.
func (s *Service) Flags(ctx context.Context) []Flag {
	snapshot := s.load(ctx)
	out := make([]Flag, 0, len(snapshot))
	for _, key := range Keys() {
		f := *snapshot[key]
		f.Description = Describe(key)
		out = append(out, f)
	}
	return out
}

// SetFlag writes one flag.
func (s *Service) SetFlag(ctx context.Context, flag *Flag) error {
	return s.SetFlags(ctx, []*Flag{flag})
}

// SetFlags writes the flags together and drops the snapshot so the next read
// sees them. Unknown keys reject the whole write.
func (s *Service) SetFlags(ctx context.Context, flags []*Flag) error {
	now := s.now()
	for _, f := range flags {
		if !Known(f.Key) {
			return fmt.Errorf("%w: %q", ErrUnknownFlag, f.Key)
		}
		f.UpdatedAt = now
	}

	if err := s.repo.Put(ctx, flags...); err != nil {
		return err
	}
	s.InvalidateCache()
	return nil
}

// InvalidateCache drops the snapshot so the next read reloads it.
func (s *Service) InvalidateCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = nil
}

// IsEnabled reports whether the flag is set. Unknown keys are never set.
func (s *Service) IsEnabled(ctx context.Context, key string) bool {
	f, ok := s.load(ctx)[key]
	return ok && f.Value
}

// Active returns the keys of every set flag in display order.
func (s *Service) Active(ctx context.Context) []string {
	if s == nil {
		return nil
	}
	snapshot := s.load(ctx)
	var active []string
	for _, key := range Keys() {
		if snapshot[key].Value {
			active = append(active, key)
		}
	}
	return active
}

// A nil *Service reports every flag as off.

// IsAirQualityDisabled returns true if air quality fetching is disabled.
func (s *Service) IsAirQualityDisabled(ctx context.Context) bool {
	return s != nil && s.IsEnabled(ctx, FlagDisableAirQuality)
}

// IsPollenDisabled returns true if pollen fetching is disabled.
func (s *Service) IsPollenDisabled(ctx context.Context) bool {
	return s != nil && s.IsEnabled(ctx, FlagDisablePollen)
}

// IsAutoRefreshDisabled returns true if the periodic refresh is paused.
func (s *Service) IsAutoRefreshDisabled(ctx context.Context) bool {
	return s != nil && s.IsEnabled(ctx, FlagDisableAutoRefresh)
}

// IsIPFallbackDisabled returns true if IP based location fallback is disabled.
func (s *Service) IsIPFallbackDisabled(ctx context.Context) bool {
	return s != nil && s.IsEnabled(ctx, FlagDisableIPFallback)
}
