// Package pollen provides pollen forecasts for locations inside the European model domain.
package pollen

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/weatherdash/weatherdash/internal/featureflags"
	"github.com/weatherdash/weatherdash/internal/geo"
	"github.com/weatherdash/weatherdash/internal/gridcache"
	"github.com/weatherdash/weatherdash/internal/telemetry"
)

// Provider defines the interface for pollen data providers.
type Provider interface {
	// Fetch returns current and hourly pollen for a location.
	Fetch(ctx context.Context, coords geo.Coordinates) (*Data, error)

	// Name returns the provider name for logging.
	Name() string
}

// ServiceConfig holds configuration for the pollen service.
type ServiceConfig struct {
	// Provider is the pollen data provider.
	Provider Provider

	// FeatureFlags is the feature flag service (optional).
	// If provided, pollen data can be disabled via feature flag.
	FeatureFlags *featureflags.Service

	// Metrics records provider calls (optional).
	Metrics *telemetry.ProviderMetrics

	// Logger for service operations.
	Logger zerolog.Logger

	// Coverage is the area the provider has data for (default: geo.Europe).
	Coverage *geo.BoundingBox

	// CacheTTL is how long to cache pollen data (default: 1 hour).
	// Pollen data changes slowly, so longer cache is appropriate.
	CacheTTL time.Duration

	// StaleIfErrorTTL allows serving stale data on provider errors (default: 6 hours).
	StaleIfErrorTTL time.Duration
}

// Service provides pollen data with caching and feature flag control.
type Service struct {
	provider     Provider
	featureFlags *featureflags.Service
	metrics      *telemetry.ProviderMetrics
	logger       zerolog.Logger
	coverage     geo.BoundingBox
	cache        *gridcache.Cache[*Data]
}

// NewService creates a new pollen service.
func NewService(cfg ServiceConfig) *Service {
	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 1 * time.Hour
	}

	staleIfErrorTTL := cfg.StaleIfErrorTTL
	if staleIfErrorTTL == 0 {
		staleIfErrorTTL = 6 * time.Hour
	}

	coverage := geo.Europe
	if cfg.Coverage != nil {
		coverage = *cfg.Coverage
	}

	return &Service{
		provider:     cfg.Provider,
		featureFlags: cfg.FeatureFlags,
		metrics:      cfg.Metrics,
		logger:       cfg.Logger,
		coverage:     coverage,
		cache: gridcache.New[*Data](gridcache.Config{
			TTL:             cacheTTL,
			StaleIfErrorTTL: staleIfErrorTTL,
			// Region-level granularity (~55km).
			GridSize: 0.5,
		}),
	}
}

// Fetch returns pollen data for a location.
// Locations outside the coverage area return ErrOutsideCoverage without a provider call.
func (s *Service) Fetch(ctx context.Context, coords geo.Coordinates) (*Data, error) {
	if s.IsDisabled(ctx) {
		s.logger.Debug().Msg("pollen disabled by feature flag")
		return nil, ErrPollenDisabled
	}
	if !coords.Valid() {
		return nil, ErrInvalidCoordinates
	}
	if !s.coverage.Contains(coords) {
		return nil, ErrOutsideCoverage
	}

	data, outcome, err := s.cache.GetOrFetch(ctx, coords, func(ctx context.Context) (*Data, error) {
		s.logger.Debug().
			Float64("lat", coords.Lat).
			Float64("lon", coords.Lng).
			Str("provider", s.provider.Name()).
			Msg("fetching pollen data from provider")

		start := time.Now()
		data, err := s.provider.Fetch(ctx, coords)
		s.metrics.RecordRequest(s.provider.Name(), "pollen", time.Since(start), err)
		return data, err
	})

	switch outcome {
	case gridcache.Hit:
		s.metrics.RecordCacheHit(s.provider.Name(), "pollen")
	case gridcache.Stale:
		s.logger.Warn().Msg("serving stale pollen data due to provider error")
	default:
		s.metrics.RecordCacheMiss(s.provider.Name(), "pollen")
	}

	if err != nil {
		s.logger.Error().Err(err).
			Float64("lat", coords.Lat).
			Float64("lon", coords.Lng).
			Msg("failed to fetch pollen data")
		return nil, ErrProviderUnavailable
	}
	return data, nil
}

// Get returns pollen data for a location, or nil when none is available.
func (s *Service) Get(ctx context.Context, coords geo.Coordinates) *Data {
	data, err := s.Fetch(ctx, coords)
	if err != nil {
		return nil
	}
	return data
}

// IsDisabled returns true if pollen is disabled by feature flag.
func (s *Service) IsDisabled(ctx context.Context) bool {
	return s.featureFlags.IsPollenDisabled(ctx)
}

// InvalidateCache clears all cached data.
func (s *Service) InvalidateCache() {
	s.cache.Invalidate()
}
