package airquality

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/weatherdash/weatherdash/internal/featureflags"
	"github.com/weatherdash/weatherdash/internal/geo"
	"github.com/weatherdash/weatherdash/internal/gridcache"
	"github.com/weatherdash/weatherdash/internal/telemetry"
)

// Provider defines the interface for air quality data providers.
type Provider interface {
	// Fetch returns current and hourly air quality for a location.
	Fetch(ctx context.Context, coords geo.Coordinates) (*Data, error)

	// Name returns the provider name for logging.
	Name() string
}

// ServiceConfig holds configuration for the air quality service.
type ServiceConfig struct {
	// Provider is the air quality data provider.
	Provider Provider

	// FeatureFlags is the feature flag service (optional).
	FeatureFlags *featureflags.Service

	// Metrics records provider calls (optional).
	Metrics *telemetry.ProviderMetrics

	// Logger for service operations.
	Logger zerolog.Logger

	// CacheTTL is how long to cache data per grid cell (default: 15 minutes).
	CacheTTL time.Duration

	// StaleIfErrorTTL allows serving stale data on provider errors (default: 1 hour).
	StaleIfErrorTTL time.Duration
}

// Service provides air quality data with caching.
type Service struct {
	provider     Provider
	featureFlags *featureflags.Service
	metrics      *telemetry.ProviderMetrics
	logger       zerolog.Logger
	cache        *gridcache.Cache[*Data]
}

// NewService creates a new air quality service.
func NewService(cfg ServiceConfig) *Service {
	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 15 * time.Minute
	}

	return &Service{
		provider:     cfg.Provider,
		featureFlags: cfg.FeatureFlags,
		metrics:      cfg.Metrics,
		logger:       cfg.Logger,
		cache: gridcache.New[*Data](gridcache.Config{
			TTL:             cacheTTL,
			StaleIfErrorTTL: cfg.StaleIfErrorTTL,
		}),
	}
}

// Fetch returns air quality for a location or an error.
func (s *Service) Fetch(ctx context.Context, coords geo.Coordinates) (*Data, error) {
	if s.featureFlags.IsAirQualityDisabled(ctx) {
		return nil, ErrDisabled
	}
	if !coords.Valid() {
		return nil, ErrInvalidCoordinates
	}

	data, outcome, err := s.cache.GetOrFetch(ctx, coords, func(ctx context.Context) (*Data, error) {
		s.logger.Debug().
			Float64("lat", coords.Lat).
			Float64("lon", coords.Lng).
			Str("provider", s.provider.Name()).
			Msg("fetching air quality from provider")

		start := time.Now()
		data, err := s.provider.Fetch(ctx, coords)
		s.metrics.RecordRequest(s.provider.Name(), "air_quality", time.Since(start), err)
		return data, err
	})

	switch outcome {
	case gridcache.Hit:
		s.metrics.RecordCacheHit(s.provider.Name(), "air_quality")
	case gridcache.Stale:
		s.logger.Warn().Msg("serving stale air quality data due to provider error")
	default:
		s.metrics.RecordCacheMiss(s.provider.Name(), "air_quality")
	}

	if err != nil {
		s.logger.Error().Err(err).
			Float64("lat", coords.Lat).
			Float64("lon", coords.Lng).
			Msg("failed to fetch air quality")
		return nil, ErrProviderUnavailable
	}
	return data, nil
}

// Get returns air quality for a location, or nil when it is unavailable for any reason.
func (s *Service) Get(ctx context.Context, coords geo.Coordinates) *Data {
	data, err := s.Fetch(ctx, coords)
	if err != nil {
		return nil
	}
	return data
}

// InvalidateCache clears all cached data.
func (s *Service) InvalidateCache() {
	s.cache.Invalidate()
}
