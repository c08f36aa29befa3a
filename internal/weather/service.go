package weather

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/weatherdash/weatherdash/internal/airquality"
	"github.com/weatherdash/weatherdash/internal/geo"
	"github.com/weatherdash/weatherdash/internal/gridcache"
	"github.com/weatherdash/weatherdash/internal/pollen"
	"github.com/weatherdash/weatherdash/internal/telemetry"
	"github.com/weatherdash/weatherdash/internal/timeseries"
	"github.com/weatherdash/weatherdash/internal/units"
)

// Provider defines the interface for the primary forecast provider.
type Provider interface {
	// Fetch returns current conditions plus hourly and daily forecasts.
	Fetch(ctx context.Context, coords geo.Coordinates) (*Forecast, error)

	// Name returns the provider name for logging.
	Name() string
}

// AirQualitySource supplies the optional air quality group. Nil means none.
type AirQualitySource interface {
	Get(ctx context.Context, coords geo.Coordinates) *airquality.Data
}

// PollenSource supplies the optional pollen group. Nil means none.
type PollenSource interface {
	Get(ctx context.Context, coords geo.Coordinates) *pollen.Data
}

// ServiceConfig holds configuration for the weather service.
type ServiceConfig struct {
	// Provider is the primary forecast provider.
	Provider Provider

	// AirQuality and Pollen are optional sources.
	AirQuality AirQualitySource
	Pollen     PollenSource

	// Metrics records provider calls (optional).
	Metrics *telemetry.ProviderMetrics

	// Logger for service operations.
	Logger zerolog.Logger

	// CacheTTL is how long to cache forecasts (default: 10 minutes).
	CacheTTL time.Duration

	// CacheGridSize is the size of cache grid cells in degrees (default: 0.1).
	// Points within the same grid cell share cached data.
	CacheGridSize float64

	// StaleIfErrorTTL allows serving stale data on provider errors (default: 1 hour).
	StaleIfErrorTTL time.Duration

	// Now is the clock used for record IDs (default: time.Now).
	Now func() time.Time
}

// Service aggregates forecast, air quality and pollen into one record.
type Service struct {
	provider   Provider
	airQuality AirQualitySource
	pollen     PollenSource
	metrics    *telemetry.ProviderMetrics
	logger     zerolog.Logger
	now        func() time.Time
	cache      *gridcache.Cache[*Forecast]
}

// NewService creates a new weather service.
func NewService(cfg ServiceConfig) *Service {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Service{
		provider:   cfg.Provider,
		airQuality: cfg.AirQuality,
		pollen:     cfg.Pollen,
		metrics:    cfg.Metrics,
		logger:     cfg.Logger,
		now:        now,
		cache: gridcache.New[*Forecast](gridcache.Config{
			TTL:             cfg.CacheTTL,
			StaleIfErrorTTL: cfg.StaleIfErrorTTL,
			GridSize:        cfg.CacheGridSize,
		}),
	}
}

// FetchWeather returns the merged record for a location labelled with info.
// A forecast failure fails the call. Air quality and pollen failures leave
// their groups nil.
func (s *Service) FetchWeather(ctx context.Context, coords geo.Coordinates, info geo.LocationInfo) (*Record, error) {
	if !coords.Valid() {
		return nil, ErrInvalidCoordinates
	}

	ctx, span := telemetry.StartSpan(ctx, "weather.FetchWeather", telemetry.LocationAttributes(coords, info.CityName)...)

	var (
		forecast *Forecast
		aq       *airquality.Data
		pol      *pollen.Data
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		f, err := s.forecast(gctx, coords)
		forecast = f
		return err
	})
	if s.airQuality != nil {
		g.Go(func() error {
			aq = s.airQuality.Get(gctx, coords)
			return nil
		})
	}
	if s.pollen != nil {
		g.Go(func() error {
			pol = s.pollen.Get(gctx, coords)
			return nil
		})
	}
	err := g.Wait()
	span.SetAttributes(telemetry.AttrAirQuality.Bool(aq != nil), telemetry.AttrPollen.Bool(pol != nil))
	telemetry.EndSpan(span, err)
	if err != nil {
		s.logger.Error().Err(err).
			Float64("lat", coords.Lat).
			Float64("lon", coords.Lng).
			Msg("failed to fetch weather")
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	record := merge(forecast, aq, pol)
	record.ID = s.now().UnixMilli()
	record.Name = info.CityName
	record.FullName = info.FullName
	record.Coords = coords
	return record, nil
}

// forecast returns the primary forecast for a grid cell. Only the forecast is
// cached here; the optional groups are cached by their own services so a
// failed group is retried on the next call.
func (s *Service) forecast(ctx context.Context, coords geo.Coordinates) (*Forecast, error) {
	f, outcome, err := s.cache.GetOrFetch(ctx, coords, func(ctx context.Context) (*Forecast, error) {
		s.logger.Debug().
			Float64("lat", coords.Lat).
			Float64("lon", coords.Lng).
			Str("provider", s.provider.Name()).
			Msg("fetching forecast from provider")

		start := time.Now()
		f, err := s.provider.Fetch(ctx, coords)
		s.metrics.RecordRequest(s.provider.Name(), "forecast", time.Since(start), err)
		return f, err
	})

	switch outcome {
	case gridcache.Hit:
		s.metrics.RecordCacheHit(s.provider.Name(), "forecast")
	case gridcache.Stale:
		s.logger.Warn().
			Float64("lat", coords.Lat).
			Float64("lon", coords.Lng).
			Msg("serving stale forecast due to provider error")
	default:
		s.metrics.RecordCacheMiss(s.provider.Name(), "forecast")
	}
	return f, err
}

// merge builds a fresh record from a forecast and the optional groups. Optional
// hourly groups are re-keyed onto the forecast backbone by timestamp.
func merge(f *Forecast, aq *airquality.Data, pol *pollen.Data) *Record {
	r := &Record{
		Timezone:         f.Timezone,
		UTCOffsetSeconds: f.UTCOffsetSeconds,
		Current:          f.Current,
		Hourly:           f.Hourly,
		Daily:            f.Daily,
		FetchedAt:        f.FetchedAt,
	}

	idx := currentHourIndex(&f.Hourly, f.Current.Time)
	if v := f.Hourly.Get(MetricVisibility).Ptr(idx); v != nil {
		r.Current.Visibility = timeseries.Float(units.MetersToKm(*v))
	}
	r.Current.DewPoint = f.Hourly.Get(MetricDewPoint).Ptr(idx)

	if aq != nil {
		current := aq.Current
		r.Current.AirQuality = &current
		r.Hourly.AirQuality = aq.Hourly.AlignTo(f.Hourly.Time)
	}
	if pol != nil {
		current := make(pollen.Current, len(pol.Current))
		for k, v := range pol.Current {
			current[k] = v
		}
		r.Current.Pollen = current
		r.Hourly.Pollen = pol.Hourly.AlignTo(f.Hourly.Time)
	}
	return r
}

// currentHourIndex locates the hour containing the current timestamp
// (2006-01-02T15:04) in the backbone, falling back to 0.
func currentHourIndex(h *Hourly, current string) int {
	if len(current) < len("2006-01-02T15") {
		return 0
	}
	if i := h.IndexOf(current[:len("2006-01-02T15")] + ":00"); i >= 0 {
		return i
	}
	return 0
}

// InvalidateCache clears all cached data.
func (s *Service) InvalidateCache() {
	s.cache.Invalidate()
}

// CacheStats returns cache statistics.
func (s *Service) CacheStats() CacheStats {
	stats := s.cache.Stats()
	return CacheStats{
		Entries:      stats.Entries,
		FreshEntries: stats.FreshEntries,
		Provider:     s.provider.Name(),
	}
}

// CacheStats contains cache statistics.
type CacheStats struct {
	Entries      int
	FreshEntries int
	Provider     string
}
