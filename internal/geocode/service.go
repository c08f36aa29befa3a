// Package geocode resolves coordinates to place labels and back, with IP and
// platform geolocation fallbacks.
package geocode

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/weatherdash/weatherdash/internal/featureflags"
	"github.com/weatherdash/weatherdash/internal/geo"
	"github.com/weatherdash/weatherdash/internal/telemetry"
)

// Geocoding errors.
var (
	ErrNotFound    = errors.New("location not found")
	ErrEmptyQuery  = errors.New("empty search query")
	ErrPositionOld = errors.New("position older than max age")
)

// Result is a geocoder match.
type Result struct {
	Coords      geo.Coordinates
	Address     Address
	DisplayName string
}

// Geocoder performs reverse and forward lookups.
type Geocoder interface {
	Reverse(ctx context.Context, coords geo.Coordinates) (*Result, error)
	Search(ctx context.Context, query string) (*Result, error)
	Name() string
}

// IPLocator resolves the caller's approximate location from its IP address.
type IPLocator interface {
	Locate(ctx context.Context) (*geo.Place, error)
	Name() string
}

// ServiceConfig holds configuration for the geocoding service.
type ServiceConfig struct {
	Geocoder   Geocoder
	IPLocator  IPLocator
	Geolocator Geolocator

	// FeatureFlags can disable the IP fallback (optional).
	FeatureFlags *featureflags.Service

	// Metrics records provider calls (optional).
	Metrics *telemetry.ProviderMetrics

	Logger zerolog.Logger
}

// Service implements the location resolution contract. Every lookup returns
// nil on failure so callers can chain fallbacks.
type Service struct {
	geocoder     Geocoder
	ipLocator    IPLocator
	geolocator   Geolocator
	featureFlags *featureflags.Service
	metrics      *telemetry.ProviderMetrics
	logger       zerolog.Logger
}

// NewService creates a new geocoding service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		geocoder:     cfg.Geocoder,
		ipLocator:    cfg.IPLocator,
		geolocator:   cfg.Geolocator,
		featureFlags: cfg.FeatureFlags,
		metrics:      cfg.Metrics,
		logger:       cfg.Logger,
	}
}

// ReverseGeocode labels a coordinate, or returns nil.
func (s *Service) ReverseGeocode(ctx context.Context, lat, lng float64) *geo.LocationInfo {
	coords := geo.Coordinates{Lat: lat, Lng: lng}
	if !coords.Valid() || s.geocoder == nil {
		return nil
	}

	start := time.Now()
	res, err := s.geocoder.Reverse(ctx, coords)
	s.metrics.RecordRequest(s.geocoder.Name(), "reverse", time.Since(start), err)
	if err != nil {
		s.logger.Warn().Err(err).
			Float64("lat", lat).
			Float64("lon", lng).
			Msg("reverse geocoding failed")
		return nil
	}

	info := label(res)
	return &info
}

// ForwardGeocode resolves a free-text query. Blank queries return nil
// without a lookup.
func (s *Service) ForwardGeocode(ctx context.Context, query string) *geo.Place {
	query = strings.TrimSpace(query)
	if query == "" || s.geocoder == nil {
		return nil
	}

	ctx, span := telemetry.StartSpan(ctx, "geocode.ForwardGeocode", telemetry.AttrLocation.String(query))
	start := time.Now()
	res, err := s.geocoder.Search(ctx, query)
	s.metrics.RecordRequest(s.geocoder.Name(), "search", time.Since(start), err)
	telemetry.EndSpan(span, err)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.logger.Debug().Str("query", query).Msg("no geocoding match")
		} else {
			s.logger.Warn().Err(err).Str("query", query).Msg("forward geocoding failed")
		}
		return nil
	}
	if !res.Coords.Valid() {
		s.logger.Warn().Str("query", query).Msg("geocoder returned invalid coordinates")
		return nil
	}

	return &geo.Place{Coords: res.Coords, Info: label(res)}
}

// LocateByIP returns the IP-derived place, or nil.
func (s *Service) LocateByIP(ctx context.Context) *geo.Place {
	if s.ipLocator == nil {
		return nil
	}
	if s.featureFlags.IsIPFallbackDisabled(ctx) {
		s.logger.Debug().Msg("ip fallback disabled by feature flag")
		return nil
	}

	start := time.Now()
	place, err := s.ipLocator.Locate(ctx)
	s.metrics.RecordRequest(s.ipLocator.Name(), "locate", time.Since(start), err)
	if err != nil {
		s.logger.Warn().Err(err).Msg("ip location failed")
		return nil
	}
	if !place.Coords.Valid() {
		return nil
	}

	place.IPBased = true
	return place
}

// RequestGeolocation asks the platform for a position. Denial, timeout and a
// missing geolocator all return nil. Zero durations use the defaults.
func (s *Service) RequestGeolocation(ctx context.Context, timeout, maxAge time.Duration) *geo.Coordinates {
	if s.geolocator == nil {
		s.logger.Debug().Msg("geolocation not supported")
		return nil
	}
	if timeout <= 0 {
		timeout = DefaultGeolocationTimeout
	}
	if maxAge <= 0 {
		maxAge = DefaultGeolocationMaxAge
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		pos *Position
		err error
	}
	done := make(chan result, 1)
	go func() {
		pos, err := s.geolocator.CurrentPosition(ctx, PositionOptions{Timeout: timeout, MaxAge: maxAge})
		done <- result{pos, err}
	}()

	var r result
	select {
	case r = <-done:
	case <-ctx.Done():
		r.err = ctx.Err()
	}

	if r.err == nil && r.pos != nil && time.Since(r.pos.Timestamp) > maxAge {
		r.err = ErrPositionOld
	}
	if r.err != nil || r.pos == nil || !r.pos.Coords.Valid() {
		s.logger.Debug().Err(r.err).Msg("geolocation unavailable")
		return nil
	}

	coords := r.pos.Coords
	return &coords
}

func label(res *Result) geo.LocationInfo {
	city := CityName(res.Address, res.DisplayName)
	return geo.LocationInfo{CityName: city, FullName: FullName(res.Address, city)}
}
