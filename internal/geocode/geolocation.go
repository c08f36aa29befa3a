package geocode

import (
	"context"
	"errors"
	"time"

	"github.com/weatherdash/weatherdash/internal/geo"
)

// Geolocation defaults.
const (
	DefaultGeolocationTimeout = 10 * time.Second
	DefaultGeolocationMaxAge  = 5 * time.Minute
)

// ErrPermissionDenied is returned by a geolocator the user has refused.
var ErrPermissionDenied = errors.New("geolocation permission denied")

// Position is a fix from the platform position source.
type Position struct {
	Coords    geo.Coordinates
	Timestamp time.Time
}

// PositionOptions mirrors the platform request options.
type PositionOptions struct {
	Timeout time.Duration
	MaxAge  time.Duration
}

// Geolocator is the platform position source.
type Geolocator interface {
	CurrentPosition(ctx context.Context, opts PositionOptions) (*Position, error)
}

// FixedGeolocator reports a configured position.
type FixedGeolocator struct {
	Coords geo.Coordinates
}

// CurrentPosition returns the configured coordinates.
func (g FixedGeolocator) CurrentPosition(ctx context.Context, _ PositionOptions) (*Position, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &Position{Coords: g.Coords, Timestamp: time.Now()}, nil
}

// DeniedGeolocator always refuses.
type DeniedGeolocator struct{}

// CurrentPosition returns ErrPermissionDenied.
func (DeniedGeolocator) CurrentPosition(context.Context, PositionOptions) (*Position, error) {
	return nil, ErrPermissionDenied
}
