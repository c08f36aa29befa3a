// Package app wires the upstream providers shared by the view host and the
// CLI.
package app

import (
	"github.com/rs/zerolog"

	"github.com/weatherdash/weatherdash/internal/airquality"
	aqopenmeteo "github.com/weatherdash/weatherdash/internal/airquality/openmeteo"
	"github.com/weatherdash/weatherdash/internal/config"
	"github.com/weatherdash/weatherdash/internal/featureflags"
	"github.com/weatherdash/weatherdash/internal/geocode"
	"github.com/weatherdash/weatherdash/internal/geocode/ipapi"
	"github.com/weatherdash/weatherdash/internal/geocode/nominatim"
	"github.com/weatherdash/weatherdash/internal/pollen"
	pollenopenmeteo "github.com/weatherdash/weatherdash/internal/pollen/openmeteo"
	"github.com/weatherdash/weatherdash/internal/provider/resilience"
	"github.com/weatherdash/weatherdash/internal/telemetry"
	"github.com/weatherdash/weatherdash/internal/weather"
	"github.com/weatherdash/weatherdash/internal/weather/openmeteo"
)

// Providers holds the weather aggregator and the location resolver.
type Providers struct {
	Weather *weather.Service
	Locator *geocode.Service
}

// ProvidersConfig holds the dependencies of NewProviders.
type ProvidersConfig struct {
	Config *config.Config

	// Registry receives provider health (optional).
	Registry *resilience.Registry

	// FeatureFlags and Metrics are optional.
	FeatureFlags *featureflags.Service
	Metrics      *telemetry.ProviderMetrics

	Logger zerolog.Logger
}

// NewProviders builds the provider clients and the services over them.
func NewProviders(pc ProvidersConfig) *Providers {
	cfg := pc.Config
	log := pc.Logger

	client := func(name string, role resilience.Role) *resilience.Client {
		c := resilience.DefaultClientConfig(name, role)
		c.Timeout = cfg.ProviderTimeout
		c.Registry = pc.Registry
		c.UserAgent = cfg.GeocodeUserAgent
		return resilience.NewClient(c)
	}

	aqService := airquality.NewService(airquality.ServiceConfig{
		Provider: aqopenmeteo.NewClient(aqopenmeteo.ClientConfig{
			BaseURL:    cfg.AirQualityURL,
			HTTPClient: client(aqopenmeteo.ProviderName, resilience.RoleSupplement),
			Logger:     log,
		}),
		FeatureFlags: pc.FeatureFlags,
		Metrics:      pc.Metrics,
		Logger:       log,
	})

	pollenService := pollen.NewService(pollen.ServiceConfig{
		Provider: pollenopenmeteo.NewClient(pollenopenmeteo.ClientConfig{
			BaseURL:    cfg.AirQualityURL,
			HTTPClient: client(pollenopenmeteo.ProviderName, resilience.RoleSupplement),
			Logger:     log,
		}),
		FeatureFlags: pc.FeatureFlags,
		Metrics:      pc.Metrics,
		Logger:       log,
	})

	weatherService := weather.NewService(weather.ServiceConfig{
		Provider: openmeteo.NewClient(openmeteo.ClientConfig{
			BaseURL:    cfg.ForecastURL,
			HTTPClient: client(openmeteo.ProviderName, resilience.RolePrimary),
			Logger:     log,
		}),
		AirQuality: aqService,
		Pollen:     pollenService,
		Metrics:    pc.Metrics,
		Logger:     log,
	})

	var geolocator geocode.Geolocator
	switch {
	case cfg.GeolocationDenied:
		geolocator = geocode.DeniedGeolocator{}
	case cfg.Geolocation != nil:
		geolocator = geocode.FixedGeolocator{Coords: *cfg.Geolocation}
	}

	locator := geocode.NewService(geocode.ServiceConfig{
		Geocoder: nominatim.NewClient(nominatim.ClientConfig{
			BaseURL:           cfg.NominatimURL,
			UserAgent:         cfg.GeocodeUserAgent,
			RequestsPerSecond: cfg.NominatimRPS,
			Registry:          pc.Registry,
			Logger:            log,
		}),
		IPLocator: ipapi.NewClient(ipapi.ClientConfig{
			URL:        cfg.IPAPIURL,
			HTTPClient: client(ipapi.ProviderName, resilience.RoleLocator),
			Logger:     log,
		}),
		Geolocator:   geolocator,
		FeatureFlags: pc.FeatureFlags,
		Metrics:      pc.Metrics,
		Logger:       log,
	})

	return &Providers{Weather: weatherService, Locator: locator}
}
