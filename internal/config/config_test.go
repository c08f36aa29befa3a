package config_test

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weatherdash/weatherdash/internal/config"
	"github.com/weatherdash/weatherdash/internal/geo"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Env)
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, "127.0.0.1:8080", cfg.Addr)
	assert.Equal(t, zerolog.InfoLevel, cfg.LogLevel)
	assert.Equal(t, "memory", cfg.StorageBackend)
	assert.Equal(t, "https://api.open-meteo.com/v1/forecast", cfg.ForecastURL)
	assert.Equal(t, 1.0, cfg.NominatimRPS)
	assert.Equal(t, 10*time.Second, cfg.ProviderTimeout)
	assert.Equal(t, 15*time.Minute, cfg.RefreshInterval)
	assert.Nil(t, cfg.Geolocation)
	assert.False(t, cfg.GeolocationDenied)
	assert.False(t, cfg.OTelEnabled)

	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "weatherdash", cfg.Database.Database)
	assert.Equal(t, 5*time.Minute, cfg.Database.ConnMaxLifetime)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("APP_ADDR", "0.0.0.0:9000")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("STORAGE_BACKEND", "postgres")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("DB_MAX_OPEN_CONNS", "20")
	t.Setenv("NOMINATIM_RPS", "0.5")
	t.Setenv("PROVIDER_TIMEOUT", "3s")
	t.Setenv("REFRESH_INTERVAL", "1h")
	t.Setenv("GEOLOCATION_LAT", "52.52")
	t.Setenv("GEOLOCATION_LNG", "13.405")
	t.Setenv("OTEL_ENABLED", "true")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "0.0.0.0:9000", cfg.Addr)
	assert.Equal(t, zerolog.DebugLevel, cfg.LogLevel)
	assert.Equal(t, "postgres", cfg.StorageBackend)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 6543, cfg.Database.Port)
	assert.Equal(t, 20, cfg.Database.MaxOpenConns)
	assert.Equal(t, 0.5, cfg.NominatimRPS)
	assert.Equal(t, 3*time.Second, cfg.ProviderTimeout)
	assert.Equal(t, time.Hour, cfg.RefreshInterval)
	require.NotNil(t, cfg.Geolocation)
	assert.Equal(t, geo.Coordinates{Lat: 52.52, Lng: 13.405}, *cfg.Geolocation)
	assert.True(t, cfg.OTelEnabled)
	assert.Equal(t, "localhost:4317", cfg.OTLPEndpoint)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"unknown backend", "STORAGE_BACKEND", "redis"},
		{"bad log level", "LOG_LEVEL", "loud"},
		{"bad duration", "PROVIDER_TIMEOUT", "ten"},
		{"zero duration", "REFRESH_INTERVAL", "0s"},
		{"bad port", "DB_PORT", "postgres"},
		{"bad bool", "GEOLOCATION_DENIED", "maybe"},
		{"bad url", "FORECAST_URL", "not a url"},
		{"bad address", "APP_ADDR", "localhost"},
		{"zero rate", "NOMINATIM_RPS", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			_, err := config.Load()
			assert.Error(t, err)
		})
	}
}

func TestLoad_Geolocation(t *testing.T) {
	t.Run("out of range", func(t *testing.T) {
		t.Setenv("GEOLOCATION_LAT", "95")
		t.Setenv("GEOLOCATION_LNG", "0")

		_, err := config.Load()
		assert.Error(t, err)
	})

	t.Run("half configured", func(t *testing.T) {
		t.Setenv("GEOLOCATION_LAT", "52.52")

		_, err := config.Load()
		assert.Error(t, err)
	})

	t.Run("denied", func(t *testing.T) {
		t.Setenv("GEOLOCATION_DENIED", "true")

		cfg, err := config.Load()
		require.NoError(t, err)
		assert.True(t, cfg.GeolocationDenied)
	})
}
