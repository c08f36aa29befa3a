// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/weatherdash/weatherdash/internal/database"
	"github.com/weatherdash/weatherdash/internal/geo"
)

var validate = validator.New()

// Config is the full process configuration.
type Config struct {
	Env      string `validate:"required"`
	Addr     string `validate:"required,hostname_port"`
	LogLevel zerolog.Level

	StorageBackend string `validate:"oneof=memory sqlite postgres"`
	SQLitePath     string `validate:"required_if=StorageBackend sqlite"`
	Database       database.Config

	ForecastURL      string        `validate:"required,url"`
	AirQualityURL    string        `validate:"required,url"`
	NominatimURL     string        `validate:"required,url"`
	IPAPIURL         string        `validate:"required,url"`
	GeocodeUserAgent string        `validate:"required"`
	NominatimRPS     float64       `validate:"gt=0"`
	ProviderTimeout  time.Duration `validate:"gt=0"`
	RefreshInterval  time.Duration `validate:"gt=0"`

	// Geolocation is the fixed position source, nil when none is configured.
	Geolocation       *geo.Coordinates
	GeolocationDenied bool

	OTelEnabled  bool
	OTLPEndpoint string
}

// Load reads a .env file if present, then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file found, using environment")
	}

	cfg := &Config{
		Env:              getenvDefault("APP_ENV", "development"),
		Addr:             getenvDefault("APP_ADDR", "127.0.0.1:8080"),
		StorageBackend:   getenvDefault("STORAGE_BACKEND", "memory"),
		SQLitePath:       getenvDefault("SQLITE_PATH", "weatherdash.db"),
		ForecastURL:      getenvDefault("FORECAST_URL", "https://api.open-meteo.com/v1/forecast"),
		AirQualityURL:    getenvDefault("AIR_QUALITY_URL", "https://air-quality-api.open-meteo.com/v1/air-quality"),
		NominatimURL:     getenvDefault("NOMINATIM_URL", "https://nominatim.openstreetmap.org"),
		IPAPIURL:         getenvDefault("IPAPI_URL", "https://ipapi.co/json/"),
		GeocodeUserAgent: getenvDefault("GEOCODE_USER_AGENT", "weatherdash/1.0"),
		OTLPEndpoint:     os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}

	var err error
	if cfg.LogLevel, err = zerolog.ParseLevel(strings.ToLower(getenvDefault("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	if cfg.NominatimRPS, err = getenvFloat("NOMINATIM_RPS", 1); err != nil {
		return nil, err
	}
	if cfg.ProviderTimeout, err = getenvDuration("PROVIDER_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.RefreshInterval, err = getenvDuration("REFRESH_INTERVAL", 15*time.Minute); err != nil {
		return nil, err
	}
	if cfg.GeolocationDenied, err = getenvBool("GEOLOCATION_DENIED", false); err != nil {
		return nil, err
	}
	if cfg.OTelEnabled, err = getenvBool("OTEL_ENABLED", false); err != nil {
		return nil, err
	}
	if cfg.Geolocation, err = geolocation(); err != nil {
		return nil, err
	}
	if cfg.Database, err = loadDatabase(); err != nil {
		return nil, err
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func loadDatabase() (database.Config, error) {
	cfg := database.Config{
		Host:     getenvDefault("DB_HOST", "localhost"),
		User:     getenvDefault("DB_USER", "weatherdash"),
		Password: getenvDefault("DB_PASSWORD", "localdev"),
		Database: getenvDefault("DB_NAME", "weatherdash"),
		SSLMode:  getenvDefault("DB_SSL_MODE", "disable"),
	}

	var err error
	if cfg.Port, err = getenvInt("DB_PORT", 5432); err != nil {
		return cfg, err
	}
	if cfg.MaxOpenConns, err = getenvInt("DB_MAX_OPEN_CONNS", 10); err != nil {
		return cfg, err
	}
	if cfg.MaxIdleConns, err = getenvInt("DB_MAX_IDLE_CONNS", 5); err != nil {
		return cfg, err
	}
	if cfg.ConnMaxLifetime, err = getenvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func geolocation() (*geo.Coordinates, error) {
	latStr, lngStr := os.Getenv("GEOLOCATION_LAT"), os.Getenv("GEOLOCATION_LNG")
	if latStr == "" && lngStr == "" {
		return nil, nil
	}
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid GEOLOCATION_LAT: %w", err)
	}
	lng, err := strconv.ParseFloat(lngStr, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid GEOLOCATION_LNG: %w", err)
	}
	c := geo.Coordinates{Lat: lat, Lng: lng}
	if !c.Valid() {
		return nil, fmt.Errorf("geolocation %v,%v out of range", lat, lng)
	}
	return &c, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getenvFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func getenvBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
