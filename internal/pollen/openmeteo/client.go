// Package openmeteo implements the pollen provider on the CAMS European
// domain of the Open-Meteo Air Quality API.
package openmeteo

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/weatherdash/weatherdash/internal/geo"
	"github.com/weatherdash/weatherdash/internal/pollen"
	om "github.com/weatherdash/weatherdash/internal/provider/openmeteo"
	"github.com/weatherdash/weatherdash/internal/provider/resilience"
	"github.com/weatherdash/weatherdash/internal/timeseries"
)

const (
	// ProviderName identifies this pollen provider.
	ProviderName = "open-meteo-pollen"

	// DefaultBaseURL is the Open-Meteo Air Quality API endpoint.
	DefaultBaseURL = "https://air-quality-api.open-meteo.com/v1/air-quality"

	// CAMS only forecasts pollen four days ahead.
	forecastDays = "4"
	pastDays     = "1"
	domain       = "cams_europe"
)

// ClientConfig holds configuration for the client.
type ClientConfig struct {
	// BaseURL is the API endpoint (optional, defaults to DefaultBaseURL).
	BaseURL string

	// HTTPClient is the HTTP client to use (optional).
	HTTPClient *resilience.Client

	Logger zerolog.Logger
}

// Client is an Open-Meteo pollen client.
type Client struct {
	baseURL    string
	httpClient *resilience.Client
	logger     zerolog.Logger
}

// NewClient creates a new client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(resilience.DefaultClientConfig(ProviderName, resilience.RoleSupplement))
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// Fetch returns current and hourly pollen for a location.
func (c *Client) Fetch(ctx context.Context, coords geo.Coordinates) (*pollen.Data, error) {
	species := pollen.AllSpecies()
	vars := make([]string, 0, len(species))
	for _, s := range species {
		vars = append(vars, string(s))
	}

	params := om.LocationParams(coords)
	params.Set("current", om.Join(vars))
	params.Set("hourly", om.Join(vars))
	params.Set("domains", domain)
	params.Set("timezone", "auto")
	params.Set("forecast_days", forecastDays)
	params.Set("past_days", pastDays)

	var resp pollenResponse
	if err := om.GetJSON(ctx, c.httpClient, c.baseURL, params, &resp); err != nil {
		return nil, err
	}

	data := &pollen.Data{
		Current: make(pollen.Current, len(species)),
		Hourly: pollen.Hourly{
			Time:   resp.Hourly.Time,
			Series: make(map[pollen.Species]timeseries.Series, len(species)),
		},
		FetchedAt: time.Now(),
		Provider:  ProviderName,
	}
	for _, s := range species {
		if v := resp.Current.Get(string(s)); v != nil {
			data.Current[s] = v
		}
		if series := resp.Hourly.Get(string(s)); len(series) > 0 {
			data.Hourly.Series[s] = series
		}
	}

	c.logger.Debug().
		Str("timezone", resp.Timezone).
		Int("hours", len(resp.Hourly.Time)).
		Msg("pollen forecast decoded")

	return data, nil
}

type pollenResponse struct {
	Latitude  float64    `json:"latitude"`
	Longitude float64    `json:"longitude"`
	Timezone  string     `json:"timezone"`
	Current   om.Current `json:"current"`
	Hourly    om.Columns `json:"hourly"`
}
