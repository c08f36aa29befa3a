// Package openmeteo implements the air quality provider on the Open-Meteo
// Air Quality API.
package openmeteo

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/weatherdash/weatherdash/internal/airquality"
	"github.com/weatherdash/weatherdash/internal/geo"
	om "github.com/weatherdash/weatherdash/internal/provider/openmeteo"
	"github.com/weatherdash/weatherdash/internal/provider/resilience"
	"github.com/weatherdash/weatherdash/internal/timeseries"
)

const (
	// ProviderName identifies this air quality provider.
	ProviderName = "open-meteo-air-quality"

	// DefaultBaseURL is the Open-Meteo Air Quality API endpoint.
	DefaultBaseURL = "https://air-quality-api.open-meteo.com/v1/air-quality"

	forecastDays = "8"
	pastDays     = "1"
)

// ClientConfig holds configuration for the client.
type ClientConfig struct {
	// BaseURL is the API endpoint (optional, defaults to DefaultBaseURL).
	BaseURL string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with defaults.
	HTTPClient *resilience.Client

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is an Open-Meteo air quality client.
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

// Fetch returns current readings and the hourly forecast for a location.
func (c *Client) Fetch(ctx context.Context, coords geo.Coordinates) (*airquality.Data, error) {
	vars := make([]string, 0, len(airquality.AllPollutants()))
	for _, p := range airquality.AllPollutants() {
		vars = append(vars, string(p))
	}

	params := om.LocationParams(coords)
	params.Set("current", om.Join(vars))
	params.Set("hourly", om.Join(vars))
	params.Set("timezone", "auto")
	params.Set("forecast_days", forecastDays)
	params.Set("past_days", pastDays)

	var resp airQualityResponse
	if err := om.GetJSON(ctx, c.httpClient, c.baseURL, params, &resp); err != nil {
		return nil, err
	}

	return c.toData(&resp), nil
}

func (c *Client) toData(resp *airQualityResponse) *airquality.Data {
	data := &airquality.Data{
		Current: airquality.Current{
			USAQI: resp.Current.Get(string(airquality.PollutantUSAQI)),
			PM10:  resp.Current.Get(string(airquality.PollutantPM10)),
			PM25:  resp.Current.Get(string(airquality.PollutantPM25)),
			CO:    resp.Current.Get(string(airquality.PollutantCO)),
			NO2:   resp.Current.Get(string(airquality.PollutantNO2)),
			SO2:   resp.Current.Get(string(airquality.PollutantSO2)),
			O3:    resp.Current.Get(string(airquality.PollutantO3)),
		},
		Hourly: airquality.Hourly{
			Time:   resp.Hourly.Time,
			Series: make(map[airquality.Pollutant]timeseries.Series, len(airquality.AllPollutants())),
		},
		FetchedAt: time.Now(),
		Provider:  ProviderName,
	}
	for _, p := range airquality.AllPollutants() {
		data.Hourly.Series[p] = resp.Hourly.Get(string(p))
	}
	return data
}

// Open-Meteo API response types

type airQualityResponse struct {
	Latitude  float64    `json:"latitude"`
	Longitude float64    `json:"longitude"`
	Timezone  string     `json:"timezone"`
	Current   om.Current `json:"current"`
	Hourly    om.Columns `json:"hourly"`
}
