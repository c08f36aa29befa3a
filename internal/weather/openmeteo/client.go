// Package openmeteo implements the primary forecast provider on the
// Open-Meteo Forecast API.
package openmeteo

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/weatherdash/weatherdash/internal/geo"
	om "github.com/weatherdash/weatherdash/internal/provider/openmeteo"
	"github.com/weatherdash/weatherdash/internal/provider/resilience"
	"github.com/weatherdash/weatherdash/internal/timeseries"
	"github.com/weatherdash/weatherdash/internal/units"
	"github.com/weatherdash/weatherdash/internal/weather"
)

const (
	// ProviderName identifies this weather provider.
	ProviderName = "open-meteo"

	// DefaultBaseURL is the Open-Meteo Forecast API endpoint.
	DefaultBaseURL = "https://api.open-meteo.com/v1/forecast"

	forecastDays = 8
	pastDays     = 1
)

// ClientConfig holds configuration for the Open-Meteo client.
type ClientConfig struct {
	// BaseURL is the API endpoint (optional, defaults to DefaultBaseURL).
	BaseURL string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with defaults.
	HTTPClient *resilience.Client

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is an Open-Meteo forecast client.
type Client struct {
	baseURL    string
	httpClient *resilience.Client
	logger     zerolog.Logger
}

// NewClient creates a new Open-Meteo client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(resilience.DefaultClientConfig(ProviderName, resilience.RolePrimary))
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

// Fetch returns current conditions plus the hourly and daily forecast,
// starting at local midnight of yesterday.
func (c *Client) Fetch(ctx context.Context, coords geo.Coordinates) (*weather.Forecast, error) {
	hourly := make([]string, 0, len(weather.HourlyMetrics()))
	for _, m := range weather.HourlyMetrics() {
		hourly = append(hourly, string(m))
	}

	params := om.LocationParams(coords)
	params.Set("current", om.Join(weather.CurrentVariables()))
	params.Set("hourly", om.Join(hourly))
	params.Set("daily", om.Join(weather.DailyVariables()))
	params.Set("models", "best_match")
	params.Set("timezone", "auto")
	params.Set("forecast_days", strconv.Itoa(forecastDays))
	params.Set("past_days", strconv.Itoa(pastDays))

	var resp forecastResponse
	if err := om.GetJSON(ctx, c.httpClient, c.baseURL, params, &resp); err != nil {
		return nil, err
	}

	c.logger.Debug().
		Str("timezone", resp.Timezone).
		Int("hours", len(resp.Hourly.Time)).
		Int("days", len(resp.Daily.Time)).
		Msg("forecast decoded")

	return resp.toForecast(), nil
}

func (r *forecastResponse) toForecast() *weather.Forecast {
	f := &weather.Forecast{
		Timezone:         r.Timezone,
		UTCOffsetSeconds: r.UTCOffsetSeconds,
		Hourly: weather.Hourly{
			Time:   r.Hourly.Time,
			Series: make(map[weather.Metric]timeseries.Series, len(r.Hourly.Values)),
		},
		Daily:     r.Daily.toDaily(),
		FetchedAt: time.Now(),
	}
	for _, m := range weather.HourlyMetrics() {
		if s, ok := r.Hourly.Values[string(m)]; ok {
			f.Hourly.Series[m] = s
		}
	}

	cur := r.Current
	code := 0
	if v := cur.Get("weather_code"); v != nil {
		code = int(*v)
	}
	isDay := true
	if v := cur.Get("is_day"); v != nil {
		isDay = *v != 0
	}

	f.Current = weather.Current{
		Time:            cur.Time,
		Temperature:     cur.Get("temperature_2m"),
		FeelsLike:       cur.Get("apparent_temperature"),
		Humidity:        cur.Get("relative_humidity_2m"),
		Pressure:        cur.Get("pressure_msl"),
		SurfacePressure: cur.Get("surface_pressure"),
		WindSpeed:       kmhToMs(cur.Get("wind_speed_10m")),
		WindDirection:   cur.Get("wind_direction_10m"),
		WindGust:        kmhToMs(cur.Get("wind_gusts_10m")),
		CloudCover:      cur.Get("cloud_cover"),
		Precipitation:   cur.Get("precipitation"),
		Rain:            cur.Get("rain"),
		Showers:         cur.Get("showers"),
		Snowfall:        cur.Get("snowfall"),
		Condition:       weather.NewCondition(code, isDay),
		IsDay:           isDay,
	}
	return f
}

func kmhToMs(v *float64) *float64 {
	if v == nil {
		return nil
	}
	return timeseries.Float(units.KmhToMs(*v))
}

// Open-Meteo API response types

type forecastResponse struct {
	Latitude         float64    `json:"latitude"`
	Longitude        float64    `json:"longitude"`
	Timezone         string     `json:"timezone"`
	UTCOffsetSeconds int        `json:"utc_offset_seconds"`
	Current          om.Current `json:"current"`
	Hourly           om.Columns `json:"hourly"`
	Daily            dailyBlock `json:"daily"`
}

// dailyBlock adds the sunrise and sunset string columns that om.Columns skips.
type dailyBlock struct {
	om.Columns
	Sunrise []string
	Sunset  []string
}

func (d *dailyBlock) UnmarshalJSON(b []byte) error {
	if err := d.Columns.UnmarshalJSON(b); err != nil {
		return err
	}
	var solar struct {
		Sunrise []string `json:"sunrise"`
		Sunset  []string `json:"sunset"`
	}
	if err := json.Unmarshal(b, &solar); err != nil {
		return err
	}
	d.Sunrise = solar.Sunrise
	d.Sunset = solar.Sunset
	return nil
}

func (d *dailyBlock) toDaily() weather.Daily {
	return weather.Daily{
		Time:                        d.Time,
		WeatherCode:                 d.Get("weather_code"),
		TemperatureMax:              d.Get("temperature_2m_max"),
		TemperatureMin:              d.Get("temperature_2m_min"),
		ApparentMax:                 d.Get("apparent_temperature_max"),
		ApparentMin:                 d.Get("apparent_temperature_min"),
		UVIndexMax:                  d.Get("uv_index_max"),
		UVIndexClearSkyMax:          d.Get("uv_index_clear_sky_max"),
		SunshineDuration:            d.Get("sunshine_duration"),
		DaylightDuration:            d.Get("daylight_duration"),
		Sunrise:                     d.Sunrise,
		Sunset:                      d.Sunset,
		RainSum:                     d.Get("rain_sum"),
		ShowersSum:                  d.Get("showers_sum"),
		SnowfallSum:                 d.Get("snowfall_sum"),
		PrecipitationSum:            d.Get("precipitation_sum"),
		PrecipitationHours:          d.Get("precipitation_hours"),
		PrecipitationProbabilityMax: d.Get("precipitation_probability_max"),
		WindGustsMax:                d.Get("wind_gusts_10m_max"),
		WindSpeedMax:                d.Get("wind_speed_10m_max"),
		WindDirectionDominant:       d.Get("wind_direction_10m_dominant"),
		ShortwaveRadiationSum:       d.Get("shortwave_radiation_sum"),
		ET0:                         d.Get("et0_fao_evapotranspiration"),
	}
}
