package openmeteo_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weatherdash/weatherdash/internal/geo"
	"github.com/weatherdash/weatherdash/internal/provider/resilience"
	"github.com/weatherdash/weatherdash/internal/weather"
	"github.com/weatherdash/weatherdash/internal/weather/openmeteo"
)

func TestClient_Fetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "50.110644", q.Get("latitude"))
		assert.Equal(t, "8.680000", q.Get("longitude"))
		assert.Equal(t, "auto", q.Get("timezone"))
		assert.Equal(t, "8", q.Get("forecast_days"))
		assert.Equal(t, "1", q.Get("past_days"))
		assert.Equal(t, "best_match", q.Get("models"))
		assert.Contains(t, q.Get("current"), "wind_gusts_10m")
		assert.Contains(t, q.Get("hourly"), "soil_moisture_27_to_81cm")
		assert.Contains(t, q.Get("daily"), "sunrise")

		response := map[string]interface{}{
			"latitude":           50.1,
			"longitude":          8.7,
			"timezone":           "Europe/Berlin",
			"utc_offset_seconds": 3600,
			"current": map[string]interface{}{
				"time":                 "2024-01-15T14:15",
				"interval":             900,
				"temperature_2m":       3.4,
				"apparent_temperature": 0.2,
				"relative_humidity_2m": 0,
				"is_day":               1,
				"wind_speed_10m":       36.0,
				"wind_direction_10m":   250,
				"wind_gusts_10m":       nil,
				"weather_code":         61,
				"pressure_msl":         1012.3,
			},
			"hourly": map[string]interface{}{
				"time":           []string{"2024-01-14T00:00", "2024-01-14T01:00"},
				"temperature_2m": []interface{}{1.5, nil},
				"visibility":     []interface{}{24000, 18000},
			},
			"daily": map[string]interface{}{
				"time":               []string{"2024-01-14"},
				"weather_code":       []interface{}{3},
				"temperature_2m_max": []interface{}{5.1},
				"sunrise":            []string{"2024-01-14T08:20"},
				"sunset":             []string{"2024-01-14T16:50"},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	}))
	defer server.Close()

	client := openmeteo.NewClient(openmeteo.ClientConfig{
		BaseURL:    server.URL,
		HTTPClient: resilience.NewClient(resilience.DefaultClientConfig("open-meteo", resilience.RolePrimary)),
	})

	f, err := client.Fetch(context.Background(), geo.Default)
	require.NoError(t, err)

	assert.Equal(t, "Europe/Berlin", f.Timezone)
	assert.Equal(t, 3600, f.UTCOffsetSeconds)

	cur := f.Current
	assert.Equal(t, "2024-01-15T14:15", cur.Time)
	require.NotNil(t, cur.Temperature)
	assert.Equal(t, 3.4, *cur.Temperature)
	require.NotNil(t, cur.Humidity, "zero humidity is a value")
	assert.Equal(t, 0.0, *cur.Humidity)
	require.NotNil(t, cur.WindSpeed)
	assert.InDelta(t, 10.0, *cur.WindSpeed, 1e-9)
	assert.Nil(t, cur.WindGust)
	assert.Nil(t, cur.SurfacePressure)
	assert.True(t, cur.IsDay)
	assert.Equal(t, weather.MainRain, cur.Condition.Main)
	assert.Equal(t, "10d", cur.Condition.Icon)

	assert.Equal(t, []string{"2024-01-14T00:00", "2024-01-14T01:00"}, f.Hourly.Time)
	temps := f.Hourly.Get(weather.MetricTemperature)
	require.Len(t, temps, 2)
	assert.Nil(t, temps[1])
	assert.Len(t, f.Hourly.Get(weather.MetricVisibility), 2)
	assert.Empty(t, f.Hourly.Get(weather.MetricCAPE))

	assert.Equal(t, []string{"2024-01-14"}, f.Daily.Time)
	assert.Equal(t, []string{"2024-01-14T08:20"}, f.Daily.Sunrise)
	assert.Equal(t, []string{"2024-01-14T16:50"}, f.Daily.Sunset)
	require.Len(t, f.Daily.TemperatureMax, 1)
	assert.Equal(t, 5.1, *f.Daily.TemperatureMax[0])
	assert.Empty(t, f.Daily.RainSum)
}

func TestClient_Fetch_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := openmeteo.NewClient(openmeteo.ClientConfig{
		BaseURL:    server.URL,
		HTTPClient: resilience.NewClient(resilience.DefaultClientConfig("open-meteo", resilience.RolePrimary)),
	})

	_, err := client.Fetch(context.Background(), geo.Default)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestClient_Name(t *testing.T) {
	client := openmeteo.NewClient(openmeteo.ClientConfig{})
	assert.Equal(t, "open-meteo", client.Name())
}
