// Package airquality provides air quality data access and caching.
package airquality

import (
	"errors"
	"time"

	"github.com/weatherdash/weatherdash/internal/timeseries"
)

// Provider errors.
var (
	ErrProviderUnavailable = errors.New("air quality provider unavailable")
	ErrInvalidCoordinates  = errors.New("invalid coordinates")
	ErrDisabled            = errors.New("air quality disabled by feature flag")
)

// Pollutant identifies an air quality variable. Values match the provider's
// variable names.
type Pollutant string

const (
	PollutantUSAQI Pollutant = "us_aqi"
	PollutantPM10  Pollutant = "pm10"
	PollutantPM25  Pollutant = "pm2_5"
	PollutantCO    Pollutant = "carbon_monoxide"
	PollutantNO2   Pollutant = "nitrogen_dioxide"
	PollutantSO2   Pollutant = "sulphur_dioxide"
	PollutantO3    Pollutant = "ozone"
)

// AllPollutants returns every tracked variable in display order.
func AllPollutants() []Pollutant {
	return []Pollutant{
		PollutantUSAQI, PollutantPM25, PollutantPM10,
		PollutantO3, PollutantNO2, PollutantSO2, PollutantCO,
	}
}

// Current holds the latest readings. Nil fields were not reported.
type Current struct {
	USAQI *float64 `json:"usAqi"`
	PM10  *float64 `json:"pm10"`
	PM25  *float64 `json:"pm25"`
	CO    *float64 `json:"co"`
	NO2   *float64 `json:"no2"`
	SO2   *float64 `json:"so2"`
	O3    *float64 `json:"o3"`
}

// Value returns the current reading for p.
func (c *Current) Value(p Pollutant) *float64 {
	if c == nil {
		return nil
	}
	switch p {
	case PollutantUSAQI:
		return c.USAQI
	case PollutantPM10:
		return c.PM10
	case PollutantPM25:
		return c.PM25
	case PollutantCO:
		return c.CO
	case PollutantNO2:
		return c.NO2
	case PollutantSO2:
		return c.SO2
	case PollutantO3:
		return c.O3
	default:
		return nil
	}
}

// Hourly holds hourly series keyed by pollutant.
// A nil *Hourly means no air quality data; accessors then return empty series.
type Hourly struct {
	Time   []string                        `json:"time"`
	Series map[Pollutant]timeseries.Series `json:"series"`
}

// Get returns the series for p. It is safe on a nil receiver.
func (h *Hourly) Get(p Pollutant) timeseries.Series {
	if h == nil || h.Series == nil {
		return timeseries.Series{}
	}
	if s, ok := h.Series[p]; ok {
		return s
	}
	return timeseries.Series{}
}

// Window slices every series to [start, end).
func (h *Hourly) Window(start, end int) *Hourly {
	if h == nil {
		return nil
	}
	out := &Hourly{
		Time:   timeseries.WindowStrings(h.Time, start, end),
		Series: make(map[Pollutant]timeseries.Series, len(h.Series)),
	}
	for p, s := range h.Series {
		out.Series[p] = s.Window(start, end)
	}
	return out
}

// AlignTo re-keys every series onto backbone by timestamp.
func (h *Hourly) AlignTo(backbone []string) *Hourly {
	if h == nil {
		return nil
	}
	out := &Hourly{
		Time:   append([]string(nil), backbone...),
		Series: make(map[Pollutant]timeseries.Series, len(h.Series)),
	}
	for p, s := range h.Series {
		out.Series[p] = timeseries.Align(backbone, h.Time, s)
	}
	return out
}

// Data is one provider response.
type Data struct {
	Current   Current
	Hourly    Hourly
	FetchedAt time.Time
	Provider  string
}

// Level is a US AQI category.
type Level string

const (
	LevelGood               Level = "Good"
	LevelModerate           Level = "Moderate"
	LevelUnhealthySensitive Level = "Unhealthy for sensitive groups"
	LevelUnhealthy          Level = "Unhealthy"
	LevelVeryUnhealthy      Level = "Very unhealthy"
	LevelHazardous          Level = "Hazardous"
)

// LevelFromUSAQI maps a US AQI value to its category.
func LevelFromUSAQI(aqi float64) Level {
	switch {
	case aqi <= 50:
		return LevelGood
	case aqi <= 100:
		return LevelModerate
	case aqi <= 150:
		return LevelUnhealthySensitive
	case aqi <= 200:
		return LevelUnhealthy
	case aqi <= 300:
		return LevelVeryUnhealthy
	default:
		return LevelHazardous
	}
}
