package dayslice

import (
	"fmt"

	"github.com/weatherdash/weatherdash/internal/airquality"
	"github.com/weatherdash/weatherdash/internal/pollen"
	"github.com/weatherdash/weatherdash/internal/timeseries"
	"github.com/weatherdash/weatherdash/internal/units"
	"github.com/weatherdash/weatherdash/internal/weather"
)

const na = units.NotAvailable

// Options controls how a Reader formats values.
type Options struct {
	Units units.System

	// IsToday makes the solar readers use Hour instead of the day's peak.
	IsToday bool
	Hour    int
}

// Reader formats the current values of a slice. Values are read at the
// first hour of the day; only nil or missing values render as N/A.
type Reader struct {
	slice Slice
	opts  Options
}

// NewReader returns a reader over s.
func NewReader(s Slice, opts Options) Reader {
	return Reader{slice: s, opts: opts}
}

func (r Reader) first(m weather.Metric) (float64, bool) {
	return r.slice.Get(m).At(0)
}

func (r Reader) percent(m weather.Metric) string {
	v, ok := r.first(m)
	if !ok {
		return na
	}
	return fmt.Sprintf("%d%%", units.Round(v))
}

func (r Reader) temp(m weather.Metric) string {
	return units.FormatTemp(r.slice.Get(m).Ptr(0), r.opts.Units)
}

// Temperature returns the air temperature.
func (r Reader) Temperature() string { return r.temp(weather.MetricTemperature) }

// FeelsLike returns the apparent temperature.
func (r Reader) FeelsLike() string { return r.temp(weather.MetricApparentTemperature) }

// DewPoint returns the dew point.
func (r Reader) DewPoint() string { return r.temp(weather.MetricDewPoint) }

// Humidity returns the relative humidity.
func (r Reader) Humidity() string { return r.percent(weather.MetricHumidity) }

// Pressure returns the sea level pressure.
func (r Reader) Pressure() string {
	v, ok := r.first(weather.MetricPressureMSL)
	if !ok {
		return na
	}
	return fmt.Sprintf("%d hPa", units.Round(v))
}

// Visibility returns the visibility in km.
func (r Reader) Visibility() string {
	v, ok := r.first(weather.MetricVisibility)
	if !ok {
		return na
	}
	return fmt.Sprintf("%d km", units.Round(units.MetersToKm(v)))
}

// VisibilityStatus rates the visibility.
func (r Reader) VisibilityStatus() string {
	v, ok := r.first(weather.MetricVisibility)
	if !ok {
		return na
	}
	return VisibilityBand(units.MetersToKm(v))
}

// UVIndex returns the rounded UV index.
func (r Reader) UVIndex() string {
	v, ok := r.first(weather.MetricUVIndex)
	if !ok {
		return na
	}
	return fmt.Sprintf("%d", units.Round(v))
}

// UVStatus names the UV index band. A missing index reads as Minimal.
func (r Reader) UVStatus() string {
	v, ok := r.first(weather.MetricUVIndex)
	if !ok {
		return UVBand(0)
	}
	return UVBand(float64(units.Round(v)))
}

func kmh(v float64) string {
	return fmt.Sprintf("%d km/h", units.Round(v))
}

// WindSpeed returns the wind speed.
func (r Reader) WindSpeed() string {
	v, ok := r.first(weather.MetricWindSpeed)
	if !ok {
		return na
	}
	return kmh(v)
}

// WindGusts returns the gust speed.
func (r Reader) WindGusts() string {
	v, ok := r.first(weather.MetricWindGusts)
	if !ok {
		return na
	}
	return kmh(v)
}

// WindDirection returns the compass direction the wind blows from.
func (r Reader) WindDirection() string {
	v, ok := r.first(weather.MetricWindDirection)
	if !ok {
		return na
	}
	return units.WindDirection(v)
}

// Beaufort returns the wind force.
func (r Reader) Beaufort() string {
	v, ok := r.first(weather.MetricWindSpeed)
	if !ok {
		return na
	}
	return Beaufort(v).String()
}

// CloudCover returns the total cloud cover.
func (r Reader) CloudCover() string { return r.percent(weather.MetricCloudCover) }

// CloudCoverLow returns the low cloud cover.
func (r Reader) CloudCoverLow() string { return r.percent(weather.MetricCloudCoverLow) }

// CloudCoverMid returns the mid cloud cover.
func (r Reader) CloudCoverMid() string { return r.percent(weather.MetricCloudCoverMid) }

// CloudCoverHigh returns the high cloud cover.
func (r Reader) CloudCoverHigh() string { return r.percent(weather.MetricCloudCoverHigh) }

// PrecipitationAmount returns the hour's precipitation.
func (r Reader) PrecipitationAmount() string {
	v, ok := r.first(weather.MetricPrecipitation)
	if !ok {
		return na
	}
	return fmt.Sprintf("%.1f mm", v)
}

// PrecipitationProbability returns the precipitation probability.
func (r Reader) PrecipitationProbability() string {
	return r.percent(weather.MetricPrecipitationProbability)
}

// PrecipitationType classifies the hour's precipitation.
func (r Reader) PrecipitationType() string {
	return PrecipitationType(r.slice.Get(weather.MetricPrecipitation).Ptr(0), r.slice.Get(weather.MetricWeatherCode).Ptr(0))
}

// AQI returns the US AQI.
func (r Reader) AQI() string {
	v, ok := r.slice.AirQuality.Get(airquality.PollutantUSAQI).At(0)
	if !ok {
		return na
	}
	return fmt.Sprintf("%d", units.Round(v))
}

// Pollutant returns a pollutant concentration.
func (r Reader) Pollutant(p airquality.Pollutant) string {
	v, ok := r.slice.AirQuality.Get(p).At(0)
	if !ok {
		return na
	}
	return fmt.Sprintf("%d µg/m³", units.Round(v))
}

// PollenLevel returns the highest allergen index, or N/A when there is no
// pollen group or no allergen is present.
func (r Reader) PollenLevel() string {
	v, _, ok := r.slice.Pollen.Peak(0)
	if !ok {
		return na
	}
	return fmt.Sprintf("%d", units.Round(v))
}

// PollenStatus names the pollen level band.
func (r Reader) PollenStatus() string {
	v, _, ok := r.slice.Pollen.Peak(0)
	if !ok {
		return pollen.RiskNone.Label()
	}
	return PollenBand(float64(units.Round(v)))
}

// MainAllergen describes the dominant allergen.
func (r Reader) MainAllergen() string {
	if r.slice.Pollen == nil {
		return "Only available in Europe"
	}
	_, species, ok := r.slice.Pollen.Peak(0)
	if !ok {
		return "No pollen load"
	}
	return "Main allergen: " + species.DisplayName()
}

// solarIndex picks the current hour for today and the peak hour otherwise.
func (r Reader) solarIndex(s timeseries.Series) int {
	if r.opts.IsToday && r.opts.Hour >= 0 && r.opts.Hour < len(s) {
		return r.opts.Hour
	}
	best, idx := 0.0, -1
	for i, v := range s {
		if v != nil && (idx < 0 || *v > best) {
			best, idx = *v, i
		}
	}
	if idx < 0 {
		return 0
	}
	return idx
}

func (r Reader) radiation(m weather.Metric) string {
	s := r.slice.Get(m)
	v, ok := s.At(r.solarIndex(s))
	if !ok {
		return na
	}
	return fmt.Sprintf("%d W/m²", units.Round(v))
}

// ShortwaveRadiation returns the global radiation.
func (r Reader) ShortwaveRadiation() string { return r.radiation(weather.MetricShortwaveRadiation) }

// DirectRadiation returns the direct radiation.
func (r Reader) DirectRadiation() string { return r.radiation(weather.MetricDirectRadiation) }

// DiffuseRadiation returns the diffuse radiation.
func (r Reader) DiffuseRadiation() string { return r.radiation(weather.MetricDiffuseRadiation) }

// SunshineDuration returns the sunshine in minutes for the selected hour.
func (r Reader) SunshineDuration() string {
	s := r.slice.Get(weather.MetricSunshineDuration)
	v, ok := s.At(r.solarIndex(s))
	if !ok {
		return na
	}
	return fmt.Sprintf("%d min", units.Round(v/60))
}
