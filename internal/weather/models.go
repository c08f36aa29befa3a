package weather

import (
	"errors"
	"time"

	"github.com/weatherdash/weatherdash/internal/airquality"
	"github.com/weatherdash/weatherdash/internal/geo"
	"github.com/weatherdash/weatherdash/internal/pollen"
	"github.com/weatherdash/weatherdash/internal/timeseries"
)

// Weather errors.
var (
	ErrProviderUnavailable = errors.New("weather provider unavailable")
	ErrNoDataForLocation   = errors.New("no weather data for location")
	ErrInvalidCoordinates  = errors.New("invalid coordinates")
)

// HoursPerDay is the hourly cadence of one daily entry.
const HoursPerDay = 24

// Metric names an hourly variable. Values are the forecast provider's variable names.
type Metric string

const (
	MetricTemperature              Metric = "temperature_2m"
	MetricDewPoint                 Metric = "dew_point_2m"
	MetricApparentTemperature      Metric = "apparent_temperature"
	MetricPrecipitationProbability Metric = "precipitation_probability"
	MetricPrecipitation            Metric = "precipitation"
	MetricRain                     Metric = "rain"
	MetricShowers                  Metric = "showers"
	MetricHumidity                 Metric = "relative_humidity_2m"
	MetricSnowfall                 Metric = "snowfall"
	MetricSnowDepth                Metric = "snow_depth"
	MetricVapourPressureDeficit    Metric = "vapour_pressure_deficit"
	MetricET0                      Metric = "et0_fao_evapotranspiration"
	MetricEvapotranspiration       Metric = "evapotranspiration"
	MetricVisibility               Metric = "visibility"
	MetricCloudCoverHigh           Metric = "cloud_cover_high"
	MetricCloudCoverMid            Metric = "cloud_cover_mid"
	MetricCloudCover               Metric = "cloud_cover"
	MetricCloudCoverLow            Metric = "cloud_cover_low"
	MetricSurfacePressure          Metric = "surface_pressure"
	MetricPressureMSL              Metric = "pressure_msl"
	MetricWeatherCode              Metric = "weather_code"
	MetricWindSpeed                Metric = "wind_speed_10m"
	MetricWindSpeed80m             Metric = "wind_speed_80m"
	MetricWindSpeed120m            Metric = "wind_speed_120m"
	MetricWindSpeed180m            Metric = "wind_speed_180m"
	MetricWindDirection            Metric = "wind_direction_10m"
	MetricWindDirection80m         Metric = "wind_direction_80m"
	MetricWindDirection120m        Metric = "wind_direction_120m"
	MetricWindDirection180m        Metric = "wind_direction_180m"
	MetricWindGusts                Metric = "wind_gusts_10m"
	MetricTemperature80m           Metric = "temperature_80m"
	MetricTemperature120m          Metric = "temperature_120m"
	MetricTemperature180m          Metric = "temperature_180m"
	MetricSoilTemperature0cm       Metric = "soil_temperature_0cm"
	MetricSoilTemperature6cm       Metric = "soil_temperature_6cm"
	MetricSoilTemperature18cm      Metric = "soil_temperature_18cm"
	MetricSoilTemperature54cm      Metric = "soil_temperature_54cm"
	MetricSoilMoisture0to1cm       Metric = "soil_moisture_0_to_1cm"
	MetricSoilMoisture1to3cm       Metric = "soil_moisture_1_to_3cm"
	MetricSoilMoisture3to9cm       Metric = "soil_moisture_3_to_9cm"
	MetricSoilMoisture9to27cm      Metric = "soil_moisture_9_to_27cm"
	MetricSoilMoisture27to81cm     Metric = "soil_moisture_27_to_81cm"
	MetricUVIndex                  Metric = "uv_index"
	MetricUVIndexClearSky          Metric = "uv_index_clear_sky"
	MetricIsDay                    Metric = "is_day"
	MetricSunshineDuration         Metric = "sunshine_duration"
	MetricWetBulbTemperature       Metric = "wet_bulb_temperature_2m"
	MetricWaterVapour              Metric = "total_column_integrated_water_vapour"
	MetricLiftedIndex              Metric = "lifted_index"
	MetricCAPE                     Metric = "cape"
	MetricConvectiveInhibition     Metric = "convective_inhibition"
	MetricFreezingLevelHeight      Metric = "freezing_level_height"
	MetricBoundaryLayerHeight      Metric = "boundary_layer_height"
	MetricShortwaveRadiation       Metric = "shortwave_radiation"
	MetricDirectRadiation          Metric = "direct_radiation"
	MetricDiffuseRadiation         Metric = "diffuse_radiation"
)

// HourlyMetrics returns every hourly variable requested from the provider.
func HourlyMetrics() []Metric {
	return []Metric{
		MetricTemperature, MetricDewPoint, MetricApparentTemperature, MetricPrecipitationProbability,
		MetricPrecipitation, MetricRain, MetricShowers, MetricHumidity, MetricSnowfall, MetricSnowDepth,
		MetricVapourPressureDeficit, MetricET0, MetricEvapotranspiration,
		MetricVisibility, MetricCloudCoverHigh, MetricCloudCoverMid, MetricCloudCover, MetricCloudCoverLow,
		MetricSurfacePressure, MetricPressureMSL, MetricWeatherCode,
		MetricWindSpeed, MetricWindSpeed80m, MetricWindSpeed120m, MetricWindSpeed180m,
		MetricWindDirection, MetricWindDirection80m, MetricWindDirection120m, MetricWindDirection180m,
		MetricWindGusts, MetricTemperature80m, MetricTemperature120m, MetricTemperature180m,
		MetricSoilTemperature0cm, MetricSoilTemperature6cm, MetricSoilTemperature18cm, MetricSoilTemperature54cm,
		MetricSoilMoisture0to1cm, MetricSoilMoisture1to3cm, MetricSoilMoisture3to9cm,
		MetricSoilMoisture9to27cm, MetricSoilMoisture27to81cm,
		MetricUVIndex, MetricUVIndexClearSky, MetricIsDay, MetricSunshineDuration,
		MetricWetBulbTemperature, MetricWaterVapour, MetricLiftedIndex, MetricCAPE,
		MetricConvectiveInhibition, MetricFreezingLevelHeight, MetricBoundaryLayerHeight,
		MetricShortwaveRadiation, MetricDirectRadiation, MetricDiffuseRadiation,
	}
}

// Record is the merged weather view of one location.
// A published record is never mutated; refreshes replace it whole.
type Record struct {
	// ID is the creation time in unix milliseconds.
	ID       int64           `json:"id"`
	Name     string          `json:"name"`
	FullName string          `json:"fullName"`
	Coords   geo.Coordinates `json:"coords"`

	Timezone         string `json:"timezone"`
	UTCOffsetSeconds int    `json:"utcOffsetSeconds"`

	Current Current `json:"current"`
	Hourly  Hourly  `json:"hourly"`
	Daily   Daily   `json:"daily"`

	FetchedAt time.Time `json:"fetchedAt"`
}

// DayCount returns the number of whole days in the hourly backbone.
func (r *Record) DayCount() int {
	if r == nil {
		return 0
	}
	return len(r.Hourly.Time) / HoursPerDay
}

// Location returns the record's coordinates and labels.
func (r *Record) Location() geo.Place {
	return geo.Place{
		Coords: r.Coords,
		Info:   geo.LocationInfo{CityName: r.Name, FullName: r.FullName},
	}
}

// Current is the point-in-time snapshot.
type Current struct {
	Time string `json:"time"`

	Temperature     *float64 `json:"temperature"`
	FeelsLike       *float64 `json:"feelsLike"`
	Humidity        *float64 `json:"humidity"`
	Pressure        *float64 `json:"pressure"`
	SurfacePressure *float64 `json:"surfacePressure"`

	// Wind speed and gusts in m/s, direction in degrees.
	WindSpeed     *float64 `json:"windSpeed"`
	WindDirection *float64 `json:"windDirection"`
	WindGust      *float64 `json:"windGust"`

	// Visibility in km, taken from the hourly series at the current hour.
	Visibility *float64 `json:"visibility"`
	DewPoint   *float64 `json:"dewPoint"`

	CloudCover    *float64 `json:"cloudCover"`
	Precipitation *float64 `json:"precipitation"`
	Rain          *float64 `json:"rain"`
	Showers       *float64 `json:"showers"`
	Snowfall      *float64 `json:"snowfall"`

	Condition Condition `json:"condition"`
	IsDay     bool      `json:"isDay"`

	// AirQuality is nil when no air quality data is available.
	AirQuality *airquality.Current `json:"airQuality"`

	// Pollen is nil when no pollen data is available.
	Pollen pollen.Current `json:"pollen"`
}

// Hourly holds parallel hourly series sharing the Time backbone.
type Hourly struct {
	// Time is location-local, formatted 2006-01-02T15:04.
	Time   []string                     `json:"time"`
	Series map[Metric]timeseries.Series `json:"series"`

	// AirQuality and Pollen are aligned to Time. Nil means no data for the group.
	AirQuality *airquality.Hourly `json:"airQuality"`
	Pollen     *pollen.Hourly     `json:"pollen"`
}

// Get returns the series for m, or an empty series.
func (h *Hourly) Get(m Metric) timeseries.Series {
	if h == nil || h.Series == nil {
		return timeseries.Series{}
	}
	if s, ok := h.Series[m]; ok {
		return s
	}
	return timeseries.Series{}
}

// IndexOf returns the position of t in the backbone, or -1.
func (h *Hourly) IndexOf(t string) int {
	if h == nil {
		return -1
	}
	for i, ts := range h.Time {
		if ts == t {
			return i
		}
	}
	return -1
}

// Daily holds one entry per calendar day.
// Time[i] covers hourly indices [i*24, i*24+24).
type Daily struct {
	Time []string `json:"time"`

	WeatherCode    timeseries.Series `json:"weatherCode"`
	TemperatureMax timeseries.Series `json:"temperatureMax"`
	TemperatureMin timeseries.Series `json:"temperatureMin"`
	ApparentMax    timeseries.Series `json:"apparentTemperatureMax"`
	ApparentMin    timeseries.Series `json:"apparentTemperatureMin"`

	UVIndexMax         timeseries.Series `json:"uvIndexMax"`
	UVIndexClearSkyMax timeseries.Series `json:"uvIndexClearSkyMax"`
	SunshineDuration   timeseries.Series `json:"sunshineDuration"`
	DaylightDuration   timeseries.Series `json:"daylightDuration"`
	Sunrise            []string          `json:"sunrise"`
	Sunset             []string          `json:"sunset"`

	RainSum                     timeseries.Series `json:"rainSum"`
	ShowersSum                  timeseries.Series `json:"showersSum"`
	SnowfallSum                 timeseries.Series `json:"snowfallSum"`
	PrecipitationSum            timeseries.Series `json:"precipitationSum"`
	PrecipitationHours          timeseries.Series `json:"precipitationHours"`
	PrecipitationProbabilityMax timeseries.Series `json:"precipitationProbabilityMax"`

	WindGustsMax          timeseries.Series `json:"windGustsMax"`
	WindSpeedMax          timeseries.Series `json:"windSpeedMax"`
	WindDirectionDominant timeseries.Series `json:"windDirectionDominant"`
	ShortwaveRadiationSum timeseries.Series `json:"shortwaveRadiationSum"`
	ET0                   timeseries.Series `json:"et0"`
}

// DailyVariables returns the daily variables requested from the provider.
func DailyVariables() []string {
	return []string{
		"weather_code", "temperature_2m_max", "temperature_2m_min", "apparent_temperature_max",
		"apparent_temperature_min", "uv_index_clear_sky_max", "uv_index_max", "sunshine_duration",
		"daylight_duration", "sunset", "sunrise", "rain_sum", "showers_sum", "snowfall_sum",
		"precipitation_sum", "precipitation_hours", "precipitation_probability_max",
		"wind_gusts_10m_max", "wind_speed_10m_max", "shortwave_radiation_sum",
		"wind_direction_10m_dominant", "et0_fao_evapotranspiration",
	}
}

// CurrentVariables returns the current-block variables requested from the provider.
func CurrentVariables() []string {
	return []string{
		"temperature_2m", "relative_humidity_2m", "apparent_temperature", "is_day",
		"wind_speed_10m", "wind_direction_10m", "wind_gusts_10m", "snowfall",
		"showers", "rain", "precipitation", "weather_code", "cloud_cover",
		"pressure_msl", "surface_pressure",
	}
}

// Forecast is one primary provider response before merging.
type Forecast struct {
	Timezone         string
	UTCOffsetSeconds int
	Current          Current
	Hourly           Hourly
	Daily            Daily
	FetchedAt        time.Time
}
