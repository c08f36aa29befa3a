package dayslice

import "github.com/weatherdash/weatherdash/internal/airquality"

// Tab is a forecast view tab.
type Tab string

const (
	TabOverview      Tab = "overview"
	TabPrecipitation Tab = "precipitation"
	TabWind          Tab = "wind"
	TabAirQuality    Tab = "airquality"
	TabCloudCover    Tab = "cloudcover"
	TabVisibility    Tab = "visibility"
	TabSolar         Tab = "solar"
)

// Tabs returns every tab in display order.
func Tabs() []Tab {
	return []Tab{TabOverview, TabPrecipitation, TabWind, TabAirQuality, TabCloudCover, TabVisibility, TabSolar}
}

// Valid reports whether t is a known tab.
func (t Tab) Valid() bool {
	for _, known := range Tabs() {
		if t == known {
			return true
		}
	}
	return false
}

// Label returns the tab's display name.
func (t Tab) Label() string {
	switch t {
	case TabPrecipitation:
		return "Precipitation"
	case TabWind:
		return "Wind"
	case TabAirQuality:
		return "Air quality"
	case TabCloudCover:
		return "Cloud cover"
	case TabVisibility:
		return "Visibility"
	case TabSolar:
		return "Solar radiation"
	default:
		return "Overview"
	}
}

// TabTitle returns the heading of the detail section for a tab.
func TabTitle(t Tab) string {
	switch t {
	case TabPrecipitation:
		return "Precipitation details"
	case TabWind:
		return "Wind details"
	case TabAirQuality:
		return "Air quality details"
	case TabCloudCover:
		return "Cloud cover details"
	case TabVisibility:
		return "Visibility details"
	case TabSolar:
		return "Solar radiation details"
	default:
		return "Weather details"
	}
}

// Detail is one card in a tab's detail section.
type Detail struct {
	Key         string `json:"key"`
	Title       string `json:"title"`
	Value       string `json:"value"`
	Description string `json:"description"`
}

// Details returns the detail cards for tab. Unknown tabs have none.
func Details(tab Tab, s Slice, opts Options) []Detail {
	r := NewReader(s, opts)

	switch tab {
	case TabOverview:
		return []Detail{
			{"feels-like", "Feels like", r.FeelsLike(), "How the temperature feels"},
			{"humidity", "Humidity", r.Humidity(), "Relative humidity"},
			{"dew-point", "Dew point", r.DewPoint(), "Condensation temperature"},
			{"pressure", "Pressure", r.Pressure(), "Atmospheric pressure"},
			{"visibility", "Visibility", r.Visibility(), "Horizontal visibility"},
			{"uv-index", "UV index", r.UVIndex(), r.UVStatus()},
			{"wind", "Wind", r.WindSpeed(), r.WindDirection() + " direction"},
			{"cloud-cover", "Cloud cover", r.CloudCover(), "Sky covered by clouds"},
			{"air-quality", "Air quality", r.AQI(), "US AQI index"},
			{"pollen", "Pollen", r.PollenLevel(), r.MainAllergen()},
		}
	case TabPrecipitation:
		return []Detail{
			{"precipitation-amount", "Precipitation", r.PrecipitationAmount(), "Hourly precipitation amount"},
			{"precipitation-probability", "Probability", r.PrecipitationProbability(), "Chance of precipitation"},
			{"precipitation-type", "Type", r.PrecipitationType(), "Kind of precipitation"},
			{"humidity-precip", "Humidity", r.Humidity(), "Relative humidity"},
			{"cloud-cover-precip", "Cloud cover", r.CloudCover(), "Sky covered by clouds"},
			{"visibility-precip", "Visibility", r.Visibility(), "Horizontal visibility"},
		}
	case TabWind:
		return []Detail{
			{"wind-speed", "Wind speed", r.WindSpeed(), "Sustained wind speed"},
			{"wind-direction", "Wind direction", r.WindDirection(), "Compass direction"},
			{"wind-gusts", "Wind gusts", r.WindGusts(), "Maximum gusts"},
			{"beaufort-scale", "Beaufort scale", r.Beaufort(), "Wind force"},
			{"pressure-wind", "Pressure", r.Pressure(), "Atmospheric pressure"},
			{"visibility-wind", "Visibility", r.Visibility(), "Horizontal visibility"},
		}
	case TabAirQuality:
		return []Detail{
			{"aqi", "US AQI", r.AQI(), "Air quality index"},
			{"pm25", "PM2.5", r.Pollutant(airquality.PollutantPM25), "Fine particles (2.5 µm)"},
			{"pm10", "PM10", r.Pollutant(airquality.PollutantPM10), "Particles (10 µm)"},
			{"ozone", "Ozone", r.Pollutant(airquality.PollutantO3), "Ground-level ozone"},
			{"no2", "NO₂", r.Pollutant(airquality.PollutantNO2), "Nitrogen dioxide"},
			{"so2", "SO₂", r.Pollutant(airquality.PollutantSO2), "Sulphur dioxide"},
			{"co", "CO", r.Pollutant(airquality.PollutantCO), "Carbon monoxide"},
		}
	case TabCloudCover:
		return []Detail{
			{"total-cloud-cover", "Total cloud cover", r.CloudCover(), "All cloud layers"},
			{"low-clouds", "Low clouds", r.CloudCoverLow(), "Below 2 km"},
			{"mid-clouds", "Mid clouds", r.CloudCoverMid(), "Between 2 and 6 km"},
			{"high-clouds", "High clouds", r.CloudCoverHigh(), "Above 6 km"},
		}
	case TabVisibility:
		return []Detail{
			{"visibility", "Visibility", r.Visibility(), "Horizontal visibility"},
			{"visibility-status", "Conditions", r.VisibilityStatus(), "Visibility rating"},
		}
	case TabSolar:
		return []Detail{
			{"shortwave-radiation", "Shortwave radiation", r.ShortwaveRadiation(), "Global solar radiation"},
			{"direct-radiation", "Direct radiation", r.DirectRadiation(), "Direct beam radiation"},
			{"diffuse-radiation", "Diffuse radiation", r.DiffuseRadiation(), "Scattered radiation"},
			{"sunshine-duration", "Sunshine", r.SunshineDuration(), "Direct sunshine in the hour"},
		}
	default:
		return nil
	}
}
