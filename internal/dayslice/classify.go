package dayslice

import (
	"fmt"

	"github.com/weatherdash/weatherdash/internal/airquality"
	"github.com/weatherdash/weatherdash/internal/pollen"
)

// BeaufortLevel is a wind force on the Beaufort scale.
type BeaufortLevel struct {
	Force int    `json:"force"`
	Name  string `json:"name"`
}

func (b BeaufortLevel) String() string {
	return fmt.Sprintf("%d - %s", b.Force, b.Name)
}

// beaufortLimits holds the exclusive upper bound in km/h of forces 0 to 11.
var beaufortLimits = []struct {
	below float64
	name  string
}{
	{1, "Calm"},
	{6, "Light air"},
	{12, "Light breeze"},
	{20, "Gentle breeze"},
	{29, "Moderate breeze"},
	{39, "Fresh breeze"},
	{50, "Strong breeze"},
	{62, "Near gale"},
	{75, "Gale"},
	{89, "Strong gale"},
	{103, "Storm"},
	{118, "Violent storm"},
}

// Beaufort classifies a wind speed in km/h.
func Beaufort(kmh float64) BeaufortLevel {
	for force, l := range beaufortLimits {
		if kmh < l.below {
			return BeaufortLevel{Force: force, Name: l.name}
		}
	}
	return BeaufortLevel{Force: 12, Name: "Hurricane"}
}

// UVBand names a UV index.
func UVBand(uv float64) string {
	switch {
	case uv < 1:
		return "Minimal"
	case uv <= 2:
		return "Low"
	case uv <= 5:
		return "Moderate"
	case uv <= 7:
		return "High"
	case uv <= 10:
		return "Very high"
	default:
		return "Extreme"
	}
}

// PollenBand names a pollen index.
func PollenBand(index float64) string {
	return pollen.RiskLevelFromIndex(index).Label()
}

// VisibilityBand names a visibility in km.
func VisibilityBand(km float64) string {
	switch {
	case km >= 10:
		return "Very good"
	case km >= 4:
		return "Good"
	case km >= 1:
		return "Moderate"
	default:
		return "Poor"
	}
}

// AQIBand names a US AQI value.
func AQIBand(aqi float64) string {
	return string(airquality.LevelFromUSAQI(aqi))
}

// Precipitation types.
const (
	PrecipitationNone         = "No precipitation"
	PrecipitationUnknown      = "Unknown"
	PrecipitationRain         = "Rain"
	PrecipitationSnow         = "Snow"
	PrecipitationThunderstorm = "Thunderstorm"
	PrecipitationDrizzle      = "Drizzle"
	PrecipitationGeneric      = "Precipitation"
)

// PrecipitationType classifies an hour's precipitation by its weather code.
func PrecipitationType(amount, code *float64) string {
	if amount == nil || *amount == 0 {
		return PrecipitationNone
	}
	if code == nil {
		return PrecipitationUnknown
	}
	switch int(*code) {
	case 61, 63, 65, 80, 81, 82:
		return PrecipitationRain
	case 71, 73, 75, 77, 85, 86:
		return PrecipitationSnow
	case 95, 96, 99:
		return PrecipitationThunderstorm
	case 51, 53, 55, 56, 57:
		return PrecipitationDrizzle
	default:
		return PrecipitationGeneric
	}
}
