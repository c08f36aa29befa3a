package weather

import "fmt"

// Main is the general weather category.
type Main string

const (
	MainClear        Main = "Clear"
	MainClouds       Main = "Clouds"
	MainFog          Main = "Fog"
	MainDrizzle      Main = "Drizzle"
	MainRain         Main = "Rain"
	MainSnow         Main = "Snow"
	MainThunderstorm Main = "Thunderstorm"
)

// Condition classifies a WMO weather code.
type Condition struct {
	Code        int    `json:"code"`
	Main        Main   `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// NewCondition builds the full classification for a code.
func NewCondition(code int, isDay bool) Condition {
	return Condition{
		Code:        code,
		Main:        ConditionFromCode(code),
		Description: DescriptionFromCode(code),
		Icon:        IconFromCode(code, isDay),
	}
}

// ConditionFromCode maps a WMO code to its category. Unknown codes are Clear.
func ConditionFromCode(code int) Main {
	switch code {
	case 1, 2, 3:
		return MainClouds
	case 45, 48:
		return MainFog
	case 51, 53, 55, 56, 57:
		return MainDrizzle
	case 61, 63, 65, 66, 67, 80, 81, 82:
		return MainRain
	case 71, 73, 75, 77, 85, 86:
		return MainSnow
	case 95, 96, 99:
		return MainThunderstorm
	default:
		return MainClear
	}
}

var descriptions = map[int]string{
	0:  "clear sky",
	1:  "mainly clear",
	2:  "partly cloudy",
	3:  "overcast",
	45: "fog",
	48: "depositing rime fog",
	51: "light drizzle",
	53: "moderate drizzle",
	55: "dense drizzle",
	56: "light freezing drizzle",
	57: "dense freezing drizzle",
	61: "slight rain",
	63: "moderate rain",
	65: "heavy rain",
	66: "light freezing rain",
	67: "heavy freezing rain",
	71: "slight snow fall",
	73: "moderate snow fall",
	75: "heavy snow fall",
	77: "snow grains",
	80: "slight rain showers",
	81: "moderate rain showers",
	82: "violent rain showers",
	85: "slight snow showers",
	86: "heavy snow showers",
	95: "thunderstorm",
	96: "thunderstorm with slight hail",
	99: "thunderstorm with heavy hail",
}

// DescriptionFromCode returns the English WMO description.
func DescriptionFromCode(code int) string {
	if d, ok := descriptions[code]; ok {
		return d
	}
	return "clear sky"
}

// icons without a day/night variant.
var icons = map[int]string{
	3:  "04d",
	45: "50d",
	48: "50d",
	51: "09d",
	53: "09d",
	55: "09d",
	56: "09d",
	57: "09d",
	61: "10d",
	63: "10d",
	65: "10d",
	66: "13d",
	67: "13d",
	71: "13d",
	73: "13d",
	75: "13d",
	77: "13d",
	80: "09d",
	81: "09d",
	82: "09d",
	85: "13d",
	86: "13d",
	95: "11d",
	96: "11d",
	99: "11d",
}

// IconFromCode returns the icon id for a code. Clear and partly cloudy codes
// get a d or n suffix.
func IconFromCode(code int, isDay bool) string {
	suffix := "n"
	if isDay {
		suffix = "d"
	}
	switch code {
	case 0:
		return "01" + suffix
	case 1:
		return "02" + suffix
	case 2:
		return "03" + suffix
	}
	if icon, ok := icons[code]; ok {
		return icon
	}
	return "01" + suffix
}

// IconURL returns the image URL for an icon id.
func IconURL(icon string) string {
	return fmt.Sprintf("https://openweathermap.org/img/wn/%s@2x.png", icon)
}
