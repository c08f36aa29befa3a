package chart

import (
	"fmt"

	"github.com/weatherdash/weatherdash/internal/airquality"
	"github.com/weatherdash/weatherdash/internal/dayslice"
	"github.com/weatherdash/weatherdash/internal/timeseries"
	"github.com/weatherdash/weatherdash/internal/units"
	"github.com/weatherdash/weatherdash/internal/weather"
)

const tension = 0.4

// ForTab builds the chart for tab. It returns false when the slice has no
// time axis or the tab is unknown.
func ForTab(tab dayslice.Tab, s dayslice.Slice, sys units.System) (Spec, bool) {
	if !s.HasData() {
		return Spec{}, false
	}

	switch tab {
	case dayslice.TabOverview:
		return Overview(s, sys), true
	case dayslice.TabPrecipitation:
		return Precipitation(s), true
	case dayslice.TabWind:
		return Wind(s), true
	case dayslice.TabAirQuality:
		return AirQuality(s), true
	case dayslice.TabCloudCover:
		return CloudCover(s), true
	case dayslice.TabVisibility:
		return Visibility(s), true
	case dayslice.TabSolar:
		return Solar(s), true
	default:
		return Spec{}, false
	}
}

func xScale() Scale {
	return Scale{GridOnChartArea: true}
}

// Overview charts the temperature with per-point band colors and a
// gradient fill, plus the apparent temperature.
func Overview(s dayslice.Slice, sys units.System) Spec {
	temps := s.Get(weather.MetricTemperature)
	feels := s.Get(weather.MetricApparentTemperature)

	border := ColorCold
	if v, ok := temps.At(0); ok {
		border = TemperatureColor(v)
	}

	// Colours stay keyed to Celsius; only the plotted values follow the units.
	plotTemps, plotFeels := temps, feels
	if sys == units.Imperial {
		plotTemps = temps.Map(units.CelsiusToFahrenheit)
		plotFeels = feels.Map(units.CelsiusToFahrenheit)
	}

	return Spec{
		Type:   TypeLine,
		Labels: Labels(s.Time),
		Datasets: []Dataset{
			{
				Label:        "Temperature",
				Data:         plotTemps,
				BorderColor:  border,
				FillGradient: TemperatureGradient(temps),
				PointColors:  pointColors(temps),
				Fill:         true,
				Tension:      tension,
				PointRadius:  radius(0),
				BorderWidth:  3,
			},
			{
				Label:       "Feels like",
				Data:        plotFeels,
				BorderColor: "rgba(255, 255, 255, 0.6)",
				Tension:     tension,
				BorderDash:  []int{6, 4},
				PointRadius: radius(0),
				BorderWidth: 2,
			},
		},
		Scales: map[string]Scale{
			AxisX: xScale(),
			AxisY: {Title: "Temperature", TickSuffix: tempSuffix(sys), GridOnChartArea: true},
		},
		Legend: true,
		Tooltip: func(_, i int) []string {
			return overviewTooltip(s, sys, i)
		},
	}
}

func tempSuffix(sys units.System) string {
	if sys == units.Imperial {
		return "°F"
	}
	return "°C"
}

func overviewTooltip(s dayslice.Slice, sys units.System, i int) []string {
	lines := []string{"Temperature: " + units.FormatTemp(s.Get(weather.MetricTemperature).Ptr(i), sys)}

	if v := s.Get(weather.MetricApparentTemperature).Ptr(i); v != nil {
		lines = append(lines, "Feels like: "+units.FormatTemp(v, sys))
	}
	if v, ok := s.Get(weather.MetricHumidity).At(i); ok {
		lines = append(lines, fmt.Sprintf("Humidity: %d%%", units.Round(v)))
	}
	if v, ok := s.Get(weather.MetricPrecipitationProbability).At(i); ok && v > 0 {
		lines = append(lines, fmt.Sprintf("Chance of rain: %d%%", units.Round(v)))
	}
	if v, ok := s.Get(weather.MetricPrecipitation).At(i); ok && v > 0 {
		lines = append(lines, fmt.Sprintf("Precipitation: %.1f mm", v))
	}
	if v, ok := s.Get(weather.MetricWindSpeed).At(i); ok {
		line := fmt.Sprintf("Wind: %d km/h", units.Round(v))
		if d, ok := s.Get(weather.MetricWindDirection).At(i); ok {
			line += " (" + units.WindDirection(d) + ")"
		}
		lines = append(lines, line)
	}
	if v, ok := s.Get(weather.MetricSurfacePressure).At(i); ok {
		lines = append(lines, fmt.Sprintf("Pressure: %d hPa", units.Round(v)))
	}
	if v, ok := s.Get(weather.MetricVisibility).At(i); ok {
		lines = append(lines, fmt.Sprintf("Visibility: %.1f km", units.MetersToKm(v)))
	}
	return lines
}

// Precipitation charts hourly amounts as bars and the probability as a line
// on the right axis.
func Precipitation(s dayslice.Slice) Spec {
	amount := s.Get(weather.MetricPrecipitation)
	prob := s.Get(weather.MetricPrecipitationProbability)

	return Spec{
		Type:   TypeBar,
		Labels: Labels(s.Time),
		Datasets: []Dataset{
			{
				Label:           "Precipitation (mm)",
				Data:            amount,
				BorderColor:     "rgba(54, 162, 235, 1)",
				BackgroundColor: "rgba(54, 162, 235, 0.6)",
				YAxisID:         AxisY,
				BorderWidth:     1,
			},
			{
				Label:           "Probability (%)",
				Type:            TypeLine,
				Data:            prob,
				BorderColor:     "rgba(255, 99, 132, 1)",
				BackgroundColor: "rgba(255, 99, 132, 0.1)",
				Tension:         tension,
				YAxisID:         AxisY1,
				PointRadius:     radius(0),
				BorderWidth:     2,
			},
		},
		Scales: map[string]Scale{
			AxisX:  xScale(),
			AxisY:  {Position: "left", Title: "Precipitation (mm)", BeginAtZero: true, GridOnChartArea: true},
			AxisY1: {Position: "right", Title: "Probability (%)", BeginAtZero: true, Max: max100(), TickSuffix: "%"},
		},
		Legend: true,
		Tooltip: func(ds, i int) []string {
			if ds == 0 {
				v, ok := amount.At(i)
				if !ok {
					return []string{"Precipitation: " + units.NotAvailable}
				}
				return []string{fmt.Sprintf("Precipitation: %.1f mm", v)}
			}
			v, ok := prob.At(i)
			if !ok {
				return []string{"Probability: " + units.NotAvailable}
			}
			return []string{fmt.Sprintf("Probability: %d%%", units.Round(v))}
		},
	}
}

// Wind charts speed and gusts with a direction arrow every other hour.
func Wind(s dayslice.Slice) Spec {
	speed := s.Get(weather.MetricWindSpeed)
	gusts := s.Get(weather.MetricWindGusts)
	dir := s.Get(weather.MetricWindDirection)

	var overlays []Overlay
	for i := 0; i < len(dir); i += 2 {
		if d, ok := dir.At(i); ok {
			overlays = append(overlays, Overlay{Kind: OverlayWindArrow, Index: i, Degrees: d})
		}
	}

	return Spec{
		Type:   TypeLine,
		Labels: Labels(s.Time),
		Datasets: []Dataset{
			{
				Label:       "Wind speed (km/h)",
				Data:        speed,
				BorderColor: "rgba(100, 181, 246, 1)",
				FillGradient: []GradientStop{
					{Position: 0, Color: "rgba(100, 181, 246, 0.4)"},
					{Position: 1, Color: "rgba(100, 181, 246, 0.05)"},
				},
				Fill:        true,
				Tension:     tension,
				PointRadius: radius(0),
				BorderWidth: 2.5,
			},
			{
				Label:           "Wind gusts (km/h)",
				Data:            gusts,
				BorderColor:     "rgba(255, 193, 7, 1)",
				BackgroundColor: "rgba(255, 193, 7, 0.1)",
				Tension:         tension,
				BorderDash:      []int{8, 4},
				PointRadius:     radius(0),
				BorderWidth:     2,
			},
		},
		Scales: map[string]Scale{
			AxisX: xScale(),
			AxisY: {Title: "Wind speed (km/h)", BeginAtZero: true, TickSuffix: " km/h", GridOnChartArea: true},
		},
		Legend:   true,
		Overlays: overlays,
		Tooltip: func(_, i int) []string {
			var lines []string
			if v, ok := speed.At(i); ok {
				lines = append(lines, fmt.Sprintf("Speed: %d km/h", units.Round(v)))
			}
			if v, ok := gusts.At(i); ok {
				lines = append(lines, fmt.Sprintf("Gusts: %d km/h", units.Round(v)))
			}
			if d, ok := dir.At(i); ok {
				lines = append(lines, fmt.Sprintf("Direction: %s (%d°)", units.WindDirection(d), units.Round(d)))
			}
			return lines
		},
	}
}

// AirQuality charts the US AQI and PM2.5 on separate axes. Without an air
// quality group both datasets are empty.
func AirQuality(s dayslice.Slice) Spec {
	aqi := s.AirQuality.Get(airquality.PollutantUSAQI)
	pm25 := s.AirQuality.Get(airquality.PollutantPM25)

	return Spec{
		Type:   TypeLine,
		Labels: Labels(s.Time),
		Datasets: []Dataset{
			{
				Label:           "US AQI",
				Data:            aqi,
				BorderColor:     "rgba(168, 85, 247, 1)",
				BackgroundColor: "rgba(168, 85, 247, 0.1)",
				Tension:         tension,
				YAxisID:         AxisY,
				BorderWidth:     2,
			},
			{
				Label:           "PM2.5 (µg/m³)",
				Data:            pm25,
				BorderColor:     "rgba(239, 68, 68, 1)",
				BackgroundColor: "rgba(239, 68, 68, 0.1)",
				Tension:         tension,
				YAxisID:         AxisY1,
				BorderWidth:     2,
			},
		},
		Scales: map[string]Scale{
			AxisX:  xScale(),
			AxisY:  {Position: "left", Title: "US AQI", BeginAtZero: true, GridOnChartArea: true},
			AxisY1: {Position: "right", Title: "PM2.5 (µg/m³)", BeginAtZero: true},
		},
		Legend: true,
		Tooltip: func(ds, i int) []string {
			if ds == 0 {
				v, ok := aqi.At(i)
				if !ok {
					return []string{"US AQI: " + units.NotAvailable}
				}
				return []string{fmt.Sprintf("US AQI: %d (%s)", units.Round(v), dayslice.AQIBand(v))}
			}
			v, ok := pm25.At(i)
			if !ok {
				return []string{"PM2.5: " + units.NotAvailable}
			}
			return []string{fmt.Sprintf("PM2.5: %d µg/m³", units.Round(v))}
		},
	}
}

// CloudCover stacks the low, mid and high layers with the total as a line.
func CloudCover(s dayslice.Slice) Spec {
	layers := []struct {
		label  string
		metric weather.Metric
		color  RGB
	}{
		{"Low clouds", weather.MetricCloudCoverLow, RGB{135, 206, 250}},
		{"Mid clouds", weather.MetricCloudCoverMid, RGB{100, 149, 237}},
		{"High clouds", weather.MetricCloudCoverHigh, RGB{72, 61, 139}},
	}

	datasets := make([]Dataset, 0, len(layers)+1)
	for _, l := range layers {
		datasets = append(datasets, Dataset{
			Label:           l.label,
			Data:            s.Get(l.metric),
			BorderColor:     l.color.RGBA(1),
			BackgroundColor: l.color.RGBA(0.8),
			Stack:           "cloud",
			BorderWidth:     1,
		})
	}
	datasets = append(datasets, Dataset{
		Label:           "Total cloud cover",
		Type:            TypeLine,
		Data:            s.Get(weather.MetricCloudCover),
		BorderColor:     "rgba(255, 255, 255, 0.9)",
		BackgroundColor: "rgba(255, 255, 255, 0.1)",
		Tension:         tension,
		PointRadius:     radius(0),
		BorderWidth:     3,
	})

	return Spec{
		Type:     TypeBar,
		Labels:   Labels(s.Time),
		Datasets: datasets,
		Scales: map[string]Scale{
			AxisX: {Stacked: true, GridOnChartArea: true},
			AxisY: {Title: "Cloud cover (%)", BeginAtZero: true, Max: max100(), Stacked: true, TickSuffix: "%", GridOnChartArea: true},
		},
		Legend: true,
		Tooltip: func(ds, i int) []string {
			if ds < 0 || ds >= len(datasets) {
				return nil
			}
			v, ok := datasets[ds].Data.At(i)
			if !ok {
				return []string{datasets[ds].Label + ": " + units.NotAvailable}
			}
			return []string{fmt.Sprintf("%s: %d%%", datasets[ds].Label, units.Round(v))}
		},
	}
}

// Visibility charts visibility in km with a rated tooltip.
func Visibility(s dayslice.Slice) Spec {
	meters := s.Get(weather.MetricVisibility)
	km := make(timeseries.Series, len(meters))
	for i, v := range meters {
		if v != nil {
			km[i] = timeseries.Float(units.MetersToKm(*v))
		}
	}

	return Spec{
		Type:   TypeLine,
		Labels: Labels(s.Time),
		Datasets: []Dataset{{
			Label:       "Visibility (km)",
			Data:        km,
			BorderColor: "rgba(52, 168, 83, 1)",
			FillGradient: []GradientStop{
				{Position: 0, Color: "rgba(52, 168, 83, 0.8)"},
				{Position: 0.3, Color: "rgba(52, 168, 83, 0.6)"},
				{Position: 0.7, Color: "rgba(34, 139, 69, 0.4)"},
				{Position: 1, Color: "rgba(21, 94, 117, 0.2)"},
			},
			Fill:        true,
			Tension:     tension,
			PointRadius: radius(0),
			BorderWidth: 2,
		}},
		Scales: map[string]Scale{
			AxisX: xScale(),
			AxisY: {Title: "Visibility (km)", BeginAtZero: true, TickSuffix: " km", GridOnChartArea: true},
		},
		Legend: false,
		Tooltip: func(_, i int) []string {
			v, ok := km.At(i)
			if !ok {
				return []string{"Visibility: " + units.NotAvailable}
			}
			if v >= 10 {
				return []string{fmt.Sprintf("Visibility: %.0f km (%s)", v, dayslice.VisibilityBand(v))}
			}
			return []string{fmt.Sprintf("Visibility: %.1f km (%s)", v, dayslice.VisibilityBand(v))}
		},
	}
}

// Solar charts shortwave, direct and diffuse radiation.
func Solar(s dayslice.Slice) Spec {
	datasets := []Dataset{
		{
			Label:           "Shortwave radiation (W/m²)",
			Data:            s.Get(weather.MetricShortwaveRadiation),
			BorderColor:     "rgba(255, 165, 0, 1)",
			BackgroundColor: "rgba(255, 165, 0, 0.1)",
			Fill:            true,
			Tension:         tension,
			BorderWidth:     2,
		},
		{
			Label:           "Direct radiation (W/m²)",
			Data:            s.Get(weather.MetricDirectRadiation),
			BorderColor:     "rgba(255, 215, 0, 1)",
			BackgroundColor: "rgba(255, 215, 0, 0.1)",
			Tension:         tension,
			BorderWidth:     2,
		},
		{
			Label:           "Diffuse radiation (W/m²)",
			Data:            s.Get(weather.MetricDiffuseRadiation),
			BorderColor:     "rgba(255, 255, 0, 1)",
			BackgroundColor: "rgba(255, 255, 0, 0.1)",
			Tension:         tension,
			BorderWidth:     2,
		},
	}

	return Spec{
		Type:     TypeLine,
		Labels:   Labels(s.Time),
		Datasets: datasets,
		Scales: map[string]Scale{
			AxisX: xScale(),
			AxisY: {Title: "Radiation (W/m²)", BeginAtZero: true, TickSuffix: " W/m²", GridOnChartArea: true},
		},
		Legend: true,
		Tooltip: func(ds, i int) []string {
			if ds < 0 || ds >= len(datasets) {
				return nil
			}
			v, ok := datasets[ds].Data.At(i)
			if !ok {
				return []string{datasets[ds].Label + ": " + units.NotAvailable}
			}
			return []string{fmt.Sprintf("%s: %d W/m²", datasets[ds].Label, units.Round(v))}
		},
	}
}
