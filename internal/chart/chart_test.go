package chart_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weatherdash/weatherdash/internal/airquality"
	"github.com/weatherdash/weatherdash/internal/chart"
	"github.com/weatherdash/weatherdash/internal/dayslice"
	"github.com/weatherdash/weatherdash/internal/timeseries"
	"github.com/weatherdash/weatherdash/internal/units"
	"github.com/weatherdash/weatherdash/internal/weather"
)

func hours(n int) []string {
	start := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	out := make([]string, n)
	for i := range out {
		out[i] = start.Add(time.Duration(i) * time.Hour).Format("2006-01-02T15:04")
	}
	return out
}

func constant(n int, v float64) timeseries.Series {
	values := make([]float64, n)
	for i := range values {
		values[i] = v
	}
	return timeseries.Of(values...)
}

func daySlice() dayslice.Slice {
	h := weather.Hourly{
		Time: hours(24),
		Series: map[weather.Metric]timeseries.Series{
			weather.MetricTemperature:         constant(24, 20),
			weather.MetricApparentTemperature: constant(24, 19),
			weather.MetricWindSpeed:           constant(24, 12),
			weather.MetricWindGusts:           constant(24, 25),
			weather.MetricWindDirection:       constant(24, 270),
			weather.MetricVisibility:          constant(24, 12000),
			weather.MetricCloudCover:          constant(24, 80),
		},
	}
	h.Series[weather.MetricWindDirection][4] = nil
	h.Series[weather.MetricVisibility][3] = nil
	return dayslice.Select(h, 0)
}

func TestLabels(t *testing.T) {
	labels := chart.Labels(hours(24))
	require.Len(t, labels, 24)
	assert.Equal(t, "00:00", labels[0])
	assert.Equal(t, "", labels[1])
	assert.Equal(t, "02:00", labels[2])
	assert.Equal(t, "22:00", labels[22])
	assert.Equal(t, "", labels[23])

	assert.Empty(t, chart.Labels(nil))
}

func TestTemperatureColor(t *testing.T) {
	tests := []struct {
		temp float64
		want string
	}{
		{-20, chart.ColorCold},
		{15.9, chart.ColorCold},
		{16, chart.ColorMild},
		{26, chart.ColorMild},
		{26.1, chart.ColorHot},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, chart.TemperatureColor(tt.temp), "temp=%v", tt.temp)
	}
}

func TestTemperatureRGB(t *testing.T) {
	tests := []struct {
		name string
		temp float64
		want chart.RGB
	}{
		{"very cold clamps", -30, chart.RGB{R: 59, G: 130, B: 246}},
		{"cold midpoint", 3, chart.RGB{R: 80, G: 140, B: 246}},
		{"mild start", 16, chart.RGB{R: 100, G: 150, B: 246}},
		{"mild midpoint", 21, chart.RGB{R: 178, G: 158, B: 123}},
		{"hot start", 26, chart.RGB{R: 255, G: 165, B: 0}},
		{"hot max", 40, chart.RGB{R: 220, G: 38, B: 38}},
		{"hot clamps", 50, chart.RGB{R: 220, G: 38, B: 38}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, chart.TemperatureRGB(tt.temp))
		})
	}
}

func TestTemperatureGradient(t *testing.T) {
	flat := chart.TemperatureGradient(constant(5, 20))
	require.Len(t, flat, 2)
	assert.Equal(t, 0.0, flat[0].Position)
	assert.Equal(t, 1.0, flat[1].Position)
	assert.Contains(t, flat[0].Color, "0.3)")
	assert.Contains(t, flat[1].Color, "0.1)")

	stops := chart.TemperatureGradient(timeseries.Series{timeseries.Float(30), nil, timeseries.Float(0), timeseries.Float(20)})
	require.Len(t, stops, 3)
	assert.Equal(t, []float64{0, 0.5, 1}, []float64{stops[0].Position, stops[1].Position, stops[2].Position})
	assert.Equal(t, chart.TemperatureRGB(0).RGBA(0.3), stops[0].Color)
	assert.Equal(t, chart.TemperatureRGB(30).RGBA(0.3), stops[2].Color)

	assert.Nil(t, chart.TemperatureGradient(timeseries.Series{nil}))
}

func TestForTab_AllTabs(t *testing.T) {
	s := daySlice()
	for _, tab := range dayslice.Tabs() {
		t.Run(string(tab), func(t *testing.T) {
			spec, ok := chart.ForTab(tab, s, units.Metric)
			require.True(t, ok)
			assert.Len(t, spec.Labels, 24)
			assert.NotEmpty(t, spec.Datasets)
			assert.Contains(t, spec.Scales, chart.AxisY)

			_, err := json.Marshal(spec)
			assert.NoError(t, err, "tooltip func must not break encoding")
		})
	}
}

func TestForTab_NoData(t *testing.T) {
	s := dayslice.Select(weather.Hourly{}, 0)
	_, ok := chart.ForTab(dayslice.TabOverview, s, units.Metric)
	assert.False(t, ok)

	_, ok = chart.ForTab("radar", daySlice(), units.Metric)
	assert.False(t, ok)
}

func TestOverview(t *testing.T) {
	spec := chart.Overview(daySlice(), units.Imperial)

	require.Len(t, spec.Datasets, 2)
	temp := spec.Datasets[0]
	assert.Equal(t, chart.ColorMild, temp.BorderColor)
	assert.True(t, temp.Fill)
	assert.Len(t, temp.PointColors, 24)
	assert.Len(t, temp.FillGradient, 2)
	assert.Equal(t, []int{6, 4}, spec.Datasets[1].BorderDash)
	assert.Equal(t, "°F", spec.Scales[chart.AxisY].TickSuffix)

	require.Len(t, temp.Data, 24)
	assert.InDelta(t, 68.0, *temp.Data[0], 1e-9)
	assert.InDelta(t, 66.2, *spec.Datasets[1].Data[0], 1e-9)
	assert.Equal(t, chart.TemperatureRGB(20).RGBA(1), temp.PointColors[0], "colours follow Celsius")

	lines := spec.TooltipAt(0, 0)
	require.NotEmpty(t, lines)
	assert.Equal(t, "Temperature: 68°F", lines[0])
	assert.Contains(t, lines, "Wind: 12 km/h (W)")
}

func TestOverview_MetricPlotsCelsius(t *testing.T) {
	spec := chart.Overview(daySlice(), units.Metric)

	assert.Equal(t, "°C", spec.Scales[chart.AxisY].TickSuffix)
	assert.InDelta(t, 20.0, *spec.Datasets[0].Data[0], 1e-9)
	assert.InDelta(t, 19.0, *spec.Datasets[1].Data[0], 1e-9)
	assert.Equal(t, "Temperature: 20°C", spec.TooltipAt(0, 0)[0])
}

func TestWind_Overlays(t *testing.T) {
	spec := chart.Wind(daySlice())

	// Every other hour except hour 4, which has no direction.
	require.Len(t, spec.Overlays, 11)
	for _, o := range spec.Overlays {
		assert.Equal(t, chart.OverlayWindArrow, o.Kind)
		assert.Zero(t, o.Index%2)
		assert.NotEqual(t, 4, o.Index)
		assert.Equal(t, 270.0, o.Degrees)
	}
	assert.Equal(t, []int{8, 4}, spec.Datasets[1].BorderDash)
	assert.Contains(t, spec.TooltipAt(0, 0), "Direction: W (270°)")
}

func TestVisibility(t *testing.T) {
	spec := chart.Visibility(daySlice())

	data := spec.Datasets[0].Data
	require.Len(t, data, 24)
	assert.Equal(t, 12.0, *data[0])
	assert.Nil(t, data[3], "missing stays missing")
	assert.False(t, spec.Legend)
	assert.True(t, spec.Scales[chart.AxisY].BeginAtZero)
	assert.Equal(t, " km", spec.Scales[chart.AxisY].TickSuffix)
	assert.Equal(t, []string{"Visibility: 12 km (Very good)"}, spec.TooltipAt(0, 0))
	assert.Equal(t, []string{"Visibility: N/A"}, spec.TooltipAt(0, 3))
}

func TestCloudCover(t *testing.T) {
	spec := chart.CloudCover(daySlice())

	require.Len(t, spec.Datasets, 4)
	for _, ds := range spec.Datasets[:3] {
		assert.Equal(t, "cloud", ds.Stack)
	}
	assert.Equal(t, chart.TypeLine, spec.Datasets[3].Type)
	y := spec.Scales[chart.AxisY]
	require.NotNil(t, y.Max)
	assert.Equal(t, 100.0, *y.Max)
	assert.Equal(t, "%", y.TickSuffix)
	assert.Equal(t, []string{"Total cloud cover: 80%"}, spec.TooltipAt(3, 0))
}

func TestAirQuality_NoneGroup(t *testing.T) {
	spec, ok := chart.ForTab(dayslice.TabAirQuality, daySlice(), units.Metric)
	require.True(t, ok)
	for _, ds := range spec.Datasets {
		assert.Empty(t, ds.Data)
	}
	assert.Equal(t, []string{"US AQI: N/A"}, spec.TooltipAt(0, 0))
}

func TestAirQuality_WithGroup(t *testing.T) {
	s := daySlice()
	s.AirQuality = &airquality.Hourly{
		Time: s.Time,
		Series: map[airquality.Pollutant]timeseries.Series{
			airquality.PollutantUSAQI: constant(24, 42),
			airquality.PollutantPM25:  constant(24, 8.4),
		},
	}

	spec := chart.AirQuality(s)
	assert.Equal(t, chart.AxisY1, spec.Datasets[1].YAxisID)
	assert.Equal(t, []string{"US AQI: 42 (Good)"}, spec.TooltipAt(0, 5))
	assert.Equal(t, []string{"PM2.5: 8 µg/m³"}, spec.TooltipAt(1, 5))
}

func TestPrecipitation(t *testing.T) {
	s := daySlice()
	s.Series[weather.MetricPrecipitation] = constant(24, 0)
	s.Series[weather.MetricPrecipitationProbability] = constant(24, 35)

	spec := chart.Precipitation(s)
	assert.Equal(t, chart.TypeBar, spec.Type)
	assert.Equal(t, chart.TypeLine, spec.Datasets[1].Type)
	assert.Equal(t, "right", spec.Scales[chart.AxisY1].Position)
	assert.False(t, spec.Scales[chart.AxisY1].GridOnChartArea)
	assert.Equal(t, []string{"Precipitation: 0.0 mm"}, spec.TooltipAt(0, 0))
	assert.Equal(t, []string{"Probability: 35%"}, spec.TooltipAt(1, 0))
}
