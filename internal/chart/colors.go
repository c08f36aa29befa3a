package chart

import (
	"fmt"
	"math"
	"sort"

	"github.com/weatherdash/weatherdash/internal/timeseries"
)

// Temperature band colors.
const (
	ColorCold = "#3B82F6"
	ColorMild = "#F97316"
	ColorHot  = "#EF4444"
)

// TemperatureColor returns the band color for a temperature in °C.
func TemperatureColor(t float64) string {
	switch {
	case t < 16:
		return ColorCold
	case t <= 26:
		return ColorMild
	default:
		return ColorHot
	}
}

// RGB is an 8-bit color.
type RGB struct {
	R, G, B int
}

// RGBA formats the color with alpha.
func (c RGB) RGBA(alpha float64) string {
	return fmt.Sprintf("rgba(%d, %d, %d, %g)", c.R, c.G, c.B, alpha)
}

func lerp(from, to, f float64) int {
	return int(math.Round(from + (to-from)*f))
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// TemperatureRGB interpolates a color within the cold, mild and hot bands.
func TemperatureRGB(t float64) RGB {
	switch {
	case t < 16:
		f := clamp01((t + 10) / 26)
		return RGB{R: lerp(59, 100, f), G: lerp(130, 150, f), B: 246}
	case t < 26:
		f := (t - 16) / 10
		return RGB{R: lerp(100, 255, f), G: lerp(150, 165, f), B: lerp(246, 0, f)}
	default:
		f := math.Min(1, (t-26)/14)
		return RGB{R: lerp(255, 220, f), G: lerp(165, 38, f), B: lerp(0, 38, f)}
	}
}

// GradientStop is a color position in a vertical fill gradient.
type GradientStop struct {
	Position float64 `json:"position"`
	Color    string  `json:"color"`
}

// TemperatureGradient returns the fill stops for temps: one stop per present
// value ordered by temperature and spread evenly. A flat series yields two
// stops fading from 0.3 to 0.1 alpha.
func TemperatureGradient(temps timeseries.Series) []GradientStop {
	var values []float64
	for _, v := range temps {
		if v != nil {
			values = append(values, *v)
		}
	}
	if len(values) == 0 {
		return nil
	}

	sort.Float64s(values)
	lo, hi := values[0], values[len(values)-1]
	if hi-lo == 0 {
		c := TemperatureRGB(values[0])
		return []GradientStop{
			{Position: 0, Color: c.RGBA(0.3)},
			{Position: 1, Color: c.RGBA(0.1)},
		}
	}

	stops := make([]GradientStop, len(values))
	for i, v := range values {
		stops[i] = GradientStop{
			Position: float64(i) / float64(len(values)-1),
			Color:    TemperatureRGB(v).RGBA(0.3),
		}
	}
	return stops
}

// pointColors returns an opaque per-point color; missing points are empty.
func pointColors(temps timeseries.Series) []string {
	out := make([]string, len(temps))
	for i, v := range temps {
		if v != nil {
			out[i] = TemperatureRGB(*v).RGBA(1)
		}
	}
	return out
}
