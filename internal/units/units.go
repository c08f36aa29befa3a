// Package units converts and formats measurement values for display.
package units

import (
	"fmt"
	"math"
)

// NotAvailable is rendered for any value that is missing.
const NotAvailable = "N/A"

// System is a unit system preference.
type System string

const (
	Metric   System = "metric"
	Imperial System = "imperial"
)

// ParseSystem maps a stored preference to a System. Anything unknown is metric.
func ParseSystem(s string) System {
	if System(s) == Imperial {
		return Imperial
	}
	return Metric
}

// Valid reports whether s is a known unit system.
func (s System) Valid() bool {
	return s == Metric || s == Imperial
}

// Round rounds half up, matching how values are displayed on the dashboard.
func Round(v float64) int {
	return int(math.Floor(v + 0.5))
}

// CelsiusToFahrenheit converts a temperature.
func CelsiusToFahrenheit(c float64) float64 {
	return c*9/5 + 32
}

// KmhToMs converts km/h to m/s.
func KmhToMs(kmh float64) float64 {
	return kmh / 3.6
}

// MsToKmh converts m/s to km/h.
func MsToKmh(ms float64) float64 {
	return ms * 3.6
}

// MetersToKm converts meters to kilometers.
func MetersToKm(m float64) float64 {
	return m / 1000
}

// FormatTempC formats a Celsius temperature, e.g. "26°C".
func FormatTempC(v *float64) string {
	if v == nil {
		return NotAvailable
	}
	return fmt.Sprintf("%d°C", Round(*v))
}

// FormatTempF converts a Celsius temperature and formats it in Fahrenheit, e.g. "77°F".
func FormatTempF(v *float64) string {
	if v == nil {
		return NotAvailable
	}
	return fmt.Sprintf("%d°F", Round(CelsiusToFahrenheit(*v)))
}

// FormatTemp formats a Celsius temperature in the given system.
func FormatTemp(v *float64, sys System) string {
	if sys == Imperial {
		return FormatTempF(v)
	}
	return FormatTempC(v)
}

var compass = [16]string{
	"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW",
}

// WindDirection maps degrees to a 16-point compass label.
func WindDirection(deg float64) string {
	idx := Round(deg/22.5) % 16
	if idx < 0 {
		idx += 16
	}
	return compass[idx]
}
