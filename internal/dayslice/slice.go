// Package dayslice derives one day's view of a weather record: the 24-hour
// window of every hourly series, formatted current values, classifications,
// per-tab detail cards and the daily card strip.
package dayslice

import (
	"github.com/weatherdash/weatherdash/internal/airquality"
	"github.com/weatherdash/weatherdash/internal/pollen"
	"github.com/weatherdash/weatherdash/internal/timeseries"
	"github.com/weatherdash/weatherdash/internal/weather"
)

// Slice is the hourly data of a single day.
type Slice struct {
	DayIndex int
	Time     []string
	Series   map[weather.Metric]timeseries.Series

	// AirQuality and Pollen are nil when the record has no such group.
	AirQuality *airquality.Hourly
	Pollen     *pollen.Hourly
}

// Select windows every hourly series to day dayIndex. Out-of-range days and
// series shorter than the window yield empty series. The input is not modified.
func Select(h weather.Hourly, dayIndex int) Slice {
	start := dayIndex * weather.HoursPerDay
	end := start + weather.HoursPerDay

	s := Slice{
		DayIndex: dayIndex,
		Time:     timeseries.WindowStrings(h.Time, start, end),
		Series:   make(map[weather.Metric]timeseries.Series, len(weather.HourlyMetrics())),
	}
	for _, m := range weather.HourlyMetrics() {
		s.Series[m] = h.Get(m).Window(start, end)
	}
	s.AirQuality = h.AirQuality.Window(start, end)
	s.Pollen = h.Pollen.Window(start, end)
	return s
}

// Get returns the day's series for m, never nil.
func (s Slice) Get(m weather.Metric) timeseries.Series {
	if v, ok := s.Series[m]; ok && v != nil {
		return v
	}
	return timeseries.Series{}
}

// HasData reports whether the slice has a time axis.
func (s Slice) HasData() bool {
	return len(s.Time) > 0
}

// DayCount returns the number of whole days in h.
func DayCount(h weather.Hourly) int {
	return len(h.Time) / weather.HoursPerDay
}

// DefaultDay is the initially selected day. Forecasts carry one past day, so
// index 1 is today.
const DefaultDay = 1

// ClampDay limits i to [0, count-1]. It returns 0 when count is zero.
func ClampDay(i, count int) int {
	if count <= 0 || i < 0 {
		return 0
	}
	if i >= count {
		return count - 1
	}
	return i
}
