// Package geo holds coordinate and place types shared across the dashboard.
package geo

import (
	"fmt"
	"math"
)

// Coordinates is a WGS84 point.
type Coordinates struct {
	Lat float64 `json:"lat" validate:"min=-90,max=90"`
	Lng float64 `json:"lng" validate:"min=-180,max=180"`
}

// Default is the fallback location used when nothing else resolves (Frankfurt am Main).
var Default = Coordinates{Lat: 50.110644, Lng: 8.68}

// Valid reports whether the coordinates are finite and within range.
func (c Coordinates) Valid() bool {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lng) || math.IsInf(c.Lat, 0) || math.IsInf(c.Lng, 0) {
		return false
	}
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

// OrDefault returns c when valid, otherwise Default.
func (c Coordinates) OrDefault() Coordinates {
	if c.Valid() {
		return c
	}
	return Default
}

func (c Coordinates) String() string {
	return fmt.Sprintf("%.4f,%.4f", c.Lat, c.Lng)
}

// WithinDistance reports whether a and b differ by at most epsilon degrees on both axes.
func WithinDistance(a, b Coordinates, epsilon float64) bool {
	return math.Abs(a.Lat-b.Lat) <= epsilon && math.Abs(a.Lng-b.Lng) <= epsilon
}

// LocationInfo is the human readable label for a place.
type LocationInfo struct {
	CityName string `json:"cityName"`
	FullName string `json:"fullName"`
}

// Place is a resolved location.
type Place struct {
	Coords  Coordinates  `json:"coords"`
	Info    LocationInfo `json:"info"`
	IPBased bool         `json:"isIPBased,omitempty"`
}

// BoundingBox represents a geographic bounding box.
type BoundingBox struct {
	MinLat float64
	MaxLat float64
	MinLng float64
	MaxLng float64
}

// Contains checks if a point is within the bounding box.
func (b BoundingBox) Contains(c Coordinates) bool {
	return c.Lat >= b.MinLat && c.Lat <= b.MaxLat &&
		c.Lng >= b.MinLng && c.Lng <= b.MaxLng
}

// Center returns the center point of the bounding box.
func (b BoundingBox) Center() Coordinates {
	return Coordinates{Lat: (b.MinLat + b.MaxLat) / 2, Lng: (b.MinLng + b.MaxLng) / 2}
}

// Europe approximates the CAMS European model domain. Pollen forecasts exist only inside it.
var Europe = BoundingBox{MinLat: 30, MaxLat: 72, MinLng: -25, MaxLng: 45}
