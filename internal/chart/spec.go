// Package chart builds declarative chart specifications for the forecast
// tabs. Builders are pure: they read a day slice and return a Spec that a
// renderer draws.
package chart

import (
	"time"

	"github.com/weatherdash/weatherdash/internal/timeseries"
)

// Type is a chart or dataset kind.
type Type string

const (
	TypeLine Type = "line"
	TypeBar  Type = "bar"
)

// Axis ids.
const (
	AxisX  = "x"
	AxisY  = "y"
	AxisY1 = "y1"
)

// Spec describes one chart.
type Spec struct {
	Type     Type             `json:"type"`
	Labels   []string         `json:"labels"`
	Datasets []Dataset        `json:"datasets"`
	Scales   map[string]Scale `json:"scales"`
	Legend   bool             `json:"legend"`
	Overlays []Overlay        `json:"overlays,omitempty"`

	// Tooltip returns the tooltip lines for a point.
	Tooltip func(datasetIndex, index int) []string `json:"-"`
}

// Dataset is one series of a chart.
type Dataset struct {
	Label           string            `json:"label"`
	Type            Type              `json:"type,omitempty"`
	Data            timeseries.Series `json:"data"`
	BorderColor     string            `json:"borderColor"`
	BackgroundColor string            `json:"backgroundColor,omitempty"`
	FillGradient    []GradientStop    `json:"fillGradient,omitempty"`
	PointColors     []string          `json:"pointColors,omitempty"`
	Fill            bool              `json:"fill"`
	Tension         float64           `json:"tension,omitempty"`
	YAxisID         string            `json:"yAxisID,omitempty"`
	Stack           string            `json:"stack,omitempty"`
	BorderDash      []int             `json:"borderDash,omitempty"`
	PointRadius     *float64          `json:"pointRadius,omitempty"`
	BorderWidth     float64           `json:"borderWidth,omitempty"`
}

// Scale configures an axis.
type Scale struct {
	Position        string   `json:"position,omitempty"`
	Title           string   `json:"title,omitempty"`
	BeginAtZero     bool     `json:"beginAtZero,omitempty"`
	Max             *float64 `json:"max,omitempty"`
	Stacked         bool     `json:"stacked,omitempty"`
	TickSuffix      string   `json:"tickSuffix,omitempty"`
	GridOnChartArea bool     `json:"gridOnChartArea"`
}

// OverlayWindArrow marks a wind direction arrow drawn above the chart.
const OverlayWindArrow = "wind-arrow"

// Overlay is a glyph drawn at a data index.
type Overlay struct {
	Kind    string  `json:"kind"`
	Index   int     `json:"index"`
	Degrees float64 `json:"degrees"`
}

// Points reports how many points the spec has.
func (s Spec) Points() int {
	return len(s.Labels)
}

// TooltipAt returns the tooltip lines for a point, or nil.
func (s Spec) TooltipAt(datasetIndex, index int) []string {
	if s.Tooltip == nil {
		return nil
	}
	return s.Tooltip(datasetIndex, index)
}

const timeLayout = "2006-01-02T15:04"

// Labels returns "HH:MM" for even indices and "" for odd ones.
func Labels(times []string) []string {
	out := make([]string, len(times))
	for i, ts := range times {
		if i%2 != 0 {
			continue
		}
		if t, err := time.Parse(timeLayout, ts); err == nil {
			out[i] = t.Format("15:04")
		} else {
			out[i] = ts
		}
	}
	return out
}

func radius(v float64) *float64 {
	return &v
}

func max100() *float64 {
	v := 100.0
	return &v
}
