// Package mapview holds the state of the location picker map: base layers,
// zoom, fullscreen mode and the position marker.
package mapview

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/weatherdash/weatherdash/internal/geo"
)

// Picker errors.
var (
	ErrUnknownLayer       = errors.New("unknown map layer")
	ErrInvalidCoordinates = errors.New("invalid coordinates")
)

const (
	MinZoom     = 1
	MaxZoom     = 19
	DefaultZoom = 10

	// OverlayMaxZoom is the highest zoom at which the weather overlay shows.
	OverlayMaxZoom = 8
)

// LayerName identifies a base layer.
type LayerName string

const (
	LayerOpenStreetMap LayerName = "OpenStreetMap"
	LayerSatellite     LayerName = "Satellite"
)

// Layer is a base tile layer.
type Layer struct {
	Name        LayerName `json:"name"`
	URL         string    `json:"url"`
	Attribution string    `json:"attribution"`
	Active      bool      `json:"active"`
}

// DefaultLayers returns the base layers with OpenStreetMap active.
func DefaultLayers() []Layer {
	return []Layer{
		{
			Name:        LayerOpenStreetMap,
			URL:         "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png",
			Attribution: `&copy; <a href="https://www.openstreetmap.org/copyright">OpenStreetMap</a> contributors`,
			Active:      true,
		},
		{
			Name:        LayerSatellite,
			URL:         "https://server.arcgisonline.com/ArcGIS/rest/services/World_Imagery/MapServer/tile/{z}/{y}/{x}",
			Attribution: `&copy; <a href="https://www.esri.com/">Esri</a>`,
		},
	}
}

// Renderer draws the position marker and its pulse halo.
type Renderer interface {
	CreateMarkers(c geo.Coordinates)
	MoveMarkers(c geo.Coordinates)
}

// SelectFunc receives a picked position.
type SelectFunc func(ctx context.Context, c geo.Coordinates) error

// Config holds configuration for a picker.
type Config struct {
	// Center is the initial map center (default: geo.Default).
	Center *geo.Coordinates

	// Renderer draws markers (optional).
	Renderer Renderer

	// OnSelect is called for every valid click.
	OnSelect SelectFunc

	Logger zerolog.Logger
}

// Snapshot is the picker state as shown to the view.
type Snapshot struct {
	Center           geo.Coordinates  `json:"center"`
	Marker           *geo.Coordinates `json:"marker,omitempty"`
	Zoom             int              `json:"zoom"`
	Fullscreen       bool             `json:"fullscreen"`
	LayerControlOpen bool             `json:"layerControlOpen"`
	Layers           []Layer          `json:"layers"`
	WeatherAvailable bool             `json:"weatherAvailable"`
	OverlayVisible   bool             `json:"overlayVisible"`
}

// Picker is the map state. It is safe for concurrent use.
type Picker struct {
	renderer Renderer
	onSelect SelectFunc
	logger   zerolog.Logger

	mu               sync.Mutex
	center           geo.Coordinates
	marker           *geo.Coordinates
	zoom             int
	fullscreen       bool
	layerControlOpen bool
	layers           []Layer
	weatherAvailable bool
}

// NewPicker creates a picker at cfg.Center with the default layers. The
// markers are created at the center straight away.
func NewPicker(cfg Config) *Picker {
	center := geo.Default
	if cfg.Center != nil {
		center = cfg.Center.OrDefault()
	}
	p := &Picker{
		renderer: cfg.Renderer,
		onSelect: cfg.OnSelect,
		logger:   cfg.Logger,
		center:   center,
		marker:   &center,
		zoom:     DefaultZoom,
		layers:   DefaultLayers(),
	}
	if p.renderer != nil {
		p.renderer.CreateMarkers(center)
	}
	return p
}

// ToggleLayer activates name and deactivates every other layer, or
// deactivates name when it is already active.
func (p *Picker) ToggleLayer(name LayerName) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	idx := -1
	for i, l := range p.layers {
		if l.Name == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrUnknownLayer
	}

	if p.layers[idx].Active {
		p.layers[idx].Active = false
		return nil
	}
	for i := range p.layers {
		p.layers[i].Active = i == idx
	}
	return nil
}

// ToggleFullscreen switches fullscreen mode. Entering fullscreen closes the
// layer control.
func (p *Picker) ToggleFullscreen() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.fullscreen = !p.fullscreen
	if p.fullscreen {
		p.layerControlOpen = false
	}
	return p.fullscreen
}

// ToggleLayerControl opens or closes the layer panel.
func (p *Picker) ToggleLayerControl() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.layerControlOpen = !p.layerControlOpen
	return p.layerControlOpen
}

// SetZoom sets the zoom level, clamped to [MinZoom, MaxZoom], and returns it.
func (p *Picker) SetZoom(z int) int {
	switch {
	case z < MinZoom:
		z = MinZoom
	case z > MaxZoom:
		z = MaxZoom
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.zoom = z
	return z
}

// SetWeatherAvailable records whether a weather record is displayed.
func (p *Picker) SetWeatherAvailable(ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.weatherAvailable = ok
}

// OverlayVisible reports whether the weather overlay shows: only with weather,
// in fullscreen and zoomed out to OverlayMaxZoom or less.
func (p *Picker) OverlayVisible() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.overlayVisibleLocked()
}

func (p *Picker) overlayVisibleLocked() bool {
	return p.weatherAvailable && p.fullscreen && p.zoom <= OverlayMaxZoom
}

// SetCoords moves the marker and its halo to c. The markers are never
// recreated.
func (p *Picker) SetCoords(c geo.Coordinates) {
	if !c.Valid() {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if *p.marker == c {
		return
	}
	p.marker = &c
	p.center = c

	if p.renderer != nil {
		p.renderer.MoveMarkers(c)
	}
}

// Click handles a map click: the marker moves and the position is passed to
// OnSelect.
func (p *Picker) Click(ctx context.Context, c geo.Coordinates) error {
	if !c.Valid() {
		return ErrInvalidCoordinates
	}

	p.logger.Debug().Float64("lat", c.Lat).Float64("lon", c.Lng).Msg("map position selected")
	p.SetCoords(c)

	if p.onSelect == nil {
		return nil
	}
	return p.onSelect(ctx, c)
}

// Snapshot returns a copy of the picker state.
func (p *Picker) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := Snapshot{
		Center:           p.center,
		Zoom:             p.zoom,
		Fullscreen:       p.fullscreen,
		LayerControlOpen: p.layerControlOpen,
		Layers:           append([]Layer(nil), p.layers...),
		WeatherAvailable: p.weatherAvailable,
		OverlayVisible:   p.overlayVisibleLocked(),
	}
	m := *p.marker
	s.Marker = &m
	return s
}

// ActiveLayer returns the active layer, if any.
func (p *Picker) ActiveLayer() (Layer, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, l := range p.layers {
		if l.Active {
			return l, true
		}
	}
	return Layer{}, false
}

// LogRenderer is a Renderer for headless hosts. It only logs marker changes.
type LogRenderer struct {
	Logger zerolog.Logger
}

// CreateMarkers logs the initial marker position.
func (r LogRenderer) CreateMarkers(c geo.Coordinates) {
	r.Logger.Debug().Float64("lat", c.Lat).Float64("lon", c.Lng).Msg("map markers created")
}

// MoveMarkers logs a marker move.
func (r LogRenderer) MoveMarkers(c geo.Coordinates) {
	r.Logger.Debug().Float64("lat", c.Lat).Float64("lon", c.Lng).Msg("map markers moved")
}
