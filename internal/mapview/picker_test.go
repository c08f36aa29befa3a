package mapview_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weatherdash/weatherdash/internal/geo"
	"github.com/weatherdash/weatherdash/internal/mapview"
)

type mockRenderer struct {
	mu      sync.Mutex
	created []geo.Coordinates
	moved   []geo.Coordinates
}

func (m *mockRenderer) CreateMarkers(c geo.Coordinates) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created = append(m.created, c)
}

func (m *mockRenderer) MoveMarkers(c geo.Coordinates) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.moved = append(m.moved, c)
}

func activeLayers(s mapview.Snapshot) []mapview.LayerName {
	var out []mapview.LayerName
	for _, l := range s.Layers {
		if l.Active {
			out = append(out, l.Name)
		}
	}
	return out
}

func TestPicker_Defaults(t *testing.T) {
	p := mapview.NewPicker(mapview.Config{Logger: zerolog.Nop()})
	s := p.Snapshot()

	assert.Equal(t, geo.Default, s.Center)
	require.NotNil(t, s.Marker, "the marker starts at the center")
	assert.Equal(t, geo.Default, *s.Marker)
	assert.Equal(t, mapview.DefaultZoom, s.Zoom)
	assert.Equal(t, []mapview.LayerName{mapview.LayerOpenStreetMap}, activeLayers(s))
	require.Len(t, s.Layers, 2)
	assert.Contains(t, s.Layers[1].URL, "World_Imagery")
	assert.Contains(t, s.Layers[1].Attribution, "Esri")
}

func TestPicker_ToggleLayer(t *testing.T) {
	p := mapview.NewPicker(mapview.Config{Logger: zerolog.Nop()})

	require.NoError(t, p.ToggleLayer(mapview.LayerSatellite))
	assert.Equal(t, []mapview.LayerName{mapview.LayerSatellite}, activeLayers(p.Snapshot()))

	require.NoError(t, p.ToggleLayer(mapview.LayerSatellite))
	assert.Empty(t, activeLayers(p.Snapshot()))
	_, ok := p.ActiveLayer()
	assert.False(t, ok)

	require.NoError(t, p.ToggleLayer(mapview.LayerOpenStreetMap))
	l, ok := p.ActiveLayer()
	require.True(t, ok)
	assert.Equal(t, mapview.LayerOpenStreetMap, l.Name)

	assert.ErrorIs(t, p.ToggleLayer("Terrain"), mapview.ErrUnknownLayer)
	assert.Len(t, activeLayers(p.Snapshot()), 1)
}

func TestPicker_FullscreenClosesLayerControl(t *testing.T) {
	p := mapview.NewPicker(mapview.Config{Logger: zerolog.Nop()})

	assert.True(t, p.ToggleLayerControl())
	assert.True(t, p.ToggleFullscreen())
	assert.False(t, p.Snapshot().LayerControlOpen)

	assert.True(t, p.ToggleLayerControl())
	assert.False(t, p.ToggleFullscreen())
	assert.True(t, p.Snapshot().LayerControlOpen, "leaving fullscreen keeps the panel")
}

func TestPicker_SetZoomClamps(t *testing.T) {
	p := mapview.NewPicker(mapview.Config{Logger: zerolog.Nop()})

	tests := []struct {
		in, want int
	}{
		{0, 1},
		{-4, 1},
		{1, 1},
		{8, 8},
		{19, 19},
		{25, 19},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, p.SetZoom(tt.in), "SetZoom(%d)", tt.in)
	}
}

func TestPicker_OverlayVisible(t *testing.T) {
	tests := []struct {
		name       string
		weather    bool
		fullscreen bool
		zoom       int
		want       bool
	}{
		{"all conditions", true, true, 8, true},
		{"zoomed in", true, true, 9, false},
		{"not fullscreen", true, false, 5, false},
		{"no weather", false, true, 5, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := mapview.NewPicker(mapview.Config{Logger: zerolog.Nop()})
			p.SetWeatherAvailable(tt.weather)
			if tt.fullscreen {
				p.ToggleFullscreen()
			}
			p.SetZoom(tt.zoom)
			assert.Equal(t, tt.want, p.OverlayVisible())
			assert.Equal(t, tt.want, p.Snapshot().OverlayVisible)
		})
	}
}

func TestPicker_SetCoordsCreatesMarkerOnce(t *testing.T) {
	r := &mockRenderer{}
	p := mapview.NewPicker(mapview.Config{Renderer: r, Logger: zerolog.Nop()})
	assert.Equal(t, []geo.Coordinates{geo.Default}, r.created, "markers are seeded at the default position")

	a := geo.Coordinates{Lat: 52.52, Lng: 13.405}
	b := geo.Coordinates{Lat: 48.85, Lng: 2.35}

	p.SetCoords(geo.Default)
	p.SetCoords(a)
	p.SetCoords(a)
	p.SetCoords(b)
	p.SetCoords(geo.Coordinates{Lat: 100, Lng: 0})

	assert.Equal(t, []geo.Coordinates{geo.Default}, r.created)
	assert.Equal(t, []geo.Coordinates{a, b}, r.moved)

	s := p.Snapshot()
	require.NotNil(t, s.Marker)
	assert.Equal(t, b, *s.Marker)
	assert.Equal(t, b, s.Center)
}

func TestPicker_SeedsMarkerAtConfiguredCenter(t *testing.T) {
	r := &mockRenderer{}
	c := geo.Coordinates{Lat: 41.9, Lng: 12.5}
	p := mapview.NewPicker(mapview.Config{Renderer: r, Center: &c, Logger: zerolog.Nop()})

	assert.Equal(t, []geo.Coordinates{c}, r.created)
	assert.Empty(t, r.moved)
	assert.Equal(t, c, *p.Snapshot().Marker)
}

func TestPicker_Click(t *testing.T) {
	var got []geo.Coordinates
	p := mapview.NewPicker(mapview.Config{
		Logger: zerolog.Nop(),
		OnSelect: func(_ context.Context, c geo.Coordinates) error {
			got = append(got, c)
			return nil
		},
	})

	c := geo.Coordinates{Lat: 41.9, Lng: 12.5}
	require.NoError(t, p.Click(context.Background(), c))
	assert.Equal(t, []geo.Coordinates{c}, got)
	assert.Equal(t, c, *p.Snapshot().Marker)

	err := p.Click(context.Background(), geo.Coordinates{Lat: 0, Lng: 200})
	assert.ErrorIs(t, err, mapview.ErrInvalidCoordinates)
	assert.Len(t, got, 1)
}

func TestPicker_ClickPropagatesSelectError(t *testing.T) {
	boom := errors.New("boom")
	p := mapview.NewPicker(mapview.Config{
		Logger:   zerolog.Nop(),
		OnSelect: func(context.Context, geo.Coordinates) error { return boom },
	})

	assert.ErrorIs(t, p.Click(context.Background(), geo.Coordinates{Lat: 1, Lng: 1}), boom)
}
