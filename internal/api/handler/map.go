package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/weatherdash/weatherdash/internal/api/models"
	"github.com/weatherdash/weatherdash/internal/api/response"
	"github.com/weatherdash/weatherdash/internal/geo"
	"github.com/weatherdash/weatherdash/internal/mapview"
)

// MapHandler serves the location picker.
type MapHandler struct {
	picker *mapview.Picker
	logger zerolog.Logger
}

// NewMapHandler creates a new MapHandler.
func NewMapHandler(picker *mapview.Picker, logger zerolog.Logger) *MapHandler {
	return &MapHandler{picker: picker, logger: logger}
}

// GetMap handles GET /v1/map.
func (h *MapHandler) GetMap(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, h.picker.Snapshot())
}

// Click handles POST /v1/map/click. The click moves the marker and loads
// the weather for the position.
func (h *MapHandler) Click(w http.ResponseWriter, r *http.Request) {
	var req models.SelectLocationRequest
	if !decode(w, r, &req) {
		return
	}

	coords := geo.Coordinates{Lat: *req.Lat, Lng: *req.Lng}
	if err := h.picker.Click(r.Context(), coords); err != nil {
		h.logger.Debug().Err(err).
			Float64("lat", coords.Lat).
			Float64("lon", coords.Lng).
			Msg("map selection failed")
		writeError(w, r, err, nil, true)
		return
	}
	h.GetMap(w, r)
}

// Zoom handles POST /v1/map/zoom. The level is clamped.
func (h *MapHandler) Zoom(w http.ResponseWriter, r *http.Request) {
	var req models.ZoomRequest
	if !decode(w, r, &req) {
		return
	}

	h.picker.SetZoom(*req.Zoom)
	h.GetMap(w, r)
}

// ToggleFullscreen handles POST /v1/map/fullscreen.
func (h *MapHandler) ToggleFullscreen(w http.ResponseWriter, r *http.Request) {
	h.picker.ToggleFullscreen()
	h.GetMap(w, r)
}

// ToggleLayerControl handles POST /v1/map/layer-control.
func (h *MapHandler) ToggleLayerControl(w http.ResponseWriter, r *http.Request) {
	h.picker.ToggleLayerControl()
	h.GetMap(w, r)
}

// ToggleLayer handles POST /v1/map/layers/{name}.
func (h *MapHandler) ToggleLayer(w http.ResponseWriter, r *http.Request) {
	name := mapview.LayerName(chi.URLParam(r, "name"))
	if err := h.picker.ToggleLayer(name); err != nil {
		writeError(w, r, err, nil, false)
		return
	}
	h.GetMap(w, r)
}
