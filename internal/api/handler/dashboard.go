package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/weatherdash/weatherdash/internal/api/models"
	"github.com/weatherdash/weatherdash/internal/api/response"
	"github.com/weatherdash/weatherdash/internal/dashboard"
	"github.com/weatherdash/weatherdash/internal/dayslice"
	"github.com/weatherdash/weatherdash/internal/geo"
	"github.com/weatherdash/weatherdash/internal/history"
	"github.com/weatherdash/weatherdash/internal/units"
)

// DashboardHandler serves the dashboard state and its transitions.
type DashboardHandler struct {
	dash   *dashboard.Dashboard
	logger zerolog.Logger
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(dash *dashboard.Dashboard, logger zerolog.Logger) *DashboardHandler {
	return &DashboardHandler{dash: dash, logger: logger}
}

// GetDashboard handles GET /v1/dashboard.
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, NewDashboardView(h.dash.Store().Snapshot()))
}

// Search handles POST /v1/search.
func (h *DashboardHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req models.SearchRequest
	if !decode(w, r, &req) {
		return
	}

	if _, err := h.dash.Search(r.Context(), req.Query); err != nil {
		h.fail(w, r, err, true)
		return
	}
	h.GetDashboard(w, r)
}

// SelectLocation handles POST /v1/locations/select.
func (h *DashboardHandler) SelectLocation(w http.ResponseWriter, r *http.Request) {
	var req models.SelectLocationRequest
	if !decode(w, r, &req) {
		return
	}

	coords := geo.Coordinates{Lat: *req.Lat, Lng: *req.Lng}
	if _, err := h.dash.SelectLocation(r.Context(), coords); err != nil {
		h.fail(w, r, err, true)
		return
	}
	h.GetDashboard(w, r)
}

// ListHistory handles GET /v1/history.
func (h *DashboardHandler) ListHistory(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, models.HistoryList{Items: h.dash.History()})
}

// LoadHistory handles POST /v1/history/{id}/load.
func (h *DashboardHandler) LoadHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.dash.LoadHistoryItem(r.Context(), id); err != nil {
		h.fail(w, r, err, true)
		return
	}
	h.GetDashboard(w, r)
}

// RemoveHistory handles DELETE /v1/history/{id}.
func (h *DashboardHandler) RemoveHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.dash.RemoveHistoryItem(r.Context(), id); err != nil {
		h.fail(w, r, err, false)
		return
	}
	response.NoContent(w, r)
}

// SetUnits handles PUT /v1/preferences/units.
func (h *DashboardHandler) SetUnits(w http.ResponseWriter, r *http.Request) {
	var req models.UnitsRequest
	if !decode(w, r, &req) {
		return
	}

	if err := h.dash.SetUnits(r.Context(), units.System(req.Units)); err != nil {
		h.fail(w, r, err, false)
		return
	}
	h.GetDashboard(w, r)
}

// SetTab handles PUT /v1/view/tab.
func (h *DashboardHandler) SetTab(w http.ResponseWriter, r *http.Request) {
	var req models.TabRequest
	if !decode(w, r, &req) {
		return
	}

	if err := h.dash.SetActiveTab(dayslice.Tab(req.Tab)); err != nil {
		h.fail(w, r, err, false)
		return
	}
	h.GetDashboard(w, r)
}

// SetDay handles PUT /v1/view/day. Out-of-range indexes are clamped.
func (h *DashboardHandler) SetDay(w http.ResponseWriter, r *http.Request) {
	var req models.DayRequest
	if !decode(w, r, &req) {
		return
	}

	h.dash.SelectDay(*req.Index)
	h.GetDashboard(w, r)
}

// Details handles GET /v1/view/details.
func (h *DashboardHandler) Details(w http.ResponseWriter, r *http.Request) {
	state := h.dash.Store().Snapshot()
	title, details := h.dash.Details()
	if details == nil {
		details = []dayslice.Detail{}
	}
	response.JSON(w, r, http.StatusOK, models.DetailsResponse{
		Tab:         state.ActiveTab,
		Title:       title,
		SelectedDay: state.SelectedDay,
		Details:     details,
	})
}

// Cards handles GET /v1/view/cards.
func (h *DashboardHandler) Cards(w http.ResponseWriter, r *http.Request) {
	cards := h.dash.Cards()
	if cards == nil {
		cards = []dayslice.DailyCard{}
	}
	response.JSON(w, r, http.StatusOK, models.CardsResponse{
		SelectedDay: h.dash.Store().Snapshot().SelectedDay,
		Cards:       cards,
	})
}

// Chart handles GET /v1/view/charts/{tab}.
func (h *DashboardHandler) Chart(w http.ResponseWriter, r *http.Request) {
	tab := dayslice.Tab(chi.URLParam(r, "tab"))
	spec, err := h.dash.Chart(tab)
	if err != nil {
		h.fail(w, r, err, false)
		return
	}
	response.JSON(w, r, http.StatusOK, models.ChartResponse{
		Tab:         tab,
		SelectedDay: h.dash.Store().Snapshot().SelectedDay,
		Spec:        spec,
	})
}

// DismissError handles DELETE /v1/dashboard/error.
func (h *DashboardHandler) DismissError(w http.ResponseWriter, r *http.Request) {
	h.dash.DismissError()
	response.NoContent(w, r)
}

func (h *DashboardHandler) fail(w http.ResponseWriter, r *http.Request, err error, upstream bool) {
	inline := h.dash.Store().Snapshot().Error
	h.logger.Debug().Err(err).
		Str("request_id", GetRequestID(r)).
		Str("path", r.URL.Path).
		Msg("dashboard request failed")
	writeError(w, r, err, inline, upstream)
}

// NewDashboardView converts a state snapshot into its wire form.
func NewDashboardView(s dashboard.State) models.Dashboard {
	view := models.Dashboard{
		Coords:      s.Coords,
		Units:       s.Units,
		ActiveTab:   s.ActiveTab,
		SelectedDay: s.SelectedDay,
		Loading:     s.Loading,
		History:     s.History,
	}
	if view.History == nil {
		view.History = []history.Entry{}
	}
	for _, t := range dayslice.Tabs() {
		view.Tabs = append(view.Tabs, models.TabInfo{ID: t, Label: t.Label()})
	}
	if s.Error != nil {
		view.Error = &models.InlineError{Kind: string(s.Error.Kind), Message: s.Error.Message}
	}
	if rec := s.Record; rec != nil {
		view.Location = &models.LocationSummary{
			Name:      rec.Name,
			FullName:  rec.FullName,
			Coords:    rec.Coords,
			Timezone:  rec.Timezone,
			FetchedAt: rec.FetchedAt,
			DayCount:  rec.DayCount(),
			Current:   rec.Current,
		}
	}
	return view
}
