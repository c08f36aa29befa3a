package models

import (
	"time"

	"github.com/weatherdash/weatherdash/internal/chart"
	"github.com/weatherdash/weatherdash/internal/dayslice"
	"github.com/weatherdash/weatherdash/internal/geo"
	"github.com/weatherdash/weatherdash/internal/history"
	"github.com/weatherdash/weatherdash/internal/units"
	"github.com/weatherdash/weatherdash/internal/weather"
)

// SearchRequest is the body of POST /v1/search.
type SearchRequest struct {
	Query string `json:"query" validate:"required"`
}

// SelectLocationRequest is the body of POST /v1/locations/select and
// POST /v1/map/click. Pointers keep 0 a valid coordinate.
type SelectLocationRequest struct {
	Lat *float64 `json:"lat" validate:"required,gte=-90,lte=90"`
	Lng *float64 `json:"lng" validate:"required,gte=-180,lte=180"`
}

// UnitsRequest is the body of PUT /v1/preferences/units.
type UnitsRequest struct {
	Units string `json:"units" validate:"required,oneof=metric imperial"`
}

// TabRequest is the body of PUT /v1/view/tab.
type TabRequest struct {
	Tab string `json:"tab" validate:"required"`
}

// DayRequest is the body of PUT /v1/view/day.
type DayRequest struct {
	Index *int `json:"index" validate:"required"`
}

// ZoomRequest is the body of POST /v1/map/zoom.
type ZoomRequest struct {
	Zoom *int `json:"zoom" validate:"required"`
}

// InlineError is the dismissible error banner.
type InlineError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// LocationSummary describes the displayed record.
type LocationSummary struct {
	Name      string          `json:"name"`
	FullName  string          `json:"fullName"`
	Coords    geo.Coordinates `json:"coords"`
	Timezone  string          `json:"timezone"`
	FetchedAt time.Time       `json:"fetchedAt"`
	DayCount  int             `json:"dayCount"`
	Current   weather.Current `json:"current"`
}

// Dashboard is the state snapshot served by GET /v1/dashboard and streamed
// as state events.
type Dashboard struct {
	Coords      geo.Coordinates  `json:"coords"`
	Location    *LocationSummary `json:"location,omitempty"`
	Units       units.System     `json:"units"`
	ActiveTab   dayslice.Tab     `json:"activeTab"`
	Tabs        []TabInfo        `json:"tabs"`
	SelectedDay int              `json:"selectedDay"`
	Loading     bool             `json:"loading"`
	Error       *InlineError     `json:"error,omitempty"`
	History     []history.Entry  `json:"history"`
}

// TabInfo names a tab.
type TabInfo struct {
	ID    dayslice.Tab `json:"id"`
	Label string       `json:"label"`
}

// HistoryList is the response of GET /v1/history.
type HistoryList struct {
	Items []history.Entry `json:"items"`
}

// DetailsResponse is the response of GET /v1/view/details.
type DetailsResponse struct {
	Tab         dayslice.Tab      `json:"tab"`
	Title       string            `json:"title"`
	SelectedDay int               `json:"selectedDay"`
	Details     []dayslice.Detail `json:"details"`
}

// CardsResponse is the response of GET /v1/view/cards.
type CardsResponse struct {
	SelectedDay int                  `json:"selectedDay"`
	Cards       []dayslice.DailyCard `json:"cards"`
}

// ChartResponse is the response of GET /v1/view/charts/{tab}.
type ChartResponse struct {
	Tab         dayslice.Tab `json:"tab"`
	SelectedDay int          `json:"selectedDay"`
	Spec        chart.Spec   `json:"spec"`
}
