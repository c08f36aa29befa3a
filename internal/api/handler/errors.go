package handler

import (
	"errors"
	"net/http"

	"github.com/weatherdash/weatherdash/internal/api/response"
	"github.com/weatherdash/weatherdash/internal/dashboard"
	"github.com/weatherdash/weatherdash/internal/history"
	"github.com/weatherdash/weatherdash/internal/mapview"
)

// writeError maps a domain error to a problem response. The inline view
// error, when present, becomes the detail of lookup and fetch failures.
// Errors without a mapping are reported as upstream failures when upstream
// is set, and as internal errors otherwise.
func writeError(w http.ResponseWriter, r *http.Request, err error, inline *dashboard.ViewError, upstream bool) {
	detail := err.Error()
	if inline != nil && (upstream || errors.Is(err, dashboard.ErrNotFound)) {
		detail = inline.Message
	}

	switch {
	case errors.Is(err, dashboard.ErrSuperseded):
		response.Superseded(w, r)
	case errors.Is(err, dashboard.ErrNotFound),
		errors.Is(err, dashboard.ErrNoData),
		errors.Is(err, history.ErrEntryNotFound),
		errors.Is(err, mapview.ErrUnknownLayer):
		response.NotFound(w, r, detail)
	case errors.Is(err, history.ErrPermanentEntry):
		response.Conflict(w, r, "the current location entry cannot be removed")
	case errors.Is(err, dashboard.ErrEmptyQuery),
		errors.Is(err, dashboard.ErrInvalidUnits),
		errors.Is(err, dashboard.ErrInvalidCoordinates),
		errors.Is(err, dashboard.ErrUnknownTab),
		errors.Is(err, mapview.ErrInvalidCoordinates):
		response.BadRequest(w, r, err.Error(), nil)
	case upstream:
		response.UpstreamError(w, r, detail)
	default:
		response.InternalError(w, r, "an unexpected error occurred")
	}
}
