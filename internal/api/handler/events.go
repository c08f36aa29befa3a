package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/weatherdash/weatherdash/internal/api/feed"
	"github.com/weatherdash/weatherdash/internal/dashboard"
)

// DefaultHeartbeat is the interval between keep-alive comments.
const DefaultHeartbeat = 15 * time.Second

// EventsHandler streams state snapshots and chart events as server-sent
// events.
type EventsHandler struct {
	store     *dashboard.Store
	feed      *feed.Feed
	heartbeat time.Duration
	logger    zerolog.Logger
}

// NewEventsHandler creates a new EventsHandler. A nil feed streams state only.
func NewEventsHandler(store *dashboard.Store, f *feed.Feed, heartbeat time.Duration, logger zerolog.Logger) *EventsHandler {
	if heartbeat <= 0 {
		heartbeat = DefaultHeartbeat
	}
	return &EventsHandler{store: store, feed: f, heartbeat: heartbeat, logger: logger}
}

// Stream handles GET /v1/dashboard/events.
//
// Each state change is sent as a "state" event carrying the dashboard view.
// Chart changes are sent as "chart" and "chart_destroyed" events. The first
// subscriber mounts the chart surface.
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rc := http.NewResponseController(w)
	// The stream outlives the server's write timeout.
	if err := rc.SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		h.logger.Debug().Err(err).Msg("failed to clear write deadline")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		h.logger.Warn().Err(err).Msg("event stream not supported by response writer")
		return
	}

	var charts <-chan feed.Event
	if h.feed != nil {
		charts = h.feed.Subscribe(ctx)
		for tab, spec := range h.feed.Charts() {
			if err := h.send(w, rc, string(feed.EventChart), feed.Event{Kind: feed.EventChart, Tab: tab, Spec: &spec}); err != nil {
				return
			}
		}
		h.feed.Mount()
	}
	states := h.store.Watch(ctx)

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	h.logger.Debug().Str("request_id", GetRequestID(r)).Msg("event stream opened")
	defer h.logger.Debug().Str("request_id", GetRequestID(r)).Msg("event stream closed")

	for {
		var err error
		select {
		case <-ctx.Done():
			return
		case s, ok := <-states:
			if !ok {
				return
			}
			err = h.send(w, rc, "state", NewDashboardView(s))
		case ev, ok := <-charts:
			if !ok {
				return
			}
			err = h.send(w, rc, string(ev.Kind), ev)
		case <-ticker.C:
			if _, err = fmt.Fprint(w, ": ping\n\n"); err == nil {
				err = rc.Flush()
			}
		}
		if err != nil {
			return
		}
	}
}

func (h *EventsHandler) send(w http.ResponseWriter, rc *http.ResponseController, event string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		h.logger.Error().Err(err).Str("event", event).Msg("failed to encode event")
		return nil
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload); err != nil {
		return err
	}
	return rc.Flush()
}
