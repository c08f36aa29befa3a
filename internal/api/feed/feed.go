// Package feed renders chart specs for remote renderers. Charts are kept as
// live specs and streamed to subscribers as events; the surface counts as
// mounted once the first renderer connects.
package feed

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/weatherdash/weatherdash/internal/chart"
	"github.com/weatherdash/weatherdash/internal/dashboard"
	"github.com/weatherdash/weatherdash/internal/dayslice"
)

// EventKind identifies a feed event.
type EventKind string

const (
	EventChart          EventKind = "chart"
	EventChartDestroyed EventKind = "chart_destroyed"
)

// Event is one change to the set of live charts.
type Event struct {
	Kind EventKind    `json:"kind"`
	Tab  dayslice.Tab `json:"tab"`
	Spec *chart.Spec  `json:"spec,omitempty"`
}

// subscriberBuffer bounds how far a slow renderer may fall behind before
// events are dropped for it.
const subscriberBuffer = 32

// Feed implements dashboard.Renderer.
type Feed struct {
	logger zerolog.Logger

	mountOnce sync.Once
	mounted   chan struct{}

	mu     sync.Mutex
	charts map[dayslice.Tab]*handle
	subs   map[int]chan Event
	nextID int
}

// New creates an unmounted feed.
func New(logger zerolog.Logger) *Feed {
	return &Feed{
		logger:  logger,
		mounted: make(chan struct{}),
		charts:  make(map[dayslice.Tab]*handle),
		subs:    make(map[int]chan Event),
	}
}

// Mounted is closed by the first Mount.
func (f *Feed) Mounted() <-chan struct{} {
	return f.mounted
}

// Mount marks the surface ready. Later calls are no-ops.
func (f *Feed) Mount() {
	f.mountOnce.Do(func() {
		close(f.mounted)
		f.logger.Debug().Msg("chart surface mounted")
	})
}

// IsMounted reports whether Mount has been called.
func (f *Feed) IsMounted() bool {
	select {
	case <-f.mounted:
		return true
	default:
		return false
	}
}

// Render publishes spec as the live chart for tab.
func (f *Feed) Render(ctx context.Context, tab dayslice.Tab, spec chart.Spec) (dashboard.ChartHandle, error) {
	if !f.IsMounted() {
		return nil, dashboard.ErrNotMounted
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	h := &handle{feed: f, tab: tab, spec: spec}

	f.mu.Lock()
	f.charts[tab] = h
	f.publishLocked(Event{Kind: EventChart, Tab: tab, Spec: &h.spec})
	f.mu.Unlock()

	return h, nil
}

// Charts returns the live specs by tab.
func (f *Feed) Charts() map[dayslice.Tab]chart.Spec {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make(map[dayslice.Tab]chart.Spec, len(f.charts))
	for tab, h := range f.charts {
		out[tab] = h.spec
	}
	return out
}

// Subscribe streams events until ctx is done. The channel is closed on
// cancellation.
func (f *Feed) Subscribe(ctx context.Context) <-chan Event {
	ch := make(chan Event, subscriberBuffer)

	f.mu.Lock()
	id := f.nextID
	f.nextID++
	f.subs[id] = ch
	f.mu.Unlock()

	go func() {
		<-ctx.Done()
		f.mu.Lock()
		delete(f.subs, id)
		close(ch)
		f.mu.Unlock()
	}()

	return ch
}

func (f *Feed) publishLocked(ev Event) {
	for id, ch := range f.subs {
		select {
		case ch <- ev:
		default:
			f.logger.Warn().Int("subscriber", id).Str("tab", string(ev.Tab)).Msg("chart event dropped for slow subscriber")
		}
	}
}

type handle struct {
	feed *Feed
	tab  dayslice.Tab
	spec chart.Spec
}

// Destroy removes the chart if it is still the live one for its tab.
func (h *handle) Destroy() {
	f := h.feed
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.charts[h.tab] != h {
		return
	}
	delete(f.charts, h.tab)
	f.publishLocked(Event{Kind: EventChartDestroyed, Tab: h.tab})
}
