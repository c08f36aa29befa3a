package dashboard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/weatherdash/weatherdash/internal/chart"
	"github.com/weatherdash/weatherdash/internal/dayslice"
	"github.com/weatherdash/weatherdash/internal/geo"
	"github.com/weatherdash/weatherdash/internal/history"
	"github.com/weatherdash/weatherdash/internal/persistence"
	"github.com/weatherdash/weatherdash/internal/units"
	"github.com/weatherdash/weatherdash/internal/weather"
)

// Dashboard errors.
var (
	ErrSuperseded         = errors.New("request superseded by a newer one")
	ErrRequestInFlight    = errors.New("another request is in flight")
	ErrUnknownTab         = errors.New("unknown tab")
	ErrNotFound           = errors.New("location not found")
	ErrEmptyQuery         = errors.New("empty search query")
	ErrInvalidUnits       = errors.New("invalid unit system")
	ErrInvalidCoordinates = errors.New("invalid coordinates")
	ErrNoData             = errors.New("no data for the selected day")
)

// CurrentLocationName labels a GPS position that could not be reverse geocoded.
const CurrentLocationName = "Current location"

// Inline error messages.
const (
	msgSearchNotFound = "No location found for %q. Try a different search term."
	msgPlaceNotFound  = "No place name could be found for this position."
	msgFetchFailed    = "Weather data could not be loaded. Please try again."
)

// WeatherFetcher fetches the merged record for a location.
type WeatherFetcher interface {
	FetchWeather(ctx context.Context, coords geo.Coordinates, info geo.LocationInfo) (*weather.Record, error)
}

// Locator resolves places. Every method returns nil on failure.
type Locator interface {
	ReverseGeocode(ctx context.Context, lat, lng float64) *geo.LocationInfo
	ForwardGeocode(ctx context.Context, query string) *geo.Place
	LocateByIP(ctx context.Context) *geo.Place
	RequestGeolocation(ctx context.Context, timeout, maxAge time.Duration) *geo.Coordinates
}

// Persister stores the dashboard's saved view state.
type Persister interface {
	Units(ctx context.Context) units.System
	SaveUnits(ctx context.Context, sys units.System) error
	IsFirstVisit(ctx context.Context) bool
	LastViewed(ctx context.Context) *persistence.LastViewed
	SaveLastViewed(ctx context.Context, r *weather.Record) error
	History(ctx context.Context) []history.Entry
	SaveHistory(ctx context.Context, entries []history.Entry) error
}

// Config holds configuration for the dashboard.
type Config struct {
	Weather     WeatherFetcher
	Locator     Locator
	Persistence Persister

	// Renderer draws charts (optional).
	Renderer Renderer

	Logger zerolog.Logger

	// Now is the clock for day derivation (default: time.Now).
	Now func() time.Time

	// GeolocationTimeout and GeolocationMaxAge are passed to the locator on
	// first visit. Zero uses the locator defaults.
	GeolocationTimeout time.Duration
	GeolocationMaxAge  time.Duration
}

// Dashboard orchestrates fetches and owns the view state.
type Dashboard struct {
	weather    WeatherFetcher
	locator    Locator
	persist    Persister
	logger     zerolog.Logger
	now        func() time.Time
	geoTimeout time.Duration
	geoMaxAge  time.Duration

	store  *Store
	charts *Lifecycle

	histMu  sync.Mutex
	history *history.List

	seq         atomic.Uint64
	ready       atomic.Bool
	unsubscribe []func()
}

// New creates a dashboard with default state: default coordinates, metric
// units and the overview tab.
func New(cfg Config) *Dashboard {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	d := &Dashboard{
		weather:    cfg.Weather,
		locator:    cfg.Locator,
		persist:    cfg.Persistence,
		logger:     cfg.Logger,
		now:        now,
		geoTimeout: cfg.GeolocationTimeout,
		geoMaxAge:  cfg.GeolocationMaxAge,
		history:    history.New(nil),
		store: NewStore(State{
			Coords:      geo.Default,
			Units:       units.Metric,
			ActiveTab:   dayslice.TabOverview,
			SelectedDay: dayslice.DefaultDay,
		}),
	}
	d.charts = NewLifecycle(cfg.Renderer, d.liveSpec, cfg.Logger)

	rebuild := func(st State) { d.charts.Schedule(st.ActiveTab) }
	d.unsubscribe = []func(){
		d.store.Subscribe(TopicWeather, rebuild),
		d.store.Subscribe(TopicUnits, rebuild),
	}
	return d
}

// Store returns the state store.
func (d *Dashboard) Store() *Store { return d.store }

// Charts returns the chart lifecycle.
func (d *Dashboard) Charts() *Lifecycle { return d.charts }

// Ready reports whether Bootstrap has finished.
func (d *Dashboard) Ready() bool { return d.ready.Load() }

// Close cancels pending chart builds and destroys every chart.
func (d *Dashboard) Close() {
	for _, cancel := range d.unsubscribe {
		cancel()
	}
	d.charts.Close()
}

// Bootstrap restores saved state and resolves the initial location: a fresh
// last viewed record is shown without a fetch; a first visit tries GPS, then
// IP; a returning visit keeps the defaults.
func (d *Dashboard) Bootstrap(ctx context.Context) error {
	defer d.ready.Store(true)

	sys := d.persist.Units(ctx)
	saved := d.persist.History(ctx)

	d.histMu.Lock()
	d.history = history.New(saved)
	entries := d.history.Entries()
	d.histMu.Unlock()

	d.store.Update(func(st *State) []Topic {
		st.Units = sys
		st.History = entries
		return []Topic{TopicUnits, TopicHistory}
	})

	if lv := d.persist.LastViewed(ctx); lv != nil {
		d.logger.Info().
			Str("location", lv.WeatherData.Name).
			Dur("age", lv.Age(d.now())).
			Msg("restoring last viewed weather")
		id := d.seq.Add(1)
		return d.apply(id, lv.WeatherData)
	}

	if !d.persist.IsFirstVisit(ctx) {
		d.logger.Debug().Msg("returning visit without cached weather, keeping defaults")
		return nil
	}

	_, err := d.locate(ctx)
	return err
}

// locate resolves the visitor's position on first visit and fetches it.
func (d *Dashboard) locate(ctx context.Context) (*weather.Record, error) {
	id := d.begin()

	if c := d.locator.RequestGeolocation(ctx, d.geoTimeout, d.geoMaxAge); c != nil {
		info := d.locator.ReverseGeocode(ctx, c.Lat, c.Lng)
		if info == nil {
			info = &geo.LocationInfo{CityName: CurrentLocationName, FullName: CurrentLocationName}
		}
		d.logger.Info().Float64("lat", c.Lat).Float64("lon", c.Lng).Msg("using device position")
		return d.fetchCurrentLocation(ctx, id, geo.Place{Coords: *c, Info: *info})
	}

	if place := d.locator.LocateByIP(ctx); place != nil {
		d.logger.Info().
			Float64("lat", place.Coords.Lat).
			Float64("lon", place.Coords.Lng).
			Msg("using ip-based position")
		return d.fetchCurrentLocation(ctx, id, *place)
	}

	d.logger.Info().Msg("no position available, keeping default location")
	d.settle(id)
	return nil, nil
}

func (d *Dashboard) fetchCurrentLocation(ctx context.Context, id uint64, place geo.Place) (*weather.Record, error) {
	rec, err := d.fetch(ctx, id, place.Coords, place.Info, false)
	if err != nil {
		return nil, err
	}

	current := rec.Current
	d.updateHistory(ctx, func(l *history.List) error {
		l.SetCurrentLocation(history.Entry{
			Name:      place.Info.CityName,
			FullName:  place.Info.FullName,
			Coords:    place.Coords,
			Current:   &current,
			IsIPBased: place.IPBased,
		})
		return nil
	})
	return rec, nil
}

// Search geocodes query and fetches the first match. A blank query is
// rejected without a lookup.
func (d *Dashboard) Search(ctx context.Context, query string) (*weather.Record, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	id := d.begin()
	place := d.locator.ForwardGeocode(ctx, query)
	if place == nil {
		if !d.fail(id, ErrorNotFound, fmt.Sprintf(msgSearchNotFound, query)) {
			return nil, ErrSuperseded
		}
		return nil, ErrNotFound
	}
	return d.fetch(ctx, id, place.Coords, place.Info, true)
}

// SelectLocation labels a picked position and fetches it.
func (d *Dashboard) SelectLocation(ctx context.Context, coords geo.Coordinates) (*weather.Record, error) {
	if !coords.Valid() {
		return nil, ErrInvalidCoordinates
	}

	id := d.begin()
	info := d.locator.ReverseGeocode(ctx, coords.Lat, coords.Lng)
	if info == nil {
		if !d.fail(id, ErrorNotFound, msgPlaceNotFound) {
			return nil, ErrSuperseded
		}
		return nil, ErrNotFound
	}
	return d.fetch(ctx, id, coords, *info, true)
}

// LoadHistoryItem fetches a saved location.
func (d *Dashboard) LoadHistoryItem(ctx context.Context, entryID string) (*weather.Record, error) {
	d.histMu.Lock()
	e, ok := d.history.Find(entryID)
	d.histMu.Unlock()
	if !ok {
		return nil, history.ErrEntryNotFound
	}

	id := d.begin()
	info := geo.LocationInfo{CityName: e.Name, FullName: e.FullName}
	return d.fetch(ctx, id, e.Coords, info, !e.IsCurrentLocation)
}

// RemoveHistoryItem deletes a saved location.
func (d *Dashboard) RemoveHistoryItem(ctx context.Context, entryID string) error {
	return d.updateHistory(ctx, func(l *history.List) error {
		return l.Remove(entryID)
	})
}

// Refresh re-fetches the displayed location without touching history. It
// yields to user requests: it returns ErrRequestInFlight while one is
// loading, and ErrSuperseded when one starts before it completes. A failed
// refresh keeps the displayed data and sets no inline error.
func (d *Dashboard) Refresh(ctx context.Context) (*weather.Record, error) {
	var (
		st   State
		id   uint64
		busy bool
	)
	d.store.Update(func(s *State) []Topic {
		st = s.clone()
		id = d.seq.Load()
		busy = s.Loading
		return nil
	})
	if busy {
		return nil, ErrRequestInFlight
	}

	var info geo.LocationInfo
	if st.Record != nil {
		info = geo.LocationInfo{CityName: st.Record.Name, FullName: st.Record.FullName}
	} else if resolved := d.locator.ReverseGeocode(ctx, st.Coords.Lat, st.Coords.Lng); resolved != nil {
		info = *resolved
	} else {
		info = geo.LocationInfo{CityName: CurrentLocationName, FullName: CurrentLocationName}
	}

	rec, err := d.weather.FetchWeather(ctx, st.Coords, info)
	if err != nil {
		return nil, fmt.Errorf("refresh weather: %w", err)
	}
	if err := d.apply(id, rec); err != nil {
		return nil, err
	}
	if err := d.persist.SaveLastViewed(ctx, rec); err != nil {
		d.logger.Warn().Err(err).Msg("failed to save last viewed weather")
	}
	return rec, nil
}

// SetUnits switches the unit system and saves the preference.
func (d *Dashboard) SetUnits(ctx context.Context, sys units.System) error {
	if !sys.Valid() {
		return ErrInvalidUnits
	}

	d.store.Update(func(st *State) []Topic {
		if st.Units == sys {
			return nil
		}
		st.Units = sys
		return []Topic{TopicUnits}
	})

	if err := d.persist.SaveUnits(ctx, sys); err != nil {
		d.logger.Warn().Err(err).Msg("failed to save unit preference")
	}
	return nil
}

// SelectDay selects a forecast day, clamped to the available range, and
// returns the index used.
func (d *Dashboard) SelectDay(i int) int {
	var (
		day int
		tab dayslice.Tab
	)
	d.store.Update(func(st *State) []Topic {
		day = dayslice.ClampDay(i, st.Record.DayCount())
		tab = st.ActiveTab
		if st.SelectedDay == day {
			return nil
		}
		st.SelectedDay = day
		return []Topic{TopicView}
	})
	d.charts.Schedule(tab)
	return day
}

// SetActiveTab switches the detail tab. Every live chart is destroyed before
// the new tab's chart is scheduled.
func (d *Dashboard) SetActiveTab(tab dayslice.Tab) error {
	if !tab.Valid() {
		return ErrUnknownTab
	}

	d.store.Update(func(st *State) []Topic {
		if st.ActiveTab == tab {
			return nil
		}
		st.ActiveTab = tab
		return []Topic{TopicView}
	})
	d.charts.Switch(tab)
	return nil
}

// DismissError clears the inline error.
func (d *Dashboard) DismissError() {
	d.store.Update(func(st *State) []Topic {
		if st.Error == nil {
			return nil
		}
		st.Error = nil
		return []Topic{TopicStatus}
	})
}

// History returns the saved locations.
func (d *Dashboard) History() []history.Entry {
	d.histMu.Lock()
	defer d.histMu.Unlock()
	return d.history.Entries()
}

// Details returns the active tab's title and detail cards for the selected
// day. Without a record the list is empty.
func (d *Dashboard) Details() (string, []dayslice.Detail) {
	st := d.store.Snapshot()
	title := dayslice.TabTitle(st.ActiveTab)
	if st.Record == nil {
		return title, nil
	}

	s := dayslice.Select(st.Record.Hourly, st.SelectedDay)
	opts := dayslice.ReaderOptions(st.Record, st.SelectedDay, d.now(), dayslice.Options{Units: st.Units})
	return title, dayslice.Details(st.ActiveTab, s, opts)
}

// Cards returns the daily forecast cards.
func (d *Dashboard) Cards() []dayslice.DailyCard {
	st := d.store.Snapshot()
	return dayslice.DailyCards(st.Record, st.SelectedDay, d.now())
}

// Chart returns the chart spec for tab on the selected day.
func (d *Dashboard) Chart(tab dayslice.Tab) (chart.Spec, error) {
	if !tab.Valid() {
		return chart.Spec{}, ErrUnknownTab
	}
	spec, ok := d.liveSpec(tab)
	if !ok {
		return chart.Spec{}, ErrNoData
	}
	return spec, nil
}

func (d *Dashboard) liveSpec(tab dayslice.Tab) (chart.Spec, bool) {
	st := d.store.Snapshot()
	if st.Record == nil {
		return chart.Spec{}, false
	}
	return chart.ForTab(tab, dayslice.Select(st.Record.Hourly, st.SelectedDay), st.Units)
}

// begin takes a new request id and marks the dashboard as loading.
func (d *Dashboard) begin() uint64 {
	var id uint64
	d.store.Update(func(st *State) []Topic {
		id = d.seq.Add(1)
		if st.Loading {
			return nil
		}
		st.Loading = true
		return []Topic{TopicStatus}
	})
	return id
}

// settle clears the loading flag if id is still the latest request.
func (d *Dashboard) settle(id uint64) {
	d.store.Update(func(st *State) []Topic {
		if d.seq.Load() != id || !st.Loading {
			return nil
		}
		st.Loading = false
		return []Topic{TopicStatus}
	})
}

// fail records an inline error for id. It returns false when id is stale.
func (d *Dashboard) fail(id uint64, kind ErrorKind, msg string) bool {
	applied := false
	d.store.Update(func(st *State) []Topic {
		if d.seq.Load() != id {
			return nil
		}
		applied = true
		st.Loading = false
		st.Error = &ViewError{Kind: kind, Message: msg}
		return []Topic{TopicStatus}
	})
	return applied
}

func (d *Dashboard) fetch(ctx context.Context, id uint64, coords geo.Coordinates, info geo.LocationInfo, push bool) (*weather.Record, error) {
	rec, err := d.weather.FetchWeather(ctx, coords, info)
	if err != nil {
		if !d.fail(id, ErrorFetchFailed, msgFetchFailed) {
			return nil, ErrSuperseded
		}
		return nil, fmt.Errorf("fetch weather: %w", err)
	}

	if err := d.apply(id, rec); err != nil {
		d.logger.Debug().
			Float64("lat", coords.Lat).
			Float64("lon", coords.Lng).
			Msg("discarding superseded weather response")
		return nil, err
	}

	if err := d.persist.SaveLastViewed(ctx, rec); err != nil {
		d.logger.Warn().Err(err).Msg("failed to save last viewed weather")
	}
	if push {
		d.updateHistory(ctx, func(l *history.List) error {
			l.Push(history.FromRecord(rec))
			return nil
		})
	}
	return rec, nil
}

// apply publishes rec if id is still the latest request.
func (d *Dashboard) apply(id uint64, rec *weather.Record) error {
	applied := false
	d.store.Update(func(st *State) []Topic {
		if d.seq.Load() != id {
			return nil
		}
		applied = true
		st.Record = rec
		st.Coords = rec.Coords
		st.SelectedDay = dayslice.ClampDay(st.SelectedDay, rec.DayCount())
		st.Loading = false
		st.Error = nil
		return []Topic{TopicWeather, TopicCoords, TopicView, TopicStatus}
	})
	if !applied {
		return ErrSuperseded
	}
	return nil
}

// updateHistory mutates the list, publishes it and saves it.
func (d *Dashboard) updateHistory(ctx context.Context, fn func(*history.List) error) error {
	d.histMu.Lock()
	defer d.histMu.Unlock()

	if err := fn(d.history); err != nil {
		return err
	}
	entries := d.history.Entries()

	d.store.Update(func(st *State) []Topic {
		st.History = entries
		return []Topic{TopicHistory}
	})
	if err := d.persist.SaveHistory(ctx, entries); err != nil {
		d.logger.Warn().Err(err).Msg("failed to save history")
	}
	return nil
}
