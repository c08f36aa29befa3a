// Package dashboard owns the view state of the weather dashboard: the current
// record, location history, unit preference and the selected tab and day. It
// orchestrates fetches and keeps the chart for the active tab up to date.
package dashboard

import (
	"context"
	"sync"

	"github.com/weatherdash/weatherdash/internal/dayslice"
	"github.com/weatherdash/weatherdash/internal/geo"
	"github.com/weatherdash/weatherdash/internal/history"
	"github.com/weatherdash/weatherdash/internal/units"
	"github.com/weatherdash/weatherdash/internal/weather"
)

// Topic names a part of the state that subscribers can watch.
type Topic string

const (
	TopicWeather Topic = "weather"
	TopicCoords  Topic = "coords"
	TopicHistory Topic = "history"
	TopicUnits   Topic = "units"
	TopicView    Topic = "view"
	TopicStatus  Topic = "status"
)

// ErrorKind classifies an inline error.
type ErrorKind string

const (
	ErrorNotFound    ErrorKind = "not_found"
	ErrorFetchFailed ErrorKind = "fetch_failed"
)

// ViewError is an inline error shown until dismissed or cleared by the next
// successful fetch.
type ViewError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

// State is the full dashboard state. Record is shared and must not be
// modified.
type State struct {
	Record      *weather.Record
	Coords      geo.Coordinates
	History     []history.Entry
	Units       units.System
	ActiveTab   dayslice.Tab
	SelectedDay int
	Loading     bool
	Error       *ViewError
}

func (s State) clone() State {
	out := s
	if s.History != nil {
		out.History = append([]history.Entry(nil), s.History...)
	}
	if s.Error != nil {
		e := *s.Error
		out.Error = &e
	}
	return out
}

type subscription struct {
	id    int
	topic Topic
	fn    func(State)
}

// Store is a mutex-guarded state container with topic subscriptions.
type Store struct {
	mu     sync.Mutex
	state  State
	subs   []subscription
	nextID int

	watchMu       sync.Mutex
	watchers      map[int]chan State
	nextWatcherID int
}

// NewStore creates a store holding initial.
func NewStore(initial State) *Store {
	return &Store{
		state:    initial.clone(),
		watchers: make(map[int]chan State),
	}
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Subscribe registers fn for changes to topic. The returned func cancels the
// subscription.
func (s *Store) Subscribe(topic Topic, fn func(State)) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID
	s.subs = append(s.subs, subscription{id: id, topic: topic, fn: fn})

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

// Update applies fn under the lock. fn returns the topics it changed;
// subscribers of those topics run after the lock is released, in
// subscription order.
func (s *Store) Update(fn func(*State) []Topic) {
	s.mu.Lock()
	changed := fn(&s.state)
	if len(changed) == 0 {
		s.mu.Unlock()
		return
	}
	snapshot := s.state.clone()
	var notify []func(State)
	for _, sub := range s.subs {
		if containsTopic(changed, sub.topic) {
			notify = append(notify, sub.fn)
		}
	}
	// Watchers never block, so they are fed in update order under the lock.
	s.broadcast(snapshot)
	s.mu.Unlock()

	for _, fn := range notify {
		fn(snapshot)
	}
}

// Watch streams a snapshot after every change until ctx is done. Slow readers
// only see the latest snapshot.
func (s *Store) Watch(ctx context.Context) <-chan State {
	ch := make(chan State, 1)

	// Registering under the state lock means no update lands between the
	// initial snapshot and the first broadcast.
	s.mu.Lock()
	s.watchMu.Lock()
	s.nextWatcherID++
	id := s.nextWatcherID
	s.watchers[id] = ch
	ch <- s.state.clone()
	s.watchMu.Unlock()
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.watchMu.Lock()
		delete(s.watchers, id)
		close(ch)
		s.watchMu.Unlock()
	}()

	return ch
}

func (s *Store) broadcast(snapshot State) {
	s.watchMu.Lock()
	defer s.watchMu.Unlock()
	for _, ch := range s.watchers {
		select {
		case ch <- snapshot:
			continue
		default:
		}
		// Drop the stale pending snapshot in favour of the new one.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snapshot:
		default:
		}
	}
}

func containsTopic(topics []Topic, t Topic) bool {
	for _, x := range topics {
		if x == t {
			return true
		}
	}
	return false
}
