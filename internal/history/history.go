// Package history keeps the saved-location list: at most one pinned current
// location plus a bounded number of searched places.
package history

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/weatherdash/weatherdash/internal/geo"
	"github.com/weatherdash/weatherdash/internal/weather"
)

// History errors.
var (
	ErrHistoryFull     = errors.New("history is full")
	ErrPermanentEntry  = errors.New("entry cannot be removed")
	ErrEntryNotFound   = errors.New("history entry not found")
	ErrDuplicateEntry  = errors.New("location already saved")
	ErrInvalidLocation = errors.New("invalid location")
)

const (
	// MaxRegular is the number of non-current entries kept.
	MaxRegular = 3

	// MaxEntries is the total cap including the current location.
	MaxEntries = MaxRegular + 1

	// CurrentLocationID identifies the current-location entry.
	CurrentLocationID = "current-location"

	// DedupDistance is the coordinate tolerance, in degrees, for treating two
	// searched places as the same.
	DedupDistance = 0.05
)

// Entry is a saved location.
type Entry struct {
	ID                string           `json:"id"`
	Name              string           `json:"name"`
	FullName          string           `json:"fullName"`
	Coords            geo.Coordinates  `json:"coords"`
	Current           *weather.Current `json:"current,omitempty"`
	IsCurrentLocation bool             `json:"isCurrentLocation"`
	IsIPBased         bool             `json:"isIPBased"`
	IsPermanent       bool             `json:"isPermanent"`
	SavedAt           time.Time        `json:"savedAt"`
}

// FromRecord builds a regular entry for a fetched record.
func FromRecord(r *weather.Record) Entry {
	current := r.Current
	return Entry{
		Name:     r.Name,
		FullName: r.FullName,
		Coords:   r.Coords,
		Current:  &current,
	}
}

// List is an ordered history: the current location first, then regular
// entries. It is not safe for concurrent use.
type List struct {
	entries []Entry
	now     func() time.Time
}

// New builds a list from persisted entries, dropping anything beyond the caps.
func New(entries []Entry) *List {
	l := &List{now: time.Now}
	var regular []Entry
	for _, e := range entries {
		if e.IsCurrentLocation {
			if l.Current() == nil {
				l.entries = append(l.entries, e)
			}
			continue
		}
		if len(regular) < MaxRegular {
			regular = append(regular, e)
		}
	}
	l.entries = append(l.entries, regular...)
	return l
}

// Entries returns a copy of the entries.
func (l *List) Entries() []Entry {
	return append([]Entry(nil), l.entries...)
}

// Len returns the number of entries.
func (l *List) Len() int {
	return len(l.entries)
}

// Current returns the current-location entry, or nil.
func (l *List) Current() *Entry {
	for i := range l.entries {
		if l.entries[i].IsCurrentLocation {
			e := l.entries[i]
			return &e
		}
	}
	return nil
}

// Find returns the entry with id.
func (l *List) Find(id string) (Entry, bool) {
	for _, e := range l.entries {
		if e.ID == id {
			return e, true
		}
	}
	return Entry{}, false
}

// CanAdd reports whether another regular entry fits.
func (l *List) CanAdd() bool {
	return l.regularCount() < MaxRegular
}

func (l *List) regularCount() int {
	n := 0
	for _, e := range l.entries {
		if !e.IsCurrentLocation {
			n++
		}
	}
	return n
}

// Add saves e explicitly. Regular entries are rejected with ErrHistoryFull once
// MaxRegular exist and with ErrDuplicateEntry when the ID or name is already
// saved. A current-location entry replaces the existing one.
func (l *List) Add(e Entry) (Entry, error) {
	if !e.Coords.Valid() {
		return Entry{}, ErrInvalidLocation
	}
	if e.IsCurrentLocation {
		return l.SetCurrentLocation(e), nil
	}
	if !l.CanAdd() {
		return Entry{}, ErrHistoryFull
	}
	for _, existing := range l.entries {
		if (e.ID != "" && existing.ID == e.ID) || (!existing.IsCurrentLocation && existing.Name == e.Name) {
			return Entry{}, ErrDuplicateEntry
		}
	}

	e = l.stamp(e)
	l.entries = append(l.entries, e)
	return e, nil
}

// Push records a visited place at the front of the regular entries. A place
// with the same name or within DedupDistance moves to the front instead of
// being duplicated and keeps its ID. The oldest regular entries beyond
// MaxRegular are evicted.
func (l *List) Push(e Entry) Entry {
	e.IsCurrentLocation = false
	e.IsPermanent = false

	kept := make([]Entry, 0, len(l.entries)+1)
	var current []Entry
	for _, existing := range l.entries {
		switch {
		case existing.IsCurrentLocation:
			current = append(current, existing)
		case existing.Name == e.Name || geo.WithinDistance(existing.Coords, e.Coords, DedupDistance):
			if e.ID == "" {
				e.ID = existing.ID
			}
		default:
			kept = append(kept, existing)
		}
	}
	e = l.stamp(e)

	regular := append([]Entry{e}, kept...)
	if len(regular) > MaxRegular {
		regular = regular[:MaxRegular]
	}
	l.entries = append(current, regular...)
	return e
}

// SetCurrentLocation replaces the current-location entry with e and pins it
// first. GPS-based entries are permanent; IP-based ones stay removable.
func (l *List) SetCurrentLocation(e Entry) Entry {
	e.ID = CurrentLocationID
	e.IsCurrentLocation = true
	e.IsPermanent = !e.IsIPBased
	if e.SavedAt.IsZero() {
		e.SavedAt = l.now()
	}

	rest := make([]Entry, 0, len(l.entries))
	for _, existing := range l.entries {
		if !existing.IsCurrentLocation {
			rest = append(rest, existing)
		}
	}
	if len(rest) > MaxRegular {
		rest = rest[:MaxRegular]
	}
	l.entries = append([]Entry{e}, rest...)
	return e
}

// Remove deletes the entry with id.
func (l *List) Remove(id string) error {
	for i, e := range l.entries {
		if e.ID != id {
			continue
		}
		if e.IsPermanent {
			return ErrPermanentEntry
		}
		l.entries = append(l.entries[:i:i], l.entries[i+1:]...)
		return nil
	}
	return ErrEntryNotFound
}

func (l *List) stamp(e Entry) Entry {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.SavedAt.IsZero() {
		e.SavedAt = l.now()
	}
	return e
}
