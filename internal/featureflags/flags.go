// Package featureflags holds the runtime kill switches the dashboard reads.
// Every flag is a boolean that switches a feature off while set.
package featureflags

import (
	"errors"
	"time"
)

// Flag keys the dashboard reads.
const (
	// FlagDisableAirQuality skips the air quality sub-fetch.
	FlagDisableAirQuality = "disable_air_quality"

	// FlagDisablePollen skips the pollen sub-fetch.
	FlagDisablePollen = "disable_pollen"

	// FlagDisableAutoRefresh pauses the periodic refresh job.
	FlagDisableAutoRefresh = "disable_auto_refresh"

	// FlagDisableIPFallback stops location resolution from falling back to IP lookup.
	FlagDisableIPFallback = "disable_ip_fallback"
)

// ErrUnknownFlag is returned when writing a key the dashboard does not read.
var ErrUnknownFlag = errors.New("unknown feature flag")

// known lists the flags in display order with what setting them does.
var known = []struct {
	key         string
	description string
}{
	{FlagDisableAirQuality, "Records are built without air quality; the AQI tab shows its empty state."},
	{FlagDisablePollen, "Records are built without pollen; the pollen tab shows its empty state."},
	{FlagDisableAutoRefresh, "The periodic refresh of the current location is paused."},
	{FlagDisableIPFallback, "Location bootstrap skips the IP lookup and falls back to the default city."},
}

// Keys returns every flag key in display order.
func Keys() []string {
	keys := make([]string, len(known))
	for i, k := range known {
		keys[i] = k.key
	}
	return keys
}

// Known reports whether key is a flag the dashboard reads.
func Known(key string) bool {
	for _, k := range known {
		if k.key == key {
			return true
		}
	}
	return false
}

// Describe returns what setting the flag does, or "" for unknown keys.
func Describe(key string) string {
	for _, k := range known {
		if k.key == key {
			return k.description
		}
	}
	return ""
}

// Flag is the stored state of one switch.
type Flag struct {
	Key         string    `json:"key"`
	Value       bool      `json:"value"`
	Description string    `json:"description,omitempty"`
	Reason      string    `json:"reason,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// FlagList is the admin listing of every flag.
type FlagList struct {
	Items []Flag `json:"items"`
}

// FlagUpdate sets one flag.
type FlagUpdate struct {
	Key   string `json:"key" validate:"required,oneof=disable_air_quality disable_pollen disable_auto_refresh disable_ip_fallback"`
	Value bool   `json:"value"`
}

// FlagUpdateRequest is the body of PUT /admin/feature-flags. Reason is stored
// with every updated flag.
type FlagUpdateRequest struct {
	Updates []FlagUpdate `json:"updates" validate:"required,min=1,dive"`
	Reason  string       `json:"reason" validate:"max=200"`
}

// DefaultFlags returns every known flag switched off.
func DefaultFlags() map[string]*Flag {
	flags := make(map[string]*Flag, len(known))
	for _, k := range known {
		flags[k.key] = &Flag{Key: k.key}
	}
	return flags
}

func (f *Flag) clone() *Flag {
	c := *f
	return &c
}
