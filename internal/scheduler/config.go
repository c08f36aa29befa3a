// Package scheduler runs the periodic weather refresh: the displayed location
// is re-fetched and saved locations are kept warm in the weather cache.
package scheduler

import (
	"time"
)

// RefreshConfig holds configuration for the refresh job.
type RefreshConfig struct {
	// Interval between runs.
	// Default: 15 minutes
	Interval time.Duration

	// Concurrency is the number of concurrent cache warm-ups.
	// Default: 2
	Concurrency int

	// Timeout is the timeout for each fetch.
	// Default: 30 seconds
	Timeout time.Duration

	// WarmHistory enables pre-fetching saved locations.
	// Default: true
	WarmHistory bool
}

// DefaultRefreshConfig returns the default refresh configuration.
func DefaultRefreshConfig() RefreshConfig {
	return RefreshConfig{
		Interval:    15 * time.Minute,
		Concurrency: 2,
		Timeout:     30 * time.Second,
		WarmHistory: true,
	}
}

func (c RefreshConfig) withDefaults() RefreshConfig {
	def := DefaultRefreshConfig()
	if c.Interval <= 0 {
		c.Interval = def.Interval
	}
	if c.Concurrency <= 0 {
		c.Concurrency = def.Concurrency
	}
	if c.Timeout <= 0 {
		c.Timeout = def.Timeout
	}
	return c
}
