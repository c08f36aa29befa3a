package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/weatherdash/weatherdash/internal/dashboard"
	"github.com/weatherdash/weatherdash/internal/featureflags"
	"github.com/weatherdash/weatherdash/internal/geo"
	"github.com/weatherdash/weatherdash/internal/history"
	"github.com/weatherdash/weatherdash/internal/weather"
)

// Refresher re-fetches the displayed location.
type Refresher interface {
	Refresh(ctx context.Context) (*weather.Record, error)
	History() []history.Entry
}

// Warmer fetches a location so later loads hit the cache.
type Warmer interface {
	FetchWeather(ctx context.Context, coords geo.Coordinates, info geo.LocationInfo) (*weather.Record, error)
}

// RefreshJob refreshes the dashboard and warms saved locations.
type RefreshJob struct {
	config    RefreshConfig
	logger    zerolog.Logger
	dashboard Refresher
	warmer    Warmer
	flags     *featureflags.Service
	metrics   *RefreshMetrics
}

// RefreshMetrics tracks refresh job statistics.
type RefreshMetrics struct {
	mu sync.RWMutex

	TotalRuns      int64
	SkippedRuns    int64
	Refreshes      int64
	Superseded     int64
	FailedRefresh  int64
	Warmed         int64
	FailedWarmups  int64
	LastRunAt      time.Time
	LastRunElapsed time.Duration
}

// RefreshJobConfig holds configuration for creating a RefreshJob.
type RefreshJobConfig struct {
	Config    RefreshConfig
	Logger    zerolog.Logger
	Dashboard Refresher

	// Warmer is used for saved locations (optional).
	Warmer Warmer

	// FeatureFlags can disable the job (optional).
	FeatureFlags *featureflags.Service
}

// NewRefreshJob creates a refresh job.
func NewRefreshJob(cfg RefreshJobConfig) *RefreshJob {
	return &RefreshJob{
		config:    cfg.Config.withDefaults(),
		logger:    cfg.Logger,
		dashboard: cfg.Dashboard,
		warmer:    cfg.Warmer,
		flags:     cfg.FeatureFlags,
		metrics:   &RefreshMetrics{},
	}
}

// RefreshResult contains the result of one run.
type RefreshResult struct {
	StartTime  time.Time
	Duration   time.Duration
	Skipped    bool
	Refreshed  bool
	Superseded bool
	Warmed     int
	Errors     []RefreshError
}

// RefreshError is a failure during a run.
type RefreshError struct {
	Location string
	Error    string
}

// Run refreshes the displayed location, then warms the saved locations.
func (j *RefreshJob) Run(ctx context.Context) *RefreshResult {
	start := time.Now()
	result := &RefreshResult{StartTime: start}

	if j.flags.IsAutoRefreshDisabled(ctx) {
		j.logger.Debug().Msg("auto refresh disabled by feature flag")
		result.Skipped = true
		j.updateMetrics(result)
		return result
	}

	j.logger.Info().Msg("starting weather refresh")

	refreshCtx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	rec, err := j.dashboard.Refresh(refreshCtx)
	cancel()
	switch {
	case errors.Is(err, dashboard.ErrSuperseded), errors.Is(err, dashboard.ErrRequestInFlight):
		result.Superseded = true
		j.logger.Debug().Err(err).Msg("refresh yielded to a user request")
	case err != nil:
		result.Errors = append(result.Errors, RefreshError{Location: "current", Error: err.Error()})
		j.logger.Warn().Err(err).Msg("failed to refresh displayed location")
	default:
		result.Refreshed = true
	}

	if j.config.WarmHistory && j.warmer != nil {
		var shown geo.Coordinates
		if rec != nil {
			shown = rec.Coords
		}
		warmed, errs := j.warm(ctx, j.dashboard.History(), shown)
		result.Warmed = warmed
		result.Errors = append(result.Errors, errs...)
	}

	result.Duration = time.Since(start)
	j.updateMetrics(result)

	j.logger.Info().
		Dur("duration", result.Duration).
		Bool("refreshed", result.Refreshed).
		Int("warmed", result.Warmed).
		Int("errors", len(result.Errors)).
		Msg("weather refresh completed")

	return result
}

// warm fetches every saved location except the one already shown.
func (j *RefreshJob) warm(ctx context.Context, entries []history.Entry, shown geo.Coordinates) (int, []RefreshError) {
	jobs := make(chan history.Entry, len(entries))
	for _, e := range entries {
		if e.Coords == shown {
			continue
		}
		jobs <- e
	}
	close(jobs)

	var (
		mu     sync.Mutex
		warmed int
		errs   []RefreshError
		wg     sync.WaitGroup
	)
	for i := 0; i < j.config.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for e := range jobs {
				if ctx.Err() != nil {
					return
				}
				err := j.warmEntry(ctx, e)

				mu.Lock()
				if err != nil {
					errs = append(errs, RefreshError{Location: e.Name, Error: err.Error()})
				} else {
					warmed++
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	return warmed, errs
}

func (j *RefreshJob) warmEntry(ctx context.Context, e history.Entry) error {
	ctx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	_, err := j.warmer.FetchWeather(ctx, e.Coords, geo.LocationInfo{CityName: e.Name, FullName: e.FullName})
	if err != nil {
		j.logger.Warn().Err(err).Str("location", e.Name).Msg("failed to warm saved location")
	}
	return err
}

func (j *RefreshJob) updateMetrics(result *RefreshResult) {
	j.metrics.mu.Lock()
	defer j.metrics.mu.Unlock()

	j.metrics.TotalRuns++
	j.metrics.LastRunAt = result.StartTime
	j.metrics.LastRunElapsed = result.Duration
	if result.Skipped {
		j.metrics.SkippedRuns++
		return
	}
	if result.Refreshed {
		j.metrics.Refreshes++
	}
	if result.Superseded {
		j.metrics.Superseded++
	}
	j.metrics.Warmed += int64(result.Warmed)
	for _, e := range result.Errors {
		if e.Location == "current" {
			j.metrics.FailedRefresh++
		} else {
			j.metrics.FailedWarmups++
		}
	}
}

// GetMetrics returns a copy of the current metrics.
func (j *RefreshJob) GetMetrics() RefreshMetrics {
	j.metrics.mu.RLock()
	defer j.metrics.mu.RUnlock()

	return RefreshMetrics{
		TotalRuns:      j.metrics.TotalRuns,
		SkippedRuns:    j.metrics.SkippedRuns,
		Refreshes:      j.metrics.Refreshes,
		Superseded:     j.metrics.Superseded,
		FailedRefresh:  j.metrics.FailedRefresh,
		Warmed:         j.metrics.Warmed,
		FailedWarmups:  j.metrics.FailedWarmups,
		LastRunAt:      j.metrics.LastRunAt,
		LastRunElapsed: j.metrics.LastRunElapsed,
	}
}

// MetricsSnapshot returns the current metrics as a map.
func (j *RefreshJob) MetricsSnapshot() map[string]interface{} {
	m := j.GetMetrics()
	return map[string]interface{}{
		"total_runs":       m.TotalRuns,
		"skipped_runs":     m.SkippedRuns,
		"refreshes":        m.Refreshes,
		"superseded":       m.Superseded,
		"failed_refreshes": m.FailedRefresh,
		"warmed":           m.Warmed,
		"failed_warmups":   m.FailedWarmups,
		"last_run_at":      m.LastRunAt,
		"last_run_elapsed": m.LastRunElapsed.String(),
	}
}
