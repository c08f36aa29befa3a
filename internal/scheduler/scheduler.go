package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog"
)

// Scheduler runs the refresh job on a fixed interval.
type Scheduler struct {
	scheduler *gocron.Scheduler
	job       *RefreshJob
	interval  time.Duration
	logger    zerolog.Logger

	// ctx is cancelled by Stop.
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a scheduler for job.
func New(job *RefreshJob, logger zerolog.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		job:       job,
		interval:  job.config.Interval,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start schedules the job and starts the scheduler. The first run happens
// one interval after Start; runs never overlap.
func (s *Scheduler) Start() error {
	_, err := s.scheduler.
		Every(s.interval).
		WaitForSchedule().
		SingletonMode().
		Do(s.run)
	if err != nil {
		return err
	}

	s.logger.Info().Dur("interval", s.interval).Msg("weather refresh scheduled")
	s.scheduler.StartAsync()
	return nil
}

func (s *Scheduler) run() {
	if s.ctx.Err() != nil {
		return
	}
	s.job.Run(s.ctx)
}

// RunNow runs the job immediately, outside the schedule.
func (s *Scheduler) RunNow(ctx context.Context) *RefreshResult {
	return s.job.Run(ctx)
}

// Job returns the scheduled job.
func (s *Scheduler) Job() *RefreshJob { return s.job }

// Stop cancels a running job and stops future runs.
func (s *Scheduler) Stop() {
	s.cancel()
	s.scheduler.Stop()
}
