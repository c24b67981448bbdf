package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
)

// Refresher is a unit of periodic work, e.g. the forecast collector.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Scheduler periodically runs a Refresher.
type Scheduler struct {
	scheduler *gocron.Scheduler
	job       Refresher
	interval  time.Duration
	timeout   time.Duration
	logger    *slog.Logger
}

// New creates a new Scheduler. Each run gets its own timeout.
func New(job Refresher, interval, timeout time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		job:       job,
		interval:  interval,
		timeout:   timeout,
		logger:    logger,
	}
}

// Start schedules the job, runs it once immediately and starts the
// underlying scheduler. Runs never overlap.
func (s *Scheduler) Start() error {
	interval := s.interval
	if interval <= 0 {
		interval = 30 * time.Minute
	}

	_, err := s.scheduler.Every(interval).SingletonMode().Do(s.run)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	s.logger.Info("scheduler started", "interval", interval)
	return nil
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	if err := s.job.Refresh(ctx); err != nil {
		s.logger.Error("scheduled refresh failed", "error", err, "duration", time.Since(start))
		return
	}
	s.logger.Debug("scheduled refresh completed", "duration", time.Since(start))
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
