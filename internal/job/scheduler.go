package job

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
)

// Per-run ceiling: fetches plus the recipient loop finish well inside this
// even with the weather retry schedule fully exhausted.
const runTimeout = 5 * time.Minute

// Scheduler triggers a digest run on a cron schedule in the job's timezone.
type Scheduler struct {
	scheduler *gocron.Scheduler
	job       *Job
	cronExpr  string
	log       *slog.Logger
}

// NewScheduler constructs a Scheduler around the job. The cron expression
// is evaluated in loc, so "0 7 * * *" means 07:00 local forecast time.
func NewScheduler(cronExpr string, j *Job, loc *time.Location, log *slog.Logger) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(loc),
		job:       j,
		cronExpr:  cronExpr,
		log:       log,
	}
}

// Start registers the cron job and starts the scheduler without blocking.
func (s *Scheduler) Start() error {
	_, err := s.scheduler.Cron(s.cronExpr).Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		defer cancel()

		if _, err := s.job.RunOnce(ctx); err != nil {
			s.log.Error("scheduled digest run skipped", "err", err)
		}
	})
	if err != nil {
		return fmt.Errorf("scheduling cron %q: %w", s.cronExpr, err)
	}

	s.scheduler.StartAsync()
	s.log.Info("scheduler started", "cron", s.cronExpr)

	return nil
}

// Stop stops the scheduler. A run already in flight is left to finish.
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}
