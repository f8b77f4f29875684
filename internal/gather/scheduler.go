package gather

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler runs gatherers on cron schedules. Schedules take a leading
// seconds field, e.g. "0 30 20 * * MON-FRI". A run that is still going when
// its next tick fires is skipped.
type Scheduler struct {
	cron *cron.Cron
	ctx  context.Context
	log  *slog.Logger
}

// NewScheduler creates a scheduler whose jobs run with ctx and fire in loc.
func NewScheduler(ctx context.Context, loc *time.Location, log *slog.Logger) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLocation(loc),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		ctx: ctx,
		log: log.With("component", "scheduler"),
	}
}

// Add registers g under schedule.
func (s *Scheduler) Add(schedule string, g Gatherer) error {
	_, err := s.cron.AddFunc(schedule, func() { s.RunNow(g) })
	if err != nil {
		return err
	}
	s.log.Info("job registered", "schedule", schedule, "job", g.Name())
	return nil
}

// RunNow runs g once outside its schedule and logs the outcome.
func (s *Scheduler) RunNow(g Gatherer) {
	if s.ctx.Err() != nil {
		return
	}
	start := time.Now()
	s.log.Info("running job", "job", g.Name())
	if err := g.Run(s.ctx); err != nil {
		s.log.Error("job failed", "job", g.Name(), "err", err)
		return
	}
	s.log.Info("job completed", "job", g.Name(), "elapsed", time.Since(start).Round(time.Millisecond))
}

// Start begins firing scheduled jobs.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("scheduler started")
}

// Stop stops the scheduler and waits for running jobs to return.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info("scheduler stopped")
}
