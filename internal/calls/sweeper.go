package calls

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Sweeper applies the tracker's retention policy on a cron schedule.
type Sweeper struct {
	cron    *cron.Cron
	tracker *Tracker
	log     *slog.Logger
	timeout time.Duration
}

// NewSweeper validates schedule (standard 5-field cron) and registers the job.
// Nothing runs until Start.
func NewSweeper(tracker *Tracker, schedule string, log *slog.Logger) (*Sweeper, error) {
	if log == nil {
		log = slog.Default()
	}
	s := &Sweeper{
		cron:    cron.New(),
		tracker: tracker,
		log:     log,
		timeout: time.Minute,
	}
	if _, err := s.cron.AddFunc(schedule, s.RunOnce); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Sweeper) Start() {
	s.cron.Start()
	s.log.Info("retention sweeper started", "policy", s.tracker.RetentionPolicy().Name())
}

// Stop halts scheduling and returns a context that is done once a running sweep finishes.
func (s *Sweeper) Stop() context.Context {
	return s.cron.Stop()
}

// RunOnce performs one sweep and logs the outcome.
func (s *Sweeper) RunOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	n, err := s.tracker.Sweep(ctx)
	if err != nil {
		s.log.Error("retention sweep failed", "err", err)
		return
	}
	s.log.Info("retention sweep completed", "policy", s.tracker.RetentionPolicy().Name(), "deleted", n)
}
