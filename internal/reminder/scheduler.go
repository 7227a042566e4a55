package reminder

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Scheduler runs the reminder pipeline once per interval, aligned to interval
// boundaries of the wall clock.
type Scheduler struct {
	mu       sync.RWMutex
	runner   *Runner
	interval time.Duration
	loc      *time.Location
	now      func() time.Time
	logger   *slog.Logger
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewScheduler creates a reminder scheduler. Slots are evaluated in loc.
func NewScheduler(runner *Runner, interval time.Duration, loc *time.Location, logger *slog.Logger) *Scheduler {
	if interval <= 0 {
		interval = time.Minute
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{
		runner:   runner,
		interval: interval,
		loc:      loc,
		now:      time.Now,
		logger:   logger.With("component", "scheduler"),
	}
}

// Start begins the scheduler loop.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.mu.Unlock()

	s.logger.Info("reminder scheduler started", "interval", s.interval, "timezone", s.loc.String())

	go func() {
		defer close(s.done)

		first := time.NewTimer(s.untilNextTick())
		defer first.Stop()
		select {
		case <-ctx.Done():
			return
		case <-first.C:
			s.Tick(ctx)
		}

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Tick(ctx)
			}
		}
	}()
}

// Stop gracefully stops the scheduler, waiting for an in-flight run.
func (s *Scheduler) Stop() {
	s.mu.RLock()
	cancel := s.cancel
	done := s.done
	s.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
	s.logger.Info("reminder scheduler stopped")
}

// Tick runs the pipeline for the current minute.
func (s *Scheduler) Tick(ctx context.Context) Result {
	now := s.now().In(s.loc).Truncate(time.Minute)
	res := s.runner.Run(ctx, now)

	level := slog.LevelInfo
	if res.Err != nil || res.Failed > 0 {
		level = slog.LevelError
	} else if res.Matched == 0 {
		level = slog.LevelDebug
	}
	s.logger.Log(ctx, level, "reminder run complete", "result", res)
	return res
}

func (s *Scheduler) untilNextTick() time.Duration {
	now := s.now()
	return now.Truncate(s.interval).Add(s.interval).Sub(now)
}
