// Package scheduler fires a runner on a cron schedule, one run at a time.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Runner is invoked on every trigger
type Runner interface {
	RunAll(ctx context.Context) error
}

// State is the scheduler's lifecycle state
type State int

const (
	StateIdle State = iota
	StateRunning
	StateStopping
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// ParseSchedule parses a standard five-field cron expression.
// A leading CRON_TZ=<zone> or TZ=<zone> selects the time zone.
// Expressions that can never fire, such as "0 0 30 2 *", are rejected.
func ParseSchedule(expr string) (cron.Schedule, error) {
	schedule, err := cron.ParseStandard(expr)
	if err != nil {
		return nil, fmt.Errorf("parse cron expression %q: %w", expr, err)
	}
	if schedule.Next(time.Now()).IsZero() {
		return nil, fmt.Errorf("cron expression %q never fires", expr)
	}
	return schedule, nil
}

// Scheduler triggers a Runner serially on a schedule
type Scheduler struct {
	schedule cron.Schedule
	runner   Runner
	logger   *slog.Logger
	now      func() time.Time

	mu    sync.Mutex
	state State
}

// New creates a scheduler
func New(schedule cron.Schedule, runner Runner, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}

	return &Scheduler{
		schedule: schedule,
		runner:   runner,
		logger:   logger.With("component", "scheduler"),
		now:      time.Now,
	}
}

// State returns the current lifecycle state
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Scheduler) setState(state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateStopping {
		return
	}
	s.state = state
}

// Run blocks until ctx is cancelled. When runAtStartup is set the runner is
// invoked once before waiting for the first trigger. Triggers that fall due
// while a run is in progress are skipped.
//
// Cancelling ctx returns immediately, even in the middle of a run. The run
// itself is not interrupted: it receives a context detached from ctx.
func (s *Scheduler) Run(ctx context.Context, runAtStartup bool) error {
	defer func() {
		s.mu.Lock()
		s.state = StateStopping
		s.mu.Unlock()
	}()

	if runAtStartup {
		s.logger.Info("running initial scan at startup")
		if !s.runOnce(ctx) {
			return nil
		}
	}

	for {
		next := s.schedule.Next(s.now())
		if next.IsZero() {
			s.logger.Warn("schedule has no future trigger, waiting for shutdown")
			<-ctx.Done()
			s.logger.Info("scheduler stopping")
			return nil
		}
		s.logger.Debug("waiting for next trigger", "next", next.Format(time.RFC3339))

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info("scheduler stopping")
			return nil
		case <-timer.C:
			if !s.runOnce(ctx) {
				return nil
			}
		}
	}
}

// runOnce runs the job and waits for it, returning false if ctx was cancelled first
func (s *Scheduler) runOnce(ctx context.Context) bool {
	if ctx.Err() != nil {
		return false
	}

	s.setState(StateRunning)
	done := make(chan struct{})

	go func() {
		defer close(done)
		if err := s.runner.RunAll(context.WithoutCancel(ctx)); err != nil {
			s.logger.Error("run had errors", "error", err)
		}
	}()

	select {
	case <-done:
		s.setState(StateIdle)
		return true
	case <-ctx.Done():
		s.logger.Info("scheduler stopping during run")
		return false
	}
}
