// Package scheduler runs periodic jobs. Callers depend on the Scheduler
// interface so tests can drive jobs by hand.
package scheduler

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

var ErrInvalidInterval = errors.New("interval must be positive")

// Scheduler registers jobs that run at a fixed interval once started.
type Scheduler interface {
	Every(interval time.Duration, job func()) error
	Start()
	// Stop halts scheduling and waits for running jobs to finish.
	Stop()
}

// Cron is a Scheduler backed by robfig/cron.
type Cron struct {
	cron   *cron.Cron
	logger *slog.Logger
}

var _ Scheduler = (*Cron)(nil)

func NewCron(loc *time.Location, logger *slog.Logger) *Cron {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = slog.Default()
	}
	cl := cronLogger{logger: logger}
	return &Cron{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.SkipIfStillRunning(cl), cron.Recover(cl)),
		),
		logger: logger,
	}
}

// Every registers job to run every interval, rounded down to whole seconds
// with a one second minimum.
func (s *Cron) Every(interval time.Duration, job func()) error {
	if interval <= 0 {
		return ErrInvalidInterval
	}
	seconds := int(interval.Seconds())
	if seconds <= 0 {
		seconds = 1
	}
	spec := fmt.Sprintf("@every %ds", seconds)
	if _, err := s.cron.AddFunc(spec, job); err != nil {
		return fmt.Errorf("schedule %q: %w", spec, err)
	}
	s.logger.Debug("Job scheduled", "spec", spec)
	return nil
}

func (s *Cron) Start() {
	s.cron.Start()
}

func (s *Cron) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// Entries reports how many jobs are registered.
func (s *Cron) Entries() int {
	return len(s.cron.Entries())
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append([]any{"error", err}, keysAndValues...)...)
}
