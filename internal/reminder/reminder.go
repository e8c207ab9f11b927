// Package reminder sends a short wellness nudge on a fixed interval.
package reminder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"lifetrack/internal/scheduler"
)

// DefaultMessages are the nudges a Job picks from.
var DefaultMessages = []string{
	"Stay hydrated! Drink a glass of water.",
	"Time to stretch! Take a quick break.",
	"Take a deep breath. You're doing amazing!",
}

const notifyTimeout = 10 * time.Second

// Notifier delivers a reminder message.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// NotifierFunc adapts a function, such as amqp.Client.PublishReminder, to Notifier.
type NotifierFunc func(ctx context.Context, message string) error

func (f NotifierFunc) Notify(ctx context.Context, message string) error {
	return f(ctx, message)
}

// LogNotifier writes reminders to a structured logger.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) Notify(ctx context.Context, message string) error {
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "Reminder", "message", message)
	return nil
}

// Multi delivers to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, message string) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, message); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Job picks a random message and hands it to its notifier.
type Job struct {
	messages []string
	notifier Notifier
	logger   *slog.Logger
	pick     func(n int) int
}

func NewJob(notifier Notifier, logger *slog.Logger, messages ...string) *Job {
	if len(messages) == 0 {
		messages = DefaultMessages
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Job{
		messages: messages,
		notifier: notifier,
		logger:   logger,
		pick:     rand.IntN,
	}
}

// Next returns the message the next run would send.
func (j *Job) Next() string {
	return j.messages[j.pick(len(j.messages))]
}

// Run sends one reminder.
func (j *Job) Run(ctx context.Context) error {
	msg := j.Next()
	if err := j.notifier.Notify(ctx, msg); err != nil {
		return fmt.Errorf("send reminder: %w", err)
	}
	return nil
}

// Register schedules the job on s every interval. Failures are logged; the
// schedule keeps running.
func (j *Job) Register(s scheduler.Scheduler, interval time.Duration) error {
	return s.Every(interval, func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := j.Run(ctx); err != nil {
			j.logger.Warn("Reminder delivery failed", "error", err)
		}
	})
}
