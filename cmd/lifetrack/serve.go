package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"lifetrack/internal/amqp"
	"lifetrack/internal/cache"
	"lifetrack/internal/charts"
	"lifetrack/internal/cli"
	"lifetrack/internal/config"
	"lifetrack/internal/external"
	apphttp "lifetrack/internal/http"
	applog "lifetrack/internal/log"
	"lifetrack/internal/reminder"
	"lifetrack/internal/scheduler"
	"lifetrack/internal/services"
	"lifetrack/internal/session"
)

const (
	maxSessions          = 1000
	cacheCleanupInterval = 10 * time.Minute
	shutdownTimeout      = 30 * time.Second
	externalAPITimeout   = 10 * time.Second
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the web server and the reminder scheduler",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(parent context.Context) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}

	ctx, cancel := cli.SignalContext(parent, logger)
	defer cancel()

	res, err := openBackend(ctx, cfg, logger, true)
	if err != nil {
		return err
	}
	defer closeBackend(res, logger)

	// A nil *amqp.Client must not become a non-nil interface.
	var events services.EventPublisher
	if res.Events != nil {
		events = res.Events
	}

	httpClient := &http.Client{Timeout: externalAPITimeout}
	var affirmations services.AffirmationSource
	if cfg.AffirmationAPIURL != "" {
		affirmations = external.NewAffirmationClient(cfg.AffirmationAPIURL, httpClient)
	}
	var (
		exercises      services.ExerciseSource
		exerciseClient *external.ExerciseClient
	)
	if cfg.ExerciseAPIKey != "" {
		exerciseClient = external.NewExerciseClient(cfg.ExerciseAPIURL, cfg.ExerciseAPIKey, httpClient)
		exercises = exerciseClient
	} else {
		logger.Info("Workout suggestions disabled - no EXERCISE_API_KEY provided")
	}

	sessions := session.NewStore(cfg.SessionTTL, maxSessions)
	caches := cache.NewManager(logger.WithComponent(applog.ComponentCache).Logger)
	caches.Register(sessions.Cache())
	if exerciseClient != nil {
		caches.Register(exerciseClient.Cache())
	}
	caches.StartCleanup(cacheCleanupInterval)
	defer caches.Stop()

	srv, err := apphttp.NewServer(":"+cfg.Port, apphttp.Dependencies{
		Tasks:    services.NewTaskService(res.Repository, logger),
		Expenses: services.NewExpenseService(res.Repository, events, logger),
		Wellness: services.NewWellnessService(res.Repository, affirmations, exercises, services.WellnessConfig{
			WaterGoalML: cfg.WaterDailyGoalML,
			Muscle:      cfg.ExerciseMuscle,
		}, logger),
		Sessions:           sessions,
		Charts:             charts.NewRenderer(),
		Storage:            res.Repository,
		Logger:             logger,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	})
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}

	sched, err := newReminderScheduler(cfg, logger, res.Events)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting lifetrack server", "port", cfg.Port, "backend", cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		sched.Start()
		logger.Info("Reminder scheduler started", "interval", cfg.ReminderInterval.String())

		<-gctx.Done()
		sched.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("Server stopped gracefully")
	return nil
}

// newReminderScheduler schedules the wellness reminder. Reminders are always
// logged and also published when events is non-nil.
func newReminderScheduler(cfg *config.Config, logger *applog.Logger, events *amqp.Client) (*scheduler.Cron, error) {
	reminderLogger := logger.WithComponent(applog.ComponentReminder).Logger
	notifiers := reminder.Multi{reminder.LogNotifier{Logger: reminderLogger}}
	if events != nil {
		notifiers = append(notifiers, reminder.NotifierFunc(events.PublishReminder))
	}

	sched := scheduler.NewCron(time.Local, logger.WithComponent(applog.ComponentScheduler).Logger)
	if err := reminder.NewJob(notifiers, reminderLogger).Register(sched, cfg.ReminderInterval); err != nil {
		return nil, fmt.Errorf("schedule reminder: %w", err)
	}
	return sched, nil
}
