package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"lifetrack/internal/core"
	"lifetrack/internal/external"
	applog "lifetrack/internal/log"
	"lifetrack/internal/repo"
)

// Affirmation fallbacks when none are stored.
const (
	DashboardAffirmation = "Stay positive!"
	FallbackAffirmation  = "Stay positive and keep going!"
)

// AffirmationSource fetches a fresh affirmation from an outside service.
type AffirmationSource interface {
	Fetch(ctx context.Context) (string, error)
}

// ExerciseSource suggests an exercise for a muscle group.
type ExerciseSource interface {
	Random(ctx context.Context, muscle string) (external.Exercise, error)
}

// WellnessRepository is the slice of the repository the wellness pages need.
type WellnessRepository interface {
	repo.WaterStore
	repo.AffirmationStore
	repo.ActivityStore
}

// WellnessConfig carries the tunables of WellnessService.
type WellnessConfig struct {
	WaterGoalML int
	Muscle      string
}

// WellnessService handles hydration, affirmations, activities and workouts.
type WellnessService struct {
	repo         WellnessRepository
	affirmations AffirmationSource
	exercises    ExerciseSource
	cfg          WellnessConfig
	logger       *applog.Logger
	now          func() time.Time
	pick         func(n int) int
}

// NewWellnessService creates the service. affirmations and exercises may be nil,
// in which case generation and workouts report ErrSourceUnavailable.
func NewWellnessService(r WellnessRepository, affirmations AffirmationSource, exercises ExerciseSource, cfg WellnessConfig, logger *applog.Logger) *WellnessService {
	if cfg.WaterGoalML <= 0 {
		cfg.WaterGoalML = core.DefaultWaterGoalML
	}
	if cfg.Muscle == "" {
		cfg.Muscle = "chest"
	}
	return &WellnessService{
		repo:         r,
		affirmations: affirmations,
		exercises:    exercises,
		cfg:          cfg,
		logger:       logger.WithComponent(applog.ComponentWellness),
		now:          time.Now,
		pick:         rand.IntN,
	}
}

// ErrSourceUnavailable is returned when no external source is configured.
var ErrSourceUnavailable = errors.New("external source not configured")

// Hydration returns today's water intake.
func (s *WellnessService) Hydration(ctx context.Context) (core.HydrationSummary, error) {
	now := s.now()
	logs, err := s.repo.ListWaterLogs(ctx, core.StartOfDay(now))
	if err != nil {
		return core.HydrationSummary{}, fmt.Errorf("list water logs: %w", err)
	}
	return core.Hydration(logs, now, s.cfg.WaterGoalML), nil
}

func (s *WellnessService) AddWater(ctx context.Context, amount int) (core.WaterLog, error) {
	w := core.WaterLog{Amount: amount, Timestamp: s.now()}
	if err := w.Validate(); err != nil {
		return core.WaterLog{}, err
	}
	saved, err := s.repo.CreateWaterLog(ctx, w)
	if err != nil {
		return core.WaterLog{}, fmt.Errorf("create water log: %w", err)
	}
	return saved, nil
}

// ResetWater deletes today's water logs and returns how many were removed.
func (s *WellnessService) ResetWater(ctx context.Context) (int64, error) {
	n, err := s.repo.DeleteWaterLogsSince(ctx, core.StartOfDay(s.now()))
	if err != nil {
		return 0, fmt.Errorf("reset water logs: %w", err)
	}
	s.logger.InfoContext(ctx, "Water log reset", "deleted", n, applog.FieldOperation, applog.OpReset)
	return n, nil
}

func (s *WellnessService) Affirmations(ctx context.Context) ([]core.Affirmation, error) {
	list, err := s.repo.ListAffirmations(ctx)
	if err != nil {
		return nil, fmt.Errorf("list affirmations: %w", err)
	}
	return list, nil
}

func (s *WellnessService) AddAffirmation(ctx context.Context, message string) (core.Affirmation, error) {
	a := core.Affirmation{Message: message}
	if err := a.Validate(); err != nil {
		return core.Affirmation{}, err
	}
	saved, err := s.repo.CreateAffirmation(ctx, a)
	if err != nil {
		return core.Affirmation{}, fmt.Errorf("create affirmation: %w", err)
	}
	return saved, nil
}

// RandomAffirmation picks a stored affirmation, or returns fallback when
// there are none.
func (s *WellnessService) RandomAffirmation(ctx context.Context, fallback string) (string, error) {
	list, err := s.Affirmations(ctx)
	if err != nil {
		return "", err
	}
	if len(list) == 0 {
		return fallback, nil
	}
	return list[s.pick(len(list))].Message, nil
}

// GenerateAffirmation fetches an affirmation from the outside source and stores it.
func (s *WellnessService) GenerateAffirmation(ctx context.Context) (core.Affirmation, error) {
	if s.affirmations == nil {
		return core.Affirmation{}, ErrSourceUnavailable
	}
	msg, err := s.affirmations.Fetch(ctx)
	if err != nil {
		return core.Affirmation{}, fmt.Errorf("generate affirmation: %w", err)
	}
	return s.AddAffirmation(ctx, msg)
}

// ActivityLog is the activities page payload.
type ActivityLog struct {
	Activities   []core.Activity
	TotalMinutes float64
}

// Activities lists activities matching a window keyword and totals their minutes.
func (s *WellnessService) Activities(ctx context.Context, keyword string) (ActivityLog, error) {
	all, err := s.repo.ListActivities(ctx)
	if err != nil {
		return ActivityLog{}, fmt.Errorf("list activities: %w", err)
	}
	list := core.FilterByWindow(all, core.ParseWindow(keyword), core.DateOf(s.now()))
	return ActivityLog{Activities: list, TotalMinutes: core.TotalDuration(list)}, nil
}

func (s *WellnessService) AddActivity(ctx context.Context, a core.Activity) (core.Activity, error) {
	if a.Date.IsZero() {
		a.Date = core.DateOf(s.now())
	}
	if err := a.Validate(); err != nil {
		return core.Activity{}, err
	}
	saved, err := s.repo.CreateActivity(ctx, a)
	if err != nil {
		return core.Activity{}, fmt.Errorf("create activity: %w", err)
	}
	return saved, nil
}

func (s *WellnessService) DeleteActivity(ctx context.Context, id int64) error {
	if err := s.repo.DeleteActivity(ctx, id); err != nil {
		return fmt.Errorf("delete activity %d: %w", id, err)
	}
	return nil
}

// Workout suggests an exercise for the configured muscle group.
func (s *WellnessService) Workout(ctx context.Context) (external.Exercise, error) {
	if s.exercises == nil {
		return external.Exercise{}, ErrSourceUnavailable
	}
	ex, err := s.exercises.Random(ctx, s.cfg.Muscle)
	if err != nil {
		s.logger.WarnContext(ctx, "Workout lookup failed",
			applog.FieldError, err.Error(),
			applog.FieldOperation, applog.OpFetch)
		return external.Exercise{}, err
	}
	return ex, nil
}
