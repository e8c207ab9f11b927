package services

import (
	"context"
	"fmt"
	"time"

	"lifetrack/internal/core"
	applog "lifetrack/internal/log"
	"lifetrack/internal/repo"
)

// TaskService serves the task manager, dashboard, calendar and productivity views.
type TaskService struct {
	repo   repo.TaskStore
	logger *applog.Logger
	now    func() time.Time
}

func NewTaskService(r repo.TaskStore, logger *applog.Logger) *TaskService {
	return &TaskService{
		repo:   r,
		logger: logger.WithComponent(applog.ComponentTasks),
		now:    time.Now,
	}
}

func (s *TaskService) today() core.Date {
	return core.DateOf(s.now())
}

func (s *TaskService) all(ctx context.Context) ([]core.Task, error) {
	tasks, err := s.repo.ListTasks(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// List returns the tasks matching a filter keyword (today, week, month, all).
func (s *TaskService) List(ctx context.Context, keyword string) ([]core.Task, error) {
	tasks, err := s.all(ctx)
	if err != nil {
		return nil, err
	}
	return core.FilterTasks(tasks, keyword, s.today()), nil
}

// Today returns the tasks dated today.
func (s *TaskService) Today(ctx context.Context) ([]core.Task, error) {
	return s.List(ctx, string(core.WindowToday))
}

func (s *TaskService) Create(ctx context.Context, description string, date core.Date) (core.Task, error) {
	t := core.Task{Description: description, Date: date}
	if err := t.Validate(); err != nil {
		return core.Task{}, err
	}
	saved, err := s.repo.CreateTask(ctx, t)
	if err != nil {
		return core.Task{}, fmt.Errorf("create task: %w", err)
	}
	s.logger.InfoContext(ctx, "Task created",
		applog.FieldRecordID, saved.ID,
		applog.FieldOperation, applog.OpCreate)
	return saved, nil
}

// Complete marks a task done. A missing id yields repo.ErrNotFound.
func (s *TaskService) Complete(ctx context.Context, id int64) error {
	if err := s.repo.CompleteTask(ctx, id); err != nil {
		return fmt.Errorf("complete task %d: %w", id, err)
	}
	return nil
}

// Delete removes a task. A missing id yields repo.ErrNotFound.
func (s *TaskService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.DeleteTask(ctx, id); err != nil {
		return fmt.Errorf("delete task %d: %w", id, err)
	}
	return nil
}

func (s *TaskService) Productivity(ctx context.Context) (core.ProductivityStats, error) {
	tasks, err := s.all(ctx)
	if err != nil {
		return core.ProductivityStats{}, err
	}
	return core.Productivity(tasks, s.today()), nil
}

// CalendarView is the calendar page payload.
type CalendarView struct {
	Events []core.CalendarEvent
	ByDate map[string][]string
}

func (s *TaskService) Calendar(ctx context.Context) (CalendarView, error) {
	tasks, err := s.all(ctx)
	if err != nil {
		return CalendarView{}, err
	}
	events, byDate := core.Calendar(tasks)
	return CalendarView{Events: events, ByDate: byDate}, nil
}
