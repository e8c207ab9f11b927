// Package repo declares the storage ports the services depend on.
package repo

import (
	"context"
	"errors"
	"time"

	"lifetrack/internal/core"
)

var (
	// ErrNotFound is returned when a record with the given id does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique field is already taken.
	ErrDuplicate = errors.New("duplicate record")
)

// Ports for outbound adapters.
type (
	TaskStore interface {
		ListTasks(ctx context.Context) ([]core.Task, error)
		CreateTask(ctx context.Context, t core.Task) (core.Task, error)
		// CompleteTask marks a task done. Completing twice is not an error.
		CompleteTask(ctx context.Context, id int64) error
		DeleteTask(ctx context.Context, id int64) error
	}

	ExpenseStore interface {
		ListExpenses(ctx context.Context) ([]core.Expense, error)
		CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error)
		DeleteExpense(ctx context.Context, id int64) error
	}

	CategoryStore interface {
		ListCategories(ctx context.Context) ([]core.ExpenseCategory, error)
		// CreateCategory fails with ErrDuplicate when the name is taken.
		CreateCategory(ctx context.Context, c core.ExpenseCategory) (core.ExpenseCategory, error)
	}

	BudgetStore interface {
		ListBudgets(ctx context.Context, month, year int) ([]core.Budget, error)
		// SaveBudget stores b as the only budget for its (category, month, year)
		// and returns the persisted record.
		SaveBudget(ctx context.Context, b core.Budget) (core.Budget, error)
	}

	WaterStore interface {
		ListWaterLogs(ctx context.Context, since time.Time) ([]core.WaterLog, error)
		CreateWaterLog(ctx context.Context, w core.WaterLog) (core.WaterLog, error)
		DeleteWaterLogsSince(ctx context.Context, since time.Time) (int64, error)
	}

	AffirmationStore interface {
		ListAffirmations(ctx context.Context) ([]core.Affirmation, error)
		CreateAffirmation(ctx context.Context, a core.Affirmation) (core.Affirmation, error)
	}

	ActivityStore interface {
		ListActivities(ctx context.Context) ([]core.Activity, error)
		CreateActivity(ctx context.Context, a core.Activity) (core.Activity, error)
		DeleteActivity(ctx context.Context, id int64) error
	}

	// Repository bundles every port. Both the memory and the SQLite
	// implementations satisfy it.
	Repository interface {
		TaskStore
		ExpenseStore
		CategoryStore
		BudgetStore
		WaterStore
		AffirmationStore
		ActivityStore
		Ping(ctx context.Context) error
		Close() error
	}
)
