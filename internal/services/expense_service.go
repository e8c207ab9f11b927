// Package services orchestrates the repository, the core calculations and
// outbound events for the HTTP handlers and the CLI.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"lifetrack/internal/amqp"
	"lifetrack/internal/core"
	applog "lifetrack/internal/log"
	"lifetrack/internal/repo"
)

// ErrUnknownCategory is returned when an expense or budget names a category
// that does not exist.
var ErrUnknownCategory = errors.New("unknown category")

// EventPublisher announces expense changes. The AMQP client implements it.
type EventPublisher interface {
	PublishExpenseEvent(ctx context.Context, ev amqp.ExpenseEvent) error
}

// ExpenseRepository is the slice of the repository the expense views need.
type ExpenseRepository interface {
	repo.ExpenseStore
	repo.CategoryStore
	repo.BudgetStore
}

// ExpenseService assembles the expense dashboard and applies expense, budget
// and category mutations.
type ExpenseService struct {
	repo   ExpenseRepository
	events EventPublisher
	log    *applog.StructuredLogger
	now    func() time.Time
}

// NewExpenseService creates the service. events may be nil.
func NewExpenseService(r ExpenseRepository, events EventPublisher, logger *applog.Logger) *ExpenseService {
	return &ExpenseService{
		repo:   r,
		events: events,
		log:    applog.NewStructuredLogger(logger.WithComponent(applog.ComponentExpense)),
		now:    time.Now,
	}
}

// ExpenseDashboard is everything the expenses page shows.
type ExpenseDashboard struct {
	Filter     core.ExpenseFilter
	Listing    core.ExpenseListing
	Categories []core.ExpenseCategory
	Breakdown  []core.CategoryTotal
	Budgets    []core.BudgetStatus
	Months     []core.MonthTotal
	Chart      core.ChartData
	Month      int
	Year       int
}

type expenseSnapshot struct {
	expenses   []core.Expense
	categories []core.ExpenseCategory
	budgets    []core.Budget
}

// load reads expenses, categories and the month's budgets concurrently.
func (s *ExpenseService) load(ctx context.Context, month, year int) (expenseSnapshot, error) {
	var snap expenseSnapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		snap.expenses, err = s.repo.ListExpenses(gctx)
		if err != nil {
			return fmt.Errorf("list expenses: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		snap.categories, err = s.repo.ListCategories(gctx)
		if err != nil {
			return fmt.Errorf("list categories: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		snap.budgets, err = s.repo.ListBudgets(gctx, month, year)
		if err != nil {
			return fmt.Errorf("list budgets: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return expenseSnapshot{}, err
	}
	return snap, nil
}

// Dashboard builds the expenses page for the current month.
func (s *ExpenseService) Dashboard(ctx context.Context, filter core.ExpenseFilter) (ExpenseDashboard, error) {
	now := s.now()
	month, year := int(now.Month()), now.Year()

	snap, err := s.load(ctx, month, year)
	if err != nil {
		return ExpenseDashboard{}, err
	}

	breakdown := core.CategoryBreakdown(snap.categories, snap.expenses, month, year)
	totals := core.CategoryTotals(snap.categories, snap.expenses, month, year)
	months := core.RollingMonthlyTotals(snap.expenses, core.DefaultMonthsBack, now)

	return ExpenseDashboard{
		Filter:     filter,
		Listing:    core.FilterExpenses(snap.expenses, filter, now),
		Categories: snap.categories,
		Breakdown:  breakdown,
		Budgets:    core.BudgetProgress(snap.budgets, snap.categories, totals),
		Months:     months,
		Chart:      core.BuildChartData(breakdown, months),
		Month:      month,
		Year:       year,
	}, nil
}

// ChartData returns the chart payload for the current month.
func (s *ExpenseService) ChartData(ctx context.Context) (core.ChartData, error) {
	d, err := s.Dashboard(ctx, core.ExpenseFilter{Window: core.WindowAll})
	if err != nil {
		return core.ChartData{}, err
	}
	return d.Chart, nil
}

func (s *ExpenseService) categoryExists(ctx context.Context, id int64) error {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return fmt.Errorf("list categories: %w", err)
	}
	for _, c := range categories {
		if c.ID == id {
			return nil
		}
	}
	return ErrUnknownCategory
}

// CreateExpense stores e, stamping it with the current time when unset, and
// publishes a created event.
func (s *ExpenseService) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	if e.Timestamp.IsZero() {
		e.Timestamp = s.now()
	}
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	if e.CategoryID != nil {
		if err := s.categoryExists(ctx, *e.CategoryID); err != nil {
			return core.Expense{}, err
		}
	}

	saved, err := s.repo.CreateExpense(ctx, e)
	if err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}
	s.log.LogExpenseCreated(ctx, saved.ID, saved.Description, core.FormatAmount(saved.Amount), saved.CategoryID)

	s.publish(ctx, amqp.ExpenseEvent{
		Type:       amqp.ExpenseCreated,
		ID:         saved.ID,
		Amount:     saved.Amount,
		CategoryID: saved.CategoryID,
		Timestamp:  saved.Timestamp,
	})
	return saved, nil
}

// DeleteExpense removes an expense and publishes a deleted event.
// A missing id yields repo.ErrNotFound.
func (s *ExpenseService) DeleteExpense(ctx context.Context, id int64) error {
	if err := s.repo.DeleteExpense(ctx, id); err != nil {
		return fmt.Errorf("delete expense %d: %w", id, err)
	}
	s.publish(ctx, amqp.ExpenseEvent{
		Type:      amqp.ExpenseDeleted,
		ID:        id,
		Timestamp: s.now(),
	})
	return nil
}

// publish sends ev without failing the request: the expense is already saved.
func (s *ExpenseService) publish(ctx context.Context, ev amqp.ExpenseEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishExpenseEvent(ctx, ev); err != nil {
		fields := applog.NewFields().WithRecord(ev.ID).WithErrorType(applog.ErrorTypeNetwork)
		s.log.LogError(ctx, "Failed to publish expense event", err, applog.ComponentAMQP, applog.OpPublish, fields)
	}
}

// SetBudget sets the budget of a category for the current month, creating it
// or overwriting the existing amount.
func (s *ExpenseService) SetBudget(ctx context.Context, categoryID int64, amount decimal.Decimal) (core.Budget, core.BudgetAction, error) {
	now := s.now()
	return s.SetBudgetFor(ctx, categoryID, amount, int(now.Month()), now.Year())
}

// SetBudgetFor is SetBudget for an explicit month and year.
func (s *ExpenseService) SetBudgetFor(ctx context.Context, categoryID int64, amount decimal.Decimal, month, year int) (core.Budget, core.BudgetAction, error) {
	if err := s.categoryExists(ctx, categoryID); err != nil {
		return core.Budget{}, "", err
	}
	existing, err := s.repo.ListBudgets(ctx, month, year)
	if err != nil {
		return core.Budget{}, "", fmt.Errorf("list budgets: %w", err)
	}

	decision := core.UpsertBudget(existing, categoryID, amount, month, year)
	if err := decision.Budget.Validate(); err != nil {
		return core.Budget{}, "", err
	}
	saved, err := s.repo.SaveBudget(ctx, decision.Budget)
	if err != nil {
		return core.Budget{}, "", fmt.Errorf("save budget: %w", err)
	}

	s.log.LogBudgetSaved(ctx, string(decision.Action), saved.ID, saved.CategoryID, core.FormatAmount(saved.Amount), saved.Month, saved.Year)
	return saved, decision.Action, nil
}

// Categories lists expense categories.
func (s *ExpenseService) Categories(ctx context.Context) ([]core.ExpenseCategory, error) {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// SeedCategories creates the default categories that do not exist yet and
// returns the ones it created. Running it twice creates nothing the second time.
func (s *ExpenseService) SeedCategories(ctx context.Context) ([]core.ExpenseCategory, error) {
	existing, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	var created []core.ExpenseCategory
	for _, c := range core.MissingCategories(existing, core.DefaultCategories()) {
		saved, err := s.repo.CreateCategory(ctx, c)
		if errors.Is(err, repo.ErrDuplicate) {
			continue
		}
		if err != nil {
			return created, fmt.Errorf("create category %q: %w", c.Name, err)
		}
		created = append(created, saved)
	}
	return created, nil
}

// Report is a month summary for the command line.
type Report struct {
	Month     int
	Year      int
	Total     decimal.Decimal
	Breakdown []core.CategoryTotal
	Budgets   []core.BudgetStatus
	Months    []core.MonthTotal
}

// Report summarises a month. The rolling series is anchored on the last day
// of that month, or on now for the current month.
func (s *ExpenseService) Report(ctx context.Context, month, year int) (Report, error) {
	if month < 1 || month > 12 {
		return Report{}, core.ErrInvalidMonth
	}
	snap, err := s.load(ctx, month, year)
	if err != nil {
		return Report{}, err
	}

	now := s.now()
	anchor := now
	if month != int(now.Month()) || year != now.Year() {
		anchor = time.Date(year, time.Month(month)+1, 0, now.Hour(), now.Minute(), now.Second(), 0, now.Location())
	}

	var monthly []core.Expense
	for _, e := range snap.expenses {
		if int(e.Timestamp.Month()) == month && e.Timestamp.Year() == year {
			monthly = append(monthly, e)
		}
	}

	totals := core.CategoryTotals(snap.categories, snap.expenses, month, year)
	return Report{
		Month:     month,
		Year:      year,
		Total:     core.Sum(monthly),
		Breakdown: core.CategoryBreakdown(snap.categories, snap.expenses, month, year),
		Budgets:   core.BudgetProgress(snap.budgets, snap.categories, totals),
		Months:    core.RollingMonthlyTotals(snap.expenses, core.DefaultMonthsBack, anchor),
	}, nil
}
