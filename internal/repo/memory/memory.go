// Package memory is an in-process Repository used by tests and by
// DATA_BACKEND=memory. Nothing survives a restart.
package memory

import (
	"context"
	"sync"
	"time"

	"lifetrack/internal/core"
	"lifetrack/internal/repo"
)

type Store struct {
	mu           sync.Mutex
	lastID       int64
	tasks        []core.Task
	expenses     []core.Expense
	categories   []core.ExpenseCategory
	budgets      []core.Budget
	water        []core.WaterLog
	affirmations []core.Affirmation
	activities   []core.Activity
}

var _ repo.Repository = (*Store)(nil)

func New() *Store {
	return &Store{}
}

// nextID must be called with mu held.
func (s *Store) nextID() int64 {
	s.lastID++
	return s.lastID
}

func (s *Store) Ping(context.Context) error { return nil }
func (s *Store) Close() error               { return nil }

// removeByID deletes the element whose id matches and reports whether one was found.
func removeByID[T any](items []T, id int64, idOf func(T) int64) ([]T, bool) {
	for i, it := range items {
		if idOf(it) == id {
			return append(items[:i], items[i+1:]...), true
		}
	}
	return items, false
}

func (s *Store) ListTasks(context.Context) ([]core.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Task(nil), s.tasks...), nil
}

func (s *Store) CreateTask(_ context.Context, t core.Task) (core.Task, error) {
	if err := t.Validate(); err != nil {
		return core.Task{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = s.nextID()
	s.tasks = append(s.tasks, t)
	return t, nil
}

func (s *Store) CompleteTask(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			s.tasks[i].Completed = true
			return nil
		}
	}
	return repo.ErrNotFound
}

func (s *Store) DeleteTask(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ok bool
	s.tasks, ok = removeByID(s.tasks, id, func(t core.Task) int64 { return t.ID })
	if !ok {
		return repo.ErrNotFound
	}
	return nil
}

func (s *Store) ListExpenses(context.Context) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Expense(nil), s.expenses...), nil
}

func (s *Store) CreateExpense(_ context.Context, e core.Expense) (core.Expense, error) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e.ID = s.nextID()
	s.expenses = append(s.expenses, e)
	return e, nil
}

func (s *Store) DeleteExpense(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ok bool
	s.expenses, ok = removeByID(s.expenses, id, func(e core.Expense) int64 { return e.ID })
	if !ok {
		return repo.ErrNotFound
	}
	return nil
}

func (s *Store) ListCategories(context.Context) ([]core.ExpenseCategory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.ExpenseCategory(nil), s.categories...), nil
}

func (s *Store) CreateCategory(_ context.Context, c core.ExpenseCategory) (core.ExpenseCategory, error) {
	if err := c.Validate(); err != nil {
		return core.ExpenseCategory{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.categories {
		if existing.Name == c.Name {
			return core.ExpenseCategory{}, repo.ErrDuplicate
		}
	}
	c.ID = s.nextID()
	s.categories = append(s.categories, c)
	return c, nil
}

func (s *Store) ListBudgets(_ context.Context, month, year int) ([]core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Budget
	for _, b := range s.budgets {
		if b.Month == month && b.Year == year {
			out = append(out, b)
		}
	}
	return out, nil
}

// SaveBudget runs the lookup-or-create decision under the store lock so
// concurrent saves for the same key cannot produce two budgets.
func (s *Store) SaveBudget(_ context.Context, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	d := core.UpsertBudget(s.budgets, b.CategoryID, b.Amount, b.Month, b.Year)
	if d.Action == core.BudgetCreate {
		d.Budget.ID = s.nextID()
		s.budgets = append(s.budgets, d.Budget)
		return d.Budget, nil
	}
	s.budgets = core.ApplyBudgetDecision(s.budgets, d)
	return d.Budget, nil
}

func (s *Store) ListWaterLogs(_ context.Context, since time.Time) ([]core.WaterLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.WaterLog
	for _, w := range s.water {
		if !w.Timestamp.Before(since) {
			out = append(out, w)
		}
	}
	return out, nil
}

func (s *Store) CreateWaterLog(_ context.Context, w core.WaterLog) (core.WaterLog, error) {
	if w.Timestamp.IsZero() {
		w.Timestamp = time.Now()
	}
	if err := w.Validate(); err != nil {
		return core.WaterLog{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	w.ID = s.nextID()
	s.water = append(s.water, w)
	return w, nil
}

func (s *Store) DeleteWaterLogsSince(_ context.Context, since time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.water[:0]
	var n int64
	for _, w := range s.water {
		if w.Timestamp.Before(since) {
			kept = append(kept, w)
			continue
		}
		n++
	}
	s.water = kept
	return n, nil
}

func (s *Store) ListAffirmations(context.Context) ([]core.Affirmation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Affirmation(nil), s.affirmations...), nil
}

func (s *Store) CreateAffirmation(_ context.Context, a core.Affirmation) (core.Affirmation, error) {
	if err := a.Validate(); err != nil {
		return core.Affirmation{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a.ID = s.nextID()
	s.affirmations = append(s.affirmations, a)
	return a, nil
}

func (s *Store) ListActivities(context.Context) ([]core.Activity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Activity(nil), s.activities...), nil
}

func (s *Store) CreateActivity(_ context.Context, a core.Activity) (core.Activity, error) {
	if err := a.Validate(); err != nil {
		return core.Activity{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a.ID = s.nextID()
	s.activities = append(s.activities, a)
	return a, nil
}

func (s *Store) DeleteActivity(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ok bool
	s.activities, ok = removeByID(s.activities, id, func(a core.Activity) int64 { return a.ID })
	if !ok {
		return repo.ErrNotFound
	}
	return nil
}
