package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"lifetrack/internal/core"
	"lifetrack/internal/repo"
)

// Timestamps are stored in UTC with a fixed-width layout so that text order
// matches time order.
const (
	timestampLayout = "2006-01-02T15:04:05.000000000Z"
	dateLayout      = "2006-01-02"
)

type SQLiteRepository struct {
	db *sql.DB
}

var _ repo.Repository = (*SQLiteRepository)(nil)

func dsn(dbPath string) string {
	return "file:" + dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	// SQLite allows a single writer; serialise on one connection.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dsn(dbPath)); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(timestampLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t.Local(), nil
}

func parseDate(s string) (core.Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return core.Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return core.DateOf(t), nil
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	return errors.As(err, &se) && se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}

// execAffecting runs a statement that must touch exactly one row.
func (r *SQLiteRepository) execAffecting(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// Tasks

func (r *SQLiteRepository) ListTasks(ctx context.Context) ([]core.Task, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, description, completed, date FROM tasks ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var out []core.Task
	for rows.Next() {
		var (
			t    core.Task
			date string
		)
		if err := rows.Scan(&t.ID, &t.Description, &t.Completed, &date); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		if t.Date, err = parseDate(date); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) CreateTask(ctx context.Context, t core.Task) (core.Task, error) {
	if err := t.Validate(); err != nil {
		return core.Task{}, err
	}
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO tasks (description, completed, date) VALUES (?, ?, ?) RETURNING id`,
		t.Description, t.Completed, t.Date.String(),
	).Scan(&t.ID)
	if err != nil {
		return core.Task{}, fmt.Errorf("create task: %w", err)
	}
	slog.DebugContext(ctx, "Task saved to SQLite", "id", t.ID, "date", t.Date.String())
	return t, nil
}

func (r *SQLiteRepository) CompleteTask(ctx context.Context, id int64) error {
	if err := r.execAffecting(ctx, `UPDATE tasks SET completed = 1 WHERE id = ?`, id); err != nil {
		return fmt.Errorf("complete task %d: %w", id, err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteTask(ctx context.Context, id int64) error {
	if err := r.execAffecting(ctx, `DELETE FROM tasks WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete task %d: %w", id, err)
	}
	return nil
}

// Expenses

func (r *SQLiteRepository) ListExpenses(ctx context.Context) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, description, amount, timestamp, category_id FROM expenses ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		var (
			e          core.Expense
			ts         string
			categoryID sql.NullInt64
		)
		if err := rows.Scan(&e.ID, &e.Description, &e.Amount, &ts, &categoryID); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		if e.Timestamp, err = parseTimestamp(ts); err != nil {
			return nil, err
		}
		if categoryID.Valid {
			id := categoryID.Int64
			e.CategoryID = &id
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	var categoryID sql.NullInt64
	if e.CategoryID != nil {
		categoryID = sql.NullInt64{Int64: *e.CategoryID, Valid: true}
	}
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO expenses (description, amount, timestamp, category_id) VALUES (?, ?, ?, ?) RETURNING id`,
		e.Description, e.Amount.String(), formatTimestamp(e.Timestamp), categoryID,
	).Scan(&e.ID)
	if err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}
	slog.InfoContext(ctx, "Expense saved to SQLite",
		"id", e.ID,
		"description", e.Description,
		"amount", e.Amount.String())
	return e, nil
}

func (r *SQLiteRepository) DeleteExpense(ctx context.Context, id int64) error {
	if err := r.execAffecting(ctx, `DELETE FROM expenses WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete expense %d: %w", id, err)
	}
	return nil
}

// Categories

func (r *SQLiteRepository) ListCategories(ctx context.Context) ([]core.ExpenseCategory, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, COALESCE(color, '') FROM expense_categories ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.ExpenseCategory
	for rows.Next() {
		var c core.ExpenseCategory
		if err := rows.Scan(&c.ID, &c.Name, &c.Color); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) CreateCategory(ctx context.Context, c core.ExpenseCategory) (core.ExpenseCategory, error) {
	if err := c.Validate(); err != nil {
		return core.ExpenseCategory{}, err
	}
	var color sql.NullString
	if c.Color != "" {
		color = sql.NullString{String: c.Color, Valid: true}
	}
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO expense_categories (name, color) VALUES (?, ?) RETURNING id`,
		c.Name, color,
	).Scan(&c.ID)
	if isUniqueViolation(err) {
		return core.ExpenseCategory{}, fmt.Errorf("create category %q: %w", c.Name, repo.ErrDuplicate)
	}
	if err != nil {
		return core.ExpenseCategory{}, fmt.Errorf("create category: %w", err)
	}
	return c, nil
}

// Budgets

func (r *SQLiteRepository) ListBudgets(ctx context.Context, month, year int) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, category_id, amount, month, year FROM budgets WHERE month = ? AND year = ? ORDER BY id`,
		month, year)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var out []core.Budget
	for rows.Next() {
		var b core.Budget
		if err := rows.Scan(&b.ID, &b.CategoryID, &b.Amount, &b.Month, &b.Year); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// SaveBudget relies on the unique (category_id, month, year) index: a second
// save for the same key overwrites the amount and keeps the id.
func (r *SQLiteRepository) SaveBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO budgets (category_id, amount, month, year) VALUES (?, ?, ?, ?)
		ON CONFLICT (category_id, month, year) DO UPDATE SET amount = excluded.amount
		RETURNING id`,
		b.CategoryID, b.Amount.String(), b.Month, b.Year,
	).Scan(&b.ID)
	if err != nil {
		return core.Budget{}, fmt.Errorf("save budget: %w", err)
	}
	return b, nil
}

// Water

func (r *SQLiteRepository) ListWaterLogs(ctx context.Context, since time.Time) ([]core.WaterLog, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, timestamp, amount FROM water_logs WHERE timestamp >= ? ORDER BY timestamp, id`,
		formatTimestamp(since))
	if err != nil {
		return nil, fmt.Errorf("list water logs: %w", err)
	}
	defer rows.Close()

	var out []core.WaterLog
	for rows.Next() {
		var (
			w  core.WaterLog
			ts string
		)
		if err := rows.Scan(&w.ID, &ts, &w.Amount); err != nil {
			return nil, fmt.Errorf("scan water log: %w", err)
		}
		if w.Timestamp, err = parseTimestamp(ts); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) CreateWaterLog(ctx context.Context, w core.WaterLog) (core.WaterLog, error) {
	if w.Timestamp.IsZero() {
		w.Timestamp = time.Now()
	}
	if err := w.Validate(); err != nil {
		return core.WaterLog{}, err
	}
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO water_logs (timestamp, amount) VALUES (?, ?) RETURNING id`,
		formatTimestamp(w.Timestamp), w.Amount,
	).Scan(&w.ID)
	if err != nil {
		return core.WaterLog{}, fmt.Errorf("create water log: %w", err)
	}
	return w, nil
}

func (r *SQLiteRepository) DeleteWaterLogsSince(ctx context.Context, since time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM water_logs WHERE timestamp >= ?`, formatTimestamp(since))
	if err != nil {
		return 0, fmt.Errorf("delete water logs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete water logs: %w", err)
	}
	return n, nil
}

// Affirmations

func (r *SQLiteRepository) ListAffirmations(ctx context.Context) ([]core.Affirmation, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, message FROM affirmations ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list affirmations: %w", err)
	}
	defer rows.Close()

	var out []core.Affirmation
	for rows.Next() {
		var a core.Affirmation
		if err := rows.Scan(&a.ID, &a.Message); err != nil {
			return nil, fmt.Errorf("scan affirmation: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) CreateAffirmation(ctx context.Context, a core.Affirmation) (core.Affirmation, error) {
	if err := a.Validate(); err != nil {
		return core.Affirmation{}, err
	}
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO affirmations (message) VALUES (?) RETURNING id`, a.Message,
	).Scan(&a.ID)
	if err != nil {
		return core.Affirmation{}, fmt.Errorf("create affirmation: %w", err)
	}
	return a, nil
}

// Activities

func (r *SQLiteRepository) ListActivities(ctx context.Context) ([]core.Activity, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, activity_type, duration, date FROM activities ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	defer rows.Close()

	var out []core.Activity
	for rows.Next() {
		var (
			a    core.Activity
			date string
		)
		if err := rows.Scan(&a.ID, &a.ActivityType, &a.Duration, &date); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		if a.Date, err = parseDate(date); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) CreateActivity(ctx context.Context, a core.Activity) (core.Activity, error) {
	if err := a.Validate(); err != nil {
		return core.Activity{}, err
	}
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO activities (activity_type, duration, date) VALUES (?, ?, ?) RETURNING id`,
		a.ActivityType, a.Duration, a.Date.String(),
	).Scan(&a.ID)
	if err != nil {
		return core.Activity{}, fmt.Errorf("create activity: %w", err)
	}
	return a, nil
}

func (r *SQLiteRepository) DeleteActivity(ctx context.Context, id int64) error {
	if err := r.execAffecting(ctx, `DELETE FROM activities WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete activity %d: %w", id, err)
	}
	return nil
}
