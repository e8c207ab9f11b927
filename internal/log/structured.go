package log

import (
	"context"
	"log/slog"
	"net/http"
)

// StructuredLogger writes the recurring application events with a fixed set
// of fields so they can be queried consistently.
type StructuredLogger struct {
	logger *Logger
}

func NewStructuredLogger(logger *Logger) *StructuredLogger {
	return &StructuredLogger{logger: logger}
}

// LogHTTPStart records an incoming request.
func (sl *StructuredLogger) LogHTTPStart(ctx context.Context, r *http.Request, clientIP string) {
	f := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.UserAgent(), r.Referer()).
		WithClientIP(clientIP).
		WithComponent(ComponentHTTP)
	sl.logger.InfoContext(ctx, "HTTP request started", f.ToSlice()...)
}

// LogHTTPEnd records the response. 4xx are warnings and 5xx errors.
func (sl *StructuredLogger) LogHTTPEnd(ctx context.Context, r *http.Request, statusCode int, durationMs int64, clientIP string) {
	level := slog.LevelInfo
	switch {
	case statusCode >= 500:
		level = slog.LevelError
	case statusCode >= 400:
		level = slog.LevelWarn
	}

	f := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, "", "").
		WithHTTPResponse(statusCode, durationMs, statusCode < 400).
		WithClientIP(clientIP).
		WithComponent(ComponentHTTP)
	sl.logger.Logger.Log(ctx, level, "HTTP request completed", f.ToSlice()...)
}

func (sl *StructuredLogger) LogExpenseCreated(ctx context.Context, id int64, desc, amount string, categoryID *int64) {
	f := NewFields().
		WithExpense(desc, amount, categoryID).
		WithRecord(id).
		WithOperation(OpCreate).
		WithComponent(ComponentExpense)
	sl.logger.InfoContext(ctx, "Expense created", f.ToSlice()...)
}

// LogBudgetSaved records a budget upsert; action is "created" or "updated".
func (sl *StructuredLogger) LogBudgetSaved(ctx context.Context, action string, id, categoryID int64, amount string, month, year int) {
	f := NewFields().
		WithRecord(id).
		WithOperation(action).
		WithComponent(ComponentBudget)
	f[FieldCategoryID] = categoryID
	f[FieldAmount] = amount
	f[FieldMonth] = month
	f[FieldYear] = year
	sl.logger.InfoContext(ctx, "Budget saved", f.ToSlice()...)
}

// LogError logs err tagged with component and operation. fields may be nil.
func (sl *StructuredLogger) LogError(ctx context.Context, msg string, err error, component, operation string, fields LogFields) {
	if fields == nil {
		fields = NewFields()
	}
	f := fields.WithError(err).WithOperation(operation).WithComponent(component)
	sl.logger.ErrorContext(ctx, msg, f.ToSlice()...)
}
