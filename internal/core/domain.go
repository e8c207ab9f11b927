package core

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

type (
	// Date is a calendar date stored at midnight UTC.
	Date struct {
		time.Time
	}

	Task struct {
		ID          int64
		Description string
		Completed   bool
		Date        Date
	}

	Expense struct {
		ID          int64
		Description string
		Amount      decimal.Decimal
		Timestamp   time.Time
		CategoryID  *int64 // nil when uncategorised or the category was removed
	}

	ExpenseCategory struct {
		ID    int64
		Name  string
		Color string // "#RRGGBB", empty when absent
	}

	Budget struct {
		ID         int64
		CategoryID int64
		Amount     decimal.Decimal
		Month      int // 1-12
		Year       int
	}

	WaterLog struct {
		ID        int64
		Timestamp time.Time
		Amount    int // millilitres
	}

	Affirmation struct {
		ID      int64
		Message string
	}

	Activity struct {
		ID           int64
		ActivityType string
		Duration     float64 // minutes
		Date         Date
	}
)

var (
	ErrInvalidDay       = errors.New("invalid day")
	ErrInvalidMonth     = errors.New("invalid month")
	ErrInvalidYear      = errors.New("invalid year")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidColor     = errors.New("invalid color")
	ErrInvalidDuration  = errors.New("invalid duration")
	ErrEmptyDescription = errors.New("empty description")
	ErrEmptyName        = errors.New("empty name")
	ErrEmptyMessage     = errors.New("empty message")
	ErrTooLong          = errors.New("value too long")
)

var colorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar date in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format(dateLayout)
}

// AddDays returns the date n calendar days later (or earlier for negative n).
func (d Date) AddDays(n int) Date {
	return Date{Time: d.AddDate(0, 0, n)}
}

// Equal reports whether both dates denote the same calendar day.
func (d Date) Equal(o Date) bool {
	return d.Time.Equal(o.Time)
}

func (d Date) Before(o Date) bool {
	return d.Time.Before(o.Time)
}

func (d Date) After(o Date) bool {
	return d.Time.After(o.Time)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func validateText(s string, max int, empty error) error {
	if strings.TrimSpace(s) == "" {
		return empty
	}
	if len(s) > max {
		return ErrTooLong
	}
	return nil
}

func (t Task) Validate() error {
	if err := validateText(t.Description, 200, ErrEmptyDescription); err != nil {
		return err
	}
	return t.Date.Validate()
}

func (e Expense) Validate() error {
	if err := validateText(e.Description, 200, ErrEmptyDescription); err != nil {
		return err
	}
	if !e.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}

func (c ExpenseCategory) Validate() error {
	if err := validateText(c.Name, 100, ErrEmptyName); err != nil {
		return err
	}
	if c.Color != "" && !colorPattern.MatchString(c.Color) {
		return ErrInvalidColor
	}
	return nil
}

func (b Budget) Validate() error {
	if b.Amount.IsNegative() {
		return ErrInvalidAmount
	}
	if b.Month < 1 || b.Month > 12 {
		return ErrInvalidMonth
	}
	if b.Year < 1 {
		return ErrInvalidYear
	}
	return nil
}

func (w WaterLog) Validate() error {
	if w.Amount <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (a Affirmation) Validate() error {
	return validateText(a.Message, 200, ErrEmptyMessage)
}

func (a Activity) Validate() error {
	if err := validateText(a.ActivityType, 100, ErrEmptyName); err != nil {
		return err
	}
	if a.Duration < 0 {
		return ErrInvalidDuration
	}
	return a.Date.Validate()
}
