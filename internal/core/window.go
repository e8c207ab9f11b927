package core

import (
	"sort"
	"strings"
	"time"
)

// Window selects dated records relative to a reference day.
type Window string

const (
	WindowToday Window = "today"
	WindowWeek  Window = "week"
	WindowMonth Window = "month"
	WindowAll   Window = "all"
)

// WindowMatch reports which windows a date falls into.
type WindowMatch struct {
	Today bool
	Week  bool
	Month bool
}

// ParseWindow maps a filter keyword to a Window. Unknown keywords mean WindowAll.
func ParseWindow(keyword string) Window {
	switch w := Window(strings.ToLower(strings.TrimSpace(keyword))); w {
	case WindowToday, WindowWeek, WindowMonth:
		return w
	default:
		return WindowAll
	}
}

// weekdayMon0 numbers weekdays from Monday=0 to Sunday=6.
func weekdayMon0(wd time.Weekday) int {
	return (int(wd) + 6) % 7
}

// WeekStart returns the Monday of the week containing today.
func WeekStart(today Date) Date {
	return today.AddDays(-weekdayMon0(today.Weekday()))
}

// MonthStart returns the first day of today's month.
func MonthStart(today Date) Date {
	return NewDate(today.Time.Year(), int(today.Time.Month()), 1)
}

// Classify reports whether ref falls on today, in the current week so far
// (Monday through today) and in today's calendar month.
func Classify(ref, today Date) WindowMatch {
	ws := WeekStart(today)
	return WindowMatch{
		Today: ref.Equal(today),
		Week:  !ref.Before(ws) && !ref.After(today),
		Month: ref.Time.Year() == today.Time.Year() && ref.Time.Month() == today.Time.Month(),
	}
}

// Matches reports whether ref satisfies the window's predicate.
func (w Window) Matches(ref, today Date) bool {
	m := Classify(ref, today)
	switch w {
	case WindowToday:
		return m.Today
	case WindowWeek:
		return m.Week
	case WindowMonth:
		return m.Month
	default:
		return true
	}
}

// Dated is implemented by records that carry a calendar date.
type Dated interface {
	RecordDate() Date
}

func (t Task) RecordDate() Date     { return t.Date }
func (a Activity) RecordDate() Date { return a.Date }

// FilterByWindow returns the records whose date satisfies w, keeping input order.
// For WindowAll every record is returned, sorted by date ascending.
func FilterByWindow[T Dated](records []T, w Window, today Date) []T {
	out := make([]T, 0, len(records))
	if w == WindowAll || w == "" {
		out = append(out, records...)
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].RecordDate().Before(out[j].RecordDate())
		})
		return out
	}
	for _, r := range records {
		if w.Matches(r.RecordDate(), today) {
			out = append(out, r)
		}
	}
	return out
}

// FilterTasks applies a filter keyword (today, week, month, all) to tasks.
func FilterTasks(tasks []Task, keyword string, today Date) []Task {
	return FilterByWindow(tasks, ParseWindow(keyword), today)
}
