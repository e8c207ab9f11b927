package core

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultMonthsBack is the length of the rolling trend window.
const DefaultMonthsBack = 6

// CategoryTotal is one slice of the category breakdown.
type CategoryTotal struct {
	CategoryID int64
	Name       string
	Total      decimal.Decimal
	Color      string
}

// MonthTotal is one bucket of the rolling monthly series.
type MonthTotal struct {
	Label string // "Jan 2006"
	Start time.Time
	End   time.Time
	Total decimal.Decimal
}

// ExpenseFilter narrows the expenses list view.
type ExpenseFilter struct {
	CategoryID *int64
	Window     Window // only WindowWeek and WindowMonth restrict; anything else is unfiltered
}

// ExpenseListing is the filtered, newest-first expense list and its total.
type ExpenseListing struct {
	Expenses []Expense
	Total    decimal.Decimal
}

func inCategory(e Expense, categoryID int64) bool {
	return e.CategoryID != nil && *e.CategoryID == categoryID
}

func inMonth(t time.Time, month, year int) bool {
	return int(t.Month()) == month && t.Year() == year
}

// Sum adds up the amounts of expenses.
func Sum(expenses []Expense) decimal.Decimal {
	total := decimal.Zero
	for _, e := range expenses {
		total = total.Add(e.Amount)
	}
	return total
}

// MonthlyTotalByCategory sums the expenses of one category whose timestamp
// falls in the given month and year. No matches yields zero.
func MonthlyTotalByCategory(expenses []Expense, categoryID int64, month, year int) decimal.Decimal {
	total := decimal.Zero
	for _, e := range expenses {
		if inCategory(e, categoryID) && inMonth(e.Timestamp, month, year) {
			total = total.Add(e.Amount)
		}
	}
	return total
}

// CategoryTotals maps every category id to its monthly total.
func CategoryTotals(categories []ExpenseCategory, expenses []Expense, month, year int) map[int64]decimal.Decimal {
	totals := make(map[int64]decimal.Decimal, len(categories))
	for _, c := range categories {
		totals[c.ID] = decimal.Zero
	}
	for _, e := range expenses {
		if e.CategoryID == nil || !inMonth(e.Timestamp, month, year) {
			continue
		}
		if t, ok := totals[*e.CategoryID]; ok {
			totals[*e.CategoryID] = t.Add(e.Amount)
		}
	}
	return totals
}

// CategoryBreakdown returns one entry per category, in category order.
// Expenses referencing unknown categories are ignored.
func CategoryBreakdown(categories []ExpenseCategory, expenses []Expense, month, year int) []CategoryTotal {
	totals := CategoryTotals(categories, expenses, month, year)
	out := make([]CategoryTotal, 0, len(categories))
	for _, c := range categories {
		out = append(out, CategoryTotal{
			CategoryID: c.ID,
			Name:       c.Name,
			Total:      totals[c.ID],
			Color:      c.Color,
		})
	}
	return out
}

// firstOfMonth moves t to day 1 of its month, keeping the clock time.
func firstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// RollingMonthlyTotals returns monthsBack buckets, oldest first.
//
// Bucket i is anchored at anchor minus 30*i days, moved to day 1 of that
// month, and ends on the last day of the same month. Both bounds keep the
// anchor's clock time and are inclusive. The fixed 30-day step means labels
// can repeat or skip a month depending on the anchor day.
func RollingMonthlyTotals(expenses []Expense, monthsBack int, anchor time.Time) []MonthTotal {
	if monthsBack <= 0 {
		monthsBack = DefaultMonthsBack
	}
	out := make([]MonthTotal, monthsBack)
	for i := 0; i < monthsBack; i++ {
		start := firstOfMonth(anchor.AddDate(0, 0, -30*i))
		end := firstOfMonth(start.AddDate(0, 0, 32)).AddDate(0, 0, -1)
		total := decimal.Zero
		for _, e := range expenses {
			if !e.Timestamp.Before(start) && !e.Timestamp.After(end) {
				total = total.Add(e.Amount)
			}
		}
		out[monthsBack-1-i] = MonthTotal{
			Label: start.Format("Jan 2006"),
			Start: start,
			End:   end,
			Total: total,
		}
	}
	return out
}

// ExpenseWindowStart returns the inclusive lower bound for the expenses list
// time filter, or false when w does not restrict the list. The bound keeps
// now's clock time.
func ExpenseWindowStart(w Window, now time.Time) (time.Time, bool) {
	switch w {
	case WindowWeek:
		return now.AddDate(0, 0, -weekdayMon0(now.Weekday())), true
	case WindowMonth:
		return firstOfMonth(now), true
	default:
		return time.Time{}, false
	}
}

// FilterExpenses applies the category filter, then the time window, sorts the
// result newest first and totals it.
func FilterExpenses(expenses []Expense, f ExpenseFilter, now time.Time) ExpenseListing {
	start, bounded := ExpenseWindowStart(f.Window, now)
	out := make([]Expense, 0, len(expenses))
	for _, e := range expenses {
		if f.CategoryID != nil && !inCategory(e, *f.CategoryID) {
			continue
		}
		if bounded && e.Timestamp.Before(start) {
			continue
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return ExpenseListing{Expenses: out, Total: Sum(out)}
}
