package core

import "github.com/shopspring/decimal"

// BudgetAction tells the caller whether to insert or update.
type BudgetAction string

const (
	BudgetCreate BudgetAction = "create"
	BudgetUpdate BudgetAction = "update"
)

// BudgetDecision is the outcome of UpsertBudget. Budget holds the record to
// persist: the existing one with its amount overwritten, or a new one.
type BudgetDecision struct {
	Action BudgetAction
	Budget Budget
}

// FindBudget returns the budget for (categoryID, month, year), if any.
func FindBudget(budgets []Budget, categoryID int64, month, year int) (Budget, bool) {
	for _, b := range budgets {
		if b.CategoryID == categoryID && b.Month == month && b.Year == year {
			return b, true
		}
	}
	return Budget{}, false
}

// UpsertBudget decides how to set the budget for (categoryID, month, year).
func UpsertBudget(existing []Budget, categoryID int64, amount decimal.Decimal, month, year int) BudgetDecision {
	if b, ok := FindBudget(existing, categoryID, month, year); ok {
		b.Amount = amount
		return BudgetDecision{Action: BudgetUpdate, Budget: b}
	}
	return BudgetDecision{
		Action: BudgetCreate,
		Budget: Budget{CategoryID: categoryID, Amount: amount, Month: month, Year: year},
	}
}

// ApplyBudgetDecision returns budgets with the decision applied in memory.
// New budgets get the next free id.
func ApplyBudgetDecision(budgets []Budget, d BudgetDecision) []Budget {
	out := append([]Budget(nil), budgets...)
	if d.Action == BudgetUpdate {
		for i := range out {
			if out[i].ID == d.Budget.ID {
				out[i] = d.Budget
				return out
			}
		}
	}
	var maxID int64
	for _, b := range out {
		if b.ID > maxID {
			maxID = b.ID
		}
	}
	nb := d.Budget
	nb.ID = maxID + 1
	return append(out, nb)
}

// BudgetStatus is a budget compared with what was spent in its month.
type BudgetStatus struct {
	Category  ExpenseCategory
	Budget    Budget
	Spent     decimal.Decimal
	Remaining decimal.Decimal
	Percent   int // spent/budget, capped at 100; 0 for a zero budget
	Over      bool
}

// BudgetProgress pairs each budget with its category and monthly spend.
// Budgets whose category is unknown are skipped. Output follows category order.
func BudgetProgress(budgets []Budget, categories []ExpenseCategory, totals map[int64]decimal.Decimal) []BudgetStatus {
	byCategory := make(map[int64]Budget, len(budgets))
	for _, b := range budgets {
		byCategory[b.CategoryID] = b
	}
	hundred := decimal.NewFromInt(100)
	var out []BudgetStatus
	for _, c := range categories {
		b, ok := byCategory[c.ID]
		if !ok {
			continue
		}
		spent := totals[c.ID]
		st := BudgetStatus{
			Category:  c,
			Budget:    b,
			Spent:     spent,
			Remaining: b.Amount.Sub(spent),
			Over:      spent.GreaterThan(b.Amount),
		}
		if b.Amount.IsPositive() {
			pct := spent.Mul(hundred).Div(b.Amount).Round(0).IntPart()
			if pct > 100 {
				pct = 100
			}
			st.Percent = int(pct)
		}
		out = append(out, st)
	}
	return out
}
