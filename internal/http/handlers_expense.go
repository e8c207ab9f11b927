package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"lifetrack/internal/charts"
	"lifetrack/internal/core"
	applog "lifetrack/internal/log"
	"lifetrack/internal/repo"
	"lifetrack/internal/session"
)

type expenseRow struct {
	ID          int64
	When        string
	Description string
	Category    string
	Color       string
	Amount      string
}

type budgetRow struct {
	Name    string
	Color   string
	Spent   string
	Amount  string
	Percent int
	Over    bool
}

type monthRow struct {
	Label string
	Total string
}

type expensesView struct {
	Categories     []core.ExpenseCategory
	CategoryFilter string
	TimeFilter     string
	Total          string
	Rows           []expenseRow
	Budgets        []budgetRow
	Months         []monthRow
	MonthLabel     string
}

func (s *Server) handleExpenses(w http.ResponseWriter, r *http.Request) {
	filter := ParseExpenseFilter(r.URL.Query())
	d, err := s.expenses.Dashboard(r.Context(), filter)
	if err != nil {
		s.serverError(w, r, "Failed to load expenses", err, applog.ComponentExpense, applog.OpList)
		return
	}

	byID := make(map[int64]core.ExpenseCategory, len(d.Categories))
	for _, c := range d.Categories {
		byID[c.ID] = c
	}

	view := expensesView{
		Categories: d.Categories,
		TimeFilter: string(filter.Window),
		Total:      core.FormatAmount(d.Listing.Total),
		MonthLabel: time.Date(d.Year, time.Month(d.Month), 1, 0, 0, 0, 0, time.Local).Format("January 2006"),
	}
	if filter.CategoryID != nil {
		view.CategoryFilter = strconv.FormatInt(*filter.CategoryID, 10)
	}
	for _, e := range d.Listing.Expenses {
		row := expenseRow{
			ID:          e.ID,
			When:        e.Timestamp.Format("2006-01-02 15:04"),
			Description: e.Description,
			Amount:      core.FormatAmount(e.Amount),
		}
		if e.CategoryID != nil {
			if c, ok := byID[*e.CategoryID]; ok {
				row.Category, row.Color = c.Name, c.Color
			}
		}
		view.Rows = append(view.Rows, row)
	}
	for _, b := range d.Budgets {
		view.Budgets = append(view.Budgets, budgetRow{
			Name:    b.Category.Name,
			Color:   b.Category.Color,
			Spent:   core.FormatAmount(b.Spent),
			Amount:  core.FormatAmount(b.Budget.Amount),
			Percent: b.Percent,
			Over:    b.Over,
		})
	}
	for _, m := range d.Months {
		view.Months = append(view.Months, monthRow{Label: m.Label, Total: core.FormatAmount(m.Total)})
	}

	s.render(w, r, "expenses", "Expenses", view)
}

// handleCreateExpense accepts a form or a JSON body. JSON callers get the
// stored expense back with 201; form callers are redirected.
func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("Invalid request format").Write(w)
		return
	}

	e, err := ParseExpense(p)
	if err == nil {
		e, err = s.expenses.CreateExpense(r.Context(), e)
	}
	if err != nil {
		if validationError(w, err) {
			return
		}
		s.serverError(w, r, "Failed to create expense", err, applog.ComponentExpense, applog.OpCreate)
		return
	}
	s.appMetrics.expensesCreated.Add(1)

	if p.IsJSON() {
		NewResponse().Status(http.StatusCreated).JSON(map[string]any{
			"id":          e.ID,
			"description": e.Description,
			"amount":      core.FormatAmount(e.Amount),
			"category_id": e.CategoryID,
			"timestamp":   e.Timestamp.Format(time.RFC3339),
		}).Write(w)
		return
	}
	s.redirectWithFlash(w, r, "/expenses", session.FlashSuccess, "Expense added")
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	back := redirectBack(r, "/expenses")
	id, err := ParseID(r)
	if err != nil {
		s.redirectWithFlash(w, r, back, session.FlashError, "Invalid expense id")
		return
	}
	if err := s.expenses.DeleteExpense(r.Context(), id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			s.redirectWithFlash(w, r, back, "", "")
			return
		}
		s.serverError(w, r, "Failed to delete expense", err, applog.ComponentExpense, applog.OpDelete)
		return
	}
	s.redirectWithFlash(w, r, back, session.FlashSuccess, "Expense deleted")
}

// handleSetBudget creates or overwrites the budget of a category. month and
// year default to the current month.
func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	categoryID, err := parseID(r.Form.Get("category_id"))
	if err != nil {
		validationError(w, err)
		return
	}
	amount, err := core.ParseAmount(r.Form.Get("amount"))
	if err != nil {
		validationError(w, err)
		return
	}
	period := ParseMonthParams(r.Form)

	_, action, err := s.expenses.SetBudgetFor(r.Context(), categoryID, amount, period.Month, period.Year)
	if err != nil {
		if validationError(w, err) {
			return
		}
		s.serverError(w, r, "Failed to save budget", err, applog.ComponentBudget, applog.OpUpdate)
		return
	}

	msg := "Budget updated"
	if action == core.BudgetCreate {
		msg = "Budget created"
	}
	s.redirectWithFlash(w, r, "/expenses", session.FlashSuccess, msg)
}

func (s *Server) handleSeedCategories(w http.ResponseWriter, r *http.Request) {
	created, err := s.expenses.SeedCategories(r.Context())
	if err != nil {
		s.serverError(w, r, "Failed to seed categories", err, applog.ComponentExpense, applog.OpSeed)
		return
	}
	msg := "Categories already exist"
	if len(created) > 0 {
		msg = fmt.Sprintf("Added %d categories", len(created))
	}
	s.redirectWithFlash(w, r, "/expenses", session.FlashSuccess, msg)
}

// handleChartData serves the chart payload as JSON.
func (s *Server) handleChartData(w http.ResponseWriter, r *http.Request) {
	data, err := s.expenses.ChartData(r.Context())
	if err != nil {
		s.serverError(w, r, "Failed to build chart data", err, applog.ComponentExpense, applog.OpRead)
		return
	}
	NewResponse().JSON(data).Write(w)
}

func (s *Server) expenseChart(w http.ResponseWriter, r *http.Request, draw func(*charts.Renderer, core.ChartData) ([]byte, error)) {
	data, err := s.expenses.ChartData(r.Context())
	if err != nil {
		s.serverError(w, r, "Failed to build chart data", err, applog.ComponentExpense, applog.OpRead)
		return
	}
	png, err := draw(s.charts, data)
	s.writePNG(w, r, png, err)
}

func (s *Server) handleCategoryChart(w http.ResponseWriter, r *http.Request) {
	s.expenseChart(w, r, (*charts.Renderer).CategoryPie)
}

func (s *Server) handleMonthlyChart(w http.ResponseWriter, r *http.Request) {
	s.expenseChart(w, r, (*charts.Renderer).MonthlyBars)
}
