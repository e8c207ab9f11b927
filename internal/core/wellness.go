package core

import (
	"errors"
	"strings"
	"time"
)

// DefaultWaterGoalML is the daily hydration target when none is configured.
const DefaultWaterGoalML = 2000

// HydrationSummary is today's water intake against the goal.
type HydrationSummary struct {
	Records []WaterLog
	Total   int
	Goal    int
	Percent int // capped at 100
}

// StartOfDay returns local midnight of t's day.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Hydration keeps logs stamped at or after today's midnight and totals them.
func Hydration(logs []WaterLog, now time.Time, goal int) HydrationSummary {
	if goal <= 0 {
		goal = DefaultWaterGoalML
	}
	midnight := StartOfDay(now)
	s := HydrationSummary{Goal: goal, Records: []WaterLog{}}
	for _, l := range logs {
		if l.Timestamp.Before(midnight) {
			continue
		}
		s.Records = append(s.Records, l)
		s.Total += l.Amount
	}
	s.Percent = s.Total * 100 / goal
	if s.Percent > 100 {
		s.Percent = 100
	}
	return s
}

// Meal is a nutrition log entry kept in the visitor's session.
type Meal struct {
	Food     string `json:"food"`
	Calories int    `json:"calories"`
	Protein  int    `json:"protein"`
	MealType string `json:"meal_type"`
	Time     string `json:"time"` // HH:MM
}

var ErrEmptyFood = errors.New("empty food name")

func (m Meal) Validate() error {
	if strings.TrimSpace(m.Food) == "" {
		return ErrEmptyFood
	}
	if m.Calories < 0 || m.Protein < 0 {
		return ErrInvalidAmount
	}
	return nil
}

// NutritionGoals are the daily calorie and protein targets.
type NutritionGoals struct {
	Calories int `json:"calories"`
	Protein  int `json:"protein"`
}

// DefaultNutritionGoals returns 2000 kcal and 150 g protein.
func DefaultNutritionGoals() NutritionGoals {
	return NutritionGoals{Calories: 2000, Protein: 150}
}

// NutritionTotals sums calories and protein over meals.
func NutritionTotals(meals []Meal) NutritionGoals {
	var t NutritionGoals
	for _, m := range meals {
		t.Calories += m.Calories
		t.Protein += m.Protein
	}
	return t
}

// TotalDuration sums activity minutes.
func TotalDuration(activities []Activity) float64 {
	var total float64
	for _, a := range activities {
		total += a.Duration
	}
	return total
}

// DefaultCategories is the seed set of expense categories.
func DefaultCategories() []ExpenseCategory {
	return []ExpenseCategory{
		{Name: "Food", Color: "#FF6384"},
		{Name: "Transport", Color: "#36A2EB"},
		{Name: "Entertainment", Color: "#FFCE56"},
		{Name: "Utilities", Color: "#4BC0C0"},
		{Name: "Shopping", Color: "#9966FF"},
		{Name: "Health", Color: "#FF9F40"},
	}
}

// MissingCategories returns the seeds whose name is not yet taken.
func MissingCategories(existing, seeds []ExpenseCategory) []ExpenseCategory {
	taken := make(map[string]struct{}, len(existing))
	for _, c := range existing {
		taken[c.Name] = struct{}{}
	}
	var out []ExpenseCategory
	for _, s := range seeds {
		if _, ok := taken[s.Name]; ok {
			continue
		}
		taken[s.Name] = struct{}{}
		out = append(out, s)
	}
	return out
}
