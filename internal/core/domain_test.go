package core

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{}, false},
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-03-04")
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if !d.Equal(NewDate(2024, 3, 4)) {
		t.Fatalf("got %s", d)
	}
	for _, in := range []string{"", "04/03/2024", "2024-13-01"} {
		if _, err := ParseDate(in); err != ErrInvalidDate {
			t.Fatalf("%q expected ErrInvalidDate, got %v", in, err)
		}
	}
}

func TestTaskValidate(t *testing.T) {
	if err := (Task{Description: "buy milk", Date: NewDate(2024, 3, 4)}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	bads := []Task{
		{Description: "", Date: NewDate(2024, 3, 4)},
		{Description: "   ", Date: NewDate(2024, 3, 4)},
		{Description: strings.Repeat("x", 201), Date: NewDate(2024, 3, 4)},
		{Description: "no date"},
	}
	for i, tk := range bads {
		if err := tk.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestExpenseValidate(t *testing.T) {
	good := Expense{Description: "lunch", Amount: decimal.RequireFromString("12.50")}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	bads := []Expense{
		{Description: "", Amount: decimal.NewFromInt(1)},
		{Description: "zero", Amount: decimal.Zero},
		{Description: "negative", Amount: decimal.NewFromInt(-3)},
	}
	for i, e := range bads {
		if err := e.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestCategoryValidate(t *testing.T) {
	cases := []struct {
		c  ExpenseCategory
		ok bool
	}{
		{ExpenseCategory{Name: "Food", Color: "#FF6384"}, true},
		{ExpenseCategory{Name: "Misc"}, true},
		{ExpenseCategory{Name: "Bad", Color: "red"}, false},
		{ExpenseCategory{Name: "Bad", Color: "#12345"}, false},
		{ExpenseCategory{Name: "", Color: "#FFFFFF"}, false},
	}
	for i, tc := range cases {
		err := tc.c.Validate()
		if tc.ok != (err == nil) {
			t.Fatalf("case %d ok=%v, got %v", i, tc.ok, err)
		}
	}
}

func TestBudgetValidate(t *testing.T) {
	if err := (Budget{CategoryID: 1, Amount: decimal.Zero, Month: 3, Year: 2024}).Validate(); err != nil {
		t.Fatalf("zero budget should be allowed: %v", err)
	}
	if err := (Budget{CategoryID: 1, Amount: decimal.NewFromInt(-1), Month: 3, Year: 2024}).Validate(); err != ErrInvalidAmount {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if err := (Budget{CategoryID: 1, Amount: decimal.NewFromInt(1), Month: 13, Year: 2024}).Validate(); err != ErrInvalidMonth {
		t.Fatalf("expected ErrInvalidMonth, got %v", err)
	}
}
