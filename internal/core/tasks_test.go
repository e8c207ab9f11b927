package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductivity(t *testing.T) {
	today := NewDate(2024, 3, 6)
	tasks := []Task{
		{ID: 1, Completed: true, Date: today},
		{ID: 2, Completed: true, Date: NewDate(2024, 3, 4)},
		{ID: 3, Completed: true, Date: NewDate(2024, 3, 1)},
		{ID: 4, Completed: true, Date: NewDate(2024, 2, 28)},
		{ID: 5, Completed: false, Date: today},
		{ID: 6, Completed: false, Date: NewDate(2023, 1, 1)},
	}

	got := Productivity(tasks, today)
	assert.Equal(t, ProductivityStats{
		Completed:          4,
		Pending:            2,
		CompletedToday:     1,
		CompletedThisWeek:  2,
		CompletedThisMonth: 3,
	}, got)

	assert.Equal(t, ProductivityStats{}, Productivity(nil, today))
}

func TestCalendar(t *testing.T) {
	tasks := []Task{
		{ID: 1, Description: "dentist", Date: NewDate(2024, 3, 6)},
		{ID: 2, Description: "done already", Completed: true, Date: NewDate(2024, 3, 6)},
		{ID: 3, Description: "groceries", Date: NewDate(2024, 3, 6)},
		{ID: 4, Description: "taxes", Date: NewDate(2024, 4, 15)},
	}

	events, byDate := Calendar(tasks)
	require.Len(t, events, 3)
	assert.Equal(t, CalendarEvent{Title: "dentist", Start: "2024-03-06"}, events[0])
	assert.Equal(t, CalendarEvent{Title: "taxes", Start: "2024-04-15"}, events[2])
	assert.Equal(t, map[string][]string{
		"2024-03-06": {"dentist", "groceries"},
		"2024-04-15": {"taxes"},
	}, byDate)

	events, byDate = Calendar(nil)
	assert.Empty(t, events)
	assert.Empty(t, byDate)
}
