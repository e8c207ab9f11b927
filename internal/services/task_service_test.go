package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lifetrack/internal/core"
	"lifetrack/internal/repo"
	"lifetrack/internal/repo/memory"
)

func newTaskService(t *testing.T) *TaskService {
	t.Helper()
	svc := NewTaskService(memory.New(), testLogger())
	svc.now = fixedClock(march6)

	ctx := context.Background()
	for _, tc := range []struct {
		desc string
		date core.Date
	}{
		{"Pay rent", core.NewDate(2024, 3, 6)},
		{"Gym", core.NewDate(2024, 3, 4)},
		{"Dentist", core.NewDate(2024, 3, 10)},
		{"Taxes", core.NewDate(2024, 2, 28)},
	} {
		_, err := svc.Create(ctx, tc.desc, tc.date)
		require.NoError(t, err)
	}
	return svc
}

func descriptions(tasks []core.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.Description
	}
	return out
}

func TestTaskService_List(t *testing.T) {
	svc := newTaskService(t)
	ctx := context.Background()

	tests := []struct {
		filter string
		want   []string
	}{
		{"today", []string{"Pay rent"}},
		{"week", []string{"Pay rent", "Gym"}},
		{"month", []string{"Pay rent", "Gym", "Dentist"}},
		{"all", []string{"Taxes", "Gym", "Pay rent", "Dentist"}},
		{"bogus", []string{"Taxes", "Gym", "Pay rent", "Dentist"}},
	}
	for _, tt := range tests {
		t.Run(tt.filter, func(t *testing.T) {
			got, err := svc.List(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, descriptions(got))
		})
	}

	today, err := svc.Today(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Pay rent"}, descriptions(today))
}

func TestTaskService_CreateValidation(t *testing.T) {
	svc := newTaskService(t)
	_, err := svc.Create(context.Background(), "  ", core.NewDate(2024, 3, 6))
	assert.ErrorIs(t, err, core.ErrEmptyDescription)

	_, err = svc.Create(context.Background(), "x", core.Date{})
	assert.ErrorIs(t, err, core.ErrInvalidDate)
}

func TestTaskService_CompleteDeleteAndViews(t *testing.T) {
	svc := newTaskService(t)
	ctx := context.Background()

	all, err := svc.List(ctx, "all")
	require.NoError(t, err)
	gym := all[1]

	require.NoError(t, svc.Complete(ctx, gym.ID))
	require.NoError(t, svc.Complete(ctx, gym.ID))

	stats, err := svc.Productivity(ctx)
	require.NoError(t, err)
	assert.Equal(t, core.ProductivityStats{Completed: 1, Pending: 3, CompletedThisWeek: 1, CompletedThisMonth: 1}, stats)

	cal, err := svc.Calendar(ctx)
	require.NoError(t, err)
	assert.Len(t, cal.Events, 3)
	assert.Equal(t, []string{"Dentist"}, cal.ByDate["2024-03-10"])
	assert.NotContains(t, cal.ByDate, "2024-03-04")

	require.NoError(t, svc.Delete(ctx, gym.ID))
	assert.ErrorIs(t, svc.Delete(ctx, gym.ID), repo.ErrNotFound)
	assert.ErrorIs(t, svc.Complete(ctx, gym.ID), repo.ErrNotFound)
}
