package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"today/internal/calendar"
	"today/internal/task"
)

var (
	cal = calendar.New(time.UTC, time.Sunday)
	ev  = New(cal)

	// Friday 2026-10-16; one day left in a Sunday-first week.
	friday   = time.Date(2026, time.October, 16, 9, 0, 0, 0, time.UTC)
	thursday = friday.AddDate(0, 0, -1)
	saturday = friday.AddDate(0, 0, 1)
)

func recurring(t *testing.T, freq task.Frequency, interval int, done ...time.Time) task.Task {
	t.Helper()
	tk, err := task.NewRecurring("stretch", friday.AddDate(0, -1, 0), freq, interval, false)
	require.NoError(t, err)
	tk.CompletionDates = done
	return tk
}

func TestCompletionCount(t *testing.T) {
	tk := recurring(t, task.Weekly, 3,
		friday.Add(-time.Hour),
		time.Date(2026, 10, 12, 8, 0, 0, 0, time.UTC),
		time.Date(2026, 10, 9, 8, 0, 0, 0, time.UTC), // last week
		time.Date(2026, 10, 11, 0, 0, 0, 0, time.UTC),
	)
	assert.Equal(t, 3, ev.CompletionCount(tk, friday))

	tk.Frequency = task.Daily
	assert.Equal(t, 1, ev.CompletionCount(tk, friday))

	tk.Frequency = task.Monthly
	assert.Equal(t, 4, ev.CompletionCount(tk, friday))
}

func TestNeedsCompletion(t *testing.T) {
	t.Run("no completions", func(t *testing.T) {
		assert.True(t, ev.NeedsCompletion(recurring(t, task.Daily, 1), friday))
	})
	t.Run("one completion meets interval one", func(t *testing.T) {
		assert.False(t, ev.NeedsCompletion(recurring(t, task.Daily, 1, friday), friday))
	})
	t.Run("yesterday does not count for daily", func(t *testing.T) {
		assert.True(t, ev.NeedsCompletion(recurring(t, task.Daily, 1, thursday), friday))
	})
	t.Run("yearly counts across months", func(t *testing.T) {
		march := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
		assert.False(t, ev.NeedsCompletion(recurring(t, task.Yearly, 1, march), friday))
	})
	t.Run("regular follows completed flag", func(t *testing.T) {
		tk, err := task.NewRegular("mail", friday)
		require.NoError(t, err)
		assert.True(t, ev.NeedsCompletion(tk, friday))
		tk.Completed = true
		assert.False(t, ev.NeedsCompletion(tk, friday))
	})
	t.Run("recurring ignores completed flag", func(t *testing.T) {
		tk := recurring(t, task.Daily, 1)
		tk.Completed = true
		assert.True(t, ev.NeedsCompletion(tk, friday))
	})
}

func TestCompletedTodayIsIndependentOfPeriodTarget(t *testing.T) {
	tk := recurring(t, task.Daily, 2, friday.Add(-2*time.Hour))
	assert.True(t, ev.CompletedToday(tk, friday))
	assert.True(t, ev.NeedsCompletion(tk, friday))

	tk.CompletionDates = []time.Time{thursday}
	assert.False(t, ev.CompletedToday(tk, friday))
}

func TestUrgent(t *testing.T) {
	t.Run("daily with nothing done", func(t *testing.T) {
		assert.True(t, ev.Urgent(recurring(t, task.Daily, 1), friday))
	})
	t.Run("daily done today", func(t *testing.T) {
		assert.False(t, ev.Urgent(recurring(t, task.Daily, 1, friday), friday))
	})
	t.Run("weekly one short with two days left", func(t *testing.T) {
		tk := recurring(t, task.Weekly, 2, time.Date(2026, 10, 12, 8, 0, 0, 0, time.UTC))
		assert.Equal(t, 2, cal.Remaining(calendar.Week, thursday))
		assert.False(t, ev.Urgent(tk, thursday))
	})
	t.Run("weekly one short with one day left", func(t *testing.T) {
		tk := recurring(t, task.Weekly, 2, time.Date(2026, 10, 12, 8, 0, 0, 0, time.UTC))
		assert.True(t, ev.Urgent(tk, friday))
	})
	t.Run("weekly two short with one day left", func(t *testing.T) {
		assert.True(t, ev.Urgent(recurring(t, task.Weekly, 2), friday))
	})
	t.Run("satisfied on the last day of the week", func(t *testing.T) {
		tk := recurring(t, task.Weekly, 1, friday)
		assert.Equal(t, 0, cal.Remaining(calendar.Week, saturday))
		assert.True(t, ev.Urgent(tk, saturday))
	})
	t.Run("over-satisfied is never urgent", func(t *testing.T) {
		tk := recurring(t, task.Weekly, 1, friday, thursday)
		assert.False(t, ev.Urgent(tk, saturday))
	})
	t.Run("monthly early in the month", func(t *testing.T) {
		assert.False(t, ev.Urgent(recurring(t, task.Monthly, 4), friday))
	})
	t.Run("non-recurring", func(t *testing.T) {
		tk, err := task.NewRegular("mail", friday)
		require.NoError(t, err)
		assert.False(t, ev.Urgent(tk, friday))
	})
}

func TestUnknownFrequencyFailsClosed(t *testing.T) {
	tk := recurring(t, task.Daily, 1, friday)
	tk.Frequency = task.Frequency("Biweekly")

	assert.Equal(t, 0, ev.CompletionCount(tk, friday))
	assert.False(t, ev.NeedsCompletion(tk, friday))
	assert.False(t, ev.Urgent(tk, friday))
	assert.True(t, ev.CompletedToday(tk, friday))
}

func TestToggleToday(t *testing.T) {
	original := []time.Time{thursday}
	tk := recurring(t, task.Daily, 1, original...)

	once := ev.ToggleToday(tk, friday)
	require.Len(t, once, 2)
	assert.Equal(t, friday, once[1])
	assert.Len(t, tk.CompletionDates, 1, "input must not be modified")

	tk.CompletionDates = once
	twice := ev.ToggleToday(tk, friday.Add(3*time.Hour))
	assert.Equal(t, original, twice)
}

func TestToggleTodayRemovesOnlyFirstEntryOfTheDay(t *testing.T) {
	a, b := friday.Add(-time.Hour), friday.Add(-2*time.Hour)
	tk := recurring(t, task.Daily, 2, a, thursday, b)
	assert.Equal(t, []time.Time{thursday, b}, ev.ToggleToday(tk, friday))
}

func TestStatus(t *testing.T) {
	tk := recurring(t, task.Weekly, 3, thursday, friday)
	s := ev.Status(tk, friday)
	assert.Equal(t, Status{Count: 2, Needed: 1, NeedsCompletion: true, CompletedToday: true, Urgent: true}, s)
}
