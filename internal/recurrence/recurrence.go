// Package recurrence decides whether a recurring task is still due in its
// current period and whether it is at risk of being missed.
//
// Every function takes an explicit now. An Evaluator holds no state beyond
// its calendar, so it is safe to build one per call or share one freely.
package recurrence

import (
	"slices"
	"time"

	"today/internal/calendar"
	"today/internal/task"
)

type Evaluator struct {
	cal calendar.Calendar
}

func New(cal calendar.Calendar) Evaluator {
	return Evaluator{cal: cal}
}

func (e Evaluator) Calendar() calendar.Calendar { return e.cal }

// Unit maps a frequency onto a calendar unit. Unrecognised frequencies map to
// calendar.UnitUnknown, which never shares a period with anything.
func Unit(f task.Frequency) calendar.Unit {
	switch f {
	case task.Daily:
		return calendar.Day
	case task.Weekly:
		return calendar.Week
	case task.Monthly:
		return calendar.Month
	case task.Yearly:
		return calendar.Year
	default:
		return calendar.UnitUnknown
	}
}

// CompletionCount counts the completion dates inside the period containing now.
func (e Evaluator) CompletionCount(t task.Task, now time.Time) int {
	unit := Unit(t.Frequency)
	n := 0
	for _, d := range t.CompletionDates {
		if e.cal.SamePeriod(d, now, unit) {
			n++
		}
	}
	return n
}

// NeedsCompletion reports whether a recurring task is short of its interval in
// the current period. A task with an unrecognised frequency is never due.
// For other task types it is simply !Completed.
func (e Evaluator) NeedsCompletion(t task.Task, now time.Time) bool {
	if !t.IsRecurring() {
		return !t.Completed
	}
	if !t.Frequency.Valid() {
		return false
	}
	return e.CompletionCount(t, now) < t.Interval
}

// CompletedToday drives the checkbox. For recurring tasks it looks for a
// completion on now's calendar day, independent of the period target.
func (e Evaluator) CompletedToday(t task.Task, now time.Time) bool {
	if !t.IsRecurring() {
		return t.Completed
	}
	return slices.ContainsFunc(t.CompletionDates, func(d time.Time) bool {
		return e.cal.SameDay(d, now)
	})
}

// Urgent is true when the days left in the period do not exceed the
// completions still needed. The comparison is kept literal, so a satisfied
// task on the last day of its period (0 <= 0) is urgent.
func (e Evaluator) Urgent(t task.Task, now time.Time) bool {
	if !t.IsRecurring() || !t.Frequency.Valid() {
		return false
	}
	timeLeft := e.cal.Remaining(Unit(t.Frequency), now)
	needed := t.Interval - e.CompletionCount(t, now)
	return timeLeft <= needed
}

// ToggleToday returns the completion dates after flipping today's entry:
// the first entry on now's day is removed, or now is appended when there is
// none. The input slice is not modified.
func (e Evaluator) ToggleToday(t task.Task, now time.Time) []time.Time {
	i := slices.IndexFunc(t.CompletionDates, func(d time.Time) bool {
		return e.cal.SameDay(d, now)
	})
	if i >= 0 {
		return slices.Delete(slices.Clone(t.CompletionDates), i, i+1)
	}
	return append(slices.Clone(t.CompletionDates), now)
}

// Status is every derived flag for one task at one instant.
type Status struct {
	Count           int
	Needed          int
	NeedsCompletion bool
	CompletedToday  bool
	Urgent          bool
}

func (e Evaluator) Status(t task.Task, now time.Time) Status {
	s := Status{
		NeedsCompletion: e.NeedsCompletion(t, now),
		CompletedToday:  e.CompletedToday(t, now),
		Urgent:          e.Urgent(t, now),
	}
	if t.IsRecurring() {
		s.Count = e.CompletionCount(t, now)
		s.Needed = t.Interval - s.Count
	}
	return s
}
