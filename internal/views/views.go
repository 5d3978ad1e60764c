// Package views derives the per-screen buckets (today, tomorrow, history,
// recurring, timeless) from a snapshot of tasks and a single now.
package views

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"today/internal/calendar"
	"today/internal/recurrence"
	"today/internal/task"
)

// TodayOrder selects how the today bucket is sorted.
type TodayOrder string

const (
	// OrderInterleaved sorts incomplete before complete, then by timestamp,
	// without regard to task type.
	OrderInterleaved TodayOrder = "interleaved"
	// OrderRecurringLast places every regular task before every recurring one
	// and applies the interleaved rule within each group.
	OrderRecurringLast TodayOrder = "recurring-last"
)

func ParseTodayOrder(s string) (TodayOrder, error) {
	switch TodayOrder(strings.ToLower(strings.TrimSpace(s))) {
	case "", OrderInterleaved:
		return OrderInterleaved, nil
	case OrderRecurringLast:
		return OrderRecurringLast, nil
	default:
		return "", fmt.Errorf("unknown today order %q", s)
	}
}

type Selector struct {
	eval  recurrence.Evaluator
	order TodayOrder
}

func NewSelector(eval recurrence.Evaluator, order TodayOrder) Selector {
	return Selector{eval: eval, order: order}
}

func (s Selector) Evaluator() recurrence.Evaluator { return s.eval }

func (s Selector) cal() calendar.Calendar { return s.eval.Calendar() }

// Today holds regular tasks dated today and recurring tasks still due in
// their period. Timeless tasks never appear.
func (s Selector) Today(tasks []task.Task, now time.Time) []task.Task {
	var out []task.Task
	for _, t := range tasks {
		switch {
		case t.IsTimeless():
		case t.IsRecurring():
			if s.eval.NeedsCompletion(t, now) {
				out = append(out, t)
			}
		default:
			if s.cal().SameDay(t.Timestamp, now) {
				out = append(out, t)
			}
		}
	}
	slices.SortStableFunc(out, func(a, b task.Task) int {
		if s.order == OrderRecurringLast {
			if c := cmpBool(a.IsRecurring(), b.IsRecurring()); c != 0 {
				return c
			}
		}
		if c := cmpBool(s.eval.CompletedToday(a, now), s.eval.CompletedToday(b, now)); c != 0 {
			return c
		}
		return a.Timestamp.Compare(b.Timestamp)
	})
	return out
}

// Future holds regular tasks dated on or after the start of tomorrow.
func (s Selector) Future(tasks []task.Task, now time.Time) []task.Task {
	tomorrow := s.cal().StartOfDay(now).AddDate(0, 0, 1)
	var out []task.Task
	for _, t := range tasks {
		if t.IsRegular() && !t.Timestamp.Before(tomorrow) {
			out = append(out, t)
		}
	}
	slices.SortStableFunc(out, func(a, b task.Task) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
	return out
}

// Day is one calendar day of past regular tasks.
type Day struct {
	Date      time.Time
	Tasks     []task.Task
	Completed int
}

// Rate is the completed share of the day, 0 for an empty day.
func (d Day) Rate() float64 {
	return rate(d.Completed, len(d.Tasks))
}

type History struct {
	Days []Day
	// Overall is completed regular tasks over all regular tasks, past or not.
	Overall float64
}

// History groups regular tasks dated before today by day, most recent first.
func (s Selector) History(tasks []task.Task, now time.Time) History {
	today := s.cal().StartOfDay(now)
	byDay := map[string]*Day{}
	var days []*Day
	completed, total := 0, 0
	for _, t := range tasks {
		if !t.IsRegular() {
			continue
		}
		total++
		if t.Completed {
			completed++
		}
		day := s.cal().StartOfDay(t.Timestamp)
		if !day.Before(today) {
			continue
		}
		key := day.Format(time.DateOnly)
		d, ok := byDay[key]
		if !ok {
			d = &Day{Date: day}
			byDay[key] = d
			days = append(days, d)
		}
		d.Tasks = append(d.Tasks, t)
		if t.Completed {
			d.Completed++
		}
	}

	h := History{Overall: rate(completed, total)}
	for _, d := range days {
		slices.SortStableFunc(d.Tasks, func(a, b task.Task) int {
			return a.Timestamp.Compare(b.Timestamp)
		})
		h.Days = append(h.Days, *d)
	}
	slices.SortFunc(h.Days, func(a, b Day) int {
		return b.Date.Compare(a.Date)
	})
	return h
}

// Recurring lists every recurring task: priority first, then due before
// satisfied, then alphabetically ignoring case.
func (s Selector) Recurring(tasks []task.Task, now time.Time) []task.Task {
	var out []task.Task
	for _, t := range tasks {
		if t.IsRecurring() {
			out = append(out, t)
		}
	}
	slices.SortStableFunc(out, func(a, b task.Task) int {
		if c := cmpBool(b.Priority, a.Priority); c != 0 {
			return c
		}
		if c := cmpBool(!s.eval.NeedsCompletion(a, now), !s.eval.NeedsCompletion(b, now)); c != 0 {
			return c
		}
		return compareText(a.Text, b.Text)
	})
	return out
}

// Aged pairs a timeless task with its age in whole days.
type Aged struct {
	task.Task
	Days int
}

func (s Selector) Timeless(tasks []task.Task, now time.Time) []Aged {
	var out []Aged
	for _, t := range tasks {
		if t.IsTimeless() {
			out = append(out, Aged{Task: t, Days: s.cal().DaysBetween(t.Timestamp, now)})
		}
	}
	slices.SortStableFunc(out, func(a, b Aged) int {
		return compareText(a.Text, b.Text)
	})
	return out
}

// Board is every bucket computed against the same now.
type Board struct {
	Now       time.Time
	Today     []task.Task
	Future    []task.Task
	History   History
	Recurring []task.Task
	Timeless  []Aged
}

func (s Selector) Board(tasks []task.Task, now time.Time) Board {
	return Board{
		Now:       now,
		Today:     s.Today(tasks, now),
		Future:    s.Future(tasks, now),
		History:   s.History(tasks, now),
		Recurring: s.Recurring(tasks, now),
		Timeless:  s.Timeless(tasks, now),
	}
}

// false sorts before true.
func cmpBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case a:
		return 1
	default:
		return -1
	}
}

func compareText(a, b string) int {
	if c := cmp.Compare(strings.ToLower(a), strings.ToLower(b)); c != 0 {
		return c
	}
	return cmp.Compare(a, b)
}

func rate(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total)
}
