// Package calendar answers period questions for recurring tasks: whether two
// instants share a day, week, month or year, and how many days are left in
// the period containing a given instant.
package calendar

import "time"

// Unit is the span a recurring task's completions are counted against.
type Unit int

const (
	UnitUnknown Unit = iota
	Day
	Week
	Month
	Year
)

func (u Unit) String() string {
	switch u {
	case Day:
		return "day"
	case Week:
		return "week"
	case Month:
		return "month"
	case Year:
		return "year"
	default:
		return "unknown"
	}
}

// Calendar evaluates instants in a fixed location with a fixed first day of
// the week. The zero value uses UTC and Sunday.
type Calendar struct {
	Location     *time.Location
	FirstWeekday time.Weekday
}

func New(loc *time.Location, firstWeekday time.Weekday) Calendar {
	return Calendar{Location: loc, FirstWeekday: firstWeekday}
}

func (c Calendar) in(t time.Time) time.Time {
	if c.Location == nil {
		return t.UTC()
	}
	return t.In(c.Location)
}

// SamePeriod reports whether a and b fall in the same period of unit.
// An unknown unit never matches.
func (c Calendar) SamePeriod(a, b time.Time, unit Unit) bool {
	a, b = c.in(a), c.in(b)
	switch unit {
	case Day:
		return sameDate(a, b)
	case Week:
		return sameDate(c.StartOfWeek(a), c.StartOfWeek(b))
	case Month:
		return a.Year() == b.Year() && a.Month() == b.Month()
	case Year:
		return a.Year() == b.Year()
	default:
		return false
	}
}

// Remaining returns the whole days left in the period of unit containing now.
// The rest of today always counts as the full window for Day; an unknown
// unit has nothing left.
func (c Calendar) Remaining(unit Unit, now time.Time) int {
	now = c.in(now)
	switch unit {
	case Day:
		return 1
	case Week:
		return 7 - c.WeekdayNumber(now)
	case Month:
		return daysInMonth(now) - now.Day()
	case Year:
		return daysInYear(now) - now.YearDay()
	default:
		return 0
	}
}

// WeekdayNumber numbers the weekday of t from 1 (FirstWeekday) to 7.
func (c Calendar) WeekdayNumber(t time.Time) int {
	t = c.in(t)
	return (int(t.Weekday())-int(c.FirstWeekday)+7)%7 + 1
}

func (c Calendar) SameDay(a, b time.Time) bool {
	return sameDate(c.in(a), c.in(b))
}

func (c Calendar) StartOfDay(t time.Time) time.Time {
	t = c.in(t)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func (c Calendar) StartOfWeek(t time.Time) time.Time {
	day := c.StartOfDay(t)
	return day.AddDate(0, 0, -(c.WeekdayNumber(day) - 1))
}

// DaysBetween counts whole calendar days elapsed from start to end. A day
// only counts once end's clock time has reached start's. Never negative.
func (c Calendar) DaysBetween(start, end time.Time) int {
	start, end = c.in(start), c.in(end)
	if !end.After(start) {
		return 0
	}
	days := civilDays(end) - civilDays(start)
	if clock(end) < clock(start) {
		days--
	}
	if days < 0 {
		return 0
	}
	return days
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func daysInMonth(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func daysInYear(t time.Time) int {
	return time.Date(t.Year(), time.December, 31, 0, 0, 0, 0, time.UTC).YearDay()
}

// civilDays maps a local date onto a day count that ignores DST shifts.
func civilDays(t time.Time) int {
	y, m, d := t.Date()
	return int(time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400)
}

func clock(t time.Time) time.Duration {
	h, m, s := t.Clock()
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute +
		time.Duration(s)*time.Second + time.Duration(t.Nanosecond())
}
