// Package task defines the single record type shared by regular, recurring
// and timeless to-do items.
package task

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	Regular   Type = "Regular"
	Recurring Type = "Recurring"
	Timeless  Type = "Timeless"
)

// ParseType accepts the persisted names case-insensitively.
func ParseType(s string) (Type, bool) {
	for _, t := range []Type{Regular, Recurring, Timeless} {
		if strings.EqualFold(strings.TrimSpace(s), string(t)) {
			return t, true
		}
	}
	return Type(s), false
}

type Frequency string

const (
	Daily   Frequency = "Daily"
	Weekly  Frequency = "Weekly"
	Monthly Frequency = "Monthly"
	Yearly  Frequency = "Yearly"
)

var frequencyAliases = map[string]Frequency{
	"daily":   Daily,
	"day":     Daily,
	"weekly":  Weekly,
	"week":    Weekly,
	"monthly": Monthly,
	"month":   Monthly,
	"yearly":  Yearly,
	"year":    Yearly,
}

// ParseFrequency accepts the canonical names plus the bare unit names older
// records were written with. Anything else, including the retired Biweekly,
// comes back unchanged with ok=false.
func ParseFrequency(s string) (Frequency, bool) {
	f, ok := frequencyAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return Frequency(s), false
	}
	return f, true
}

func (f Frequency) Valid() bool {
	switch f {
	case Daily, Weekly, Monthly, Yearly:
		return true
	}
	return false
}

// Unit is the noun used in cadence lines ("Twice Per Week").
func (f Frequency) Unit() string {
	switch f {
	case Daily:
		return "Day"
	case Weekly:
		return "Week"
	case Monthly:
		return "Month"
	case Yearly:
		return "Year"
	default:
		return string(f)
	}
}

var (
	ErrEmptyText        = errors.New("task text is empty")
	ErrInvalidInterval  = errors.New("interval must be at least 1")
	ErrUnknownFrequency = errors.New("unknown task frequency")
	ErrUnknownType      = errors.New("unknown task type")
)

// Task is one to-do item. Timestamp means the due day for regular tasks, the
// tracking-since anchor for recurring tasks and the creation time for
// timeless tasks.
type Task struct {
	ID              string
	Timestamp       time.Time
	Text            string
	Completed       bool
	Type            Type
	CompletionDates []time.Time
	Frequency       Frequency
	Interval        int
	Priority        bool
}

func NewRegular(text string, at time.Time) (Task, error) {
	return newTask(Regular, text, at)
}

func NewTimeless(text string, at time.Time) (Task, error) {
	return newTask(Timeless, text, at)
}

func NewRecurring(text string, since time.Time, freq Frequency, interval int, priority bool) (Task, error) {
	t, err := newTask(Recurring, text, since)
	if err != nil {
		return Task{}, err
	}
	t.Frequency = freq
	t.Interval = interval
	t.Priority = priority
	if err := t.Validate(); err != nil {
		return Task{}, err
	}
	return t, nil
}

func newTask(typ Type, text string, at time.Time) (Task, error) {
	t := Task{
		ID:        uuid.NewString(),
		Timestamp: at,
		Text:      strings.TrimSpace(text),
		Type:      typ,
		Frequency: Daily,
		Interval:  1,
	}
	if err := t.Validate(); err != nil {
		return Task{}, err
	}
	return t, nil
}

// Validate enforces the construction invariants. Records read back from
// storage are not validated so that a corrupt row still loads.
func (t Task) Validate() error {
	if t.Text == "" {
		return ErrEmptyText
	}
	if _, ok := ParseType(string(t.Type)); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownType, t.Type)
	}
	if t.Interval < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidInterval, t.Interval)
	}
	if t.Type == Recurring && !t.Frequency.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownFrequency, t.Frequency)
	}
	if t.Type != Recurring && len(t.CompletionDates) > 0 {
		return fmt.Errorf("%s task %s carries completion dates", t.Type, t.ID)
	}
	return nil
}

func (t Task) IsRecurring() bool { return t.Type == Recurring }
func (t Task) IsTimeless() bool  { return t.Type == Timeless }

// IsRegular is true for regular tasks and for records whose type could not be
// recognised; those behave like dated one-off tasks.
func (t Task) IsRegular() bool { return !t.IsRecurring() && !t.IsTimeless() }

// Cadence renders "Twice Per Week".
func (t Task) Cadence() string {
	return IntervalDescription(t.Interval) + " Per " + t.Frequency.Unit()
}

var intervalWords = []string{"", "Once", "Twice", "Three Times", "Four Times", "Five Times",
	"Six Times", "Seven Times", "Eight Times", "Nine Times", "Ten Times"}

func IntervalDescription(n int) string {
	if n >= 1 && n < len(intervalWords) {
		return intervalWords[n]
	}
	return fmt.Sprintf("%d Times", n)
}
