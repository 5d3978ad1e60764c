// Package report renders buckets as plain text and tasks as YAML.
package report

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/dustin/go-humanize"

	"today/internal/nav"
	"today/internal/recurrence"
	"today/internal/task"
	"today/internal/views"
)

const (
	dayLayout = "Mon Jan 2"
	idWidth   = 8
)

// ShortID is the prefix shown next to tasks; any unique prefix resolves.
func ShortID(id string) string {
	if len(id) <= idWidth {
		return id
	}
	return id[:idWidth]
}

func Percent(rate float64) int {
	return int(math.Round(rate * 100))
}

// Checkbox reflects completion for today, not the period target.
func Checkbox(done bool) string {
	if done {
		return "[x]"
	}
	return "[ ]"
}

// Progress renders "Twice Per Week (1/2)" for recurring tasks.
func Progress(eval recurrence.Evaluator, t task.Task, now time.Time) string {
	return fmt.Sprintf("%s (%d/%d)", t.Cadence(), eval.CompletionCount(t, now), t.Interval)
}

// WriteScreen prints the bucket behind screen.
func WriteScreen(out io.Writer, screen nav.Screen, b views.Board, eval recurrence.Evaluator) {
	fmt.Fprintf(out, "%s (%s)\n", screen.Title(), b.Now.Format(dayLayout))
	switch screen {
	case nav.Today:
		writeTasks(out, b.Today, b.Now, eval)
	case nav.Tomorrow:
		writeFuture(out, b.Future, b.Now.Location())
	case nav.Performance:
		writeHistory(out, b.History)
	case nav.Recurring:
		writeRecurring(out, b.Recurring, b.Now, eval)
	case nav.Timeless:
		writeTimeless(out, b.Timeless)
	default:
		fmt.Fprintln(out, "    nothing to list")
	}
}

func writeTasks(out io.Writer, tasks []task.Task, now time.Time, eval recurrence.Evaluator) {
	if len(tasks) == 0 {
		fmt.Fprintln(out, "    nothing left today")
		return
	}
	for _, t := range tasks {
		line := fmt.Sprintf("    %s %s  %s", Checkbox(eval.CompletedToday(t, now)), ShortID(t.ID), t.Text)
		if t.IsRecurring() {
			line += "  ↻ " + Progress(eval, t, now)
			if eval.Urgent(t, now) {
				line += " !"
			}
		}
		fmt.Fprintln(out, line)
	}
}

// writeFuture prints dates in loc; stored timestamps come back in UTC.
func writeFuture(out io.Writer, tasks []task.Task, loc *time.Location) {
	if len(tasks) == 0 {
		fmt.Fprintln(out, "    nothing planned")
		return
	}
	for _, t := range tasks {
		fmt.Fprintf(out, "    %s  %s  %s\n", t.Timestamp.In(loc).Format(views.DatedEntryLayout), ShortID(t.ID), t.Text)
	}
}

func writeHistory(out io.Writer, h views.History) {
	fmt.Fprintf(out, "    overall %d%%\n", Percent(h.Overall))
	for _, d := range h.Days {
		fmt.Fprintf(out, "\n    %s  %d/%d (%d%%)\n", d.Date.Format(dayLayout), d.Completed, len(d.Tasks), Percent(d.Rate()))
		for _, t := range d.Tasks {
			fmt.Fprintf(out, "        %s %s  %s\n", Checkbox(t.Completed), ShortID(t.ID), t.Text)
		}
	}
}

func writeRecurring(out io.Writer, tasks []task.Task, now time.Time, eval recurrence.Evaluator) {
	if len(tasks) == 0 {
		fmt.Fprintln(out, "    no recurring tasks")
		return
	}
	for _, t := range tasks {
		marker := " "
		if t.Priority {
			marker = "*"
		}
		line := fmt.Sprintf("    %s %s %s  %s  %s, tracking since %s",
			marker, Checkbox(eval.CompletedToday(t, now)), ShortID(t.ID), t.Text,
			Progress(eval, t, now), humanize.RelTime(t.Timestamp, now, "ago", "from now"))
		if eval.Urgent(t, now) {
			line += " !"
		}
		fmt.Fprintln(out, line)
	}
}

func writeTimeless(out io.Writer, tasks []views.Aged) {
	if len(tasks) == 0 {
		fmt.Fprintln(out, "    no timeless tasks")
		return
	}
	for _, a := range tasks {
		fmt.Fprintf(out, "    %s  %-40s %4d\n", ShortID(a.ID), a.Text, a.Days)
	}
}
