package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"today/internal/nav"
	"today/internal/report"
	"today/internal/task"
	"today/internal/views"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	urgentStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	goldStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	priorityStyle = lipgloss.NewStyle().Bold(true)
	doneStyle     = lipgloss.NewStyle().Faint(true).Strikethrough(true)
	groupStyle    = lipgloss.NewStyle().Underline(true)
	helpStyle     = lipgloss.NewStyle().Faint(true)
)

func (m Model) View() string {
	var b strings.Builder
	screen := m.nav.Current()
	b.WriteString(titleStyle.Render(fmt.Sprintf("%s (%s)", screen.Title(), m.board.Now.Format("Mon Jan 2"))))
	b.WriteString("\n")
	b.WriteString(helpStyle.Render(neighborLine(screen)))
	b.WriteString("\n\n")

	switch screen {
	case nav.Settings:
		b.WriteString(m.renderSettings())
	case nav.Performance:
		b.WriteString(fmt.Sprintf("Overall: %d%%\n", report.Percent(m.board.History.Overall)))
		b.WriteString(m.renderRows())
	default:
		b.WriteString(m.renderRows())
	}

	switch m.mode {
	case modeAdd, modeRename, modeFields:
		b.WriteString("\n")
		if m.fields != nil {
			b.WriteString(fmt.Sprintf("%s\n", m.fields.text))
		}
		b.WriteString(m.input.View())
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.status)
	b.WriteString("\n")
	b.WriteString(helpStyle.Render(m.renderHelp()))
	b.WriteString("\n")
	return b.String()
}

func (m Model) renderRows() string {
	if len(m.rows) == 0 {
		return emptyPlaceholder(m.nav.Current()) + "\n"
	}
	var b strings.Builder
	lastGroup := ""
	for i, r := range m.rows {
		if r.group != "" && r.group != lastGroup {
			if lastGroup != "" {
				b.WriteString("\n")
			}
			b.WriteString(groupStyle.Render(r.group))
			b.WriteString("\n")
			lastGroup = r.group
		}
		cursor := "  "
		if i == m.cursor {
			cursor = "> "
		}
		b.WriteString(cursor)
		b.WriteString(m.renderRow(r))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderRow(r row) string {
	t := r.task
	now := m.board.Now
	eval := m.svc.Evaluator()
	switch m.nav.Current() {
	case nav.Timeless:
		return fmt.Sprintf("%-40s %s", t.Text, humanDays(r.days))
	case nav.Tomorrow:
		return t.Text
	}

	done := eval.CompletedToday(t, now)
	line := fmt.Sprintf("%s %s", report.Checkbox(done), t.Text)
	if !t.IsRecurring() {
		if done {
			return doneStyle.Render(line)
		}
		return line
	}

	line += "  " + report.Progress(eval, t, now)
	if m.nav.Current() == nav.Recurring {
		line += ", since " + humanize.RelTime(t.Timestamp, now, "ago", "from now")
	}
	switch {
	case eval.Urgent(t, now):
		return urgentStyle.Render(line)
	case done:
		return goldStyle.Render(line)
	case t.Priority:
		return priorityStyle.Render(line)
	}
	return line
}

func (m Model) renderSettings() string {
	c := m.cfg
	rows := [][2]string{
		{"database", c.DBPath},
		{"log file", c.LogPath},
		{"log level", c.LogLevel},
		{"timezone", c.Timezone},
		{"first weekday", c.FirstWeekday},
		{"today order", c.TodayOrder},
	}
	var b strings.Builder
	for _, r := range rows {
		b.WriteString(fmt.Sprintf("%-14s %s\n", r[0], r[1]))
	}
	return b.String()
}

func (m Model) detail(t task.Task) string {
	st := m.svc.Evaluator().Status(t, m.board.Now)
	switch {
	case t.IsRecurring():
		return fmt.Sprintf("%s: %s, %d/%d this period, urgent=%s, priority=%s",
			t.Text, t.Cadence(), st.Count, st.Needed, boolToYN(st.Urgent), boolToYN(t.Priority))
	case t.IsTimeless():
		return fmt.Sprintf("%s: added %s", t.Text, humanize.Time(t.Timestamp))
	default:
		return fmt.Sprintf("%s: %s, completed=%s", t.Text, t.Timestamp.In(m.board.Now.Location()).Format(views.DatedEntryLayout), boolToYN(t.Completed))
	}
}

func (m Model) renderHelp() string {
	k := m.cfg.Keys
	if m.confirmDel {
		return "y: delete  n: keep"
	}
	switch m.mode {
	case modeAdd, modeRename:
		return "enter: save  esc: cancel"
	case modeFields:
		return "enter: next  tab/shift+tab: move  esc: discard"
	}
	return fmt.Sprintf("%s/%s: move  %s: add  space: toggle  %s: rename  %s: delete  %s: detail  %s%s%s%s: screens  %s: quit",
		k.Down, k.Up, k.Add, k.Rename, k.Delete, k.Detail, k.ScreenLeft, k.ScreenRight, k.ScreenUp, k.ScreenDown, k.Quit)
}

func neighborLine(screen nav.Screen) string {
	var parts []string
	for _, d := range []nav.Direction{nav.Left, nav.Right, nav.Up, nav.Down} {
		if next, ok := nav.Neighbors(screen)[d]; ok {
			parts = append(parts, fmt.Sprintf("%s %s", arrow(d), next.Title()))
		}
	}
	return strings.Join(parts, "  ")
}

func arrow(d nav.Direction) string {
	switch d {
	case nav.Left:
		return "←"
	case nav.Right:
		return "→"
	case nav.Up:
		return "↑"
	default:
		return "↓"
	}
}

func humanDays(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}

func emptyPlaceholder(screen nav.Screen) string {
	switch screen {
	case nav.Today:
		return "Nothing left today. Press 'a' to add one."
	case nav.Tomorrow:
		return "Nothing planned."
	case nav.Performance:
		return "No history yet."
	case nav.Recurring:
		return "No recurring tasks."
	case nav.Timeless:
		return "No timeless tasks."
	default:
		return ""
	}
}
