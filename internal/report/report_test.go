package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"today/internal/calendar"
	"today/internal/nav"
	"today/internal/recurrence"
	"today/internal/task"
	"today/internal/views"
)

var (
	now = time.Date(2026, time.October, 16, 12, 0, 0, 0, time.UTC)
	ev  = recurrence.New(calendar.New(time.UTC, time.Sunday))
	sel = views.NewSelector(ev, views.OrderInterleaved)
)

func fixture(t *testing.T) []task.Task {
	t.Helper()
	mail, err := task.NewRegular("mail", now)
	require.NoError(t, err)
	mail.ID = "aaaaaaaa-0000"
	old, err := task.NewRegular("old chore", now.AddDate(0, 0, -1))
	require.NoError(t, err)
	old.ID = "bbbbbbbb-0000"
	old.Completed = true
	run, err := task.NewRecurring("run", now.AddDate(0, 0, -14), task.Weekly, 2, true)
	require.NoError(t, err)
	run.ID = "cccccccc-0000"
	run.CompletionDates = []time.Time{now.Add(-time.Hour)}
	piano, err := task.NewTimeless("piano", now.AddDate(0, 0, -4))
	require.NoError(t, err)
	piano.ID = "dddddddd-0000"
	return []task.Task{mail, old, run, piano}
}

func render(t *testing.T, screen nav.Screen) string {
	t.Helper()
	var b bytes.Buffer
	WriteScreen(&b, screen, sel.Board(fixture(t), now), ev)
	return b.String()
}

func TestWriteToday(t *testing.T) {
	out := render(t, nav.Today)
	assert.True(t, strings.HasPrefix(out, "Today (Fri Oct 16)\n"))
	assert.Contains(t, out, "[ ] aaaaaaaa  mail")
	// One day left in the week with one completion still needed.
	assert.Contains(t, out, "[x] cccccccc  run  ↻ Twice Per Week (1/2) !")
	assert.NotContains(t, out, "old chore")
	assert.NotContains(t, out, "piano")
}

func TestWriteHistory(t *testing.T) {
	out := render(t, nav.Performance)
	assert.Contains(t, out, "overall 50%")
	assert.Contains(t, out, "Thu Oct 15  1/1 (100%)")
	assert.Contains(t, out, "[x] bbbbbbbb  old chore")
}

func TestWriteRecurring(t *testing.T) {
	out := render(t, nav.Recurring)
	assert.Contains(t, out, "* [x] cccccccc  run  Twice Per Week (1/2), tracking since 2 weeks ago !")
}

func TestWriteTimeless(t *testing.T) {
	out := render(t, nav.Timeless)
	assert.Contains(t, out, "dddddddd  piano")
	assert.Contains(t, out, "   4\n")
}

func TestWriteEmptyScreens(t *testing.T) {
	var b bytes.Buffer
	WriteScreen(&b, nav.Tomorrow, sel.Board(nil, now), ev)
	assert.Contains(t, b.String(), "nothing planned")

	b.Reset()
	WriteScreen(&b, nav.Performance, sel.Board(nil, now), ev)
	assert.Contains(t, b.String(), "overall 0%")
}

func TestYAMLExportImport(t *testing.T) {
	tasks := fixture(t)
	var b bytes.Buffer
	require.NoError(t, WriteYAML(&b, tasks))
	assert.Contains(t, b.String(), "itemType: Recurring")
	assert.Contains(t, b.String(), "taskFrequency: Weekly")

	back, err := ReadYAML(&b)
	require.NoError(t, err)
	require.Len(t, back, len(tasks))
	assert.Equal(t, tasks[2].ID, back[2].ID)
	assert.Equal(t, 2, back[2].Interval)
	require.Len(t, back[2].CompletionDates, 1)
	assert.True(t, back[2].CompletionDates[0].Equal(tasks[2].CompletionDates[0]))
}

func TestReadYAMLToleratesLegacyRecords(t *testing.T) {
	in := strings.NewReader(`
- text: fortnightly review
  timestamp: 2026-10-01T08:00:00Z
  itemType: Recurring
  taskFrequency: Biweekly
  interval: 0
- text: from the old enum
  timestamp: 2026-10-01T08:00:00Z
  itemType: Recurring
  taskFrequency: Month
  interval: 2
`)
	tasks, err := ReadYAML(in)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.NotEmpty(t, tasks[0].ID)
	assert.Equal(t, task.Frequency("Biweekly"), tasks[0].Frequency)
	assert.Equal(t, 1, tasks[0].Interval)
	assert.False(t, ev.NeedsCompletion(tasks[0], now))
	assert.Equal(t, task.Monthly, tasks[1].Frequency)
}

func TestReadYAMLEmpty(t *testing.T) {
	tasks, err := ReadYAML(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestWriteFutureUsesBoardLocation(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)
	tokyoSel := views.NewSelector(recurrence.New(calendar.New(tokyo, time.Sunday)), views.OrderInterleaved)

	// Midnight April 15 in Tokyo, as the store hands it back.
	taxes, err := task.NewRegular("taxes", time.Date(2027, time.April, 14, 15, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	taxes.ID = "eeeeeeee-0000"

	var b bytes.Buffer
	WriteScreen(&b, nav.Tomorrow, tokyoSel.Board([]task.Task{taxes}, now.In(tokyo)), tokyoSel.Evaluator())
	assert.Contains(t, b.String(), "04/15/2027  eeeeeeee  taxes")
}
