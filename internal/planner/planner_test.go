package planner

import (
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"today/internal/calendar"
	"today/internal/nav"
	"today/internal/recurrence"
	"today/internal/storage"
	"today/internal/task"
	"today/internal/views"
)

// Monday 2026-10-12.
var monday = time.Date(2026, time.October, 12, 9, 0, 0, 0, time.UTC)

func newServiceForTest(t *testing.T) (*Service, *FakeClock) {
	t.Helper()
	store, err := storage.Open(filepath.Join(t.TempDir(), "today.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	clock := NewFakeClock(monday)
	sel := views.NewSelector(recurrence.New(calendar.New(time.UTC, time.Sunday)), views.OrderInterleaved)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(store, clock, sel, log), clock
}

func ids(tasks []task.Task) []string {
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.ID)
	}
	return out
}

func TestWeeklyRecurringLifecycle(t *testing.T) {
	svc, clock := newServiceForTest(t)

	run, err := svc.AddRecurring("run", task.Weekly, 3, false)
	require.NoError(t, err)

	for day := 0; day < 2; day++ {
		_, err := svc.Toggle(run.ID)
		require.NoError(t, err)
		clock.Advance(24 * time.Hour)
	}

	got, err := svc.Find(run.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, svc.Evaluator().CompletionCount(got, svc.Now()))
	assert.True(t, svc.Evaluator().NeedsCompletion(got, svc.Now()))

	board, err := svc.Board()
	require.NoError(t, err)
	assert.Contains(t, ids(board.Today), run.ID)

	got, err = svc.Toggle(run.ID)
	require.NoError(t, err)
	assert.False(t, svc.Evaluator().NeedsCompletion(got, svc.Now()))

	board, err = svc.Board()
	require.NoError(t, err)
	assert.NotContains(t, ids(board.Today), run.ID)
	assert.Equal(t, []string{run.ID}, ids(board.Recurring))

	// A new week resets the count.
	clock.Set(monday.AddDate(0, 0, 7))
	board, err = svc.Board()
	require.NoError(t, err)
	assert.Contains(t, ids(board.Today), run.ID)

	require.NoError(t, svc.Delete(run.ID))
	board, err = svc.Board()
	require.NoError(t, err)
	assert.Empty(t, board.Today)
	assert.Empty(t, board.Recurring)
}

func TestToggleTwiceRestoresCompletionDates(t *testing.T) {
	svc, clock := newServiceForTest(t)
	floss, err := svc.AddRecurring("floss", task.Daily, 1, false)
	require.NoError(t, err)

	_, err = svc.Toggle(floss.ID)
	require.NoError(t, err)
	clock.Advance(time.Hour)
	got, err := svc.Toggle(floss.ID)
	require.NoError(t, err)
	assert.Empty(t, got.CompletionDates)

	stored, err := svc.Find(floss.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.CompletionDates)
}

func TestToggleRegular(t *testing.T) {
	svc, _ := newServiceForTest(t)
	mail, err := svc.AddToday("mail")
	require.NoError(t, err)

	got, err := svc.Toggle(mail.ID)
	require.NoError(t, err)
	assert.True(t, got.Completed)

	board, err := svc.Board()
	require.NoError(t, err)
	require.Len(t, board.Today, 1)
	assert.True(t, board.Today[0].Completed)
}

func TestRegularTaskMovesThroughBuckets(t *testing.T) {
	svc, clock := newServiceForTest(t)
	taxes, err := svc.AddTomorrow("taxes")
	require.NoError(t, err)

	board, err := svc.Board()
	require.NoError(t, err)
	assert.Equal(t, []string{taxes.ID}, ids(board.Future))
	assert.Empty(t, board.Today)

	clock.Advance(24 * time.Hour)
	board, err = svc.Board()
	require.NoError(t, err)
	assert.Equal(t, []string{taxes.ID}, ids(board.Today))
	assert.Empty(t, board.Future)

	clock.Advance(24 * time.Hour)
	board, err = svc.Board()
	require.NoError(t, err)
	assert.Empty(t, board.Today)
	require.Len(t, board.History.Days, 1)
	assert.Equal(t, []string{taxes.ID}, ids(board.History.Days[0].Tasks))
}

func TestAddTomorrowWithDate(t *testing.T) {
	svc, _ := newServiceForTest(t)
	got, err := svc.AddTomorrow("04/15/2027 do taxes")
	require.NoError(t, err)
	assert.Equal(t, "do taxes", got.Text)
	assert.Equal(t, time.Date(2027, 4, 15, 0, 0, 0, 0, time.UTC), got.Timestamp)
}

func TestAddRejectsInvalidInput(t *testing.T) {
	svc, _ := newServiceForTest(t)

	_, err := svc.AddToday("  ")
	assert.ErrorIs(t, err, task.ErrEmptyText)
	_, err = svc.AddRecurring("run", task.Weekly, 0, false)
	assert.ErrorIs(t, err, task.ErrInvalidInterval)

	tasks, err := svc.Tasks()
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestTimelessAge(t *testing.T) {
	svc, clock := newServiceForTest(t)
	_, err := svc.AddTimeless("learn piano")
	require.NoError(t, err)

	clock.Advance(3*24*time.Hour + time.Minute)
	board, err := svc.Board()
	require.NoError(t, err)
	require.Len(t, board.Timeless, 1)
	assert.Equal(t, 3, board.Timeless[0].Days)
}

func TestRename(t *testing.T) {
	svc, _ := newServiceForTest(t)
	mail, err := svc.AddToday("mail")
	require.NoError(t, err)

	require.NoError(t, svc.Rename(mail.ID, " post letter "))
	got, err := svc.Find(mail.ID)
	require.NoError(t, err)
	assert.Equal(t, "post letter", got.Text)

	assert.ErrorIs(t, svc.Rename(mail.ID, ""), task.ErrEmptyText)
}

func TestDeleteFrom(t *testing.T) {
	svc, _ := newServiceForTest(t)
	run, err := svc.AddRecurring("run", task.Daily, 1, false)
	require.NoError(t, err)
	mail, err := svc.AddToday("mail")
	require.NoError(t, err)

	assert.ErrorIs(t, svc.DeleteFrom(nav.Today, run.ID), ErrRecurringOnTodayView)
	require.NoError(t, svc.DeleteFrom(nav.Today, mail.ID))
	require.NoError(t, svc.DeleteFrom(nav.Recurring, run.ID))

	tasks, err := svc.Tasks()
	require.NoError(t, err)
	assert.Empty(t, tasks)

	assert.ErrorIs(t, svc.Delete(run.ID), storage.ErrNotFound)
}

func TestFind(t *testing.T) {
	svc, _ := newServiceForTest(t)
	mail, err := svc.AddToday("mail")
	require.NoError(t, err)

	got, err := svc.Find(mail.ID[:8])
	require.NoError(t, err)
	assert.Equal(t, mail.ID, got.ID)

	_, err = svc.Find("zzzz")
	assert.ErrorIs(t, err, ErrNoMatch)
	_, err = svc.Find("")
	assert.ErrorIs(t, err, ErrNoMatch)
}

func TestFindAmbiguousPrefix(t *testing.T) {
	svc, _ := newServiceForTest(t)
	for _, id := range []string{"abc-1", "abc-2"} {
		tk, err := task.NewTimeless("read", monday)
		require.NoError(t, err)
		tk.ID = id
		require.NoError(t, svc.store.InsertTask(tk))
	}

	_, err := svc.Find("abc")
	assert.ErrorIs(t, err, ErrAmbiguous)

	got, err := svc.Find("abc-2")
	require.NoError(t, err)
	assert.Equal(t, "abc-2", got.ID)
}

func TestFakeClock(t *testing.T) {
	c := NewFakeClock(monday)
	c.Advance(time.Hour)
	assert.Equal(t, monday.Add(time.Hour), c.Now())
	c.Set(monday)
	assert.Equal(t, monday, c.Now())
}

func TestImport(t *testing.T) {
	svc, _ := newServiceForTest(t)

	run, err := task.NewRecurring("run", monday.AddDate(0, 0, -7), task.Weekly, 2, false)
	require.NoError(t, err)
	run.CompletionDates = []time.Time{monday.Add(-time.Hour)}
	blank := task.Task{ID: "blank", Type: task.Regular, Interval: 1, Timestamp: monday}

	n, err := svc.Import([]task.Task{run, blank})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := svc.Find(run.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, svc.Evaluator().CompletionCount(got, svc.Now()))

	mail, err := task.NewRegular("mail", monday)
	require.NoError(t, err)
	n, err = svc.Import([]task.Task{mail, run})
	require.NoError(t, err)
	assert.Equal(t, 1, n, "already stored IDs are skipped")

	tasks, err := svc.Tasks()
	require.NoError(t, err)
	assert.Len(t, tasks, 2)
}

func TestImportedUppercaseIDsResolve(t *testing.T) {
	svc, _ := newServiceForTest(t)

	walk, err := task.NewRegular("walk", monday)
	require.NoError(t, err)
	walk.ID = "5F0C2A9E-1B2C-4D3E-8F90-A1B2C3D4E5F6"
	n, err := svc.Import([]task.Task{walk})
	require.NoError(t, err)
	require.Equal(t, 1, n)

	for _, id := range []string{"5F0C2A9E", "5f0c2a9e", walk.ID, strings.ToLower(walk.ID)} {
		got, err := svc.Find(id)
		require.NoError(t, err, id)
		assert.Equal(t, walk.ID, got.ID)
	}

	got, err := svc.Find("5f0c")
	require.NoError(t, err)
	_, err = svc.Toggle(got.ID)
	require.NoError(t, err)

	lower := walk
	lower.ID = strings.ToLower(walk.ID)
	n, err = svc.Import([]task.Task{lower})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestNowUsesCalendarLocation(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)
	store, err := storage.Open(filepath.Join(t.TempDir(), "today.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	// 20:00 UTC Monday is already Tuesday in Tokyo.
	clock := NewFakeClock(time.Date(2026, time.October, 12, 20, 0, 0, 0, time.UTC))
	sel := views.NewSelector(recurrence.New(calendar.New(tokyo, time.Sunday)), views.OrderInterleaved)
	svc := New(store, clock, sel, slog.New(slog.NewTextHandler(io.Discard, nil)))

	assert.Equal(t, tokyo, svc.Now().Location())
	assert.Equal(t, time.Tuesday, svc.Now().Weekday())

	taxes, err := svc.AddTomorrow("04/15/2027 taxes")
	require.NoError(t, err)
	stored, err := svc.Find(taxes.ID)
	require.NoError(t, err)
	assert.Equal(t, "04/15/2027", stored.Timestamp.In(tokyo).Format(views.DatedEntryLayout))

	board, err := svc.Board()
	require.NoError(t, err)
	assert.Equal(t, "Tue Oct 13", board.Now.Format("Mon Jan 2"))
}
