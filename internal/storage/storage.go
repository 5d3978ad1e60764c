// Package storage keeps tasks and their completion dates in SQLite.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"today/internal/task"
)

var ErrNotFound = errors.New("task not found")

type Store struct {
	db *sql.DB
}

func Open(dbPath string) (*Store, error) {
	if dbPath == "" {
		return nil, errors.New("db path is empty")
	}
	if !strings.HasPrefix(dbPath, "file:") {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite", sqliteDSN(dbPath))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate %s: %w", dbPath, err)
	}
	return s, nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	const ddl = `
CREATE TABLE IF NOT EXISTS tasks (
	id TEXT PRIMARY KEY,
	text TEXT NOT NULL,
	timestamp TEXT NOT NULL,
	completed INTEGER NOT NULL DEFAULT 0,
	item_type TEXT NOT NULL DEFAULT 'Regular',
	frequency TEXT NOT NULL DEFAULT 'Daily',
	interval_count INTEGER NOT NULL DEFAULT 1,
	priority INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS completions (
	task_id TEXT NOT NULL,
	completed_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS completions_task_id ON completions(task_id);`
	if _, err := s.db.Exec(ddl); err != nil {
		return err
	}
	return s.ensureTaskColumns()
}

// ensureTaskColumns adds the columns later record shapes introduced, so a
// database written before recurring tasks existed still opens.
func (s *Store) ensureTaskColumns() error {
	required := map[string]string{
		"item_type":      "ALTER TABLE tasks ADD COLUMN item_type TEXT NOT NULL DEFAULT 'Regular';",
		"frequency":      "ALTER TABLE tasks ADD COLUMN frequency TEXT NOT NULL DEFAULT 'Daily';",
		"interval_count": "ALTER TABLE tasks ADD COLUMN interval_count INTEGER NOT NULL DEFAULT 1;",
		"priority":       "ALTER TABLE tasks ADD COLUMN priority INTEGER NOT NULL DEFAULT 0;",
	}
	existing := map[string]struct{}{}
	rows, err := s.db.Query(`PRAGMA table_info(tasks);`)
	if err != nil {
		return err
	}
	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dflt sql.NullString
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			rows.Close()
			return err
		}
		existing[name] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()
	for col, alter := range required {
		if _, ok := existing[col]; ok {
			continue
		}
		if _, err := s.db.Exec(alter); err != nil {
			return err
		}
	}
	return nil
}

const selectTasks = `SELECT id, text, timestamp, completed, item_type, frequency, interval_count, priority FROM tasks`

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(row scanner) (task.Task, error) {
	var t task.Task
	var completed, interval, priority int
	var stamp, itemType, frequency string
	if err := row.Scan(&t.ID, &t.Text, &stamp, &completed, &itemType, &frequency, &interval, &priority); err != nil {
		return task.Task{}, err
	}
	t.Completed = completed == 1
	t.Priority = priority == 1
	t.Timestamp = parseTime(stamp)
	// Unknown enum strings are kept as-is; the evaluator treats them as
	// never due rather than failing the load.
	t.Type, _ = task.ParseType(itemType)
	t.Frequency, _ = task.ParseFrequency(frequency)
	t.Interval = max(interval, 1)
	return t, nil
}

func (s *Store) FetchTasks() ([]task.Task, error) {
	rows, err := s.db.Query(selectTasks + ` ORDER BY timestamp, id;`)
	if err != nil {
		return nil, err
	}
	var tasks []task.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		tasks = append(tasks, t)
	}
	err = rows.Err()
	// The pool holds a single connection, so release it before the next query.
	rows.Close()
	if err != nil {
		return nil, err
	}

	dates, err := s.fetchCompletions(``)
	if err != nil {
		return nil, err
	}
	for i := range tasks {
		if tasks[i].IsRecurring() {
			tasks[i].CompletionDates = dates[tasks[i].ID]
		}
	}
	return tasks, nil
}

func (s *Store) GetTask(id string) (task.Task, error) {
	t, err := scanTask(s.db.QueryRow(selectTasks+` WHERE id = ?;`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return task.Task{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return task.Task{}, err
	}
	if t.IsRecurring() {
		dates, err := s.fetchCompletions(id)
		if err != nil {
			return task.Task{}, err
		}
		t.CompletionDates = dates[id]
	}
	return t, nil
}

// fetchCompletions loads completion dates keyed by task ID, for one task or
// for all of them when id is empty.
func (s *Store) fetchCompletions(id string) (map[string][]time.Time, error) {
	query := `SELECT task_id, completed_at FROM completions`
	var args []any
	if id != "" {
		query += ` WHERE task_id = ?`
		args = append(args, id)
	}
	rows, err := s.db.Query(query+` ORDER BY rowid;`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string][]time.Time{}
	for rows.Next() {
		var taskID, at string
		if err := rows.Scan(&taskID, &at); err != nil {
			return nil, err
		}
		if parsed, err := time.Parse(time.RFC3339Nano, at); err == nil {
			out[taskID] = append(out[taskID], parsed)
		}
	}
	return out, rows.Err()
}

func (s *Store) InsertTask(t task.Task) error {
	return s.withTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`INSERT INTO tasks (id, text, timestamp, completed, item_type, frequency, interval_count, priority) VALUES (?, ?, ?, ?, ?, ?, ?, ?);`,
			t.ID, t.Text, formatTime(t.Timestamp), boolToInt(t.Completed), string(t.Type), string(t.Frequency), t.Interval, boolToInt(t.Priority))
		if err != nil {
			return err
		}
		return insertCompletions(tx, t.ID, t.CompletionDates)
	})
}

func (s *Store) SetCompleted(id string, done bool) error {
	res, err := s.db.Exec(`UPDATE tasks SET completed = ? WHERE id = ?;`, boolToInt(done), id)
	if err != nil {
		return err
	}
	return expectRow(res, id)
}

func (s *Store) RenameTask(id, text string) error {
	res, err := s.db.Exec(`UPDATE tasks SET text = ? WHERE id = ?;`, text, id)
	if err != nil {
		return err
	}
	return expectRow(res, id)
}

// SetCompletionDates replaces a task's completion dates in one transaction.
func (s *Store) SetCompletionDates(id string, dates []time.Time) error {
	return s.withTx(func(tx *sql.Tx) error {
		var exists int
		if err := tx.QueryRow(`SELECT COUNT(*) FROM tasks WHERE id = ?;`, id).Scan(&exists); err != nil {
			return err
		}
		if exists == 0 {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		if _, err := tx.Exec(`DELETE FROM completions WHERE task_id = ?;`, id); err != nil {
			return err
		}
		return insertCompletions(tx, id, dates)
	})
}

func (s *Store) DeleteTask(id string) error {
	return s.withTx(func(tx *sql.Tx) error {
		res, err := tx.Exec(`DELETE FROM tasks WHERE id = ?;`, id)
		if err != nil {
			return err
		}
		if err := expectRow(res, id); err != nil {
			return err
		}
		_, err = tx.Exec(`DELETE FROM completions WHERE task_id = ?;`, id)
		return err
	})
}

func (s *Store) withTx(fn func(*sql.Tx) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func insertCompletions(tx *sql.Tx, id string, dates []time.Time) error {
	for _, d := range dates {
		if _, err := tx.Exec(`INSERT INTO completions (task_id, completed_at) VALUES (?, ?);`, id, formatTime(d)); err != nil {
			return err
		}
	}
	return nil
}

func expectRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(v string) time.Time {
	if parsed, err := time.Parse(time.RFC3339Nano, v); err == nil {
		return parsed
	}
	return time.Time{}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func sqliteDSN(path string) string {
	if strings.HasPrefix(path, "file:") {
		return path
	}
	abs, err := filepath.Abs(path)
	if err == nil {
		path = abs
	}
	u := url.URL{
		Scheme: "file",
		Path:   path,
	}
	q := u.Query()
	q.Set("mode", "rwc")
	q.Set("_pragma", "busy_timeout(5000)")
	u.RawQuery = q.Encode()
	return u.String()
}
