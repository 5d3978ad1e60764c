// Package planner applies user actions (add, toggle, rename, delete) to the
// task store and serves bucketed views at the clock's current time.
package planner

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"today/internal/nav"
	"today/internal/recurrence"
	"today/internal/task"
	"today/internal/views"
)

// Store is the persistence the planner needs. Each method is one atomic
// update; reads always reflect earlier writes.
type Store interface {
	FetchTasks() ([]task.Task, error)
	GetTask(id string) (task.Task, error)
	InsertTask(t task.Task) error
	SetCompleted(id string, done bool) error
	SetCompletionDates(id string, dates []time.Time) error
	RenameTask(id, text string) error
	DeleteTask(id string) error
}

var (
	ErrNoMatch              = errors.New("no task matches")
	ErrAmbiguous            = errors.New("more than one task matches")
	ErrRecurringOnTodayView = errors.New("recurring tasks are deleted from the recurring screen")
)

type Service struct {
	store Store
	clock Clock
	sel   views.Selector
	log   *slog.Logger
}

func New(store Store, clock Clock, sel views.Selector, log *slog.Logger) *Service {
	if clock == nil {
		clock = SystemClock{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{store: store, clock: clock, sel: sel, log: log}
}

// Now is the clock's time in the calendar's location.
func (s *Service) Now() time.Time { return s.clock.Now().In(s.location()) }

func (s *Service) Evaluator() recurrence.Evaluator { return s.sel.Evaluator() }

func (s *Service) location() *time.Location {
	if loc := s.sel.Evaluator().Calendar().Location; loc != nil {
		return loc
	}
	return time.UTC
}

func (s *Service) Tasks() ([]task.Task, error) {
	tasks, err := s.store.FetchTasks()
	if err != nil {
		return nil, fmt.Errorf("load tasks: %w", err)
	}
	return tasks, nil
}

// Board reads the store and buckets it at the current time.
func (s *Service) Board() (views.Board, error) {
	tasks, err := s.Tasks()
	if err != nil {
		return views.Board{}, err
	}
	return s.sel.Board(tasks, s.Now()), nil
}

// AddToday creates a regular task dated now.
func (s *Service) AddToday(text string) (task.Task, error) {
	t, err := task.NewRegular(text, s.Now())
	if err != nil {
		return task.Task{}, err
	}
	return s.insert(t)
}

// AddTomorrow creates a regular task from tomorrow-screen input, honouring a
// leading MM/dd/yyyy date.
func (s *Service) AddTomorrow(input string) (task.Task, error) {
	at, text := views.ParseDatedEntry(input, s.Now().In(s.location()), s.location())
	t, err := task.NewRegular(text, at)
	if err != nil {
		return task.Task{}, err
	}
	return s.insert(t)
}

func (s *Service) AddRecurring(text string, freq task.Frequency, interval int, priority bool) (task.Task, error) {
	t, err := task.NewRecurring(text, s.Now(), freq, interval, priority)
	if err != nil {
		return task.Task{}, err
	}
	return s.insert(t)
}

func (s *Service) AddTimeless(text string) (task.Task, error) {
	t, err := task.NewTimeless(text, s.Now())
	if err != nil {
		return task.Task{}, err
	}
	return s.insert(t)
}

func (s *Service) insert(t task.Task) (task.Task, error) {
	if err := s.store.InsertTask(t); err != nil {
		return task.Task{}, fmt.Errorf("save task: %w", err)
	}
	s.log.Info("task added", "id", t.ID, "type", t.Type, "timestamp", t.Timestamp)
	return t, nil
}

// Toggle flips completion for today. Recurring tasks gain or lose today's
// completion date; other tasks flip their completed flag.
func (s *Service) Toggle(id string) (task.Task, error) {
	t, err := s.store.GetTask(id)
	if err != nil {
		return task.Task{}, err
	}
	if t.IsRecurring() {
		dates := s.Evaluator().ToggleToday(t, s.Now())
		if err := s.store.SetCompletionDates(id, dates); err != nil {
			return task.Task{}, fmt.Errorf("toggle %s: %w", id, err)
		}
		t.CompletionDates = dates
	} else {
		if err := s.store.SetCompleted(id, !t.Completed); err != nil {
			return task.Task{}, fmt.Errorf("toggle %s: %w", id, err)
		}
		t.Completed = !t.Completed
	}
	s.log.Info("task toggled", "id", id, "completed_today", s.Evaluator().CompletedToday(t, s.Now()))
	return t, nil
}

func (s *Service) Rename(id, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return task.ErrEmptyText
	}
	if err := s.store.RenameTask(id, text); err != nil {
		return fmt.Errorf("rename %s: %w", id, err)
	}
	s.log.Info("task renamed", "id", id)
	return nil
}

// Delete removes the task with id. Callers holding a bucket position must
// resolve it to the task's ID first; bucket order is not store order.
func (s *Service) Delete(id string) error {
	if err := s.store.DeleteTask(id); err != nil {
		return fmt.Errorf("delete %s: %w", id, err)
	}
	s.log.Info("task deleted", "id", id)
	return nil
}

// DeleteFrom deletes as seen from a screen. The today screen leaves recurring
// tasks alone; they are removed from the recurring screen.
func (s *Service) DeleteFrom(screen nav.Screen, id string) error {
	if screen == nav.Today {
		t, err := s.store.GetTask(id)
		if err != nil {
			return err
		}
		if t.IsRecurring() {
			return ErrRecurringOnTodayView
		}
	}
	return s.Delete(id)
}

// Import inserts previously exported tasks as they are, keeping their IDs
// and completion history. Records without text, and records whose ID is
// already stored, are skipped.
func (s *Service) Import(tasks []task.Task) (int, error) {
	existing, err := s.Tasks()
	if err != nil {
		return 0, err
	}
	seen := make(map[string]struct{}, len(existing))
	for _, t := range existing {
		seen[strings.ToLower(t.ID)] = struct{}{}
	}
	n := 0
	for _, t := range tasks {
		if strings.TrimSpace(t.Text) == "" {
			s.log.Warn("skipping imported task without text", "id", t.ID)
			continue
		}
		key := strings.ToLower(t.ID)
		if _, ok := seen[key]; ok {
			s.log.Warn("skipping imported task with existing id", "id", t.ID)
			continue
		}
		if err := s.store.InsertTask(t); err != nil {
			return n, fmt.Errorf("import %s: %w", t.ID, err)
		}
		seen[key] = struct{}{}
		n++
	}
	s.log.Info("tasks imported", "count", n)
	return n, nil
}

// Find resolves a full ID or a unique ID prefix, ignoring case.
func (s *Service) Find(prefix string) (task.Task, error) {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	if prefix == "" {
		return task.Task{}, fmt.Errorf("%w: empty id", ErrNoMatch)
	}
	tasks, err := s.Tasks()
	if err != nil {
		return task.Task{}, err
	}
	var found []task.Task
	for _, t := range tasks {
		id := strings.ToLower(t.ID)
		if id == prefix {
			return t, nil
		}
		if strings.HasPrefix(id, prefix) {
			found = append(found, t)
		}
	}
	switch len(found) {
	case 0:
		return task.Task{}, fmt.Errorf("%w: %q", ErrNoMatch, prefix)
	case 1:
		return found[0], nil
	default:
		return task.Task{}, fmt.Errorf("%w: %q (%d tasks)", ErrAmbiguous, prefix, len(found))
	}
}
