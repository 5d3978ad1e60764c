package report

import (
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"today/internal/task"
)

// Record is the persisted field contract for one task.
type Record struct {
	ID              string      `yaml:"id"`
	Timestamp       time.Time   `yaml:"timestamp"`
	Text            string      `yaml:"text"`
	IsCompleted     bool        `yaml:"isCompleted"`
	ItemType        string      `yaml:"itemType"`
	CompletionDates []time.Time `yaml:"completionDates,omitempty"`
	TaskFrequency   string      `yaml:"taskFrequency"`
	Interval        int         `yaml:"interval"`
	PriorityTask    bool        `yaml:"priorityTask"`
}

func ToRecord(t task.Task) Record {
	return Record{
		ID:              t.ID,
		Timestamp:       t.Timestamp.UTC(),
		Text:            t.Text,
		IsCompleted:     t.Completed,
		ItemType:        string(t.Type),
		CompletionDates: t.CompletionDates,
		TaskFrequency:   string(t.Frequency),
		Interval:        t.Interval,
		PriorityTask:    t.Priority,
	}
}

// Task converts a record back. Unknown enum strings are kept so they fail
// closed downstream; an interval below 1 becomes 1 and a missing ID is
// generated.
func (r Record) Task() task.Task {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	typ, _ := task.ParseType(r.ItemType)
	freq, _ := task.ParseFrequency(r.TaskFrequency)
	t := task.Task{
		ID:        r.ID,
		Timestamp: r.Timestamp,
		Text:      r.Text,
		Completed: r.IsCompleted,
		Type:      typ,
		Frequency: freq,
		Interval:  max(r.Interval, 1),
		Priority:  r.PriorityTask,
	}
	if t.IsRecurring() {
		t.CompletionDates = r.CompletionDates
	}
	return t
}

func WriteYAML(out io.Writer, tasks []task.Task) error {
	records := make([]Record, 0, len(tasks))
	for _, t := range tasks {
		records = append(records, ToRecord(t))
	}
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("encode tasks: %w", err)
	}
	return enc.Close()
}

func ReadYAML(in io.Reader) ([]task.Task, error) {
	var records []Record
	if err := yaml.NewDecoder(in).Decode(&records); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("decode tasks: %w", err)
	}
	tasks := make([]task.Task, 0, len(records))
	for _, r := range records {
		tasks = append(tasks, r.Task())
	}
	return tasks, nil
}
