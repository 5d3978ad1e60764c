package ui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"today/internal/config"
	"today/internal/nav"
	"today/internal/planner"
	"today/internal/task"
	"today/internal/views"
)

type mode int

const (
	modeList mode = iota
	modeAdd
	modeFields
	modeRename
)

// row is one selectable line. Group carries the history day heading.
type row struct {
	task  task.Task
	days  int
	group string
}

// fieldState walks the recurring-task fields after the title is entered.
type fieldState struct {
	text      string
	frequency string
	times     string
	priority  string
	index     int
}

type Model struct {
	svc        *planner.Service
	cfg        config.Config
	nav        nav.State
	board      views.Board
	rows       []row
	cursor     int
	mode       mode
	input      textinput.Model
	status     string
	confirmDel bool
	pendingDel *row
	renaming   string
	fields     *fieldState
	width      int
}

func New(svc *planner.Service, cfg config.Config) Model {
	ti := textinput.New()
	ti.Placeholder = "Enter new task"
	ti.CharLimit = 256
	ti.Width = 40

	m := Model{
		svc:    svc,
		cfg:    cfg,
		input:  ti,
		mode:   modeList,
		status: fmt.Sprintf("Press '%s' to add, space to toggle, '%s' to delete.", cfg.Keys.Add, cfg.Keys.Delete),
	}
	m.reload()
	return m
}

func Run(svc *planner.Service, cfg config.Config) error {
	program := tea.NewProgram(New(svc, cfg), tea.WithAltScreen())
	_, err := program.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.fields != nil {
			return m.updateFieldsMode(msg.String(), msg)
		}
		if m.confirmDel {
			return m.updateDeleteConfirm(msg.String())
		}
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = msg.Width - 10
	}
	return m, nil
}

// reload re-reads the store; buckets are never cached across actions.
func (m *Model) reload() {
	board, err := m.svc.Board()
	if err != nil {
		m.status = fmt.Sprintf("reload failed: %v", err)
		return
	}
	m.board = board
	m.rows = rowsFor(m.nav.Current(), board)
	m.cursor = clampCursor(m.cursor, len(m.rows))
}

func rowsFor(screen nav.Screen, b views.Board) []row {
	var out []row
	loc := b.Now.Location()
	switch screen {
	case nav.Today:
		for _, t := range b.Today {
			out = append(out, row{task: t})
		}
	case nav.Tomorrow:
		for _, t := range b.Future {
			out = append(out, row{task: t, group: t.Timestamp.In(loc).Format("Mon Jan 2")})
		}
	case nav.Performance:
		for _, d := range b.History.Days {
			group := fmt.Sprintf("%s  %d/%d", d.Date.Format("Mon Jan 2"), d.Completed, len(d.Tasks))
			for _, t := range d.Tasks {
				out = append(out, row{task: t, group: group})
			}
		}
	case nav.Recurring:
		for _, t := range b.Recurring {
			out = append(out, row{task: t})
		}
	case nav.Timeless:
		for _, a := range b.Timeless {
			out = append(out, row{task: a.Task, days: a.Days})
		}
	}
	return out
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch m.mode {
	case modeAdd:
		return m.updateAddMode(key, msg)
	case modeRename:
		return m.updateRenameMode(key, msg)
	}
	return m.updateListMode(key)
}

func (m Model) updateAddMode(key string, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key {
	case m.cfg.Keys.Cancel, "esc":
		m.mode = modeList
		m.input.SetValue("")
		m.input.Blur()
		m.status = "Discarded"
		return m, nil
	case m.cfg.Keys.Confirm, "enter":
		text := strings.TrimSpace(m.input.Value())
		if text == "" {
			m.status = "Task cannot be empty"
			return m, nil
		}
		if m.nav.Current() == nav.Recurring {
			return m.startFields(text)
		}
		var err error
		switch m.nav.Current() {
		case nav.Tomorrow:
			_, err = m.svc.AddTomorrow(text)
		case nav.Timeless:
			_, err = m.svc.AddTimeless(text)
		default:
			_, err = m.svc.AddToday(text)
		}
		if err != nil {
			m.status = fmt.Sprintf("save failed: %v", err)
			return m, nil
		}
		m.input.SetValue("")
		m.input.Blur()
		m.mode = modeList
		m.reload()
		m.status = "Added task"
		return m, nil
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
}

func (m Model) updateRenameMode(key string, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key {
	case m.cfg.Keys.Cancel, "esc":
		m.mode = modeList
		m.renaming = ""
		m.input.SetValue("")
		m.input.Blur()
		m.status = "Rename cancelled"
		return m, nil
	case m.cfg.Keys.Confirm, "enter":
		if err := m.svc.Rename(m.renaming, m.input.Value()); err != nil {
			m.status = fmt.Sprintf("rename failed: %v", err)
			return m, nil
		}
		m.mode = modeList
		m.renaming = ""
		m.input.SetValue("")
		m.input.Blur()
		m.reload()
		m.status = "Renamed task"
		return m, nil
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
}

func (m Model) updateListMode(key string) (tea.Model, tea.Cmd) {
	k := m.cfg.Keys
	switch key {
	case "ctrl+c", k.Quit:
		return m, tea.Quit
	case k.Down, "down":
		if len(m.rows) == 0 {
			return m, nil
		}
		m.cursor = clampCursor(m.cursor+1, len(m.rows))
	case k.Up, "up":
		if m.cursor > 0 {
			m.cursor = clampCursor(m.cursor-1, len(m.rows))
		}
	case k.ScreenLeft, "left":
		return m.move(nav.Left)
	case k.ScreenRight, "right":
		return m.move(nav.Right)
	case k.ScreenUp:
		return m.move(nav.Up)
	case k.ScreenDown:
		return m.move(nav.Down)
	case k.Add:
		switch m.nav.Current() {
		case nav.Performance, nav.Settings:
			m.status = "Nothing to add here"
			return m, nil
		}
		m.mode = modeAdd
		m.input.SetValue("")
		m.input.Placeholder = placeholderFor(m.nav.Current())
		m.input.Focus()
		m.status = "Type a task and press Enter, Esc to discard"
	case k.Toggle:
		if len(m.rows) == 0 {
			return m, nil
		}
		if m.nav.Current() == nav.Timeless {
			m.status = "Timeless tasks are deleted once done"
			return m, nil
		}
		t := m.rows[m.cursor].task
		if _, err := m.svc.Toggle(t.ID); err != nil {
			m.status = fmt.Sprintf("toggle failed: %v", err)
			return m, nil
		}
		m.reload()
		m.status = "Toggled task"
	case k.Delete:
		if len(m.rows) == 0 {
			return m, nil
		}
		r := m.rows[m.cursor]
		m.confirmDel = true
		m.pendingDel = &r
		m.status = fmt.Sprintf("Delete \"%s\"? y/n", r.task.Text)
	case k.Rename:
		if len(m.rows) == 0 {
			return m, nil
		}
		t := m.rows[m.cursor].task
		m.mode = modeRename
		m.renaming = t.ID
		m.input.SetValue(t.Text)
		m.input.Placeholder = "New text"
		m.input.Focus()
		m.status = "Rename: Enter to save, Esc to cancel"
	case k.Detail:
		if len(m.rows) == 0 {
			m.status = "No tasks"
			return m, nil
		}
		m.status = m.detail(m.rows[m.cursor].task)
	}
	return m, nil
}

func (m Model) move(dir nav.Direction) (tea.Model, tea.Cmd) {
	if !m.nav.Move(dir) {
		return m, nil
	}
	m.cursor = 0
	m.reload()
	m.status = ""
	return m, nil
}

func (m Model) updateDeleteConfirm(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "n", "N", "esc":
		m.status = "Delete cancelled"
		m.confirmDel = false
		m.pendingDel = nil
		return m, nil
	case "y", "Y":
		if m.pendingDel == nil {
			m.status = "Nothing to delete"
			m.confirmDel = false
			return m, nil
		}
		err := m.svc.DeleteFrom(m.nav.Current(), m.pendingDel.task.ID)
		m.confirmDel = false
		m.pendingDel = nil
		if errors.Is(err, planner.ErrRecurringOnTodayView) {
			m.status = "Recurring tasks are deleted from the Recurring screen"
			return m, nil
		}
		if err != nil {
			m.status = fmt.Sprintf("delete failed: %v", err)
			return m, nil
		}
		m.reload()
		m.status = "Deleted task"
		return m, nil
	default:
		return m, nil
	}
}

func (m Model) startFields(text string) (tea.Model, tea.Cmd) {
	m.fields = &fieldState{
		text:      text,
		frequency: string(task.Daily),
		times:     "1",
		priority:  boolToYN(false),
	}
	m.mode = modeFields
	m.input.SetValue(m.fields.currentValue())
	m.input.Placeholder = m.fields.currentLabel()
	m.status = m.fieldPrompt()
	return m, nil
}

func (m Model) updateFieldsMode(key string, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key {
	case m.cfg.Keys.Cancel, "esc":
		m.fields = nil
		m.mode = modeList
		m.input.SetValue("")
		m.input.Blur()
		m.status = "Discarded"
		return m, nil
	case "tab", "down":
		m.fields.setCurrentValue(m.input.Value())
		m.fields.index = wrapIndex(m.fields.index+1, len(fieldNames()))
		m.input.SetValue(m.fields.currentValue())
		m.input.Placeholder = m.fields.currentLabel()
		m.status = m.fieldPrompt()
		return m, nil
	case "shift+tab", "up":
		m.fields.setCurrentValue(m.input.Value())
		m.fields.index = wrapIndex(m.fields.index-1, len(fieldNames()))
		m.input.SetValue(m.fields.currentValue())
		m.input.Placeholder = m.fields.currentLabel()
		m.status = m.fieldPrompt()
		return m, nil
	case m.cfg.Keys.Confirm, "enter":
		m.fields.setCurrentValue(m.input.Value())
		if m.fields.index >= len(fieldNames())-1 {
			return m.saveRecurring()
		}
		m.fields.index++
		m.input.SetValue(m.fields.currentValue())
		m.input.Placeholder = m.fields.currentLabel()
		m.status = m.fieldPrompt()
		return m, nil
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
}

func (m Model) saveRecurring() (tea.Model, tea.Cmd) {
	freq, ok := task.ParseFrequency(m.fields.frequency)
	if !ok {
		m.status = fmt.Sprintf("frequency invalid: %q (daily, weekly, monthly, yearly)", m.fields.frequency)
		return m, nil
	}
	times, err := parseTimes(m.fields.times)
	if err != nil {
		m.status = fmt.Sprintf("times invalid: %v", err)
		return m, nil
	}
	if _, err := m.svc.AddRecurring(m.fields.text, freq, times, parseYN(m.fields.priority)); err != nil {
		m.status = fmt.Sprintf("save failed: %v", err)
		return m, nil
	}
	m.fields = nil
	m.mode = modeList
	m.input.SetValue("")
	m.input.Blur()
	m.reload()
	m.status = "Added recurring task"
	return m, nil
}

func fieldNames() []string {
	return []string{"frequency (daily/weekly/monthly/yearly)", "times per period", "priority (y/n)"}
}

func (fs fieldState) currentLabel() string {
	return fieldNames()[fs.index]
}

func (fs fieldState) currentValue() string {
	switch fs.index {
	case 0:
		return fs.frequency
	case 1:
		return fs.times
	case 2:
		return fs.priority
	default:
		return ""
	}
}

func (fs *fieldState) setCurrentValue(v string) {
	switch fs.index {
	case 0:
		fs.frequency = v
	case 1:
		fs.times = v
	case 2:
		fs.priority = v
	}
}

func (m Model) fieldPrompt() string {
	if m.fields == nil {
		return ""
	}
	return fmt.Sprintf("Editing %s (field %d of %d). Enter to advance, Esc to discard, tab to move.",
		m.fields.currentLabel(), m.fields.index+1, len(fieldNames()))
}

func placeholderFor(screen nav.Screen) string {
	switch screen {
	case nav.Tomorrow:
		return "MM/DD/YYYY task, or just a task for tomorrow"
	case nav.Recurring:
		return "Recurring task"
	case nav.Timeless:
		return "Timeless task"
	default:
		return "Enter new task"
	}
}

func parseTimes(v string) (int, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 1, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, err
	}
	if n < 1 {
		return 0, task.ErrInvalidInterval
	}
	return n, nil
}

func parseYN(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "y" || v == "yes" || v == "true" || v == "1"
}

func boolToYN(b bool) string {
	if b {
		return "y"
	}
	return "n"
}

func wrapIndex(idx, n int) int {
	if n <= 0 {
		return 0
	}
	idx %= n
	if idx < 0 {
		idx += n
	}
	return idx
}

func clampCursor(cur, n int) int {
	if n <= 0 {
		return 0
	}
	if cur < 0 {
		return 0
	}
	if cur >= n {
		return n - 1
	}
	return cur
}
