// Package nav holds which screen is showing and how the screens connect.
package nav

import (
	"fmt"
	"strings"
)

type Screen int

const (
	Today Screen = iota
	Tomorrow
	Performance
	Settings
	Recurring
	Timeless
)

var screenNames = map[Screen]string{
	Today:       "today",
	Tomorrow:    "tomorrow",
	Performance: "performance",
	Settings:    "settings",
	Recurring:   "recurring",
	Timeless:    "timeless",
}

func (s Screen) String() string {
	if name, ok := screenNames[s]; ok {
		return name
	}
	return fmt.Sprintf("screen(%d)", int(s))
}

// Title is the heading shown above the screen's list.
func (s Screen) Title() string {
	name := s.String()
	return strings.ToUpper(name[:1]) + name[1:]
}

// ParseScreen accepts screen names and "history" for the performance screen.
func ParseScreen(v string) (Screen, error) {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "history" {
		return Performance, nil
	}
	for s, name := range screenNames {
		if name == v {
			return s, nil
		}
	}
	return Today, fmt.Errorf("unknown screen %q", v)
}

type Direction int

const (
	Left Direction = iota
	Right
	Up
	Down
)

type edge struct {
	from Screen
	dir  Direction
}

// The layout is a cross around today: history to the left, tomorrow to the
// right, timeless and recurring above.
var layout = map[edge]Screen{
	{Today, Left}:        Performance,
	{Today, Right}:       Tomorrow,
	{Today, Up}:          Timeless,
	{Tomorrow, Left}:     Today,
	{Performance, Right}: Today,
	{Performance, Left}:  Settings,
	{Settings, Right}:    Performance,
	{Timeless, Down}:     Today,
	{Timeless, Right}:    Recurring,
	{Recurring, Down}:    Today,
	{Recurring, Left}:    Timeless,
}

// State is the current screen. The zero value shows today.
type State struct {
	current Screen
}

func (s *State) Current() Screen { return s.current }

func (s *State) Set(screen Screen) { s.current = screen }

// Move follows dir from the current screen and reports whether it went anywhere.
func (s *State) Move(dir Direction) bool {
	next, ok := layout[edge{s.current, dir}]
	if ok {
		s.current = next
	}
	return ok
}

// Neighbors lists the directions available from screen, for help text.
func Neighbors(screen Screen) map[Direction]Screen {
	out := map[Direction]Screen{}
	for e, to := range layout {
		if e.from == screen {
			out[e.dir] = to
		}
	}
	return out
}
