package ui

import (
	"strings"
)

// View represents the current active view
type View int

const (
	ViewTodos View = iota
	ViewUsers
	ViewStats
)

// String returns the display name for a view
func (v View) String() string {
	switch v {
	case ViewTodos:
		return "Todos"
	case ViewUsers:
		return "Users"
	case ViewStats:
		return "Stats"
	default:
		return "Unknown"
	}
}

// ParseView accepts a view name as given on the command line
func ParseView(s string) (View, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "todos", "todo", "tasks", "list":
		return ViewTodos, true
	case "users", "user":
		return ViewUsers, true
	case "stats", "statistics":
		return ViewStats, true
	}
	return ViewTodos, false
}

// Messages for inter-component communication

// SwitchViewMsg requests a view change
type SwitchViewMsg struct {
	View View
}

// ThemeChangedMsg indicates the theme was changed
type ThemeChangedMsg struct {
	ThemeName string
}
