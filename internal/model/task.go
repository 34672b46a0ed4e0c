package model

import (
	"strings"
	"time"
)

// DateLayout is the calendar date format used for due dates
const DateLayout = "2006-01-02"

// Task represents a todo item as the UI sees it
type Task struct {
	ID      int64
	Content string
	Done    bool
	DueDate string // yyyy-MM-dd

	// Optional assignment; AssignedToName is a display cache only
	AssignedToUserID *int64
	AssignedToName   string

	// Local-only, never sent to the todo service
	Editing bool
}

// IsAssigned returns true if the task references a user
func (t *Task) IsAssigned() bool {
	return t.AssignedToUserID != nil
}

// Due parses the due date, returning false if it is absent or malformed
func (t *Task) Due() (time.Time, bool) {
	if t.DueDate == "" {
		return time.Time{}, false
	}
	d, err := time.ParseInLocation(DateLayout, t.DueDate, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

// IsOverdue returns true if the task is past its due date
func (t *Task) IsOverdue() bool {
	due, ok := t.Due()
	if !ok || t.Done {
		return false
	}
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local)
	return due.Before(today)
}

// IsDueToday returns true if the task is due today
func (t *Task) IsDueToday() bool {
	due, ok := t.Due()
	if !ok {
		return false
	}
	now := time.Now()
	return due.Year() == now.Year() && due.YearDay() == now.YearDay()
}

// Today returns the current local date in DateLayout
func Today() string {
	return time.Now().Format(DateLayout)
}

// TaskDraft is the user input for a new task
type TaskDraft struct {
	Content  string
	DueDate  string
	Assignee *User
}

// FilterMode selects which tasks the derived view shows
type FilterMode int

const (
	FilterAll FilterMode = iota
	FilterCompleted
	FilterProcessing
)

func (m FilterMode) String() string {
	switch m {
	case FilterAll:
		return "All"
	case FilterCompleted:
		return "Completed"
	case FilterProcessing:
		return "Processing"
	default:
		return "Unknown"
	}
}

// Next cycles All -> Completed -> Processing -> All
func (m FilterMode) Next() FilterMode {
	switch m {
	case FilterAll:
		return FilterCompleted
	case FilterCompleted:
		return FilterProcessing
	default:
		return FilterAll
	}
}

// ParseFilterMode accepts the filter names case-insensitively
func ParseFilterMode(s string) (FilterMode, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return FilterAll, true
	case "completed", "done":
		return FilterCompleted, true
	case "processing", "pending":
		return FilterProcessing, true
	}
	return FilterAll, false
}

// Matches reports whether a task belongs in the filtered view
func (m FilterMode) Matches(t Task) bool {
	switch m {
	case FilterCompleted:
		return t.Done
	case FilterProcessing:
		return !t.Done
	default:
		return true
	}
}
