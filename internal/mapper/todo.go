// Package mapper translates between the JSON shapes the backends speak
// and the model types the rest of taskdeck uses. It is the only package
// that knows backend field names.
package mapper

import (
	"github.com/dori/taskdeck/internal/model"
)

// TodoWire is a todo as the todo service sends and receives it
type TodoWire struct {
	ID               *int64 `json:"id,omitempty"`
	Content          string `json:"content"`
	Done             bool   `json:"done"`
	DueDate          string `json:"dueDate"`
	AssignedToUserID *int64 `json:"assignedToUserId,omitempty"`
	AssignedToName   string `json:"assignedToName,omitempty"`
}

// ToTask maps a wire todo to a local task. Editing is always false.
func ToTask(w TodoWire) model.Task {
	t := model.Task{
		Content:        w.Content,
		Done:           w.Done,
		DueDate:        w.DueDate,
		AssignedToName: w.AssignedToName,
	}
	if w.ID != nil {
		t.ID = *w.ID
	}
	if w.AssignedToUserID != nil {
		id := *w.AssignedToUserID
		t.AssignedToUserID = &id
	}
	return t
}

// ToTasks maps a list response, preserving order
func ToTasks(ws []TodoWire) []model.Task {
	tasks := make([]model.Task, 0, len(ws))
	for _, w := range ws {
		tasks = append(tasks, ToTask(w))
	}
	return tasks
}

// FromTask maps a local task to the full record sent on update.
// Local-only fields are dropped.
func FromTask(t model.Task) TodoWire {
	id := t.ID
	w := TodoWire{
		ID:             &id,
		Content:        t.Content,
		Done:           t.Done,
		DueDate:        t.DueDate,
		AssignedToName: t.AssignedToName,
	}
	if t.AssignedToUserID != nil {
		uid := *t.AssignedToUserID
		w.AssignedToUserID = &uid
	}
	return w
}

// NewTodo builds the create payload. No id is sent; the todo service
// assigns one. An empty due date becomes today.
func NewTodo(d model.TaskDraft) TodoWire {
	w := TodoWire{
		Content: d.Content,
		Done:    false,
		DueDate: d.DueDate,
	}
	if w.DueDate == "" {
		w.DueDate = model.Today()
	}
	if d.Assignee != nil {
		uid := d.Assignee.ID
		w.AssignedToUserID = &uid
		w.AssignedToName = d.Assignee.DisplayName()
	}
	return w
}
