// Package syncer owns the canonical in-memory copy of each remote
// resource. Changes reach local state only after the backend has
// acknowledged them.
package syncer

import (
	"context"
	"strings"
	"sync"

	"github.com/dori/taskdeck/internal/health"
	"github.com/dori/taskdeck/internal/model"
)

// TodoService is the remote side of a TaskList
type TodoService interface {
	Service() string
	List(ctx context.Context) ([]model.Task, error)
	Create(ctx context.Context, d model.TaskDraft) (model.Task, error)
	Update(ctx context.Context, t model.Task) (model.Task, error)
	Delete(ctx context.Context, id int64) error
}

// TaskList is the canonical task list for one view.
//
// Calls are made without holding the lock, so two operations on the same
// task may race; whichever response arrives last is what the list shows.
type TaskList struct {
	api    TodoService
	health *health.Tracker

	mu    sync.Mutex
	tasks []model.Task
}

// NewTaskList creates an empty list backed by api. A nil tracker gets a
// fresh one.
func NewTaskList(api TodoService, tracker *health.Tracker) *TaskList {
	if tracker == nil {
		tracker = health.NewTracker(api.Service())
	}
	return &TaskList{api: api, health: tracker}
}

// Health returns the todo service connectivity tracker
func (l *TaskList) Health() *health.Tracker {
	return l.health
}

// Tasks returns a copy of the canonical list
func (l *TaskList) Tasks() []model.Task {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]model.Task(nil), l.tasks...)
}

// Filtered returns the derived view for mode
func (l *TaskList) Filtered(mode model.FilterMode) []model.Task {
	return Filter(l.Tasks(), mode)
}

// Get returns the task with id
func (l *TaskList) Get(id int64) (model.Task, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if i := l.indexOf(id); i >= 0 {
		return l.tasks[i], true
	}
	return model.Task{}, false
}

// Load replaces the whole list with the backend's. On failure the
// current list is kept. A task in edit mode stays in edit mode if it is
// still in the new list.
func (l *TaskList) Load(ctx context.Context) error {
	tasks, err := l.api.List(ctx)
	l.health.Observe(err)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	editing := int64(-1)
	for _, t := range l.tasks {
		if t.Editing {
			editing = t.ID
		}
	}
	for i := range tasks {
		tasks[i].Editing = tasks[i].ID == editing
	}
	l.tasks = tasks
	return nil
}

// Create validates d, posts it and appends the backend's record to the
// end of the list
func (l *TaskList) Create(ctx context.Context, d model.TaskDraft) (model.Task, error) {
	d.Content = strings.TrimSpace(d.Content)
	if d.Content == "" {
		return model.Task{}, &ValidationError{Message: "Please enter a task"}
	}

	task, err := l.api.Create(ctx, d)
	l.health.Observe(err)
	if err != nil {
		return model.Task{}, err
	}

	task.Editing = false
	l.mu.Lock()
	l.tasks = append(l.tasks, task)
	l.mu.Unlock()
	return task, nil
}

// Update applies merge to a copy of the current record, sends the whole
// merged record and, once acknowledged, replaces the record in place.
// The local editing flag survives the round trip.
func (l *TaskList) Update(ctx context.Context, id int64, merge func(*model.Task)) (model.Task, error) {
	current, ok := l.Get(id)
	if !ok {
		return model.Task{}, ErrNotFound
	}

	next := current
	merge(&next)
	next.ID = current.ID

	updated, err := l.api.Update(ctx, next)
	l.health.Observe(err)
	if err != nil {
		return model.Task{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	i := l.indexOf(id)
	if i < 0 {
		// deleted while the update was in flight
		return updated, nil
	}
	updated.Editing = l.tasks[i].Editing
	l.tasks[i] = updated
	return updated, nil
}

// Edit saves new content and leaves edit mode on success
func (l *TaskList) Edit(ctx context.Context, id int64, content string) (model.Task, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return model.Task{}, &ValidationError{Message: "Task content cannot be empty"}
	}

	updated, err := l.Update(ctx, id, func(t *model.Task) {
		t.Content = content
	})
	if err != nil {
		return model.Task{}, err
	}

	l.mu.Lock()
	if i := l.indexOf(id); i >= 0 {
		l.tasks[i].Editing = false
		updated = l.tasks[i]
	}
	l.mu.Unlock()
	return updated, nil
}

// Toggle flips the completion flag
func (l *TaskList) Toggle(ctx context.Context, id int64) (model.Task, error) {
	return l.Update(ctx, id, func(t *model.Task) {
		t.Done = !t.Done
	})
}

// Assign sets or, with a nil user, clears the assignee
func (l *TaskList) Assign(ctx context.Context, id int64, u *model.User) (model.Task, error) {
	return l.Update(ctx, id, func(t *model.Task) {
		if u == nil {
			t.AssignedToUserID = nil
			t.AssignedToName = ""
			return
		}
		uid := u.ID
		t.AssignedToUserID = &uid
		t.AssignedToName = u.DisplayName()
	})
}

// Delete removes the task once the backend confirms
func (l *TaskList) Delete(ctx context.Context, id int64) error {
	if _, ok := l.Get(id); !ok {
		return ErrNotFound
	}

	err := l.api.Delete(ctx, id)
	l.health.Observe(err)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if i := l.indexOf(id); i >= 0 {
		l.tasks = append(l.tasks[:i], l.tasks[i+1:]...)
	}
	return nil
}

// BeginEdit puts id in edit mode and takes every other task out of it
func (l *TaskList) BeginEdit(id int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.indexOf(id) < 0 {
		return false
	}
	for i := range l.tasks {
		l.tasks[i].Editing = l.tasks[i].ID == id
	}
	return true
}

// CancelEdit leaves edit mode without touching any content
func (l *TaskList) CancelEdit() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.tasks {
		l.tasks[i].Editing = false
	}
}

// EditingID returns the task currently in edit mode
func (l *TaskList) EditingID() (int64, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, t := range l.tasks {
		if t.Editing {
			return t.ID, true
		}
	}
	return 0, false
}

func (l *TaskList) indexOf(id int64) int {
	for i := range l.tasks {
		if l.tasks[i].ID == id {
			return i
		}
	}
	return -1
}
