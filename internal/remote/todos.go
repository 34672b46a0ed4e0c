package remote

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/dori/taskdeck/internal/mapper"
	"github.com/dori/taskdeck/internal/model"
)

// errNoRecord is returned when a create succeeds without echoing the record
var errNoRecord = errors.New("no record in response")

// TodoAPI is the todo service
type TodoAPI struct {
	c *Client
}

// NewTodoAPI wraps a client pointed at the todo service
func NewTodoAPI(c *Client) *TodoAPI {
	return &TodoAPI{c: c}
}

// Service returns the service name used in messages
func (a *TodoAPI) Service() string {
	return a.c.Service()
}

// List returns all todos in backend order
func (a *TodoAPI) List(ctx context.Context) ([]model.Task, error) {
	var ws []mapper.TodoWire
	if _, err := a.c.Do(ctx, OpList, http.MethodGet, "/list-todo", nil, &ws); err != nil {
		return nil, err
	}
	return mapper.ToTasks(ws), nil
}

// Create posts a new todo and returns it with its assigned id
func (a *TodoAPI) Create(ctx context.Context, d model.TaskDraft) (model.Task, error) {
	var w mapper.TodoWire
	ok, err := a.c.Do(ctx, OpCreate, http.MethodPost, "/todo", mapper.NewTodo(d), &w)
	if err != nil {
		return model.Task{}, err
	}
	if !ok || w.ID == nil {
		return model.Task{}, &Error{Service: a.c.service, Op: OpCreate, Kind: KindUnreachable, Err: errNoRecord}
	}
	return mapper.ToTask(w), nil
}

// Update sends the complete record. The todo service overwrites every
// field on PATCH, so callers must pass the full current task with their
// change merged in, never a partial one. If the service answers without
// a body the sent record is returned as the new state.
func (a *TodoAPI) Update(ctx context.Context, t model.Task) (model.Task, error) {
	sent := mapper.FromTask(t)
	var w mapper.TodoWire
	ok, err := a.c.Do(ctx, OpUpdate, http.MethodPatch, fmt.Sprintf("/todo/%d", t.ID), sent, &w)
	if err != nil {
		return model.Task{}, err
	}
	if !ok {
		w = sent
	}
	updated := mapper.ToTask(w)
	updated.ID = t.ID
	return updated, nil
}

// Delete removes a todo
func (a *TodoAPI) Delete(ctx context.Context, id int64) error {
	_, err := a.c.Do(ctx, OpDelete, http.MethodDelete, fmt.Sprintf("/todo/%d", id), nil, nil)
	return err
}
