package syncer

import (
	"context"

	"github.com/dori/taskdeck/internal/model"
	"github.com/dori/taskdeck/internal/remote"
)

// fakeTodos records every call and answers from its fields
type fakeTodos struct {
	list    []model.Task
	created model.Task
	err     error

	calls   int
	updates []model.Task
	deleted []int64
}

func (f *fakeTodos) Service() string { return "todo service" }

func (f *fakeTodos) List(ctx context.Context) ([]model.Task, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return append([]model.Task(nil), f.list...), nil
}

func (f *fakeTodos) Create(ctx context.Context, d model.TaskDraft) (model.Task, error) {
	f.calls++
	if f.err != nil {
		return model.Task{}, f.err
	}
	return f.created, nil
}

func (f *fakeTodos) Update(ctx context.Context, t model.Task) (model.Task, error) {
	f.calls++
	f.updates = append(f.updates, t)
	if f.err != nil {
		return model.Task{}, f.err
	}
	return t, nil
}

func (f *fakeTodos) Delete(ctx context.Context, id int64) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeUsers struct {
	list    []model.User
	created model.User
	err     error

	calls  int
	drafts []model.UserDraft
}

func (f *fakeUsers) Service() string { return "user service" }

func (f *fakeUsers) List(ctx context.Context) ([]model.User, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return append([]model.User(nil), f.list...), nil
}

func (f *fakeUsers) Create(ctx context.Context, d model.UserDraft) (model.User, error) {
	f.calls++
	f.drafts = append(f.drafts, d)
	if f.err != nil {
		return model.User{}, f.err
	}
	return f.created, nil
}

func (f *fakeUsers) Delete(ctx context.Context, id int64) error {
	f.calls++
	return f.err
}

func (f *fakeUsers) Ping(ctx context.Context) error {
	f.calls++
	return f.err
}

type fakeStats struct {
	snap model.StatsSnapshot
	err  error
}

func (f *fakeStats) Service() string { return "stats service" }

func (f *fakeStats) Get(ctx context.Context) (model.StatsSnapshot, error) {
	return f.snap, f.err
}

var (
	errUnreachable = &remote.Error{Service: "todo service", Op: remote.OpDelete, Kind: remote.KindUnreachable, Status: 500}
	errTimeout     = &remote.Error{Service: "user service", Op: remote.OpCreate, Kind: remote.KindTimeout}
	errConflict    = &remote.Error{Service: "user service", Op: remote.OpCreate, Kind: remote.KindConflict, Status: 409}
)

func sampleTasks() []model.Task {
	return []model.Task{
		{ID: 1, Content: "a", Done: false, DueDate: "2024-01-01"},
		{ID: 2, Content: "b", Done: true, DueDate: "2024-01-02"},
		{ID: 3, Content: "c", Done: false, DueDate: "2024-01-03"},
		{ID: 4, Content: "d", Done: true, DueDate: "2024-01-04"},
	}
}

func loadedTaskList(t interface{ Fatalf(string, ...any) }, api *fakeTodos) *TaskList {
	api.list = sampleTasks()
	l := NewTaskList(api, nil)
	if err := l.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	api.calls = 0
	return l
}
