package mapper

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/dori/taskdeck/internal/model"
)

func TestToTaskRenamesFields(t *testing.T) {
	body := `{"id":7,"content":"x","done":true,"dueDate":"2024-01-01","assignedToUserId":3,"assignedToName":"Ann"}`

	var w TodoWire
	if err := json.Unmarshal([]byte(body), &w); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	task := ToTask(w)

	if task.ID != 7 || task.Content != "x" || !task.Done || task.DueDate != "2024-01-01" {
		t.Fatalf("unexpected task: %+v", task)
	}
	if task.AssignedToUserID == nil || *task.AssignedToUserID != 3 || task.AssignedToName != "Ann" {
		t.Errorf("assignment not mapped: %+v", task)
	}
	if task.Editing {
		t.Error("mapped task must not be editing")
	}
}

func TestFromTaskDropsLocalFields(t *testing.T) {
	task := model.Task{ID: 4, Content: "write docs", DueDate: "2024-02-02", Editing: true}

	b, err := json.Marshal(FromTask(task))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got := string(b)

	for _, want := range []string{`"id":4`, `"content":"write docs"`, `"done":false`, `"dueDate":"2024-02-02"`} {
		if !strings.Contains(got, want) {
			t.Errorf("payload %s missing %s", got, want)
		}
	}
	for _, unwanted := range []string{"editing", "Editing", "assignedToUserId"} {
		if strings.Contains(got, unwanted) {
			t.Errorf("payload %s should not contain %s", got, unwanted)
		}
	}
}

func TestNewTodoHasNoID(t *testing.T) {
	w := NewTodo(model.TaskDraft{Content: "buy milk", DueDate: "2024-03-01"})

	b, _ := json.Marshal(w)
	if strings.Contains(string(b), `"id"`) {
		t.Errorf("create payload must not carry an id: %s", b)
	}
	if w.Done {
		t.Error("new todo must not be done")
	}
}

func TestNewTodoDefaultsDueDateToToday(t *testing.T) {
	w := NewTodo(model.TaskDraft{Content: "x"})
	if w.DueDate != model.Today() {
		t.Errorf("DueDate = %q, want %q", w.DueDate, model.Today())
	}
}

func TestNewTodoWithAssignee(t *testing.T) {
	w := NewTodo(model.TaskDraft{
		Content:  "review",
		Assignee: &model.User{ID: 9, Username: "bob"},
	})
	if w.AssignedToUserID == nil || *w.AssignedToUserID != 9 {
		t.Fatalf("assignee id not set: %+v", w)
	}
	if w.AssignedToName != "bob" {
		t.Errorf("AssignedToName = %q, want bob", w.AssignedToName)
	}
}

func TestNewUserDefaults(t *testing.T) {
	tests := []struct {
		name  string
		draft model.UserDraft
		want  UserWire
	}{
		{
			name:  "only required fields",
			draft: model.UserDraft{Username: "jdoe", Email: "j@example.com"},
			want: UserWire{Username: "jdoe", Email: "j@example.com", FullName: "jdoe",
				Role: DefaultRole, Department: DefaultDepartment, Active: true},
		},
		{
			name: "all fields",
			draft: model.UserDraft{Username: "ann", Email: "a@example.com", FullName: "Ann Lee",
				Role: "Designer", Department: "Marketing"},
			want: UserWire{Username: "ann", Email: "a@example.com", FullName: "Ann Lee",
				Role: "Designer", Department: "Marketing", Active: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewUser(tt.draft)
			if got != tt.want {
				t.Errorf("NewUser() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestToStats(t *testing.T) {
	body := `{"totalTodos":4,"completedTodos":1,"pendingTodos":3,"completionRate":25.0,"totalUsers":0}`

	var w StatsWire
	if err := json.Unmarshal([]byte(body), &w); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	s := ToStats(w)
	if s.TotalTodos != 4 || s.PendingTodos != 3 || s.CompletionRate != 25 {
		t.Errorf("unexpected snapshot: %+v", s)
	}
	if !s.UsersMissing() {
		t.Error("zero users with todos should report users missing")
	}
}
