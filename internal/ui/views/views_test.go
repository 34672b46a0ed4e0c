package views

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dori/taskdeck/internal/fakeapi"
	"github.com/dori/taskdeck/internal/health"
	"github.com/dori/taskdeck/internal/model"
	"github.com/dori/taskdeck/internal/poll"
	"github.com/dori/taskdeck/internal/remote"
	"github.com/dori/taskdeck/internal/syncer"
	"github.com/gin-gonic/gin"
)

type fixture struct {
	fake  *fakeapi.Server
	tasks *syncer.TaskList
	users *syncer.UserList
	board *syncer.StatsBoard
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	fake := fakeapi.New()
	srv := httptest.NewServer(fake.Handler())
	t.Cleanup(srv.Close)

	opt := remote.WithTimeouts(2*time.Second, time.Second)
	todo := remote.NewTodoAPI(remote.New("todo service", srv.URL+fakeapi.TodoPrefix, opt))
	user := remote.NewUserAPI(remote.New("user service", srv.URL+fakeapi.UserPrefix, opt))
	stats := remote.NewStatsAPI(remote.New("stats service", srv.URL+fakeapi.StatsPrefix, opt))

	return &fixture{
		fake:  fake,
		tasks: syncer.NewTaskList(todo, nil),
		users: syncer.NewUserList(user, nil),
		board: syncer.NewStatsBoard(stats, nil),
	}
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var (
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyEsc   = tea.KeyMsg{Type: tea.KeyEsc}
)

// exec runs cmd synchronously, the way the program loop would
func exec(t *testing.T, cmd tea.Cmd) tea.Msg {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	return cmd()
}

func noticeOf(t *testing.T, cmd tea.Cmd) NoticeMsg {
	t.Helper()
	msg, ok := exec(t, cmd).(NoticeMsg)
	if !ok {
		t.Fatalf("expected NoticeMsg, got %T", msg)
	}
	return msg
}

func loadedTodos(t *testing.T, f *fixture) TodosView {
	t.Helper()
	v := NewTodosView(f.tasks, f.users).SetSize(100, 30)
	m, _ := v.Update(exec(t, v.loadTasks()))
	return m.(TodosView)
}

func TestTodosAddFlow(t *testing.T) {
	f := newFixture(t)
	f.fake.SeedUser("alice", "alice@example.com")
	v := loadedTodos(t, f)

	m, _ := v.Update(keyRunes("a"))
	v = m.(TodosView)
	if v.mode != TodosModeAdd {
		t.Fatalf("mode = %v, want add", v.mode)
	}

	m, _ = v.Update(keyRunes("buy milk @alice"))
	v = m.(TodosView)
	m, cmd := v.Update(keyEnter)
	v = m.(TodosView)
	if !v.pending {
		t.Error("expected a pending save")
	}

	m, cmd = v.Update(exec(t, cmd))
	v = m.(TodosView)
	if n := noticeOf(t, cmd); n.Error || n.Text != "Task added" {
		t.Errorf("notice = %+v", n)
	}
	if v.mode != TodosModeNormal || v.input.Value() != "" {
		t.Errorf("expected input closed and cleared, mode=%v value=%q", v.mode, v.input.Value())
	}

	tasks := f.tasks.Tasks()
	if len(tasks) != 1 {
		t.Fatalf("tasks = %d, want 1", len(tasks))
	}
	if tasks[0].Content != "buy milk" || tasks[0].AssignedToName != "alice" {
		t.Errorf("task = %+v", tasks[0])
	}
	if !strings.Contains(v.View(), "buy milk") {
		t.Error("view does not show the new task")
	}
}

func TestTodosAddUnknownAssigneeKeepsInput(t *testing.T) {
	f := newFixture(t)
	v := loadedTodos(t, f)

	m, _ := v.Update(keyRunes("a"))
	m, _ = m.Update(keyRunes("call @nobody"))
	m, cmd := m.Update(keyEnter)
	m, cmd = m.Update(exec(t, cmd))
	v = m.(TodosView)

	n := noticeOf(t, cmd)
	if !n.Error || !strings.Contains(n.Text, "@nobody") {
		t.Errorf("notice = %+v", n)
	}
	if v.mode != TodosModeAdd || v.input.Value() != "call @nobody" {
		t.Errorf("input should stay open: mode=%v value=%q", v.mode, v.input.Value())
	}
	if len(f.fake.Todos()) != 0 {
		t.Error("nothing should reach the todo service")
	}
}

func TestTodosFailedCreateReportsOffline(t *testing.T) {
	f := newFixture(t)
	v := loadedTodos(t, f)
	f.fake.Fail(fakeapi.TodoPrefix, http.StatusInternalServerError)

	m, _ := v.Update(keyRunes("a"))
	m, _ = m.Update(keyRunes("write report"))
	m, cmd := m.Update(keyEnter)
	m, cmd = m.Update(exec(t, cmd))
	v = m.(TodosView)

	if n := noticeOf(t, cmd); !n.Error {
		t.Errorf("expected an error notice, got %+v", n)
	}
	if got := f.tasks.Health().Status(); got != health.StatusOffline {
		t.Errorf("status = %v, want offline", got)
	}
	if v.pending {
		t.Error("pending should clear after the response")
	}
	if !strings.Contains(v.View(), "offline") {
		t.Error("view should show the service offline")
	}
}

func TestTodosEditFlow(t *testing.T) {
	f := newFixture(t)
	f.fake.SeedTodo("draft", false)
	v := loadedTodos(t, f)

	m, _ := v.Update(keyRunes("e"))
	v = m.(TodosView)
	if v.mode != TodosModeEdit {
		t.Fatalf("mode = %v, want edit", v.mode)
	}
	if id, ok := f.tasks.EditingID(); !ok || id != 1 {
		t.Fatalf("EditingID = %d, %v", id, ok)
	}

	v.input.SetValue("  final  ")
	m, cmd := v.Update(keyEnter)
	m, cmd = m.Update(exec(t, cmd))
	v = m.(TodosView)
	if n := noticeOf(t, cmd); n.Error {
		t.Fatalf("unexpected error: %s", n.Text)
	}

	if got := f.fake.Todos()[0].Content; got != "final" {
		t.Errorf("backend content = %q, want final", got)
	}
	if _, ok := f.tasks.EditingID(); ok {
		t.Error("edit mode should end after saving")
	}
	if v.mode != TodosModeNormal {
		t.Errorf("mode = %v, want normal", v.mode)
	}
}

func TestTodosEscCancelsEdit(t *testing.T) {
	f := newFixture(t)
	f.fake.SeedTodo("draft", false)
	v := loadedTodos(t, f)

	m, _ := v.Update(keyEnter)
	m, _ = m.Update(keyEsc)
	v = m.(TodosView)
	if _, ok := f.tasks.EditingID(); ok {
		t.Error("esc should cancel the edit")
	}
	if v.mode != TodosModeNormal {
		t.Errorf("mode = %v, want normal", v.mode)
	}
}

func TestTodosReloadDuringEditKeepsDraft(t *testing.T) {
	f := newFixture(t)
	f.fake.SeedTodo("draft", false)
	f.fake.SeedTodo("other", false)
	v := loadedTodos(t, f)

	m, _ := v.Update(keyEnter)
	v = m.(TodosView)
	v.input.SetValue("typed before the reload")

	// a refresh lands while the input is open
	m, _ = v.Update(exec(t, v.loadTasks()))
	v = m.(TodosView)
	if id, ok := f.tasks.EditingID(); !ok || id != 1 {
		t.Fatalf("EditingID = %d, %v after reload", id, ok)
	}

	m, cmd := v.Update(keyEnter)
	m, cmd = m.Update(exec(t, cmd))
	if n := noticeOf(t, cmd); n.Error {
		t.Fatalf("unexpected error: %s", n.Text)
	}
	if got := f.fake.Todos()[0].Content; got != "typed before the reload" {
		t.Errorf("backend content = %q", got)
	}
}

func TestTodosEditOfVanishedTaskReportsLostDraft(t *testing.T) {
	f := newFixture(t)
	f.fake.SeedTodo("draft", false)
	v := loadedTodos(t, f)

	m, _ := v.Update(keyEnter)
	f.tasks.CancelEdit()
	m, cmd := m.Update(keyEnter)
	v = m.(TodosView)

	if n := noticeOf(t, cmd); !n.Error || !strings.Contains(n.Text, "not saved") {
		t.Errorf("notice = %+v", n)
	}
	if v.mode != TodosModeNormal {
		t.Errorf("mode = %v, want normal", v.mode)
	}
}

func TestTodosToggleAndFilter(t *testing.T) {
	f := newFixture(t)
	f.fake.SeedTodo("one", false)
	f.fake.SeedTodo("two", false)
	v := loadedTodos(t, f)

	m, cmd := v.Update(tea.KeyMsg{Type: tea.KeyTab})
	m, cmd = m.Update(exec(t, cmd))
	v = m.(TodosView)
	if n := noticeOf(t, cmd); n.Text != "Completed: one" {
		t.Errorf("notice = %q", n.Text)
	}
	if !f.fake.Todos()[0].Done {
		t.Error("backend should see the toggle")
	}

	want := []model.FilterMode{model.FilterCompleted, model.FilterProcessing, model.FilterAll}
	for _, mode := range want {
		m, _ = v.Update(keyRunes("f"))
		v = m.(TodosView)
		if v.Filter() != mode {
			t.Fatalf("filter = %v, want %v", v.Filter(), mode)
		}
	}

	v = v.WithFilter(model.FilterCompleted)
	if got := len(v.visible()); got != 1 {
		t.Errorf("completed tasks = %d, want 1", got)
	}
}

func TestTodosDeleteNeedsConfirmation(t *testing.T) {
	f := newFixture(t)
	f.fake.SeedTodo("one", false)
	v := loadedTodos(t, f)

	m, _ := v.Update(keyRunes("d"))
	m, _ = m.Update(keyRunes("n"))
	if len(f.tasks.Tasks()) != 1 {
		t.Fatal("declining should keep the task")
	}

	m, _ = m.Update(keyRunes("d"))
	m, cmd := m.Update(keyRunes("y"))
	m.Update(exec(t, cmd))
	if len(f.tasks.Tasks()) != 0 || len(f.fake.Todos()) != 0 {
		t.Error("confirmed delete should remove the task")
	}
}

func TestUsersAddBlockedWhileOffline(t *testing.T) {
	f := newFixture(t)
	f.fake.Fail(fakeapi.UserPrefix, http.StatusServiceUnavailable)
	v := NewUsersView(f.users).SetSize(120, 30)

	m, _ := v.Update(exec(t, v.ping()))
	m, cmd := m.Update(keyRunes("a"))
	v = m.(UsersView)
	if v.mode != UsersModeNormal {
		t.Error("form should not open while offline")
	}
	if n := noticeOf(t, cmd); !n.Error {
		t.Errorf("notice = %+v", n)
	}
	if !strings.Contains(v.View(), "unreachable") {
		t.Error("view should warn that the service is unreachable")
	}
}

func TestUsersFormSubmit(t *testing.T) {
	f := newFixture(t)
	v := NewUsersView(f.users).SetSize(120, 30)

	m, _ := v.Update(keyRunes("a"))
	m, _ = m.Update(keyRunes("bob"))
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m, _ = m.Update(keyRunes("bob@example.com"))
	m, cmd := m.Update(keyEnter)
	m, cmd = m.Update(exec(t, cmd))
	v = m.(UsersView)

	if n := noticeOf(t, cmd); n.Text != "User added: bob" {
		t.Errorf("notice = %+v", n)
	}
	if v.mode != UsersModeNormal {
		t.Error("form should close on success")
	}
	users := f.users.Users()
	if len(users) != 1 || users[0].Email != "bob@example.com" {
		t.Errorf("users = %+v", users)
	}
}

func TestUsersFormKeepsValuesOnValidationError(t *testing.T) {
	f := newFixture(t)
	v := NewUsersView(f.users).SetSize(120, 30)

	m, _ := v.Update(keyRunes("a"))
	m, _ = m.Update(keyRunes("bob"))
	m, cmd := m.Update(keyEnter)
	m, cmd = m.Update(exec(t, cmd))
	v = m.(UsersView)

	if n := noticeOf(t, cmd); !n.Error {
		t.Errorf("expected a validation notice, got %+v", n)
	}
	if v.mode != UsersModeForm || v.fields[fieldUsername].Value() != "bob" {
		t.Error("form should stay open with its values")
	}
}

func TestStatsViewShowsMissingUsers(t *testing.T) {
	f := newFixture(t)
	f.fake.SeedTodo("one", true)
	f.fake.SeedTodo("two", false)
	f.fake.SeedUser("alice", "alice@example.com")
	f.fake.Fail(fakeapi.UserPrefix, http.StatusInternalServerError)

	v := NewStatsView(f.board, time.Hour).SetSize(100, 30)
	m, _ := v.Update(exec(t, v.refreshNow()))
	v = m.(StatsView)

	out := v.View()
	if !strings.Contains(out, "50.00%") {
		t.Error("expected the completion rate")
	}
	if !strings.Contains(out, "user count is unavailable") {
		t.Error("expected the missing users warning")
	}
	if got := f.board.Health().Status(); got != health.StatusOnline {
		t.Errorf("stats service status = %v, want online", got)
	}
}

func TestStatsPollingStopsWithView(t *testing.T) {
	f := newFixture(t)
	v := NewStatsView(f.board, time.Hour)

	v.Init()
	if !v.Polling() {
		t.Fatal("Init should start polling")
	}
	updates := v.refresher.Updates()
	select {
	case res := <-updates:
		if res.Err != nil {
			t.Fatalf("first fetch: %v", res.Err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("the first fetch should run immediately")
	}
	if _, ok := f.board.Snapshot(); !ok {
		t.Error("expected a snapshot after the first fetch")
	}

	v.Stop()
	if v.Polling() {
		t.Error("Stop should end polling")
	}
	if _, ok := <-updates; ok {
		t.Error("updates channel should be closed after Stop")
	}

	// a late result from the stopped run must not start another wait
	at := time.Date(2024, 3, 13, 9, 30, 0, 0, time.Local)
	m, cmd := v.Update(statsRefreshedMsg{result: poll.Result{At: at}, from: updates})
	if cmd != nil {
		t.Error("stale result should not re-arm the wait")
	}
	if got := m.(StatsView).lastRefresh; !got.Equal(at) {
		t.Errorf("lastRefresh = %v, want %v", got, at)
	}
}

func TestLeavingStatsMidFetchKeepsServiceOnline(t *testing.T) {
	f := newFixture(t)
	f.fake.SeedTodo("one", false)
	f.fake.Delay(fakeapi.StatsPrefix, 300*time.Millisecond)

	var transitions []string
	f.board.Health().OnChange(func(service string, from, to health.Status) {
		transitions = append(transitions, from.String()+"->"+to.String())
	})

	v := NewStatsView(f.board, time.Hour)
	v.Init()
	time.Sleep(50 * time.Millisecond)
	v.Stop()
	v.refresher.Wait()

	if got := f.board.Health().Status(); got != health.StatusOnline {
		t.Errorf("status = %v, want online (transitions %v)", got, transitions)
	}
	if _, ok := f.board.Snapshot(); !ok {
		t.Error("the response that was in flight should still be recorded")
	}
}

func TestCompletionWidth(t *testing.T) {
	tests := []struct {
		rate  float64
		width int
		want  int
	}{
		{0, 40, 0},
		{50, 40, 20},
		{100, 40, 40},
		{0.5, 40, 1},
		{150, 40, 40},
		{-3, 40, 0},
	}
	for _, tt := range tests {
		if got := completionWidth(tt.rate, tt.width); got != tt.want {
			t.Errorf("completionWidth(%v, %d) = %d, want %d", tt.rate, tt.width, got, tt.want)
		}
	}
}

func TestScrollWindow(t *testing.T) {
	tests := []struct {
		cursor, offset, n, height int
		start, end                int
	}{
		{0, 0, 5, 10, 0, 5},
		{12, 0, 20, 10, 3, 13},
		{2, 5, 20, 10, 2, 12},
		{19, 0, 20, 10, 10, 20},
		{0, 0, 0, 10, 0, 0},
	}
	for _, tt := range tests {
		start, end := scrollWindow(tt.cursor, tt.offset, tt.n, tt.height)
		if start != tt.start || end != tt.end {
			t.Errorf("scrollWindow(%d, %d, %d, %d) = %d, %d; want %d, %d",
				tt.cursor, tt.offset, tt.n, tt.height, start, end, tt.start, tt.end)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("got %q", got)
	}
	if got := truncate("a longer sentence", 8); got != "a longe…" {
		t.Errorf("got %q", got)
	}
}
