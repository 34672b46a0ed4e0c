package remote

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/dori/taskdeck/internal/fakeapi"
	"github.com/dori/taskdeck/internal/model"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func newFake(t *testing.T) (*fakeapi.Server, *httptest.Server) {
	t.Helper()
	fake := fakeapi.New()
	srv := httptest.NewServer(fake.Handler())
	t.Cleanup(srv.Close)
	return fake, srv
}

func TestAPIBase(t *testing.T) {
	tests := map[string]string{
		"http://localhost:8081/users":  "http://localhost:8081/users/api",
		"http://localhost:8081/users/": "http://localhost:8081/users/api",
		"http://host":                  "http://host/api",
	}
	for in, want := range tests {
		if got := APIBase(in); got != want {
			t.Errorf("APIBase(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTodoRoundTrip(t *testing.T) {
	_, srv := newFake(t)
	api := NewTodoAPI(New("todo service", srv.URL+fakeapi.TodoPrefix))
	ctx := context.Background()

	created, err := api.Create(ctx, model.TaskDraft{Content: "write tests", DueDate: "2024-01-01"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID == 0 {
		t.Fatal("created task has no server id")
	}

	created.Done = true
	updated, err := api.Update(ctx, created)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !updated.Done || updated.Content != "write tests" {
		t.Errorf("unexpected update result: %+v", updated)
	}

	tasks, err := api.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(tasks) != 1 || tasks[0].ID != created.ID || !tasks[0].Done {
		t.Fatalf("unexpected list: %+v", tasks)
	}

	if err := api.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	tasks, _ = api.List(ctx)
	if len(tasks) != 0 {
		t.Errorf("expected empty list after delete, got %d", len(tasks))
	}
}

func TestUpdateWithEmptyBodyReturnsSentRecord(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &got)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	api := NewTodoAPI(New("todo service", srv.URL))
	uid := int64(2)
	task := model.Task{ID: 5, Content: "c", Done: true, DueDate: "2024-05-05", AssignedToUserID: &uid, AssignedToName: "bo"}

	updated, err := api.Update(context.Background(), task)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.ID != 5 || !updated.Done || updated.AssignedToName != "bo" {
		t.Errorf("unexpected result: %+v", updated)
	}
	for _, field := range []string{"id", "content", "done", "dueDate", "assignedToUserId", "assignedToName"} {
		if _, ok := got[field]; !ok {
			t.Errorf("PATCH body missing %q: %v", field, got)
		}
	}
}

func TestConflictClassification(t *testing.T) {
	fake, srv := newFake(t)
	fake.SeedUser("ann", "ann@example.com")
	api := NewUserAPI(New("user service", srv.URL+fakeapi.UserPrefix))

	_, err := api.Create(context.Background(), model.UserDraft{Username: "ann", Email: "x@example.com"})
	kind, ok := KindOf(err)
	if !ok || kind != KindConflict {
		t.Fatalf("KindOf(%v) = %v, %v; want conflict", err, kind, ok)
	}
	if IsConnectivity(err) {
		t.Error("a conflict is not a connectivity failure")
	}
}

func TestServerErrorIsUnreachable(t *testing.T) {
	fake, srv := newFake(t)
	fake.Fail(fakeapi.StatsPrefix, http.StatusServiceUnavailable)
	api := NewStatsAPI(New("stats service", srv.URL+fakeapi.StatsPrefix))

	_, err := api.Get(context.Background())
	var rerr *Error
	if !errors.As(err, &rerr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if rerr.Kind != KindUnreachable || rerr.Status != http.StatusServiceUnavailable {
		t.Errorf("unexpected error: %+v", rerr)
	}
}

func TestConnectionRefusedIsUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	api := NewTodoAPI(New("todo service", url))
	_, err := api.List(context.Background())
	if k, _ := KindOf(err); k != KindUnreachable {
		t.Errorf("kind = %v, want unreachable (err=%v)", k, err)
	}
}

func TestTimeoutClassification(t *testing.T) {
	fake, srv := newFake(t)
	fake.Delay(fakeapi.TodoPrefix, 500*time.Millisecond)
	api := NewTodoAPI(New("todo service", srv.URL+fakeapi.TodoPrefix,
		WithTimeouts(50*time.Millisecond, 0)))

	_, err := api.List(context.Background())
	if k, _ := KindOf(err); k != KindTimeout {
		t.Errorf("kind = %v, want timeout (err=%v)", k, err)
	}
}

func TestCanceledCallIsNotConnectivity(t *testing.T) {
	fake, srv := newFake(t)
	fake.Delay(fakeapi.StatsPrefix, 500*time.Millisecond)
	api := NewStatsAPI(New("stats service", srv.URL+fakeapi.StatsPrefix))

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	_, err := api.Get(ctx)
	if k, _ := KindOf(err); k != KindCanceled {
		t.Errorf("kind = %v, want canceled (err=%v)", k, err)
	}
	if IsConnectivity(err) {
		t.Error("a canceled call says nothing about connectivity")
	}
}

func TestPingUsesHealthTimeout(t *testing.T) {
	fake, srv := newFake(t)
	fake.Delay(fakeapi.UserPrefix, 200*time.Millisecond)
	api := NewUserAPI(New("user service", srv.URL+fakeapi.UserPrefix,
		WithTimeouts(time.Second, 20*time.Millisecond)))

	err := api.Ping(context.Background())
	if k, _ := KindOf(err); k != KindTimeout {
		t.Fatalf("Ping kind = %v, want timeout", k)
	}

	// the regular bound is long enough for the same delay
	if _, err := api.List(context.Background()); err != nil {
		t.Errorf("List: %v", err)
	}
}

func TestRequestIDHeader(t *testing.T) {
	var id string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id = r.Header.Get("X-Request-ID")
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	if _, err := NewUserAPI(New("user service", srv.URL)).List(context.Background()); err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(id) != 36 {
		t.Errorf("X-Request-ID = %q, want a uuid", id)
	}
}

func TestMetricsRecordOutcome(t *testing.T) {
	fake, srv := newFake(t)
	fake.SeedUser("ann", "ann@example.com")
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	api := NewUserAPI(New("user service", srv.URL+fakeapi.UserPrefix, WithMetrics(m)))

	api.List(context.Background())
	api.Create(context.Background(), model.UserDraft{Username: "ann", Email: "ann@example.com"})

	if got := testutil.ToFloat64(m.requests.WithLabelValues("user service", "list", "ok")); got != 1 {
		t.Errorf("list ok = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.requests.WithLabelValues("user service", "create", "conflict")); got != 1 {
		t.Errorf("create conflict = %v, want 1", got)
	}
}
