package notify

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/dori/taskdeck/internal/health"
)

func TestArgs(t *testing.T) {
	got := Args(Notification{
		Title:   "Title",
		Body:    "Body",
		Urgency: UrgencyCritical,
		Timeout: 2 * time.Second,
		Icon:    "icon",
	})
	want := []string{"-u", "critical", "-t", "2000", "-i", "icon", "-a", "taskdeck", "Title", "Body"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Args = %v, want %v", got, want)
	}

	got = Args(Notification{Title: "Only"})
	want = []string{"-u", "normal", "-a", "taskdeck", "Only"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Args = %v, want %v", got, want)
	}
}

type recorder struct {
	calls [][]string
	err   error
}

func (r *recorder) run(name string, args ...string) error {
	r.calls = append(r.calls, append([]string{name}, args...))
	return r.err
}

func TestDisabledSendsNothing(t *testing.T) {
	rec := &recorder{}
	n := NewNotifier()
	n.SetRunner(rec.run)
	n.SetEnabled(false)

	if err := n.SendServiceDown("Todo service"); err != nil {
		t.Fatal(err)
	}
	if len(rec.calls) != 0 {
		t.Errorf("calls = %d, want 0", len(rec.calls))
	}
}

func TestWatchTransitions(t *testing.T) {
	rec := &recorder{}
	n := NewNotifier()
	n.SetRunner(rec.run)
	watch := n.Watch(nil)

	watch("todo service", health.StatusChecking, health.StatusOnline)
	if len(rec.calls) != 0 {
		t.Fatalf("startup online should be silent, got %v", rec.calls)
	}

	watch("todo service", health.StatusOnline, health.StatusOffline)
	watch("todo service", health.StatusOffline, health.StatusOnline)
	if len(rec.calls) != 2 {
		t.Fatalf("calls = %d, want 2", len(rec.calls))
	}
	if !strings.Contains(strings.Join(rec.calls[0], " "), "todo service is offline") {
		t.Errorf("first call = %v", rec.calls[0])
	}
	if !strings.Contains(strings.Join(rec.calls[1], " "), "back online") {
		t.Errorf("second call = %v", rec.calls[1])
	}
}

func TestWatchReportsErrors(t *testing.T) {
	rec := &recorder{err: errors.New("no notify-send")}
	n := NewNotifier()
	n.SetRunner(rec.run)

	var got error
	n.Watch(func(err error) { got = err })("stats service", health.StatusChecking, health.StatusOffline)
	if got == nil {
		t.Error("expected error to be reported")
	}
}

func TestWatchIgnoresRetries(t *testing.T) {
	rec := &recorder{}
	n := NewNotifier()
	n.SetRunner(rec.run)
	watch := n.Watch(nil)

	watch("user service", health.StatusChecking, health.StatusOffline)
	watch("user service", health.StatusOffline, health.StatusChecking)
	watch("user service", health.StatusChecking, health.StatusOffline)
	watch("stats service", health.StatusChecking, health.StatusOffline)

	if len(rec.calls) != 2 {
		t.Errorf("calls = %d, want 2 (one per service)", len(rec.calls))
	}
}
