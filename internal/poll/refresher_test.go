package poll

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestRefresherFetchesImmediately(t *testing.T) {
	var calls atomic.Int32
	r := New(time.Hour, func(ctx context.Context) error {
		calls.Add(1)
		return nil
	})
	r.Start(context.Background())
	defer r.Stop()

	select {
	case res := <-r.Updates():
		if res.Err != nil {
			t.Errorf("unexpected error: %v", res.Err)
		}
	case <-time.After(time.Second):
		t.Fatal("no immediate fetch")
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("calls = %d, want 1", got)
	}
}

func TestRefresherRepeatsOnInterval(t *testing.T) {
	var calls atomic.Int32
	r := New(20*time.Millisecond, func(ctx context.Context) error {
		calls.Add(1)
		return nil
	})
	r.Start(context.Background())
	defer r.Stop()

	deadline := time.After(2 * time.Second)
	for calls.Load() < 3 {
		select {
		case <-r.Updates():
		case <-deadline:
			t.Fatalf("only %d fetches", calls.Load())
		}
	}
}

func TestRefresherStopsFetching(t *testing.T) {
	var calls atomic.Int32
	r := New(10*time.Millisecond, func(ctx context.Context) error {
		calls.Add(1)
		return nil
	})
	r.Start(context.Background())
	<-r.Updates()
	r.Stop()
	r.Wait()

	if r.Running() {
		t.Error("still running after Stop")
	}
	after := calls.Load()
	time.Sleep(50 * time.Millisecond)
	if got := calls.Load(); got != after {
		t.Errorf("fetched %d times after Stop", got-after)
	}
}

func TestRefresherPublishesErrors(t *testing.T) {
	boom := errors.New("boom")
	r := New(time.Hour, func(ctx context.Context) error {
		return boom
	})
	r.Start(context.Background())
	defer r.Stop()

	res := <-r.Updates()
	if !errors.Is(res.Err, boom) {
		t.Errorf("err = %v, want boom", res.Err)
	}
}

func TestRefresherStartTwice(t *testing.T) {
	var calls atomic.Int32
	r := New(time.Hour, func(ctx context.Context) error {
		calls.Add(1)
		return nil
	})
	r.Start(context.Background())
	r.Start(context.Background())
	<-r.Updates()
	r.Stop()
	r.Stop()

	if got := calls.Load(); got != 1 {
		t.Errorf("calls = %d, want 1", got)
	}
}

func TestRefresherRestart(t *testing.T) {
	r := New(time.Hour, func(ctx context.Context) error { return nil })
	r.Start(context.Background())
	<-r.Updates()
	r.Stop()

	r.Start(context.Background())
	defer r.Stop()
	select {
	case <-r.Updates():
	case <-time.After(time.Second):
		t.Fatal("no fetch after restart")
	}
}

func TestRefresherClosesUpdatesOnStop(t *testing.T) {
	r := New(time.Hour, func(ctx context.Context) error { return nil })
	if _, ok := <-r.Updates(); ok {
		t.Fatal("stopped refresher should have a closed channel")
	}

	r.Start(context.Background())
	ch := r.Updates()
	<-ch
	r.Stop()

	select {
	case _, ok := <-ch:
		if ok {
			t.Error("unexpected result after Stop")
		}
	case <-time.After(time.Second):
		t.Fatal("channel not closed after Stop")
	}
}

func TestRefresherStopLetsInFlightFetchFinish(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	fetchErr := make(chan error, 1)
	r := New(time.Hour, func(ctx context.Context) error {
		close(started)
		<-release
		fetchErr <- ctx.Err()
		return nil
	})
	r.Start(context.Background())
	ch := r.Updates()
	<-started

	r.Stop()
	if r.Running() {
		t.Error("still running after Stop")
	}
	close(release)
	r.Wait()

	if err := <-fetchErr; err != nil {
		t.Errorf("in-flight fetch saw %v, want an uncancelled context", err)
	}
	if res, ok := <-ch; ok {
		t.Errorf("result of a stopped run was published: %+v", res)
	}
}
