// Package poll re-fetches a resource on a fixed interval.
package poll

import (
	"context"
	"sync"
	"time"
)

// FetchFunc loads the resource once
type FetchFunc func(ctx context.Context) error

// Result is published after every fetch
type Result struct {
	At  time.Time
	Err error
}

// Refresher calls a FetchFunc immediately on Start and then once per
// interval until Stop. Fetches within one run never overlap. A fetch in
// flight when Stop is called runs to completion with its own context;
// only its Result is discarded.
type Refresher struct {
	interval time.Duration
	fetch    FetchFunc

	mu      sync.Mutex
	updates chan Result
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

// New creates a stopped refresher
func New(interval time.Duration, fetch FetchFunc) *Refresher {
	updates := make(chan Result)
	close(updates)
	return &Refresher{
		interval: interval,
		fetch:    fetch,
		updates:  updates,
	}
}

// Interval returns the refresh period
func (r *Refresher) Interval() time.Duration {
	return r.interval
}

// Updates returns the channel of the current run. It delivers one Result
// per fetch and is closed when the run stops; a stopped refresher returns
// a closed channel. If nobody is reading, older results are dropped in
// favour of the newest.
func (r *Refresher) Updates() <-chan Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.updates
}

// Running reports whether Start has been called without a matching Stop
func (r *Refresher) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// Start begins polling. Calling Start on a running refresher is a no-op.
func (r *Refresher) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})
	r.updates = make(chan Result, 1)
	r.running = true

	go r.loop(ctx, r.updates, r.done)
}

// Stop ends the run without waiting for it. No fetch starts after Stop
// returns. The run's channel is closed once an in-flight fetch, if any,
// has finished.
func (r *Refresher) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	cancel := r.cancel
	r.running = false
	r.mu.Unlock()

	cancel()
}

// Wait blocks until the most recent run has exited
func (r *Refresher) Wait() {
	r.mu.Lock()
	done := r.done
	r.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (r *Refresher) loop(ctx context.Context, updates chan Result, done chan struct{}) {
	defer close(done)
	defer close(updates)

	// fetches outlive Stop so a response that is already on its way is
	// still recorded
	fetchCtx := context.WithoutCancel(ctx)

	r.run(ctx, fetchCtx, updates)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.run(ctx, fetchCtx, updates)
		}
	}
}

func (r *Refresher) run(ctx, fetchCtx context.Context, updates chan Result) {
	if ctx.Err() != nil {
		return
	}
	err := r.fetch(fetchCtx)
	if ctx.Err() != nil {
		return
	}
	publish(updates, Result{At: time.Now(), Err: err})
}

// publish is only called from the loop goroutine, the channel's sole
// sender
func publish(updates chan Result, res Result) {
	for {
		select {
		case updates <- res:
			return
		default:
		}
		// drop the stale result
		select {
		case <-updates:
		default:
		}
	}
}
