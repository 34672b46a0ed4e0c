// Package health tracks per-service connectivity derived from the
// outcome of recent calls.
package health

import (
	"sync"

	"github.com/dori/taskdeck/internal/remote"
)

// Status is the tri-state connectivity of a service
type Status int

const (
	StatusChecking Status = iota
	StatusOnline
	StatusOffline
)

func (s Status) String() string {
	switch s {
	case StatusChecking:
		return "checking"
	case StatusOnline:
		return "online"
	case StatusOffline:
		return "offline"
	default:
		return "unknown"
	}
}

// ChangeFunc is called after a status transition
type ChangeFunc func(service string, from, to Status)

// Tracker holds the status of one service. It starts as checking.
type Tracker struct {
	service string

	mu       sync.Mutex
	status   Status
	onChange []ChangeFunc
}

// NewTracker creates a tracker for the named service
func NewTracker(service string) *Tracker {
	return &Tracker{service: service}
}

// Service returns the tracked service's name
func (t *Tracker) Service() string {
	return t.service
}

// Status returns the current status
func (t *Tracker) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// OnChange registers fn to run on every transition
func (t *Tracker) OnChange(fn ChangeFunc) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onChange = append(t.onChange, fn)
}

// Observe records a call outcome: nil means online, a timeout or an
// unreachable error means offline. Anything else (a conflict, a
// validation error) says nothing about connectivity and is ignored.
func (t *Tracker) Observe(err error) Status {
	switch {
	case err == nil:
		return t.set(StatusOnline)
	case remote.IsConnectivity(err):
		return t.set(StatusOffline)
	default:
		return t.Status()
	}
}

// Reset returns the tracker to checking, e.g. before a manual retry
func (t *Tracker) Reset() {
	t.set(StatusChecking)
}

func (t *Tracker) set(s Status) Status {
	t.mu.Lock()
	from := t.status
	t.status = s
	var callbacks []ChangeFunc
	if from != s {
		callbacks = append(callbacks, t.onChange...)
	}
	t.mu.Unlock()

	for _, fn := range callbacks {
		fn(t.service, from, s)
	}
	return s
}
