package notify

import (
	"fmt"
	"os/exec"
	"strconv"
	"sync"
	"time"

	"github.com/dori/taskdeck/internal/health"
)

// Urgency levels for notifications
type Urgency int

const (
	UrgencyLow Urgency = iota
	UrgencyNormal
	UrgencyCritical
)

// Notification represents a desktop notification
type Notification struct {
	Title   string
	Body    string
	Urgency Urgency
	Timeout time.Duration
	Icon    string // Optional icon name
}

// Runner executes the notification command. Tests replace it.
type Runner func(name string, args ...string) error

func execRunner(name string, args ...string) error {
	return exec.Command(name, args...).Run()
}

// Notifier handles sending desktop notifications
type Notifier struct {
	mu      sync.Mutex
	enabled bool
	run     Runner
}

// NewNotifier creates a new notifier
func NewNotifier() *Notifier {
	return &Notifier{
		enabled: true,
		run:     execRunner,
	}
}

// SetRunner replaces the command runner
func (n *Notifier) SetRunner(r Runner) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.run = r
}

// SetEnabled enables or disables notifications
func (n *Notifier) SetEnabled(enabled bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.enabled = enabled
}

// IsEnabled returns whether notifications are enabled
func (n *Notifier) IsEnabled() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.enabled
}

// Args builds the notify-send command line
func Args(notification Notification) []string {
	args := []string{}

	switch notification.Urgency {
	case UrgencyLow:
		args = append(args, "-u", "low")
	case UrgencyCritical:
		args = append(args, "-u", "critical")
	default:
		args = append(args, "-u", "normal")
	}

	// milliseconds
	if notification.Timeout > 0 {
		args = append(args, "-t", strconv.Itoa(int(notification.Timeout.Milliseconds())))
	}

	if notification.Icon != "" {
		args = append(args, "-i", notification.Icon)
	}

	args = append(args, "-a", "taskdeck")

	args = append(args, notification.Title)
	if notification.Body != "" {
		args = append(args, notification.Body)
	}
	return args
}

// Send sends a desktop notification using notify-send
func (n *Notifier) Send(notification Notification) error {
	n.mu.Lock()
	enabled, run := n.enabled, n.run
	n.mu.Unlock()
	if !enabled {
		return nil
	}
	return run("notify-send", Args(notification)...)
}

// SendServiceDown announces that a backend stopped answering
func (n *Notifier) SendServiceDown(service string) error {
	return n.Send(Notification{
		Title:   fmt.Sprintf("%s is offline", service),
		Body:    "Changes cannot be saved until it is reachable again",
		Urgency: UrgencyCritical,
		Timeout: 10 * time.Second,
		Icon:    "network-offline-symbolic",
	})
}

// SendServiceUp announces that a backend is answering again
func (n *Notifier) SendServiceUp(service string) error {
	return n.Send(Notification{
		Title:   fmt.Sprintf("%s is back online", service),
		Urgency: UrgencyLow,
		Timeout: 5 * time.Second,
		Icon:    "network-transmit-receive-symbolic",
	})
}

// Watch returns a health.ChangeFunc that notifies when a service goes
// offline and when it comes back. Passing through checking (a manual
// retry) does not repeat the announcement.
func (n *Notifier) Watch(onErr func(error)) health.ChangeFunc {
	var mu sync.Mutex
	announced := map[string]health.Status{}

	return func(service string, from, to health.Status) {
		if to == health.StatusChecking {
			return
		}

		mu.Lock()
		last := announced[service]
		announced[service] = to
		mu.Unlock()

		var err error
		switch {
		case to == health.StatusOffline && last != health.StatusOffline:
			err = n.SendServiceDown(service)
		case to == health.StatusOnline && last == health.StatusOffline:
			err = n.SendServiceUp(service)
		}
		if err != nil && onErr != nil {
			onErr(err)
		}
	}
}
