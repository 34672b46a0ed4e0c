// Package logging builds the debug logger. Stdout belongs to the TUI,
// so logs only go to a file, and only when asked for.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
)

// Open returns a logger writing to path, or a discarding logger when path
// is empty. The returned closer must be called on exit.
func Open(path string) (*log.Logger, io.Closer, error) {
	if path == "" {
		return Discard(), io.NopCloser(nil), nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open debug log: %w", err)
	}

	return New(f, log.DebugLevel), f, nil
}

// New returns a timestamped logger at level
func New(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		Level:           level,
		ReportTimestamp: true,
		Prefix:          "taskdeck",
	})
}

// Discard returns a logger that drops everything
func Discard() *log.Logger {
	return New(io.Discard, log.FatalLevel)
}
