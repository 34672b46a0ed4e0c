package syncer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dori/taskdeck/internal/remote"
)

// ErrNotFound is returned when an operation targets an id that is not
// in the canonical list
var ErrNotFound = errors.New("record not in list")

// ValidationError means required input was missing. No call was made.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// DuplicateError is a conflict on a known unique field
type DuplicateError struct {
	Fields string // e.g. "username or email"
	Err    error
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate %s: %v", e.Fields, e.Err)
}

func (e *DuplicateError) Unwrap() error {
	return e.Err
}

// Describe turns an operation error into the status line shown to the
// user. It returns "" for nil.
func Describe(err error) string {
	if err == nil {
		return ""
	}

	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Message
	}

	var derr *DuplicateError
	if errors.As(err, &derr) {
		return capitalize(derr.Fields) + " already exists"
	}

	if errors.Is(err, ErrNotFound) {
		return "That record is no longer in the list; refresh with r"
	}

	var rerr *remote.Error
	if errors.As(err, &rerr) {
		switch rerr.Kind {
		case remote.KindConflict:
			return capitalize(rerr.Service) + " rejected a duplicate entry"
		case remote.KindTimeout:
			return capitalize(rerr.Service) + " did not respond (timeout)"
		case remote.KindCanceled:
			return "Request to " + rerr.Service + " was cancelled"
		default:
			return "Cannot reach " + rerr.Service + "; it may be down"
		}
	}

	return "Error: " + err.Error()
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
