package remote

import (
	"errors"
	"fmt"
)

// Kind classifies a failed call
type Kind int

const (
	// KindTimeout means no response arrived within the call's bound
	KindTimeout Kind = iota + 1
	// KindConflict means the backend rejected a duplicate (HTTP 409)
	KindConflict
	// KindUnreachable covers transport failures and any other non-2xx
	KindUnreachable
	// KindCanceled means the caller gave up; nothing is known about the
	// service
	KindCanceled
)

func (k Kind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindConflict:
		return "conflict"
	case KindUnreachable:
		return "unreachable"
	case KindCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Error is returned by every Client call that fails
type Error struct {
	Service string // e.g. "user service"
	Op      Op
	Kind    Kind
	Status  int // HTTP status, 0 if no response
	Err     error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s %s: %s (HTTP %d)", e.Service, e.Op, e.Kind, e.Status)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %s: %v", e.Service, e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s %s: %s", e.Service, e.Op, e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf extracts the classification from err, if it came from a Client
func KindOf(err error) (Kind, bool) {
	var re *Error
	if errors.As(err, &re) {
		return re.Kind, true
	}
	return 0, false
}

// IsConnectivity reports whether err means the service could not be
// reached in time (timeout or unreachable)
func IsConnectivity(err error) bool {
	k, ok := KindOf(err)
	return ok && (k == KindTimeout || k == KindUnreachable)
}
