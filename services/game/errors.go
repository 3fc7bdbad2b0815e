package game

import (
	"errors"
	"fmt"
)

// ErrorKind classifies every failure a public engine operation can return.
// Controllers map kinds to HTTP statuses; the detail string is safe to show
// to players.
type ErrorKind int

const (
	KindNotFound ErrorKind = iota
	KindPreconditionFailed
	KindInvalidArgument
	KindConflict
	KindInvalidSession
	KindExhaustedRetries
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindPreconditionFailed:
		return "precondition_failed"
	case KindInvalidArgument:
		return "invalid_argument"
	case KindConflict:
		return "conflict"
	case KindInvalidSession:
		return "invalid_session"
	case KindExhaustedRetries:
		return "exhausted_retries"
	default:
		return "unknown"
	}
}

// Error is the single error type crossing the engine boundary.
type Error struct {
	Kind   ErrorKind
	Detail string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func newError(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// KindOf extracts the engine error kind from err. The second return is
// false for errors that did not originate in the engine.
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}
