// Package fault classifies failures so handlers can choose a recovery path
// instead of inferring one from error text.
package fault

import (
	"errors"
	"fmt"
)

// Kind enumerates the failure classes the bot distinguishes.
type Kind int

const (
	// ParseMismatch means expected content was absent from a message.
	// Handlers fall back to a safe default interaction or skip.
	ParseMismatch Kind = 1 + iota
	// ExternalCall means a call to an outside service failed.
	// The triggering action is dropped, never retried automatically.
	ExternalCall
	// StateConflict means an activity guard refused reentry.
	StateConflict
)

func (k Kind) String() string {
	switch k {
	case ParseMismatch:
		return "parse mismatch"
	case ExternalCall:
		return "external call"
	case StateConflict:
		return "state conflict"
	default:
		return fmt.Sprintf("fault.Kind(%d)", int(k))
	}
}

// Error is an error tagged with a failure class.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return e.Kind.String() + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a classified error from a message.
func New(k Kind, msg string) error {
	return &Error{Kind: k, Err: errors.New(msg)}
}

// Wrap classifies an existing error. Wrapping nil yields nil.
func Wrap(k Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: k, Err: err}
}

// Wrapf classifies a formatted error in the manner of [fmt.Errorf].
func Wrapf(k Kind, format string, args ...any) error {
	return &Error{Kind: k, Err: fmt.Errorf(format, args...)}
}

// Is reports whether any error in err's tree carries kind k.
func Is(err error, k Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == k
}
