package relay

import (
	"errors"
	"fmt"
)

// Kind classifies an Error for the HTTP layer's error envelope (§7).
type Kind int

const (
	// KindInternal covers unexpected failures: engine adapter faults,
	// store faults, anything the caller could not have prevented.
	KindInternal Kind = iota
	// KindUserInput covers malformed or semantically invalid requests.
	KindUserInput
	// KindNotFound covers lookups against an id or path the registry
	// doesn't hold.
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindUserInput:
		return "user_input"
	case KindNotFound:
		return "not_found"
	default:
		return "internal"
	}
}

// Error is the relay package's error type. It carries a Kind so callers
// at the transport boundary can map it to the right status code without
// string-sniffing.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error of the same Kind, so
// errors.Is(err, relay.NotFound("", "", nil)) matches any NotFound error.
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return e.Kind == other.Kind
	}
	return false
}

func newError(kind Kind, op, message string, err error) *Error {
	return &Error{Kind: kind, Op: op, Message: message, Err: err}
}

// NotFound builds a KindNotFound error.
func NotFound(op, message string, err error) *Error { return newError(KindNotFound, op, message, err) }

// UserInput builds a KindUserInput error.
func UserInput(op, message string, err error) *Error { return newError(KindUserInput, op, message, err) }

// Internal builds a KindInternal error.
func Internal(op, message string, err error) *Error { return newError(KindInternal, op, message, err) }

// KindOf extracts the Kind from err, defaulting to KindInternal for
// errors the relay package did not originate.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
