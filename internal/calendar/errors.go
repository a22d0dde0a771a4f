package calendar

import (
	"errors"
	"fmt"
)

// Kind classifies a failed calendar operation. Every error crossing the
// operation layer carries exactly one kind so the caller can decide on a
// retry without string matching.
type Kind string

const (
	// TransportFailure is a network or HTTP level failure not attributable
	// to a specific object.
	TransportFailure Kind = "transport_failure"
	// ProtocolFault is a malformed request or a server-side rejection at
	// the batch level.
	ProtocolFault Kind = "protocol_fault"
	// ObjectRejected means a specific create/update/delete failed
	// validation or targeted a missing object, scoped to that identity.
	ObjectRejected Kind = "object_rejected"
	// ParseFailure is a malformed wire object. Swallowed per-object on
	// bulk reads, fatal for the single object being written.
	ParseFailure Kind = "parse_failure"
	// ValidationError is caller-supplied input that violates an invariant,
	// e.g. end <= start.
	ValidationError Kind = "validation_error"
	// ConcurrencyConflict means a conditional write was rejected because
	// the remote object changed underneath us.
	ConcurrencyConflict Kind = "concurrency_conflict"
)

// Error is the uniform failure shape for all calendar operations.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, e.Message)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Errorf builds an Error with a formatted message.
func Errorf(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Message: fmt.Sprintf(format, args...)}
}

// WrapError builds an Error around an underlying cause.
func WrapError(kind Kind, op, message string, err error) *Error {
	return &Error{Kind: kind, Op: op, Message: message, Err: err}
}

// KindOf extracts the kind from an error chain. Errors produced outside
// this package report TransportFailure, the only kind that can originate
// below the protocol layer.
func KindOf(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return TransportFailure
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
