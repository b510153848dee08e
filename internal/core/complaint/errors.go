package complaint

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a workflow failure so callers can map it to a
// user-facing message without parsing text.
type ErrorKind string

const (
	KindNotFound          ErrorKind = "NOT_FOUND"
	KindInvalidTransition ErrorKind = "INVALID_TRANSITION"
	KindDuplicateStage    ErrorKind = "DUPLICATE_STAGE"
	KindParentMismatch    ErrorKind = "PARENT_MISMATCH"
	KindParentNotFound    ErrorKind = "PARENT_NOT_FOUND"
	KindForbidden         ErrorKind = "FORBIDDEN"
)

// Error is the typed failure returned by guards and transitions.
type Error struct {
	Kind    ErrorKind
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// Is reports whether target is an *Error of the same kind, so
// errors.Is(err, complaint.ErrDuplicateStage) matches any duplicate-stage failure.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is matching. Their messages are generic; concrete
// errors carry the diagnostic text.
var (
	ErrNotFound          = &Error{Kind: KindNotFound, Message: "not found"}
	ErrInvalidTransition = &Error{Kind: KindInvalidTransition, Message: "invalid transition"}
	ErrDuplicateStage    = &Error{Kind: KindDuplicateStage, Message: "stage already exists"}
	ErrParentMismatch    = &Error{Kind: KindParentMismatch, Message: "parent mismatch"}
	ErrParentNotFound    = &Error{Kind: KindParentNotFound, Message: "parent not found"}
	ErrForbidden         = &Error{Kind: KindForbidden, Message: "forbidden"}
)

// Errorf builds a typed error with a formatted message.
func Errorf(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of a typed error anywhere in err's chain,
// or the empty kind for infrastructure errors.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
