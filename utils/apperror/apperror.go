// Package apperror holds the typed failures the assessment engine returns so
// callers can branch on the kind instead of parsing messages.
package apperror

import (
	"errors"
	"fmt"
)

type Kind string

const (
	NotFound             Kind = "NOT_FOUND"
	NotEnrolled          Kind = "NOT_ENROLLED"
	AttemptLimitExceeded Kind = "ATTEMPT_LIMIT_EXCEEDED"
	AttemptClosed        Kind = "ATTEMPT_CLOSED"
	AlreadyEnrolled      Kind = "ALREADY_ENROLLED"
	ValidationFailed     Kind = "VALIDATION_FAILED"
	Conflict             Kind = "CONFLICT"
)

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is match on kind alone: errors.Is(err, &Error{Kind: NotFound}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

func IsKind(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

func NotFoundf(format string, args ...any) *Error { return New(NotFound, format, args...) }

func Validationf(format string, args ...any) *Error { return New(ValidationFailed, format, args...) }
