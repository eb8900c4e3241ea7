package payment

import (
	"errors"
	"fmt"

	"cashdesk-backend/internal/store"
)

type ErrorKind string

const (
	KindInvalidReference    ErrorKind = "InvalidReference"
	KindInvalidEnum         ErrorKind = "InvalidEnum"
	KindInvalidDate         ErrorKind = "InvalidDate"
	KindInvalidArgument     ErrorKind = "InvalidArgument"
	KindNotFound            ErrorKind = "NotFound"
	KindAlreadyConfirmed    ErrorKind = "AlreadyConfirmed"
	KindDuplicateItem       ErrorKind = "DuplicateItem"
	KindHasDependents       ErrorKind = "HasDependents"
	KindIDMismatch          ErrorKind = "IdMismatch"
	KindConcurrencyConflict ErrorKind = "ConcurrencyConflict"
	KindInsufficientRights  ErrorKind = "InsufficientRights"
	KindPersistenceFailure  ErrorKind = "PersistenceFailure"
)

// Error is returned by every Service operation. Field names the request
// field the error is attributed to, if any.
type Error struct {
	Kind    ErrorKind
	Field   string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so errors.Is(err, &Error{Kind: k})
// works as a kind check.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Field == "" || t.Field == e.Field)
}

// KindOf returns the kind of err, or "" if err is not a payment error.
func KindOf(err error) ErrorKind {
	var perr *Error
	if errors.As(err, &perr) {
		return perr.Kind
	}
	return ""
}

func newError(kind ErrorKind, field, msg string) *Error {
	return &Error{Kind: kind, Field: field, Message: msg}
}

// persistenceError wraps a store error. Constraint violations are
// attributed to the violated constraint.
func persistenceError(msg string, err error) *Error {
	e := &Error{Kind: KindPersistenceFailure, Message: msg, Err: err}
	if store.IsConstraintViolation(err) {
		e.Field = store.ConstraintName(err)
		if e.Field == "" {
			e.Field = "constraint"
		}
	}
	return e
}
