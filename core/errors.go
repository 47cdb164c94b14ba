package core

import "github.com/pkg/errors"

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err *ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// ConflictError signals a uniqueness violation (duplicate course code,
// duplicate submission for the same assignment & student, ...).
type ConflictError struct {
	msg string
}

func NewConflictError(msg string) error {
	return &ConflictError{msg}
}

func (err *ConflictError) Error() string { return err.msg }

// PreconditionError signals an operation attempted in a state that forbids it
// (editing a graded submission, submitting after close, ...).
type PreconditionError struct {
	msg string
}

func NewPreconditionError(msg string) error {
	return &PreconditionError{msg}
}

func (err *PreconditionError) Error() string { return err.msg }

func IsValidationError(err error) bool {
	_, ok := errors.Cause(err).(*ValidationError)
	return ok
}

func IsConflict(err error) bool {
	_, ok := errors.Cause(err).(*ConflictError)
	return ok
}

func IsPreconditionFailed(err error) bool {
	_, ok := errors.Cause(err).(*PreconditionError)
	return ok
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s *shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
