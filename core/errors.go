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

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// NotFoundError indicates that an id or name did not resolve to a row.
type NotFoundError struct {
	msg string
}

func NewNotFoundError(msg string) error {
	return &NotFoundError{msg}
}

func (err NotFoundError) Error() string { return err.msg }

func IsNotFound(err error) bool {
	_, ok := errors.Cause(err).(*NotFoundError)
	return ok
}

// ConflictError indicates that a write would violate a uniqueness rule;
// it is surfaced before any row is touched.
type ConflictError struct {
	msg string
}

func NewConflictError(msg string) error {
	return &ConflictError{msg}
}

func (err ConflictError) Error() string { return err.msg }

func IsConflict(err error) bool {
	_, ok := errors.Cause(err).(*ConflictError)
	return ok
}

// DependencyError indicates that dependent child rows prevented an operation.
// Distinct from NotFoundError: the caller is told data-dependency, not absence.
type DependencyError struct {
	msg string
}

func NewDependencyError(msg string) error {
	return &DependencyError{msg}
}

func (err DependencyError) Error() string { return err.msg }

func IsDependency(err error) bool {
	_, ok := errors.Cause(err).(*DependencyError)
	return ok
}

// BackendUnavailableError indicates that no database connection could be
// obtained at all. Fallback to the embedded engine happens once at process
// scope, never within a single call.
type BackendUnavailableError struct {
	msg string
}

func NewBackendUnavailableError(msg string) error {
	return &BackendUnavailableError{msg}
}

func (err BackendUnavailableError) Error() string { return err.msg }

func IsBackendUnavailable(err error) bool {
	_, ok := errors.Cause(err).(*BackendUnavailableError)
	return ok
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
