package core

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

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
		if len(err.Fields) > 0 {
			return err.Fields[0].Field + ": " + err.Fields[0].Error
		}
		return ""
	}
	return err.Err.Error()
}

// PermissionError is returned when the caller is not allowed to perform a write (not a monitor, wrong cohort...).
type PermissionError struct {
	Reason string
}

func NewPermissionError(reason string) error {
	return &PermissionError{Reason: reason}
}

func (err PermissionError) Error() string {
	return err.Reason
}

// ScopeMismatchError is returned when some ids of a batch do not belong to the writer's cohort.
// The whole batch is rejected.
type ScopeMismatchError struct {
	Scope string
	IDs   []string
}

func NewScopeMismatchError(scope string, ids ...string) error {
	return &ScopeMismatchError{Scope: scope, IDs: ids}
}

func (err ScopeMismatchError) Error() string {
	return fmt.Sprintf("not members of %s: %s", err.Scope, strings.Join(err.IDs, ", "))
}

// StoreError wraps a persistence failure. Nothing was written and the call may be retried.
type StoreError struct {
	Op  string
	Err error
}

func NewStoreError(err error, op string) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Err: err}
}

func (err StoreError) Error() string {
	return err.Op + ": " + err.Err.Error()
}

func (err StoreError) Unwrap() error { return err.Err }

func IsStoreError(err error) bool {
	var serr *StoreError
	return errors.As(err, &serr)
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
