package core

import (
	"errors"
	"fmt"
)

// Error classes surfaced to callers. Storage and services wrap these so the
// transport layer can classify failures with errors.Is.
var (
	ErrNotFound         = errors.New("not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrConflict         = errors.New("conflict")
	ErrPrecondition     = errors.New("failed precondition")
	ErrValidation       = errors.New("validation failed")
)

// Field-level validation failures.
var (
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrEmptyName         = errors.New("name is required")
	ErrInvalidEmail      = errors.New("invalid email")
	ErrInvalidStatus     = errors.New("invalid project status")
	ErrInvalidPayType    = errors.New("invalid payment type")
	ErrInvalidMethod     = errors.New("invalid payment method")
	ErrMissingReference  = errors.New("missing reference")
	ErrTooManyMembers    = errors.New("too many team members")
	ErrMissingUPIDetails = errors.New("upi id and transaction id are required for upi payments")
	ErrCompletedDate     = errors.New("completed date is only allowed on completed projects")
	ErrDateRequired      = errors.New("date is required")
	ErrNotesTooLong      = errors.New("notes are too long")
)

// ValidationError ties a field-level failure to the field it concerns.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

// Unwrap exposes both the field error and the ErrValidation class.
func (e *ValidationError) Unwrap() []error {
	return []error{e.Err, ErrValidation}
}

func invalid(field string, err error) error {
	return &ValidationError{Field: field, Err: err}
}

// PreconditionError carries a prescriptive message telling an operator how
// to fix the environment, e.g. a missing schema.
type PreconditionError struct {
	Op   string
	Hint string
	Err  error
}

func (e *PreconditionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v (%s)", e.Op, e.Err, e.Hint)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Hint)
}

func (e *PreconditionError) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Err, ErrPrecondition}
	}
	return []error{ErrPrecondition}
}
