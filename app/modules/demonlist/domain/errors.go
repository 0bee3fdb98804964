package demonlistdomain

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by every demon list operation. Match with errors.Is.
var (
	ErrValidation      = errors.New("validation error")
	ErrDuplicatePlayer = errors.New("player already exists")
	ErrUnknownPlayer   = errors.New("unknown player")
	ErrLastPlayer      = errors.New("cannot remove the last player")
	ErrNotFound        = errors.New("level not found")
	ErrStore           = errors.New("store error")
)

// Kind names used by transports when reporting an error.
const (
	KindValidation      = "ValidationError"
	KindDuplicatePlayer = "DuplicatePlayer"
	KindUnknownPlayer   = "UnknownPlayer"
	KindLastPlayer      = "LastPlayer"
	KindNotFound        = "NotFound"
	KindStore           = "StoreError"
	KindInternal        = "InternalError"
)

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Is lets errors.Is(err, ErrValidation) match any ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewValidationError builds a ValidationError for field.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// StoreError wraps a persistence failure together with the pipeline step that failed.
type StoreError struct {
	Step string
	Err  error
}

func (e *StoreError) Error() string {
	if e.Step == "" {
		return fmt.Sprintf("store error: %v", e.Err)
	}
	return fmt.Sprintf("store error at %s: %v", e.Step, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrStore) match any StoreError.
func (e *StoreError) Is(target error) bool {
	return target == ErrStore
}

// NewStoreError wraps err as a StoreError for step.
func NewStoreError(step string, err error) error {
	return &StoreError{Step: step, Err: err}
}

// KindOf maps err to one of the Kind constants.
func KindOf(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrDuplicatePlayer):
		return KindDuplicatePlayer
	case errors.Is(err, ErrUnknownPlayer):
		return KindUnknownPlayer
	case errors.Is(err, ErrLastPlayer):
		return KindLastPlayer
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrStore):
		return KindStore
	default:
		return KindInternal
	}
}
