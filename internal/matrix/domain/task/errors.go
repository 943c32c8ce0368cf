package task

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks a field constraint violation.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidInput marks a malformed enum value or identifier.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound marks a missing task.
	ErrNotFound = errors.New("task not found")
)

// ValidationError reports a field that violates its constraints.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// InvalidInputError reports a value outside a closed set, or a malformed id.
type InvalidInputError struct {
	Field   string
	Value   string
	Message string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Message)
}

func (e *InvalidInputError) Is(target error) bool { return target == ErrInvalidInput }

// NotFoundError reports that no task carries the given id.
type NotFoundError struct {
	ID int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("task %d not found", e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }
