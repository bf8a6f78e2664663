package service

import (
	"fmt"

	"fintrack/internal/model"
)

// ValidationError means the input itself is malformed. It is surfaced to the
// caller immediately and never retried.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// NewValidationError builds a ValidationError from a format string.
func NewValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// NotFoundError means a referenced entity does not exist.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// BusinessRuleError means the input is valid but the requested state
// transition is illegal, e.g. paying a closed debt.
type BusinessRuleError struct {
	Message string
}

func (e *BusinessRuleError) Error() string { return e.Message }

// LimitExceededError is a distinguished business-rule rejection raised when
// a free-tier ceiling is hit. It carries the ceiling and the current counter
// so callers can render an upgrade prompt, and callers that batch-create
// items re-raise it specifically instead of swallowing it like other
// per-item failures.
type LimitExceededError struct {
	LimitType    model.LimitType
	Limit        int
	CurrentUsage int
}

func (e *LimitExceededError) Error() string {
	return fmt.Sprintf("%s limit exceeded: %d/%d used", e.LimitType, e.CurrentUsage, e.Limit)
}
