// Package services provides the definition and deployment services and
// their standardized error types.
package services

import (
	"errors"
	"fmt"

	"github.com/caseflow/caseflow/pkg/persistence"
)

// Business logic errors. These indicate client errors (4xx responses).
var (
	// Validation errors (400 Bad Request).
	ErrInvalidRequest           = errors.New("invalid request")
	ErrWorkflowNil              = errors.New("workflow cannot be nil")
	ErrStagesRequired           = errors.New("at least one stage is required")
	ErrDuplicateStageCode       = errors.New("duplicate stage code")
	ErrParallelGroupNotAdjacent = errors.New("stages sharing a parallel group must be adjacent in sequence")
	ErrUnknownHook              = errors.New("hook is not registered")
	ErrHookEventUnsupported     = errors.New("hook does not support this lifecycle event")
	ErrInvalidAssignmentRule    = errors.New("invalid assignment rule")
	ErrUnknownActionTarget      = errors.New("action targets an unknown stage")
	ErrNestedWorkflowNotFound   = errors.New("nested workflow not found")
	ErrNestedWorkflowCycle      = errors.New("nested workflow reference cycle")

	// Business logic conflicts (409 Conflict).
	ErrWorkflowExists = errors.New("workflow code already exists")
)

// Not-found errors surface the persistence sentinel unchanged so callers
// can use one check across layers.
var ErrWorkflowNotFound = persistence.ErrWorkflowNotFound

// ServiceError wraps service-level errors with additional context.
type ServiceError struct {
	Op      string // Operation name
	Code    string // Error code for API responses
	Message string // Human-readable message
	Err     error  // Underlying error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsValidationError checks if an error is a validation error that should
// return HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrWorkflowNil) ||
		errors.Is(err, ErrStagesRequired) ||
		errors.Is(err, ErrDuplicateStageCode) ||
		errors.Is(err, ErrParallelGroupNotAdjacent) ||
		errors.Is(err, ErrUnknownHook) ||
		errors.Is(err, ErrHookEventUnsupported) ||
		errors.Is(err, ErrInvalidAssignmentRule) ||
		errors.Is(err, ErrUnknownActionTarget) ||
		errors.Is(err, ErrNestedWorkflowNotFound) ||
		errors.Is(err, ErrNestedWorkflowCycle)
}

// IsConflictError checks if an error is a business logic conflict that
// should return HTTP 409.
func IsConflictError(err error) bool {
	return errors.Is(err, ErrWorkflowExists)
}

// NewValidationError creates a new validation error with context.
func NewValidationError(op, code, message string, err error) *ServiceError {
	return &ServiceError{
		Op:      op,
		Code:    code,
		Message: message,
		Err:     err,
	}
}
