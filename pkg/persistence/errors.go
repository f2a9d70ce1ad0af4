// Package persistence provides standardized error types for storage
// operations.
package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrWorkflowNotFound indicates a workflow was not found by the given code.
	ErrWorkflowNotFound = errors.New("workflow not found")

	// ErrWorkflowAlreadyExists indicates a workflow with the same code already exists.
	ErrWorkflowAlreadyExists = errors.New("workflow already exists")

	// ErrStageNotFound indicates a stage was not found within the workflow.
	ErrStageNotFound = errors.New("stage not found")

	// ErrRegionNotFound indicates a region was not found by name or id.
	ErrRegionNotFound = errors.New("region not found")

	// ErrHolidayNotFound indicates a holiday entry was not found by id.
	ErrHolidayNotFound = errors.New("holiday not found")

	// ErrLeaveNotFound indicates a leave entry was not found by id.
	ErrLeaveNotFound = errors.New("leave not found")
)

// WorkflowError wraps workflow-related storage errors with operation
// context.
type WorkflowError struct {
	Op           string // Operation being performed (e.g., "WorkflowByCode", "SaveStages")
	WorkflowCode string
	Err          error
	Message      string
}

func (e *WorkflowError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s operation failed for workflow %s: %s (%v)", e.Op, e.WorkflowCode, e.Message, e.Err)
	}

	return fmt.Sprintf("%s operation failed for workflow %s: %v", e.Op, e.WorkflowCode, e.Err)
}

func (e *WorkflowError) Unwrap() error {
	return e.Err
}

func (e *WorkflowError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewWorkflowError creates a new workflow error with context.
func NewWorkflowError(op, workflowCode string, err error) *WorkflowError {
	return &WorkflowError{
		Op:           op,
		WorkflowCode: workflowCode,
		Err:          err,
	}
}

// StageError wraps stage-related storage errors with operation context.
type StageError struct {
	Op           string
	WorkflowCode string
	StageCode    string
	Err          error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s operation failed for stage %s in workflow %s: %v", e.Op, e.StageCode, e.WorkflowCode, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func (e *StageError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewStageError creates a new stage error with context.
func NewStageError(op, workflowCode, stageCode string, err error) *StageError {
	return &StageError{
		Op:           op,
		WorkflowCode: workflowCode,
		StageCode:    stageCode,
		Err:          err,
	}
}

// IsWorkflowNotFound checks if an error indicates a workflow was not found.
func IsWorkflowNotFound(err error) bool {
	return errors.Is(err, ErrWorkflowNotFound)
}

// IsStageNotFound checks if an error indicates a stage was not found.
func IsStageNotFound(err error) bool {
	return errors.Is(err, ErrStageNotFound)
}
