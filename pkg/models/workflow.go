// Package models defines the core domain models for case workflow orchestration.
package models

import "time"

// WorkflowStatus represents the lifecycle state of a workflow definition.
type WorkflowStatus string

const (
	WorkflowStatusActive  WorkflowStatus = "active"  // Deployable, stages editable
	WorkflowStatusDeleted WorkflowStatus = "deleted" // Soft-deleted, kept for history
)

// WorkflowMeta is the workflow-level definition a designer authors. Stage
// definitions attach to it by workflow code.
type WorkflowMeta struct {
	ID                 string         `json:"id"`
	Code               string         `json:"code"                          validate:"required,min=2"`
	Name               string         `json:"name"                          validate:"required,min=3"`
	Status             WorkflowStatus `json:"status"                        validate:"required"`
	CompletionEndpoint string         `json:"completion_endpoint,omitempty"`
	// DefaultSLADays applies to any stage that does not set its own SLA.
	// Zero means no workflow-level SLA.
	DefaultSLADays float64    `json:"default_sla_days,omitempty" validate:"gte=0"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	DeletedAt      *time.Time `json:"deleted_at,omitempty"`
}
