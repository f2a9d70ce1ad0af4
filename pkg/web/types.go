// Package web provides HTTP handlers and REST API endpoints for workflow
// definition, deployment and resolution.
package web

import (
	"encoding/json"

	"github.com/caseflow/caseflow/pkg/models"
)

// CreateWorkflowRequest represents the request body for creating a new
// workflow definition.
type CreateWorkflowRequest struct {
	Code               string  `json:"code"                          validate:"required,min=2"`
	Name               string  `json:"name"                          validate:"required,min=3"`
	CompletionEndpoint string  `json:"completion_endpoint,omitempty"`
	DefaultSLADays     float64 `json:"default_sla_days,omitempty"    validate:"gte=0"`
}

// UpdateWorkflowRequest represents the request body for updating a
// workflow. All fields are optional to support partial updates; the code
// is immutable.
type UpdateWorkflowRequest struct {
	Name               *string  `json:"name,omitempty"                validate:"omitempty,min=3"`
	CompletionEndpoint *string  `json:"completion_endpoint,omitempty"`
	DefaultSLADays     *float64 `json:"default_sla_days,omitempty"    validate:"omitempty,gte=0"`
}

// StageInput is one stage in a stage-list save. The assignment arrives as
// a raw JSON document: it is schema-validated before being parsed into the
// tagged union, so malformed rules are rejected with a precise message
// instead of half-decoding.
type StageInput struct {
	Code               string               `json:"code"           validate:"required,min=1"`
	Name               string               `json:"name"           validate:"required,min=1"`
	SequenceOrder      int                  `json:"sequence_order" validate:"gte=0"`
	ParallelGroup      string               `json:"parallel_group,omitempty"`
	EntryCondition     string               `json:"entry_condition,omitempty"`
	NestedWorkflowCode string               `json:"nested_workflow_code,omitempty"`
	RuleKey            string               `json:"rule_key,omitempty"`
	SLADays            float64              `json:"sla_days,omitempty" validate:"gte=0"`
	PreEntryHook       string               `json:"pre_entry_hook,omitempty"`
	PostEntryHook      string               `json:"post_entry_hook,omitempty"`
	PreExitHook        string               `json:"pre_exit_hook,omitempty"`
	PostExitHook       string               `json:"post_exit_hook,omitempty"`
	Assignment         json.RawMessage      `json:"assignment"         validate:"required"`
	Actions            []models.StageAction `json:"actions,omitempty"  validate:"dive"`
}

// SaveStagesRequest replaces a workflow's whole stage list.
type SaveStagesRequest struct {
	Stages []StageInput `json:"stages" validate:"required,min=1,dive"`
}

// ResolveAssignmentRequest asks the assignment engine who should perform
// a stage's task. The stage's configured rule is loaded server-side.
type ResolveAssignmentRequest struct {
	WorkflowCode string         `json:"workflow_code" validate:"required"`
	StageCode    string         `json:"stage_code"    validate:"required"`
	CaseID       string         `json:"case_id"       validate:"required"`
	Actor        string         `json:"actor,omitempty"`
	Variables    map[string]any `json:"variables,omitempty"`
}

// SLADueDateRequest computes a business-day due date.
type SLADueDateRequest struct {
	Start  string `json:"start"  validate:"required"`
	Days   int    `json:"days"   validate:"gte=0"`
	Region string `json:"region"`
}

func (s *StageInput) toDefinition(workflowCode string, rule models.AssignmentRule) *models.StageDefinition {
	return &models.StageDefinition{
		WorkflowCode:       workflowCode,
		Code:               s.Code,
		Name:               s.Name,
		SequenceOrder:      s.SequenceOrder,
		ParallelGroup:      s.ParallelGroup,
		EntryCondition:     s.EntryCondition,
		NestedWorkflowCode: s.NestedWorkflowCode,
		RuleKey:            s.RuleKey,
		SLADays:            s.SLADays,
		PreEntryHook:       s.PreEntryHook,
		PostEntryHook:      s.PostEntryHook,
		PreExitHook:        s.PreExitHook,
		PostExitHook:       s.PostExitHook,
		Assignment:         rule,
		Actions:            s.Actions,
	}
}
