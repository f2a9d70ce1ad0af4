// Package events defines event types and structures for orchestration
// lifecycle notifications.
package events

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

// Kafka topic.
const Topic = "caseflow.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// Definition lifecycle events.
	WorkflowDeployedEvent EventType = "workflow.deployed"

	// Assignment events.
	TaskAssignedEvent   EventType = "task.assigned"
	TaskUnassignedEvent EventType = "task.unassigned"

	// SLA events.
	SLAEscalatedEvent EventType = "sla.escalated"
)

type BaseEvent struct {
	ID           string         `json:"id"`
	Type         EventType      `json:"type"`
	Timestamp    time.Time      `json:"timestamp"`
	WorkflowCode string         `json:"workflow_code"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// WorkflowDeployed is published after a workflow definition compiles and
// its deployment record is stored.
type WorkflowDeployed struct {
	BaseEvent

	DeploymentID string   `json:"deployment_id"`
	NodeCount    int      `json:"node_count"`
	EdgeCount    int      `json:"edge_count"`
	Diagnostics  []string `json:"diagnostics,omitempty"`
}

func (w WorkflowDeployed) GetType() EventType {
	return WorkflowDeployedEvent
}

// TaskAssigned is published when the assignment engine resolves a concrete
// assignee or candidate set for a stage task.
type TaskAssigned struct {
	BaseEvent

	StageCode      string   `json:"stage_code"`
	CaseID         string   `json:"case_id"`
	Assignee       string   `json:"assignee,omitempty"`
	CandidateGroup string   `json:"candidate_group,omitempty"`
	CandidateUsers []string `json:"candidate_users,omitempty"`
	Mechanism      string   `json:"mechanism"`
}

func (t TaskAssigned) GetType() EventType {
	return TaskAssignedEvent
}

// TaskUnassigned is published when resolution degrades to no assignee and
// the task is left for manual claim.
type TaskUnassigned struct {
	BaseEvent

	StageCode string `json:"stage_code"`
	CaseID    string `json:"case_id"`
	Mechanism string `json:"mechanism"`
	Reason    string `json:"reason,omitempty"`
}

func (t TaskUnassigned) GetType() EventType {
	return TaskUnassignedEvent
}

// SLAEscalated is published by the SLA sweeper when a task passes its
// business-day due date.
type SLAEscalated struct {
	BaseEvent

	StageCode string    `json:"stage_code"`
	CaseID    string    `json:"case_id"`
	Assignee  string    `json:"assignee,omitempty"`
	DueAt     time.Time `json:"due_at"`
	OverdueBy int64     `json:"overdue_by_ms"`
}

func (s SLAEscalated) GetType() EventType {
	return SLAEscalatedEvent
}

func NewBaseEvent(eventType EventType, workflowCode string) BaseEvent {
	return BaseEvent{
		ID:           uuid.New().String(),
		Type:         eventType,
		Timestamp:    time.Now().UTC(),
		WorkflowCode: workflowCode,
		Metadata:     make(map[string]any),
	}
}
