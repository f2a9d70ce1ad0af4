package models

import "time"

// TaskExecutionRecord is one finished task from the execution engine's
// history store. The core only ever reads these; the engine owns them.
type TaskExecutionRecord struct {
	WorkflowCode string    `json:"workflow_code"`
	StageCode    string    `json:"stage_code"`
	CaseID       string    `json:"case_id"`
	Assignee     string    `json:"assignee"`
	CompletedAt  time.Time `json:"completed_at"`
	Outcome      string    `json:"outcome,omitempty"`
}
