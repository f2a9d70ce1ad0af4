package models

import "time"

// Deployment records one handoff of a compiled process graph to the
// execution engine.
type Deployment struct {
	ID           string    `json:"id"`
	WorkflowCode string    `json:"workflow_code" validate:"required"`
	DeployedAt   time.Time `json:"deployed_at"`
	NodeCount    int       `json:"node_count"`
	EdgeCount    int       `json:"edge_count"`
	Diagnostics  []string  `json:"diagnostics,omitempty"`
}
