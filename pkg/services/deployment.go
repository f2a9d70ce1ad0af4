package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/caseflow/caseflow/pkg/compiler"
	"github.com/caseflow/caseflow/pkg/eventbus"
	"github.com/caseflow/caseflow/pkg/events"
	"github.com/caseflow/caseflow/pkg/models"
	"github.com/caseflow/caseflow/pkg/persistence"
)

// Deployment compiles workflow definitions into process graphs, records
// each deployment and announces it on the event bus.
type Deployment struct {
	persistence persistence.Persistence
	compiler    *compiler.Compiler
	publisher   eventbus.EventPublisher
	logger      *slog.Logger
}

// NewDeployment creates a new deployment service. The publisher may be nil
// when running without an event bus.
func NewDeployment(persistence persistence.Persistence, compiler *compiler.Compiler, publisher eventbus.EventPublisher, logger *slog.Logger) *Deployment {
	return &Deployment{
		persistence: persistence,
		compiler:    compiler,
		publisher:   publisher,
		logger:      logger,
	}
}

// DeployResult carries the compiled graph together with the stored
// deployment record.
type DeployResult struct {
	Graph       *models.ProcessGraph `json:"graph"`
	Deployment  *models.Deployment   `json:"deployment"`
	Diagnostics []string             `json:"diagnostics,omitempty"`
}

// Deploy compiles the workflow's current stage list, stores the deployment
// record and publishes a workflow.deployed event. Compile diagnostics are
// not fatal; they travel with the deployment record.
func (d *Deployment) Deploy(ctx context.Context, workflowCode string) (*DeployResult, error) {
	meta, stages, err := d.load(ctx, workflowCode)
	if err != nil {
		return nil, err
	}

	result, err := d.compiler.Compile(*meta, stages)
	if err != nil {
		return nil, NewValidationError("Deploy", "COMPILE_FAILED",
			fmt.Sprintf("workflow %q: %s", workflowCode, err.Error()), ErrInvalidRequest)
	}

	diagnostics := formatDiagnostics(result.Diagnostics)

	deployment := &models.Deployment{
		WorkflowCode: workflowCode,
		NodeCount:    len(result.Graph.Nodes),
		EdgeCount:    len(result.Graph.Edges),
		Diagnostics:  diagnostics,
	}

	err = d.persistence.SaveDeployment(ctx, deployment)
	if err != nil {
		return nil, fmt.Errorf("failed to record deployment: %w", err)
	}

	d.announce(ctx, deployment)

	return &DeployResult{
		Graph:       result.Graph,
		Deployment:  deployment,
		Diagnostics: diagnostics,
	}, nil
}

// Preview compiles without recording or announcing anything. Used by the
// authoring UI to show the graph a definition would produce.
func (d *Deployment) Preview(ctx context.Context, workflowCode string) (*compiler.Result, error) {
	meta, stages, err := d.load(ctx, workflowCode)
	if err != nil {
		return nil, err
	}

	result, err := d.compiler.Compile(*meta, stages)
	if err != nil {
		return nil, NewValidationError("Preview", "COMPILE_FAILED",
			fmt.Sprintf("workflow %q: %s", workflowCode, err.Error()), ErrInvalidRequest)
	}

	return result, nil
}

// History returns past deployments of a workflow, newest first.
func (d *Deployment) History(ctx context.Context, workflowCode string) ([]*models.Deployment, error) {
	workflow, err := d.persistence.WorkflowByCode(ctx, workflowCode)
	if err != nil {
		return nil, err
	}

	if workflow == nil {
		return nil, ErrWorkflowNotFound
	}

	return d.persistence.DeploymentsByWorkflow(ctx, workflowCode)
}

func (d *Deployment) load(ctx context.Context, workflowCode string) (*models.WorkflowMeta, []models.StageDefinition, error) {
	meta, err := d.persistence.WorkflowByCode(ctx, workflowCode)
	if err != nil {
		return nil, nil, err
	}

	if meta == nil {
		return nil, nil, ErrWorkflowNotFound
	}

	stored, err := d.persistence.StagesByWorkflow(ctx, workflowCode)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load stages: %w", err)
	}

	stages := make([]models.StageDefinition, 0, len(stored))
	for _, stage := range stored {
		stages = append(stages, *stage)
	}

	return meta, stages, nil
}

// announce publishes the deployed event. Publishing failure does not fail
// the deployment, the record is already durable.
func (d *Deployment) announce(ctx context.Context, deployment *models.Deployment) {
	if d.publisher == nil {
		return
	}

	event := events.WorkflowDeployed{
		BaseEvent:    events.NewBaseEvent(events.WorkflowDeployedEvent, deployment.WorkflowCode),
		DeploymentID: deployment.ID,
		NodeCount:    deployment.NodeCount,
		EdgeCount:    deployment.EdgeCount,
		Diagnostics:  deployment.Diagnostics,
	}

	err := d.publisher.Publish(ctx, deployment.WorkflowCode, event)
	if err != nil {
		d.logger.Warn("Failed to publish deployment event",
			"workflow_code", deployment.WorkflowCode,
			"deployment_id", deployment.ID,
			"error", err)
	}
}

func formatDiagnostics(diagnostics []compiler.Diagnostic) []string {
	if len(diagnostics) == 0 {
		return nil
	}

	formatted := make([]string, 0, len(diagnostics))
	for _, diagnostic := range diagnostics {
		formatted = append(formatted, fmt.Sprintf("%s: %s", diagnostic.StageCode, diagnostic.Message))
	}

	return formatted
}
