package file

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/caseflow/caseflow/pkg/models"
	"github.com/caseflow/caseflow/pkg/persistence"
	"github.com/google/uuid"
)

// workflowDocument is the on-disk form of one workflow: its metadata plus
// the full ordered stage list.
type workflowDocument struct {
	Meta   *models.WorkflowMeta      `json:"meta"`
	Stages []*models.StageDefinition `json:"stages"`
}

func (fp *Persistence) workflowPath(code string) string {
	return fp.path(workflowsDir, code+".json")
}

func (fp *Persistence) loadWorkflow(code string) (*workflowDocument, error) {
	var doc workflowDocument

	found, err := readDocument(fp.workflowPath(code), &doc)
	if err != nil || !found {
		return nil, err
	}

	return &doc, nil
}

// Workflows returns all workflows that are not soft deleted, newest
// first.
func (fp *Persistence) Workflows(_ context.Context) ([]*models.WorkflowMeta, error) {
	fp.mu.RLock()
	defer fp.mu.RUnlock()

	root := os.DirFS(fp.path(workflowsDir))

	files, err := fs.Glob(root, "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list workflow files: %w", err)
	}

	workflows := make([]*models.WorkflowMeta, 0, len(files))

	for _, file := range files {
		code := strings.TrimSuffix(file, ".json")

		doc, err := fp.loadWorkflow(code)
		if err != nil {
			return nil, err
		}

		if doc == nil || doc.Meta == nil || doc.Meta.DeletedAt != nil {
			continue
		}

		workflows = append(workflows, doc.Meta)
	}

	sort.Slice(workflows, func(i, j int) bool {
		return workflows[i].CreatedAt.After(workflows[j].CreatedAt)
	})

	return workflows, nil
}

func (fp *Persistence) WorkflowByCode(_ context.Context, code string) (*models.WorkflowMeta, error) {
	fp.mu.RLock()
	defer fp.mu.RUnlock()

	doc, err := fp.loadWorkflow(code)
	if err != nil {
		return nil, err
	}

	if doc == nil || doc.Meta == nil || doc.Meta.DeletedAt != nil {
		return nil, nil
	}

	return doc.Meta, nil
}

func (fp *Persistence) SaveWorkflow(_ context.Context, workflow *models.WorkflowMeta) error {
	fp.mu.Lock()
	defer fp.mu.Unlock()

	now := time.Now().UTC()

	if workflow.CreatedAt.IsZero() {
		workflow.CreatedAt = now
	}

	workflow.UpdatedAt = now

	if workflow.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate workflow ID: %w", err)
		}

		workflow.ID = id.String()
	}

	doc, err := fp.loadWorkflow(workflow.Code)
	if err != nil {
		return err
	}

	stages := []*models.StageDefinition{}
	if doc != nil {
		stages = doc.Stages
	}

	return writeDocument(fp.workflowPath(workflow.Code), &workflowDocument{
		Meta:   workflow,
		Stages: stages,
	})
}

// DeleteWorkflow soft deletes a workflow by setting its deleted_at
// timestamp.
func (fp *Persistence) DeleteWorkflow(_ context.Context, code string) error {
	fp.mu.Lock()
	defer fp.mu.Unlock()

	doc, err := fp.loadWorkflow(code)
	if err != nil {
		return err
	}

	if doc == nil || doc.Meta == nil || doc.Meta.DeletedAt != nil {
		return persistence.NewWorkflowError("DeleteWorkflow", code, persistence.ErrWorkflowNotFound)
	}

	now := time.Now().UTC()
	doc.Meta.DeletedAt = &now
	doc.Meta.UpdatedAt = now
	doc.Meta.Status = models.WorkflowStatusDeleted

	return writeDocument(fp.workflowPath(code), doc)
}

func (fp *Persistence) StagesByWorkflow(_ context.Context, workflowCode string) ([]*models.StageDefinition, error) {
	fp.mu.RLock()
	defer fp.mu.RUnlock()

	doc, err := fp.loadWorkflow(workflowCode)
	if err != nil {
		return nil, err
	}

	if doc == nil {
		return []*models.StageDefinition{}, nil
	}

	stages := make([]*models.StageDefinition, len(doc.Stages))
	copy(stages, doc.Stages)

	sort.SliceStable(stages, func(i, j int) bool {
		return stages[i].SequenceOrder < stages[j].SequenceOrder
	})

	return stages, nil
}

func (fp *Persistence) StageByCode(ctx context.Context, workflowCode, stageCode string) (*models.StageDefinition, error) {
	stages, err := fp.StagesByWorkflow(ctx, workflowCode)
	if err != nil {
		return nil, err
	}

	for _, stage := range stages {
		if stage.Code == stageCode {
			return stage, nil
		}
	}

	return nil, nil
}

func (fp *Persistence) StageAssignmentRule(ctx context.Context, workflowCode, stageCode string) (*models.AssignmentRule, error) {
	stage, err := fp.StageByCode(ctx, workflowCode, stageCode)
	if err != nil || stage == nil {
		return nil, err
	}

	rule := stage.Assignment

	return &rule, nil
}

// SaveStages replaces the workflow's whole stage list.
func (fp *Persistence) SaveStages(_ context.Context, workflowCode string, stages []*models.StageDefinition) error {
	fp.mu.Lock()
	defer fp.mu.Unlock()

	doc, err := fp.loadWorkflow(workflowCode)
	if err != nil {
		return err
	}

	if doc == nil || doc.Meta == nil || doc.Meta.DeletedAt != nil {
		return persistence.NewWorkflowError("SaveStages", workflowCode, persistence.ErrWorkflowNotFound)
	}

	doc.Stages = stages
	doc.Meta.UpdatedAt = time.Now().UTC()

	return writeDocument(fp.workflowPath(workflowCode), doc)
}

func (fp *Persistence) deploymentsPath(workflowCode string) string {
	return fp.path(deploymentsDir, workflowCode+".json")
}

func (fp *Persistence) SaveDeployment(_ context.Context, deployment *models.Deployment) error {
	fp.mu.Lock()
	defer fp.mu.Unlock()

	if deployment.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate deployment ID: %w", err)
		}

		deployment.ID = id.String()
	}

	if deployment.DeployedAt.IsZero() {
		deployment.DeployedAt = time.Now().UTC()
	}

	deployments, err := readCollection[*models.Deployment](fp.deploymentsPath(deployment.WorkflowCode))
	if err != nil {
		return err
	}

	deployments = append(deployments, deployment)

	return writeDocument(fp.deploymentsPath(deployment.WorkflowCode), deployments)
}

// DeploymentsByWorkflow returns the workflow's deployments, newest first.
func (fp *Persistence) DeploymentsByWorkflow(_ context.Context, workflowCode string) ([]*models.Deployment, error) {
	fp.mu.RLock()
	defer fp.mu.RUnlock()

	deployments, err := readCollection[*models.Deployment](fp.deploymentsPath(workflowCode))
	if err != nil {
		return nil, err
	}

	sort.Slice(deployments, func(i, j int) bool {
		return deployments[i].DeployedAt.After(deployments[j].DeployedAt)
	})

	return deployments, nil
}
