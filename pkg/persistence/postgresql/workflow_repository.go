package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/caseflow/caseflow/pkg/models"
	"github.com/caseflow/caseflow/pkg/persistence"
	"github.com/google/uuid"
)

// WorkflowRepository handles workflow, stage and deployment operations.
type WorkflowRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewWorkflowRepository creates a new workflow repository.
func NewWorkflowRepository(db *sql.DB, logger *slog.Logger) *WorkflowRepository {
	return &WorkflowRepository{db: db, logger: logger}
}

const workflowColumns = `
	id
  , code
  , name
  , status
  , completion_endpoint
  , default_sla_days
  , created_at
  , updated_at
  , deleted_at
`

// GetAll returns all workflows that are not soft deleted, newest first.
func (r *WorkflowRepository) GetAll(ctx context.Context) ([]*models.WorkflowMeta, error) {
	query := `SELECT ` + workflowColumns + `
		FROM workflows
		WHERE deleted_at IS NULL
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query workflows: %w", err)
	}

	defer r.closeRows(ctx, rows)

	workflows := make([]*models.WorkflowMeta, 0)

	for rows.Next() {
		workflow, err := scanWorkflow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan workflow: %w", err)
		}

		workflows = append(workflows, workflow)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating workflows: %w", err)
	}

	return workflows, nil
}

// GetByCode returns a workflow by its code, or nil when it does not
// exist or is soft deleted.
func (r *WorkflowRepository) GetByCode(ctx context.Context, code string) (*models.WorkflowMeta, error) {
	query := `SELECT ` + workflowColumns + `
		FROM workflows
		WHERE code = $1 AND deleted_at IS NULL
	`

	workflow, err := scanWorkflow(r.db.QueryRowContext(ctx, query, code))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to scan workflow: %w", err)
	}

	return workflow, nil
}

// Save upserts the workflow by code.
func (r *WorkflowRepository) Save(ctx context.Context, workflow *models.WorkflowMeta) error {
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

	query := `
		INSERT INTO workflows (id, code, name, status, completion_endpoint, default_sla_days, created_at, updated_at, deleted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (code) DO UPDATE SET
			name = EXCLUDED.name,
			status = EXCLUDED.status,
			completion_endpoint = EXCLUDED.completion_endpoint,
			default_sla_days = EXCLUDED.default_sla_days,
			updated_at = EXCLUDED.updated_at,
			deleted_at = EXCLUDED.deleted_at
	`

	_, err := r.db.ExecContext(ctx, query,
		workflow.ID,
		workflow.Code,
		workflow.Name,
		workflow.Status,
		workflow.CompletionEndpoint,
		workflow.DefaultSLADays,
		workflow.CreatedAt,
		workflow.UpdatedAt,
		workflow.DeletedAt,
	)
	if err != nil {
		return persistence.NewWorkflowError("SaveWorkflow", workflow.Code, err)
	}

	return nil
}

// Delete soft deletes a workflow by setting its deleted_at timestamp.
func (r *WorkflowRepository) Delete(ctx context.Context, code string) error {
	query := `
		UPDATE workflows
		SET deleted_at = NOW(), updated_at = NOW(), status = $2
		WHERE code = $1 AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query, code, models.WorkflowStatusDeleted)
	if err != nil {
		return persistence.NewWorkflowError("DeleteWorkflow", code, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewWorkflowError("DeleteWorkflow", code, err)
	}

	if affected == 0 {
		return persistence.NewWorkflowError("DeleteWorkflow", code, persistence.ErrWorkflowNotFound)
	}

	return nil
}

const stageColumns = `
	id
  , workflow_code
  , code
  , name
  , sequence_order
  , parallel_group
  , entry_condition
  , nested_workflow_code
  , rule_key
  , sla_days
  , pre_entry_hook
  , post_entry_hook
  , pre_exit_hook
  , post_exit_hook
  , assignment
  , actions
`

// StagesByWorkflow returns the workflow's stages in sequence order.
func (r *WorkflowRepository) StagesByWorkflow(ctx context.Context, workflowCode string) ([]*models.StageDefinition, error) {
	query := `SELECT ` + stageColumns + `
		FROM workflow_stages
		WHERE workflow_code = $1
		ORDER BY sequence_order, code
	`

	rows, err := r.db.QueryContext(ctx, query, workflowCode)
	if err != nil {
		return nil, fmt.Errorf("failed to query stages: %w", err)
	}

	defer r.closeRows(ctx, rows)

	stages := make([]*models.StageDefinition, 0)

	for rows.Next() {
		stage, err := scanStage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stage: %w", err)
		}

		stages = append(stages, stage)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating stages: %w", err)
	}

	return stages, nil
}

// StageByCode returns one stage, or nil when it does not exist.
func (r *WorkflowRepository) StageByCode(ctx context.Context, workflowCode, stageCode string) (*models.StageDefinition, error) {
	query := `SELECT ` + stageColumns + `
		FROM workflow_stages
		WHERE workflow_code = $1 AND code = $2
	`

	stage, err := scanStage(r.db.QueryRowContext(ctx, query, workflowCode, stageCode))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to scan stage: %w", err)
	}

	return stage, nil
}

// SaveStages replaces the workflow's whole stage list in one transaction.
func (r *WorkflowRepository) SaveStages(ctx context.Context, workflowCode string, stages []*models.StageDefinition) error {
	workflow, err := r.GetByCode(ctx, workflowCode)
	if err != nil {
		return err
	}

	if workflow == nil {
		return persistence.NewWorkflowError("SaveStages", workflowCode, persistence.ErrWorkflowNotFound)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, "DELETE FROM workflow_stages WHERE workflow_code = $1", workflowCode)
	if err != nil {
		return persistence.NewWorkflowError("SaveStages", workflowCode, err)
	}

	insert := `
		INSERT INTO workflow_stages (` + stageColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	for _, stage := range stages {
		if stage.ID == "" {
			id, idErr := uuid.NewV7()
			if idErr != nil {
				err = fmt.Errorf("failed to generate stage ID: %w", idErr)

				return err
			}

			stage.ID = id.String()
		}

		stage.WorkflowCode = workflowCode

		assignmentJSON, marshalErr := json.Marshal(stage.Assignment)
		if marshalErr != nil {
			err = fmt.Errorf("failed to marshal assignment rule: %w", marshalErr)

			return err
		}

		actionsJSON, marshalErr := json.Marshal(stage.Actions)
		if marshalErr != nil {
			err = fmt.Errorf("failed to marshal stage actions: %w", marshalErr)

			return err
		}

		_, err = tx.ExecContext(ctx, insert,
			stage.ID,
			stage.WorkflowCode,
			stage.Code,
			stage.Name,
			stage.SequenceOrder,
			stage.ParallelGroup,
			stage.EntryCondition,
			stage.NestedWorkflowCode,
			stage.RuleKey,
			stage.SLADays,
			stage.PreEntryHook,
			stage.PostEntryHook,
			stage.PreExitHook,
			stage.PostExitHook,
			assignmentJSON,
			actionsJSON,
		)
		if err != nil {
			return persistence.NewStageError("SaveStages", workflowCode, stage.Code, err)
		}
	}

	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// SaveDeployment records one deployment of a compiled graph.
func (r *WorkflowRepository) SaveDeployment(ctx context.Context, deployment *models.Deployment) error {
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

	diagnosticsJSON, err := json.Marshal(deployment.Diagnostics)
	if err != nil {
		return fmt.Errorf("failed to marshal diagnostics: %w", err)
	}

	query := `
		INSERT INTO deployments (id, workflow_code, deployed_at, node_count, edge_count, diagnostics)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err = r.db.ExecContext(ctx, query,
		deployment.ID,
		deployment.WorkflowCode,
		deployment.DeployedAt,
		deployment.NodeCount,
		deployment.EdgeCount,
		diagnosticsJSON,
	)
	if err != nil {
		return persistence.NewWorkflowError("SaveDeployment", deployment.WorkflowCode, err)
	}

	return nil
}

// DeploymentsByWorkflow returns the workflow's deployments, newest first.
func (r *WorkflowRepository) DeploymentsByWorkflow(ctx context.Context, workflowCode string) ([]*models.Deployment, error) {
	query := `
		SELECT id, workflow_code, deployed_at, node_count, edge_count, diagnostics
		FROM deployments
		WHERE workflow_code = $1
		ORDER BY deployed_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, workflowCode)
	if err != nil {
		return nil, fmt.Errorf("failed to query deployments: %w", err)
	}

	defer r.closeRows(ctx, rows)

	deployments := make([]*models.Deployment, 0)

	for rows.Next() {
		var (
			deployment      models.Deployment
			diagnosticsJSON []byte
		)

		err = rows.Scan(
			&deployment.ID,
			&deployment.WorkflowCode,
			&deployment.DeployedAt,
			&deployment.NodeCount,
			&deployment.EdgeCount,
			&diagnosticsJSON,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan deployment: %w", err)
		}

		err = json.Unmarshal(diagnosticsJSON, &deployment.Diagnostics)
		if err != nil {
			return nil, fmt.Errorf("failed to decode diagnostics: %w", err)
		}

		deployments = append(deployments, &deployment)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating deployments: %w", err)
	}

	return deployments, nil
}

func (r *WorkflowRepository) closeRows(ctx context.Context, rows *sql.Rows) {
	err := rows.Close()
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWorkflow(row rowScanner) (*models.WorkflowMeta, error) {
	var (
		workflow           models.WorkflowMeta
		completionEndpoint sql.NullString
		deletedAt          sql.NullTime
	)

	err := row.Scan(
		&workflow.ID,
		&workflow.Code,
		&workflow.Name,
		&workflow.Status,
		&completionEndpoint,
		&workflow.DefaultSLADays,
		&workflow.CreatedAt,
		&workflow.UpdatedAt,
		&deletedAt,
	)
	if err != nil {
		return nil, err
	}

	workflow.CompletionEndpoint = completionEndpoint.String

	if deletedAt.Valid {
		workflow.DeletedAt = &deletedAt.Time
	}

	return &workflow, nil
}

func scanStage(row rowScanner) (*models.StageDefinition, error) {
	var (
		stage          models.StageDefinition
		parallelGroup  sql.NullString
		entryCondition sql.NullString
		nestedWorkflow sql.NullString
		ruleKey        sql.NullString
		preEntryHook   sql.NullString
		postEntryHook  sql.NullString
		preExitHook    sql.NullString
		postExitHook   sql.NullString
		assignmentJSON []byte
		actionsJSON    []byte
	)

	err := row.Scan(
		&stage.ID,
		&stage.WorkflowCode,
		&stage.Code,
		&stage.Name,
		&stage.SequenceOrder,
		&parallelGroup,
		&entryCondition,
		&nestedWorkflow,
		&ruleKey,
		&stage.SLADays,
		&preEntryHook,
		&postEntryHook,
		&preExitHook,
		&postExitHook,
		&assignmentJSON,
		&actionsJSON,
	)
	if err != nil {
		return nil, err
	}

	stage.ParallelGroup = parallelGroup.String
	stage.EntryCondition = entryCondition.String
	stage.NestedWorkflowCode = nestedWorkflow.String
	stage.RuleKey = ruleKey.String
	stage.PreEntryHook = preEntryHook.String
	stage.PostEntryHook = postEntryHook.String
	stage.PreExitHook = preExitHook.String
	stage.PostExitHook = postExitHook.String

	err = json.Unmarshal(assignmentJSON, &stage.Assignment)
	if err != nil {
		return nil, fmt.Errorf("failed to decode assignment rule: %w", err)
	}

	err = json.Unmarshal(actionsJSON, &stage.Actions)
	if err != nil {
		return nil, fmt.Errorf("failed to decode stage actions: %w", err)
	}

	return &stage, nil
}
