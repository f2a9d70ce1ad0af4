package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/caseflow/caseflow/pkg/models"
)

// HistoryRepository reads the task completion history written by the
// execution engine.
type HistoryRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewHistoryRepository creates a new history repository.
func NewHistoryRepository(db *sql.DB, logger *slog.Logger) *HistoryRepository {
	return &HistoryRepository{db: db, logger: logger}
}

func (r *HistoryRepository) LastCompletedTask(ctx context.Context, workflowCode, stageCode string) (*models.TaskExecutionRecord, error) {
	query := `
		SELECT workflow_code, stage_code, case_id, assignee, completed_at, outcome
		FROM task_executions
		WHERE workflow_code = $1 AND stage_code = $2
		ORDER BY completed_at DESC
		LIMIT 1
	`

	record, err := scanTaskExecution(r.db.QueryRowContext(ctx, query, workflowCode, stageCode))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to scan task execution: %w", err)
	}

	return record, nil
}

func (r *HistoryRepository) CaseHistory(ctx context.Context, caseID string) ([]*models.TaskExecutionRecord, error) {
	query := `
		SELECT workflow_code, stage_code, case_id, assignee, completed_at, outcome
		FROM task_executions
		WHERE case_id = $1
		ORDER BY completed_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, caseID)
	if err != nil {
		return nil, fmt.Errorf("failed to query case history: %w", err)
	}

	defer r.closeRows(ctx, rows)

	records := make([]*models.TaskExecutionRecord, 0)

	for rows.Next() {
		record, err := scanTaskExecution(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task execution: %w", err)
		}

		records = append(records, record)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating case history: %w", err)
	}

	return records, nil
}

// AppendTaskExecution records a task completion. The execution engine owns
// this data in production; this method exists for local development and tests.
func (r *HistoryRepository) AppendTaskExecution(ctx context.Context, record *models.TaskExecutionRecord) error {
	query := `
		INSERT INTO task_executions (workflow_code, stage_code, case_id, assignee, completed_at, outcome)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(ctx, query,
		record.WorkflowCode,
		record.StageCode,
		record.CaseID,
		nullableString(record.Assignee),
		record.CompletedAt,
		nullableString(record.Outcome),
	)
	if err != nil {
		return fmt.Errorf("failed to insert task execution: %w", err)
	}

	return nil
}

func (r *HistoryRepository) closeRows(ctx context.Context, rows *sql.Rows) {
	err := rows.Close()
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
	}
}

func scanTaskExecution(row rowScanner) (*models.TaskExecutionRecord, error) {
	var (
		record   models.TaskExecutionRecord
		assignee sql.NullString
		outcome  sql.NullString
	)

	err := row.Scan(
		&record.WorkflowCode,
		&record.StageCode,
		&record.CaseID,
		&assignee,
		&record.CompletedAt,
		&outcome,
	)
	if err != nil {
		return nil, err
	}

	record.Assignee = assignee.String
	record.Outcome = outcome.String

	return &record, nil
}
