package file

import (
	"context"
	"sort"

	"github.com/caseflow/caseflow/pkg/models"
)

func (fp *Persistence) historyPath() string {
	return fp.path(historyDir, "task_executions.json")
}

// LastCompletedTask returns the most recently completed task for the
// (workflow, stage) pair, or nil when none exists.
func (fp *Persistence) LastCompletedTask(_ context.Context, workflowCode, stageCode string) (*models.TaskExecutionRecord, error) {
	fp.mu.RLock()
	defer fp.mu.RUnlock()

	records, err := readCollection[*models.TaskExecutionRecord](fp.historyPath())
	if err != nil {
		return nil, err
	}

	var last *models.TaskExecutionRecord

	for _, record := range records {
		if record.WorkflowCode != workflowCode || record.StageCode != stageCode {
			continue
		}

		if last == nil || record.CompletedAt.After(last.CompletedAt) {
			last = record
		}
	}

	return last, nil
}

// CaseHistory returns the case's completed tasks, most recent first.
func (fp *Persistence) CaseHistory(_ context.Context, caseID string) ([]*models.TaskExecutionRecord, error) {
	fp.mu.RLock()
	defer fp.mu.RUnlock()

	records, err := readCollection[*models.TaskExecutionRecord](fp.historyPath())
	if err != nil {
		return nil, err
	}

	matched := make([]*models.TaskExecutionRecord, 0)

	for _, record := range records {
		if record.CaseID == caseID {
			matched = append(matched, record)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CompletedAt.After(matched[j].CompletedAt)
	})

	return matched, nil
}

// AppendTaskExecution writes a history record. The execution engine owns
// this data in production; this method exists for local development and
// tests.
func (fp *Persistence) AppendTaskExecution(_ context.Context, record *models.TaskExecutionRecord) error {
	fp.mu.Lock()
	defer fp.mu.Unlock()

	records, err := readCollection[*models.TaskExecutionRecord](fp.historyPath())
	if err != nil {
		return err
	}

	records = append(records, record)

	return writeDocument(fp.historyPath(), records)
}
