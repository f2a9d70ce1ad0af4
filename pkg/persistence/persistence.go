// Package persistence provides the data storage abstraction for workflow
// definitions, reference data and calendar entries.
package persistence

import (
	"context"
	"time"

	"github.com/caseflow/caseflow/pkg/models"
)

// Persistence is the full storage surface. Lookups return nil without an
// error when the entity does not exist; callers that need a hard failure
// wrap the nil with the matching sentinel error.
//
// Task execution records are owned by the execution engine and are
// read-only here.
type Persistence interface {
	// Workflow definitions.
	Workflows(ctx context.Context) ([]*models.WorkflowMeta, error)
	WorkflowByCode(ctx context.Context, code string) (*models.WorkflowMeta, error)
	SaveWorkflow(ctx context.Context, workflow *models.WorkflowMeta) error
	DeleteWorkflow(ctx context.Context, code string) error

	// Stage definitions, ordered by sequence. SaveStages replaces the
	// workflow's whole stage list atomically.
	StagesByWorkflow(ctx context.Context, workflowCode string) ([]*models.StageDefinition, error)
	StageByCode(ctx context.Context, workflowCode, stageCode string) (*models.StageDefinition, error)
	SaveStages(ctx context.Context, workflowCode string, stages []*models.StageDefinition) error
	StageAssignmentRule(ctx context.Context, workflowCode, stageCode string) (*models.AssignmentRule, error)

	// Deployments of compiled graphs.
	SaveDeployment(ctx context.Context, deployment *models.Deployment) error
	DeploymentsByWorkflow(ctx context.Context, workflowCode string) ([]*models.Deployment, error)

	// Region hierarchy and product catalog reference data.
	Regions(ctx context.Context) ([]*models.RegionNode, error)
	RegionByName(ctx context.Context, name string) (*models.RegionNode, error)
	RegionByID(ctx context.Context, id int64) (*models.RegionNode, error)
	SaveRegion(ctx context.Context, region *models.RegionNode) error
	SegmentByName(ctx context.Context, name string) (*models.BusinessSegment, error)
	SubSegmentByName(ctx context.Context, name string) (*models.BusinessSubSegment, error)
	ProductByName(ctx context.Context, name string) (*models.Product, error)
	SaveSegment(ctx context.Context, segment *models.BusinessSegment) error
	SaveSubSegment(ctx context.Context, subSegment *models.BusinessSubSegment) error
	SaveProduct(ctx context.Context, product *models.Product) error

	// Authority matrix assignments.
	AssignmentsByRoleAndRegions(ctx context.Context, roleCode string, regionIDs []int64) ([]*models.AuthorityAssignment, error)
	SaveAuthorityAssignment(ctx context.Context, assignment *models.AuthorityAssignment) error

	// Calendar entries.
	HolidaysByRegion(ctx context.Context, region string) ([]*models.Holiday, error)
	HolidayExists(ctx context.Context, date time.Time, region string) (bool, error)
	SaveHoliday(ctx context.Context, holiday *models.Holiday) error
	DeleteHoliday(ctx context.Context, id int64) error
	LeavesByUser(ctx context.Context, userID string) ([]*models.Leave, error)
	SaveLeave(ctx context.Context, leave *models.Leave) error
	DeleteLeave(ctx context.Context, id int64) error

	// Task execution history, written by the execution engine.
	LastCompletedTask(ctx context.Context, workflowCode, stageCode string) (*models.TaskExecutionRecord, error)
	CaseHistory(ctx context.Context, caseID string) ([]*models.TaskExecutionRecord, error)

	HealthCheck(ctx context.Context) error

	Close(ctx context.Context) error
}
