// Package postgresql provides the PostgreSQL persistence implementation.
package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/caseflow/caseflow/pkg/models"
	"github.com/caseflow/caseflow/pkg/persistence"
	"github.com/caseflow/caseflow/pkg/persistence/sqlbase"
)

var _ persistence.Persistence = (*Persistence)(nil)

// Persistence implements the persistence layer for PostgreSQL.
type Persistence struct {
	db            *sql.DB
	logger        *slog.Logger
	workflowRepo  *WorkflowRepository
	referenceRepo *ReferenceRepository
	calendarRepo  *CalendarRepository
	historyRepo   *HistoryRepository
}

// NewPersistence connects, runs migrations and returns the PostgreSQL
// persistence layer.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	err = database.PingContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	migrationManager := sqlbase.NewMigrationManager(logger, database, migrations())

	err = migrationManager.RunMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Persistence{
		db:            database,
		logger:        logger,
		workflowRepo:  NewWorkflowRepository(database, logger),
		referenceRepo: NewReferenceRepository(database, logger),
		calendarRepo:  NewCalendarRepository(database, logger),
		historyRepo:   NewHistoryRepository(database, logger),
	}, nil
}

// Close closes the database connection.
func (p *Persistence) Close(_ context.Context) error {
	if p.db != nil {
		err := p.db.Close()
		if err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}

// HealthCheck verifies the database connection is healthy.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

func (p *Persistence) Workflows(ctx context.Context) ([]*models.WorkflowMeta, error) {
	return p.workflowRepo.GetAll(ctx)
}

func (p *Persistence) WorkflowByCode(ctx context.Context, code string) (*models.WorkflowMeta, error) {
	return p.workflowRepo.GetByCode(ctx, code)
}

func (p *Persistence) SaveWorkflow(ctx context.Context, workflow *models.WorkflowMeta) error {
	return p.workflowRepo.Save(ctx, workflow)
}

func (p *Persistence) DeleteWorkflow(ctx context.Context, code string) error {
	return p.workflowRepo.Delete(ctx, code)
}

func (p *Persistence) StagesByWorkflow(ctx context.Context, workflowCode string) ([]*models.StageDefinition, error) {
	return p.workflowRepo.StagesByWorkflow(ctx, workflowCode)
}

func (p *Persistence) StageByCode(ctx context.Context, workflowCode, stageCode string) (*models.StageDefinition, error) {
	return p.workflowRepo.StageByCode(ctx, workflowCode, stageCode)
}

func (p *Persistence) SaveStages(ctx context.Context, workflowCode string, stages []*models.StageDefinition) error {
	return p.workflowRepo.SaveStages(ctx, workflowCode, stages)
}

func (p *Persistence) StageAssignmentRule(ctx context.Context, workflowCode, stageCode string) (*models.AssignmentRule, error) {
	stage, err := p.workflowRepo.StageByCode(ctx, workflowCode, stageCode)
	if err != nil || stage == nil {
		return nil, err
	}

	rule := stage.Assignment

	return &rule, nil
}

func (p *Persistence) SaveDeployment(ctx context.Context, deployment *models.Deployment) error {
	return p.workflowRepo.SaveDeployment(ctx, deployment)
}

func (p *Persistence) DeploymentsByWorkflow(ctx context.Context, workflowCode string) ([]*models.Deployment, error) {
	return p.workflowRepo.DeploymentsByWorkflow(ctx, workflowCode)
}

func (p *Persistence) Regions(ctx context.Context) ([]*models.RegionNode, error) {
	return p.referenceRepo.Regions(ctx)
}

func (p *Persistence) RegionByName(ctx context.Context, name string) (*models.RegionNode, error) {
	return p.referenceRepo.RegionByName(ctx, name)
}

func (p *Persistence) RegionByID(ctx context.Context, id int64) (*models.RegionNode, error) {
	return p.referenceRepo.RegionByID(ctx, id)
}

func (p *Persistence) SaveRegion(ctx context.Context, region *models.RegionNode) error {
	return p.referenceRepo.SaveRegion(ctx, region)
}

func (p *Persistence) SegmentByName(ctx context.Context, name string) (*models.BusinessSegment, error) {
	return p.referenceRepo.SegmentByName(ctx, name)
}

func (p *Persistence) SubSegmentByName(ctx context.Context, name string) (*models.BusinessSubSegment, error) {
	return p.referenceRepo.SubSegmentByName(ctx, name)
}

func (p *Persistence) ProductByName(ctx context.Context, name string) (*models.Product, error) {
	return p.referenceRepo.ProductByName(ctx, name)
}

func (p *Persistence) SaveSegment(ctx context.Context, segment *models.BusinessSegment) error {
	return p.referenceRepo.SaveSegment(ctx, segment)
}

func (p *Persistence) SaveSubSegment(ctx context.Context, subSegment *models.BusinessSubSegment) error {
	return p.referenceRepo.SaveSubSegment(ctx, subSegment)
}

func (p *Persistence) SaveProduct(ctx context.Context, product *models.Product) error {
	return p.referenceRepo.SaveProduct(ctx, product)
}

func (p *Persistence) AssignmentsByRoleAndRegions(ctx context.Context, roleCode string, regionIDs []int64) ([]*models.AuthorityAssignment, error) {
	return p.referenceRepo.AssignmentsByRoleAndRegions(ctx, roleCode, regionIDs)
}

func (p *Persistence) SaveAuthorityAssignment(ctx context.Context, assignment *models.AuthorityAssignment) error {
	return p.referenceRepo.SaveAuthorityAssignment(ctx, assignment)
}

func (p *Persistence) HolidaysByRegion(ctx context.Context, region string) ([]*models.Holiday, error) {
	return p.calendarRepo.HolidaysByRegion(ctx, region)
}

func (p *Persistence) HolidayExists(ctx context.Context, date time.Time, region string) (bool, error) {
	return p.calendarRepo.HolidayExists(ctx, date, region)
}

func (p *Persistence) SaveHoliday(ctx context.Context, holiday *models.Holiday) error {
	return p.calendarRepo.SaveHoliday(ctx, holiday)
}

func (p *Persistence) DeleteHoliday(ctx context.Context, id int64) error {
	return p.calendarRepo.DeleteHoliday(ctx, id)
}

func (p *Persistence) LeavesByUser(ctx context.Context, userID string) ([]*models.Leave, error) {
	return p.calendarRepo.LeavesByUser(ctx, userID)
}

func (p *Persistence) SaveLeave(ctx context.Context, leave *models.Leave) error {
	return p.calendarRepo.SaveLeave(ctx, leave)
}

func (p *Persistence) DeleteLeave(ctx context.Context, id int64) error {
	return p.calendarRepo.DeleteLeave(ctx, id)
}

func (p *Persistence) LastCompletedTask(ctx context.Context, workflowCode, stageCode string) (*models.TaskExecutionRecord, error) {
	return p.historyRepo.LastCompletedTask(ctx, workflowCode, stageCode)
}

func (p *Persistence) CaseHistory(ctx context.Context, caseID string) ([]*models.TaskExecutionRecord, error) {
	return p.historyRepo.CaseHistory(ctx, caseID)
}

// AppendTaskExecution is not part of the persistence interface; the
// execution engine writes this table. Kept for development and tests.
func (p *Persistence) AppendTaskExecution(ctx context.Context, record *models.TaskExecutionRecord) error {
	return p.historyRepo.AppendTaskExecution(ctx, record)
}
