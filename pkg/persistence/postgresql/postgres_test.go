package postgresql_test

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/caseflow/caseflow/pkg/models"
	"github.com/caseflow/caseflow/pkg/persistence"
	"github.com/caseflow/caseflow/pkg/persistence/postgresql"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

var postgresContainer *postgres.PostgresContainer

func dropDb(ctx context.Context, t *testing.T, databaseURL string) {
	t.Helper()

	db, err := sql.Open("postgres", databaseURL)
	require.NoError(t, err)

	// Drop tables in reverse dependency order (children first, parents last)
	for _, table := range []string{
		"task_executions", "leaves", "holidays",
		"authority_assignments", "products", "business_sub_segments", "business_segments", "regions",
		"deployments", "workflow_stages", "workflows", "schema_migrations",
	} {
		_, err = db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table+" CASCADE")
		require.NoError(t, err)
	}

	err = db.Close()
	require.NoError(t, err)
}

func setupTestDB(t *testing.T) (*postgresql.Persistence, context.Context, string) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)

	if postgresContainer == nil || !postgresContainer.IsRunning() {
		var err error

		postgresContainer, err = postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("caseflow_test"),
			postgres.WithUsername("caseflow"),
			postgres.WithPassword("caseflow"),
			postgres.BasicWaitStrategies(),
		)
		require.NoError(t, err)
	}

	databaseURL, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	dropDb(ctx, t, databaseURL)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	store, err := postgresql.NewPersistence(ctx, logger, databaseURL)
	require.NoError(t, err)

	t.Cleanup(func() {
		dropDb(ctx, t, databaseURL)

		err = store.Close(ctx)
		require.NoError(t, err)

		cancel()
	})

	return store, ctx, databaseURL
}

func TestNewPersistence_Migrations(t *testing.T) {
	_, ctx, databaseURL := setupTestDB(t)

	db, err := sql.Open("postgres", databaseURL)
	require.NoError(t, err)

	defer func() {
		err := db.Close()
		require.NoError(t, err)
	}()

	var exists bool

	for _, table := range []string{"workflows", "workflow_stages", "regions", "authority_assignments", "holidays", "task_executions"} {
		err = db.QueryRowContext(ctx, `SELECT EXISTS (SELECT FROM
information_schema.tables WHERE table_name = $1)`, table).Scan(&exists)
		require.NoError(t, err)
		assert.True(t, exists, "%s table should exist", table)
	}

	var version int

	err = db.QueryRowContext(ctx, "SELECT MAX(version) FROM schema_migrations").Scan(&version)
	require.NoError(t, err)
	assert.Equal(t, 3, version)
}

func TestNewPersistence_HealthCheck(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	err := p.HealthCheck(ctx)
	assert.NoError(t, err)
}

func TestNewPersistence_WorkflowLifecycle(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	workflow := &models.WorkflowMeta{
		Code:   "loan_approval",
		Name:   "Loan Approval",
		Status: models.WorkflowStatusActive,
	}
	require.NoError(t, p.SaveWorkflow(ctx, workflow))
	assert.NotEmpty(t, workflow.ID)

	loaded, err := p.WorkflowByCode(ctx, "loan_approval")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "Loan Approval", loaded.Name)
	assert.Equal(t, models.WorkflowStatusActive, loaded.Status)

	missing, err := p.WorkflowByCode(ctx, "unknown")
	require.NoError(t, err)
	assert.Nil(t, missing)

	workflow.Name = "Loan Approval v2"
	require.NoError(t, p.SaveWorkflow(ctx, workflow))

	updated, err := p.WorkflowByCode(ctx, "loan_approval")
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, "Loan Approval v2", updated.Name)

	require.NoError(t, p.DeleteWorkflow(ctx, "loan_approval"))

	deleted, err := p.WorkflowByCode(ctx, "loan_approval")
	require.NoError(t, err)
	assert.Nil(t, deleted, "soft deleted workflows are invisible to lookups")

	err = p.DeleteWorkflow(ctx, "loan_approval")
	assert.True(t, persistence.IsWorkflowNotFound(err))
}

func TestNewPersistence_SaveAndRetrieveStages(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	require.NoError(t, p.SaveWorkflow(ctx, &models.WorkflowMeta{
		Code:   "loan_approval",
		Name:   "Loan Approval",
		Status: models.WorkflowStatusActive,
	}))

	stages := []*models.StageDefinition{
		{
			WorkflowCode:  "loan_approval",
			Code:          "review",
			Name:          "Review",
			SequenceOrder: 2,
			SLADays:       1.5,
			Assignment:    models.AssignmentRule{Mechanism: models.MechanismSticky, Role: "REVIEWER", Sticky: true},
		},
		{
			WorkflowCode:  "loan_approval",
			Code:          "intake",
			Name:          "Intake",
			SequenceOrder: 1,
			Assignment:    models.AssignmentRule{Mechanism: models.MechanismGroup, Queue: "ops"},
		},
	}
	require.NoError(t, p.SaveStages(ctx, "loan_approval", stages))

	loaded, err := p.StagesByWorkflow(ctx, "loan_approval")
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, "intake", loaded[0].Code, "stages come back in sequence order")
	assert.Equal(t, "review", loaded[1].Code)
	assert.InDelta(t, 1.5, loaded[1].SLADays, 0.001)

	rule, err := p.StageAssignmentRule(ctx, "loan_approval", "review")
	require.NoError(t, err)
	require.NotNil(t, rule)
	assert.Equal(t, models.MechanismSticky, rule.Mechanism)
	assert.Equal(t, "REVIEWER", rule.Role)
	assert.True(t, rule.Sticky)

	// Saving again replaces the whole stage list
	require.NoError(t, p.SaveStages(ctx, "loan_approval", stages[:1]))

	replaced, err := p.StagesByWorkflow(ctx, "loan_approval")
	require.NoError(t, err)
	assert.Len(t, replaced, 1)

	err = p.SaveStages(ctx, "unknown", stages)
	assert.True(t, persistence.IsWorkflowNotFound(err))
}

func TestNewPersistence_Deployments(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	first := &models.Deployment{
		WorkflowCode: "loan_approval",
		NodeCount:    5,
		EdgeCount:    6,
		Diagnostics:  []string{"unknown target 'foo' for action on stage 'review'"},
	}
	require.NoError(t, p.SaveDeployment(ctx, first))
	assert.NotEmpty(t, first.ID)

	second := &models.Deployment{
		WorkflowCode: "loan_approval",
		NodeCount:    7,
		EdgeCount:    9,
		DeployedAt:   first.DeployedAt.Add(time.Minute),
	}
	require.NoError(t, p.SaveDeployment(ctx, second))

	deployments, err := p.DeploymentsByWorkflow(ctx, "loan_approval")
	require.NoError(t, err)
	require.Len(t, deployments, 2)
	assert.Equal(t, second.ID, deployments[0].ID, "newest deployment first")
	assert.Len(t, deployments[1].Diagnostics, 1)
}

func TestNewPersistence_RegionsAndAuthority(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	global := &models.RegionNode{Name: "Global", Type: models.RegionTypeGlobal, Path: "/1/"}
	require.NoError(t, p.SaveRegion(ctx, global))
	assert.NotZero(t, global.ID)

	india := &models.RegionNode{Name: "India", Type: models.RegionTypeCountry, ParentID: &global.ID, Path: "/1/2/"}
	require.NoError(t, p.SaveRegion(ctx, india))

	byName, err := p.RegionByName(ctx, "India")
	require.NoError(t, err)
	require.NotNil(t, byName)
	assert.Equal(t, india.ID, byName.ID)
	require.NotNil(t, byName.ParentID)
	assert.Equal(t, global.ID, *byName.ParentID)

	byID, err := p.RegionByID(ctx, global.ID)
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Nil(t, byID.ParentID)

	missing, err := p.RegionByName(ctx, "Atlantis")
	require.NoError(t, err)
	assert.Nil(t, missing)

	limit := int64(100000)
	assignment := &models.AuthorityAssignment{
		EmployeeID:    "approver-1",
		RoleCode:      "APPROVER",
		ScopeRegionID: india.ID,
		ApprovalLimit: &limit,
		CurrencyCode:  "INR",
	}
	require.NoError(t, p.SaveAuthorityAssignment(ctx, assignment))
	assert.NotZero(t, assignment.ID)

	matched, err := p.AssignmentsByRoleAndRegions(ctx, "APPROVER", []int64{global.ID, india.ID})
	require.NoError(t, err)
	require.Len(t, matched, 1)
	assert.Equal(t, "approver-1", matched[0].EmployeeID)
	require.NotNil(t, matched[0].ApprovalLimit)
	assert.Equal(t, limit, *matched[0].ApprovalLimit)
	assert.Equal(t, "INR", matched[0].CurrencyCode)

	none, err := p.AssignmentsByRoleAndRegions(ctx, "CHECKER", []int64{india.ID})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestNewPersistence_Catalog(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	segment := &models.BusinessSegment{Name: "Retail"}
	require.NoError(t, p.SaveSegment(ctx, segment))
	assert.NotZero(t, segment.ID)

	subSegment := &models.BusinessSubSegment{Name: "Consumer Lending", SegmentID: segment.ID}
	require.NoError(t, p.SaveSubSegment(ctx, subSegment))

	product := &models.Product{Name: "Home Loan", SubSegmentID: subSegment.ID, SegmentID: segment.ID}
	require.NoError(t, p.SaveProduct(ctx, product))

	loaded, err := p.ProductByName(ctx, "Home Loan")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, subSegment.ID, loaded.SubSegmentID)
	assert.Equal(t, segment.ID, loaded.SegmentID)

	missingSegment, err := p.SegmentByName(ctx, "Wholesale")
	require.NoError(t, err)
	assert.Nil(t, missingSegment)

	missingSub, err := p.SubSegmentByName(ctx, "SME Lending")
	require.NoError(t, err)
	assert.Nil(t, missingSub)
}

func TestNewPersistence_HolidaysAndLeaves(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	holiday := &models.Holiday{
		Date:   time.Date(2026, time.January, 26, 0, 0, 0, 0, time.UTC),
		Region: "IN",
		Label:  "Republic Day",
	}
	require.NoError(t, p.SaveHoliday(ctx, holiday))
	assert.NotZero(t, holiday.ID)

	exists, err := p.HolidayExists(ctx, holiday.Date, "IN")
	require.NoError(t, err)
	assert.True(t, exists)

	otherRegion, err := p.HolidayExists(ctx, holiday.Date, "US")
	require.NoError(t, err)
	assert.False(t, otherRegion)

	byRegion, err := p.HolidaysByRegion(ctx, "IN")
	require.NoError(t, err)
	require.Len(t, byRegion, 1)
	assert.Equal(t, "Republic Day", byRegion[0].Label)

	require.NoError(t, p.DeleteHoliday(ctx, holiday.ID))
	assert.ErrorIs(t, p.DeleteHoliday(ctx, holiday.ID), persistence.ErrHolidayNotFound)

	leave := &models.Leave{
		UserID:           "alice",
		From:             time.Now().Add(-time.Hour).UTC(),
		To:               time.Now().Add(time.Hour).UTC(),
		SubstituteUserID: "bob",
		Active:           true,
	}
	require.NoError(t, p.SaveLeave(ctx, leave))
	assert.NotZero(t, leave.ID)

	leaves, err := p.LeavesByUser(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, leaves, 1)
	assert.Equal(t, "bob", leaves[0].SubstituteUserID)
	assert.True(t, leaves[0].Active)

	require.NoError(t, p.DeleteLeave(ctx, leave.ID))
	assert.ErrorIs(t, p.DeleteLeave(ctx, leave.ID), persistence.ErrLeaveNotFound)
}

func TestNewPersistence_TaskHistory(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	base := time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)
	records := []*models.TaskExecutionRecord{
		{WorkflowCode: "loan_approval", StageCode: "review", CaseID: "case-1", Assignee: "alice", CompletedAt: base},
		{WorkflowCode: "loan_approval", StageCode: "review", CaseID: "case-2", Assignee: "bob", CompletedAt: base.Add(time.Hour)},
		{WorkflowCode: "loan_approval", StageCode: "intake", CaseID: "case-1", Assignee: "carol", CompletedAt: base.Add(2 * time.Hour)},
	}
	for _, record := range records {
		require.NoError(t, p.AppendTaskExecution(ctx, record))
	}

	last, err := p.LastCompletedTask(ctx, "loan_approval", "review")
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, "bob", last.Assignee)

	none, err := p.LastCompletedTask(ctx, "loan_approval", "unknown")
	require.NoError(t, err)
	assert.Nil(t, none)

	history, err := p.CaseHistory(ctx, "case-1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "carol", history[0].Assignee, "most recent first")
	assert.Equal(t, "alice", history[1].Assignee)
}
