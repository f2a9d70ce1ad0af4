package services_test

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/caseflow/caseflow/pkg/models"
	"github.com/caseflow/caseflow/pkg/persistence/file"
	"github.com/caseflow/caseflow/pkg/registry"
	"github.com/caseflow/caseflow/pkg/services"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newDefinition(t *testing.T) (*services.Definition, *file.Persistence) {
	t.Helper()

	store, err := file.NewPersistence(t.TempDir())
	require.NoError(t, err)

	hooks := registry.NewRegistry(newLogger())
	registry.RegisterDefaultHooks(hooks)

	return services.NewDefinition(store, hooks, validator.New()), store
}

func groupStage(code string, sequence int) *models.StageDefinition {
	return &models.StageDefinition{
		Code:          code,
		Name:          code,
		SequenceOrder: sequence,
		Assignment:    models.AssignmentRule{Mechanism: models.MechanismGroup, Queue: "ops"},
	}
}

func createWorkflow(t *testing.T, service *services.Definition, code string) {
	t.Helper()

	_, err := service.Create(context.Background(), &models.WorkflowMeta{
		Code: code,
		Name: "Workflow " + code,
	})
	require.NoError(t, err)
}

func TestDefinition_CreateAndFetch(t *testing.T) {
	service, _ := newDefinition(t)
	ctx := context.Background()

	created, err := service.Create(ctx, &models.WorkflowMeta{
		Code: "loan_approval",
		Name: "Loan Approval",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, models.WorkflowStatusActive, created.Status, "status defaults to active")

	fetched, err := service.FetchByCode(ctx, "loan_approval")
	require.NoError(t, err)
	assert.Equal(t, created.ID, fetched.ID)
}

func TestDefinition_CreateDuplicateCode(t *testing.T) {
	service, _ := newDefinition(t)
	ctx := context.Background()

	createWorkflow(t, service, "loan_approval")

	_, err := service.Create(ctx, &models.WorkflowMeta{Code: "loan_approval", Name: "Again"})
	require.Error(t, err)
	assert.True(t, services.IsConflictError(err))
}

func TestDefinition_CreateInvalid(t *testing.T) {
	service, _ := newDefinition(t)

	_, err := service.Create(context.Background(), &models.WorkflowMeta{Code: "x", Name: "ab"})
	require.Error(t, err)
	assert.True(t, services.IsValidationError(err))
}

func TestDefinition_FetchUnknown(t *testing.T) {
	service, _ := newDefinition(t)

	_, err := service.FetchByCode(context.Background(), "unknown")
	assert.ErrorIs(t, err, services.ErrWorkflowNotFound)
}

func TestDefinition_UpdatePreservesIdentity(t *testing.T) {
	service, _ := newDefinition(t)
	ctx := context.Background()

	created, err := service.Create(ctx, &models.WorkflowMeta{Code: "loan_approval", Name: "Loan Approval"})
	require.NoError(t, err)

	updated, err := service.Update(ctx, "loan_approval", &models.WorkflowMeta{
		Code: "attempted_rename",
		Name: "Loan Approval v2",
	})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "loan_approval", updated.Code, "code is immutable")
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	assert.Equal(t, "Loan Approval v2", updated.Name)
}

func TestDefinition_SaveStages(t *testing.T) {
	service, _ := newDefinition(t)
	ctx := context.Background()

	createWorkflow(t, service, "loan_approval")

	stages := []*models.StageDefinition{
		groupStage("intake", 1),
		{
			Code:          "review",
			Name:          "Review",
			SequenceOrder: 2,
			PostEntryHook: "notifyAssignee",
			PreExitHook:   "validateStageOutcome",
			Assignment:    models.AssignmentRule{Mechanism: models.MechanismSticky, Role: "REVIEWER"},
		},
	}
	require.NoError(t, service.SaveStages(ctx, "loan_approval", stages))

	loaded, err := service.StagesByWorkflow(ctx, "loan_approval")
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, "loan_approval", loaded[0].WorkflowCode)
}

func TestDefinition_SaveStages_EmptyList(t *testing.T) {
	service, _ := newDefinition(t)
	createWorkflow(t, service, "loan_approval")

	err := service.SaveStages(context.Background(), "loan_approval", nil)
	assert.ErrorIs(t, err, services.ErrStagesRequired)
}

func TestDefinition_SaveStages_DuplicateCode(t *testing.T) {
	service, _ := newDefinition(t)
	createWorkflow(t, service, "loan_approval")

	err := service.SaveStages(context.Background(), "loan_approval", []*models.StageDefinition{
		groupStage("intake", 1),
		groupStage("intake", 2),
	})
	assert.ErrorIs(t, err, services.ErrDuplicateStageCode)
}

func TestDefinition_SaveStages_UnknownHook(t *testing.T) {
	service, _ := newDefinition(t)
	createWorkflow(t, service, "loan_approval")

	stage := groupStage("intake", 1)
	stage.PreEntryHook = "launchMissiles"

	err := service.SaveStages(context.Background(), "loan_approval", []*models.StageDefinition{stage})
	assert.ErrorIs(t, err, services.ErrUnknownHook)
}

func TestDefinition_SaveStages_HookWrongEvent(t *testing.T) {
	service, _ := newDefinition(t)
	createWorkflow(t, service, "loan_approval")

	// notifyAssignee only supports the create event
	stage := groupStage("intake", 1)
	stage.PostExitHook = "notifyAssignee"

	err := service.SaveStages(context.Background(), "loan_approval", []*models.StageDefinition{stage})
	assert.ErrorIs(t, err, services.ErrHookEventUnsupported)
}

func TestDefinition_SaveStages_InvalidAssignmentRule(t *testing.T) {
	service, _ := newDefinition(t)
	createWorkflow(t, service, "loan_approval")

	stage := groupStage("intake", 1)
	stage.Assignment = models.AssignmentRule{Mechanism: models.MechanismRoundRobin}

	err := service.SaveStages(context.Background(), "loan_approval", []*models.StageDefinition{stage})
	require.Error(t, err)
	assert.ErrorIs(t, err, services.ErrInvalidAssignmentRule)
}

func TestDefinition_SaveStages_ParallelGroupSplit(t *testing.T) {
	service, _ := newDefinition(t)
	createWorkflow(t, service, "loan_approval")

	first := groupStage("credit_check", 1)
	first.ParallelGroup = "checks"
	middle := groupStage("manual_step", 2)
	last := groupStage("fraud_check", 3)
	last.ParallelGroup = "checks"

	err := service.SaveStages(context.Background(), "loan_approval", []*models.StageDefinition{first, middle, last})
	assert.ErrorIs(t, err, services.ErrParallelGroupNotAdjacent)
}

func TestDefinition_SaveStages_AdjacentParallelGroupAllowed(t *testing.T) {
	service, _ := newDefinition(t)
	createWorkflow(t, service, "loan_approval")

	first := groupStage("credit_check", 1)
	first.ParallelGroup = "checks"
	second := groupStage("fraud_check", 2)
	second.ParallelGroup = "checks"

	err := service.SaveStages(context.Background(), "loan_approval", []*models.StageDefinition{first, second, groupStage("review", 3)})
	assert.NoError(t, err)
}

func TestDefinition_SaveStages_ParallelAdjacencyIgnoresInputOrder(t *testing.T) {
	service, _ := newDefinition(t)
	createWorkflow(t, service, "loan_approval")

	// Submitted out of sequence order: the group is contiguous once sorted.
	first := groupStage("credit_check", 2)
	first.ParallelGroup = "checks"
	second := groupStage("fraud_check", 3)
	second.ParallelGroup = "checks"

	err := service.SaveStages(context.Background(), "loan_approval", []*models.StageDefinition{second, groupStage("intake", 1), first})
	assert.NoError(t, err)
}

func TestDefinition_SaveStages_NestedWorkflowMissing(t *testing.T) {
	service, _ := newDefinition(t)
	createWorkflow(t, service, "loan_approval")

	stage := groupStage("verification", 1)
	stage.NestedWorkflowCode = "kyc_check"

	err := service.SaveStages(context.Background(), "loan_approval", []*models.StageDefinition{stage})
	assert.ErrorIs(t, err, services.ErrNestedWorkflowNotFound)
}

func TestDefinition_SaveStages_SelfReferenceRejected(t *testing.T) {
	service, _ := newDefinition(t)
	createWorkflow(t, service, "loan_approval")

	stage := groupStage("verification", 1)
	stage.NestedWorkflowCode = "loan_approval"

	err := service.SaveStages(context.Background(), "loan_approval", []*models.StageDefinition{stage})
	assert.ErrorIs(t, err, services.ErrNestedWorkflowCycle)
}

func TestDefinition_SaveStages_CrossWorkflowCycleRejected(t *testing.T) {
	service, _ := newDefinition(t)
	ctx := context.Background()

	createWorkflow(t, service, "loan_approval")
	createWorkflow(t, service, "kyc_check")

	nested := groupStage("kyc", 1)
	nested.NestedWorkflowCode = "kyc_check"
	require.NoError(t, service.SaveStages(ctx, "loan_approval", []*models.StageDefinition{nested}))

	back := groupStage("loan", 1)
	back.NestedWorkflowCode = "loan_approval"

	err := service.SaveStages(ctx, "kyc_check", []*models.StageDefinition{back})
	assert.ErrorIs(t, err, services.ErrNestedWorkflowCycle)
}

func TestDefinition_HealthCheck(t *testing.T) {
	service, _ := newDefinition(t)

	message, healthy := service.HealthCheck(context.Background())
	assert.True(t, healthy)
	assert.Contains(t, message, "healthy")
}
