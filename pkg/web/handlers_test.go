package web_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/caseflow/caseflow/pkg/assignment"
	"github.com/caseflow/caseflow/pkg/calendar"
	"github.com/caseflow/caseflow/pkg/compiler"
	"github.com/caseflow/caseflow/pkg/eventbus"
	"github.com/caseflow/caseflow/pkg/events"
	"github.com/caseflow/caseflow/pkg/matrix"
	"github.com/caseflow/caseflow/pkg/models"
	"github.com/caseflow/caseflow/pkg/persistence/file"
	"github.com/caseflow/caseflow/pkg/registry"
	"github.com/caseflow/caseflow/pkg/services"
	"github.com/caseflow/caseflow/pkg/web"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubDirectory struct {
	members map[string][]string
}

func (d stubDirectory) RoleMembers(_ context.Context, role string) ([]string, error) {
	return d.members[role], nil
}

type capturingPublisher struct {
	published []eventbus.Event
	err       error
}

func (p *capturingPublisher) Publish(_ context.Context, _ string, event eventbus.Event) error {
	if p.err != nil {
		return p.err
	}

	p.published = append(p.published, event)

	return nil
}

func setupTestApp(t *testing.T) (*fiber.App, *services.Definition, *file.Persistence) {
	t.Helper()

	return setupTestAppWithPublisher(t, nil)
}

func setupTestAppWithPublisher(t *testing.T, publisher eventbus.EventPublisher) (*fiber.App, *services.Definition, *file.Persistence) {
	t.Helper()

	store, err := file.NewPersistence(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close(context.Background()) })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	hookRegistry := registry.NewRegistry(logger)
	registry.RegisterDefaultHooks(hookRegistry)
	validate := validator.New(validator.WithRequiredStructEnabled())

	definitionService := services.NewDefinition(store, hookRegistry, validate)
	deploymentService := services.NewDeployment(store, compiler.New(logger), nil, logger)
	calendarService := calendar.NewService(store, store, logger)
	matrixResolver := matrix.NewResolver(store, store, store, logger)
	directory := stubDirectory{members: map[string][]string{
		"underwriters": {"u2", "u1"},
	}}
	engine := assignment.NewEngine(directory, store, store, calendarService, matrixResolver, logger)

	handlers := web.NewAPIHandlers(
		definitionService,
		deploymentService,
		engine,
		matrixResolver,
		calendarService,
		store,
		publisher,
		validate,
		hookRegistry,
		logger,
	)

	app := fiber.New()

	w := app.Group("/workflows")
	w.Get("/", handlers.GetWorkflows)
	w.Post("/", handlers.CreateWorkflow)
	w.Get("/:code", handlers.GetWorkflow)
	w.Patch("/:code", handlers.UpdateWorkflow)
	w.Delete("/:code", handlers.DeleteWorkflow)
	w.Get("/:code/stages", handlers.GetStages)
	w.Put("/:code/stages", handlers.SaveStages)
	w.Post("/:code/compile", handlers.CompileWorkflow)
	w.Get("/:code/graph", handlers.GetGraph)
	w.Get("/:code/deployments", handlers.GetDeployments)

	app.Post("/assignments/resolve", handlers.ResolveAssignment)
	app.Post("/matrix/resolve", handlers.ResolveMatrix)

	cal := app.Group("/calendar")
	cal.Get("/business-day", handlers.GetBusinessDay)
	cal.Get("/sla-due-date", handlers.GetSLADueDate)
	cal.Get("/effective-assignee/:userId", handlers.GetEffectiveAssignee)
	cal.Get("/holidays", handlers.GetHolidays)
	cal.Post("/holidays", handlers.CreateHoliday)
	cal.Delete("/holidays/:id", handlers.DeleteHoliday)
	cal.Get("/leaves/:userId", handlers.GetLeaves)
	cal.Post("/leaves", handlers.CreateLeave)
	cal.Delete("/leaves/:id", handlers.DeleteLeave)

	app.Get("/regions", handlers.GetRegions)
	app.Post("/regions", handlers.CreateRegion)
	app.Post("/authority-assignments", handlers.CreateAuthorityAssignment)

	app.Get("/health", handlers.HealthCheck)

	return app, definitionService, store
}

func doJSON(t *testing.T, app *fiber.App, method, url string, payload any) *http.Response {
	t.Helper()

	var body []byte

	switch v := payload.(type) {
	case nil:
	case string:
		body = []byte(v)
	default:
		var err error

		body, err = json.Marshal(payload)
		require.NoError(t, err)
	}

	req := httptest.NewRequest(method, url, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	return resp
}

func decodeBody(t *testing.T, resp *http.Response, target any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(target))
}

func seedWorkflow(t *testing.T, definition *services.Definition, code string) {
	t.Helper()

	_, err := definition.Create(context.Background(), &models.WorkflowMeta{
		Code: code,
		Name: "Loan Approval",
	})
	require.NoError(t, err)
}

func groupStageInput(code string, seq int) web.StageInput {
	return web.StageInput{
		Code:          code,
		Name:          "Stage " + code,
		SequenceOrder: seq,
		Assignment:    json.RawMessage(`{"mechanism":"GROUP","queue":"ops_intake"}`),
	}
}

func TestAPIHandlers_CreateWorkflow(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		requestBody    any
		seed           bool
		expectedStatus int
		validateResult func(t *testing.T, body []byte)
	}{
		{
			name: "successful creation",
			requestBody: web.CreateWorkflowRequest{
				Code:           "loan_approval",
				Name:           "Loan Approval",
				DefaultSLADays: 3,
			},
			expectedStatus: http.StatusCreated,
			validateResult: func(t *testing.T, body []byte) {
				t.Helper()

				var workflow models.WorkflowMeta
				require.NoError(t, json.Unmarshal(body, &workflow))
				assert.Equal(t, "loan_approval", workflow.Code)
				assert.Equal(t, models.WorkflowStatusActive, workflow.Status)
				assert.InDelta(t, 3.0, workflow.DefaultSLADays, 0.001)
				assert.NotEmpty(t, workflow.ID)
			},
		},
		{
			name: "validation error - missing code",
			requestBody: web.CreateWorkflowRequest{
				Name: "Loan Approval",
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "validation error - name too short",
			requestBody: web.CreateWorkflowRequest{
				Code: "loan_approval",
				Name: "Lo",
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "duplicate code",
			requestBody: web.CreateWorkflowRequest{
				Code: "loan_approval",
				Name: "Loan Approval",
			},
			seed:           true,
			expectedStatus: http.StatusConflict,
		},
		{
			name:           "invalid JSON",
			requestBody:    "not-json",
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			app, definition, _ := setupTestApp(t)

			if tt.seed {
				seedWorkflow(t, definition, "loan_approval")
			}

			resp := doJSON(t, app, http.MethodPost, "/workflows", tt.requestBody)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.validateResult != nil && resp.StatusCode == http.StatusCreated {
				body, err := io.ReadAll(resp.Body)
				require.NoError(t, err)
				tt.validateResult(t, body)
			}
		})
	}
}

func TestAPIHandlers_UpdateWorkflow(t *testing.T) {
	t.Parallel()

	t.Run("partial update keeps unset fields", func(t *testing.T) {
		t.Parallel()

		app, definition, _ := setupTestApp(t)
		seedWorkflow(t, definition, "loan_approval")

		name := "Consumer Loan Approval"
		resp := doJSON(t, app, http.MethodPatch, "/workflows/loan_approval", web.UpdateWorkflowRequest{Name: &name})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var workflow models.WorkflowMeta
		decodeBody(t, resp, &workflow)
		assert.Equal(t, "Consumer Loan Approval", workflow.Name)
		assert.Equal(t, "loan_approval", workflow.Code)
	})

	t.Run("workflow not found", func(t *testing.T) {
		t.Parallel()

		app, _, _ := setupTestApp(t)

		name := "New Name"
		resp := doJSON(t, app, http.MethodPatch, "/workflows/missing", web.UpdateWorkflowRequest{Name: &name})
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestAPIHandlers_DeleteWorkflow(t *testing.T) {
	t.Parallel()

	app, definition, _ := setupTestApp(t)
	seedWorkflow(t, definition, "loan_approval")

	resp := doJSON(t, app, http.MethodDelete, "/workflows/loan_approval", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = doJSON(t, app, http.MethodGet, "/workflows/loan_approval", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = doJSON(t, app, http.MethodDelete, "/workflows/loan_approval", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPIHandlers_SaveStages(t *testing.T) {
	t.Parallel()

	t.Run("saves and returns the stage list", func(t *testing.T) {
		t.Parallel()

		app, definition, _ := setupTestApp(t)
		seedWorkflow(t, definition, "loan_approval")

		review := groupStageInput("review", 2)
		review.Assignment = json.RawMessage(`{"mechanism":"ROUND_ROBIN","pool":"underwriters"}`)
		review.PostEntryHook = "notifyAssignee"

		resp := doJSON(t, app, http.MethodPut, "/workflows/loan_approval/stages", web.SaveStagesRequest{
			Stages: []web.StageInput{groupStageInput("intake", 1), review},
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var response struct {
			Stages []models.StageDefinition `json:"stages"`
		}

		decodeBody(t, resp, &response)
		require.Len(t, response.Stages, 2)
		assert.Equal(t, "intake", response.Stages[0].Code)
		assert.Equal(t, "review", response.Stages[1].Code)
		assert.Equal(t, models.MechanismRoundRobin, response.Stages[1].Assignment.Mechanism)
		assert.Equal(t, "underwriters", response.Stages[1].Assignment.Pool)
	})

	t.Run("rejects a rule missing its mechanism parameter", func(t *testing.T) {
		t.Parallel()

		app, definition, _ := setupTestApp(t)
		seedWorkflow(t, definition, "loan_approval")

		bad := groupStageInput("review", 1)
		bad.Assignment = json.RawMessage(`{"mechanism":"ROUND_ROBIN"}`)

		resp := doJSON(t, app, http.MethodPut, "/workflows/loan_approval/stages", web.SaveStagesRequest{
			Stages: []web.StageInput{bad},
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("rejects an unregistered hook", func(t *testing.T) {
		t.Parallel()

		app, definition, _ := setupTestApp(t)
		seedWorkflow(t, definition, "loan_approval")

		stage := groupStageInput("review", 1)
		stage.PostEntryHook = "launchMissiles"

		resp := doJSON(t, app, http.MethodPut, "/workflows/loan_approval/stages", web.SaveStagesRequest{
			Stages: []web.StageInput{stage},
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("rejects a split parallel group", func(t *testing.T) {
		t.Parallel()

		app, definition, _ := setupTestApp(t)
		seedWorkflow(t, definition, "loan_approval")

		first := groupStageInput("legal", 1)
		first.ParallelGroup = "checks"
		middle := groupStageInput("pricing", 2)
		last := groupStageInput("credit", 3)
		last.ParallelGroup = "checks"

		resp := doJSON(t, app, http.MethodPut, "/workflows/loan_approval/stages", web.SaveStagesRequest{
			Stages: []web.StageInput{first, middle, last},
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("unknown workflow", func(t *testing.T) {
		t.Parallel()

		app, _, _ := setupTestApp(t)

		resp := doJSON(t, app, http.MethodPut, "/workflows/missing/stages", web.SaveStagesRequest{
			Stages: []web.StageInput{groupStageInput("intake", 1)},
		})
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestAPIHandlers_CompileAndDeployments(t *testing.T) {
	t.Parallel()

	app, definition, store := setupTestApp(t)
	seedWorkflow(t, definition, "loan_approval")

	resp := doJSON(t, app, http.MethodPut, "/workflows/loan_approval/stages", web.SaveStagesRequest{
		Stages: []web.StageInput{groupStageInput("intake", 1), groupStageInput("review", 2)},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, app, http.MethodGet, "/workflows/loan_approval/graph", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var preview services.DeployResult
	decodeBody(t, resp, &preview)
	require.NotNil(t, preview.Graph)
	assert.NotEmpty(t, preview.Graph.Nodes)

	recorded, err := store.DeploymentsByWorkflow(context.Background(), "loan_approval")
	require.NoError(t, err)
	assert.Empty(t, recorded, "preview must not record a deployment")

	resp = doJSON(t, app, http.MethodPost, "/workflows/loan_approval/compile", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var deployed services.DeployResult
	decodeBody(t, resp, &deployed)
	require.NotNil(t, deployed.Deployment)
	assert.NotEmpty(t, deployed.Deployment.ID)

	resp = doJSON(t, app, http.MethodGet, "/workflows/loan_approval/deployments", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var history struct {
		Deployments []models.Deployment `json:"deployments"`
	}

	decodeBody(t, resp, &history)
	require.Len(t, history.Deployments, 1)
	assert.Equal(t, deployed.Deployment.ID, history.Deployments[0].ID)
}

func TestAPIHandlers_ResolveAssignment(t *testing.T) {
	t.Parallel()

	setupStages := func(t *testing.T, app *fiber.App, definition *services.Definition) {
		t.Helper()

		seedWorkflow(t, definition, "loan_approval")

		review := groupStageInput("review", 2)
		review.Assignment = json.RawMessage(`{"mechanism":"ROUND_ROBIN","pool":"underwriters"}`)

		resp := doJSON(t, app, http.MethodPut, "/workflows/loan_approval/stages", web.SaveStagesRequest{
			Stages: []web.StageInput{groupStageInput("intake", 1), review},
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	t.Run("group stage yields a candidate group", func(t *testing.T) {
		t.Parallel()

		app, definition, _ := setupTestApp(t)
		setupStages(t, app, definition)

		resp := doJSON(t, app, http.MethodPost, "/assignments/resolve", web.ResolveAssignmentRequest{
			WorkflowCode: "loan_approval",
			StageCode:    "intake",
			CaseID:       "case-1",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var response struct {
			Decision   assignment.Decision `json:"decision"`
			Unassigned bool                `json:"unassigned"`
			Mechanism  models.Mechanism    `json:"mechanism"`
		}

		decodeBody(t, resp, &response)
		assert.Equal(t, "ops_intake", response.Decision.CandidateGroup)
		assert.False(t, response.Unassigned)
		assert.Equal(t, models.MechanismGroup, response.Mechanism)
	})

	t.Run("round robin starts at the first pool member", func(t *testing.T) {
		t.Parallel()

		app, definition, _ := setupTestApp(t)
		setupStages(t, app, definition)

		resp := doJSON(t, app, http.MethodPost, "/assignments/resolve", web.ResolveAssignmentRequest{
			WorkflowCode: "loan_approval",
			StageCode:    "review",
			CaseID:       "case-1",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var response struct {
			Decision assignment.Decision `json:"decision"`
		}

		decodeBody(t, resp, &response)
		assert.Equal(t, "u1", response.Decision.Assignee)
	})

	t.Run("unknown stage", func(t *testing.T) {
		t.Parallel()

		app, definition, _ := setupTestApp(t)
		setupStages(t, app, definition)

		resp := doJSON(t, app, http.MethodPost, "/assignments/resolve", web.ResolveAssignmentRequest{
			WorkflowCode: "loan_approval",
			StageCode:    "missing",
			CaseID:       "case-1",
		})
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestAPIHandlers_ResolveAssignmentEvents(t *testing.T) {
	t.Parallel()

	setupStages := func(t *testing.T, app *fiber.App, definition *services.Definition) {
		t.Helper()

		seedWorkflow(t, definition, "loan_approval")

		review := groupStageInput("review", 2)
		review.Assignment = json.RawMessage(`{"mechanism":"ROUND_ROBIN","pool":"underwriters"}`)
		triage := groupStageInput("triage", 3)
		triage.Assignment = json.RawMessage(`{"mechanism":"MANUAL"}`)

		resp := doJSON(t, app, http.MethodPut, "/workflows/loan_approval/stages", web.SaveStagesRequest{
			Stages: []web.StageInput{groupStageInput("intake", 1), review, triage},
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resolve := func(t *testing.T, app *fiber.App, stageCode string) {
		t.Helper()

		resp := doJSON(t, app, http.MethodPost, "/assignments/resolve", web.ResolveAssignmentRequest{
			WorkflowCode: "loan_approval",
			StageCode:    stageCode,
			CaseID:       "case-1",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	t.Run("resolved stage publishes an assigned event", func(t *testing.T) {
		t.Parallel()

		publisher := &capturingPublisher{}
		app, definition, _ := setupTestAppWithPublisher(t, publisher)
		setupStages(t, app, definition)

		resolve(t, app, "review")

		require.Len(t, publisher.published, 1)

		assigned, ok := publisher.published[0].(events.TaskAssigned)
		require.True(t, ok)
		assert.Equal(t, events.TaskAssignedEvent, assigned.GetType())
		assert.Equal(t, "loan_approval", assigned.WorkflowCode)
		assert.Equal(t, "review", assigned.StageCode)
		assert.Equal(t, "case-1", assigned.CaseID)
		assert.Equal(t, "u1", assigned.Assignee)
		assert.Equal(t, string(models.MechanismRoundRobin), assigned.Mechanism)
	})

	t.Run("group stage publishes the candidate queue", func(t *testing.T) {
		t.Parallel()

		publisher := &capturingPublisher{}
		app, definition, _ := setupTestAppWithPublisher(t, publisher)
		setupStages(t, app, definition)

		resolve(t, app, "intake")

		require.Len(t, publisher.published, 1)

		assigned, ok := publisher.published[0].(events.TaskAssigned)
		require.True(t, ok)
		assert.Empty(t, assigned.Assignee)
		assert.Equal(t, "ops_intake", assigned.CandidateGroup)
	})

	t.Run("unresolved stage publishes an unassigned event", func(t *testing.T) {
		t.Parallel()

		publisher := &capturingPublisher{}
		app, definition, _ := setupTestAppWithPublisher(t, publisher)
		setupStages(t, app, definition)

		resolve(t, app, "triage")

		require.Len(t, publisher.published, 1)

		unassigned, ok := publisher.published[0].(events.TaskUnassigned)
		require.True(t, ok)
		assert.Equal(t, events.TaskUnassignedEvent, unassigned.GetType())
		assert.Equal(t, "triage", unassigned.StageCode)
		assert.Equal(t, "case-1", unassigned.CaseID)
		assert.Equal(t, string(models.MechanismManual), unassigned.Mechanism)
	})

	t.Run("publish failure does not fail the request", func(t *testing.T) {
		t.Parallel()

		publisher := &capturingPublisher{err: errors.New("broker unavailable")}
		app, definition, _ := setupTestAppWithPublisher(t, publisher)
		setupStages(t, app, definition)

		resolve(t, app, "review")
		assert.Empty(t, publisher.published)
	})
}

func TestAPIHandlers_ResolveMatrix(t *testing.T) {
	t.Parallel()

	app, _, _ := setupTestApp(t)

	resp := doJSON(t, app, http.MethodPost, "/regions", models.RegionNode{
		ID:   1,
		Name: "Germany",
		Type: models.RegionTypeCountry,
		Path: "/1/",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	limit := int64(500_000)
	resp = doJSON(t, app, http.MethodPost, "/authority-assignments", models.AuthorityAssignment{
		EmployeeID:    "emp-7",
		RoleCode:      "approver",
		ScopeRegionID: 1,
		ApprovalLimit: &limit,
		CurrencyCode:  "EUR",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doJSON(t, app, http.MethodPost, "/matrix/resolve", matrix.Request{
		Role:   "approver",
		Region: "Germany",
		Amount: 250_000,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var resolution matrix.Resolution
	decodeBody(t, resp, &resolution)
	assert.Equal(t, []string{"emp-7"}, resolution.CandidateIDs)

	resp = doJSON(t, app, http.MethodPost, "/matrix/resolve", matrix.Request{
		Role:   "approver",
		Region: "Atlantis",
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPIHandlers_CalendarEndpoints(t *testing.T) {
	t.Parallel()

	app, _, _ := setupTestApp(t)

	resp := doJSON(t, app, http.MethodPost, "/calendar/holidays", models.Holiday{
		Date:   time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC),
		Region: "Germany",
		Label:  "Founders Day",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var holiday models.Holiday
	decodeBody(t, resp, &holiday)
	assert.NotZero(t, holiday.ID)

	resp = doJSON(t, app, http.MethodGet, "/calendar/business-day?date=2026-03-11&region=Germany", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var businessDay struct {
		BusinessDay bool `json:"business_day"`
	}

	decodeBody(t, resp, &businessDay)
	assert.False(t, businessDay.BusinessDay, "registered holiday")

	// Saturday.
	resp = doJSON(t, app, http.MethodGet, "/calendar/business-day?date=2026-03-14&region=Germany", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeBody(t, resp, &businessDay)
	assert.False(t, businessDay.BusinessDay)

	resp = doJSON(t, app, http.MethodGet, "/calendar/business-day?date=2026-03-12&region=Germany", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeBody(t, resp, &businessDay)
	assert.True(t, businessDay.BusinessDay)

	// Friday + 1 business day lands on Monday.
	resp = doJSON(t, app, http.MethodGet, "/calendar/sla-due-date?start=2026-03-13&days=1&region=Germany", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var dueDate struct {
		DueDate string `json:"due_date"`
	}

	decodeBody(t, resp, &dueDate)
	assert.Equal(t, "2026-03-16", dueDate.DueDate)

	resp = doJSON(t, app, http.MethodGet, "/calendar/business-day?date=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doJSON(t, app, http.MethodDelete, "/calendar/holidays/999", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = doJSON(t, app, http.MethodDelete, "/calendar/holidays/1", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestAPIHandlers_EffectiveAssignee(t *testing.T) {
	t.Parallel()

	app, _, _ := setupTestApp(t)

	now := time.Now().UTC()
	resp := doJSON(t, app, http.MethodPost, "/calendar/leaves", models.Leave{
		UserID:           "alice",
		From:             now.Add(-24 * time.Hour),
		To:               now.Add(24 * time.Hour),
		SubstituteUserID: "bob",
		Active:           true,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doJSON(t, app, http.MethodGet, "/calendar/effective-assignee/alice", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var effective struct {
		EffectiveAssignee string `json:"effective_assignee"`
		Substituted       bool   `json:"substituted"`
	}

	decodeBody(t, resp, &effective)
	assert.Equal(t, "bob", effective.EffectiveAssignee)
	assert.True(t, effective.Substituted)

	resp = doJSON(t, app, http.MethodGet, "/calendar/effective-assignee/carol", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeBody(t, resp, &effective)
	assert.Equal(t, "carol", effective.EffectiveAssignee)
	assert.False(t, effective.Substituted)
}

func TestAPIHandlers_HealthCheck(t *testing.T) {
	t.Parallel()

	app, _, _ := setupTestApp(t)

	resp := doJSON(t, app, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var health struct {
		Status string `json:"status"`
	}

	decodeBody(t, resp, &health)
	assert.Equal(t, "healthy", health.Status)
}
