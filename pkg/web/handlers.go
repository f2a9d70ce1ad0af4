package web

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/caseflow/caseflow/pkg/assignment"
	"github.com/caseflow/caseflow/pkg/calendar"
	"github.com/caseflow/caseflow/pkg/eventbus"
	"github.com/caseflow/caseflow/pkg/matrix"
	"github.com/caseflow/caseflow/pkg/models"
	"github.com/caseflow/caseflow/pkg/persistence"
	"github.com/caseflow/caseflow/pkg/registry"
	"github.com/caseflow/caseflow/pkg/services"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

type APIHandlers struct {
	definitionService *services.Definition
	deploymentService *services.Deployment
	assignmentEngine  *assignment.Engine
	matrixResolver    *matrix.Resolver
	calendarService   *calendar.Service
	persistence       persistence.Persistence
	publisher         eventbus.EventPublisher
	validator         *validator.Validate
	registry          *registry.Registry
	logger            *slog.Logger
}

// NewAPIHandlers wires the HTTP layer. The publisher may be nil when no
// event bus is configured.
func NewAPIHandlers(
	definitionService *services.Definition,
	deploymentService *services.Deployment,
	assignmentEngine *assignment.Engine,
	matrixResolver *matrix.Resolver,
	calendarService *calendar.Service,
	persistence persistence.Persistence,
	publisher eventbus.EventPublisher,
	validator *validator.Validate,
	registry *registry.Registry,
	logger *slog.Logger,
) *APIHandlers {
	return &APIHandlers{
		definitionService: definitionService,
		deploymentService: deploymentService,
		assignmentEngine:  assignmentEngine,
		matrixResolver:    matrixResolver,
		calendarService:   calendarService,
		persistence:       persistence,
		publisher:         publisher,
		validator:         validator,
		registry:          registry,
		logger:            logger,
	}
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	repositoryCheck, repOk := h.definitionService.HealthCheck(c.Context())

	status := "unhealthy"
	message := "Caseflow API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if repOk {
		status = "healthy"
		message = "Caseflow API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"repository": repositoryCheck,
			"hooks":      h.registry.Hooks(),
		},
		"timestamp": time.Now().UTC(),
	})
}

func (h *APIHandlers) GetWorkflows(c fiber.Ctx) error {
	workflows, err := h.definitionService.ListWorkflows(c.Context())
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(fiber.Map{"workflows": workflows})
}

func (h *APIHandlers) GetWorkflow(c fiber.Ctx) error {
	code := c.Params("code")
	if code == "" {
		return badRequest(c, "Workflow code is required")
	}

	workflow, err := h.definitionService.FetchByCode(c.Context(), code)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(workflow)
}

func (h *APIHandlers) CreateWorkflow(c fiber.Ctx) error {
	var req CreateWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	workflow := &models.WorkflowMeta{
		Code:               req.Code,
		Name:               req.Name,
		CompletionEndpoint: req.CompletionEndpoint,
		DefaultSLADays:     req.DefaultSLADays,
	}

	created, err := h.definitionService.Create(c.Context(), workflow)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) UpdateWorkflow(c fiber.Ctx) error {
	code := c.Params("code")
	if code == "" {
		return badRequest(c, "Workflow code is required")
	}

	var req UpdateWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	existing, err := h.definitionService.FetchByCode(c.Context(), code)
	if err != nil {
		return handleServiceError(c, err)
	}

	if req.Name != nil {
		existing.Name = *req.Name
	}

	if req.CompletionEndpoint != nil {
		existing.CompletionEndpoint = *req.CompletionEndpoint
	}

	if req.DefaultSLADays != nil {
		existing.DefaultSLADays = *req.DefaultSLADays
	}

	updated, err := h.definitionService.Update(c.Context(), code, existing)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) DeleteWorkflow(c fiber.Ctx) error {
	code := c.Params("code")
	if code == "" {
		return badRequest(c, "Workflow code is required")
	}

	err := h.definitionService.Delete(c.Context(), code)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) GetStages(c fiber.Ctx) error {
	code := c.Params("code")
	if code == "" {
		return badRequest(c, "Workflow code is required")
	}

	stages, err := h.definitionService.StagesByWorkflow(c.Context(), code)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"stages": stages})
}

// SaveStages replaces the workflow's stage list. Each stage's assignment
// document is schema-validated and parsed before the list reaches the
// definition service.
func (h *APIHandlers) SaveStages(c fiber.Ctx) error {
	code := c.Params("code")
	if code == "" {
		return badRequest(c, "Workflow code is required")
	}

	var req SaveStagesRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	stages := make([]*models.StageDefinition, 0, len(req.Stages))

	for _, input := range req.Stages {
		err := registry.ValidateAssignmentRuleDocument(input.Assignment)
		if err != nil {
			return badRequest(c, "stage "+input.Code+": "+err.Error())
		}

		rule, err := models.ParseAssignmentRule(input.Assignment)
		if err != nil {
			return badRequest(c, "stage "+input.Code+": "+err.Error())
		}

		stages = append(stages, input.toDefinition(code, rule))
	}

	err := h.definitionService.SaveStages(c.Context(), code, stages)
	if err != nil {
		return handleServiceError(c, err)
	}

	saved, err := h.definitionService.StagesByWorkflow(c.Context(), code)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"stages": saved})
}

// CompileWorkflow deploys the workflow: compiles the current stage list,
// records the deployment and announces it.
func (h *APIHandlers) CompileWorkflow(c fiber.Ctx) error {
	code := c.Params("code")
	if code == "" {
		return badRequest(c, "Workflow code is required")
	}

	result, err := h.deploymentService.Deploy(c.Context(), code)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(result)
}

// GetGraph compiles the workflow without recording a deployment.
func (h *APIHandlers) GetGraph(c fiber.Ctx) error {
	code := c.Params("code")
	if code == "" {
		return badRequest(c, "Workflow code is required")
	}

	result, err := h.deploymentService.Preview(c.Context(), code)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(result)
}

func (h *APIHandlers) GetDeployments(c fiber.Ctx) error {
	code := c.Params("code")
	if code == "" {
		return badRequest(c, "Workflow code is required")
	}

	deployments, err := h.deploymentService.History(c.Context(), code)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"deployments": deployments})
}
