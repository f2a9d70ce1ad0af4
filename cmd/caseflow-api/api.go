// Package main provides the caseflow API server implementation.
package main

import (
	"log/slog"
	"strconv"

	"github.com/caseflow/caseflow/pkg/assignment"
	"github.com/caseflow/caseflow/pkg/calendar"
	"github.com/caseflow/caseflow/pkg/compiler"
	"github.com/caseflow/caseflow/pkg/directory"
	"github.com/caseflow/caseflow/pkg/eventbus"
	"github.com/caseflow/caseflow/pkg/matrix"
	"github.com/caseflow/caseflow/pkg/persistence"
	"github.com/caseflow/caseflow/pkg/registry"
	"github.com/caseflow/caseflow/pkg/services"
	"github.com/caseflow/caseflow/pkg/web"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
)

type API struct {
	logger       *slog.Logger
	persistence  persistence.Persistence
	registry     *registry.Registry
	eventBus     eventbus.EventBus
	directoryURL string
	validate     *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	registry *registry.Registry,
	eventBus eventbus.EventBus,
	directoryURL string,
) *API {
	return &API{
		logger:       logger,
		persistence:  persistence,
		registry:     registry,
		eventBus:     eventBus,
		directoryURL: directoryURL,
		validate:     validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	definitionService := services.NewDefinition(a.persistence, a.registry, a.validate)
	deploymentService := services.NewDeployment(a.persistence, compiler.New(a.logger), a.eventBus, a.logger)

	calendarService := calendar.NewService(a.persistence, a.persistence, a.logger)
	matrixResolver := matrix.NewResolver(a.persistence, a.persistence, a.persistence, a.logger)
	directoryClient := directory.NewClient(a.directoryURL, a.logger)
	assignmentEngine := assignment.NewEngine(
		directoryClient,
		a.persistence,
		a.persistence,
		calendarService,
		matrixResolver,
		a.logger,
	)

	handlers := web.NewAPIHandlers(
		definitionService,
		deploymentService,
		assignmentEngine,
		matrixResolver,
		calendarService,
		a.persistence,
		a.eventBus,
		a.validate,
		a.registry,
		a.logger,
	)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Caseflow API")
	})

	w := app.Group("/workflows")
	w.Get("/", handlers.GetWorkflows)
	w.Post("/", handlers.CreateWorkflow)
	w.Get("/:code", handlers.GetWorkflow)
	w.Patch("/:code", handlers.UpdateWorkflow)
	w.Delete("/:code", handlers.DeleteWorkflow)

	// Stage list and compilation endpoints:
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

	// Reference data provisioning, called by the HR sync:
	app.Get("/regions", handlers.GetRegions)
	app.Post("/regions", handlers.CreateRegion)
	app.Post("/segments", handlers.CreateSegment)
	app.Post("/sub-segments", handlers.CreateSubSegment)
	app.Post("/products", handlers.CreateProduct)
	app.Post("/authority-assignments", handlers.CreateAuthorityAssignment)

	app.Get("/health", handlers.HealthCheck)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	err := app.Listen(":" + strconv.Itoa(port))

	return err
}
