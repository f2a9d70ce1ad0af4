package web

import (
	"errors"

	"github.com/caseflow/caseflow/pkg/matrix"
	"github.com/caseflow/caseflow/pkg/persistence"
	"github.com/caseflow/caseflow/pkg/services"
	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"
)

func badRequest(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(400).
		WithInstance(c.Path()).
		WithType("validation_error").
		WithDetail(detail)

	return c.Status(fiber.StatusBadRequest).JSON(problem)
}

func notFound(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(404).
		WithInstance(c.Path()).
		WithType("not_found").
		WithDetail(detail)

	return c.Status(fiber.StatusNotFound).JSON(problem)
}

func internalError(c fiber.Ctx, err error) error {
	problem := problems.NewStatusProblem(500).
		WithInstance(c.Path()).
		WithType("internal_error").
		WithError(err)

	return c.Status(fiber.StatusInternalServerError).JSON(problem)
}

// handleServiceError provides typed error handling for service layer errors.
func handleServiceError(c fiber.Ctx, err error) error {
	switch {
	case services.IsValidationError(err):
		problem := problems.NewStatusProblem(400).
			WithInstance(c.Path()).
			WithType("validation_error").
			WithDetail(err.Error())

		return c.Status(fiber.StatusBadRequest).JSON(problem)

	case services.IsConflictError(err):
		problem := problems.NewStatusProblem(409).
			WithInstance(c.Path()).
			WithType("conflict").
			WithDetail(err.Error())

		return c.Status(fiber.StatusConflict).JSON(problem)

	case persistence.IsWorkflowNotFound(err):
		problem := problems.NewStatusProblem(404).
			WithInstance(c.Path()).
			WithType("workflow_not_found").
			WithDetail("workflow not found")

		return c.Status(fiber.StatusNotFound).JSON(problem)

	case isReferenceNotFound(err):
		problem := problems.NewStatusProblem(404).
			WithInstance(c.Path()).
			WithType("not_found").
			WithDetail(err.Error())

		return c.Status(fiber.StatusNotFound).JSON(problem)

	default:
		problem := problems.NewStatusProblem(500).
			WithInstance(c.Path()).
			WithType("internal_error").
			WithError(err)

		return c.Status(fiber.StatusInternalServerError).JSON(problem)
	}
}

// isReferenceNotFound collapses the typed not-found errors of the matrix
// resolver and the calendar store.
func isReferenceNotFound(err error) bool {
	return errors.Is(err, matrix.ErrRegionNotFound) ||
		errors.Is(err, matrix.ErrProductNotFound) ||
		errors.Is(err, matrix.ErrSegmentNotFound) ||
		errors.Is(err, matrix.ErrSubSegmentNotFound) ||
		errors.Is(err, persistence.ErrHolidayNotFound) ||
		errors.Is(err, persistence.ErrLeaveNotFound)
}
