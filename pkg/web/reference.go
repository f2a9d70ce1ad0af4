package web

import (
	"github.com/caseflow/caseflow/pkg/models"
	"github.com/gofiber/fiber/v3"
)

// Reference data provisioning: the region hierarchy, the product catalog
// and the authority matrix are synced here by the HR integration.

func (h *APIHandlers) GetRegions(c fiber.Ctx) error {
	regions, err := h.persistence.Regions(c.Context())
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(fiber.Map{"regions": regions})
}

func (h *APIHandlers) CreateRegion(c fiber.Ctx) error {
	var region models.RegionNode
	if err := c.Bind().JSON(&region); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(region); err != nil {
		return badRequest(c, err.Error())
	}

	if err := h.persistence.SaveRegion(c.Context(), &region); err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(region)
}

func (h *APIHandlers) CreateSegment(c fiber.Ctx) error {
	var segment models.BusinessSegment
	if err := c.Bind().JSON(&segment); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(segment); err != nil {
		return badRequest(c, err.Error())
	}

	if err := h.persistence.SaveSegment(c.Context(), &segment); err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(segment)
}

func (h *APIHandlers) CreateSubSegment(c fiber.Ctx) error {
	var subSegment models.BusinessSubSegment
	if err := c.Bind().JSON(&subSegment); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(subSegment); err != nil {
		return badRequest(c, err.Error())
	}

	if err := h.persistence.SaveSubSegment(c.Context(), &subSegment); err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(subSegment)
}

func (h *APIHandlers) CreateProduct(c fiber.Ctx) error {
	var product models.Product
	if err := c.Bind().JSON(&product); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(product); err != nil {
		return badRequest(c, err.Error())
	}

	if err := h.persistence.SaveProduct(c.Context(), &product); err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(product)
}

func (h *APIHandlers) CreateAuthorityAssignment(c fiber.Ctx) error {
	var assignment models.AuthorityAssignment
	if err := c.Bind().JSON(&assignment); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(assignment); err != nil {
		return badRequest(c, err.Error())
	}

	if err := h.persistence.SaveAuthorityAssignment(c.Context(), &assignment); err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(assignment)
}
