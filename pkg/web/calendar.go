package web

import (
	"strconv"
	"time"

	"github.com/caseflow/caseflow/pkg/models"
	"github.com/gofiber/fiber/v3"
)

const dateLayout = "2006-01-02"

func (h *APIHandlers) GetBusinessDay(c fiber.Ctx) error {
	date, err := time.Parse(dateLayout, c.Query("date"))
	if err != nil {
		return badRequest(c, "date must be formatted as YYYY-MM-DD")
	}

	region := c.Query("region")

	businessDay, err := h.calendarService.IsBusinessDay(c.Context(), date, region)
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(fiber.Map{
		"date":         date.Format(dateLayout),
		"region":       region,
		"business_day": businessDay,
	})
}

func (h *APIHandlers) GetSLADueDate(c fiber.Ctx) error {
	start, err := time.Parse(dateLayout, c.Query("start"))
	if err != nil {
		return badRequest(c, "start must be formatted as YYYY-MM-DD")
	}

	days, err := strconv.Atoi(c.Query("days"))
	if err != nil || days < 0 {
		return badRequest(c, "days must be a non-negative integer")
	}

	region := c.Query("region")

	dueDate, err := h.calendarService.CalculateSLADueDate(c.Context(), start, days, region)
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(fiber.Map{
		"start":    start.Format(dateLayout),
		"days":     days,
		"region":   region,
		"due_date": dueDate.Format(dateLayout),
	})
}

func (h *APIHandlers) GetEffectiveAssignee(c fiber.Ctx) error {
	userID := c.Params("userId")
	if userID == "" {
		return badRequest(c, "User ID is required")
	}

	effective, err := h.calendarService.EffectiveAssignee(c.Context(), userID)
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(fiber.Map{
		"user_id":            userID,
		"effective_assignee": effective,
		"substituted":        effective != userID,
	})
}

func (h *APIHandlers) GetHolidays(c fiber.Ctx) error {
	region := c.Query("region")
	if region == "" {
		return badRequest(c, "region query parameter is required")
	}

	holidays, err := h.persistence.HolidaysByRegion(c.Context(), region)
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(fiber.Map{"holidays": holidays})
}

func (h *APIHandlers) CreateHoliday(c fiber.Ctx) error {
	var holiday models.Holiday
	if err := c.Bind().JSON(&holiday); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(holiday); err != nil {
		return badRequest(c, err.Error())
	}

	if err := h.persistence.SaveHoliday(c.Context(), &holiday); err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(holiday)
}

func (h *APIHandlers) DeleteHoliday(c fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return badRequest(c, "Holiday ID must be an integer")
	}

	err = h.persistence.DeleteHoliday(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) GetLeaves(c fiber.Ctx) error {
	userID := c.Params("userId")
	if userID == "" {
		return badRequest(c, "User ID is required")
	}

	leaves, err := h.persistence.LeavesByUser(c.Context(), userID)
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(fiber.Map{"leaves": leaves})
}

func (h *APIHandlers) CreateLeave(c fiber.Ctx) error {
	var leave models.Leave
	if err := c.Bind().JSON(&leave); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(leave); err != nil {
		return badRequest(c, err.Error())
	}

	if err := h.persistence.SaveLeave(c.Context(), &leave); err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(leave)
}

func (h *APIHandlers) DeleteLeave(c fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return badRequest(c, "Leave ID must be an integer")
	}

	err = h.persistence.DeleteLeave(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}
