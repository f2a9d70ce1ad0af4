package web

import (
	"context"

	"github.com/caseflow/caseflow/pkg/assignment"
	"github.com/caseflow/caseflow/pkg/eventbus"
	"github.com/caseflow/caseflow/pkg/events"
	"github.com/caseflow/caseflow/pkg/matrix"
	"github.com/caseflow/caseflow/pkg/models"
	"github.com/gofiber/fiber/v3"
)

// ResolveAssignment runs the assignment engine for a stage task. The
// stage's configured rule is loaded here so callers never send rules over
// the wire.
func (h *APIHandlers) ResolveAssignment(c fiber.Ctx) error {
	var req ResolveAssignmentRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	rule, err := h.persistence.StageAssignmentRule(c.Context(), req.WorkflowCode, req.StageCode)
	if err != nil {
		return internalError(c, err)
	}

	if rule == nil {
		return notFound(c, "stage not found")
	}

	decision, err := h.assignmentEngine.Resolve(c.Context(), assignment.Request{
		WorkflowCode: req.WorkflowCode,
		StageCode:    req.StageCode,
		CaseID:       req.CaseID,
		Rule:         *rule,
		Actor:        req.Actor,
		Variables:    req.Variables,
	})
	if err != nil {
		return badRequest(c, err.Error())
	}

	h.announceDecision(c.Context(), req, rule, decision)

	return c.JSON(fiber.Map{
		"decision":   decision,
		"unassigned": decision.Unassigned(),
		"mechanism":  rule.Mechanism,
	})
}

// announceDecision publishes the assignment outcome. Publishing failure
// does not fail the resolution, the decision is already in the response.
func (h *APIHandlers) announceDecision(ctx context.Context, req ResolveAssignmentRequest, rule *models.AssignmentRule, decision assignment.Decision) {
	if h.publisher == nil {
		return
	}

	var event eventbus.Event
	if decision.Unassigned() {
		event = events.TaskUnassigned{
			BaseEvent: events.NewBaseEvent(events.TaskUnassignedEvent, req.WorkflowCode),
			StageCode: req.StageCode,
			CaseID:    req.CaseID,
			Mechanism: string(rule.Mechanism),
			Reason:    "no assignee or candidate set resolved",
		}
	} else {
		event = events.TaskAssigned{
			BaseEvent:      events.NewBaseEvent(events.TaskAssignedEvent, req.WorkflowCode),
			StageCode:      req.StageCode,
			CaseID:         req.CaseID,
			Assignee:       decision.Assignee,
			CandidateGroup: decision.CandidateGroup,
			CandidateUsers: decision.CandidateUsers,
			Mechanism:      string(rule.Mechanism),
		}
	}

	err := h.publisher.Publish(ctx, req.CaseID, event)
	if err != nil {
		h.logger.Warn("Failed to publish assignment event",
			"workflow_code", req.WorkflowCode,
			"stage_code", req.StageCode,
			"case_id", req.CaseID,
			"error", err)
	}
}

// ResolveMatrix answers an authority lookup directly, outside any stage
// context.
func (h *APIHandlers) ResolveMatrix(c fiber.Ctx) error {
	var req matrix.Request
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	resolution, err := h.matrixResolver.Resolve(c.Context(), req)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(resolution)
}
