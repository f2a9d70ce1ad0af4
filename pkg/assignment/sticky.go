package assignment

import (
	"context"
)

// resolveSticky keeps a case with whoever already worked it in the same
// role. No match anywhere in history means the task stays unassigned;
// there is no fallback to rotation or to any default assignee.
func (e *Engine) resolveSticky(ctx context.Context, req Request) Decision {
	pool := e.poolMembers(ctx, req.Rule.Role)
	if len(pool) == 0 {
		e.logger.Info("Sticky pool is empty, leaving task unassigned",
			"workflow", req.WorkflowCode,
			"stage", req.StageCode,
			"role", req.Rule.Role,
		)

		return Decision{}
	}

	// The authenticated actor driving the case wins outright when they
	// hold the role; no history scan needed.
	if req.Actor != "" && indexOf(pool, req.Actor) >= 0 {
		return Decision{Assignee: req.Actor}
	}

	matched, ok := e.stickyMatch(ctx, req, req.Rule.Role, pool)
	if !ok {
		e.logger.Info("No prior actor found for role, leaving task unassigned",
			"case_id", req.CaseID,
			"role", req.Rule.Role,
		)

		return Decision{}
	}

	assignee, available := e.applyLeave(ctx, matched)
	if !available {
		// Out of office with no usable substitute. Deliberately
		// unassigned rather than handed to someone unfamiliar with the
		// case.
		e.logger.Info("Prior actor is on leave without a substitute, leaving task unassigned",
			"case_id", req.CaseID,
			"role", req.Rule.Role,
			"prior_actor", matched,
		)

		return Decision{}
	}

	return Decision{Assignee: assignee}
}

// stickyMatch scans the case history most-recent-first for the first
// completed task whose assignee is still in the pool and whose stage was
// configured for the same role. Role attribution comes from the historic
// stage's own assignment rule, looked up by workflow and stage code.
func (e *Engine) stickyMatch(ctx context.Context, req Request, role string, pool []string) (string, bool) {
	records, err := e.history.CaseHistory(ctx, req.CaseID)
	if err != nil {
		e.logger.Warn("Case history lookup failed, no sticky match",
			"case_id", req.CaseID,
			"error", err,
		)

		return "", false
	}

	for _, record := range records {
		if record.Assignee == "" || indexOf(pool, record.Assignee) < 0 {
			continue
		}

		rule, err := e.stages.StageAssignmentRule(ctx, record.WorkflowCode, record.StageCode)
		if err != nil {
			e.logger.Warn("Stage configuration lookup failed during sticky scan",
				"workflow", record.WorkflowCode,
				"stage", record.StageCode,
				"error", err,
			)

			continue
		}

		if rule == nil || rule.PoolRole() != role {
			continue
		}

		return record.Assignee, true
	}

	return "", false
}
