package assignment

import (
	"context"
)

// resolveRoundRobin rotates over the sorted pool membership, continuing
// from whoever finished the last task of this (workflow, stage) pair.
// When the rule also carries the sticky flag, continuity of actor is
// attempted first and rotation is the fallback.
func (e *Engine) resolveRoundRobin(ctx context.Context, req Request) Decision {
	pool := e.poolMembers(ctx, req.Rule.Pool)
	if len(pool) == 0 {
		e.logger.Info("Round-robin pool is empty, leaving task unassigned",
			"workflow", req.WorkflowCode,
			"stage", req.StageCode,
			"pool", req.Rule.Pool,
		)

		return Decision{}
	}

	if req.Rule.Sticky {
		matched, ok := e.stickyMatch(ctx, req, req.Rule.Pool, pool)
		if ok {
			assignee, available := e.applyLeave(ctx, matched)
			if available {
				return Decision{Assignee: assignee}
			}
			// Prior actor is out with no usable substitute; fall through
			// to rotation instead of leaving the task unassigned.
		}
	}

	next := e.nextInRotation(ctx, req, pool)

	return Decision{Assignee: e.substitute(ctx, next)}
}

func (e *Engine) nextInRotation(ctx context.Context, req Request, pool []string) string {
	last, err := e.history.LastCompletedTask(ctx, req.WorkflowCode, req.StageCode)
	if err != nil {
		e.logger.Warn("History lookup failed, starting rotation from the first pool member",
			"workflow", req.WorkflowCode,
			"stage", req.StageCode,
			"error", err,
		)

		return pool[0]
	}

	if last == nil {
		return pool[0]
	}

	position := indexOf(pool, last.Assignee)
	if position < 0 {
		e.logger.Warn("Previous assignee left the pool, resetting rotation to the first member",
			"workflow", req.WorkflowCode,
			"stage", req.StageCode,
			"previous", last.Assignee,
		)

		return pool[0]
	}

	return pool[(position+1)%len(pool)]
}

// applyLeave resolves what a sticky match means for an assignee who may
// be out of office. The second return is false when the match is on leave
// with no usable substitute.
func (e *Engine) applyLeave(ctx context.Context, userID string) (string, bool) {
	leave, err := e.calendar.ActiveLeave(ctx, userID)
	if err != nil {
		e.logger.Warn("Leave lookup failed, assigning without substitution",
			"user_id", userID,
			"error", err,
		)

		return userID, true
	}

	if leave == nil {
		return userID, true
	}

	if leave.SubstituteUserID != "" {
		substituteLeave, err := e.calendar.ActiveLeave(ctx, leave.SubstituteUserID)
		if err == nil && substituteLeave == nil {
			return leave.SubstituteUserID, true
		}
	}

	return "", false
}

func indexOf(pool []string, member string) int {
	for i, candidate := range pool {
		if candidate == member {
			return i
		}
	}

	return -1
}
