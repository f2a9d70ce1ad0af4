package assignment

import (
	"context"

	"github.com/caseflow/caseflow/pkg/matrix"
)

// Case variable keys consumed by the matrix strategy.
const (
	varRegion     = "region"
	varProduct    = "product"
	varSegment    = "segment"
	varSubSegment = "sub_segment"
	varAmount     = "amount"
)

// resolveMatrix builds a resolution request from the case variables and
// delegates to the authority matrix. One candidate becomes the assignee,
// several become candidate users, zero leaves the task unassigned. A
// resolver failure (unknown region, store error) also degrades to
// unassigned; misconfigured reference data must not block the case.
func (e *Engine) resolveMatrix(ctx context.Context, req Request) Decision {
	resolution, err := e.matrix.Resolve(ctx, matrix.Request{
		Role:       req.Rule.Role,
		Region:     stringVar(req.Variables, varRegion),
		Product:    stringVar(req.Variables, varProduct),
		Segment:    stringVar(req.Variables, varSegment),
		SubSegment: stringVar(req.Variables, varSubSegment),
		Amount:     amountVar(req.Variables),
	})
	if err != nil {
		e.logger.Warn("Authority matrix resolution failed, leaving task unassigned",
			"workflow", req.WorkflowCode,
			"stage", req.StageCode,
			"role", req.Rule.Role,
			"error", err,
		)

		return Decision{}
	}

	switch len(resolution.CandidateIDs) {
	case 0:
		e.logger.Info("Authority matrix returned no candidate, leaving task unassigned",
			"workflow", req.WorkflowCode,
			"stage", req.StageCode,
			"role", req.Rule.Role,
			"reason", resolution.Reason,
		)

		return Decision{}
	case 1:
		return Decision{Assignee: e.substitute(ctx, resolution.CandidateIDs[0])}
	default:
		candidates := make([]string, 0, len(resolution.CandidateIDs))
		for _, candidate := range resolution.CandidateIDs {
			candidates = append(candidates, e.substitute(ctx, candidate))
		}

		return Decision{CandidateUsers: sortedUnique(candidates)}
	}
}

func stringVar(variables map[string]any, key string) string {
	value, ok := variables[key].(string)
	if !ok {
		return ""
	}

	return value
}

// amountVar reads the case amount in minor units. JSON-decoded variable
// maps carry numbers as float64.
func amountVar(variables map[string]any) int64 {
	switch value := variables[varAmount].(type) {
	case int64:
		return value
	case int:
		return int64(value)
	case float64:
		return int64(value)
	default:
		return 0
	}
}
