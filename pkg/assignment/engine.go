// Package assignment decides who performs a task. The execution engine
// calls Resolve at task-creation time with the stage's assignment rule
// and the case context; the engine dispatches to the configured strategy.
//
// Collaborator failures (directory, history, calendar) degrade to an
// unassigned task with a logged warning. Resolve returns an error only
// for configuration mistakes, never for runtime lookups that came back
// empty.
package assignment

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/caseflow/caseflow/pkg/matrix"
	"github.com/caseflow/caseflow/pkg/models"
)

// Directory supplies current role/group membership from the
// organizational directory collaborator.
type Directory interface {
	RoleMembers(ctx context.Context, role string) ([]string, error)
}

// HistoryStore reads task-completion records owned by the execution
// engine. Lookups return nil without error when nothing matches;
// CaseHistory is ordered most-recent-first.
type HistoryStore interface {
	LastCompletedTask(ctx context.Context, workflowCode, stageCode string) (*models.TaskExecutionRecord, error)
	CaseHistory(ctx context.Context, caseID string) ([]*models.TaskExecutionRecord, error)
}

// StageConfigStore looks up the assignment rule a stage was configured
// with, used to attribute historic tasks to a role. Returns nil without
// error for unknown stages.
type StageConfigStore interface {
	StageAssignmentRule(ctx context.Context, workflowCode, stageCode string) (*models.AssignmentRule, error)
}

// Calendar is the substitution view of the calendar service.
type Calendar interface {
	ActiveLeave(ctx context.Context, userID string) (*models.Leave, error)
	EffectiveAssignee(ctx context.Context, userID string) (string, error)
}

// MatrixResolver is the authority matrix collaborator.
type MatrixResolver interface {
	Resolve(ctx context.Context, req matrix.Request) (*matrix.Resolution, error)
}

// Request is one assignment resolution call. Actor is the authenticated
// user driving the case when the call happens in a user transaction, or
// blank for system-driven transitions. Variables carries the case context
// (region, product, amount) consumed by the matrix strategy.
type Request struct {
	WorkflowCode string                `json:"workflow_code" validate:"required"`
	StageCode    string                `json:"stage_code"    validate:"required"`
	CaseID       string                `json:"case_id"       validate:"required"`
	Rule         models.AssignmentRule `json:"rule"          validate:"required"`
	Actor        string                `json:"actor,omitempty"`
	Variables    map[string]any        `json:"variables,omitempty"`
}

// Decision is the resolution outcome. At most one of Assignee and
// CandidateGroup is set; CandidateUsers carries the multi-candidate
// matrix outcome. All empty means the task is intentionally unassigned.
type Decision struct {
	Assignee       string   `json:"assignee,omitempty"`
	CandidateGroup string   `json:"candidate_group,omitempty"`
	CandidateUsers []string `json:"candidate_users,omitempty"`
}

// Unassigned reports whether the decision leaves the task without any
// assignee or candidate set.
func (d Decision) Unassigned() bool {
	return d.Assignee == "" && d.CandidateGroup == "" && len(d.CandidateUsers) == 0
}

type Engine struct {
	directory Directory
	history   HistoryStore
	stages    StageConfigStore
	calendar  Calendar
	matrix    MatrixResolver
	logger    *slog.Logger
}

func NewEngine(
	directory Directory,
	history HistoryStore,
	stages StageConfigStore,
	calendar Calendar,
	matrixResolver MatrixResolver,
	logger *slog.Logger,
) *Engine {
	return &Engine{
		directory: directory,
		history:   history,
		stages:    stages,
		calendar:  calendar,
		matrix:    matrixResolver,
		logger:    logger,
	}
}

// Resolve dispatches on the rule's mechanism.
func (e *Engine) Resolve(ctx context.Context, req Request) (Decision, error) {
	switch req.Rule.Mechanism {
	case models.MechanismManual:
		// The assignee arrives as a case variable upstream; nothing to
		// resolve here.
		return Decision{}, nil
	case models.MechanismGroup:
		return Decision{CandidateGroup: req.Rule.Queue}, nil
	case models.MechanismRoundRobin:
		return e.resolveRoundRobin(ctx, req), nil
	case models.MechanismSticky:
		return e.resolveSticky(ctx, req), nil
	case models.MechanismMatrix:
		return e.resolveMatrix(ctx, req), nil
	default:
		return Decision{}, fmt.Errorf("%w: %q", models.ErrUnknownMechanism, req.Rule.Mechanism)
	}
}

// poolMembers loads and deterministically orders the current membership
// of a role or group. A directory failure or empty membership yields an
// empty pool, never an error.
func (e *Engine) poolMembers(ctx context.Context, role string) []string {
	members, err := e.directory.RoleMembers(ctx, role)
	if err != nil {
		e.logger.Warn("Directory lookup failed, leaving task unassigned",
			"role", role,
			"error", err,
		)

		return nil
	}

	return sortedUnique(members)
}

// substitute applies one level of calendar substitution to the chosen
// assignee. A calendar failure keeps the original choice.
func (e *Engine) substitute(ctx context.Context, userID string) string {
	effective, err := e.calendar.EffectiveAssignee(ctx, userID)
	if err != nil {
		e.logger.Warn("Calendar substitution failed, keeping original assignee",
			"user_id", userID,
			"error", err,
		)

		return userID
	}

	return effective
}

func sortedUnique(members []string) []string {
	seen := make(map[string]bool, len(members))
	out := make([]string, 0, len(members))

	for _, member := range members {
		if member == "" || seen[member] {
			continue
		}

		seen[member] = true

		out = append(out, member)
	}

	sort.Strings(out)

	return out
}
