package compiler_test

import (
	"log/slog"
	"testing"

	"github.com/caseflow/caseflow/pkg/compiler"
	"github.com/caseflow/caseflow/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCompiler() *compiler.Compiler {
	return compiler.New(slog.Default())
}

func loanMeta() models.WorkflowMeta {
	return models.WorkflowMeta{
		Code:   "loan_approval",
		Name:   "Loan Approval",
		Status: models.WorkflowStatusActive,
	}
}

func taskStage(code string, sequence int) models.StageDefinition {
	return models.StageDefinition{
		WorkflowCode:  "loan_approval",
		Code:          code,
		Name:          code,
		SequenceOrder: sequence,
		Assignment:    models.AssignmentRule{Mechanism: models.MechanismGroup, Queue: "ops"},
	}
}

func TestCompile_Deterministic(t *testing.T) {
	stages := []models.StageDefinition{
		taskStage("intake", 1),
		taskStage("credit_check", 2),
		{
			WorkflowCode:  "loan_approval",
			Code:          "approval",
			Name:          "Approval",
			SequenceOrder: 3,
			Assignment:    models.AssignmentRule{Mechanism: models.MechanismMatrix, Role: "APPROVER"},
			Actions: []models.StageAction{
				{Label: "APPROVE", TargetType: models.TargetTypeNext},
				{Label: "REJECT", TargetType: models.TargetTypeEnd},
			},
		},
	}

	first, err := newCompiler().Compile(loanMeta(), stages)
	require.NoError(t, err)

	second, err := newCompiler().Compile(loanMeta(), stages)
	require.NoError(t, err)

	assert.Equal(t, first.Graph, second.Graph, "identical input must yield a structurally identical graph")
}

func TestCompile_LinearSequence(t *testing.T) {
	result, err := newCompiler().Compile(loanMeta(), []models.StageDefinition{
		taskStage("intake", 1),
		taskStage("review", 2),
	})
	require.NoError(t, err)

	graph := result.Graph
	require.Contains(t, graph.StageIndex, "intake")
	require.Contains(t, graph.StageIndex, "review")

	// start -> intake -> review -> end
	startOut := graph.OutgoingEdges("start")
	require.Len(t, startOut, 1)
	assert.Equal(t, "intake", startOut[0].Target)

	intakeOut := graph.OutgoingEdges("intake")
	require.Len(t, intakeOut, 1)
	assert.Equal(t, "review", intakeOut[0].Target)

	reviewOut := graph.OutgoingEdges("review")
	require.Len(t, reviewOut, 1)
	assert.Equal(t, "end", reviewOut[0].Target)
}

func TestCompile_EmptyWorkflow(t *testing.T) {
	result, err := newCompiler().Compile(loanMeta(), nil)
	require.NoError(t, err)

	edges := result.Graph.OutgoingEdges("start")
	require.Len(t, edges, 1)
	assert.Equal(t, "end", edges[0].Target)
}

func TestCompile_ParallelGroup_ForkJoinCardinality(t *testing.T) {
	legal := taskStage("legal_review", 2)
	legal.ParallelGroup = "checks"
	technical := taskStage("technical_review", 3)
	technical.ParallelGroup = "checks"
	valuation := taskStage("valuation", 4)
	valuation.ParallelGroup = "checks"

	result, err := newCompiler().Compile(loanMeta(), []models.StageDefinition{
		taskStage("intake", 1),
		legal,
		technical,
		valuation,
		taskStage("decision", 5),
	})
	require.NoError(t, err)

	graph := result.Graph

	var fork, join string

	for _, node := range graph.Nodes {
		switch node.Kind {
		case models.NodeKindFork:
			require.Empty(t, fork, "expected exactly one fork")

			fork = node.ID
		case models.NodeKindJoin:
			require.Empty(t, join, "expected exactly one join")

			join = node.ID
		}
	}

	require.NotEmpty(t, fork)
	require.NotEmpty(t, join)

	assert.Len(t, graph.OutgoingEdges(fork), 3, "fork must have one outgoing edge per member")
	assert.Len(t, graph.IncomingEdges(join), 3, "join must have one incoming edge per member")

	joinOut := graph.OutgoingEdges(join)
	require.Len(t, joinOut, 1)
	assert.Equal(t, "decision", joinOut[0].Target)
}

func TestCompile_ParallelTagChangeEndsGroup(t *testing.T) {
	a := taskStage("a", 1)
	a.ParallelGroup = "g1"
	b := taskStage("b", 2)
	b.ParallelGroup = "g1"
	c := taskStage("c", 3)
	c.ParallelGroup = "g2"
	d := taskStage("d", 4)
	d.ParallelGroup = "g2"

	result, err := newCompiler().Compile(loanMeta(), []models.StageDefinition{a, b, c, d})
	require.NoError(t, err)

	forks := 0

	for _, node := range result.Graph.Nodes {
		if node.Kind == models.NodeKindFork {
			forks++
		}
	}

	assert.Equal(t, 2, forks, "a tag change must end the group")
}

func TestCompile_EntryCondition_SkipsToSuccessor(t *testing.T) {
	conditional := taskStage("manual_verification", 2)
	conditional.EntryCondition = "amount > 100000"

	result, err := newCompiler().Compile(loanMeta(), []models.StageDefinition{
		taskStage("intake", 1),
		conditional,
		taskStage("approval", 3),
	})
	require.NoError(t, err)

	graph := result.Graph

	splitOut := graph.OutgoingEdges("entry_manual_verification")
	require.Len(t, splitOut, 2)

	var guarded, fallback models.GraphEdge

	for _, edge := range splitOut {
		if edge.IsDefault {
			fallback = edge
		} else {
			guarded = edge
		}
	}

	assert.Equal(t, "manual_verification", guarded.Target)
	assert.Equal(t, "amount > 100000", guarded.Guard)
	assert.Equal(t, "approval", fallback.Target, "false condition must skip the stage entirely")

	// The incoming edge from intake lands on the split, not the stage.
	intakeOut := graph.OutgoingEdges("intake")
	require.Len(t, intakeOut, 1)
	assert.Equal(t, "entry_manual_verification", intakeOut[0].Target)
}

func TestCompile_Actions_RoutingGateway(t *testing.T) {
	review := taskStage("review", 2)
	review.Actions = []models.StageAction{
		{Label: "APPROVE", TargetType: models.TargetTypeNext},
		{Label: "REWORK", TargetType: models.TargetTypeSpecific, TargetStage: "intake"},
		{Label: "REJECT", TargetType: models.TargetTypeEnd, PostActionStatus: "REJECTED"},
	}

	result, err := newCompiler().Compile(loanMeta(), []models.StageDefinition{
		taskStage("intake", 1),
		review,
		taskStage("disbursal", 3),
	})
	require.NoError(t, err)
	assert.Empty(t, result.Diagnostics)

	graph := result.Graph

	reviewOut := graph.OutgoingEdges("review")
	require.Len(t, reviewOut, 1)
	require.Equal(t, "route_review", reviewOut[0].Target)

	routed := graph.OutgoingEdges("route_review")
	require.Len(t, routed, 4, "one edge per action plus the default fallback")

	byGuard := make(map[string]models.GraphEdge)
	defaults := 0

	for _, edge := range routed {
		if edge.IsDefault {
			defaults++
		}

		byGuard[edge.Guard] = edge
	}

	assert.Equal(t, 1, defaults, "exactly one unguarded default edge")
	assert.Equal(t, "disbursal", byGuard["outcome == 'APPROVE'"].Target)
	assert.Equal(t, "intake", byGuard["outcome == 'REWORK'"].Target)
	assert.Equal(t, "end_review_REJECT", byGuard["outcome == 'REJECT'"].Target)
	assert.Equal(t, "disbursal", byGuard[""].Target)
}

func TestCompile_Actions_UnknownSpecificTargetDegrades(t *testing.T) {
	review := taskStage("review", 1)
	review.Actions = []models.StageAction{
		{Label: "REWORK", TargetType: models.TargetTypeSpecific, TargetStage: "missing_stage"},
	}

	result, err := newCompiler().Compile(loanMeta(), []models.StageDefinition{review})
	require.NoError(t, err, "unknown SPECIFIC target degrades instead of failing the compile")

	require.Len(t, result.Diagnostics, 1)
	assert.Equal(t, "review", result.Diagnostics[0].StageCode)

	routed := result.Graph.OutgoingEdges("route_review")
	require.Len(t, routed, 1, "only the default edge survives")
	assert.True(t, routed[0].IsDefault)
	assert.Equal(t, "end", routed[0].Target)
}

func TestCompile_SLATimer(t *testing.T) {
	urgent := taskStage("urgent_review", 1)
	urgent.SLADays = 1.5

	fallback := taskStage("standard_review", 2)

	meta := loanMeta()
	meta.DefaultSLADays = 3

	result, err := newCompiler().Compile(meta, []models.StageDefinition{urgent, fallback})
	require.NoError(t, err)

	graph := result.Graph

	timer, ok := graph.NodeByID("timer_urgent_review")
	require.True(t, ok)
	assert.Equal(t, int64(36), timer.TimerHours, "1.5 days is 36 hours")
	assert.Equal(t, "urgent_review", timer.AttachedTo)

	workflowLevel, ok := graph.NodeByID("timer_standard_review")
	require.True(t, ok)
	assert.Equal(t, int64(72), workflowLevel.TimerHours, "workflow default applies when the stage has none")

	timerOut := graph.OutgoingEdges("timer_urgent_review")
	require.Len(t, timerOut, 1)
	assert.Equal(t, "sla_urgent_review", timerOut[0].Target)
}

func TestCompile_NoSLAWhenNeitherConfigured(t *testing.T) {
	result, err := newCompiler().Compile(loanMeta(), []models.StageDefinition{taskStage("intake", 1)})
	require.NoError(t, err)

	_, ok := result.Graph.NodeByID("timer_intake")
	assert.False(t, ok)
}

func TestCompile_NodeKindsAndHooks(t *testing.T) {
	nested := taskStage("kyc", 1)
	nested.NestedWorkflowCode = "kyc_check"

	rule := taskStage("risk", 2)
	rule.RuleKey = "risk_matrix"

	task := taskStage("approval", 3)
	task.PreEntryHook = "notifyEntry"
	task.PostEntryHook = "recordCreate"
	task.PreExitHook = "validateExit"
	task.PostExitHook = "notifyExit"

	result, err := newCompiler().Compile(loanMeta(), []models.StageDefinition{nested, rule, task})
	require.NoError(t, err)

	graph := result.Graph

	call, ok := graph.NodeByID("kyc")
	require.True(t, ok)
	assert.Equal(t, models.NodeKindCall, call.Kind)
	assert.Equal(t, "kyc_check", call.CalledWorkflow)
	assert.Nil(t, call.Assignment, "call nodes carry no assignment configuration")

	ruleNode, ok := graph.NodeByID("risk")
	require.True(t, ok)
	assert.Equal(t, models.NodeKindRule, ruleNode.Kind)
	assert.Equal(t, "risk_matrix", ruleNode.RuleKey)

	taskNode, ok := graph.NodeByID("approval")
	require.True(t, ok)
	assert.Equal(t, models.NodeKindTask, taskNode.Kind)
	require.NotNil(t, taskNode.Assignment)
	assert.Equal(t, models.MechanismGroup, taskNode.Assignment.Mechanism)
	assert.Equal(t, models.HookBindings{
		Start:    "notifyEntry",
		Create:   "recordCreate",
		Complete: "validateExit",
		End:      "notifyExit",
	}, taskNode.Hooks)
}

func TestCompile_SelfReferenceRejected(t *testing.T) {
	stage := taskStage("recurse", 1)
	stage.NestedWorkflowCode = "loan_approval"

	_, err := newCompiler().Compile(loanMeta(), []models.StageDefinition{stage})
	assert.ErrorIs(t, err, compiler.ErrSelfReference)
}

func TestCompile_DuplicateStageCodeRejected(t *testing.T) {
	_, err := newCompiler().Compile(loanMeta(), []models.StageDefinition{
		taskStage("intake", 1),
		taskStage("intake", 2),
	})
	assert.ErrorIs(t, err, compiler.ErrDuplicateStageCode)
}

func TestCompile_SingleStartAndTerminalNodes(t *testing.T) {
	review := taskStage("review", 1)
	review.Actions = []models.StageAction{
		{Label: "REJECT", TargetType: models.TargetTypeEnd},
	}

	result, err := newCompiler().Compile(loanMeta(), []models.StageDefinition{review})
	require.NoError(t, err)

	starts, ends := 0, 0

	for _, node := range result.Graph.Nodes {
		switch node.Kind {
		case models.NodeKindStart:
			starts++
		case models.NodeKindEnd:
			ends++
		}
	}

	assert.Equal(t, 1, starts)
	assert.GreaterOrEqual(t, ends, 1)
}
