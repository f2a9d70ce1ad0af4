// Package compiler translates declarative stage definitions into an
// executable process graph for the external execution engine.
package compiler

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/caseflow/caseflow/pkg/models"
)

var (
	// ErrSelfReference indicates a nested-workflow stage that calls its
	// own workflow.
	ErrSelfReference = errors.New("nested workflow references its own workflow")

	// ErrDuplicateStageCode indicates two stages sharing a code within
	// one workflow.
	ErrDuplicateStageCode = errors.New("duplicate stage code")

	// ErrAmbiguousStageShape indicates a stage marked as both a nested
	// workflow and a rule stage.
	ErrAmbiguousStageShape = errors.New("stage cannot be both nested workflow and rule stage")
)

// Diagnostic is a non-fatal compile finding, surfaced so callers can
// decide to treat it as fatal.
type Diagnostic struct {
	StageCode string `json:"stage_code"`
	Message   string `json:"message"`
}

// Result is the compiler output: the portable graph plus any degraded
// findings encountered while wiring it.
type Result struct {
	Graph       *models.ProcessGraph `json:"graph"`
	Diagnostics []Diagnostic         `json:"diagnostics,omitempty"`
}

type Compiler struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Compiler {
	return &Compiler{logger: logger}
}

// Compile builds the process graph for a workflow. It is pure and
// deterministic: identical input always yields a structurally identical
// graph. Node and edge identifiers derive from stage codes and counters,
// never from wall-clock time.
func (c *Compiler) Compile(meta models.WorkflowMeta, stages []models.StageDefinition) (*Result, error) {
	err := validateStages(meta, stages)
	if err != nil {
		return nil, err
	}

	sorted := make([]models.StageDefinition, len(stages))
	copy(sorted, stages)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].SequenceOrder < sorted[j].SequenceOrder
	})

	b := newBuilder(meta)

	start := b.addNode(models.GraphNode{ID: "start", Kind: models.NodeKindStart})
	end := b.addNode(models.GraphNode{ID: "end", Kind: models.NodeKindEnd})

	for i := range sorted {
		stage := &sorted[i]
		node := stageNode(stage)
		b.addNode(node)
		b.graph.StageIndex[stage.Code] = node.ID
		b.attachSLA(stage, node.ID, meta.DefaultSLADays)
	}

	groups := groupStages(sorted)

	// Group entries and exits are synthesized up front so outbound
	// routing can target the next group before it is wired.
	entries := make([]string, len(groups))
	exits := make([]string, len(groups))

	for i, group := range groups {
		if len(group) > 1 {
			fork := b.addNode(models.GraphNode{
				ID:   fmt.Sprintf("fork_%d", i+1),
				Kind: models.NodeKindFork,
			})
			join := b.addNode(models.GraphNode{
				ID:   fmt.Sprintf("join_%d", i+1),
				Kind: models.NodeKindJoin,
			})
			entries[i] = fork.ID
			exits[i] = join.ID

			continue
		}

		stage := group[0]
		nodeID := b.graph.StageIndex[stage.Code]

		if stage.EntryCondition != "" {
			// The conditional split becomes the group's entry; its
			// default (skip) edge is wired once the successor is known.
			split := b.addNode(models.GraphNode{
				ID:   "entry_" + stage.Code,
				Kind: models.NodeKindDecision,
			})
			entries[i] = split.ID
		} else {
			entries[i] = nodeID
		}

		exits[i] = nodeID
	}

	diagnostics := make([]Diagnostic, 0)

	for i, group := range groups {
		next := end.ID
		if i+1 < len(groups) {
			next = entries[i+1]
		}

		if len(group) > 1 {
			fork := entries[i]
			join := exits[i]

			for j := range group {
				stage := &group[j]
				nodeID := b.graph.StageIndex[stage.Code]

				if stage.EntryCondition != "" {
					// Skipped members fall through to the join so the
					// parallel block still completes.
					b.entrySplit(fork, stage, nodeID, join)
				} else {
					b.connect(fork, nodeID, "", false)
				}

				diagnostics = append(diagnostics, c.routeOutbound(b, stage, nodeID, join)...)
			}

			b.connect(join, next, "", false)

			continue
		}

		stage := &group[0]
		nodeID := b.graph.StageIndex[stage.Code]

		if stage.EntryCondition != "" {
			b.connect(entries[i], nodeID, stage.EntryCondition, false)
			b.connect(entries[i], next, "", true)
		}

		diagnostics = append(diagnostics, c.routeOutbound(b, stage, nodeID, next)...)
	}

	if len(groups) > 0 {
		b.connect(start.ID, entries[0], "", false)
	} else {
		b.connect(start.ID, end.ID, "", false)
	}

	return &Result{Graph: b.graph, Diagnostics: diagnostics}, nil
}

// routeOutbound wires a stage's exit per its actions: no actions means an
// unconditional edge to the default target; otherwise a decision node with
// one guarded edge per action and a single default fallback edge.
func (c *Compiler) routeOutbound(b *builder, stage *models.StageDefinition, source, defaultTarget string) []Diagnostic {
	if len(stage.Actions) == 0 {
		b.connect(source, defaultTarget, "", false)

		return nil
	}

	diagnostics := make([]Diagnostic, 0)

	route := b.addNode(models.GraphNode{
		ID:   "route_" + stage.Code,
		Kind: models.NodeKindDecision,
	})
	b.connect(source, route.ID, "", false)

	for _, action := range stage.Actions {
		guard := fmt.Sprintf("outcome == '%s'", action.Label)

		var target string

		switch action.TargetType {
		case models.TargetTypeNext:
			target = defaultTarget
		case models.TargetTypeEnd:
			terminal := b.addNode(models.GraphNode{
				ID:    fmt.Sprintf("end_%s_%s", stage.Code, action.Label),
				Kind:  models.NodeKindEnd,
				Label: action.PostActionStatus,
			})
			target = terminal.ID
		case models.TargetTypeSpecific:
			resolved, ok := b.graph.StageIndex[action.TargetStage]
			if !ok {
				// Degrade to the default edge rather than aborting the
				// compile; flagged for callers that want it fatal.
				c.logger.Warn("Target stage not found for action, falling back to default flow",
					"workflow", stage.WorkflowCode,
					"stage", stage.Code,
					"action", action.Label,
					"target", action.TargetStage,
				)
				diagnostics = append(diagnostics, Diagnostic{
					StageCode: stage.Code,
					Message: fmt.Sprintf("action %q targets unknown stage %q, falling back to default flow",
						action.Label, action.TargetStage),
				})

				continue
			}

			target = resolved
		default:
			continue
		}

		b.connect(route.ID, target, guard, false)
	}

	b.connect(route.ID, defaultTarget, "", true)

	return diagnostics
}

// groupStages folds the sequence-sorted stage list into ordered groups:
// adjacent stages with equal, non-blank parallel tags share a group,
// everything else is a singleton.
func groupStages(stages []models.StageDefinition) [][]models.StageDefinition {
	groups := make([][]models.StageDefinition, 0, len(stages))

	for i := range stages {
		sameGroup := i > 0 &&
			stages[i].ParallelGroup != "" &&
			stages[i].ParallelGroup == stages[i-1].ParallelGroup

		if sameGroup {
			groups[len(groups)-1] = append(groups[len(groups)-1], stages[i])
		} else {
			groups = append(groups, []models.StageDefinition{stages[i]})
		}
	}

	return groups
}

func stageNode(stage *models.StageDefinition) models.GraphNode {
	node := models.GraphNode{
		ID:        stage.Code,
		Label:     stage.Name,
		StageCode: stage.Code,
		Hooks: models.HookBindings{
			Start:    stage.PreEntryHook,
			Create:   stage.PostEntryHook,
			Complete: stage.PreExitHook,
			End:      stage.PostExitHook,
		},
	}

	switch {
	case stage.IsNestedWorkflow():
		node.Kind = models.NodeKindCall
		node.CalledWorkflow = stage.NestedWorkflowCode
	case stage.IsRuleStage():
		node.Kind = models.NodeKindRule
		node.RuleKey = stage.RuleKey
	default:
		node.Kind = models.NodeKindTask
		rule := stage.Assignment
		node.Assignment = &rule
	}

	return node
}

func validateStages(meta models.WorkflowMeta, stages []models.StageDefinition) error {
	seen := make(map[string]bool, len(stages))

	for i := range stages {
		stage := &stages[i]

		if seen[stage.Code] {
			return fmt.Errorf("%w: %s", ErrDuplicateStageCode, stage.Code)
		}

		seen[stage.Code] = true

		if stage.IsNestedWorkflow() && stage.IsRuleStage() {
			return fmt.Errorf("%w: %s", ErrAmbiguousStageShape, stage.Code)
		}

		if stage.IsNestedWorkflow() && stage.NestedWorkflowCode == meta.Code {
			return fmt.Errorf("%w: %s", ErrSelfReference, stage.Code)
		}
	}

	return nil
}

// effectiveSLAHours resolves the stage or workflow SLA into whole timer
// hours, rounding partial hours up. Zero means no SLA.
func effectiveSLAHours(stageDays, workflowDays float64) int64 {
	days := stageDays
	if days <= 0 {
		days = workflowDays
	}

	if days <= 0 {
		return 0
	}

	return int64(math.Ceil(days * 24))
}
