package compiler

import (
	"fmt"

	"github.com/caseflow/caseflow/pkg/models"
)

// builder accumulates nodes and edges with counter-derived edge ids, so
// two compiles of the same input produce identical graphs.
type builder struct {
	graph       *models.ProcessGraph
	edgeCounter int
}

func newBuilder(meta models.WorkflowMeta) *builder {
	return &builder{
		graph: &models.ProcessGraph{
			WorkflowCode: meta.Code,
			WorkflowName: meta.Name,
			Nodes:        make([]models.GraphNode, 0),
			Edges:        make([]models.GraphEdge, 0),
			StageIndex:   make(map[string]string),
		},
	}
}

func (b *builder) addNode(node models.GraphNode) models.GraphNode {
	b.graph.Nodes = append(b.graph.Nodes, node)

	return node
}

func (b *builder) connect(source, target, guard string, isDefault bool) models.GraphEdge {
	b.edgeCounter++

	edge := models.GraphEdge{
		ID:        fmt.Sprintf("flow_%d", b.edgeCounter),
		Source:    source,
		Target:    target,
		Guard:     guard,
		IsDefault: isDefault,
	}
	b.graph.Edges = append(b.graph.Edges, edge)

	return edge
}

// entrySplit inserts a conditional split in front of a stage: the guarded
// edge enters the stage, the default edge skips straight to skipTarget.
func (b *builder) entrySplit(source string, stage *models.StageDefinition, stageNodeID, skipTarget string) {
	split := b.addNode(models.GraphNode{
		ID:   "entry_" + stage.Code,
		Kind: models.NodeKindDecision,
	})

	b.connect(source, split.ID, "", false)
	b.connect(split.ID, stageNodeID, stage.EntryCondition, false)
	b.connect(split.ID, skipTarget, "", true)
}

// attachSLA adds a non-interrupting boundary timer plus its escalation
// path when the stage (or workflow default) carries an SLA.
func (b *builder) attachSLA(stage *models.StageDefinition, stageNodeID string, workflowDays float64) {
	hours := effectiveSLAHours(stage.SLADays, workflowDays)
	if hours == 0 {
		return
	}

	timer := b.addNode(models.GraphNode{
		ID:         "timer_" + stage.Code,
		Kind:       models.NodeKindTimer,
		TimerHours: hours,
		AttachedTo: stageNodeID,
	})
	escalation := b.addNode(models.GraphNode{
		ID:    "sla_" + stage.Code,
		Kind:  models.NodeKindEscalation,
		Label: "SLA Notification",
	})
	terminal := b.addNode(models.GraphNode{
		ID:   "end_sla_" + stage.Code,
		Kind: models.NodeKindEnd,
	})

	b.connect(timer.ID, escalation.ID, "", false)
	b.connect(escalation.ID, terminal.ID, "", false)
}
