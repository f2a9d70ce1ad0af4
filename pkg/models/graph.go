package models

// NodeKind tags a graph node for the execution engine.
type NodeKind string

const (
	NodeKindStart      NodeKind = "start"
	NodeKindTask       NodeKind = "task"       // Human task stage
	NodeKindRule       NodeKind = "rule"       // Decision-table evaluation
	NodeKindCall       NodeKind = "call"       // Opaque call into a nested workflow
	NodeKindDecision   NodeKind = "decision"   // Exclusive routing on guarded edges
	NodeKindFork       NodeKind = "fork"       // Parallel split
	NodeKindJoin       NodeKind = "join"       // Parallel join
	NodeKindTimer      NodeKind = "timer"      // Non-interrupting SLA boundary timer
	NodeKindEscalation NodeKind = "escalation" // SLA escalation/notification
	NodeKindEnd        NodeKind = "end"
)

// HookBindings maps execution-engine lifecycle triggers to registered hook
// handler names. Blank entries are no-ops. The trigger names follow the
// engine's listener events: start/create/complete/end correspond to the
// stage's pre-entry, post-entry, pre-exit and post-exit hooks.
type HookBindings struct {
	Start    string `json:"start,omitempty"`
	Create   string `json:"create,omitempty"`
	Complete string `json:"complete,omitempty"`
	End      string `json:"end,omitempty"`
}

func (h HookBindings) IsZero() bool {
	return h == HookBindings{}
}

// GraphNode is one node of the compiled process graph.
type GraphNode struct {
	ID    string   `json:"id"`
	Kind  NodeKind `json:"kind"`
	Label string   `json:"label,omitempty"`

	// StageCode links task/rule/call nodes back to their stage.
	StageCode string `json:"stage_code,omitempty"`

	// CalledWorkflow is set on call nodes; the child workflow compiles
	// independently and is never inlined here.
	CalledWorkflow string `json:"called_workflow,omitempty"`

	// RuleKey is set on rule nodes.
	RuleKey string `json:"rule_key,omitempty"`

	// TimerHours is set on timer nodes: the SLA duration in hours.
	TimerHours int64 `json:"timer_hours,omitempty"`

	// AttachedTo is set on timer nodes: the node whose boundary the
	// timer sits on.
	AttachedTo string `json:"attached_to,omitempty"`

	Hooks HookBindings `json:"hooks,omitzero"`

	// Assignment carries the stage's assignment configuration for the
	// engine to evaluate at task-creation time. Compile never evaluates it.
	Assignment *AssignmentRule `json:"assignment,omitempty"`
}

// GraphEdge connects two nodes, optionally guarded. At most one outgoing
// edge per node is the default (taken when no guard matches).
type GraphEdge struct {
	ID        string `json:"id"`
	Source    string `json:"source"`
	Target    string `json:"target"`
	Guard     string `json:"guard,omitempty"`
	IsDefault bool   `json:"is_default,omitempty"`
}

// ProcessGraph is the compiler's portable output, handed opaquely to the
// execution engine for deployment.
type ProcessGraph struct {
	WorkflowCode string      `json:"workflow_code"`
	WorkflowName string      `json:"workflow_name"`
	Nodes        []GraphNode `json:"nodes"`
	Edges        []GraphEdge `json:"edges"`

	// StageIndex maps stage code to node id for listener dispatch.
	StageIndex map[string]string `json:"stage_index"`
}

// NodeByID returns the node with the given id, if present.
func (g *ProcessGraph) NodeByID(id string) (GraphNode, bool) {
	for _, node := range g.Nodes {
		if node.ID == id {
			return node, true
		}
	}

	return GraphNode{}, false
}

// OutgoingEdges returns the edges whose source is the given node id, in
// insertion order.
func (g *ProcessGraph) OutgoingEdges(nodeID string) []GraphEdge {
	edges := make([]GraphEdge, 0)

	for _, edge := range g.Edges {
		if edge.Source == nodeID {
			edges = append(edges, edge)
		}
	}

	return edges
}

// IncomingEdges returns the edges whose target is the given node id.
func (g *ProcessGraph) IncomingEdges(nodeID string) []GraphEdge {
	edges := make([]GraphEdge, 0)

	for _, edge := range g.Edges {
		if edge.Target == nodeID {
			edges = append(edges, edge)
		}
	}

	return edges
}
