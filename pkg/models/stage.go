package models

// TargetType determines where a stage action routes the case when an actor
// completes the stage with that action's label.
type TargetType string

const (
	TargetTypeNext     TargetType = "NEXT"     // Continue to the next group in sequence
	TargetTypeSpecific TargetType = "SPECIFIC" // Jump to a named stage in the same workflow
	TargetTypeEnd      TargetType = "END"      // Terminate the case
)

// StageAction is one outcome a completing actor can pick on a stage.
type StageAction struct {
	Label            string     `json:"label"                  validate:"required,min=1"`
	TargetType       TargetType `json:"target_type"            validate:"required,oneof=NEXT SPECIFIC END"`
	TargetStage      string     `json:"target_stage,omitempty" validate:"required_if=TargetType SPECIFIC"`
	PostActionStatus string     `json:"post_action_status,omitempty"`
	ButtonStyle      string     `json:"button_style,omitempty"` // Cosmetic hint for the task UI
}

// StageDefinition is one step of a workflow as authored by a designer.
// Sequence order drives grouping; adjacent stages sharing a non-blank
// ParallelGroup execute concurrently.
type StageDefinition struct {
	ID            string `json:"id"`
	WorkflowCode  string `json:"workflow_code"  validate:"required"`
	Code          string `json:"code"           validate:"required,min=1"`
	Name          string `json:"name"           validate:"required,min=1"`
	SequenceOrder int    `json:"sequence_order" validate:"gte=0"`
	ParallelGroup string `json:"parallel_group,omitempty"`

	// EntryCondition, when set, gates entry into the stage; a false
	// evaluation skips the stage entirely.
	EntryCondition string `json:"entry_condition,omitempty"`

	// NestedWorkflowCode and RuleKey are mutually exclusive. A nested
	// stage calls another workflow; a rule stage evaluates a decision
	// table identified by RuleKey.
	NestedWorkflowCode string `json:"nested_workflow_code,omitempty"`
	RuleKey            string `json:"rule_key,omitempty"          validate:"excluded_with=NestedWorkflowCode"`

	// SLADays falls back to the workflow-level default when zero.
	SLADays float64 `json:"sla_days,omitempty" validate:"gte=0"`

	// Lifecycle hooks, each the name of a handler registered in the hook
	// registry. Blank means no-op.
	PreEntryHook  string `json:"pre_entry_hook,omitempty"`
	PostEntryHook string `json:"post_entry_hook,omitempty"`
	PreExitHook   string `json:"pre_exit_hook,omitempty"`
	PostExitHook  string `json:"post_exit_hook,omitempty"`

	Assignment AssignmentRule `json:"assignment"`
	Actions    []StageAction  `json:"actions,omitempty" validate:"dive"`
}

func (s *StageDefinition) IsNestedWorkflow() bool {
	return s.NestedWorkflowCode != ""
}

func (s *StageDefinition) IsRuleStage() bool {
	return s.RuleKey != ""
}
