package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/caseflow/caseflow/pkg/models"
	"github.com/caseflow/caseflow/pkg/persistence"
	"github.com/caseflow/caseflow/pkg/registry"
	"github.com/go-playground/validator/v10"
)

// Definition manages workflow metadata and stage lists, applying every
// save-time validation so a broken definition never reaches the compiler.
type Definition struct {
	persistence persistence.Persistence
	registry    *registry.Registry
	validator   *validator.Validate
}

// NewDefinition creates a new workflow definition service.
func NewDefinition(persistence persistence.Persistence, registry *registry.Registry, validator *validator.Validate) *Definition {
	return &Definition{
		persistence: persistence,
		registry:    registry,
		validator:   validator,
	}
}

// HealthCheck checks the health of the persistence layer.
func (d *Definition) HealthCheck(ctx context.Context) (string, bool) {
	if d.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := d.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// ListWorkflows returns all live workflow definitions, newest first.
func (d *Definition) ListWorkflows(ctx context.Context) ([]*models.WorkflowMeta, error) {
	workflows, err := d.persistence.Workflows(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list workflows: %w", err)
	}

	return workflows, nil
}

// FetchByCode retrieves a workflow by its code.
func (d *Definition) FetchByCode(ctx context.Context, code string) (*models.WorkflowMeta, error) {
	workflow, err := d.persistence.WorkflowByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	if workflow == nil {
		return nil, ErrWorkflowNotFound
	}

	return workflow, nil
}

// Create adds a new workflow definition. The code must be unused.
func (d *Definition) Create(ctx context.Context, workflow *models.WorkflowMeta) (*models.WorkflowMeta, error) {
	if workflow == nil {
		return nil, ErrWorkflowNil
	}

	if workflow.Status == "" {
		workflow.Status = models.WorkflowStatusActive
	}

	err := d.validator.Struct(workflow)
	if err != nil {
		return nil, NewValidationError("Create", "INVALID_WORKFLOW", err.Error(), ErrInvalidRequest)
	}

	existing, err := d.persistence.WorkflowByCode(ctx, workflow.Code)
	if err != nil {
		return nil, fmt.Errorf("failed to check workflow code: %w", err)
	}

	if existing != nil {
		return nil, &ServiceError{
			Op:      "Create",
			Code:    "WORKFLOW_EXISTS",
			Message: fmt.Sprintf("workflow %q already exists", workflow.Code),
			Err:     ErrWorkflowExists,
		}
	}

	workflow.ID = ""
	workflow.CreatedAt = time.Time{}

	err = d.persistence.SaveWorkflow(ctx, workflow)
	if err != nil {
		return nil, fmt.Errorf("failed to create workflow: %w", err)
	}

	return workflow, nil
}

// Update modifies an existing workflow's metadata. Code and creation time
// are immutable.
func (d *Definition) Update(ctx context.Context, code string, workflow *models.WorkflowMeta) (*models.WorkflowMeta, error) {
	if workflow == nil {
		return nil, ErrWorkflowNil
	}

	existing, err := d.persistence.WorkflowByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	if existing == nil {
		return nil, ErrWorkflowNotFound
	}

	workflow.ID = existing.ID
	workflow.Code = code
	workflow.CreatedAt = existing.CreatedAt
	workflow.UpdatedAt = time.Now().UTC()

	if workflow.Status == "" {
		workflow.Status = existing.Status
	}

	err = d.validator.Struct(workflow)
	if err != nil {
		return nil, NewValidationError("Update", "INVALID_WORKFLOW", err.Error(), ErrInvalidRequest)
	}

	err = d.persistence.SaveWorkflow(ctx, workflow)
	if err != nil {
		return nil, fmt.Errorf("failed to update workflow: %w", err)
	}

	return workflow, nil
}

// Delete soft-deletes a workflow definition by code.
func (d *Definition) Delete(ctx context.Context, code string) error {
	err := d.persistence.DeleteWorkflow(ctx, code)
	if err != nil {
		return err
	}

	return nil
}

// StagesByWorkflow returns the stage list in sequence order.
func (d *Definition) StagesByWorkflow(ctx context.Context, code string) ([]*models.StageDefinition, error) {
	workflow, err := d.persistence.WorkflowByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	if workflow == nil {
		return nil, ErrWorkflowNotFound
	}

	return d.persistence.StagesByWorkflow(ctx, code)
}

// SaveStages validates and replaces a workflow's entire stage list.
func (d *Definition) SaveStages(ctx context.Context, code string, stages []*models.StageDefinition) error {
	workflow, err := d.persistence.WorkflowByCode(ctx, code)
	if err != nil {
		return err
	}

	if workflow == nil {
		return ErrWorkflowNotFound
	}

	if len(stages) == 0 {
		return ErrStagesRequired
	}

	for _, stage := range stages {
		stage.WorkflowCode = code

		err = d.validator.Struct(stage)
		if err != nil {
			return NewValidationError("SaveStages", "INVALID_STAGE",
				fmt.Sprintf("stage %q: %s", stage.Code, err.Error()), ErrInvalidRequest)
		}

		err = d.validateAssignmentRule(stage)
		if err != nil {
			return err
		}

		err = d.validateHooks(stage)
		if err != nil {
			return err
		}
	}

	err = validateStageCodesUnique(stages)
	if err != nil {
		return err
	}

	err = validateParallelAdjacency(stages)
	if err != nil {
		return err
	}

	err = d.validateNestedReferences(ctx, code, stages)
	if err != nil {
		return err
	}

	err = d.persistence.SaveStages(ctx, code, stages)
	if err != nil {
		return fmt.Errorf("failed to save stages: %w", err)
	}

	return nil
}

// validateAssignmentRule round-trips the parsed rule through the JSON
// schema used for raw documents, then checks the mechanism's parameter.
func (d *Definition) validateAssignmentRule(stage *models.StageDefinition) error {
	raw, err := json.Marshal(stage.Assignment)
	if err != nil {
		return fmt.Errorf("failed to encode assignment rule: %w", err)
	}

	err = registry.ValidateAssignmentRuleDocument(raw)
	if err != nil {
		return NewValidationError("SaveStages", "INVALID_ASSIGNMENT_RULE",
			fmt.Sprintf("stage %q: %s", stage.Code, err.Error()), ErrInvalidAssignmentRule)
	}

	err = stage.Assignment.Validate()
	if err != nil {
		return NewValidationError("SaveStages", "INVALID_ASSIGNMENT_RULE",
			fmt.Sprintf("stage %q: %s", stage.Code, err.Error()), ErrInvalidAssignmentRule)
	}

	return nil
}

func (d *Definition) validateHooks(stage *models.StageDefinition) error {
	bindings := []struct {
		name  string
		event registry.HookEvent
	}{
		{stage.PreEntryHook, registry.HookEventStart},
		{stage.PostEntryHook, registry.HookEventCreate},
		{stage.PreExitHook, registry.HookEventComplete},
		{stage.PostExitHook, registry.HookEventEnd},
	}

	for _, binding := range bindings {
		if binding.name == "" {
			continue
		}

		if !d.registry.IsRegistered(binding.name) {
			return NewValidationError("SaveStages", "UNKNOWN_HOOK",
				fmt.Sprintf("stage %q binds unregistered hook %q", stage.Code, binding.name), ErrUnknownHook)
		}

		if !d.registry.Supports(binding.name, binding.event) {
			return NewValidationError("SaveStages", "HOOK_EVENT_UNSUPPORTED",
				fmt.Sprintf("stage %q binds hook %q to unsupported event %q", stage.Code, binding.name, binding.event),
				ErrHookEventUnsupported)
		}
	}

	return nil
}

// validateNestedReferences walks nested workflow codes across workflow
// boundaries and rejects missing targets and cycles. The walk loads each
// referenced workflow's stages once.
func (d *Definition) validateNestedReferences(ctx context.Context, code string, stages []*models.StageDefinition) error {
	visiting := map[string]bool{code: true}

	return d.walkNested(ctx, code, stages, visiting)
}

func (d *Definition) walkNested(ctx context.Context, code string, stages []*models.StageDefinition, visiting map[string]bool) error {
	for _, stage := range stages {
		if !stage.IsNestedWorkflow() {
			continue
		}

		target := stage.NestedWorkflowCode
		if visiting[target] {
			return NewValidationError("SaveStages", "NESTED_CYCLE",
				fmt.Sprintf("stage %q closes a nested workflow cycle through %q", stage.Code, target),
				ErrNestedWorkflowCycle)
		}

		nested, err := d.persistence.WorkflowByCode(ctx, target)
		if err != nil {
			return fmt.Errorf("failed to load nested workflow %q: %w", target, err)
		}

		if nested == nil {
			return NewValidationError("SaveStages", "NESTED_NOT_FOUND",
				fmt.Sprintf("stage %q references unknown workflow %q", stage.Code, target),
				ErrNestedWorkflowNotFound)
		}

		nestedStages, err := d.persistence.StagesByWorkflow(ctx, target)
		if err != nil {
			return fmt.Errorf("failed to load stages of %q: %w", target, err)
		}

		visiting[target] = true

		err = d.walkNested(ctx, target, nestedStages, visiting)
		if err != nil {
			return err
		}

		delete(visiting, target)
	}

	return nil
}

func validateStageCodesUnique(stages []*models.StageDefinition) error {
	seen := make(map[string]bool, len(stages))

	for _, stage := range stages {
		if seen[stage.Code] {
			return NewValidationError("SaveStages", "DUPLICATE_STAGE",
				fmt.Sprintf("stage code %q appears more than once", stage.Code), ErrDuplicateStageCode)
		}

		seen[stage.Code] = true
	}

	return nil
}

// validateParallelAdjacency requires that all stages sharing a parallel
// group tag be contiguous once ordered by sequence. A gap would make the
// group compile into two unrelated fork blocks.
func validateParallelAdjacency(stages []*models.StageDefinition) error {
	ordered := make([]*models.StageDefinition, len(stages))
	copy(ordered, stages)

	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].SequenceOrder < ordered[j].SequenceOrder
	})

	closed := make(map[string]bool)

	var current string

	for _, stage := range ordered {
		group := stage.ParallelGroup

		if group != current {
			if current != "" {
				closed[current] = true
			}

			if group != "" && closed[group] {
				return NewValidationError("SaveStages", "PARALLEL_GROUP_SPLIT",
					fmt.Sprintf("parallel group %q is split by other stages", group),
					ErrParallelGroupNotAdjacent)
			}

			current = group
		}
	}

	return nil
}
