package models

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Mechanism identifies the assignment strategy configured on a stage.
type Mechanism string

const (
	MechanismGroup      Mechanism = "GROUP"       // Candidate group queue, no individual assignee
	MechanismRoundRobin Mechanism = "ROUND_ROBIN" // Rotate over a sorted pool
	MechanismMatrix     Mechanism = "MATRIX"      // Authority-matrix lookup by role
	MechanismSticky     Mechanism = "STICKY"      // Prefer the prior actor for the same role
	MechanismManual     Mechanism = "MANUAL"      // Assignee supplied as a case variable upstream
)

var ErrUnknownMechanism = errors.New("unknown assignment mechanism")

// AssignmentRule is the tagged-union assignment configuration of a stage.
// Exactly one of the parameter fields is meaningful, selected by Mechanism.
// It is parsed from its JSON form once when the stage is saved, never
// re-parsed at resolution time.
type AssignmentRule struct {
	Mechanism Mechanism `json:"mechanism" validate:"required,oneof=GROUP ROUND_ROBIN MATRIX STICKY MANUAL"`

	// Queue is the candidate group name for GROUP.
	Queue string `json:"queue,omitempty"`

	// Pool is the role or group rotated over for ROUND_ROBIN.
	Pool string `json:"pool,omitempty"`

	// Role is the role code for MATRIX and STICKY.
	Role string `json:"role,omitempty"`

	// Sticky composes continuity-of-actor on top of ROUND_ROBIN: the
	// rotation is only consulted when no prior actor can be reused.
	Sticky bool `json:"sticky,omitempty"`
}

// PoolRole returns whichever role/group identifier the rule carries. Used
// when attributing a historic stage to a role, regardless of mechanism.
func (r AssignmentRule) PoolRole() string {
	switch r.Mechanism {
	case MechanismGroup:
		return r.Queue
	case MechanismRoundRobin:
		return r.Pool
	case MechanismMatrix, MechanismSticky:
		return r.Role
	case MechanismManual:
		return ""
	}

	return ""
}

// Validate checks that the parameter required by the mechanism is present.
func (r AssignmentRule) Validate() error {
	switch r.Mechanism {
	case MechanismGroup:
		if r.Queue == "" {
			return fmt.Errorf("%w: GROUP requires queue", ErrUnknownMechanism)
		}
	case MechanismRoundRobin:
		if r.Pool == "" {
			return fmt.Errorf("%w: ROUND_ROBIN requires pool", ErrUnknownMechanism)
		}
	case MechanismMatrix:
		if r.Role == "" {
			return fmt.Errorf("%w: MATRIX requires role", ErrUnknownMechanism)
		}
	case MechanismSticky:
		if r.Role == "" {
			return fmt.Errorf("%w: STICKY requires role", ErrUnknownMechanism)
		}
	case MechanismManual:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownMechanism, r.Mechanism)
	}

	return nil
}

// ParseAssignmentRule decodes the JSON document stored on a stage into the
// tagged union and validates it.
func ParseAssignmentRule(raw []byte) (AssignmentRule, error) {
	var rule AssignmentRule

	err := json.Unmarshal(raw, &rule)
	if err != nil {
		return AssignmentRule{}, fmt.Errorf("failed to decode assignment rule: %w", err)
	}

	err = rule.Validate()
	if err != nil {
		return AssignmentRule{}, err
	}

	return rule, nil
}
