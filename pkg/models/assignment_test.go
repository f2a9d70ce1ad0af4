package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAssignmentRule_RoundRobin(t *testing.T) {
	rule, err := ParseAssignmentRule([]byte(`{"mechanism":"ROUND_ROBIN","pool":"underwriters","sticky":true}`))
	require.NoError(t, err)

	assert.Equal(t, MechanismRoundRobin, rule.Mechanism)
	assert.Equal(t, "underwriters", rule.Pool)
	assert.True(t, rule.Sticky)
	assert.Equal(t, "underwriters", rule.PoolRole())
}

func TestParseAssignmentRule_Matrix(t *testing.T) {
	rule, err := ParseAssignmentRule([]byte(`{"mechanism":"MATRIX","role":"APPROVER"}`))
	require.NoError(t, err)

	assert.Equal(t, MechanismMatrix, rule.Mechanism)
	assert.Equal(t, "APPROVER", rule.PoolRole())
}

func TestParseAssignmentRule_MissingParameter(t *testing.T) {
	_, err := ParseAssignmentRule([]byte(`{"mechanism":"ROUND_ROBIN"}`))
	assert.ErrorIs(t, err, ErrUnknownMechanism)
}

func TestParseAssignmentRule_UnknownMechanism(t *testing.T) {
	_, err := ParseAssignmentRule([]byte(`{"mechanism":"LOTTERY"}`))
	assert.ErrorIs(t, err, ErrUnknownMechanism)
}

func TestParseAssignmentRule_Manual(t *testing.T) {
	rule, err := ParseAssignmentRule([]byte(`{"mechanism":"MANUAL"}`))
	require.NoError(t, err)

	assert.Equal(t, MechanismManual, rule.Mechanism)
	assert.Empty(t, rule.PoolRole())
}

func TestAssignmentRule_Validate_Sticky(t *testing.T) {
	rule := AssignmentRule{Mechanism: MechanismSticky}
	assert.Error(t, rule.Validate())

	rule.Role = "REVIEWER"
	assert.NoError(t, rule.Validate())
}
