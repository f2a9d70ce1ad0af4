package registry

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// assignmentRuleSchema is the shape check applied to the raw assignment
// rule document before it is parsed into the tagged union. Per-mechanism
// parameter requirements are enforced by the parse step.
var assignmentRuleSchema = map[string]any{
	"type":     "object",
	"required": []any{"mechanism"},
	"properties": map[string]any{
		"mechanism": map[string]any{
			"type": "string",
			"enum": []any{"GROUP", "ROUND_ROBIN", "MATRIX", "STICKY", "MANUAL"},
		},
		"queue":  map[string]any{"type": "string", "minLength": 1},
		"pool":   map[string]any{"type": "string", "minLength": 1},
		"role":   map[string]any{"type": "string", "minLength": 1},
		"sticky": map[string]any{"type": "boolean"},
	},
	"additionalProperties": false,
}

// ValidateAssignmentRuleDocument validates the raw JSON form of a stage's
// assignment rule against the schema.
func ValidateAssignmentRuleDocument(raw []byte) error {
	schemaLoader := gojsonschema.NewGoLoader(assignmentRuleSchema)
	dataLoader := gojsonschema.NewBytesLoader(raw)

	result, err := gojsonschema.Validate(schemaLoader, dataLoader)
	if err != nil {
		return fmt.Errorf("failed to validate assignment rule document: %w", err)
	}

	if !result.Valid() {
		messages := make([]string, 0, len(result.Errors()))
		for _, validationError := range result.Errors() {
			messages = append(messages, validationError.String())
		}

		return fmt.Errorf("assignment rule schema validation failed: %s", strings.Join(messages, "; "))
	}

	return nil
}
