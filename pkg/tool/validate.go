package tool

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// FieldIssue is one human-readable validation complaint tied to a field.
type FieldIssue struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError reports why a raw argument mapping was rejected. It is
// always produced before any network call and is never retried.
type ValidationError struct {
	Tool   string
	Issues []FieldIssue
}

func (e *ValidationError) Error() string {
	reasons := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		reasons[i] = fmt.Sprintf("%s: %s", issue.Field, issue.Reason)
	}
	return fmt.Sprintf("invalid arguments for %s: %s", e.Tool, strings.Join(reasons, "; "))
}

// buildSchema compiles a tool's parameter list into a JSON Schema. Extra
// properties are allowed so that callers can send fields a newer schema knows
// about without breaking older servers.
func buildSchema(def Definition) (*gojsonschema.Schema, error) {
	properties := make(map[string]interface{}, len(def.Parameters))
	required := []string{}

	for _, param := range def.Parameters {
		paramSchema := map[string]interface{}{
			"type":        param.Type,
			"description": param.Description,
		}
		if param.Type == "string" {
			// Strings are trimmed before validation, so this rejects
			// values that are empty or whitespace-only.
			paramSchema["minLength"] = 1
		}
		if len(param.Enum) > 0 {
			enum := make([]interface{}, len(param.Enum))
			for i, v := range param.Enum {
				enum[i] = v
			}
			paramSchema["enum"] = enum
		}
		if param.Minimum != nil {
			paramSchema["minimum"] = *param.Minimum
		}
		if param.Maximum != nil {
			paramSchema["maximum"] = *param.Maximum
		}
		if param.Default != nil {
			paramSchema["default"] = param.Default
		}
		properties[param.Name] = paramSchema

		if param.Required {
			required = append(required, param.Name)
		}
	}

	schemaMap := map[string]interface{}{
		"type":                 "object",
		"additionalProperties": true,
		"properties":           properties,
	}
	if len(required) > 0 {
		schemaMap["required"] = required
	}

	return gojsonschema.NewSchema(gojsonschema.NewGoLoader(schemaMap))
}

// validateArgs checks normalized arguments against the tool's compiled schema
// and converts schema complaints into field-identifying issues.
func validateArgs(toolName string, schema *gojsonschema.Schema, args map[string]interface{}) error {
	if schema == nil {
		return nil
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(args))
	if err != nil {
		return &ValidationError{
			Tool:   toolName,
			Issues: []FieldIssue{{Field: "(arguments)", Reason: err.Error()}},
		}
	}
	if result.Valid() {
		return nil
	}

	issues := make([]FieldIssue, 0, len(result.Errors()))
	for _, verr := range result.Errors() {
		field := verr.Field()
		if prop, ok := verr.Details()["property"].(string); ok && field == "(root)" {
			field = prop
		}
		issues = append(issues, FieldIssue{Field: field, Reason: verr.Description()})
	}
	return &ValidationError{Tool: toolName, Issues: issues}
}
