// Package tool holds the tool catalog: declarative argument schemas, schema
// validation, and single-shot dispatch. Every invocation returns a Result;
// upstream failures travel inside the result payload, never as panics or
// dispatch errors.
package tool

import (
	"context"
	"strings"
)

// Strategy names the execution shape of a tool.
type Strategy string

const (
	// StrategySingle issues one upstream call.
	StrategySingle Strategy = "single"
	// StrategyCascade sequences dependent upstream calls.
	StrategyCascade Strategy = "cascade"
	// StrategyAggregate fans out independent calls and joins them.
	StrategyAggregate Strategy = "aggregate"
)

// Parameter declares one argument of a tool.
type Parameter struct {
	Name        string      `json:"name"`
	Type        string      `json:"type"` // string, integer, number, boolean
	Description string      `json:"description"`
	Required    bool        `json:"required"`
	Default     interface{} `json:"default,omitempty"`
	Enum        []string    `json:"enum,omitempty"`
	Minimum     *float64    `json:"minimum,omitempty"`
	Maximum     *float64    `json:"maximum,omitempty"`
}

// Handler executes a tool with validated, normalized arguments.
type Handler func(ctx context.Context, args map[string]interface{}) (interface{}, error)

// Definition describes a registered tool. Definitions are immutable after
// registration.
type Definition struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Strategy    Strategy    `json:"strategy"`
	Parameters  []Parameter `json:"parameters"`
	Handler     Handler     `json:"-"`
}

// Result is the outcome of one tool invocation.
type Result struct {
	Success  bool                   `json:"success"`
	Output   interface{}            `json:"output,omitempty"`
	Error    string                 `json:"error,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// normalizeArgs trims string values and applies declared defaults for absent
// optional parameters. Unknown extra fields pass through; they are ignored
// rather than rejected for forward compatibility.
func normalizeArgs(def *Definition, raw map[string]interface{}) map[string]interface{} {
	args := make(map[string]interface{}, len(raw))
	for k, v := range raw {
		if s, ok := v.(string); ok {
			args[k] = strings.TrimSpace(s)
		} else {
			args[k] = v
		}
	}
	for _, p := range def.Parameters {
		if _, present := args[p.Name]; !present && p.Default != nil {
			args[p.Name] = p.Default
		}
	}
	return args
}
