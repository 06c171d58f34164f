package tool

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
	"github.com/xeipuuv/gojsonschema"
)

// DefaultInvocationTimeout bounds one invocation's total wall-clock time.
const DefaultInvocationTimeout = 60 * time.Second

// Registry maps tool names to their schemas and handlers and dispatches
// invocations. Tools are registered once at process start; Execute is safe for
// concurrent use.
type Registry struct {
	tools   map[string]*Definition
	schemas map[string]*gojsonschema.Schema
	timeout time.Duration
	log     zerolog.Logger
	mu      sync.RWMutex
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithInvocationTimeout overrides the per-invocation timeout.
func WithInvocationTimeout(d time.Duration) RegistryOption {
	return func(r *Registry) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// NewRegistry creates an empty tool registry.
func NewRegistry(logger zerolog.Logger, opts ...RegistryOption) *Registry {
	r := &Registry{
		tools:   make(map[string]*Definition),
		schemas: make(map[string]*gojsonschema.Schema),
		timeout: DefaultInvocationTimeout,
		log:     logger.With().Str("component", "tool_registry").Logger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a tool to the catalog, compiling its argument schema.
func (r *Registry) Register(def Definition) error {
	if err := checkDefinition(def); err != nil {
		return fmt.Errorf("invalid tool definition: %w", err)
	}

	schema, err := buildSchema(def)
	if err != nil {
		return fmt.Errorf("failed to compile schema for %s: %w", def.Name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[def.Name]; exists {
		return fmt.Errorf("tool already registered: %s", def.Name)
	}
	r.tools[def.Name] = &def
	r.schemas[def.Name] = schema

	r.log.Info().Str("tool", def.Name).Str("strategy", string(def.Strategy)).Msg("Tool registered")
	return nil
}

// Get returns a tool definition by name, or nil.
func (r *Registry) Get(name string) *Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tools[name]
}

// List returns all registered tool names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Execute runs one tool invocation: validate, dispatch with a timeout, and
// return a Result. Validation failures and unknown tool names are terminal
// failures; anything the handler reports is carried in the result payload.
// Execute never returns a Go error and never panics past this boundary.
func (r *Registry) Execute(ctx context.Context, toolName string, rawArgs map[string]interface{}) Result {
	invocationID, _ := gonanoid.New()
	start := time.Now()

	r.mu.RLock()
	def := r.tools[toolName]
	schema := r.schemas[toolName]
	r.mu.RUnlock()

	if def == nil {
		r.log.Error().Str("tool", toolName).Str("invocation", invocationID).Msg("Unknown tool")
		return Result{Success: false, Error: fmt.Sprintf("unknown tool: %s", toolName)}
	}

	args := normalizeArgs(def, rawArgs)
	if err := validateArgs(toolName, schema, args); err != nil {
		r.log.Warn().
			Str("tool", toolName).
			Str("invocation", invocationID).
			Err(err).
			Msg("Argument validation failed")
		return Result{Success: false, Error: err.Error()}
	}

	r.log.Debug().Str("tool", toolName).Str("invocation", invocationID).Msg("Dispatching tool")

	timeoutCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	resultChan := make(chan interface{}, 1)
	errChan := make(chan error, 1)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				errChan <- fmt.Errorf("tool handler panic: %v", rec)
			}
		}()
		output, err := def.Handler(timeoutCtx, args)
		if err != nil {
			errChan <- err
		} else {
			resultChan <- output
		}
	}()

	select {
	case output := <-resultChan:
		duration := time.Since(start)
		r.log.Debug().
			Str("tool", toolName).
			Str("invocation", invocationID).
			Dur("duration", duration).
			Msg("Tool invocation completed")
		return Result{
			Success: true,
			Output:  output,
			Metadata: map[string]interface{}{
				"invocation_id": invocationID,
				"duration_ms":   duration.Milliseconds(),
			},
		}

	case err := <-errChan:
		duration := time.Since(start)
		r.log.Error().
			Str("tool", toolName).
			Str("invocation", invocationID).
			Dur("duration", duration).
			Err(err).
			Msg("Tool invocation failed")
		return Result{
			Success: false,
			Error:   err.Error(),
			Metadata: map[string]interface{}{
				"invocation_id": invocationID,
				"duration_ms":   duration.Milliseconds(),
			},
		}

	case <-timeoutCtx.Done():
		// In-flight sub-calls are abandoned; late results are discarded
		// with the buffered channels.
		duration := time.Since(start)
		reason := fmt.Sprintf("tool invocation timed out after %v", r.timeout)
		if errors.Is(ctx.Err(), context.Canceled) {
			reason = "tool invocation cancelled"
		}
		r.log.Error().
			Str("tool", toolName).
			Str("invocation", invocationID).
			Dur("duration", duration).
			Msg("Tool invocation aborted")
		return Result{
			Success: false,
			Error:   reason,
			Metadata: map[string]interface{}{
				"invocation_id": invocationID,
				"duration_ms":   duration.Milliseconds(),
			},
		}
	}
}

func checkDefinition(def Definition) error {
	if def.Name == "" {
		return fmt.Errorf("tool name cannot be empty")
	}
	if def.Description == "" {
		return fmt.Errorf("tool description cannot be empty for %s", def.Name)
	}
	if def.Handler == nil {
		return fmt.Errorf("tool handler cannot be nil for %s", def.Name)
	}
	switch def.Strategy {
	case StrategySingle, StrategyCascade, StrategyAggregate:
	default:
		return fmt.Errorf("invalid strategy %q for %s", def.Strategy, def.Name)
	}

	validTypes := map[string]bool{
		"string": true, "number": true, "integer": true, "boolean": true,
	}
	for _, param := range def.Parameters {
		if param.Name == "" {
			return fmt.Errorf("parameter name cannot be empty in %s", def.Name)
		}
		if !validTypes[param.Type] {
			return fmt.Errorf("invalid parameter type %q for %s.%s", param.Type, def.Name, param.Name)
		}
	}
	return nil
}
