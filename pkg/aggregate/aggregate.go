// Package aggregate fans out independent upstream queries concurrently and
// joins them into one composite result. A sub-query failure never aborts its
// siblings and never surfaces as an error to the caller; it becomes a labeled
// entry in the result's error list.
package aggregate

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// Query is one named sub-query of a composite tool. It may be a single
// upstream call or a full cascade.
type Query func(ctx context.Context) (interface{}, error)

// Result is the composite outcome. Sources holds only the sub-queries that
// succeeded; each failure is one entry in Errors, labeled with its source
// name. Errors is ordered by completion, which is nondeterministic across
// runs.
type Result struct {
	Key     string                 `json:"key"`
	Sources map[string]interface{} `json:"sources"`
	Errors  []string               `json:"error_messages"`
}

// Aggregator runs composite queries. It has no total-failure path: even when
// every sub-query fails it returns a Result with all errors populated.
type Aggregator struct {
	log zerolog.Logger
}

// New creates an aggregator.
func New(logger zerolog.Logger) *Aggregator {
	return &Aggregator{log: logger.With().Str("component", "aggregator").Logger()}
}

type settled struct {
	name  string
	value interface{}
	err   error
}

// Run executes every sub-query concurrently and returns once all have
// settled.
func (a *Aggregator) Run(ctx context.Context, key string, queries map[string]Query) Result {
	result := Result{
		Key:     key,
		Sources: make(map[string]interface{}, len(queries)),
		Errors:  []string{},
	}
	if len(queries) == 0 {
		return result
	}

	outcomes := make(chan settled, len(queries))
	var wg sync.WaitGroup
	for name, query := range queries {
		wg.Add(1)
		go func(name string, query Query) {
			defer wg.Done()
			value, err := query(ctx)
			outcomes <- settled{name: name, value: value, err: err}
		}(name, query)
	}
	wg.Wait()
	close(outcomes)

	failed := 0
	for outcome := range outcomes {
		if outcome.err != nil {
			failed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", outcome.name, outcome.err))
			continue
		}
		result.Sources[outcome.name] = outcome.value
	}

	a.log.Debug().
		Str("key", key).
		Int("sources", len(result.Sources)).
		Int("failed", failed).
		Msg("Aggregate completed")
	return result
}
