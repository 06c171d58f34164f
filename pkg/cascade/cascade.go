// Package cascade sequences dependent upstream calls: each step builds its
// request from values extracted out of earlier step results. Steps run
// strictly in order and the cascade fails fast the moment a step's fetch or
// extraction fails.
package cascade

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/harun/promethica/pkg/upstream"
)

// Context accumulates values extracted across cascade steps. It is scoped to
// one invocation and discarded afterward.
type Context map[string]string

// Stage identifies which phase of a step failed.
type Stage string

const (
	// StageFetch means the step's upstream call failed.
	StageFetch Stage = "fetch"
	// StageExtract means the call succeeded but the required value could
	// not be extracted from its result.
	StageExtract Stage = "extract"
)

// Error reports which step of a cascade failed and in which stage. Remaining
// steps are never attempted after one is returned.
type Error struct {
	Step  string
	Stage Stage
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("cascade step %s failed during %s: %v", e.Step, e.Stage, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Step is one link in a cascade. Build derives the step's request purely from
// the accumulated context; Extract pulls values out of the step's result and
// stores them for later steps. A nil Extract keeps the result without
// extracting anything.
type Step struct {
	Name    string
	Build   func(cc Context) (upstream.Request, error)
	Extract func(res upstream.Result, cc Context) error
}

// Resolver executes cascades through a fetch function. The function is
// expected to be cache-aware so each step independently consults and populates
// the result cache.
type Resolver struct {
	fetch upstream.FetchFunc
	log   zerolog.Logger
}

// NewResolver creates a cascade resolver around the given fetch function.
func NewResolver(fetch upstream.FetchFunc, logger zerolog.Logger) *Resolver {
	return &Resolver{
		fetch: fetch,
		log:   logger.With().Str("component", "cascade").Logger(),
	}
}

// Run executes the steps in order and returns the final step's result along
// with the full accumulated context.
func (r *Resolver) Run(ctx context.Context, steps []Step) (upstream.Result, Context, error) {
	cc := Context{}
	var last upstream.Result

	for i, step := range steps {
		req, err := step.Build(cc)
		if err != nil {
			// A Build failure means earlier extraction left the context
			// unusable for this step.
			return upstream.Result{}, cc, &Error{Step: step.Name, Stage: StageExtract, Err: err}
		}

		res, err := r.fetch(ctx, req)
		if err != nil {
			r.log.Warn().
				Str("step", step.Name).
				Int("index", i).
				Err(err).
				Msg("Cascade step fetch failed")
			return upstream.Result{}, cc, &Error{Step: step.Name, Stage: StageFetch, Err: err}
		}

		if step.Extract != nil {
			if err := step.Extract(res, cc); err != nil {
				r.log.Warn().
					Str("step", step.Name).
					Int("index", i).
					Err(err).
					Msg("Cascade step extraction failed")
				return upstream.Result{}, cc, &Error{Step: step.Name, Stage: StageExtract, Err: err}
			}
		}
		last = res
	}

	return last, cc, nil
}
