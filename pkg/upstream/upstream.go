// Package upstream provides a uniform request/response abstraction over the
// heterogeneous external registries (protein, pathway, structure, ontology).
// Callers describe one call as a Request; a Fetcher issues it and returns a
// Result decoded according to the declared content mode.
package upstream

import (
	"context"
	"encoding/json"
	"fmt"
)

// ContentMode declares how a response body is interpreted.
type ContentMode string

const (
	// ModeJSON decodes the body as a structured JSON payload.
	ModeJSON ContentMode = "json"
	// ModeText returns the body verbatim (FASTA, TSV, plain text).
	ModeText ContentMode = "text"
)

// Request describes a single upstream call. A request with no body is issued
// as a GET; setting JSONBody or TextBody turns it into a POST.
type Request struct {
	// Endpoint is the absolute URL of the upstream operation.
	Endpoint string
	// Params are appended as query parameters.
	Params map[string]string
	// Mode declares the expected response content mode.
	Mode ContentMode
	// JSONBody, when non-nil, is marshaled and sent as an application/json body.
	JSONBody interface{}
	// TextBody, when non-empty, is sent as a text/plain body.
	TextBody string
}

// Idempotent reports whether the request is a side-effect-free read. Only
// idempotent requests are eligible for result caching; POST-style calls are
// excluded even though none of the current upstream operations mutate state.
func (r Request) Idempotent() bool {
	return r.JSONBody == nil && r.TextBody == ""
}

// Result is the outcome of one upstream call, tagged by content mode.
type Result struct {
	Endpoint string
	Mode     ContentMode
	// JSON holds the decoded payload when Mode is ModeJSON.
	JSON json.RawMessage
	// Text holds the raw body when Mode is ModeText.
	Text string
}

// Decode unmarshals the structured payload into v.
func (r Result) Decode(v interface{}) error {
	if r.Mode != ModeJSON {
		return fmt.Errorf("result from %s is not structured (mode %s)", r.Endpoint, r.Mode)
	}
	return json.Unmarshal(r.JSON, v)
}

// Fetcher issues a single upstream request. Implementations must not retry
// internally and must not touch any result cache; both are caller concerns.
type Fetcher interface {
	Fetch(ctx context.Context, req Request) (Result, error)
}

// FetchFunc adapts a plain function to the Fetcher interface.
type FetchFunc func(ctx context.Context, req Request) (Result, error)

// Fetch implements Fetcher.
func (f FetchFunc) Fetch(ctx context.Context, req Request) (Result, error) {
	return f(ctx, req)
}
