package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "promethica/0.1.0"
)

// Client is the production Fetcher backed by net/http. One request, fixed
// timeout, no retries; retry policy belongs to callers.
type Client struct {
	httpClient *http.Client
	userAgent  string
	log        zerolog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithTimeout overrides the per-call timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// NewClient creates a new upstream HTTP client.
func NewClient(logger zerolog.Logger, opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		userAgent: defaultUserAgent,
		log:       logger.With().Str("component", "upstream").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch implements Fetcher.
func (c *Client) Fetch(ctx context.Context, req Request) (Result, error) {
	httpReq, err := c.buildRequest(ctx, req)
	if err != nil {
		return Result{}, err
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.log.Warn().Str("endpoint", req.Endpoint).Err(err).Msg("Upstream request failed")
		return Result{}, &NetworkError{Endpoint: req.Endpoint, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, &NetworkError{Endpoint: req.Endpoint, Err: err}
	}

	c.log.Debug().
		Str("endpoint", req.Endpoint).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Int("bytes", len(body)).
		Msg("Upstream request completed")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Result{}, &StatusError{
			Endpoint: req.Endpoint,
			Code:     resp.StatusCode,
			Body:     truncateBody(body),
		}
	}

	result := Result{Endpoint: req.Endpoint, Mode: req.Mode}
	switch req.Mode {
	case ModeJSON:
		if !json.Valid(body) {
			return Result{}, &DecodeError{
				Endpoint: req.Endpoint,
				Err:      fmt.Errorf("body is not valid JSON"),
			}
		}
		result.JSON = json.RawMessage(body)
	case ModeText:
		result.Text = string(body)
	default:
		return Result{}, &DecodeError{
			Endpoint: req.Endpoint,
			Err:      fmt.Errorf("unknown content mode %q", req.Mode),
		}
	}

	return result, nil
}

func (c *Client) buildRequest(ctx context.Context, req Request) (*http.Request, error) {
	endpoint := req.Endpoint
	if len(req.Params) > 0 {
		values := url.Values{}
		for k, v := range req.Params {
			values.Set(k, v)
		}
		sep := "?"
		if strings.Contains(endpoint, "?") {
			sep = "&"
		}
		endpoint = endpoint + sep + values.Encode()
	}

	var (
		httpReq *http.Request
		err     error
	)
	switch {
	case req.JSONBody != nil:
		payload, merr := json.Marshal(req.JSONBody)
		if merr != nil {
			return nil, &DecodeError{Endpoint: req.Endpoint, Err: fmt.Errorf("failed to marshal request body: %w", merr)}
		}
		httpReq, err = http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
		if httpReq != nil {
			httpReq.Header.Set("Content-Type", "application/json")
		}
	case req.TextBody != "":
		httpReq, err = http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(req.TextBody))
		if httpReq != nil {
			httpReq.Header.Set("Content-Type", "text/plain")
		}
	default:
		httpReq, err = http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	}
	if err != nil {
		return nil, &NetworkError{Endpoint: req.Endpoint, Err: err}
	}

	httpReq.Header.Set("User-Agent", c.userAgent)
	if req.Mode == ModeJSON {
		httpReq.Header.Set("Accept", "application/json")
	}
	return httpReq, nil
}
