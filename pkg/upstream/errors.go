package upstream

import "fmt"

// maxBodySnippet bounds how much of an error body is carried in a StatusError.
const maxBodySnippet = 512

// NetworkError indicates the request never produced a usable response
// (connection refused, DNS failure, timeout).
type NetworkError struct {
	Endpoint string
	Err      error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("upstream %s unreachable: %v", e.Endpoint, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// StatusError indicates the upstream answered with a non-success status code.
// Body holds a truncated snippet of the response for diagnostics.
type StatusError struct {
	Endpoint string
	Code     int
	Body     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream %s returned status %d: %s", e.Endpoint, e.Code, e.Body)
}

// DecodeError indicates the response body did not match the declared content
// mode or was malformed.
type DecodeError struct {
	Endpoint string
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode response from %s: %v", e.Endpoint, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func truncateBody(body []byte) string {
	if len(body) > maxBodySnippet {
		return string(body[:maxBodySnippet]) + "..."
	}
	return string(body)
}
