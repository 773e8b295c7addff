package client

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrBadCredentials matches any *AuthenticationError via errors.Is
	ErrBadCredentials = errors.New("bad credentials")

	// ErrServerUnreachable wraps transport failures (DNS, refused connection, timeouts)
	ErrServerUnreachable = errors.New("could not reach server")

	// ErrCacheUnwritable wraps failures to persist a freshly obtained token
	ErrCacheUnwritable = errors.New("token cache is not writable")

	// ErrGatewayClosed is returned for requests issued after Close
	ErrGatewayClosed = errors.New("gateway is closed")
)

// AuthenticationError is returned when the login exchange answers with a
// non-success status. Body holds the raw server response for diagnostics.
type AuthenticationError struct {
	StatusCode int
	Body       string
	// Detail is the "detail" field of a JSON error body, if any
	Detail string
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("could not obtain token (status %d): %s", e.StatusCode, e.Body)
}

// Is reports whether target is ErrBadCredentials
func (e *AuthenticationError) Is(target error) bool {
	return target == ErrBadCredentials
}

func newAuthenticationError(statusCode int, body []byte) *AuthenticationError {
	return &AuthenticationError{
		StatusCode: statusCode,
		Body:       string(body),
		Detail:     extractDetail(body),
	}
}

// APIError is returned by CheckResponse when the status code is not the expected one
type APIError struct {
	StatusCode int
	Body       string
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("server returned status %d: %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("server returned status %d: %s", e.StatusCode, e.Body)
}

// extractDetail pulls the FastAPI-style "detail" member out of an error body.
// Non-string details (validation error lists) are re-encoded as compact JSON.
func extractDetail(body []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Detail) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(payload.Detail, &s); err == nil {
		return s
	}
	return string(payload.Detail)
}
