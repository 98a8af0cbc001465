package client

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for use with errors.Is().
var (
	// ErrUnauthorized is returned when the gateway rejects the API key.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden is returned when the key's role is not permitted to
	// perform the operation.
	ErrForbidden = errors.New("forbidden")

	// ErrRateLimited is returned when the caller exceeded the gateway's
	// request budget. RetryAfter on the APIError says when to try again.
	ErrRateLimited = errors.New("rate limited")

	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("not found")
)

// APIError is a non-2xx answer from the gateway, carrying the decoded error
// envelope.
type APIError struct {
	// StatusCode is the HTTP status the gateway answered with.
	StatusCode int
	// Message is the human-readable error description.
	Message string
	// RequestID identifies the request in gateway logs, when present.
	RequestID string
	// RetryAfter is the parsed Retry-After header in seconds; zero when the
	// gateway sent none.
	RetryAfter int
}

// Error returns a human-readable description of the failure.
func (e *APIError) Error() string {
	return fmt.Sprintf("portcullis: server returned %d: %s", e.StatusCode, e.Message)
}

// Is maps well-known status codes onto the package's sentinel errors, so
// callers can write errors.Is(err, ErrForbidden) without inspecting codes.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	case ErrForbidden:
		return e.StatusCode == http.StatusForbidden
	case ErrRateLimited:
		return e.StatusCode == http.StatusTooManyRequests
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	}
	return false
}
