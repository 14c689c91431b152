// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package shopping

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

var (
	// ErrEmptyQuery is returned when a request has no search text.
	ErrEmptyQuery = errors.New("search query is empty")

	// ErrStartOutOfRange is returned when start is outside [1, MaxStart].
	ErrStartOutOfRange = fmt.Errorf("start must be between 1 and %d", MaxStart)

	// ErrInvalidSort is returned for sort modes the API does not accept.
	ErrInvalidSort = errors.New("invalid sort mode")

	// ErrMissingItems is returned when a response body has no items field.
	ErrMissingItems = errors.New("response has no items field")

	// ErrMalformedResponse is returned when a response body is not valid JSON.
	ErrMalformedResponse = errors.New("malformed response body")
)

// StatusError reports a non-200 response from the search API. Code and
// Message are filled from the API's JSON error body when present.
type StatusError struct {
	StatusCode int
	Code       string
	Message    string
	Body       string
}

func (e *StatusError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("shopping API returned HTTP %d (%s: %s)", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("shopping API returned HTTP %d", e.StatusCode)
}

// TransportError wraps a failure to reach the search API.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("shopping API request: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// errorTypeLabel maps an error to a metrics label.
func errorTypeLabel(err error) string {
	if err == nil {
		return "unknown"
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		switch statusErr.StatusCode {
		case http.StatusTooManyRequests:
			return "rate_limited"
		case http.StatusUnauthorized, http.StatusForbidden:
			return "unauthorized"
		default:
			return "status"
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timeout"
	}
	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return "connection"
	}
	switch {
	case errors.Is(err, ErrMissingItems):
		return "missing_items"
	case errors.Is(err, ErrMalformedResponse):
		return "malformed"
	}
	return "other"
}
