package cluster

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
)

// Pseudo status codes for failures that never produced an HTTP response.
const (
	Interrupt       = -5 // request canceled through its context
	URLParseError   = -4 // invalid request URL
	ConnectionError = -3 // network error
	Timeout         = -2 // deadline exceeded
	Unknown         = -1 // anything else
)

// APIError is a request that failed before the server answered.
type APIError struct {
	Status   int
	Message  string
	Original error
}

func (e *APIError) Error() string {
	if e.Original != nil {
		return fmt.Sprintf("%s (%d): %v", e.Message, e.Status, e.Original)
	}
	return fmt.Sprintf("%s (%d)", e.Message, e.Status)
}

func (e *APIError) Unwrap() error {
	return e.Original
}

// LoginError is returned when the login endpoint answers with anything but 200.
type LoginError struct {
	StatusCode int
	Body       string
}

func (e *LoginError) Error() string {
	return fmt.Sprintf("login failed with status %d", e.StatusCode)
}

// ErrInvalidBaseURL is wrapped by every base URL validation failure.
var ErrInvalidBaseURL = errors.New("invalid base url")

// handleHTTPError classifies a transport failure. Context errors are checked
// first because the client wraps them in *url.Error.
func handleHTTPError(err error) error {
	var opErr *net.OpError
	var urlErr *url.Error

	switch {
	case errors.Is(err, context.Canceled):
		return &APIError{Message: "request canceled", Original: err, Status: Interrupt}
	case errors.Is(err, context.DeadlineExceeded):
		return &APIError{Message: "request timed out", Original: err, Status: Timeout}
	case errors.As(err, &opErr):
		return &APIError{Message: "network error", Original: err, Status: ConnectionError}
	case errors.As(err, &urlErr):
		if urlErr.Timeout() {
			return &APIError{Message: "request timed out", Original: err, Status: Timeout}
		}
		return &APIError{Message: "request failed", Original: err, Status: ConnectionError}
	default:
		return &APIError{Message: err.Error(), Original: err, Status: Unknown}
	}
}
