package graph

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrGraphNotFound is returned by StatusByName without a match and is
	// matched by a *RequestError with status 404.
	ErrGraphNotFound = errors.New("graph not found")

	// ErrNoHandle is returned for a graph without a runtime handle.
	ErrNoHandle = errors.New("graph has no handle")

	// ErrNoMassTransferID is returned when the instance carries no MT_ID substitution.
	ErrNoMassTransferID = errors.New("graph has no mass transfer id")

	// ErrWaitTimeout is matched by every *WaitTimeoutError.
	ErrWaitTimeout = errors.New("graph still active")
)

// RequestError is a pipeline modeler call answered with an unexpected status.
// Graph is the source for runs and the handle otherwise.
type RequestError struct {
	Op         string
	Graph      string
	StatusCode int
	Body       string
}

func (e *RequestError) Error() string {
	if e.Graph == "" {
		return fmt.Sprintf("graph %s failed with status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("graph %s of %s failed with status %d", e.Op, e.Graph, e.StatusCode)
}

func (e *RequestError) Is(target error) bool {
	return target == ErrGraphNotFound && e.StatusCode == http.StatusNotFound
}

// WaitTimeoutError is returned when an instance stays active for every allowed poll.
type WaitTimeoutError struct {
	Handle   string
	Attempts int
	Last     Status
}

func (e *WaitTimeoutError) Error() string {
	return fmt.Sprintf("graph %s: still %s after %d polls", e.Handle, e.Last, e.Attempts)
}

func (e *WaitTimeoutError) Is(target error) bool {
	return target == ErrWaitTimeout
}
