package rms

import (
	"errors"
	"fmt"
)

var (
	// ErrRejected is matched by every *RejectedError.
	ErrRejected = errors.New("rms rejected the request")

	// ErrWaitTimeout is matched by every *WaitTimeoutError.
	ErrWaitTimeout = errors.New("change request still busy")

	// ErrNoStatusURL is returned when a flow has no change request to poll.
	ErrNoStatusURL = errors.New("replication flow has no change request status url")
)

// RejectedError is a deploy, undeploy or run request answered with status >= 400.
// No replication flow exists for a rejected request.
type RejectedError struct {
	Operation  Operation
	Flow       string
	StatusCode int
	Body       string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("%s %s: rejected with status %d", e.Operation, e.Flow, e.StatusCode)
}

func (e *RejectedError) Is(target error) bool {
	return target == ErrRejected
}

// WaitTimeoutError is returned when a change request stays busy for every
// allowed poll. Last is the final status observed.
type WaitTimeoutError struct {
	Flow     string
	Attempts int
	Last     *ChangeRequestStatus
}

func (e *WaitTimeoutError) Error() string {
	last := "none"
	if e.Last != nil {
		last = string(e.Last.Status)
	}
	return fmt.Sprintf("flow %s: still busy after %d polls (last status %s)", e.Flow, e.Attempts, last)
}

func (e *WaitTimeoutError) Is(target error) bool {
	return target == ErrWaitTimeout
}
