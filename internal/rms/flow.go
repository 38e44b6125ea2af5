package rms

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

// ReplicationFlow is a handle on a deployed flow and its latest change
// request. It lives only as long as the process that created it.
type ReplicationFlow struct {
	name      string
	statusURL string
	operation Operation
	client    *Client

	// PollInterval is the pause between polls. Zero polls without pausing.
	PollInterval time.Duration

	// MaxAttempts bounds the polls of one WaitWhile call. Values below 1 allow one poll.
	MaxAttempts int
}

func (f *ReplicationFlow) Name() string         { return f.name }
func (f *ReplicationFlow) StatusURL() string    { return f.statusURL }
func (f *ReplicationFlow) Operation() Operation { return f.operation }

// ChangeRequestStatus fetches the current status of the change request.
func (f *ReplicationFlow) ChangeRequestStatus(ctx context.Context) (*ChangeRequestStatus, error) {
	if f.statusURL == "" {
		return nil, ErrNoStatusURL
	}
	resp, err := f.client.api.Get(ctx, statusPrefix+f.statusURL)
	if err != nil {
		return nil, fmt.Errorf("poll %s: %w", f.name, err)
	}
	if !resp.OK() {
		return nil, fmt.Errorf("poll %s: unexpected status %d", f.name, resp.StatusCode)
	}
	status, err := ParseChangeRequestStatus(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("poll %s: %w", f.name, err)
	}
	return status, nil
}

// RunOrResume asks the service to start all inactive tasks. It does not poll;
// later polls of f are reported as OperationRun.
func (f *ReplicationFlow) RunOrResume(ctx context.Context) error {
	path := FlowsPath + "/" + url.PathEscape(f.name) + "?requestType=RUN_OR_RESUME_ALL_INACTIVE_TASKS"
	resp, err := f.client.api.Put(ctx, path, []byte{})
	if err != nil {
		return fmt.Errorf("run %s: %w", f.name, err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return &RejectedError{Operation: OperationRun, Flow: f.name, StatusCode: resp.StatusCode, Body: string(resp.Body)}
	}
	f.operation = OperationRun
	f.client.logger.Debug("run or resume requested", "flow", f.name, "status", resp.StatusCode)
	return nil
}

// WaitWhile polls until the status is not in busy and returns that status.
//
// One poll is made per busy status observed. Polls are paced by PollInterval
// and limited by MaxAttempts; running out of attempts returns a
// *WaitTimeoutError carrying the last status. Cancelling ctx stops the wait.
func (f *ReplicationFlow) WaitWhile(ctx context.Context, busy ...Status) (*ChangeRequestStatus, error) {
	limit := rate.Inf
	if f.PollInterval > 0 {
		limit = rate.Every(f.PollInterval)
	}
	limiter := rate.NewLimiter(limit, 1)

	attempts := max(f.MaxAttempts, 1)
	var last *ChangeRequestStatus
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := limiter.Wait(ctx); err != nil {
			return last, fmt.Errorf("wait for %s: %w", f.name, err)
		}

		status, err := f.ChangeRequestStatus(ctx)
		if err != nil {
			return last, err
		}
		last = status

		f.client.logger.Debug("change request status", "flow", f.name, "attempt", attempt, "status", status.Status)
		if f.client.observer != nil {
			f.client.observer(PollEvent{Flow: f.name, Operation: f.operation, Attempt: attempt, Status: status})
		}

		if !status.Status.in(busy) {
			return status, nil
		}
	}
	return last, &WaitTimeoutError{Flow: f.name, Attempts: attempts, Last: last}
}

// WaitWhileBusy waits while the change request is VALIDATING or PROCESSING.
func (f *ReplicationFlow) WaitWhileBusy(ctx context.Context) (*ChangeRequestStatus, error) {
	return f.WaitWhile(ctx, BusyStatuses...)
}
