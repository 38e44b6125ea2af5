// Package rms talks to the replication management service.
//
// Deploying or undeploying a replication starts a change request. The
// service answers with a status URL, wrapped here in a ReplicationFlow,
// which is polled until the request leaves its busy states:
//
//	PENDING, VALIDATING, PROCESSING  ->  COMPLETED, ERROR
//
// No transition table is enforced. WaitWhile only checks whether the observed
// status is in the caller's busy set. ERROR is a result, not a Go error.
package rms

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/suiyueranxin/di-qa-automated-e2e-testing/internal/cluster"
	"github.com/suiyueranxin/di-qa-automated-e2e-testing/internal/replication"
)

// FlowsPath is the designtime collection of replication flows.
const FlowsPath = "/app/rms/api/dt/v1/replicationflows"

// statusPrefix is prepended to the status URL returned by the service.
const statusPrefix = "/app/rms"

const (
	DefaultPollInterval = 500 * time.Millisecond
	DefaultMaxAttempts  = 600
)

// Operation names the request that started a change request.
type Operation string

const (
	OperationDeploy   Operation = "deploy"
	OperationUndeploy Operation = "undeploy"
	OperationRun      Operation = "run"
)

// PollEvent describes one status poll.
type PollEvent struct {
	Flow      string
	Operation Operation
	Attempt   int
	Status    *ChangeRequestStatus
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger. Polls are logged at Debug.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithPollInterval sets the pause between polls of new flows.
func WithPollInterval(d time.Duration) Option {
	return func(c *Client) { c.pollInterval = d }
}

// WithMaxAttempts sets the poll limit of new flows.
func WithMaxAttempts(n int) Option {
	return func(c *Client) { c.maxAttempts = n }
}

// WithPollObserver registers a function called after every poll.
func WithPollObserver(fn func(PollEvent)) Option {
	return func(c *Client) { c.observer = fn }
}

// Client submits replications to the service.
type Client struct {
	api          cluster.API
	logger       *slog.Logger
	pollInterval time.Duration
	maxAttempts  int
	observer     func(PollEvent)
}

// New creates a client on top of a logged-in cluster session.
func New(api cluster.API, opts ...Option) *Client {
	c := &Client{
		api:          api,
		logger:       slog.New(slog.DiscardHandler),
		pollInterval: DefaultPollInterval,
		maxAttempts:  DefaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type changeRequestResponse struct {
	URL string `json:"url"`
}

// CreateReplicationFlow deploys r. An incomplete replication is refused
// before any request with the error of r.Complete. A status >= 400 returns a
// nil flow and a *RejectedError.
func (c *Client) CreateReplicationFlow(ctx context.Context, r *replication.Replication) (*ReplicationFlow, error) {
	if err := r.Complete(); err != nil {
		return nil, fmt.Errorf("deploy: %w", err)
	}
	data, err := replication.Marshal(r)
	if err != nil {
		return nil, err
	}
	resp, err := c.api.Post(ctx, FlowsPath, data)
	if err != nil {
		return nil, fmt.Errorf("deploy %s: %w", r.Name(), err)
	}
	return c.flowFromResponse(OperationDeploy, r.Name(), resp)
}

// DeleteReplicationFlow undeploys the flow with the given name. A status >= 400
// returns a nil flow and a *RejectedError.
func (c *Client) DeleteReplicationFlow(ctx context.Context, name string) (*ReplicationFlow, error) {
	resp, err := c.api.Delete(ctx, FlowsPath+"/"+url.PathEscape(name))
	if err != nil {
		return nil, fmt.Errorf("undeploy %s: %w", name, err)
	}
	return c.flowFromResponse(OperationUndeploy, name, resp)
}

// Flow returns a handle for a flow whose status URL is already known.
// An empty statusURL gives a handle that can run but not be polled.
func (c *Client) Flow(name, statusURL string) *ReplicationFlow {
	return &ReplicationFlow{
		name:         name,
		statusURL:    statusURL,
		client:       c,
		PollInterval: c.pollInterval,
		MaxAttempts:  c.maxAttempts,
	}
}

func (c *Client) flowFromResponse(op Operation, name string, resp *cluster.Response) (*ReplicationFlow, error) {
	if resp.StatusCode >= http.StatusBadRequest {
		c.logger.Warn("change request rejected", "operation", op, "flow", name, "status", resp.StatusCode)
		return nil, &RejectedError{Operation: op, Flow: name, StatusCode: resp.StatusCode, Body: string(resp.Body)}
	}

	var body changeRequestResponse
	if err := resp.DecodeJSON(&body); err != nil {
		return nil, fmt.Errorf("%s %s: %w", op, name, err)
	}

	flow := c.Flow(name, body.URL)
	flow.operation = op
	c.logger.Debug("change request started", "operation", op, "flow", name, "url", body.URL)
	return flow, nil
}
