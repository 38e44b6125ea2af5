// Package graph runs pipeline graphs on the cluster's pipeline modeler and
// follows their status.
//
// A run is identified by the handle the modeler assigns when it accepts the
// graph. Graphs feeding a mass transfer publish the transfer's id as the
// MT_ID configuration substitution, which MassTransferID reads back.
package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/suiyueranxin/di-qa-automated-e2e-testing/internal/cluster"
)

const (
	// GraphsPath is the runtime collection of graph instances.
	GraphsPath = "/app/pipeline-modeler/service/v1/runtime/graphs"

	// QueryPath filters graph instances.
	QueryPath = "/app/pipeline-modeler/service/v1/runtime/graphsquery"
)

// MassTransferKey is the configuration substitution carrying the mass transfer id.
const MassTransferKey = "MT_ID"

// DefaultTraceLevel is the trace level graphs are started with.
const DefaultTraceLevel = "DEBUG"

const (
	DefaultPollInterval = 2 * time.Second
	DefaultMaxAttempts  = 300
)

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger. Polls are logged at Debug.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithPollInterval sets the pause between polls of Wait.
func WithPollInterval(d time.Duration) Option {
	return func(c *Client) { c.pollInterval = d }
}

// WithMaxAttempts sets the poll limit of Wait.
func WithMaxAttempts(n int) Option {
	return func(c *Client) { c.maxAttempts = n }
}

// Client starts and inspects graphs on one cluster.
type Client struct {
	api          cluster.API
	logger       *slog.Logger
	pollInterval time.Duration
	maxAttempts  int
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

// SnapshotConfig controls periodic snapshots of a running graph. The zero
// value is sent as an empty object.
type SnapshotConfig struct {
	Enabled       bool `json:"enabled,omitempty"`
	PeriodSeconds int  `json:"periodSeconds,omitempty"`
}

// RunOptions are the optional parts of a run request.
type RunOptions struct {
	Substitutions map[string]string
	Snapshot      SnapshotConfig
}

type runRequest struct {
	Src                        string            `json:"src"`
	Name                       string            `json:"name"`
	TraceLevel                 string            `json:"traceLevel"`
	SnapshotConfig             SnapshotConfig    `json:"snapshotConfig"`
	ConfigurationSubstitutions map[string]string `json:"configurationSubstitutions"`
}

// Run starts the graph src under name. Only 200 counts as accepted; any
// other status returns a nil graph and a *RequestError.
func (c *Client) Run(ctx context.Context, src, name string, opts RunOptions) (*Graph, error) {
	subs := opts.Substitutions
	if subs == nil {
		subs = map[string]string{}
	}
	body, err := json.Marshal(runRequest{
		Src:                        src,
		Name:                       name,
		TraceLevel:                 DefaultTraceLevel,
		SnapshotConfig:             opts.Snapshot,
		ConfigurationSubstitutions: subs,
	})
	if err != nil {
		return nil, fmt.Errorf("encode run of %s: %w", src, err)
	}

	resp, err := c.api.Post(ctx, GraphsPath, body)
	if err != nil {
		return nil, fmt.Errorf("run graph %s: %w", src, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &RequestError{Op: "run", Graph: src, StatusCode: resp.StatusCode, Body: string(resp.Body)}
	}

	var inst Instance
	if err := resp.DecodeJSON(&inst); err != nil {
		return nil, fmt.Errorf("run graph %s: %w", src, err)
	}
	if inst.Handle == "" {
		return nil, fmt.Errorf("run graph %s: %w", src, ErrNoHandle)
	}
	c.logger.Debug("graph started", "src", src, "name", name, "handle", inst.Handle, "status", inst.Status)
	return c.bind(src, &inst), nil
}

// Graph returns a handle on an instance whose handle is already known.
func (c *Client) Graph(handle string) *Graph {
	return &Graph{handle: handle, client: c}
}

type queryRequest struct {
	Filter      []string `json:"filter"`
	DetailLevel string   `json:"detailLevel"`
}

// StatusByName finds the top-level instance called name. The first match in
// the modeler's order wins; no match returns ErrGraphNotFound.
func (c *Client) StatusByName(ctx context.Context, name string) (*Graph, error) {
	body, err := json.Marshal(queryRequest{Filter: []string{"equal", "parent", ""}, DetailLevel: "graph"})
	if err != nil {
		return nil, err
	}
	resp, err := c.api.Post(ctx, QueryPath, body)
	if err != nil {
		return nil, fmt.Errorf("query graphs: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &RequestError{Op: "query", StatusCode: resp.StatusCode, Body: string(resp.Body)}
	}

	var instances []Instance
	if err := resp.DecodeJSON(&instances); err != nil {
		return nil, fmt.Errorf("query graphs: %w", err)
	}
	for i := range instances {
		if instances[i].Name == name {
			return c.bind(instances[i].Src, &instances[i]), nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrGraphNotFound, name)
}

func (c *Client) bind(src string, inst *Instance) *Graph {
	return &Graph{src: src, handle: inst.Handle, status: inst.Status, last: inst, client: c}
}
