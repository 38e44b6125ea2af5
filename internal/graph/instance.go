package graph

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"slices"

	"golang.org/x/time/rate"
)

// Status is the lifecycle state the modeler reports for an instance.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusStopping  Status = "stopping"
	StatusCompleted Status = "completed"
	StatusDead      Status = "dead"
)

// ActiveStatuses are the states Wait keeps polling in.
var ActiveStatuses = []Status{StatusPending, StatusRunning, StatusStopping}

// Active reports whether the instance has not finished yet.
func (s Status) Active() bool {
	return slices.Contains(ActiveStatuses, s)
}

// Instance is a graph instance as the runtime API describes it.
type Instance struct {
	Handle                     string            `json:"handle"`
	Name                       string            `json:"name"`
	Src                        string            `json:"src"`
	Status                     Status            `json:"status"`
	Message                    string            `json:"message,omitempty"`
	ExecutionType              string            `json:"executionType,omitempty"`
	Submitted                  int64             `json:"submitted,omitempty"`
	Started                    int64             `json:"started,omitempty"`
	Updated                    int64             `json:"updated,omitempty"`
	Stopped                    int64             `json:"stopped,omitempty"`
	ConfigurationSubstitutions map[string]string `json:"configurationSubstitutions,omitempty"`
}

// Graph is a handle on one started instance. The status is the one seen by
// the last call that read the instance.
type Graph struct {
	src    string
	handle string
	status Status
	last   *Instance
	client *Client
}

func (g *Graph) Src() string    { return g.src }
func (g *Graph) Handle() string { return g.handle }
func (g *Graph) Status() Status { return g.status }

// Instance returns the last description read, or nil before the first read.
func (g *Graph) Instance() *Instance { return g.last }

// Refresh reads the instance and returns its status. On failure the cached
// status is cleared.
func (g *Graph) Refresh(ctx context.Context) (Status, error) {
	inst, err := g.read(ctx, "status")
	if err != nil {
		g.status = ""
		return "", err
	}
	g.status = inst.Status
	return g.status, nil
}

// MassTransferID reads the MT_ID substitution of the instance.
func (g *Graph) MassTransferID(ctx context.Context) (string, error) {
	inst, err := g.read(ctx, "mass transfer id")
	if err != nil {
		return "", err
	}
	id, ok := inst.ConfigurationSubstitutions[MassTransferKey]
	if !ok || id == "" {
		return "", fmt.Errorf("graph %s: %w", g.handle, ErrNoMassTransferID)
	}
	return id, nil
}

// Wait polls while the instance is active and returns the first finished
// status. Polls are paced and bounded by the client's poll settings; running
// out of attempts returns a *WaitTimeoutError.
func (g *Graph) Wait(ctx context.Context) (Status, error) {
	c := g.client
	limit := rate.Inf
	if c.pollInterval > 0 {
		limit = rate.Every(c.pollInterval)
	}
	limiter := rate.NewLimiter(limit, 1)

	attempts := max(c.maxAttempts, 1)
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := limiter.Wait(ctx); err != nil {
			return g.status, fmt.Errorf("wait for graph %s: %w", g.handle, err)
		}
		status, err := g.Refresh(ctx)
		if err != nil {
			return "", err
		}
		c.logger.Debug("graph status", "handle", g.handle, "attempt", attempt, "status", status)
		if !status.Active() {
			return status, nil
		}
	}
	return g.status, &WaitTimeoutError{Handle: g.handle, Attempts: attempts, Last: g.status}
}

func (g *Graph) read(ctx context.Context, op string) (*Instance, error) {
	if g.handle == "" {
		return nil, ErrNoHandle
	}
	resp, err := g.client.api.Get(ctx, GraphsPath+"/"+url.PathEscape(g.handle))
	if err != nil {
		return nil, fmt.Errorf("%s of graph %s: %w", op, g.handle, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &RequestError{Op: op, Graph: g.handle, StatusCode: resp.StatusCode, Body: string(resp.Body)}
	}
	var inst Instance
	if err := resp.DecodeJSON(&inst); err != nil {
		return nil, fmt.Errorf("%s of graph %s: %w", op, g.handle, err)
	}
	g.last = &inst
	if g.src == "" {
		g.src = inst.Src
	}
	return &inst, nil
}
