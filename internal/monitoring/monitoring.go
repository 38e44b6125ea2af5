// Package monitoring reads the runtime monitors of replication flows.
package monitoring

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/suiyueranxin/di-qa-automated-e2e-testing/internal/cluster"
)

const (
	MonitorsPath = "/app/rms/api/dt/v1/replicationflowMonitors"
	flowsPath    = "/app/rms/api/dt/v1/replicationflows"
)

// ErrMonitorNotFound is returned by Monitor when no monitor carries the requested name.
var ErrMonitorNotFound = errors.New("replication flow monitor not found")

// Client reads monitors from one cluster.
type Client struct {
	api cluster.API
}

func New(api cluster.API) *Client {
	return &Client{api: api}
}

// Monitors lists the monitors of all replication flows.
func (c *Client) Monitors(ctx context.Context) ([]ReplicationMonitor, error) {
	var monitors []ReplicationMonitor
	if err := c.get(ctx, MonitorsPath, &monitors); err != nil {
		return nil, fmt.Errorf("list monitors: %w", err)
	}
	return monitors, nil
}

// Monitor returns the monitor of one replication flow.
func (c *Client) Monitor(ctx context.Context, name string) (*ReplicationMonitor, error) {
	var monitors []ReplicationMonitor
	if err := c.get(ctx, MonitorsPath+"?name="+url.QueryEscape(name), &monitors); err != nil {
		return nil, fmt.Errorf("monitor %s: %w", name, err)
	}
	if len(monitors) == 0 || monitors[0].Name != name {
		return nil, fmt.Errorf("%w: %s", ErrMonitorNotFound, name)
	}
	return &monitors[0], nil
}

// TaskMonitors lists the task monitors of one replication flow.
func (c *Client) TaskMonitors(ctx context.Context, name string) ([]TaskMonitor, error) {
	var monitors []TaskMonitor
	if err := c.get(ctx, flowsPath+"/"+url.PathEscape(name)+"/taskMonitors", &monitors); err != nil {
		return nil, fmt.Errorf("task monitors of %s: %w", name, err)
	}
	return monitors, nil
}

func (c *Client) get(ctx context.Context, path string, v any) error {
	resp, err := c.api.Get(ctx, path)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if err := json.Unmarshal(resp.Body, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
