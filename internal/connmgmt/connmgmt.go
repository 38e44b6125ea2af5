// Package connmgmt reads and writes entries of the cluster's connection management.
package connmgmt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/suiyueranxin/di-qa-automated-e2e-testing/internal/cluster"
)

// ConnectionsPath is the collection of connections.
const ConnectionsPath = "/app/datahub-app-connection/connections"

// ErrConnectionNotFound is returned by GetConnection for any status other than 200.
var ErrConnectionNotFound = errors.New("connection not found")

// RequestError is a save or remove answered with an unexpected status.
type RequestError struct {
	Op         string
	ID         string
	StatusCode int
	Body       string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s connection %s: status %d: %s", e.Op, e.ID, e.StatusCode, e.Body)
}

// Client accesses the connection management of one cluster.
type Client struct {
	api cluster.API
}

func New(api cluster.API) *Client {
	return &Client{api: api}
}

// GetConnection looks up a connection by id.
func (c *Client) GetConnection(ctx context.Context, id string) (*Connection, error) {
	resp, err := c.api.Get(ctx, ConnectionsPath+"/"+url.PathEscape(id))
	if err != nil {
		return nil, fmt.Errorf("get connection %s: %w", id, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s (status %d)", ErrConnectionNotFound, id, resp.StatusCode)
	}

	var conn Connection
	if err := resp.DecodeJSON(&conn); err != nil {
		return nil, fmt.Errorf("get connection %s: %w", id, err)
	}
	return &conn, nil
}

// SaveConnection creates the connection. Only 201 counts as success.
func (c *Client) SaveConnection(ctx context.Context, conn *Connection) error {
	data, err := json.Marshal(conn)
	if err != nil {
		return fmt.Errorf("encode connection %s: %w", conn.ID, err)
	}
	resp, err := c.api.Post(ctx, ConnectionsPath, data)
	if err != nil {
		return fmt.Errorf("save connection %s: %w", conn.ID, err)
	}
	if resp.StatusCode != http.StatusCreated {
		return &RequestError{Op: "save", ID: conn.ID, StatusCode: resp.StatusCode, Body: string(resp.Body)}
	}
	return nil
}

// RemoveConnection deletes the connection. Only 204 counts as success.
func (c *Client) RemoveConnection(ctx context.Context, id string) error {
	resp, err := c.api.Delete(ctx, ConnectionsPath+"/"+url.PathEscape(id))
	if err != nil {
		return fmt.Errorf("remove connection %s: %w", id, err)
	}
	if resp.StatusCode != http.StatusNoContent {
		return &RequestError{Op: "remove", ID: id, StatusCode: resp.StatusCode, Body: string(resp.Body)}
	}
	return nil
}
