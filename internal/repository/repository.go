// Package repository reads and writes files in the cluster's user repository.
//
// Files are addressed by a space type (for example "user") and a path:
//
//	/repository/v2/files/{space}/{path}?op=stat|read|write|remove
package repository

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/suiyueranxin/di-qa-automated-e2e-testing/internal/cluster"
)

const filesPath = "/repository/v2/files/"

// ErrNotFound is returned by Read when the file does not exist.
var ErrNotFound = errors.New("repository file not found")

// StatusError is a write or remove answered with status >= 400.
type StatusError struct {
	Op         string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("repository %s %s: status %d", e.Op, e.Path, e.StatusCode)
}

// Repository accesses the file repository of one cluster.
type Repository struct {
	api cluster.API
}

func New(api cluster.API) *Repository {
	return &Repository{api: api}
}

func fileURL(space, path, op string) string {
	return filesPath + space + "/" + path + "?op=" + op
}

// Stat returns the raw stat response.
func (r *Repository) Stat(ctx context.Context, space, path string) (*cluster.Response, error) {
	resp, err := r.api.Get(ctx, fileURL(space, path, "stat"))
	if err != nil {
		return nil, fmt.Errorf("stat %s/%s: %w", space, path, err)
	}
	return resp, nil
}

// Exists reports whether stat answers 200.
func (r *Repository) Exists(ctx context.Context, space, path string) (bool, error) {
	resp, err := r.Stat(ctx, space, path)
	if err != nil {
		return false, err
	}
	return resp.StatusCode == http.StatusOK, nil
}

// Read returns the file content.
func (r *Repository) Read(ctx context.Context, space, path string) ([]byte, error) {
	resp, err := r.api.Get(ctx, fileURL(space, path, "read"))
	if err != nil {
		return nil, fmt.Errorf("read %s/%s: %w", space, path, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s/%s (status %d)", ErrNotFound, space, path, resp.StatusCode)
	}
	return resp.Body, nil
}

// Write creates or replaces the file.
func (r *Repository) Write(ctx context.Context, space, path string, content []byte) error {
	resp, err := r.api.Post(ctx, fileURL(space, path, "write"), content)
	if err != nil {
		return fmt.Errorf("write %s/%s: %w", space, path, err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return &StatusError{Op: "write", Path: space + "/" + path, StatusCode: resp.StatusCode, Body: string(resp.Body)}
	}
	return nil
}

// Remove deletes the file.
func (r *Repository) Remove(ctx context.Context, space, path string) error {
	resp, err := r.api.Delete(ctx, fileURL(space, path, "remove"))
	if err != nil {
		return fmt.Errorf("remove %s/%s: %w", space, path, err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return &StatusError{Op: "remove", Path: space + "/" + path, StatusCode: resp.StatusCode, Body: string(resp.Body)}
	}
	return nil
}
