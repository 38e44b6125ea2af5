// Package modeler manages replications stored in a repository and binds
// them to the services that resolve connections and deploy flows.
package modeler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/suiyueranxin/di-qa-automated-e2e-testing/internal/connmgmt"
	"github.com/suiyueranxin/di-qa-automated-e2e-testing/internal/replication"
	"github.com/suiyueranxin/di-qa-automated-e2e-testing/internal/rms"
)

// DefaultSpace is the repository space replications are stored in.
const DefaultSpace = "user"

// ReplicationPath is the repository path of a replication document.
func ReplicationPath(name string) string {
	return "files/rms/" + name + ".replication"
}

// Persistence stores documents by space and path. Both the remote repository
// and the local store implement it.
type Persistence interface {
	Exists(ctx context.Context, space, path string) (bool, error)
	Read(ctx context.Context, space, path string) ([]byte, error)
	Write(ctx context.Context, space, path string, content []byte) error
	Remove(ctx context.Context, space, path string) error
}

// ConnectionLookup resolves a connection id.
type ConnectionLookup interface {
	GetConnection(ctx context.Context, id string) (*connmgmt.Connection, error)
}

// Deployer turns replications into replication flows.
type Deployer interface {
	CreateReplicationFlow(ctx context.Context, r *replication.Replication) (*rms.ReplicationFlow, error)
	DeleteReplicationFlow(ctx context.Context, name string) (*rms.ReplicationFlow, error)
}

// ConnectionNotFoundError is returned when a space refers to an unknown connection.
type ConnectionNotFoundError struct {
	ConnectionID string
	Err          error
}

func (e *ConnectionNotFoundError) Error() string {
	return fmt.Sprintf("connection %s not found", e.ConnectionID)
}

func (e *ConnectionNotFoundError) Unwrap() error {
	return e.Err
}

// Option configures a ReplicationsModeler.
type Option func(*ReplicationsModeler)

// WithSpace stores documents in another repository space.
func WithSpace(space string) Option {
	return func(m *ReplicationsModeler) { m.space = space }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *ReplicationsModeler) { m.logger = l }
}

// ReplicationsModeler creates, opens and deletes replications.
type ReplicationsModeler struct {
	files       Persistence
	connections ConnectionLookup
	deployer    Deployer
	space       string
	logger      *slog.Logger
}

func NewReplicationsModeler(files Persistence, connections ConnectionLookup, deployer Deployer, opts ...Option) *ReplicationsModeler {
	m := &ReplicationsModeler{
		files:       files,
		connections: connections,
		deployer:    deployer,
		space:       DefaultSpace,
		logger:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// CreateReplication creates a replication and saves it right away.
func (m *ReplicationsModeler) CreateReplication(ctx context.Context, name string) (*Replication, error) {
	r := m.bind(replication.New(name))
	if err := r.Save(ctx); err != nil {
		return nil, err
	}
	m.logger.Info("replication created", "replication", name)
	return r, nil
}

// OpenReplication loads a stored replication.
func (m *ReplicationsModeler) OpenReplication(ctx context.Context, name string) (*Replication, error) {
	data, err := m.files.Read(ctx, m.space, ReplicationPath(name))
	if err != nil {
		return nil, fmt.Errorf("open replication %s: %w", name, err)
	}
	r, err := m.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("open replication %s: %w", name, err)
	}
	return r, nil
}

// Decode parses a replication document into a replication bound to m.
func (m *ReplicationsModeler) Decode(data []byte) (*Replication, error) {
	r, err := replication.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return m.bind(r), nil
}

// DeleteReplication removes the stored document.
func (m *ReplicationsModeler) DeleteReplication(ctx context.Context, name string) error {
	if err := m.files.Remove(ctx, m.space, ReplicationPath(name)); err != nil {
		return fmt.Errorf("delete replication %s: %w", name, err)
	}
	m.logger.Info("replication deleted", "replication", name)
	return nil
}

// ReplicationExists reports whether a document is stored for name.
func (m *ReplicationsModeler) ReplicationExists(ctx context.Context, name string) (bool, error) {
	return m.files.Exists(ctx, m.space, ReplicationPath(name))
}

// ReadDocument returns the stored document of a replication as is.
func (m *ReplicationsModeler) ReadDocument(ctx context.Context, name string) ([]byte, error) {
	return m.files.Read(ctx, m.space, ReplicationPath(name))
}

func (m *ReplicationsModeler) bind(r *replication.Replication) *Replication {
	return &Replication{Replication: r, modeler: m}
}

// resolve looks up the types of a connection.
func (m *ReplicationsModeler) resolve(ctx context.Context, connectionID string) (*connmgmt.Connection, error) {
	conn, err := m.connections.GetConnection(ctx, connectionID)
	if errors.Is(err, connmgmt.ErrConnectionNotFound) {
		return nil, &ConnectionNotFoundError{ConnectionID: connectionID, Err: err}
	}
	if err != nil {
		return nil, fmt.Errorf("resolve connection %s: %w", connectionID, err)
	}
	return conn, nil
}
