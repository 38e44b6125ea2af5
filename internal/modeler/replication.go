package modeler

import (
	"context"
	"fmt"

	"github.com/suiyueranxin/di-qa-automated-e2e-testing/internal/replication"
	"github.com/suiyueranxin/di-qa-automated-e2e-testing/internal/rms"
)

// Replication is a replication bound to the modeler it was created or opened with.
type Replication struct {
	*replication.Replication
	modeler *ReplicationsModeler
}

// Modeler returns the modeler the replication is bound to.
func (r *Replication) Modeler() *ReplicationsModeler {
	return r.modeler
}

// SetSourceSpace resolves the connection and sets the source space. If the
// connection cannot be resolved the replication is left unchanged.
func (r *Replication) SetSourceSpace(ctx context.Context, connectionID, container string) (*replication.Space, error) {
	conn, err := r.modeler.resolve(ctx, connectionID)
	if err != nil {
		return nil, err
	}
	space := r.Replication.SetSourceSpace(connectionID, container)
	space.SetConnectionTypes(conn.Type, conn.CCMTypeID)
	return space, nil
}

// SetTargetSpace resolves the connection and sets the target space. If the
// connection cannot be resolved the replication is left unchanged.
func (r *Replication) SetTargetSpace(ctx context.Context, connectionID, container string) (*replication.TargetSpace, error) {
	conn, err := r.modeler.resolve(ctx, connectionID)
	if err != nil {
		return nil, err
	}
	space := r.Replication.SetTargetSpace(connectionID, container)
	space.SetConnectionTypes(conn.Type, conn.CCMTypeID)
	return space, nil
}

// Save writes the replication document to the repository.
func (r *Replication) Save(ctx context.Context) error {
	data, err := replication.Marshal(r.Replication)
	if err != nil {
		return err
	}
	m := r.modeler
	if err := m.files.Write(ctx, m.space, ReplicationPath(r.Name()), data); err != nil {
		return fmt.Errorf("save replication %s: %w", r.Name(), err)
	}
	m.logger.Debug("replication saved", "replication", r.Name(), "bytes", len(data))
	return nil
}

// Deploy submits the replication and returns the flow of the change request.
// A replication without spaces or tasks returns replication.ErrSpacesNotSet or
// replication.ErrNoTasks and sends nothing. A rejected submission returns a
// nil flow and an error matching rms.ErrRejected.
func (r *Replication) Deploy(ctx context.Context) (*rms.ReplicationFlow, error) {
	if err := r.Complete(); err != nil {
		return nil, fmt.Errorf("deploy: %w", err)
	}
	return r.modeler.deployer.CreateReplicationFlow(ctx, r.Replication)
}

// Undeploy removes the flow and returns the flow of the change request.
func (r *Replication) Undeploy(ctx context.Context) (*rms.ReplicationFlow, error) {
	return r.modeler.deployer.DeleteReplicationFlow(ctx, r.Name())
}
