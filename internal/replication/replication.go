package replication

import (
	"fmt"
	"math/rand/v2"
)

const (
	suffixAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	suffixLength   = 6
)

// taskSuffix returns the random part of a generated task name.
// Replaced in tests.
var taskSuffix = func() string {
	b := make([]byte, suffixLength)
	for i := range b {
		b[i] = suffixAlphabet[rand.IntN(len(suffixAlphabet))]
	}
	return string(b)
}

// Replication is the definition of a replication flow: one source space,
// one target space and the tasks moving datasets between them.
//
// A Replication is not safe for concurrent use.
type Replication struct {
	name        string
	description string
	version     Version
	source      *Space
	target      *TargetSpace
	tasks       []*Task
}

// New creates a replication with the ONE_SOURCE_ONE_TARGET version and no spaces.
func New(name string) *Replication {
	return &Replication{name: name, version: VersionOneSourceOneTarget}
}

func (r *Replication) Name() string        { return r.name }
func (r *Replication) Description() string { return r.description }
func (r *Replication) Version() Version    { return r.version }

func (r *Replication) SetDescription(description string) {
	r.description = description
}

// SetVersion overrides the version. An empty version is written as null.
func (r *Replication) SetVersion(v Version) {
	r.version = v
}

// SourceSpace returns the source space, or nil if none is set.
func (r *Replication) SourceSpace() *Space {
	return r.source
}

// TargetSpace returns the target space, or nil if none is set.
func (r *Replication) TargetSpace() *TargetSpace {
	return r.target
}

// SetSourceSpace replaces the source space and returns it.
func (r *Replication) SetSourceSpace(connectionID, container string) *Space {
	r.source = NewSpace(SpaceName(r.name, connectionID, RoleSource), connectionID, container)
	return r.source
}

// SetTargetSpace replaces the target space and returns it so dataset
// properties can be set on it.
func (r *Replication) SetTargetSpace(connectionID, container string) *TargetSpace {
	r.target = NewTargetSpace(SpaceName(r.name, connectionID, RoleTarget), connectionID, container)
	return r.target
}

// SpaceByName resolves a task's space reference. It returns nil when neither
// space carries the name.
func (r *Replication) SpaceByName(name string) *Space {
	switch {
	case r.source != nil && r.source.name == name:
		return r.source
	case r.target != nil && r.target.name == name:
		return &r.target.Space
	}
	return nil
}

// Complete reports whether r can be deployed. It returns ErrSpacesNotSet
// without both spaces and ErrNoTasks without a task.
func (r *Replication) Complete() error {
	if r.source == nil || r.target == nil {
		return fmt.Errorf("replication %s: %w", r.name, ErrSpacesNotSet)
	}
	if len(r.tasks) == 0 {
		return fmt.Errorf("replication %s: %w", r.name, ErrNoTasks)
	}
	return nil
}

// CreateTask appends a task for sourceDataset and returns it.
//
// The task is named {replication}_{sourceDataset}_{suffix}, where suffix is
// 6 random characters from [a-z0-9]. Uniqueness is not checked. The target
// dataset defaults to the source dataset.
func (r *Replication) CreateTask(sourceDataset string) (*Task, error) {
	if r.source == nil || r.target == nil {
		return nil, ErrSpacesNotSet
	}

	task := NewTask(r.name + "_" + sourceDataset + "_" + taskSuffix())
	task.SourceDataset = sourceDataset
	task.TargetDataset = sourceDataset
	task.SourceSpace = r.source.name
	task.TargetSpace = r.target.name

	r.tasks = append(r.tasks, task)
	return task, nil
}

// AddTask appends an already built task.
func (r *Replication) AddTask(t *Task) {
	r.tasks = append(r.tasks, t)
}

// Tasks returns the tasks in creation order.
func (r *Replication) Tasks() []*Task {
	out := make([]*Task, len(r.tasks))
	copy(out, r.tasks)
	return out
}

// Task returns the task with the given name, or nil.
func (r *Replication) Task(name string) *Task {
	for _, t := range r.tasks {
		if t.Name == name {
			return t
		}
	}
	return nil
}
