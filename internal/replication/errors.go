package replication

import (
	"errors"
	"fmt"
)

// ErrSpacesNotSet is returned by CreateTask and Complete when the source or
// target space is missing.
var ErrSpacesNotSet = errors.New("source and target space must be set before creating a task")

// ErrNoTasks is returned by Complete when a replication has no task to deploy.
var ErrNoTasks = errors.New("replication has no tasks")

// MalformedDocumentError reports a replication document that does not have
// the shape the service produces.
type MalformedDocumentError struct {
	Field   string
	Message string
	Err     error
}

func (e *MalformedDocumentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed replication document: %s: %s: %v", e.Field, e.Message, e.Err)
	}
	return fmt.Sprintf("malformed replication document: %s: %s", e.Field, e.Message)
}

func (e *MalformedDocumentError) Unwrap() error {
	return e.Err
}
