package store

import (
	"context"
	"errors"
	"sort"
	"time"
)

// ErrCheckpointNotFound is returned by Load when no checkpoint has the requested ID.
var ErrCheckpointNotFound = errors.New("checkpoint not found")

// MetadataExecutionID is the metadata key that ties a checkpoint to a run.
const MetadataExecutionID = "execution_id"

// Checkpoint represents a saved state at a specific point in execution
type Checkpoint struct {
	ID        string         `json:"id"`
	NodeName  string         `json:"node_name"`
	State     any            `json:"state"`
	Metadata  map[string]any `json:"metadata"`
	Timestamp time.Time      `json:"timestamp"`
	Version   int            `json:"version"`
}

// ExecutionID returns the run the checkpoint belongs to, or "" when unset.
func (c *Checkpoint) ExecutionID() string {
	id, _ := c.Metadata[MetadataExecutionID].(string)
	return id
}

// CheckpointStore defines the interface for checkpoint persistence
type CheckpointStore interface {
	// Save stores a checkpoint
	Save(ctx context.Context, checkpoint *Checkpoint) error

	// Load retrieves a checkpoint by ID
	Load(ctx context.Context, checkpointID string) (*Checkpoint, error)

	// List returns all checkpoints for a given execution, oldest first
	List(ctx context.Context, executionID string) ([]*Checkpoint, error)

	// Delete removes a checkpoint
	Delete(ctx context.Context, checkpointID string) error

	// Clear removes all checkpoints for an execution
	Clear(ctx context.Context, executionID string) error
}

// SortCheckpoints orders checkpoints by version, then by timestamp.
func SortCheckpoints(checkpoints []*Checkpoint) {
	sort.SliceStable(checkpoints, func(i, j int) bool {
		if checkpoints[i].Version != checkpoints[j].Version {
			return checkpoints[i].Version < checkpoints[j].Version
		}
		return checkpoints[i].Timestamp.Before(checkpoints[j].Timestamp)
	})
}
