// Package memory provides an in-process checkpoint store.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/smallnest/teamgraph/store"
)

// MemoryCheckpointStore keeps checkpoints in a map guarded by a mutex.
type MemoryCheckpointStore struct {
	mu          sync.RWMutex
	checkpoints map[string]*store.Checkpoint
	executions  map[string][]string
}

var _ store.CheckpointStore = (*MemoryCheckpointStore)(nil)

// NewMemoryCheckpointStore creates an empty store.
func NewMemoryCheckpointStore() *MemoryCheckpointStore {
	return &MemoryCheckpointStore{
		checkpoints: make(map[string]*store.Checkpoint),
		executions:  make(map[string][]string),
	}
}

// Save stores a checkpoint, replacing any checkpoint with the same ID.
func (m *MemoryCheckpointStore) Save(_ context.Context, checkpoint *store.Checkpoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if old, ok := m.checkpoints[checkpoint.ID]; ok {
		m.unindex(old)
	}
	m.checkpoints[checkpoint.ID] = checkpoint
	if execID := checkpoint.ExecutionID(); execID != "" {
		m.executions[execID] = append(m.executions[execID], checkpoint.ID)
	}
	return nil
}

// Load retrieves a checkpoint by ID.
func (m *MemoryCheckpointStore) Load(_ context.Context, checkpointID string) (*store.Checkpoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cp, ok := m.checkpoints[checkpointID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", store.ErrCheckpointNotFound, checkpointID)
	}
	return cp, nil
}

// List returns the checkpoints of an execution, oldest first.
func (m *MemoryCheckpointStore) List(_ context.Context, executionID string) ([]*store.Checkpoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := m.executions[executionID]
	out := make([]*store.Checkpoint, 0, len(ids))
	for _, id := range ids {
		out = append(out, m.checkpoints[id])
	}
	store.SortCheckpoints(out)
	return out, nil
}

// Delete removes a checkpoint. Deleting an unknown ID is not an error.
func (m *MemoryCheckpointStore) Delete(_ context.Context, checkpointID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if cp, ok := m.checkpoints[checkpointID]; ok {
		m.unindex(cp)
		delete(m.checkpoints, checkpointID)
	}
	return nil
}

// Clear removes every checkpoint of an execution.
func (m *MemoryCheckpointStore) Clear(_ context.Context, executionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, id := range m.executions[executionID] {
		delete(m.checkpoints, id)
	}
	delete(m.executions, executionID)
	return nil
}

func (m *MemoryCheckpointStore) unindex(cp *store.Checkpoint) {
	execID := cp.ExecutionID()
	ids := m.executions[execID]
	for i, id := range ids {
		if id == cp.ID {
			m.executions[execID] = append(ids[:i:i], ids[i+1:]...)
			break
		}
	}
	if len(m.executions[execID]) == 0 {
		delete(m.executions, execID)
	}
}
