package graph

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/smallnest/teamgraph/log"
	"github.com/smallnest/teamgraph/store"
)

// Checkpoint is an alias for store.Checkpoint
type Checkpoint = store.Checkpoint

// CheckpointStore is an alias for store.CheckpointStore
type CheckpointStore = store.CheckpointStore

// CheckpointListener saves a checkpoint after every merged step of every
// graph in a run, nested graphs included. Checkpoints are indexed by run ID.
type CheckpointListener struct {
	NoOpCallbackHandler

	store    store.CheckpointStore
	threadID string

	mu       sync.Mutex
	versions map[string]int
}

var _ GraphCallbackHandler = (*CheckpointListener)(nil)

// NewCheckpointListener creates a listener that writes to s.
func NewCheckpointListener(s store.CheckpointStore, threadID string) *CheckpointListener {
	return &CheckpointListener{
		store:    s,
		threadID: threadID,
		versions: make(map[string]int),
	}
}

// OnGraphStep is called after a step in the graph has completed and the state has been merged.
func (cl *CheckpointListener) OnGraphStep(ctx context.Context, nodeName string, state any) {
	runID := RunID(ctx)

	cl.mu.Lock()
	cl.versions[runID]++
	version := cl.versions[runID]
	cl.mu.Unlock()

	metadata := map[string]any{
		"execution_id": runID,
		"namespace":    Namespace(ctx),
		"event":        "step",
	}
	if cl.threadID != "" {
		metadata["thread_id"] = cl.threadID
	}

	checkpoint := &store.Checkpoint{
		ID:        uuid.NewString(),
		NodeName:  nodeName,
		State:     state,
		Timestamp: time.Now(),
		Version:   version,
		Metadata:  metadata,
	}

	if err := cl.store.Save(ctx, checkpoint); err != nil {
		log.Warn("failed to save checkpoint for node %s: %v", nodeName, err)
	}
}

// OnChainEnd releases the version counter of a finished top-level run.
func (cl *CheckpointListener) OnChainEnd(ctx context.Context, _ map[string]any, runID string) {
	if Namespace(ctx) != "" {
		return
	}
	cl.mu.Lock()
	delete(cl.versions, runID)
	cl.mu.Unlock()
}

// OnChainError releases the version counter of a failed top-level run.
func (cl *CheckpointListener) OnChainError(ctx context.Context, _ error, runID string) {
	cl.OnChainEnd(ctx, nil, runID)
}
