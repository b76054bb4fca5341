package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/smallnest/teamgraph/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, opts RedisOptions) (*RedisCheckpointStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	opts.Addr = mr.Addr()
	s := NewRedisCheckpointStore(opts)
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func TestRedisCheckpointStore(t *testing.T) {
	s, _ := newTestStore(t, RedisOptions{})
	ctx := context.Background()
	runID := "run-123"

	require.NoError(t, s.Ping(ctx))

	cp := &store.Checkpoint{
		ID:        "cp-1",
		NodeName:  "research_team_supervisor",
		State:     map[string]any{"messages": []any{"hi"}},
		Timestamp: time.Now(),
		Version:   1,
		Metadata:  map[string]any{store.MetadataExecutionID: runID},
	}
	require.NoError(t, s.Save(ctx, cp))

	loaded, err := s.Load(ctx, "cp-1")
	require.NoError(t, err)
	assert.Equal(t, cp.ID, loaded.ID)
	assert.Equal(t, cp.NodeName, loaded.NodeName)
	state, ok := loaded.State.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, []any{"hi"}, state["messages"])

	list, err := s.List(ctx, runID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, cp.ID, list[0].ID)

	require.NoError(t, s.Delete(ctx, "cp-1"))
	_, err = s.Load(ctx, "cp-1")
	assert.ErrorIs(t, err, store.ErrCheckpointNotFound)

	list, err = s.List(ctx, runID)
	require.NoError(t, err)
	assert.Empty(t, list)

	assert.NoError(t, s.Delete(ctx, "cp-1"))
}

func TestRedisCheckpointStore_ListOrderAndClear(t *testing.T) {
	s, _ := newTestStore(t, RedisOptions{Prefix: "test:"})
	ctx := context.Background()
	runID := "run-9"

	for i, id := range []string{"c", "a", "b"} {
		require.NoError(t, s.Save(ctx, &store.Checkpoint{
			ID:       id,
			Version:  3 - i,
			Metadata: map[string]any{store.MetadataExecutionID: runID},
		}))
	}

	list, err := s.List(ctx, runID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{list[0].Version, list[1].Version, list[2].Version})

	require.NoError(t, s.Clear(ctx, runID))
	list, err = s.List(ctx, runID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestRedisCheckpointStore_TTL(t *testing.T) {
	s, mr := newTestStore(t, RedisOptions{TTL: time.Minute})
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, &store.Checkpoint{
		ID:       "cp-ttl",
		Metadata: map[string]any{store.MetadataExecutionID: "run-ttl"},
	}))
	assert.Equal(t, time.Minute, mr.TTL("teamgraph:checkpoint:cp-ttl"))

	mr.FastForward(2 * time.Minute)

	_, err := s.Load(ctx, "cp-ttl")
	assert.ErrorIs(t, err, store.ErrCheckpointNotFound)
}
