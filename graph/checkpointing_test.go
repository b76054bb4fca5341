package graph

import (
	"context"
	"testing"

	"github.com/smallnest/teamgraph/store"
	"github.com/smallnest/teamgraph/store/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckpointListener_SavesEveryStep(t *testing.T) {
	inner := NewStateGraph[trail]()
	inner.SetSchema(trailSchema())
	inner.AddNode("search", "search", visit("search"))
	inner.AddEdge("search", END)
	inner.SetEntryPoint("search")
	innerRunnable, err := inner.Compile()
	require.NoError(t, err)

	outer := NewStateGraph[trail]()
	outer.SetSchema(trailSchema())
	outer.AddNode("supervisor", "supervisor", visit("supervisor"))
	outer.AddNode("research_team", "team", func(ctx context.Context, state trail) (trail, error) {
		res, err := innerRunnable.Invoke(ctx, trail{})
		if err != nil {
			return trail{}, err
		}
		return trail{Visited: res.Visited}, nil
	})
	outer.AddEdge("supervisor", "research_team")
	outer.AddEdge("research_team", END)
	outer.SetEntryPoint("supervisor")
	outerRunnable, err := outer.Compile()
	require.NoError(t, err)

	s := memory.NewMemoryCheckpointStore()
	listener := NewCheckpointListener(s, "thread-1")

	_, err = outerRunnable.InvokeWithConfig(context.Background(), trail{}, &Config{
		RunID:     "run-42",
		Callbacks: []CallbackHandler{listener},
	})
	require.NoError(t, err)

	checkpoints, err := s.List(context.Background(), "run-42")
	require.NoError(t, err)
	require.Len(t, checkpoints, 3)

	nodes := []string{checkpoints[0].NodeName, checkpoints[1].NodeName, checkpoints[2].NodeName}
	assert.Equal(t, []string{"supervisor", "search", "research_team"}, nodes)
	assert.Equal(t, []int{1, 2, 3}, []int{checkpoints[0].Version, checkpoints[1].Version, checkpoints[2].Version})

	assert.Equal(t, "thread-1", checkpoints[0].Metadata["thread_id"])
	assert.Equal(t, []string{"research_team", "search"}, NamespaceNodes(checkpoints[1].Metadata["namespace"].(string)))
	assert.Equal(t, trail{Visited: []string{"supervisor", "search"}}, checkpoints[2].State)

	var _ store.CheckpointStore = s
}
