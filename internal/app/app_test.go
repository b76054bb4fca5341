package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/smallnest/teamgraph/config"
	"github.com/smallnest/teamgraph/internal/llmtest"
	"github.com/smallnest/teamgraph/prebuilt"
	"github.com/smallnest/teamgraph/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T, extra map[string]string) *config.Config {
	t.Helper()
	environ := map[string]string{
		"OPENAI_API_KEY":    "sk-test",
		"TAVILY_API_KEY":    "tvly-test",
		"WORKING_DIRECTORY": t.TempDir(),
	}
	for k, v := range extra {
		environ[k] = v
	}
	cfg, err := config.LoadFrom(environ)
	require.NoError(t, err)
	return cfg
}

func TestNewWithModel_RunsWithCheckpoints(t *testing.T) {
	cfg := testConfig(t, map[string]string{
		"CHECKPOINT_BACKEND": "memory",
		"RECURSION_LIMIT":    "40",
	})
	model := llmtest.NewModel(llmtest.Route(prebuilt.FINISH))

	a, err := NewWithModel(context.Background(), cfg, model)
	require.NoError(t, err)
	defer a.Close()

	require.NotNil(t, a.Checkpoints)
	assert.Equal(t, 40, a.Orchestrator.RecursionLimit())

	config := a.RunConfig("run-1")
	assert.Equal(t, "run-1", config.RunID)
	assert.Equal(t, 40, config.RecursionLimit)
	assert.Len(t, config.Callbacks, 2)

	state, err := a.Orchestrator.Run(context.Background(), "  hello  ", config)
	require.NoError(t, err)
	require.Len(t, state.Messages, 1)
	assert.Equal(t, "hello", state.Messages[0].Content)

	checkpoints, err := a.Checkpoints.List(context.Background(), "run-1")
	require.NoError(t, err)
	require.Len(t, checkpoints, 1)
	assert.Equal(t, "supervisor", checkpoints[0].NodeName)

	assert.Equal(t, 1.0, counterValue(t, a, "teamgraph_runs_total"))
}

func counterValue(t *testing.T, a *App, name string) float64 {
	t.Helper()
	families, err := a.Registry.Gather()
	require.NoError(t, err)
	var total float64
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		for _, m := range f.GetMetric() {
			total += m.GetCounter().GetValue()
		}
	}
	return total
}

func TestRunConfig_WithoutCheckpoints(t *testing.T) {
	a, err := NewWithModel(context.Background(), testConfig(t, nil), llmtest.NewModel())
	require.NoError(t, err)
	defer a.Close()

	assert.Nil(t, a.Checkpoints)
	config := a.RunConfig("")
	assert.NotEmpty(t, config.RunID)
	assert.Len(t, config.Callbacks, 1)
	assert.Equal(t, 150, config.RecursionLimit)
}

func TestNewWithModel_RequiresSearchKey(t *testing.T) {
	t.Setenv("TAVILY_API_KEY", "")
	cfg := testConfig(t, nil)
	cfg.Tools.TavilyAPIKey = ""

	_, err := NewWithModel(context.Background(), cfg, llmtest.NewModel())
	assert.ErrorContains(t, err, "failed to build tools")
}

func TestNew_UnsupportedProvider(t *testing.T) {
	cfg := testConfig(t, nil)
	cfg.LLM.Provider = "cohere"

	_, err := New(context.Background(), cfg)
	assert.ErrorContains(t, err, "unsupported llm provider")
}

func TestOpenStore(t *testing.T) {
	ctx := context.Background()

	t.Run("none", func(t *testing.T) {
		s, closeFn, err := OpenStore(ctx, config.Checkpoint{Backend: "none"})
		require.NoError(t, err)
		assert.Nil(t, s)
		assert.Nil(t, closeFn)
	})

	t.Run("memory", func(t *testing.T) {
		s, _, err := OpenStore(ctx, config.Checkpoint{Backend: "memory"})
		require.NoError(t, err)
		assert.NotNil(t, s)
	})

	t.Run("redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		s, closeFn, err := OpenStore(ctx, config.Checkpoint{Backend: "redis", RedisAddr: mr.Addr()})
		require.NoError(t, err)
		defer closeFn()
		roundTrip(t, s)
	})

	t.Run("redis unreachable", func(t *testing.T) {
		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()
		_, _, err := OpenStore(ctx, config.Checkpoint{Backend: "redis", RedisAddr: addr})
		assert.ErrorContains(t, err, "failed to connect to redis")
	})

	t.Run("sqlite", func(t *testing.T) {
		s, closeFn, err := OpenStore(ctx, config.Checkpoint{
			Backend:    "sqlite",
			SQLitePath: filepath.Join(t.TempDir(), "checkpoints.db"),
		})
		require.NoError(t, err)
		defer closeFn()
		roundTrip(t, s)
	})

	t.Run("unknown", func(t *testing.T) {
		_, _, err := OpenStore(ctx, config.Checkpoint{Backend: "etcd"})
		assert.Error(t, err)
	})
}

func roundTrip(t *testing.T, s store.CheckpointStore) {
	t.Helper()
	ctx := context.Background()
	cp := &store.Checkpoint{
		ID:       "cp-1",
		NodeName: "supervisor",
		State:    map[string]any{"messages": []any{}},
		Metadata: map[string]any{store.MetadataExecutionID: "run-1"},
		Version:  1,
	}
	require.NoError(t, s.Save(ctx, cp))

	list, err := s.List(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "supervisor", list[0].NodeName)
}
