package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/smallnest/teamgraph/gateway"
	"github.com/smallnest/teamgraph/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counterState struct {
	N int
}

func TestCollector_GraphRun(t *testing.T) {
	c := NewCollector("teamgraph", prometheus.NewRegistry())

	g := graph.NewStateGraph[counterState]()
	g.AddNode("step", "step", func(ctx context.Context, s counterState) (counterState, error) {
		graph.NotifyToolStart(ctx, "search", "q")
		graph.NotifyToolEnd(ctx, "search", "r")
		graph.NotifyToolError(ctx, "scrape", errors.New("404"))
		return counterState{N: s.N + 1}, nil
	})
	g.AddConditionalEdge("step", func(_ context.Context, s counterState) string {
		if s.N < 3 {
			return "step"
		}
		return graph.END
	})
	g.SetEntryPoint("step")
	runnable, err := g.Compile()
	require.NoError(t, err)

	_, err = runnable.InvokeWithConfig(context.Background(), counterState{}, &graph.Config{
		Callbacks: []graph.CallbackHandler{c},
		Listeners: []graph.NodeListener{c},
	})
	require.NoError(t, err)

	assert.Equal(t, 3.0, testutil.ToFloat64(c.nodeTransitions.WithLabelValues("step", "ok")))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.toolCalls.WithLabelValues("search", "ok")))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.toolCalls.WithLabelValues("scrape", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.runs.WithLabelValues("ok")))
}

func TestCollector_FailedRun(t *testing.T) {
	c := NewCollector("teamgraph", prometheus.NewRegistry())

	g := graph.NewStateGraph[counterState]()
	g.AddNode("boom", "boom", func(context.Context, counterState) (counterState, error) {
		return counterState{}, errors.New("boom")
	})
	g.AddEdge("boom", graph.END)
	g.SetEntryPoint("boom")
	runnable, err := g.Compile()
	require.NoError(t, err)

	_, err = runnable.InvokeWithConfig(context.Background(), counterState{}, &graph.Config{
		Callbacks: []graph.CallbackHandler{c},
		Listeners: []graph.NodeListener{c},
	})
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.nodeTransitions.WithLabelValues("boom", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.runs.WithLabelValues("error")))
}

func TestCollector_Streams(t *testing.T) {
	c := NewCollector("teamgraph", prometheus.NewRegistry())

	c.ObserveStream(gateway.OutcomeCompleted, 2*time.Second)
	c.ObserveStream(gateway.OutcomeDisconnected, time.Second)
	c.ObserveStream(gateway.OutcomeCompleted, 3*time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.streams.WithLabelValues("completed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.streams.WithLabelValues("disconnected")))
	assert.Equal(t, 1, testutil.CollectAndCount(c.streamDuration))
}

func TestCollector_HTTP(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector("teamgraph", reg)

	c.ObserveHTTP("GET", "/rest/v1/question", 200, 10*time.Millisecond)
	c.ObserveHTTP("GET", "/rest/v1/question", 200, 20*time.Millisecond)
	c.ObserveHTTP("GET", "/rest/v1/runs/{id}/checkpoints", 404, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.httpRequests.WithLabelValues("GET", "/rest/v1/question", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.httpRequests.WithLabelValues("GET", "/rest/v1/runs/{id}/checkpoints", "404")))

	count, err := testutil.GatherAndCount(reg, "teamgraph_http_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestNewCollector_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewCollector("teamgraph", reg)
	assert.Panics(t, func() { NewCollector("teamgraph", reg) })
}
