package graph

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func talkingGraph(t *testing.T, words ...string) *StateRunnable[trail] {
	t.Helper()
	g := NewStateGraph[trail]()
	g.SetSchema(trailSchema())
	g.AddNode("speaker", "emits words", func(ctx context.Context, state trail) (trail, error) {
		for _, w := range words {
			EmitMessage(ctx, w)
		}
		return trail{Visited: []string{"speaker"}}, nil
	})
	g.AddEdge("speaker", END)
	g.SetEntryPoint("speaker")
	r, err := g.Compile()
	require.NoError(t, err)
	return r
}

func TestStream_Messages(t *testing.T) {
	r := talkingGraph(t, "Hello", "", " world")

	res := r.Stream(context.Background(), trail{}, nil, DefaultStreamConfig())
	defer res.Cancel()

	var chunks []string
	for ev := range res.Events {
		assert.Equal(t, EventToken, ev.Event)
		assert.Equal(t, "speaker", ev.NodeName)
		assert.Equal(t, []string{"speaker"}, NamespaceNodes(ev.Namespace))
		chunks = append(chunks, ev.Chunk)
	}
	assert.Equal(t, []string{"Hello", " world"}, chunks)

	final, err := res.Wait()
	require.NoError(t, err)
	assert.Equal(t, []string{"speaker"}, final.Visited)
}

func TestStream_Updates(t *testing.T) {
	r := talkingGraph(t, "ignored")

	res := r.Stream(context.Background(), trail{}, nil, StreamConfig{Mode: StreamModeUpdates})
	defer res.Cancel()

	var events []NodeEvent
	for ev := range res.Events {
		events = append(events, ev.Event)
	}
	assert.Equal(t, []NodeEvent{NodeEventComplete}, events)
}

func TestStream_ErrorIsReturnedByWait(t *testing.T) {
	transitions := 0
	r := loopingGraph(t, &transitions)

	res := r.Stream(context.Background(), trail{}, &Config{RecursionLimit: 4}, DefaultStreamConfig())
	defer res.Cancel()

	for range res.Events {
	}
	_, err := res.Wait()

	var recErr *GraphRecursionError
	assert.ErrorAs(t, err, &recErr)
}

func TestStream_CancelUnblocksProducer(t *testing.T) {
	words := make([]string, 100)
	for i := range words {
		words[i] = "w"
	}
	r := talkingGraph(t, words...)

	res := r.Stream(context.Background(), trail{}, nil, StreamConfig{BufferSize: 1, Mode: StreamModeMessages})

	<-res.Events
	res.Cancel()

	done := make(chan struct{})
	go func() {
		_, _ = res.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("producer did not stop after cancel")
	}
}
