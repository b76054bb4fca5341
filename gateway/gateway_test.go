package gateway

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/smallnest/teamgraph/graph"
	"github.com/smallnest/teamgraph/prebuilt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedRunner runs a two level graph whose leaf nodes emit chunks.
type scriptedRunner struct {
	chunks map[string][]string
	order  []string
	err    error
	block  chan struct{}

	mu        sync.Mutex
	questions []string
}

func (r *scriptedRunner) Stream(ctx context.Context, question string, config *graph.Config, streamConfig graph.StreamConfig) *graph.StreamResult[prebuilt.MessagesState] {
	r.mu.Lock()
	r.questions = append(r.questions, question)
	r.mu.Unlock()

	g := graph.NewStateGraph[prebuilt.MessagesState]()
	g.SetSchema(prebuilt.MessagesSchema())
	for i, name := range r.order {
		g.AddNode(name, name, func(ctx context.Context, s prebuilt.MessagesState) (prebuilt.MessagesState, error) {
			for _, c := range r.chunks[name] {
				graph.EmitMessage(ctx, c)
			}
			if r.block != nil {
				select {
				case <-r.block:
				case <-ctx.Done():
					return s, ctx.Err()
				}
			}
			return prebuilt.MessagesState{}, nil
		})
		if i > 0 {
			g.AddEdge(r.order[i-1], name)
		}
	}
	last := r.order[len(r.order)-1]
	if r.err != nil {
		g.AddNode("fail", "fail", func(context.Context, prebuilt.MessagesState) (prebuilt.MessagesState, error) {
			return prebuilt.MessagesState{}, r.err
		})
		g.AddEdge(last, "fail")
		g.AddEdge("fail", graph.END)
	} else {
		g.AddEdge(last, graph.END)
	}
	g.SetEntryPoint(r.order[0])

	runnable, err := g.Compile()
	if err != nil {
		panic(err)
	}
	return runnable.Stream(ctx, prebuilt.MessagesState{Messages: []prebuilt.Message{prebuilt.HumanMessage(question)}}, config, streamConfig)
}

func collect(ch <-chan string) string {
	var sb strings.Builder
	for line := range ch {
		sb.WriteString(line)
	}
	return sb.String()
}

func TestAnswer_StreamsChunksThenDone(t *testing.T) {
	runner := &scriptedRunner{
		order:  []string{"search", "note_taker"},
		chunks: map[string][]string{"search": {"Hello", "", " world"}, "note_taker": {"!"}},
	}

	var outcomes []Outcome
	gw := New(runner, WithObserver(func(o Outcome, _ time.Duration) { outcomes = append(outcomes, o) }))

	got := collect(gw.Answer(context.Background(), "hi", nil))
	assert.Equal(t, "data: Hello\ndata:  world\ndata: !\n"+Done, got)
	assert.Equal(t, []Outcome{OutcomeCompleted}, outcomes)
	assert.Equal(t, []string{"hi"}, runner.questions)
}

func TestAnswer_NoChunks(t *testing.T) {
	runner := &scriptedRunner{order: []string{"supervisor"}}
	got := collect(New(runner).Answer(context.Background(), "", nil))
	assert.Equal(t, Done, got)
}

func TestAnswer_ErrorSentinelThenDone(t *testing.T) {
	runner := &scriptedRunner{
		order:  []string{"search"},
		chunks: map[string][]string{"search": {"partial"}},
		err:    errors.New("rate limit\nexceeded"),
	}

	var outcomes []Outcome
	gw := New(runner, WithObserver(func(o Outcome, _ time.Duration) { outcomes = append(outcomes, o) }))

	got := collect(gw.Answer(context.Background(), "q", nil))
	assert.Equal(t, "data: partial\ndata: [Error] error in node fail: rate limit exceeded\n\n"+Done, got)
	assert.Equal(t, []Outcome{OutcomeFailed}, outcomes)
}

func TestAnswer_RecursionLimitIsReported(t *testing.T) {
	runner := &scriptedRunner{order: []string{"a", "b", "c"}}
	got := collect(New(runner).Answer(context.Background(), "q", &graph.Config{RecursionLimit: 2}))
	assert.True(t, strings.HasPrefix(got, "data: [Error] "), got)
	assert.Contains(t, got, "recursion limit")
	assert.True(t, strings.HasSuffix(got, Done))
}

func TestAnswer_FilterByNamespace(t *testing.T) {
	runner := &scriptedRunner{
		order:  []string{"supervisor", "search", "doc_writer"},
		chunks: map[string][]string{"supervisor": {"route"}, "search": {"found"}, "doc_writer": {"draft"}},
	}

	enabled := New(runner, WithFilter(Filter{Enabled: true, Prefixes: []string{"search:", "note_taker:"}}))
	assert.Equal(t, "data: found\n"+Done, collect(enabled.Answer(context.Background(), "q", nil)))

	disabled := New(runner, WithFilter(Filter{Prefixes: []string{"search:"}}))
	assert.Equal(t, "data: route\ndata: found\ndata: draft\n"+Done, collect(disabled.Answer(context.Background(), "q", nil)))
}

func TestAnswer_DisconnectStopsRunWithoutDone(t *testing.T) {
	runner := &scriptedRunner{
		order:  []string{"search"},
		chunks: map[string][]string{"search": {"first"}},
		block:  make(chan struct{}),
	}

	outcomes := make(chan Outcome, 1)
	gw := New(runner, WithObserver(func(o Outcome, _ time.Duration) { outcomes <- o }))

	ctx, cancel := context.WithCancel(context.Background())
	lines := gw.Answer(ctx, "q", nil)

	assert.Equal(t, "data: first\n", <-lines)
	cancel()

	var rest []string
	for line := range lines {
		rest = append(rest, line)
	}
	assert.Empty(t, rest)

	select {
	case o := <-outcomes:
		assert.Equal(t, OutcomeDisconnected, o)
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not finish after disconnect")
	}
}

func TestFilter_Allows(t *testing.T) {
	f := Filter{Enabled: true, Prefixes: []string{"search:", "note_taker:"}}
	assert.True(t, f.Allows("research_team:1|search:2|agent:3"))
	assert.True(t, f.Allows("search:2"))
	assert.True(t, f.Allows("writing_team:1|note_taker:2|agent:3"))
	assert.False(t, f.Allows("research_team:1|web_scraper:2|agent:3"))
	assert.False(t, f.Allows(""))
	assert.True(t, Filter{}.Allows("anything"))
}

func TestFormatChunk(t *testing.T) {
	assert.Equal(t, "data: one\n", FormatChunk("one"))
	assert.Equal(t, "data: one\ndata: two\n", FormatChunk("one\r\ntwo"))
	assert.Equal(t, "data: para\ndata: \n", FormatChunk("para\n"))
}

func TestFormatError(t *testing.T) {
	assert.Equal(t, "data: [Error] boom\n\n", FormatError(errors.New("boom")))
	assert.Equal(t, "data: [Error] unknown error\n\n", FormatError(nil))
	require.NotContains(t, strings.TrimSuffix(FormatError(errors.New("a\n\nb")), "\n\n"), "\n")
}
