package teams

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/smallnest/teamgraph/graph"
	"github.com/smallnest/teamgraph/internal/llmtest"
	"github.com/smallnest/teamgraph/prebuilt"
	"github.com/smallnest/teamgraph/tool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestToolset(t *testing.T) *Toolset {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":[{"url":"https://tour.example","content":"The Eras Tour continues in 2024."}]}`))
	}))
	t.Cleanup(srv.Close)

	search, err := tool.NewTavilySearch("test-key", tool.WithTavilyBaseURL(srv.URL))
	require.NoError(t, err)
	ws, err := tool.NewWorkspace(t.TempDir())
	require.NoError(t, err)

	return &Toolset{
		Search:    search,
		Scraper:   tool.NewWebScraper(),
		Python:    tool.NewPythonREPL(ws),
		Workspace: ws,
	}
}

const tourQuestion = "When is Taylor Swift's next tour?"

func tourScript() []llmtest.Reply {
	return []llmtest.Reply{
		llmtest.Route(ResearchTeam),
		llmtest.Route(SearchWorker),
		llmtest.ToolCall("tavily_search_results_json", `{"query":"Taylor Swift next tour"}`),
		llmtest.Text("Taylor Swift's next tour is the Eras Tour in 2024."),
		llmtest.Route(prebuilt.FINISH),
		llmtest.Route(prebuilt.FINISH),
	}
}

type nodeTrail struct {
	nodes []string
}

func (n *nodeTrail) OnNodeEvent(_ context.Context, event graph.NodeEvent, node string, _ any, _ error) {
	if event == graph.NodeEventStart {
		n.nodes = append(n.nodes, node)
	}
}

func TestOrchestrator_ResearchQuestion(t *testing.T) {
	model := llmtest.NewModel(tourScript()...)
	o, err := NewOrchestrator(model, newTestToolset(t))
	require.NoError(t, err)

	trail := &nodeTrail{}
	state, err := o.Run(context.Background(), "  "+tourQuestion+"\n", &graph.Config{
		Listeners: []graph.NodeListener{trail},
	})
	require.NoError(t, err)

	assert.Equal(t, []prebuilt.Message{
		prebuilt.HumanMessage(tourQuestion),
		prebuilt.AuthoredMessage(ResearchTeam, "Taylor Swift's next tour is the Eras Tour in 2024."),
	}, state.Messages)

	assert.Equal(t, []string{
		TopSupervisor, ResearchTeam,
		ResearchSupervisor, SearchWorker, "agent", "tools", "agent",
		ResearchSupervisor,
		TopSupervisor,
	}, trail.nodes)

	calls := model.Calls()
	require.Len(t, calls, 6)
	assert.Contains(t, calls[0].SystemText(), "research_team, writing_team")
	assert.Contains(t, calls[1].SystemText(), "search, web_scraper")
	assert.Contains(t, calls[3].LastText(), "The Eras Tour continues in 2024.")
	assert.Equal(t, "research_team: Taylor Swift's next tour is the Eras Tour in 2024.", calls[5].LastText())
}

func TestOrchestrator_WritingQuestion(t *testing.T) {
	ts := newTestToolset(t)
	model := llmtest.NewModel(
		llmtest.Route(WritingTeam),
		llmtest.Route(NoteTakerWorker),
		llmtest.ToolCall("create_outline", `{"points":["Whiskers","Naps"],"file_name":"cats_outline.txt"}`),
		llmtest.Text("Outline ready in cats_outline.txt"),
		llmtest.Route(DocWriterWorker),
		llmtest.ToolCall("write_document", `{"content":"Cats nap all day.","file_name":"cats.txt"}`),
		llmtest.Text("Poem written to cats.txt"),
		llmtest.Route(prebuilt.FINISH),
		llmtest.Route(prebuilt.FINISH),
	)
	o, err := NewOrchestrator(model, ts)
	require.NoError(t, err)

	state, err := o.Run(context.Background(), "Write an outline for a poem about cats and then write the poem to disk.", nil)
	require.NoError(t, err)

	require.Len(t, state.Messages, 2)
	assert.Equal(t, prebuilt.AuthoredMessage(WritingTeam, "Poem written to cats.txt"), state.Messages[1])

	outline, err := os.ReadFile(filepath.Join(ts.Workspace.Root(), "cats_outline.txt"))
	require.NoError(t, err)
	assert.Equal(t, "1. Whiskers\n2. Naps\n", string(outline))

	poem, err := os.ReadFile(filepath.Join(ts.Workspace.Root(), "cats.txt"))
	require.NoError(t, err)
	assert.Equal(t, "Cats nap all day.", string(poem))

	calls := model.Calls()
	assert.Equal(t, "You can read documents and create outlines for the document writer. Don't ask follow-up questions.", calls[2].SystemText())
	assert.Equal(t, "note_taker: Outline ready in cats_outline.txt", calls[5].LastText())
}

func TestOrchestrator_RecursionLimit(t *testing.T) {
	model := llmtest.NewModel(llmtest.Route(ResearchTeam))
	model.Fallback = func(call llmtest.Call) llmtest.Reply {
		if strings.Contains(call.SystemText(), "search, web_scraper") {
			return llmtest.Route(SearchWorker)
		}
		return llmtest.Text("still looking")
	}
	o, err := NewOrchestrator(model, newTestToolset(t), WithRecursionLimit(12))
	require.NoError(t, err)
	assert.Equal(t, 12, o.RecursionLimit())

	_, err = o.Run(context.Background(), tourQuestion, nil)
	var recursionErr *graph.GraphRecursionError
	require.ErrorAs(t, err, &recursionErr)
	assert.Equal(t, 12, recursionErr.Limit)
}

func TestOrchestrator_DefaultRecursionLimit(t *testing.T) {
	o, err := NewOrchestrator(llmtest.NewModel(), newTestToolset(t))
	require.NoError(t, err)
	assert.Equal(t, 150, o.RecursionLimit())
}

func TestOrchestrator_StreamTokens(t *testing.T) {
	o, err := NewOrchestrator(llmtest.NewModel(tourScript()...), newTestToolset(t))
	require.NoError(t, err)

	result := o.Stream(context.Background(), tourQuestion, &graph.Config{RunID: "run-1"}, graph.DefaultStreamConfig())

	var text strings.Builder
	for event := range result.Events {
		require.Equal(t, graph.EventToken, event.Event)
		assert.Equal(t, []string{ResearchTeam, SearchWorker, "agent"}, graph.NamespaceNodes(event.Namespace))
		text.WriteString(event.Chunk)
	}
	assert.Equal(t, "Taylor Swift's next tour is the Eras Tour in 2024.", text.String())

	state, err := result.Wait()
	require.NoError(t, err)
	assert.Len(t, state.Messages, 2)
}

func TestOrchestrator_Diagrams(t *testing.T) {
	o, err := NewOrchestrator(llmtest.NewModel(), newTestToolset(t))
	require.NoError(t, err)

	diagrams := o.Diagrams()
	require.Len(t, diagrams, 3)
	assert.Equal(t, "teamgraph", diagrams[0].Name)
	assert.Contains(t, diagrams[0].Mermaid, "START --> n_supervisor")
	assert.Contains(t, diagrams[0].Mermaid, "n_supervisor -.-> n_research_team")
	assert.Contains(t, diagrams[0].Mermaid, "n_writing_team -.-> n_supervisor")

	assert.Equal(t, ResearchTeam, diagrams[1].Name)
	assert.Contains(t, diagrams[1].Mermaid, "n_research_team_supervisor -.-> n_web_scraper")

	assert.Equal(t, WritingTeam, diagrams[2].Name)
	assert.Contains(t, diagrams[2].Mermaid, "n_doc_writing_team_supervisor -.-> n_chart_generator")
	assert.Contains(t, diagrams[2].Mermaid, "n_doc_writing_team_supervisor -.-> END")
}

func TestNewToolset(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "ws")
	ts, err := NewToolset(toolsConfig(dir, "brave"))
	require.NoError(t, err)
	assert.Equal(t, "brave_search", ts.Search.Name())
	assert.Equal(t, dir, ts.Workspace.Root())

	ts, err = NewToolset(toolsConfig(dir, "tavily"))
	require.NoError(t, err)
	assert.Equal(t, "tavily_search_results_json", ts.Search.Name())

	_, err = NewToolset(toolsConfig(dir, "bing"))
	assert.Error(t, err)
}
