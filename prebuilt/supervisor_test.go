package prebuilt

import (
	"context"
	"errors"
	"testing"

	"github.com/smallnest/teamgraph/graph"
	"github.com/smallnest/teamgraph/internal/llmtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

func question(text string) MessagesState {
	return MessagesState{Messages: []Message{HumanMessage(text)}}
}

func TestNewSupervisor_Validation(t *testing.T) {
	model := llmtest.NewModel()

	_, err := NewSupervisor("s", model, nil)
	assert.Error(t, err)

	_, err = NewSupervisor("s", model, []string{"a", "FINISH"})
	assert.Error(t, err)

	_, err = NewSupervisor("s", model, []string{"a", "a"})
	assert.Error(t, err)

	s, err := NewSupervisor("s", model, []string{"b", "a"})
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, s.Roster())
	assert.Equal(t, []string{"b", "a", graph.END}, s.Destinations())
}

func TestSupervisor_DecideRosterMember(t *testing.T) {
	model := llmtest.NewModel(llmtest.Route("web_scraper"))
	s, err := NewSupervisor("research_team_supervisor", model, []string{"search", "web_scraper"})
	require.NoError(t, err)

	next, err := s.Decide(context.Background(), question("read https://example.com"))
	require.NoError(t, err)
	assert.Equal(t, "web_scraper", next)

	calls := model.Calls()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].SystemText(), "search, web_scraper")
	assert.Equal(t, "read https://example.com", calls[0].LastText())

	require.Len(t, calls[0].Options.Tools, 1)
	route := calls[0].Options.Tools[0].Function
	assert.Equal(t, "route", route.Name)
	enum := route.Parameters.(map[string]any)["properties"].(map[string]any)["next"].(map[string]any)["enum"]
	assert.Equal(t, []string{"search", "web_scraper", FINISH}, enum)

	choice, ok := calls[0].Options.ToolChoice.(llms.ToolChoice)
	require.True(t, ok)
	assert.Equal(t, "route", choice.Function.Name)
}

func TestSupervisor_DecideFinish(t *testing.T) {
	model := llmtest.NewModel(llmtest.Route(FINISH))
	s, err := NewSupervisor("supervisor", model, []string{"research_team"})
	require.NoError(t, err)

	cmd, err := s.Node()(context.Background(), question("hi"))
	require.NoError(t, err)
	assert.Equal(t, graph.END, cmd.Goto)
	assert.Empty(t, cmd.Update.Messages)
}

func TestSupervisor_RoutingFailures(t *testing.T) {
	providerErr := errors.New("provider unavailable")

	tests := []struct {
		name     string
		reply    llmtest.Reply
		wantIs   error
		decision string
	}{
		{
			name:     "decision outside roster",
			reply:    llmtest.Route("chart_generator"),
			wantIs:   ErrInvalidDecision,
			decision: "chart_generator",
		},
		{
			name:     "lowercase finish is not coerced",
			reply:    llmtest.Route("finish"),
			wantIs:   ErrInvalidDecision,
			decision: "finish",
		},
		{
			name:   "free text instead of a tool call",
			reply:  llmtest.Text("search"),
			wantIs: ErrNoDecision,
		},
		{
			name:   "provider failure",
			reply:  llmtest.Fail(providerErr),
			wantIs: providerErr,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewSupervisor("research_team_supervisor", llmtest.NewModel(tt.reply), []string{"search", "web_scraper"})
			require.NoError(t, err)

			next, err := s.Decide(context.Background(), question("hi"))
			assert.Empty(t, next)
			assert.ErrorIs(t, err, tt.wantIs)

			var routingErr *RoutingError
			require.ErrorAs(t, err, &routingErr)
			assert.Equal(t, "research_team_supervisor", routingErr.Supervisor)
			assert.Equal(t, tt.decision, routingErr.Decision)
		})
	}
}

func TestSupervisor_UnparseableArguments(t *testing.T) {
	s, err := NewSupervisor("s", llmtest.NewModel(llmtest.ToolCall("route", "{next:")), []string{"a"})
	require.NoError(t, err)

	_, err = s.Decide(context.Background(), question("hi"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse route arguments")
}

func TestSupervisor_CustomPrompt(t *testing.T) {
	model := llmtest.NewModel(llmtest.Route("a"))
	s, err := NewSupervisor("s", model, []string{"a", "b"}, WithSupervisorPrompt("Pick one of %s."))
	require.NoError(t, err)

	_, err = s.Decide(context.Background(), question("hi"))
	require.NoError(t, err)
	assert.Equal(t, "Pick one of a, b.", model.Calls()[0].SystemText())
}

func TestSupervisor_SeesAuthoredHistory(t *testing.T) {
	model := llmtest.NewModel(llmtest.Route(FINISH))
	s, err := NewSupervisor("s", model, []string{"search"})
	require.NoError(t, err)

	state := MessagesState{Messages: []Message{
		HumanMessage("when is the tour?"),
		AuthoredMessage("search", "2024 Eras Tour"),
	}}
	_, err = s.Decide(context.Background(), state)
	require.NoError(t, err)

	call := model.Calls()[0]
	require.Len(t, call.Messages, 3)
	assert.Equal(t, llms.ChatMessageTypeHuman, call.Messages[2].Role)
	assert.Equal(t, "search: 2024 Eras Tour", call.LastText())
}
