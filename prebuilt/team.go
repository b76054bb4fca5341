package prebuilt

import (
	"context"
	"errors"
	"fmt"

	"github.com/smallnest/teamgraph/graph"
	"github.com/tmc/langchaingo/llms"
)

// ErrEmptyConversation is returned when a team is handed a state without messages.
var ErrEmptyConversation = errors.New("conversation has no messages")

// Team is a supervisor and its members wired as a star: the supervisor
// routes to one member per turn and every member reports back to it.
//
// A Team is itself a Member, so teams nest. Seen from a parent, a team
// takes only the parent's last message and answers with only its own final
// message.
type Team struct {
	name       string
	supervisor *Supervisor
	members    []Member
	graph      *graph.StateGraph[MessagesState]
	runnable   *graph.StateRunnable[MessagesState]
}

var _ Member = (*Team)(nil)

type teamOptions struct {
	supervisorName string
	supervisorOpts []SupervisorOption
}

// TeamOption configures a Team.
type TeamOption func(*teamOptions)

// WithSupervisorName sets the supervisor's node name. The default is
// "<team>_supervisor".
func WithSupervisorName(name string) TeamOption {
	return func(o *teamOptions) {
		o.supervisorName = name
	}
}

// WithSupervisorOptions passes options to the team's supervisor.
func WithSupervisorOptions(opts ...SupervisorOption) TeamOption {
	return func(o *teamOptions) {
		o.supervisorOpts = append(o.supervisorOpts, opts...)
	}
}

// NewTeam builds and compiles the team graph.
func NewTeam(name string, model llms.Model, members []Member, opts ...TeamOption) (*Team, error) {
	o := teamOptions{supervisorName: name + "_supervisor"}
	for _, opt := range opts {
		opt(&o)
	}

	roster := make([]string, len(members))
	for i, m := range members {
		roster[i] = m.Name()
		if roster[i] == o.supervisorName {
			return nil, fmt.Errorf("team %s: member %s clashes with the supervisor name", name, roster[i])
		}
	}

	supervisor, err := NewSupervisor(o.supervisorName, model, roster, o.supervisorOpts...)
	if err != nil {
		return nil, fmt.Errorf("team %s: %w", name, err)
	}

	g := graph.NewStateGraph[MessagesState]()
	g.SetSchema(MessagesSchema())
	g.AddCommandNode(supervisor.Name(), "Routes the conversation between "+name+" members", supervisor.Node(), supervisor.Destinations()...)
	for _, m := range members {
		g.AddCommandNode(m.Name(), "Member of "+name, memberNode(m, supervisor.Name()), supervisor.Name())
	}
	g.SetEntryPoint(supervisor.Name())

	runnable, err := g.Compile()
	if err != nil {
		return nil, fmt.Errorf("team %s: %w", name, err)
	}

	return &Team{
		name:       name,
		supervisor: supervisor,
		members:    members,
		graph:      g,
		runnable:   runnable,
	}, nil
}

func memberNode(m Member, supervisor string) graph.CommandFunc[MessagesState] {
	return func(ctx context.Context, state MessagesState) (*graph.Command[MessagesState], error) {
		msg, err := m.Invoke(ctx, state)
		if err != nil {
			return nil, err
		}
		return &graph.Command[MessagesState]{
			Update: MessagesState{Messages: []Message{msg}},
			Goto:   supervisor,
		}, nil
	}
}

// Name returns the team's name.
func (t *Team) Name() string { return t.name }

// Supervisor returns the team's supervisor.
func (t *Team) Supervisor() *Supervisor { return t.supervisor }

// Members returns the team's members in roster order.
func (t *Team) Members() []Member { return append([]Member(nil), t.members...) }

// Graph returns the team's graph definition.
func (t *Team) Graph() *graph.StateGraph[MessagesState] { return t.graph }

// Runnable returns the compiled team graph.
func (t *Team) Runnable() *graph.StateRunnable[MessagesState] { return t.runnable }

// Run executes the team over a full conversation until its supervisor
// finishes, and returns the resulting conversation.
func (t *Team) Run(ctx context.Context, state MessagesState, config *graph.Config) (MessagesState, error) {
	return t.runnable.InvokeWithConfig(ctx, state, config)
}

// Invoke runs the team as a member of a parent team. Only the parent's last
// message goes in and only the team's final message comes out, authored
// with the team's name.
func (t *Team) Invoke(ctx context.Context, state MessagesState) (Message, error) {
	last, ok := state.Last()
	if !ok {
		return Message{}, fmt.Errorf("team %s: %w", t.name, ErrEmptyConversation)
	}

	result, err := t.runnable.Invoke(ctx, MessagesState{Messages: []Message{last}})
	if err != nil {
		return Message{}, err
	}

	final, _ := result.Last()
	return AuthoredMessage(t.name, final.Content), nil
}
