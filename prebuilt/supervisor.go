package prebuilt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/smallnest/teamgraph/graph"
	"github.com/smallnest/teamgraph/log"
	"github.com/tmc/langchaingo/llms"
)

// FINISH is the routing decision that ends a team's run.
const FINISH = "FINISH"

const routeToolName = "route"

var (
	// ErrNoDecision is returned when the model answers without calling the route tool.
	ErrNoDecision = errors.New("supervisor did not select a next step")

	// ErrInvalidDecision is returned when the model picks a name outside the roster.
	ErrInvalidDecision = errors.New("decision is not a roster member")
)

// RoutingError reports a failed supervisor turn. Routing failures are never
// retried or replaced by a default route.
type RoutingError struct {
	Supervisor string
	Decision   string
	Err        error
}

func (e *RoutingError) Error() string {
	if e.Decision != "" {
		return fmt.Sprintf("supervisor %s: %v: %q", e.Supervisor, e.Err, e.Decision)
	}
	return fmt.Sprintf("supervisor %s: %v", e.Supervisor, e.Err)
}

func (e *RoutingError) Unwrap() error { return e.Err }

// DefaultSupervisorPrompt is formatted with the comma separated roster.
const DefaultSupervisorPrompt = "You are a supervisor tasked with managing a conversation between the following workers: %s. " +
	"Given the following user request, respond with the worker to act next. " +
	"Each worker will perform a task and respond with their results and status. " +
	"When finished, respond with FINISH. " +
	"You MUST use the 'route' tool to select the next worker or to finish. Do not provide any other text response."

// Supervisor picks the next member of its roster, or FINISH, by forcing the
// model to call a route tool whose only argument is an enum of the roster.
type Supervisor struct {
	name   string
	roster []string
	model  llms.Model
	prompt string
}

// SupervisorOption configures a Supervisor.
type SupervisorOption func(*Supervisor)

// WithSupervisorPrompt overrides the system prompt. A %s verb, if present,
// receives the roster.
func WithSupervisorPrompt(prompt string) SupervisorOption {
	return func(s *Supervisor) {
		s.prompt = prompt
	}
}

// NewSupervisor creates a supervisor over an ordered roster.
func NewSupervisor(name string, model llms.Model, roster []string, opts ...SupervisorOption) (*Supervisor, error) {
	if len(roster) == 0 {
		return nil, fmt.Errorf("supervisor %s: roster is empty", name)
	}
	seen := make(map[string]bool, len(roster))
	for _, member := range roster {
		switch {
		case member == "":
			return nil, fmt.Errorf("supervisor %s: empty member name", name)
		case member == FINISH || member == graph.END:
			return nil, fmt.Errorf("supervisor %s: %s is reserved", name, member)
		case seen[member]:
			return nil, fmt.Errorf("supervisor %s: duplicate member %s", name, member)
		}
		seen[member] = true
	}

	s := &Supervisor{
		name:   name,
		roster: append([]string(nil), roster...),
		model:  model,
		prompt: DefaultSupervisorPrompt,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Name returns the supervisor's node name.
func (s *Supervisor) Name() string { return s.name }

// Roster returns the members the supervisor routes between.
func (s *Supervisor) Roster() []string { return append([]string(nil), s.roster...) }

func (s *Supervisor) options() []string {
	return append(s.Roster(), FINISH)
}

func (s *Supervisor) routeTool() llms.Tool {
	return llms.Tool{
		Type: "function",
		Function: &llms.FunctionDefinition{
			Name:        routeToolName,
			Description: "Select the next role.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"next": map[string]any{
						"type": "string",
						"enum": s.options(),
					},
				},
				"required": []string{"next"},
			},
		},
	}
}

func (s *Supervisor) systemPrompt() string {
	if strings.Contains(s.prompt, "%s") {
		return fmt.Sprintf(s.prompt, strings.Join(s.roster, ", "))
	}
	return s.prompt
}

// Decide asks the model for the next actor. The result is always a roster
// member or FINISH; anything else is a *RoutingError.
func (s *Supervisor) Decide(ctx context.Context, state MessagesState) (string, error) {
	messages := toModelMessages(s.systemPrompt(), state.Messages)

	resp, err := s.model.GenerateContent(ctx, messages,
		llms.WithTools([]llms.Tool{s.routeTool()}),
		llms.WithToolChoice(llms.ToolChoice{
			Type:     "function",
			Function: &llms.FunctionReference{Name: routeToolName},
		}),
	)
	if err != nil {
		return "", &RoutingError{Supervisor: s.name, Err: err}
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", &RoutingError{Supervisor: s.name, Err: ErrNoDecision}
	}

	var call *llms.ToolCall
	for i, tc := range resp.Choices[0].ToolCalls {
		if tc.FunctionCall != nil && tc.FunctionCall.Name == routeToolName {
			call = &resp.Choices[0].ToolCalls[i]
			break
		}
	}
	if call == nil {
		return "", &RoutingError{Supervisor: s.name, Err: ErrNoDecision}
	}

	var args struct {
		Next string `json:"next"`
	}
	if err := json.Unmarshal([]byte(call.FunctionCall.Arguments), &args); err != nil {
		return "", &RoutingError{Supervisor: s.name, Err: fmt.Errorf("failed to parse route arguments: %w", err)}
	}

	for _, option := range s.options() {
		if args.Next == option {
			log.Debug("supervisor %s routed to %s", s.name, args.Next)
			return args.Next, nil
		}
	}
	return "", &RoutingError{Supervisor: s.name, Decision: args.Next, Err: ErrInvalidDecision}
}

// Node returns the supervisor as a graph node. It never changes the state.
func (s *Supervisor) Node() graph.CommandFunc[MessagesState] {
	return func(ctx context.Context, state MessagesState) (*graph.Command[MessagesState], error) {
		next, err := s.Decide(ctx, state)
		if err != nil {
			return nil, err
		}
		if next == FINISH {
			return &graph.Command[MessagesState]{Goto: graph.END}, nil
		}
		return &graph.Command[MessagesState]{Goto: next}, nil
	}
}

// Destinations lists every node the supervisor node can route to.
func (s *Supervisor) Destinations() []string {
	return append(s.Roster(), graph.END)
}
