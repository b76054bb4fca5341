package prebuilt

import (
	"context"
	"fmt"

	"github.com/smallnest/teamgraph/graph"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/tools"
)

// Member is anything a supervisor can dispatch to. It reads the state it
// is given and reports back with exactly one message.
type Member interface {
	Name() string
	Invoke(ctx context.Context, state MessagesState) (Message, error)
}

// Worker is a leaf member: a model bound to a fixed tool set and
// instruction, running a ReAct loop.
type Worker struct {
	name        string
	instruction string
	tools       []tools.Tool
	agent       *graph.StateRunnable[ReactState]
}

var _ Member = (*Worker)(nil)

// WorkerOption configures a Worker.
type WorkerOption func(*Worker)

// WithInstruction sets the system instruction the worker runs under.
func WithInstruction(instruction string) WorkerOption {
	return func(w *Worker) {
		w.instruction = instruction
	}
}

// NewWorker creates a worker named name.
func NewWorker(name string, model llms.Model, inputTools []tools.Tool, opts ...WorkerOption) (*Worker, error) {
	if name == "" {
		return nil, fmt.Errorf("worker name is required")
	}
	w := &Worker{name: name, tools: inputTools}
	for _, opt := range opts {
		opt(w)
	}

	agent, err := CreateReactAgent(model, inputTools)
	if err != nil {
		return nil, fmt.Errorf("worker %s: %w", name, err)
	}
	w.agent = agent
	return w, nil
}

// Name returns the worker's name.
func (w *Worker) Name() string { return w.name }

// Tools returns the names of the worker's tools.
func (w *Worker) Tools() []string {
	names := make([]string, len(w.tools))
	for i, t := range w.tools {
		names[i] = t.Name()
	}
	return names
}

// Invoke runs the ReAct loop over the shared conversation and returns the
// final answer authored by the worker. Tool calls and their results stay
// in the loop's own history.
func (w *Worker) Invoke(ctx context.Context, state MessagesState) (Message, error) {
	scratch := ReactState{Messages: toModelMessages(w.instruction, state.Messages)}

	result, err := w.agent.Invoke(ctx, scratch)
	if err != nil {
		return Message{}, err
	}
	return AuthoredMessage(w.name, finalText(result.Messages)), nil
}
