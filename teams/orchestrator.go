package teams

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/smallnest/teamgraph/graph"
	"github.com/smallnest/teamgraph/log"
	"github.com/smallnest/teamgraph/prebuilt"
	"github.com/tmc/langchaingo/llms"
)

// TopSupervisor is the node name of the supervisor over both teams.
const TopSupervisor = "supervisor"

// Orchestrator is the top level graph: a supervisor choosing between the
// research team and the writing team.
type Orchestrator struct {
	top            *prebuilt.Team
	research       *prebuilt.Team
	writing        *prebuilt.Team
	recursionLimit int
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithRecursionLimit sets the transition budget of a run. Every node of
// every nested graph spends from it.
func WithRecursionLimit(limit int) OrchestratorOption {
	return func(o *Orchestrator) {
		if limit > 0 {
			o.recursionLimit = limit
		}
	}
}

// NewOrchestrator builds both teams and the top graph over them.
func NewOrchestrator(model llms.Model, ts *Toolset, opts ...OrchestratorOption) (*Orchestrator, error) {
	research, err := NewResearchTeam(model, ts.Search, ts.Scraper)
	if err != nil {
		return nil, err
	}
	writing, err := NewWritingTeam(model, ts.Workspace, ts.Python)
	if err != nil {
		return nil, err
	}
	return newOrchestrator(model, research, writing, opts...)
}

func newOrchestrator(model llms.Model, research, writing *prebuilt.Team, opts ...OrchestratorOption) (*Orchestrator, error) {
	top, err := prebuilt.NewTeam("teamgraph", model,
		[]prebuilt.Member{research, writing},
		prebuilt.WithSupervisorName(TopSupervisor))
	if err != nil {
		return nil, err
	}

	o := &Orchestrator{
		top:            top,
		research:       research,
		writing:        writing,
		recursionLimit: graph.DefaultRecursionLimit,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// RecursionLimit returns the transition budget of a run.
func (o *Orchestrator) RecursionLimit() int { return o.recursionLimit }

func (o *Orchestrator) config(config *graph.Config) *graph.Config {
	c := graph.Config{}
	if config != nil {
		c = *config
	}
	if c.RecursionLimit <= 0 {
		c.RecursionLimit = o.recursionLimit
	}
	if c.RunID == "" {
		c.RunID = uuid.NewString()
	}
	return &c
}

// Input returns the initial state for a question.
func Input(question string) prebuilt.MessagesState {
	return prebuilt.MessagesState{
		Messages: []prebuilt.Message{prebuilt.HumanMessage(strings.TrimSpace(question))},
	}
}

// Run answers a question and returns the full top level conversation.
func (o *Orchestrator) Run(ctx context.Context, question string, config *graph.Config) (prebuilt.MessagesState, error) {
	c := o.config(config)
	start := time.Now()
	log.Info("run %s started", c.RunID)

	state, err := o.top.Run(ctx, Input(question), c)
	if err != nil {
		log.Error("run %s failed after %s: %v", c.RunID, time.Since(start), err)
		return state, err
	}
	log.Info("run %s finished in %s with %d messages", c.RunID, time.Since(start), len(state.Messages))
	return state, nil
}

// Stream answers a question in the background and streams its events.
func (o *Orchestrator) Stream(ctx context.Context, question string, config *graph.Config, streamConfig graph.StreamConfig) *graph.StreamResult[prebuilt.MessagesState] {
	c := o.config(config)
	log.Info("run %s started streaming", c.RunID)
	return o.top.Runnable().Stream(ctx, Input(question), c, streamConfig)
}

// Diagram is the Mermaid rendering of one graph.
type Diagram struct {
	Name    string
	Mermaid string
}

// Diagrams renders the top graph followed by each team.
func (o *Orchestrator) Diagrams() []Diagram {
	diagrams := make([]Diagram, 0, 3)
	for _, t := range []*prebuilt.Team{o.top, o.research, o.writing} {
		diagrams = append(diagrams, Diagram{
			Name: t.Name(),
			Mermaid: graph.NewExporter(t.Graph()).DrawMermaidWithOptions(graph.MermaidOptions{
				Direction: "TD",
				Title:     t.Name(),
			}),
		})
	}
	return diagrams
}
