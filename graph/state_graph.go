package graph

import (
	"context"
	"fmt"
)

// StateGraph represents a graph whose nodes share a state of type S.
// Execution follows a single path: each node names, through a Command or
// its edges, exactly one successor.
type StateGraph[S any] struct {
	// nodes is a map of node names to their corresponding Node objects
	nodes map[string]*Node[S]

	// order keeps node insertion order for deterministic output
	order []string

	// edges is a slice of Edge objects representing the connections between nodes
	edges []Edge

	// conditionalEdges contains a map between "From" node, while "To" node is derived based on the condition
	conditionalEdges map[string]func(ctx context.Context, state S) string

	// entryPoint is the name of the entry point node in the graph
	entryPoint string

	// Schema merges node updates into the state. Without a schema an
	// update replaces the state.
	Schema StateSchema[S]
}

// NewStateGraph creates a new instance of StateGraph
func NewStateGraph[S any]() *StateGraph[S] {
	return &StateGraph[S]{
		nodes:            make(map[string]*Node[S]),
		conditionalEdges: make(map[string]func(ctx context.Context, state S) string),
	}
}

// AddNode adds a node that returns a state update. The next node is picked by edges.
func (g *StateGraph[S]) AddNode(name string, description string, fn NodeFunc[S]) {
	g.addNode(&Node[S]{
		Name:        name,
		Description: description,
		Function: func(ctx context.Context, state S) (*Command[S], error) {
			update, err := fn(ctx, state)
			if err != nil {
				return nil, err
			}
			return &Command[S]{Update: update}, nil
		},
	})
}

// AddCommandNode adds a node that routes itself. The Goto of every Command
// it returns must be one of destinations.
func (g *StateGraph[S]) AddCommandNode(name string, description string, fn CommandFunc[S], destinations ...string) {
	g.addNode(&Node[S]{
		Name:         name,
		Description:  description,
		Function:     fn,
		Destinations: destinations,
	})
}

func (g *StateGraph[S]) addNode(node *Node[S]) {
	if _, exists := g.nodes[node.Name]; !exists {
		g.order = append(g.order, node.Name)
	}
	g.nodes[node.Name] = node
}

// AddEdge adds a new edge to the state graph between the "from" and "to" nodes.
func (g *StateGraph[S]) AddEdge(from, to string) {
	g.edges = append(g.edges, Edge{From: from, To: to})
}

// AddConditionalEdge adds a conditional edge where the target node is determined at runtime.
func (g *StateGraph[S]) AddConditionalEdge(from string, condition func(ctx context.Context, state S) string) {
	g.conditionalEdges[from] = condition
}

// SetEntryPoint sets the entry point node name for the state graph.
func (g *StateGraph[S]) SetEntryPoint(name string) {
	g.entryPoint = name
}

// SetSchema sets the state schema for the graph.
func (g *StateGraph[S]) SetSchema(schema StateSchema[S]) {
	g.Schema = schema
}

// Nodes returns node names in insertion order.
func (g *StateGraph[S]) Nodes() []string {
	return append([]string(nil), g.order...)
}

// Compile validates the graph and returns a runnable.
func (g *StateGraph[S]) Compile() (*StateRunnable[S], error) {
	if g.entryPoint == "" {
		return nil, ErrEntryPointNotSet
	}
	if _, ok := g.nodes[g.entryPoint]; !ok {
		return nil, fmt.Errorf("%w: entry point %s", ErrNodeNotFound, g.entryPoint)
	}
	for _, e := range g.edges {
		if _, ok := g.nodes[e.From]; !ok {
			return nil, fmt.Errorf("%w: edge source %s", ErrNodeNotFound, e.From)
		}
		if !g.hasTarget(e.To) {
			return nil, fmt.Errorf("%w: edge target %s", ErrNodeNotFound, e.To)
		}
	}
	for from := range g.conditionalEdges {
		if _, ok := g.nodes[from]; !ok {
			return nil, fmt.Errorf("%w: conditional edge source %s", ErrNodeNotFound, from)
		}
	}
	for _, name := range g.order {
		for _, d := range g.nodes[name].Destinations {
			if !g.hasTarget(d) {
				return nil, fmt.Errorf("%w: node %s declares unknown destination %s", ErrInvalidDestination, name, d)
			}
		}
	}
	return &StateRunnable[S]{graph: g}, nil
}

func (g *StateGraph[S]) hasTarget(name string) bool {
	if name == END {
		return true
	}
	_, ok := g.nodes[name]
	return ok
}

// StateRunnable is a compiled StateGraph.
type StateRunnable[S any] struct {
	graph *StateGraph[S]
}

// Graph returns the graph the runnable was compiled from.
func (r *StateRunnable[S]) Graph() *StateGraph[S] {
	return r.graph
}

// Invoke executes the graph with the given initial state.
func (r *StateRunnable[S]) Invoke(ctx context.Context, initialState S) (S, error) {
	return r.InvokeWithConfig(ctx, initialState, nil)
}

// InvokeWithConfig executes the graph until a node routes to END.
//
// When ctx belongs to a node of another graph, the invocation joins that
// run: node transitions count against the same recursion limit, and message
// chunks and callbacks go to the same places.
func (r *StateRunnable[S]) InvokeWithConfig(ctx context.Context, initialState S, config *Config) (S, error) {
	ctx, sc := enterRun(ctx, config)

	state := initialState
	if r.graph.Schema != nil {
		merged, err := r.graph.Schema.Update(r.graph.Schema.Init(), initialState)
		if err != nil {
			return state, fmt.Errorf("failed to initialize state: %w", err)
		}
		state = merged
	}

	inputs := map[string]any{"namespace": sc.namespace, "state": state}
	for _, cb := range sc.callbacks {
		cb.OnChainStart(ctx, inputs, sc.runID, sc.tags, sc.metadata)
	}

	state, err := r.run(ctx, sc, state)
	if err != nil {
		for _, cb := range sc.callbacks {
			cb.OnChainError(ctx, err, sc.runID)
		}
		return state, err
	}

	outputs := map[string]any{"namespace": sc.namespace, "state": state}
	for _, cb := range sc.callbacks {
		cb.OnChainEnd(ctx, outputs, sc.runID)
	}
	return state, nil
}

func (r *StateRunnable[S]) run(ctx context.Context, sc *runScope, state S) (S, error) {
	current := r.graph.entryPoint
	for current != END {
		if err := ctx.Err(); err != nil {
			return state, err
		}
		if err := sc.budget.spend(); err != nil {
			return state, err
		}

		node, ok := r.graph.nodes[current]
		if !ok {
			return state, fmt.Errorf("%w: %s", ErrNodeNotFound, current)
		}

		nodeCtx := sc.enterNode(ctx, current)
		nodeScope := scopeFrom(nodeCtx)
		nodeScope.notify(nodeCtx, NodeEventStart, current, state, nil)

		cmd, err := callNode(nodeCtx, node, state)
		if err != nil {
			nodeScope.notify(nodeCtx, NodeEventError, current, state, err)
			return state, fmt.Errorf("error in node %s: %w", current, err)
		}

		if state, err = r.merge(state, cmd.Update); err != nil {
			return state, fmt.Errorf("failed to merge update from node %s: %w", current, err)
		}
		nodeScope.notify(nodeCtx, NodeEventComplete, current, state, nil)
		nodeScope.graphStep(nodeCtx, current, state)

		next, err := r.next(ctx, node, cmd, state)
		if err != nil {
			return state, err
		}
		current = next
	}
	return state, nil
}

func callNode[S any](ctx context.Context, node *Node[S], state S) (cmd *Command[S], err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	cmd, err = node.Function(ctx, state)
	if err == nil && cmd == nil {
		cmd = &Command[S]{}
	}
	return cmd, err
}

func (r *StateRunnable[S]) merge(current, update S) (S, error) {
	if r.graph.Schema == nil {
		return update, nil
	}
	return r.graph.Schema.Update(current, update)
}

// next determines the successor of node. A Command's Goto wins over
// conditional edges, which win over static edges.
func (r *StateRunnable[S]) next(ctx context.Context, node *Node[S], cmd *Command[S], state S) (string, error) {
	if cmd.Goto != "" {
		if !node.allows(cmd.Goto) {
			return "", fmt.Errorf("%w: node %s cannot route to %s", ErrInvalidDestination, node.Name, cmd.Goto)
		}
		return cmd.Goto, nil
	}

	if condition, ok := r.graph.conditionalEdges[node.Name]; ok {
		target := condition(ctx, state)
		if !r.graph.hasTarget(target) {
			return "", fmt.Errorf("%w: conditional edge from %s returned %s", ErrNodeNotFound, node.Name, target)
		}
		return target, nil
	}

	for _, e := range r.graph.edges {
		if e.From == node.Name {
			return e.To, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNoOutgoingEdge, node.Name)
}
