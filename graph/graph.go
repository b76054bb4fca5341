package graph

import (
	"context"
	"errors"
	"fmt"
)

// END is a special constant used to represent the end node in the graph.
const END = "END"

var (
	// ErrEntryPointNotSet is returned when the entry point of the graph is not set.
	ErrEntryPointNotSet = errors.New("entry point not set")

	// ErrNodeNotFound is returned when a node is not found in the graph.
	ErrNodeNotFound = errors.New("node not found")

	// ErrNoOutgoingEdge is returned when no outgoing edge is found for a node.
	ErrNoOutgoingEdge = errors.New("no outgoing edge found for node")

	// ErrInvalidDestination is returned when a node routes somewhere it did not declare.
	ErrInvalidDestination = errors.New("invalid destination")
)

// GraphRecursionError is returned when a run performs more node transitions
// than its recursion limit allows. The limit is shared by every nested graph
// invoked within the same run.
type GraphRecursionError struct {
	Limit int
}

func (e *GraphRecursionError) Error() string {
	return fmt.Sprintf("recursion limit of %d reached without hitting a stop condition", e.Limit)
}

// Command lets a node update the state and pick the next node in one step.
// An empty Goto falls back to the node's edges.
type Command[S any] struct {
	Update S
	Goto   string
}

// NodeFunc is a node that returns a state update and lets edges pick the next node.
type NodeFunc[S any] func(ctx context.Context, state S) (S, error)

// CommandFunc is a node that returns a Command.
type CommandFunc[S any] func(ctx context.Context, state S) (*Command[S], error)

// Node represents a node in the graph.
type Node[S any] struct {
	// Name is the unique identifier for the node.
	Name string

	// Description describes what this node does.
	Description string

	// Function is executed when the node is reached.
	Function CommandFunc[S]

	// Destinations lists the nodes a Command returned by Function may route to.
	// Empty means the node only follows edges.
	Destinations []string
}

func (n *Node[S]) allows(target string) bool {
	for _, d := range n.Destinations {
		if d == target {
			return true
		}
	}
	return false
}

// Edge represents a static edge in the graph.
type Edge struct {
	From string
	To   string
}
