package graph

import (
	"context"
	"time"
)

// NodeEvent represents different types of node events
type NodeEvent string

const (
	// NodeEventStart indicates a node has started execution
	NodeEventStart NodeEvent = "start"

	// NodeEventComplete indicates a node has completed successfully
	NodeEventComplete NodeEvent = "complete"

	// NodeEventError indicates a node encountered an error
	NodeEventError NodeEvent = "error"

	// EventGraphStep indicates a node's update has been merged into the state
	EventGraphStep NodeEvent = "step"

	// EventToken indicates a generated token (for streaming)
	EventToken NodeEvent = "token"
)

// NodeListener defines the interface for node event listeners
type NodeListener interface {
	// OnNodeEvent is called when a node event occurs
	OnNodeEvent(ctx context.Context, event NodeEvent, nodeName string, state any, err error)
}

// NodeListenerFunc is a function adapter for NodeListener
type NodeListenerFunc func(ctx context.Context, event NodeEvent, nodeName string, state any, err error)

// OnNodeEvent implements the NodeListener interface
func (f NodeListenerFunc) OnNodeEvent(ctx context.Context, event NodeEvent, nodeName string, state any, err error) {
	f(ctx, event, nodeName, state, err)
}

// StreamEvent represents an event in the streaming execution
type StreamEvent struct {
	// Timestamp when the event occurred
	Timestamp time.Time

	// Namespace is the node path that generated the event
	Namespace string

	// NodeName is the name of the node that generated the event
	NodeName string

	// Event is the type of event
	Event NodeEvent

	// State is the state at the time of the event. Nested graphs report their own state.
	State any

	// Chunk holds model output for EventToken events
	Chunk string

	// Error contains any error that occurred (if Event is NodeEventError)
	Error error
}

// CallbackHandler receives run level notifications.
type CallbackHandler interface {
	OnChainStart(ctx context.Context, inputs map[string]any, runID string, tags []string, metadata map[string]any)
	OnChainEnd(ctx context.Context, outputs map[string]any, runID string)
	OnChainError(ctx context.Context, err error, runID string)
	OnToolStart(ctx context.Context, toolName, input, runID string)
	OnToolEnd(ctx context.Context, toolName, output, runID string)
	OnToolError(ctx context.Context, toolName string, err error, runID string)
}

// GraphCallbackHandler is a CallbackHandler that also wants to know about
// every merged step.
type GraphCallbackHandler interface {
	CallbackHandler
	OnGraphStep(ctx context.Context, nodeName string, state any)
}

// NoOpCallbackHandler implements CallbackHandler with empty methods. Embed it
// to implement only the callbacks you need.
type NoOpCallbackHandler struct{}

func (NoOpCallbackHandler) OnChainStart(context.Context, map[string]any, string, []string, map[string]any) {
}
func (NoOpCallbackHandler) OnChainEnd(context.Context, map[string]any, string)  {}
func (NoOpCallbackHandler) OnChainError(context.Context, error, string)         {}
func (NoOpCallbackHandler) OnToolStart(context.Context, string, string, string) {}
func (NoOpCallbackHandler) OnToolEnd(context.Context, string, string, string)   {}
func (NoOpCallbackHandler) OnToolError(context.Context, string, error, string)  {}

// NotifyToolStart reports a tool invocation to the run's callbacks.
func NotifyToolStart(ctx context.Context, toolName, input string) {
	if sc := scopeFrom(ctx); sc != nil {
		for _, cb := range sc.callbacks {
			cb.OnToolStart(ctx, toolName, input, sc.runID)
		}
	}
}

// NotifyToolEnd reports a tool result to the run's callbacks.
func NotifyToolEnd(ctx context.Context, toolName, output string) {
	if sc := scopeFrom(ctx); sc != nil {
		for _, cb := range sc.callbacks {
			cb.OnToolEnd(ctx, toolName, output, sc.runID)
		}
	}
}

// NotifyToolError reports a tool failure to the run's callbacks.
func NotifyToolError(ctx context.Context, toolName string, err error) {
	if sc := scopeFrom(ctx); sc != nil {
		for _, cb := range sc.callbacks {
			cb.OnToolError(ctx, toolName, err, sc.runID)
		}
	}
}

func (sc *runScope) notify(ctx context.Context, event NodeEvent, nodeName string, state any, err error) {
	for _, l := range sc.listeners {
		l.OnNodeEvent(ctx, event, nodeName, state, err)
	}
}

func (sc *runScope) graphStep(ctx context.Context, nodeName string, state any) {
	for _, cb := range sc.callbacks {
		if gcb, ok := cb.(GraphCallbackHandler); ok {
			gcb.OnGraphStep(ctx, nodeName, state)
		}
	}
	sc.notify(ctx, EventGraphStep, nodeName, state, nil)
}
