package graph

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
)

// DefaultRecursionLimit is the number of node transitions a run may perform
// when Config.RecursionLimit is not set.
const DefaultRecursionLimit = 150

// Config configures a single run.
type Config struct {
	// RecursionLimit caps node transitions across the run, nested graphs included.
	RecursionLimit int

	// RunID identifies the run. Generated when empty.
	RunID string

	// Callbacks receive chain, step and tool notifications.
	Callbacks []CallbackHandler

	// Listeners receive node events.
	Listeners []NodeListener

	// Tags and Metadata are passed through to callbacks.
	Tags     []string
	Metadata map[string]any
}

// MessageChunk is a piece of model output produced somewhere in the run.
type MessageChunk struct {
	// Namespace is the node path that produced the chunk, e.g.
	// "research_team:<id>|search:<id>|agent:<id>".
	Namespace string

	// Node is the innermost node name.
	Node string

	Content string
}

// MessageSink receives message chunks as they are produced.
type MessageSink func(ctx context.Context, chunk MessageChunk)

type budget struct {
	limit int
	used  atomic.Int64
}

func (b *budget) spend() error {
	if b.used.Add(1) > int64(b.limit) {
		return &GraphRecursionError{Limit: b.limit}
	}
	return nil
}

// runScope is carried in the context of every node so nested graphs share
// the run's budget, callbacks and sink.
type runScope struct {
	runID     string
	budget    *budget
	callbacks []CallbackHandler
	listeners []NodeListener
	tags      []string
	metadata  map[string]any
	sink      MessageSink
	namespace string
	node      string
}

type scopeKey struct{}

func scopeFrom(ctx context.Context) *runScope {
	sc, _ := ctx.Value(scopeKey{}).(*runScope)
	return sc
}

func newRootScope(config *Config) *runScope {
	if config == nil {
		config = &Config{}
	}
	limit := config.RecursionLimit
	if limit <= 0 {
		limit = DefaultRecursionLimit
	}
	runID := config.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	return &runScope{
		runID:     runID,
		budget:    &budget{limit: limit},
		callbacks: config.Callbacks,
		listeners: config.Listeners,
		tags:      config.Tags,
		metadata:  config.Metadata,
	}
}

// enterRun returns the scope for a graph invocation. A graph invoked from
// inside another graph's node joins the parent run; only callbacks and
// listeners from config are added.
func enterRun(ctx context.Context, config *Config) (context.Context, *runScope) {
	parent := scopeFrom(ctx)
	if parent == nil {
		sc := newRootScope(config)
		sc.sink, _ = ctx.Value(sinkKey{}).(MessageSink)
		return context.WithValue(ctx, scopeKey{}, sc), sc
	}
	if config == nil || (len(config.Callbacks) == 0 && len(config.Listeners) == 0) {
		return ctx, parent
	}
	child := *parent
	child.callbacks = append(append([]CallbackHandler{}, parent.callbacks...), config.Callbacks...)
	child.listeners = append(append([]NodeListener{}, parent.listeners...), config.Listeners...)
	return context.WithValue(ctx, scopeKey{}, &child), &child
}

func (sc *runScope) enterNode(ctx context.Context, name string) context.Context {
	child := *sc
	segment := name + ":" + uuid.NewString()
	if sc.namespace == "" {
		child.namespace = segment
	} else {
		child.namespace = sc.namespace + "|" + segment
	}
	child.node = name
	return context.WithValue(ctx, scopeKey{}, &child)
}

// WithMessageSink attaches a sink for model output to ctx. Graphs invoked
// with the returned context forward EmitMessage calls to sink.
func WithMessageSink(ctx context.Context, sink MessageSink) context.Context {
	if sc := scopeFrom(ctx); sc != nil {
		child := *sc
		child.sink = sink
		return context.WithValue(ctx, scopeKey{}, &child)
	}
	return context.WithValue(ctx, sinkKey{}, sink)
}

type sinkKey struct{}

// EmitMessage forwards a chunk of model output to the run's sink, tagged
// with the namespace of the calling node. Empty content is dropped.
func EmitMessage(ctx context.Context, content string) {
	if content == "" {
		return
	}
	sc := scopeFrom(ctx)
	if sc == nil || sc.sink == nil {
		return
	}
	sc.sink(ctx, MessageChunk{Namespace: sc.namespace, Node: sc.node, Content: content})
}

// StreamingEnabled reports whether a message sink is attached to ctx.
func StreamingEnabled(ctx context.Context) bool {
	sc := scopeFrom(ctx)
	return sc != nil && sc.sink != nil
}

// RunID returns the identifier of the run ctx belongs to.
func RunID(ctx context.Context) string {
	if sc := scopeFrom(ctx); sc != nil {
		return sc.runID
	}
	return ""
}

// Namespace returns the node path of the calling node.
func Namespace(ctx context.Context) string {
	if sc := scopeFrom(ctx); sc != nil {
		return sc.namespace
	}
	return ""
}

// NodeName returns the name of the calling node.
func NodeName(ctx context.Context) string {
	if sc := scopeFrom(ctx); sc != nil {
		return sc.node
	}
	return ""
}

// NamespaceNodes splits a namespace into its node names, outermost first.
func NamespaceNodes(namespace string) []string {
	if namespace == "" {
		return nil
	}
	segments := strings.Split(namespace, "|")
	names := make([]string, 0, len(segments))
	for _, s := range segments {
		name, _, _ := strings.Cut(s, ":")
		names = append(names, name)
	}
	return names
}
