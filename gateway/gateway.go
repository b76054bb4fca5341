// Package gateway turns a streamed run into Server-Sent Events lines.
//
// Every model chunk becomes one "data: <chunk>\n" line per line of text. A
// failed run adds "data: [Error] <msg>\n\n". Unless the client went away,
// the stream always ends with "data: [DONE]\n\n".
package gateway

import (
	"context"
	"strings"
	"time"

	"github.com/smallnest/teamgraph/graph"
	"github.com/smallnest/teamgraph/log"
	"github.com/smallnest/teamgraph/prebuilt"
)

// Done terminates every stream that was not abandoned by its client.
const Done = "data: [DONE]\n\n"

// Outcome is how a stream ended.
type Outcome string

const (
	OutcomeCompleted    Outcome = "completed"
	OutcomeFailed       Outcome = "failed"
	OutcomeDisconnected Outcome = "disconnected"
)

// Runner starts a streamed run for a question.
type Runner interface {
	Stream(ctx context.Context, question string, config *graph.Config, streamConfig graph.StreamConfig) *graph.StreamResult[prebuilt.MessagesState]
}

// Filter selects chunks by the namespace that produced them.
type Filter struct {
	Enabled bool

	// Prefixes are matched against every segment of a namespace, so
	// "search:" matches "research_team:<id>|search:<id>|agent:<id>".
	Prefixes []string
}

// Allows reports whether chunks from namespace are forwarded. A disabled
// filter forwards everything.
func (f Filter) Allows(namespace string) bool {
	if !f.Enabled {
		return true
	}
	for _, segment := range strings.Split(namespace, "|") {
		for _, p := range f.Prefixes {
			if p != "" && strings.HasPrefix(segment, p) {
				return true
			}
		}
	}
	return false
}

// Observer is told how every stream ended.
type Observer func(outcome Outcome, elapsed time.Duration)

// Gateway answers questions as SSE lines.
type Gateway struct {
	runner     Runner
	filter     Filter
	bufferSize int
	observer   Observer
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithFilter sets the namespace filter.
func WithFilter(f Filter) Option {
	return func(g *Gateway) {
		g.filter = f
	}
}

// WithBufferSize bounds the run's event buffer and the line buffer.
func WithBufferSize(n int) Option {
	return func(g *Gateway) {
		if n > 0 {
			g.bufferSize = n
		}
	}
}

// WithObserver registers a callback for stream outcomes.
func WithObserver(o Observer) Option {
	return func(g *Gateway) {
		g.observer = o
	}
}

// New creates a Gateway over runner.
func New(runner Runner, opts ...Option) *Gateway {
	g := &Gateway{
		runner:     runner,
		bufferSize: graph.DefaultStreamConfig().BufferSize,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Answer runs question and returns its SSE lines. The channel is closed
// when the stream ends. Cancelling ctx stops the run; no further lines
// are produced and [DONE] is not sent.
func (g *Gateway) Answer(ctx context.Context, question string, config *graph.Config) <-chan string {
	out := make(chan string, g.bufferSize)

	go func() {
		defer close(out)
		start := time.Now()

		result := g.runner.Stream(ctx, question, config, graph.StreamConfig{
			BufferSize: g.bufferSize,
			Mode:       graph.StreamModeMessages,
		})
		defer result.Cancel()

		send := func(line string) bool {
			if ctx.Err() != nil {
				return false
			}
			select {
			case out <- line:
				return true
			case <-ctx.Done():
				return false
			}
		}

		for event := range result.Events {
			if event.Event != graph.EventToken || event.Chunk == "" || !g.filter.Allows(event.Namespace) {
				continue
			}
			if !send(FormatChunk(event.Chunk)) {
				result.Cancel()
				g.finish(OutcomeDisconnected, start)
				return
			}
		}

		_, err := result.Wait()
		if ctx.Err() != nil {
			g.finish(OutcomeDisconnected, start)
			return
		}

		outcome := OutcomeCompleted
		if err != nil {
			outcome = OutcomeFailed
			log.Error("stream failed: %v", err)
			if !send(FormatError(err)) {
				g.finish(OutcomeDisconnected, start)
				return
			}
		}
		if !send(Done) {
			outcome = OutcomeDisconnected
		}
		g.finish(outcome, start)
	}()

	return out
}

func (g *Gateway) finish(outcome Outcome, start time.Time) {
	elapsed := time.Since(start)
	log.Info("stream %s after %s", outcome, elapsed)
	if g.observer != nil {
		g.observer(outcome, elapsed)
	}
}

// FormatChunk renders a chunk as one data line per line of text.
func FormatChunk(chunk string) string {
	var sb strings.Builder
	for _, line := range strings.Split(chunk, "\n") {
		sb.WriteString("data: ")
		sb.WriteString(strings.TrimSuffix(line, "\r"))
		sb.WriteByte('\n')
	}
	return sb.String()
}

// FormatError renders the error sentinel. The message is kept on one line
// so it cannot break the event framing.
func FormatError(err error) string {
	msg := "unknown error"
	if err != nil {
		msg = strings.Join(strings.Fields(err.Error()), " ")
	}
	return "data: [Error] " + msg + "\n\n"
}
