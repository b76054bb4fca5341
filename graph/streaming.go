package graph

import (
	"context"
	"sync"
	"time"
)

// StreamMode defines the mode of streaming
type StreamMode string

const (
	// StreamModeValues emits the full state after each step
	StreamModeValues StreamMode = "values"
	// StreamModeUpdates emits node completions
	StreamModeUpdates StreamMode = "updates"
	// StreamModeMessages emits model output chunks
	StreamModeMessages StreamMode = "messages"
	// StreamModeDebug emits all events
	StreamModeDebug StreamMode = "debug"
)

// StreamConfig configures streaming behavior
type StreamConfig struct {
	// BufferSize is the size of the event channel buffer
	BufferSize int

	// Mode specifies what kind of events to stream
	Mode StreamMode
}

// DefaultStreamConfig returns the default streaming configuration
func DefaultStreamConfig() StreamConfig {
	return StreamConfig{
		BufferSize: 64,
		Mode:       StreamModeMessages,
	}
}

// StreamResult contains the channels returned by streaming execution.
//
// Events is closed once the run has finished. A consumer that stops reading
// early must call Cancel, which unblocks the producer and aborts the run at
// its next transition.
type StreamResult[S any] struct {
	// Events receives events as they happen
	Events <-chan StreamEvent

	// Cancel stops the run
	Cancel context.CancelFunc

	done   chan struct{}
	result S
	err    error
}

// Wait blocks until the run has finished and returns its final state.
func (sr *StreamResult[S]) Wait() (S, error) {
	<-sr.done
	return sr.result, sr.err
}

// streamingListener turns node events and message chunks into StreamEvents
type streamingListener struct {
	ctx    context.Context
	events chan<- StreamEvent
	mode   StreamMode

	mu     sync.RWMutex
	closed bool
}

func (sl *streamingListener) OnNodeEvent(ctx context.Context, event NodeEvent, nodeName string, state any, err error) {
	if !sl.shouldEmit(event) {
		return
	}
	sl.emit(StreamEvent{
		Timestamp: time.Now(),
		Namespace: Namespace(ctx),
		NodeName:  nodeName,
		Event:     event,
		State:     state,
		Error:     err,
	})
}

func (sl *streamingListener) onMessage(_ context.Context, chunk MessageChunk) {
	if !sl.shouldEmit(EventToken) {
		return
	}
	sl.emit(StreamEvent{
		Timestamp: time.Now(),
		Namespace: chunk.Namespace,
		NodeName:  chunk.Node,
		Event:     EventToken,
		Chunk:     chunk.Content,
	})
}

func (sl *streamingListener) emit(event StreamEvent) {
	sl.mu.RLock()
	defer sl.mu.RUnlock()
	if sl.closed {
		return
	}
	select {
	case sl.events <- event:
	case <-sl.ctx.Done():
	}
}

func (sl *streamingListener) shouldEmit(event NodeEvent) bool {
	switch sl.mode {
	case StreamModeDebug:
		return true
	case StreamModeValues:
		return event == EventGraphStep
	case StreamModeUpdates:
		return event == NodeEventComplete || event == NodeEventError
	case StreamModeMessages:
		return event == EventToken
	default:
		return false
	}
}

func (sl *streamingListener) close() {
	sl.mu.Lock()
	sl.closed = true
	sl.mu.Unlock()
}

// Stream executes the graph in a goroutine and streams events through a
// bounded channel. Sends block while the buffer is full until the consumer
// reads or the run is cancelled.
func (r *StateRunnable[S]) Stream(ctx context.Context, initialState S, config *Config, streamConfig StreamConfig) *StreamResult[S] {
	if streamConfig.BufferSize <= 0 {
		streamConfig.BufferSize = DefaultStreamConfig().BufferSize
	}
	if streamConfig.Mode == "" {
		streamConfig.Mode = DefaultStreamConfig().Mode
	}

	ctx, cancel := context.WithCancel(ctx)
	events := make(chan StreamEvent, streamConfig.BufferSize)
	listener := &streamingListener{ctx: ctx, events: events, mode: streamConfig.Mode}

	runConfig := Config{}
	if config != nil {
		runConfig = *config
	}
	runConfig.Listeners = append(append([]NodeListener{}, runConfig.Listeners...), listener)

	result := &StreamResult[S]{
		Events: events,
		Cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		defer close(result.done)
		defer close(events)
		defer listener.close()

		runCtx := WithMessageSink(ctx, listener.onMessage)
		result.result, result.err = r.InvokeWithConfig(runCtx, initialState, &runConfig)
	}()

	return result
}
