// Package llmtest provides a scripted llms.Model for tests.
package llmtest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/tmc/langchaingo/llms"
)

// Reply is one scripted model answer.
type Reply struct {
	Response *llms.ContentResponse
	Err      error
}

// Call records one GenerateContent call.
type Call struct {
	Messages []llms.MessageContent
	Options  llms.CallOptions
}

// Model answers GenerateContent calls from a queue of replies. When a
// streaming func is set, reply content is streamed word by word first.
type Model struct {
	mu      sync.Mutex
	replies []Reply
	calls   []Call

	// Fallback answers calls once the queue is empty. Nil means an error.
	Fallback func(call Call) Reply
}

// NewModel creates a model that answers with replies in order.
func NewModel(replies ...Reply) *Model {
	return &Model{replies: replies}
}

// Push appends replies to the queue.
func (m *Model) Push(replies ...Reply) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replies = append(m.replies, replies...)
}

// Calls returns the calls received so far.
func (m *Model) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Call(nil), m.calls...)
}

// GenerateContent implements llms.Model.
func (m *Model) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	var opts llms.CallOptions
	for _, o := range options {
		o(&opts)
	}
	call := Call{Messages: messages, Options: opts}

	m.mu.Lock()
	m.calls = append(m.calls, call)
	var reply Reply
	switch {
	case len(m.replies) > 0:
		reply = m.replies[0]
		m.replies = m.replies[1:]
	case m.Fallback != nil:
		reply = m.Fallback(call)
	default:
		reply = Reply{Err: fmt.Errorf("llmtest: no reply scripted for call %d", len(m.calls))}
	}
	m.mu.Unlock()

	if reply.Err != nil {
		return nil, reply.Err
	}
	if opts.StreamingFunc != nil && len(reply.Response.Choices) > 0 {
		choice := reply.Response.Choices[0]
		for _, word := range splitWords(choice.Content) {
			if err := opts.StreamingFunc(ctx, []byte(word)); err != nil {
				return nil, err
			}
		}
		if len(choice.ToolCalls) > 0 {
			deltas := make([]map[string]any, 0, len(choice.ToolCalls))
			for _, tc := range choice.ToolCalls {
				deltas = append(deltas, map[string]any{
					"id":   tc.ID,
					"type": "function",
					"function": map[string]string{
						"name":      tc.FunctionCall.Name,
						"arguments": tc.FunctionCall.Arguments,
					},
				})
			}
			raw, _ := json.Marshal(deltas)
			if err := opts.StreamingFunc(ctx, raw); err != nil {
				return nil, err
			}
		}
	}
	return reply.Response, nil
}

// Call implements llms.Model.
func (m *Model) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

// splitWords keeps the separating spaces so the words join back to s.
func splitWords(s string) []string {
	if s == "" {
		return nil
	}
	var words []string
	for _, w := range strings.SplitAfter(s, " ") {
		if w != "" {
			words = append(words, w)
		}
	}
	return words
}

// Text is a reply with plain content.
func Text(content string) Reply {
	return Reply{Response: &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: content}},
	}}
}

// Route is a supervisor reply choosing next.
func Route(next string) Reply {
	return ToolCall("route", fmt.Sprintf(`{"next":%q}`, next))
}

// ToolCall is a reply requesting one tool call with raw JSON arguments.
func ToolCall(name, arguments string) Reply {
	return Reply{Response: &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{
			ToolCalls: []llms.ToolCall{{
				ID:   "call_" + name,
				Type: "function",
				FunctionCall: &llms.FunctionCall{
					Name:      name,
					Arguments: arguments,
				},
			}},
		}},
	}}
}

// Fail is a reply that makes GenerateContent return err.
func Fail(err error) Reply {
	return Reply{Err: err}
}

// LastText returns the text of the last message of a call.
func (c Call) LastText() string {
	if len(c.Messages) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, part := range c.Messages[len(c.Messages)-1].Parts {
		switch p := part.(type) {
		case llms.TextContent:
			sb.WriteString(p.Text)
		case llms.ToolCallResponse:
			sb.WriteString(p.Content)
		}
	}
	return sb.String()
}

// SystemText returns the system instruction of a call, if any.
func (c Call) SystemText() string {
	if len(c.Messages) == 0 || c.Messages[0].Role != llms.ChatMessageTypeSystem {
		return ""
	}
	if text, ok := c.Messages[0].Parts[0].(llms.TextContent); ok {
		return text.Text
	}
	return ""
}
