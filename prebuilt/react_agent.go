package prebuilt

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/smallnest/teamgraph/graph"
	"github.com/smallnest/teamgraph/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/tools"
)

// ReactState is the scratch history of one worker turn.
type ReactState struct {
	Messages []llms.MessageContent `json:"messages"`
}

func appendReactMessages(current, update ReactState) (ReactState, error) {
	merged := make([]llms.MessageContent, 0, len(current.Messages)+len(update.Messages))
	merged = append(merged, current.Messages...)
	merged = append(merged, update.Messages...)
	return ReactState{Messages: merged}, nil
}

// SchemaTool is a tool that describes its JSON arguments. The tool
// receives the raw JSON arguments as its input string.
type SchemaTool interface {
	tools.Tool
	Parameters() map[string]any
}

// ToolInvocation is a request to run a named tool.
type ToolInvocation struct {
	Tool      string
	ToolInput string
}

// ToolExecutor runs tools by name.
type ToolExecutor struct {
	tools map[string]tools.Tool
	order []tools.Tool
}

// NewToolExecutor creates an executor over the given tools.
func NewToolExecutor(inputTools []tools.Tool) *ToolExecutor {
	te := &ToolExecutor{tools: make(map[string]tools.Tool, len(inputTools))}
	for _, t := range inputTools {
		if _, dup := te.tools[t.Name()]; !dup {
			te.order = append(te.order, t)
		}
		te.tools[t.Name()] = t
	}
	return te
}

// Execute runs a tool and reports it to the run's callbacks. A panicking
// tool is reported as an error.
func (te *ToolExecutor) Execute(ctx context.Context, invocation ToolInvocation) (result string, err error) {
	t, ok := te.tools[invocation.Tool]
	if !ok {
		return "", fmt.Errorf("tool %s not found", invocation.Tool)
	}

	graph.NotifyToolStart(ctx, invocation.Tool, invocation.ToolInput)
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("tool %s panicked: %v", invocation.Tool, p)
		}
		if err != nil {
			graph.NotifyToolError(ctx, invocation.Tool, err)
			return
		}
		graph.NotifyToolEnd(ctx, invocation.Tool, result)
	}()

	return t.Call(ctx, invocation.ToolInput)
}

// Definitions describes the tools to the model. Tools without a schema take
// a single string argument named input.
func (te *ToolExecutor) Definitions() []llms.Tool {
	defs := make([]llms.Tool, 0, len(te.order))
	for _, t := range te.order {
		params := map[string]any{
			"type": "object",
			"properties": map[string]any{
				"input": map[string]any{
					"type":        "string",
					"description": "The input query for the tool",
				},
			},
			"required":             []string{"input"},
			"additionalProperties": false,
		}
		if st, ok := t.(SchemaTool); ok {
			params = st.Parameters()
		}
		defs = append(defs, llms.Tool{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  params,
			},
		})
	}
	return defs
}

// input extracts the string a tool is called with from the model's arguments.
func (te *ToolExecutor) input(call llms.ToolCall) string {
	if _, ok := te.tools[call.FunctionCall.Name].(SchemaTool); ok {
		return call.FunctionCall.Arguments
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(call.FunctionCall.Arguments), &args); err == nil {
		if v, ok := args["input"].(string); ok {
			return v
		}
	}
	return call.FunctionCall.Arguments
}

// CreateReactAgent builds the think/act loop of a worker: an "agent" node
// that calls the model with the tool definitions and a "tools" node that
// runs the requested tools. The loop ends when the model answers without
// tool calls. Each pass spends the run's recursion budget.
func CreateReactAgent(model llms.Model, inputTools []tools.Tool) (*graph.StateRunnable[ReactState], error) {
	executor := NewToolExecutor(inputTools)

	workflow := graph.NewStateGraph[ReactState]()
	workflow.SetSchema(graph.NewStructSchema(ReactState{}, appendReactMessages))

	workflow.AddNode("agent", "ReAct agent decision maker", func(ctx context.Context, state ReactState) (ReactState, error) {
		var opts []llms.CallOption
		if defs := executor.Definitions(); len(defs) > 0 {
			opts = append(opts, llms.WithTools(defs))
		}
		if graph.StreamingEnabled(ctx) {
			opts = append(opts, llms.WithStreamingFunc(func(_ context.Context, chunk []byte) error {
				if !isToolCallChunk(chunk) {
					graph.EmitMessage(ctx, string(chunk))
				}
				return nil
			}))
		}

		resp, err := model.GenerateContent(ctx, state.Messages, opts...)
		if err != nil {
			return ReactState{}, err
		}
		if resp == nil || len(resp.Choices) == 0 {
			return ReactState{}, errors.New("model returned no choices")
		}
		choice := resp.Choices[0]

		aiMsg := llms.MessageContent{Role: llms.ChatMessageTypeAI}
		if choice.Content != "" {
			aiMsg.Parts = append(aiMsg.Parts, llms.TextPart(choice.Content))
		}
		for _, tc := range choice.ToolCalls {
			aiMsg.Parts = append(aiMsg.Parts, tc)
		}

		return ReactState{Messages: []llms.MessageContent{aiMsg}}, nil
	})

	workflow.AddNode("tools", "Tool execution node", func(ctx context.Context, state ReactState) (ReactState, error) {
		last := state.Messages[len(state.Messages)-1]

		var toolMessages []llms.MessageContent
		for _, call := range toolCalls(last) {
			res, err := executor.Execute(ctx, ToolInvocation{
				Tool:      call.FunctionCall.Name,
				ToolInput: executor.input(call),
			})
			if err != nil {
				log.Warn("tool %s failed in %s: %v", call.FunctionCall.Name, graph.Namespace(ctx), err)
				res = fmt.Sprintf("Error: %v", err)
			}

			toolMessages = append(toolMessages, llms.MessageContent{
				Role: llms.ChatMessageTypeTool,
				Parts: []llms.ContentPart{
					llms.ToolCallResponse{
						ToolCallID: call.ID,
						Name:       call.FunctionCall.Name,
						Content:    res,
					},
				},
			})
		}

		return ReactState{Messages: toolMessages}, nil
	})

	workflow.SetEntryPoint("agent")
	workflow.AddConditionalEdge("agent", func(ctx context.Context, state ReactState) string {
		if len(toolCalls(state.Messages[len(state.Messages)-1])) > 0 {
			return "tools"
		}
		return graph.END
	})
	workflow.AddEdge("tools", "agent")

	return workflow.Compile()
}

func toolCalls(msg llms.MessageContent) []llms.ToolCall {
	var calls []llms.ToolCall
	for _, part := range msg.Parts {
		if tc, ok := part.(llms.ToolCall); ok && tc.FunctionCall != nil {
			calls = append(calls, tc)
		}
	}
	return calls
}

// finalText returns the text of the last AI message.
func finalText(messages []llms.MessageContent) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role != llms.ChatMessageTypeAI {
			continue
		}
		var sb strings.Builder
		for _, part := range messages[i].Parts {
			if text, ok := part.(llms.TextContent); ok {
				sb.WriteString(text.Text)
			}
		}
		return sb.String()
	}
	return ""
}

// isToolCallChunk reports whether a streamed chunk carries serialized tool
// call deltas rather than text. Some providers pass those through the same
// streaming callback.
func isToolCallChunk(chunk []byte) bool {
	trimmed := bytes.TrimSpace(chunk)
	if !bytes.HasPrefix(trimmed, []byte("[{")) && !bytes.HasPrefix(trimmed, []byte("{\"")) {
		return false
	}
	return bytes.Contains(trimmed, []byte(`"function"`)) || bytes.Contains(trimmed, []byte(`"arguments"`))
}
