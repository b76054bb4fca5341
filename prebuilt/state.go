package prebuilt

import (
	"github.com/smallnest/teamgraph/graph"
	"github.com/tmc/langchaingo/llms"
)

// Role identifies who produced a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one entry of the shared conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
	// Author names the worker or team that produced the message.
	Author string `json:"author,omitempty"`
}

// HumanMessage returns a user message.
func HumanMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// AuthoredMessage returns an assistant message attributed to author.
func AuthoredMessage(author, content string) Message {
	return Message{Role: RoleAssistant, Content: content, Author: author}
}

// MessagesState is the state shared by a supervisor and its members.
// Nodes only ever append to it.
type MessagesState struct {
	Messages []Message `json:"messages"`
}

// Last returns the most recent message.
func (s MessagesState) Last() (Message, bool) {
	if len(s.Messages) == 0 {
		return Message{}, false
	}
	return s.Messages[len(s.Messages)-1], true
}

// AppendMessages merges an update by appending its messages. The result
// never shares a backing array with current, so earlier holders of the
// state keep seeing the history they were given.
func AppendMessages(current, update MessagesState) (MessagesState, error) {
	merged := make([]Message, 0, len(current.Messages)+len(update.Messages))
	merged = append(merged, current.Messages...)
	merged = append(merged, update.Messages...)
	return MessagesState{Messages: merged}, nil
}

// MessagesSchema is the append-only schema for MessagesState.
func MessagesSchema() graph.StateSchema[MessagesState] {
	return graph.NewStructSchema(MessagesState{}, AppendMessages)
}

// toModelMessages renders the conversation for the model, prefixed by an
// optional system instruction. Authored messages become human turns
// carrying the author's name so the model can tell participants apart.
func toModelMessages(system string, messages []Message) []llms.MessageContent {
	out := make([]llms.MessageContent, 0, len(messages)+1)
	if system != "" {
		out = append(out, llms.TextParts(llms.ChatMessageTypeSystem, system))
	}
	for _, m := range messages {
		switch {
		case m.Author != "":
			out = append(out, llms.TextParts(llms.ChatMessageTypeHuman, m.Author+": "+m.Content))
		case m.Role == RoleAssistant:
			out = append(out, llms.TextParts(llms.ChatMessageTypeAI, m.Content))
		case m.Role == RoleTool:
			out = append(out, llms.TextParts(llms.ChatMessageTypeHuman, "tool result: "+m.Content))
		default:
			out = append(out, llms.TextParts(llms.ChatMessageTypeHuman, m.Content))
		}
	}
	return out
}
