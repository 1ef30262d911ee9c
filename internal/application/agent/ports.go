package agent

import "context"

// ChatMessage is one turn of a chat-completions conversation
type ChatMessage struct {
	Role       string     `json:"role"`
	Content    string     `json:"content,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	Name       string     `json:"name,omitempty"`
}

// ToolCall is a model-requested tool invocation. Arguments is the raw JSON
// the model produced; DecodeToolCall turns it into a typed request.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolSpec advertises one callable tool to the model
type ToolSpec struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// ChatClient is the language-model gateway used by the optimization loop
type ChatClient interface {
	Complete(ctx context.Context, messages []ChatMessage, tools []ToolSpec) (*ChatMessage, error)
}
