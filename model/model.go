package model

import (
	"context"

	"github.com/hupe1980/agentgraph/tool"
)

// Role identifies the author of a conversation message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall is a tool invocation requested by the model.
// Arguments holds the raw JSON object text exactly as the model produced it.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Message is one entry of a conversation.
type Message struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"` // set on RoleTool messages
}

// UserMessage builds a user message.
func UserMessage(content string) Message { return Message{Role: RoleUser, Content: content} }

// ToolResultMessage builds the message answering the tool call with the given id.
func ToolResultMessage(id, content string) Message {
	return Message{Role: RoleTool, Content: content, ToolCallID: id}
}

// Request captures the normalized model input.
type Request struct {
	Model    string        `json:"model"`
	Messages []Message     `json:"messages"`
	Tools    []tool.Schema `json:"tools,omitempty"`
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is the assistant turn returned by a backend.
type Response struct {
	ID           string      `json:"id"`
	Model        string      `json:"model"`
	Message      Message     `json:"message"`
	FinishReason string      `json:"finish_reason"` // "stop", "length", "tool_calls", etc.
	Usage        *TokenUsage `json:"usage,omitempty"`
	// Cost is the monetary cost of this single call. nil means the backend
	// could not price it.
	Cost *float64 `json:"cost,omitempty"`
}

// Info contains metadata about a backend implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"` // "openai", "anthropic", "mock", etc.
	SupportsTools bool   `json:"supports_tools"`
}

// Backend is the minimal interface a model provider must implement.
// Complete blocks until the provider answers or ctx is done.
type Backend interface {
	Complete(ctx context.Context, req Request) (*Response, error)

	// Info returns information about the backend implementation.
	Info() Info
}

// Float returns a pointer to v, handy for populating Response.Cost.
func Float(v float64) *float64 { return &v }
