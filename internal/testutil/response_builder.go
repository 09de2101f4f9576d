package testutil

import (
	"fmt"

	"github.com/hupe1980/agentgraph/model"
)

// ResponseBuilder provides a fluent helper for constructing model responses in tests.
// Example:
//
//	resp := NewResponseBuilder().ToolCall("get_time", `{"location":"Tokyo"}`).Cost(0.25).Build()
//
// Chain only the parts you need; a priced final answer is the default.
type ResponseBuilder struct {
	text      string
	toolCalls []model.ToolCall
	cost      *float64
	model     string
	usage     *model.TokenUsage
}

// NewResponseBuilder creates a builder for a zero-cost final answer.
func NewResponseBuilder() *ResponseBuilder { return &ResponseBuilder{cost: model.Float(0)} }

// Text sets the assistant message content (chainable).
func (b *ResponseBuilder) Text(t string) *ResponseBuilder { b.text = t; return b }

// ToolCall appends a tool call with a generated id and the raw JSON argument string (chainable).
func (b *ResponseBuilder) ToolCall(name, args string) *ResponseBuilder {
	id := fmt.Sprintf("call_%d", len(b.toolCalls)+1)
	b.toolCalls = append(b.toolCalls, model.ToolCall{ID: id, Name: name, Arguments: args})
	return b
}

// Cost sets the priced cost of the response (chainable).
func (b *ResponseBuilder) Cost(c float64) *ResponseBuilder { b.cost = model.Float(c); return b }

// Unpriced marks the response as carrying no cost information (chainable).
func (b *ResponseBuilder) Unpriced() *ResponseBuilder { b.cost = nil; return b }

// Model sets the model identifier reported by the response (chainable).
func (b *ResponseBuilder) Model(m string) *ResponseBuilder { b.model = m; return b }

// Usage sets token usage (chainable).
func (b *ResponseBuilder) Usage(prompt, completion int) *ResponseBuilder {
	b.usage = &model.TokenUsage{PromptTokens: prompt, CompletionTokens: completion, TotalTokens: prompt + completion}
	return b
}

// Build returns the response.
func (b *ResponseBuilder) Build() *model.Response {
	finish := "stop"
	if len(b.toolCalls) > 0 {
		finish = "tool_calls"
	}
	resp := &model.Response{
		Model: b.model,
		Message: model.Message{
			Role:      model.RoleAssistant,
			Content:   b.text,
			ToolCalls: append([]model.ToolCall(nil), b.toolCalls...),
		},
		FinishReason: finish,
		Usage:        b.usage,
	}
	if b.cost != nil {
		resp.Cost = model.Float(*b.cost)
	}
	return resp
}
