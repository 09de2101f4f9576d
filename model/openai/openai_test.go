package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hupe1980/agentgraph/model"
	"github.com/hupe1980/agentgraph/tool"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBackend(t *testing.T, handler http.HandlerFunc, optFns ...func(o *Options)) *Backend {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := openai.NewClient(option.WithBaseURL(srv.URL), option.WithAPIKey("test"), option.WithMaxRetries(0))
	return NewFromClient(&client, optFns...)
}

func TestCompleteToolCall(t *testing.T) {
	var body map[string]any
	b := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1,
			"model": "gpt-4o-mini",
			"choices": [{
				"index": 0,
				"finish_reason": "tool_calls",
				"message": {
					"role": "assistant",
					"content": "",
					"tool_calls": [{"id": "call_1", "type": "function", "function": {"name": "get_current_weather", "arguments": "{\"location\":\"Boston\"}"}}]
				}
			}],
			"usage": {"prompt_tokens": 1000000, "completion_tokens": 0, "total_tokens": 1000000}
		}`)
	})

	resp, err := b.Complete(context.Background(), model.Request{
		Messages: []model.Message{model.UserMessage("weather?")},
		Tools: []tool.Schema{{
			Name:        "get_current_weather",
			Description: "weather",
			Parameters:  tool.ParameterSchema{Type: "object", Properties: map[string]tool.Property{"location": {Type: "string"}}, Required: []string{"location"}},
		}},
	})
	require.NoError(t, err)
	require.Len(t, resp.Message.ToolCalls, 1)
	assert.Equal(t, "call_1", resp.Message.ToolCalls[0].ID)
	assert.Equal(t, `{"location":"Boston"}`, resp.Message.ToolCalls[0].Arguments)
	require.NotNil(t, resp.Cost)
	assert.InDelta(t, 0.15, *resp.Cost, 1e-9)
	assert.Contains(t, body, "tools")
}

func TestCompleteUnpricedModel(t *testing.T) {
	b := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"x","object":"chat.completion","created":1,"model":"custom",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"hi"}}],
			"usage":{"prompt_tokens":3,"completion_tokens":1,"total_tokens":4}}`)
	}, func(o *Options) { o.Model = "custom" })

	resp, err := b.Complete(context.Background(), model.Request{Messages: []model.Message{model.UserMessage("hi")}})
	require.NoError(t, err)
	assert.Equal(t, "hi", resp.Message.Content)
	assert.Nil(t, resp.Cost)
	assert.Equal(t, 4, resp.Usage.TotalTokens)
}

func TestCompleteServerError(t *testing.T) {
	b := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	_, err := b.Complete(context.Background(), model.Request{Messages: []model.Message{model.UserMessage("hi")}})
	assert.Error(t, err)
}

func TestBuildMessages(t *testing.T) {
	msgs := buildMessages([]model.Message{
		{Role: model.RoleSystem, Content: "sys"},
		model.UserMessage("q"),
		{Role: model.RoleAssistant, ToolCalls: []model.ToolCall{{ID: "c1", Name: "t", Arguments: "{}"}}},
		model.ToolResultMessage("c1", "result"),
	})
	require.Len(t, msgs, 4)
	assert.NotNil(t, msgs[0].OfSystem)
	assert.NotNil(t, msgs[1].OfUser)
	require.NotNil(t, msgs[2].OfAssistant)
	assert.Len(t, msgs[2].OfAssistant.ToolCalls, 1)
	require.NotNil(t, msgs[3].OfTool)
	assert.Equal(t, "c1", msgs[3].OfTool.ToolCallID)
}
