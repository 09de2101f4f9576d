package anthropic

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/hupe1980/agentgraph/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompleteToolUse(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"id": "msg_1",
			"type": "message",
			"role": "assistant",
			"model": "claude-3-5-haiku-latest",
			"stop_reason": "tool_use",
			"content": [
				{"type": "text", "text": "Let me check."},
				{"type": "tool_use", "id": "toolu_1", "name": "get_current_time", "input": {"location": "Tokyo"}}
			],
			"usage": {"input_tokens": 1000000, "output_tokens": 0}
		}`)
	}))
	defer srv.Close()

	client := anthropic.NewClient(option.WithBaseURL(srv.URL), option.WithAPIKey("test"), option.WithMaxRetries(0))
	b := NewFromClient(&client)

	resp, err := b.Complete(context.Background(), model.Request{
		Messages: []model.Message{{Role: model.RoleSystem, Content: "be brief"}, model.UserMessage("time?")},
	})
	require.NoError(t, err)
	assert.Equal(t, "Let me check.", resp.Message.Content)
	require.Len(t, resp.Message.ToolCalls, 1)
	assert.Equal(t, "get_current_time", resp.Message.ToolCalls[0].Name)
	assert.JSONEq(t, `{"location":"Tokyo"}`, resp.Message.ToolCalls[0].Arguments)
	assert.Equal(t, "tool_use", resp.FinishReason)
	require.NotNil(t, resp.Cost)
	assert.InDelta(t, 0.8, *resp.Cost, 1e-9)
	assert.Contains(t, body, "system")
}

func TestBuildMessagesToolResultsInUserTurn(t *testing.T) {
	msgs := buildMessages([]model.Message{
		{Role: model.RoleSystem, Content: "sys"},
		model.UserMessage("q"),
		{Role: model.RoleAssistant, ToolCalls: []model.ToolCall{{ID: "a", Name: "t", Arguments: "{}"}, {ID: "b", Name: "t", Arguments: "{}"}}},
		model.ToolResultMessage("a", "1"),
		model.ToolResultMessage("b", "2"),
	})
	require.Len(t, msgs, 3)
	assert.Equal(t, anthropic.MessageParamRoleUser, msgs[0].Role)
	assert.Equal(t, anthropic.MessageParamRoleAssistant, msgs[1].Role)
	assert.Equal(t, anthropic.MessageParamRoleUser, msgs[2].Role)
	assert.Len(t, msgs[2].Content, 2)
	assert.NotNil(t, msgs[2].Content[0].OfToolResult)
}
