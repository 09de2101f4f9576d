package model

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockBackendEcho(t *testing.T) {
	m := NewMockBackend()

	resp, err := m.Complete(context.Background(), Request{
		Model:    "gpt-4o",
		Messages: []Message{UserMessage("Hello")},
	})
	require.NoError(t, err)
	assert.Equal(t, "Mocked response for prompt: Hello", resp.Message.Content)
	assert.Equal(t, RoleAssistant, resp.Message.Role)
	assert.Equal(t, "gpt-4o", resp.Model)
	require.NotNil(t, resp.Cost)
	assert.Equal(t, DefaultMockCost, *resp.Cost)
	assert.Len(t, m.Requests(), 1)
}

func TestMockBackendCannedAndUnpriced(t *testing.T) {
	m := NewMockBackend(func(o *MockOptions) { o.Cost = nil })
	m.AddResponse("ping", "pong")

	resp, err := m.Complete(context.Background(), Request{Messages: []Message{UserMessage("ping")}})
	require.NoError(t, err)
	assert.Equal(t, "pong", resp.Message.Content)
	assert.Nil(t, resp.Cost)
}

func TestMockBackendScript(t *testing.T) {
	m := NewMockBackend()
	boom := errors.New("boom")
	m.Enqueue(&Response{Message: Message{Role: RoleAssistant, Content: "first"}, Cost: Float(0.5)})
	m.EnqueueError(boom)

	resp, err := m.Complete(context.Background(), Request{Model: "x"})
	require.NoError(t, err)
	assert.Equal(t, "first", resp.Message.Content)
	assert.Equal(t, "x", resp.Model)
	assert.NotEmpty(t, resp.ID)

	_, err = m.Complete(context.Background(), Request{Model: "x"})
	assert.ErrorIs(t, err, boom)

	resp, err = m.Complete(context.Background(), Request{Model: "x", Messages: []Message{UserMessage("after")}})
	require.NoError(t, err)
	assert.Equal(t, "Mocked response for prompt: after", resp.Message.Content)
}

func TestMockBackendCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewMockBackend().Complete(ctx, Request{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPricingCost(t *testing.T) {
	p := NewPricing(map[string]Price{"m": {InputPer1M: 1, OutputPer1M: 2}})

	cost := p.Cost("m", &TokenUsage{PromptTokens: 500_000, CompletionTokens: 250_000})
	require.NotNil(t, cost)
	assert.Equal(t, 1.0, *cost)

	assert.Nil(t, p.Cost("unknown", &TokenUsage{PromptTokens: 1}))
	assert.Nil(t, p.Cost("m", nil))

	var nilPricing *Pricing
	assert.Nil(t, nilPricing.Cost("m", &TokenUsage{}))
}

func TestParsePrice(t *testing.T) {
	name, price, err := ParsePrice("gpt-4o:2.5,10")
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", name)
	assert.Equal(t, Price{InputPer1M: 2.5, OutputPer1M: 10}, price)

	for _, bad := range []string{"gpt-4o", ":1,2", "m:1", "m:x,2", "m:1,y", "m:-1,2"} {
		_, _, err := ParsePrice(bad)
		assert.Error(t, err, bad)
	}
}
