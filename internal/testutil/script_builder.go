package testutil

import (
	"github.com/hupe1980/agentgraph/model"
)

// ScriptBuilder scripts a MockBackend with fluent chaining for tests.
// Example:
//
//	backend := NewScript().Respond(toolTurn, finalTurn).Fail(errBoom).Backend()
type ScriptBuilder struct {
	steps []func(m *model.MockBackend)
	opts  []func(o *model.MockOptions)
}

// NewScript creates an empty script.
func NewScript() *ScriptBuilder { return &ScriptBuilder{} }

// Respond appends scripted responses in order (chainable).
func (b *ScriptBuilder) Respond(resps ...*model.Response) *ScriptBuilder {
	b.steps = append(b.steps, func(m *model.MockBackend) { m.Enqueue(resps...) })
	return b
}

// Final appends a final answer with the given text and cost (chainable).
func (b *ScriptBuilder) Final(text string, cost float64) *ScriptBuilder {
	return b.Respond(NewResponseBuilder().Text(text).Cost(cost).Build())
}

// Fail appends a transport failure (chainable).
func (b *ScriptBuilder) Fail(err error) *ScriptBuilder {
	b.steps = append(b.steps, func(m *model.MockBackend) { m.EnqueueError(err) })
	return b
}

// Named sets the backend model name (chainable).
func (b *ScriptBuilder) Named(name string) *ScriptBuilder {
	b.opts = append(b.opts, func(o *model.MockOptions) { o.Name = name })
	return b
}

// Backend returns a MockBackend loaded with the script. Once the script is
// exhausted the backend falls back to its echo behaviour.
func (b *ScriptBuilder) Backend() *model.MockBackend {
	m := model.NewMockBackend(b.opts...)
	for _, step := range b.steps {
		step(m)
	}
	return m
}
