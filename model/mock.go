package model

import (
	"context"
	"fmt"
	"sync"

	"github.com/hupe1980/agentgraph/core"
)

// DefaultMockCost is what MockBackend charges per call unless configured otherwise.
const DefaultMockCost = 0.0001

// MockBackend is a lightweight in-memory Backend useful for tests, examples and
// offline runs. Scripted responses are returned in order; once the script is
// exhausted it answers every prompt with "Mocked response for prompt: <prompt>".
type MockBackend struct {
	mu       sync.Mutex
	info     Info
	cost     *float64
	script   []*Response
	errs     []error
	requests []Request
	replies  map[string]string
}

// MockOptions configure a MockBackend.
type MockOptions struct {
	// Cost charged per call. nil reports the call as unpriced.
	Cost *float64
	Name string
}

// NewMockBackend constructs a MockBackend with tool support enabled.
func NewMockBackend(optFns ...func(o *MockOptions)) *MockBackend {
	opts := MockOptions{Cost: Float(DefaultMockCost), Name: "mock"}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &MockBackend{
		info:    Info{Name: opts.Name, Provider: "mock", SupportsTools: true},
		cost:    opts.Cost,
		replies: make(map[string]string),
	}
}

// AddResponse registers a deterministic canned completion for an input prompt.
func (m *MockBackend) AddResponse(prompt, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replies[prompt] = response
}

// Enqueue appends scripted responses. A nil Cost on a scripted response is kept
// as-is so tests can exercise the unpriced path.
func (m *MockBackend) Enqueue(responses ...*Response) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range responses {
		m.script = append(m.script, r)
		m.errs = append(m.errs, nil)
	}
}

// EnqueueError makes the next scripted call fail with err.
func (m *MockBackend) EnqueueError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, nil)
	m.errs = append(m.errs, err)
}

// Requests returns a copy of every request received so far.
func (m *MockBackend) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.requests))
	copy(out, m.requests)
	return out
}

// Complete implements Backend.
func (m *MockBackend) Complete(ctx context.Context, req Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, cloneRequest(req))

	if len(m.script) > 0 {
		resp, err := m.script[0], m.errs[0]
		m.script, m.errs = m.script[1:], m.errs[1:]
		if err != nil {
			return nil, err
		}
		out := *resp
		if out.Model == "" {
			out.Model = req.Model
		}
		if out.ID == "" {
			out.ID = core.NewID()
		}
		return &out, nil
	}

	prompt := lastUserContent(req.Messages)
	text, ok := m.replies[prompt]
	if !ok {
		text = fmt.Sprintf("Mocked response for prompt: %s", prompt)
	}
	resp := &Response{
		ID:           core.NewID(),
		Model:        req.Model,
		Message:      Message{Role: RoleAssistant, Content: text},
		FinishReason: "stop",
	}
	if m.cost != nil {
		resp.Cost = Float(*m.cost)
	}
	return resp, nil
}

// Info implements Backend.
func (m *MockBackend) Info() Info { return m.info }

func lastUserContent(msgs []Message) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == RoleUser {
			return msgs[i].Content
		}
	}
	return ""
}

func cloneRequest(req Request) Request {
	out := req
	out.Messages = append([]Message(nil), req.Messages...)
	return out
}
