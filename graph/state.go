package graph

import (
	"strings"
	"sync"

	"github.com/hupe1980/agentgraph/agent"
)

// Position is where a state sits on an editor canvas. It has no effect on execution.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// GuardInput is what a guard sees when deciding whether to take a connection.
type GuardInput struct {
	From     *ExecutionState
	To       *ExecutionState
	Response string // the response just produced by From
	Step     int    // 1-based number of the state execution that just finished
}

// Guard decides whether a connection is taken.
type Guard func(in GuardInput) bool

// Always is the default guard.
func Always(GuardInput) bool { return true }

// Never blocks a connection.
func Never(GuardInput) bool { return false }

// ResponseContains takes the connection when the response contains sub, ignoring case.
func ResponseContains(sub string) Guard {
	sub = strings.ToLower(sub)
	return func(in GuardInput) bool { return strings.Contains(strings.ToLower(in.Response), sub) }
}

// StepsBelow takes the connection while fewer than n state executions have run.
// It bounds review loops without a graph-wide step budget.
func StepsBelow(n int) Guard {
	return func(in GuardInput) bool { return in.Step < n }
}

// Connection is a directed, guarded edge.
type Connection struct {
	From        *ExecutionState
	To          *ExecutionState
	PassContext bool
	Guard       Guard

	explicitPass bool
}

// PassContextSet reports whether PassContext was set explicitly rather than defaulted.
func (c Connection) PassContextSet() bool { return c.explicitPass }

// TransitionOption configures a connection.
type TransitionOption func(c *Connection)

// WithPassContext sets the connection's own context forwarding flag.
func WithPassContext(pass bool) TransitionOption {
	return func(c *Connection) {
		c.PassContext = pass
		c.explicitPass = true
	}
}

// WithGuard sets the connection's guard. nil keeps Always.
func WithGuard(g Guard) TransitionOption {
	return func(c *Connection) {
		if g != nil {
			c.Guard = g
		}
	}
}

// ExecutionState places one agent in a graph.
type ExecutionState struct {
	agent *agent.Agent

	mu           sync.RWMutex
	graph        *StateGraph
	position     Position
	inbound      *string
	lastResponse *string
	connections  []*Connection
}

// NewState wraps a into a state at the canvas origin.
func NewState(a *agent.Agent) *ExecutionState {
	return &ExecutionState{agent: a}
}

// NewStateAt wraps a into a state at pos.
func NewStateAt(a *agent.Agent, pos Position) *ExecutionState {
	return &ExecutionState{agent: a, position: pos}
}

// Name is the agent's name, the state's key inside a graph.
func (s *ExecutionState) Name() string { return s.agent.Name() }

// Agent returns the wrapped agent.
func (s *ExecutionState) Agent() *agent.Agent { return s.agent }

// Position returns the canvas position.
func (s *ExecutionState) Position() Position {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.position
}

// SetPosition moves the state on the canvas.
func (s *ExecutionState) SetPosition(p Position) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.position = p
}

// InboundContext returns the context the state was (or will be) executed with.
func (s *ExecutionState) InboundContext() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.inbound == nil {
		return "", false
	}
	return *s.inbound, true
}

// LastResponse returns the response of the state's latest execution.
func (s *ExecutionState) LastResponse() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastResponse == nil {
		return "", false
	}
	return *s.lastResponse, true
}

// Connections returns copies of the outgoing connections in insertion order.
func (s *ExecutionState) Connections() []Connection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Connection, len(s.connections))
	for i, c := range s.connections {
		out[i] = *c
	}
	return out
}

func (s *ExecutionState) setInbound(ctx *string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ctx == nil {
		s.inbound = nil
		return
	}
	v := *ctx
	s.inbound = &v
}

func (s *ExecutionState) inboundPtr() *string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.inbound == nil {
		return nil
	}
	v := *s.inbound
	return &v
}

func (s *ExecutionState) setLastResponse(r string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastResponse = &r
}

func (s *ExecutionState) owner() *StateGraph {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.graph
}
