package graph

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/hupe1980/agentgraph/core"
	"github.com/hupe1980/agentgraph/logging"
)

// Precedence selects how a connection's own pass_context flag and the graph's
// override map combine.
type Precedence int

const (
	// OverrideFirst uses the override when one exists, else the edge flag.
	OverrideFirst Precedence = iota
	// EdgeFirst uses the edge flag when it was set explicitly, else the override.
	EdgeFirst
)

func (p Precedence) String() string {
	switch p {
	case EdgeFirst:
		return "edge_first"
	default:
		return "override_first"
	}
}

// ParsePrecedence parses "override_first" or "edge_first". Empty means OverrideFirst.
func ParsePrecedence(s string) (Precedence, error) {
	switch s {
	case "", "override_first":
		return OverrideFirst, nil
	case "edge_first":
		return EdgeFirst, nil
	}
	return OverrideFirst, fmt.Errorf("unknown context precedence %q", s)
}

// ContextFormatter renders the context forwarded from one state to the next.
type ContextFormatter func(from, response string) string

// DefaultFormatContext produces "<name> response: <response>".
func DefaultFormatContext(from, response string) string {
	return fmt.Sprintf("%s response: %s", from, response)
}

// Options configure a StateGraph.
type Options struct {
	Sink   EventSink
	Logger logging.Logger
	// MaxSteps bounds state executions per Run. 0 means unbounded, so a cycle
	// whose guards always match runs until ctx is done.
	MaxSteps      int
	Precedence    Precedence
	FormatContext ContextFormatter
}

// StateGraph is a directed graph of execution states with a current pointer.
//
// Building a graph (AddState, AddTransition, SetContextPassing) is safe for
// concurrent use. One graph runs one Run at a time; a second concurrent Run
// fails with core.ErrIllegalState.
type StateGraph struct {
	opts Options

	mu        sync.RWMutex
	states    map[string]*ExecutionState
	order     []string
	current   *ExecutionState
	overrides map[string]map[string]bool

	running atomic.Bool
}

// New creates an empty graph.
func New(optFns ...func(o *Options)) *StateGraph {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Sink == nil {
		opts.Sink = NopSink{}
	}
	opts.Logger = logging.OrNoOp(opts.Logger)
	if opts.FormatContext == nil {
		opts.FormatContext = DefaultFormatContext
	}
	return &StateGraph{
		opts:      opts,
		states:    make(map[string]*ExecutionState),
		overrides: make(map[string]map[string]bool),
	}
}

// Precedence returns the configured context precedence.
func (g *StateGraph) Precedence() Precedence { return g.opts.Precedence }

// AddState registers s. Adding the same state twice is a no-op; adding a
// different state under a registered name, or a state owned by another
// graph, fails with core.ErrIllegalState.
func (g *StateGraph) AddState(s *ExecutionState) error {
	if s == nil || s.agent == nil {
		return fmt.Errorf("nil state: %w", core.ErrIllegalState)
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	if existing, ok := g.states[s.Name()]; ok {
		if existing == s {
			return nil
		}
		return fmt.Errorf("state %q already registered: %w", s.Name(), core.ErrIllegalState)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.graph != nil && s.graph != g {
		return fmt.Errorf("state %q belongs to another graph: %w", s.Name(), core.ErrIllegalState)
	}
	s.graph = g

	g.states[s.Name()] = s
	g.order = append(g.order, s.Name())
	return nil
}

// AddTransition appends a connection from -> to. Both states must be registered
// in this graph.
func (g *StateGraph) AddTransition(from, to *ExecutionState, opts ...TransitionOption) (Connection, error) {
	if err := g.checkRegistered(from); err != nil {
		return Connection{}, err
	}
	if err := g.checkRegistered(to); err != nil {
		return Connection{}, err
	}

	c := &Connection{From: from, To: to, Guard: Always}
	for _, o := range opts {
		o(c)
	}

	from.mu.Lock()
	from.connections = append(from.connections, c)
	from.mu.Unlock()
	return *c, nil
}

func (g *StateGraph) checkRegistered(s *ExecutionState) error {
	if s == nil {
		return fmt.Errorf("nil state: %w", core.ErrIllegalState)
	}
	g.mu.RLock()
	registered := g.states[s.Name()] == s
	g.mu.RUnlock()
	if !registered {
		return fmt.Errorf("state %q is not registered in this graph: %w", s.Name(), core.ErrIllegalState)
	}
	return nil
}

// SetContextPassing sets the override for the (from, to) pair of state names.
func (g *StateGraph) SetContextPassing(from, to string, pass bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, name := range []string{from, to} {
		if _, ok := g.states[name]; !ok {
			return fmt.Errorf("state %q is not registered in this graph: %w", name, core.ErrIllegalState)
		}
	}
	if g.overrides[from] == nil {
		g.overrides[from] = make(map[string]bool)
	}
	g.overrides[from][to] = pass
	return nil
}

// ClearContextPassing removes the override for (from, to).
func (g *StateGraph) ClearContextPassing(from, to string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if m, ok := g.overrides[from]; ok {
		delete(m, to)
		if len(m) == 0 {
			delete(g.overrides, from)
		}
	}
}

// ContextPassing returns the override for (from, to) and whether one exists.
func (g *StateGraph) ContextPassing(from, to string) (bool, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	pass, ok := g.overrides[from][to]
	return pass, ok
}

// Overrides returns a copy of the override map.
func (g *StateGraph) Overrides() map[string]map[string]bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make(map[string]map[string]bool, len(g.overrides))
	for from, m := range g.overrides {
		inner := make(map[string]bool, len(m))
		for to, v := range m {
			inner[to] = v
		}
		out[from] = inner
	}
	return out
}

// ShouldPassContext resolves whether c forwards context under the graph's precedence.
// With neither an explicit edge flag nor an override, context is not passed.
func (g *StateGraph) ShouldPassContext(c Connection) bool {
	override, hasOverride := g.ContextPassing(c.From.Name(), c.To.Name())
	if g.opts.Precedence == EdgeFirst {
		if c.explicitPass {
			return c.PassContext
		}
		return hasOverride && override
	}
	if hasOverride {
		return override
	}
	return c.PassContext
}

// SetInitialState points current at s, which must be registered. Any context
// left on s by an earlier run is cleared.
func (g *StateGraph) SetInitialState(s *ExecutionState) error {
	if err := g.checkRegistered(s); err != nil {
		return err
	}
	s.setInbound(nil)
	g.mu.Lock()
	g.current = s
	g.mu.Unlock()
	return nil
}

// Current returns the state the next Run starts from, nil when quiescent.
func (g *StateGraph) Current() *ExecutionState {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.current
}

func (g *StateGraph) setCurrent(s *ExecutionState) {
	g.mu.Lock()
	g.current = s
	g.mu.Unlock()
}

// State returns the state registered under name.
func (g *StateGraph) State(name string) (*ExecutionState, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	s, ok := g.states[name]
	return s, ok
}

// States returns every state in registration order.
func (g *StateGraph) States() []*ExecutionState {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]*ExecutionState, 0, len(g.order))
	for _, name := range g.order {
		out = append(out, g.states[name])
	}
	return out
}

// Running reports whether a Run is in progress.
func (g *StateGraph) Running() bool { return g.running.Load() }
