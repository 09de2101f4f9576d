package graph

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/hupe1980/agentgraph/agent"
	"github.com/hupe1980/agentgraph/core"
)

// Catalog resolves agent names when a graph is loaded.
type Catalog interface {
	Lookup(name string) (*agent.Agent, bool)
}

// AgentMap is a Catalog backed by a map.
type AgentMap map[string]*agent.Agent

// Lookup implements Catalog.
func (m AgentMap) Lookup(name string) (*agent.Agent, bool) {
	a, ok := m[name]
	return a, ok
}

// NewAgentMap indexes agents by name.
func NewAgentMap(agents ...*agent.Agent) AgentMap {
	m := make(AgentMap, len(agents))
	for _, a := range agents {
		m[a.Name()] = a
	}
	return m
}

// Document is the persisted graph format.
type Document struct {
	States         []StateDocument            `json:"states"`
	ContextPassing map[string]map[string]bool `json:"context_passing"`
	// InitialState is optional; when set the loaded graph is ready to Run.
	InitialState string `json:"initial_state,omitempty"`
}

// StateDocument is one persisted state.
type StateDocument struct {
	Name        string               `json:"name"`
	X           float64              `json:"x"`
	Y           float64              `json:"y"`
	Connections []ConnectionDocument `json:"connections"`
}

// ConnectionDocument is one persisted connection. Guards are code and are not
// persisted; loaded connections use Always. PassContext is omitted when the
// connection never had its own flag, so EdgeFirst graphs keep deferring to
// the override map after a round trip.
type ConnectionDocument struct {
	To          string `json:"to"`
	PassContext *bool  `json:"pass_context,omitempty"`
}

// ToDocument captures the graph's states, connections, overrides and current state.
func (g *StateGraph) ToDocument() Document {
	doc := Document{ContextPassing: g.Overrides()}
	for _, s := range g.States() {
		pos := s.Position()
		sd := StateDocument{Name: s.Name(), X: pos.X, Y: pos.Y, Connections: []ConnectionDocument{}}
		for _, c := range s.Connections() {
			cd := ConnectionDocument{To: c.To.Name()}
			if c.PassContextSet() {
				pass := c.PassContext
				cd.PassContext = &pass
			}
			sd.Connections = append(sd.Connections, cd)
		}
		doc.States = append(doc.States, sd)
	}
	if doc.States == nil {
		doc.States = []StateDocument{}
	}
	if cur := g.Current(); cur != nil {
		doc.InitialState = cur.Name()
	}
	return doc
}

// MarshalJSON implements json.Marshaler.
func (g *StateGraph) MarshalJSON() ([]byte, error) {
	return json.Marshal(g.ToDocument())
}

// Save writes the graph as indented JSON.
func (g *StateGraph) Save(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(g.ToDocument())
}

// FromDocument rebuilds a graph. Every state name must resolve in catalog,
// otherwise core.ErrUnknownAgent is returned and no graph is produced. States
// and connections are rebuilt before overrides are restored.
func FromDocument(doc Document, catalog Catalog, optFns ...func(o *Options)) (*StateGraph, error) {
	agents := make(map[string]*agent.Agent, len(doc.States))
	for _, sd := range doc.States {
		a, ok := catalog.Lookup(sd.Name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", core.ErrUnknownAgent, sd.Name)
		}
		if _, dup := agents[sd.Name]; dup {
			return nil, fmt.Errorf("duplicate state %q in document: %w", sd.Name, core.ErrIllegalState)
		}
		agents[sd.Name] = a
	}

	g := New(optFns...)
	for _, sd := range doc.States {
		if err := g.AddState(NewStateAt(agents[sd.Name], Position{X: sd.X, Y: sd.Y})); err != nil {
			return nil, err
		}
	}

	for _, sd := range doc.States {
		from, _ := g.State(sd.Name)
		for _, cd := range sd.Connections {
			to, ok := g.State(cd.To)
			if !ok {
				return nil, fmt.Errorf("connection %q -> %q: target is not a state of the document: %w", sd.Name, cd.To, core.ErrUnknownAgent)
			}
			var opts []TransitionOption
			if cd.PassContext != nil {
				opts = append(opts, WithPassContext(*cd.PassContext))
			}
			if _, err := g.AddTransition(from, to, opts...); err != nil {
				return nil, err
			}
		}
	}

	froms := make([]string, 0, len(doc.ContextPassing))
	for from := range doc.ContextPassing {
		froms = append(froms, from)
	}
	sort.Strings(froms)
	for _, from := range froms {
		for to, pass := range doc.ContextPassing[from] {
			if err := g.SetContextPassing(from, to, pass); err != nil {
				return nil, fmt.Errorf("context_passing %q -> %q: %w", from, to, err)
			}
		}
	}

	if doc.InitialState != "" {
		s, ok := g.State(doc.InitialState)
		if !ok {
			return nil, fmt.Errorf("initial state %q is not a state of the document: %w", doc.InitialState, core.ErrIllegalState)
		}
		if err := g.SetInitialState(s); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// Load decodes a JSON document from r and rebuilds the graph.
func Load(r io.Reader, catalog Catalog, optFns ...func(o *Options)) (*StateGraph, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode graph: %w", err)
	}
	return FromDocument(doc, catalog, optFns...)
}
