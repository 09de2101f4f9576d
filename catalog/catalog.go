// Package catalog loads the host's agent catalog from YAML.
//
// A graph document only names its states; the catalog supplies the agents
// behind those names, with their identity, task and tools:
//
//	agents:
//	  - name: Mia
//	    goal: Convince Dylan to travel to Dubai
//	    backstory: Mia loves luxury and the sun
//	    tools: [datetime_now]
//	    model: gpt-4o-mini
//	    task:
//	      description: Propose a destination
//	      expected_output: One city and a reason
package catalog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/agentgraph/agent"
	"github.com/hupe1980/agentgraph/audit"
	"github.com/hupe1980/agentgraph/client"
	"github.com/hupe1980/agentgraph/core"
	"github.com/hupe1980/agentgraph/graph"
	"github.com/hupe1980/agentgraph/logging"
	"github.com/hupe1980/agentgraph/tool"
)

// AgentSpec is one catalog entry.
type AgentSpec struct {
	agent.Identity `yaml:",inline"`

	Task  *agent.Task `yaml:"task,omitempty"`
	Tools []string    `yaml:"tools,omitempty"`
	// Model selects a catalog model of the client instead of its default.
	Model string `yaml:"model,omitempty"`
	// Instruction replaces the default prompt template.
	Instruction string `yaml:"instruction,omitempty"`
}

// Spec is the decoded catalog file.
type Spec struct {
	Agents []AgentSpec `yaml:"agents"`
}

// ModelCaller is a completer that can also address a named model.
// *client.Client implements it.
type ModelCaller interface {
	agent.Completer
	CallModel(ctx context.Context, model, prompt string, tools []tool.Schema) (client.CompletionResult, error)
}

// Options configure Build.
type Options struct {
	AuditSink audit.Sink
	Logger    logging.Logger
}

// Catalog is a set of built agents addressed by name.
type Catalog struct {
	agents map[string]*agent.Agent
	order  []string
}

var _ graph.Catalog = (*Catalog)(nil)

// Load reads and parses the catalog file at path.
func Load(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML catalog. Unknown fields are rejected.
func Parse(data []byte) (*Spec, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var spec Spec
	if err := dec.Decode(&spec); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return &spec, nil
}

// Validate checks names are present and unique.
func (s *Spec) Validate() error {
	seen := make(map[string]bool, len(s.Agents))
	for i, a := range s.Agents {
		name := strings.TrimSpace(a.Name)
		if name == "" {
			return fmt.Errorf("catalog agent #%d has no name: %w", i+1, core.ErrIllegalState)
		}
		if seen[name] {
			return fmt.Errorf("catalog agent %q is defined twice: %w", name, core.ErrIllegalState)
		}
		seen[name] = true
	}
	return nil
}

// Build creates every agent of the catalog over completer, resolving tool
// names in registry. An unknown tool fails with core.ErrToolNotFound. An agent
// naming a model needs a completer implementing ModelCaller.
func (s *Spec) Build(completer agent.Completer, registry *tool.Registry, optFns ...func(o *Options)) (*Catalog, error) {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}
	if registry == nil {
		registry = tool.NewRegistry()
	}

	c := &Catalog{agents: make(map[string]*agent.Agent, len(s.Agents))}
	for _, as := range s.Agents {
		a, err := as.build(completer, registry, opts)
		if err != nil {
			return nil, fmt.Errorf("catalog agent %q: %w", as.Name, err)
		}
		c.agents[a.Name()] = a
		c.order = append(c.order, a.Name())
	}
	return c, nil
}

func (as AgentSpec) build(completer agent.Completer, registry *tool.Registry, opts Options) (*agent.Agent, error) {
	tools := make([]*tool.Tool, 0, len(as.Tools))
	for _, name := range as.Tools {
		t, err := registry.Resolve(name)
		if err != nil {
			return nil, err
		}
		tools = append(tools, t)
	}

	var instruction agent.Instruction
	if as.Instruction != "" {
		var err error
		if instruction, err = agent.NewInstructionFromText(as.Instruction); err != nil {
			return nil, err
		}
	}

	if as.Model != "" {
		mc, ok := completer.(ModelCaller)
		if !ok {
			return nil, fmt.Errorf("model %q requested but the completer cannot select models: %w", as.Model, core.ErrIllegalState)
		}
		completer = boundModel{caller: mc, model: as.Model}
	}

	return agent.New(as.Identity, completer, func(o *agent.Options) {
		o.Tools = tools
		o.Task = as.Task
		o.AuditSink = opts.AuditSink
		o.Instruction = instruction
		o.Logger = opts.Logger
	})
}

// boundModel pins every call of an agent to one model.
type boundModel struct {
	caller ModelCaller
	model  string
}

func (b boundModel) Call(ctx context.Context, prompt string, tools []tool.Schema) (client.CompletionResult, error) {
	return b.caller.CallModel(ctx, b.model, prompt, tools)
}

// Registry exposes the caller's registry so agent.New can register the
// agent's tools where its calls are resolved.
func (b boundModel) Registry() *tool.Registry {
	if host, ok := b.caller.(agent.ToolHost); ok {
		return host.Registry()
	}
	return nil
}

// Lookup implements graph.Catalog.
func (c *Catalog) Lookup(name string) (*agent.Agent, bool) {
	a, ok := c.agents[name]
	return a, ok
}

// Agent is Lookup for callers that prefer an error.
func (c *Catalog) Agent(name string) (*agent.Agent, error) {
	a, ok := c.agents[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownAgent, name)
	}
	return a, nil
}

// Agents returns the agents in file order.
func (c *Catalog) Agents() []*agent.Agent {
	out := make([]*agent.Agent, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.agents[name])
	}
	return out
}

// Names returns the agent names sorted.
func (c *Catalog) Names() []string {
	out := append([]string(nil), c.order...)
	sort.Strings(out)
	return out
}

// Len returns the number of agents.
func (c *Catalog) Len() int { return len(c.order) }
