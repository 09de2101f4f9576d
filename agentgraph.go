// Package agentgraph provides a high-level façade over the model client,
// agents and state graphs, wiring a backend, tool registry, cost ledger,
// audit sink and event sink once so applications can focus on their agents.
// Most applications interact with this package by:
//  1. Creating an AgentGraph via New() or NewFromConfig()
//  2. Registering tools and building agents (NewAgent) or loading a catalog
//  3. Building a graph (NewGraph, LoadGraph) and running it (Run, RunSync)
//
// All defaults are safe for local development and testing: without a
// backend the mock backend is used and nothing is written to disk.
package agentgraph

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"

	"github.com/hupe1980/agentgraph/agent"
	"github.com/hupe1980/agentgraph/audit"
	"github.com/hupe1980/agentgraph/catalog"
	"github.com/hupe1980/agentgraph/client"
	"github.com/hupe1980/agentgraph/config"
	"github.com/hupe1980/agentgraph/eventbus"
	"github.com/hupe1980/agentgraph/graph"
	"github.com/hupe1980/agentgraph/logging"
	"github.com/hupe1980/agentgraph/model"
	"github.com/hupe1980/agentgraph/model/anthropic"
	"github.com/hupe1980/agentgraph/model/openai"
	"github.com/hupe1980/agentgraph/tool"
)

// Options configures the AgentGraph instance.
type Options struct {
	// Backend answers model requests (defaults to a MockBackend).
	Backend model.Backend
	// Registry resolves tool calls (defaults to an empty registry).
	Registry *tool.Registry
	// Ledger records every cost (defaults to a fresh ledger).
	Ledger *client.Ledger
	// Models are extra catalog names offered by the client.
	Models []string
	// Aliases map catalog names to backend model identifiers.
	Aliases map[string]string
	// MaxToolRounds caps tool rounds per call; 0 is unbounded.
	MaxToolRounds int

	// AuditSink receives one record per task (defaults to NopSink).
	AuditSink audit.Sink
	// EventSink receives graph run events (defaults to NopSink).
	EventSink graph.EventSink
	// MaxSteps and Precedence are applied to every graph built here.
	MaxSteps   int
	Precedence graph.Precedence

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// AgentGraph is the high-level façade aggregating the client and its services.
type AgentGraph struct {
	opts    Options
	client  *client.Client
	closers []io.Closer
}

// New creates an AgentGraph. Any unset service gets an in-memory or no-op default.
func New(optFns ...func(o *Options)) *AgentGraph {
	opts := Options{
		AuditSink: audit.NopSink{},
		EventSink: graph.NopSink{},
		Logger:    logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Backend == nil {
		opts.Backend = model.NewMockBackend()
	}
	if opts.Registry == nil {
		opts.Registry = tool.NewRegistry()
	}
	opts.Logger = logging.OrNoOp(opts.Logger)

	c := client.New(opts.Backend, opts.Registry, func(o *client.Options) {
		o.Ledger = opts.Ledger
		o.Models = opts.Models
		o.MaxToolRounds = opts.MaxToolRounds
		o.Logger = opts.Logger
	})
	for name, target := range opts.Aliases {
		c.AddCustomModel(name, target)
	}

	return &AgentGraph{opts: opts, client: c}
}

// Client returns the shared model client.
func (m *AgentGraph) Client() *client.Client { return m.client }

// Registry returns the shared tool registry.
func (m *AgentGraph) Registry() *tool.Registry { return m.opts.Registry }

// RegisterTool adds tools to the shared registry.
func (m *AgentGraph) RegisterTool(tools ...*tool.Tool) { m.opts.Registry.RegisterAll(tools...) }

// NewAgent builds an agent on the shared client, audit sink and logger.
// optFns run after the defaults and may override them.
func (m *AgentGraph) NewAgent(identity agent.Identity, optFns ...func(o *agent.Options)) (*agent.Agent, error) {
	return agent.New(identity, m.client, append([]func(o *agent.Options){func(o *agent.Options) {
		o.AuditSink = m.opts.AuditSink
		o.Logger = m.opts.Logger
	}}, optFns...)...)
}

// NewGraph creates an empty graph using the façade's sink, logger, step budget
// and precedence.
func (m *AgentGraph) NewGraph(optFns ...func(o *graph.Options)) *graph.StateGraph {
	return graph.New(append([]func(o *graph.Options){m.graphDefaults}, optFns...)...)
}

func (m *AgentGraph) graphDefaults(o *graph.Options) {
	o.Sink = m.opts.EventSink
	o.Logger = m.opts.Logger
	o.MaxSteps = m.opts.MaxSteps
	o.Precedence = m.opts.Precedence
}

// LoadCatalog reads a YAML agent catalog and builds its agents on the shared
// client and registry.
func (m *AgentGraph) LoadCatalog(path string) (*catalog.Catalog, error) {
	spec, err := catalog.Load(path)
	if err != nil {
		return nil, err
	}
	return spec.Build(m.client, m.opts.Registry, func(o *catalog.Options) {
		o.AuditSink = m.opts.AuditSink
		o.Logger = m.opts.Logger
	})
}

// LoadGraph decodes a graph document, resolving state names in agents.
func (m *AgentGraph) LoadGraph(r io.Reader, agents graph.Catalog, optFns ...func(o *graph.Options)) (*graph.StateGraph, error) {
	return graph.Load(r, agents, append([]func(o *graph.Options){m.graphDefaults}, optFns...)...)
}

// LoadGraphFile opens path and calls LoadGraph.
func (m *AgentGraph) LoadGraphFile(path string, agents graph.Catalog, optFns ...func(o *graph.Options)) (*graph.StateGraph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open graph: %w", err)
	}
	defer f.Close()
	return m.LoadGraph(f, agents, optFns...)
}

// Run executes g synchronously.
func (m *AgentGraph) Run(ctx context.Context, g *graph.StateGraph) (graph.RunResult, error) {
	return g.Run(ctx)
}

// RunSync is a synchronous helper that drains RunAsync and returns every
// event alongside the terminal error. The run is cancelled on every return
// path, so no goroutine outlives the call.
func (m *AgentGraph) RunSync(ctx context.Context, g *graph.StateGraph) ([]graph.Event, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	eventsCh, errorsCh := g.RunAsync(ctx)

	var events []graph.Event
	for {
		select {
		case <-ctx.Done():
			// Context cancelled - return events collected so far
			return events, ctx.Err()

		case ev, ok := <-eventsCh:
			if !ok {
				return events, <-errorsCh
			}
			events = append(events, ev)
		}
	}
}

// Costs returns the cost summary, omitting models that cost nothing.
func (m *AgentGraph) Costs() client.CostSummary { return m.client.Costs() }

// Close releases resources opened by NewFromConfig, newest first.
func (m *AgentGraph) Close() error {
	var errs []error
	for i := len(m.closers) - 1; i >= 0; i-- {
		if err := m.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	m.closers = nil
	return errors.Join(errs...)
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// NewFromConfig builds an AgentGraph from configuration: backend, pricing,
// audit sink, event publishing and logger. optFns run last. The caller must
// Close the result.
func NewFromConfig(cfg *config.Config, optFns ...func(o *Options)) (*AgentGraph, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	var closers []io.Closer
	fail := func(err error) (*AgentGraph, error) {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i].Close()
		}
		return nil, err
	}

	logger := logging.NewLogger(cfg.LoggerConfig())

	backend, err := newBackend(cfg)
	if err != nil {
		return fail(err)
	}

	var sink audit.Sink = audit.NopSink{}
	switch cfg.Audit.Backend {
	case "memory":
		sink = audit.NewMemorySink()
	case "file":
		fs, err := audit.NewFileSink(cfg.Audit.Path)
		if err != nil {
			return fail(err)
		}
		closers = append(closers, fs)
		sink = fs
	case "sqlite":
		db, err := audit.OpenSQLite(cfg.Audit.Path)
		if err != nil {
			return fail(err)
		}
		closers = append(closers, db)
		sink = db
	}

	var events graph.EventSink = graph.NopSink{}
	if cfg.Events.Enabled {
		url := cfg.Events.URL
		if cfg.Events.Embedded {
			srv, err := eventbus.NewServer()
			if err != nil {
				return fail(err)
			}
			closers = append(closers, closerFunc(func() error { srv.Close(); return nil }))
			url = srv.ClientURL()
		}
		pub, err := eventbus.Connect(url, func(o *eventbus.Options) {
			o.Prefix = cfg.Events.Prefix
			o.Logger = logger.WithComponent("eventbus")
		})
		if err != nil {
			return fail(err)
		}
		closers = append(closers, closerFunc(pub.Close))
		events = pub
	}

	m := New(append([]func(o *Options){func(o *Options) {
		o.Backend = backend
		o.Aliases = cfg.Model.Aliases
		o.MaxToolRounds = cfg.Model.MaxToolRounds
		o.AuditSink = sink
		o.EventSink = events
		o.MaxSteps = cfg.Graph.MaxSteps
		o.Precedence = cfg.GraphPrecedence()
		o.Logger = logger
	}}, optFns...)...)
	m.closers = closers

	logger.Info("agentgraph.ready",
		"provider", cfg.Model.Provider,
		"model", m.client.DefaultModel(),
		"audit", cfg.Audit.Backend,
		"events", cfg.Events.Enabled,
	)
	return m, nil
}

func newBackend(cfg *config.Config) (model.Backend, error) {
	pricing := cfg.PricingTable()
	switch cfg.Model.Provider {
	case "mock":
		return model.NewMockBackend(func(o *model.MockOptions) {
			o.Cost = model.Float(cfg.Mock.Cost)
			if cfg.Model.Name != "" {
				o.Name = cfg.Model.Name
			}
		}), nil
	case "openai":
		return openai.New(func(o *openai.Options) {
			if cfg.Model.Name != "" {
				o.Model = cfg.Model.Name
			}
			o.Temperature = cfg.Model.Temperature
			o.MaxCompletionTokens = int64(cfg.Model.MaxTokens)
			o.APIKey = cfg.APIKey()
			o.BaseURL = cfg.Model.BaseURL
			o.Pricing = pricing
		}), nil
	case "anthropic":
		return anthropic.New(func(o *anthropic.Options) {
			if cfg.Model.Name != "" {
				o.Model = anthropicsdk.Model(cfg.Model.Name)
			}
			o.Temperature = cfg.Model.Temperature
			o.MaxTokens = int64(cfg.Model.MaxTokens)
			o.APIKey = cfg.APIKey()
			o.BaseURL = cfg.Model.BaseURL
			o.Pricing = pricing
		}), nil
	}
	return nil, fmt.Errorf("unknown model provider %q", cfg.Model.Provider)
}
