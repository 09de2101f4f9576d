package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"
	"sort"
	"sync"
	"time"

	"github.com/hupe1980/agentgraph/core"
	"github.com/hupe1980/agentgraph/logging"
	"github.com/hupe1980/agentgraph/model"
	"github.com/hupe1980/agentgraph/tool"
)

// CompletionResult is the outcome of one Call.
type CompletionResult struct {
	// Content is the final message text, empty when the model returned none.
	Content string `json:"content"`
	// Cost is the summed cost of every backend call made by this Call.
	Cost float64 `json:"cost"`
	// Model is the catalog name the call was made with.
	Model string `json:"model"`
	// Rounds is the number of tool rounds executed.
	Rounds int `json:"rounds"`
}

// Options configure a Client.
type Options struct {
	// Ledger receives every cost. A fresh ledger is created when nil.
	Ledger *Ledger
	// DefaultModel is used by Call. Defaults to the backend's Info().Name.
	DefaultModel string
	// Models lists the catalog names callers may select. The default model is
	// always part of the catalog.
	Models []string
	// MaxToolRounds caps tool rounds per call. 0 keeps the loop unbounded, in
	// which case a model that never stops requesting tools keeps it running
	// until ctx is done.
	MaxToolRounds int
	Logger        logging.Logger
}

// Client drives the tool-calling conversation against a model backend.
type Client struct {
	backend  model.Backend
	registry *tool.Registry
	ledger   *Ledger
	logger   logging.Logger
	maxRound int

	mu           sync.RWMutex
	models       map[string]string // catalog name -> backend model identifier
	defaultModel string
}

// New creates a client. registry may be nil when no tools are ever offered.
func New(backend model.Backend, registry *tool.Registry, optFns ...func(o *Options)) *Client {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Ledger == nil {
		opts.Ledger = NewLedger()
	}
	if opts.DefaultModel == "" {
		opts.DefaultModel = backend.Info().Name
	}
	if registry == nil {
		registry = tool.NewRegistry()
	}

	models := make(map[string]string, len(opts.Models)+1)
	for _, m := range opts.Models {
		models[m] = m
	}
	if _, ok := models[opts.DefaultModel]; !ok {
		models[opts.DefaultModel] = opts.DefaultModel
	}

	return &Client{
		backend:      backend,
		registry:     registry,
		ledger:       opts.Ledger,
		logger:       logging.OrNoOp(opts.Logger),
		maxRound:     opts.MaxToolRounds,
		models:       models,
		defaultModel: opts.DefaultModel,
	}
}

// Registry returns the registry tool calls are resolved against.
func (c *Client) Registry() *tool.Registry { return c.registry }

// Ledger returns the cost ledger.
func (c *Client) Ledger() *Ledger { return c.ledger }

// AvailableModels returns the catalog names, sorted.
func (c *Client) AvailableModels() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.models))
	for m := range c.models {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

// DefaultModel returns the model Call uses.
func (c *Client) DefaultModel() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.defaultModel
}

// SetDefaultModel selects the model Call uses. The name must be in the catalog.
func (c *Client) SetDefaultModel(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.models[name]; !ok {
		return fmt.Errorf("model %q is not available: %w", name, core.ErrIllegalState)
	}
	c.defaultModel = name
	return nil
}

// AddCustomModel adds a catalog name that resolves to the backend model
// identifier target. An empty target uses name itself.
func (c *Client) AddCustomModel(name, target string) {
	if target == "" {
		target = name
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.models[name] = target
}

// Costs returns the ledger summary with zero entries omitted.
func (c *Client) Costs() CostSummary { return c.ledger.Summary() }

// ResetCosts clears the ledger.
func (c *Client) ResetCosts() { c.ledger.Reset() }

// Call runs the conversation with the default model.
func (c *Client) Call(ctx context.Context, prompt string, tools []tool.Schema) (CompletionResult, error) {
	return c.CallModel(ctx, c.DefaultModel(), prompt, tools)
}

// CallModel runs the conversation with the named catalog model.
//
// Only tools listed in tools may run. A call naming any other tool gets an
// error result, even when the registry holds a tool under that name.
//
// The returned result carries the cost accumulated so far even when an error
// is returned, since every successful dispatch is already in the ledger.
func (c *Client) CallModel(ctx context.Context, name, prompt string, tools []tool.Schema) (CompletionResult, error) {
	c.mu.RLock()
	target, ok := c.models[name]
	c.mu.RUnlock()

	result := CompletionResult{Model: name}
	if !ok {
		return result, fmt.Errorf("model %q is not available: %w", name, core.ErrIllegalState)
	}

	start := time.Now()
	limiter := core.NewLimiter("tool rounds", c.maxRound)
	conversation := []model.Message{model.UserMessage(prompt)}
	offered := make(map[string]struct{}, len(tools))
	for _, t := range tools {
		offered[t.Name] = struct{}{}
	}

	for {
		if err := ctx.Err(); err != nil {
			return result, c.finish(result, start, err)
		}

		resp, err := c.backend.Complete(ctx, model.Request{Model: target, Messages: conversation, Tools: tools})
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
				return result, c.finish(result, start, err)
			}
			return result, c.finish(result, start, fmt.Errorf("%w: %v", core.ErrTransport, err))
		}
		if resp == nil {
			return result, c.finish(result, start, fmt.Errorf("%w: backend returned no response", core.ErrTransport))
		}
		result.Cost += c.record(name, resp)

		c.logger.Debug("client.dispatch",
			"model", name,
			"round", result.Rounds,
			"tool_calls", len(resp.Message.ToolCalls),
		)

		if len(resp.Message.ToolCalls) == 0 {
			result.Content = resp.Message.Content
			return result, c.finish(result, start, nil)
		}

		if err := limiter.Increment(); err != nil {
			return result, c.finish(result, start, err)
		}
		result.Rounds++

		assistant := resp.Message
		assistant.Role = model.RoleAssistant
		conversation = append(conversation, assistant)
		for _, call := range assistant.ToolCalls {
			conversation = append(conversation, model.ToolResultMessage(call.ID, c.runTool(ctx, call, offered)))
		}
	}
}

// record books the cost of one dispatch and returns the booked amount.
func (c *Client) record(name string, resp *model.Response) float64 {
	cost := 0.0
	if resp.Cost == nil {
		c.logger.Warn("client.cost.missing", "model", name)
	} else {
		cost = *resp.Cost
	}
	if err := c.ledger.Add(name, cost); err != nil {
		c.logger.Warn("client.cost.invalid", "model", name, "error", err.Error())
		cost = 0
		_ = c.ledger.Add(name, 0)
	}
	return cost
}

func (c *Client) finish(result CompletionResult, start time.Time, err error) error {
	if err != nil {
		c.logger.Error("client.call.error",
			"model", result.Model,
			"rounds", result.Rounds,
			"cost", result.Cost,
			"duration_ms", time.Since(start).Milliseconds(),
			"error", err.Error(),
		)
		return err
	}
	c.logger.Info("client.call.complete",
		"model", result.Model,
		"rounds", result.Rounds,
		"cost", result.Cost,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// runTool resolves and invokes one tool call and renders its result for the model.
func (c *Client) runTool(ctx context.Context, call model.ToolCall, offered map[string]struct{}) string {
	start := time.Now()
	out, err := c.invoke(ctx, call, offered)
	dur := time.Since(start)
	if err != nil {
		c.logger.Warn("tool.invoke.error",
			"tool", call.Name,
			"tool_call_id", call.ID,
			"duration_ms", dur.Milliseconds(),
			"error", err.Error(),
		)
		return "error: " + err.Error()
	}
	c.logger.Info("tool.invoke.success",
		"tool", call.Name,
		"tool_call_id", call.ID,
		"duration_ms", dur.Milliseconds(),
	)
	return stringify(out)
}

func (c *Client) invoke(ctx context.Context, call model.ToolCall, offered map[string]struct{}) (out any, err error) {
	if _, ok := offered[call.Name]; !ok {
		return nil, fmt.Errorf("tool not offered: %q", call.Name)
	}
	t, err := c.registry.Resolve(call.Name)
	if err != nil {
		return nil, err
	}

	args := map[string]any{}
	if call.Arguments != "" {
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			return nil, fmt.Errorf("malformed arguments for %q: %w", call.Name, err)
		}
	}

	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("tool.invoke.panic", "tool", call.Name, "recover", r, "stack", string(debug.Stack()))
			err = fmt.Errorf("tool %q panicked: %v", call.Name, r)
		}
	}()
	return t.Invoke(ctx, args)
}

func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []byte:
		return string(val)
	case fmt.Stringer:
		return val.String()
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(raw)
}
