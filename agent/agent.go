package agent

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hupe1980/agentgraph/audit"
	"github.com/hupe1980/agentgraph/client"
	"github.com/hupe1980/agentgraph/core"
	"github.com/hupe1980/agentgraph/logging"
	"github.com/hupe1980/agentgraph/tool"
)

// Identity is who the agent is. It cannot change once the agent is built,
// because the name keys the agent inside graphs and catalogs.
type Identity struct {
	Name       string `json:"name" yaml:"name"`
	Goal       string `json:"goal" yaml:"goal"`
	Backstory  string `json:"backstory" yaml:"backstory"`
	Verbose    bool   `json:"verbose" yaml:"verbose"`
	JSONOutput bool   `json:"json_output" yaml:"json_output"`
}

// Completer is the model-facing dependency of an agent. *client.Client implements it.
type Completer interface {
	Call(ctx context.Context, prompt string, tools []tool.Schema) (client.CompletionResult, error)
}

// ToolHost is implemented by completers that resolve tool calls through a
// registry, such as *client.Client. New registers the agent's tools there so
// every tool it offers can be resolved.
type ToolHost interface {
	Registry() *tool.Registry
}

// Options configure an Agent.
type Options struct {
	// Tools are offered to the model on every task run. When the completer is a
	// ToolHost they are registered into its registry, last write wins.
	Tools       []*tool.Tool
	Task        *Task
	AuditSink   audit.Sink
	Instruction Instruction
	Logger      logging.Logger
}

// Execution is the explicit input of a single task run.
type Execution struct {
	// Task overrides the assigned task for this run when non-nil.
	Task *Task
	// Context is the inbound context forwarded from a previous step, nil for none.
	Context *string
}

// WithContext returns an Execution forwarding ctx text.
func WithContext(text string) Execution { return Execution{Context: &text} }

// Result is the full outcome of one task run.
type Result struct {
	Prompt   string  `json:"prompt"`
	Response string  `json:"response"`
	Cost     float64 `json:"cost"`
	Model    string  `json:"model"`
	Rounds   int     `json:"rounds"`
}

// Agent executes tasks against a Completer.
type Agent struct {
	identity    Identity
	completer   Completer
	tools       []*tool.Tool
	audit       audit.Sink
	instruction Instruction
	logger      logging.Logger

	mu   sync.RWMutex
	task *Task
}

// New builds an agent. The name must not be empty.
func New(identity Identity, completer Completer, optFns ...func(o *Options)) (*Agent, error) {
	if strings.TrimSpace(identity.Name) == "" {
		return nil, fmt.Errorf("agent name must not be empty: %w", core.ErrIllegalState)
	}
	if completer == nil {
		return nil, fmt.Errorf("agent %q: completer is required: %w", identity.Name, core.ErrIllegalState)
	}

	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.AuditSink == nil {
		opts.AuditSink = audit.NopSink{}
	}
	if opts.Instruction.IsZero() {
		opts.Instruction = defaultInstruction
	}

	if host, ok := completer.(ToolHost); ok && len(opts.Tools) > 0 {
		if reg := host.Registry(); reg != nil {
			reg.RegisterAll(opts.Tools...)
		}
	}

	a := &Agent{
		identity:    identity,
		completer:   completer,
		tools:       append([]*tool.Tool(nil), opts.Tools...),
		audit:       opts.AuditSink,
		instruction: opts.Instruction,
		logger:      logging.OrNoOp(opts.Logger),
	}
	if opts.Task != nil {
		a.AssignTask(*opts.Task)
	}
	return a, nil
}

// Name returns the agent's unique name.
func (a *Agent) Name() string { return a.identity.Name }

// Identity returns a copy of the agent's identity.
func (a *Agent) Identity() Identity { return a.identity }

// AssignTask replaces the assigned task with a copy of t.
func (a *Agent) AssignTask(t Task) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.task = &t
}

// ClearTask removes the assigned task.
func (a *Agent) ClearTask() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.task = nil
}

// Task returns a copy of the assigned task.
func (a *Agent) Task() (Task, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.task == nil {
		return Task{}, false
	}
	return *a.task, true
}

// Tools returns the agent's tools. Tools are shared, not owned.
func (a *Agent) Tools() []*tool.Tool {
	return append([]*tool.Tool(nil), a.tools...)
}

// Schemas exports every tool with a defined schema. Tools without one are
// skipped with a warning since the model could never call them successfully.
func (a *Agent) Schemas() []tool.Schema {
	if len(a.tools) == 0 {
		return nil
	}
	out := make([]tool.Schema, 0, len(a.tools))
	for _, t := range a.tools {
		s, err := t.Export()
		if err != nil {
			a.logger.Warn("agent.tool.skipped", "agent", a.identity.Name, "tool", t.Name(), "error", err.Error())
			continue
		}
		out = append(out, s)
	}
	return out
}

// Prompt renders the prompt for task and an optional inbound context.
func (a *Agent) Prompt(task Task, inbound *string) (string, error) {
	data := PromptData{
		Name:           a.identity.Name,
		Goal:           a.identity.Goal,
		Backstory:      a.identity.Backstory,
		Description:    task.Description,
		ExpectedOutput: task.ExpectedOutput,
	}
	if inbound != nil {
		data.Context = *inbound
	}
	prompt, err := a.instruction.Render(data)
	if err != nil {
		return "", fmt.Errorf("agent %q: render prompt: %w", a.identity.Name, err)
	}
	if a.identity.JSONOutput || task.StructuredOutput {
		prompt = strings.TrimRight(prompt, "\n") + "\n\n" + JSONInstruction
	}
	return prompt, nil
}

// ExecuteTask runs one task turn and returns the response text.
func (a *Agent) ExecuteTask(ctx context.Context, exec Execution) (string, error) {
	res, err := a.Execute(ctx, exec)
	if err != nil {
		return "", err
	}
	return res.Response, nil
}

// Execute runs one task turn.
//
// Error Semantics:
//
//	no task assigned or supplied -> core.ErrIllegalState
//	template failure             -> returned wrapped
//	completer failure            -> returned wrapped (core.ErrTransport from the client)
//
// An audit failure is logged and does not fail the task.
func (a *Agent) Execute(ctx context.Context, exec Execution) (Result, error) {
	var task Task
	if exec.Task != nil {
		task = *exec.Task
	} else {
		assigned, ok := a.Task()
		if !ok {
			return Result{}, fmt.Errorf("agent %q has no task assigned: %w", a.identity.Name, core.ErrIllegalState)
		}
		task = assigned
	}

	prompt, err := a.Prompt(task, exec.Context)
	if err != nil {
		return Result{}, err
	}

	if a.identity.Verbose {
		a.logger.Info("agent.task.start", "agent", a.identity.Name, "task", task.Description, "has_context", exec.Context != nil)
	} else {
		a.logger.Debug("agent.task.start", "agent", a.identity.Name)
	}

	start := time.Now()
	completion, err := a.completer.Call(ctx, prompt, a.Schemas())
	if err != nil {
		a.logger.Error("agent.task.error", "agent", a.identity.Name, "error", err.Error())
		return Result{Prompt: prompt, Cost: completion.Cost}, fmt.Errorf("agent %q: %w", a.identity.Name, err)
	}

	res := Result{
		Prompt:   prompt,
		Response: completion.Content,
		Cost:     completion.Cost,
		Model:    completion.Model,
		Rounds:   completion.Rounds,
	}

	rec := audit.Record{
		Agent:           a.identity.Name,
		TaskDescription: task.Description,
		ExpectedOutput:  task.ExpectedOutput,
		Prompt:          prompt,
		Response:        res.Response,
		Cost:            res.Cost,
		Model:           res.Model,
	}
	if err := a.audit.Append(ctx, rec); err != nil {
		a.logger.Error("agent.audit.error", "agent", a.identity.Name, "error", err.Error())
	}

	a.logger.Info("agent.task.complete",
		"agent", a.identity.Name,
		"cost", res.Cost,
		"rounds", res.Rounds,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}
