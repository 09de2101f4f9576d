package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/agentgraph/agent"
	"github.com/hupe1980/agentgraph/core"
)

// Termination says why a run stopped normally.
type Termination string

const (
	// TerminalState: the last state had no outgoing connections.
	TerminalState Termination = "terminal_state"
	// NoValidTransition: the last state had connections but no guard matched.
	NoValidTransition Termination = "no_valid_transition"
)

// RunResult summarizes one Run.
type RunResult struct {
	RunID       string      `json:"run_id"`
	Steps       int         `json:"steps"`
	Path        []string    `json:"path"`
	Termination Termination `json:"termination,omitempty"`
	Cost        float64     `json:"cost"`
}

// Run executes states from Current until no connection is taken.
//
// Behavior:
//   - Before each state the context is checked; a cancelled run stops with
//     current pointing at the state that was about to execute.
//   - An agent failure stops the run with current left at the failing state,
//     so calling Run again resumes there with the same inbound context.
//   - Normal termination sets current to nil.
//   - Exactly one OnRunFinished or OnError is published per call.
func (g *StateGraph) Run(ctx context.Context) (RunResult, error) {
	return g.run(ctx, g.opts.Sink)
}

// RunAsync executes Run on a background goroutine.
//
// Returns:
//   - events: every sink callback as an Event value, closed when the run ends
//   - errs: receives the terminal error (nil on success), then closes
//
// Events are also delivered to the graph's configured sink. Callers must
// drain events until it closes or cancel ctx. A caller that stops reading
// without cancelling leaves the run goroutine blocked on delivery; once ctx is
// done undelivered events are dropped and the run finishes.
func (g *StateGraph) RunAsync(ctx context.Context) (<-chan Event, <-chan error) {
	events := make(chan Event, 16)
	errs := make(chan error, 1)

	emitter := NewEmitter(func(ev Event) {
		select {
		case events <- ev:
		case <-ctx.Done():
		}
	})

	go func() {
		defer close(errs)
		defer close(events)
		_, err := g.run(ctx, MultiSink{g.opts.Sink, emitter})
		errs <- err
	}()
	return events, errs
}

func (g *StateGraph) run(ctx context.Context, sink EventSink) (RunResult, error) {
	runID := core.NewID()
	result := RunResult{RunID: runID}
	log := g.opts.Logger

	if ra, ok := sink.(RunAware); ok {
		ra.OnRunStarted(runID)
	}

	if !g.running.CompareAndSwap(false, true) {
		err := fmt.Errorf("graph is already running: %w", core.ErrIllegalState)
		sink.OnError(err.Error())
		return result, err
	}
	defer g.running.Store(false)

	current := g.Current()
	if current == nil {
		err := fmt.Errorf("no current state, call SetInitialState first: %w", core.ErrIllegalState)
		sink.OnError(err.Error())
		return result, err
	}

	fail := func(state string, err error) (RunResult, error) {
		log.Error("graph.run.error", "run_id", runID, "state", state, "steps", result.Steps, "error", err.Error())
		sink.OnError(err.Error())
		return result, err
	}

	start := time.Now()
	log.Info("graph.run.start", "run_id", runID, "initial", current.Name())

	limiter := core.NewLimiter("graph steps", g.opts.MaxSteps)
	inbound := current.inboundPtr()

	for {
		if err := ctx.Err(); err != nil {
			return fail(current.Name(), err)
		}
		if err := limiter.Increment(); err != nil {
			return fail(current.Name(), err)
		}

		current.setInbound(inbound)
		log.Debug("graph.state.entered", "run_id", runID, "state", current.Name(), "has_context", inbound != nil)
		sink.OnStateEntered(current)

		res, err := current.agent.Execute(ctx, agent.Execution{Context: inbound})
		result.Cost += res.Cost
		if err != nil {
			return fail(current.Name(), err)
		}

		current.setLastResponse(res.Response)
		result.Steps++
		result.Path = append(result.Path, current.Name())
		log.Debug("graph.state.finished", "run_id", runID, "state", current.Name(), "cost", res.Cost)
		sink.OnStateFinished(current, res.Response)

		conns := current.Connections()
		next, ok := firstMatch(conns, res.Response, result.Steps)
		if !ok {
			if len(conns) == 0 {
				result.Termination = TerminalState
				log.Info("graph.run.terminal", "run_id", runID, "state", current.Name())
			} else {
				result.Termination = NoValidTransition
				log.Warn("graph.run.no_valid_transition",
					"run_id", runID,
					"state", current.Name(),
					"connections", len(conns),
					"reason", core.ErrNoValidTransition.Error(),
				)
			}
			g.setCurrent(nil)
			log.Info("graph.run.finished",
				"run_id", runID,
				"steps", result.Steps,
				"termination", string(result.Termination),
				"cost", result.Cost,
				"duration_ms", time.Since(start).Milliseconds(),
			)
			sink.OnRunFinished()
			return result, nil
		}

		pass := g.ShouldPassContext(next)
		if pass {
			text := g.opts.FormatContext(current.Name(), res.Response)
			inbound = &text
		} else {
			inbound = nil
		}
		log.Info("graph.transition", "run_id", runID, "from", current.Name(), "to", next.To.Name(), "pass_context", pass)

		next.To.setInbound(inbound)
		g.setCurrent(next.To)
		current = next.To
	}
}

func firstMatch(conns []Connection, response string, step int) (Connection, bool) {
	for _, c := range conns {
		guard := c.Guard
		if guard == nil {
			guard = Always
		}
		if guard(GuardInput{From: c.From, To: c.To, Response: response, Step: step}) {
			return c, true
		}
	}
	return Connection{}, false
}
