package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"

	"github.com/hupe1980/agentgraph/core"
	"github.com/hupe1980/agentgraph/graph"
)

func (c *RunCmd) Run(g *Globals) error {
	cfg, err := loadConfig(g, c.Cost)
	if err != nil {
		return err
	}
	if c.Model != "" {
		cfg.Model.Name = c.Model
	}
	if c.MaxSteps > 0 {
		cfg.Graph.MaxSteps = c.MaxSteps
	}

	app, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	cat, err := app.LoadCatalog(c.Catalog)
	if err != nil {
		return err
	}
	sg, err := app.LoadGraphFile(c.Graph, cat)
	if err != nil {
		return err
	}
	if err := selectInitial(sg, c.Initial); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	ctx, cancelTimeout := context.WithTimeout(ctx, c.Timeout)
	defer cancelTimeout()

	events, runErr := app.RunSync(ctx, sg)
	for _, ev := range events {
		switch ev.Type {
		case graph.EventStateFinished:
			fmt.Fprintf(g.Out, "%s response: %s\n", ev.State, ev.Response)
		case graph.EventError:
			fmt.Fprintf(g.Out, "run failed at step %d: %s\n", ev.Step, ev.Message)
		}
	}

	costs := app.Costs()
	for _, name := range sortedKeys(costs.Models) {
		fmt.Fprintf(g.Out, "cost %s: %g\n", name, costs.Models[name])
	}
	fmt.Fprintf(g.Out, "total cost: %g\n", costs.Total)
	return runErr
}

// selectInitial points the graph at name, or at the first state when neither
// name nor the document chose one.
func selectInitial(sg *graph.StateGraph, name string) error {
	if name != "" {
		s, ok := sg.State(name)
		if !ok {
			return fmt.Errorf("initial state %q: %w", name, core.ErrUnknownAgent)
		}
		return sg.SetInitialState(s)
	}
	if sg.Current() != nil {
		return nil
	}
	states := sg.States()
	if len(states) == 0 {
		return fmt.Errorf("graph has no states: %w", core.ErrIllegalState)
	}
	return sg.SetInitialState(states[0])
}

func sortedKeys(m map[string]float64) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
