// Command agentgraph runs agent state graphs described by a JSON graph
// document and a YAML agent catalog.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"

	"github.com/hupe1980/agentgraph"
	"github.com/hupe1980/agentgraph/config"
	"github.com/hupe1980/agentgraph/model"
	"github.com/hupe1980/agentgraph/tool/builtin"
)

// Build-time variables (set via ldflags)
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	var cli CLI
	parser, err := kong.New(&cli,
		kong.Name("agentgraph"),
		kong.Description("Run guarded agent state graphs."),
		kong.UsageOnError(),
		kong.Writers(out, os.Stderr),
		kongVars(),
	)
	if err != nil {
		return err
	}
	ctx, err := parser.Parse(args)
	if err != nil {
		return err
	}
	return ctx.Run(&Globals{Config: cli.Config, EnvFile: cli.EnvFile, Out: out})
}

// loadConfig loads dotenv files and the config. Explicit pricing specs are
// layered over the configured prices.
func loadConfig(g *Globals, costs []string) (*config.Config, error) {
	if err := config.LoadDotEnv(g.EnvFile...); err != nil {
		return nil, err
	}
	cfg, err := config.Load(g.Config)
	if err != nil {
		return nil, err
	}
	for _, spec := range costs {
		name, price, err := model.ParsePrice(spec)
		if err != nil {
			return nil, fmt.Errorf("--cost %q: %w", spec, err)
		}
		if cfg.Pricing == nil {
			cfg.Pricing = make(map[string]model.Price)
		}
		cfg.Pricing[name] = price
	}
	return cfg, nil
}

// newApp builds the façade with the bundled tools registered.
func newApp(cfg *config.Config) (*agentgraph.AgentGraph, error) {
	app, err := agentgraph.NewFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	app.RegisterTool(builtin.DateTime(nil))
	return app, nil
}

func (VersionCmd) Run(g *Globals) error {
	_, err := fmt.Fprintf(g.Out, "agentgraph version %s (commit: %s)\n", version, commit)
	return err
}
