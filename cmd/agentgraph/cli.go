package main

import (
	"io"
	"time"

	"github.com/alecthomas/kong"
)

// CLI defines the command-line interface.
type CLI struct {
	Config  string   `short:"c" help:"Config file (.yaml, .yml or .toml)" type:"path"`
	EnvFile []string `name:"env-file" help:"Dotenv files to load (repeatable)" default:".env"`

	Run      RunCmd      `cmd:"" help:"Run a graph"`
	Validate ValidateCmd `cmd:"" help:"Load a graph against a catalog without running it"`
	Models   ModelsCmd   `cmd:"" help:"List available models and prices"`
	Version  VersionCmd  `cmd:"" help:"Show version information"`
}

// RunCmd executes a graph document.
type RunCmd struct {
	Graph    string        `arg:"" help:"Graph document (JSON)" type:"existingfile"`
	Catalog  string        `short:"a" required:"" help:"Agent catalog (YAML)" type:"existingfile"`
	Initial  string        `help:"Initial state; defaults to the document's initial state, else the first state"`
	Model    string        `short:"m" help:"Backend model (overrides config)"`
	Cost     []string      `help:"Model pricing: model:input,output (per 1M tokens). Repeatable." placeholder:"MODEL:IN,OUT"`
	MaxSteps int           `help:"Stop after this many state executions (0 = unbounded)"`
	Timeout  time.Duration `default:"10m" help:"Overall run timeout"`
}

// ValidateCmd loads a graph without running it.
type ValidateCmd struct {
	Graph   string `arg:"" help:"Graph document (JSON)" type:"existingfile"`
	Catalog string `short:"a" required:"" help:"Agent catalog (YAML)" type:"existingfile"`
}

// ModelsCmd lists the client's model catalog.
type ModelsCmd struct {
	Cost []string `help:"Model pricing: model:input,output (per 1M tokens). Repeatable." placeholder:"MODEL:IN,OUT"`
}

// VersionCmd shows version information.
type VersionCmd struct{}

// Globals is bound into every command's Run method.
type Globals struct {
	Config  string
	EnvFile []string
	Out     io.Writer
}

// kongVars returns variables for kong (version info).
func kongVars() kong.Vars {
	return kong.Vars{
		"version": version,
	}
}
