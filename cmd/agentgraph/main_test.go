package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alecthomas/kong"
	"github.com/hupe1980/agentgraph/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCatalog = `
agents:
  - name: Mia
    goal: Go to Dubai
    task:
      description: Propose a destination
      expected_output: One city
  - name: Dylan
    goal: Go to Paris
    task:
      description: Answer Mia
      expected_output: One city
  - name: Mediator
    goal: Find a compromise
    task:
      description: Decide
      expected_output: One city
`

const testGraph = `{
  "states": [
    {"name": "Mia", "x": 0, "y": 0, "connections": [{"to": "Dylan", "pass_context": true}]},
    {"name": "Dylan", "x": 100, "y": 0, "connections": [{"to": "Mediator", "pass_context": false}]},
    {"name": "Mediator", "x": 50, "y": 100, "connections": []}
  ],
  "context_passing": {"Dylan": {"Mediator": true}}
}`

const testConfig = `
mock:
  cost: 0.25
audit:
  backend: none
logging:
  level: error
`

type fixture struct {
	dir, config, catalog, graph string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	dir := t.TempDir()
	f := fixture{
		dir:     dir,
		config:  filepath.Join(dir, "agentgraph.yaml"),
		catalog: filepath.Join(dir, "agents.yaml"),
		graph:   filepath.Join(dir, "graph.json"),
	}
	require.NoError(t, os.WriteFile(f.config, []byte(testConfig), 0o600))
	require.NoError(t, os.WriteFile(f.catalog, []byte(testCatalog), 0o600))
	require.NoError(t, os.WriteFile(f.graph, []byte(testGraph), 0o600))
	return f
}

func TestRunCmdParse(t *testing.T) {
	f := newFixture(t)

	var cli CLI
	parser, err := kong.New(&cli, kongVars())
	require.NoError(t, err)

	_, err = parser.Parse([]string{
		"--config", f.config,
		"run", f.graph,
		"-a", f.catalog,
		"--initial", "Dylan",
		"--cost", "gpt-4o:2.5,10",
		"--cost", "mock:1,2",
		"--max-steps", "3",
		"--timeout", "30s",
	})
	require.NoError(t, err)

	assert.Equal(t, f.config, cli.Config)
	assert.Equal(t, f.graph, cli.Run.Graph)
	assert.Equal(t, f.catalog, cli.Run.Catalog)
	assert.Equal(t, "Dylan", cli.Run.Initial)
	assert.Equal(t, []string{"gpt-4o:2.5,10", "mock:1,2"}, cli.Run.Cost)
	assert.Equal(t, 3, cli.Run.MaxSteps)
	assert.Equal(t, 30*time.Second, cli.Run.Timeout)
	assert.Equal(t, []string{".env"}, cli.EnvFile)
}

func TestRunCmdRequiresCatalog(t *testing.T) {
	f := newFixture(t)

	var cli CLI
	parser, err := kong.New(&cli, kongVars())
	require.NoError(t, err)
	_, err = parser.Parse([]string{"run", f.graph})
	assert.Error(t, err)
}

func TestRunMediation(t *testing.T) {
	f := newFixture(t)
	var out bytes.Buffer

	err := run([]string{"--config", f.config, "run", f.graph, "-a", f.catalog}, &out)
	require.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, "Mia response: Mocked response for prompt: You are Mia.")
	assert.Contains(t, text, "Dylan response: Mocked response for prompt: You are Dylan.")
	assert.Contains(t, text, "Dylan response: Mocked response for prompt: You are Dylan.\nYour goal is Go to Paris.\nBackstory: \n\nContext from the previous step:\nMia response:")
	assert.Contains(t, text, "Mediator response:")
	assert.Contains(t, text, "cost mock: 0.75")
	assert.Contains(t, text, "total cost: 0.75")
}

func TestRunInitialOverride(t *testing.T) {
	f := newFixture(t)
	var out bytes.Buffer

	err := run([]string{"--config", f.config, "run", f.graph, "-a", f.catalog, "--initial", "Mediator"}, &out)
	require.NoError(t, err)
	assert.NotContains(t, out.String(), "Mia response")
	assert.Contains(t, out.String(), "total cost: 0.25")

	err = run([]string{"--config", f.config, "run", f.graph, "-a", f.catalog, "--initial", "Ghost"}, &out)
	assert.ErrorIs(t, err, core.ErrUnknownAgent)
}

func TestRunMaxSteps(t *testing.T) {
	f := newFixture(t)
	var out bytes.Buffer

	err := run([]string{"--config", f.config, "run", f.graph, "-a", f.catalog, "--max-steps", "2"}, &out)
	assert.ErrorIs(t, err, core.ErrStepBudgetExceeded)
	assert.Contains(t, out.String(), "run failed at step 2")
	assert.Contains(t, out.String(), "total cost: 0.5")
}

func TestValidateCmd(t *testing.T) {
	f := newFixture(t)
	var out bytes.Buffer

	err := run([]string{"--config", f.config, "validate", f.graph, "-a", f.catalog}, &out)
	require.NoError(t, err)
	text := out.String()
	assert.Contains(t, text, "state Mia\n  -> Dylan (pass_context=true)")
	assert.Contains(t, text, "state Dylan\n  -> Mediator (pass_context=true)")
	assert.Contains(t, text, "ok: 3 states, 3 agents in catalog")
}

func TestValidateUnknownAgent(t *testing.T) {
	f := newFixture(t)
	bad := filepath.Join(f.dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"states":[{"name":"Ghost","connections":[]}],"context_passing":{}}`), 0o600))

	var out bytes.Buffer
	err := run([]string{"--config", f.config, "validate", bad, "-a", f.catalog}, &out)
	assert.ErrorIs(t, err, core.ErrUnknownAgent)
}

func TestModelsCmd(t *testing.T) {
	f := newFixture(t)
	var out bytes.Buffer

	err := run([]string{"--config", f.config, "models", "--cost", "mock:1,2"}, &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "* mock input=1 output=2")

	err = run([]string{"--config", f.config, "models", "--cost", "broken"}, &out)
	assert.Error(t, err)
}

func TestVersionCmd(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run([]string{"version"}, &out))
	assert.Contains(t, out.String(), "agentgraph version dev")
}
