// Package config loads agentgraph host configuration from YAML or TOML files,
// an optional .env file and AGENTGRAPH_* environment variables.
//
// Precedence, lowest first: built-in defaults, the config file, the
// environment. Values in a YAML file may reference environment variables
// with ${VAR}.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/hupe1980/agentgraph/graph"
	"github.com/hupe1980/agentgraph/logging"
	"github.com/hupe1980/agentgraph/model"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "AGENTGRAPH_"

// Config is the complete host configuration.
type Config struct {
	Model   ModelConfig            `yaml:"model" toml:"model"`
	Pricing map[string]model.Price `yaml:"pricing" toml:"pricing"`
	Mock    MockConfig             `yaml:"mock" toml:"mock"`
	Graph   GraphConfig            `yaml:"graph" toml:"graph"`
	Audit   AuditConfig            `yaml:"audit" toml:"audit"`
	Logging LoggingConfig          `yaml:"logging" toml:"logging"`
	Events  EventsConfig           `yaml:"events" toml:"events"`
}

// ModelConfig selects and tunes the model backend.
type ModelConfig struct {
	Provider      string            `yaml:"provider" toml:"provider"` // mock, openai or anthropic
	Name          string            `yaml:"name" toml:"name"`
	Temperature   float64           `yaml:"temperature" toml:"temperature"`
	MaxTokens     int               `yaml:"max_tokens" toml:"max_tokens"`
	APIKeyEnv     string            `yaml:"api_key_env" toml:"api_key_env"`
	BaseURL       string            `yaml:"base_url" toml:"base_url"`
	MaxToolRounds int               `yaml:"max_tool_rounds" toml:"max_tool_rounds"`
	Aliases       map[string]string `yaml:"aliases" toml:"aliases"` // catalog name -> backend model id
}

// MockConfig tunes the mock backend.
type MockConfig struct {
	Cost float64 `yaml:"cost" toml:"cost"`
}

// GraphConfig tunes graph runs.
type GraphConfig struct {
	MaxSteps   int    `yaml:"max_steps" toml:"max_steps"`
	Precedence string `yaml:"precedence" toml:"precedence"` // override_first or edge_first
}

// AuditConfig selects the audit sink.
type AuditConfig struct {
	Backend string `yaml:"backend" toml:"backend"` // none, memory, file or sqlite
	Path    string `yaml:"path" toml:"path"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"` // json, text or tint
}

// EventsConfig configures NATS event publishing.
type EventsConfig struct {
	Enabled bool   `yaml:"enabled" toml:"enabled"`
	URL     string `yaml:"url" toml:"url"`
	// Embedded starts an in-process NATS server instead of dialing URL.
	Embedded bool   `yaml:"embedded" toml:"embedded"`
	Prefix   string `yaml:"prefix" toml:"prefix"`
}

// Default returns the built-in configuration: the mock backend, a file
// transcript and JSON logging at info level.
func Default() *Config {
	return &Config{
		Model: ModelConfig{
			Provider:    "mock",
			Temperature: 0.7,
			MaxTokens:   4096,
		},
		Mock: MockConfig{Cost: model.DefaultMockCost},
		Graph: GraphConfig{
			Precedence: graph.OverrideFirst.String(),
		},
		Audit: AuditConfig{
			Backend: "file",
			Path:    "response.txt",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Events: EventsConfig{
			URL:    "nats://127.0.0.1:4222",
			Prefix: "agentgraph",
		},
	}
}

// Load reads path over the defaults and applies environment overrides. The
// format follows the extension: .toml, or .yaml/.yml. An empty path yields
// defaults plus environment.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.decodeFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decodeFile(path string) error {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if _, err := toml.DecodeFile(path, c); err != nil {
			return fmt.Errorf("parse config %s: %w", path, err)
		}
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), c); err != nil {
			return fmt.Errorf("parse config %s: %w", path, err)
		}
	default:
		return fmt.Errorf("unsupported config format %q", ext)
	}
	return nil
}

// LoadDotEnv loads .env style files into the process environment without
// overriding variables that are already set. Missing files are skipped.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// ApplyEnv overrides fields from AGENTGRAPH_* variables.
func (c *Config) ApplyEnv() error {
	str := map[string]*string{
		"MODEL_PROVIDER":    &c.Model.Provider,
		"MODEL_NAME":        &c.Model.Name,
		"MODEL_API_KEY_ENV": &c.Model.APIKeyEnv,
		"MODEL_BASE_URL":    &c.Model.BaseURL,
		"GRAPH_PRECEDENCE":  &c.Graph.Precedence,
		"AUDIT_BACKEND":     &c.Audit.Backend,
		"AUDIT_PATH":        &c.Audit.Path,
		"LOG_LEVEL":         &c.Logging.Level,
		"LOG_FORMAT":        &c.Logging.Format,
		"EVENTS_URL":        &c.Events.URL,
		"EVENTS_PREFIX":     &c.Events.Prefix,
	}
	for key, dst := range str {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"MODEL_MAX_TOKENS":      &c.Model.MaxTokens,
		"MODEL_MAX_TOOL_ROUNDS": &c.Model.MaxToolRounds,
		"GRAPH_MAX_STEPS":       &c.Graph.MaxSteps,
	}
	for key, dst := range ints {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
			}
			*dst = n
		}
	}

	floats := map[string]*float64{
		"MODEL_TEMPERATURE": &c.Model.Temperature,
		"MOCK_COST":         &c.Mock.Cost,
	}
	for key, dst := range floats {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
			}
			*dst = f
		}
	}

	bools := map[string]*bool{
		"EVENTS_ENABLED":  &c.Events.Enabled,
		"EVENTS_EMBEDDED": &c.Events.Embedded,
	}
	for key, dst := range bools {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
			}
			*dst = b
		}
	}
	return nil
}

// Validate checks enumerations and ranges.
func (c *Config) Validate() error {
	var errs []error

	switch c.Model.Provider {
	case "mock", "openai", "anthropic":
	default:
		errs = append(errs, fmt.Errorf("model.provider: unknown provider %q", c.Model.Provider))
	}
	if c.Model.MaxTokens < 0 {
		errs = append(errs, errors.New("model.max_tokens must not be negative"))
	}
	if c.Model.MaxToolRounds < 0 {
		errs = append(errs, errors.New("model.max_tool_rounds must not be negative"))
	}
	if c.Mock.Cost < 0 {
		errs = append(errs, errors.New("mock.cost must not be negative"))
	}
	for name, p := range c.Pricing {
		if p.InputPer1M < 0 || p.OutputPer1M < 0 {
			errs = append(errs, fmt.Errorf("pricing.%s: prices must not be negative", name))
		}
	}
	if c.Graph.MaxSteps < 0 {
		errs = append(errs, errors.New("graph.max_steps must not be negative"))
	}
	if _, err := graph.ParsePrecedence(c.Graph.Precedence); err != nil {
		errs = append(errs, fmt.Errorf("graph.precedence: %w", err))
	}
	switch c.Audit.Backend {
	case "", "none", "memory":
	case "file", "sqlite":
		if c.Audit.Path == "" {
			errs = append(errs, fmt.Errorf("audit.path is required for backend %q", c.Audit.Backend))
		}
	default:
		errs = append(errs, fmt.Errorf("audit.backend: unknown backend %q", c.Audit.Backend))
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, fmt.Errorf("logging.level: %w", err))
	}
	switch c.Logging.Format {
	case "json", "text", "tint":
	default:
		errs = append(errs, fmt.Errorf("logging.format: unknown format %q", c.Logging.Format))
	}
	if c.Events.Enabled && !c.Events.Embedded && c.Events.URL == "" {
		errs = append(errs, errors.New("events.url is required unless events.embedded is set"))
	}
	return errors.Join(errs...)
}

// APIKey returns the provider API key from the configured variable, or the
// provider's conventional variable when none is configured.
func (c *Config) APIKey() string {
	env := c.Model.APIKeyEnv
	if env == "" {
		env = DefaultAPIKeyEnv(c.Model.Provider)
	}
	if env == "" {
		return ""
	}
	return os.Getenv(env)
}

// DefaultAPIKeyEnv returns the conventional API key variable for a provider.
func DefaultAPIKeyEnv(provider string) string {
	switch provider {
	case "openai":
		return "OPENAI_API_KEY"
	case "anthropic":
		return "ANTHROPIC_API_KEY"
	default:
		return ""
	}
}

// LoggerConfig converts the logging section. Validate has already checked the level.
func (c *Config) LoggerConfig() *logging.LoggerConfig {
	cfg := logging.DefaultLoggerConfig()
	if lvl, err := logging.ParseLevel(c.Logging.Level); err == nil {
		cfg.Level = lvl
	}
	cfg.Format = c.Logging.Format
	return cfg
}

// PricingTable returns the default prices overlaid with the configured ones.
func (c *Config) PricingTable() *model.Pricing {
	p := model.DefaultPricing()
	for name, price := range c.Pricing {
		p.Set(name, price)
	}
	return p
}

// GraphPrecedence parses the graph precedence. Validate has already checked it.
func (c *Config) GraphPrecedence() graph.Precedence {
	p, _ := graph.ParsePrecedence(c.Graph.Precedence)
	return p
}
