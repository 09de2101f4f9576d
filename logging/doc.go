// Package logging provides a minimal logging interface and adapters for agentgraph.
//
// The Logger interface defines the standard leveled methods (Debug, Info, Warn,
// Error) taking a message plus alternating key/value pairs, the same shape as
// log/slog. This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping an existing *slog.Logger
//   - StructuredLogger with component and run scoping over JSON, text or
//     tint (colored console) handlers
//   - NoOpLogger for silent operation (testing, minimal setups)
//
// Usage:
//
//	logger := logging.NewLogger(&logging.LoggerConfig{Level: logging.LogLevelDebug, Format: "text", Output: os.Stderr})
//	g := graph.New(func(o *graph.Options) { o.Logger = logger.WithComponent("graph") })
//
// The interface is intentionally small so any structured logger can be plugged in.
package logging
