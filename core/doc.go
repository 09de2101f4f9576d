// Package core provides the foundational error taxonomy and identifier helpers
// shared by every agentgraph package. It defines:
//
//   - Sentinel errors for precondition, schema, invocation, transport and
//     catalog failures (inspect them with errors.Is)
//   - Stable identifier generation for runs, audit records and tool calls
//
// The package intentionally has no dependencies on the rest of the module so
// that tool, model, client, agent and graph can all share the same vocabulary
// without import cycles.
package core
