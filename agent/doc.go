// Package agent contains the Agent: an immutable identity (name, goal,
// backstory) plus an assignable Task and a toolset, able to run one task
// execution turn against a model client.
//
// Execution model:
//   - Each ExecuteTask call receives an explicit Execution value carrying the
//     task and the inbound context for that single run, so nothing from one
//     run leaks into the next
//   - The prompt is rendered from an Instruction (text/template) and, when
//     structured output is requested, followed by a JSON instruction
//   - Tools are exported to schemas and offered to the model; tool rounds are
//     handled by the client
//   - Every executed task appends exactly one audit record
package agent
