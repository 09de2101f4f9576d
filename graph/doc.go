// Package graph sequences agent turns with a state machine.
//
// A StateGraph holds ExecutionStates, each wrapping one agent, and guarded
// Connections between them. Run executes the current state, takes the first
// outgoing connection whose guard matches (insertion order), optionally
// forwards the response as context into the next state, and stops when no
// connection is taken.
//
// Progress is published exclusively through an EventSink. Each Run ends with
// exactly one OnRunFinished or one OnError call.
//
// Graphs persist as JSON:
//
//	{
//	  "states": [{"name": "Mia", "x": 0, "y": 0, "connections": [{"to": "Mediator", "pass_context": true}]}],
//	  "context_passing": {"Mia": {"Mediator": true}}
//	}
//
// Agents are referenced by name and resolved against a host supplied Catalog.
package graph
