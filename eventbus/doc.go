// Package eventbus publishes graph run events to NATS.
//
// A Publisher is a graph.EventSink: attach it through graph.Options.Sink (or
// a graph.MultiSink) and every state transition of a run is published as a
// JSON graph.Event on a subject derived from a configurable prefix:
//
//	<prefix>.state.entered
//	<prefix>.state.finished
//	<prefix>.run.finished
//	<prefix>.run.error
//
// Server embeds a nats-server for single-process hosts and tests.
package eventbus
