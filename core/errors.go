package core

import "errors"

var (
	// ErrIllegalState reports an operation attempted without its precondition:
	// no task assigned, a state that is not registered, an endpoint from another
	// graph, or a second concurrent run of the same graph.
	ErrIllegalState = errors.New("illegal state")

	// ErrSchemaNotDefined is returned when a tool is exported or invoked before
	// its parameters were declared.
	ErrSchemaNotDefined = errors.New("tool schema not defined")

	// ErrInvocation marks argument binding failures (missing required, unknown
	// or mistyped parameter). tool.InvocationError matches it via errors.Is.
	ErrInvocation = errors.New("tool invocation error")

	// ErrToolNotFound is returned when a registry has no tool under a name.
	ErrToolNotFound = errors.New("tool not found")

	// ErrTransport wraps failures to reach the model backend or to interpret
	// its response. It is fatal for the current run.
	ErrTransport = errors.New("model transport error")

	// ErrUnknownAgent is returned when a persisted graph references an agent
	// name absent from the supplied catalog.
	ErrUnknownAgent = errors.New("unknown agent")

	// ErrNoValidTransition is not a failure. It labels the termination of a
	// run that stopped because no guard matched on a state that had
	// outgoing connections.
	ErrNoValidTransition = errors.New("no valid transition")

	// ErrStepBudgetExceeded is returned when a graph configured with a step
	// budget executes more states than allowed.
	ErrStepBudgetExceeded = errors.New("step budget exceeded")
)
