package eventbus

import (
	"fmt"

	"github.com/hupe1980/agentgraph/graph"
)

// DefaultPrefix is the subject prefix used when none is configured.
const DefaultPrefix = "agentgraph"

// Subject returns the subject an event type is published on.
func Subject(prefix string, t graph.EventType) string {
	return fmt.Sprintf("%s.%s", prefix, t)
}

// SubjectAll matches every event published under prefix.
func SubjectAll(prefix string) string {
	return prefix + ".>"
}
