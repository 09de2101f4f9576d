package tool

import (
	"fmt"
	"sort"
	"sync"

	"github.com/hupe1980/agentgraph/core"
)

// Registry maps tool names to tools for resolution during a model conversation.
//
// Register is last-write-wins: registering a second tool under an existing
// name silently replaces the first. The registry is guarded by a read/write
// mutex so a single instance may be shared by concurrently running graphs.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]*Tool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]*Tool)}
}

// Register stores t under its name, replacing any previous tool with that name.
func (r *Registry) Register(t *Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[t.Name()] = t
}

// RegisterAll registers several tools in order.
func (r *Registry) RegisterAll(tools ...*Tool) {
	for _, t := range tools {
		r.Register(t)
	}
}

// Resolve returns the tool registered under name.
func (r *Registry) Resolve(name string) (*Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrToolNotFound, name)
	}
	return t, nil
}

// List returns every registered tool sorted by name.
func (r *Registry) List() []*Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Tool, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}
