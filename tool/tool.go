// Package tool implements the function / tool calling subsystem that lets agents
// expose structured capabilities (APIs, computations, side-effects) to a model
// with schema validated arguments, consistent error handling and metadata that
// guides the model's choice of tool.
package tool

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/hupe1980/agentgraph/core"
	"github.com/hupe1980/agentgraph/internal/util"
)

// Param declares one argument of a tool.
type Param struct {
	Name        string `json:"name"`
	Type        string `json:"type"` // JSON schema primitive: string, integer, number, boolean, array, object
	Description string `json:"description"`
	Required    bool   `json:"required"`
}

// Property is one entry of the exported parameter schema.
type Property struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

// ParameterSchema is the JSON schema object describing a tool's arguments.
type ParameterSchema struct {
	Type       string              `json:"type"` // always "object"
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required"`
}

// Map renders the schema as a plain map, the shape model SDKs accept.
func (p ParameterSchema) Map() map[string]any {
	props := make(map[string]any, len(p.Properties))
	for name, prop := range p.Properties {
		props[name] = map[string]any{"type": prop.Type, "description": prop.Description}
	}
	required := make([]string, len(p.Required))
	copy(required, p.Required)
	return map[string]any{
		"type":       p.Type,
		"properties": props,
		"required":   required,
	}
}

// Schema is the declarative description of a tool handed to the model.
type Schema struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  ParameterSchema `json:"parameters"`
}

// Args carries bound arguments into a capability.
type Args map[string]any

// String returns the named argument as a string ("" when absent or not a string).
func (a Args) String(name string) string {
	s, _ := a[name].(string)
	return s
}

// Float returns the named argument as a float64.
func (a Args) Float(name string) float64 {
	switch v := a[name].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return 0
}

// Int returns the named argument as an int.
func (a Args) Int(name string) int { return int(a.Float(name)) }

// Bool returns the named argument as a bool.
func (a Args) Bool(name string) bool {
	b, _ := a[name].(bool)
	return b
}

// Func is the capability wrapped by a Tool.
type Func func(ctx context.Context, args Args) (any, error)

// Options configure a Tool.
type Options struct {
	// Defaults are the capability's own values for optional parameters.
	// They are applied when the model omits the argument.
	Defaults map[string]any
}

// Tool wraps a capability with a declared parameter schema.
//
// A Tool has no mutable state after its parameters are defined and is safe
// for concurrent Invoke calls.
type Tool struct {
	name        string
	description string
	fn          Func
	defaults    map[string]any
	params      []Param
	defined     bool
}

// New constructs a Tool. DefineParameters must be called before Export or Invoke.
//
// Example:
//
//	weather := tool.New("get_current_weather", "Get the current weather in a given location",
//	  func(ctx context.Context, args tool.Args) (any, error) {
//	    return lookup(args.String("location"), args.String("unit")), nil
//	  },
//	  func(o *tool.Options) { o.Defaults = map[string]any{"unit": "fahrenheit"} },
//	)
//	_ = weather.DefineParameters(
//	  tool.Param{Name: "location", Type: "string", Description: "The location", Required: true},
//	  tool.Param{Name: "unit", Type: "string", Description: "Temperature unit"},
//	)
func New(name, description string, fn Func, optFns ...func(o *Options)) *Tool {
	opts := Options{}
	for _, o := range optFns {
		o(&opts)
	}
	return &Tool{
		name:        name,
		description: description,
		fn:          fn,
		defaults:    opts.Defaults,
	}
}

// Name returns the unique tool name used in tool call declarations and routing.
func (t *Tool) Name() string { return t.name }

// Description returns the natural language description exposed to models.
func (t *Tool) Description() string { return t.description }

// Defined reports whether DefineParameters has been called.
func (t *Tool) Defined() bool { return t.defined }

// Params returns a copy of the declared parameters in declaration order.
func (t *Tool) Params() []Param {
	out := make([]Param, len(t.params))
	copy(out, t.params)
	return out
}

var validTypes = map[string]bool{
	"string": true, "integer": true, "number": true,
	"boolean": true, "array": true, "object": true,
}

// DefineParameters declares the ordered parameter list. It may be called only once.
// Every default supplied through Options must name a declared optional parameter.
func (t *Tool) DefineParameters(params ...Param) error {
	if t.defined {
		return fmt.Errorf("tool %q: parameters already defined: %w", t.name, core.ErrIllegalState)
	}
	seen := make(map[string]Param, len(params))
	for _, p := range params {
		if strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("tool %q: parameter with empty name", t.name)
		}
		if _, dup := seen[p.Name]; dup {
			return fmt.Errorf("tool %q: duplicate parameter %q", t.name, p.Name)
		}
		if !validTypes[p.Type] {
			return fmt.Errorf("tool %q: parameter %q has unsupported type %q", t.name, p.Name, p.Type)
		}
		seen[p.Name] = p
	}
	for name := range t.defaults {
		p, ok := seen[name]
		if !ok {
			return fmt.Errorf("tool %q: default for undeclared parameter %q", t.name, name)
		}
		if p.Required {
			return fmt.Errorf("tool %q: default for required parameter %q", t.name, name)
		}
	}
	t.params = append([]Param(nil), params...)
	t.defined = true
	return nil
}

// Export produces the declarative schema for the model.
func (t *Tool) Export() (Schema, error) {
	if !t.defined {
		return Schema{}, fmt.Errorf("tool %q: %w", t.name, core.ErrSchemaNotDefined)
	}
	properties := make(map[string]Property, len(t.params))
	required := make([]string, 0, len(t.params))
	for _, p := range t.params {
		properties[p.Name] = Property{Type: p.Type, Description: p.Description}
		if p.Required {
			required = append(required, p.Name)
		}
	}
	return Schema{
		Name:        t.name,
		Description: t.description,
		Parameters: ParameterSchema{
			Type:       "object",
			Properties: properties,
			Required:   required,
		},
	}, nil
}

// Invoke binds args against the declared parameters and calls the capability.
//
// Error Semantics:
//
//	schema never defined         -> core.ErrSchemaNotDefined
//	missing / unknown / mistyped -> *InvocationError naming the parameter
//	capability error             -> returned unchanged
func (t *Tool) Invoke(ctx context.Context, args map[string]any) (any, error) {
	if !t.defined {
		return nil, fmt.Errorf("tool %q: %w", t.name, core.ErrSchemaNotDefined)
	}
	bound, err := t.bind(args)
	if err != nil {
		return nil, err
	}
	return t.fn(ctx, bound)
}

func (t *Tool) bind(args map[string]any) (Args, error) {
	declared := make(map[string]Param, len(t.params))
	for _, p := range t.params {
		declared[p.Name] = p
	}

	for _, p := range t.params {
		if v, ok := args[p.Name]; p.Required && (!ok || v == nil) {
			return nil, &InvocationError{Tool: t.name, Param: p.Name, Reason: "missing required parameter"}
		}
	}

	names := make([]string, 0, len(args))
	for name := range args {
		names = append(names, name)
	}
	sort.Strings(names)

	bound := make(Args, len(t.params))
	for _, name := range names {
		p, ok := declared[name]
		if !ok {
			return nil, &InvocationError{Tool: t.name, Param: name, Reason: "unknown parameter"}
		}
		value := args[name]
		if !util.IsValidType(value, p.Type) {
			return nil, &InvocationError{
				Tool:   t.name,
				Param:  name,
				Reason: fmt.Sprintf("expected type %s, got %T", p.Type, value),
			}
		}
		bound[name] = value
	}

	for name, def := range t.defaults {
		if v, ok := bound[name]; !ok || v == nil {
			bound[name] = def
		}
	}
	return bound, nil
}
