package tool

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hupe1980/agentgraph/internal/util"
)

// NewFromStruct derives the parameter schema from a struct using reflection and
// binds model arguments onto a copy of defaults before calling fn. Fields left
// out by the model keep the value they have in defaults, which makes defaults
// the capability's own fallback values.
//
// defaults is captured as JSON when the tool is built and decoded into a fresh
// value on every call, so pointer, slice and map fields are never shared
// between calls. Fields that do not survive encoding/json (json:"-" or
// unexported) start at their zero value.
//
// Field rules: the json tag names the parameter, the description tag documents
// it, and omitempty or pointer fields are optional.
//
// Example:
//
//	type WeatherArgs struct {
//	  Location string `json:"location" description:"The location to get the weather for"`
//	  Unit     string `json:"unit,omitempty" description:"The unit to get the temperature in"`
//	}
//
//	weather := tool.NewFromStruct("get_current_weather", "Get the current weather in a given location",
//	  WeatherArgs{Unit: "fahrenheit"},
//	  func(ctx context.Context, in WeatherArgs) (any, error) { return lookup(in.Location, in.Unit), nil },
//	)
func NewFromStruct[T any](name, description string, defaults T, fn func(ctx context.Context, in T) (any, error)) *Tool {
	base, err := json.Marshal(defaults)
	if err != nil {
		panic(fmt.Errorf("tool %q: encode defaults: %w", name, err))
	}

	t := New(name, description, func(ctx context.Context, args Args) (any, error) {
		var in T
		if err := json.Unmarshal(base, &in); err != nil {
			return nil, &InvocationError{Tool: name, Param: "*", Reason: fmt.Sprintf("decode defaults: %v", err)}
		}
		raw, err := json.Marshal(map[string]any(args))
		if err != nil {
			return nil, &InvocationError{Tool: name, Param: "*", Reason: fmt.Sprintf("encode arguments: %v", err)}
		}
		if err := json.Unmarshal(raw, &in); err != nil {
			return nil, &InvocationError{Tool: name, Param: "*", Reason: fmt.Sprintf("decode arguments: %v", err)}
		}
		return fn(ctx, in)
	})

	fields := util.StructFields(defaults)
	params := make([]Param, 0, len(fields))
	for _, f := range fields {
		params = append(params, Param{Name: f.Name, Type: f.Type, Description: f.Description, Required: f.Required})
	}
	if err := t.DefineParameters(params...); err != nil {
		// Struct fields carry unique json names and known types, so this only
		// happens for duplicate json tags.
		panic(err)
	}
	return t
}
