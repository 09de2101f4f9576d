package tool

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/hupe1980/agentgraph/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -------------------- Definition & Export --------------------

func newWeatherTool(t *testing.T) *Tool {
	t.Helper()
	wt := New("get_current_weather", "Get the current weather in a given location",
		func(ctx context.Context, args Args) (any, error) {
			return map[string]any{"location": args.String("location"), "unit": args.String("unit")}, nil
		},
		func(o *Options) { o.Defaults = map[string]any{"unit": "fahrenheit"} },
	)
	require.NoError(t, wt.DefineParameters(
		Param{Name: "location", Type: "string", Description: "The location to get the weather for", Required: true},
		Param{Name: "unit", Type: "string", Description: "The unit to get the temperature in"},
	))
	return wt
}

func TestExport(t *testing.T) {
	wt := newWeatherTool(t)

	schema, err := wt.Export()
	require.NoError(t, err)
	assert.Equal(t, "get_current_weather", schema.Name)
	assert.Equal(t, "Get the current weather in a given location", schema.Description)
	assert.Equal(t, "object", schema.Parameters.Type)
	assert.Equal(t, []string{"location"}, schema.Parameters.Required)
	assert.Equal(t, Property{Type: "string", Description: "The unit to get the temperature in"}, schema.Parameters.Properties["unit"])

	m := schema.Parameters.Map()
	assert.Equal(t, "object", m["type"])
	assert.Contains(t, m["properties"], "location")
}

func TestExportIdempotent(t *testing.T) {
	wt := newWeatherTool(t)
	a, err := wt.Export()
	require.NoError(t, err)
	b, err := wt.Export()
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestExportBeforeDefine(t *testing.T) {
	wt := New("noop", "does nothing", func(context.Context, Args) (any, error) { return nil, nil })
	_, err := wt.Export()
	assert.ErrorIs(t, err, core.ErrSchemaNotDefined)

	_, err = wt.Invoke(context.Background(), map[string]any{})
	assert.ErrorIs(t, err, core.ErrSchemaNotDefined)
}

func TestExportEmptyParams(t *testing.T) {
	wt := New("ping", "ping", func(context.Context, Args) (any, error) { return "pong", nil })
	require.NoError(t, wt.DefineParameters())

	schema, err := wt.Export()
	require.NoError(t, err)
	assert.Empty(t, schema.Parameters.Properties)
	assert.Empty(t, schema.Parameters.Required)
}

func TestDefineParameters(t *testing.T) {
	fn := func(context.Context, Args) (any, error) { return nil, nil }

	tests := []struct {
		name     string
		defaults map[string]any
		params   []Param
		wantErr  bool
	}{
		{name: "valid", params: []Param{{Name: "a", Type: "string"}}},
		{name: "empty name", params: []Param{{Name: " ", Type: "string"}}, wantErr: true},
		{name: "duplicate", params: []Param{{Name: "a", Type: "string"}, {Name: "a", Type: "number"}}, wantErr: true},
		{name: "bad type", params: []Param{{Name: "a", Type: "float"}}, wantErr: true},
		{name: "default for undeclared", defaults: map[string]any{"b": 1}, params: []Param{{Name: "a", Type: "string"}}, wantErr: true},
		{name: "default for required", defaults: map[string]any{"a": "x"}, params: []Param{{Name: "a", Type: "string", Required: true}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wt := New("t", "t", fn, func(o *Options) { o.Defaults = tt.defaults })
			err := wt.DefineParameters(tt.params...)
			if tt.wantErr {
				assert.Error(t, err)
				assert.False(t, wt.Defined())
			} else {
				assert.NoError(t, err)
				assert.True(t, wt.Defined())
			}
		})
	}
}

func TestDefineParametersOnce(t *testing.T) {
	wt := newWeatherTool(t)
	err := wt.DefineParameters(Param{Name: "other", Type: "string"})
	assert.ErrorIs(t, err, core.ErrIllegalState)
	assert.Len(t, wt.Params(), 2)
}

// -------------------- Invocation --------------------

func TestInvokeAppliesDefaults(t *testing.T) {
	wt := newWeatherTool(t)

	out, err := wt.Invoke(context.Background(), map[string]any{"location": "Boston, MA"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"location": "Boston, MA", "unit": "fahrenheit"}, out)

	out, err = wt.Invoke(context.Background(), map[string]any{"location": "Paris", "unit": "celsius"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"location": "Paris", "unit": "celsius"}, out)
}

func TestInvokeBindingErrors(t *testing.T) {
	wt := newWeatherTool(t)

	tests := []struct {
		name  string
		args  map[string]any
		param string
	}{
		{name: "missing required", args: map[string]any{"unit": "celsius"}, param: "location"},
		{name: "nil required", args: map[string]any{"location": nil}, param: "location"},
		{name: "unknown", args: map[string]any{"location": "x", "zip": "02110"}, param: "zip"},
		{name: "mistyped", args: map[string]any{"location": 42.0}, param: "location"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := wt.Invoke(context.Background(), tt.args)
			require.Error(t, err)
			assert.ErrorIs(t, err, core.ErrInvocation)

			var invErr *InvocationError
			require.True(t, errors.As(err, &invErr))
			assert.Equal(t, tt.param, invErr.Param)
			assert.Equal(t, "get_current_weather", invErr.Tool)
		})
	}
}

func TestInvokeIntegerAcceptsWholeFloat(t *testing.T) {
	wt := New("add", "adds", func(_ context.Context, args Args) (any, error) {
		return args.Int("a") + args.Int("b"), nil
	})
	require.NoError(t, wt.DefineParameters(
		Param{Name: "a", Type: "integer", Required: true},
		Param{Name: "b", Type: "integer", Required: true},
	))

	out, err := wt.Invoke(context.Background(), map[string]any{"a": 2.0, "b": 3})
	require.NoError(t, err)
	assert.Equal(t, 5, out)

	_, err = wt.Invoke(context.Background(), map[string]any{"a": 2.5, "b": 3})
	assert.ErrorIs(t, err, core.ErrInvocation)
}

var errDomain = errors.New("city not found")

func TestInvokeDomainErrorPropagates(t *testing.T) {
	wt := New("lookup", "fails", func(context.Context, Args) (any, error) { return nil, errDomain })
	require.NoError(t, wt.DefineParameters())

	_, err := wt.Invoke(context.Background(), nil)
	assert.Same(t, errDomain, err)
}

func TestInvokeConcurrent(t *testing.T) {
	wt := newWeatherTool(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := wt.Invoke(context.Background(), map[string]any{"location": "Berlin"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
}

// -------------------- Struct-derived tools --------------------

type timeArgs struct {
	Location string `json:"location" description:"The location to get the time for"`
	Format   string `json:"format,omitempty" description:"Layout of the returned time"`
	Offset   *int   `json:"offset" description:"Hour offset"`
}

func TestNewFromStruct(t *testing.T) {
	tt := NewFromStruct("get_current_time", "Get the current time in a given location",
		timeArgs{Format: "15:04"},
		func(_ context.Context, in timeArgs) (any, error) {
			return in.Location + "@" + in.Format, nil
		},
	)

	schema, err := tt.Export()
	require.NoError(t, err)
	assert.Equal(t, []string{"location"}, schema.Parameters.Required)
	assert.Len(t, schema.Parameters.Properties, 3)
	assert.Equal(t, "integer", schema.Parameters.Properties["offset"].Type)

	out, err := tt.Invoke(context.Background(), map[string]any{"location": "Tokyo"})
	require.NoError(t, err)
	assert.Equal(t, "Tokyo@15:04", out)

	out, err = tt.Invoke(context.Background(), map[string]any{"location": "Tokyo", "format": "3PM"})
	require.NoError(t, err)
	assert.Equal(t, "Tokyo@3PM", out)

	_, err = tt.Invoke(context.Background(), map[string]any{})
	assert.ErrorIs(t, err, core.ErrInvocation)
}

type weatherArgs struct {
	Location string            `json:"location" description:"City"`
	Unit     *string           `json:"unit,omitempty" description:"Temperature unit"`
	Tags     map[string]string `json:"tags,omitempty" description:"Extra labels"`
}

func TestNewFromStructDefaultsNotShared(t *testing.T) {
	fahrenheit := "fahrenheit"
	var seen []string
	tt := NewFromStruct("get_current_weather", "Get the current weather",
		weatherArgs{Unit: &fahrenheit, Tags: map[string]string{"source": "default"}},
		func(_ context.Context, in weatherArgs) (any, error) {
			seen = append(seen, *in.Unit+"/"+in.Tags["source"])
			return nil, nil
		},
	)

	_, err := tt.Invoke(context.Background(), map[string]any{
		"location": "Paris",
		"unit":     "celsius",
		"tags":     map[string]any{"source": "model"},
	})
	require.NoError(t, err)
	_, err = tt.Invoke(context.Background(), map[string]any{"location": "Paris"})
	require.NoError(t, err)

	assert.Equal(t, []string{"celsius/model", "fahrenheit/default"}, seen)
	assert.Equal(t, "fahrenheit", fahrenheit)
}
