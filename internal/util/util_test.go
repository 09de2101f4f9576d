package util

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleArgs struct {
	Location string   `json:"location" description:"City name"`
	Unit     string   `json:"unit,omitempty" description:"Temperature unit"`
	Days     *int     `json:"days"`
	Tags     []string `json:"tags,omitempty"`
	Skipped  string   `json:"-"`
	hidden   string
}

func TestStructFields(t *testing.T) {
	fields := StructFields(sampleArgs{})
	require.Len(t, fields, 4)

	assert.Equal(t, Field{Name: "location", Type: "string", Description: "City name", Required: true}, fields[0])
	assert.Equal(t, "unit", fields[1].Name)
	assert.False(t, fields[1].Required)
	assert.Equal(t, "integer", fields[2].Type)
	assert.False(t, fields[2].Required)
	assert.Equal(t, "array", fields[3].Type)

	assert.Nil(t, StructFields(42))
	assert.Nil(t, StructFields(nil))
	assert.Len(t, StructFields(&sampleArgs{}), 4)
}

func TestIsValidType(t *testing.T) {
	tests := []struct {
		value    any
		expected string
		want     bool
	}{
		{"x", "string", true},
		{1, "string", false},
		{3.0, "integer", true},
		{3.5, "integer", false},
		{3.5, "number", true},
		{true, "boolean", true},
		{[]any{1}, "array", true},
		{[]string{"a"}, "array", true},
		{map[string]any{}, "object", true},
		{"x", "object", false},
		{nil, "integer", true},
		{"anything", "custom", true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsValidType(tt.value, tt.expected), "%v as %s", tt.value, tt.expected)
	}
}

func TestJSONType(t *testing.T) {
	assert.Equal(t, "number", JSONType(reflect.TypeOf(1.5)))
	assert.Equal(t, "object", JSONType(reflect.TypeOf(map[string]int{})))
	assert.Equal(t, "string", JSONType(reflect.TypeOf(new(string))))
}

func TestRenderTemplate(t *testing.T) {
	tmpl, err := ParseTemplate("p", "Hello {{.Name}}{{if .Extra}} ({{upper .Extra}}){{end}}")
	require.NoError(t, err)

	out, err := RenderTemplate(tmpl, map[string]any{"Name": "Mia", "Extra": "student"})
	require.NoError(t, err)
	assert.Equal(t, "Hello Mia (STUDENT)", out)

	_, err = RenderTemplate(tmpl, map[string]any{"Extra": ""})
	assert.Error(t, err, "missing key must fail")
}
