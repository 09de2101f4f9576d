package agent

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstructionStatic(t *testing.T) {
	inst, err := NewInstructionFromText("{{.Name}} does {{.Description | upper}}")
	require.NoError(t, err)
	assert.True(t, inst.IsStatic())

	out, err := inst.Render(PromptData{Name: "Mia", Description: "travel"})
	require.NoError(t, err)
	assert.Equal(t, "Mia does TRAVEL", out)
}

func TestInstructionRejectsUnknownField(t *testing.T) {
	_, err := NewInstructionFromText("{{.Nickname}}")
	assert.Error(t, err)

	_, err = NewInstructionFromText("{{.Name")
	assert.Error(t, err)
}

func TestInstructionProvider(t *testing.T) {
	inst := NewInstructionFromFunc(func(d PromptData) (string, error) { return "dynamic " + d.Name, nil })
	assert.False(t, inst.IsStatic())

	out, err := inst.Render(PromptData{Name: "Dylan"})
	require.NoError(t, err)
	assert.Equal(t, "dynamic Dylan", out)

	boom := errors.New("boom")
	failing := NewInstructionFromFunc(func(PromptData) (string, error) { return "", boom })
	_, err = failing.Render(PromptData{})
	assert.ErrorIs(t, err, boom)
}

func TestInstructionZero(t *testing.T) {
	var inst Instruction
	assert.True(t, inst.IsZero())
	_, err := inst.Render(PromptData{})
	assert.Error(t, err)
}

func TestDefaultTemplateContextSection(t *testing.T) {
	out, err := defaultInstruction.Render(PromptData{Name: "M", Goal: "g", Backstory: "b", Description: "d", ExpectedOutput: "e", Context: "prev"})
	require.NoError(t, err)
	assert.Equal(t, "You are M.\nYour goal is g.\nBackstory: b\n\nContext from the previous step:\nprev\n\nTask: d\nExpected output: e", out)
}
