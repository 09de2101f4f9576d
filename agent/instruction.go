package agent

import (
	"fmt"
	"text/template"

	"github.com/hupe1980/agentgraph/internal/util"
)

// DefaultPromptTemplate is the prompt every agent renders unless configured otherwise.
const DefaultPromptTemplate = `You are {{.Name}}.
Your goal is {{.Goal}}.
Backstory: {{.Backstory}}
{{- with .Context}}

Context from the previous step:
{{.}}
{{- end}}

Task: {{.Description}}
Expected output: {{.ExpectedOutput}}`

// JSONInstruction is appended after rendering when structured output is requested.
const JSONInstruction = "Respond only with a valid JSON object. Do not include any text outside the JSON."

// PromptData is the value a prompt template is executed with.
type PromptData struct {
	Name           string
	Goal           string
	Backstory      string
	Description    string
	ExpectedOutput string
	// Context is the inbound context, empty when none was forwarded.
	Context string
}

// Provider renders prompt text dynamically.
type Provider interface {
	Prompt(data PromptData) (string, error)
}

// Func is a functional adapter to allow ordinary functions to be used as Providers.
type Func func(data PromptData) (string, error)

// Prompt implements Provider.
func (f Func) Prompt(data PromptData) (string, error) { return f(data) }

// Instruction is either a parsed text template or a dynamic provider.
type Instruction struct {
	tmpl     *template.Template
	provider Provider
}

// NewInstructionFromText parses text as a text/template. Templates referencing
// fields PromptData does not have are rejected here rather than at run time.
func NewInstructionFromText(text string) (Instruction, error) {
	tmpl, err := util.ParseTemplate("prompt", text)
	if err != nil {
		return Instruction{}, fmt.Errorf("parse prompt template: %w", err)
	}
	if _, err := util.RenderTemplate(tmpl, PromptData{}); err != nil {
		return Instruction{}, fmt.Errorf("invalid prompt template: %w", err)
	}
	return Instruction{tmpl: tmpl}, nil
}

// MustInstructionFromText is like NewInstructionFromText but panics on error.
func MustInstructionFromText(text string) Instruction {
	i, err := NewInstructionFromText(text)
	if err != nil {
		panic(err)
	}
	return i
}

// NewInstructionFromProvider creates an Instruction from a dynamic provider.
func NewInstructionFromProvider(p Provider) Instruction { return Instruction{provider: p} }

// NewInstructionFromFunc creates an Instruction from a function.
func NewInstructionFromFunc(f func(data PromptData) (string, error)) Instruction {
	return Instruction{provider: Func(f)}
}

// IsStatic reports whether the instruction is backed by a template.
func (i Instruction) IsStatic() bool { return i.provider == nil }

// IsZero reports whether the instruction was never initialized.
func (i Instruction) IsZero() bool { return i.tmpl == nil && i.provider == nil }

// Render produces the prompt text for data.
func (i Instruction) Render(data PromptData) (string, error) {
	if i.provider != nil {
		return i.provider.Prompt(data)
	}
	if i.tmpl == nil {
		return "", fmt.Errorf("empty instruction")
	}
	return util.RenderTemplate(i.tmpl, data)
}

var defaultInstruction = MustInstructionFromText(DefaultPromptTemplate)
