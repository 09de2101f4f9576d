package agent

// Task is a description / expected-output pair an agent is asked to fulfill.
// It is a value type: an execution works on its own copy, so setters called
// after a run started cannot affect it.
type Task struct {
	Description      string `json:"description" yaml:"description"`
	ExpectedOutput   string `json:"expected_output" yaml:"expected_output"`
	StructuredOutput bool   `json:"structured_output" yaml:"structured_output"`
}

// NewTask creates a task with free-form output.
func NewTask(description, expectedOutput string) Task {
	return Task{Description: description, ExpectedOutput: expectedOutput}
}

// SetDescription replaces the description.
func (t *Task) SetDescription(d string) { t.Description = d }

// SetExpectedOutput replaces the expected output.
func (t *Task) SetExpectedOutput(o string) { t.ExpectedOutput = o }

// SetStructuredOutput toggles the JSON response requirement.
func (t *Task) SetStructuredOutput(b bool) { t.StructuredOutput = b }
