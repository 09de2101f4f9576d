package tool

import (
	"fmt"

	"github.com/hupe1980/agentgraph/core"
)

// InvocationError reports an argument binding failure for one parameter.
type InvocationError struct {
	Tool   string `json:"tool"`
	Param  string `json:"param"`
	Reason string `json:"reason"`
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("tool %q: parameter %q: %s", e.Tool, e.Param, e.Reason)
}

// Is makes errors.Is(err, core.ErrInvocation) succeed.
func (e *InvocationError) Is(target error) bool { return target == core.ErrInvocation }
