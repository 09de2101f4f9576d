// Package builtin provides ready-made tools that need no external services.
package builtin

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/agentgraph/tool"
)

// DateTimeArgs are the arguments of the datetime_now tool.
type DateTimeArgs struct {
	Timezone string `json:"timezone,omitempty" description:"IANA time zone, e.g. Europe/Berlin. Defaults to UTC."`
	Format   string `json:"format,omitempty" description:"Go time layout for the result. Defaults to RFC3339."`
}

// DateTime returns a tool reporting the current time in a given time zone.
// now is injectable for tests; nil means time.Now.
func DateTime(now func() time.Time) *tool.Tool {
	if now == nil {
		now = time.Now
	}
	return tool.NewFromStruct("datetime_now", "Get the current date and time in a given time zone",
		DateTimeArgs{Timezone: "UTC", Format: time.RFC3339},
		func(_ context.Context, in DateTimeArgs) (any, error) {
			loc, err := time.LoadLocation(in.Timezone)
			if err != nil {
				return nil, fmt.Errorf("unknown time zone %q: %w", in.Timezone, err)
			}
			return now().In(loc).Format(in.Format), nil
		},
	)
}
