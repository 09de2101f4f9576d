package core

import (
	"fmt"
	"sync"
)

// Limiter enforces a maximum number of steps, such as graph state executions
// or tool rounds within one model call.
type Limiter struct {
	name  string
	max   int
	count int
	mu    sync.Mutex
}

// NewLimiter creates a limiter allowing max steps. If max == 0, unlimited steps are allowed.
func NewLimiter(name string, max int) *Limiter {
	return &Limiter{name: name, max: max}
}

// Increment records one step and returns ErrStepBudgetExceeded once the limit is passed.
func (l *Limiter) Increment() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.count++
	if l.max > 0 && l.count > l.max {
		return fmt.Errorf("%s: exceeded limit of %d: %w", l.name, l.max, ErrStepBudgetExceeded)
	}

	return nil
}

// Count returns the number of steps recorded so far.
func (l *Limiter) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.count
}

// Remaining returns how many steps are left before hitting the limit, or -1 when unlimited.
func (l *Limiter) Remaining() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.max == 0 {
		return -1
	}
	if l.count >= l.max {
		return 0
	}
	return l.max - l.count
}
