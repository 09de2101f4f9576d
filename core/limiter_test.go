package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLimiter(t *testing.T) {
	l := NewLimiter("steps", 2)
	assert.Equal(t, 2, l.Remaining())
	assert.NoError(t, l.Increment())
	assert.NoError(t, l.Increment())
	assert.Equal(t, 0, l.Remaining())

	err := l.Increment()
	assert.ErrorIs(t, err, ErrStepBudgetExceeded)
	assert.Equal(t, 3, l.Count())
	assert.Equal(t, 0, l.Remaining())
}

func TestLimiterUnlimited(t *testing.T) {
	l := NewLimiter("steps", 0)
	for i := 0; i < 100; i++ {
		assert.NoError(t, l.Increment())
	}
	assert.Equal(t, -1, l.Remaining())
}
