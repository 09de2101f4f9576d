package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestSentinelsWrap(t *testing.T) {
	err := fmt.Errorf("set initial state %q: %w", "Mia", ErrIllegalState)
	assert.ErrorIs(t, err, ErrIllegalState)
	assert.NotErrorIs(t, err, ErrTransport)

	joined := fmt.Errorf("%w: %w", ErrTransport, errors.New("dial tcp: refused"))
	assert.ErrorIs(t, joined, ErrTransport)
	assert.Contains(t, joined.Error(), "refused")
}

func TestNewID(t *testing.T) {
	a, b := NewID(), NewID()
	assert.NotEqual(t, a, b)

	_, err := uuid.Parse(a)
	assert.NoError(t, err)
}
