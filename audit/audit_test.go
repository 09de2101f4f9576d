package audit

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample(agent, response string, cost float64) Record {
	return Record{
		Agent:           agent,
		TaskDescription: "Explain where you want to go and why",
		ExpectedOutput:  "An explanation",
		Prompt:          "You are " + agent,
		Response:        response,
		Cost:            cost,
		Model:           "mock",
	}
}

func TestMemorySink(t *testing.T) {
	s := NewMemorySink()
	require.NoError(t, s.Append(context.Background(), sample("Mia", "Dubai", 0.25)))
	require.NoError(t, s.Append(context.Background(), sample("Dylan", "Dublin", 0.5)))

	recs := s.Records()
	require.Len(t, recs, 2)
	assert.Equal(t, "Mia", recs[0].Agent)
	assert.NotEmpty(t, recs[0].ID)
	assert.False(t, recs[0].Time.IsZero())
	assert.NotEqual(t, recs[0].ID, recs[1].ID)
}

func TestFileSinkAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "response.txt")

	s, err := NewFileSink(path)
	require.NoError(t, err)
	require.NoError(t, s.Append(context.Background(), sample("Mia", "Dubai please", 0.0001)))
	require.NoError(t, s.Close())

	// Reopening must not truncate earlier records.
	s, err = NewFileSink(path)
	require.NoError(t, err)
	require.NoError(t, s.Append(context.Background(), sample("Dylan", "Dublin", 0.5)))
	require.NoError(t, s.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t,
		"Agent: Mia\nTask: Explain where you want to go and why\nExpected output: An explanation\n"+
			"Mia response: Dubai please \nCost for response: 0.0001\n\n\n\n"+
			"Agent: Dylan\nTask: Explain where you want to go and why\nExpected output: An explanation\n"+
			"Dylan response: Dublin \nCost for response: 0.5\n\n\n\n",
		string(raw))
}

func TestSQLiteSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.db")
	s, err := OpenSQLite(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	ctx := context.Background()
	require.NoError(t, s.Append(ctx, sample("Mia", "Dubai", 0.25)))
	require.NoError(t, s.Append(ctx, sample("Dylan", "Dublin", 0.5)))
	require.NoError(t, s.Append(ctx, sample("Mia", "Still Dubai", 0.125)))

	all, err := s.Records(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Dubai", all[0].Response)
	assert.Equal(t, 0.5, all[1].Cost)
	assert.False(t, all[2].Time.IsZero())

	mia, err := s.Records(ctx, "Mia")
	require.NoError(t, err)
	require.Len(t, mia, 2)
	assert.Equal(t, "Still Dubai", mia[1].Response)

	// Duplicate ids are rejected rather than overwriting.
	dup := all[0]
	assert.Error(t, s.Append(ctx, dup))
}

type failingSink struct{ err error }

func (f failingSink) Append(context.Context, Record) error { return f.err }

func TestMultiSink(t *testing.T) {
	boom := errors.New("disk full")
	mem := NewMemorySink()
	ms := MultiSink{failingSink{err: boom}, mem, NopSink{}}

	err := ms.Append(context.Background(), sample("Mia", "x", 0))
	assert.ErrorIs(t, err, boom)
	assert.Len(t, mem.Records(), 1)
}
