package audit

import (
	"context"
	"sync"
	"time"

	"github.com/hupe1980/agentgraph/core"
)

// Record is one executed task.
type Record struct {
	ID              string    `json:"id"`
	Time            time.Time `json:"time"`
	Agent           string    `json:"agent"`
	TaskDescription string    `json:"task_description"`
	ExpectedOutput  string    `json:"expected_output"`
	Prompt          string    `json:"prompt"`
	Response        string    `json:"response"`
	Cost            float64   `json:"cost"`
	Model           string    `json:"model"`
}

// Sink receives audit records. Implementations must be append-only.
type Sink interface {
	Append(ctx context.Context, rec Record) error
}

// Stamp fills ID and Time when unset.
func Stamp(rec Record) Record {
	if rec.ID == "" {
		rec.ID = core.NewID()
	}
	if rec.Time.IsZero() {
		rec.Time = time.Now().UTC()
	}
	return rec
}

// NopSink discards every record.
type NopSink struct{}

// Append implements Sink.
func (NopSink) Append(context.Context, Record) error { return nil }

// MemorySink keeps records in memory.
type MemorySink struct {
	mu      sync.Mutex
	records []Record
}

// NewMemorySink creates an empty in-memory sink.
func NewMemorySink() *MemorySink { return &MemorySink{} }

// Append implements Sink.
func (m *MemorySink) Append(_ context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, Stamp(rec))
	return nil
}

// Records returns a copy of every record in append order.
func (m *MemorySink) Records() []Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Record, len(m.records))
	copy(out, m.records)
	return out
}

// MultiSink fans a record out to several sinks. The first error is returned
// after every sink has been tried.
type MultiSink []Sink

// Append implements Sink.
func (ms MultiSink) Append(ctx context.Context, rec Record) error {
	rec = Stamp(rec)
	var first error
	for _, s := range ms {
		if err := s.Append(ctx, rec); err != nil && first == nil {
			first = err
		}
	}
	return first
}
