package audit

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileSink appends a plain text transcript, one block per record:
//
//	Agent: Mia
//	Task: <task description>
//	Expected output: <expected output>
//	Mia response: <response>
//	Cost for response: 0.0001
type FileSink struct {
	mu   sync.Mutex
	f    *os.File
	path string
}

// NewFileSink opens path for appending, creating it and its directory when missing.
func NewFileSink(path string) (*FileSink, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create audit dir: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open audit file: %w", err)
	}
	return &FileSink{f: f, path: path}, nil
}

// Path returns the transcript location.
func (s *FileSink) Path() string { return s.path }

// Append implements Sink.
func (s *FileSink) Append(_ context.Context, rec Record) error {
	rec = Stamp(rec)
	block := fmt.Sprintf("Agent: %s\nTask: %s\nExpected output: %s\n%s response: %s \nCost for response: %s\n\n\n\n",
		rec.Agent, rec.TaskDescription, rec.ExpectedOutput, rec.Agent, rec.Response, formatCost(rec.Cost))

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.f.WriteString(block); err != nil {
		return fmt.Errorf("write audit record: %w", err)
	}
	return nil
}

// Close closes the underlying file.
func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.f.Close()
}

func formatCost(c float64) string {
	return fmt.Sprintf("%g", c)
}
