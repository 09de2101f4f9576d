package graph

import (
	"sync"
	"time"
)

// EventSink receives run progress. Calls are made synchronously from the
// goroutine executing Run; a host that needs them elsewhere marshals them itself.
type EventSink interface {
	OnStateEntered(state *ExecutionState)
	OnStateFinished(state *ExecutionState, response string)
	OnRunFinished()
	OnError(message string)
}

// RunAware is optionally implemented by sinks that want the id of the run
// their following events belong to. It is called once before any other event.
type RunAware interface {
	OnRunStarted(runID string)
}

// EventType names an event.
type EventType string

const (
	EventStateEntered  EventType = "state.entered"
	EventStateFinished EventType = "state.finished"
	EventRunFinished   EventType = "run.finished"
	EventError         EventType = "run.error"
)

// Event is the value form of a sink callback, used by channel and bus delivery.
type Event struct {
	Type     EventType `json:"type"`
	RunID    string    `json:"run_id,omitempty"`
	State    string    `json:"state,omitempty"`
	Response string    `json:"response,omitempty"`
	Message  string    `json:"message,omitempty"`
	Step     int       `json:"step,omitempty"`
	Time     time.Time `json:"time"`
}

// NopSink ignores every event.
type NopSink struct{}

func (NopSink) OnStateEntered(*ExecutionState)          {}
func (NopSink) OnStateFinished(*ExecutionState, string) {}
func (NopSink) OnRunFinished()                          {}
func (NopSink) OnError(string)                          {}

// SinkFuncs adapts optional functions to EventSink. Nil fields are skipped.
type SinkFuncs struct {
	StateEntered  func(state *ExecutionState)
	StateFinished func(state *ExecutionState, response string)
	RunFinished   func()
	Error         func(message string)
}

func (f SinkFuncs) OnStateEntered(s *ExecutionState) {
	if f.StateEntered != nil {
		f.StateEntered(s)
	}
}

func (f SinkFuncs) OnStateFinished(s *ExecutionState, r string) {
	if f.StateFinished != nil {
		f.StateFinished(s, r)
	}
}

func (f SinkFuncs) OnRunFinished() {
	if f.RunFinished != nil {
		f.RunFinished()
	}
}

func (f SinkFuncs) OnError(msg string) {
	if f.Error != nil {
		f.Error(msg)
	}
}

// MultiSink fans events out to several sinks in order.
type MultiSink []EventSink

func (m MultiSink) OnRunStarted(runID string) {
	for _, s := range m {
		if ra, ok := s.(RunAware); ok {
			ra.OnRunStarted(runID)
		}
	}
}

func (m MultiSink) OnStateEntered(st *ExecutionState) {
	for _, s := range m {
		s.OnStateEntered(st)
	}
}

func (m MultiSink) OnStateFinished(st *ExecutionState, r string) {
	for _, s := range m {
		s.OnStateFinished(st, r)
	}
}

func (m MultiSink) OnRunFinished() {
	for _, s := range m {
		s.OnRunFinished()
	}
}

func (m MultiSink) OnError(msg string) {
	for _, s := range m {
		s.OnError(msg)
	}
}

// Emitter converts sink callbacks into Event values handed to Emit. It tracks
// the run id and step number so each Event is self-describing.
type Emitter struct {
	Emit func(ev Event)

	mu    sync.Mutex
	runID string
	step  int
}

// NewEmitter creates an Emitter calling fn for every event.
func NewEmitter(fn func(ev Event)) *Emitter { return &Emitter{Emit: fn} }

func (e *Emitter) OnRunStarted(runID string) {
	e.mu.Lock()
	e.runID, e.step = runID, 0
	e.mu.Unlock()
}

func (e *Emitter) OnStateEntered(s *ExecutionState) {
	e.mu.Lock()
	e.step++
	ev := Event{Type: EventStateEntered, RunID: e.runID, State: s.Name(), Step: e.step}
	e.mu.Unlock()
	e.send(ev)
}

func (e *Emitter) OnStateFinished(s *ExecutionState, r string) {
	e.mu.Lock()
	ev := Event{Type: EventStateFinished, RunID: e.runID, State: s.Name(), Response: r, Step: e.step}
	e.mu.Unlock()
	e.send(ev)
}

func (e *Emitter) OnRunFinished() {
	e.mu.Lock()
	ev := Event{Type: EventRunFinished, RunID: e.runID, Step: e.step}
	e.mu.Unlock()
	e.send(ev)
}

func (e *Emitter) OnError(msg string) {
	e.mu.Lock()
	ev := Event{Type: EventError, RunID: e.runID, Message: msg, Step: e.step}
	e.mu.Unlock()
	e.send(ev)
}

func (e *Emitter) send(ev Event) {
	ev.Time = time.Now().UTC()
	if e.Emit != nil {
		e.Emit(ev)
	}
}

// Recorder keeps every event in memory. Handy in tests and for hosts that
// render a run after the fact.
type Recorder struct {
	emitter *Emitter

	mu     sync.Mutex
	events []Event
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	r := &Recorder{}
	r.emitter = NewEmitter(func(ev Event) {
		r.mu.Lock()
		r.events = append(r.events, ev)
		r.mu.Unlock()
	})
	return r
}

func (r *Recorder) OnRunStarted(runID string)                   { r.emitter.OnRunStarted(runID) }
func (r *Recorder) OnStateEntered(s *ExecutionState)            { r.emitter.OnStateEntered(s) }
func (r *Recorder) OnStateFinished(s *ExecutionState, x string) { r.emitter.OnStateFinished(s, x) }
func (r *Recorder) OnRunFinished()                              { r.emitter.OnRunFinished() }
func (r *Recorder) OnError(msg string)                          { r.emitter.OnError(msg) }

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Types returns the recorded event types in order.
func (r *Recorder) Types() []EventType {
	evs := r.Events()
	out := make([]EventType, len(evs))
	for i, ev := range evs {
		out[i] = ev.Type
	}
	return out
}

// Reset drops every recorded event.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
