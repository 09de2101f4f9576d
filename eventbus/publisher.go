package eventbus

import (
	"encoding/json"
	"fmt"
	"sync/atomic"

	"github.com/hupe1980/agentgraph/graph"
	"github.com/hupe1980/agentgraph/logging"
	"github.com/nats-io/nats.go"
)

// Options configures a Publisher.
type Options struct {
	// Prefix is prepended to every subject. Defaults to DefaultPrefix.
	Prefix string
	Logger logging.Logger
}

// Publisher is a graph.EventSink that publishes every event to NATS.
//
// Publishing never fails a run: marshal and publish errors are logged and
// counted (see Failures).
type Publisher struct {
	conn    *nats.Conn
	owned   bool
	opts    Options
	emitter *graph.Emitter

	published atomic.Int64
	failures  atomic.Int64
}

var (
	_ graph.EventSink = (*Publisher)(nil)
	_ graph.RunAware  = (*Publisher)(nil)
)

// NewPublisher wraps an existing connection. Close does not close conn.
func NewPublisher(conn *nats.Conn, optFns ...func(o *Options)) *Publisher {
	opts := Options{Prefix: DefaultPrefix}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Prefix == "" {
		opts.Prefix = DefaultPrefix
	}
	opts.Logger = logging.OrNoOp(opts.Logger)

	p := &Publisher{conn: conn, opts: opts}
	p.emitter = graph.NewEmitter(p.publish)
	return p
}

// Connect dials url and returns a Publisher owning the connection.
func Connect(url string, optFns ...func(o *Options)) (*Publisher, error) {
	conn, err := nats.Connect(url, nats.Name("agentgraph-publisher"))
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	p := NewPublisher(conn, optFns...)
	p.owned = true
	return p, nil
}

// Prefix returns the subject prefix.
func (p *Publisher) Prefix() string { return p.opts.Prefix }

// Published returns the number of events handed to NATS.
func (p *Publisher) Published() int64 { return p.published.Load() }

// Failures returns the number of events that could not be published.
func (p *Publisher) Failures() int64 { return p.failures.Load() }

func (p *Publisher) OnRunStarted(runID string)              { p.emitter.OnRunStarted(runID) }
func (p *Publisher) OnStateEntered(s *graph.ExecutionState) { p.emitter.OnStateEntered(s) }
func (p *Publisher) OnRunFinished()                         { p.emitter.OnRunFinished() }
func (p *Publisher) OnError(msg string)                     { p.emitter.OnError(msg) }

func (p *Publisher) OnStateFinished(s *graph.ExecutionState, response string) {
	p.emitter.OnStateFinished(s, response)
}

func (p *Publisher) publish(ev graph.Event) {
	subject := Subject(p.opts.Prefix, ev.Type)
	data, err := json.Marshal(ev)
	if err != nil {
		p.failures.Add(1)
		p.opts.Logger.Error("eventbus.marshal.error", "subject", subject, "error", err.Error())
		return
	}
	if err := p.conn.Publish(subject, data); err != nil {
		p.failures.Add(1)
		p.opts.Logger.Error("eventbus.publish.error", "subject", subject, "run_id", ev.RunID, "error", err.Error())
		return
	}
	p.published.Add(1)
	p.opts.Logger.Debug("eventbus.publish", "subject", subject, "run_id", ev.RunID, "state", ev.State)
}

// Flush blocks until NATS has acknowledged everything published so far.
func (p *Publisher) Flush() error {
	return p.conn.Flush()
}

// Close flushes pending events and closes the connection if the Publisher owns it.
func (p *Publisher) Close() error {
	if !p.owned {
		return p.conn.Flush()
	}
	err := p.conn.Drain()
	if err != nil {
		p.conn.Close()
	}
	return err
}

// Subscribe decodes every event published under prefix and hands it to fn.
// Messages that do not decode are dropped.
func Subscribe(conn *nats.Conn, prefix string, fn func(subject string, ev graph.Event)) (*nats.Subscription, error) {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return conn.Subscribe(SubjectAll(prefix), func(msg *nats.Msg) {
		var ev graph.Event
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			return
		}
		fn(msg.Subject, ev)
	})
}
