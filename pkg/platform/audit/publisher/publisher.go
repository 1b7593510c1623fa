// Package publisher enriches audit events with request metadata and writes
// them to a Store, then forwards them to optional sinks such as Kafka.
package publisher

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	id "trustgate/pkg/domain"
	audit "trustgate/pkg/platform/audit"
	"trustgate/pkg/requestcontext"
)

// Sink receives events after they have been persisted. Sink failures are
// logged and never fail the caller.
type Sink interface {
	Publish(ctx context.Context, event audit.Event) error
}

// Publisher writes audit events.
//
// In sync mode (the default) Emit blocks until the store accepts the event and
// returns its error, so callers inside a transaction fail closed. With
// WithAsyncBuffer events are queued and written by a background goroutine;
// a full queue drops the event and logs it.
type Publisher struct {
	store  audit.Store
	sinks  []Sink
	logger *slog.Logger

	queue chan queued
	wg    sync.WaitGroup
	once  sync.Once
}

type queued struct {
	ctx   context.Context
	event audit.Event
}

type Option func(*Publisher)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func WithSink(sink Sink) Option {
	return func(p *Publisher) {
		if sink != nil {
			p.sinks = append(p.sinks, sink)
		}
	}
}

func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		if size > 0 {
			p.queue = make(chan queued, size)
		}
	}
}

func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	if p.queue != nil {
		p.wg.Add(1)
		go p.drain()
	}
	return p
}

// Emit records event. Missing timestamp, category, request ID, actor and
// device are filled from ctx.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Action == "" {
		return fmt.Errorf("audit event requires an action")
	}
	event = enrich(ctx, event)

	if p.queue != nil {
		select {
		case p.queue <- queued{ctx: context.WithoutCancel(ctx), event: event}:
		default:
			p.logger.WarnContext(ctx, "audit queue full, dropping event",
				"action", event.Action,
				"user_id", event.UserID,
			)
		}
		return nil
	}
	return p.write(ctx, event)
}

func (p *Publisher) List(ctx context.Context, userID id.UserID) ([]audit.Event, error) {
	return p.store.ListByUser(ctx, userID)
}

// Close flushes queued events. It is safe to call more than once.
func (p *Publisher) Close() error {
	p.once.Do(func() {
		if p.queue != nil {
			close(p.queue)
			p.wg.Wait()
		}
	})
	return nil
}

func (p *Publisher) drain() {
	defer p.wg.Done()
	for q := range p.queue {
		if err := p.write(q.ctx, q.event); err != nil {
			p.logger.ErrorContext(q.ctx, "async audit write failed",
				"action", q.event.Action,
				"error", err,
			)
		}
	}
}

func (p *Publisher) write(ctx context.Context, event audit.Event) error {
	if err := p.store.Append(ctx, event); err != nil {
		p.logger.ErrorContext(ctx, "audit persistence failed",
			"action", event.Action,
			"user_id", event.UserID,
			"error", err,
		)
		return fmt.Errorf("audit persistence failed: %w", err)
	}
	for _, sink := range p.sinks {
		if err := sink.Publish(ctx, event); err != nil {
			p.logger.WarnContext(ctx, "audit sink publish failed",
				"action", event.Action,
				"error", err,
			)
		}
	}
	return nil
}

func enrich(ctx context.Context, event audit.Event) audit.Event {
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.Category == "" {
		event.Category = audit.AuditEvent(event.Action).Category()
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	if event.ActorID == "" {
		event.ActorID = requestcontext.AdminID(ctx)
	}
	if event.Device == "" {
		event.Device = requestcontext.Device(ctx)
	}
	return event
}
