package audit

import (
	"context"
	"log/slog"
	"sync/atomic"

	"securitysvc/pkg/requestcontext"
)

// Publisher hands change events to a background Worker through a bounded
// channel. Emit never blocks the request path: when the buffer is full the
// event is dropped and counted.
type Publisher struct {
	inbox   chan Event
	logger  *slog.Logger
	dropped atomic.Int64
}

// PublisherOption configures a Publisher.
type PublisherOption func(*Publisher)

// WithLogger sets the logger used to report dropped events.
func WithLogger(logger *slog.Logger) PublisherOption {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// NewPublisher creates a publisher buffering up to bufferSize events.
func NewPublisher(bufferSize int, opts ...PublisherOption) *Publisher {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	p := &Publisher{
		inbox:  make(chan Event, bufferSize),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Emit enqueues an event, stamping request id, API version and request time
// from ctx when unset.
func (p *Publisher) Emit(ctx context.Context, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	if event.APIVersion == "" {
		event.APIVersion = requestcontext.APIVersion(ctx).String()
	}

	select {
	case p.inbox <- event:
	default:
		p.dropped.Add(1)
		p.logger.WarnContext(ctx, "audit buffer full, event dropped",
			"request_id", event.RequestID,
			"action", event.Action,
			"entity_id", event.EntityID,
		)
	}
}

// Inbox is the channel a Worker drains.
func (p *Publisher) Inbox() <-chan Event {
	return p.inbox
}

// Dropped returns the number of events discarded because the buffer was full.
func (p *Publisher) Dropped() int64 {
	return p.dropped.Load()
}
