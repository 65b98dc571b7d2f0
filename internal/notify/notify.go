// Package notify publishes fire-and-forget notifications for external
// indexers. Publishing never fails a ledger call and is not part of any
// invariant; the production publisher writes structured log lines that an
// indexer can tail.
package notify

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Publisher emits one notification per successful ledger mutation.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any)
}

type notification struct {
	id      string
	topic   string
	payload any
}

// LogPublisher queues notifications to a single background consumer that
// logs them, tagging each with a unique id so downstream consumers can
// deduplicate. Publish never blocks: if the queue is full the notification
// is dropped with a warning.
type LogPublisher struct {
	log  *zap.Logger
	ch   chan notification
	done chan struct{}
}

// NewLogPublisher returns a Publisher writing to log. Call Close to drain
// the queue on shutdown.
func NewLogPublisher(log *zap.Logger) *LogPublisher {
	p := &LogPublisher{
		log:  log.Named("notify"),
		ch:   make(chan notification, 256),
		done: make(chan struct{}),
	}
	go p.run()
	return p
}

func (p *LogPublisher) run() {
	for n := range p.ch {
		p.log.Info("notification",
			zap.String("id", n.id),
			zap.String("topic", n.topic),
			zap.Any("payload", n.payload),
		)
	}
	close(p.done)
}

func (p *LogPublisher) Publish(ctx context.Context, topic string, payload any) {
	n := notification{id: uuid.NewString(), topic: topic, payload: payload}
	select {
	case p.ch <- n:
	default:
		p.log.Warn("notification queue full, dropping", zap.String("topic", topic))
	}
}

// Close stops the consumer after draining queued notifications. Publish
// must not be called after Close.
func (p *LogPublisher) Close() {
	close(p.ch)
	<-p.done
}

// Nop discards all notifications. Used in tests.
type Nop struct{}

func (Nop) Publish(ctx context.Context, topic string, payload any) {}
