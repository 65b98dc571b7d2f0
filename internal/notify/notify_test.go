package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogPublisherDrainsQueueOnClose(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	p := NewLogPublisher(zap.New(core))

	for i := 0; i < 20; i++ {
		p.Publish(context.Background(), "ticket.purchased", map[string]any{"n": i})
	}
	p.Close()

	// Every queued notification is logged before Close returns.
	entries := logs.FilterMessage("notification").All()
	require.Len(t, entries, 20)

	seen := make(map[string]bool)
	for _, e := range entries {
		fields := e.ContextMap()
		assert.Equal(t, "ticket.purchased", fields["topic"])
		id, ok := fields["id"].(string)
		require.True(t, ok)
		assert.False(t, seen[id], "notification ids must be unique")
		seen[id] = true
	}
}

func TestLogPublisherDropsWhenQueueFull(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)

	// No consumer: fill the queue past capacity by hand.
	p := &LogPublisher{
		log:  zap.New(core),
		ch:   make(chan notification, 2),
		done: make(chan struct{}),
	}
	for i := 0; i < 5; i++ {
		p.Publish(context.Background(), "event.created", nil)
	}

	assert.Equal(t, 3, logs.FilterMessage("notification queue full, dropping").Len())
	assert.Len(t, p.ch, 2)
}
