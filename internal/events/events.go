// Package events publishes interview session events to SSE streams and RabbitMQ.
package events

import (
	"context"

	"github.com/dtp-id/talenta/pkg/models"
)

// Publisher receives session events.
type Publisher interface {
	Publish(ctx context.Context, ev models.SessionEvent)
}

// Fanout forwards every event to each of its publishers in order.
type Fanout []Publisher

// Publish implements Publisher.
func (f Fanout) Publish(ctx context.Context, ev models.SessionEvent) {
	for _, p := range f {
		if p != nil {
			p.Publish(ctx, ev)
		}
	}
}

// Noop discards events.
type Noop struct{}

// Publish implements Publisher.
func (Noop) Publish(context.Context, models.SessionEvent) {}
