package publisher

import (
	"context"

	"github.com/mcdev12/oddcard/go/internal/events"
)

// EventPublisher sends domain events to an external sink.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}
