package publisher

import (
	"context"

	"github.com/mcdev12/oddcard/go/internal/events"
	"github.com/rs/zerolog/log"
)

// LogPublisher writes events to the log. It is used when NATS is disabled.
type LogPublisher struct{}

func NewLogPublisher() *LogPublisher {
	return &LogPublisher{}
}

func (p *LogPublisher) Publish(ctx context.Context, event events.Event) error {
	log.Info().
		Str("event_id", event.ID.String()).
		Str("event_type", string(event.EventType)).
		Str("session_id", event.SessionID.String()).
		RawJSON("payload", event.Payload).
		Msg("game event")
	return nil
}
