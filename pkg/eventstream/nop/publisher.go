package nop

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/papercomputeco/winter/pkg/eventstream"
	"github.com/papercomputeco/winter/pkg/logger"
)

// Publisher discards turn events. It backs the default "nop" events provider.
type Publisher struct {
	log     *slog.Logger
	dropped atomic.Int64
}

// NewPublisher creates a new no-op eventstream publisher. A nil logger is
// replaced with a no-op logger.
func NewPublisher(log *slog.Logger) *Publisher {
	if log == nil {
		log = logger.Nop()
	}
	return &Publisher{log: log}
}

// PublishTurn validates input and otherwise drops the event.
func (p *Publisher) PublishTurn(_ context.Context, event *eventstream.TurnPersistedEvent) error {
	if event == nil {
		return eventstream.ErrNilTurnEvent
	}

	p.dropped.Add(1)
	p.log.Debug("dropping turn event",
		"event_id", event.EventID,
		"conversation_id", event.Turn.ConversationID,
		"turn_number", event.Turn.TurnNumber,
	)
	return nil
}

// Dropped reports how many events have been discarded.
func (p *Publisher) Dropped() int64 {
	return p.dropped.Load()
}

// Close is a no-op.
func (p *Publisher) Close() error {
	return nil
}
