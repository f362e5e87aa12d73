package eventstream

import (
	"time"

	"github.com/google/uuid"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeTurnPersisted is emitted after a conversation turn is persisted.
	EventTypeTurnPersisted = "winter.turn.persisted"
)

// TurnPersistedEvent is a transport-neutral event payload for a persisted turn.
type TurnPersistedEvent struct {
	SchemaVersion int         `json:"schema_version"`
	EventType     string      `json:"event_type"`
	EventID       string      `json:"event_id"`
	EmittedAt     time.Time   `json:"emitted_at"`
	Source        EventSource `json:"source"`
	Turn          TurnMeta    `json:"turn"`
}

// EventSource identifies where the turn originated.
type EventSource struct {
	Project string `json:"project,omitempty"`
	Backend string `json:"backend"`
}

// TurnMeta describes the persisted turn without carrying its text.
type TurnMeta struct {
	ConversationID string `json:"conversation_id"`
	TurnNumber     int    `json:"turn_number"`
	Title          string `json:"title"`
	Direct         bool   `json:"direct"`
	DurationMs     int64  `json:"duration_ms"`
}

// NewTurnPersistedEvent stamps a v1 event for the given turn.
func NewTurnPersistedEvent(now time.Time, source EventSource, turn TurnMeta) *TurnPersistedEvent {
	return &TurnPersistedEvent{
		SchemaVersion: SchemaVersionV1,
		EventType:     EventTypeTurnPersisted,
		EventID:       "evt_" + uuid.NewString(),
		EmittedAt:     now.UTC(),
		Source:        source,
		Turn:          turn,
	}
}
