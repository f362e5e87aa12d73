package storage

import "time"

// DateTimeLayout renders a turn's creation time in persisted records.
const DateTimeLayout = "2006-01-02 03:04 PM MST"

// Turn is one user/assistant exchange. Turns are immutable once saved.
type Turn struct {
	ConversationID string    `json:"conversation_id"`
	Title          string    `json:"title"`
	TurnNumber     int       `json:"turn_number"`
	UserText       string    `json:"user_text"`
	AssistantText  string    `json:"assistant_text"`
	CreatedAt      time.Time `json:"created_at"`
	SessionID      int64     `json:"session_id"`
	Project        string    `json:"project,omitempty"`
	ElapsedSeconds float64   `json:"elapsed_seconds"`
	Embedding      []float32 `json:"embedding,omitempty"`
}

// EmbeddingText is the text a turn is embedded from.
func (t Turn) EmbeddingText() string {
	return "user: " + t.UserText + " | assistant: " + t.AssistantText
}

// Summary describes a conversation for listings.
type Summary struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Project     string    `json:"project,omitempty"`
	TurnCount   int       `json:"turn_count"`
	LastUpdated time.Time `json:"last_updated"`
}

// Metadata is supplied by the caller of SaveTurn.
type Metadata struct {
	Project        string
	ElapsedSeconds float64

	// CreatedAt defaults to the current time.
	CreatedAt time.Time
}

// EpochSeconds converts t to fractional seconds since the Unix epoch.
func EpochSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

// FromEpochSeconds is the inverse of EpochSeconds at microsecond precision.
func FromEpochSeconds(s float64) time.Time {
	return time.UnixMicro(int64(s * 1e6))
}
