package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/winter/pkg/logger"
)

// Store tracks the active conversation on top of a Driver. Writes surface
// their errors wrapped in ErrStorage. Reads are best effort: failures are
// logged and degrade to empty results.
type Store struct {
	driver  Driver
	backend string
	logger  *slog.Logger

	titleLength int
	sessionID   int64
	project     string
	now         func() time.Time

	mu     sync.Mutex
	active string
	next   int
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithBackend names the backend for Backend.
func WithBackend(name string) Option {
	return func(s *Store) { s.backend = name }
}

// WithTitleLength sets how many characters of the first message become the
// conversation title.
func WithTitleLength(n int) Option {
	return func(s *Store) { s.titleLength = n }
}

// WithSessionID sets the session stamped on saved turns.
func WithSessionID(id int64) Option {
	return func(s *Store) { s.sessionID = id }
}

// WithProject sets the project used when a save does not name one.
func WithProject(p string) Option {
	return func(s *Store) { s.project = p }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore wraps driver. The session defaults to the current Unix time.
func NewStore(driver Driver, opts ...Option) *Store {
	s := &Store{
		driver:      driver,
		logger:      logger.Nop(),
		titleLength: DefaultTitleLength,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.sessionID == 0 {
		s.sessionID = s.now().Unix()
	}
	return s
}

// Backend returns the configured backend name.
func (s *Store) Backend() string {
	return s.backend
}

// Active returns the active conversation ID, or "" when none is active.
func (s *Store) Active() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// NextTurn returns the turn number the next save is expected to receive.
func (s *Store) NextTurn() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next
}

// NewConversation clears the active conversation. The next save starts a
// new one.
func (s *Store) NewConversation() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = ""
	s.next = 0
}

// ListAll returns every conversation, newest first.
func (s *Store) ListAll(ctx context.Context) []Summary {
	summaries, err := s.driver.List(ctx)
	if err != nil {
		s.logger.Warn("listing conversations", "error", err)
		return []Summary{}
	}
	return summaries
}

// Load makes conversationID active. A conversation without turns is
// accepted and starts at turn 0.
func (s *Store) Load(ctx context.Context, conversationID string) error {
	if strings.TrimSpace(conversationID) == "" {
		return fmt.Errorf("%w: %w", ErrStorage, ErrNoConversation)
	}

	turns, err := s.driver.Turns(ctx, conversationID)
	if err != nil {
		return fmt.Errorf("%w: loading conversation %s: %w", ErrStorage, conversationID, err)
	}

	next := 0
	for _, t := range turns {
		if t.TurnNumber >= next {
			next = t.TurnNumber + 1
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = conversationID
	s.next = next

	s.logger.Debug("loaded conversation", "conversation_id", conversationID, "next_turn", next)
	return nil
}

// SaveTurn persists an exchange in the active conversation, creating one
// when none is active. The conversation only becomes active once the save
// succeeded.
func (s *Store) SaveTurn(ctx context.Context, userText, assistantText string, meta Metadata) (Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conversationID := s.active
	if conversationID == "" {
		conversationID = uuid.NewString()
	}

	createdAt := meta.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.now()
	}
	project := meta.Project
	if project == "" {
		project = s.project
	}

	saved, err := s.driver.Append(ctx, Turn{
		ConversationID: conversationID,
		Title:          DeriveTitle(userText, s.titleLength),
		UserText:       userText,
		AssistantText:  assistantText,
		CreatedAt:      createdAt,
		SessionID:      s.sessionID,
		Project:        project,
		ElapsedSeconds: meta.ElapsedSeconds,
	})
	if err != nil {
		return Turn{}, fmt.Errorf("%w: saving turn: %w", ErrStorage, err)
	}

	s.active = conversationID
	s.next = saved.TurnNumber + 1

	s.logger.Debug("saved turn",
		"conversation_id", conversationID,
		"turn_number", saved.TurnNumber,
	)
	return saved, nil
}

// Recent returns up to limit of the latest turns of the active
// conversation, oldest first.
func (s *Store) Recent(ctx context.Context, limit int) []Turn {
	turns, err := s.recent(ctx, limit)
	if err != nil {
		s.logger.Warn("reading recent turns", "error", err)
		return []Turn{}
	}
	return turns
}

// AllTurns returns every turn of the active conversation.
func (s *Store) AllTurns(ctx context.Context) []Turn {
	conversationID := s.Active()
	if conversationID == "" {
		return []Turn{}
	}

	turns, err := s.driver.Turns(ctx, conversationID)
	if err != nil {
		s.logger.Warn("reading turns", "conversation_id", conversationID, "error", err)
		return []Turn{}
	}
	return turns
}

// Search returns up to limit turns of the active conversation matching
// query.
func (s *Store) Search(ctx context.Context, query string, limit int) []Turn {
	turns, err := s.search(ctx, query, limit)
	if err != nil {
		s.logger.Warn("searching turns", "error", err)
		return []Turn{}
	}
	return turns
}

func (s *Store) recent(ctx context.Context, limit int) ([]Turn, error) {
	conversationID := s.Active()
	if conversationID == "" || limit <= 0 {
		return []Turn{}, nil
	}

	turns, err := s.driver.Recent(ctx, conversationID, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: recent turns: %w", ErrStorage, err)
	}
	return turns, nil
}

func (s *Store) search(ctx context.Context, query string, limit int) ([]Turn, error) {
	conversationID := s.Active()
	if conversationID == "" || limit <= 0 || strings.TrimSpace(query) == "" {
		return []Turn{}, nil
	}

	turns, err := s.driver.Search(ctx, conversationID, query, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: search: %w", ErrStorage, err)
	}
	return turns, nil
}

// Source exposes the active conversation's reads with their errors, for
// callers that choose their own fallback.
func (s *Store) Source() Source {
	return Source{store: s}
}

// Close closes the backend.
func (s *Store) Close() error {
	return s.driver.Close()
}

// Source is the error-returning read view of a Store.
type Source struct {
	store *Store
}

// Search is Store.Search without degradation.
func (src Source) Search(ctx context.Context, query string, limit int) ([]Turn, error) {
	return src.store.search(ctx, query, limit)
}

// Recent is Store.Recent without degradation.
func (src Source) Recent(ctx context.Context, limit int) ([]Turn, error) {
	return src.store.recent(ctx, limit)
}
