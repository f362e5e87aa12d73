// Package inmemory provides a process-local storage.Driver for tests and
// ephemeral sessions.
package inmemory

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/papercomputeco/winter/pkg/storage"
)

// Driver implements storage.Driver using an in-memory map.
type Driver struct {
	// mu guards conversations
	mu sync.RWMutex

	// conversations maps a conversation ID to its turns in turn order
	conversations map[string][]storage.Turn
}

// NewDriver creates a new in-memory driver.
func NewDriver() *Driver {
	return &Driver{
		conversations: make(map[string][]storage.Turn),
	}
}

// List returns one summary per conversation, newest first.
func (d *Driver) List(_ context.Context) ([]storage.Summary, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	summaries := make([]storage.Summary, 0, len(d.conversations))
	for id, turns := range d.conversations {
		last := turns[len(turns)-1]
		summary := storage.Summary{
			ID:        id,
			Title:     turns[0].Title,
			Project:   last.Project,
			TurnCount: len(turns),
		}
		for _, t := range turns {
			if t.CreatedAt.After(summary.LastUpdated) {
				summary.LastUpdated = t.CreatedAt
			}
		}
		summaries = append(summaries, summary)
	}

	slices.SortFunc(summaries, func(a, b storage.Summary) int {
		if c := b.LastUpdated.Compare(a.LastUpdated); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return summaries, nil
}

// Turns returns a copy of the conversation's turns.
func (d *Driver) Turns(_ context.Context, conversationID string) ([]storage.Turn, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return slices.Clone(d.conversations[conversationID]), nil
}

// Recent returns the last limit turns of the conversation.
func (d *Driver) Recent(_ context.Context, conversationID string, limit int) ([]storage.Turn, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	turns := d.conversations[conversationID]
	if limit <= 0 {
		return []storage.Turn{}, nil
	}
	if len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}
	return slices.Clone(turns), nil
}

// Append adds t as the next turn of its conversation.
func (d *Driver) Append(_ context.Context, t storage.Turn) (storage.Turn, error) {
	if t.ConversationID == "" {
		return storage.Turn{}, storage.ErrNoConversation
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	turns := d.conversations[t.ConversationID]
	t.TurnNumber = 0
	if len(turns) > 0 {
		t.TurnNumber = turns[len(turns)-1].TurnNumber + 1
		t.Title = turns[0].Title
	} else if t.Title == "" {
		t.Title = storage.UntitledTitle
	}

	t.Embedding = nil
	d.conversations[t.ConversationID] = append(turns, t)
	return t, nil
}

// Search matches query case-insensitively against user and assistant text
// and returns the last limit matches.
func (d *Driver) Search(_ context.Context, conversationID, query string, limit int) ([]storage.Turn, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" || limit <= 0 {
		return []storage.Turn{}, nil
	}

	matches := []storage.Turn{}
	for _, t := range d.conversations[conversationID] {
		if strings.Contains(strings.ToLower(t.UserText), needle) ||
			strings.Contains(strings.ToLower(t.AssistantText), needle) {
			matches = append(matches, t)
		}
	}
	if len(matches) > limit {
		matches = matches[len(matches)-limit:]
	}
	return matches, nil
}

// Close is a no-op.
func (d *Driver) Close() error {
	return nil
}

var _ storage.Driver = (*Driver)(nil)
