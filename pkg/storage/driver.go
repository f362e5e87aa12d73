// Package storage persists conversation turns behind one contract shared by
// the vector backed and append-only log backends.
package storage

import "context"

// Driver is a conversation backend. Implementations own turn number
// assignment: Append computes max+1 for the conversation and writes the
// turn in the same atomic operation.
type Driver interface {
	// List returns one summary per conversation, newest first by LastUpdated.
	List(ctx context.Context) ([]Summary, error)

	// Turns returns every turn of a conversation in ascending turn order.
	Turns(ctx context.Context, conversationID string) ([]Turn, error)

	// Recent returns up to limit of the latest turns of a conversation,
	// oldest first.
	Recent(ctx context.Context, conversationID string, limit int) ([]Turn, error)

	// Append persists t as the next turn of t.ConversationID and returns the
	// stored turn. t.TurnNumber is ignored. t.Title is only used when the
	// turn is the first of its conversation; later turns copy the stored
	// title.
	Append(ctx context.Context, t Turn) (Turn, error)

	// Search returns up to limit turns of a conversation matching query.
	Search(ctx context.Context, conversationID, query string, limit int) ([]Turn, error)

	// Close releases the backend and any handles it owns.
	Close() error
}
