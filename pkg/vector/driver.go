// Package vector provides interfaces and implementations for storing turn
// embeddings and searching them by similarity within a conversation.
package vector

import "context"

// Document is one embedded turn.
type Document struct {
	// ID is a unique identifier for the document. See DocumentID.
	ID string

	// ConversationID scopes the document; queries never cross conversations.
	ConversationID string

	// TurnNumber is the turn this document embeds.
	TurnNumber int

	// Embedding is the vector representation of the turn text.
	Embedding []float32
}

// Query describes a nearest neighbour search.
type Query struct {
	Embedding      []float32
	ConversationID string
	TopK           int
}

// QueryResult represents a search result with similarity score.
type QueryResult struct {
	Document

	// Score represents the similarity score (higher = more similar).
	Score float32
}

// VectorDriver handles storage and retrieval of vector embeddings.
type VectorDriver interface {
	// Add stores documents with their embeddings.
	// If a document with the same ID already exists, implementers should update
	// the document.
	Add(ctx context.Context, docs []Document) error

	// Query returns up to TopK documents from the query's conversation,
	// most similar first.
	Query(ctx context.Context, q Query) ([]QueryResult, error)

	// Delete removes documents by their IDs.
	Delete(ctx context.Context, ids []string) error

	// Close releases any resources held by the driver.
	Close() error
}
