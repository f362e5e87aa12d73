// Package sqldriver is the vector backed conversation store shared by the
// sqlite and postgres backends. Rows live in a relational table and every
// turn's embedding lives in a vector index scoped by conversation.
package sqldriver

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/papercomputeco/winter/pkg/embeddings"
	"github.com/papercomputeco/winter/pkg/logger"
	"github.com/papercomputeco/winter/pkg/storage"
	"github.com/papercomputeco/winter/pkg/vector"
)

// probeText is embedded once at startup to verify the embedding model.
const probeText = "winter embedding probe"

// Config wires a Driver. The Driver takes ownership of DB, Embedder and
// Vectors and closes them in Close.
type Config struct {
	DB       *sql.DB
	Dialect  Dialect
	Embedder embeddings.Embedder
	Vectors  vector.VectorDriver

	// Dimensions, when set, is checked against the probe embedding.
	Dimensions uint

	Logger *slog.Logger
}

// Driver implements storage.Driver over database/sql and a vector index.
type Driver struct {
	db       *sql.DB
	dialect  Dialect
	embedder embeddings.Embedder
	vectors  vector.VectorDriver
	logger   *slog.Logger
}

// New migrates the schema and probes the embedder. Any failure is an init
// failure and leaves the handles for the caller to close.
func New(ctx context.Context, c Config) (*Driver, error) {
	if c.DB == nil {
		return nil, errors.New("sql database is required")
	}
	if c.Embedder == nil {
		return nil, errors.New("embedder is required")
	}
	if c.Vectors == nil {
		return nil, errors.New("vector driver is required")
	}
	if c.Logger == nil {
		c.Logger = logger.Nop()
	}

	d := &Driver{
		db:       c.DB,
		dialect:  c.Dialect,
		embedder: c.Embedder,
		vectors:  c.Vectors,
		logger:   c.Logger,
	}

	for _, stmt := range schema {
		if _, err := d.db.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("creating schema: %w", err)
		}
	}

	probe, err := d.embedder.Embed(ctx, probeText)
	if err != nil {
		return nil, fmt.Errorf("probing embedder: %w", err)
	}
	if c.Dimensions > 0 && uint(len(probe)) != c.Dimensions {
		return nil, fmt.Errorf("%w: embedder returned %d, configured %d",
			vector.ErrDimensions, len(probe), c.Dimensions)
	}

	d.logger.Debug("vector backed store ready",
		"dialect", c.Dialect.Name,
		"dimensions", len(probe),
	)
	return d, nil
}

// DB returns the underlying database handle.
func (d *Driver) DB() *sql.DB {
	return d.db
}

func (d *Driver) query(ctx context.Context, query string, args ...any) ([]storage.Turn, error) {
	rows, err := d.db.QueryContext(ctx, d.dialect.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("querying turns: %w", err)
	}
	defer rows.Close()

	turns := []storage.Turn{}
	for rows.Next() {
		var (
			t         storage.Turn
			createdAt float64
		)
		if err := rows.Scan(
			&t.ConversationID,
			&t.TurnNumber,
			&t.Title,
			&t.UserText,
			&t.AssistantText,
			&createdAt,
			&t.SessionID,
			&t.Project,
			&t.ElapsedSeconds,
		); err != nil {
			return nil, fmt.Errorf("scanning turn: %w", err)
		}
		t.CreatedAt = storage.FromEpochSeconds(createdAt)
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating turns: %w", err)
	}
	return turns, nil
}

// List returns one summary per conversation, newest first.
func (d *Driver) List(ctx context.Context) ([]storage.Summary, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT t.conversation_id,
			MIN(t.title),
			COALESCE((SELECT l.project FROM turns l
				WHERE l.conversation_id = t.conversation_id
				ORDER BY l.turn_number DESC LIMIT 1), ''),
			COUNT(*),
			MAX(t.created_at)
		FROM turns t
		GROUP BY t.conversation_id
		ORDER BY MAX(t.created_at) DESC, t.conversation_id`)
	if err != nil {
		return nil, fmt.Errorf("listing conversations: %w", err)
	}
	defer rows.Close()

	summaries := []storage.Summary{}
	for rows.Next() {
		var (
			s           storage.Summary
			lastUpdated float64
		)
		if err := rows.Scan(&s.ID, &s.Title, &s.Project, &s.TurnCount, &lastUpdated); err != nil {
			return nil, fmt.Errorf("scanning summary: %w", err)
		}
		s.LastUpdated = storage.FromEpochSeconds(lastUpdated)
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating summaries: %w", err)
	}
	return summaries, nil
}

// Turns returns every turn of the conversation in turn order.
func (d *Driver) Turns(ctx context.Context, conversationID string) ([]storage.Turn, error) {
	return d.query(ctx, `SELECT `+turnColumns+` FROM turns
		WHERE conversation_id = ? ORDER BY turn_number`, conversationID)
}

// Recent returns the last limit turns, oldest first.
func (d *Driver) Recent(ctx context.Context, conversationID string, limit int) ([]storage.Turn, error) {
	if limit <= 0 {
		return []storage.Turn{}, nil
	}
	turns, err := d.query(ctx, `SELECT `+turnColumns+` FROM turns
		WHERE conversation_id = ? ORDER BY turn_number DESC LIMIT ?`, conversationID, limit)
	if err != nil {
		return nil, err
	}
	slices.Reverse(turns)
	return turns, nil
}

// Append embeds the exchange, then assigns the turn number, inserts the row
// and indexes the vector inside one transaction. A failed vector add rolls
// the row back.
func (d *Driver) Append(ctx context.Context, t storage.Turn) (storage.Turn, error) {
	if t.ConversationID == "" {
		return storage.Turn{}, storage.ErrNoConversation
	}

	embedding, err := d.embedder.Embed(ctx, t.EmbeddingText())
	if err != nil {
		return storage.Turn{}, fmt.Errorf("embedding turn: %w", err)
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return storage.Turn{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if d.dialect.LockConversation != "" {
		if _, err := tx.ExecContext(ctx, d.dialect.rebind(d.dialect.LockConversation), t.ConversationID); err != nil {
			return storage.Turn{}, fmt.Errorf("locking conversation: %w", err)
		}
	}

	var maxTurn sql.NullInt64
	if err := tx.QueryRowContext(ctx, d.dialect.rebind(
		`SELECT MAX(turn_number) FROM turns WHERE conversation_id = ?`), t.ConversationID,
	).Scan(&maxTurn); err != nil {
		return storage.Turn{}, fmt.Errorf("reading turn number: %w", err)
	}

	t.TurnNumber = 0
	if maxTurn.Valid {
		t.TurnNumber = int(maxTurn.Int64) + 1

		if err := tx.QueryRowContext(ctx, d.dialect.rebind(
			`SELECT title FROM turns WHERE conversation_id = ? ORDER BY turn_number LIMIT 1`), t.ConversationID,
		).Scan(&t.Title); err != nil {
			return storage.Turn{}, fmt.Errorf("reading title: %w", err)
		}
	}
	if t.Title == "" {
		t.Title = storage.UntitledTitle
	}

	_, err = tx.ExecContext(ctx, d.dialect.rebind(`INSERT INTO turns (`+turnColumns+`, created_at_text)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		t.ConversationID,
		t.TurnNumber,
		t.Title,
		t.UserText,
		t.AssistantText,
		storage.EpochSeconds(t.CreatedAt),
		t.SessionID,
		t.Project,
		t.ElapsedSeconds,
		t.CreatedAt.Format(storage.DateTimeLayout),
	)
	if err != nil {
		if d.dialect.IsUniqueViolation != nil && d.dialect.IsUniqueViolation(err) {
			return storage.Turn{}, fmt.Errorf("%w: %s turn %d", storage.ErrDuplicateTurn, t.ConversationID, t.TurnNumber)
		}
		return storage.Turn{}, fmt.Errorf("inserting turn: %w", err)
	}

	docID := vector.DocumentID(t.ConversationID, t.TurnNumber)
	if err := d.vectors.Add(ctx, []vector.Document{{
		ID:             docID,
		ConversationID: t.ConversationID,
		TurnNumber:     t.TurnNumber,
		Embedding:      embedding,
	}}); err != nil {
		return storage.Turn{}, fmt.Errorf("indexing turn: %w", err)
	}

	if err := tx.Commit(); err != nil {
		if derr := d.vectors.Delete(context.WithoutCancel(ctx), []string{docID}); derr != nil {
			d.logger.Warn("removing vector of uncommitted turn", "doc_id", docID, "error", derr)
		}
		return storage.Turn{}, fmt.Errorf("committing turn: %w", err)
	}

	t.Embedding = embedding
	return t, nil
}

// Search embeds query and hydrates the nearest turns of the conversation in
// similarity order.
func (d *Driver) Search(ctx context.Context, conversationID, query string, limit int) ([]storage.Turn, error) {
	if limit <= 0 {
		return []storage.Turn{}, nil
	}

	embedding, err := d.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	results, err := d.vectors.Query(ctx, vector.Query{
		Embedding:      embedding,
		ConversationID: conversationID,
		TopK:           limit,
	})
	if err != nil {
		return nil, fmt.Errorf("querying vectors: %w", err)
	}
	if len(results) == 0 {
		return []storage.Turn{}, nil
	}

	numbers := make([]any, 0, len(results)+1)
	numbers = append(numbers, conversationID)
	for _, r := range results {
		numbers = append(numbers, r.TurnNumber)
	}

	rows, err := d.query(ctx, `SELECT `+turnColumns+` FROM turns
		WHERE conversation_id = ? AND turn_number IN (`+placeholders(len(results))+`)`, numbers...)
	if err != nil {
		return nil, err
	}

	byNumber := make(map[int]storage.Turn, len(rows))
	for _, t := range rows {
		byNumber[t.TurnNumber] = t
	}

	turns := make([]storage.Turn, 0, len(results))
	for _, r := range results {
		t, ok := byNumber[r.TurnNumber]
		if !ok {
			// Vector without a committed row.
			continue
		}
		t.Embedding = r.Embedding
		turns = append(turns, t)
		delete(byNumber, r.TurnNumber)
	}
	return turns, nil
}

// Close closes the vector index, the embedder and the database.
func (d *Driver) Close() error {
	return errors.Join(
		d.vectors.Close(),
		d.embedder.Close(),
		d.db.Close(),
	)
}

var _ storage.Driver = (*Driver)(nil)
