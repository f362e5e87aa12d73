// Package pgvector stores turn embeddings in PostgreSQL using the pgvector
// extension.
package pgvector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvec "github.com/pgvector/pgvector-go"
	pgxvec "github.com/pgvector/pgvector-go/pgx"

	"github.com/papercomputeco/winter/pkg/logger"
	"github.com/papercomputeco/winter/pkg/vector"
)

// DefaultTable is the table used when none is configured.
const DefaultTable = "winter_vectors"

// Config holds configuration for the pgvector driver.
type Config struct {
	// DSN is a PostgreSQL connection string.
	DSN string

	// Table holds the documents. Defaults to DefaultTable.
	Table string

	// Dimensions is the size of the vector column.
	Dimensions uint
}

// Driver implements vector.VectorDriver on a pgvector table. Similarity is
// cosine, computed with the <=> distance operator.
type Driver struct {
	pool       *pgxpool.Pool
	table      string
	dimensions uint
	logger     *slog.Logger
}

// NewDriver connects to PostgreSQL and creates the extension and table.
func NewDriver(ctx context.Context, c Config, log *slog.Logger) (*Driver, error) {
	if c.DSN == "" {
		return nil, errors.New("pgvector DSN is required")
	}
	if c.Dimensions == 0 {
		return nil, errors.New("pgvector dimensions are required")
	}
	if log == nil {
		log = logger.Nop()
	}
	if c.Table == "" {
		c.Table = DefaultTable
	}

	// The vector type must exist before pooled connections register it.
	if err := createExtension(ctx, c.DSN); err != nil {
		return nil, err
	}

	poolConfig, err := pgxpool.ParseConfig(c.DSN)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing DSN: %v", vector.ErrConnection, err)
	}
	poolConfig.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("%w: opening pool: %v", vector.ErrConnection, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: pinging postgres: %v", vector.ErrConnection, err)
	}

	d := &Driver{
		pool:       pool,
		table:      pgx.Identifier{c.Table}.Sanitize(),
		dimensions: c.Dimensions,
		logger:     log,
	}

	if err := d.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	log.Info("connected to pgvector", "table", c.Table, "dimensions", c.Dimensions)
	return d, nil
}

func createExtension(ctx context.Context, dsn string) error {
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return fmt.Errorf("%w: connecting: %v", vector.ErrConnection, err)
	}
	defer conn.Close(ctx)

	if _, err := conn.Exec(ctx, `CREATE EXTENSION IF NOT EXISTS vector`); err != nil {
		return fmt.Errorf("%w: creating vector extension: %v", vector.ErrConnection, err)
	}
	return nil
}

func (d *Driver) migrate(ctx context.Context) error {
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			doc_id TEXT PRIMARY KEY,
			conversation_id TEXT NOT NULL,
			turn_number INTEGER NOT NULL,
			embedding vector(%d) NOT NULL
		)`, d.table, d.dimensions),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (conversation_id)`,
			pgx.Identifier{strings.Trim(d.table, `"`) + "_conversation_idx"}.Sanitize(), d.table),
	}
	for _, stmt := range stmts {
		if _, err := d.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("%w: migrating: %v", vector.ErrConnection, err)
		}
	}
	return nil
}

func (d *Driver) checkDimensions(v []float32) error {
	if uint(len(v)) != d.dimensions {
		return fmt.Errorf("%w: got %d, want %d", vector.ErrDimensions, len(v), d.dimensions)
	}
	return nil
}

// Add upserts documents in a single batch.
func (d *Driver) Add(ctx context.Context, docs []vector.Document) error {
	if len(docs) == 0 {
		return nil
	}

	query := fmt.Sprintf(`INSERT INTO %s (doc_id, conversation_id, turn_number, embedding)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (doc_id) DO UPDATE SET
			conversation_id = EXCLUDED.conversation_id,
			turn_number = EXCLUDED.turn_number,
			embedding = EXCLUDED.embedding`, d.table)

	batch := &pgx.Batch{}
	for _, doc := range docs {
		if err := d.checkDimensions(doc.Embedding); err != nil {
			return err
		}
		batch.Queue(query, doc.ID, doc.ConversationID, doc.TurnNumber, pgvec.NewVector(doc.Embedding))
	}

	if err := d.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("inserting documents: %w", err)
	}

	d.logger.Debug("added documents to pgvector", "count", len(docs))
	return nil
}

// Query returns the nearest documents in the query's conversation.
func (d *Driver) Query(ctx context.Context, q vector.Query) ([]vector.QueryResult, error) {
	if err := d.checkDimensions(q.Embedding); err != nil {
		return nil, err
	}
	topK := q.TopK
	if topK <= 0 {
		topK = vector.DefaultTopK
	}

	rows, err := d.pool.Query(ctx, fmt.Sprintf(`SELECT doc_id, turn_number, embedding, embedding <=> $1 AS distance
		FROM %s
		WHERE conversation_id = $2
		ORDER BY distance
		LIMIT $3`, d.table), pgvec.NewVector(q.Embedding), q.ConversationID, topK)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	results := []vector.QueryResult{}
	for rows.Next() {
		var (
			id        string
			turn      int
			embedding pgvec.Vector
			distance  float64
		)
		if err := rows.Scan(&id, &turn, &embedding, &distance); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		results = append(results, vector.QueryResult{
			Document: vector.Document{
				ID:             id,
				ConversationID: q.ConversationID,
				TurnNumber:     turn,
				Embedding:      embedding.Slice(),
			},
			Score: float32(1 - distance),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}

	return results, nil
}

// Delete removes documents by ID.
func (d *Driver) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := d.pool.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE doc_id = ANY($1)`, d.table), ids); err != nil {
		return fmt.Errorf("deleting documents: %w", err)
	}
	return nil
}

// Close closes the connection pool.
func (d *Driver) Close() error {
	d.pool.Close()
	return nil
}
