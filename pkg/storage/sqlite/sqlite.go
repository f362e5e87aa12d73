// Package sqlite provides the SQLite vector backed storage driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mattn/go-sqlite3"

	"github.com/papercomputeco/winter/pkg/embeddings"
	"github.com/papercomputeco/winter/pkg/storage/sqldriver"
	"github.com/papercomputeco/winter/pkg/vector"
)

// Dialect is the sqlite flavour of sqldriver.
var Dialect = sqldriver.Dialect{
	Name: "sqlite",
	IsUniqueViolation: func(err error) bool {
		var se sqlite3.Error
		if !errors.As(err, &se) {
			return false
		}
		return se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
			se.ExtendedCode == sqlite3.ErrConstraintUnique
	},
}

// Config holds the SQLite driver's dependencies.
type Config struct {
	// Path is a file path or ":memory:".
	Path string

	Embedder   embeddings.Embedder
	Vectors    vector.VectorDriver
	Dimensions uint
	Logger     *slog.Logger
}

// SQLiteDriver implements storage.Driver using SQLite via sqldriver.
type SQLiteDriver struct {
	*sqldriver.Driver
}

// NewSQLiteDriver opens the database and creates the schema.
func NewSQLiteDriver(ctx context.Context, c Config) (*SQLiteDriver, error) {
	if c.Path == "" {
		return nil, errors.New("sqlite path is required")
	}
	if c.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(c.Path), 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	// Open the database using the github.com/mattn/go-sqlite3 driver (registered as "sqlite3")
	db, err := sql.Open("sqlite3", c.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection serializes writers and keeps ":memory:" coherent.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	driver, err := sqldriver.New(ctx, sqldriver.Config{
		DB:         db,
		Dialect:    Dialect,
		Embedder:   c.Embedder,
		Vectors:    c.Vectors,
		Dimensions: c.Dimensions,
		Logger:     c.Logger,
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteDriver{Driver: driver}, nil
}
