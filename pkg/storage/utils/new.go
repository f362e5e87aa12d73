// Package storageutils selects and constructs the conversation backend.
package storageutils

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/papercomputeco/winter/pkg/config"
	embeddingutils "github.com/papercomputeco/winter/pkg/embeddings/utils"
	"github.com/papercomputeco/winter/pkg/logger"
	"github.com/papercomputeco/winter/pkg/storage"
	"github.com/papercomputeco/winter/pkg/storage/inmemory"
	"github.com/papercomputeco/winter/pkg/storage/jsonl"
	"github.com/papercomputeco/winter/pkg/storage/postgres"
	"github.com/papercomputeco/winter/pkg/storage/sqlite"
	vectorutils "github.com/papercomputeco/winter/pkg/vector/utils"
)

// Backend names returned alongside the driver.
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendJSONL    = "jsonl"
	BackendMemory   = "memory"
)

// NewDriverWithFallback builds the configured backend. A vector backed
// provider that fails to initialize is replaced by the jsonl log for the
// rest of the process; that substitution is logged, not returned. An error
// is returned only when the log cannot be opened either.
func NewDriverWithFallback(ctx context.Context, cfg *config.Config, log *slog.Logger) (storage.Driver, string, error) {
	if log == nil {
		log = logger.Nop()
	}

	switch cfg.Storage.Provider {
	case BackendMemory:
		return inmemory.NewDriver(), BackendMemory, nil
	case BackendJSONL:
		d, err := newLog(cfg, log)
		if err != nil {
			return nil, "", err
		}
		return d, BackendJSONL, nil
	case BackendSQLite, BackendPostgres:
	default:
		return nil, "", fmt.Errorf("unsupported storage provider: %s", cfg.Storage.Provider)
	}

	d, err := newVectorBacked(ctx, cfg, log)
	if err == nil {
		return d, cfg.Storage.Provider, nil
	}

	log.Warn("vector backend unavailable, falling back to conversation log",
		"provider", cfg.Storage.Provider,
		"error", err,
	)

	fallback, ferr := newLog(cfg, log)
	if ferr != nil {
		return nil, "", fmt.Errorf("%w: vector backend: %w; log backend: %w", storage.ErrStorage, err, ferr)
	}
	return fallback, BackendJSONL, nil
}

func newLog(cfg *config.Config, log *slog.Logger) (*jsonl.Driver, error) {
	d, err := jsonl.NewDriver(cfg.Storage.FallbackPath, jsonl.WithLogger(log))
	if err != nil {
		return nil, fmt.Errorf("%w: opening conversation log: %w", storage.ErrStorage, err)
	}
	return d, nil
}

// newVectorBacked builds embedder, vector index and row store in that
// order, closing what was built when a later step fails.
func newVectorBacked(ctx context.Context, cfg *config.Config, log *slog.Logger) (storage.Driver, error) {
	embedder, err := embeddingutils.NewEmbedder(&embeddingutils.NewEmbedderOpts{
		ProviderType: cfg.Embedding.Provider,
		TargetURL:    cfg.Embedding.Target,
		Model:        cfg.Embedding.Model,
	})
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}

	vectors, err := vectorutils.NewVectorDriver(ctx, &vectorutils.NewVectorDriverOpts{
		ProviderType: cfg.VectorStore.Provider,
		Target:       cfg.VectorStore.Target,
		Dimensions:   cfg.Embedding.Dimensions,
		Logger:       log,
	})
	if err != nil {
		return nil, errors.Join(fmt.Errorf("creating vector driver: %w", err), embedder.Close())
	}

	var driver storage.Driver
	switch cfg.Storage.Provider {
	case BackendPostgres:
		driver, err = wrap(postgres.NewDriver(ctx, postgres.Config{
			DSN:        cfg.Storage.PostgresDSN,
			Embedder:   embedder,
			Vectors:    vectors,
			Dimensions: cfg.Embedding.Dimensions,
			Logger:     log,
		}))
	default:
		driver, err = wrap(sqlite.NewSQLiteDriver(ctx, sqlite.Config{
			Path:       cfg.Storage.SQLitePath,
			Embedder:   embedder,
			Vectors:    vectors,
			Dimensions: cfg.Embedding.Dimensions,
			Logger:     log,
		}))
	}
	if err != nil {
		return nil, errors.Join(err, vectors.Close(), embedder.Close())
	}

	log.Info("using vector backed storage",
		"provider", cfg.Storage.Provider,
		"vector_store", cfg.VectorStore.Provider,
		"embedding_model", cfg.Embedding.Model,
	)
	return driver, nil
}

func wrap[T storage.Driver](d T, err error) (storage.Driver, error) {
	if err != nil {
		return nil, err
	}
	return d, nil
}
