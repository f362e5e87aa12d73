// Package app assembles a ready Orchestrator from configuration. The CLI
// and the API server share it so both surfaces run the same stack.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/papercomputeco/winter/pkg/chat"
	"github.com/papercomputeco/winter/pkg/config"
	"github.com/papercomputeco/winter/pkg/eventstream"
	eventstreamutils "github.com/papercomputeco/winter/pkg/eventstream/utils"
	"github.com/papercomputeco/winter/pkg/git"
	"github.com/papercomputeco/winter/pkg/llm"
	llmutils "github.com/papercomputeco/winter/pkg/llm/utils"
	"github.com/papercomputeco/winter/pkg/logger"
	"github.com/papercomputeco/winter/pkg/memory"
	"github.com/papercomputeco/winter/pkg/memory/router"
	"github.com/papercomputeco/winter/pkg/retrieval"
	"github.com/papercomputeco/winter/pkg/storage"
	storageutils "github.com/papercomputeco/winter/pkg/storage/utils"
)

// App owns every long-lived component behind an Orchestrator.
type App struct {
	Orchestrator *chat.Orchestrator
	Store        *storage.Store
	Facts        *memory.Store
	Config       *config.Config

	publisher eventstream.Publisher
	logger    *slog.Logger
}

// Option adjusts how New builds an App.
type Option func(*options)

type options struct {
	generator llm.Generator
	workDir   string
}

// WithGenerator replaces the configured generation backend.
func WithGenerator(g llm.Generator) Option {
	return func(o *options) { o.generator = g }
}

// WithWorkDir sets the directory whose repository names the project when
// conversation.project is unset. It defaults to the working directory.
func WithWorkDir(dir string) Option {
	return func(o *options) { o.workDir = dir }
}

// New builds the storage backend (with fallback), loads facts, and wires
// the orchestrator. Components already opened are closed when a later
// step fails.
func New(ctx context.Context, cfg *config.Config, log *slog.Logger, opts ...Option) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if log == nil {
		log = logger.Nop()
	}
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	facts, err := memory.Load(memory.Paths{
		User:   cfg.Memory.UserFacts,
		System: cfg.Memory.SystemFacts,
	})
	if err != nil {
		return nil, fmt.Errorf("loading facts: %w", err)
	}
	log.Debug("loaded facts", "count", facts.Len())

	generator := o.generator
	if generator == nil {
		generator, err = llmutils.NewGenerator(cfg.LLM, log)
		if err != nil {
			return nil, err
		}
	}

	publisher, err := eventstreamutils.NewPublisher(cfg.Events, log)
	if err != nil {
		return nil, err
	}

	driver, backend, err := storageutils.NewDriverWithFallback(ctx, cfg, log)
	if err != nil {
		_ = publisher.Close()
		return nil, err
	}

	store := storage.NewStore(driver,
		storage.WithLogger(log),
		storage.WithBackend(backend),
		storage.WithTitleLength(int(cfg.Conversation.TitleLength)),
		storage.WithProject(projectName(ctx, cfg, o.workDir)),
	)

	orch, err := chat.New(chat.Config{
		Store:          store,
		Router:         router.New(facts, nil, router.WithLogger(log)),
		Facts:          facts,
		Retriever:      retrieval.New(retrieval.WithLogger(log)),
		Generator:      generator,
		Publisher:      publisher,
		Logger:         log,
		AssistantName:  cfg.Conversation.AssistantName,
		RetrievalLimit: int(cfg.Retrieval.Limit),
		HistoryTurns:   int(cfg.Conversation.HistoryTurns),
	})
	if err != nil {
		_ = store.Close()
		_ = publisher.Close()
		return nil, err
	}

	log.Info("winter ready",
		"backend", backend,
		"facts", facts.Len(),
		"events", cfg.Events.Provider,
	)

	return &App{
		Orchestrator: orch,
		Store:        store,
		Facts:        facts,
		Config:       cfg,
		publisher:    publisher,
		logger:       log,
	}, nil
}

// Close releases the store and the event publisher.
func (a *App) Close() error {
	a.logger.Debug("closing winter", "backend", a.Store.Backend())
	return errors.Join(a.Store.Close(), a.publisher.Close())
}

func projectName(ctx context.Context, cfg *config.Config, dir string) string {
	if cfg.Conversation.Project != "" {
		return cfg.Conversation.Project
	}
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return ""
		}
		dir = wd
	}
	return git.ProjectName(ctx, dir)
}
