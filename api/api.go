package api

import (
	"context"
	"iter"
	"log/slog"
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/winter/pkg/chat"
	"github.com/papercomputeco/winter/pkg/logger"
	"github.com/papercomputeco/winter/pkg/storage"
)

// Orchestrator is the conversation surface the API exposes.
type Orchestrator interface {
	Chat(ctx context.Context, input string) iter.Seq[chat.Fragment]
	SearchHistory(ctx context.Context, query string, limit int) []storage.Turn
	RecentTurns(ctx context.Context, limit int) []storage.Turn
	Conversations(ctx context.Context) []storage.Summary
	Resume(ctx context.Context, id string) error
	NewConversation()
	ActiveConversation() string
	Backend() string
}

// Server is the API server for chatting with and querying winter
type Server struct {
	config Config
	orch   Orchestrator
	logger *slog.Logger
	app    *fiber.App
}

// NewServer creates a new API server around orch.
func NewServer(config Config, orch Orchestrator, log *slog.Logger) *Server {
	if log == nil {
		log = logger.Nop()
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config: config,
		orch:   orch,
		logger: log,
		app:    app,
	}

	app.Use(s.logRequests)

	app.Get("/ping", s.handlePing)

	v1 := app.Group("/v1")
	v1.Get("/conversations", s.handleListConversations)
	v1.Post("/conversations/new", s.handleNewConversation)
	v1.Post("/conversations/:id/load", s.handleLoadConversation)
	v1.Get("/turns/recent", s.handleRecentTurns)
	v1.Get("/search", s.handleSearch)
	v1.Post("/chat", s.handleChat)

	if config.MCPHandler != nil {
		app.All("/mcp", adaptor.HTTPHandler(config.MCPHandler))
	}

	return s
}

// App exposes the fiber app, for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		"listen", s.config.ListenAddr,
		"mcp", s.config.MCPHandler != nil,
	)
	return s.app.Listen(s.config.ListenAddr)
}

// shutdownTimeout bounds how long Shutdown waits for open chat streams.
const shutdownTimeout = 5 * time.Second

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.ShutdownWithTimeout(shutdownTimeout)
}

func (s *Server) logRequests(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	s.logger.Debug("api request",
		"method", c.Method(),
		"path", c.Path(),
		"status", c.Response().StatusCode(),
		"duration", time.Since(start),
	)
	return err
}
