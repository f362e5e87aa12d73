// Package mcp provides an MCP (Model Context Protocol) server exposing
// winter's conversation history as tools.
package mcp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/winter/pkg/storage"
	"github.com/papercomputeco/winter/pkg/utils"
)

// History is the read side of the orchestrator the tools need.
type History interface {
	SearchHistory(ctx context.Context, query string, limit int) []storage.Turn
	RecentTurns(ctx context.Context, limit int) []storage.Turn
	ActiveConversation() string
}

type Config struct {
	// History answers the tool calls
	History History

	// Noop for empty MCP server
	Noop bool

	// Logger is the configured logger
	Logger *slog.Logger
}

type Server struct {
	config    Config
	mcpServer *mcp.Server
	handler   *mcp.StreamableHTTPHandler
}

// NewServer creates a new MCP server with the history tools.
func NewServer(c Config) (*Server, error) {
	s := &Server{
		config: c,
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "winter",
			Version: utils.Version,
		},
		&mcp.ServerOptions{},
	)

	if !c.Noop {
		if c.History == nil {
			return nil, errors.New("history is required")
		}
		if c.Logger == nil {
			return nil, errors.New("logger is required")
		}

		mcp.AddTool(mcpServer, &mcp.Tool{
			Name:        searchToolName,
			Description: searchDescription,
		}, s.handleSearch)

		mcp.AddTool(mcpServer, &mcp.Tool{
			Name:        recentToolName,
			Description: recentDescription,
		}, s.handleRecent)
	}

	s.mcpServer = mcpServer

	// Stateless streamable HTTP handler; every request sees the same server
	s.handler = mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server {
			return mcpServer
		},
		&mcp.StreamableHTTPOptions{
			Stateless: true,
		},
	)

	return s, nil
}

// Handler returns the HTTP handler for the MCP server.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// MCPServer returns the underlying SDK server.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcpServer
}
