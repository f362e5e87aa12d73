package api

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/winter/pkg/storage"
)

const (
	defaultRecentLimit = 10
	defaultSearchLimit = 5
	maxLimit           = 100
)

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ConversationsResponse lists stored conversations.
type ConversationsResponse struct {
	Active        string            `json:"active"`
	Backend       string            `json:"backend"`
	Conversations []storage.Summary `json:"conversations"`
}

// TurnsResponse carries turns of the active conversation.
type TurnsResponse struct {
	ConversationID string         `json:"conversation_id"`
	Query          string         `json:"query,omitempty"`
	Turns          []storage.Turn `json:"turns"`
	Count          int            `json:"count"`
}

// ActiveResponse reports the active conversation after a change.
type ActiveResponse struct {
	Active string `json:"active"`
}

// ChatRequest is the body of POST /v1/chat.
type ChatRequest struct {
	Input string `json:"input"`
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

func (s *Server) handleListConversations(c *fiber.Ctx) error {
	return c.JSON(ConversationsResponse{
		Active:        s.orch.ActiveConversation(),
		Backend:       s.orch.Backend(),
		Conversations: s.orch.Conversations(c.UserContext()),
	})
}

func (s *Server) handleNewConversation(c *fiber.Ctx) error {
	s.orch.NewConversation()
	return c.JSON(ActiveResponse{Active: s.orch.ActiveConversation()})
}

func (s *Server) handleLoadConversation(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := s.orch.Resume(c.UserContext(), id); err != nil {
		if errors.Is(err, storage.ErrNoConversation) {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
		}
		s.logger.Error("loading conversation", "conversation_id", id, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to load conversation"})
	}
	return c.JSON(ActiveResponse{Active: s.orch.ActiveConversation()})
}

// handleRecentTurns handles GET /v1/turns/recent.
// Query parameters:
//   - limit (optional, default 10): number of turns to return
func (s *Server) handleRecentTurns(c *fiber.Ctx) error {
	limit, err := parseLimit(c, defaultRecentLimit)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	}

	turns := s.orch.RecentTurns(c.UserContext(), limit)
	return c.JSON(TurnsResponse{
		ConversationID: s.orch.ActiveConversation(),
		Turns:          turns,
		Count:          len(turns),
	})
}

// handleSearch handles GET /v1/search.
// Query parameters:
//   - query (required): the search query text
//   - limit (optional, default 5): number of turns to return
func (s *Server) handleSearch(c *fiber.Ctx) error {
	query := strings.TrimSpace(c.Query("query"))
	if query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "query parameter is required"})
	}

	limit, err := parseLimit(c, defaultSearchLimit)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	}

	turns := s.orch.SearchHistory(c.UserContext(), query, limit)
	return c.JSON(TurnsResponse{
		ConversationID: s.orch.ActiveConversation(),
		Query:          query,
		Turns:          turns,
		Count:          len(turns),
	})
}

// handleChat handles POST /v1/chat and streams fragments as NDJSON, one
// chat.Fragment per line. A client that disconnects mid-answer stops the
// stream, and the partial answer is not saved.
func (s *Server) handleChat(c *fiber.Ctx) error {
	var req ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}
	if strings.TrimSpace(req.Input) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "input is required"})
	}

	c.Set(fiber.HeaderContentType, "application/x-ndjson")
	c.Set(fiber.HeaderCacheControl, "no-cache")

	// The body writer runs after the handler returns, when the request
	// context is no longer valid.
	input := req.Input
	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		enc := json.NewEncoder(w)
		for fragment := range s.orch.Chat(context.Background(), input) {
			if err := enc.Encode(fragment); err != nil {
				s.logger.Warn("encoding chat fragment", "error", err)
				return
			}
			if err := w.Flush(); err != nil {
				s.logger.Debug("chat client went away", "error", err)
				return
			}
		}
	})

	return nil
}

func parseLimit(c *fiber.Ctx, def int) (int, error) {
	raw := c.Query("limit")
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, errors.New("limit must be a positive integer")
	}
	return min(n, maxLimit), nil
}
