package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/winter/pkg/storage"
)

const (
	defaultSearchLimit = 5
	defaultRecentLimit = 10
)

var (
	searchToolName    = "search_history"
	searchDescription = "Search the active winter conversation for turns related to the query text. Returns matching user/assistant exchanges, most related first when the storage is vector backed."

	recentToolName    = "recent_turns"
	recentDescription = "Return the latest turns of the active winter conversation, oldest first."
)

// SearchInput represents the input arguments for the search_history tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"the search query text to find related turns"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of turns to return (default: 5)"`
}

// RecentInput represents the input arguments for the recent_turns tool.
type RecentInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"maximum number of turns to return (default: 10)"`
}

// Turn is a tool-facing rendering of a stored turn.
type Turn struct {
	TurnNumber    int    `json:"turn_number"`
	UserText      string `json:"user_text"`
	AssistantText string `json:"assistant_text"`
	CreatedAt     string `json:"created_at"`
}

// TurnsOutput is the structured output of both tools.
type TurnsOutput struct {
	ConversationID string `json:"conversation_id"`
	Query          string `json:"query,omitempty"`
	Turns          []Turn `json:"turns"`
	Count          int    `json:"count"`
}

// handleSearch processes a search_history request.
func (s *Server) handleSearch(ctx context.Context, _ *mcp.CallToolRequest, input SearchInput) (*mcp.CallToolResult, TurnsOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	s.config.Logger.Debug("MCP search request",
		"query", input.Query,
		"limit", limit,
	)

	if input.Query == "" {
		return errorResult("query is required"), TurnsOutput{Turns: []Turn{}}, nil
	}

	output := s.buildOutput(s.config.History.SearchHistory(ctx, input.Query, limit))
	output.Query = input.Query
	return s.result(output)
}

// handleRecent processes a recent_turns request.
func (s *Server) handleRecent(ctx context.Context, _ *mcp.CallToolRequest, input RecentInput) (*mcp.CallToolResult, TurnsOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = defaultRecentLimit
	}

	s.config.Logger.Debug("MCP recent request", "limit", limit)

	return s.result(s.buildOutput(s.config.History.RecentTurns(ctx, limit)))
}

func (s *Server) buildOutput(turns []storage.Turn) TurnsOutput {
	out := TurnsOutput{
		ConversationID: s.config.History.ActiveConversation(),
		Turns:          make([]Turn, 0, len(turns)),
	}
	for _, t := range turns {
		out.Turns = append(out.Turns, Turn{
			TurnNumber:    t.TurnNumber,
			UserText:      t.UserText,
			AssistantText: t.AssistantText,
			CreatedAt:     t.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	out.Count = len(out.Turns)
	return out
}

// result also serializes the structured output into a TextContent block for
// clients that ignore structured content.
func (s *Server) result(output TurnsOutput) (*mcp.CallToolResult, TurnsOutput, error) {
	jsonBytes, err := json.Marshal(output)
	if err != nil {
		s.config.Logger.Error("failed to marshal tool output", "error", err)
		return errorResult(fmt.Sprintf("Failed to serialize results: %v", err)), TurnsOutput{Turns: []Turn{}}, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}, output, nil
}

func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: msg},
		},
	}
}
