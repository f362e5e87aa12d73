package cliui

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/x/ansi"

	"github.com/papercomputeco/winter/pkg/storage"
	"github.com/papercomputeco/winter/pkg/utils"
)

// previewRunes bounds the text shown per side of a turn in listings.
const previewRunes = 120

// WriteTurns prints turns as numbered user/assistant pairs.
func WriteTurns(w io.Writer, turns []storage.Turn, assistantName string, width int) {
	if len(turns) == 0 {
		fmt.Fprintf(w, "  %s\n", DimStyle.Render("No turns yet."))
		return
	}

	for _, t := range turns {
		header := fmt.Sprintf("#%d  %s", t.TurnNumber, t.CreatedAt.Local().Format(storage.DateTimeLayout))
		fmt.Fprintf(w, "  %s\n", DimStyle.Render(header))
		fmt.Fprintf(w, "  %s %s\n",
			KeyStyle.Render("you:"),
			TruncateLine(ValueStyle.Render(preview(t.UserText)), width-8),
		)
		fmt.Fprintf(w, "  %s %s\n\n",
			KeyStyle.Render(assistantName+":"),
			TruncateLine(ValueStyle.Render(preview(t.AssistantText)), width-len(assistantName)-4),
		)
	}
}

// preview flattens persisted text for a listing line. Stored answers may
// carry terminal control sequences from the model.
func preview(s string) string {
	return utils.Truncate(utils.OneLine(ansi.Strip(s)), previewRunes)
}

// WriteConversations prints a conversation listing, newest first, marking
// the active one.
func WriteConversations(w io.Writer, summaries []storage.Summary, active string, now time.Time) {
	if len(summaries) == 0 {
		fmt.Fprintf(w, "  %s\n", DimStyle.Render("No conversations yet."))
		return
	}

	for _, s := range summaries {
		marker := " "
		if s.ID == active {
			marker = SuccessMark
		}
		fmt.Fprintf(w, "  %s %s  %s  %s\n",
			marker,
			KeyStyle.Render(s.Title),
			DimStyle.Render(fmt.Sprintf("%d turns, %s", s.TurnCount, storage.FormatLastUpdated(s.LastUpdated, now))),
			DimStyle.Render(s.ID),
		)
	}
}
