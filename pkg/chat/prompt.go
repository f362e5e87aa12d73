package chat

import (
	"fmt"
	"strings"

	"github.com/papercomputeco/winter/pkg/storage"
)

// DefaultAssistantName names the assistant in prompts.
const DefaultAssistantName = "agentWinter"

// DefaultHistoryTurns bounds the history section of a prompt.
const DefaultHistoryTurns = 5

// PromptOptions shape BuildPrompt output.
type PromptOptions struct {
	AssistantName string
	HistoryTurns  int
}

// BuildPrompt flattens identity, facts, retrieved history and the current
// input into the single prompt handed to the generator. Only the last
// HistoryTurns turns of history are included.
func BuildPrompt(opts PromptOptions, facts string, history []storage.Turn, input string) string {
	name := opts.AssistantName
	if name == "" {
		name = DefaultAssistantName
	}
	limit := opts.HistoryTurns
	if limit <= 0 {
		limit = DefaultHistoryTurns
	}
	if len(history) > limit {
		history = history[len(history)-limit:]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are %s, a helpful AI assistant with conversation memory.\n\n", name)

	if facts = strings.TrimSpace(facts); facts != "" {
		b.WriteString(facts)
		b.WriteString("\n\n")
	}

	if len(history) > 0 {
		b.WriteString("Conversation History:\n")
		for _, t := range history {
			fmt.Fprintf(&b, "User: %s\n%s: %s\n", t.UserText, name, t.AssistantText)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "Current question: %s\n%s:", input, name)
	return b.String()
}
