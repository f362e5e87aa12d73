// Package formatter renders routed facts as direct answers.
package formatter

import (
	"fmt"

	"github.com/papercomputeco/winter/pkg/memory"
	"github.com/papercomputeco/winter/pkg/memory/router"
)

// SourceName is the resource named in provenance tags.
const SourceName = "memory.txt"

var templates = map[string]string{
	router.KeyUserName:    "Your name is %s.",
	router.KeyProject:     "You're working on %s.",
	router.KeyGPU:         "You have a %s.",
	router.KeyLocation:    "You're in %s.",
	router.KeyAIName:      "I'm %s.",
	router.KeyAIModel:     "I'm running %s.",
	router.KeyAIPurpose:   "I'm %s.",
	router.KeyAIStorage:   "I use %s.",
	router.KeyAIEmbedding: "I use %s for embeddings.",
}

// Format renders m as natural language. Unknown keys render as the bare
// value. Answers drawn from user facts end with a provenance tag naming
// the ordinal and key they came from.
func Format(m router.Match) string {
	text := m.Fact.Value
	if tmpl, ok := templates[m.Key]; ok {
		text = fmt.Sprintf(tmpl, m.Fact.Value)
	}

	if m.Fact.Namespace == memory.NamespaceUser {
		text += " " + Provenance(m.Fact)
	}

	return text
}

// Provenance returns the tag appended to answers built from user facts.
func Provenance(f memory.Fact) string {
	return fmt.Sprintf("[FROM: %s %s %d: %s]", SourceName, memory.UserPrefix, f.Ordinal, f.Key)
}
