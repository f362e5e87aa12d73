package router

import "regexp"

// Well-known fact keys.
const (
	KeyUserName    = "USER_NAME"
	KeyProject     = "PROJECT"
	KeyGPU         = "GPU"
	KeyLocation    = "LOCATION"
	KeyAIName      = "AI_NAME"
	KeyAIModel     = "AI_MODEL"
	KeyAIPurpose   = "AI_PURPOSE"
	KeyAIStorage   = "AI_STORAGE"
	KeyAIEmbedding = "AI_EMBEDDING"
)

// Rule associates a fact key with the patterns that select it.
type Rule struct {
	Key      string
	Patterns []*regexp.Regexp
}

// Matches reports whether any pattern hits the lowercased input.
func (r Rule) Matches(lowered string) bool {
	for _, p := range r.Patterns {
		if p.MatchString(lowered) {
			return true
		}
	}
	return false
}

// Rules is an ordered routing table. Earlier rules win ties.
type Rules []Rule

// NewRule compiles patterns for key. Patterns are matched against lowercased
// input. It panics on an invalid pattern, so it belongs in table setup only.
func NewRule(key string, patterns ...string) Rule {
	compiled := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		compiled[i] = regexp.MustCompile(p)
	}
	return Rule{Key: key, Patterns: compiled}
}

var defaultRules = Rules{
	NewRule(KeyUserName, `\bmy name\b`, `what.*i called`, `who am i`, `what'?s my name`, `name again`),
	NewRule(KeyProject, `\bmy project\b`, `working on`, `building`, `what'?s.*project`),
	NewRule(KeyGPU, `\bmy gpu\b`, `what.*graphics`, `gpu.*have`, `what gpu`, `\bvram\b`, `video memory`),
	NewRule(KeyLocation, `where am i`, `my location`, `what.*city`, `what'?s my location`),
	NewRule(KeyAIName, `\byour name\b`, `who are you`, `what'?s your name`),
	NewRule(KeyAIModel, `\bwhat model\b`, `which.*llm`, `what.*model.*you`),
	NewRule(KeyAIPurpose, `what.*you do`, `your purpose`),
	NewRule(KeyAIStorage, `how.*store`, `what.*database`),
	NewRule(KeyAIEmbedding, `embedding model`, `what.*embeddings`),
}

// DefaultRules returns the built-in routing table. The returned slice is
// shared; callers must not modify it.
func DefaultRules() Rules {
	return defaultRules
}
