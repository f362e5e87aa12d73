// Package router decides whether an input can be answered straight from
// stored facts.
//
// The router first applies a question gate, then walks its rule table twice:
// once against user facts and once against system facts. A user fact always
// shadows a system fact whose patterns also match. Within a namespace the
// first rule in table order wins; pattern specificity is not considered.
package router

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/papercomputeco/winter/pkg/logger"
	"github.com/papercomputeco/winter/pkg/memory"
)

// Match is a routed direct-answer candidate.
type Match struct {
	Key  string
	Fact memory.Fact
}

// Facts is the read view the router needs from a fact store.
type Facts interface {
	Lookup(ns memory.Namespace, key string) (memory.Fact, bool)
}

// Router routes inputs to facts.
type Router struct {
	facts  Facts
	rules  Rules
	logger *slog.Logger
}

// Option configures a Router.
type Option func(*Router)

// WithLogger sets the router logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Router) {
		r.logger = l
	}
}

// New creates a Router over facts. A nil rules table selects DefaultRules.
func New(facts Facts, rules Rules, opts ...Option) *Router {
	if rules == nil {
		rules = DefaultRules()
	}

	r := &Router{
		facts:  facts,
		rules:  rules,
		logger: logger.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Route returns the fact that answers input, if any.
func (r *Router) Route(input string) (Match, bool) {
	if !IsQuestion(input) {
		return Match{}, false
	}

	lowered := strings.ToLower(strings.TrimSpace(input))

	for _, ns := range []memory.Namespace{memory.NamespaceUser, memory.NamespaceSystem} {
		for _, rule := range r.rules {
			fact, ok := r.facts.Lookup(ns, rule.Key)
			if !ok {
				continue
			}
			if rule.Matches(lowered) {
				r.logger.Debug("routed to fact",
					"key", rule.Key,
					"namespace", string(ns),
				)
				return Match{Key: rule.Key, Fact: fact}, true
			}
		}
	}

	return Match{}, false
}

var interrogatives = map[string]bool{
	"what":  true,
	"where": true,
	"who":   true,
	"when":  true,
	"why":   true,
	"how":   true,
	"which": true,
}

// rhetorical marks inputs that end in "?" but are not asking for a fact.
var rhetorical = []*regexp.Regexp{
	regexp.MustCompile(`you know`),
	regexp.MustCompile(`you have`),
	regexp.MustCompile(`that'?s? creepy`),
	regexp.MustCompile(`creeper`),
	regexp.MustCompile(`why do you`),
	regexp.MustCompile(`how do you know`),
}

// IsQuestion reports whether input is a genuine question. Inputs ending in
// "?" qualify unless they are rhetorical; other inputs qualify only when
// their first word is an interrogative.
func IsQuestion(input string) bool {
	lowered := strings.ToLower(strings.TrimSpace(input))
	if lowered == "" {
		return false
	}

	if strings.HasSuffix(lowered, "?") {
		for _, re := range rhetorical {
			if re.MatchString(lowered) {
				return false
			}
		}
		return true
	}

	first := strings.Fields(lowered)[0]
	first = strings.TrimRight(first, ",.!;:")
	if i := strings.IndexAny(first, "'’"); i > 0 {
		first = first[:i]
	}

	return interrogatives[first]
}
