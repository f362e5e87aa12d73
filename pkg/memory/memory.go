// Package memory holds the structured facts winter can answer from directly.
//
// Facts come from two flat text resources loaded once at startup: the user
// namespace (things the user told winter about themselves) and the system
// namespace (things winter knows about itself). Each line takes the form
//
//	vessel 3: USER_NAME = Alex
//
// where the leading word names the namespace, the number is the ordinal
// shown in provenance tags, and the key is matched by the router. The store
// is read-only; editing a resource requires a restart.
package memory

import (
	"cmp"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Namespace identifies which resource a Fact was loaded from.
type Namespace string

const (
	// NamespaceUser holds user-provided facts. Answers built from these
	// carry a provenance tag.
	NamespaceUser Namespace = "user"

	// NamespaceSystem holds facts describing the assistant itself.
	NamespaceSystem Namespace = "system"
)

const (
	// UserPrefix is the line prefix of the user resource.
	UserPrefix = "vessel"

	// SystemPrefix is the line prefix of the system resource.
	SystemPrefix = "system"
)

// Fact is a single key/value datum.
type Fact struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	Ordinal   int       `json:"ordinal"`
	Namespace Namespace `json:"namespace"`
}

// Paths locates the two fact resources.
type Paths struct {
	User   string
	System string
}

// Store is an immutable view over both fact namespaces.
type Store struct {
	user   map[string]Fact
	system map[string]Fact
}

// NewStore creates a Store from already parsed facts. The maps are copied.
func NewStore(user, system map[string]Fact) *Store {
	return &Store{
		user:   maps.Clone(orEmpty(user)),
		system: maps.Clone(orEmpty(system)),
	}
}

// Load reads both resources. Missing files produce empty namespaces.
func Load(paths Paths) (*Store, error) {
	user, err := LoadFile(paths.User, NamespaceUser, UserPrefix)
	if err != nil {
		return nil, err
	}

	system, err := LoadFile(paths.System, NamespaceSystem, SystemPrefix)
	if err != nil {
		return nil, err
	}

	return &Store{user: user, system: system}, nil
}

// Lookup returns the fact stored under key in ns.
func (s *Store) Lookup(ns Namespace, key string) (Fact, bool) {
	var f Fact
	var ok bool

	switch ns {
	case NamespaceUser:
		f, ok = s.user[key]
	case NamespaceSystem:
		f, ok = s.system[key]
	}

	return f, ok
}

// User returns a copy of the user namespace.
func (s *Store) User() map[string]Fact {
	return maps.Clone(s.user)
}

// System returns a copy of the system namespace.
func (s *Store) System() map[string]Fact {
	return maps.Clone(s.system)
}

// Len returns the number of facts across both namespaces.
func (s *Store) Len() int {
	return len(s.user) + len(s.system)
}

// PromptBlock renders the user facts for injection into a generation
// prompt, ordered by ordinal. Returns "" when there are no user facts.
func (s *Store) PromptBlock() string {
	if len(s.user) == 0 {
		return ""
	}

	facts := slices.SortedFunc(maps.Values(s.user), func(a, b Fact) int {
		return cmp.Or(cmp.Compare(a.Ordinal, b.Ordinal), strings.Compare(a.Key, b.Key))
	})

	var b strings.Builder
	b.WriteString("[USER FACTS - Reference when relevant:]\n")
	for _, f := range facts {
		fmt.Fprintf(&b, "%s %d: %s = %s\n", UserPrefix, f.Ordinal, f.Key, f.Value)
	}
	b.WriteString("[END USER FACTS]")

	return b.String()
}

func orEmpty(m map[string]Fact) map[string]Fact {
	if m == nil {
		return map[string]Fact{}
	}
	return m
}
