package sqldriver

import (
	"strconv"
	"strings"
)

// Dialect captures what differs between the SQL engines behind Driver.
type Dialect struct {
	Name string

	// Numbered placeholders ($1, $2, ...) instead of ?.
	Numbered bool

	// LockConversation, when set, runs first in every append transaction
	// with the conversation ID as its only argument.
	LockConversation string

	// IsUniqueViolation reports whether err is a unique constraint failure.
	IsUniqueViolation func(err error) bool
}

// rebind rewrites ? placeholders for dialects with numbered parameters.
// Queries in this package never contain a literal ?.
func (d Dialect) rebind(query string) string {
	if !d.Numbered {
		return query
	}

	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// placeholders returns n comma separated ? markers.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
