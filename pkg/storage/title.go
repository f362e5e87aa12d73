package storage

import (
	"strings"
	"time"
)

// DefaultTitleLength is the number of characters of the first user message
// kept as a conversation title.
const DefaultTitleLength = 50

// UntitledTitle is used when the first user message is blank.
const UntitledTitle = "Untitled"

// DeriveTitle returns the first n runes of text with whitespace collapsed.
func DeriveTitle(text string, n int) string {
	if n <= 0 {
		n = DefaultTitleLength
	}

	title := strings.Join(strings.Fields(text), " ")
	if title == "" {
		return UntitledTitle
	}

	runes := []rune(title)
	if len(runes) > n {
		title = strings.TrimSpace(string(runes[:n]))
	}
	return title
}

// FormatLastUpdated renders t relative to now for conversation listings.
func FormatLastUpdated(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	t = t.In(now.Location())

	y, m, d := t.Date()
	ny, nm, nd := now.Date()
	if y == ny && m == nm && d == nd {
		return t.Format("3:04 PM")
	}

	yy, ym, yd := now.AddDate(0, 0, -1).Date()
	if y == yy && m == ym && d == yd {
		return "Yesterday " + t.Format("3:04 PM")
	}

	if now.Sub(t) < 7*24*time.Hour && !t.After(now) {
		return t.Format("Mon 3:04 PM")
	}

	return t.Format("Jan 02, 3:04 PM")
}
