package utils

import "strings"

// Truncate shortens s to at most maxLen runes, marking the cut with "...".
func Truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}

// OneLine collapses newlines and runs of whitespace so s fits a listing row.
func OneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
