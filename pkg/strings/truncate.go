// Package strings holds text helpers shared by the CLI and the web UI.
package strings

import (
	"strings"
)

// DefaultPreviewLen is the preview width used in document listings.
const DefaultPreviewLen = 60

// MinPreviewLen leaves room for one character plus "...".
const MinPreviewLen = 4

// Preview collapses all whitespace in s to single spaces and cuts the result
// to maxLen runes, ending in "..." when cut. maxLen below MinPreviewLen is
// raised to MinPreviewLen.
func Preview(s string, maxLen int) string {
	if maxLen < MinPreviewLen {
		maxLen = MinPreviewLen
	}

	s = strings.Join(strings.Fields(s), " ")

	runes := []rune(s)
	if len(runes) > maxLen {
		return string(runes[:maxLen-3]) + "..."
	}
	return s
}
