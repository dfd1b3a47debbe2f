package cache

import (
	"regexp"
	"strings"
)

var nonWord = regexp.MustCompile(`[^\p{L}\p{N}_\s]+`)

// Normalize maps a query to its cache key: lower-cased, punctuation stripped,
// whitespace collapsed to single spaces and trimmed.
func Normalize(query string) string {
	q := strings.ToLower(strings.TrimSpace(query))
	q = nonWord.ReplaceAllString(q, "")
	return strings.Join(strings.Fields(q), " ")
}
