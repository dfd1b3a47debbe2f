package routing

import (
	"regexp"
	"strings"
)

// Rule selects a profile when a query falls in its word range and matches
// at least one keyword or pattern. Rules without keywords and patterns match
// on the word range alone.
type Rule struct {
	Name     string
	Target   string
	MinWords int
	MaxWords int // <= 0 means unbounded
	Keywords []string
	Patterns []*regexp.Regexp
	Priority int
}

// Unconstrained reports whether the rule has neither keywords nor patterns.
func (r Rule) Unconstrained() bool {
	return len(r.Keywords) == 0 && len(r.Patterns) == 0
}

// CatchAll reports whether the rule matches every query, including empty ones.
func (r Rule) CatchAll() bool {
	return r.Unconstrained() && r.MinWords <= 0 && r.MaxWords <= 0
}

// InRange reports whether wordCount satisfies the inclusive word range.
func (r Rule) InRange(wordCount int) bool {
	if wordCount < r.MinWords {
		return false
	}
	return r.MaxWords <= 0 || wordCount <= r.MaxWords
}

// Matches evaluates the rule. lower is the lower-cased query, raw the original.
func (r Rule) Matches(wordCount int, lower, raw string) bool {
	if !r.InRange(wordCount) {
		return false
	}
	if r.Unconstrained() {
		return true
	}
	for _, kw := range r.Keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	for _, p := range r.Patterns {
		if p.MatchString(raw) {
			return true
		}
	}
	return false
}
