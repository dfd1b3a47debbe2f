package result

import "time"

// Result is a single search hit. Values are immutable: re-scoring returns a copy.
type Result struct {
	title     string
	snippet   string
	link      string
	source    Source
	score     float64
	scored    bool
	timestamp time.Time
}

// New creates an unscored search result. A zero timestamp means "unknown".
func New(title, snippet, link string, source Source, timestamp time.Time) Result {
	return Result{
		title:     title,
		snippet:   snippet,
		link:      link,
		source:    source,
		timestamp: timestamp,
	}
}

// NewScored creates a search result with a score already attached.
func NewScored(title, snippet, link string, source Source, score float64) Result {
	r := New(title, snippet, link, source, time.Time{})
	r.score = score
	r.scored = true
	return r
}

// Title returns the result title.
func (r Result) Title() string { return r.title }

// Snippet returns the result snippet.
func (r Result) Snippet() string { return r.snippet }

// Link returns the URL or synthetic identifier of the result.
func (r Result) Link() string { return r.link }

// Source returns the originating source tag.
func (r Result) Source() Source { return r.source }

// Score returns the relevance score (0 when unscored).
func (r Result) Score() float64 { return r.score }

// Scored reports whether a score has been attached.
func (r Result) Scored() bool { return r.scored }

// Timestamp returns the publication time (zero when unknown).
func (r Result) Timestamp() time.Time { return r.timestamp }

// WithScore returns a copy carrying the given score.
func (r Result) WithScore(score float64) Result {
	r.score = score
	r.scored = true
	return r
}

// WithSource returns a copy tagged with the given source.
func (r Result) WithSource(source Source) Result {
	r.source = source
	return r
}
