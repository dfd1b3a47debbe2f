// Package cache implements the TTL + LRU search result cache.
package cache

import (
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/searchcore/internal/domain/search/result"
)

// Defaults used when the caller passes non-positive limits.
const (
	DefaultTTL     = 30 * time.Minute
	DefaultMaxSize = 100
)

// Entry is a cached result set.
type Entry struct {
	Query     string // normalized
	Results   []result.Result
	Source    string
	CreatedAt time.Time
	HitCount  int
}

// Stats is a snapshot of cache effectiveness.
type Stats struct {
	Size              int     `json:"size"`
	Hits              int64   `json:"hits"`
	Searches          int64   `json:"searches"`
	HitRate           string  `json:"hit_rate"`
	AvgResponseTimeMs float64 `json:"avg_response_time_ms"`
}

// Store is a bounded TTL cache keyed by normalized query. Reads bump recency,
// so eviction removes the least recently touched entry.
type Store struct {
	mu      sync.Mutex
	entries *lru.Cache[string, *Entry]
	ttl     time.Duration
	now     func() time.Time
	logger  *zap.Logger

	searches      int64
	hits          int64
	avgResponseMs float64
	samples       int64

	lookups *prometheus.CounterVec
	size    prometheus.Gauge
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithMetrics attaches a lookup counter (label "result") and an entry gauge. Either may be nil.
func WithMetrics(lookups *prometheus.CounterVec, size prometheus.Gauge) Option {
	return func(s *Store) {
		s.lookups = lookups
		s.size = size
	}
}

// New creates a Store holding at most maxSize entries for ttl each.
func New(maxSize int, ttl time.Duration, opts ...Option) *Store {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	entries, err := lru.New[string, *Entry](maxSize)
	if err != nil {
		// Only returned for non-positive sizes, excluded above.
		panic(fmt.Sprintf("create lru cache: %v", err))
	}
	s := &Store{
		entries: entries,
		ttl:     ttl,
		now:     time.Now,
		logger:  zap.NewNop(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Get returns the entry for query. Expired or malformed entries are removed
// and reported as a miss. A hit increments the entry's hit counter and makes
// it the most recently used.
func (s *Store) Get(query string) (Entry, bool) {
	key := Normalize(query)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.searches++

	e, ok := s.entries.Peek(key)
	if !ok {
		s.observe("miss")
		return Entry{}, false
	}
	if e == nil || e.CreatedAt.IsZero() {
		s.logger.Warn("Discarding malformed cache entry", zap.String("query", key))
		s.entries.Remove(key)
		s.observe("miss")
		s.updateSize()
		return Entry{}, false
	}
	if s.now().Sub(e.CreatedAt) > s.ttl {
		s.entries.Remove(key)
		s.observe("expired")
		s.updateSize()
		return Entry{}, false
	}

	s.entries.Get(key) // bump recency
	e.HitCount++
	s.hits++
	s.observe("hit")

	return e.snapshot(), true
}

// Has reports whether a fresh entry exists without touching stats or recency.
func (s *Store) Has(query string) bool {
	key := Normalize(query)

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries.Peek(key)
	return ok && e != nil && !e.CreatedAt.IsZero() && s.now().Sub(e.CreatedAt) <= s.ttl
}

// Set stores results under the normalized query, evicting the least recently
// used entry when the cache is full. The entry starts with zero hits.
func (s *Store) Set(query string, results []result.Result, source string) {
	key := Normalize(query)
	stored := make([]result.Result, len(results))
	copy(stored, results)

	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := s.entries.Add(key, &Entry{
		Query:     key,
		Results:   stored,
		Source:    source,
		CreatedAt: s.now(),
	})
	if evicted {
		s.logger.Debug("Evicted oldest cache entry", zap.Int("size", s.entries.Len()))
	}
	s.updateSize()
}

// Clear drops every entry. Search counters are kept.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries.Purge()
	s.updateSize()
}

// RecordResponseTime folds a search latency into the running average.
func (s *Store) RecordResponseTime(d time.Duration) {
	ms := float64(d) / float64(time.Millisecond)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.avgResponseMs = (s.avgResponseMs*float64(s.samples) + ms) / float64(s.samples+1)
	s.samples++
}

// Stats returns a snapshot of cache metrics.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	rate := 0.0
	if s.searches > 0 {
		rate = float64(s.hits) / float64(s.searches) * 100
	}
	return Stats{
		Size:              s.entries.Len(),
		Hits:              s.hits,
		Searches:          s.searches,
		HitRate:           fmt.Sprintf("%.1f%%", rate),
		AvgResponseTimeMs: s.avgResponseMs,
	}
}

func (s *Store) observe(res string) {
	if s.lookups != nil {
		s.lookups.WithLabelValues(res).Inc()
	}
}

func (s *Store) updateSize() {
	if s.size != nil {
		s.size.Set(float64(s.entries.Len()))
	}
}

func (e *Entry) snapshot() Entry {
	out := *e
	out.Results = make([]result.Result, len(e.Results))
	copy(out.Results, e.Results)
	return out
}
