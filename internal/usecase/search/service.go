// Package search answers queries from local documents, the result cache or
// external providers, in that order of preference.
package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/searchcore/internal/domain"
	"github.com/kailas-cloud/searchcore/internal/domain/search/rank"
	"github.com/kailas-cloud/searchcore/internal/domain/search/result"
	"github.com/kailas-cloud/searchcore/internal/metrics"
	"github.com/kailas-cloud/searchcore/internal/usecase/cache"
	"github.com/kailas-cloud/searchcore/internal/usecase/progressive"
)

// DefaultMaxResults caps responses when Options.MaxResults is zero.
const DefaultMaxResults = 5

// Path labels describing which stage produced an answer.
const (
	PathLocal   = "local"
	PathCache   = "cache"
	PathNetwork = "network"
	PathEmpty   = "empty"
)

const cacheSourceNetwork = "network"

// Options tune a single search.
type Options struct {
	MaxResults     int
	Progressive    bool
	ConversationID string
}

// Response is the outcome of a search. Failures surface as an empty result set.
type Response struct {
	ID           string
	Results      []result.Result
	FromCache    bool
	Path         string
	ResponseTime time.Duration
	TotalFound   int
}

// Service is the search orchestrator.
type Service struct {
	local      LocalRetriever
	engine     ProgressiveEngine
	cache      ResultCache
	providers  []Provider
	maxResults int
	logger     *zap.Logger
	now        func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithDefaultMaxResults overrides DefaultMaxResults.
func WithDefaultMaxResults(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxResults = n
		}
	}
}

// WithClock overrides the time source used for response timing.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New creates a search orchestrator. Providers are queried concurrently and
// merged in the order given.
func New(
	local LocalRetriever, engine ProgressiveEngine, c ResultCache,
	providers []Provider, logger *zap.Logger, opts ...Option,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		local:      local,
		engine:     engine,
		cache:      c,
		providers:  providers,
		maxResults: DefaultMaxResults,
		logger:     logger,
		now:        time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Search answers query. Local documents win whenever any chunk matches; the
// network is consulted only when local retrieval yields nothing. With
// opts.Progressive and a non-nil onProgress the network stage reports every
// batch; otherwise onProgress, when given, receives the final set once.
func (s *Service) Search(
	ctx context.Context, query string, opts Options, onProgress progressive.ProgressFunc,
) (Response, error) {
	if strings.TrimSpace(query) == "" {
		return Response{}, fmt.Errorf("%w: query is required", domain.ErrInvalidRequest)
	}
	limit := opts.MaxResults
	if limit <= 0 {
		limit = s.maxResults
	}

	start := s.now()
	resp := Response{ID: uuid.NewString()}
	log := s.logger.With(zap.String("search_id", resp.ID))

	switch local := s.local.Retrieve(ctx, query, opts.ConversationID, limit); {
	case len(local) > 0:
		resp.Results = local
		resp.Path = PathLocal
		notify(ctx, onProgress, local)
	case opts.Progressive && onProgress != nil:
		resp.Results, resp.FromCache = s.engine.Search(ctx, query, s.pagedFetch(log), onProgress)
		resp.Path = pathFor(resp.Results, resp.FromCache)
	default:
		resp.Results, resp.FromCache = s.searchOnce(ctx, query, limit, log)
		resp.Path = pathFor(resp.Results, resp.FromCache)
		notify(ctx, onProgress, resp.Results)
	}

	resp.TotalFound = len(resp.Results)
	resp.ResponseTime = s.now().Sub(start)
	s.cache.RecordResponseTime(resp.ResponseTime)

	metrics.SearchRequestsTotal.WithLabelValues(resp.Path).Inc()
	metrics.SearchDuration.Observe(resp.ResponseTime.Seconds())

	log.Debug("Search completed",
		zap.String("path", resp.Path),
		zap.Int("results", resp.TotalFound),
		zap.Duration("duration", resp.ResponseTime),
	)
	return resp, nil
}

// CacheStats reports result cache metrics.
func (s *Service) CacheStats() cache.Stats {
	return s.cache.Stats()
}

// ClearCache drops every cached result set.
func (s *Service) ClearCache() {
	s.cache.Clear()
}

// Preload warms the cache with queries that are not cached yet. It returns
// the number of queries cached.
func (s *Service) Preload(ctx context.Context, queries []string) int {
	log := s.logger.With(zap.String("phase", "preload"))
	return s.engine.Preload(ctx, queries, func(ctx context.Context, query string, limit int) ([]result.Result, error) {
		return s.fanOut(ctx, query, limit, 0, log)
	})
}

// searchOnce serves query from cache or a single provider fan-out.
func (s *Service) searchOnce(
	ctx context.Context, query string, limit int, log *zap.Logger,
) ([]result.Result, bool) {
	if entry, ok := s.cache.Get(query); ok {
		return capResults(entry.Results, limit), true
	}

	merged, err := s.fanOut(ctx, query, limit, 0, log)
	if err != nil || len(merged) == 0 {
		return nil, false
	}

	ranked := rank.Rank(merged, query)
	s.cache.Set(query, ranked, cacheSourceNetwork)
	return capResults(ranked, limit), false
}

// pagedFetch returns a fetch function whose successive calls walk provider
// pages. Each provider keeps its own offset, advanced by the items it
// returned. Fresh items from all providers are pooled, ranked, and the best
// limit handed out; the rest carry over to the next batch. Links already
// seen by earlier batches are skipped.
func (s *Service) pagedFetch(log *zap.Logger) progressive.FetchFunc {
	offsets := make([]int, len(s.providers))
	seen := make(map[string]struct{})
	var pending []result.Result

	return func(ctx context.Context, query string, limit int) ([]result.Result, error) {
		if len(pending) < limit {
			parts, err := s.fetchPages(ctx, query, limit, offsets, log)
			if err != nil && len(pending) == 0 {
				return nil, err
			}
			for i, part := range parts {
				offsets[i] += len(part)
				for _, r := range part {
					if _, dup := seen[r.Link()]; dup {
						continue
					}
					seen[r.Link()] = struct{}{}
					pending = append(pending, r)
				}
			}
		}

		pending = rank.RankAt(pending, query, s.now())
		n := min(limit, len(pending))
		batch := pending[:n:n]
		pending = pending[n:]
		return batch, nil
	}
}

// fanOut queries every provider concurrently at the same offset and merges
// their results in provider order, keeping the first occurrence of each link.
// A failing provider contributes nothing; an error is returned only when all fail.
func (s *Service) fanOut(
	ctx context.Context, query string, limit, offset int, log *zap.Logger,
) ([]result.Result, error) {
	offsets := make([]int, len(s.providers))
	for i := range offsets {
		offsets[i] = offset
	}
	parts, err := s.fetchPages(ctx, query, limit, offsets, log)
	if err != nil {
		return nil, err
	}
	return dedupe(parts), nil
}

// fetchPages queries provider i at offsets[i] concurrently and returns the
// source-tagged page of each provider by index.
func (s *Service) fetchPages(
	ctx context.Context, query string, limit int, offsets []int, log *zap.Logger,
) ([][]result.Result, error) {
	if len(s.providers) == 0 {
		return nil, fmt.Errorf("%w: no providers configured", domain.ErrProviderFailure)
	}

	parts := make([][]result.Result, len(s.providers))
	failed := make([]bool, len(s.providers))

	g, gctx := errgroup.WithContext(ctx)
	for i, p := range s.providers {
		g.Go(func() error {
			rs, err := p.Fetch(gctx, query, limit, offsets[i])
			if err != nil {
				failed[i] = true
				log.Warn("Search provider failed",
					zap.String("provider", p.Name()),
					zap.Int("offset", offsets[i]),
					zap.Error(err),
				)
				return nil
			}
			tagged := make([]result.Result, len(rs))
			for j, r := range rs {
				tagged[j] = r.WithSource(p.Source())
			}
			parts[i] = tagged
			return nil
		})
	}
	_ = g.Wait() // provider errors are recorded in failed, never returned

	allFailed := true
	for _, f := range failed {
		allFailed = allFailed && f
	}
	if allFailed {
		return nil, fmt.Errorf("%w: all %d providers failed", domain.ErrProviderFailure, len(s.providers))
	}
	return parts, nil
}

func dedupe(parts [][]result.Result) []result.Result {
	seen := make(map[string]struct{})
	var out []result.Result
	for _, part := range parts {
		for _, r := range part {
			if _, dup := seen[r.Link()]; dup {
				continue
			}
			seen[r.Link()] = struct{}{}
			out = append(out, r)
		}
	}
	return out
}

func capResults(rs []result.Result, limit int) []result.Result {
	if limit > 0 && len(rs) > limit {
		return rs[:limit]
	}
	return rs
}

func notify(ctx context.Context, onProgress progressive.ProgressFunc, rs []result.Result) {
	if onProgress != nil && ctx.Err() == nil {
		onProgress(rs, true)
	}
}

func pathFor(rs []result.Result, fromCache bool) string {
	switch {
	case fromCache:
		return PathCache
	case len(rs) == 0:
		return PathEmpty
	default:
		return PathNetwork
	}
}
