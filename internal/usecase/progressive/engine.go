// Package progressive runs batched searches that report improving result sets.
package progressive

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/searchcore/internal/domain/search/rank"
	"github.com/kailas-cloud/searchcore/internal/domain/search/result"
)

// Cache source tags.
const (
	SourceProgressive = "progressive"
	SourcePreload     = "preload"
)

// Defaults applied to zero Config fields.
const (
	DefaultBatchSize    = 3
	DefaultMaxBatches   = 3
	DefaultBatchDelay   = 200 * time.Millisecond
	DefaultPreloadDelay = 250 * time.Millisecond
)

// Config controls batch pacing.
type Config struct {
	BatchSize    int
	MaxBatches   int
	BatchDelay   time.Duration
	PreloadDelay time.Duration
}

func (c *Config) applyDefaults() {
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.MaxBatches <= 0 {
		c.MaxBatches = DefaultMaxBatches
	}
	if c.BatchDelay < 0 {
		c.BatchDelay = 0
	}
	if c.PreloadDelay < 0 {
		c.PreloadDelay = 0
	}
}

// Engine executes progressive searches against a caller supplied fetch function.
type Engine struct {
	cache  Cache
	cfg    Config
	logger *zap.Logger
	now    func() time.Time
	sleep  func(ctx context.Context, d time.Duration) error
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the reference time used for recency ranking.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithSleep overrides the inter-batch wait (tests).
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(e *Engine) { e.sleep = sleep }
}

// New creates an Engine.
func New(c Cache, cfg Config, logger *zap.Logger, opts ...Option) *Engine {
	cfg.applyDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{
		cache:  c,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
		sleep:  sleepCtx,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Search returns cached results for query when present, otherwise fetches up
// to MaxBatches sequential batches, ranking each and reporting the accumulated
// set through onProgress. Fetch failures end the search with an empty result.
// A cancelled ctx stops further batches and suppresses reporting.
func (e *Engine) Search(
	ctx context.Context, query string, fetch FetchFunc, onProgress ProgressFunc,
) ([]result.Result, bool) {
	report := func(rs []result.Result, final bool) {
		if onProgress != nil && ctx.Err() == nil {
			onProgress(rs, final)
		}
	}

	if entry, ok := e.cache.Get(query); ok {
		report(entry.Results, true)
		return entry.Results, true
	}

	var acc []result.Result
	for batch := 1; batch <= e.cfg.MaxBatches; batch++ {
		if ctx.Err() != nil {
			return nil, false
		}

		items, err := fetch(ctx, query, e.cfg.BatchSize)
		if ctx.Err() != nil {
			return nil, false
		}
		if err != nil {
			e.logger.Warn("Progressive batch failed",
				zap.String("query", query),
				zap.Int("batch", batch),
				zap.Error(err),
			)
			report(nil, true)
			return nil, false
		}

		acc = append(acc, rank.RankAt(items, query, e.now())...)
		final := batch == e.cfg.MaxBatches || len(items) == 0
		report(snapshot(acc), final)
		if final {
			break
		}

		if err := e.sleep(ctx, e.cfg.BatchDelay); err != nil {
			return nil, false
		}
	}

	if len(acc) > 0 {
		e.cache.Set(query, acc, SourceProgressive)
	}
	return acc, false
}

// Preload fetches, ranks and caches every query not already cached. Failures
// are logged and skipped. It returns the number of queries cached.
func (e *Engine) Preload(ctx context.Context, queries []string, fetch FetchFunc) int {
	loaded := 0
	for i, q := range queries {
		if ctx.Err() != nil {
			break
		}
		if i > 0 {
			if err := e.sleep(ctx, e.cfg.PreloadDelay); err != nil {
				break
			}
		}
		if e.cache.Has(q) {
			continue
		}

		items, err := fetch(ctx, q, e.cfg.BatchSize*e.cfg.MaxBatches)
		if err != nil {
			e.logger.Warn("Preload query failed", zap.String("query", q), zap.Error(err))
			continue
		}
		if len(items) == 0 {
			continue
		}
		e.cache.Set(q, rank.RankAt(items, q, e.now()), SourcePreload)
		loaded++
	}

	e.logger.Info("Popular queries preloaded",
		zap.Int("requested", len(queries)),
		zap.Int("loaded", loaded),
	)
	return loaded
}

func snapshot(rs []result.Result) []result.Result {
	out := make([]result.Result, len(rs))
	copy(out, rs)
	return out
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
