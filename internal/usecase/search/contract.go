package search

import (
	"context"
	"time"

	"github.com/kailas-cloud/searchcore/internal/domain/search/result"
	"github.com/kailas-cloud/searchcore/internal/usecase/cache"
	"github.com/kailas-cloud/searchcore/internal/usecase/progressive"
)

// Provider is an external search engine adapter.
type Provider interface {
	Name() string
	Source() result.Source
	Fetch(ctx context.Context, query string, limit, offset int) ([]result.Result, error)
}

// LocalRetriever ranks locally stored documents against the query.
type LocalRetriever interface {
	Retrieve(ctx context.Context, query, conversationID string, maxResults int) []result.Result
}

// ProgressiveEngine runs batched searches with progress reporting.
type ProgressiveEngine interface {
	Search(
		ctx context.Context, query string,
		fetch progressive.FetchFunc, onProgress progressive.ProgressFunc,
	) ([]result.Result, bool)
	Preload(ctx context.Context, queries []string, fetch progressive.FetchFunc) int
}

// ResultCache stores network results by normalized query.
type ResultCache interface {
	Get(query string) (cache.Entry, bool)
	Set(query string, results []result.Result, source string)
	Stats() cache.Stats
	Clear()
	RecordResponseTime(d time.Duration)
}
