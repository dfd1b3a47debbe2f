package progressive

import (
	"context"

	"github.com/kailas-cloud/searchcore/internal/domain/search/result"
	"github.com/kailas-cloud/searchcore/internal/usecase/cache"
)

// FetchFunc returns up to limit results for query. Successive calls within one
// search may return different pages.
type FetchFunc func(ctx context.Context, query string, limit int) ([]result.Result, error)

// ProgressFunc receives the accumulated results after every batch. The last
// call of a search always has final set.
type ProgressFunc func(results []result.Result, final bool)

// Cache is the result cache consulted before fetching.
type Cache interface {
	Get(query string) (cache.Entry, bool)
	Has(query string) bool
	Set(query string, results []result.Result, source string)
}
