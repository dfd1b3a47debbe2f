package chi

import (
	"context"

	domrouting "github.com/kailas-cloud/searchcore/internal/domain/routing"
	"github.com/kailas-cloud/searchcore/internal/usecase/cache"
	healthuc "github.com/kailas-cloud/searchcore/internal/usecase/health"
	"github.com/kailas-cloud/searchcore/internal/usecase/progressive"
	routinguc "github.com/kailas-cloud/searchcore/internal/usecase/routing"
	searchuc "github.com/kailas-cloud/searchcore/internal/usecase/search"
)

// Searcher answers search queries and exposes the result cache.
type Searcher interface {
	Search(ctx context.Context, query string, opts searchuc.Options, onProgress progressive.ProgressFunc) (
		searchuc.Response, error,
	)
	CacheStats() cache.Stats
	ClearCache()
}

// ModelRouter selects model profiles and tracks their usage.
type ModelRouter interface {
	Route(query, forced string, conv *domrouting.ConversationContext) domrouting.Decision
	TrackUsage(profile string, tokens int64) error
	UsageStats() []domrouting.UsageStat
	ResetStats()
	OptimizeContext(messages []domrouting.Message, maxTokens int, profile string) routinguc.ContextResult
	Profile(id string) (domrouting.Profile, bool)
	Profiles() []domrouting.Profile
	Rules() []domrouting.Rule
}

// HealthChecker aggregates component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}
