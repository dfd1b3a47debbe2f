package client

import (
	chiTransport "github.com/kailas-cloud/searchcore/internal/transport/chi"
	domrouting "github.com/kailas-cloud/searchcore/internal/domain/routing"
	"github.com/kailas-cloud/searchcore/internal/usecase/cache"
)

// Wire types shared with the server.
type (
	SearchRequest           = chiTransport.SearchRequest
	SearchResponse          = chiTransport.SearchResponse
	SearchResultItem        = chiTransport.SearchResultItem
	ProgressEvent           = chiTransport.ProgressEvent
	RouteRequest            = chiTransport.RouteRequest
	RouteResponse           = chiTransport.RouteResponse
	OptimizeContextRequest  = chiTransport.OptimizeContextRequest
	OptimizeContextResponse = chiTransport.OptimizeContextResponse
	ProfilesResponse        = chiTransport.ProfilesResponse
	HealthResponse          = chiTransport.HealthResponse
	CacheStats              = cache.Stats
	UsageStat               = domrouting.UsageStat
	Message                 = domrouting.Message
	ConversationContext     = domrouting.ConversationContext
)
