package chi

import (
	"time"

	"github.com/kailas-cloud/searchcore/internal/domain/search/result"
	domrouting "github.com/kailas-cloud/searchcore/internal/domain/routing"
	searchuc "github.com/kailas-cloud/searchcore/internal/usecase/search"
)

// ErrorCode is a machine-readable error identifier.
type ErrorCode string

// Error codes returned in ErrorResponse.Code.
const (
	ErrorCodeBadRequest     ErrorCode = "bad_request"
	ErrorCodeUnauthorized   ErrorCode = "unauthorized"
	ErrorCodeUnknownProfile ErrorCode = "unknown_profile"
	ErrorCodeInternal       ErrorCode = "internal_error"
)

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// SearchRequest is the body of POST /v1/search and /v1/search/stream.
type SearchRequest struct {
	Query          string `json:"query"`
	MaxResults     int    `json:"max_results,omitempty"`
	Progressive    bool   `json:"progressive,omitempty"`
	ConversationID string `json:"conversation_id,omitempty"`
}

// SearchResultItem is one search hit.
type SearchResultItem struct {
	Title     string     `json:"title"`
	Snippet   string     `json:"snippet"`
	Link      string     `json:"link"`
	Source    string     `json:"source"`
	Score     float64    `json:"score"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// SearchResponse is the body returned by POST /v1/search.
type SearchResponse struct {
	ID             string             `json:"id"`
	Results        []SearchResultItem `json:"results"`
	FromCache      bool               `json:"from_cache"`
	Path           string             `json:"path"`
	ResponseTimeMs float64            `json:"response_time_ms"`
	TotalFound     int                `json:"total_found"`
}

// ProgressEvent is the payload of an SSE progress event.
type ProgressEvent struct {
	Batch   int                `json:"batch"`
	Results []SearchResultItem `json:"results"`
	Final   bool               `json:"final"`
}

// RouteRequest is the body of POST /v1/route.
type RouteRequest struct {
	Query               string                          `json:"query"`
	Profile             string                          `json:"profile,omitempty"`
	ConversationContext *domrouting.ConversationContext `json:"conversation_context,omitempty"`
}

// RouteResponse is the routing decision.
type RouteResponse struct {
	Profile    domrouting.Profile `json:"profile"`
	Reasoning  string             `json:"reasoning"`
	Rule       string             `json:"rule,omitempty"`
	Downgraded bool               `json:"downgraded"`
}

// TrackUsageRequest is the body of POST /v1/usage.
type TrackUsageRequest struct {
	Profile string `json:"profile"`
	Tokens  int64  `json:"tokens"`
}

// UsageResponse lists tracked usage per profile.
type UsageResponse struct {
	Stats []domrouting.UsageStat `json:"stats"`
}

// OptimizeContextRequest is the body of POST /v1/context/optimize.
type OptimizeContextRequest struct {
	Messages  []domrouting.Message `json:"messages"`
	MaxTokens int                  `json:"max_tokens,omitempty"`
	Profile   string               `json:"profile,omitempty"`
}

// OptimizeContextResponse is the trimmed conversation.
type OptimizeContextResponse struct {
	Messages     []domrouting.Message `json:"messages"`
	RemovedCount int                  `json:"removed_count"`
	Tokens       int                  `json:"tokens"`
}

// RuleItem describes a routing rule.
type RuleItem struct {
	Name     string   `json:"name"`
	Target   string   `json:"target"`
	MinWords int      `json:"min_words"`
	MaxWords int      `json:"max_words,omitempty"`
	Keywords []string `json:"keywords,omitempty"`
	Patterns []string `json:"patterns,omitempty"`
	Priority int      `json:"priority"`
}

// ProfilesResponse is the router catalog.
type ProfilesResponse struct {
	Profiles []domrouting.Profile `json:"profiles"`
	Rules    []RuleItem           `json:"rules"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func resultsToItems(rs []result.Result) []SearchResultItem {
	items := make([]SearchResultItem, len(rs))
	for i, r := range rs {
		items[i] = SearchResultItem{
			Title:   r.Title(),
			Snippet: r.Snippet(),
			Link:    r.Link(),
			Source:  string(r.Source()),
			Score:   r.Score(),
		}
		if ts := r.Timestamp(); !ts.IsZero() {
			items[i].Timestamp = &ts
		}
	}
	return items
}

func searchResponseFrom(resp searchuc.Response) SearchResponse {
	return SearchResponse{
		ID:             resp.ID,
		Results:        resultsToItems(resp.Results),
		FromCache:      resp.FromCache,
		Path:           resp.Path,
		ResponseTimeMs: float64(resp.ResponseTime.Microseconds()) / 1000,
		TotalFound:     resp.TotalFound,
	}
}

func ruleToItem(r domrouting.Rule) RuleItem {
	item := RuleItem{
		Name:     r.Name,
		Target:   r.Target,
		MinWords: r.MinWords,
		MaxWords: r.MaxWords,
		Keywords: r.Keywords,
		Priority: r.Priority,
	}
	for _, p := range r.Patterns {
		item.Patterns = append(item.Patterns, p.String())
	}
	return item
}
