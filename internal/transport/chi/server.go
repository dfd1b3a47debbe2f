// Package chi exposes search, routing and cache operations over HTTP.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	chirouter "github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/searchcore/internal/domain"
	healthuc "github.com/kailas-cloud/searchcore/internal/usecase/health"
	searchuc "github.com/kailas-cloud/searchcore/internal/usecase/search"
)

const maxBodyBytes = 1 << 20

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server holds the HTTP handlers.
type Server struct {
	search        Searcher
	router        ModelRouter
	health        HealthChecker
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(search Searcher, router ModelRouter, health HealthChecker, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		search: search,
		router: router,
		health: health,
		logger: logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidRequest, http.StatusBadRequest, ErrorCodeBadRequest),
		sentinelHandler(domain.ErrUnknownProfile, http.StatusBadRequest, ErrorCodeUnknownProfile),
	}
	return s
}

// Mount registers every route on r.
func (s *Server) Mount(r chirouter.Router) {
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, ErrorCodeBadRequest, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, ErrorCodeBadRequest, "method not allowed")
	})

	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/v1", func(r chirouter.Router) {
		r.Post("/search", s.Search)
		r.Post("/search/stream", s.SearchStream)
		r.Get("/cache/stats", s.CacheStats)
		r.Delete("/cache", s.ClearCache)
		r.Post("/route", s.Route)
		r.Post("/usage", s.TrackUsage)
		r.Get("/usage", s.GetUsage)
		r.Delete("/usage", s.ResetUsage)
		r.Post("/context/optimize", s.OptimizeContext)
		r.Get("/profiles", s.ListProfiles)
	})
}

// Search handles POST /v1/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if !decodeBody(w, r, &req) {
		return
	}

	resp, err := s.search.Search(r.Context(), req.Query, searchOptions(req), nil)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, searchResponseFrom(resp))
}

// CacheStats handles GET /v1/cache/stats.
func (s *Server) CacheStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.search.CacheStats())
}

// ClearCache handles DELETE /v1/cache.
func (s *Server) ClearCache(w http.ResponseWriter, _ *http.Request) {
	s.search.ClearCache()
	w.WriteHeader(http.StatusNoContent)
}

// Route handles POST /v1/route.
func (s *Server) Route(w http.ResponseWriter, r *http.Request) {
	var req RouteRequest
	if !decodeBody(w, r, &req) {
		return
	}

	d := s.router.Route(req.Query, req.Profile, req.ConversationContext)
	writeJSON(w, http.StatusOK, RouteResponse{
		Profile:    d.Profile,
		Reasoning:  d.Reasoning,
		Rule:       d.Rule,
		Downgraded: d.Downgraded,
	})
}

// TrackUsage handles POST /v1/usage.
func (s *Server) TrackUsage(w http.ResponseWriter, r *http.Request) {
	var req TrackUsageRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := s.router.TrackUsage(req.Profile, req.Tokens); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetUsage handles GET /v1/usage.
func (s *Server) GetUsage(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, UsageResponse{Stats: s.router.UsageStats()})
}

// ResetUsage handles DELETE /v1/usage.
func (s *Server) ResetUsage(w http.ResponseWriter, _ *http.Request) {
	s.router.ResetStats()
	w.WriteHeader(http.StatusNoContent)
}

// OptimizeContext handles POST /v1/context/optimize.
func (s *Server) OptimizeContext(w http.ResponseWriter, r *http.Request) {
	var req OptimizeContextRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if req.MaxTokens <= 0 {
		if req.Profile == "" {
			writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "max_tokens or profile is required")
			return
		}
		if _, ok := s.router.Profile(req.Profile); !ok {
			writeError(w, http.StatusBadRequest, ErrorCodeUnknownProfile, "unknown profile "+req.Profile)
			return
		}
	}

	res := s.router.OptimizeContext(req.Messages, req.MaxTokens, req.Profile)
	writeJSON(w, http.StatusOK, OptimizeContextResponse{
		Messages:     res.Messages,
		RemovedCount: res.RemovedCount,
		Tokens:       res.Tokens,
	})
}

// ListProfiles handles GET /v1/profiles.
func (s *Server) ListProfiles(w http.ResponseWriter, _ *http.Request) {
	rules := s.router.Rules()
	resp := ProfilesResponse{
		Profiles: s.router.Profiles(),
		Rules:    make([]RuleItem, len(rules)),
	}
	for i, rule := range rules {
		resp.Rules[i] = ruleToItem(rule)
	}
	writeJSON(w, http.StatusOK, resp)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func searchOptions(req SearchRequest) searchuc.Options {
	return searchuc.Options{
		MaxResults:     req.MaxResults,
		Progressive:    req.Progressive,
		ConversationID: req.ConversationID,
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a client-safe message without exposing internals.
func safeDomainMessage(err error) string {
	for _, s := range []error{domain.ErrInvalidRequest, domain.ErrUnknownProfile} {
		if errors.Is(err, s) {
			return strings.TrimSpace(err.Error())
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternal, "internal error")
}
