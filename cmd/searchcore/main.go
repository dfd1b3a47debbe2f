package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"regexp"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/searchcore/internal/config"
	"github.com/kailas-cloud/searchcore/internal/db"
	dbRedis "github.com/kailas-cloud/searchcore/internal/db/redis"
	"github.com/kailas-cloud/searchcore/internal/domain"
	domrouting "github.com/kailas-cloud/searchcore/internal/domain/routing"
	logpkg "github.com/kailas-cloud/searchcore/internal/logger"
	"github.com/kailas-cloud/searchcore/internal/metrics"
	documentrepo "github.com/kailas-cloud/searchcore/internal/repository/document"
	"github.com/kailas-cloud/searchcore/internal/repository/embcache"
	libraryrepo "github.com/kailas-cloud/searchcore/internal/repository/library"
	chiTransport "github.com/kailas-cloud/searchcore/internal/transport/chi"
	openaiEmb "github.com/kailas-cloud/searchcore/internal/transport/openai"
	"github.com/kailas-cloud/searchcore/internal/transport/websearch"
	"github.com/kailas-cloud/searchcore/internal/usecase/cache"
	embeddinguc "github.com/kailas-cloud/searchcore/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/searchcore/internal/usecase/health"
	"github.com/kailas-cloud/searchcore/internal/usecase/progressive"
	"github.com/kailas-cloud/searchcore/internal/usecase/retrieval"
	routinguc "github.com/kailas-cloud/searchcore/internal/usecase/routing"
	searchuc "github.com/kailas-cloud/searchcore/internal/usecase/search"
	"github.com/kailas-cloud/searchcore/internal/version"
)

func main() {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting searchcore API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	// Register metrics explicitly (no init())
	metrics.Register()

	ctx := context.Background()
	health := healthuc.New()

	// Key-value store is optional: driver "none" runs without conversation
	// documents and without the embedding cache.
	var store db.Store
	switch cfg.Database.Driver {
	case config.DriverValkey, config.DriverRedis:
		rs, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Database.Addrs,
			Password: cfg.Database.Password,
		})
		if err != nil {
			logger.Fatal("Failed to create database store", zap.Error(err))
		}
		defer rs.Close()

		if err := rs.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
			logger.Fatal("Database not ready", zap.Error(err))
		}
		logger.Info("Connected to database")
		store = rs
		health.WithStore(cfg.Database.Driver, rs)
	case config.DriverNone:
		logger.Warn("Running without key-value store")
	}

	var sources []retrieval.DocumentSource
	if store != nil {
		sources = append(sources, documentrepo.New(store, logger))
	}
	if cfg.Library.Path != "" {
		lib, err := libraryrepo.Open(cfg.Library.Path, logger)
		if err != nil {
			logger.Fatal("Failed to open document library", zap.Error(err))
		}
		defer func() { _ = lib.Close() }()
		sources = append(sources, lib)
		health.WithStore("library", lib)
	}

	// Build embedder chain (composition root)
	var embedder domain.Embedder = unavailableEmbedder{}
	if cfg.Embedding.Enabled() {
		embedder = buildEmbedder(cfg, store, logger)
		health.WithEmbedding(newEmbeddingHealthChecker(embedder))
		logger.Info("Embedder created",
			zap.String("provider", cfg.Embedding.Provider),
			zap.String("model", cfg.Embedding.Model),
			zap.Int("dimensions", cfg.Embedding.Dimensions),
		)
	} else {
		logger.Warn("Embedding provider not configured, local retrieval disabled")
	}

	retriever := retrieval.New(embedder, sources, logger,
		retrieval.WithMinSimilarity(cfg.Search.MinSimilarity))

	resultCache := cache.New(
		cfg.Search.CacheMaxSize,
		time.Duration(cfg.Search.CacheTTLSec)*time.Second,
		cache.WithLogger(logger),
		cache.WithMetrics(metrics.CacheLookupsTotal, metrics.CacheEntries),
	)

	engine := progressive.New(resultCache, progressive.Config{
		BatchSize:    cfg.Search.BatchSize,
		MaxBatches:   cfg.Search.MaxBatches,
		BatchDelay:   time.Duration(cfg.Search.BatchDelayMs) * time.Millisecond,
		PreloadDelay: time.Duration(cfg.Search.PreloadDelayMs) * time.Millisecond,
	}, logger)

	providers := buildProviders(cfg.Providers, logger)

	searchSvc := searchuc.New(retriever, engine, resultCache, providers, logger,
		searchuc.WithDefaultMaxResults(cfg.Search.DefaultMaxResults))

	router, err := routinguc.New(buildCatalog(cfg.Router), logger)
	if err != nil {
		logger.Fatal("Invalid router configuration", zap.Error(err))
	}

	server := chiTransport.NewServer(searchSvc, router, health, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Mount(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Popular query preload runs in the background and stops on shutdown.
	preloadCtx, stopPreload := context.WithCancel(ctx)
	defer stopPreload()
	if len(cfg.Search.PopularQueries) > 0 && len(providers) > 0 {
		go func() {
			n := searchSvc.Preload(preloadCtx, cfg.Search.PopularQueries)
			logger.Info("Popular queries preloaded", zap.Int("cached", n))
		}()
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")
	stopPreload()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// unavailableEmbedder stands in when no embedding provider is configured.
type unavailableEmbedder struct{}

func (unavailableEmbedder) Initialize(context.Context) error {
	return fmt.Errorf("no embedding provider configured: %w", domain.ErrEmbeddingUnavailable)
}

func (unavailableEmbedder) Embed(context.Context, string) (domain.EmbeddingResult, error) {
	return domain.EmbeddingResult{}, domain.ErrEmbeddingUnavailable
}

// embeddingHealthChecker wraps domain.Embedder to implement health.EmbeddingChecker.
type embeddingHealthChecker struct {
	embedder domain.Embedder
}

func newEmbeddingHealthChecker(embedder domain.Embedder) *embeddingHealthChecker {
	return &embeddingHealthChecker{embedder: embedder}
}

func (h *embeddingHealthChecker) HealthCheck(ctx context.Context) error {
	if hc, ok := h.embedder.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding health check: %w", err)
		}
	}
	return nil
}

// buildEmbedder assembles the decorator chain: OpenAI -> Cached -> Instrumented -> Instruction
func buildEmbedder(cfg config.Config, store db.Store, logger *zap.Logger) domain.Embedder {
	ec := cfg.Embedding

	// Base provider (with transport metrics built-in)
	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     ec.APIKey,
		BaseURL:    ec.BaseURL,
		Model:      ec.Model,
		Dimensions: ec.Dimensions,
		Provider:   ec.Provider,
		Logger:     logger,
	})

	// Cached
	var embedder domain.Embedder = base
	if store != nil {
		ttl := time.Duration(cfg.Database.EmbeddingTTLSec) * time.Second
		embedder = embcache.New(base, store, ttl, metrics.EmbeddingCacheTotal, logger)
	}

	// Instrumented (metrics + logging)
	embedder = embeddinguc.NewInstrumentedEmbedder(embedder, ec.Provider, ec.Model, logger)

	// Instruction prefix (outermost, so the cache key includes the instruction)
	if ec.QueryInstruction != "" {
		return domain.NewInstructionEmbedder(embedder, ec.QueryInstruction)
	}
	return embedder
}

// buildProviders creates the enabled search provider adapters in config order.
func buildProviders(pcs []config.ProviderConfig, logger *zap.Logger) []searchuc.Provider {
	var out []searchuc.Provider
	for _, pc := range pcs {
		if !pc.IsEnabled() {
			continue
		}
		a, err := websearch.New(websearch.Config{
			Name:              pc.Name,
			Kind:              pc.Kind,
			BaseURL:           pc.BaseURL,
			APIKey:            pc.APIKey,
			Timeout:           time.Duration(pc.TimeoutSec) * time.Second,
			RequestsPerSecond: pc.RequestsPerSecond,
			Burst:             pc.Burst,
		}, logger)
		if err != nil {
			logger.Fatal("Invalid search provider", zap.String("provider", pc.Name), zap.Error(err))
		}
		out = append(out, a)
		logger.Info("Search provider enabled", zap.String("provider", pc.Name), zap.String("kind", pc.Kind))
	}
	return out
}

// buildCatalog converts router configuration into a routing catalog.
// Patterns were already validated by config.Validate.
func buildCatalog(rc config.RouterConfig) routinguc.Catalog {
	cat := routinguc.DefaultCatalog()
	cat.DowngradeThreshold = rc.DowngradeThreshold
	if rc.UsesDefaultCatalog() {
		if len(rc.Downgrades) > 0 {
			cat.Downgrades = rc.Downgrades
		}
		return cat
	}

	profiles := make([]domrouting.Profile, len(rc.Profiles))
	for i, p := range rc.Profiles {
		profiles[i] = domrouting.Profile{
			ID:                 p.ID,
			Model:              p.Model,
			Description:        p.Description,
			MaxTokens:          p.MaxTokens,
			Temperature:        p.Temperature,
			TopP:               p.TopP,
			CostPerThousand:    p.CostPerThousand,
			ContextWindowLimit: p.ContextWindowLimit,
		}
	}

	rules := make([]domrouting.Rule, len(rc.Rules))
	for i, r := range rc.Rules {
		patterns := make([]*regexp.Regexp, len(r.Patterns))
		for j, p := range r.Patterns {
			patterns[j] = regexp.MustCompile(p)
		}
		rules[i] = domrouting.Rule{
			Name:     r.Name,
			Target:   r.Target,
			MinWords: r.MinWords,
			MaxWords: r.MaxWords,
			Keywords: r.Keywords,
			Patterns: patterns,
			Priority: r.Priority,
		}
	}

	cat.Profiles = profiles
	cat.Rules = rules
	cat.Downgrades = rc.Downgrades
	return cat
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line, one per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
