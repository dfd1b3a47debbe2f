// Package websearch adapts external search engines to search results.
package websearch

import (
	"context"
	"fmt"
	"html"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kailas-cloud/searchcore/internal/domain"
	"github.com/kailas-cloud/searchcore/internal/domain/search/result"
	"github.com/kailas-cloud/searchcore/internal/metrics"
)

// Provider kinds.
const (
	KindSerper     = "serper"
	KindWikipedia  = "wikipedia"
	KindDuckDuckGo = "duckduckgo"
)

const (
	defaultTimeout   = 10 * time.Second
	defaultUserAgent = "searchcore/1.0 (+https://github.com/kailas-cloud/searchcore)"
	maxBodyBytes     = 5 << 20
)

var (
	tagRegex        = regexp.MustCompile(`<[^>]*>`)
	whitespaceRegex = regexp.MustCompile(`\s+`)
)

// Config describes one provider instance.
type Config struct {
	Name              string
	Kind              string
	BaseURL           string
	APIKey            string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	UserAgent         string
}

// Adapter is a configured search provider.
type Adapter interface {
	Name() string
	Source() result.Source
	Fetch(ctx context.Context, query string, limit, offset int) ([]result.Result, error)
}

// New builds the adapter for cfg.Kind.
func New(cfg Config, logger *zap.Logger) (Adapter, error) {
	if cfg.Name == "" {
		cfg.Name = cfg.Kind
	}
	c := newClient(cfg, logger)

	switch cfg.Kind {
	case KindSerper:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("provider %s: api key is required", cfg.Name)
		}
		return newSerper(c, cfg.BaseURL, cfg.APIKey), nil
	case KindWikipedia:
		return newWikipedia(c, cfg.BaseURL), nil
	case KindDuckDuckGo:
		return newDuckDuckGo(c, cfg.BaseURL), nil
	default:
		return nil, fmt.Errorf("provider %s: unknown kind %q", cfg.Name, cfg.Kind)
	}
}

// client is the shared HTTP plumbing: rate limiting, timeout, metrics and status checks.
type client struct {
	name      string
	http      *http.Client
	limiter   *rate.Limiter
	userAgent string
	logger    *zap.Logger
}

func newClient(cfg Config, logger *zap.Logger) *client {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}

	return &client{
		name:      cfg.Name,
		http:      &http.Client{Timeout: timeout},
		limiter:   rate.NewLimiter(limit, burst),
		userAgent: ua,
		logger:    logger.With(zap.String("provider", cfg.Name)),
	}
}

// do sends req and returns the body of a 2xx response. Anything else is ErrProviderFailure.
func (c *client) do(ctx context.Context, req *http.Request) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		metrics.ProviderRequestsTotal.WithLabelValues(c.name, "rate_limited").Inc()
		return nil, fmt.Errorf("%w: %s rate limit wait: %w", domain.ErrProviderFailure, c.name, err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.ProviderRequestDuration.WithLabelValues(c.name).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ProviderRequestsTotal.WithLabelValues(c.name, "error").Inc()
		return nil, fmt.Errorf("%w: %s request: %w", domain.ErrProviderFailure, c.name, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		metrics.ProviderRequestsTotal.WithLabelValues(c.name, "error").Inc()
		return nil, fmt.Errorf("%w: %s read body: %w", domain.ErrProviderFailure, c.name, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.ProviderRequestsTotal.WithLabelValues(c.name, strconv.Itoa(resp.StatusCode)).Inc()
		c.logger.Debug("Provider returned non-success status",
			zap.Int("status", resp.StatusCode),
			zap.String("body", truncate(string(body), 200)),
		)
		return nil, fmt.Errorf("%w: %s status %d", domain.ErrProviderFailure, c.name, resp.StatusCode)
	}

	metrics.ProviderRequestsTotal.WithLabelValues(c.name, "success").Inc()
	return body, nil
}

// cleanHTML strips tags, decodes entities and collapses whitespace.
func cleanHTML(s string) string {
	s = tagRegex.ReplaceAllString(s, "")
	s = html.UnescapeString(s)
	s = whitespaceRegex.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func window[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}
