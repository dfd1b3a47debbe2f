package client

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	chiTransport "github.com/kailas-cloud/searchcore/internal/transport/chi"
)

const defaultTimeout = 30 * time.Second

// Client talks to a searchcore server.
type Client struct {
	base   *url.URL
	http   *http.Client
	apiKey string
	// timeout applies to every call except SearchStream.
	timeout time.Duration
}

// New creates a Client for the server at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	cfg := &clientConfig{timeout: defaultTimeout}
	for _, o := range opts {
		o.apply(cfg)
	}

	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("searchcore: invalid base url %q", baseURL)
	}

	hc := cfg.httpClient
	if hc == nil {
		hc = &http.Client{}
	}
	return &Client{base: u, http: hc, apiKey: cfg.apiKey, timeout: cfg.timeout}, nil
}

// Search runs a single search.
func (c *Client) Search(ctx context.Context, req SearchRequest) (SearchResponse, error) {
	var out SearchResponse
	err := c.do(ctx, http.MethodPost, "/v1/search", req, &out)
	return out, err
}

// SearchStream runs a progressive search, invoking onProgress per batch, and
// returns the final summary.
func (c *Client) SearchStream(
	ctx context.Context, req SearchRequest, onProgress func(ProgressEvent),
) (SearchResponse, error) {
	resp, err := c.send(ctx, http.MethodPost, "/v1/search/stream", req)
	if err != nil {
		return SearchResponse{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	var (
		summary SearchResponse
		done    bool
		event   string
	)
	sc := bufio.NewScanner(resp.Body)
	sc.Buffer(make([]byte, 0, 64*1024), 4<<20)
	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data := []byte(strings.TrimPrefix(line, "data: "))
			switch event {
			case "progress":
				var ev ProgressEvent
				if err := json.Unmarshal(data, &ev); err != nil {
					return SearchResponse{}, fmt.Errorf("decode progress event: %w", err)
				}
				if onProgress != nil {
					onProgress(ev)
				}
			case "done":
				if err := json.Unmarshal(data, &summary); err != nil {
					return SearchResponse{}, fmt.Errorf("decode done event: %w", err)
				}
				done = true
			case "error":
				var e chiTransport.ErrorResponse
				_ = json.Unmarshal(data, &e)
				return SearchResponse{}, &APIError{Status: http.StatusOK, Code: string(e.Code), Message: e.Message}
			}
		}
	}
	if err := sc.Err(); err != nil {
		return SearchResponse{}, fmt.Errorf("read stream: %w", err)
	}
	if !done {
		return SearchResponse{}, errors.New("searchcore: stream ended without summary")
	}
	return summary, nil
}

// Route asks the router for a model profile.
func (c *Client) Route(ctx context.Context, req RouteRequest) (RouteResponse, error) {
	var out RouteResponse
	err := c.do(ctx, http.MethodPost, "/v1/route", req, &out)
	return out, err
}

// TrackUsage records tokens consumed by a profile.
func (c *Client) TrackUsage(ctx context.Context, profile string, tokens int64) error {
	return c.do(ctx, http.MethodPost, "/v1/usage", chiTransport.TrackUsageRequest{Profile: profile, Tokens: tokens}, nil)
}

// Usage returns per-profile usage, most tokens first.
func (c *Client) Usage(ctx context.Context) ([]UsageStat, error) {
	var out chiTransport.UsageResponse
	if err := c.do(ctx, http.MethodGet, "/v1/usage", nil, &out); err != nil {
		return nil, err
	}
	return out.Stats, nil
}

// ResetUsage clears usage counters.
func (c *Client) ResetUsage(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/v1/usage", nil, nil)
}

// OptimizeContext trims a conversation to a token budget.
func (c *Client) OptimizeContext(ctx context.Context, req OptimizeContextRequest) (OptimizeContextResponse, error) {
	var out OptimizeContextResponse
	err := c.do(ctx, http.MethodPost, "/v1/context/optimize", req, &out)
	return out, err
}

// CacheStats returns result cache statistics.
func (c *Client) CacheStats(ctx context.Context) (CacheStats, error) {
	var out CacheStats
	err := c.do(ctx, http.MethodGet, "/v1/cache/stats", nil, &out)
	return out, err
}

// ClearCache drops every cached result set.
func (c *Client) ClearCache(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/v1/cache", nil, nil)
}

// Profiles returns the router catalog.
func (c *Client) Profiles(ctx context.Context) (ProfilesResponse, error) {
	var out ProfilesResponse
	err := c.do(ctx, http.MethodGet, "/v1/profiles", nil, &out)
	return out, err
}

// Health returns the server health report. A 503 still yields the report.
func (c *Client) Health(ctx context.Context) (HealthResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := c.newRequest(ctx, http.MethodGet, "/health", nil)
	if err != nil {
		return HealthResponse{}, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return HealthResponse{}, fmt.Errorf("searchcore: health: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var out HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return HealthResponse{}, fmt.Errorf("decode health: %w", err)
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.send(ctx, method, path, in)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// send performs the request and converts non-2xx responses into *APIError.
func (c *Client) send(ctx context.Context, method, path string, in any) (*http.Response, error) {
	req, err := c.newRequest(ctx, method, path, in)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("searchcore: %s %s: %w", method, path, err)
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer func() { _ = resp.Body.Close() }()

	apiErr := &APIError{Status: resp.StatusCode}
	var body chiTransport.ErrorResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&body); err == nil {
		apiErr.Code = string(body.Code)
		apiErr.Message = body.Message
	} else {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return nil, apiErr
}

func (c *Client) newRequest(ctx context.Context, method, path string, in any) (*http.Request, error) {
	var body io.Reader = http.NoBody
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	return req, nil
}
