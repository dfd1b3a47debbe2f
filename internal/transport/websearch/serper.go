package websearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kailas-cloud/searchcore/internal/domain"
	"github.com/kailas-cloud/searchcore/internal/domain/search/result"
)

const serperDefaultURL = "https://google.serper.dev"

// serperDateLayouts are the absolute date formats Serper emits. Relative
// dates ("3 days ago") are left unset.
var serperDateLayouts = []string{"Jan 2, 2006", "2 Jan 2006", "2006-01-02"}

type serperRequest struct {
	Q    string `json:"q"`
	Num  int    `json:"num"`
	Page int    `json:"page"`
}

type serperResponse struct {
	Organic []struct {
		Title    string `json:"title"`
		Link     string `json:"link"`
		Snippet  string `json:"snippet"`
		Date     string `json:"date"`
		Position int    `json:"position"`
	} `json:"organic"`
}

// Serper queries the Serper Google search API.
type Serper struct {
	c       *client
	baseURL string
	apiKey  string
}

// newSerper creates a Serper adapter.
func newSerper(c *client, baseURL, apiKey string) *Serper {
	if baseURL == "" {
		baseURL = serperDefaultURL
	}
	return &Serper{c: c, baseURL: strings.TrimRight(baseURL, "/"), apiKey: apiKey}
}

// Name returns the configured provider name.
func (s *Serper) Name() string { return s.c.name }

// Source returns the result source tag.
func (s *Serper) Source() result.Source { return result.SourceSerper }

// Fetch returns one page of organic results. Pages are limit results wide.
func (s *Serper) Fetch(ctx context.Context, query string, limit, offset int) ([]result.Result, error) {
	if limit <= 0 {
		return nil, nil
	}
	payload, err := json.Marshal(serperRequest{Q: query, Num: limit, Page: offset/limit + 1})
	if err != nil {
		return nil, fmt.Errorf("marshal serper request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/search", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build serper request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-KEY", s.apiKey)

	body, err := s.c.do(ctx, req)
	if err != nil {
		return nil, err
	}

	var resp serperResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: decode serper response: %w", domain.ErrProviderFailure, err)
	}

	out := make([]result.Result, 0, len(resp.Organic))
	for _, o := range resp.Organic {
		if o.Link == "" {
			continue
		}
		out = append(out, result.New(o.Title, o.Snippet, o.Link, result.SourceSerper, parseSerperDate(o.Date)))
	}
	return window(out, 0, limit), nil
}

func parseSerperDate(s string) time.Time {
	for _, layout := range serperDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
