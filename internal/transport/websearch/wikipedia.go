package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kailas-cloud/searchcore/internal/domain"
	"github.com/kailas-cloud/searchcore/internal/domain/search/result"
)

const wikipediaDefaultURL = "https://en.wikipedia.org"

type wikipediaResponse struct {
	Query struct {
		Search []struct {
			Title     string    `json:"title"`
			PageID    int       `json:"pageid"`
			Snippet   string    `json:"snippet"`
			Timestamp time.Time `json:"timestamp"`
		} `json:"search"`
	} `json:"query"`
}

// Wikipedia queries the MediaWiki full-text search API.
type Wikipedia struct {
	c       *client
	baseURL string
}

// newWikipedia creates a Wikipedia adapter. baseURL selects the language edition.
func newWikipedia(c *client, baseURL string) *Wikipedia {
	if baseURL == "" {
		baseURL = wikipediaDefaultURL
	}
	return &Wikipedia{c: c, baseURL: strings.TrimRight(baseURL, "/")}
}

// Name returns the configured provider name.
func (w *Wikipedia) Name() string { return w.c.name }

// Source returns the result source tag.
func (w *Wikipedia) Source() result.Source { return result.SourceWikipedia }

// Fetch returns up to limit articles starting at offset.
func (w *Wikipedia) Fetch(ctx context.Context, query string, limit, offset int) ([]result.Result, error) {
	if limit <= 0 {
		return nil, nil
	}
	params := url.Values{
		"action":   {"query"},
		"list":     {"search"},
		"srsearch": {query},
		"srlimit":  {strconv.Itoa(limit)},
		"sroffset": {strconv.Itoa(offset)},
		"format":   {"json"},
		"utf8":     {"1"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.baseURL+"/w/api.php?"+params.Encode(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build wikipedia request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	body, err := w.c.do(ctx, req)
	if err != nil {
		return nil, err
	}

	var resp wikipediaResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: decode wikipedia response: %w", domain.ErrProviderFailure, err)
	}

	out := make([]result.Result, 0, len(resp.Query.Search))
	for _, s := range resp.Query.Search {
		link := fmt.Sprintf("%s/?curid=%d", w.baseURL, s.PageID)
		out = append(out, result.New(s.Title, cleanHTML(s.Snippet), link, result.SourceWikipedia, s.Timestamp))
	}
	return window(out, 0, limit), nil
}
