package websearch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/kailas-cloud/searchcore/internal/domain/search/result"
)

const (
	duckDuckGoDefaultURL = "https://html.duckduckgo.com/html/"
	ddgMaxResults        = 30
)

var (
	ddgTitleRegex   = regexp.MustCompile(`(?s)<a[^>]+class="result__a"[^>]+href="([^"]+)"[^>]*>(.+?)</a>`)
	ddgSnippetRegex = regexp.MustCompile(`(?s)<a[^>]+class="result__snippet"[^>]*>(.+?)</a>`)
)

// DuckDuckGo scrapes the DuckDuckGo HTML endpoint. It needs no API key.
type DuckDuckGo struct {
	c       *client
	baseURL string
}

// newDuckDuckGo creates a DuckDuckGo adapter.
func newDuckDuckGo(c *client, baseURL string) *DuckDuckGo {
	if baseURL == "" {
		baseURL = duckDuckGoDefaultURL
	}
	return &DuckDuckGo{c: c, baseURL: baseURL}
}

// Name returns the configured provider name.
func (d *DuckDuckGo) Name() string { return d.c.name }

// Source returns the result source tag.
func (d *DuckDuckGo) Source() result.Source { return result.SourceDuckDuckGo }

// Fetch returns up to limit results starting at offset.
func (d *DuckDuckGo) Fetch(ctx context.Context, query string, limit, offset int) ([]result.Result, error) {
	if limit <= 0 {
		return nil, nil
	}
	params := url.Values{"q": {query}}
	if offset > 0 {
		params.Set("s", strconv.Itoa(offset))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.baseURL+"?"+params.Encode(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build duckduckgo request: %w", err)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	body, err := d.c.do(ctx, req)
	if err != nil {
		return nil, err
	}
	return window(parseDuckDuckGoHTML(string(body)), 0, limit), nil
}

// parseDuckDuckGoHTML splits the page into one block per result anchor and
// takes the snippet only from inside that block, so a result without a
// snippet never borrows its neighbour's.
func parseDuckDuckGoHTML(page string) []result.Result {
	anchors := ddgTitleRegex.FindAllStringSubmatchIndex(page, ddgMaxResults)

	var out []result.Result
	for i, m := range anchors {
		link := unwrapRedirect(strings.ReplaceAll(page[m[2]:m[3]], "&amp;", "&"))
		title := cleanHTML(page[m[4]:m[5]])
		if link == "" || title == "" {
			continue
		}

		end := len(page)
		if i+1 < len(anchors) {
			end = anchors[i+1][0]
		}
		snippet := ""
		if sm := ddgSnippetRegex.FindStringSubmatch(page[m[1]:end]); sm != nil {
			snippet = cleanHTML(sm[1])
		}
		out = append(out, result.New(title, snippet, link, result.SourceDuckDuckGo, time.Time{}))
	}
	return out
}

// unwrapRedirect extracts the target of a //duckduckgo.com/l/?uddg=... link.
func unwrapRedirect(raw string) string {
	if strings.Contains(raw, "uddg=") {
		if strings.HasPrefix(raw, "//") {
			raw = "https:" + raw
		}
		u, err := url.Parse(raw)
		if err != nil {
			return ""
		}
		if target := u.Query().Get("uddg"); target != "" {
			return target
		}
	}
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return raw
	}
	return ""
}
