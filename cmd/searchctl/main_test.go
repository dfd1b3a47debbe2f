package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domrouting "github.com/kailas-cloud/searchcore/internal/domain/routing"
	"github.com/kailas-cloud/searchcore/pkg/client"
)

func runCmd(t *testing.T, h http.Handler, args ...string) (string, error) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--addr", srv.URL}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func jsonHandler(v any) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(v)
	}
}

func TestSearchCmd_PrintsTable(t *testing.T) {
	var got client.SearchRequest
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		jsonHandler(client.SearchResponse{
			Results:    []client.SearchResultItem{{Title: "Labour Relations Act", Source: "serper", Score: 0.91, Link: "https://example.org/lra"}},
			Path:       "live",
			TotalFound: 1,
		})(w, r)
	})

	out, err := runCmd(t, h, "search", "-n", "2", "unfair", "dismissal")
	require.NoError(t, err)
	assert.Equal(t, "unfair dismissal", got.Query)
	assert.Equal(t, 2, got.MaxResults)
	assert.Contains(t, out, "Labour Relations Act")
	assert.Contains(t, out, "1 results via live")
}

func TestSearchCmd_RequiresQuery(t *testing.T) {
	_, err := runCmd(t, http.NotFoundHandler(), "search")
	require.Error(t, err)
}

func TestSearchCmd_ServerError(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":"bad_request","message":"query is required"}`))
	})
	_, err := runCmd(t, h, "search", "x")
	require.ErrorIs(t, err, client.ErrInvalidRequest)
}

func TestRouteCmd(t *testing.T) {
	h := jsonHandler(client.RouteResponse{
		Profile:   domrouting.Profile{ID: "deep-reasoning", Model: "m"},
		Rule:      "legal",
		Reasoning: "matched keyword",
	})
	out, err := runCmd(t, h, "route", "what", "does", "the", "law", "say")
	require.NoError(t, err)
	assert.Contains(t, out, "deep-reasoning")
	assert.Contains(t, out, "legal")
}

func TestUsageCmd_Reset(t *testing.T) {
	var method string
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		w.WriteHeader(http.StatusNoContent)
	})
	out, err := runCmd(t, h, "usage", "--reset")
	require.NoError(t, err)
	assert.Equal(t, http.MethodDelete, method)
	assert.Contains(t, out, "reset")
}

func TestUsageCmd_List(t *testing.T) {
	h := jsonHandler(map[string]any{"stats": []client.UsageStat{{Profile: "fast", Requests: 2, Tokens: 300}}})
	out, err := runCmd(t, h, "usage")
	require.NoError(t, err)
	assert.Contains(t, out, "fast")
	assert.Contains(t, out, "300")
}

func TestCacheCmds(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		jsonHandler(client.CacheStats{Size: 3, Hits: 1, Searches: 4, HitRate: "25.0%"})(w, r)
	})

	out, err := runCmd(t, h, "cache", "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "25.0%")

	out, err = runCmd(t, h, "cache", "clear")
	require.NoError(t, err)
	assert.Contains(t, out, "Cache cleared.")
}

func TestProfilesCmd(t *testing.T) {
	h := jsonHandler(client.ProfilesResponse{Profiles: domrouting.DefaultProfiles()})
	out, err := runCmd(t, h, "profiles")
	require.NoError(t, err)
	assert.Contains(t, out, domrouting.ProfileMultiStage)
}
