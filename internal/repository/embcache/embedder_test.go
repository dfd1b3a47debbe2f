package embcache

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/rueidis/mock"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	"github.com/kailas-cloud/searchcore/internal/db/redis"
	"github.com/kailas-cloud/searchcore/internal/domain"
)

// --- Tests ---

func TestEmbed_CacheMiss(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{
		Embedding:    []float32{0.1, 0.2, 0.3},
		PromptTokens: 10,
		TotalTokens:  10,
	}}
	ce, ms := newTestCachedEmbedder(t, inner, 0)

	result, err := ce.Embed(context.Background(), "test text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Embedding) != 3 || result.Embedding[0] != 0.1 {
		t.Fatalf("unexpected vector: %v", result.Embedding)
	}
	if result.TotalTokens != 10 {
		t.Fatalf("expected TotalTokens=10, got %d", result.TotalTokens)
	}
	if len(ms.setKeys) != 1 || !strings.HasPrefix(ms.setKeys[0], "searchcore:emb_cache:") {
		t.Fatalf("expected one namespaced cache put, got %v", ms.setKeys)
	}
}

func TestEmbed_CacheHit(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.1, 0.2, 0.3}}}
	ce, ms := newTestCachedEmbedder(t, inner, 0)
	ms.data[cacheKey("test text")] = encodeVector([]float32{0.4, 0.5, 0.6})

	result, err := ce.Embed(context.Background(), "test text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Embedding) != 3 || result.Embedding[0] != 0.4 {
		t.Fatalf("expected cached vector, got: %v", result.Embedding)
	}
	if result.TotalTokens != 0 {
		t.Fatalf("expected TotalTokens=0 on cache hit, got %d", result.TotalTokens)
	}
	if inner.calls != 0 {
		t.Fatalf("inner embedder should not be called on hit, got %d calls", inner.calls)
	}
}

func TestEmbed_SecondCallServedFromCache(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1, 2}}}
	ce, _ := newTestCachedEmbedder(t, inner, 0)
	ctx := context.Background()

	for range 3 {
		if _, err := ce.Embed(ctx, "same"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if inner.calls != 1 {
		t.Fatalf("expected 1 inner call, got %d", inner.calls)
	}
}

func TestEmbed_TTLApplied(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1}}}
	ce, ms := newTestCachedEmbedder(t, inner, time.Hour)

	if _, err := ce.Embed(context.Background(), "q"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := ms.ttls[cacheKey("q")]; got != time.Hour {
		t.Fatalf("expected ttl 1h, got %v", got)
	}
}

func TestEmbed_InnerError(t *testing.T) {
	inner := &mockEmbedder{err: errors.New("provider down")}
	ce, ms := newTestCachedEmbedder(t, inner, 0)

	if _, err := ce.Embed(context.Background(), "test text"); err == nil {
		t.Fatal("expected error from inner embedder")
	}
	if len(ms.setKeys) != 0 {
		t.Fatal("failed embeddings must not be cached")
	}
}

func TestEmbed_StoreFailuresDegradeToInner(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1}}}
	ce, ms := newTestCachedEmbedder(t, inner, 0)
	ms.getErr = errStore
	ms.setErr = errStore

	result, err := ce.Embed(context.Background(), "q")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Embedding) != 1 || inner.calls != 1 {
		t.Fatalf("expected inner result, got %v after %d calls", result.Embedding, inner.calls)
	}
}

func TestEmbed_CorruptEntryTreatedAsMiss(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{7}}}
	ce, ms := newTestCachedEmbedder(t, inner, 0)
	ms.data[cacheKey("q")] = []byte{1, 2, 3}

	result, err := ce.Embed(context.Background(), "q")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Embedding[0] != 7 {
		t.Fatalf("expected inner vector, got %v", result.Embedding)
	}
}

func TestEmbed_CountsHitsAndMisses(t *testing.T) {
	cv := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "test_emb_cache_total"}, []string{"result"})
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1}}}
	ce := New(inner, newMockKVStore(), 0, cv, zap.NewNop())
	ctx := context.Background()

	_, _ = ce.Embed(ctx, "a")
	_, _ = ce.Embed(ctx, "a")
	_, _ = ce.Embed(ctx, "b")

	if got := testutil.ToFloat64(cv.WithLabelValues("hit")); got != 1 {
		t.Errorf("hits = %v, want 1", got)
	}
	if got := testutil.ToFloat64(cv.WithLabelValues("miss")); got != 2 {
		t.Errorf("misses = %v, want 2", got)
	}
}

func TestInitialize_Delegates(t *testing.T) {
	inner := &mockEmbedder{initErr: domain.ErrEmbeddingUnavailable}
	ce, _ := newTestCachedEmbedder(t, inner, 0)

	err := ce.Initialize(context.Background())
	if !errors.Is(err, domain.ErrEmbeddingUnavailable) {
		t.Fatalf("expected wrapped ErrEmbeddingUnavailable, got %v", err)
	}
	if inner.initCalls != 1 {
		t.Fatalf("expected 1 init call, got %d", inner.initCalls)
	}
}

func TestHealthCheck_Forwards(t *testing.T) {
	inner := &mockEmbedder{healthErr: errStore}
	ce, _ := newTestCachedEmbedder(t, inner, 0)

	if err := ce.HealthCheck(context.Background()); !errors.Is(err, errStore) {
		t.Fatalf("expected inner health error, got %v", err)
	}
}

func TestEncodeDecodeVector(t *testing.T) {
	in := []float32{-1.5, 0, 3.25}
	out, err := decodeVector(encodeVector(in))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range in {
		if in[i] != out[i] {
			t.Fatalf("index %d: %v != %v", i, in[i], out[i])
		}
	}
	if _, err := decodeVector([]byte{1}); err == nil {
		t.Fatal("expected error for truncated data")
	}
}

func TestEmbed_WithValkeyStore(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)
	key := cacheKey("hello")

	gomock.InOrder(
		c.EXPECT().
			Do(gomock.Any(), mock.Match("GET", key)).
			Return(mock.Result(mock.RedisNil())),
		c.EXPECT().
			Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
				return cmd[0] == "SET" && cmd[1] == key && cmd[3] == "EX" && cmd[4] == "3600"
			})).
			Return(mock.Result(mock.RedisString("OK"))),
	)

	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.5}}}
	ce := New(inner, redis.NewStoreForTest(c), time.Hour, nil, zap.NewNop())

	if _, err := ce.Embed(context.Background(), "hello"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
