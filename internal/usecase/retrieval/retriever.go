// Package retrieval ranks locally stored document chunks against a query embedding.
package retrieval

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/kailas-cloud/searchcore/internal/domain"
	"github.com/kailas-cloud/searchcore/internal/domain/document"
	"github.com/kailas-cloud/searchcore/internal/domain/search/result"
)

const snippetLimit = 200

// Retriever pools documents from every source and returns the chunks most
// similar to the query. Failures yield an empty result, never an error.
type Retriever struct {
	embedder      Embedder
	sources       []DocumentSource
	minSimilarity float64
	logger        *zap.Logger

	mu    sync.Mutex
	ready bool
}

// Option configures a Retriever.
type Option func(*Retriever)

// WithMinSimilarity drops chunks scoring below threshold. Zero disables the filter.
func WithMinSimilarity(threshold float64) Option {
	return func(r *Retriever) { r.minSimilarity = threshold }
}

// New creates a Retriever over the given sources.
func New(embedder Embedder, sources []DocumentSource, logger *zap.Logger, opts ...Option) *Retriever {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Retriever{
		embedder: embedder,
		sources:  sources,
		logger:   logger,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

type scoredChunk struct {
	doc   document.Document
	index int
	text  string
	score float64
}

// Retrieve returns up to maxResults chunks ranked by cosine similarity to query.
func (r *Retriever) Retrieve(ctx context.Context, query, conversationID string, maxResults int) []result.Result {
	if maxResults <= 0 {
		return nil
	}

	docs := r.collect(ctx, conversationID)
	if len(docs) == 0 {
		return nil
	}

	if err := r.ensureReady(ctx); err != nil {
		r.logger.Warn("Embedding engine unavailable, skipping local retrieval", zap.Error(err))
		return nil
	}

	emb, err := r.embedder.Embed(ctx, query)
	if err != nil {
		r.logger.Warn("Query embedding failed, skipping local retrieval",
			zap.Error(fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)))
		return nil
	}

	var pool []scoredChunk
	for _, d := range docs {
		chunks := d.Chunks()
		vectors := d.Embeddings()
		if len(chunks) != len(vectors) {
			r.logger.Debug("Chunk count differs from stored embeddings",
				zap.String("document_id", d.ID()),
				zap.Int("chunks", len(chunks)),
				zap.Int("embeddings", len(vectors)),
			)
		}
		for i := 0; i < min(len(chunks), len(vectors)); i++ {
			s := Cosine(emb.Embedding, vectors[i])
			if r.minSimilarity > 0 && s < r.minSimilarity {
				continue
			}
			pool = append(pool, scoredChunk{doc: d, index: i, text: chunks[i], score: s})
		}
	}

	sort.Slice(pool, func(i, j int) bool { return pool[i].score > pool[j].score })
	if len(pool) > maxResults {
		pool = pool[:maxResults]
	}

	out := make([]result.Result, len(pool))
	for i, c := range pool {
		out[i] = result.NewScored(
			fmt.Sprintf("%s (Document %d)", c.doc.Name(), c.index+1),
			truncate(c.text, snippetLimit),
			"document:"+c.doc.ID(),
			result.SourceLocalDocument,
			c.score,
		)
	}
	return out
}

func (r *Retriever) ensureReady(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.ready {
		return nil
	}
	if err := r.embedder.Initialize(ctx); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}
	r.ready = true
	return nil
}

func (r *Retriever) collect(ctx context.Context, conversationID string) []document.Document {
	var docs []document.Document
	for i, src := range r.sources {
		list, err := src.ListDocuments(ctx, conversationID)
		if err != nil {
			r.logger.Warn("Document source failed", zap.Int("source", i), zap.Error(err))
			continue
		}
		for _, d := range list {
			if d.Eligible() {
				docs = append(docs, d)
			}
		}
	}
	return docs
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
