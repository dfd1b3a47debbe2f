package retrieval

import (
	"context"

	"github.com/kailas-cloud/searchcore/internal/domain"
	"github.com/kailas-cloud/searchcore/internal/domain/document"
)

// Embedder turns the query into a vector. Initialize must be safe to call repeatedly.
type Embedder interface {
	Initialize(ctx context.Context) error
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// DocumentSource enumerates stored documents. An empty conversationID lists
// every document the source holds.
type DocumentSource interface {
	ListDocuments(ctx context.Context, conversationID string) ([]document.Document, error)
}
