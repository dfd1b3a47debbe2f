// Package document reads conversation-scoped document collections stored as
// JSON records in the shared key-value store. Records are written by the
// ingest side; this package never mutates them.
package document

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/searchcore/internal/domain"
	domdoc "github.com/kailas-cloud/searchcore/internal/domain/document"
)

// store is the consumer interface for documents (ISP).
type store interface {
	GetMulti(ctx context.Context, keys []string) ([][]byte, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Repo implements retrieval.DocumentSource over conversation collections.
type Repo struct {
	store  store
	logger *zap.Logger
}

// New creates a document repository.
func New(s store, logger *zap.Logger) *Repo {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repo{store: s, logger: logger}
}

// ListDocuments returns the documents of one conversation, or of every
// conversation when conversationID is empty. Undecodable records are skipped.
func (r *Repo) ListDocuments(ctx context.Context, conversationID string) ([]domdoc.Document, error) {
	pattern := domain.KeyPrefix + "conv:*:doc:*"
	if conversationID != "" {
		pattern = convPrefix(escapeGlob(conversationID)) + "*"
	}

	keys, err := r.store.Scan(ctx, pattern)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", pattern, err)
	}
	if len(keys) == 0 {
		return nil, nil
	}

	values, err := r.store.GetMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("get documents: %w", err)
	}

	docs := make([]domdoc.Document, 0, len(values))
	for i, raw := range values {
		if raw == nil {
			continue // deleted between SCAN and GET
		}
		var rec record
		if err := json.Unmarshal(raw, &rec); err != nil {
			r.logger.Warn("Skipping undecodable document", zap.String("key", keys[i]), zap.Error(err))
			continue
		}
		if rec.ID == "" {
			rec.ID = idFromKey(keys[i])
		}
		docs = append(docs, rec.toDomain())
	}
	return docs, nil
}

func convPrefix(conversationID string) string {
	return domain.KeyPrefix + "conv:" + conversationID + ":doc:"
}

func idFromKey(key string) string {
	if i := strings.LastIndex(key, ":doc:"); i >= 0 {
		return key[i+len(":doc:"):]
	}
	return key
}

var globEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

// escapeGlob quotes SCAN MATCH metacharacters.
func escapeGlob(s string) string {
	return globEscaper.Replace(s)
}

