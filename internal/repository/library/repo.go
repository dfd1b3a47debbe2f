// Package library reads the global document library from SQLite. Rows are
// written by the ingest side; this package only creates the table and reads.
package library

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	domdoc "github.com/kailas-cloud/searchcore/internal/domain/document"
)

const createDocumentsTable = `
CREATE TABLE IF NOT EXISTS documents (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	text TEXT NOT NULL,
	embeddings TEXT NOT NULL DEFAULT '[]',
	chunk_size INTEGER NOT NULL DEFAULT 0,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// Repo is the SQLite-backed global document library.
type Repo struct {
	db     *sql.DB
	logger *zap.Logger
}

// Open opens (creating if needed) the library database at path.
func Open(path string, logger *zap.Logger) (*Repo, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open library db: %w", err)
	}

	if _, err := db.Exec(createDocumentsTable); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate library db: %w", err)
	}

	return &Repo{db: db, logger: logger}, nil
}

// Close releases the database handle.
func (r *Repo) Close() error {
	return r.db.Close() //nolint:wrapcheck // passthrough
}

// Ping checks the database connection.
func (r *Repo) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping library db: %w", err)
	}
	return nil
}

// ListDocuments returns every library document. The library is global, so the
// conversation id is ignored. Rows with undecodable embeddings are skipped.
func (r *Repo) ListDocuments(ctx context.Context, _ string) ([]domdoc.Document, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, text, embeddings, chunk_size FROM documents ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var docs []domdoc.Document
	for rows.Next() {
		var (
			id, name, text, raw string
			chunkSize           int
		)
		if err := rows.Scan(&id, &name, &text, &raw, &chunkSize); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}

		var embeddings [][]float32
		if err := json.Unmarshal([]byte(raw), &embeddings); err != nil {
			r.logger.Warn("Skipping document with undecodable embeddings", zap.String("id", id), zap.Error(err))
			continue
		}
		docs = append(docs, domdoc.Reconstruct(id, name, text, embeddings, chunkSize))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return docs, nil
}
