package library

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	domdoc "github.com/kailas-cloud/searchcore/internal/domain/document"
)

func newTestRepo(t *testing.T) *Repo {
	t.Helper()
	r, err := Open(filepath.Join(t.TempDir(), "library_test.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

// insert writes doc the way the ingest side does.
func insert(t *testing.T, r *Repo, doc domdoc.Document) {
	t.Helper()
	embeddings, err := json.Marshal(doc.Embeddings())
	require.NoError(t, err)
	_, err = r.db.ExecContext(context.Background(),
		`INSERT OR REPLACE INTO documents (id, name, text, embeddings, chunk_size) VALUES (?, ?, ?, ?, ?)`,
		doc.ID(), doc.Name(), doc.Text(), string(embeddings), doc.ChunkSize(),
	)
	require.NoError(t, err)
}

func TestListDocuments(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	insert(t, r, domdoc.Reconstruct("b", "Beta", "beta text", [][]float32{{0, 1}}, 300))
	insert(t, r, domdoc.Reconstruct("a", "Alpha", "alpha text", [][]float32{{1, 0}, {0.5, 0.5}}, 0))

	docs, err := r.ListDocuments(ctx, "ignored")
	require.NoError(t, err)
	require.Len(t, docs, 2)

	assert.Equal(t, "a", docs[0].ID())
	assert.Equal(t, "Alpha", docs[0].Name())
	assert.Len(t, docs[0].Embeddings(), 2)
	assert.Equal(t, domdoc.DefaultChunkSize, docs[0].ChunkSize())
	assert.Equal(t, 300, docs[1].ChunkSize())
	assert.InDelta(t, 1.0, docs[1].Embeddings()[0][1], 1e-9)
}

func TestListDocuments_SkipsUndecodableEmbeddings(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	insert(t, r, domdoc.Reconstruct("ok", "n", "t", [][]float32{{1}}, 0))
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO documents (id, name, text, embeddings) VALUES ('bad', 'n', 't', 'not-json')`)
	require.NoError(t, err)

	docs, err := r.ListDocuments(ctx, "")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "ok", docs[0].ID())
}

func TestListDocuments_Empty(t *testing.T) {
	docs, err := newTestRepo(t).ListDocuments(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestPing(t *testing.T) {
	r := newTestRepo(t)
	assert.NoError(t, r.Ping(context.Background()))
}

func TestOpen_PersistsAcrossHandles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "persist.db")
	ctx := context.Background()

	r1, err := Open(path, nil)
	require.NoError(t, err)
	insert(t, r1, domdoc.Reconstruct("a", "n", "t", [][]float32{{1}}, 0))
	require.NoError(t, r1.Close())

	r2, err := Open(path, nil)
	require.NoError(t, err)
	defer func() { _ = r2.Close() }()

	docs, err := r2.ListDocuments(ctx, "")
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}
