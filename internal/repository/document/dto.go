package document

import (
	domdoc "github.com/kailas-cloud/searchcore/internal/domain/document"
)

// record is the JSON shape stored under a conversation document key.
type record struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Text       string      `json:"text"`
	Embeddings [][]float32 `json:"embeddings"`
	ChunkSize  int         `json:"chunk_size,omitempty"`
}

func (r record) toDomain() domdoc.Document {
	return domdoc.Reconstruct(r.ID, r.Name, r.Text, r.Embeddings, r.ChunkSize)
}
