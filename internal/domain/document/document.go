// Package document models stored documents consumed by local retrieval.
package document

// DefaultChunkSize is the chunk length (in characters) assumed when a document
// does not carry the chunk size its embeddings were generated with.
const DefaultChunkSize = 800

// Document is a stored document with per-chunk embeddings (read-only value object).
// The core never owns document lifecycle; it only reads text and embeddings.
type Document struct {
	id         string
	name       string
	text       string
	embeddings [][]float32
	chunkSize  int
}

// Reconstruct hydrates a Document from storage without validation.
// chunkSize <= 0 means the chunk size was not persisted.
func Reconstruct(id, name, text string, embeddings [][]float32, chunkSize int) Document {
	return Document{
		id:         id,
		name:       name,
		text:       text,
		embeddings: embeddings,
		chunkSize:  chunkSize,
	}
}

// ID returns the document identifier.
func (d Document) ID() string { return d.id }

// Name returns the display name.
func (d Document) Name() string { return d.name }

// Text returns the extracted document text.
func (d Document) Text() string { return d.text }

// Embeddings returns the per-chunk embedding vectors in chunk order.
func (d Document) Embeddings() [][]float32 { return d.embeddings }

// ChunkSize returns the chunk size the embeddings were built with.
func (d Document) ChunkSize() int {
	if d.chunkSize <= 0 {
		return DefaultChunkSize
	}
	return d.chunkSize
}

// Eligible reports whether the document can take part in similarity retrieval.
func (d Document) Eligible() bool {
	return d.text != "" && len(d.embeddings) > 0
}

// Chunks re-segments the text into fixed-size chunks aligned with Embeddings.
func (d Document) Chunks() []string {
	return Split(d.text, d.ChunkSize())
}

// Split cuts text into consecutive chunks of at most size characters.
func Split(text string, size int) []string {
	if text == "" || size <= 0 {
		return nil
	}
	runes := []rune(text)
	chunks := make([]string, 0, (len(runes)+size-1)/size)
	for start := 0; start < len(runes); start += size {
		end := min(start+size, len(runes))
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}
