package document

import (
	"context"
	"encoding/json"
	"path"
	"sort"
	"testing"

	domdoc "github.com/kailas-cloud/searchcore/internal/domain/document"
)

// --- Mocks ---

// mockStore is an in-memory implementation of the consumer interface.
type mockStore struct {
	data     map[string][]byte
	vanished map[string]bool // listed by Scan but gone by GetMulti
	scanErr  error
	patterns []string
}

func newMockStore() *mockStore {
	return &mockStore{data: map[string][]byte{}}
}

func (m *mockStore) GetMulti(_ context.Context, keys []string) ([][]byte, error) {
	out := make([][]byte, len(keys))
	for i, k := range keys {
		if !m.vanished[k] {
			out[i] = m.data[k]
		}
	}
	return out, nil
}

// seed writes doc the way the ingest side does.
func (m *mockStore) seed(t *testing.T, conversationID string, doc domdoc.Document) {
	t.Helper()
	data, err := json.Marshal(record{
		ID:         doc.ID(),
		Name:       doc.Name(),
		Text:       doc.Text(),
		Embeddings: doc.Embeddings(),
		ChunkSize:  doc.ChunkSize(),
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	m.data[convPrefix(conversationID)+doc.ID()] = data
}

func (m *mockStore) Scan(_ context.Context, pattern string) ([]string, error) {
	m.patterns = append(m.patterns, pattern)
	if m.scanErr != nil {
		return nil, m.scanErr
	}
	var keys []string
	for k := range m.data {
		if ok, _ := path.Match(pattern, k); ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}
