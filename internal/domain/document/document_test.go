package document

import (
	"strings"
	"testing"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name string
		text string
		size int
		want []string
	}{
		{"empty", "", 4, nil},
		{"exact", "abcdefgh", 4, []string{"abcd", "efgh"}},
		{"remainder", "abcdefghij", 4, []string{"abcd", "efgh", "ij"}},
		{"shorter than size", "abc", 10, []string{"abc"}},
		{"multibyte", "ñañañ", 2, []string{"ña", "ña", "ñ"}},
		{"invalid size", "abc", 0, nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Split(tc.text, tc.size)
			if strings.Join(got, "|") != strings.Join(tc.want, "|") || len(got) != len(tc.want) {
				t.Errorf("Split(%q, %d) = %q, want %q", tc.text, tc.size, got, tc.want)
			}
		})
	}
}

func TestChunkSize_DefaultsWhenNotPersisted(t *testing.T) {
	d := Reconstruct("1", "a", "text", [][]float32{{1}}, 0)
	if d.ChunkSize() != DefaultChunkSize {
		t.Errorf("expected %d, got %d", DefaultChunkSize, d.ChunkSize())
	}

	d = Reconstruct("1", "a", "text", [][]float32{{1}}, 300)
	if d.ChunkSize() != 300 {
		t.Errorf("expected persisted 300, got %d", d.ChunkSize())
	}
}

func TestChunks_UsesPersistedChunkSize(t *testing.T) {
	d := Reconstruct("1", "a", strings.Repeat("x", 250), [][]float32{{1}, {1}, {1}}, 100)
	chunks := d.Chunks()
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	if len([]rune(chunks[2])) != 50 {
		t.Errorf("expected last chunk of 50 chars, got %d", len([]rune(chunks[2])))
	}
}

func TestEligible(t *testing.T) {
	tests := []struct {
		name string
		doc  Document
		want bool
	}{
		{"ok", Reconstruct("1", "a", "text", [][]float32{{1}}, 0), true},
		{"no text", Reconstruct("1", "a", "", [][]float32{{1}}, 0), false},
		{"no embeddings", Reconstruct("1", "a", "text", nil, 0), false},
	}
	for _, tc := range tests {
		if got := tc.doc.Eligible(); got != tc.want {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}
