package domain

import (
	"context"
	"errors"
	"testing"
)

type stubEmbedder struct {
	result    EmbeddingResult
	err       error
	initErr   error
	initCalls int
	got       string
}

func (s *stubEmbedder) Initialize(_ context.Context) error {
	s.initCalls++
	return s.initErr
}

func (s *stubEmbedder) Embed(_ context.Context, text string) (EmbeddingResult, error) {
	s.got = text
	return s.result, s.err
}

func TestInstructionEmbedder_PrependsInstruction(t *testing.T) {
	inner := &stubEmbedder{result: EmbeddingResult{Embedding: []float32{0.1, 0.2, 0.3}}}
	emb := NewInstructionEmbedder(inner, "query: ")

	result, err := emb.Embed(context.Background(), "labour law")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.got != "query: labour law" {
		t.Errorf("expected prepended text, got %q", inner.got)
	}
	if len(result.Embedding) != 3 {
		t.Errorf("expected 3-element vector, got %d", len(result.Embedding))
	}
}

func TestInstructionEmbedder_ErrorPropagation(t *testing.T) {
	innerErr := errors.New("provider down")
	emb := NewInstructionEmbedder(&stubEmbedder{err: innerErr}, "query: ")

	_, err := emb.Embed(context.Background(), "hello")
	if !errors.Is(err, innerErr) {
		t.Fatalf("expected wrapped inner error, got %v", err)
	}
}

func TestInstructionEmbedder_InitializeDelegates(t *testing.T) {
	inner := &stubEmbedder{}
	emb := NewInstructionEmbedder(inner, "query: ")

	if err := emb.Initialize(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.initCalls != 1 {
		t.Errorf("expected 1 init call, got %d", inner.initCalls)
	}

	inner.initErr = ErrEmbeddingUnavailable
	if err := emb.Initialize(context.Background()); !errors.Is(err, ErrEmbeddingUnavailable) {
		t.Errorf("expected ErrEmbeddingUnavailable, got %v", err)
	}
}
