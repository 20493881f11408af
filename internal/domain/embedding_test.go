package domain

import (
	"context"
	"errors"
	"testing"
)

type stubEmbedder struct {
	result EmbeddingResult
	err    error
	got    string
}

func (s *stubEmbedder) Embed(_ context.Context, text string) (EmbeddingResult, error) {
	s.got = text
	return s.result, s.err
}

func TestInstructionEmbedder_PrependsQueryMarker(t *testing.T) {
	inner := &stubEmbedder{result: EmbeddingResult{Embedding: []float32{0.1, 0.2, 0.3}}}
	emb := NewInstructionEmbedder(inner, QueryInstruction)

	result, err := emb.Embed(context.Background(), "red running shoes")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.got != "query: red running shoes" {
		t.Errorf("expected prefixed text, got %q", inner.got)
	}
	if len(result.Embedding) != 3 {
		t.Errorf("expected 3-element vector, got %d", len(result.Embedding))
	}
}

func TestInstructionEmbedder_DocumentMarkerDiffersFromQuery(t *testing.T) {
	inner := &stubEmbedder{result: EmbeddingResult{Embedding: []float32{0.5}}}

	NewInstructionEmbedder(inner, DocumentInstruction).Embed(context.Background(), "x") //nolint:errcheck
	docText := inner.got
	NewInstructionEmbedder(inner, QueryInstruction).Embed(context.Background(), "x") //nolint:errcheck

	if docText == inner.got {
		t.Error("query and document markers must produce different embedder inputs")
	}
}

func TestInstructionEmbedder_ErrorPropagation(t *testing.T) {
	innerErr := errors.New("provider down")
	inner := &stubEmbedder{err: innerErr}
	emb := NewInstructionEmbedder(inner, QueryInstruction)

	_, err := emb.Embed(context.Background(), "hello")
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, innerErr) {
		t.Errorf("expected wrapped inner error, got %v", err)
	}
}
