package embedding

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/shoptalk-ai/shoptalk/internal/domain"
)

type countingEmbedder struct {
	result domain.EmbeddingResult
	err    error
	calls  int
}

func (c *countingEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	c.calls++
	return c.result, c.err
}

func TestFallbackEmbedder_UsesPrimaryWhileHealthy(t *testing.T) {
	primary := &countingEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1}}}
	fallback := &countingEmbedder{result: domain.EmbeddingResult{Embedding: []float32{2}}}
	e := NewFallbackEmbedder(primary, fallback, zap.NewNop())

	res, err := e.Embed(context.Background(), "x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Embedding[0] != 1 {
		t.Error("expected primary result")
	}
	if fallback.calls != 0 {
		t.Error("fallback must not be called while primary is healthy")
	}
}

func TestFallbackEmbedder_SwitchesAndSticks(t *testing.T) {
	primary := &countingEmbedder{err: errors.New("provider down")}
	fallback := &countingEmbedder{result: domain.EmbeddingResult{Embedding: []float32{2}}}
	e := NewFallbackEmbedder(primary, fallback, zap.NewNop())

	for i := 0; i < 3; i++ {
		res, err := e.Embed(context.Background(), "x")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Embedding[0] != 2 {
			t.Error("expected fallback result")
		}
	}
	if primary.calls != 1 {
		t.Errorf("primary should be tried exactly once before sticking, got %d calls", primary.calls)
	}
	if fallback.calls != 3 {
		t.Errorf("expected 3 fallback calls, got %d", fallback.calls)
	}
}

func TestFallbackEmbedder_ContextCancelDoesNotSwitch(t *testing.T) {
	primary := &countingEmbedder{err: context.Canceled}
	fallback := &countingEmbedder{result: domain.EmbeddingResult{Embedding: []float32{2}}}
	e := NewFallbackEmbedder(primary, fallback, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := e.Embed(ctx, "x"); err == nil {
		t.Fatal("expected error on canceled context")
	}
	if fallback.calls != 0 {
		t.Error("caller timeout must not trigger the fallback switch")
	}
}
