package embedding

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/shoptalk-ai/shoptalk/internal/domain"
	"github.com/shoptalk-ai/shoptalk/internal/metrics"
)

// FallbackEmbedder tries the primary embedder and, on provider failure,
// switches to the fallback model. The switch is sticky: once the primary has
// failed, later requests go straight to the fallback instead of paying the
// failed-call latency every time. Context cancellation does not trigger the
// switch — a caller timeout says nothing about provider health.
type FallbackEmbedder struct {
	primary  domain.Embedder
	fallback domain.Embedder
	switched atomic.Bool
	logger   *zap.Logger
}

// NewFallbackEmbedder creates a sticky primary/fallback embedder pair.
func NewFallbackEmbedder(primary, fallback domain.Embedder, logger *zap.Logger) *FallbackEmbedder {
	return &FallbackEmbedder{primary: primary, fallback: fallback, logger: logger}
}

// Embed delegates to the active embedder.
func (e *FallbackEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	if e.switched.Load() {
		return e.fallback.Embed(ctx, text)
	}

	result, err := e.primary.Embed(ctx, text)
	if err == nil {
		return result, nil
	}
	if ctx.Err() != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("primary embed: %w", err)
	}

	if e.switched.CompareAndSwap(false, true) {
		e.logger.Warn("Primary embedding model failed, switching to fallback",
			zap.Error(err),
		)
		metrics.EmbeddingFallbackActive.Set(1)
	}
	return e.fallback.Embed(ctx, text)
}
