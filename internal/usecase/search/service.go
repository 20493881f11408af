// Package search exposes raw similarity retrieval: embed the query, ask the
// vector store, return the nearest candidates untouched. No parsing, no
// filtering, no rerank. Useful for debugging relevance and as a lightweight
// API surface.
package search

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/shoptalk-ai/shoptalk/internal/domain"
)

// Store retrieves the nearest candidates for a query vector.
type Store interface {
	Query(ctx context.Context, vector []float32, topN int) ([]domain.Candidate, error)
}

// Service runs plain vector similarity search.
type Service struct {
	embedder domain.Embedder
	store    Store
	maxK     int
	logger   *zap.Logger
}

// New creates a search service. maxK caps the caller-requested result count.
func New(embedder domain.Embedder, store Store, maxK int, logger *zap.Logger) *Service {
	return &Service{embedder: embedder, store: store, maxK: maxK, logger: logger}
}

// Search returns the k nearest candidates for the query, most similar first.
// Unlike the answer pipeline, failures here are surfaced to the caller.
func (s *Service) Search(ctx context.Context, query string, k int) ([]domain.Candidate, error) {
	if query == "" {
		return nil, domain.ErrEmptyQuery
	}
	if k <= 0 {
		k = 10
	}
	if k > s.maxK {
		k = s.maxK
	}

	emb, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	candidates, err := s.store.Query(ctx, emb.Embedding, k)
	if err != nil {
		return nil, fmt.Errorf("query store: %w", err)
	}

	s.logger.Debug("Similarity search completed",
		zap.String("query", query),
		zap.Int("k", k),
		zap.Int("results", len(candidates)),
	)
	return candidates, nil
}
