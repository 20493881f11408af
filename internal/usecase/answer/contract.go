package answer

import (
	"context"

	"github.com/shoptalk-ai/shoptalk/internal/domain"
)

// Parser turns a raw query into validated filters. The bool reports whether
// extraction degraded to pass-through.
type Parser interface {
	Parse(ctx context.Context, query string) (domain.ParsedFilters, bool)
}

// Store retrieves the nearest candidates for a query vector.
type Store interface {
	Query(ctx context.Context, vector []float32, topN int) ([]domain.Candidate, error)
}

// Reranker reorders the head of a candidate pool by pairwise relevance.
// Implementations never fail: on trouble they return the input order.
type Reranker interface {
	Rerank(ctx context.Context, query string, candidates []domain.Candidate, topN int) []domain.Candidate
}

// Summarizer renders a short prose recommendation for the final results.
type Summarizer interface {
	Summarize(ctx context.Context, query string, filters domain.ParsedFilters, candidates []domain.Candidate) (string, error)
}
