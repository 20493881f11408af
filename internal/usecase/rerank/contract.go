package rerank

import "context"

// Scorer scores (query, document) pairs jointly with a cross-encoder model.
// Scores are index-aligned with the documents; higher is more relevant.
type Scorer interface {
	Score(ctx context.Context, query string, documents []string) ([]float64, error)
}
