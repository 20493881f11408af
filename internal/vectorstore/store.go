// Package vectorstore defines the capability interface over interchangeable
// vector index backends. Callers never branch on backend identity: the
// concrete store is chosen once at process start and injected.
package vectorstore

import (
	"context"
	"math"
	"time"

	"github.com/shoptalk-ai/shoptalk/internal/domain"
)

// Document is one product record to index: stable id, embedding vector, and
// flat string metadata.
type Document struct {
	ID       string
	Vector   []float32
	Metadata map[string]string
}

// Store is the uniform contract over vector index backends.
type Store interface {
	// Query runs a nearest-neighbor search and returns candidates ordered by
	// ascending distance.
	Query(ctx context.Context, vector []float32, topN int) ([]domain.Candidate, error)
	// Upsert inserts or replaces documents. Vectors are re-normalized before
	// storage in case ingested norms have drifted.
	Upsert(ctx context.Context, docs []Document) error
	// Count returns the number of indexed documents.
	Count(ctx context.Context) (int64, error)
	// Ping checks backend connectivity.
	Ping(ctx context.Context) error
	// WaitForReady blocks until the backend responds or the timeout expires.
	WaitForReady(ctx context.Context, timeout time.Duration) error
	// Driver returns the backend name for diagnostics.
	Driver() string
	Close()
}

// Normalize returns a unit-length (L2) copy of the vector. The embedding
// model is trained on cosine distance over unit vectors; storing drifted
// norms skews distances without raising an error.
func Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		out := make([]float32, len(v))
		copy(out, v)
		return out
	}
	norm := math.Sqrt(sum)
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}
