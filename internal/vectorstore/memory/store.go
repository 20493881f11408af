// Package memory implements the embedded vector store backend: brute-force
// cosine distance over in-process vectors. Suitable for local development and
// small catalogs; no external dependency.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shoptalk-ai/shoptalk/internal/domain"
	"github.com/shoptalk-ai/shoptalk/internal/vectorstore"
)

// Compile-time check: Store implements vectorstore.Store.
var _ vectorstore.Store = (*Store)(nil)

// Store is an in-memory vector store.
type Store struct {
	mu   sync.RWMutex
	dim  int
	docs map[string]vectorstore.Document
}

// NewStore creates an empty in-memory store for vectors of the given dimension.
func NewStore(dim int) (*Store, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("dimension must be positive, got %d", dim)
	}
	return &Store{dim: dim, docs: make(map[string]vectorstore.Document)}, nil
}

// Upsert inserts or replaces documents, re-normalizing vectors.
func (s *Store) Upsert(_ context.Context, docs []vectorstore.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range docs {
		if d.ID == "" {
			return fmt.Errorf("document id is required")
		}
		if len(d.Vector) != s.dim {
			return fmt.Errorf("document %s: vector dimension %d, want %d", d.ID, len(d.Vector), s.dim)
		}
		d.Vector = vectorstore.Normalize(d.Vector)
		s.docs[d.ID] = d
	}
	return nil
}

// Query scans all documents and returns the topN nearest by cosine distance.
func (s *Store) Query(_ context.Context, vector []float32, topN int) ([]domain.Candidate, error) {
	if len(vector) != s.dim {
		return nil, fmt.Errorf("query vector dimension %d, want %d", len(vector), s.dim)
	}
	if topN <= 0 {
		return nil, nil
	}

	q := vectorstore.Normalize(vector)

	s.mu.RLock()
	candidates := make([]domain.Candidate, 0, len(s.docs))
	for _, d := range s.docs {
		candidates = append(candidates, domain.Candidate{
			ID:       d.ID,
			Metadata: d.Metadata,
			Distance: 1.0 - dot(q, d.Vector),
		})
	}
	s.mu.RUnlock()

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Distance != candidates[j].Distance {
			return candidates[i].Distance < candidates[j].Distance
		}
		return candidates[i].ID < candidates[j].ID // deterministic order for ties
	})

	if len(candidates) > topN {
		candidates = candidates[:topN]
	}
	return candidates, nil
}

// Count returns the number of stored documents.
func (s *Store) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.docs)), nil
}

// Ping always succeeds for the embedded store.
func (s *Store) Ping(_ context.Context) error { return nil }

// WaitForReady is immediate for the embedded store.
func (s *Store) WaitForReady(_ context.Context, _ time.Duration) error { return nil }

// Driver returns the backend name.
func (s *Store) Driver() string { return "memory" }

// Close is a no-op.
func (s *Store) Close() {}

func dot(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
