// Package rerank reorders a similarity-sorted candidate pool by pairwise
// relevance. Cross-encoder scoring is expensive per pair, so only a bounded
// head of the pool is scored; the rest is dropped, never resurfaced out of
// order. Reranking is strictly best-effort: any scorer failure or timeout
// keeps the incoming similarity order.
package rerank

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/shoptalk-ai/shoptalk/internal/domain"
	"github.com/shoptalk-ai/shoptalk/internal/metrics"
)

// maxDocChars bounds the text sent per candidate to keep scoring latency flat.
const maxDocChars = 500

// Service reorders candidates via a cross-encoder scorer.
type Service struct {
	scorer  Scorer
	timeout time.Duration
	logger  *zap.Logger
}

// New creates a rerank service. A nil scorer disables reranking (candidates
// pass through unchanged). timeout bounds the scoring call.
func New(scorer Scorer, timeout time.Duration, logger *zap.Logger) *Service {
	return &Service{scorer: scorer, timeout: timeout, logger: logger}
}

// Rerank scores the first topN candidates against the query and returns them
// sorted by descending relevance, ties keeping their pre-rerank order.
// Candidates beyond topN are dropped. On scorer failure the input is
// returned unchanged.
func (s *Service) Rerank(ctx context.Context, query string, candidates []domain.Candidate, topN int) []domain.Candidate {
	if s.scorer == nil || len(candidates) == 0 || topN <= 0 {
		return candidates
	}

	if topN > len(candidates) {
		topN = len(candidates)
	}
	head := candidates[:topN]

	documents := make([]string, len(head))
	for i, c := range head {
		doc := c.Blob()
		if doc == "" {
			doc = c.Title()
		}
		documents[i] = truncate(doc, maxDocChars)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	scores, err := s.scorer.Score(ctx, query, documents)
	if err != nil || len(scores) != len(head) {
		metrics.PipelineDegradedTotal.WithLabelValues("rerank").Inc()
		s.logger.Warn("Rerank degraded, keeping similarity order",
			zap.Int("pool", len(head)),
			zap.Error(err),
		)
		return candidates
	}

	ranked := make([]domain.Candidate, len(head))
	copy(ranked, head)
	order := make(map[string]float64, len(head))
	for i, c := range head {
		order[c.ID] = scores[i]
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return order[ranked[i].ID] > order[ranked[j].ID]
	})
	return ranked
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
