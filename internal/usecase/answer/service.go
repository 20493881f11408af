// Package answer orchestrates the retrieval pipeline: parse, embed, retrieve,
// filter, relax, rerank, summarize. Every stage past input validation is
// best-effort; the only hard failures are an empty query and the global
// deadline. A degraded stage narrows or reorders the answer, it never loses
// the request.
package answer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/shoptalk-ai/shoptalk/internal/domain"
	"github.com/shoptalk-ai/shoptalk/internal/metrics"
	"github.com/shoptalk-ai/shoptalk/internal/usecase/filter"
)

// Config holds the pipeline budgets and sizes.
type Config struct {
	// DefaultK is used when the caller does not specify a result count.
	DefaultK int
	// MaxK caps the caller-requested result count.
	MaxK int
	// MinPoolSize floors the retrieval pool so filters have room to drop.
	MinPoolSize int
	// MaxRerankPool caps how many candidates are cross-encoder scored.
	MaxRerankPool int
	// GlobalTimeout bounds the whole request.
	GlobalTimeout time.Duration
	// SummaryTimeout bounds the final prose generation call.
	SummaryTimeout time.Duration
}

// Service runs the retrieval pipeline end to end.
type Service struct {
	parser     Parser
	embedder   domain.Embedder
	store      Store
	reranker   Reranker
	summarizer Summarizer
	cfg        Config
	logger     *zap.Logger
}

// New creates the pipeline orchestrator. All collaborators are required
// except reranker and summarizer, which may be nil (stage skipped or
// templated fallback).
func New(
	parser Parser,
	embedder domain.Embedder,
	store Store,
	reranker Reranker,
	summarizer Summarizer,
	cfg Config,
	logger *zap.Logger,
) *Service {
	return &Service{
		parser:     parser,
		embedder:   embedder,
		store:      store,
		reranker:   reranker,
		summarizer: summarizer,
		cfg:        cfg,
		logger:     logger,
	}
}

// Answer resolves a shopping query into at most k recommended products with
// a prose summary. k <= 0 selects the default; oversized k is clamped.
// Returns domain.ErrEmptyQuery for blank input and domain.ErrRequestTimeout
// when the global budget runs out mid-pipeline.
func (s *Service) Answer(ctx context.Context, query string, k int) (domain.Answer, error) {
	if query == "" {
		return domain.Answer{}, domain.ErrEmptyQuery
	}
	k = s.clampK(k)

	ctx, cancel := context.WithTimeout(ctx, s.cfg.GlobalTimeout)
	defer cancel()

	filters, degradedParse := s.parse(ctx, query)
	if err := deadline(ctx); err != nil {
		return domain.Answer{}, err
	}

	pool := s.retrieve(ctx, filters.Rewrite, poolSize(k, s.cfg.MinPoolSize))
	if err := deadline(ctx); err != nil {
		return domain.Answer{}, err
	}

	matched := s.applyFilters(pool, filters)
	ranked := s.rerank(ctx, filters.Rewrite, matched, rerankPool(k, s.cfg.MaxRerankPool))
	if err := deadline(ctx); err != nil {
		return domain.Answer{}, err
	}

	results := ranked
	if len(results) > k {
		results = results[:k]
	}

	summary := s.summarize(ctx, query, filters, results)

	s.logger.Info("Answer pipeline completed",
		zap.String("query", query),
		zap.Int("pool", len(pool)),
		zap.Int("matched", len(matched)),
		zap.Int("results", len(results)),
		zap.Bool("degraded_parse", degradedParse),
	)

	return domain.Answer{
		Summary:       summary,
		Rewrite:       filters.Rewrite,
		Filters:       filters,
		Results:       results,
		DegradedParse: degradedParse,
	}, nil
}

func (s *Service) clampK(k int) int {
	if k <= 0 {
		return s.cfg.DefaultK
	}
	if k > s.cfg.MaxK {
		return s.cfg.MaxK
	}
	return k
}

func (s *Service) parse(ctx context.Context, query string) (domain.ParsedFilters, bool) {
	defer observe("parse", time.Now())
	return s.parser.Parse(ctx, query)
}

// retrieve embeds the rewrite and queries the store. Either failure yields an
// empty pool; the pipeline continues and the answer reports zero results.
func (s *Service) retrieve(ctx context.Context, rewrite string, topN int) []domain.Candidate {
	defer observe("retrieve", time.Now())

	emb, err := s.embedder.Embed(ctx, rewrite)
	if err != nil {
		metrics.PipelineDegradedTotal.WithLabelValues("embed").Inc()
		s.logger.Warn("Query embedding failed, answering with empty pool",
			zap.String("rewrite", rewrite),
			zap.Error(err),
		)
		return nil
	}

	pool, err := s.store.Query(ctx, emb.Embedding, topN)
	if err != nil {
		metrics.PipelineDegradedTotal.WithLabelValues("retrieve").Inc()
		s.logger.Warn("Vector store query failed, answering with empty pool",
			zap.Error(err),
		)
		return nil
	}
	metrics.PipelinePoolSize.WithLabelValues("retrieve").Observe(float64(len(pool)))
	return pool
}

// applyFilters runs the constraint predicates with one-shot category
// relaxation: when the category filter alone empties the pool, it is dropped
// and the remaining constraints are retried once.
func (s *Service) applyFilters(pool []domain.Candidate, filters domain.ParsedFilters) []domain.Candidate {
	defer observe("filter", time.Now())

	matched := filter.Apply(pool, filters)
	if len(matched) == 0 && filters.Category != "" && len(pool) > 0 {
		metrics.PipelineDegradedTotal.WithLabelValues("relax").Inc()
		s.logger.Info("Category filter emptied the pool, relaxing it",
			zap.String("category", filters.Category),
		)
		matched = filter.Apply(pool, filters.WithoutCategory())
	}
	metrics.PipelinePoolSize.WithLabelValues("filter").Observe(float64(len(matched)))
	return matched
}

func (s *Service) rerank(ctx context.Context, rewrite string, matched []domain.Candidate, topN int) []domain.Candidate {
	if s.reranker == nil {
		return matched
	}
	defer observe("rerank", time.Now())
	return s.reranker.Rerank(ctx, rewrite, matched, topN)
}

// summarize asks the LLM for prose and falls back to a template on any
// failure. The returned summary is never empty.
func (s *Service) summarize(ctx context.Context, query string, filters domain.ParsedFilters, results []domain.Candidate) string {
	defer observe("summarize", time.Now())

	if s.summarizer == nil {
		return fallbackSummary(query, len(results))
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.SummaryTimeout)
	defer cancel()

	summary, err := s.summarizer.Summarize(ctx, query, filters, results)
	if err != nil || summary == "" {
		metrics.PipelineDegradedTotal.WithLabelValues("summarize").Inc()
		s.logger.Warn("Summary generation degraded to template",
			zap.String("query", query),
			zap.Error(err),
		)
		return fallbackSummary(query, len(results))
	}
	return summary
}

// deadline maps a spent global budget to the timeout sentinel. Cancellation
// by the caller is passed through as-is.
func deadline(ctx context.Context) error {
	err := ctx.Err()
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.DeadlineExceeded):
		return domain.ErrRequestTimeout
	default:
		return err
	}
}

// poolSize widens retrieval beyond k so filtering has room to drop.
func poolSize(k, minPool int) int {
	n := 2 * k
	if n < minPool {
		n = minPool
	}
	return n
}

// rerankPool bounds cross-encoder work to min(cap, 3k).
func rerankPool(k, maxPool int) int {
	n := 3 * k
	if n > maxPool {
		n = maxPool
	}
	return n
}

func observe(stage string, start time.Time) {
	metrics.PipelineStageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

func fallbackSummary(query string, n int) string {
	if n == 0 {
		return fmt.Sprintf("No products matched %q. Try fewer constraints or a broader search.", query)
	}
	return fmt.Sprintf("Found %d products for %q. The top matches are listed below.", n, query)
}
