// Package shoptalk embeds the product retrieval pipeline in-process: parse,
// retrieve, filter, rerank, summarize against an injected vector store,
// without running the HTTP server. The HTTP API in cmd/shoptalk is a thin
// shell over the same services.
package shoptalk

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/shoptalk-ai/shoptalk/internal/catalog"
	"github.com/shoptalk-ai/shoptalk/internal/domain"
	answeruc "github.com/shoptalk-ai/shoptalk/internal/usecase/answer"
	parseuc "github.com/shoptalk-ai/shoptalk/internal/usecase/parse"
	rerankuc "github.com/shoptalk-ai/shoptalk/internal/usecase/rerank"
	searchuc "github.com/shoptalk-ai/shoptalk/internal/usecase/search"
	"github.com/shoptalk-ai/shoptalk/internal/vectorstore"
)

// Product is one catalog record for indexing.
type Product = catalog.Product

// Extractor turns a query into raw filter JSON. See internal/transport/llm
// for the production implementation.
type Extractor = parseuc.Extractor

// Summarizer renders prose for the final results.
type Summarizer = answeruc.Summarizer

// Scorer scores (query, document) pairs for reranking.
type Scorer = rerankuc.Scorer

// Config assembles the embedded pipeline. Store and QueryEmbedder are
// required; every other collaborator is optional and its stage degrades
// gracefully when absent.
type Config struct {
	// Store is the vector index backend.
	Store vectorstore.Store
	// QueryEmbedder vectorizes queries. Wrap the provider with
	// domain.NewInstructionEmbedder(p, domain.QueryInstruction) for
	// asymmetric models.
	QueryEmbedder domain.Embedder
	// DocumentEmbedder vectorizes products for IndexProducts. Optional.
	DocumentEmbedder domain.Embedder
	// Extractor parses queries into filters. Nil disables parsing: every
	// query runs unconstrained.
	Extractor Extractor
	// Summarizer writes the prose recommendation. Nil selects the
	// templated fallback.
	Summarizer Summarizer
	// Scorer reranks the candidate head. Nil disables reranking.
	Scorer Scorer

	// DefaultK, MaxK, MinPoolSize, MaxRerankPool and the timeouts default
	// to the server's values when zero.
	DefaultK       int
	MaxK           int
	MinPoolSize    int
	MaxRerankPool  int
	ParseTimeout   time.Duration
	RerankTimeout  time.Duration
	SummaryTimeout time.Duration
	GlobalTimeout  time.Duration

	Logger *zap.Logger
}

// Client is the embedded pipeline entry point.
type Client struct {
	answer      *answeruc.Service
	search      *searchuc.Service
	store       vectorstore.Store
	docEmbedder domain.Embedder
	logger      *zap.Logger
}

// New assembles a pipeline client from the config.
func New(cfg Config) (*Client, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if cfg.QueryEmbedder == nil {
		return nil, fmt.Errorf("query embedder is required")
	}
	applyDefaults(&cfg)

	var parser answeruc.Parser
	if cfg.Extractor != nil {
		parser = parseuc.New(cfg.Extractor, cfg.ParseTimeout, cfg.Logger)
	} else {
		parser = passThroughParser{}
	}

	var reranker answeruc.Reranker
	if cfg.Scorer != nil {
		reranker = rerankuc.New(cfg.Scorer, cfg.RerankTimeout, cfg.Logger)
	}

	answerSvc := answeruc.New(parser, cfg.QueryEmbedder, cfg.Store, reranker, cfg.Summarizer, answeruc.Config{
		DefaultK:       cfg.DefaultK,
		MaxK:           cfg.MaxK,
		MinPoolSize:    cfg.MinPoolSize,
		MaxRerankPool:  cfg.MaxRerankPool,
		GlobalTimeout:  cfg.GlobalTimeout,
		SummaryTimeout: cfg.SummaryTimeout,
	}, cfg.Logger)
	searchSvc := searchuc.New(cfg.QueryEmbedder, cfg.Store, cfg.MaxK, cfg.Logger)

	return &Client{
		answer:      answerSvc,
		search:      searchSvc,
		store:       cfg.Store,
		docEmbedder: cfg.DocumentEmbedder,
		logger:      cfg.Logger,
	}, nil
}

// Answer runs the full pipeline for a shopping query.
func (c *Client) Answer(ctx context.Context, query string, k int) (domain.Answer, error) {
	return c.answer.Answer(ctx, query, k)
}

// Search runs raw similarity search.
func (c *Client) Search(ctx context.Context, query string, k int) ([]domain.Candidate, error) {
	return c.search.Search(ctx, query, k)
}

// IndexProducts embeds and upserts products into the store. Requires a
// DocumentEmbedder.
func (c *Client) IndexProducts(ctx context.Context, products []Product) error {
	if c.docEmbedder == nil {
		return fmt.Errorf("document embedder is required for indexing")
	}
	return catalog.Index(ctx, c.store, c.docEmbedder, products, c.logger)
}

// Count returns the number of indexed products.
func (c *Client) Count(ctx context.Context) (int64, error) {
	return c.store.Count(ctx)
}

// Close releases the underlying store connection.
func (c *Client) Close() {
	c.store.Close()
}

func applyDefaults(cfg *Config) {
	if cfg.DefaultK <= 0 {
		cfg.DefaultK = 10
	}
	if cfg.MaxK <= 0 {
		cfg.MaxK = 50
	}
	if cfg.MinPoolSize <= 0 {
		cfg.MinPoolSize = 100
	}
	if cfg.MaxRerankPool <= 0 {
		cfg.MaxRerankPool = 50
	}
	if cfg.ParseTimeout <= 0 {
		cfg.ParseTimeout = 10 * time.Second
	}
	if cfg.RerankTimeout <= 0 {
		cfg.RerankTimeout = 5 * time.Second
	}
	if cfg.SummaryTimeout <= 0 {
		cfg.SummaryTimeout = 15 * time.Second
	}
	if cfg.GlobalTimeout <= 0 {
		cfg.GlobalTimeout = 60 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
}

// passThroughParser skips extraction entirely.
type passThroughParser struct{}

func (passThroughParser) Parse(_ context.Context, query string) (domain.ParsedFilters, bool) {
	return domain.PassThroughFilters(query), false
}
