package domain

import "errors"

var (
	// ErrEmptyQuery signals a blank query after trimming.
	ErrEmptyQuery = errors.New("empty query")
	// ErrRequestTimeout signals that the global request budget was exceeded.
	// Unlike per-stage timeouts, this one is fatal for the request.
	ErrRequestTimeout = errors.New("request timeout")
	// ErrRateLimited signals a provider rate limit hit.
	ErrRateLimited = errors.New("rate limited")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrStoreUnavailable signals that the vector store backend is down.
	ErrStoreUnavailable = errors.New("vector store unavailable")
)
