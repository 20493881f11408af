// Package crossencoder is the transport for the pairwise relevance scoring
// service. The service hosts a cross-encoder model behind a small JSON API:
// POST /rerank with a query and documents, indexed scores back.
package crossencoder

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/shoptalk-ai/shoptalk/internal/retry"
)

// Client scores (query, document) pairs over HTTP.
type Client struct {
	url    string
	model  string
	http   *http.Client
	retry  retry.Policy
	logger *zap.Logger
}

// Config holds the scoring service settings.
type Config struct {
	URL     string
	Model   string
	Timeout time.Duration
	Retry   retry.Policy
	Logger  *zap.Logger
}

// NewClient creates a cross-encoder scoring client.
func NewClient(cfg *Config) *Client {
	policy := cfg.Retry
	if policy.MaxAttempts == 0 {
		policy = retry.Default()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		url:    cfg.URL,
		model:  cfg.Model,
		http:   &http.Client{Timeout: timeout},
		retry:  policy,
		logger: logger,
	}
}

type rerankRequest struct {
	Model     string   `json:"model,omitempty"`
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
}

type rerankResponse struct {
	Results []struct {
		Index int     `json:"index"`
		Score float64 `json:"relevance_score"`
	} `json:"results"`
}

// Score returns one relevance score per document, index-aligned with the
// input. Server 5xx responses are retried per the policy.
func (c *Client) Score(ctx context.Context, query string, documents []string) ([]float64, error) {
	if len(documents) == 0 {
		return nil, nil
	}

	body, err := json.Marshal(rerankRequest{Model: c.model, Query: query, Documents: documents})
	if err != nil {
		return nil, fmt.Errorf("marshal rerank request: %w", err)
	}

	var parsed rerankResponse
	err = c.retry.Do(ctx, func(ctx context.Context) error {
		req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
		if reqErr != nil {
			return fmt.Errorf("build rerank request: %w", reqErr)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, doErr := c.http.Do(req)
		if doErr != nil {
			return fmt.Errorf("rerank request: %w", doErr)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return &statusError{code: resp.StatusCode, body: string(payload)}
		}

		if decErr := json.NewDecoder(resp.Body).Decode(&parsed); decErr != nil {
			return fmt.Errorf("decode rerank response: %w", decErr)
		}
		return nil
	}, isRetryable)
	if err != nil {
		return nil, err
	}

	scores := make([]float64, len(documents))
	for _, r := range parsed.Results {
		if r.Index >= 0 && r.Index < len(scores) {
			scores[r.Index] = r.Score
		}
	}

	c.logger.Debug("Rerank scoring completed",
		zap.String("model", c.model),
		zap.Int("documents", len(documents)),
	)
	return scores, nil
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("rerank service returned %d: %s", e.code, e.body)
}

func isRetryable(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.code >= 500 || se.code == http.StatusTooManyRequests
	}
	// Transport-level failures (connection reset, timeout) are worth one retry.
	return true
}
