// Package llm is the transport for the two language-model collaborators:
// the text-extraction service that turns a shopping query into structured
// filters, and the summarization service that renders the final answer.
// Both are consumed through an OpenAI-compatible chat completions API.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/shoptalk-ai/shoptalk/internal/domain"
)

const extractSystemPrompt = "You are a shopping query parser. " +
	"Extract constraints and rewrite the query. " +
	"Return STRICT JSON with the keys: category, color, brand, gender, " +
	"price_max, must_have, exclude, rewrite."

const extractUserTemplate = `User query: %q

Guidelines:
- If no value for a field, use null (or [] for arrays).
- price_max must be numeric (e.g., 120).
- Normalize color synonyms (e.g., maroon -> red).
- 'rewrite' should be a short, search-friendly version of the query.
`

const summarySystemPrompt = "You are a concise shopping assistant. " +
	"You will receive a user query, parsed filters, and candidate products. " +
	"Only mention facts present in the candidates. Do NOT invent price, color, or availability. " +
	"Return a short recommendation with at most 3-6 items; include titles and URLs."

// maxSummaryCandidates bounds the payload sent to the summarizer.
const maxSummaryCandidates = 6

// Client calls the extraction and summarization collaborators.
type Client struct {
	client       *openai.Client
	parseModel   string
	summaryModel string
	summaryTemp  float32
	logger       *zap.Logger
}

// Config holds the collaborator settings.
type Config struct {
	APIKey             string
	BaseURL            string
	ParseModel         string
	SummaryModel       string
	SummaryTemperature float32
	Logger             *zap.Logger
}

// NewClient creates an LLM collaborator client.
func NewClient(cfg *Config) *Client {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		client:       openai.NewClientWithConfig(clientCfg),
		parseModel:   cfg.ParseModel,
		summaryModel: cfg.SummaryModel,
		summaryTemp:  cfg.SummaryTemperature,
		logger:       logger,
	}
}

// ExtractFilters asks the extraction model for structured constraints and
// returns the raw JSON payload. Validation and coercion belong to the parse
// use case; this layer only moves bytes.
func (c *Client) ExtractFilters(ctx context.Context, query string) (json.RawMessage, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.parseModel,
		Temperature: 0,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: extractSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf(extractUserTemplate, query)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("extract filters: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("extract filters: empty response")
	}
	return json.RawMessage(resp.Choices[0].Message.Content), nil
}

// summaryCandidate is the trimmed record sent to the summarizer. Internal
// fields (distance, descriptive blob) never leave the process.
type summaryCandidate struct {
	ID       string `json:"id"`
	Title    string `json:"title,omitempty"`
	URL      string `json:"url,omitempty"`
	Price    string `json:"price,omitempty"`
	Category string `json:"category,omitempty"`
	Brand    string `json:"brand,omitempty"`
	Color    string `json:"color,omitempty"`
}

// Summarize renders a short prose recommendation for the candidates.
// Returns a non-empty trimmed string or an error.
func (c *Client) Summarize(
	ctx context.Context, query string, filters domain.ParsedFilters, candidates []domain.Candidate,
) (string, error) {
	slim := make([]summaryCandidate, 0, maxSummaryCandidates)
	for _, cand := range candidates {
		if len(slim) == maxSummaryCandidates {
			break
		}
		slim = append(slim, summaryCandidate{
			ID:       cand.ID,
			Title:    cand.Field(domain.MetaTitle),
			URL:      cand.Field(domain.MetaURL),
			Price:    cand.Field(domain.MetaPrice),
			Category: cand.Field(domain.MetaCategory),
			Brand:    cand.Field(domain.MetaBrand),
			Color:    cand.Field(domain.MetaColor),
		})
	}

	filtersJSON, err := json.Marshal(filtersPayload(filters))
	if err != nil {
		return "", fmt.Errorf("marshal filters: %w", err)
	}
	candidatesJSON, err := json.Marshal(slim)
	if err != nil {
		return "", fmt.Errorf("marshal candidates: %w", err)
	}

	user := fmt.Sprintf("User query: %s\nParsed filters: %s\nCandidates (JSON list):\n%s",
		query, filtersJSON, candidatesJSON)

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.summaryModel,
		Temperature: c.summaryTemp,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: summarySystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		return "", fmt.Errorf("summarize: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("summarize: empty response")
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("summarize: blank response")
	}
	return text, nil
}

// filtersPayload renders filters for the prompt with explicit nulls, matching
// the extraction schema.
func filtersPayload(f domain.ParsedFilters) map[string]any {
	p := map[string]any{
		"category":  nil,
		"color":     nil,
		"brand":     nil,
		"gender":    nil,
		"price_max": nil,
		"must_have": f.MustHave,
		"exclude":   f.Exclude,
		"rewrite":   f.Rewrite,
	}
	if f.Category != "" {
		p["category"] = f.Category
	}
	if f.Color != "" {
		p["color"] = f.Color
	}
	if f.Brand != "" {
		p["brand"] = f.Brand
	}
	if f.Gender != "" {
		p["gender"] = f.Gender
	}
	if f.PriceMax != nil {
		p["price_max"] = *f.PriceMax
	}
	return p
}
