// Package parse turns a raw shopping query into a validated ParsedFilters.
// The service never fails past its boundary: any extractor problem degrades
// to pass-through filters with the original query as rewrite.
package parse

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/shoptalk-ai/shoptalk/internal/domain"
	"github.com/shoptalk-ai/shoptalk/internal/metrics"
)

// Service wraps the extraction collaborator with strict validation and a
// degrade-don't-fail policy.
type Service struct {
	extractor Extractor
	timeout   time.Duration
	logger    *zap.Logger
}

// New creates a parse service. timeout bounds the extraction call.
func New(extractor Extractor, timeout time.Duration, logger *zap.Logger) *Service {
	return &Service{extractor: extractor, timeout: timeout, logger: logger}
}

// Parse extracts structured filters from the query. The second return is
// true when extraction failed and pass-through filters were substituted.
func (s *Service) Parse(ctx context.Context, query string) (domain.ParsedFilters, bool) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	raw, err := s.extractor.ExtractFilters(ctx, query)
	if err != nil {
		s.degrade("extractor call failed", query, err)
		return domain.PassThroughFilters(query), true
	}

	// The payload is decoded field-by-field into raw messages so one bad
	// field cannot poison the rest; unknown keys are dropped by decoding.
	var payload struct {
		Category json.RawMessage `json:"category"`
		Color    json.RawMessage `json:"color"`
		Brand    json.RawMessage `json:"brand"`
		Gender   json.RawMessage `json:"gender"`
		PriceMax json.RawMessage `json:"price_max"`
		MustHave json.RawMessage `json:"must_have"`
		Exclude  json.RawMessage `json:"exclude"`
		Rewrite  json.RawMessage `json:"rewrite"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		s.degrade("extractor returned non-JSON", query, err)
		return domain.PassThroughFilters(query), true
	}

	filters := domain.ParsedFilters{
		Category: asLabel(payload.Category),
		Color:    asLabel(payload.Color),
		Brand:    asLabel(payload.Brand),
		Gender:   asLabel(payload.Gender),
		PriceMax: asPrice(payload.PriceMax),
		MustHave: asTokens(payload.MustHave),
		Exclude:  asTokens(payload.Exclude),
		Rewrite:  asLabel(payload.Rewrite),
	}
	if filters.Rewrite == "" {
		filters.Rewrite = query
	}
	return filters, false
}

func (s *Service) degrade(reason, query string, err error) {
	metrics.PipelineDegradedTotal.WithLabelValues("parse").Inc()
	s.logger.Warn("Query extraction degraded to pass-through",
		zap.String("reason", reason),
		zap.String("query", query),
		zap.Error(err),
	)
}

// asLabel coerces a JSON value to a trimmed string; anything else is "".
func asLabel(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

// asPrice coerces a JSON value to a non-negative price. Numbers and numeric
// strings are accepted; everything else is nil (unconstrained).
func asPrice(raw json.RawMessage) *float64 {
	if len(raw) == 0 {
		return nil
	}

	var n float64
	if err := json.Unmarshal(raw, &n); err != nil {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil
		}
		parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return nil
		}
		n = parsed
	}
	if n < 0 {
		return nil
	}
	return &n
}

// asTokens coerces a JSON value to a string slice; non-array values and
// non-string elements are dropped.
func asTokens(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	tokens := make([]string, 0, len(items))
	for _, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err != nil {
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			tokens = append(tokens, s)
		}
	}
	if len(tokens) == 0 {
		return nil
	}
	return tokens
}
