package answer

import (
	"context"

	"github.com/shoptalk-ai/shoptalk/internal/domain"
)

type fakeParser struct {
	filters  domain.ParsedFilters
	degraded bool
	block    bool
}

func (f *fakeParser) Parse(ctx context.Context, query string) (domain.ParsedFilters, bool) {
	if f.block {
		<-ctx.Done()
		return domain.PassThroughFilters(query), true
	}
	if f.filters.Rewrite == "" {
		return domain.PassThroughFilters(query), f.degraded
	}
	return f.filters, f.degraded
}

type fakeEmbedder struct {
	vector []float32
	err    error
	texts  []string
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	f.texts = append(f.texts, text)
	if f.err != nil {
		return domain.EmbeddingResult{}, f.err
	}
	return domain.EmbeddingResult{Embedding: f.vector}, nil
}

type fakeStore struct {
	candidates []domain.Candidate
	err        error
	gotTopN    int
}

func (f *fakeStore) Query(_ context.Context, _ []float32, topN int) ([]domain.Candidate, error) {
	f.gotTopN = topN
	if f.err != nil {
		return nil, f.err
	}
	if topN < len(f.candidates) {
		return f.candidates[:topN], nil
	}
	return f.candidates, nil
}

type fakeReranker struct {
	reversed bool
	gotTopN  int
}

func (f *fakeReranker) Rerank(_ context.Context, _ string, candidates []domain.Candidate, topN int) []domain.Candidate {
	f.gotTopN = topN
	if !f.reversed {
		return candidates
	}
	if topN > len(candidates) {
		topN = len(candidates)
	}
	out := make([]domain.Candidate, topN)
	for i := 0; i < topN; i++ {
		out[i] = candidates[topN-1-i]
	}
	return out
}

type fakeSummarizer struct {
	summary string
	err     error
	gotLen  int
}

func (f *fakeSummarizer) Summarize(_ context.Context, _ string, _ domain.ParsedFilters, candidates []domain.Candidate) (string, error) {
	f.gotLen = len(candidates)
	return f.summary, f.err
}

func product(id, title, price, color, category string) domain.Candidate {
	return domain.Candidate{
		ID: id,
		Metadata: map[string]string{
			domain.MetaTitle:    title,
			domain.MetaPrice:    price,
			domain.MetaColor:    color,
			domain.MetaCategory: category,
		},
		Distance: 0.2,
	}
}
