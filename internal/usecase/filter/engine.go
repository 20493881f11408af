// Package filter applies structured and fallback (full-text) constraints to
// a candidate set. Matching is deliberately loose: retrieval has already
// narrowed the pool semantically, so the predicates only need to catch
// near-misses, not enforce exact taxonomy alignment. No synonym tables, no
// shade normalization.
package filter

import (
	"strings"

	"github.com/shoptalk-ai/shoptalk/internal/domain"
)

// Apply returns the order-preserving subset of candidates passing every
// constraint. The input slice is never mutated.
func Apply(candidates []domain.Candidate, filters domain.ParsedFilters) []domain.Candidate {
	out := make([]domain.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if matches(c, filters) {
			out = append(out, c)
		}
	}
	return out
}

func matches(c domain.Candidate, f domain.ParsedFilters) bool {
	// A candidate with no metadata has nothing to match or display.
	if len(c.Metadata) == 0 {
		return false
	}

	blob := fold(c.Blob())

	return passesPrice(c, f.PriceMax) &&
		passesCategory(c, f.Category, blob) &&
		passesAttribute(c, domain.MetaColor, f.Color, blob) &&
		passesAttribute(c, domain.MetaBrand, f.Brand, blob) &&
		passesAttribute(c, domain.MetaGender, f.Gender, blob) &&
		passesMustHave(f.MustHave, blob)
	// f.Exclude is carried in the data model but not enforced here.
}

// passesPrice: no ceiling, or no parseable price on the candidate, or within
// the ceiling. An unparseable price means "no constraint available", not
// failure.
func passesPrice(c domain.Candidate, priceMax *float64) bool {
	if priceMax == nil {
		return true
	}
	price, ok := c.Price()
	if !ok {
		return true
	}
	return price <= *priceMax
}

// passesCategory: exact case-insensitive match, substring either way, or the
// filter category appearing in the candidate's text blob.
func passesCategory(c domain.Candidate, category, blob string) bool {
	want := fold(category)
	if want == "" {
		return true
	}
	have := fold(c.Field(domain.MetaCategory))
	if have != "" {
		if have == want || strings.Contains(have, want) || strings.Contains(want, have) {
			return true
		}
	}
	return strings.Contains(blob, want)
}

// passesAttribute: filter value as substring of the structured field, or
// appearing in the text blob.
func passesAttribute(c domain.Candidate, key, value, blob string) bool {
	want := fold(value)
	if want == "" {
		return true
	}
	if have := fold(c.Field(key)); have != "" && strings.Contains(have, want) {
		return true
	}
	return strings.Contains(blob, want)
}

// passesMustHave: every token must appear in the blob. Empty always passes.
func passesMustHave(tokens []string, blob string) bool {
	for _, token := range tokens {
		want := fold(token)
		if want == "" {
			continue
		}
		if !strings.Contains(blob, want) {
			return false
		}
	}
	return true
}

func fold(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
