package domain

// ParsedFilters is the structured constraint set extracted from a shopping
// query. Category, color, brand and gender are free-text labels on purpose:
// the filter engine absorbs vocabulary drift via substring and blob matching,
// so no taxonomy or synonym table exists at this layer.
type ParsedFilters struct {
	Category string
	Color    string
	Brand    string
	Gender   string
	PriceMax *float64
	MustHave []string
	// Exclude is carried for data-contract compatibility; the current filter
	// predicate does not enforce it.
	Exclude []string
	// Rewrite is a search-optimized restatement of the query. Never empty:
	// it falls back to the original query text.
	Rewrite string
}

// PassThroughFilters returns the unconstrained filter set used when
// extraction fails: everything open, rewrite = original query.
func PassThroughFilters(query string) ParsedFilters {
	return ParsedFilters{Rewrite: query}
}

// WithoutCategory returns the one relaxation copy the pipeline is allowed to
// produce: category cleared, every other constraint intact.
func (f ParsedFilters) WithoutCategory() ParsedFilters {
	relaxed := f
	relaxed.Category = ""
	return relaxed
}

// Constrained reports whether any constraint field is set.
func (f ParsedFilters) Constrained() bool {
	return f.Category != "" || f.Color != "" || f.Brand != "" || f.Gender != "" ||
		f.PriceMax != nil || len(f.MustHave) > 0
}
