package domain

// Answer is the final bundle for one retrieval request: the prose summary,
// the effective rewritten query, the filters that were applied, and the
// surfaced candidates (at most K, in final order).
type Answer struct {
	Summary string
	Rewrite string
	Filters ParsedFilters
	Results []Candidate
	// DegradedParse is set when the extractor failed and pass-through
	// filters were substituted.
	DegradedParse bool
}
