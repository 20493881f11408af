package chi

import "github.com/shoptalk-ai/shoptalk/internal/domain"

// errorResponse is the uniform error body.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// filtersDTO mirrors ParsedFilters on the wire. Absent labels are null so
// clients can distinguish "not constrained" from an empty string.
type filtersDTO struct {
	Category *string  `json:"category"`
	Color    *string  `json:"color"`
	Brand    *string  `json:"brand"`
	Gender   *string  `json:"gender"`
	PriceMax *float64 `json:"price_max"`
	MustHave []string `json:"must_have"`
	Exclude  []string `json:"exclude"`
	Rewrite  string   `json:"rewrite"`
}

// resultDTO is one surfaced product.
type resultDTO struct {
	ID       string            `json:"id"`
	Score    float64           `json:"score"`
	Metadata map[string]string `json:"metadata"`
}

// answerResponse is the GET /answer body.
type answerResponse struct {
	Summary        string      `json:"answer"`
	RewrittenQuery string      `json:"rewritten_query"`
	Filters        filtersDTO  `json:"filters"`
	Results        []resultDTO `json:"results"`
	DegradedParse  bool        `json:"degraded_parse,omitempty"`
}

// searchResponse is the GET /search body.
type searchResponse struct {
	Items []resultDTO `json:"items"`
	Total int         `json:"total"`
}

// healthResponse is the GET /health body.
type healthResponse struct {
	Status        string            `json:"status"`
	Checks        map[string]string `json:"checks"`
	StoreDriver   string            `json:"store_driver"`
	DocumentCount int64             `json:"document_count"`
}

// debugResponse is the GET /debug body.
type debugResponse struct {
	Version          string `json:"version"`
	StoreDriver      string `json:"store_driver"`
	DocumentCount    int64  `json:"document_count"`
	SmokeQuery       string `json:"smoke_query"`
	SmokeResultCount int    `json:"smoke_result_count"`
}

func filtersToDTO(f domain.ParsedFilters) filtersDTO {
	return filtersDTO{
		Category: nullable(f.Category),
		Color:    nullable(f.Color),
		Brand:    nullable(f.Brand),
		Gender:   nullable(f.Gender),
		PriceMax: f.PriceMax,
		MustHave: emptySlice(f.MustHave),
		Exclude:  emptySlice(f.Exclude),
		Rewrite:  f.Rewrite,
	}
}

func resultsToDTO(candidates []domain.Candidate) []resultDTO {
	out := make([]resultDTO, len(candidates))
	for i, c := range candidates {
		out[i] = resultDTO{
			ID:       c.ID,
			Score:    c.Score(),
			Metadata: c.Metadata,
		}
	}
	return out
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// emptySlice keeps nil token lists rendering as [] instead of null.
func emptySlice(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
