package domain

import "strconv"

// Well-known metadata keys on a product record.
const (
	MetaTitle    = "title"
	MetaURL      = "url"
	MetaPrice    = "price"
	MetaColor    = "color"
	MetaBrand    = "brand"
	MetaGender   = "gender"
	MetaCategory = "category"
	MetaText     = "text"
)

// Candidate is a single retrieved product record: stable id, flat string
// metadata, and the raw vector-store distance (lower = more similar).
type Candidate struct {
	ID       string
	Metadata map[string]string
	Distance float64
}

// Field returns a metadata value, or "" when absent.
func (c Candidate) Field(key string) string {
	if c.Metadata == nil {
		return ""
	}
	return c.Metadata[key]
}

// Title returns the product title.
func (c Candidate) Title() string { return c.Field(MetaTitle) }

// Blob returns the descriptive text used for fallback matching and rerank
// scoring: the longer text field when present, joined with the title.
func (c Candidate) Blob() string {
	title := c.Field(MetaTitle)
	text := c.Field(MetaText)
	switch {
	case title == "":
		return text
	case text == "":
		return title
	default:
		return title + " " + text
	}
}

// Price parses the price metadata field. The second return is false when the
// field is absent or not numeric.
func (c Candidate) Price() (float64, bool) {
	raw := c.Field(MetaPrice)
	if raw == "" {
		return 0, false
	}
	p, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return p, true
}

// Score converts the distance into a display similarity: max(0, 1-distance).
// Not a probability, just a monotonic proxy clamped at zero.
func (c Candidate) Score() float64 {
	s := 1.0 - c.Distance
	if s < 0 {
		return 0
	}
	return s
}
