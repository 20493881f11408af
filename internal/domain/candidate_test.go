package domain

import "testing"

func TestCandidate_Score_Clamping(t *testing.T) {
	tests := []struct {
		name     string
		distance float64
		want     float64
	}{
		{"zero distance is perfect score", 0.0, 1.0},
		{"distance above one clamps to zero", 1.5, 0.0},
		{"exactly one is zero", 1.0, 0.0},
		{"mid distance", 0.25, 0.75},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Candidate{Distance: tt.distance}
			if got := c.Score(); got != tt.want {
				t.Errorf("Score() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCandidate_Price(t *testing.T) {
	tests := []struct {
		name   string
		meta   map[string]string
		want   float64
		wantOK bool
	}{
		{"numeric price", map[string]string{MetaPrice: "99.99"}, 99.99, true},
		{"integer price", map[string]string{MetaPrice: "80"}, 80, true},
		{"non-numeric price", map[string]string{MetaPrice: "call us"}, 0, false},
		{"missing price", map[string]string{}, 0, false},
		{"nil metadata", nil, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Candidate{Metadata: tt.meta}
			got, ok := c.Price()
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("Price() = (%v, %v), want (%v, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestCandidate_Blob(t *testing.T) {
	c := Candidate{Metadata: map[string]string{
		MetaTitle: "Trail Runner X",
		MetaText:  "lightweight red running shoe",
	}}
	if got := c.Blob(); got != "Trail Runner X lightweight red running shoe" {
		t.Errorf("Blob() = %q", got)
	}

	titleOnly := Candidate{Metadata: map[string]string{MetaTitle: "Trail Runner X"}}
	if got := titleOnly.Blob(); got != "Trail Runner X" {
		t.Errorf("Blob() with title only = %q", got)
	}
}

func TestParsedFilters_WithoutCategory(t *testing.T) {
	price := 100.0
	f := ParsedFilters{
		Category: "drone",
		Color:    "red",
		PriceMax: &price,
		MustHave: []string{"camera"},
		Rewrite:  "red camera drone",
	}

	relaxed := f.WithoutCategory()
	if relaxed.Category != "" {
		t.Errorf("relaxed category = %q, want empty", relaxed.Category)
	}
	if relaxed.Color != "red" || relaxed.PriceMax != &price || len(relaxed.MustHave) != 1 {
		t.Error("relaxation must keep every other constraint intact")
	}
	if f.Category != "drone" {
		t.Error("original filters must not be mutated")
	}
}
