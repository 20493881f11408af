package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/shoptalk-ai/shoptalk/internal/domain"
	"github.com/shoptalk-ai/shoptalk/internal/vectorstore"
	"github.com/shoptalk-ai/shoptalk/internal/vectorstore/memory"
)

type stubEmbedder struct {
	texts []string
}

func (s *stubEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	s.texts = append(s.texts, text)
	return domain.EmbeddingResult{Embedding: []float32{1, 0}}, nil
}

func writeCatalog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.jsonl")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeCatalog(t, `{"id":"p1","title":"red shoes","price":"80","category":"shoes"}

{"id":"p2","title":"blue jacket","text":"waterproof shell"}
`)

	products, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("loaded %d products, want 2 (blank line skipped)", len(products))
	}
	if products[0].ID != "p1" || products[0].Price != "80" {
		t.Errorf("products[0] = %+v", products[0])
	}
}

func TestLoad_RejectsBadRecords(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing id", `{"title":"x"}`},
		{"missing title", `{"id":"p1"}`},
		{"not json", `id=p1 title=x`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeCatalog(t, tt.content)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.jsonl")); err == nil {
		t.Fatal("expected error")
	}
}

func TestIndex(t *testing.T) {
	store, err := memory.NewStore(2)
	if err != nil {
		t.Fatal(err)
	}
	embedder := &stubEmbedder{}
	products := []Product{
		{ID: "p1", Title: "red shoes", Text: "trail running", Price: "80"},
		{ID: "p2", Title: "blue jacket"},
	}

	if err := Index(context.Background(), store, embedder, products, zap.NewNop()); err != nil {
		t.Fatalf("Index() error = %v", err)
	}

	count, err := store.Count(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}
	if len(embedder.texts) != 2 || embedder.texts[0] != "red shoes trail running" {
		t.Errorf("embedded texts = %v", embedder.texts)
	}

	hits, err := store.Query(context.Background(), []float32{1, 0}, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 2 {
		t.Fatalf("hits = %d, want 2", len(hits))
	}
	if hits[0].Field(domain.MetaPrice) != "80" && hits[1].Field(domain.MetaPrice) != "80" {
		t.Error("price metadata lost during indexing")
	}
	for _, h := range hits {
		if h.ID == "p2" {
			if _, ok := h.Metadata[domain.MetaText]; ok {
				t.Error("empty fields must be omitted from metadata")
			}
		}
	}
}

var _ vectorstore.Store = (*memory.Store)(nil)
