// Package catalog loads product records from a JSON-lines file and indexes
// them into the vector store. This is the startup seeding path for the
// embedded memory backend; external backends are normally populated out of
// band and keep their data across restarts.
package catalog

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/shoptalk-ai/shoptalk/internal/domain"
	"github.com/shoptalk-ai/shoptalk/internal/vectorstore"
)

// indexBatchSize bounds memory per Upsert call during seeding.
const indexBatchSize = 64

// Product is one catalog record as stored on disk.
type Product struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	URL      string `json:"url"`
	Price    string `json:"price"`
	Color    string `json:"color"`
	Brand    string `json:"brand"`
	Gender   string `json:"gender"`
	Category string `json:"category"`
	Text     string `json:"text"`
}

// Load reads products from a JSON-lines file. Blank lines are skipped;
// records without an id or title are rejected.
func Load(path string) ([]Product, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()

	var products []Product
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var p Product
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("catalog line %d: %w", line, err)
		}
		if p.ID == "" || p.Title == "" {
			return nil, fmt.Errorf("catalog line %d: id and title are required", line)
		}
		products = append(products, p)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return products, nil
}

// Index embeds every product and upserts it into the store in batches.
// embedder must carry the document instruction prefix.
func Index(ctx context.Context, store vectorstore.Store, embedder domain.Embedder, products []Product, logger *zap.Logger) error {
	batch := make([]vectorstore.Document, 0, indexBatchSize)
	for _, p := range products {
		result, err := embedder.Embed(ctx, p.blob())
		if err != nil {
			return fmt.Errorf("embed product %s: %w", p.ID, err)
		}
		batch = append(batch, vectorstore.Document{
			ID:       p.ID,
			Vector:   result.Embedding,
			Metadata: p.metadata(),
		})
		if len(batch) == indexBatchSize {
			if err := store.Upsert(ctx, batch); err != nil {
				return fmt.Errorf("upsert batch: %w", err)
			}
			batch = batch[:0]
		}
	}
	if len(batch) > 0 {
		if err := store.Upsert(ctx, batch); err != nil {
			return fmt.Errorf("upsert batch: %w", err)
		}
	}

	logger.Info("Catalog indexed", zap.Int("products", len(products)))
	return nil
}

func (p Product) blob() string {
	if p.Text == "" {
		return p.Title
	}
	return p.Title + " " + p.Text
}

// metadata keeps only non-empty fields so filter predicates can tell
// "absent" from "empty".
func (p Product) metadata() map[string]string {
	meta := make(map[string]string, 8)
	put := func(key, value string) {
		if value != "" {
			meta[key] = value
		}
	}
	put(domain.MetaTitle, p.Title)
	put(domain.MetaURL, p.URL)
	put(domain.MetaPrice, p.Price)
	put(domain.MetaColor, p.Color)
	put(domain.MetaBrand, p.Brand)
	put(domain.MetaGender, p.Gender)
	put(domain.MetaCategory, p.Category)
	put(domain.MetaText, p.Text)
	return meta
}
