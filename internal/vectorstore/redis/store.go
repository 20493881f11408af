// Package redis implements the managed vector store backend over a
// RediSearch-capable Redis or Valkey server via rueidis: HNSW cosine index
// on HASH keys, KNN search through FT.SEARCH.
package redis

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/redis/rueidis"
	"go.uber.org/zap"

	"github.com/shoptalk-ai/shoptalk/internal/domain"
	"github.com/shoptalk-ai/shoptalk/internal/vectorstore"
)

// Compile-time check: Store implements vectorstore.Store.
var _ vectorstore.Store = (*Store)(nil)

const (
	vectorField = "vector"
	// RediSearch reports KNN distance as __{field}_score.
	distanceField = "__vector_score"
)

// metaFields are the hash fields returned by Query, in RETURN order.
var metaFields = []string{
	domain.MetaTitle, domain.MetaURL, domain.MetaPrice, domain.MetaColor,
	domain.MetaBrand, domain.MetaGender, domain.MetaCategory, domain.MetaText,
}

// Config holds connection parameters for a Redis store.
type Config struct {
	Addrs      []string
	Username   string
	Password   string
	KeyPrefix  string
	Dimensions int
	Driver     string // "redis" or "valkey", diagnostics only
	Logger     *zap.Logger
}

// Store implements vectorstore.Store via rueidis.
type Store struct {
	client    rueidis.Client
	keyPrefix string
	dim       int
	driver    string
	logger    *zap.Logger
}

// NewStore creates a Redis-backed vector store.
func NewStore(cfg Config) (*Store, error) {
	if len(cfg.Addrs) == 0 {
		return nil, fmt.Errorf("addrs is required")
	}
	if cfg.Dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive, got %d", cfg.Dimensions)
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  cfg.Addrs,
		Username:     cfg.Username,
		Password:     cfg.Password,
		DisableCache: true,
		AlwaysRESP2:  true, // FT.SEARCH result parsing expects RESP2 array format
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	driver := cfg.Driver
	if driver == "" {
		driver = "redis"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Store{
		client:    client,
		keyPrefix: cfg.KeyPrefix,
		dim:       cfg.Dimensions,
		driver:    driver,
		logger:    logger,
	}, nil
}

func (s *Store) indexName() string { return s.keyPrefix + "products:idx" }
func (s *Store) docPrefix() string { return s.keyPrefix + "products:" }
func (s *Store) docKey(id string) string {
	return s.docPrefix() + id
}

// EnsureIndex creates the HNSW cosine index if it does not exist yet.
func (s *Store) EnsureIndex(ctx context.Context) error {
	cmd := s.client.B().Arbitrary("FT.CREATE").Args(
		s.indexName(), "ON", "HASH",
		"PREFIX", "1", s.docPrefix(),
		"SCHEMA",
		vectorField, "VECTOR", "HNSW", "10",
		"TYPE", "FLOAT32",
		"DIM", strconv.Itoa(s.dim),
		"DISTANCE_METRIC", "COSINE",
		"M", "32",
		"EF_CONSTRUCTION", "400",
	).Build()

	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		if isRedisErr(err, "index already exists") {
			return nil
		}
		return fmt.Errorf("FT.CREATE: %w", err)
	}
	return nil
}

// Query runs a KNN search via FT.SEARCH, ordered by ascending distance.
func (s *Store) Query(ctx context.Context, vector []float32, topN int) ([]domain.Candidate, error) {
	if len(vector) != s.dim {
		return nil, fmt.Errorf("query vector dimension %d, want %d", len(vector), s.dim)
	}
	if topN <= 0 {
		return nil, nil
	}

	q := vectorstore.Normalize(vector)

	args := []string{
		s.indexName(),
		fmt.Sprintf("*=>[KNN %d @%s $BLOB]", topN, vectorField),
		"RETURN", strconv.Itoa(len(metaFields) + 1),
	}
	args = append(args, metaFields...)
	args = append(args, distanceField,
		"SORTBY", distanceField,
		"LIMIT", "0", strconv.Itoa(topN),
		"PARAMS", "2", "BLOB", vectorToBytes(q),
		"DIALECT", "2",
	)

	cmd := s.client.B().Arbitrary("FT.SEARCH").Args(args...).Build()
	raw, err := s.client.Do(ctx, cmd).ToArray()
	if err != nil {
		return nil, fmt.Errorf("FT.SEARCH: %w: %v", domain.ErrStoreUnavailable, err)
	}

	return s.parseKNNResult(raw)
}

// Upsert stores documents as hashes with a binary vector field, pipelined.
func (s *Store) Upsert(ctx context.Context, docs []vectorstore.Document) error {
	if len(docs) == 0 {
		return nil
	}

	cmds := make([]rueidis.Completed, 0, len(docs))
	for _, d := range docs {
		if d.ID == "" {
			return fmt.Errorf("document id is required")
		}
		if len(d.Vector) != s.dim {
			return fmt.Errorf("document %s: vector dimension %d, want %d", d.ID, len(d.Vector), s.dim)
		}

		cmd := s.client.B().Hset().Key(s.docKey(d.ID)).FieldValue()
		for k, v := range d.Metadata {
			cmd = cmd.FieldValue(k, v)
		}
		cmd = cmd.FieldValue(vectorField, vectorToBytes(vectorstore.Normalize(d.Vector)))
		cmds = append(cmds, cmd.Build())
	}

	for i, res := range s.client.DoMulti(ctx, cmds...) {
		if err := res.Error(); err != nil {
			return fmt.Errorf("HSET %s: %w", docs[i].ID, err)
		}
	}
	return nil
}

// Count returns the indexed document count via FT.SEARCH with LIMIT 0 0.
func (s *Store) Count(ctx context.Context) (int64, error) {
	cmd := s.client.B().Arbitrary("FT.SEARCH").Args(s.indexName(), "*", "LIMIT", "0", "0").Build()
	raw, err := s.client.Do(ctx, cmd).ToArray()
	if err != nil {
		return 0, fmt.Errorf("FT.SEARCH count: %w", err)
	}
	if len(raw) == 0 {
		return 0, nil
	}
	total, err := raw[0].AsInt64()
	if err != nil {
		return 0, fmt.Errorf("parse count: %w", err)
	}
	return total, nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	cmd := s.client.B().Ping().Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// WaitForReady polls Ping until the store responds or timeout expires.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for store: %w", ctx.Err())
		case <-ticker.C:
			if err := s.Ping(ctx); err == nil {
				return nil
			}
		}
	}
}

// Driver returns the configured backend name.
func (s *Store) Driver() string { return s.driver }

// Close shuts down the client.
func (s *Store) Close() {
	s.client.Close()
}

// parseKNNResult converts the RESP2 FT.SEARCH reply into candidates.
// Layout: [total, key1, fields1, key2, fields2, ...].
func (s *Store) parseKNNResult(raw []rueidis.RedisMessage) ([]domain.Candidate, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}
	if total == 0 {
		return nil, nil
	}

	prefix := s.docPrefix()
	candidates := make([]domain.Candidate, 0, total)

	for i := 1; i+1 < len(raw); i += 2 {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}
		fieldsArr, err := raw[i+1].ToArray()
		if err != nil {
			continue
		}

		fields := parseFieldPairs(fieldsArr)

		var distance float64
		if distStr, ok := fields[distanceField]; ok {
			if d, err := strconv.ParseFloat(distStr, 64); err == nil {
				distance = d
			}
			delete(fields, distanceField)
		}

		candidates = append(candidates, domain.Candidate{
			ID:       strings.TrimPrefix(key, prefix),
			Metadata: fields,
			Distance: distance,
		})
	}

	return candidates, nil
}

func parseFieldPairs(arr []rueidis.RedisMessage) map[string]string {
	fields := make(map[string]string, len(arr)/2)
	for i := 0; i+1 < len(arr); i += 2 {
		k, err := arr[i].ToString()
		if err != nil {
			continue
		}
		v, err := arr[i+1].ToString()
		if err != nil {
			continue
		}
		fields[k] = v
	}
	return fields
}

// vectorToBytes serializes a []float32 to little-endian binary for FT.SEARCH.
func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}

// isRedisErr checks if err is a Redis server error containing substr (case-insensitive).
func isRedisErr(err error, substr string) bool {
	re, ok := rueidis.IsRedisErr(err)
	if !ok {
		return false
	}
	return strings.Contains(strings.ToLower(re.Error()), strings.ToLower(substr))
}
