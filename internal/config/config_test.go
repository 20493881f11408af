package config

import (
	"os"
	"testing"
)

func validConfig() Config {
	cfg := Config{
		HTTP:      HTTPConfig{Port: 8080},
		Store:     StoreConfig{Driver: "memory"},
		Embedding: EmbeddingConfig{Model: "intfloat/e5-base-v2"},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 0

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_UnknownDriver(t *testing.T) {
	cfg := validConfig()
	cfg.Store.Driver = "chroma"

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown store driver")
	}
}

func TestValidate_RedisRequiresAddrs(t *testing.T) {
	cfg := validConfig()
	cfg.Store.Driver = "redis"
	cfg.Store.Addrs = nil

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing redis addrs")
	}

	cfg.Store.Addrs = []string{"localhost:6379"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error with addrs set: %v", err)
	}
}

func TestValidate_MemoryDriverNeedsNoAddrs(t *testing.T) {
	cfg := validConfig()
	cfg.Store.Addrs = nil

	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_MissingEmbeddingModel(t *testing.T) {
	cfg := validConfig()
	cfg.Embedding.Model = ""

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing embedding model")
	}
}

func TestValidate_DefaultKAboveMaxK(t *testing.T) {
	cfg := validConfig()
	cfg.Pipeline.DefaultK = 80
	cfg.Pipeline.MaxK = 50

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for default_k > max_k")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.Store.Driver != "memory" {
		t.Errorf("expected driver=memory, got %q", cfg.Store.Driver)
	}
	if cfg.Store.KeyPrefix != "shoptalk:" {
		t.Errorf("expected key prefix shoptalk:, got %q", cfg.Store.KeyPrefix)
	}
	if cfg.Pipeline.DefaultK != 10 {
		t.Errorf("expected DefaultK=10, got %d", cfg.Pipeline.DefaultK)
	}
	if cfg.Pipeline.MaxK != 50 {
		t.Errorf("expected MaxK=50, got %d", cfg.Pipeline.MaxK)
	}
	if cfg.Pipeline.MinPoolSize != 100 {
		t.Errorf("expected MinPoolSize=100, got %d", cfg.Pipeline.MinPoolSize)
	}
	if cfg.Pipeline.MaxRerankPool != 50 {
		t.Errorf("expected MaxRerankPool=50, got %d", cfg.Pipeline.MaxRerankPool)
	}
	if cfg.Pipeline.GlobalTimeoutSec != 60 {
		t.Errorf("expected GlobalTimeoutSec=60, got %d", cfg.Pipeline.GlobalTimeoutSec)
	}
	if cfg.LLM.ParseTimeoutSec != 10 {
		t.Errorf("expected ParseTimeoutSec=10, got %d", cfg.LLM.ParseTimeoutSec)
	}
	if cfg.LLM.SummarizeTimeoutSec != 15 {
		t.Errorf("expected SummarizeTimeoutSec=15, got %d", cfg.LLM.SummarizeTimeoutSec)
	}
}

func TestExpandEnvVars(t *testing.T) {
	os.Setenv("SHOPTALK_TEST_KEY", "sk-123")
	defer os.Unsetenv("SHOPTALK_TEST_KEY")

	got := string(expandEnvVars([]byte("api_key: ${SHOPTALK_TEST_KEY}")))
	if got != "api_key: sk-123" {
		t.Errorf("expandEnvVars = %q", got)
	}

	got = string(expandEnvVars([]byte("model: ${SHOPTALK_UNSET:-e5-base}")))
	if got != "model: e5-base" {
		t.Errorf("default expansion = %q", got)
	}

	got = string(expandEnvVars([]byte("password: ${SHOPTALK_UNSET_NO_DEFAULT}")))
	if got != "password: " {
		t.Errorf("unset expansion = %q", got)
	}
}

func TestGetEnv(t *testing.T) {
	os.Unsetenv("ENV")
	if env := GetEnv(); env != "local" {
		t.Errorf("expected local, got %q", env)
	}

	os.Setenv("ENV", "prod")
	defer os.Unsetenv("ENV")
	if env := GetEnv(); env != "prod" {
		t.Errorf("expected prod, got %q", env)
	}
}
