package config

import (
	"maps"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kailas-cloud/drugqa/internal/domain"
)

func validConfig() Config {
	cfg := Config{
		HTTP:    HTTPConfig{Port: 8080},
		Storage: StorageConfig{Backend: BackendMemory},
		Embedding: EmbeddingConfig{
			Providers: map[string]ProviderConfig{"openai": {APIKey: "k"}},
			Vectorizers: map[string]VectorizerConfig{
				"small": {Provider: "openai", Model: "text-embedding-3-small", Dimensions: 1536},
			},
			Vectorizer: "small",
		},
		Completion: CompletionConfig{
			Provider:        "openai",
			ClassifierModel: "gpt-4o-mini",
			SynthesisModel:  "gpt-4o",
		},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestValidate_Valid(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"port", func(c *Config) { c.HTTP.Port = 0 }, "http.port"},
		{"backend", func(c *Config) { c.Storage.Backend = "ftp" }, "storage.backend"},
		{"redis addrs", func(c *Config) { c.Storage.Backend = BackendRedis }, "storage.redis.addrs"},
		{"s3 bucket", func(c *Config) { c.Storage.Backend = BackendS3 }, "storage.s3.bucket"},
		{"vectorizer", func(c *Config) { c.Embedding.Vectorizer = "large" }, "embedding.vectorizer"},
		{"dimensions", func(c *Config) {
			v := c.Embedding.Vectorizers["small"]
			v.Dimensions = 0
			c.Embedding.Vectorizers["small"] = v
		}, "dimensions"},
		{"completion provider", func(c *Config) { c.Completion.Provider = "nebius" }, "completion.provider"},
		{"models", func(c *Config) { c.Completion.SynthesisModel = "" }, "synthesis_model"},
		{"policy", func(c *Config) { c.Pipeline.PredictionPolicy = "cheapest" }, "prediction_policy"},
		{"ratio", func(c *Config) { c.Pipeline.PriceRatios = map[string]float64{"France": 0} }, "price_ratios.France"},
		{"overlap", func(c *Config) { c.Ingest.Overlap = c.Ingest.ChunkSize }, "ingest.overlap"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error mentioning %q, got %v", tt.want, err)
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.Storage.Backend != BackendBadger {
		t.Errorf("expected Backend=badger, got %q", cfg.Storage.Backend)
	}
	if cfg.Storage.KeyPrefix != "drugqa/" {
		t.Errorf("expected KeyPrefix='drugqa/', got %q", cfg.Storage.KeyPrefix)
	}
	if cfg.Index.CacheSize != 128 {
		t.Errorf("expected CacheSize=128, got %d", cfg.Index.CacheSize)
	}
	if cfg.Pipeline.TopK != 5 || cfg.Pipeline.PredictionPolicy != "price_first" || cfg.Pipeline.HomeCountry != "Canada" {
		t.Errorf("unexpected pipeline defaults %+v", cfg.Pipeline)
	}
	if !maps.Equal(cfg.Pipeline.PriceRatios, domain.DefaultPriceRatios()) {
		t.Errorf("expected default ratios %v, got %v", domain.DefaultPriceRatios(), cfg.Pipeline.PriceRatios)
	}
	if cfg.Pipeline.PriceRatios["France"] != 0.69 {
		t.Errorf("expected France ratio 0.69, got %v", cfg.Pipeline.PriceRatios["France"])
	}
	if cfg.Ingest.ChunkSize != 1000 || cfg.Ingest.Overlap != 200 || cfg.Ingest.BatchSize != 100 {
		t.Errorf("unexpected ingest defaults %+v", cfg.Ingest)
	}
	if cfg.Prediction.Price.TimeoutSec != 20 || cfg.Prediction.Timeline.TimeoutSec != 20 {
		t.Errorf("unexpected prediction timeouts %+v", cfg.Prediction)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP:     HTTPConfig{ReadTimeoutSec: 30, WriteTimeoutSec: 60, ShutdownSec: 5},
		Storage:  StorageConfig{KeyPrefix: "custom/"},
		Index:    IndexConfig{CacheSize: 4},
		Pipeline: PipelineConfig{PriceRatios: map[string]float64{"Japan": 1.2}},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.WriteTimeoutSec != 60 {
		t.Errorf("expected WriteTimeoutSec=60, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.Storage.KeyPrefix != "custom/" {
		t.Errorf("expected KeyPrefix='custom/', got %q", cfg.Storage.KeyPrefix)
	}
	if cfg.Index.CacheSize != 4 {
		t.Errorf("expected CacheSize=4, got %d", cfg.Index.CacheSize)
	}
	if _, ok := cfg.Pipeline.PriceRatios["France"]; ok {
		t.Error("configured ratio table must replace the default one")
	}
}

func TestLoadFile_ExpandsEnv(t *testing.T) {
	t.Setenv("DRUGQA_TEST_KEY", "secret")
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yaml")
	yaml := `
http:
  port: ${DRUGQA_TEST_PORT:-9090}
storage:
  backend: memory
embedding:
  providers:
    openai:
      api_key: ${DRUGQA_TEST_KEY}
  vectorizers:
    small:
      provider: openai
      model: text-embedding-3-small
      dimensions: 1536
  vectorizer: small
completion:
  provider: openai
  classifier_model: gpt-4o-mini
  synthesis_model: gpt-4o
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTP.Port != 9090 {
		t.Errorf("expected default port 9090, got %d", cfg.HTTP.Port)
	}
	if cfg.Embedding.Providers["openai"].APIKey != "secret" {
		t.Errorf("env not expanded: %q", cfg.Embedding.Providers["openai"].APIKey)
	}
	if cfg.Vector().Dimensions != 1536 {
		t.Errorf("Vector() = %+v", cfg.Vector())
	}
}

func TestLoadFile_Missing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
