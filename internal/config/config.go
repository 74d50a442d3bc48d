package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/drugqa/internal/domain"
)

// Config holds the drugqa service configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Auth       AuthConfig       `yaml:"auth"`
	Logging    LoggingConfig    `yaml:"logging"`
	Storage    StorageConfig    `yaml:"storage"`
	Index      IndexConfig      `yaml:"index"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Completion CompletionConfig `yaml:"completion"`
	Pipeline   PipelineConfig   `yaml:"pipeline"`
	Prediction PredictionConfig `yaml:"prediction"`
	Ingest     IngestConfig     `yaml:"ingest"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// Storage backends.
const (
	BackendMemory = "memory"
	BackendBadger = "badger"
	BackendRedis  = "redis"
	BackendS3     = "s3"
)

// StorageConfig selects the object storage holding index checkpoints.
type StorageConfig struct {
	Backend   string       `yaml:"backend"` // memory, badger, redis, s3 (default: badger)
	KeyPrefix string       `yaml:"key_prefix"`
	Badger    BadgerConfig `yaml:"badger"`
	Redis     RedisConfig  `yaml:"redis"`
	S3        S3Config     `yaml:"s3"`
}

// BadgerConfig holds embedded store settings.
type BadgerConfig struct {
	Dir      string `yaml:"dir"`
	InMemory bool   `yaml:"in_memory"`
}

// RedisConfig holds redis connection settings.
type RedisConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// S3Config holds bucket settings.
type S3Config struct {
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	UsePathStyle    bool   `yaml:"use_path_style"`
}

// IndexConfig holds per-tenant vector index settings.
type IndexConfig struct {
	CacheSize      int `yaml:"cache_size"` // tenants kept in memory
	LoadTimeoutSec int `yaml:"load_timeout_sec"`
	SaveTimeoutSec int `yaml:"save_timeout_sec"`
}

// EmbeddingConfig holds embedding settings.
type EmbeddingConfig struct {
	Providers    map[string]ProviderConfig   `yaml:"providers"`
	Vectorizers  map[string]VectorizerConfig `yaml:"vectorizers"`
	Vectorizer   string                      `yaml:"vectorizer"` // which vectorizer the index uses
	Cache        bool                        `yaml:"cache"`
	MaxBatchSize int                         `yaml:"max_batch_size"`
}

// ProviderConfig holds OpenAI-compatible provider settings.
type ProviderConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

// VectorizerConfig holds vectorizer settings.
type VectorizerConfig struct {
	Provider            string `yaml:"provider"`
	Model               string `yaml:"model"`
	Dimensions          int    `yaml:"dimensions"`
	DocumentInstruction string `yaml:"document_instruction"`
	QueryInstruction    string `yaml:"query_instruction"`
}

// CompletionConfig holds chat completion settings.
type CompletionConfig struct {
	Provider             string  `yaml:"provider"`
	ClassifierModel      string  `yaml:"classifier_model"`
	SynthesisModel       string  `yaml:"synthesis_model"`
	Temperature          float32 `yaml:"temperature"`
	MaxTokens            int     `yaml:"max_tokens"`
	ClassifierTimeoutSec int     `yaml:"classifier_timeout_sec"`
	SynthesisTimeoutSec  int     `yaml:"synthesis_timeout_sec"`
	IntentExamples       string  `yaml:"intent_examples"` // JSONL few-shot file, optional
}

// PipelineConfig holds query pipeline settings.
type PipelineConfig struct {
	TopK             int                `yaml:"top_k"`
	MinScore         float64            `yaml:"min_score"`
	TaskTimeoutSec   int                `yaml:"task_timeout_sec"`
	MaxConcurrency   int                `yaml:"max_concurrency"`
	PredictionPolicy string             `yaml:"prediction_policy"` // price_first, timeline_first
	HomeCountry      string             `yaml:"home_country"`
	PriceRatios      map[string]float64 `yaml:"price_ratios"`
}

// PredictionConfig holds the prediction model services.
type PredictionConfig struct {
	Price    ServiceConfig `yaml:"price"`
	Timeline ServiceConfig `yaml:"timeline"`
}

// ServiceConfig describes one prediction service. An empty URL disables it.
type ServiceConfig struct {
	URL                string `yaml:"url"`
	APIKey             string `yaml:"api_key"`
	TimeoutSec         int    `yaml:"timeout_sec"`
	DependsOnRetrieval bool   `yaml:"depends_on_retrieval"`
}

// IngestConfig holds document ingestion settings.
type IngestConfig struct {
	ChunkSize int `yaml:"chunk_size"` // words
	Overlap   int `yaml:"overlap"`    // words
	BatchSize int `yaml:"batch_size"`
	Workers   int `yaml:"workers"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit path.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 120
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}

	if c.Storage.Backend == "" {
		c.Storage.Backend = BackendBadger
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = "drugqa/"
	}
	if c.Storage.Badger.Dir == "" && !c.Storage.Badger.InMemory {
		c.Storage.Badger.Dir = "data/badger"
	}
	if c.Storage.Redis.ReadinessTimeout <= 0 {
		c.Storage.Redis.ReadinessTimeout = 10
	}

	if c.Index.CacheSize <= 0 {
		c.Index.CacheSize = 128
	}
	if c.Index.LoadTimeoutSec <= 0 {
		c.Index.LoadTimeoutSec = 30
	}
	if c.Index.SaveTimeoutSec <= 0 {
		c.Index.SaveTimeoutSec = 60
	}

	if c.Embedding.MaxBatchSize <= 0 {
		c.Embedding.MaxBatchSize = 100
	}

	if c.Completion.MaxTokens <= 0 {
		c.Completion.MaxTokens = 800
	}
	if c.Completion.ClassifierTimeoutSec <= 0 {
		c.Completion.ClassifierTimeoutSec = 15
	}
	if c.Completion.SynthesisTimeoutSec <= 0 {
		c.Completion.SynthesisTimeoutSec = 60
	}

	if c.Pipeline.TopK <= 0 {
		c.Pipeline.TopK = 5
	}
	if c.Pipeline.TaskTimeoutSec <= 0 {
		c.Pipeline.TaskTimeoutSec = 20
	}
	if c.Pipeline.MaxConcurrency <= 0 {
		c.Pipeline.MaxConcurrency = 8
	}
	if c.Pipeline.PredictionPolicy == "" {
		c.Pipeline.PredictionPolicy = "price_first"
	}
	if c.Pipeline.HomeCountry == "" {
		c.Pipeline.HomeCountry = domain.DefaultHomeCountry
	}
	if c.Pipeline.PriceRatios == nil {
		c.Pipeline.PriceRatios = domain.DefaultPriceRatios()
	}

	for _, s := range []*ServiceConfig{&c.Prediction.Price, &c.Prediction.Timeline} {
		if s.TimeoutSec <= 0 {
			s.TimeoutSec = 20
		}
	}

	if c.Ingest.ChunkSize <= 0 {
		c.Ingest.ChunkSize = 1000
	}
	if c.Ingest.Overlap <= 0 {
		c.Ingest.Overlap = 200
	}
	if c.Ingest.BatchSize <= 0 {
		c.Ingest.BatchSize = 100
	}
	if c.Ingest.Workers <= 0 {
		c.Ingest.Workers = 4
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}

	switch c.Storage.Backend {
	case BackendMemory, BackendBadger:
	case BackendRedis:
		if len(c.Storage.Redis.Addrs) == 0 {
			return fmt.Errorf("storage.redis.addrs is required")
		}
	case BackendS3:
		if c.Storage.S3.Bucket == "" {
			return fmt.Errorf("storage.s3.bucket is required")
		}
	default:
		return fmt.Errorf("storage.backend must be one of memory, badger, redis, s3, got %q", c.Storage.Backend)
	}

	v, ok := c.Embedding.Vectorizers[c.Embedding.Vectorizer]
	if !ok {
		return fmt.Errorf("embedding.vectorizer %q is not defined in embedding.vectorizers", c.Embedding.Vectorizer)
	}
	if v.Dimensions <= 0 {
		return fmt.Errorf("embedding.vectorizers.%s.dimensions must be positive", c.Embedding.Vectorizer)
	}
	if _, ok := c.Embedding.Providers[v.Provider]; !ok {
		return fmt.Errorf("embedding.vectorizers.%s.provider %q is not defined", c.Embedding.Vectorizer, v.Provider)
	}
	if _, ok := c.Embedding.Providers[c.Completion.Provider]; !ok {
		return fmt.Errorf("completion.provider %q is not defined in embedding.providers", c.Completion.Provider)
	}
	if c.Completion.ClassifierModel == "" || c.Completion.SynthesisModel == "" {
		return fmt.Errorf("completion.classifier_model and completion.synthesis_model are required")
	}

	switch c.Pipeline.PredictionPolicy {
	case "price_first", "timeline_first":
	default:
		return fmt.Errorf("pipeline.prediction_policy must be \"price_first\" or \"timeline_first\", got %q",
			c.Pipeline.PredictionPolicy)
	}
	for country, r := range c.Pipeline.PriceRatios {
		if r <= 0 {
			return fmt.Errorf("pipeline.price_ratios.%s must be positive, got %v", country, r)
		}
	}

	if c.Ingest.Overlap >= c.Ingest.ChunkSize {
		return fmt.Errorf("ingest.overlap (%d) must be smaller than ingest.chunk_size (%d)",
			c.Ingest.Overlap, c.Ingest.ChunkSize)
	}
	return nil
}

// Vector returns the vectorizer the index is built with.
func (c *Config) Vector() VectorizerConfig {
	return c.Embedding.Vectorizers[c.Embedding.Vectorizer]
}

// Seconds converts a *_sec setting.
func Seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
