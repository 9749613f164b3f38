// Package file loads pipeline configuration from a TOML file.
//
// Configuration lives at ~/.planrag/config.toml by default. Secrets
// (API keys) are never stored in the file; they come from the
// environment.
package file

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Default configuration values.
const (
	DefaultConfigDir  = ".planrag"
	DefaultConfigFile = "config.toml"

	DefaultEmbeddingProvider = "openai"
	DefaultEmbeddingModel    = "text-embedding-3-small"
	DefaultDimensions        = 1536
	DefaultEmbedTimeout      = 60 * time.Second
	DefaultEmbedWorkers      = 8

	DefaultLLMProvider = "openai"
	DefaultLLMModel    = "gpt-4o-mini"
	DefaultLLMTimeout  = 120 * time.Second
	DefaultMaxTokens   = 1024

	DefaultMinSimilarity   = 0.3
	DefaultTopK            = 5
	DefaultMaxContextChars = 4000

	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 100

	DefaultIngestParallelism = 4
)

// Config is the full pipeline configuration.
type Config struct {
	// DataDir is where the vector store and metrics live
	// (default: ~/.planrag/data).
	DataDir string `toml:"data_dir"`

	Embedding EmbeddingConfig `toml:"embedding"`
	LLM       LLMConfig       `toml:"llm"`
	Retrieval RetrievalConfig `toml:"retrieval"`
	Chunker   ChunkerConfig   `toml:"chunker"`
	Ingest    IngestConfig    `toml:"ingest"`
	Metrics   MetricsConfig   `toml:"metrics"`
}

// EmbeddingConfig configures the embedding service.
type EmbeddingConfig struct {
	// Provider selects the adapter: "openai" or "ollama".
	Provider string `toml:"provider"`

	// Model is the embedding model name.
	Model string `toml:"model"`

	// BaseURL overrides the provider's API base URL.
	BaseURL string `toml:"base_url"`

	// Dimensions is the embedding vector size. Must match the store.
	Dimensions int `toml:"dimensions"`

	// TimeoutSeconds is the per-request timeout.
	TimeoutSeconds int `toml:"timeout_seconds"`

	// Workers bounds concurrent embedding requests.
	Workers int `toml:"workers"`
}

// LLMConfig configures the generation service.
type LLMConfig struct {
	// Provider selects the adapter: "openai" or "anthropic".
	Provider string `toml:"provider"`

	// Model is the generation model name.
	Model string `toml:"model"`

	// BaseURL overrides the provider's API base URL.
	BaseURL string `toml:"base_url"`

	// TimeoutSeconds is the per-request timeout.
	TimeoutSeconds int `toml:"timeout_seconds"`

	// MaxTokens caps generated answer length.
	MaxTokens int `toml:"max_tokens"`

	// Temperature controls generation randomness.
	Temperature float64 `toml:"temperature"`
}

// RetrievalConfig configures search behaviour.
type RetrievalConfig struct {
	// MinSimilarity filters out results scoring below this value.
	MinSimilarity float64 `toml:"min_similarity"`

	// TopK is the default number of results to retrieve.
	TopK int `toml:"top_k"`

	// MaxContextChars caps the assembled context passed to the LLM.
	MaxContextChars int `toml:"max_context_chars"`
}

// ChunkerConfig configures document chunking.
type ChunkerConfig struct {
	// Size is the maximum chunk length in characters.
	Size int `toml:"size"`

	// Overlap is the number of characters shared between adjacent
	// chunks.
	Overlap int `toml:"overlap"`
}

// IngestConfig configures document ingestion.
type IngestConfig struct {
	// Parallelism bounds concurrent file loads.
	Parallelism int `toml:"parallelism"`
}

// MetricsConfig configures the metrics recorder.
type MetricsConfig struct {
	// Dir is where JSONL logs are written (default: <data_dir>/metrics).
	Dir string `toml:"dir"`

	// Disabled turns metrics recording off.
	Disabled bool `toml:"disabled"`
}

// Default returns a configuration with all defaults applied.
func Default() Config {
	cfg := Config{}
	cfg.applyDefaults()
	return cfg
}

// DefaultPath returns the default config file location.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, DefaultConfigDir, DefaultConfigFile), nil
}

// Load reads configuration from path. A missing file yields the
// defaults. An empty path means the default location.
func Load(path string) (Config, error) {
	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyDefaults()
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the configuration to path, creating parent directories.
func Save(cfg Config, path string) error {
	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}

	// Restricted permissions even without secrets
	return os.WriteFile(path, data, 0o600)
}

// Timeout returns the embedding timeout as a duration.
func (c EmbeddingConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Timeout returns the LLM timeout as a duration.
func (c LLMConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c *Config) applyDefaults() {
	if c.DataDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			c.DataDir = filepath.Join(home, DefaultConfigDir, "data")
		}
	}

	if c.Embedding.Provider == "" {
		c.Embedding.Provider = DefaultEmbeddingProvider
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = DefaultEmbeddingModel
	}
	if c.Embedding.Dimensions == 0 {
		c.Embedding.Dimensions = DefaultDimensions
	}
	if c.Embedding.TimeoutSeconds == 0 {
		c.Embedding.TimeoutSeconds = int(DefaultEmbedTimeout / time.Second)
	}
	if c.Embedding.Workers == 0 {
		c.Embedding.Workers = DefaultEmbedWorkers
	}

	if c.LLM.Provider == "" {
		c.LLM.Provider = DefaultLLMProvider
	}
	if c.LLM.Model == "" {
		c.LLM.Model = DefaultLLMModel
	}
	if c.LLM.TimeoutSeconds == 0 {
		c.LLM.TimeoutSeconds = int(DefaultLLMTimeout / time.Second)
	}
	if c.LLM.MaxTokens == 0 {
		c.LLM.MaxTokens = DefaultMaxTokens
	}

	if c.Retrieval.MinSimilarity == 0 {
		c.Retrieval.MinSimilarity = DefaultMinSimilarity
	}
	if c.Retrieval.TopK == 0 {
		c.Retrieval.TopK = DefaultTopK
	}
	if c.Retrieval.MaxContextChars == 0 {
		c.Retrieval.MaxContextChars = DefaultMaxContextChars
	}

	if c.Chunker.Size == 0 {
		c.Chunker.Size = DefaultChunkSize
	}
	if c.Chunker.Overlap == 0 {
		c.Chunker.Overlap = DefaultChunkOverlap
	}

	if c.Ingest.Parallelism == 0 {
		c.Ingest.Parallelism = DefaultIngestParallelism
	}

	if c.Metrics.Dir == "" && c.DataDir != "" {
		c.Metrics.Dir = filepath.Join(c.DataDir, "metrics")
	}
}

func (c *Config) validate() error {
	if c.Embedding.Dimensions < 1 {
		return fmt.Errorf("embedding.dimensions must be positive, got %d", c.Embedding.Dimensions)
	}
	if c.Chunker.Size < 1 {
		return fmt.Errorf("chunker.size must be positive, got %d", c.Chunker.Size)
	}
	if c.Chunker.Overlap < 0 {
		return fmt.Errorf("chunker.overlap must not be negative, got %d", c.Chunker.Overlap)
	}
	if c.Retrieval.MinSimilarity < 0 || c.Retrieval.MinSimilarity > 1 {
		return fmt.Errorf("retrieval.min_similarity must be in [0,1], got %v", c.Retrieval.MinSimilarity)
	}
	if c.Retrieval.TopK < 1 {
		return fmt.Errorf("retrieval.top_k must be positive, got %d", c.Retrieval.TopK)
	}
	return nil
}
