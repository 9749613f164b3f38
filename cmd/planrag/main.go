// Command planrag ingests planning documents and answers questions
// about them from a local vector store.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	configfile "github.com/civicdocs/planrag/internal/adapters/driven/config/file"
	ollamaembed "github.com/civicdocs/planrag/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/civicdocs/planrag/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/civicdocs/planrag/internal/adapters/driven/llm/anthropic"
	openaillm "github.com/civicdocs/planrag/internal/adapters/driven/llm/openai"
	"github.com/civicdocs/planrag/internal/adapters/driven/metrics/jsonl"
	"github.com/civicdocs/planrag/internal/adapters/driven/storage/sqlite"
	"github.com/civicdocs/planrag/internal/adapters/driving/cli"
	"github.com/civicdocs/planrag/internal/chunker"
	"github.com/civicdocs/planrag/internal/core/ports/driven"
	"github.com/civicdocs/planrag/internal/core/services"
	"github.com/civicdocs/planrag/internal/loaders"
	"github.com/civicdocs/planrag/internal/loaders/csv"
	"github.com/civicdocs/planrag/internal/loaders/jsondoc"
	"github.com/civicdocs/planrag/internal/loaders/pdf"
	"github.com/civicdocs/planrag/internal/loaders/plaintext"
	"github.com/civicdocs/planrag/internal/retry"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Secrets come from the environment; .env is a convenience for
	// local development.
	_ = godotenv.Load()

	cfg, err := configfile.Load(configPath(os.Args[1:]))
	if err != nil {
		return err
	}

	store, err := sqlite.NewStore(cfg.DataDir, cfg.Embedding.Dimensions)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	err = store.SetupSchema(ctx)
	cancel()
	if err != nil {
		return err
	}

	embedder, err := buildEmbedder(cfg)
	if err != nil {
		return err
	}
	defer embedder.Close()

	llm, err := buildLLM(cfg)
	if err != nil {
		return err
	}
	defer llm.Close()

	var metrics driven.MetricsRecorder
	if cfg.Metrics.Disabled {
		metrics = jsonl.Nop{}
	} else {
		metrics, err = jsonl.NewRecorder(cfg.Metrics.Dir)
		if err != nil {
			return err
		}
	}

	registry := loaders.NewRegistry(
		pdf.New(),
		plaintext.New(),
		csv.New(),
		jsondoc.New(),
	)
	splitter := chunker.New(
		chunker.WithChunkSize(cfg.Chunker.Size),
		chunker.WithOverlap(cfg.Chunker.Overlap),
	)

	retriever := services.NewRetrieverService(embedder, store, cfg.Retrieval.MinSimilarity)
	answerer := services.NewAnswererService(retriever, llm, metrics,
		services.WithTopK(cfg.Retrieval.TopK),
		services.WithMaxContextChars(cfg.Retrieval.MaxContextChars),
		services.WithGeneration(cfg.LLM.MaxTokens, cfg.LLM.Temperature),
	)
	ingestor := services.NewIngestorService(registry, splitter, embedder, store, cfg.Ingest.Parallelism)
	status := services.NewStatusCheckService(store, embedder, llm)

	cli.SetServices(answerer, ingestor, status)
	cli.SetStore(store)
	cli.Execute(version)
	return nil
}

// configPath resolves the config file path from the --config flag or
// the PLANRAG_CONFIG environment variable. Adapters are constructed
// before cobra parses flags, so the flag is read here directly; the
// CLI registers it too so help and validation know about it.
func configPath(args []string) string {
	for i, arg := range args {
		if arg == "--config" && i+1 < len(args) {
			return args[i+1]
		}
		if v, ok := strings.CutPrefix(arg, "--config="); ok {
			return v
		}
	}
	return os.Getenv("PLANRAG_CONFIG")
}

func buildEmbedder(cfg configfile.Config) (driven.EmbeddingService, error) {
	policy := retry.Policy{
		MaxAttempts: retry.DefaultMaxAttempts,
		Backoff:     retry.ExponentialBackoff(time.Second, 30*time.Second),
	}

	switch cfg.Embedding.Provider {
	case "openai":
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:     os.Getenv("OPENAI_API_KEY"),
			BaseURL:    cfg.Embedding.BaseURL,
			Model:      cfg.Embedding.Model,
			Timeout:    cfg.Embedding.Timeout(),
			Dimensions: cfg.Embedding.Dimensions,
			Workers:    cfg.Embedding.Workers,
			Retry:      policy,
		})
	case "ollama":
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    cfg.Embedding.BaseURL,
			Model:      cfg.Embedding.Model,
			Timeout:    cfg.Embedding.Timeout(),
			Dimensions: cfg.Embedding.Dimensions,
			Workers:    cfg.Embedding.Workers,
			Retry:      policy,
		}), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Embedding.Provider)
	}
}

func buildLLM(cfg configfile.Config) (driven.LLMService, error) {
	switch cfg.LLM.Provider {
	case "openai":
		return openaillm.NewLLMService(openaillm.Config{
			APIKey:  os.Getenv("OPENAI_API_KEY"),
			BaseURL: cfg.LLM.BaseURL,
			Model:   cfg.LLM.Model,
			Timeout: cfg.LLM.Timeout(),
		})
	case "anthropic":
		return anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey:  os.Getenv("ANTHROPIC_API_KEY"),
			BaseURL: cfg.LLM.BaseURL,
			Model:   cfg.LLM.Model,
			Timeout: cfg.LLM.Timeout(),
		})
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.LLM.Provider)
	}
}
