package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "config.toml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultEmbeddingProvider, cfg.Embedding.Provider)
	assert.Equal(t, DefaultDimensions, cfg.Embedding.Dimensions)
	assert.Equal(t, DefaultLLMModel, cfg.LLM.Model)
	assert.InDelta(t, DefaultMinSimilarity, cfg.Retrieval.MinSimilarity, 1e-9)
	assert.Equal(t, DefaultChunkSize, cfg.Chunker.Size)
	assert.Equal(t, DefaultChunkOverlap, cfg.Chunker.Overlap)
	assert.Equal(t, DefaultIngestParallelism, cfg.Ingest.Parallelism)
	assert.NotEmpty(t, cfg.DataDir)
	assert.Equal(t, filepath.Join(cfg.DataDir, "metrics"), cfg.Metrics.Dir)
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
data_dir = "/tmp/planrag-test"

[embedding]
provider = "ollama"
model = "nomic-embed-text"
dimensions = 768

[retrieval]
min_similarity = 0.1
top_k = 8

[chunker]
size = 500
overlap = 50
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "ollama", cfg.Embedding.Provider)
	assert.Equal(t, 768, cfg.Embedding.Dimensions)
	assert.InDelta(t, 0.1, cfg.Retrieval.MinSimilarity, 1e-9)
	assert.Equal(t, 8, cfg.Retrieval.TopK)
	assert.Equal(t, 500, cfg.Chunker.Size)
	assert.Equal(t, 50, cfg.Chunker.Overlap)

	// Untouched sections keep their defaults.
	assert.Equal(t, DefaultLLMProvider, cfg.LLM.Provider)
	assert.Equal(t, DefaultMaxContextChars, cfg.Retrieval.MaxContextChars)
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"negative dimensions", "[embedding]\ndimensions = -1\n"},
		{"similarity above one", "[retrieval]\nmin_similarity = 1.5\n"},
		{"negative overlap", "[chunker]\noverlap = -5\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o600))

			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestLoad_MalformedTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("not toml ==="), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg := Default()
	cfg.Embedding.Provider = "ollama"
	cfg.Retrieval.TopK = 7
	require.NoError(t, Save(cfg, path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "ollama", loaded.Embedding.Provider)
	assert.Equal(t, 7, loaded.Retrieval.TopK)
}
