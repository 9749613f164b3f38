package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicdocs/planrag/internal/adapters/driven/storage/memory"
	"github.com/civicdocs/planrag/internal/core/domain"
	"github.com/civicdocs/planrag/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockEmbedder implements driven.EmbeddingService for testing.
type mockEmbedder struct {
	vectors  map[string][]float32
	fallback []float32
	embedErr error
	pingErr  error
}

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	if v, ok := m.vectors[text]; ok {
		return v, nil
	}
	return m.fallback, nil
}

func (m *mockEmbedder) EmbedBatch(ctx context.Context, texts []string) (driven.BatchResult, error) {
	result := driven.BatchResult{Vectors: make([][]float32, len(texts))}
	for i, text := range texts {
		v, err := m.Embed(ctx, text)
		if err != nil {
			result.Failed = append(result.Failed, driven.BatchFailure{Index: i, Err: err})
			continue
		}
		result.Vectors[i] = v
	}
	return result, nil
}

func (m *mockEmbedder) Dimensions() int            { return len(m.fallback) }
func (m *mockEmbedder) ModelName() string          { return "mock-embed" }
func (m *mockEmbedder) Ping(context.Context) error { return m.pingErr }
func (m *mockEmbedder) Close() error               { return nil }

// mockLLM implements driven.LLMService for testing.
type mockLLM struct {
	response    string
	generateErr error
	pingErr     error
	lastPrompt  string
}

func (m *mockLLM) Generate(_ context.Context, prompt string, _ driven.GenerateOptions) (string, error) {
	m.lastPrompt = prompt
	if m.generateErr != nil {
		return "", m.generateErr
	}
	return m.response, nil
}

func (m *mockLLM) ModelName() string          { return "mock-llm" }
func (m *mockLLM) Ping(context.Context) error { return m.pingErr }
func (m *mockLLM) Close() error               { return nil }

// mockMetrics implements driven.MetricsRecorder for testing.
type mockMetrics struct {
	queries    []domain.QueryMetrics
	errors     []error
	shortCount int
	emptyCount int
}

func (m *mockMetrics) LogQuery(_ string, metrics domain.QueryMetrics) {
	m.queries = append(m.queries, metrics)
}

func (m *mockMetrics) LogError(_ string, err error, _ time.Duration) {
	m.errors = append(m.errors, err)
}

func (m *mockMetrics) LogShortQuery(string)   { m.shortCount++ }
func (m *mockMetrics) LogEmptyResults(string) { m.emptyCount++ }

// --- Tests ---

func seedStore(t *testing.T, contents []string, embeddings [][]float32) *memory.Store {
	t.Helper()
	ctx := context.Background()

	store := memory.NewStore(len(embeddings[0]))
	require.NoError(t, store.SetupSchema(ctx))

	docID, err := store.StoreDocument(ctx, "Development Plan", "/docs/plan.pdf", domain.DocumentTypeDevelopmentPlan)
	require.NoError(t, err)

	passages := make([]domain.Passage, len(contents))
	for i, c := range contents {
		passages[i] = domain.Passage{Content: c, Meta: domain.PassageMeta{Page: i + 1}}
	}
	require.NoError(t, store.StoreChunks(ctx, docID, passages, embeddings))
	return store
}

func TestRetrieve_FiltersBelowThreshold(t *testing.T) {
	store := seedStore(t,
		[]string{"relevant chunk", "unrelated chunk"},
		[][]float32{{1, 0}, {0, 1}},
	)
	embedder := &mockEmbedder{fallback: []float32{1, 0}}

	retriever := NewRetrieverService(embedder, store, 0.5)
	results, err := retriever.Retrieve(context.Background(), "building heights", 10)

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "relevant chunk", results[0].Content)
}

func TestRetrieve_EmptyIsNotAnError(t *testing.T) {
	store := seedStore(t, []string{"unrelated"}, [][]float32{{0, 1}})
	embedder := &mockEmbedder{fallback: []float32{1, 0}}

	retriever := NewRetrieverService(embedder, store, 0.5)
	results, err := retriever.Retrieve(context.Background(), "building heights", 10)

	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRetrieve_BlankQuery(t *testing.T) {
	store := seedStore(t, []string{"x"}, [][]float32{{1, 0}})
	retriever := NewRetrieverService(&mockEmbedder{fallback: []float32{1, 0}}, store, 0.3)

	results, err := retriever.Retrieve(context.Background(), "   ", 10)

	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRetrieve_EmbeddingErrorPropagates(t *testing.T) {
	store := seedStore(t, []string{"x"}, [][]float32{{1, 0}})
	embedder := &mockEmbedder{embedErr: errors.New("service down")}

	retriever := NewRetrieverService(embedder, store, 0.3)
	_, err := retriever.Retrieve(context.Background(), "building heights", 10)

	assert.Error(t, err)
}

func TestRetrieve_NormalisesContent(t *testing.T) {
	store := seedStore(t,
		[]string{"line one\nline two   spaced"},
		[][]float32{{1, 0}},
	)
	embedder := &mockEmbedder{fallback: []float32{1, 0}}

	retriever := NewRetrieverService(embedder, store, 0.3)
	results, err := retriever.Retrieve(context.Background(), "building heights", 10)

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "line one line two spaced", results[0].Content)
}

func TestRetrieve_DefaultThreshold(t *testing.T) {
	store := seedStore(t, []string{"x"}, [][]float32{{1, 0}})

	retriever := NewRetrieverService(&mockEmbedder{fallback: []float32{1, 0}}, store, 0)
	assert.InDelta(t, DefaultMinSimilarity, retriever.MinSimilarity(), 1e-9)

	retriever = NewRetrieverService(&mockEmbedder{fallback: []float32{1, 0}}, store, 2)
	assert.InDelta(t, DefaultMinSimilarity, retriever.MinSimilarity(), 1e-9)
}

func TestNormalizeContent(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"trims whitespace", "  text  ", "text"},
		{"collapses newlines", "a\nb\n\nc", "a b c"},
		{"collapses runs of spaces", "a    b\tc", "a b c"},
		{"pipe row keeps value field", "height_limit | 24 metres | inner city", "24 metres"},
		{"no pipe untouched", "plain sentence", "plain sentence"},
		{"empty", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeContent(tt.in))
		})
	}
}
