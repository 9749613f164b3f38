package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicdocs/planrag/internal/core/domain"
	"github.com/civicdocs/planrag/internal/retry"
)

func newTestService(t *testing.T, handler http.HandlerFunc) *EmbeddingService {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	svc := NewEmbeddingService(Config{
		BaseURL:    srv.URL,
		Dimensions: 2,
		Retry:      retry.Policy{MaxAttempts: 2},
	})
	t.Cleanup(func() { svc.Close() })
	return svc
}

func TestEmbed(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		var req embedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.NotEmpty(t, req.Prompt)
		_ = json.NewEncoder(w).Encode(embedResponse{Embedding: []float64{0.5, 0.25}})
	})

	vec, err := svc.Embed(context.Background(), "height limits")

	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 0.25}, vec)
}

func TestEmbed_ServiceError(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	})

	_, err := svc.Embed(context.Background(), "height limits")
	assert.ErrorIs(t, err, domain.ErrEmbeddingService)
}

func TestEmbedBatch_PerItemFailures(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		var req embedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.Prompt == "bad" {
			http.Error(w, "cannot embed", http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode(embedResponse{Embedding: []float64{1, 0}})
	})

	result, err := svc.EmbedBatch(context.Background(), []string{"good", "bad", "also good"})

	require.NoError(t, err)
	require.Len(t, result.Vectors, 3)
	assert.NotNil(t, result.Vectors[0])
	assert.Nil(t, result.Vectors[1])
	assert.NotNil(t, result.Vectors[2])

	require.Len(t, result.Failed, 1)
	assert.Equal(t, 1, result.Failed[0].Index)
	assert.ErrorIs(t, result.Failed[0].Err, domain.ErrEmbeddingService)
}

func TestDefaults(t *testing.T) {
	svc := NewEmbeddingService(Config{})
	defer svc.Close()

	assert.Equal(t, DefaultModel, svc.ModelName())
	assert.Equal(t, DefaultDimensions, svc.Dimensions())
}
