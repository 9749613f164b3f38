package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicdocs/planrag/internal/core/domain"
)

func newReadyStore(t *testing.T, dims int) *Store {
	t.Helper()
	s := NewStore(dims)
	require.NoError(t, s.SetupSchema(context.Background()))
	return s
}

func storePassages(t *testing.T, s *Store, source string, contents []string, embeddings [][]float32) int64 {
	t.Helper()
	ctx := context.Background()

	docID, err := s.StoreDocument(ctx, "Doc "+source, source, domain.DocumentTypePlanning)
	require.NoError(t, err)

	passages := make([]domain.Passage, len(contents))
	for i, c := range contents {
		passages[i] = domain.Passage{Content: c, Meta: domain.PassageMeta{Page: i + 1}}
	}
	require.NoError(t, s.StoreChunks(ctx, docID, passages, embeddings))
	return docID
}

func TestStoreDocument_RequiresSchema(t *testing.T) {
	s := NewStore(3)

	_, err := s.StoreDocument(context.Background(), "t", "s", domain.DocumentTypePlanning)
	assert.ErrorIs(t, err, domain.ErrSchemaMissing)
}

func TestStoreChunks_LengthMismatch(t *testing.T) {
	s := newReadyStore(t, 3)
	docID, err := s.StoreDocument(context.Background(), "t", "s", domain.DocumentTypePlanning)
	require.NoError(t, err)

	err = s.StoreChunks(context.Background(), docID,
		[]domain.Passage{{Content: "a"}, {Content: "b"}},
		[][]float32{{1, 0, 0}},
	)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestStoreChunks_DimensionMismatchIsAtomic(t *testing.T) {
	s := newReadyStore(t, 3)
	docID, err := s.StoreDocument(context.Background(), "t", "s", domain.DocumentTypePlanning)
	require.NoError(t, err)

	err = s.StoreChunks(context.Background(), docID,
		[]domain.Passage{{Content: "ok"}, {Content: "bad"}},
		[][]float32{{1, 0, 0}, {1, 0}},
	)
	require.ErrorIs(t, err, domain.ErrDimensionMismatch)

	// Nothing was inserted, not even the valid chunk.
	counts, err := s.RowCounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), counts.ChunkCount)
}

func TestStoreChunks_UnknownDocument(t *testing.T) {
	s := newReadyStore(t, 3)

	err := s.StoreChunks(context.Background(), 42,
		[]domain.Passage{{Content: "a"}},
		[][]float32{{1, 0, 0}},
	)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestQuerySimilar_OrdersBySimilarity(t *testing.T) {
	s := newReadyStore(t, 3)
	storePassages(t, s, "plan.txt",
		[]string{"orthogonal", "identical", "close"},
		[][]float32{{0, 1, 0}, {1, 0, 0}, {0.9, 0.1, 0}},
	)

	results, err := s.QuerySimilar(context.Background(), []float32{1, 0, 0}, 3)
	require.NoError(t, err)

	require.Len(t, results, 3)
	assert.Equal(t, "identical", results[0].Content)
	assert.InDelta(t, 1.0, results[0].Similarity, 1e-9)
	assert.Equal(t, "close", results[1].Content)
	assert.Equal(t, "orthogonal", results[2].Content)
	assert.InDelta(t, 0.0, results[2].Similarity, 1e-9)
}

func TestQuerySimilar_TieBreaksByInsertionOrder(t *testing.T) {
	s := newReadyStore(t, 2)
	storePassages(t, s, "a.txt",
		[]string{"first", "second", "third"},
		[][]float32{{1, 0}, {1, 0}, {1, 0}},
	)

	results, err := s.QuerySimilar(context.Background(), []float32{1, 0}, 3)
	require.NoError(t, err)

	require.Len(t, results, 3)
	assert.Equal(t, "first", results[0].Content)
	assert.Equal(t, "second", results[1].Content)
	assert.Equal(t, "third", results[2].Content)
}

func TestQuerySimilar_SkipsUnembeddedChunks(t *testing.T) {
	s := newReadyStore(t, 2)
	storePassages(t, s, "a.txt",
		[]string{"embedded", "pending"},
		[][]float32{{1, 0}, nil},
	)

	results, err := s.QuerySimilar(context.Background(), []float32{1, 0}, 10)
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, "embedded", results[0].Content)
}

func TestQuerySimilar_QueryDimensionMismatch(t *testing.T) {
	s := newReadyStore(t, 3)

	_, err := s.QuerySimilar(context.Background(), []float32{1, 0}, 5)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestQuerySimilar_NonPositiveK(t *testing.T) {
	s := newReadyStore(t, 2)
	storePassages(t, s, "a.txt", []string{"x"}, [][]float32{{1, 0}})

	results, err := s.QuerySimilar(context.Background(), []float32{1, 0}, 0)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestDeleteDocument(t *testing.T) {
	s := newReadyStore(t, 2)
	ctx := context.Background()

	docID, err := s.StoreDocument(ctx, "t", "doc.txt", domain.DocumentTypePlanning)
	require.NoError(t, err)
	require.NoError(t, s.StoreChunks(ctx, docID,
		[]domain.Passage{{Content: "x"}}, [][]float32{{1, 0}}))

	require.NoError(t, s.DeleteDocument(ctx, docID))

	counts, err := s.RowCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), counts.DocumentCount)
	assert.Equal(t, int64(0), counts.ChunkCount)

	assert.ErrorIs(t, s.DeleteDocument(ctx, docID), domain.ErrNotFound)
}

func TestDeleteBySource(t *testing.T) {
	s := newReadyStore(t, 2)
	ctx := context.Background()
	storePassages(t, s, "keep.txt", []string{"kept"}, [][]float32{{1, 0}})
	storePassages(t, s, "drop.txt", []string{"dropped"}, [][]float32{{1, 0}})

	require.NoError(t, s.DeleteBySource(ctx, "drop.txt"))

	counts, err := s.RowCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts.DocumentCount)
	assert.Equal(t, int64(1), counts.ChunkCount)

	results, err := s.QuerySimilar(ctx, []float32{1, 0}, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "kept", results[0].Content)
}

func TestRowCounts(t *testing.T) {
	s := newReadyStore(t, 2)
	storePassages(t, s, "a.txt",
		[]string{"one", "two", "three"},
		[][]float32{{1, 0}, nil, {0, 1}},
	)

	counts, err := s.RowCounts(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(1), counts.DocumentCount)
	assert.Equal(t, int64(3), counts.ChunkCount)
	assert.Equal(t, int64(2), counts.ChunksWithEmbedding)
}

func TestReset(t *testing.T) {
	s := newReadyStore(t, 2)
	storePassages(t, s, "a.txt", []string{"x"}, [][]float32{{1, 0}})

	require.NoError(t, s.Reset(context.Background()))

	counts, err := s.RowCounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), counts.DocumentCount)
	assert.Equal(t, int64(0), counts.ChunkCount)
}
