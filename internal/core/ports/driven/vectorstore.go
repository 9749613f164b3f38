package driven

import (
	"context"

	"github.com/civicdocs/planrag/internal/core/domain"
)

// VectorStore persists documents, chunks and embeddings, and executes
// nearest-neighbour similarity queries.
//
// All embeddings in one store instance share a single dimension, fixed
// at store-creation time. All writes happen during ingestion; the query
// path never mutates store state, so concurrent queries are safe.
type VectorStore interface {
	// SetupSchema creates storage structures if absent. Idempotent;
	// safe to invoke multiple times.
	SetupSchema(ctx context.Context) error

	// StoreDocument stores document metadata and returns its ID.
	StoreDocument(ctx context.Context, title, source string, docType domain.DocumentType) (int64, error)

	// StoreChunks batch-inserts passages and their embeddings for a
	// document in a single transaction. Every embedding must match the
	// store's fixed dimension or the whole call fails with
	// domain.ErrDimensionMismatch and nothing is written.
	StoreChunks(ctx context.Context, documentID int64, passages []domain.Passage, embeddings [][]float32) error

	// QuerySimilar returns at most k results ordered by non-increasing
	// similarity. The metric is cosine distance; similarity is the
	// fixed mapping 1 - distance, clamped to [0,1]. Chunks without an
	// embedding are excluded. Ties are broken by insertion order,
	// earliest first. An empty store returns an empty slice, never an
	// error.
	QuerySimilar(ctx context.Context, vector []float32, k int) ([]domain.QueryResult, error)

	// DeleteDocument removes one document and, by cascade, its chunks.
	// Returns domain.ErrNotFound for an unknown ID.
	DeleteDocument(ctx context.Context, id int64) error

	// DeleteBySource removes any document (and, by cascade, its
	// chunks) previously ingested from the given source locator.
	DeleteBySource(ctx context.Context, source string) error

	// RowCounts reports document/chunk/embedding counts for health
	// checks.
	RowCounts(ctx context.Context) (domain.RowCounts, error)

	// Dimensions returns the store's fixed embedding dimension.
	Dimensions() int

	// Reset drops and recreates all storage structures.
	Reset(ctx context.Context) error

	// Close releases resources.
	Close() error
}
