package driving

import (
	"context"

	"github.com/civicdocs/planrag/internal/core/domain"
)

// StatusService reports store and service health for diagnostics.
type StatusService interface {
	// Check returns row counts and service reachability. Store
	// connection failures surface as domain.ErrStoreUnavailable;
	// missing tables as domain.ErrSchemaMissing.
	Check(ctx context.Context) (Status, error)
}

// Status is the health-check result.
type Status struct {
	// Counts summarises store contents.
	Counts domain.RowCounts `json:"counts"`

	// EmbeddingOK reports whether the embedding service answered a
	// ping.
	EmbeddingOK bool `json:"embedding_ok"`

	// EmbeddingModel names the configured embedding model.
	EmbeddingModel string `json:"embedding_model"`

	// GenerationOK reports whether the LLM service answered a ping.
	GenerationOK bool `json:"generation_ok"`

	// GenerationModel names the configured generation model.
	GenerationModel string `json:"generation_model"`
}
