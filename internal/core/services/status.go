package services

import (
	"context"
	"fmt"

	"github.com/civicdocs/planrag/internal/core/ports/driven"
	"github.com/civicdocs/planrag/internal/core/ports/driving"
	"github.com/civicdocs/planrag/internal/logger"
)

// Ensure StatusCheckService implements the interface.
var _ driving.StatusService = (*StatusCheckService)(nil)

// StatusCheckService reports store contents and service reachability.
type StatusCheckService struct {
	store    driven.VectorStore
	embedder driven.EmbeddingService
	llm      driven.LLMService
}

// NewStatusCheckService creates a status service.
func NewStatusCheckService(
	store driven.VectorStore,
	embedder driven.EmbeddingService,
	llm driven.LLMService,
) *StatusCheckService {
	return &StatusCheckService{
		store:    store,
		embedder: embedder,
		llm:      llm,
	}
}

// Check returns row counts and service health. Store failures are
// errors; unreachable embedding or generation services are reported in
// the result, not as errors.
func (s *StatusCheckService) Check(ctx context.Context) (driving.Status, error) {
	counts, err := s.store.RowCounts(ctx)
	if err != nil {
		return driving.Status{}, fmt.Errorf("row counts: %w", err)
	}

	status := driving.Status{
		Counts:          counts,
		EmbeddingModel:  s.embedder.ModelName(),
		GenerationModel: s.llm.ModelName(),
	}

	if err := s.embedder.Ping(ctx); err != nil {
		logger.Debug("Embedding ping failed: %v", err)
	} else {
		status.EmbeddingOK = true
	}

	if err := s.llm.Ping(ctx); err != nil {
		logger.Debug("Generation ping failed: %v", err)
	} else {
		status.GenerationOK = true
	}

	return status, nil
}
