package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/civicdocs/planrag/internal/core/domain"
	"github.com/civicdocs/planrag/internal/core/ports/driven"
	"github.com/civicdocs/planrag/internal/core/ports/driving"
	"github.com/civicdocs/planrag/internal/logger"
)

// Ensure RetrieverService implements the interface.
var _ driving.Retriever = (*RetrieverService)(nil)

// DefaultMinSimilarity filters out weakly related chunks.
const DefaultMinSimilarity = 0.3

// RetrieverService embeds queries and searches the vector store.
type RetrieverService struct {
	embedder      driven.EmbeddingService
	store         driven.VectorStore
	minSimilarity float64
}

// NewRetrieverService creates a retriever. minSimilarity values outside
// (0,1] fall back to the default.
func NewRetrieverService(
	embedder driven.EmbeddingService,
	store driven.VectorStore,
	minSimilarity float64,
) *RetrieverService {
	if minSimilarity <= 0 || minSimilarity > 1 {
		minSimilarity = DefaultMinSimilarity
	}
	return &RetrieverService{
		embedder:      embedder,
		store:         store,
		minSimilarity: minSimilarity,
	}
}

// MinSimilarity returns the configured similarity threshold.
func (s *RetrieverService) MinSimilarity() float64 {
	return s.minSimilarity
}

// Retrieve embeds the query, searches the store and returns results at
// or above the similarity threshold, with normalised content. An empty
// result is a valid outcome, not an error.
func (s *RetrieverService) Retrieve(
	ctx context.Context, query string, k int,
) ([]domain.QueryResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []domain.QueryResult{}, nil
	}
	if k <= 0 {
		return []domain.QueryResult{}, nil
	}

	logger.Debug("Retrieve: embedding query (%d chars)", len(query))
	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	results, err := s.store.QuerySimilar(ctx, vector, k)
	if err != nil {
		return nil, fmt.Errorf("search store: %w", err)
	}
	logger.Debug("Retrieve: %d candidates before threshold %.2f", len(results), s.minSimilarity)

	filtered := make([]domain.QueryResult, 0, len(results))
	for _, r := range results {
		if r.Similarity < s.minSimilarity {
			continue
		}
		r.Content = NormalizeContent(r.Content)
		if r.Content == "" {
			continue
		}
		filtered = append(filtered, r)
	}
	logger.Debug("Retrieve: %d results after filtering", len(filtered))

	return filtered, nil
}

// NormalizeContent cleans retrieved chunk text for display and prompt
// assembly: newlines collapse to spaces, runs of whitespace shrink to
// one space, and pipe-delimited dataset rows reduce to their value
// field.
func NormalizeContent(content string) string {
	content = strings.TrimSpace(content)
	if content == "" {
		return ""
	}

	if strings.Contains(content, " | ") {
		parts := strings.Split(content, " | ")
		if len(parts) > 1 {
			content = parts[1]
		}
	}

	content = strings.Join(strings.Fields(content), " ")
	return strings.TrimSpace(content)
}
