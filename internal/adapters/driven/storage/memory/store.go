// Package memory provides an in-memory VectorStore implementation with
// the same contract as the SQLite store. It backs tests and ephemeral
// runs.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/civicdocs/planrag/internal/core/domain"
	"github.com/civicdocs/planrag/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

type chunkRow struct {
	id        int64
	docID     int64
	content   string
	page      int
	embedding []float32
}

type docRow struct {
	id     int64
	title  string
	source string
}

// Store is an in-memory vector store fixed to one embedding dimension.
type Store struct {
	mu         sync.RWMutex
	dimensions int
	ready      bool
	nextDocID  int64
	nextChunk  int64
	documents  map[int64]docRow
	chunks     []chunkRow
}

// NewStore creates an in-memory store with the given fixed dimension.
func NewStore(dimensions int) *Store {
	return &Store{
		dimensions: dimensions,
		documents:  make(map[int64]docRow),
	}
}

// SetupSchema marks the store ready. Idempotent.
func (s *Store) SetupSchema(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready = true
	return nil
}

// Dimensions returns the store's fixed embedding dimension.
func (s *Store) Dimensions() int {
	return s.dimensions
}

// StoreDocument stores document metadata and returns its ID.
func (s *Store) StoreDocument(
	_ context.Context, title, source string, _ domain.DocumentType,
) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ready {
		return 0, domain.ErrSchemaMissing
	}

	s.nextDocID++
	s.documents[s.nextDocID] = docRow{id: s.nextDocID, title: title, source: source}
	return s.nextDocID, nil
}

// StoreChunks batch-inserts passages and embeddings. Dimension
// validation happens before any insert, so a mismatch leaves the store
// unchanged.
func (s *Store) StoreChunks(
	_ context.Context, documentID int64, passages []domain.Passage, embeddings [][]float32,
) error {
	if len(passages) != len(embeddings) {
		return fmt.Errorf("%w: %d passages but %d embeddings",
			domain.ErrInvalidInput, len(passages), len(embeddings))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ready {
		return domain.ErrSchemaMissing
	}
	if _, ok := s.documents[documentID]; !ok {
		return fmt.Errorf("%w: document %d", domain.ErrNotFound, documentID)
	}

	for i, emb := range embeddings {
		if emb != nil && len(emb) != s.dimensions {
			return fmt.Errorf("%w: embedding %d has dimension %d, store requires %d",
				domain.ErrDimensionMismatch, i, len(emb), s.dimensions)
		}
	}

	for i, passage := range passages {
		s.nextChunk++
		s.chunks = append(s.chunks, chunkRow{
			id:        s.nextChunk,
			docID:     documentID,
			content:   passage.Content,
			page:      passage.Meta.Page,
			embedding: embeddings[i],
		})
	}
	return nil
}

// QuerySimilar returns at most k results ordered by non-increasing
// similarity, ties broken by insertion order.
func (s *Store) QuerySimilar(
	_ context.Context, vector []float32, k int,
) ([]domain.QueryResult, error) {
	if len(vector) != s.dimensions {
		return nil, fmt.Errorf("%w: query vector has dimension %d, store requires %d",
			domain.ErrDimensionMismatch, len(vector), s.dimensions)
	}
	if k <= 0 {
		return []domain.QueryResult{}, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	type scored struct {
		row chunkRow
		sim float64
	}

	var candidates []scored
	for _, row := range s.chunks {
		if row.embedding == nil {
			continue
		}
		candidates = append(candidates, scored{row: row, sim: cosineSimilarity(vector, row.embedding)})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].sim != candidates[j].sim {
			return candidates[i].sim > candidates[j].sim
		}
		return candidates[i].row.id < candidates[j].row.id
	})

	if k > len(candidates) {
		k = len(candidates)
	}

	results := make([]domain.QueryResult, 0, k)
	for _, c := range candidates[:k] {
		doc := s.documents[c.row.docID]
		results = append(results, domain.QueryResult{
			Content:    c.row.content,
			Title:      doc.title,
			Source:     doc.source,
			Page:       c.row.page,
			Similarity: c.sim,
		})
	}
	return results, nil
}

// DeleteDocument removes one document and its chunks.
func (s *Store) DeleteDocument(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.documents[id]; !ok {
		return fmt.Errorf("%w: document %d", domain.ErrNotFound, id)
	}
	delete(s.documents, id)

	kept := s.chunks[:0]
	for _, row := range s.chunks {
		if row.docID != id {
			kept = append(kept, row)
		}
	}
	s.chunks = kept
	return nil
}

// DeleteBySource removes documents from the given source and their
// chunks.
func (s *Store) DeleteBySource(_ context.Context, source string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, doc := range s.documents {
		if doc.source != source {
			continue
		}
		delete(s.documents, id)
		kept := s.chunks[:0]
		for _, row := range s.chunks {
			if row.docID != id {
				kept = append(kept, row)
			}
		}
		s.chunks = kept
	}
	return nil
}

// RowCounts reports document/chunk/embedding counts.
func (s *Store) RowCounts(_ context.Context) (domain.RowCounts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := domain.RowCounts{
		DocumentCount: int64(len(s.documents)),
		ChunkCount:    int64(len(s.chunks)),
	}
	for _, row := range s.chunks {
		if row.embedding != nil {
			counts.ChunksWithEmbedding++
		}
	}
	return counts, nil
}

// Reset clears all stored data.
func (s *Store) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents = make(map[int64]docRow)
	s.chunks = nil
	s.nextDocID = 0
	s.nextChunk = 0
	s.ready = true
	return nil
}

// Close releases resources.
func (s *Store) Close() error {
	return nil
}

func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if sim < 0 {
		return 0
	}
	if sim > 1 {
		return 1
	}
	return sim
}
