package domain

import "time"

// DocumentType labels the kind of planning document a chunk came from.
type DocumentType string

const (
	// DocumentTypeDevelopmentPlan is a statutory development plan.
	DocumentTypeDevelopmentPlan DocumentType = "development_plan"
	// DocumentTypePlanning is a general planning document (the default).
	DocumentTypePlanning DocumentType = "planning_document"
	// DocumentTypeDataset is tabular or structured data (CSV, JSON).
	DocumentTypeDataset DocumentType = "dataset"
)

// String returns the type label.
func (t DocumentType) String() string {
	return string(t)
}

// ParseDocumentType maps a stored label back to a DocumentType.
// Unknown labels fall back to DocumentTypePlanning.
func ParseDocumentType(s string) DocumentType {
	switch DocumentType(s) {
	case DocumentTypeDevelopmentPlan, DocumentTypePlanning, DocumentTypeDataset:
		return DocumentType(s)
	default:
		return DocumentTypePlanning
	}
}

// Document represents an ingested planning document.
// Documents and their chunks are created together during ingestion and
// never updated afterward; re-ingestion deletes and recreates them.
type Document struct {
	// ID is the store-assigned identifier.
	ID int64

	// Title is the human-readable title.
	Title string

	// Source is the original locator (file path).
	Source string

	// Type labels the kind of document.
	Type DocumentType

	// CreatedAt is when the document was ingested.
	CreatedAt time.Time
}

// Chunk is a bounded slice of a document's text, the unit of embedding
// and retrieval. A stored chunk's embedding is immutable; re-embedding
// means inserting a new chunk, never mutating in place.
type Chunk struct {
	// ID is the store-assigned identifier.
	ID int64

	// DocumentID links to the owning Document.
	DocumentID int64

	// Content is the text content of this chunk.
	Content string

	// Page is the page or position number within the document.
	Page int

	// Embedding is the vector representation for similarity search.
	// Nil when the chunk has not been embedded; such chunks are
	// excluded from similarity queries.
	Embedding []float32

	// CreatedAt is when the chunk was stored.
	CreatedAt time.Time
}

// PassageMeta carries the source metadata attached to every passage a
// loader or chunker produces.
type PassageMeta struct {
	// Title is the document title.
	Title string

	// Source is the original locator (file path).
	Source string

	// Page is the page or position number.
	Page int

	// Type labels the kind of document.
	Type DocumentType
}

// Passage is the single explicit value type shared by all ingestion
// sources: chunk text plus its metadata, before persistence.
type Passage struct {
	// Content is the chunk text.
	Content string

	// Meta is the source metadata.
	Meta PassageMeta
}

// QueryResult is a single similarity hit. It is constructed fresh per
// query and discarded after the response is built; it is never persisted.
type QueryResult struct {
	// Content is the (normalized) chunk text.
	Content string

	// Title is the owning document's title.
	Title string

	// Source is the owning document's locator.
	Source string

	// Page is the chunk's page number.
	Page int

	// Similarity is the score in [0,1] derived from the store's
	// distance metric.
	Similarity float64
}

// RowCounts summarises store contents for health checks.
type RowCounts struct {
	// DocumentCount is the number of stored documents.
	DocumentCount int64

	// ChunkCount is the number of stored chunks.
	ChunkCount int64

	// ChunksWithEmbedding is the number of chunks carrying a vector.
	ChunksWithEmbedding int64
}
