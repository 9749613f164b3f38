package driven

import "context"

// EmbeddingService converts text into fixed-dimension vectors.
//
// Implementations may include:
//   - OpenAI (text-embedding-3-small, text-embedding-3-large)
//   - Ollama (nomic-embed-text, all-minilm)
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts. Per-item
	// failures do not abort the batch: successful vectors are always
	// returned, and failed items are identified in the result.
	EmbedBatch(ctx context.Context, texts []string) (BatchResult, error)

	// Dimensions returns the embedding vector size (e.g., 384, 1536).
	// This must match the VectorStore's fixed dimension.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable with a lightweight
	// request. Used at startup and by health checks.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// BatchResult is the outcome of an EmbedBatch call.
type BatchResult struct {
	// Vectors holds one entry per input text, in input order. Entries
	// for failed items are nil.
	Vectors [][]float32

	// Failed identifies items that could not be embedded after the
	// bounded retries.
	Failed []BatchFailure
}

// BatchFailure records one failed batch item.
type BatchFailure struct {
	// Index is the item's position in the input batch.
	Index int

	// Err is the final error after retries were exhausted.
	Err error
}
