package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrStoreUnavailable indicates the persistent store cannot be
	// reached. Fatal at ingestion start; surfaced as a service error
	// at query time.
	ErrStoreUnavailable = errors.New("vector store unavailable")

	// ErrSchemaMissing indicates expected tables are absent. Fatal at
	// startup; re-run ingestion/setup to fix.
	ErrSchemaMissing = errors.New("store schema missing")

	// ErrDimensionMismatch indicates an embedding vector's length does
	// not match the store's fixed dimension. The write is rejected and
	// nothing is stored.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrEmbeddingService indicates the embedding service failed after
	// all retry attempts.
	ErrEmbeddingService = errors.New("embedding service error")

	// ErrMalformedSource indicates an unreadable or unparseable input
	// file. The file is skipped; the rest of the corpus continues.
	ErrMalformedSource = errors.New("malformed source file")

	// ErrGenerationFailure indicates the text-generation call failed.
	// The caller degrades to the templated apology answer.
	ErrGenerationFailure = errors.New("text generation failed")

	// ErrGenerationTimeout indicates the text-generation call exceeded
	// its timeout.
	ErrGenerationTimeout = errors.New("text generation timed out")
)
