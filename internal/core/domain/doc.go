// Package domain defines the core business entities for Planrag.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: an ingested planning document
//   - Chunk: a bounded, overlapping slice of document text, the unit of
//     embedding and retrieval
//   - Passage: chunk text plus source metadata before persistence
//   - QueryResult: an ephemeral similarity hit
//   - Answer: the synthesized response with citations
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
