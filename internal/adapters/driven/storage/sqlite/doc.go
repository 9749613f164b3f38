// Package sqlite implements the VectorStore port on SQLite.
//
// Embeddings are stored as little-endian float32 BLOBs next to their
// chunk rows. Similarity queries scan candidate vectors and rank them
// by cosine distance in Go; the score exposed to callers is the fixed
// mapping similarity = 1 - cosineDistance, clamped to [0,1].
//
// The store's embedding dimension is fixed when the schema is first
// set up and persisted in store_meta; reopening the store with a
// different dimension is an error.
package sqlite
