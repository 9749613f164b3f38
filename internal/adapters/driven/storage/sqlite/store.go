package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/civicdocs/planrag/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/civicdocs/planrag/internal/core/domain"
	"github.com/civicdocs/planrag/internal/core/ports/driven"
)

// metaDimensionsKey is the store_meta key holding the fixed dimension.
const metaDimensionsKey = "dimensions"

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// Store is the SQLite-backed vector store.
type Store struct {
	db         *sql.DB
	path       string
	dimensions int
}

// NewStore opens (or creates) the store at the specified data directory
// with the given fixed embedding dimension. If dataDir is empty,
// defaults to ~/.planrag/data.
func NewStore(dataDir string, dimensions int) (*Store, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("%w: dimensions must be positive", domain.ErrInvalidInput)
	}

	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".planrag", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("%w: creating data directory: %v", domain.ErrStoreUnavailable, err)
	}

	dbPath := filepath.Join(dataDir, "planrag.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("%w: opening database: %v", domain.ErrStoreUnavailable, err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}

	// Enable foreign keys so chunk rows cascade with their document
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: enabling foreign keys: %v", domain.ErrStoreUnavailable, err)
	}

	return &Store{
		db:         db,
		path:       dbPath,
		dimensions: dimensions,
	}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Dimensions returns the store's fixed embedding dimension.
func (s *Store) Dimensions() int {
	return s.dimensions
}

// SetupSchema creates storage structures if absent and pins the store's
// dimension. Idempotent: re-running applies nothing new and verifies
// the pinned dimension matches.
func (s *Store) SetupSchema(ctx context.Context) error {
	if err := s.migrate(migrations.FS); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	var stored string
	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM store_meta WHERE key = ?", metaDimensionsKey).Scan(&stored)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = s.db.ExecContext(ctx,
			"INSERT INTO store_meta (key, value) VALUES (?, ?)",
			metaDimensionsKey, strconv.Itoa(s.dimensions))
		if err != nil {
			return fmt.Errorf("pinning dimensions: %w", err)
		}
	case err != nil:
		return fmt.Errorf("reading store meta: %w", err)
	default:
		pinned, convErr := strconv.Atoi(stored)
		if convErr != nil {
			return fmt.Errorf("corrupt store meta dimensions %q: %w", stored, convErr)
		}
		if pinned != s.dimensions {
			return fmt.Errorf("%w: store created with dimension %d, configured %d",
				domain.ErrDimensionMismatch, pinned, s.dimensions)
		}
	}

	return nil
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(
			"INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// StoreDocument stores document metadata and returns its ID.
func (s *Store) StoreDocument(
	ctx context.Context, title, source string, docType domain.DocumentType,
) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (title, source, document_type)
		VALUES (?, ?, ?)
	`, title, source, docType.String())
	if err != nil {
		return 0, fmt.Errorf("saving document: %w", s.classify(err))
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading document id: %w", err)
	}
	return id, nil
}

// StoreChunks batch-inserts passages and embeddings for a document in a
// single transaction. Every embedding is validated against the store's
// dimension before anything is written, so a mismatch leaves the store
// unchanged. A nil embedding stores the chunk without a vector.
func (s *Store) StoreChunks(
	ctx context.Context, documentID int64, passages []domain.Passage, embeddings [][]float32,
) error {
	if len(passages) != len(embeddings) {
		return fmt.Errorf("%w: %d passages but %d embeddings",
			domain.ErrInvalidInput, len(passages), len(embeddings))
	}

	for i, emb := range embeddings {
		if emb != nil && len(emb) != s.dimensions {
			return fmt.Errorf("%w: embedding %d has dimension %d, store requires %d",
				domain.ErrDimensionMismatch, i, len(emb), s.dimensions)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", s.classify(err))
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (document_id, content, page_number, embedding)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", s.classify(err))
	}
	defer stmt.Close()

	for i, passage := range passages {
		blob := float32SliceToBytes(embeddings[i])
		if _, err := stmt.ExecContext(ctx,
			documentID, passage.Content, passage.Meta.Page, blob); err != nil {
			return fmt.Errorf("saving chunk %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// candidate is one scored row before ranking.
type candidate struct {
	id         int64
	content    string
	page       int
	title      string
	source     string
	similarity float64
}

// QuerySimilar returns at most k results ordered by non-increasing
// similarity, ties broken by insertion order (lowest chunk ID first).
// Chunks without an embedding are excluded. An empty store returns an
// empty slice.
func (s *Store) QuerySimilar(
	ctx context.Context, vector []float32, k int,
) ([]domain.QueryResult, error) {
	if len(vector) != s.dimensions {
		return nil, fmt.Errorf("%w: query vector has dimension %d, store requires %d",
			domain.ErrDimensionMismatch, len(vector), s.dimensions)
	}
	if k <= 0 {
		return []domain.QueryResult{}, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.content, c.page_number, c.embedding, d.title, d.source
		FROM chunks c
		JOIN documents d ON d.id = c.document_id
		WHERE c.embedding IS NOT NULL
		ORDER BY c.id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", s.classify(err))
	}
	defer rows.Close()

	var candidates []candidate //nolint:prealloc // size unknown from query
	for rows.Next() {
		var c candidate
		var blob []byte
		if err := rows.Scan(&c.id, &c.content, &c.page, &blob, &c.title, &c.source); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}

		embedding := bytesToFloat32Slice(blob)
		if len(embedding) != s.dimensions {
			// Structurally invalid row; skip rather than fail the query.
			continue
		}

		c.similarity = CosineSimilarity(vector, embedding)
		candidates = append(candidates, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	// Rank by similarity, then by insertion order for equal scores.
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].similarity != candidates[j].similarity {
			return candidates[i].similarity > candidates[j].similarity
		}
		return candidates[i].id < candidates[j].id
	})

	if k > len(candidates) {
		k = len(candidates)
	}

	results := make([]domain.QueryResult, 0, k)
	for _, c := range candidates[:k] {
		results = append(results, domain.QueryResult{
			Content:    c.content,
			Title:      c.title,
			Source:     c.source,
			Page:       c.page,
			Similarity: c.similarity,
		})
	}
	return results, nil
}

// DeleteDocument removes one document; its chunks cascade.
func (s *Store) DeleteDocument(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting document %d: %w", id, s.classify(err))
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting document %d: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: document %d", domain.ErrNotFound, id)
	}
	return nil
}

// DeleteBySource removes documents ingested from the given source
// locator; their chunks cascade.
func (s *Store) DeleteBySource(ctx context.Context, source string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM documents WHERE source = ?", source)
	if err != nil {
		return fmt.Errorf("deleting documents for %s: %w", source, s.classify(err))
	}
	return nil
}

// RowCounts reports document/chunk/embedding counts.
func (s *Store) RowCounts(ctx context.Context) (domain.RowCounts, error) {
	var counts domain.RowCounts

	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM documents").Scan(&counts.DocumentCount)
	if err != nil {
		return domain.RowCounts{}, fmt.Errorf("counting documents: %w", s.classify(err))
	}

	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(embedding) FROM chunks
	`).Scan(&counts.ChunkCount, &counts.ChunksWithEmbedding)
	if err != nil {
		return domain.RowCounts{}, fmt.Errorf("counting chunks: %w", s.classify(err))
	}

	return counts, nil
}

// Reset drops and recreates all storage structures.
func (s *Store) Reset(ctx context.Context) error {
	for _, stmt := range []string{
		"DROP TABLE IF EXISTS chunks",
		"DROP TABLE IF EXISTS documents",
		"DROP TABLE IF EXISTS store_meta",
		"DROP TABLE IF EXISTS schema_migrations",
	} {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("resetting store: %w", s.classify(err))
		}
	}
	return s.SetupSchema(ctx)
}

// classify maps driver errors to domain sentinels where the failure
// mode is meaningful to callers.
func (s *Store) classify(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if strings.Contains(msg, "no such table") {
		return fmt.Errorf("%w: %v", domain.ErrSchemaMissing, err)
	}
	if strings.Contains(msg, "database is locked") || strings.Contains(msg, "unable to open") {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return err
}

// ==================== Helper Functions ====================

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
