package services

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"github.com/civicdocs/planrag/internal/chunker"
	"github.com/civicdocs/planrag/internal/core/domain"
	"github.com/civicdocs/planrag/internal/core/ports/driven"
	"github.com/civicdocs/planrag/internal/core/ports/driving"
	"github.com/civicdocs/planrag/internal/loaders"
	"github.com/civicdocs/planrag/internal/logger"
	"github.com/civicdocs/planrag/internal/workerpool"
)

// Ensure IngestorService implements the interface.
var _ driving.IngestService = (*IngestorService)(nil)

// DefaultIngestParallelism bounds concurrent file processing.
const DefaultIngestParallelism = 4

// IngestorService walks a directory, loads supported files, chunks
// their text, embeds the chunks and stores the result. Re-ingesting a
// source replaces its previous documents and chunks.
type IngestorService struct {
	registry driven.LoaderRegistry
	splitter *chunker.Chunker
	embedder driven.EmbeddingService
	store    driven.VectorStore
	pool     *workerpool.Pool

	// storeMu serialises store writes; the SQLite driver allows one
	// writer at a time.
	storeMu sync.Mutex
}

// NewIngestorService creates an ingestor. parallelism values below 1
// mean DefaultIngestParallelism.
func NewIngestorService(
	registry driven.LoaderRegistry,
	splitter *chunker.Chunker,
	embedder driven.EmbeddingService,
	store driven.VectorStore,
	parallelism int,
) *IngestorService {
	if parallelism < 1 {
		parallelism = DefaultIngestParallelism
	}
	return &IngestorService{
		registry: registry,
		splitter: splitter,
		embedder: embedder,
		store:    store,
		pool:     workerpool.New(parallelism),
	}
}

// Ingest processes every supported file under dir. Malformed files are
// recorded in the report and skipped; they never abort the run.
func (s *IngestorService) Ingest(ctx context.Context, dir string) (driving.IngestReport, error) {
	report := driving.IngestReport{RunID: uuid.NewString()}

	logger.Section("Ingestion Run")
	logger.Info("Run %s: scanning %s", report.RunID, dir)

	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if _, ok := s.registry.ForPath(path); ok {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return report, fmt.Errorf("scan %s: %w", dir, err)
	}

	report.Files = len(paths)
	logger.Info("Found %d supported files (extensions: %v)", len(paths), s.registry.Extensions())
	if len(paths) == 0 {
		return report, nil
	}

	var mu sync.Mutex
	var done int
	tasks := make([]workerpool.Task, len(paths))
	for i, path := range paths {
		path := path
		tasks[i] = func(ctx context.Context) error {
			docs, chunks, embedded, err := s.ingestFile(ctx, path)
			mu.Lock()
			defer mu.Unlock()
			done++
			logger.Progress(done, len(paths), path)
			if err != nil {
				report.Failures = append(report.Failures, driving.FileFailure{
					Path: path,
					Err:  err.Error(),
				})
				return nil
			}
			report.Documents += docs
			report.Chunks += chunks
			report.Embedded += embedded
			return nil
		}
	}

	for _, err := range s.pool.Submit(ctx, tasks) {
		if err != nil && ctx.Err() != nil {
			return report, ctx.Err()
		}
	}

	logger.Info("Run %s complete: %d documents, %d chunks (%d embedded), %d failures",
		report.RunID, report.Documents, report.Chunks, report.Embedded, len(report.Failures))
	return report, nil
}

// ingestFile loads, chunks, embeds and stores one file, returning the
// document, chunk and embedded-chunk counts.
func (s *IngestorService) ingestFile(ctx context.Context, path string) (int, int, int, error) {
	loader, ok := s.registry.ForPath(path)
	if !ok {
		return 0, 0, 0, fmt.Errorf("%w: no loader for %s", domain.ErrInvalidInput, path)
	}

	logger.Debug("Loading %s", path)
	pages, err := loader.Load(ctx, path)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("load: %w", err)
	}

	title := loaders.InferTitle(path)
	docType := inferDocumentType(path, title)

	var passages []domain.Passage
	for _, page := range pages {
		meta := domain.PassageMeta{
			Title:  title,
			Source: path,
			Page:   page.Page,
			Type:   docType,
		}
		passages = append(passages, s.splitter.Split(page.Text, meta)...)
	}
	if len(passages) == 0 {
		return 0, 0, 0, fmt.Errorf("%w: no text content", domain.ErrMalformedSource)
	}
	logger.Debug("%s: %d pages, %d chunks", path, len(pages), len(passages))

	texts := make([]string, len(passages))
	for i, p := range passages {
		texts[i] = p.Content
	}

	batch, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("embed: %w", err)
	}
	embedded := len(passages) - len(batch.Failed)
	for _, failure := range batch.Failed {
		logger.Warn("%s: chunk %d not embedded: %v", path, failure.Index, failure.Err)
	}

	s.storeMu.Lock()
	defer s.storeMu.Unlock()

	// Replace any previous ingestion of this source.
	if err := s.store.DeleteBySource(ctx, path); err != nil {
		return 0, 0, 0, fmt.Errorf("delete previous: %w", err)
	}

	docID, err := s.store.StoreDocument(ctx, title, path, docType)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("store document: %w", err)
	}

	if err := s.store.StoreChunks(ctx, docID, passages, batch.Vectors); err != nil {
		return 0, 0, 0, fmt.Errorf("store chunks: %w", err)
	}

	return 1, len(passages), embedded, nil
}

// Watch re-ingests files under dir as they are created or modified,
// until ctx is cancelled.
func (s *IngestorService) Watch(ctx context.Context, dir string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	logger.Info("Watching %s for changes", dir)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if _, supported := s.registry.ForPath(event.Name); !supported {
				continue
			}
			logger.Info("Change detected: %s", event.Name)
			if _, _, _, err := s.ingestFile(ctx, event.Name); err != nil {
				logger.Warn("Re-ingest %s: %v", event.Name, err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error: %v", err)
		}
	}
}

// inferDocumentType labels a file by its extension and title.
func inferDocumentType(path, title string) domain.DocumentType {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".json":
		return domain.DocumentTypeDataset
	}

	lower := strings.ToLower(title)
	if strings.Contains(lower, "development plan") {
		return domain.DocumentTypeDevelopmentPlan
	}
	return domain.DocumentTypePlanning
}
