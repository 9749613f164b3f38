package driving

import "context"

// IngestService coordinates corpus ingestion: loading, chunking,
// embedding and storing documents.
type IngestService interface {
	// Ingest processes every supported file under dir. Malformed files
	// are skipped and reported in the returned report; they never
	// abort the run.
	Ingest(ctx context.Context, dir string) (IngestReport, error)

	// Watch re-ingests files under dir as they are created or
	// modified, until ctx is cancelled.
	Watch(ctx context.Context, dir string) error
}

// IngestReport summarises one ingestion run.
type IngestReport struct {
	// RunID identifies the ingestion run in logs.
	RunID string

	// Files is the number of files considered.
	Files int

	// Documents is the number of documents stored.
	Documents int

	// Chunks is the number of chunks stored.
	Chunks int

	// Embedded is the number of chunks stored with an embedding.
	Embedded int

	// Failures lists per-file failures.
	Failures []FileFailure
}

// FileFailure records one file that could not be processed.
type FileFailure struct {
	// Path is the file's path.
	Path string

	// Err describes why it failed.
	Err string
}
