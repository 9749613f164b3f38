package driven

import "context"

// PageText is one page (or positional unit) of extracted document text.
type PageText struct {
	// Page is the 1-based page number.
	Page int

	// Text is the extracted text content.
	Text string
}

// Loader extracts text from one source file format. Implementations
// live under internal/loaders and are selected by file extension.
type Loader interface {
	// Extensions returns the lower-case file extensions this loader
	// handles, including the leading dot (e.g. ".pdf").
	Extensions() []string

	// Load extracts the file's text page by page. Unreadable or
	// unparseable files return an error wrapping
	// domain.ErrMalformedSource; the caller skips the file and
	// continues with the rest of the corpus.
	Load(ctx context.Context, path string) ([]PageText, error)
}

// LoaderRegistry selects a loader for a file path.
type LoaderRegistry interface {
	// ForPath returns the loader registered for the path's extension,
	// or false when the extension is unsupported.
	ForPath(path string) (Loader, bool)

	// Extensions returns all registered extensions.
	Extensions() []string
}
