// Package chunker splits document text into bounded, overlapping
// passages for embedding and retrieval.
package chunker

import (
	"strings"
	"unicode/utf8"

	"github.com/civicdocs/planrag/internal/core/domain"
)

// DefaultChunkSize is the default maximum number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of overlapping characters
// between consecutive chunks.
const DefaultChunkOverlap = 100

// Chunker splits text into chunks no larger than a configured size,
// preferring paragraph, then sentence, then word boundaries before
// falling back to raw character cuts. Chunks are exact substrings of
// the input: concatenating them in order with the overlap removed
// reconstructs the original text.
type Chunker struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithChunkSize sets the maximum chunk size in characters.
func WithChunkSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

// New creates a chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(c)
	}

	// Cap overlap at half the chunk size so every cut advances past
	// the previous start and no chunk is shorter than the overlap.
	if c.overlap > c.chunkSize/2 {
		c.overlap = c.chunkSize / 2
	}

	return c
}

// ChunkSize returns the configured maximum chunk size.
func (c *Chunker) ChunkSize() int {
	return c.chunkSize
}

// Overlap returns the configured overlap.
func (c *Chunker) Overlap() int {
	return c.overlap
}

// Split splits text into passages carrying meta. Text no longer than
// the chunk size yields exactly one passage; empty text yields none.
func (c *Chunker) Split(text string, meta domain.PassageMeta) []domain.Passage {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	textLen := len(text)
	if textLen <= c.chunkSize {
		return []domain.Passage{{Content: text, Meta: meta}}
	}

	estimated := textLen/(c.chunkSize-c.overlap) + 1
	passages := make([]domain.Passage, 0, estimated)

	start := 0
	for start < textLen {
		if textLen-start <= c.chunkSize {
			passages = append(passages, domain.Passage{Content: text[start:], Meta: meta})
			break
		}

		cut := c.findCut(text, start, start+c.chunkSize)
		passages = append(passages, domain.Passage{Content: text[start:cut], Meta: meta})

		next := cut - c.overlap
		if next <= start {
			// Overlap would stall progress on a tiny chunk.
			next = cut
		}
		start = next
	}

	return passages
}

// findCut picks the best split point in (start, limit], preferring a
// paragraph break, then a sentence end, then a word boundary. The cut
// must leave a non-trivial chunk, so boundaries in the first half of
// the window are ignored.
func (c *Chunker) findCut(text string, start, limit int) int {
	window := text[start:limit]
	min := len(window) / 2

	if i := strings.LastIndex(window, "\n\n"); i > min {
		return start + i + 2
	}

	if i := lastSentenceEnd(window); i > min {
		return start + i
	}

	if i := strings.LastIndexAny(window, " \n\t"); i > min {
		return start + i + 1
	}

	// Raw cut: back off to a rune boundary so a multi-byte character
	// is never split across chunks.
	for limit > start && !utf8.RuneStart(text[limit]) {
		limit--
	}
	return limit
}

// lastSentenceEnd returns the index just past the last sentence
// terminator that is followed by whitespace, or -1.
func lastSentenceEnd(s string) int {
	for i := len(s) - 2; i >= 0; i-- {
		switch s[i] {
		case '.', '!', '?':
			next := s[i+1]
			if next == ' ' || next == '\n' || next == '\t' {
				return i + 1
			}
		}
	}
	return -1
}
