// Package csv loads tabular planning datasets. Each row becomes a line
// of " | "-separated fields prefixed with the row's first column, which
// is the origin of the retriever's column-separator normalization rule.
package csv

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/civicdocs/planrag/internal/core/domain"
	"github.com/civicdocs/planrag/internal/core/ports/driven"
)

// RowsPerPage bounds how many rows are grouped into one logical page.
const RowsPerPage = 50

// Ensure Loader implements the interface.
var _ driven.Loader = (*Loader)(nil)

// Loader reads CSV files.
type Loader struct{}

// New creates a CSV loader.
func New() *Loader {
	return &Loader{}
}

// Extensions returns the file extensions this loader handles.
func (l *Loader) Extensions() []string {
	return []string{".csv"}
}

// Load renders rows as delimited text lines, grouped into pages of
// RowsPerPage rows. The header row, when present, is skipped.
func (l *Loader) Load(ctx context.Context, path string) ([]driven.PageText, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", domain.ErrMalformedSource, path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", domain.ErrMalformedSource, path, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if len(records) > 1 {
		records = records[1:] // drop header
	}

	var pages []driven.PageText
	var lines []string
	page := 1

	flush := func() {
		if len(lines) == 0 {
			return
		}
		pages = append(pages, driven.PageText{Page: page, Text: strings.Join(lines, "\n")})
		page++
		lines = nil
	}

	for _, record := range records {
		line := strings.TrimSpace(strings.Join(record, " | "))
		if line == "" || strings.Trim(line, " |") == "" {
			continue
		}
		lines = append(lines, line)
		if len(lines) >= RowsPerPage {
			flush()
		}
	}
	flush()

	return pages, nil
}
