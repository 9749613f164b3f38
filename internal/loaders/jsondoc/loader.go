// Package jsondoc loads JSON document dumps: either an array of strings
// or an array of objects with textual fields.
package jsondoc

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/civicdocs/planrag/internal/core/domain"
	"github.com/civicdocs/planrag/internal/core/ports/driven"
)

// Ensure Loader implements the interface.
var _ driven.Loader = (*Loader)(nil)

// Loader reads JSON files.
type Loader struct{}

// New creates a JSON loader.
func New() *Loader {
	return &Loader{}
}

// Extensions returns the file extensions this loader handles.
func (l *Loader) Extensions() []string {
	return []string{".json"}
}

// Load treats each array element as one page. String elements are used
// verbatim; object elements are rendered as "key: value" lines with
// keys sorted for stable output.
func (l *Loader) Load(_ context.Context, path string) ([]driven.PageText, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", domain.ErrMalformedSource, path, err)
	}

	var elements []json.RawMessage
	if err := json.Unmarshal(data, &elements); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", domain.ErrMalformedSource, path, err)
	}

	pages := make([]driven.PageText, 0, len(elements))
	for i, element := range elements {
		text, err := renderElement(element)
		if err != nil {
			return nil, fmt.Errorf("%w: element %d of %s: %v", domain.ErrMalformedSource, i, path, err)
		}
		if text == "" {
			continue
		}
		pages = append(pages, driven.PageText{Page: i + 1, Text: text})
	}

	return pages, nil
}

func renderElement(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s), nil
	}

	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return "", err
	}

	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %v\n", k, obj[k])
	}
	return strings.TrimSpace(b.String()), nil
}
