package loaders

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/civicdocs/planrag/internal/core/ports/driven"
)

// Ensure Registry implements the interface.
var _ driven.LoaderRegistry = (*Registry)(nil)

// Registry maps file extensions to loaders.
type Registry struct {
	byExt map[string]driven.Loader
}

// NewRegistry creates a registry containing the given loaders. Later
// registrations win when extensions collide.
func NewRegistry(ls ...driven.Loader) *Registry {
	r := &Registry{byExt: make(map[string]driven.Loader)}
	for _, l := range ls {
		r.Register(l)
	}
	return r
}

// Register adds a loader to the registry.
func (r *Registry) Register(l driven.Loader) {
	for _, ext := range l.Extensions() {
		r.byExt[strings.ToLower(ext)] = l
	}
}

// ForPath returns the loader for the path's extension.
func (r *Registry) ForPath(path string) (driven.Loader, bool) {
	l, ok := r.byExt[strings.ToLower(filepath.Ext(path))]
	return l, ok
}

// Extensions returns all registered extensions, sorted.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// InferTitle derives a human-readable title from a file path: the base
// name without extension, underscores and dashes replaced with spaces.
func InferTitle(path string) string {
	name := filepath.Base(path)
	if ext := filepath.Ext(name); ext != "" {
		name = strings.TrimSuffix(name, ext)
	}
	name = strings.ReplaceAll(name, "_", " ")
	name = strings.ReplaceAll(name, "-", " ")
	return strings.TrimSpace(name)
}
