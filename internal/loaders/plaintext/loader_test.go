package plaintext

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicdocs/planrag/internal/core/domain"
)

func TestLoad_SinglePage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("  Zoning objectives.\n"), 0o644))

	pages, err := New().Load(context.Background(), path)

	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, 1, pages[0].Page)
	assert.Equal(t, "Zoning objectives.", pages[0].Text)
}

func TestLoad_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.txt")
	require.NoError(t, os.WriteFile(path, []byte("   \n\t"), 0o644))

	pages, err := New().Load(context.Background(), path)

	require.NoError(t, err)
	assert.Empty(t, pages)
}

func TestLoad_InvalidUTF8(t *testing.T) {
	path := filepath.Join(t.TempDir(), "binary.txt")
	require.NoError(t, os.WriteFile(path, []byte{0xff, 0xfe, 0x00}, 0o644))

	_, err := New().Load(context.Background(), path)
	assert.ErrorIs(t, err, domain.ErrMalformedSource)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := New().Load(context.Background(), filepath.Join(t.TempDir(), "nope.txt"))
	assert.ErrorIs(t, err, domain.ErrMalformedSource)
}

func TestExtensions(t *testing.T) {
	assert.ElementsMatch(t, []string{".txt", ".md"}, New().Extensions())
}
