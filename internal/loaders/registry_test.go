package loaders

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicdocs/planrag/internal/loaders/csv"
	"github.com/civicdocs/planrag/internal/loaders/plaintext"
)

func TestRegistry_ForPath(t *testing.T) {
	r := NewRegistry(plaintext.New(), csv.New())

	l, ok := r.ForPath("/docs/plan.txt")
	require.True(t, ok)
	assert.NotNil(t, l)

	_, ok = r.ForPath("/docs/plan.TXT")
	assert.True(t, ok, "extension matching is case-insensitive")

	_, ok = r.ForPath("/docs/plan.docx")
	assert.False(t, ok)
}

func TestRegistry_Extensions(t *testing.T) {
	r := NewRegistry(plaintext.New(), csv.New())

	assert.Equal(t, []string{".csv", ".md", ".txt"}, r.Extensions())
}

func TestInferTitle(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/docs/city_development_plan.pdf", "city development plan"},
		{"/docs/flood-zones.txt", "flood zones"},
		{"plain.csv", "plain"},
		{"/docs/no_extension", "no extension"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, InferTitle(tt.path))
		})
	}
}
