package jsonl

import (
	"bufio"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicdocs/planrag/internal/core/domain"
)

func readLines(t *testing.T, path string) []map[string]any {
	t.Helper()

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var lines []map[string]any
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var record map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &record))
		lines = append(lines, record)
	}
	require.NoError(t, scanner.Err())
	return lines
}

func TestLogQuery_AppendsRecords(t *testing.T) {
	dir := t.TempDir()
	rec, err := NewRecorder(dir)
	require.NoError(t, err)

	rec.LogQuery("height limits", domain.QueryMetrics{
		QueryTime:     1.5,
		NumResults:    3,
		AvgSimilarity: 0.8,
	})
	rec.LogQuery("flood zones", domain.QueryMetrics{QueryTime: 0.4, NumResults: 1, AvgSimilarity: 0.5})

	lines := readLines(t, filepath.Join(dir, QueryLogFile))
	require.Len(t, lines, 2)

	assert.Equal(t, "query", lines[0]["event"])
	assert.Equal(t, "height limits", lines[0]["query"])
	assert.Equal(t, 1.5, lines[0]["query_time"])
	assert.Equal(t, float64(3), lines[0]["num_results"])
	assert.NotEmpty(t, lines[0]["request_id"])

	// Timestamps are RFC 3339.
	ts, ok := lines[0]["timestamp"].(string)
	require.True(t, ok)
	_, err = time.Parse(time.RFC3339, ts)
	assert.NoError(t, err)
}

func TestLogError(t *testing.T) {
	dir := t.TempDir()
	rec, err := NewRecorder(dir)
	require.NoError(t, err)

	rec.LogError("broken query", errors.New("store unavailable"), 2*time.Second)

	lines := readLines(t, filepath.Join(dir, ErrorLogFile))
	require.Len(t, lines, 1)
	assert.Equal(t, "broken query", lines[0]["query"])
	assert.Equal(t, "store unavailable", lines[0]["error"])
	assert.Equal(t, 2.0, lines[0]["duration"])
}

func TestLogShortAndEmptyEvents(t *testing.T) {
	dir := t.TempDir()
	rec, err := NewRecorder(dir)
	require.NoError(t, err)

	rec.LogShortQuery("hi")
	rec.LogEmptyResults("nothing matches this")

	lines := readLines(t, filepath.Join(dir, QueryLogFile))
	require.Len(t, lines, 2)
	assert.Equal(t, "short_query", lines[0]["event"])
	assert.Equal(t, "empty_results", lines[1]["event"])
}

func TestRecorder_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "metrics")

	_, err := NewRecorder(dir)
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestNop_Discards(t *testing.T) {
	var rec Nop
	rec.LogQuery("q", domain.QueryMetrics{})
	rec.LogError("q", errors.New("x"), time.Second)
	rec.LogShortQuery("q")
	rec.LogEmptyResults("q")
}
