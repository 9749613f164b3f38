// Package jsonl records query metrics as append-only JSON Lines files.
//
// Writes are best-effort: a metrics failure must never fail or slow the
// query path, so errors are logged at debug level and dropped.
package jsonl

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/civicdocs/planrag/internal/core/domain"
	"github.com/civicdocs/planrag/internal/core/ports/driven"
	"github.com/civicdocs/planrag/internal/logger"
)

// Ensure Recorder implements the interface.
var _ driven.MetricsRecorder = (*Recorder)(nil)

// Log file names inside the metrics directory.
const (
	QueryLogFile = "query_log.jsonl"
	ErrorLogFile = "error_log.jsonl"
)

// Recorder appends query events to JSONL files in a directory.
type Recorder struct {
	mu  sync.Mutex
	dir string
}

// queryRecord is one line of the query log.
type queryRecord struct {
	RequestID      string  `json:"request_id"`
	Timestamp      string  `json:"timestamp"`
	Query          string  `json:"query"`
	Event          string  `json:"event"`
	QueryTime      float64 `json:"query_time,omitempty"`
	SearchTime     float64 `json:"search_time,omitempty"`
	ProcessingTime float64 `json:"processing_time,omitempty"`
	NumResults     int     `json:"num_results,omitempty"`
	AvgSimilarity  float64 `json:"avg_similarity,omitempty"`
}

// errorRecord is one line of the error log.
type errorRecord struct {
	RequestID string  `json:"request_id"`
	Timestamp string  `json:"timestamp"`
	Query     string  `json:"query"`
	Error     string  `json:"error"`
	Duration  float64 `json:"duration"`
}

// NewRecorder creates a recorder writing under dir, creating it if
// needed.
func NewRecorder(dir string) (*Recorder, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Recorder{dir: dir}, nil
}

// LogQuery records a completed query with its metrics.
func (r *Recorder) LogQuery(query string, metrics domain.QueryMetrics) {
	r.append(QueryLogFile, queryRecord{
		RequestID:      uuid.NewString(),
		Timestamp:      time.Now().UTC().Format(time.RFC3339),
		Query:          query,
		Event:          "query",
		QueryTime:      metrics.QueryTime,
		SearchTime:     metrics.SearchTime,
		ProcessingTime: metrics.ProcessingTime,
		NumResults:     metrics.NumResults,
		AvgSimilarity:  metrics.AvgSimilarity,
	})
}

// LogError records a failed query with its duration.
func (r *Recorder) LogError(query string, err error, duration time.Duration) {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	r.append(ErrorLogFile, errorRecord{
		RequestID: uuid.NewString(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Query:     query,
		Error:     msg,
		Duration:  duration.Seconds(),
	})
}

// LogShortQuery records a query rejected for being too short.
func (r *Recorder) LogShortQuery(query string) {
	r.append(QueryLogFile, queryRecord{
		RequestID: uuid.NewString(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Query:     query,
		Event:     "short_query",
	})
}

// LogEmptyResults records a query that retrieved nothing above the
// similarity threshold.
func (r *Recorder) LogEmptyResults(query string) {
	r.append(QueryLogFile, queryRecord{
		RequestID: uuid.NewString(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Query:     query,
		Event:     "empty_results",
	})
}

// append writes one JSON line to the named log file. Failures are
// dropped.
func (r *Recorder) append(name string, record any) {
	line, err := json.Marshal(record)
	if err != nil {
		logger.Debug("metrics: marshal record: %v", err)
		return
	}
	line = append(line, '\n')

	r.mu.Lock()
	defer r.mu.Unlock()

	f, err := os.OpenFile(filepath.Join(r.dir, name), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		logger.Debug("metrics: open %s: %v", name, err)
		return
	}
	defer f.Close()

	if _, err := f.Write(line); err != nil {
		logger.Debug("metrics: write %s: %v", name, err)
	}
}

// Nop is a MetricsRecorder that discards all events.
type Nop struct{}

var _ driven.MetricsRecorder = Nop{}

func (Nop) LogQuery(string, domain.QueryMetrics)  {}
func (Nop) LogError(string, error, time.Duration) {}
func (Nop) LogShortQuery(string)                  {}
func (Nop) LogEmptyResults(string)                {}
