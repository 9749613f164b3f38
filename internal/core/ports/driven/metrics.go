package driven

import (
	"time"

	"github.com/civicdocs/planrag/internal/core/domain"
)

// MetricsRecorder receives query and error events. Calls are append-only
// and fire-and-forget: implementations must never block or fail the
// query path, so none of these methods return an error.
type MetricsRecorder interface {
	// LogQuery records a completed query with its metrics.
	LogQuery(query string, metrics domain.QueryMetrics)

	// LogError records a failed query with its duration.
	LogError(query string, err error, duration time.Duration)

	// LogShortQuery records a query rejected for being too short.
	LogShortQuery(query string)

	// LogEmptyResults records a query that retrieved nothing above the
	// similarity threshold.
	LogEmptyResults(query string)
}
